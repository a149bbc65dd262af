package receipts

import (
	"context"
	"errors"
	"io"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/makao-africa/makao-backend/pkg/config"
	"github.com/makao-africa/makao-backend/pkg/db/models"
	"github.com/makao-africa/makao-backend/pkg/enums"
	pkgerrors "github.com/makao-africa/makao-backend/pkg/errors"
	"github.com/makao-africa/makao-backend/pkg/logger"
	"github.com/makao-africa/makao-backend/pkg/outbox"
)

type stubReceiptRepo struct {
	byKey     *models.Receipt
	keyErr    error
	byID      *models.Receipt
	inserted  *models.Receipt
	insertErr error
	winner    *models.Receipt
}

func (s *stubReceiptRepo) WithTx(tx *gorm.DB) Repository { return s }

func (s *stubReceiptRepo) Insert(ctx context.Context, receipt *models.Receipt) (*models.Receipt, bool, error) {
	if s.insertErr != nil {
		return nil, false, s.insertErr
	}
	if s.winner != nil {
		return s.winner, false, nil
	}
	s.inserted = receipt
	return receipt, true, nil
}

func (s *stubReceiptRepo) FindByReceiptID(ctx context.Context, receiptID string) (*models.Receipt, error) {
	return s.byID, nil
}

func (s *stubReceiptRepo) FindByIdempotencyKey(ctx context.Context, key string) (*models.Receipt, error) {
	if s.keyErr != nil {
		return nil, s.keyErr
	}
	return s.byKey, nil
}

type stubRenderer struct {
	pdf  []byte
	err  error
	html string
}

func (s *stubRenderer) RenderHTML(ctx context.Context, html string) ([]byte, error) {
	s.html = html
	if s.err != nil {
		return nil, s.err
	}
	return s.pdf, nil
}

type stubUploader struct {
	uploadErr  error
	uploads    int
	key        string
	data       []byte
	signErr    error
	signedURL  string
	publicBase string
}

func (s *stubUploader) Upload(ctx context.Context, key string, data []byte, contentType string) error {
	s.uploads++
	if s.uploadErr != nil {
		return s.uploadErr
	}
	s.key = key
	s.data = data
	return nil
}

func (s *stubUploader) PublicURL(key string) string {
	return s.publicBase + key
}

func (s *stubUploader) SignedDownloadURL(key string, ttl time.Duration) (string, error) {
	if s.signErr != nil {
		return "", s.signErr
	}
	return s.signedURL, nil
}

type stubReceiptEmitter struct {
	events []outbox.DomainEvent
	err    error
}

func (s *stubReceiptEmitter) Emit(ctx context.Context, tx *gorm.DB, event outbox.DomainEvent) error {
	if s.err != nil {
		return s.err
	}
	s.events = append(s.events, event)
	return nil
}

type stubTxRunner struct{}

func (stubTxRunner) WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error {
	return fn(nil)
}

type receiptFixture struct {
	repo     *stubReceiptRepo
	renderer *stubRenderer
	uploader *stubUploader
	emitter  *stubReceiptEmitter
	svc      Service
}

func newReceiptFixture(t *testing.T) *receiptFixture {
	t.Helper()
	logg := logger.New(logger.Options{ServiceName: "receipts-test", Output: io.Discard})
	f := &receiptFixture{
		repo:     &stubReceiptRepo{},
		renderer: &stubRenderer{pdf: []byte("%PDF-1.7 fake")},
		uploader: &stubUploader{
			signedURL:  "https://storage.googleapis.com/signed",
			publicBase: "https://storage.googleapis.com/makao-receipts/",
		},
		emitter: &stubReceiptEmitter{},
	}
	cfg := config.ReceiptsConfig{
		VerifyBaseURL: "https://makao.africa/receipts/verify",
		UploadRetries: 3,
		UploadBackoff: time.Millisecond,
	}
	svc, err := NewService(f.repo, f.renderer, f.uploader, f.emitter, stubTxRunner{}, cfg, time.Hour, nil, logg)
	if err != nil {
		t.Fatalf("new service: %v", err)
	}
	f.svc = svc
	return f
}

func generateInput() GenerateInput {
	return GenerateInput{
		PropertyName:     "Kilimani Heights",
		RoomName:         "Garden Suite",
		GuestName:        "Amina Odhiambo",
		PayerEmail:       "guest@example.com",
		PaymentReference: "sq_ref_1",
		Amount:           AmountInput{Display: "KES 2,500.00"},
		IdempotencyKey:   "key-1",
		CreatedBy:        "fulfillment",
	}
}

func TestGenerateHappyPath(t *testing.T) {
	f := newReceiptFixture(t)

	result, err := f.svc.Generate(context.Background(), generateInput())
	if err != nil {
		t.Fatalf("generate: %v", err)
	}
	if result.Reused {
		t.Fatal("fresh generation reported as reused")
	}
	r := result.Receipt
	if !strings.HasPrefix(r.ReceiptID, "rcp_") {
		t.Fatalf("receipt id %q missing rcp_ prefix", r.ReceiptID)
	}
	if len(r.ReceiptNumber) != 10 {
		t.Fatalf("receipt number %q is not 10 digits", r.ReceiptNumber)
	}
	if r.AmountCents != 250000 || r.Currency != enums.CurrencyKES {
		t.Fatalf("amount = %d %s", r.AmountCents, r.Currency)
	}
	if r.VerifyURL != "https://makao.africa/receipts/verify/"+r.ReceiptID {
		t.Fatalf("verify url = %q", r.VerifyURL)
	}
	if f.uploader.key != "receipts/"+r.ReceiptID+".pdf" {
		t.Fatalf("upload key = %q", f.uploader.key)
	}
	if string(f.uploader.data) != "%PDF-1.7 fake" {
		t.Fatal("uploaded bytes are not the rendered pdf")
	}
	if !strings.Contains(f.renderer.html, "data:image/png;base64,") {
		t.Fatal("rendered html is missing the embedded qr image")
	}
	if !strings.Contains(f.renderer.html, r.VerifyURL) {
		t.Fatal("rendered html is missing the verify url")
	}
	if len(f.emitter.events) != 1 || f.emitter.events[0].EventType != enums.EventReceiptGenerated {
		t.Fatalf("expected receipt_generated event, got %+v", f.emitter.events)
	}
	if f.repo.inserted == nil || f.repo.inserted.IdempotencyKey == nil || *f.repo.inserted.IdempotencyKey != "key-1" {
		t.Fatal("idempotency key not persisted")
	}
}

func TestGenerateIdempotentReplay(t *testing.T) {
	f := newReceiptFixture(t)
	prior := &models.Receipt{ReceiptID: "rcp_prior"}
	f.repo.byKey = prior

	result, err := f.svc.Generate(context.Background(), generateInput())
	if err != nil {
		t.Fatalf("generate: %v", err)
	}
	if !result.Reused || result.Receipt != prior {
		t.Fatal("expected prior receipt to be returned")
	}
	if f.uploader.uploads != 0 {
		t.Fatal("replay should not upload")
	}
	if len(f.emitter.events) != 0 {
		t.Fatal("replay should not emit events")
	}
}

func TestGenerateInsertConflictReturnsStoredReceipt(t *testing.T) {
	f := newReceiptFixture(t)
	key := "key-1"
	winner := &models.Receipt{
		ID:             uuid.New(),
		ReceiptID:      "rcp_winner",
		IdempotencyKey: &key,
	}
	f.repo.winner = winner

	result, err := f.svc.Generate(context.Background(), generateInput())
	if err != nil {
		t.Fatalf("generate: %v", err)
	}
	if !result.Reused {
		t.Fatal("losing insert must report reuse")
	}
	if result.Receipt != winner {
		t.Fatalf("expected stored winner rcp_winner, got %q", result.Receipt.ReceiptID)
	}
	if len(f.emitter.events) != 0 {
		t.Fatal("losing insert must not emit an event for the skipped row")
	}
}

func TestGenerateIdempotencyLookupFailureIsNonFatal(t *testing.T) {
	f := newReceiptFixture(t)
	f.repo.keyErr = errors.New("connection reset")

	result, err := f.svc.Generate(context.Background(), generateInput())
	if err != nil {
		t.Fatalf("generate: %v", err)
	}
	if result.Reused {
		t.Fatal("lookup failure must not report reuse")
	}
	if f.uploader.uploads == 0 {
		t.Fatal("generation should proceed past a failed lookup")
	}
}

func TestGenerateInvalidAmount(t *testing.T) {
	f := newReceiptFixture(t)
	in := generateInput()
	in.Amount = AmountInput{Display: "KES abc"}

	_, err := f.svc.Generate(context.Background(), in)
	if !pkgerrors.Is(err, pkgerrors.CodeInvalidAmount) {
		t.Fatalf("expected INVALID_AMOUNT, got %v", err)
	}
	if f.uploader.uploads != 0 {
		t.Fatal("invalid amount should fail before any side effect")
	}
}

func TestGeneratePDFFailure(t *testing.T) {
	f := newReceiptFixture(t)
	f.renderer.err = pkgerrors.New(pkgerrors.CodePDFGeneration, "render service returned status 500")

	_, err := f.svc.Generate(context.Background(), generateInput())
	if !pkgerrors.Is(err, pkgerrors.CodePDFGeneration) {
		t.Fatalf("expected PDF_GENERATION_FAILED, got %v", err)
	}
	if f.repo.inserted != nil {
		t.Fatal("no receipt row may exist without its artifact")
	}
}

func TestGenerateUploadExhaustion(t *testing.T) {
	f := newReceiptFixture(t)
	f.uploader.uploadErr = errors.New("503 backend error")

	_, err := f.svc.Generate(context.Background(), generateInput())
	if !pkgerrors.Is(err, pkgerrors.CodeGeneration) {
		t.Fatalf("expected GENERATION_FAILED, got %v", err)
	}
	if f.uploader.uploads != 3 {
		t.Fatalf("expected 3 upload attempts, got %d", f.uploader.uploads)
	}
	if f.repo.inserted != nil {
		t.Fatal("no receipt row may exist after upload exhaustion")
	}
}

func TestGenerateSignedURLFallsBackToPublic(t *testing.T) {
	f := newReceiptFixture(t)
	f.uploader.signErr = errors.New("no service account key")

	result, err := f.svc.Generate(context.Background(), generateInput())
	if err != nil {
		t.Fatalf("generate: %v", err)
	}
	if result.Receipt.DownloadURL != result.Receipt.PublicURL {
		t.Fatalf("download url %q should fall back to public url %q",
			result.Receipt.DownloadURL, result.Receipt.PublicURL)
	}
}

func TestVerify(t *testing.T) {
	f := newReceiptFixture(t)
	f.repo.byID = &models.Receipt{ReceiptID: "rcp_known"}

	receipt, err := f.svc.Verify(context.Background(), "rcp_known")
	if err != nil {
		t.Fatalf("verify: %v", err)
	}
	if receipt.ReceiptID != "rcp_known" {
		t.Fatalf("unexpected receipt %+v", receipt)
	}
}

func TestVerifyUnknownReceipt(t *testing.T) {
	f := newReceiptFixture(t)

	_, err := f.svc.Verify(context.Background(), "rcp_missing")
	if !pkgerrors.Is(err, pkgerrors.CodeNotFound) {
		t.Fatalf("expected NOT_FOUND, got %v", err)
	}
	if _, err := f.svc.Verify(context.Background(), "  "); !pkgerrors.Is(err, pkgerrors.CodeValidation) {
		t.Fatalf("expected validation error, got %v", err)
	}
}
