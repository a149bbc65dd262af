package receipts

import (
	"context"
	"crypto/rand"
	"encoding/base64"
	"fmt"
	"html/template"
	"math/big"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/skip2/go-qrcode"
	"gorm.io/gorm"

	"github.com/makao-africa/makao-backend/pkg/config"
	"github.com/makao-africa/makao-backend/pkg/db/models"
	"github.com/makao-africa/makao-backend/pkg/enums"
	pkgerrors "github.com/makao-africa/makao-backend/pkg/errors"
	"github.com/makao-africa/makao-backend/pkg/logger"
	"github.com/makao-africa/makao-backend/pkg/metrics"
	"github.com/makao-africa/makao-backend/pkg/outbox"
	"github.com/makao-africa/makao-backend/pkg/outbox/payloads"
	"github.com/makao-africa/makao-backend/pkg/pdfrender"
	"github.com/makao-africa/makao-backend/pkg/retry"
	"github.com/makao-africa/makao-backend/pkg/storage/gcs"
)

const (
	receiptIDPrefix   = "rcp_"
	receiptKeyPrefix  = "receipts/"
	qrImageSize       = 256
	uploadContentType = "application/pdf"
)

// TxRunner abstracts the database client's transaction helper.
type TxRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

// GenerateInput describes the receipt to produce.
type GenerateInput struct {
	BookingID        *uuid.UUID
	PropertyName     string
	RoomName         string
	GuestName        string
	PayerEmail       string
	PaymentReference string
	Amount           AmountInput
	IdempotencyKey   string
	CreatedBy        string
}

// GenerateResult carries the stored receipt. Reused is set when the
// idempotency key matched a previously generated receipt, in which case no
// new artifact was produced.
type GenerateResult struct {
	Receipt *models.Receipt
	Reused  bool
}

// Service produces tamper-evident receipt PDFs and resolves verification
// lookups.
type Service interface {
	Generate(ctx context.Context, in GenerateInput) (*GenerateResult, error)
	Verify(ctx context.Context, receiptID string) (*models.Receipt, error)
}

type service struct {
	repo     Repository
	renderer pdfrender.Renderer
	uploader gcs.Uploader
	emitter  outbox.Emitter
	txRunner TxRunner
	cfg      config.ReceiptsConfig
	urlTTL   time.Duration
	metrics  *metrics.SagaMetrics
	logg     *logger.Logger
}

// NewService builds the receipt generation service.
func NewService(
	repo Repository,
	renderer pdfrender.Renderer,
	uploader gcs.Uploader,
	emitter outbox.Emitter,
	txRunner TxRunner,
	cfg config.ReceiptsConfig,
	downloadTTL time.Duration,
	sagaMetrics *metrics.SagaMetrics,
	logg *logger.Logger,
) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("receipts repository required")
	}
	if renderer == nil {
		return nil, fmt.Errorf("pdf renderer required")
	}
	if uploader == nil {
		return nil, fmt.Errorf("storage uploader required")
	}
	if emitter == nil {
		return nil, fmt.Errorf("outbox emitter required")
	}
	if txRunner == nil {
		return nil, fmt.Errorf("tx runner required")
	}
	if logg == nil {
		return nil, fmt.Errorf("logger required")
	}
	return &service{
		repo:     repo,
		renderer: renderer,
		uploader: uploader,
		emitter:  emitter,
		txRunner: txRunner,
		cfg:      cfg,
		urlTTL:   downloadTTL,
		metrics:  sagaMetrics,
		logg:     logg,
	}, nil
}

func (s *service) Generate(ctx context.Context, in GenerateInput) (*GenerateResult, error) {
	if strings.TrimSpace(in.PaymentReference) == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "payment_reference is required")
	}

	// Idempotency replay: a matching key returns the prior artifact and
	// skips generation entirely. A lookup failure is not fatal; the unique
	// index backstops the race at insert time.
	if key := strings.TrimSpace(in.IdempotencyKey); key != "" {
		prior, err := s.repo.FindByIdempotencyKey(ctx, key)
		if err != nil {
			s.logg.Warn(ctx, "idempotency lookup failed, generating anyway")
		} else if prior != nil {
			return &GenerateResult{Receipt: prior, Reused: true}, nil
		}
	}

	amount, err := NormalizeAmount(in.Amount)
	if err != nil {
		return nil, err
	}

	receiptID := receiptIDPrefix + uuid.NewString()
	receiptNumber, err := newReceiptNumber()
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeGeneration, err, "generating receipt number")
	}
	verifyURL := s.verifyURL(receiptID)

	pdf, err := s.renderPDF(ctx, in, amount, receiptID, receiptNumber, verifyURL)
	if err != nil {
		return nil, err
	}

	key := receiptKeyPrefix + receiptID + ".pdf"
	if err := s.upload(ctx, key, pdf); err != nil {
		return nil, err
	}

	downloadURL, err := s.uploader.SignedDownloadURL(key, s.urlTTL)
	if err != nil {
		s.logg.Warn(ctx, "signed download url unavailable, falling back to public url")
		downloadURL = s.uploader.PublicURL(key)
	}

	receipt := &models.Receipt{
		ID:            uuid.New(),
		ReceiptID:     receiptID,
		ReceiptNumber: receiptNumber,
		AmountCents:   amount.Cents,
		Currency:      amount.Currency,
		AmountDisplay: amount.Display,
		PublicURL:     s.uploader.PublicURL(key),
		DownloadURL:   downloadURL,
		VerifyURL:     verifyURL,
		CreatedBy:     in.CreatedBy,
	}
	if key := strings.TrimSpace(in.IdempotencyKey); key != "" {
		receipt.IdempotencyKey = &key
	}

	var (
		stored   *models.Receipt
		inserted bool
	)
	err = s.txRunner.WithTx(ctx, func(tx *gorm.DB) error {
		var err error
		stored, inserted, err = s.repo.WithTx(tx).Insert(ctx, receipt)
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeGeneration, err, "persisting receipt")
		}
		// Lost the insert race on the idempotency key: the winner's event
		// is already queued, so only the stored row goes back to the caller.
		if !inserted {
			return nil
		}
		return s.emitter.Emit(ctx, tx, outbox.DomainEvent{
			EventType:     enums.EventReceiptGenerated,
			AggregateType: enums.AggregateReceipt,
			AggregateID:   receipt.ID,
			Data: payloads.ReceiptGeneratedEvent{
				ReceiptID:     receipt.ReceiptID,
				ReceiptNumber: receipt.ReceiptNumber,
				BookingID:     in.BookingID,
				PayerEmail:    in.PayerEmail,
				AmountDisplay: receipt.AmountDisplay,
				PublicURL:     receipt.PublicURL,
				DownloadURL:   receipt.DownloadURL,
				VerifyURL:     receipt.VerifyURL,
			},
			Version: 1,
		})
	})
	if err != nil {
		return nil, err
	}

	if !inserted {
		s.logg.Info(s.logg.WithFields(ctx, map[string]any{"receipt_id": stored.ReceiptID}), "receipt reused after concurrent insert")
		return &GenerateResult{Receipt: stored, Reused: true}, nil
	}

	s.logg.Info(s.logg.WithFields(ctx, map[string]any{"receipt_id": receiptID}), "receipt generated")
	return &GenerateResult{Receipt: stored}, nil
}

// Verify resolves a receipt by its external identifier for the public
// verification endpoint.
func (s *service) Verify(ctx context.Context, receiptID string) (*models.Receipt, error) {
	id := strings.TrimSpace(receiptID)
	if id == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "receipt id is required")
	}
	receipt, err := s.repo.FindByReceiptID(ctx, id)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "looking up receipt")
	}
	if receipt == nil {
		return nil, pkgerrors.New(pkgerrors.CodeNotFound, "receipt not found")
	}
	return receipt, nil
}

func (s *service) renderPDF(
	ctx context.Context,
	in GenerateInput,
	amount *Amount,
	receiptID, receiptNumber, verifyURL string,
) ([]byte, error) {
	qrPNG, err := qrcode.Encode(verifyURL, qrcode.Highest, qrImageSize)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeQRGeneration, err, "encoding verification qr")
	}
	html, err := renderReceiptHTML(templateData{
		ReceiptNumber:    receiptNumber,
		ReceiptID:        receiptID,
		PropertyName:     in.PropertyName,
		RoomName:         in.RoomName,
		GuestName:        in.GuestName,
		PayerEmail:       in.PayerEmail,
		PaymentReference: in.PaymentReference,
		AmountDisplay:    amount.Display,
		IssuedAt:         time.Now().Format("2 January 2006 15:04 MST"),
		VerifyURL:        verifyURL,
		QRDataURI:        qrDataURI(qrPNG),
	})
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodePDFGeneration, err, "rendering receipt html")
	}
	pdf, err := s.renderer.RenderHTML(ctx, html)
	if err != nil {
		return nil, err
	}
	return pdf, nil
}

// upload stores the PDF with retries. Exhaustion is terminal: no receipt
// row is written without its artifact.
func (s *service) upload(ctx context.Context, key string, pdf []byte) error {
	policy := retry.Policy{MaxAttempts: s.cfg.UploadRetries, BaseDelay: s.cfg.UploadBackoff}
	err := retry.Do(ctx, policy, func(ctx context.Context) error {
		return s.uploader.Upload(ctx, key, pdf, uploadContentType)
	})
	if err != nil {
		s.metrics.IncRetryExhausted("receipt_upload")
		return pkgerrors.Wrap(pkgerrors.CodeGeneration, err, "uploading receipt pdf")
	}
	return nil
}

func (s *service) verifyURL(receiptID string) string {
	return strings.TrimRight(s.cfg.VerifyBaseURL, "/") + "/" + receiptID
}

func qrDataURI(png []byte) template.URL {
	return template.URL("data:image/png;base64," + base64.StdEncoding.EncodeToString(png))
}

// newReceiptNumber builds a 10-digit display number: four date digits then
// six from crypto randomness. Display only, no uniqueness guarantee.
func newReceiptNumber() (string, error) {
	prefix := time.Now().Format("0601")
	max := big.NewInt(1000000)
	n, err := rand.Int(rand.Reader, max)
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("%s%06d", prefix, n.Int64()), nil
}
