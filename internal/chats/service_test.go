package chats

import (
	"context"
	"errors"
	"io"
	"strings"
	"testing"
	"unicode/utf8"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/makao-africa/makao-backend/pkg/db/models"
	"github.com/makao-africa/makao-backend/pkg/enums"
	pkgerrors "github.com/makao-africa/makao-backend/pkg/errors"
	"github.com/makao-africa/makao-backend/pkg/logger"
	"github.com/makao-africa/makao-backend/pkg/outbox"
	"github.com/makao-africa/makao-backend/pkg/saga"
)

type stubChatRepo struct {
	landlord    *models.User
	landlordErr error

	chat *models.Chat

	createdChat  *models.Chat
	deletedChats []uuid.UUID

	insertMsgErr    error
	insertedMsgs    []*models.Message
	deletedMessages []uuid.UUID

	touchErr error
	touched  []uuid.UUID
}

func (s *stubChatRepo) CreateChat(ctx context.Context, chat *models.Chat) error {
	s.createdChat = chat
	return nil
}

func (s *stubChatRepo) DeleteChat(ctx context.Context, chatID uuid.UUID) error {
	s.deletedChats = append(s.deletedChats, chatID)
	return nil
}

func (s *stubChatRepo) FindChat(ctx context.Context, chatID uuid.UUID) (*models.Chat, error) {
	return s.chat, nil
}

func (s *stubChatRepo) InsertMessage(ctx context.Context, message *models.Message) error {
	if s.insertMsgErr != nil {
		return s.insertMsgErr
	}
	s.insertedMsgs = append(s.insertedMsgs, message)
	return nil
}

func (s *stubChatRepo) DeleteMessage(ctx context.Context, messageID uuid.UUID) error {
	s.deletedMessages = append(s.deletedMessages, messageID)
	return nil
}

func (s *stubChatRepo) TouchChat(ctx context.Context, chatID uuid.UUID) error {
	if s.touchErr != nil {
		return s.touchErr
	}
	s.touched = append(s.touched, chatID)
	return nil
}

func (s *stubChatRepo) FindLandlord(ctx context.Context, landlordID uuid.UUID) (*models.User, error) {
	if s.landlordErr != nil {
		return nil, s.landlordErr
	}
	return s.landlord, nil
}

type stubChatEmitter struct {
	events []outbox.DomainEvent
	err    error
}

func (s *stubChatEmitter) Emit(ctx context.Context, tx *gorm.DB, event outbox.DomainEvent) error {
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

type chatFixture struct {
	repo    *stubChatRepo
	emitter *stubChatEmitter
	svc     Service
}

func newChatFixture(t *testing.T) *chatFixture {
	t.Helper()
	logg := logger.New(logger.Options{ServiceName: "chats-test", Output: io.Discard})
	f := &chatFixture{
		repo: &stubChatRepo{
			landlord: &models.User{ID: uuid.New(), Role: models.RoleLandlord},
		},
		emitter: &stubChatEmitter{},
	}
	svc, err := NewService(f.repo, f.emitter, stubTxRunner{}, saga.New(logg), logg)
	if err != nil {
		t.Fatalf("new service: %v", err)
	}
	f.svc = svc
	return f
}

func TestCreateChatHappyPath(t *testing.T) {
	f := newChatFixture(t)
	in := CreateChatInput{
		TenantID:       uuid.New(),
		LandlordID:     f.repo.landlord.ID,
		OpeningMessage: "Hi, is the garden suite still available?",
	}

	result, err := f.svc.CreateChat(context.Background(), in)
	if err != nil {
		t.Fatalf("create chat: %v", err)
	}
	if f.repo.createdChat == nil {
		t.Fatal("chat not persisted")
	}
	if len(f.repo.insertedMsgs) != 1 {
		t.Fatalf("expected 1 message, got %d", len(f.repo.insertedMsgs))
	}
	if result.Message.ChatID != result.Chat.ID {
		t.Fatal("opening message not linked to chat")
	}
	if result.Message.SenderID != in.TenantID {
		t.Fatal("opening message sender should be the tenant")
	}
	if len(f.emitter.events) != 1 || f.emitter.events[0].EventType != enums.EventChatMessageSent {
		t.Fatalf("expected chat_message_sent event, got %+v", f.emitter.events)
	}
}

func TestCreateChatMessageFailureDeletesChat(t *testing.T) {
	f := newChatFixture(t)
	f.repo.insertMsgErr = errors.New("insert failed")

	_, err := f.svc.CreateChat(context.Background(), CreateChatInput{
		TenantID:       uuid.New(),
		LandlordID:     f.repo.landlord.ID,
		OpeningMessage: "hello",
	})
	if !pkgerrors.Is(err, pkgerrors.CodeMessageInsert) {
		t.Fatalf("expected MESSAGE_INSERT_FAILED, got %v", err)
	}
	if len(f.repo.deletedChats) != 1 {
		t.Fatalf("expected chat compensation delete, got %d", len(f.repo.deletedChats))
	}
	if len(f.emitter.events) != 0 {
		t.Fatal("no event may be queued for a rolled-back chat")
	}
}

func TestCreateChatUnknownLandlord(t *testing.T) {
	f := newChatFixture(t)
	f.repo.landlordErr = pkgerrors.New(pkgerrors.CodeLandlordNotFound, "landlord not found")

	_, err := f.svc.CreateChat(context.Background(), CreateChatInput{
		TenantID:       uuid.New(),
		LandlordID:     uuid.New(),
		OpeningMessage: "hello",
	})
	if !pkgerrors.Is(err, pkgerrors.CodeLandlordNotFound) {
		t.Fatalf("expected LANDLORD_NOT_FOUND, got %v", err)
	}
	if f.repo.createdChat != nil {
		t.Fatal("chat created despite unknown landlord")
	}
}

func TestSendMessageHappyPath(t *testing.T) {
	f := newChatFixture(t)
	tenantID := uuid.New()
	f.repo.chat = &models.Chat{ID: uuid.New(), TenantID: tenantID, LandlordID: uuid.New()}

	msg, err := f.svc.SendMessage(context.Background(), SendMessageInput{
		ChatID:   f.repo.chat.ID,
		SenderID: tenantID,
		Body:     "Can I view it on Saturday?",
	})
	if err != nil {
		t.Fatalf("send message: %v", err)
	}
	if len(f.repo.touched) != 1 {
		t.Fatal("chat recency not updated")
	}
	if msg.ChatID != f.repo.chat.ID {
		t.Fatal("message not linked to chat")
	}
	if len(f.emitter.events) != 1 {
		t.Fatalf("expected 1 event, got %d", len(f.emitter.events))
	}
}

func TestSendMessageTouchFailureDeletesMessage(t *testing.T) {
	f := newChatFixture(t)
	tenantID := uuid.New()
	f.repo.chat = &models.Chat{ID: uuid.New(), TenantID: tenantID, LandlordID: uuid.New()}
	f.repo.touchErr = errors.New("update failed")

	_, err := f.svc.SendMessage(context.Background(), SendMessageInput{
		ChatID:   f.repo.chat.ID,
		SenderID: tenantID,
		Body:     "hello",
	})
	if err == nil {
		t.Fatal("expected error")
	}
	if len(f.repo.deletedMessages) != 1 {
		t.Fatalf("expected message compensation delete, got %d", len(f.repo.deletedMessages))
	}
}

func TestSendMessageRejectsOutsiders(t *testing.T) {
	f := newChatFixture(t)
	f.repo.chat = &models.Chat{ID: uuid.New(), TenantID: uuid.New(), LandlordID: uuid.New()}

	_, err := f.svc.SendMessage(context.Background(), SendMessageInput{
		ChatID:   f.repo.chat.ID,
		SenderID: uuid.New(),
		Body:     "hello",
	})
	if !pkgerrors.Is(err, pkgerrors.CodeForbidden) {
		t.Fatalf("expected FORBIDDEN, got %v", err)
	}
}

func TestSendMessageUnknownChat(t *testing.T) {
	f := newChatFixture(t)

	_, err := f.svc.SendMessage(context.Background(), SendMessageInput{
		ChatID:   uuid.New(),
		SenderID: uuid.New(),
		Body:     "hello",
	})
	if !pkgerrors.Is(err, pkgerrors.CodeNotFound) {
		t.Fatalf("expected NOT_FOUND, got %v", err)
	}
}

func TestSendMessageEmitFailureIsBestEffort(t *testing.T) {
	f := newChatFixture(t)
	tenantID := uuid.New()
	f.repo.chat = &models.Chat{ID: uuid.New(), TenantID: tenantID, LandlordID: uuid.New()}
	f.emitter.err = errors.New("outbox unavailable")

	msg, err := f.svc.SendMessage(context.Background(), SendMessageInput{
		ChatID:   f.repo.chat.ID,
		SenderID: tenantID,
		Body:     "hello",
	})
	if err != nil {
		t.Fatalf("message delivery must not depend on notification: %v", err)
	}
	if msg == nil {
		t.Fatal("expected message")
	}
}

func TestPreviewKeepsRuneBoundaries(t *testing.T) {
	long := strings.Repeat("é", 90)
	got := preview(long)
	if !utf8.ValidString(got) {
		t.Fatalf("preview split a rune: %q", got)
	}
	if utf8.RuneCountInString(got) != previewLen {
		t.Fatalf("expected %d runes, got %d", previewLen, utf8.RuneCountInString(got))
	}

	short := strings.Repeat("ß", 50)
	if preview(short) != short {
		t.Fatal("short multi-byte text must pass through unchanged")
	}
}
