package chats

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/makao-africa/makao-backend/pkg/db/models"
	"github.com/makao-africa/makao-backend/pkg/enums"
	pkgerrors "github.com/makao-africa/makao-backend/pkg/errors"
	"github.com/makao-africa/makao-backend/pkg/logger"
	"github.com/makao-africa/makao-backend/pkg/outbox"
	"github.com/makao-africa/makao-backend/pkg/outbox/payloads"
	"github.com/makao-africa/makao-backend/pkg/saga"
)

const (
	chatPairingSaga = "chat_pairing"
	messageSendSaga = "message_send"

	previewLen = 80
)

// TxRunner abstracts the database client's transaction helper, used here
// only to give the outbox emitter a transaction to write in.
type TxRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

// CreateChatInput opens a conversation between a tenant and a landlord.
// The opening message is mandatory: a chat without one is never visible.
type CreateChatInput struct {
	TenantID       uuid.UUID
	LandlordID     uuid.UUID
	PropertyID     *uuid.UUID
	OpeningMessage string
}

// CreateChatResult pairs the chat with its opening message.
type CreateChatResult struct {
	Chat    *models.Chat
	Message *models.Message
}

// SendMessageInput appends a message to an existing chat.
type SendMessageInput struct {
	ChatID   uuid.UUID
	SenderID uuid.UUID
	Body     string
}

/// Service manages paired chat writes: a chat only exists with its opening
// message, and a message only counts once the thread reflects it.
type Service interface {
	CreateChat(ctx context.Context, in CreateChatInput) (*CreateChatResult, error)
	SendMessage(ctx context.Context, in SendMessageInput) (*models.Message, error)
}

type service struct {
	repo     Repository
	emitter  outbox.Emitter
	txRunner TxRunner
	coord    *saga.Coordinator
	logg     *logger.Logger
}

// NewService builds the chat service.
func NewService(
	repo Repository,
	emitter outbox.Emitter,
	txRunner TxRunner,
	coord *saga.Coordinator,
	logg *logger.Logger,
) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("chats repository required")
	}
	if emitter == nil {
		return nil, fmt.Errorf("outbox emitter required")
	}
	if txRunner == nil {
		return nil, fmt.Errorf("tx runner required")
	}
	if coord == nil {
		return nil, fmt.Errorf("saga coordinator required")
	}
	if logg == nil {
		return nil, fmt.Errorf("logger required")
	}
	return &service{repo: repo, emitter: emitter, txRunner: txRunner, coord: coord, logg: logg}, nil
}

func (s *service) CreateChat(ctx context.Context, in CreateChatInput) (*CreateChatResult, error) {
	if err := validateCreateChat(in); err != nil {
		return nil, err
	}
	if _, err := s.repo.FindLandlord(ctx, in.LandlordID); err != nil {
		return nil, err
	}

	chat := &models.Chat{
		ID:         uuid.New(),
		TenantID:   in.TenantID,
		LandlordID: in.LandlordID,
		PropertyID: in.PropertyID,
	}
	message := &models.Message{
		ID:       uuid.New(),
		ChatID:   chat.ID,
		SenderID: in.TenantID,
		Body:     strings.TrimSpace(in.OpeningMessage),
	}

	steps := []saga.Step{
		{
			Name: "insert_chat",
			Do: func(ctx context.Context) error {
				return s.repo.CreateChat(ctx, chat)
			},
			Undo: func(ctx context.Context) error {
				return s.repo.DeleteChat(ctx, chat.ID)
			},
		},
		{
			Name: "insert_opening_message",
			Do: func(ctx context.Context) error {
				if err := s.repo.InsertMessage(ctx, message); err != nil {
					return pkgerrors.Wrap(pkgerrors.CodeMessageInsert, err, "inserting opening message")
				}
				return nil
			},
		},
	}
	if err := s.coord.Run(ctx, chatPairingSaga, steps); err != nil {
		return nil, err
	}

	s.notify(ctx, chat, message, in.LandlordID)
	s.logg.Info(s.logg.WithFields(ctx, map[string]any{"chat_id": chat.ID.String()}), "chat created")
	return &CreateChatResult{Chat: chat, Message: message}, nil
}

func (s *service) SendMessage(ctx context.Context, in SendMessageInput) (*models.Message, error) {
	if strings.TrimSpace(in.Body) == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "message body is required")
	}
	chat, err := s.repo.FindChat(ctx, in.ChatID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "looking up chat")
	}
	if chat == nil {
		return nil, pkgerrors.New(pkgerrors.CodeNotFound, "chat not found")
	}
	if in.SenderID != chat.TenantID && in.SenderID != chat.LandlordID {
		return nil, pkgerrors.New(pkgerrors.CodeForbidden, "sender is not a participant in this chat")
	}

	message := &models.Message{
		ID:       uuid.New(),
		ChatID:   chat.ID,
		SenderID: in.SenderID,
		Body:     strings.TrimSpace(in.Body),
	}

	steps := []saga.Step{
		{
			Name: "insert_message",
			Do: func(ctx context.Context) error {
				if err := s.repo.InsertMessage(ctx, message); err != nil {
					return pkgerrors.Wrap(pkgerrors.CodeMessageInsert, err, "inserting message")
				}
				return nil
			},
			Undo: func(ctx context.Context) error {
				return s.repo.DeleteMessage(ctx, message.ID)
			},
		},
		{
			Name: "touch_chat",
			Do: func(ctx context.Context) error {
				return s.repo.TouchChat(ctx, chat.ID)
			},
		},
	}
	if err := s.coord.Run(ctx, messageSendSaga, steps); err != nil {
		return nil, err
	}

	recipient := chat.TenantID
	if in.SenderID == chat.TenantID {
		recipient = chat.LandlordID
	}
	s.notify(ctx, chat, message, recipient)
	return message, nil
}

// notify queues the chat event best-effort. The message already stands; a
// failed notification is logged and dropped.
func (s *service) notify(ctx context.Context, chat *models.Chat, message *models.Message, recipientID uuid.UUID) {
	err := s.txRunner.WithTx(ctx, func(tx *gorm.DB) error {
		return s.emitter.Emit(ctx, tx, outbox.DomainEvent{
			EventType:     enums.EventChatMessageSent,
			AggregateType: enums.AggregateChat,
			AggregateID:   chat.ID,
			Data: payloads.ChatMessageSentEvent{
				ChatID:      chat.ID,
				MessageID:   message.ID,
				SenderID:    message.SenderID,
				RecipientID: recipientID,
				Preview:     preview(message.Body),
				SentAt:      time.Now(),
			},
			Version: 1,
		})
	})
	if err != nil {
		s.logg.Warn(ctx, "queueing chat notification failed")
	}
}

// preview truncates on a rune boundary so multi-byte text never splits
// mid-character.
func preview(body string) string {
	if len(body) <= previewLen {
		return body
	}
	runes := []rune(body)
	if len(runes) <= previewLen {
		return body
	}
	return string(runes[:previewLen])
}

func validateCreateChat(in CreateChatInput) error {
	if in.TenantID == uuid.Nil {
		return pkgerrors.New(pkgerrors.CodeValidation, "tenant_id is required")
	}
	if in.LandlordID == uuid.Nil {
		return pkgerrors.New(pkgerrors.CodeValidation, "landlord_id is required")
	}
	if strings.TrimSpace(in.OpeningMessage) == "" {
		return pkgerrors.New(pkgerrors.CodeValidation, "opening message is required")
	}
	return nil
}
