package controllers

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/makao-africa/makao-backend/api/middleware"
	"github.com/makao-africa/makao-backend/api/responses"
	"github.com/makao-africa/makao-backend/api/validators"
	chatsvc "github.com/makao-africa/makao-backend/internal/chats"
	"github.com/makao-africa/makao-backend/pkg/db/models"
	pkgerrors "github.com/makao-africa/makao-backend/pkg/errors"
	"github.com/makao-africa/makao-backend/pkg/logger"
)

// CreateChat opens a tenant/landlord thread together with its first message.
func CreateChat(svc chatsvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "chat service unavailable"))
			return
		}

		tenantID, err := authenticatedUserID(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var payload createChatRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		result, err := svc.CreateChat(r.Context(), chatsvc.CreateChatInput{
			TenantID:       tenantID,
			LandlordID:     payload.LandlordID,
			PropertyID:     payload.PropertyID,
			OpeningMessage: payload.OpeningMessage,
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccessStatus(w, http.StatusCreated, newChatResponse(result))
	}
}

// SendMessage appends a message to an existing thread.
func SendMessage(svc chatsvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "chat service unavailable"))
			return
		}

		senderID, err := authenticatedUserID(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		chatID, err := uuid.Parse(chi.URLParam(r, "chatId"))
		if err != nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid chat id"))
			return
		}

		var payload sendMessageRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		message, err := svc.SendMessage(r.Context(), chatsvc.SendMessageInput{
			ChatID:   chatID,
			SenderID: senderID,
			Body:     payload.Body,
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccessStatus(w, http.StatusCreated, newMessageResponse(message))
	}
}

type createChatRequest struct {
	LandlordID     uuid.UUID  `json:"landlord_id" validate:"required,uuid4"`
	PropertyID     *uuid.UUID `json:"property_id,omitempty" validate:"omitempty,uuid4"`
	OpeningMessage string     `json:"opening_message" validate:"required,max=4000"`
}

type sendMessageRequest struct {
	Body string `json:"body" validate:"required,max=4000"`
}

type chatResponse struct {
	ChatID     uuid.UUID       `json:"chat_id"`
	TenantID   uuid.UUID       `json:"tenant_id"`
	LandlordID uuid.UUID       `json:"landlord_id"`
	PropertyID *uuid.UUID      `json:"property_id,omitempty"`
	Message    messageResponse `json:"message"`
	CreatedAt  time.Time       `json:"created_at"`
}

type messageResponse struct {
	MessageID uuid.UUID `json:"message_id"`
	ChatID    uuid.UUID `json:"chat_id"`
	SenderID  uuid.UUID `json:"sender_id"`
	Body      string    `json:"body"`
	CreatedAt time.Time `json:"created_at"`
}

func newChatResponse(result *chatsvc.CreateChatResult) chatResponse {
	if result == nil || result.Chat == nil {
		return chatResponse{}
	}
	return chatResponse{
		ChatID:     result.Chat.ID,
		TenantID:   result.Chat.TenantID,
		LandlordID: result.Chat.LandlordID,
		PropertyID: result.Chat.PropertyID,
		Message:    newMessageResponse(result.Message),
		CreatedAt:  result.Chat.CreatedAt,
	}
}

func newMessageResponse(message *models.Message) messageResponse {
	if message == nil {
		return messageResponse{}
	}
	return messageResponse{
		MessageID: message.ID,
		ChatID:    message.ChatID,
		SenderID:  message.SenderID,
		Body:      message.Body,
		CreatedAt: message.CreatedAt,
	}
}

func authenticatedUserID(r *http.Request) (uuid.UUID, error) {
	userID := middleware.UserIDFromContext(r.Context())
	if userID == "" {
		return uuid.Nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "authentication required")
	}
	parsed, err := uuid.Parse(userID)
	if err != nil {
		return uuid.Nil, pkgerrors.Wrap(pkgerrors.CodeUnauthorized, err, "invalid user id")
	}
	return parsed, nil
}
