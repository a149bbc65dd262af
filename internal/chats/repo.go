package chats

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/makao-africa/makao-backend/pkg/db/models"
	pkgerrors "github.com/makao-africa/makao-backend/pkg/errors"
)

// Repository defines persistence operations for chats and their messages.
// Writes are intentionally independent statements, not one transaction: the
// service pairs them and compensates when the second write fails.
type Repository interface {
	CreateChat(ctx context.Context, chat *models.Chat) error
	DeleteChat(ctx context.Context, chatID uuid.UUID) error
	FindChat(ctx context.Context, chatID uuid.UUID) (*models.Chat, error)
	InsertMessage(ctx context.Context, message *models.Message) error
	DeleteMessage(ctx context.Context, messageID uuid.UUID) error
	TouchChat(ctx context.Context, chatID uuid.UUID) error
	FindLandlord(ctx context.Context, landlordID uuid.UUID) (*models.User, error)
}

type repository struct {
	db *gorm.DB
}

// NewRepository builds a chats repository bound to the provided DB.
func NewRepository(db *gorm.DB) Repository {
	return &repository{db: db}
}

func (r *repository) CreateChat(ctx context.Context, chat *models.Chat) error {
	return r.db.WithContext(ctx).Create(chat).Error
}

func (r *repository) DeleteChat(ctx context.Context, chatID uuid.UUID) error {
	return r.db.WithContext(ctx).
		Where("id = ?", chatID).
		Delete(&models.Chat{}).Error
}

func (r *repository) FindChat(ctx context.Context, chatID uuid.UUID) (*models.Chat, error) {
	var chat models.Chat
	err := r.db.WithContext(ctx).Where("id = ?", chatID).First(&chat).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &chat, nil
}

func (r *repository) InsertMessage(ctx context.Context, message *models.Message) error {
	return r.db.WithContext(ctx).Create(message).Error
}

func (r *repository) DeleteMessage(ctx context.Context, messageID uuid.UUID) error {
	return r.db.WithContext(ctx).
		Where("id = ?", messageID).
		Delete(&models.Message{}).Error
}

// TouchChat bumps the chat's updated_at so thread lists sort by recency.
func (r *repository) TouchChat(ctx context.Context, chatID uuid.UUID) error {
	return r.db.WithContext(ctx).
		Model(&models.Chat{}).
		Where("id = ?", chatID).
		Update("updated_at", gorm.Expr("CURRENT_TIMESTAMP")).Error
}

func (r *repository) FindLandlord(ctx context.Context, landlordID uuid.UUID) (*models.User, error) {
	var user models.User
	err := r.db.WithContext(ctx).Where("id = ?", landlordID).First(&user).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeLandlordNotFound, "landlord not found")
		}
		return nil, err
	}
	if user.Role != models.RoleLandlord {
		return nil, pkgerrors.New(pkgerrors.CodeLandlordNotFound, "user is not a landlord")
	}
	return &user, nil
}
