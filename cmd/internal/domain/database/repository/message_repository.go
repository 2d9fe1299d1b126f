package repository

import (
	"context"
	"errors"

	"estatehub/cmd/internal/domain/database"
	"estatehub/cmd/internal/domain/entity"
	"gorm.io/gorm"
)

type DefaultMessageRepository struct {
	db *gorm.DB
}

func NewMessageRepository(db *gorm.DB) *DefaultMessageRepository {
	return &DefaultMessageRepository{db: db}
}

func (m *DefaultMessageRepository) Save(ctx context.Context, msg *entity.Message) error {
	return database.Conn(ctx, m.db).Save(msg).Error
}

func (m *DefaultMessageRepository) FindByID(ctx context.Context, id int) (*entity.Message, error) {
	var msg entity.Message
	err := database.Conn(ctx, m.db).First(&msg, id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	return &msg, err
}

// FindConversation returns messages exchanged between two users, oldest first.
func (m *DefaultMessageRepository) FindConversation(ctx context.Context, userID, otherID int) ([]*entity.Message, error) {
	var msgs []*entity.Message
	err := database.Conn(ctx, m.db).
		Where("(sender_id = ? AND receiver_id = ?) OR (sender_id = ? AND receiver_id = ?)", userID, otherID, otherID, userID).
		Order("created_at asc, id asc").
		Find(&msgs).Error
	return msgs, err
}

// FindInbox returns the newest messages received by userID.
func (m *DefaultMessageRepository) FindInbox(ctx context.Context, userID, limit int) ([]*entity.Message, error) {
	var msgs []*entity.Message
	err := database.Conn(ctx, m.db).
		Where("receiver_id = ?", userID).
		Order("created_at desc, id desc").
		Limit(limit).
		Find(&msgs).Error
	return msgs, err
}

func (m *DefaultMessageRepository) MarkRead(ctx context.Context, id int, readAt int64) error {
	return database.Conn(ctx, m.db).Model(&entity.Message{}).
		Where("id = ? AND read_at IS NULL", id).
		Update("read_at", readAt).Error
}
