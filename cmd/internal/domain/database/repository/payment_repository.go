package repository

import (
	"context"
	"errors"

	"estatehub/cmd/internal/domain/database"
	"estatehub/cmd/internal/domain/entity"
	"gorm.io/gorm"
)

type DefaultPaymentRepository struct {
	db *gorm.DB
}

func NewPaymentRepository(db *gorm.DB) *DefaultPaymentRepository {
	return &DefaultPaymentRepository{db: db}
}

// FindVerified returns the user's verified instrument, or nil.
func (p *DefaultPaymentRepository) FindVerified(ctx context.Context, userID int) (*entity.PaymentInstrument, error) {
	var instrument entity.PaymentInstrument
	err := database.Conn(ctx, p.db).
		Where("user_id = ? AND verified = ?", userID, true).
		Order("id desc").
		First(&instrument).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	return &instrument, err
}

func (p *DefaultPaymentRepository) FindByUserID(ctx context.Context, userID int) ([]*entity.PaymentInstrument, error) {
	var instruments []*entity.PaymentInstrument
	err := database.Conn(ctx, p.db).
		Where("user_id = ?", userID).
		Order("id desc").
		Find(&instruments).Error
	return instruments, err
}

// Unverify clears the verified flag on every instrument the user owns.
func (p *DefaultPaymentRepository) Unverify(ctx context.Context, userID int) error {
	return database.Conn(ctx, p.db).Model(&entity.PaymentInstrument{}).
		Where("user_id = ? AND verified = ?", userID, true).
		Update("verified", false).Error
}

func (p *DefaultPaymentRepository) Save(ctx context.Context, instrument *entity.PaymentInstrument) error {
	return database.Conn(ctx, p.db).Save(instrument).Error
}
