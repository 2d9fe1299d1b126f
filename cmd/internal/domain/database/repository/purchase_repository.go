package repository

import (
	"context"
	"errors"

	"estatehub/cmd/internal/domain/database"
	"estatehub/cmd/internal/domain/entity"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type DefaultPurchaseRepository struct {
	db *gorm.DB
}

func NewPurchaseRepository(db *gorm.DB) *DefaultPurchaseRepository {
	return &DefaultPurchaseRepository{db: db}
}

func (p *DefaultPurchaseRepository) Create(ctx context.Context, purchase *entity.Purchase) error {
	return database.Conn(ctx, p.db).Omit(clause.Associations).Create(purchase).Error
}

func (p *DefaultPurchaseRepository) FindByID(ctx context.Context, id int) (*entity.Purchase, error) {
	var purchase entity.Purchase
	err := database.Conn(ctx, p.db).First(&purchase, id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	return &purchase, err
}

func (p *DefaultPurchaseRepository) FindByUserID(ctx context.Context, userID int) ([]*entity.Purchase, error) {
	var purchases []*entity.Purchase
	err := database.Conn(ctx, p.db).
		Preload("Property").
		Where("user_id = ?", userID).
		Order("created_at desc, id desc").
		Find(&purchases).Error
	return purchases, err
}

func (p *DefaultPurchaseRepository) FindAll(ctx context.Context) ([]*entity.Purchase, error) {
	var purchases []*entity.Purchase
	err := database.Conn(ctx, p.db).
		Preload("Property").
		Order("created_at desc, id desc").
		Find(&purchases).Error
	return purchases, err
}

// MarkCompleted moves a pending purchase to completed. ErrNotFound means it
// was no longer pending.
func (p *DefaultPurchaseRepository) MarkCompleted(ctx context.Context, id int, completedAt int64) error {
	res := database.Conn(ctx, p.db).Model(&entity.Purchase{}).
		Where("id = ? AND status = ?", id, entity.PurchasePending).
		Updates(map[string]any{"status": entity.PurchaseCompleted, "completed_at": completedAt})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}
