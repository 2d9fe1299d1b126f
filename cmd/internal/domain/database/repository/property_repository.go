package repository

import (
	"context"
	"errors"

	"estatehub/cmd/internal/domain/database"
	"estatehub/cmd/internal/domain/entity"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type DefaultPropertyRepository struct {
	db *gorm.DB
}

func NewPropertyRepository(db *gorm.DB) *DefaultPropertyRepository {
	return &DefaultPropertyRepository{db: db}
}

func (p *DefaultPropertyRepository) FindByID(ctx context.Context, id int) (*entity.Property, error) {
	var property entity.Property
	err := database.Conn(ctx, p.db).First(&property, id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	return &property, err
}

func (p *DefaultPropertyRepository) List(ctx context.Context, filter entity.PropertyFilter) ([]*entity.Property, error) {
	query := database.Conn(ctx, p.db).Model(&entity.Property{})
	if filter.Status != "" {
		query = query.Where("status = ?", filter.Status)
	}
	if filter.City != "" {
		query = query.Where("LOWER(city) = LOWER(?)", filter.City)
	}
	if filter.MinPrice != nil {
		query = query.Where("price >= ?", *filter.MinPrice)
	}
	if filter.MaxPrice != nil {
		query = query.Where("price <= ?", *filter.MaxPrice)
	}
	if filter.AgentID != 0 {
		query = query.Where("agent_id = ?", filter.AgentID)
	}

	limit := filter.Limit
	if limit <= 0 {
		limit = 50
	}

	var properties []*entity.Property
	err := query.Order("created_at desc, id desc").
		Limit(limit).
		Offset(filter.Offset).
		Find(&properties).Error
	return properties, err
}

func (p *DefaultPropertyRepository) Save(ctx context.Context, property *entity.Property) error {
	return database.Conn(ctx, p.db).Omit(clause.Associations).Save(property).Error
}

func (p *DefaultPropertyRepository) UpdateStatus(ctx context.Context, id int, status entity.PropertyStatus) error {
	return database.Conn(ctx, p.db).Model(&entity.Property{}).
		Where("id = ?", id).
		Update("status", status).Error
}
