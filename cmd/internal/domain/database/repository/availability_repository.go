package repository

import (
	"context"
	"errors"
	"fmt"

	"estatehub/cmd/internal/domain/database"
	"estatehub/cmd/internal/domain/entity"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

type DefaultAvailabilityRepository struct {
	db *gorm.DB
}

func NewAvailabilityRepository(db *gorm.DB) *DefaultAvailabilityRepository {
	return &DefaultAvailabilityRepository{db: db}
}

// FindTemplate returns the weekly template row for the weekday, or nil.
func (a *DefaultAvailabilityRepository) FindTemplate(ctx context.Context, agentID int, weekday string) (*entity.AgentAvailability, error) {
	var row entity.AgentAvailability
	err := database.Conn(ctx, a.db).
		Where("agent_id = ? AND day_of_week = ? AND date IS NULL AND is_available = ?", agentID, weekday, true).
		Order("start_time asc").
		First(&row).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	return &row, err
}

func (a *DefaultAvailabilityRepository) FindTemplates(ctx context.Context, agentID int) ([]*entity.AgentAvailability, error) {
	var rows []*entity.AgentAvailability
	err := database.Conn(ctx, a.db).
		Where("agent_id = ? AND date IS NULL", agentID).
		Order("id asc").
		Find(&rows).Error
	return rows, err
}

// ReplaceTemplates swaps the agent's whole weekly template.
func (a *DefaultAvailabilityRepository) ReplaceTemplates(ctx context.Context, agentID int, rows []*entity.AgentAvailability) error {
	conn := database.Conn(ctx, a.db)
	err := conn.Where("agent_id = ? AND date IS NULL", agentID).
		Delete(&entity.AgentAvailability{}).Error
	if err != nil {
		return fmt.Errorf("delete templates: %w", err)
	}
	if len(rows) == 0 {
		return nil
	}
	if err := conn.Create(&rows).Error; err != nil {
		return fmt.Errorf("insert templates: %w", err)
	}
	return nil
}

// FindBlocked lists the blocked overrides for one date, ordered by start time.
func (a *DefaultAvailabilityRepository) FindBlocked(ctx context.Context, agentID int, date string) ([]*entity.AgentAvailability, error) {
	var rows []*entity.AgentAvailability
	err := database.Conn(ctx, a.db).
		Where("agent_id = ? AND date = ? AND is_available = ?", agentID, date, false).
		Order("start_time asc").
		Find(&rows).Error
	return rows, err
}

// FindBlocksFrom lists blocked overrides dated on or after fromDate.
func (a *DefaultAvailabilityRepository) FindBlocksFrom(ctx context.Context, agentID int, fromDate string) ([]*entity.AgentAvailability, error) {
	var rows []*entity.AgentAvailability
	err := database.Conn(ctx, a.db).
		Where("agent_id = ? AND date >= ? AND is_available = ?", agentID, fromDate, false).
		Order("date asc, start_time asc").
		Find(&rows).Error
	return rows, err
}

func (a *DefaultAvailabilityRepository) FindByID(ctx context.Context, id int) (*entity.AgentAvailability, error) {
	var row entity.AgentAvailability
	err := database.Conn(ctx, a.db).First(&row, id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	return &row, err
}

// Save returns ErrSlotTaken when a booking block for the same agent, date and
// start time already exists.
func (a *DefaultAvailabilityRepository) Save(ctx context.Context, row *entity.AgentAvailability) error {
	err := database.Conn(ctx, a.db).Save(row).Error
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return ErrSlotTaken
	}
	return err
}

func (a *DefaultAvailabilityRepository) Delete(ctx context.Context, row *entity.AgentAvailability) error {
	return database.Conn(ctx, a.db).Delete(row).Error
}

// DeleteBookingBlock removes the override a booking synthesized. It returns
// the number of rows removed so callers can report a missing block.
func (a *DefaultAvailabilityRepository) DeleteBookingBlock(ctx context.Context, agentID int, date string, start datatypes.Time, appointmentID int) (int64, error) {
	res := database.Conn(ctx, a.db).
		Where("agent_id = ? AND date = ? AND start_time = ? AND appointment_id = ?", agentID, date, start, appointmentID).
		Delete(&entity.AgentAvailability{})
	return res.RowsAffected, res.Error
}
