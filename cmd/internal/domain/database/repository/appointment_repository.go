package repository

import (
	"context"
	"errors"

	"estatehub/cmd/internal/domain/database"
	"estatehub/cmd/internal/domain/entity"
	"gorm.io/datatypes"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type DefaultAppointmentRepository struct {
	db *gorm.DB
}

func NewAppointmentRepository(db *gorm.DB) *DefaultAppointmentRepository {
	return &DefaultAppointmentRepository{db: db}
}

func (a *DefaultAppointmentRepository) Save(ctx context.Context, appointment *entity.Appointment) error {
	return database.Conn(ctx, a.db).Omit(clause.Associations).Save(appointment).Error
}

func (a *DefaultAppointmentRepository) FindAll(ctx context.Context) ([]*entity.Appointment, error) {
	var appts []*entity.Appointment
	err := database.Conn(ctx, a.db).
		Order("date asc, start_time asc, id asc").
		Find(&appts).Error
	return appts, err
}

func (a *DefaultAppointmentRepository) FindByClientID(ctx context.Context, clientID int) ([]*entity.Appointment, error) {
	var appts []*entity.Appointment
	err := database.Conn(ctx, a.db).
		Where("client_id = ?", clientID).
		Order("date asc, start_time asc, id asc").
		Find(&appts).Error
	return appts, err
}

func (a *DefaultAppointmentRepository) FindByAgentID(ctx context.Context, agentID int) ([]*entity.Appointment, error) {
	var appts []*entity.Appointment
	err := database.Conn(ctx, a.db).
		Where("agent_id = ?", agentID).
		Order("date asc, start_time asc, id asc").
		Find(&appts).Error
	return appts, err
}

func (a *DefaultAppointmentRepository) FindByID(ctx context.Context, id int) (*entity.Appointment, error) {
	var appt entity.Appointment
	err := database.Conn(ctx, a.db).First(&appt, id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	return &appt, err
}

// IsAvailable reports whether the agent has no scheduled appointment
// overlapping [start, end) on date.
func (a *DefaultAppointmentRepository) IsAvailable(ctx context.Context, agentID int, date string, start, end datatypes.Time) (bool, error) {
	var count int64
	err := database.Conn(ctx, a.db).Model(&entity.Appointment{}).
		Where("agent_id = ? AND date = ? AND status = ?", agentID, date, entity.AppointmentScheduled).
		Where("start_time < ? AND end_time > ?", end, start).
		Count(&count).Error
	if err != nil {
		return false, err
	}
	return count == 0, nil
}

// UpdateStatus moves a scheduled appointment to status. ErrNotFound means it
// was no longer scheduled.
func (a *DefaultAppointmentRepository) UpdateStatus(ctx context.Context, id int, status entity.AppointmentStatus) error {
	res := database.Conn(ctx, a.db).Model(&entity.Appointment{}).
		Where("id = ? AND status = ?", id, entity.AppointmentScheduled).
		Update("status", status)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}
