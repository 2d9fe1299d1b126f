package service

import (
	"context"
	"errors"
	"slices"
	"time"

	"estatehub/cmd/internal/auth"
	"estatehub/cmd/internal/domain/database/repository"
	"estatehub/cmd/internal/domain/entity"
	"estatehub/cmd/internal/monitoring"
	"estatehub/cmd/internal/utils"
	"estatehub/cmd/internal/utils/apierror"
	"github.com/go-playground/validator/v10"
	"github.com/labstack/gommon/log"
	"gorm.io/datatypes"
)

type AppointmentRepository interface {
	Save(ctx context.Context, appointment *entity.Appointment) error
	FindAll(ctx context.Context) ([]*entity.Appointment, error)
	FindByClientID(ctx context.Context, clientID int) ([]*entity.Appointment, error)
	FindByAgentID(ctx context.Context, agentID int) ([]*entity.Appointment, error)
	FindByID(ctx context.Context, id int) (*entity.Appointment, error)
	IsAvailable(ctx context.Context, agentID int, date string, start, end datatypes.Time) (bool, error)
	UpdateStatus(ctx context.Context, id int, status entity.AppointmentStatus) error
}

// SlotCalculator lists the bookable start times of an agent on a date.
type SlotCalculator interface {
	Slots(ctx context.Context, agentID int, date string, duration time.Duration) ([]string, error)
}

type AppointmentRequest struct {
	AgentID    int     `json:"agent_id" validate:"required,gt=0"`
	PropertyID int     `json:"property_id" validate:"required,gt=0"`
	Date       string  `json:"date" validate:"required,isodate"`
	Time       string  `json:"time" validate:"required,clock"`
	Notes      *string `json:"notes" validate:"omitempty,max=1000"`
}

type AppointmentResponse struct {
	ID         int     `json:"id"`
	ClientID   int     `json:"client_id"`
	AgentID    int     `json:"agent_id"`
	PropertyID int     `json:"property_id"`
	Date       string  `json:"date"`
	StartTime  string  `json:"start_time"`
	EndTime    string  `json:"end_time"`
	Location   string  `json:"location"`
	Status     string  `json:"status"`
	Notes      *string `json:"notes,omitempty"`
	CreatedAt  string  `json:"created_at"`
	UpdatedAt  string  `json:"updated_at"`
}

type DefaultAppointmentService struct {
	AppointmentRepo  AppointmentRepository
	AvailabilityRepo AvailabilityRepository
	PropertyRepo     PropertyRepository
	UserRepo         UserRepository
	Slots            SlotCalculator
	Tx               Transactor
	Validate         *validator.Validate
}

func NewAppointmentService(
	apptRepo AppointmentRepository,
	availabilityRepo AvailabilityRepository,
	propertyRepo PropertyRepository,
	userRepo UserRepository,
	slots SlotCalculator,
	tx Transactor,
	validate *validator.Validate,
) *DefaultAppointmentService {
	return &DefaultAppointmentService{
		AppointmentRepo:  apptRepo,
		AvailabilityRepo: availabilityRepo,
		PropertyRepo:     propertyRepo,
		UserRepo:         userRepo,
		Slots:            slots,
		Tx:               tx,
		Validate:         validate,
	}
}

func (a *DefaultAppointmentService) GetAppointments(ctx context.Context, caller *auth.Principal) ([]*AppointmentResponse, apierror.ErrorResponse) {
	var (
		appts []*entity.Appointment
		err   error
	)
	switch caller.Role {
	case entity.RoleAdmin:
		appts, err = a.AppointmentRepo.FindAll(ctx)
	case entity.RoleAgent:
		appts, err = a.AppointmentRepo.FindByAgentID(ctx, caller.UserID)
	default:
		appts, err = a.AppointmentRepo.FindByClientID(ctx, caller.UserID)
	}

	if err != nil {
		log.Errorf("failed to find appointments for user %d: %v", caller.UserID, err)
		return nil, apierror.InternalServerError
	}

	response := make([]*AppointmentResponse, len(appts))
	for i, appt := range appts {
		response[i] = toAppointmentResponse(appt)
	}
	return response, nil
}

// BookAppointment books a 30 minute viewing. The slot is re-checked inside
// the transaction that inserts the appointment and its blocking override.
func (a *DefaultAppointmentService) BookAppointment(ctx context.Context, caller *auth.Principal, req *AppointmentRequest) (*AppointmentResponse, apierror.ErrorResponse) {
	if caller.Role != entity.RoleClient {
		return nil, apierror.Forbidden("Only clients can book viewings")
	}

	utils.Sanitize(req)
	if valerr := a.Validate.Struct(req); valerr != nil {
		return nil, apierror.FromValidationError(valerr)
	}

	agent, err := a.UserRepo.FindByID(ctx, req.AgentID)
	if err != nil {
		log.Errorf("failed to fetch agent %d: %v", req.AgentID, err)
		return nil, apierror.InternalServerError
	}
	if agent == nil || agent.Role != entity.RoleAgent {
		return nil, apierror.NotFound("Agent not found")
	}

	property, err := a.PropertyRepo.FindByID(ctx, req.PropertyID)
	if err != nil {
		log.Errorf("failed to fetch property %d: %v", req.PropertyID, err)
		return nil, apierror.InternalServerError
	}
	if property == nil {
		return nil, apierror.NotFound("Property not found")
	}
	if property.Status == entity.PropertySold || property.Status == entity.PropertyCancelled {
		return nil, apierror.PropertyNotAvailableError
	}

	start, err := utils.ParseClock(req.Time)
	if err != nil {
		return nil, apierror.NewInvalidParamTypeError("time", "HH:MM")
	}
	end := start + datatypes.Time(bookingLength)

	appt := &entity.Appointment{
		ClientID:   caller.UserID,
		AgentID:    req.AgentID,
		PropertyID: req.PropertyID,
		Date:       req.Date,
		StartTime:  start,
		EndTime:    end,
		Location:   property.Address,
		Status:     entity.AppointmentScheduled,
		Notes:      req.Notes,
	}

	err = a.Tx.WithinTransaction(ctx, func(ctx context.Context) error {
		slots, err := a.Slots.Slots(ctx, req.AgentID, req.Date, bookingLength)
		if err != nil {
			return err
		}
		if !slices.Contains(slots, req.Time) {
			return apierror.SlotUnavailableError
		}

		free, err := a.AppointmentRepo.IsAvailable(ctx, req.AgentID, req.Date, start, end)
		if err != nil {
			return err
		}
		if !free {
			return apierror.SlotUnavailableError
		}

		if err := a.AppointmentRepo.Save(ctx, appt); err != nil {
			return err
		}

		date := req.Date
		block := &entity.AgentAvailability{
			AgentID:       req.AgentID,
			DayOfWeek:     weekdayOf(req.Date),
			Date:          &date,
			StartTime:     start,
			EndTime:       end,
			IsAvailable:   false,
			AppointmentID: &appt.ID,
		}
		err = a.AvailabilityRepo.Save(ctx, block)
		if errors.Is(err, repository.ErrSlotTaken) {
			return apierror.SlotUnavailableError
		}
		return err
	})

	if apierr := fromTx(err, "failed to book appointment for client %d", caller.UserID); apierr != nil {
		monitoring.RecordBooking("book", outcome(apierr))
		return nil, apierr
	}
	monitoring.RecordBooking("book", "ok")
	return toAppointmentResponse(appt), nil
}

// CancelAppointment cancels a scheduled appointment and frees its slot. The
// client, the agent or an admin may cancel.
func (a *DefaultAppointmentService) CancelAppointment(ctx context.Context, caller *auth.Principal, id int) (*AppointmentResponse, apierror.ErrorResponse) {
	var appt *entity.Appointment
	err := a.Tx.WithinTransaction(ctx, func(ctx context.Context) error {
		var err error
		appt, err = a.AppointmentRepo.FindByID(ctx, id)
		if err != nil {
			return err
		}
		if appt == nil {
			return apierror.NotFoundError
		}
		if caller.UserID != appt.ClientID && caller.UserID != appt.AgentID && !caller.IsAdmin() {
			return apierror.ForbiddenError
		}

		if err := a.transition(ctx, appt, entity.AppointmentCancelled); err != nil {
			return err
		}

		removed, err := a.AvailabilityRepo.DeleteBookingBlock(ctx, appt.AgentID, appt.Date, appt.StartTime, appt.ID)
		if err != nil {
			return err
		}
		if removed == 0 {
			log.Warnf("no booking block found for cancelled appointment %d", appt.ID)
		}
		return nil
	})

	if apierr := fromTx(err, "failed to cancel appointment %d", id); apierr != nil {
		monitoring.RecordBooking("cancel", outcome(apierr))
		return nil, apierr
	}
	monitoring.RecordBooking("cancel", "ok")
	return toAppointmentResponse(appt), nil
}

// CompleteAppointment is used by the agent (or an admin) once the viewing
// took place.
func (a *DefaultAppointmentService) CompleteAppointment(ctx context.Context, caller *auth.Principal, id int) (*AppointmentResponse, apierror.ErrorResponse) {
	var appt *entity.Appointment
	err := a.Tx.WithinTransaction(ctx, func(ctx context.Context) error {
		var err error
		appt, err = a.AppointmentRepo.FindByID(ctx, id)
		if err != nil {
			return err
		}
		if appt == nil {
			return apierror.NotFoundError
		}
		if caller.UserID != appt.AgentID && !caller.IsAdmin() {
			return apierror.ForbiddenError
		}
		return a.transition(ctx, appt, entity.AppointmentCompleted)
	})

	if apierr := fromTx(err, "failed to complete appointment %d", id); apierr != nil {
		return nil, apierr
	}
	return toAppointmentResponse(appt), nil
}

func (a *DefaultAppointmentService) transition(ctx context.Context, appt *entity.Appointment, to entity.AppointmentStatus) error {
	if appt.Status != entity.AppointmentScheduled {
		return apierror.AppointmentNotScheduled
	}
	err := a.AppointmentRepo.UpdateStatus(ctx, appt.ID, to)
	if errors.Is(err, repository.ErrNotFound) {
		return apierror.AppointmentNotScheduled
	}
	if err != nil {
		return err
	}
	appt.Status = to
	return nil
}

// outcome labels a failure for metrics.
func outcome(apierr apierror.ErrorResponse) string {
	var e *apierror.APIError
	if errors.As(apierr, &e) {
		return string(e.Kind)
	}
	return "error"
}

func weekdayOf(date string) string {
	day, err := time.Parse(utils.DateLayout, date)
	if err != nil {
		return ""
	}
	return day.Weekday().String()
}

func toAppointmentResponse(appt *entity.Appointment) *AppointmentResponse {
	return &AppointmentResponse{
		ID:         appt.ID,
		ClientID:   appt.ClientID,
		AgentID:    appt.AgentID,
		PropertyID: appt.PropertyID,
		Date:       appt.Date,
		StartTime:  utils.FormatClock(appt.StartTime),
		EndTime:    utils.FormatClock(appt.EndTime),
		Location:   appt.Location,
		Status:     string(appt.Status),
		Notes:      appt.Notes,
		CreatedAt:  utils.FormatEpoch(appt.CreatedAt),
		UpdatedAt:  utils.FormatEpoch(appt.UpdatedAt),
	}
}
