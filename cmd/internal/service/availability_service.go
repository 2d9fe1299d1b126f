package service

import (
	"context"
	"fmt"
	"slices"
	"time"

	"estatehub/cmd/internal/auth"
	"estatehub/cmd/internal/domain/entity"
	"estatehub/cmd/internal/utils"
	"estatehub/cmd/internal/utils/apierror"
	"github.com/go-playground/validator/v10"
	"github.com/labstack/gommon/log"
	"gorm.io/datatypes"
)

const (
	// slotStep is the candidate spacing, whatever the requested duration.
	slotStep = 30 * time.Minute
	// bookingLength is how long a booked viewing blocks the agent.
	bookingLength = 30 * time.Minute
)

type AvailabilityRepository interface {
	FindTemplate(ctx context.Context, agentID int, weekday string) (*entity.AgentAvailability, error)
	FindTemplates(ctx context.Context, agentID int) ([]*entity.AgentAvailability, error)
	ReplaceTemplates(ctx context.Context, agentID int, rows []*entity.AgentAvailability) error
	FindBlocked(ctx context.Context, agentID int, date string) ([]*entity.AgentAvailability, error)
	FindBlocksFrom(ctx context.Context, agentID int, fromDate string) ([]*entity.AgentAvailability, error)
	FindByID(ctx context.Context, id int) (*entity.AgentAvailability, error)
	Save(ctx context.Context, row *entity.AgentAvailability) error
	Delete(ctx context.Context, row *entity.AgentAvailability) error
	DeleteBookingBlock(ctx context.Context, agentID int, date string, start datatypes.Time, appointmentID int) (int64, error)
}

type SchedulingSettings struct {
	Location           *time.Location
	DefaultSlotMinutes int
}

type SlotQuery struct {
	Date     string `query:"date" validate:"required,isodate"`
	Duration int    `query:"duration" validate:"gte=0,lte=480"`
}

type SlotsResponse struct {
	AgentID  int      `json:"agent_id"`
	Date     string   `json:"date"`
	Duration int      `json:"duration"`
	Slots    []string `json:"slots"`
}

type DayWindow struct {
	DayOfWeek string `json:"day_of_week" validate:"required,weekday"`
	StartTime string `json:"start_time" validate:"required,clock"`
	EndTime   string `json:"end_time" validate:"required,clock"`
}

type WeeklyAvailabilityRequest struct {
	Days []DayWindow `json:"days" validate:"max=7,dive"`
}

type BlockRequest struct {
	Date      string  `json:"date" validate:"required,isodate"`
	StartTime string  `json:"start_time" validate:"required,clock"`
	EndTime   string  `json:"end_time" validate:"required,clock"`
	Note      *string `json:"note" validate:"omitempty,max=255"`
}

type AvailabilityWindowResponse struct {
	ID            int     `json:"id"`
	DayOfWeek     string  `json:"day_of_week"`
	Date          *string `json:"date,omitempty"`
	StartTime     string  `json:"start_time"`
	EndTime       string  `json:"end_time"`
	IsAvailable   bool    `json:"is_available"`
	AppointmentID *int    `json:"appointment_id,omitempty"`
	Note          *string `json:"note,omitempty"`
}

type AgentAvailabilityResponse struct {
	AgentID int                           `json:"agent_id"`
	Weekly  []*AvailabilityWindowResponse `json:"weekly"`
	Blocks  []*AvailabilityWindowResponse `json:"blocks"`
}

type DefaultAvailabilityService struct {
	AvailabilityRepo AvailabilityRepository
	UserRepo         UserRepository
	Validate         *validator.Validate
	Settings         SchedulingSettings
}

func NewAvailabilityService(availabilityRepo AvailabilityRepository, userRepo UserRepository, validate *validator.Validate, settings SchedulingSettings) *DefaultAvailabilityService {
	if settings.Location == nil {
		settings.Location = time.UTC
	}
	if settings.DefaultSlotMinutes <= 0 {
		settings.DefaultSlotMinutes = int(slotStep / time.Minute)
	}
	return &DefaultAvailabilityService{
		AvailabilityRepo: availabilityRepo,
		UserRepo:         userRepo,
		Validate:         validate,
		Settings:         settings,
	}
}

// ComputeSlots walks the template window in 30 minute steps and keeps every
// start t whose [t, t+duration) fits the window and clears the blocks. A
// block also holds the step that starts exactly at its end.
func ComputeSlots(window *entity.AgentAvailability, blocked []*entity.AgentAvailability, duration time.Duration) []string {
	slots := []string{}
	if window == nil || duration <= 0 {
		return slots
	}

	start, end := time.Duration(window.StartTime), time.Duration(window.EndTime)
	for t := start; t+duration <= end; t += slotStep {
		if !isBlocked(t, t+duration, blocked) {
			slots = append(slots, utils.FormatClock(datatypes.Time(t)))
		}
	}
	return slots
}

func isBlocked(from, to time.Duration, blocked []*entity.AgentAvailability) bool {
	for _, b := range blocked {
		if from <= time.Duration(b.EndTime) && to > time.Duration(b.StartTime) {
			return true
		}
	}
	return false
}

// Slots returns the bookable start times for agentID on date. Past dates
// yield nothing without touching the store.
func (a *DefaultAvailabilityService) Slots(ctx context.Context, agentID int, date string, duration time.Duration) ([]string, error) {
	day, err := utils.ParseDate(date, a.Settings.Location)
	if err != nil {
		return nil, fmt.Errorf("parse date %q: %w", date, err)
	}
	if day.Before(utils.Today(a.Settings.Location)) {
		return []string{}, nil
	}

	template, err := a.AvailabilityRepo.FindTemplate(ctx, agentID, day.Weekday().String())
	if err != nil {
		return nil, fmt.Errorf("find template: %w", err)
	}
	if template == nil {
		return []string{}, nil
	}

	blocked, err := a.AvailabilityRepo.FindBlocked(ctx, agentID, date)
	if err != nil {
		return nil, fmt.Errorf("find blocked: %w", err)
	}
	return ComputeSlots(template, blocked, duration), nil
}

func (a *DefaultAvailabilityService) GetSlots(ctx context.Context, agentID int, query *SlotQuery) (*SlotsResponse, apierror.ErrorResponse) {
	utils.Sanitize(query)
	if err := a.Validate.Struct(query); err != nil {
		return nil, apierror.FromValidationError(err)
	}

	minutes := query.Duration
	if minutes == 0 {
		minutes = a.Settings.DefaultSlotMinutes
	}

	slots, err := a.Slots(ctx, agentID, query.Date, time.Duration(minutes)*time.Minute)
	if err != nil {
		log.Errorf("failed to compute slots for agent %d on %s: %v", agentID, query.Date, err)
		return nil, apierror.InternalServerError
	}
	return &SlotsResponse{AgentID: agentID, Date: query.Date, Duration: minutes, Slots: slots}, nil
}

func (a *DefaultAvailabilityService) GetAvailability(ctx context.Context, agentID int) (*AgentAvailabilityResponse, apierror.ErrorResponse) {
	if _, apierr := a.findAgent(ctx, agentID); apierr != nil {
		return nil, apierr
	}

	templates, err := a.AvailabilityRepo.FindTemplates(ctx, agentID)
	if err != nil {
		log.Errorf("failed to fetch templates for agent %d: %v", agentID, err)
		return nil, apierror.InternalServerError
	}

	today := utils.Today(a.Settings.Location).Format(utils.DateLayout)
	blocks, err := a.AvailabilityRepo.FindBlocksFrom(ctx, agentID, today)
	if err != nil {
		log.Errorf("failed to fetch blocks for agent %d: %v", agentID, err)
		return nil, apierror.InternalServerError
	}

	return &AgentAvailabilityResponse{
		AgentID: agentID,
		Weekly:  toWindowResponses(templates),
		Blocks:  toWindowResponses(blocks),
	}, nil
}

// SetWeeklyAvailability replaces the agent's template. One window per weekday.
func (a *DefaultAvailabilityService) SetWeeklyAvailability(ctx context.Context, caller *auth.Principal, agentID int, req *WeeklyAvailabilityRequest) (*AgentAvailabilityResponse, apierror.ErrorResponse) {
	if !caller.Owns(agentID) {
		return nil, apierror.ForbiddenError
	}

	for i := range req.Days {
		utils.Sanitize(&req.Days[i])
	}
	if err := a.Validate.Struct(req); err != nil {
		return nil, apierror.FromValidationError(err)
	}

	if _, apierr := a.findAgent(ctx, agentID); apierr != nil {
		return nil, apierr
	}

	seen := make([]string, 0, len(req.Days))
	rows := make([]*entity.AgentAvailability, 0, len(req.Days))
	for _, day := range req.Days {
		if slices.Contains(seen, day.DayOfWeek) {
			return nil, apierror.Validation(fmt.Sprintf("%s is listed more than once", day.DayOfWeek))
		}
		seen = append(seen, day.DayOfWeek)

		start, end, apierr := parseWindow(day.StartTime, day.EndTime)
		if apierr != nil {
			return nil, apierr
		}
		rows = append(rows, &entity.AgentAvailability{
			AgentID:     agentID,
			DayOfWeek:   day.DayOfWeek,
			StartTime:   start,
			EndTime:     end,
			IsAvailable: true,
		})
	}

	if err := a.AvailabilityRepo.ReplaceTemplates(ctx, agentID, rows); err != nil {
		log.Errorf("failed to replace templates for agent %d: %v", agentID, err)
		return nil, apierror.InternalServerError
	}
	return a.GetAvailability(ctx, agentID)
}

// AddBlock marks part of a date as unavailable.
func (a *DefaultAvailabilityService) AddBlock(ctx context.Context, caller *auth.Principal, agentID int, req *BlockRequest) (*AvailabilityWindowResponse, apierror.ErrorResponse) {
	if !caller.Owns(agentID) {
		return nil, apierror.ForbiddenError
	}

	utils.Sanitize(req)
	if err := a.Validate.Struct(req); err != nil {
		return nil, apierror.FromValidationError(err)
	}

	if _, apierr := a.findAgent(ctx, agentID); apierr != nil {
		return nil, apierr
	}

	start, end, apierr := parseWindow(req.StartTime, req.EndTime)
	if apierr != nil {
		return nil, apierr
	}
	day, err := utils.ParseDate(req.Date, a.Settings.Location)
	if err != nil {
		return nil, apierror.NewInvalidParamTypeError("date", "YYYY-MM-DD")
	}

	date := req.Date
	block := &entity.AgentAvailability{
		AgentID:     agentID,
		DayOfWeek:   day.Weekday().String(),
		Date:        &date,
		StartTime:   start,
		EndTime:     end,
		IsAvailable: false,
		Note:        req.Note,
	}
	if err := a.AvailabilityRepo.Save(ctx, block); err != nil {
		log.Errorf("failed to save block for agent %d: %v", agentID, err)
		return nil, apierror.InternalServerError
	}
	return toWindowResponse(block), nil
}

// RemoveBlock deletes a manual block. Blocks created by a booking go away
// when the appointment is cancelled.
func (a *DefaultAvailabilityService) RemoveBlock(ctx context.Context, caller *auth.Principal, agentID, blockID int) apierror.ErrorResponse {
	if !caller.Owns(agentID) {
		return apierror.ForbiddenError
	}

	block, err := a.AvailabilityRepo.FindByID(ctx, blockID)
	if err != nil {
		log.Errorf("failed to fetch block %d: %v", blockID, err)
		return apierror.InternalServerError
	}
	if block == nil || block.AgentID != agentID || block.IsTemplate() {
		return apierror.NotFoundError
	}
	if block.AppointmentID != nil {
		return apierror.ManualBlockOnlyError
	}

	if err := a.AvailabilityRepo.Delete(ctx, block); err != nil {
		log.Errorf("failed to delete block %d: %v", blockID, err)
		return apierror.InternalServerError
	}
	return nil
}

func (a *DefaultAvailabilityService) findAgent(ctx context.Context, agentID int) (*entity.User, apierror.ErrorResponse) {
	agent, err := a.UserRepo.FindByID(ctx, agentID)
	if err != nil {
		log.Errorf("failed to fetch agent %d: %v", agentID, err)
		return nil, apierror.InternalServerError
	}
	if agent == nil || agent.Role != entity.RoleAgent {
		return nil, apierror.NotFound("Agent not found")
	}
	return agent, nil
}

func parseWindow(from, to string) (datatypes.Time, datatypes.Time, apierror.ErrorResponse) {
	start, err := utils.ParseClock(from)
	if err != nil {
		return 0, 0, apierror.NewInvalidParamTypeError("start_time", "HH:MM")
	}
	end, err := utils.ParseClock(to)
	if err != nil {
		return 0, 0, apierror.NewInvalidParamTypeError("end_time", "HH:MM")
	}
	if end <= start {
		return 0, 0, apierror.InvalidTimeRangeError
	}
	return start, end, nil
}

func toWindowResponses(rows []*entity.AgentAvailability) []*AvailabilityWindowResponse {
	resp := make([]*AvailabilityWindowResponse, len(rows))
	for i, row := range rows {
		resp[i] = toWindowResponse(row)
	}
	return resp
}

func toWindowResponse(row *entity.AgentAvailability) *AvailabilityWindowResponse {
	return &AvailabilityWindowResponse{
		ID:            row.ID,
		DayOfWeek:     row.DayOfWeek,
		Date:          row.Date,
		StartTime:     utils.FormatClock(row.StartTime),
		EndTime:       utils.FormatClock(row.EndTime),
		IsAvailable:   row.IsAvailable,
		AppointmentID: row.AppointmentID,
		Note:          row.Note,
	}
}
