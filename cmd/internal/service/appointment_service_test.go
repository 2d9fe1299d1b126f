package service

import (
	"context"
	"net/http"
	"testing"
	"time"

	"estatehub/cmd/internal/auth"
	"estatehub/cmd/internal/domain/database/repository"
	"estatehub/cmd/internal/domain/entity"
	"estatehub/cmd/internal/utils/apierror"
	"github.com/stretchr/testify/require"
	"gorm.io/datatypes"
)

type bookingSetup struct {
	f        *fixture
	svc      *DefaultAppointmentService
	agent    *auth.Principal
	client   *auth.Principal
	property *entity.Property
}

// newBookingSetup gives an agent a Monday 09:00-12:00 template.
func newBookingSetup(t *testing.T) *bookingSetup {
	t.Helper()
	f := newFixture(t)
	agent := f.user(t, entity.RoleAgent)
	_, apierr := f.availabilityService().SetWeeklyAvailability(context.Background(), agent, agent.UserID, &WeeklyAvailabilityRequest{
		Days: []DayWindow{{DayOfWeek: "Monday", StartTime: "09:00", EndTime: "12:00"}},
	})
	require.Nil(t, apierr)

	return &bookingSetup{
		f:        f,
		svc:      f.appointmentService(),
		agent:    agent,
		client:   f.user(t, entity.RoleClient),
		property: f.property(t, agent.UserID),
	}
}

func (s *bookingSetup) request(date, at string) *AppointmentRequest {
	return &AppointmentRequest{AgentID: s.agent.UserID, PropertyID: s.property.ID, Date: date, Time: at}
}

func (s *bookingSetup) slots(t *testing.T) []string {
	t.Helper()
	resp, apierr := s.f.availabilityService().GetSlots(context.Background(), s.agent.UserID, &SlotQuery{Date: monday})
	require.Nil(t, apierr)
	return resp.Slots
}

func TestBookAppointment_SlotIsTaken(t *testing.T) {
	t.Parallel()
	s := newBookingSetup(t)
	ctx := context.Background()

	appt, apierr := s.svc.BookAppointment(ctx, s.client, s.request(monday, "10:00"))
	require.Nil(t, apierr)
	require.Equal(t, "scheduled", appt.Status)
	require.Equal(t, "10:00", appt.StartTime)
	require.Equal(t, "10:30", appt.EndTime)
	require.Equal(t, s.property.Address, appt.Location)

	require.NotContains(t, s.slots(t), "10:00")

	other := s.f.user(t, entity.RoleClient)
	_, apierr = s.svc.BookAppointment(ctx, other, s.request(monday, "10:00"))
	require.Equal(t, apierror.SlotUnavailableError, apierr)
	require.EqualValues(t, 1, s.f.count(t, &entity.Appointment{}))
}

// staleAppointments and openSlots answer as if a competing booking had not
// committed yet when the availability was read.
type staleAppointments struct {
	*repository.DefaultAppointmentRepository
}

func (staleAppointments) IsAvailable(context.Context, int, string, datatypes.Time, datatypes.Time) (bool, error) {
	return true, nil
}

type openSlots []string

func (o openSlots) Slots(context.Context, int, string, time.Duration) ([]string, error) {
	return o, nil
}

func TestBookAppointment_StaleReadLosesSlot(t *testing.T) {
	t.Parallel()
	s := newBookingSetup(t)
	ctx := context.Background()

	_, apierr := s.svc.BookAppointment(ctx, s.client, s.request(monday, "10:00"))
	require.Nil(t, apierr)

	f := s.f
	stale := NewAppointmentService(staleAppointments{f.appts}, f.avail, f.props, f.users, openSlots{"10:00"}, f.tx, f.validate)
	_, apierr = stale.BookAppointment(ctx, f.user(t, entity.RoleClient), s.request(monday, "10:00"))
	require.Equal(t, apierror.SlotUnavailableError, apierr)
	require.EqualValues(t, 1, f.count(t, &entity.Appointment{}))
}

func TestBookAppointment_Rejections(t *testing.T) {
	t.Parallel()
	s := newBookingSetup(t)
	ctx := context.Background()

	tests := []struct {
		name   string
		caller *auth.Principal
		req    *AppointmentRequest
		want   int
	}{
		{"agent cannot book", s.agent, s.request(monday, "09:00"), http.StatusForbidden},
		{"outside the template", s.client, s.request(monday, "13:00"), http.StatusConflict},
		{"day without template", s.client, s.request(tuesday, "09:00"), http.StatusConflict},
		{"past date", s.client, s.request("2020-01-06", "09:00"), http.StatusConflict},
		{"malformed time", s.client, s.request(monday, "9am"), http.StatusBadRequest},
		{"unknown agent", s.client, &AppointmentRequest{AgentID: 999, PropertyID: s.property.ID, Date: monday, Time: "09:00"}, http.StatusNotFound},
		{"unknown property", s.client, &AppointmentRequest{AgentID: s.agent.UserID, PropertyID: 999, Date: monday, Time: "09:00"}, http.StatusNotFound},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, apierr := s.svc.BookAppointment(ctx, tt.caller, tt.req)
			require.NotNil(t, apierr)
			require.Equal(t, tt.want, apierr.Code())
		})
	}
	require.EqualValues(t, 0, s.f.count(t, &entity.Appointment{}))
}

func TestCancelAppointment_FreesSlot(t *testing.T) {
	t.Parallel()
	s := newBookingSetup(t)
	ctx := context.Background()

	appt, apierr := s.svc.BookAppointment(ctx, s.client, s.request(monday, "09:00"))
	require.Nil(t, apierr)
	require.NotContains(t, s.slots(t), "09:00")

	stranger := s.f.user(t, entity.RoleClient)
	_, apierr = s.svc.CancelAppointment(ctx, stranger, appt.ID)
	require.Equal(t, apierror.ForbiddenError, apierr)

	cancelled, apierr := s.svc.CancelAppointment(ctx, s.client, appt.ID)
	require.Nil(t, apierr)
	require.Equal(t, "cancelled", cancelled.Status)
	require.Equal(t, []string{"09:00", "09:30", "10:00", "10:30", "11:00", "11:30"}, s.slots(t))

	_, apierr = s.svc.CancelAppointment(ctx, s.agent, appt.ID)
	require.Equal(t, apierror.AppointmentNotScheduled, apierr)

	_, apierr = s.svc.CancelAppointment(ctx, s.client, 999)
	require.Equal(t, apierror.NotFoundError, apierr)
}

func TestCompleteAppointment(t *testing.T) {
	t.Parallel()
	s := newBookingSetup(t)
	ctx := context.Background()

	appt, apierr := s.svc.BookAppointment(ctx, s.client, s.request(monday, "11:00"))
	require.Nil(t, apierr)

	_, apierr = s.svc.CompleteAppointment(ctx, s.client, appt.ID)
	require.Equal(t, apierror.ForbiddenError, apierr)

	done, apierr := s.svc.CompleteAppointment(ctx, s.agent, appt.ID)
	require.Nil(t, apierr)
	require.Equal(t, "completed", done.Status)

	_, apierr = s.svc.CancelAppointment(ctx, s.client, appt.ID)
	require.Equal(t, apierror.AppointmentNotScheduled, apierr)
}

func TestBookingBlockIsNotManual(t *testing.T) {
	t.Parallel()
	s := newBookingSetup(t)
	ctx := context.Background()

	appt, apierr := s.svc.BookAppointment(ctx, s.client, s.request(monday, "09:30"))
	require.Nil(t, apierr)

	availability, apierr := s.f.availabilityService().GetAvailability(ctx, s.agent.UserID)
	require.Nil(t, apierr)
	require.Len(t, availability.Blocks, 1)
	block := availability.Blocks[0]
	require.NotNil(t, block.AppointmentID)
	require.Equal(t, appt.ID, *block.AppointmentID)
	require.Equal(t, "09:30", block.StartTime)
	require.Equal(t, "10:00", block.EndTime)

	apierr = s.f.availabilityService().RemoveBlock(ctx, s.agent, s.agent.UserID, block.ID)
	require.Equal(t, apierror.ManualBlockOnlyError, apierr)
}

func TestGetAppointments_ByRole(t *testing.T) {
	t.Parallel()
	s := newBookingSetup(t)
	ctx := context.Background()

	_, apierr := s.svc.BookAppointment(ctx, s.client, s.request(monday, "09:00"))
	require.Nil(t, apierr)

	admin := s.f.user(t, entity.RoleAdmin)
	stranger := s.f.user(t, entity.RoleClient)

	for _, tt := range []struct {
		name   string
		caller *auth.Principal
		want   int
	}{
		{"client", s.client, 1},
		{"agent", s.agent, 1},
		{"admin", admin, 1},
		{"stranger", stranger, 0},
	} {
		t.Run(tt.name, func(t *testing.T) {
			appts, apierr := s.svc.GetAppointments(ctx, tt.caller)
			require.Nil(t, apierr)
			require.Len(t, appts, tt.want)
		})
	}
}
