package service

import (
	"context"
	"net/http"
	"testing"
	"time"

	"estatehub/cmd/internal/domain/entity"
	"estatehub/cmd/internal/utils"
	"estatehub/cmd/internal/utils/apierror"
	"github.com/stretchr/testify/require"
)

func span(t *testing.T, from, to string) *entity.AgentAvailability {
	t.Helper()
	start, err := utils.ParseClock(from)
	require.NoError(t, err)
	end, err := utils.ParseClock(to)
	require.NoError(t, err)
	return &entity.AgentAvailability{StartTime: start, EndTime: end}
}

func TestComputeSlots(t *testing.T) {
	t.Parallel()

	window := span(t, "09:00", "12:00")
	tests := []struct {
		name     string
		blocked  []*entity.AgentAvailability
		duration time.Duration
		want     []string
	}{
		{
			name:     "free morning",
			duration: 30 * time.Minute,
			want:     []string{"09:00", "09:30", "10:00", "10:30", "11:00", "11:30"},
		},
		{
			name:     "one blocked half hour",
			blocked:  []*entity.AgentAvailability{span(t, "10:00", "10:30")},
			duration: 30 * time.Minute,
			want:     []string{"09:00", "09:30", "11:00", "11:30"},
		},
		{
			name:     "hour long viewing",
			duration: time.Hour,
			want:     []string{"09:00", "09:30", "10:00", "10:30", "11:00"},
		},
		{
			name:     "duration off the step",
			duration: 45 * time.Minute,
			want:     []string{"09:00", "09:30", "10:00", "10:30", "11:00"},
		},
		{
			name:     "whole window blocked",
			blocked:  []*entity.AgentAvailability{span(t, "08:00", "13:00")},
			duration: 30 * time.Minute,
			want:     []string{},
		},
		{
			name:     "longer than the window",
			duration: 4 * time.Hour,
			want:     []string{},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			require.Equal(t, tt.want, ComputeSlots(window, tt.blocked, tt.duration))
		})
	}
}

func TestComputeSlots_NoWindow(t *testing.T) {
	t.Parallel()
	require.Empty(t, ComputeSlots(nil, nil, 30*time.Minute))
}

func TestSlots_NoTemplateIsEmpty(t *testing.T) {
	t.Parallel()
	f := newFixture(t)
	agent := f.user(t, entity.RoleAgent)
	svc := f.availabilityService()

	slots, err := svc.Slots(context.Background(), agent.UserID, monday, 30*time.Minute)
	require.NoError(t, err)
	require.Empty(t, slots)
}

func TestGetSlots_MondayTemplate(t *testing.T) {
	t.Parallel()
	f := newFixture(t)
	agent := f.user(t, entity.RoleAgent)
	svc := f.availabilityService()
	ctx := context.Background()

	_, apierr := svc.SetWeeklyAvailability(ctx, agent, agent.UserID, &WeeklyAvailabilityRequest{
		Days: []DayWindow{{DayOfWeek: "Monday", StartTime: "09:00", EndTime: "12:00"}},
	})
	require.Nil(t, apierr)

	resp, apierr := svc.GetSlots(ctx, agent.UserID, &SlotQuery{Date: monday})
	require.Nil(t, apierr)
	require.Equal(t, 30, resp.Duration)
	require.Equal(t, []string{"09:00", "09:30", "10:00", "10:30", "11:00", "11:30"}, resp.Slots)

	resp, apierr = svc.GetSlots(ctx, agent.UserID, &SlotQuery{Date: tuesday})
	require.Nil(t, apierr)
	require.Empty(t, resp.Slots)

	_, apierr = svc.AddBlock(ctx, agent, agent.UserID, &BlockRequest{Date: monday, StartTime: "10:00", EndTime: "10:30"})
	require.Nil(t, apierr)

	resp, apierr = svc.GetSlots(ctx, agent.UserID, &SlotQuery{Date: monday})
	require.Nil(t, apierr)
	require.Equal(t, []string{"09:00", "09:30", "11:00", "11:30"}, resp.Slots)
}

func TestGetSlots_PastDate(t *testing.T) {
	t.Parallel()
	f := newFixture(t)
	agent := f.user(t, entity.RoleAgent)
	svc := f.availabilityService()
	ctx := context.Background()

	_, apierr := svc.SetWeeklyAvailability(ctx, agent, agent.UserID, &WeeklyAvailabilityRequest{
		Days: []DayWindow{{DayOfWeek: "Monday", StartTime: "09:00", EndTime: "12:00"}},
	})
	require.Nil(t, apierr)

	resp, apierr := svc.GetSlots(ctx, agent.UserID, &SlotQuery{Date: "2020-01-06"})
	require.Nil(t, apierr)
	require.Empty(t, resp.Slots)
}

func TestGetSlots_InvalidQuery(t *testing.T) {
	t.Parallel()
	f := newFixture(t)
	svc := f.availabilityService()

	_, apierr := svc.GetSlots(context.Background(), 1, &SlotQuery{Date: "07/01/2030"})
	require.NotNil(t, apierr)
	require.Equal(t, http.StatusBadRequest, apierr.Code())

	_, apierr = svc.GetSlots(context.Background(), 1, &SlotQuery{Date: monday, Duration: 600})
	require.NotNil(t, apierr)
	require.Equal(t, http.StatusBadRequest, apierr.Code())
}

func TestSetWeeklyAvailability_Rules(t *testing.T) {
	t.Parallel()
	f := newFixture(t)
	agent := f.user(t, entity.RoleAgent)
	other := f.user(t, entity.RoleAgent)
	admin := f.user(t, entity.RoleAdmin)
	svc := f.availabilityService()
	ctx := context.Background()

	days := []DayWindow{{DayOfWeek: "Monday", StartTime: "09:00", EndTime: "12:00"}}

	_, apierr := svc.SetWeeklyAvailability(ctx, other, agent.UserID, &WeeklyAvailabilityRequest{Days: days})
	require.Equal(t, apierror.ForbiddenError, apierr)

	_, apierr = svc.SetWeeklyAvailability(ctx, agent, agent.UserID, &WeeklyAvailabilityRequest{
		Days: append(days, DayWindow{DayOfWeek: "Monday", StartTime: "13:00", EndTime: "15:00"}),
	})
	require.NotNil(t, apierr)
	require.Equal(t, http.StatusBadRequest, apierr.Code())

	_, apierr = svc.SetWeeklyAvailability(ctx, agent, agent.UserID, &WeeklyAvailabilityRequest{
		Days: []DayWindow{{DayOfWeek: "Friday", StartTime: "12:00", EndTime: "09:00"}},
	})
	require.Equal(t, apierror.InvalidTimeRangeError, apierr)

	resp, apierr := svc.SetWeeklyAvailability(ctx, admin, agent.UserID, &WeeklyAvailabilityRequest{Days: days})
	require.Nil(t, apierr)
	require.Len(t, resp.Weekly, 1)
	require.Equal(t, "09:00", resp.Weekly[0].StartTime)

	// A new template replaces the old one.
	resp, apierr = svc.SetWeeklyAvailability(ctx, agent, agent.UserID, &WeeklyAvailabilityRequest{
		Days: []DayWindow{{DayOfWeek: "Tuesday", StartTime: "14:00", EndTime: "16:00"}},
	})
	require.Nil(t, apierr)
	require.Len(t, resp.Weekly, 1)
	require.Equal(t, "Tuesday", resp.Weekly[0].DayOfWeek)

	_, apierr = svc.SetWeeklyAvailability(ctx, admin, admin.UserID, &WeeklyAvailabilityRequest{Days: days})
	require.NotNil(t, apierr)
	require.Equal(t, http.StatusNotFound, apierr.Code())
}

func TestRemoveBlock(t *testing.T) {
	t.Parallel()
	f := newFixture(t)
	agent := f.user(t, entity.RoleAgent)
	svc := f.availabilityService()
	ctx := context.Background()

	block, apierr := svc.AddBlock(ctx, agent, agent.UserID, &BlockRequest{Date: monday, StartTime: "10:00", EndTime: "11:00"})
	require.Nil(t, apierr)
	require.Equal(t, "Monday", block.DayOfWeek)

	other := f.user(t, entity.RoleAgent)
	require.Equal(t, apierror.ForbiddenError, svc.RemoveBlock(ctx, other, agent.UserID, block.ID))

	require.Nil(t, svc.RemoveBlock(ctx, agent, agent.UserID, block.ID))
	require.Equal(t, apierror.NotFoundError, svc.RemoveBlock(ctx, agent, agent.UserID, block.ID))
}
