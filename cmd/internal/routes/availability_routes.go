package routes

import (
	"context"
	"net/http"

	"estatehub/cmd/internal/auth"
	"estatehub/cmd/internal/service"
	"estatehub/cmd/internal/utils/apierror"
	"github.com/labstack/echo/v4"
)

type AvailabilityService interface {
	GetSlots(ctx context.Context, agentID int, query *service.SlotQuery) (*service.SlotsResponse, apierror.ErrorResponse)
	GetAvailability(ctx context.Context, agentID int) (*service.AgentAvailabilityResponse, apierror.ErrorResponse)
	SetWeeklyAvailability(ctx context.Context, caller *auth.Principal, agentID int, req *service.WeeklyAvailabilityRequest) (*service.AgentAvailabilityResponse, apierror.ErrorResponse)
	AddBlock(ctx context.Context, caller *auth.Principal, agentID int, req *service.BlockRequest) (*service.AvailabilityWindowResponse, apierror.ErrorResponse)
	RemoveBlock(ctx context.Context, caller *auth.Principal, agentID, blockID int) apierror.ErrorResponse
}

type DefaultAvailabilityRoute struct {
	AvailabilityService AvailabilityService
}

func NewAvailabilityDefault(availabilityService AvailabilityService) *DefaultAvailabilityRoute {
	return &DefaultAvailabilityRoute{AvailabilityService: availabilityService}
}

func (a *DefaultAvailabilityRoute) GetSlots(c echo.Context) error {
	agentID, apierr := intParam(c, "id")
	if apierr != nil {
		return fail(c, apierr)
	}

	var query service.SlotQuery
	if err := (&echo.DefaultBinder{}).BindQueryParams(c, &query); err != nil {
		return fail(c, apierror.NewInvalidParamTypeError("duration", "int"))
	}
	if query.Date == "" {
		return fail(c, apierror.NewMissingParamError("date"))
	}

	slots, apierr := a.AvailabilityService.GetSlots(c.Request().Context(), agentID, &query)
	if apierr != nil {
		return fail(c, apierr)
	}
	return respond(c, http.StatusOK, slots)
}

func (a *DefaultAvailabilityRoute) GetAvailability(c echo.Context) error {
	agentID, apierr := intParam(c, "id")
	if apierr != nil {
		return fail(c, apierr)
	}

	availability, apierr := a.AvailabilityService.GetAvailability(c.Request().Context(), agentID)
	if apierr != nil {
		return fail(c, apierr)
	}
	return respond(c, http.StatusOK, availability)
}

func (a *DefaultAvailabilityRoute) SetWeeklyAvailability(c echo.Context) error {
	agentID, apierr := intParam(c, "id")
	if apierr != nil {
		return fail(c, apierr)
	}
	caller, apierr := principal(c)
	if apierr != nil {
		return fail(c, apierr)
	}

	var req service.WeeklyAvailabilityRequest
	if apierr := bind(c, &req); apierr != nil {
		return fail(c, apierr)
	}

	availability, apierr := a.AvailabilityService.SetWeeklyAvailability(c.Request().Context(), caller, agentID, &req)
	if apierr != nil {
		return fail(c, apierr)
	}
	return respond(c, http.StatusOK, availability)
}

func (a *DefaultAvailabilityRoute) AddBlock(c echo.Context) error {
	agentID, apierr := intParam(c, "id")
	if apierr != nil {
		return fail(c, apierr)
	}
	caller, apierr := principal(c)
	if apierr != nil {
		return fail(c, apierr)
	}

	var req service.BlockRequest
	if apierr := bind(c, &req); apierr != nil {
		return fail(c, apierr)
	}

	block, apierr := a.AvailabilityService.AddBlock(c.Request().Context(), caller, agentID, &req)
	if apierr != nil {
		return fail(c, apierr)
	}
	return respond(c, http.StatusCreated, block)
}

func (a *DefaultAvailabilityRoute) RemoveBlock(c echo.Context) error {
	agentID, apierr := intParam(c, "id")
	if apierr != nil {
		return fail(c, apierr)
	}
	blockID, apierr := intParam(c, "blockId")
	if apierr != nil {
		return fail(c, apierr)
	}
	caller, apierr := principal(c)
	if apierr != nil {
		return fail(c, apierr)
	}

	if apierr := a.AvailabilityService.RemoveBlock(c.Request().Context(), caller, agentID, blockID); apierr != nil {
		return fail(c, apierr)
	}
	return c.NoContent(http.StatusNoContent)
}
