package routes

import (
	"context"
	"net/http"

	"estatehub/cmd/internal/auth"
	"estatehub/cmd/internal/service"
	"estatehub/cmd/internal/utils/apierror"
	"github.com/labstack/echo/v4"
)

type AppointmentService interface {
	GetAppointments(ctx context.Context, caller *auth.Principal) ([]*service.AppointmentResponse, apierror.ErrorResponse)
	BookAppointment(ctx context.Context, caller *auth.Principal, req *service.AppointmentRequest) (*service.AppointmentResponse, apierror.ErrorResponse)
	CancelAppointment(ctx context.Context, caller *auth.Principal, id int) (*service.AppointmentResponse, apierror.ErrorResponse)
	CompleteAppointment(ctx context.Context, caller *auth.Principal, id int) (*service.AppointmentResponse, apierror.ErrorResponse)
}

type DefaultAppointmentRoute struct {
	AppointmentService AppointmentService
}

func NewAppointmentDefault(apptService AppointmentService) *DefaultAppointmentRoute {
	return &DefaultAppointmentRoute{AppointmentService: apptService}
}

func (a *DefaultAppointmentRoute) GetAppointments(c echo.Context) error {
	caller, apierr := principal(c)
	if apierr != nil {
		return fail(c, apierr)
	}

	appts, apierr := a.AppointmentService.GetAppointments(c.Request().Context(), caller)
	if apierr != nil {
		return fail(c, apierr)
	}
	return respond(c, http.StatusOK, echo.Map{"appointments": appts})
}

func (a *DefaultAppointmentRoute) CreateAppointment(c echo.Context) error {
	var req service.AppointmentRequest
	if apierr := bind(c, &req); apierr != nil {
		return fail(c, apierr)
	}

	caller, apierr := principal(c)
	if apierr != nil {
		return fail(c, apierr)
	}

	appt, apierr := a.AppointmentService.BookAppointment(c.Request().Context(), caller, &req)
	if apierr != nil {
		return fail(c, apierr)
	}
	return respond(c, http.StatusCreated, appt)
}

func (a *DefaultAppointmentRoute) CancelAppointment(c echo.Context) error {
	return a.change(c, a.AppointmentService.CancelAppointment)
}

func (a *DefaultAppointmentRoute) CompleteAppointment(c echo.Context) error {
	return a.change(c, a.AppointmentService.CompleteAppointment)
}

type appointmentChange func(ctx context.Context, caller *auth.Principal, id int) (*service.AppointmentResponse, apierror.ErrorResponse)

func (a *DefaultAppointmentRoute) change(c echo.Context, apply appointmentChange) error {
	id, apierr := intParam(c, "id")
	if apierr != nil {
		return fail(c, apierr)
	}
	caller, apierr := principal(c)
	if apierr != nil {
		return fail(c, apierr)
	}

	appt, apierr := apply(c.Request().Context(), caller, id)
	if apierr != nil {
		return fail(c, apierr)
	}
	return respond(c, http.StatusOK, appt)
}
