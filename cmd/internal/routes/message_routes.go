package routes

import (
	"context"
	"net/http"

	"estatehub/cmd/internal/auth"
	"estatehub/cmd/internal/service"
	"estatehub/cmd/internal/utils/apierror"
	"github.com/labstack/echo/v4"
)

type MessageService interface {
	SendMessage(ctx context.Context, caller *auth.Principal, req *service.SendMessageRequest) (*service.MessageResponse, apierror.ErrorResponse)
	GetMessages(ctx context.Context, caller *auth.Principal, query *service.MessageQuery) ([]*service.MessageResponse, apierror.ErrorResponse)
	MarkRead(ctx context.Context, caller *auth.Principal, id int) (*service.MessageResponse, apierror.ErrorResponse)
}

type DefaultMessageRoute struct {
	MessageService MessageService
}

func NewMessageDefault(messageService MessageService) *DefaultMessageRoute {
	return &DefaultMessageRoute{MessageService: messageService}
}

func (m *DefaultMessageRoute) SendMessage(c echo.Context) error {
	var req service.SendMessageRequest
	if apierr := bind(c, &req); apierr != nil {
		return fail(c, apierr)
	}

	caller, apierr := principal(c)
	if apierr != nil {
		return fail(c, apierr)
	}

	msg, apierr := m.MessageService.SendMessage(c.Request().Context(), caller, &req)
	if apierr != nil {
		return fail(c, apierr)
	}
	return respond(c, http.StatusCreated, msg)
}

func (m *DefaultMessageRoute) GetMessages(c echo.Context) error {
	caller, apierr := principal(c)
	if apierr != nil {
		return fail(c, apierr)
	}

	var query service.MessageQuery
	if err := (&echo.DefaultBinder{}).BindQueryParams(c, &query); err != nil {
		return fail(c, apierror.NewInvalidParamTypeError("with", "int"))
	}

	msgs, apierr := m.MessageService.GetMessages(c.Request().Context(), caller, &query)
	if apierr != nil {
		return fail(c, apierr)
	}
	return respond(c, http.StatusOK, echo.Map{"messages": msgs})
}

func (m *DefaultMessageRoute) MarkRead(c echo.Context) error {
	id, apierr := intParam(c, "id")
	if apierr != nil {
		return fail(c, apierr)
	}
	caller, apierr := principal(c)
	if apierr != nil {
		return fail(c, apierr)
	}

	msg, apierr := m.MessageService.MarkRead(c.Request().Context(), caller, id)
	if apierr != nil {
		return fail(c, apierr)
	}
	return respond(c, http.StatusOK, msg)
}
