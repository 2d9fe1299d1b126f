package routes

import (
	"context"
	"net/http"

	"estatehub/cmd/internal/auth"
	"estatehub/cmd/internal/service"
	"estatehub/cmd/internal/utils/apierror"
	"github.com/labstack/echo/v4"
)

type PaymentService interface {
	AddPaymentMethod(ctx context.Context, caller *auth.Principal, req *service.AddPaymentMethodRequest) (*service.PaymentMethodResponse, apierror.ErrorResponse)
	ListPaymentMethods(ctx context.Context, caller *auth.Principal) ([]*service.PaymentMethodResponse, apierror.ErrorResponse)
}

type DefaultPaymentRoute struct {
	PaymentService PaymentService
}

func NewPaymentDefault(paymentService PaymentService) *DefaultPaymentRoute {
	return &DefaultPaymentRoute{PaymentService: paymentService}
}

func (p *DefaultPaymentRoute) AddPaymentMethod(c echo.Context) error {
	var req service.AddPaymentMethodRequest
	if apierr := bind(c, &req); apierr != nil {
		return fail(c, apierr)
	}

	caller, apierr := principal(c)
	if apierr != nil {
		return fail(c, apierr)
	}

	method, apierr := p.PaymentService.AddPaymentMethod(c.Request().Context(), caller, &req)
	if apierr != nil {
		return fail(c, apierr)
	}
	return respond(c, http.StatusCreated, method)
}

func (p *DefaultPaymentRoute) ListPaymentMethods(c echo.Context) error {
	caller, apierr := principal(c)
	if apierr != nil {
		return fail(c, apierr)
	}

	methods, apierr := p.PaymentService.ListPaymentMethods(c.Request().Context(), caller)
	if apierr != nil {
		return fail(c, apierr)
	}
	return respond(c, http.StatusOK, echo.Map{"payment_methods": methods})
}
