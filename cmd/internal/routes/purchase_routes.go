package routes

import (
	"context"
	"net/http"

	"estatehub/cmd/internal/auth"
	"estatehub/cmd/internal/service"
	"estatehub/cmd/internal/utils/apierror"
	"github.com/labstack/echo/v4"
)

type PurchaseService interface {
	GetPurchases(ctx context.Context, caller *auth.Principal) ([]*service.PurchaseResponse, apierror.ErrorResponse)
	CompletePayment(ctx context.Context, caller *auth.Principal, id int, req *service.CompletePaymentRequest) (*service.PurchaseResponse, apierror.ErrorResponse)
}

type DefaultPurchaseRoute struct {
	PurchaseService PurchaseService
}

func NewPurchaseDefault(purchaseService PurchaseService) *DefaultPurchaseRoute {
	return &DefaultPurchaseRoute{PurchaseService: purchaseService}
}

func (p *DefaultPurchaseRoute) GetPurchases(c echo.Context) error {
	caller, apierr := principal(c)
	if apierr != nil {
		return fail(c, apierr)
	}

	purchases, apierr := p.PurchaseService.GetPurchases(c.Request().Context(), caller)
	if apierr != nil {
		return fail(c, apierr)
	}
	return respond(c, http.StatusOK, echo.Map{"purchases": purchases})
}

func (p *DefaultPurchaseRoute) CompletePayment(c echo.Context) error {
	id, apierr := intParam(c, "id")
	if apierr != nil {
		return fail(c, apierr)
	}
	caller, apierr := principal(c)
	if apierr != nil {
		return fail(c, apierr)
	}

	var req service.CompletePaymentRequest
	if apierr := bind(c, &req); apierr != nil {
		return fail(c, apierr)
	}

	purchase, apierr := p.PurchaseService.CompletePayment(c.Request().Context(), caller, id, &req)
	if apierr != nil {
		return fail(c, apierr)
	}
	return respond(c, http.StatusOK, purchase)
}
