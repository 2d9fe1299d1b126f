package routes

import (
	"context"
	"net/http"

	"estatehub/cmd/internal/auth"
	"estatehub/cmd/internal/service"
	"estatehub/cmd/internal/utils/apierror"
	"github.com/labstack/echo/v4"
)

type PropertyService interface {
	ListProperties(ctx context.Context, query *service.PropertyQuery) ([]*service.PropertyResponse, apierror.ErrorResponse)
	GetProperty(ctx context.Context, id int) (*service.PropertyResponse, apierror.ErrorResponse)
	CreateProperty(ctx context.Context, caller *auth.Principal, req *service.CreatePropertyRequest) (*service.PropertyResponse, apierror.ErrorResponse)
}

type DefaultPropertyRoute struct {
	PropertyService PropertyService
}

func NewPropertyDefault(propertyService PropertyService) *DefaultPropertyRoute {
	return &DefaultPropertyRoute{PropertyService: propertyService}
}

func (p *DefaultPropertyRoute) ListProperties(c echo.Context) error {
	var query service.PropertyQuery
	if err := (&echo.DefaultBinder{}).BindQueryParams(c, &query); err != nil {
		return fail(c, apierror.Validation("Query parameters are malformed"))
	}

	properties, apierr := p.PropertyService.ListProperties(c.Request().Context(), &query)
	if apierr != nil {
		return fail(c, apierr)
	}
	return respond(c, http.StatusOK, echo.Map{"properties": properties})
}

func (p *DefaultPropertyRoute) GetProperty(c echo.Context) error {
	id, apierr := intParam(c, "id")
	if apierr != nil {
		return fail(c, apierr)
	}

	property, apierr := p.PropertyService.GetProperty(c.Request().Context(), id)
	if apierr != nil {
		return fail(c, apierr)
	}
	return respond(c, http.StatusOK, property)
}

func (p *DefaultPropertyRoute) CreateProperty(c echo.Context) error {
	var req service.CreatePropertyRequest
	if apierr := bind(c, &req); apierr != nil {
		return fail(c, apierr)
	}

	caller, apierr := principal(c)
	if apierr != nil {
		return fail(c, apierr)
	}

	property, apierr := p.PropertyService.CreateProperty(c.Request().Context(), caller, &req)
	if apierr != nil {
		return fail(c, apierr)
	}
	return respond(c, http.StatusCreated, property)
}
