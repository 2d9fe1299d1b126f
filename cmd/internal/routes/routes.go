// Package routes adapts HTTP requests to service calls. Every response uses
// the {"success": bool, ...} envelope.
package routes

import (
	"strconv"
	"strings"

	"estatehub/cmd/internal/auth"
	"estatehub/cmd/internal/utils/apierror"
	"github.com/labstack/echo/v4"
)

type envelope struct {
	Success bool `json:"success"`
	Data    any  `json:"data"`
}

func respond(c echo.Context, status int, data any) error {
	return c.JSON(status, &envelope{Success: true, Data: data})
}

func fail(c echo.Context, apierr apierror.ErrorResponse) error {
	return c.JSON(apierr.Code(), apierr)
}

func principal(c echo.Context) (*auth.Principal, apierror.ErrorResponse) {
	p, err := auth.PrincipalFrom(c)
	if err != nil {
		return nil, apierror.InvalidAuthTokenError
	}
	return p, nil
}

func intParam(c echo.Context, name string) (int, apierror.ErrorResponse) {
	raw := strings.TrimSpace(c.Param(name))
	if raw == "" {
		return 0, apierror.NewMissingParamError(name)
	}
	id, err := strconv.Atoi(raw)
	if err != nil {
		return 0, apierror.NewInvalidParamTypeError(name, "int")
	}
	return id, nil
}

func bind(c echo.Context, req any) apierror.ErrorResponse {
	if err := c.Bind(req); err != nil {
		return apierror.MalformedBodyError
	}
	return nil
}
