package routes

import (
	"context"
	"net/http"
	"strings"

	"estatehub/cmd/internal/auth"
	"estatehub/cmd/internal/service"
	"estatehub/cmd/internal/utils/apierror"
	"github.com/labstack/echo/v4"
)

type UserService interface {
	GetUsers(ctx context.Context, caller *auth.Principal) ([]*service.UserResponse, apierror.ErrorResponse)
	GetUser(ctx context.Context, rawId string, caller *auth.Principal) (*service.UserResponse, apierror.ErrorResponse)
	CreateUser(ctx context.Context, req *service.CreateUserRequest) apierror.ErrorResponse
	Login(ctx context.Context, req *service.UserLoginRequest) (*service.UserLoginResponse, apierror.ErrorResponse)
	ConfirmSignup(ctx context.Context, req *service.ConfirmSignupRequest) apierror.ErrorResponse
	UpdateRole(ctx context.Context, caller *auth.Principal, id int, req *service.UpdateRoleRequest) (*service.UserResponse, apierror.ErrorResponse)
}

type DefaultUserRoute struct {
	UserService UserService
}

func NewUserDefault(userService UserService) *DefaultUserRoute {
	return &DefaultUserRoute{UserService: userService}
}

func (u *DefaultUserRoute) GetUsers(c echo.Context) error {
	caller, apierr := principal(c)
	if apierr != nil {
		return fail(c, apierr)
	}

	users, apierr := u.UserService.GetUsers(c.Request().Context(), caller)
	if apierr != nil {
		return fail(c, apierr)
	}
	return respond(c, http.StatusOK, echo.Map{"users": users})
}

func (u *DefaultUserRoute) GetUser(c echo.Context) error {
	rawId := strings.TrimSpace(c.Param("id"))
	if rawId == "" {
		return fail(c, apierror.NewMissingParamError("id"))
	}

	caller, apierr := principal(c)
	if apierr != nil {
		return fail(c, apierr)
	}

	user, apierr := u.UserService.GetUser(c.Request().Context(), rawId, caller)
	if apierr != nil {
		return fail(c, apierr)
	}
	return respond(c, http.StatusOK, user)
}

func (u *DefaultUserRoute) CreateUser(c echo.Context) error {
	var req service.CreateUserRequest
	if apierr := bind(c, &req); apierr != nil {
		return fail(c, apierr)
	}

	if apierr := u.UserService.CreateUser(c.Request().Context(), &req); apierr != nil {
		return fail(c, apierr)
	}
	return respond(c, http.StatusCreated, nil)
}

func (u *DefaultUserRoute) CreateLogin(c echo.Context) error {
	var req service.UserLoginRequest
	if apierr := bind(c, &req); apierr != nil {
		return fail(c, apierr)
	}

	resp, apierr := u.UserService.Login(c.Request().Context(), &req)
	if apierr != nil {
		return fail(c, apierr)
	}
	return respond(c, http.StatusOK, resp)
}

func (u *DefaultUserRoute) VerifySignup(c echo.Context) error {
	var req service.ConfirmSignupRequest
	if apierr := bind(c, &req); apierr != nil {
		return fail(c, apierr)
	}

	if apierr := u.UserService.ConfirmSignup(c.Request().Context(), &req); apierr != nil {
		return fail(c, apierr)
	}
	return respond(c, http.StatusOK, nil)
}

func (u *DefaultUserRoute) UpdateRole(c echo.Context) error {
	id, apierr := intParam(c, "id")
	if apierr != nil {
		return fail(c, apierr)
	}
	caller, apierr := principal(c)
	if apierr != nil {
		return fail(c, apierr)
	}

	var req service.UpdateRoleRequest
	if apierr := bind(c, &req); apierr != nil {
		return fail(c, apierr)
	}

	user, apierr := u.UserService.UpdateRole(c.Request().Context(), caller, id, &req)
	if apierr != nil {
		return fail(c, apierr)
	}
	return respond(c, http.StatusOK, user)
}
