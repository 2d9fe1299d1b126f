package auth

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"estatehub/cmd/internal/domain/entity"
	cognitoclient "estatehub/cmd/internal/integration/aws/cognito"
	"estatehub/cmd/internal/utils/apierror"
	"github.com/labstack/echo/v4"
	"github.com/labstack/gommon/log"
)

type TokenVerifier interface {
	VerifyToken(ctx context.Context, accessToken string) (string, error)
}

type UserFinder interface {
	FindBySub(ctx context.Context, sub string) (*entity.User, error)
}

// Middleware verifies the bearer token, loads the matching user and stores
// the resulting Principal on the echo context and the request context.
func Middleware(verifier TokenVerifier, users UserFinder) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			token, ok := bearerToken(c.Request().Header.Get(echo.HeaderAuthorization))
			if !ok {
				return c.JSON(http.StatusUnauthorized, apierror.MissingAuthTokenError)
			}

			ctx := c.Request().Context()
			sub, err := verifier.VerifyToken(ctx, token)
			if err != nil {
				if !errors.Is(err, cognitoclient.ErrInvalidToken) {
					log.Errorf("failed to verify access token: %v", err)
					return c.JSON(http.StatusInternalServerError, apierror.InternalServerError)
				}
				return c.JSON(http.StatusUnauthorized, apierror.InvalidAuthTokenError)
			}

			user, err := users.FindBySub(ctx, sub)
			if err != nil {
				log.Errorf("failed to load user (%s) by sub: %v", sub, err)
				return c.JSON(http.StatusInternalServerError, apierror.InternalServerError)
			}
			if user == nil {
				return c.JSON(http.StatusUnauthorized, apierror.UnknownUserError)
			}

			p := &Principal{UserID: user.ID, Sub: sub, Role: user.Role}
			c.Set(principalKey, p)
			c.SetRequest(c.Request().WithContext(WithPrincipal(ctx, p)))
			return next(c)
		}
	}
}

// RequireRole rejects principals outside roles. It must run after Middleware.
func RequireRole(roles ...entity.Role) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			p, err := PrincipalFrom(c)
			if err != nil {
				return c.JSON(http.StatusUnauthorized, apierror.MissingAuthTokenError)
			}
			if !p.HasRole(roles...) {
				return c.JSON(http.StatusForbidden, apierror.ForbiddenError)
			}
			return next(c)
		}
	}
}

func bearerToken(header string) (string, bool) {
	scheme, token, ok := strings.Cut(strings.TrimSpace(header), " ")
	if !ok || !strings.EqualFold(scheme, "Bearer") {
		return "", false
	}
	token = strings.TrimSpace(token)
	return token, token != ""
}
