package routes

import (
	"context"
	"net/http"
	"time"

	"estatehub/cmd/internal/utils/apierror"
	"github.com/labstack/echo/v4"
	"github.com/labstack/gommon/log"
)

const healthTimeout = 2 * time.Second

// Check reports whether one dependency is reachable.
type Check func(ctx context.Context) error

type DefaultHealthRoute struct {
	Checks map[string]Check
}

func NewHealthDefault(checks map[string]Check) *DefaultHealthRoute {
	return &DefaultHealthRoute{Checks: checks}
}

func (h *DefaultHealthRoute) Health(c echo.Context) error {
	ctx, cancel := context.WithTimeout(c.Request().Context(), healthTimeout)
	defer cancel()

	checks := make(map[string]string, len(h.Checks))
	failed := map[string]string{}
	for name, check := range h.Checks {
		if err := check(ctx); err != nil {
			log.Warnf("health check %s failed: %v", name, err)
			failed[name] = "unreachable"
			continue
		}
		checks[name] = "ok"
	}

	if len(failed) > 0 {
		apierr := apierror.New(http.StatusServiceUnavailable, apierror.KindPersistence, "A dependency is unavailable")
		apierr.Fields = failed
		return fail(c, apierr)
	}
	return respond(c, http.StatusOK, echo.Map{"status": "ok", "checks": checks})
}
