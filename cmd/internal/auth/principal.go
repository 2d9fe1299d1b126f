// Package auth resolves the caller of a request into an explicit Principal
// that handlers pass to services.
package auth

import (
	"context"
	"errors"
	"slices"

	"estatehub/cmd/internal/domain/entity"
	"github.com/labstack/echo/v4"
)

var ErrNoPrincipal = errors.New("auth: request has no principal")

const principalKey = "principal"

type Principal struct {
	UserID int
	Sub    string
	Role   entity.Role
}

func (p *Principal) IsAdmin() bool {
	return p.Role == entity.RoleAdmin
}

func (p *Principal) IsAgent() bool {
	return p.Role == entity.RoleAgent
}

func (p *Principal) HasRole(roles ...entity.Role) bool {
	return slices.Contains(roles, p.Role)
}

// Owns reports whether the caller is userID or an admin.
func (p *Principal) Owns(userID int) bool {
	return p.UserID == userID || p.IsAdmin()
}

type ctxKey struct{}

func WithPrincipal(ctx context.Context, p *Principal) context.Context {
	return context.WithValue(ctx, ctxKey{}, p)
}

func FromContext(ctx context.Context) (*Principal, bool) {
	p, ok := ctx.Value(ctxKey{}).(*Principal)
	return p, ok
}

// PrincipalFrom returns the principal the middleware stored on c.
func PrincipalFrom(c echo.Context) (*Principal, error) {
	p, ok := c.Get(principalKey).(*Principal)
	if !ok || p == nil {
		return nil, ErrNoPrincipal
	}
	return p, nil
}
