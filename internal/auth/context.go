// Package auth carries the authenticated caller through the request
// context. Middleware writes, handlers read; the package depends only
// on domain so neither side imports the other.
package auth

import (
	"context"
	"net/http"

	"github.com/google/uuid"

	"github.com/tenagalabs/jejak/internal/domain"
)

type contextKey int

const userKey contextKey = iota

// SetUser returns a context carrying the authenticated user. The auth
// middleware calls this once the bearer token checks out.
func SetUser(ctx context.Context, user *domain.User) context.Context {
	return context.WithValue(ctx, userKey, user)
}

// GetUser returns the authenticated user, or nil for an anonymous
// request.
func GetUser(ctx context.Context) *domain.User {
	user, ok := ctx.Value(userKey).(*domain.User)
	if !ok {
		return nil
	}
	return user
}

// GetUserFromRequest is shorthand for GetUser(r.Context()).
func GetUserFromRequest(r *http.Request) *domain.User {
	return GetUser(r.Context())
}

// TenantID returns the caller's tenant, or uuid.Nil for an anonymous
// request. Most read handlers only need the tenant scope, not the
// whole user.
func TenantID(ctx context.Context) uuid.UUID {
	if user := GetUser(ctx); user != nil {
		return user.TenantID
	}
	return uuid.Nil
}
