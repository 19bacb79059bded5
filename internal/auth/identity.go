package auth

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"storefront-be/internal/apperror"
)

type Role string

const (
	RoleUser  Role = "user"
	RoleAdmin Role = "admin"
)

// Identity is what the Auth Gate hands to the engines.
type Identity struct {
	UserID string `json:"userId"`
	Role   Role   `json:"role"`
}

func (i Identity) IsAdmin() bool {
	return i.Role == RoleAdmin
}

var (
	ErrMissingCredential = apperror.New(apperror.Unauthorized, "access denied, no token provided")
	ErrInvalidCredential = apperror.New(apperror.Forbidden, "invalid token")
)

// Resolver turns a raw bearer credential into an Identity.
type Resolver interface {
	ResolveIdentity(credential string) (Identity, error)
}

// ExtractCredential reads the bearer token from the Authorization header,
// falling back to the access_token cookie.
func ExtractCredential(r *http.Request) string {
	authHeader := r.Header.Get("Authorization")
	if strings.HasPrefix(authHeader, "Bearer ") {
		return strings.TrimSpace(strings.TrimPrefix(authHeader, "Bearer "))
	}

	if cookie, err := r.Cookie("access_token"); err == nil && cookie.Value != "" {
		return cookie.Value
	}

	return ""
}

type ctxKey struct{}

func WithIdentity(ctx context.Context, id Identity) context.Context {
	return context.WithValue(ctx, ctxKey{}, id)
}

func IdentityFrom(ctx context.Context) (Identity, bool) {
	id, ok := ctx.Value(ctxKey{}).(Identity)
	return id, ok && id.UserID != ""
}

// MustIdentity is for handlers mounted behind RequireIdentity.
func MustIdentity(ctx context.Context) (Identity, error) {
	id, ok := IdentityFrom(ctx)
	if !ok {
		return Identity{}, ErrMissingCredential
	}
	return id, nil
}

// IsAuthError reports whether err came from the Auth Gate.
func IsAuthError(err error) bool {
	return errors.Is(err, apperror.Unauthorized) || errors.Is(err, apperror.Forbidden)
}
