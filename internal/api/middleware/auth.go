package middleware

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"github.com/edufam/edufam-backend/internal/api/response"
	"github.com/edufam/edufam-backend/internal/domain"
	"github.com/edufam/edufam-backend/internal/service"
	"github.com/rs/zerolog/hlog"
)

type contextKey string

const (
	UserKey contextKey = "user"
)

// Introspector resolves a bearer token to its live owner.
type Introspector interface {
	Introspect(ctx context.Context, accessToken string) (*domain.User, error)
}

// Authenticate requires a valid bearer token for an active user and stores
// the user in the request context.
func Authenticate(auth Introspector) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			raw, ok := BearerToken(r)
			if !ok {
				response.Fail(w, http.StatusUnauthorized, response.CodeMissingToken, "Authorization bearer token required")
				return
			}

			user, err := auth.Introspect(r.Context(), raw)
			switch {
			case err == nil:
			case errors.Is(err, service.ErrInvalidToken):
				response.Fail(w, http.StatusUnauthorized, response.CodeInvalidToken, "Invalid or expired token")
				return
			case errors.Is(err, service.ErrUserNotFound):
				response.Fail(w, http.StatusUnauthorized, response.CodeUserNotFound, "User not found")
				return
			default:
				hlog.FromRequest(r).Error().Err(err).Msg("authentication failed")
				response.ServerError(w)
				return
			}

			ctx := context.WithValue(r.Context(), UserKey, user)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// BearerToken extracts the token from an "Authorization: Bearer <token>" header.
func BearerToken(r *http.Request) (string, bool) {
	header := r.Header.Get("Authorization")
	if header == "" {
		return "", false
	}

	scheme, raw, found := strings.Cut(header, " ")
	if !found || !strings.EqualFold(scheme, "Bearer") {
		return "", false
	}
	raw = strings.TrimSpace(raw)
	return raw, raw != ""
}

// RequireUserType rejects users outside the given segment.
func RequireUserType(userType domain.UserType) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			user, ok := GetUser(r.Context())
			if !ok || user.UserType != userType {
				response.Fail(w, http.StatusForbidden, response.CodeForbidden, "Access denied")
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

// RequireRole rejects users whose role is not listed.
func RequireRole(roles ...domain.Role) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			user, ok := GetUser(r.Context())
			if ok {
				for _, role := range roles {
					if user.Role == role {
						next.ServeHTTP(w, r)
						return
					}
				}
			}
			response.Fail(w, http.StatusForbidden, response.CodeForbidden, "Access denied")
		})
	}
}

func GetUser(ctx context.Context) (*domain.User, bool) {
	user, ok := ctx.Value(UserKey).(*domain.User)
	return user, ok && user != nil
}
