package middleware

import (
	"context"
	"errors"
	"net/http"

	"github.com/kmbui/kmbui-backend/internal/model"
	"github.com/kmbui/kmbui-backend/internal/service"
	"github.com/kmbui/kmbui-backend/internal/store"
)

type contextKeyAuth string

// AdminKey is the context key for the authenticated administrator.
const AdminKey contextKeyAuth = "admin_user"

// RequireAdmin returns an HTTP middleware that authenticates the request
// via `Authorization: Basic <base64(user:pass)>` against the admin store.
// Missing, malformed, and wrong credentials all produce the same 401 body
// so the caller cannot tell which part was rejected. A store
// inconsistency (more than one admin row) is a 500: a data-integrity bug,
// not a caller mistake. On success the admin is attached to the request
// context.
func RequireAdmin(authSvc *service.AuthService) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			admin, err := authSvc.Authenticate(r.Context(), r.Header.Get("Authorization"))
			if err != nil {
				if errors.Is(err, store.ErrInconsistent) {
					writeAuthError(w, http.StatusInternalServerError, "Internal error")
					return
				}
				if errors.Is(err, service.ErrMalformedCredentials) || errors.Is(err, service.ErrInvalidCredentials) {
					writeAuthError(w, http.StatusUnauthorized, "Invalid credentials")
					return
				}
				writeAuthError(w, http.StatusInternalServerError, "Internal error")
				return
			}

			ctx := context.WithValue(r.Context(), AdminKey, admin)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// GetAdmin extracts the authenticated administrator from the context.
// Returns nil if the request did not pass RequireAdmin.
func GetAdmin(ctx context.Context) *model.AdminUser {
	if a, ok := ctx.Value(AdminKey).(*model.AdminUser); ok {
		return a
	}
	return nil
}

func writeAuthError(w http.ResponseWriter, status int, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	// Manually construct JSON to avoid an import cycle with the handler package.
	w.Write([]byte(`{"error":{"code":` + httpStatusString(status) + `,"message":"` + message + `"}}`))
}

func httpStatusString(code int) string {
	switch code {
	case 401:
		return "401"
	default:
		return "500"
	}
}
