package middleware

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/kmbui/kmbui-backend/internal/model"
	"github.com/kmbui/kmbui-backend/internal/store"
)

// AuditAdmin returns a middleware that records one usage-log row per
// administrator action, after the handler runs, carrying the final
// response status. Writes are best-effort: a failed audit insert is
// logged and the response already sent stands. It must run inside
// RequireAdmin so the admin identity is on the context.
func AuditAdmin(st *store.Store, logger *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ww := &responseWriter{ResponseWriter: w, status: http.StatusOK}
			next.ServeHTTP(ww, r)

			admin := GetAdmin(r.Context())
			if admin == nil {
				return
			}

			log := &model.UsageLog{
				AdminUsername: &admin.Username,
				Endpoint:      r.Method + " " + r.URL.Path,
				Status:        ww.status,
			}
			// The request context may already be cancelled once the
			// response is written; use a fresh one for the audit row.
			if err := st.InsertUsageLog(context.WithoutCancel(r.Context()), log); err != nil {
				logger.Warn("usage log write failed", "error", err, "endpoint", log.Endpoint)
			}
		})
	}
}
