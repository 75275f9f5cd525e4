package access

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"strings"

	"github.com/terra-clan/academy-console/internal/models"
)

type contextKey string

const sessionContextKey contextKey = "academy_session"

// SessionFromContext extracts the gated session from context
func SessionFromContext(ctx context.Context) *models.Session {
	s, ok := ctx.Value(sessionContextKey).(*models.Session)
	if !ok {
		return nil
	}
	return s
}

// ContextWithSession adds a session to context
func ContextWithSession(ctx context.Context, s *models.Session) context.Context {
	return context.WithValue(ctx, sessionContextKey, s)
}

// Resolver maps a request to its session key and session source
type Resolver func(r *http.Request) (key string, src SessionSource)

// Middleware gates a route. Page requests are redirected (303) to the
// decision's target; API requests get a JSON 401/403 carrying the redirect.
func (g *Gate) Middleware(resolve Resolver, req Requirement) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			key, src := resolve(r)
			d := g.Check(r.Context(), key, src, req)
			if d.Allowed {
				next.ServeHTTP(w, r.WithContext(ContextWithSession(r.Context(), d.Session)))
				return
			}

			slog.Info("navigation denied",
				"path", r.URL.Path,
				"reason", d.Reason,
				"redirect", d.Redirect,
			)

			if wantsJSON(r) {
				status := http.StatusForbidden
				if d.Reason == ReasonNoToken {
					status = http.StatusUnauthorized
				}
				writeDenied(w, status, d)
				return
			}
			http.Redirect(w, r, d.Redirect, http.StatusSeeOther)
		})
	}
}

func wantsJSON(r *http.Request) bool {
	if strings.Contains(r.Header.Get("Accept"), "application/json") {
		return true
	}
	return r.Method != http.MethodGet && r.Method != http.MethodHead
}

func writeDenied(w http.ResponseWriter, status int, d Decision) {
	msg := ""
	if d.Notice != nil {
		msg = d.Notice.Message
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(map[string]interface{}{
		"data":    d,
		"message": msg,
	}); err != nil {
		slog.Error("failed to encode denial", "error", err)
	}
}
