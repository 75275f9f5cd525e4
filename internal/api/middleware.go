package api

import (
	"net/http"

	"github.com/go-chi/chi/v5/middleware"
	"github.com/google/uuid"

	"github.com/terra-clan/academy-console/internal/access"
	"github.com/terra-clan/academy-console/pkg/client"
)

// SessionCookieName names the cookie identifying a browser session
const SessionCookieName = "academy_sid"

// sessionMiddleware ties every request to a browser session key, issuing
// a fresh key when the cookie is missing or malformed
func (s *Server) sessionMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		key := ""
		if c, err := r.Cookie(SessionCookieName); err == nil {
			if _, err := uuid.Parse(c.Value); err == nil {
				key = c.Value
			}
		}

		if key == "" {
			key = uuid.New().String()
			http.SetCookie(w, &http.Cookie{
				Name:     SessionCookieName,
				Value:    key,
				Path:     "/",
				HttpOnly: true,
				Secure:   s.config.SecureCookies,
				SameSite: http.SameSiteLaxMode,
			})
		}

		next.ServeHTTP(w, r.WithContext(ContextWithSessionKey(r.Context(), key)))
	})
}

// resolveSession maps a request to its session provider for the gate
func (s *Server) resolveSession(r *http.Request) (string, access.SessionSource) {
	key := SessionKeyFromContext(r.Context())
	return key, s.sessions.Provider(key)
}

// gated runs the access gate and, once it passes, attaches the session's
// bearer token to the request context for academy API calls
func (s *Server) gated(req access.Requirement) func(http.Handler) http.Handler {
	gate := s.gate.Middleware(s.resolveSession, req)
	return func(next http.Handler) http.Handler {
		withToken := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx := r.Context()
			if sess := access.SessionFromContext(ctx); sess != nil {
				ctx = client.ContextWithToken(ctx, sess.Token)
			}
			next.ServeHTTP(w, r.WithContext(ctx))
		})
		return gate(withToken)
	}
}

// gatedScreen applies the requirement registered for a console screen
func (s *Server) gatedScreen(path string) func(http.Handler) http.Handler {
	screen, ok := access.FindScreen(path)
	if !ok {
		panic("api: no screen registered for " + path)
	}
	return s.gated(screen.Requirement())
}

func requestID(r *http.Request) string {
	return middleware.GetReqID(r.Context())
}
