package api

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"

	"github.com/terra-clan/academy-console/internal/access"
	"github.com/terra-clan/academy-console/internal/builder"
	"github.com/terra-clan/academy-console/internal/config"
	"github.com/terra-clan/academy-console/internal/health"
	"github.com/terra-clan/academy-console/internal/notify"
	"github.com/terra-clan/academy-console/internal/session"
	"github.com/terra-clan/academy-console/internal/templates"
	"github.com/terra-clan/academy-console/pkg/client"
)

// Deps are the collaborators the console server routes to
type Deps struct {
	Sessions *session.Manager
	Tokens   *session.TokenDecoder
	Gate     *access.Gate
	Notices  *notify.Center
	Builder  *builder.Service
	Presets  *templates.Loader
	Academy  *client.Client
	Health   *health.Registry
}

// Server represents the console HTTP server
type Server struct {
	config   config.ServerConfig
	router   *chi.Mux
	sessions *session.Manager
	tokens   *session.TokenDecoder
	gate     *access.Gate
	notices  *notify.Center
	builder  *builder.Service
	presets  *templates.Loader
	academy  *client.Client
	health   *health.Registry
}

// NewServer creates a new console server
func NewServer(cfg config.ServerConfig, deps Deps) *Server {
	s := &Server{
		config:   cfg,
		sessions: deps.Sessions,
		tokens:   deps.Tokens,
		gate:     deps.Gate,
		notices:  deps.Notices,
		builder:  deps.Builder,
		presets:  deps.Presets,
		academy:  deps.Academy,
		health:   deps.Health,
	}
	if s.tokens == nil {
		s.tokens = session.NewTokenDecoder("")
	}
	if s.presets == nil {
		s.presets = templates.NewLoader()
	}
	if s.health == nil {
		s.health = health.NewRegistry(0)
	}
	s.setupRouter()
	return s
}

// Router returns the configured router
func (s *Server) Router() http.Handler {
	return s.router
}

// setupRouter configures all routes and middleware
func (s *Server) setupRouter() {
	r := chi.NewRouter()

	// Middleware stack
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(s.loggingMiddleware)
	r.Use(middleware.Recoverer)

	origins := s.config.AllowedOrigins
	if len(origins) == 0 {
		origins = []string{"*"}
	}
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   origins,
		AllowedMethods:   []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", "X-Request-ID"},
		ExposedHeaders:   []string{"X-Request-ID", "Content-Disposition"},
		AllowCredentials: true,
		MaxAge:           300,
	}))

	// Health check (public, no session)
	r.Get("/health", s.handleHealth)
	r.Get("/ready", s.handleReady)

	r.Group(func(r chi.Router) {
		r.Use(s.sessionMiddleware)

		// Session signal stream; long-lived, so outside the timeout
		r.Get("/ws/session", s.handleSessionEvents)

		r.Group(func(r chi.Router) {
			r.Use(middleware.Timeout(60 * time.Second))

			r.Get("/notices", s.handleDrainNotices)

			r.Route("/auth", func(r chi.Router) {
				r.Post("/login", s.handleLogin)
				r.Post("/register", s.handleRegister)
				r.Post("/logout", s.handleLogout)

				r.Group(func(r chi.Router) {
					r.Use(s.gated(access.Requirement{ProfileOptional: true}))
					r.Get("/me", s.handleMe)
					r.Put("/profile", s.handleUpdateProfile)
				})
			})

			r.Route("/screens", func(r chi.Router) {
				r.With(s.gated(access.Requirement{ProfileOptional: true})).Get("/", s.handleListScreens)
				r.Get("/*", s.handleCheckScreen)
			})

			r.Route("/console", s.consoleRoutes)
		})
	})

	s.router = r
}

// consoleRoutes mounts the gated console API. Each group carries the
// requirement of the screen it serves.
func (s *Server) consoleRoutes(r chi.Router) {
	r.Group(func(r chi.Router) {
		r.Use(s.gatedScreen("/evaluation-templates"))

		r.Get("/templates", s.handleListTemplates)
		r.Delete("/templates/{id}", s.handleDeleteTemplate)
		r.Get("/presets", s.handleListPresets)

		r.Route("/builder/drafts", func(r chi.Router) {
			r.Get("/", s.handleListDrafts)
			r.Post("/", s.handleOpenDraft)
			r.Route("/{draftID}", func(r chi.Router) {
				r.Get("/", s.handleGetDraft)
				r.Post("/actions", s.handleDraftAction)
				r.Post("/submit", s.handleSubmitDraft)
				r.Post("/cancel", s.handleCancelDraft)
			})
		})
	})

	r.Route("/users", func(r chi.Router) {
		r.Use(s.gatedScreen("/users"))
		r.Get("/", s.handleListUsers)
		r.Post("/", s.handleCreateUser)
		r.Route("/{id}", func(r chi.Router) {
			r.Get("/", s.handleGetUser)
			r.Put("/", s.handleUpdateUser)
			r.Patch("/activate", s.handleActivateUser)
			r.Patch("/deactivate", s.handleDeactivateUser)
			r.Post("/avatar", s.handleUploadAvatar)
		})
	})

	r.Route("/student-evaluations", func(r chi.Router) {
		r.Use(s.gatedScreen("/student-evaluations"))
		r.Get("/", s.handleListStudentEvaluations)
		r.Delete("/{id}", s.handleDeleteStudentEvaluation)
	})

	r.Route("/evaluations", func(r chi.Router) {
		r.Use(s.gatedScreen("/evaluations"))
		r.Get("/", s.handleListEvaluations)
		r.Post("/import", s.handleImportEvaluations)
		r.Get("/template", s.handleDownloadEvaluationTemplate)
	})

	r.Route("/soldier-intake", func(r chi.Router) {
		r.Use(s.gatedScreen("/soldier-intake"))
		r.Get("/", s.handleListIntakes)
		r.Get("/summary", s.handleIntakeSummary)
		r.Get("/status", s.handleIntakeStatus)
		r.Patch("/status", s.handleSetIntakeStatus)
	})

	r.With(s.gatedScreen("/tasks")).Get("/tasks", listResource(s, s.academy.Tasks, "Failed to load tasks"))
	r.With(s.gatedScreen("/notifications")).Get("/notifications", listResource(s, s.academy.Notifications, "Failed to load notifications"))
	r.With(s.gatedScreen("/leaves")).Get("/leaves", listResource(s, s.academy.Leaves, "Failed to load leaves"))
	r.With(s.gatedScreen("/training-reports")).Get("/training-reports", listResource(s, s.academy.TrainingReports, "Failed to load training reports"))
}

// loggingMiddleware logs HTTP requests using slog
func (s *Server) loggingMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)

		defer func() {
			slog.Info("http request",
				"method", r.Method,
				"path", r.URL.Path,
				"status", ww.Status(),
				"bytes", ww.BytesWritten(),
				"duration_ms", time.Since(start).Milliseconds(),
				"request_id", middleware.GetReqID(r.Context()),
				"remote_addr", r.RemoteAddr,
			)
		}()

		next.ServeHTTP(ww, r)
	})
}
