package api

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/terra-clan/academy-console/internal/health"
	"github.com/terra-clan/academy-console/internal/models"
	"github.com/terra-clan/academy-console/internal/notify"
	"github.com/terra-clan/academy-console/pkg/client"
)

// Response helpers

// envelope mirrors the response shape of the academy API so the browser
// handles console and upstream responses alike
type envelope struct {
	Data       interface{}       `json:"data"`
	Message    string            `json:"message,omitempty"`
	Total      *int              `json:"total,omitempty"`
	Page       *int              `json:"page,omitempty"`
	PageSize   *int              `json:"pageSize,omitempty"`
	TotalPages *int              `json:"totalPages,omitempty"`
	Errors     map[string]string `json:"errors,omitempty"`
}

func writeEnvelope(w http.ResponseWriter, status int, env envelope) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)

	if err := json.NewEncoder(w).Encode(env); err != nil {
		slog.Error("failed to encode response", "error", err)
	}
}

func respondJSON(w http.ResponseWriter, status int, data interface{}) {
	writeEnvelope(w, status, envelope{Data: data})
}

func respondMessage(w http.ResponseWriter, status int, data interface{}, message string) {
	writeEnvelope(w, status, envelope{Data: data, Message: message})
}

func respondList(w http.ResponseWriter, items interface{}, page client.Page) {
	writeEnvelope(w, http.StatusOK, envelope{
		Data:       items,
		Total:      &page.Total,
		Page:       &page.Page,
		PageSize:   &page.PageSize,
		TotalPages: &page.TotalPages,
	})
}

func respondError(w http.ResponseWriter, status int, message string) {
	writeEnvelope(w, status, envelope{Message: message})
}

// respondBadRequest answers a decode or validation failure and queues a
// warning notice naming the offending fields
func (s *Server) respondBadRequest(w http.ResponseWriter, r *http.Request, err error) {
	var rerr *requestError
	if !errors.As(err, &rerr) {
		respondError(w, http.StatusBadRequest, err.Error())
		return
	}
	s.notify(r, notify.Warning(rerr.message, fieldList(rerr.fields)...))
	writeEnvelope(w, http.StatusBadRequest, envelope{Message: rerr.message, Errors: rerr.fields})
}

// respondUpstream reduces an academy API failure to one message: the
// server-provided one when present, fallback otherwise. A 401 means the
// token is no longer valid and ends the console session.
func (s *Server) respondUpstream(w http.ResponseWriter, r *http.Request, err error, fallback string) {
	msg := client.ErrorMessage(err, fallback)

	status := http.StatusBadGateway
	var apiErr *client.APIError
	switch {
	case errors.As(err, &apiErr) && apiErr.IsUnauthorized():
		status = http.StatusUnauthorized
		key := SessionKeyFromContext(r.Context())
		if clearErr := s.sessions.Clear(r.Context(), key); clearErr != nil {
			slog.Error("failed to clear rejected session", "error", clearErr)
		}
	case errors.As(err, &apiErr) && apiErr.Status >= 400 && apiErr.Status < 500:
		status = apiErr.Status
	case errors.Is(err, context.DeadlineExceeded):
		status = http.StatusGatewayTimeout
	}

	if status >= 500 {
		slog.Error("academy API call failed",
			"path", r.URL.Path,
			"error", err,
			"request_id", requestID(r),
		)
	}

	s.notify(r, notify.Error(msg))
	respondError(w, status, msg)
}

func (s *Server) notify(r *http.Request, n models.Notice) {
	if key := SessionKeyFromContext(r.Context()); key != "" {
		s.notices.Push(key, n)
	}
}

// Health handlers

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, map[string]string{
		"status": "healthy",
		"time":   time.Now().UTC().Format(time.RFC3339),
	})
}

func (s *Server) handleReady(w http.ResponseWriter, r *http.Request) {
	results := s.health.CheckAll(r.Context())

	checks := make(map[string]string, len(results))
	for name, err := range results {
		if err != nil {
			slog.Warn("readiness check failed", "check", name, "error", err)
			checks[name] = err.Error()
			continue
		}
		checks[name] = "ok"
	}

	if !health.Healthy(results) {
		respondMessage(w, http.StatusServiceUnavailable, checks, "service not ready")
		return
	}
	respondJSON(w, http.StatusOK, checks)
}

// Query helpers

func listOptions(r *http.Request) client.ListOptions {
	q := r.URL.Query()
	opts := client.ListOptions{
		Search:  q.Get("search"),
		Filters: make(map[string]string),
	}
	if page, err := strconv.Atoi(q.Get("page")); err == nil && page > 0 {
		opts.Page = page
	}
	if size, err := strconv.Atoi(q.Get("pageSize")); err == nil && size > 0 {
		opts.PageSize = size
	}
	for key := range q {
		switch key {
		case "page", "pageSize", "search":
		default:
			opts.Filters[key] = q.Get(key)
		}
	}
	return opts
}
