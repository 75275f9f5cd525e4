package api

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/terra-clan/academy-console/internal/builder"
	"github.com/terra-clan/academy-console/internal/models"
	"github.com/terra-clan/academy-console/internal/storage"
	"github.com/terra-clan/academy-console/pkg/client"
)

type openDraftRequest struct {
	Mode       models.EditorMode `json:"mode" validate:"omitempty,oneof=create edit"`
	TemplateID int64             `json:"templateId" validate:"required_if=Mode edit,gte=0"`
	Preset     string            `json:"preset" validate:"max=200"`
}

// Template handlers

func (s *Server) handleListTemplates(w http.ResponseWriter, r *http.Request) {
	list, err := s.builder.Refresh(r.Context())
	if err != nil {
		s.respondUpstream(w, r, err, "Failed to load templates")
		return
	}
	respondList(w, list, client.Page{Total: len(list), Page: 1, PageSize: len(list), TotalPages: 1})
}

func (s *Server) handleDeleteTemplate(w http.ResponseWriter, r *http.Request) {
	id, err := parseID(chi.URLParam(r, "id"))
	if err != nil {
		s.respondBadRequest(w, r, err)
		return
	}

	if err := s.builder.Delete(r.Context(), SessionKeyFromContext(r.Context()), id); err != nil {
		// Delete already queued the error notice
		status := http.StatusBadGateway
		var apiErr *client.APIError
		if errors.As(err, &apiErr) && apiErr.Status >= 400 && apiErr.Status < 500 {
			status = apiErr.Status
		}
		respondError(w, status, client.ErrorMessage(err, "Failed to delete template"))
		return
	}

	respondMessage(w, http.StatusOK, nil, "template deleted")
}

func (s *Server) handleListPresets(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, s.presets.List())
}

// Builder draft handlers

func (s *Server) handleListDrafts(w http.ResponseWriter, r *http.Request) {
	drafts, err := s.builder.Drafts(r.Context(), SessionKeyFromContext(r.Context()))
	if err != nil {
		slog.Error("failed to list drafts", "error", err)
		respondError(w, http.StatusInternalServerError, "failed to list drafts")
		return
	}
	if drafts == nil {
		drafts = []*models.Draft{}
	}
	respondJSON(w, http.StatusOK, drafts)
}

func (s *Server) handleOpenDraft(w http.ResponseWriter, r *http.Request) {
	var req openDraftRequest
	if err := decodeJSON(r, &req); err != nil {
		s.respondBadRequest(w, r, err)
		return
	}

	ctx := r.Context()
	key := SessionKeyFromContext(ctx)

	var (
		d   *models.Draft
		err error
	)
	switch {
	case req.Mode == models.ModeEdit:
		d, err = s.builder.OpenEdit(ctx, key, req.TemplateID)
	case req.Preset != "":
		preset := s.presets.Get(req.Preset)
		if preset == nil {
			respondError(w, http.StatusNotFound, "preset not found")
			return
		}
		base := preset.Template.Clone()
		d, err = s.builder.OpenCreate(ctx, key, &base)
	default:
		d, err = s.builder.OpenCreate(ctx, key, nil)
	}

	if err != nil {
		if errors.Is(err, builder.ErrTemplateNotFound) {
			respondError(w, http.StatusNotFound, "template not found")
			return
		}
		var apiErr *client.APIError
		if errors.As(err, &apiErr) {
			s.respondUpstream(w, r, err, "Failed to load templates")
			return
		}
		slog.Error("failed to open draft", "error", err)
		respondError(w, http.StatusInternalServerError, "failed to open draft")
		return
	}

	respondJSON(w, http.StatusCreated, d)
}

func (s *Server) handleGetDraft(w http.ResponseWriter, r *http.Request) {
	d, err := s.builder.Get(r.Context(), SessionKeyFromContext(r.Context()), chi.URLParam(r, "draftID"))
	if err != nil {
		s.respondDraftError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, d)
}

func (s *Server) handleDraftAction(w http.ResponseWriter, r *http.Request) {
	var action builder.Action
	if err := decodeJSON(r, &action); err != nil {
		s.respondBadRequest(w, r, err)
		return
	}

	d, err := s.builder.Dispatch(r.Context(), SessionKeyFromContext(r.Context()), chi.URLParam(r, "draftID"), action)
	if err != nil {
		s.respondDraftError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, d)
}

func (s *Server) handleSubmitDraft(w http.ResponseWriter, r *http.Request) {
	d, err := s.builder.Submit(r.Context(), SessionKeyFromContext(r.Context()), chi.URLParam(r, "draftID"))
	if err == nil {
		respondMessage(w, http.StatusOK, d, "template saved")
		return
	}

	var verr *builder.ValidationError
	if errors.As(err, &verr) {
		fields := make(map[string]string, len(verr.Fields))
		for _, f := range verr.Fields {
			fields[f.Field] = f.Error
		}
		writeEnvelope(w, http.StatusUnprocessableEntity, envelope{Data: d, Message: verr.Error(), Errors: fields})
		return
	}

	var apiErr *client.APIError
	isAPIErr := errors.As(err, &apiErr)
	if isAPIErr && apiErr.IsUnauthorized() {
		s.respondUpstream(w, r, err, "Failed to save template")
		return
	}
	if d != nil && d.State == models.EditorOpen && d.LastError != "" {
		// the service reopened the draft and queued the error notice
		status := http.StatusBadGateway
		if isAPIErr && apiErr.Status >= 400 && apiErr.Status < 500 {
			status = apiErr.Status
		}
		writeEnvelope(w, status, envelope{Data: d, Message: d.LastError})
		return
	}

	s.respondDraftError(w, r, err)
}

func (s *Server) handleCancelDraft(w http.ResponseWriter, r *http.Request) {
	d, err := s.builder.Cancel(r.Context(), SessionKeyFromContext(r.Context()), chi.URLParam(r, "draftID"))
	if err != nil {
		s.respondDraftError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, d)
}

// respondDraftError maps builder errors to HTTP statuses
func (s *Server) respondDraftError(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case errors.Is(err, storage.ErrDraftNotFound):
		respondError(w, http.StatusNotFound, "draft not found")
	case errors.Is(err, builder.ErrNotOpen):
		respondError(w, http.StatusConflict, err.Error())
	case errors.Is(err, builder.ErrTypeLocked):
		respondError(w, http.StatusConflict, err.Error())
	case errors.Is(err, builder.ErrIndexOutOfRange),
		errors.Is(err, builder.ErrUnknownAction),
		errors.Is(err, models.ErrUnknownTemplateType),
		errors.Is(err, builder.ErrUnsupportedAction):
		respondError(w, http.StatusBadRequest, err.Error())
	default:
		var apiErr *client.APIError
		if errors.As(err, &apiErr) {
			s.respondUpstream(w, r, err, "Failed to save template")
			return
		}
		slog.Error("builder operation failed", "error", err, "request_id", requestID(r))
		respondError(w, http.StatusInternalServerError, "builder operation failed")
	}
}
