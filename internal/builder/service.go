package builder

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/terra-clan/academy-console/internal/models"
	"github.com/terra-clan/academy-console/internal/notify"
	"github.com/terra-clan/academy-console/internal/storage"
	"github.com/terra-clan/academy-console/pkg/client"
)

// ErrTemplateNotFound is returned when a template id is unknown to the API
var ErrTemplateNotFound = errors.New("template not found")

const saveFallbackMessage = "Failed to save template"

// TemplateAPI is the subset of the academy API the builder talks to
type TemplateAPI interface {
	ListTemplates(ctx context.Context) ([]models.Template, error)
	CreateTemplate(ctx context.Context, t models.Template) (*models.Template, error)
	UpdateTemplate(ctx context.Context, id int64, t models.Template) (*models.Template, error)
	DeleteTemplate(ctx context.Context, id int64) error
}

// Service runs builder drafts for console sessions.
// Drafts live in the repository while the editor is open; a closed draft
// is removed.
type Service struct {
	repo     storage.Repository
	api      TemplateAPI
	notifier notify.Notifier
	catalog  *Catalog
}

// NewService creates a builder service. notifier may be nil.
func NewService(repo storage.Repository, api TemplateAPI, notifier notify.Notifier) *Service {
	return &Service{
		repo:     repo,
		api:      api,
		notifier: notifier,
		catalog:  NewCatalog(),
	}
}

// Catalog returns the saved-template list maintained by the service
func (s *Service) Catalog() *Catalog {
	return s.catalog
}

// Refresh reloads the template list from the API
func (s *Service) Refresh(ctx context.Context) ([]models.Template, error) {
	list, err := s.api.ListTemplates(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list templates: %w", err)
	}
	s.catalog.Replace(list)
	return s.catalog.List(), nil
}

// OpenCreate opens a create draft, optionally pre-filled from base
func (s *Service) OpenCreate(ctx context.Context, key string, base *models.Template) (*models.Draft, error) {
	d := OpenCreate(key, base)
	if err := s.repo.SaveDraft(ctx, d); err != nil {
		return nil, fmt.Errorf("failed to save draft: %w", err)
	}

	slog.Info("builder opened",
		"draft_id", d.ID,
		"mode", d.Mode,
		"type", d.Template.TemplateType,
	)
	return d, nil
}

// OpenEdit opens an edit draft over the saved template id
func (s *Service) OpenEdit(ctx context.Context, key string, id int64) (*models.Draft, error) {
	saved, ok := s.catalog.Get(id)
	if !ok {
		if _, err := s.Refresh(ctx); err != nil {
			return nil, err
		}
		if saved, ok = s.catalog.Get(id); !ok {
			return nil, ErrTemplateNotFound
		}
	}

	d, err := OpenEdit(key, saved)
	if err != nil {
		return nil, err
	}
	if err := s.repo.SaveDraft(ctx, d); err != nil {
		return nil, fmt.Errorf("failed to save draft: %w", err)
	}

	slog.Info("builder opened",
		"draft_id", d.ID,
		"mode", d.Mode,
		"template_id", id,
	)
	return d, nil
}

// Get returns a draft owned by the session key
func (s *Service) Get(ctx context.Context, key, draftID string) (*models.Draft, error) {
	d, err := s.repo.GetDraft(ctx, draftID)
	if err != nil {
		return nil, err
	}
	if d.SessionKey != key {
		return nil, storage.ErrDraftNotFound
	}
	return d, nil
}

// Drafts lists the open drafts of a session
func (s *Service) Drafts(ctx context.Context, key string) ([]*models.Draft, error) {
	return s.repo.ListDrafts(ctx, key)
}

// Dispatch applies one action to a draft
func (s *Service) Dispatch(ctx context.Context, key, draftID string, action Action) (*models.Draft, error) {
	d, err := s.Get(ctx, key, draftID)
	if err != nil {
		return nil, err
	}
	if err := Dispatch(d, action); err != nil {
		return d, err
	}
	if err := s.repo.SaveDraft(ctx, d); err != nil {
		return nil, fmt.Errorf("failed to save draft: %w", err)
	}
	return d, nil
}

// Submit validates and sends a draft to the API.
// Validation failures leave the draft open and push a warning. API failures
// reopen the draft with the server's message. Success closes the draft and
// updates the catalog with the server's object. Only one submit of a draft
// can be in flight; a second one gets ErrNotOpen.
func (s *Service) Submit(ctx context.Context, key, draftID string) (*models.Draft, error) {
	d, err := s.Get(ctx, key, draftID)
	if err != nil {
		return nil, err
	}

	payload, err := BeginSave(d)
	if err != nil {
		var verr *ValidationError
		if errors.As(err, &verr) {
			s.notify(key, notify.Warning(verr.Error(), verr.FieldNames()...))
		}
		return d, err
	}
	if err := s.repo.TransitionState(ctx, draftID, models.EditorOpen, models.EditorSaving); err != nil {
		if errors.Is(err, storage.ErrStateConflict) {
			return nil, ErrNotOpen
		}
		return nil, fmt.Errorf("failed to start save: %w", err)
	}

	var saved *models.Template
	var saveErr error
	if payload.ID != nil {
		saved, saveErr = s.api.UpdateTemplate(ctx, *payload.ID, payload)
	} else {
		saved, saveErr = s.api.CreateTemplate(ctx, payload)
	}

	if saveErr == nil && saved != nil {
		s.catalog.Upsert(*saved)
	}

	// The draft must leave Saving even when the caller is gone
	bg := context.WithoutCancel(ctx)

	current, err := s.repo.GetDraft(bg, draftID)
	if errors.Is(err, storage.ErrDraftNotFound) || (err == nil && current.State != models.EditorSaving) {
		slog.Info("dropping save result for closed draft",
			"draft_id", draftID,
			"error", saveErr,
		)
		return d, saveErr
	}
	if err != nil {
		return nil, fmt.Errorf("failed to reload draft: %w", err)
	}

	if saveErr != nil {
		msg := client.ErrorMessage(saveErr, saveFallbackMessage)
		FinishSave(current, nil, saveErr)
		current.LastError = msg
		if err := s.repo.SaveDraft(bg, current); err != nil {
			return nil, fmt.Errorf("failed to save draft: %w", err)
		}

		slog.Warn("template save failed",
			"draft_id", draftID,
			"error", saveErr,
		)
		s.notify(key, notify.Error(msg))
		return current, saveErr
	}

	FinishSave(current, saved, nil)
	if err := s.repo.DeleteDraft(bg, draftID); err != nil && !errors.Is(err, storage.ErrDraftNotFound) {
		slog.Error("failed to delete closed draft", "draft_id", draftID, "error", err)
	}

	var templateID int64
	if current.Template.ID != nil {
		templateID = *current.Template.ID
	}
	slog.Info("template saved",
		"draft_id", draftID,
		"template_id", templateID,
	)
	s.notify(key, notify.Success("Template saved"))
	return current, nil
}

// Cancel discards a draft and closes its editor
func (s *Service) Cancel(ctx context.Context, key, draftID string) (*models.Draft, error) {
	d, err := s.Get(ctx, key, draftID)
	if err != nil {
		return nil, err
	}
	Cancel(d)
	if err := s.repo.DeleteDraft(ctx, draftID); err != nil && !errors.Is(err, storage.ErrDraftNotFound) {
		return nil, fmt.Errorf("failed to delete draft: %w", err)
	}
	return d, nil
}

// Delete removes a saved template from the API and the catalog
func (s *Service) Delete(ctx context.Context, key string, id int64) error {
	if err := s.api.DeleteTemplate(ctx, id); err != nil {
		s.notify(key, notify.Error(client.ErrorMessage(err, "Failed to delete template")))
		return err
	}
	s.catalog.Remove(id)
	s.notify(key, notify.Success("Template deleted"))
	return nil
}

func (s *Service) notify(key string, n models.Notice) {
	if s.notifier != nil && key != "" {
		s.notifier.Push(key, n)
	}
}
