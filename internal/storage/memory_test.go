package storage

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/terra-clan/academy-console/internal/models"
)

func TestMemoryRepositoryRoundTrip(t *testing.T) {
	ctx := context.Background()
	repo := NewMemoryRepository()

	now := time.Now().UTC()
	d := &models.Draft{
		ID:         "d1",
		SessionKey: "s1",
		Mode:       models.ModeCreate,
		State:      models.EditorOpen,
		Template: models.Template{
			Name:     "Midterm",
			Sections: []models.Section{{SectionOrder: 1, Title: "Discipline"}},
		},
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := repo.SaveDraft(ctx, d); err != nil {
		t.Fatalf("SaveDraft failed: %v", err)
	}

	// the stored copy must not alias the caller's tree
	d.Template.Sections[0].Title = "changed"

	got, err := repo.GetDraft(ctx, "d1")
	if err != nil {
		t.Fatalf("GetDraft failed: %v", err)
	}
	if got.Template.Sections[0].Title != "Discipline" {
		t.Errorf("expected stored title 'Discipline', got %q", got.Template.Sections[0].Title)
	}

	list, err := repo.ListDrafts(ctx, "s1")
	if err != nil || len(list) != 1 {
		t.Fatalf("ListDrafts = %d drafts, err %v", len(list), err)
	}
	if other, _ := repo.ListDrafts(ctx, "s2"); len(other) != 0 {
		t.Errorf("expected no drafts for another session, got %d", len(other))
	}

	idle, _ := repo.GetIdleDrafts(ctx, now.Add(time.Minute))
	if len(idle) != 1 {
		t.Errorf("expected 1 idle draft, got %d", len(idle))
	}
	idle, _ = repo.GetIdleDrafts(ctx, now.Add(-time.Minute))
	if len(idle) != 0 {
		t.Errorf("expected 0 idle drafts, got %d", len(idle))
	}

	if err := repo.DeleteDraft(ctx, "d1"); err != nil {
		t.Fatalf("DeleteDraft failed: %v", err)
	}
	if _, err := repo.GetDraft(ctx, "d1"); !errors.Is(err, ErrDraftNotFound) {
		t.Errorf("expected ErrDraftNotFound, got %v", err)
	}
	if err := repo.DeleteDraft(ctx, "d1"); !errors.Is(err, ErrDraftNotFound) {
		t.Errorf("expected ErrDraftNotFound on second delete, got %v", err)
	}
}

func TestMemoryRepositoryTransitionState(t *testing.T) {
	ctx := context.Background()
	repo := NewMemoryRepository()

	d := &models.Draft{ID: "d1", SessionKey: "s1", State: models.EditorOpen}
	if err := repo.SaveDraft(ctx, d); err != nil {
		t.Fatalf("SaveDraft failed: %v", err)
	}

	if err := repo.TransitionState(ctx, "d1", models.EditorOpen, models.EditorSaving); err != nil {
		t.Fatalf("first transition failed: %v", err)
	}
	if err := repo.TransitionState(ctx, "d1", models.EditorOpen, models.EditorSaving); !errors.Is(err, ErrStateConflict) {
		t.Errorf("expected ErrStateConflict on second transition, got %v", err)
	}

	got, _ := repo.GetDraft(ctx, "d1")
	if got.State != models.EditorSaving {
		t.Errorf("expected state saving, got %s", got.State)
	}

	if err := repo.TransitionState(ctx, "missing", models.EditorOpen, models.EditorSaving); !errors.Is(err, ErrDraftNotFound) {
		t.Errorf("expected ErrDraftNotFound, got %v", err)
	}
}
