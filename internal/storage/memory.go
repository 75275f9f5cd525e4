package storage

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/terra-clan/academy-console/internal/models"
)

// MemoryRepository keeps drafts in process memory
type MemoryRepository struct {
	mu     sync.RWMutex
	drafts map[string]*models.Draft
}

// NewMemoryRepository creates an empty in-memory repository
func NewMemoryRepository() *MemoryRepository {
	return &MemoryRepository{
		drafts: make(map[string]*models.Draft),
	}
}

func copyDraft(d *models.Draft) *models.Draft {
	c := *d
	c.Template = d.Template.Clone()
	if d.Snapshot != nil {
		s := d.Snapshot.Clone()
		c.Snapshot = &s
	}
	return &c
}

// SaveDraft inserts or replaces a draft
func (r *MemoryRepository) SaveDraft(ctx context.Context, d *models.Draft) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.drafts[d.ID] = copyDraft(d)
	return nil
}

// GetDraft returns a copy of the draft
func (r *MemoryRepository) GetDraft(ctx context.Context, id string) (*models.Draft, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	d, ok := r.drafts[id]
	if !ok {
		return nil, ErrDraftNotFound
	}
	return copyDraft(d), nil
}

// TransitionState changes the draft's state if it is still from
func (r *MemoryRepository) TransitionState(ctx context.Context, id string, from, to models.EditorState) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	d, ok := r.drafts[id]
	if !ok {
		return ErrDraftNotFound
	}
	if d.State != from {
		return ErrStateConflict
	}
	d.State = to
	d.UpdatedAt = time.Now().UTC()
	return nil
}

// DeleteDraft removes a draft
func (r *MemoryRepository) DeleteDraft(ctx context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.drafts[id]; !ok {
		return ErrDraftNotFound
	}
	delete(r.drafts, id)
	return nil
}

// ListDrafts returns the drafts of a session, oldest first
func (r *MemoryRepository) ListDrafts(ctx context.Context, sessionKey string) ([]*models.Draft, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var result []*models.Draft
	for _, d := range r.drafts {
		if d.SessionKey == sessionKey {
			result = append(result, copyDraft(d))
		}
	}
	sort.Slice(result, func(i, j int) bool {
		return result[i].CreatedAt.Before(result[j].CreatedAt)
	})
	return result, nil
}

// GetIdleDrafts returns drafts not updated since before
func (r *MemoryRepository) GetIdleDrafts(ctx context.Context, before time.Time) ([]*models.Draft, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var result []*models.Draft
	for _, d := range r.drafts {
		if d.UpdatedAt.Before(before) {
			result = append(result, copyDraft(d))
		}
	}
	return result, nil
}

func (r *MemoryRepository) Ping(ctx context.Context) error {
	return nil
}

func (r *MemoryRepository) Close() error {
	return nil
}
