package storage

import (
	"context"
	"errors"
	"time"

	"github.com/terra-clan/academy-console/internal/models"
)

// ErrDraftNotFound is returned when a draft does not exist
var ErrDraftNotFound = errors.New("draft not found")

// ErrStateConflict is returned when a draft is not in the expected state
var ErrStateConflict = errors.New("draft state changed")

// Repository defines the interface for builder draft persistence
type Repository interface {
	SaveDraft(ctx context.Context, d *models.Draft) error
	GetDraft(ctx context.Context, id string) (*models.Draft, error)
	DeleteDraft(ctx context.Context, id string) error
	// TransitionState moves a draft from one editor state to another only
	// if it is still in from; otherwise it returns ErrStateConflict.
	TransitionState(ctx context.Context, id string, from, to models.EditorState) error
	ListDrafts(ctx context.Context, sessionKey string) ([]*models.Draft, error)
	GetIdleDrafts(ctx context.Context, before time.Time) ([]*models.Draft, error)

	// Health
	Ping(ctx context.Context) error
	Close() error
}
