package cleanup

import (
	"context"
	"log/slog"
	"time"

	"github.com/terra-clan/academy-console/internal/storage"
)

// Pruner drops expired in-memory state, returning how much it removed
type Pruner interface {
	Prune() int
}

// Cleaner handles periodic removal of abandoned builder drafts and of
// notices nobody collected
type Cleaner struct {
	repo     storage.Repository
	notices  Pruner
	interval time.Duration
	ttl      time.Duration
	now      func() time.Time
}

// NewCleaner creates a new cleanup worker. Drafts untouched for longer than
// ttl are deleted every interval.
func NewCleaner(repo storage.Repository, interval, ttl time.Duration) *Cleaner {
	if interval <= 0 {
		interval = 5 * time.Minute
	}
	if ttl <= 0 {
		ttl = 24 * time.Hour
	}

	return &Cleaner{
		repo:     repo,
		interval: interval,
		ttl:      ttl,
		now:      time.Now,
	}
}

// WithNotices makes each cycle also prune expired notices
func (c *Cleaner) WithNotices(p Pruner) *Cleaner {
	c.notices = p
	return c
}

// Start begins the cleanup worker in a goroutine
func (c *Cleaner) Start(ctx context.Context) {
	go c.run(ctx)
}

// run is the main loop for the cleanup worker
func (c *Cleaner) run(ctx context.Context) {
	slog.Info("cleanup worker started", "interval", c.interval, "draft_ttl", c.ttl)

	ticker := time.NewTicker(c.interval)
	defer ticker.Stop()

	// Run immediately on start
	c.Cleanup(ctx)

	for {
		select {
		case <-ctx.Done():
			slog.Info("cleanup worker stopped")
			return
		case <-ticker.C:
			c.Cleanup(ctx)
		}
	}
}

// Cleanup runs one cycle and returns the number of drafts removed
func (c *Cleaner) Cleanup(ctx context.Context) int {
	slog.Debug("running cleanup cycle")

	if c.notices != nil {
		if n := c.notices.Prune(); n > 0 {
			slog.Debug("expired notices pruned", "count", n)
		}
	}

	idle, err := c.repo.GetIdleDrafts(ctx, c.now().Add(-c.ttl))
	if err != nil {
		slog.Error("failed to get idle drafts", "error", err)
		return 0
	}

	if len(idle) == 0 {
		slog.Debug("no idle drafts found")
		return 0
	}

	slog.Info("found idle drafts", "count", len(idle))

	removed := 0
	for _, d := range idle {
		if err := c.repo.DeleteDraft(ctx, d.ID); err != nil {
			slog.Error("failed to delete idle draft",
				"error", err,
				"id", d.ID,
			)
			continue
		}

		slog.Info("idle draft deleted",
			"id", d.ID,
			"mode", d.Mode,
			"updated_at", d.UpdatedAt,
		)
		removed++
	}
	return removed
}
