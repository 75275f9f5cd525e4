package notify

import (
	"sync"
	"time"

	"github.com/terra-clan/academy-console/internal/models"
)

// DefaultTTL is how long a notice stays visible when no TTL is configured
const DefaultTTL = 4 * time.Second

// Notifier accepts transient notices for a session
type Notifier interface {
	Push(key string, n models.Notice)
}

// Center queues auto-dismissing notices per session key and fans them out
// to live subscribers.
type Center struct {
	mu          sync.Mutex
	ttl         time.Duration
	now         func() time.Time
	queues      map[string][]models.Notice
	subscribers map[string]map[int]func(models.Notice)
	nextID      int
}

// NewCenter creates a notice center
func NewCenter(ttl time.Duration) *Center {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	return &Center{
		ttl:         ttl,
		now:         time.Now,
		queues:      make(map[string][]models.Notice),
		subscribers: make(map[string]map[int]func(models.Notice)),
	}
}

// Push queues a notice, stamping its creation and expiry times
func (c *Center) Push(key string, n models.Notice) {
	c.mu.Lock()
	now := c.now()
	if n.CreatedAt.IsZero() {
		n.CreatedAt = now
	}
	if n.ExpiresAt.IsZero() {
		n.ExpiresAt = n.CreatedAt.Add(c.ttl)
	}
	c.queues[key] = append(c.pruned(key, now), n)

	subs := make([]func(models.Notice), 0, len(c.subscribers[key]))
	for _, fn := range c.subscribers[key] {
		subs = append(subs, fn)
	}
	c.mu.Unlock()

	for _, fn := range subs {
		fn(n)
	}
}

// Drain returns the unexpired notices of a session and clears its queue
func (c *Center) Drain(key string) []models.Notice {
	c.mu.Lock()
	defer c.mu.Unlock()

	notices := c.pruned(key, c.now())
	delete(c.queues, key)
	return notices
}

// Prune drops expired notices of every session and forgets sessions with
// nothing left to show. It returns the number of notices removed.
func (c *Center) Prune() int {
	c.mu.Lock()
	defer c.mu.Unlock()

	now := c.now()
	removed := 0
	for key, queue := range c.queues {
		live := c.pruned(key, now)
		removed += len(queue) - len(live)
		if len(live) == 0 {
			delete(c.queues, key)
			continue
		}
		c.queues[key] = live
	}
	return removed
}

// Subscribe registers fn for every notice pushed to key. The returned
// function removes the subscription.
func (c *Center) Subscribe(key string, fn func(models.Notice)) func() {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.nextID++
	id := c.nextID
	if c.subscribers[key] == nil {
		c.subscribers[key] = make(map[int]func(models.Notice))
	}
	c.subscribers[key][id] = fn

	return func() {
		c.mu.Lock()
		defer c.mu.Unlock()
		delete(c.subscribers[key], id)
		if len(c.subscribers[key]) == 0 {
			delete(c.subscribers, key)
		}
	}
}

// pruned drops expired notices; callers hold mu
func (c *Center) pruned(key string, now time.Time) []models.Notice {
	var live []models.Notice
	for _, n := range c.queues[key] {
		if !n.IsExpired(now) {
			live = append(live, n)
		}
	}
	return live
}

// Helpers

func Warning(msg string, fields ...string) models.Notice {
	return models.Notice{Level: models.NoticeWarning, Message: msg, Fields: fields}
}

func Error(msg string) models.Notice {
	return models.Notice{Level: models.NoticeError, Message: msg}
}

func Success(msg string) models.Notice {
	return models.Notice{Level: models.NoticeSuccess, Message: msg}
}
