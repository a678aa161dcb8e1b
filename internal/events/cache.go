package events

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"go.uber.org/zap"

	"github.com/fossuok/qr-event-backend/internal/models"
)

// ActiveEventSource fetches the current active event from the record
// store. A nil event with nil error means no event is active.
type ActiveEventSource interface {
	ActiveEvent(ctx context.Context) (*models.Event, error)
}

// cacheEntry is one cached fetch result. A nil event is itself a valid
// result ("confirmed no active event") and is cached like any other.
type cacheEntry struct {
	event     *models.Event
	fetchedAt time.Time
}

// Cache is a process-wide single-slot TTL cache for the active event.
//
// Fresh reads are lock-free; the refresh path is serialized on a mutex so
// N callers racing a cold cache issue exactly one store query. On a store
// failure the previous entry is served stale rather than discarded: a
// transient outage must not break the registration flow.
type Cache struct {
	source       ActiveEventSource
	ttl          time.Duration
	queryTimeout time.Duration
	logger       *zap.Logger

	entry     atomic.Pointer[cacheEntry]
	refreshMu sync.Mutex

	now func() time.Time
}

// NewCache creates an active-event cache. Construct it once at startup
// and inject it wherever the active event is read.
func NewCache(source ActiveEventSource, ttl, queryTimeout time.Duration, logger *zap.Logger) *Cache {
	if logger == nil {
		logger = zap.NewNop()
	}
	if ttl <= 0 {
		ttl = 5 * time.Minute
	}
	if queryTimeout <= 0 {
		queryTimeout = 5 * time.Second
	}
	return &Cache{
		source:       source,
		ttl:          ttl,
		queryTimeout: queryTimeout,
		logger:       logger,
		now:          time.Now,
	}
}

// ActiveEvent returns the current active event, or nil if none is
// active. It never returns an error: a failed refresh falls back to the
// previous entry (possibly stale), or nil when the cache has never been
// filled.
func (c *Cache) ActiveEvent(ctx context.Context) *models.Event {
	if e := c.entry.Load(); e != nil && c.now().Sub(e.fetchedAt) < c.ttl {
		return e.event
	}

	c.refreshMu.Lock()
	defer c.refreshMu.Unlock()

	// Another caller may have refreshed while this one waited on the lock.
	if e := c.entry.Load(); e != nil && c.now().Sub(e.fetchedAt) < c.ttl {
		return e.event
	}

	qctx, cancel := context.WithTimeout(ctx, c.queryTimeout)
	defer cancel()
	event, err := c.source.ActiveEvent(qctx)
	if err != nil {
		c.logger.Warn("active event refresh failed, serving previous value", zap.Error(err))
		if prev := c.entry.Load(); prev != nil {
			return prev.event
		}
		return nil
	}

	c.entry.Store(&cacheEntry{event: event, fetchedAt: c.now()})
	return event
}

// Invalidate clears the cached entry unconditionally. The next
// ActiveEvent call forces a fresh fetch. It deliberately skips the
// refresh lock: a race with an in-flight refresh resolves to one extra
// fetch at worst.
func (c *Cache) Invalidate() {
	c.entry.Store(nil)
}
