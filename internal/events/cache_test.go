package events

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/fossuok/qr-event-backend/internal/models"
)

type fakeSource struct {
	mu    sync.Mutex
	calls int
	event *models.Event
	err   error
}

func (f *fakeSource) ActiveEvent(ctx context.Context) (*models.Event, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls++
	return f.event, f.err
}

func (f *fakeSource) callCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls
}

func newTestCache(src *fakeSource, ttl time.Duration) (*Cache, *time.Time) {
	c := NewCache(src, ttl, time.Second, nil)
	clock := time.Unix(1000, 0)
	c.now = func() time.Time { return clock }
	return c, &clock
}

func TestCacheServesFreshWithoutRefetch(t *testing.T) {
	src := &fakeSource{event: &models.Event{ID: 7, Title: "GopherCon", IsActive: true}}
	c, clock := newTestCache(src, 300*time.Second)
	ctx := context.Background()

	got := c.ActiveEvent(ctx)
	if got == nil || got.ID != 7 {
		t.Fatalf("first read = %+v, want event 7", got)
	}

	// Inside the freshness window nothing hits the store.
	*clock = clock.Add(100 * time.Second)
	for i := 0; i < 5; i++ {
		if got := c.ActiveEvent(ctx); got == nil || got.ID != 7 {
			t.Fatalf("read %d = %+v, want event 7", i, got)
		}
	}
	if n := src.callCount(); n != 1 {
		t.Fatalf("store queried %d times within TTL, want 1", n)
	}

	// One tick past the window forces exactly one refetch.
	*clock = clock.Add(201 * time.Second)
	c.ActiveEvent(ctx)
	if n := src.callCount(); n != 2 {
		t.Fatalf("store queried %d times after expiry, want 2", n)
	}
}

func TestCacheCachesNilResult(t *testing.T) {
	src := &fakeSource{event: nil}
	c, _ := newTestCache(src, 300*time.Second)
	ctx := context.Background()

	if got := c.ActiveEvent(ctx); got != nil {
		t.Fatalf("ActiveEvent = %+v, want nil", got)
	}
	if got := c.ActiveEvent(ctx); got != nil {
		t.Fatalf("second ActiveEvent = %+v, want nil", got)
	}
	// "No active event" is a cached answer, not a miss.
	if n := src.callCount(); n != 1 {
		t.Fatalf("store queried %d times, want 1", n)
	}
}

func TestCacheInvalidateForcesRefetch(t *testing.T) {
	src := &fakeSource{event: &models.Event{ID: 1, Title: "Old"}}
	c, _ := newTestCache(src, 300*time.Second)
	ctx := context.Background()

	c.ActiveEvent(ctx)
	src.mu.Lock()
	src.event = &models.Event{ID: 2, Title: "New"}
	src.mu.Unlock()

	// Without invalidation the stale entry would still be served.
	if got := c.ActiveEvent(ctx); got.ID != 1 {
		t.Fatalf("pre-invalidate read = event %d, want 1", got.ID)
	}

	c.Invalidate()
	if got := c.ActiveEvent(ctx); got == nil || got.ID != 2 {
		t.Fatalf("post-invalidate read = %+v, want event 2", got)
	}
	if n := src.callCount(); n != 2 {
		t.Fatalf("store queried %d times, want 2", n)
	}
}

func TestCacheStaleFallbackOnStoreError(t *testing.T) {
	src := &fakeSource{event: &models.Event{ID: 3, Title: "Meetup"}}
	c, clock := newTestCache(src, 300*time.Second)
	ctx := context.Background()

	c.ActiveEvent(ctx)

	src.mu.Lock()
	src.err = errors.New("connection refused")
	src.mu.Unlock()
	*clock = clock.Add(301 * time.Second)

	// Expired entry plus failing store serves the previous value.
	if got := c.ActiveEvent(ctx); got == nil || got.ID != 3 {
		t.Fatalf("stale fallback = %+v, want event 3", got)
	}

	// Never-filled cache with a failing store yields nil.
	cold, _ := newTestCache(&fakeSource{err: errors.New("down")}, 300*time.Second)
	if got := cold.ActiveEvent(ctx); got != nil {
		t.Fatalf("cold cache with failing store = %+v, want nil", got)
	}
}

func TestCacheConcurrentColdReadsSingleQuery(t *testing.T) {
	src := &fakeSource{event: &models.Event{ID: 9, Title: "Hackathon"}}
	c, _ := newTestCache(src, 300*time.Second)
	ctx := context.Background()

	const readers = 32
	var wg sync.WaitGroup
	wg.Add(readers)
	start := make(chan struct{})
	for i := 0; i < readers; i++ {
		go func() {
			defer wg.Done()
			<-start
			if got := c.ActiveEvent(ctx); got == nil || got.ID != 9 {
				t.Errorf("concurrent read = %+v, want event 9", got)
			}
		}()
	}
	close(start)
	wg.Wait()

	if n := src.callCount(); n != 1 {
		t.Fatalf("store queried %d times by %d concurrent cold readers, want 1", n, readers)
	}
}
