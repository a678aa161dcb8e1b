package events

import (
	"context"
	"errors"

	"go.uber.org/zap"

	"github.com/fossuok/qr-event-backend/internal/models"
)

// Service-level errors. Store failures are logged with detail and
// surfaced as ErrStore so pgx error types never cross this boundary.
var (
	ErrTitleRequired = errors.New("event title is required")
	ErrNotFound      = errors.New("event not found")
	ErrStore         = errors.New("event store unavailable")
)

// Toggle status labels returned for caller feedback.
const (
	StatusActivated   = "activated"
	StatusDeactivated = "deactivated"
)

// Store is the record store surface the admin operations need.
type Store interface {
	GetByID(ctx context.Context, id int64) (*models.Event, error)
	List(ctx context.Context) ([]models.Event, error)
	Create(ctx context.Context, e *models.Event) (*models.Event, error)
	Update(ctx context.Context, id int64, e *models.Event) (*models.Event, error)
	DeactivateOthers(ctx context.Context, exceptID int64) error
	SetActive(ctx context.Context, id int64, active bool) (int64, error)
	SetImageURL(ctx context.Context, id int64, url string) (int64, error)
	Delete(ctx context.Context, id int64) (int64, error)
}

// Invalidator clears the active-event cache after a mutation.
type Invalidator interface {
	Invalidate()
}

// Service mutates events while preserving the single-active-event
// invariant and keeping the cache consistent. Every activate path issues
// and awaits the deactivate-others write before the activating write:
// two sequential non-transactional statements, which shrinks (but does
// not close) the window where a concurrent reader could see two active
// rows.
type Service struct {
	store  Store
	cache  Invalidator
	logger *zap.Logger
}

// NewService creates the event admin service.
func NewService(store Store, cache Invalidator, logger *zap.Logger) *Service {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Service{store: store, cache: cache, logger: logger}
}

// Get returns an event by id.
func (s *Service) Get(ctx context.Context, id int64) (*models.Event, error) {
	e, err := s.store.GetByID(ctx, id)
	if err != nil {
		s.logger.Error("get event", zap.Int64("event_id", id), zap.Error(err))
		return nil, ErrStore
	}
	if e == nil {
		return nil, ErrNotFound
	}
	return e, nil
}

// List returns all events, newest first.
func (s *Service) List(ctx context.Context) ([]models.Event, error) {
	list, err := s.store.List(ctx)
	if err != nil {
		s.logger.Error("list events", zap.Error(err))
		return nil, ErrStore
	}
	return list, nil
}

// Create validates and inserts a new event. If the event is created
// active, every currently active row is deactivated first.
func (s *Service) Create(ctx context.Context, e *models.Event) (*models.Event, error) {
	if e.Title == "" {
		return nil, ErrTitleRequired
	}
	if e.IsActive {
		if err := s.store.DeactivateOthers(ctx, 0); err != nil {
			s.logger.Error("deactivate active events", zap.Error(err))
			return nil, ErrStore
		}
	}
	created, err := s.store.Create(ctx, e)
	if err != nil {
		s.logger.Error("create event", zap.Error(err))
		return nil, ErrStore
	}
	s.cache.Invalidate()
	return created, nil
}

// Update validates and overwrites an event. If the update activates the
// event, all other active rows are deactivated first (the target is
// excluded from the deactivation predicate).
func (s *Service) Update(ctx context.Context, id int64, e *models.Event) (*models.Event, error) {
	if e.Title == "" {
		return nil, ErrTitleRequired
	}
	if e.IsActive {
		if err := s.store.DeactivateOthers(ctx, id); err != nil {
			s.logger.Error("deactivate other events", zap.Int64("event_id", id), zap.Error(err))
			return nil, ErrStore
		}
	}
	updated, err := s.store.Update(ctx, id, e)
	if err != nil {
		s.logger.Error("update event", zap.Int64("event_id", id), zap.Error(err))
		return nil, ErrStore
	}
	if updated == nil {
		return nil, ErrNotFound
	}
	s.cache.Invalidate()
	return updated, nil
}

// Toggle flips an event's active flag and returns the resulting status
// label. Flipping to active deactivates all other active rows first;
// flipping to inactive touches only the target row.
func (s *Service) Toggle(ctx context.Context, id int64) (string, error) {
	e, err := s.store.GetByID(ctx, id)
	if err != nil {
		s.logger.Error("toggle: get event", zap.Int64("event_id", id), zap.Error(err))
		return "", ErrStore
	}
	if e == nil {
		return "", ErrNotFound
	}

	next := !e.IsActive
	if next {
		if err := s.store.DeactivateOthers(ctx, id); err != nil {
			s.logger.Error("toggle: deactivate other events", zap.Int64("event_id", id), zap.Error(err))
			return "", ErrStore
		}
	}
	if _, err := s.store.SetActive(ctx, id, next); err != nil {
		s.logger.Error("toggle: set active", zap.Int64("event_id", id), zap.Error(err))
		return "", ErrStore
	}
	s.cache.Invalidate()
	if next {
		return StatusActivated, nil
	}
	return StatusDeactivated, nil
}

// SetImage stores the banner URL for an event and invalidates the cache
// so a cached active event picks up its new image.
func (s *Service) SetImage(ctx context.Context, id int64, url string) error {
	affected, err := s.store.SetImageURL(ctx, id, url)
	if err != nil {
		s.logger.Error("set event image", zap.Int64("event_id", id), zap.Error(err))
		return ErrStore
	}
	if affected == 0 {
		return ErrNotFound
	}
	s.cache.Invalidate()
	return nil
}

// Delete removes an event unconditionally. Dangling registered_event_id
// references on users are left as-is.
func (s *Service) Delete(ctx context.Context, id int64) error {
	affected, err := s.store.Delete(ctx, id)
	if err != nil {
		s.logger.Error("delete event", zap.Int64("event_id", id), zap.Error(err))
		return ErrStore
	}
	if affected == 0 {
		return ErrNotFound
	}
	s.cache.Invalidate()
	return nil
}
