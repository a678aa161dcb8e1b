package events

import (
	"context"
	"errors"
	"testing"

	"github.com/fossuok/qr-event-backend/internal/models"
)

type fakeStore struct {
	events map[int64]*models.Event
	nextID int64

	deactivateCalls []int64
	order           []string
	failCreate      bool
}

func newFakeStore(existing ...*models.Event) *fakeStore {
	f := &fakeStore{events: make(map[int64]*models.Event), nextID: 1}
	for _, e := range existing {
		f.events[e.ID] = e
		if e.ID >= f.nextID {
			f.nextID = e.ID + 1
		}
	}
	return f
}

func (f *fakeStore) GetByID(ctx context.Context, id int64) (*models.Event, error) {
	e, ok := f.events[id]
	if !ok {
		return nil, nil
	}
	cp := *e
	return &cp, nil
}

func (f *fakeStore) List(ctx context.Context) ([]models.Event, error) {
	var out []models.Event
	for _, e := range f.events {
		out = append(out, *e)
	}
	return out, nil
}

func (f *fakeStore) Create(ctx context.Context, e *models.Event) (*models.Event, error) {
	if f.failCreate {
		return nil, errors.New("insert failed")
	}
	f.order = append(f.order, "create")
	cp := *e
	cp.ID = f.nextID
	f.nextID++
	f.events[cp.ID] = &cp
	out := cp
	return &out, nil
}

func (f *fakeStore) Update(ctx context.Context, id int64, e *models.Event) (*models.Event, error) {
	f.order = append(f.order, "update")
	if _, ok := f.events[id]; !ok {
		return nil, nil
	}
	cp := *e
	cp.ID = id
	f.events[id] = &cp
	out := cp
	return &out, nil
}

func (f *fakeStore) DeactivateOthers(ctx context.Context, exceptID int64) error {
	f.order = append(f.order, "deactivate")
	f.deactivateCalls = append(f.deactivateCalls, exceptID)
	for id, e := range f.events {
		if id != exceptID {
			e.IsActive = false
		}
	}
	return nil
}

func (f *fakeStore) SetActive(ctx context.Context, id int64, active bool) (int64, error) {
	f.order = append(f.order, "setactive")
	e, ok := f.events[id]
	if !ok {
		return 0, nil
	}
	e.IsActive = active
	return 1, nil
}

func (f *fakeStore) SetImageURL(ctx context.Context, id int64, url string) (int64, error) {
	e, ok := f.events[id]
	if !ok {
		return 0, nil
	}
	e.ImageURL = url
	return 1, nil
}

func (f *fakeStore) Delete(ctx context.Context, id int64) (int64, error) {
	if _, ok := f.events[id]; !ok {
		return 0, nil
	}
	delete(f.events, id)
	return 1, nil
}

func (f *fakeStore) activeIDs() []int64 {
	var out []int64
	for id, e := range f.events {
		if e.IsActive {
			out = append(out, id)
		}
	}
	return out
}

type fakeInvalidator struct{ calls int }

func (f *fakeInvalidator) Invalidate() { f.calls++ }

func TestCreateActiveDeactivatesOthers(t *testing.T) {
	store := newFakeStore(&models.Event{ID: 1, Title: "Old", IsActive: true})
	inv := &fakeInvalidator{}
	svc := NewService(store, inv, nil)

	created, err := svc.Create(context.Background(), &models.Event{Title: "New", IsActive: true})
	if err != nil {
		t.Fatalf("Create: %v", err)
	}

	if active := store.activeIDs(); len(active) != 1 || active[0] != created.ID {
		t.Fatalf("active events after create = %v, want only %d", active, created.ID)
	}
	// The deactivation write must precede the activating insert.
	if len(store.order) < 2 || store.order[0] != "deactivate" || store.order[1] != "create" {
		t.Fatalf("write order = %v, want deactivate before create", store.order)
	}
	if inv.calls != 1 {
		t.Fatalf("cache invalidated %d times, want 1", inv.calls)
	}
}

func TestCreateInactiveSkipsDeactivation(t *testing.T) {
	store := newFakeStore(&models.Event{ID: 1, Title: "Current", IsActive: true})
	svc := NewService(store, &fakeInvalidator{}, nil)

	if _, err := svc.Create(context.Background(), &models.Event{Title: "Draft"}); err != nil {
		t.Fatalf("Create: %v", err)
	}
	if len(store.deactivateCalls) != 0 {
		t.Fatalf("deactivate called %d times for inactive create, want 0", len(store.deactivateCalls))
	}
	if active := store.activeIDs(); len(active) != 1 || active[0] != 1 {
		t.Fatalf("active events = %v, want [1] untouched", active)
	}
}

func TestCreateEmptyTitle(t *testing.T) {
	svc := NewService(newFakeStore(), &fakeInvalidator{}, nil)
	if _, err := svc.Create(context.Background(), &models.Event{}); !errors.Is(err, ErrTitleRequired) {
		t.Fatalf("Create with empty title = %v, want ErrTitleRequired", err)
	}
}

func TestCreateStoreFailure(t *testing.T) {
	store := newFakeStore()
	store.failCreate = true
	inv := &fakeInvalidator{}
	svc := NewService(store, inv, nil)

	if _, err := svc.Create(context.Background(), &models.Event{Title: "X"}); !errors.Is(err, ErrStore) {
		t.Fatalf("Create with failing store = %v, want ErrStore", err)
	}
	if inv.calls != 0 {
		t.Fatalf("cache invalidated on failed create")
	}
}

func TestUpdateActivatingExcludesTarget(t *testing.T) {
	store := newFakeStore(
		&models.Event{ID: 1, Title: "A", IsActive: true},
		&models.Event{ID: 2, Title: "B"},
	)
	svc := NewService(store, &fakeInvalidator{}, nil)

	if _, err := svc.Update(context.Background(), 2, &models.Event{Title: "B", IsActive: true}); err != nil {
		t.Fatalf("Update: %v", err)
	}
	if len(store.deactivateCalls) != 1 || store.deactivateCalls[0] != 2 {
		t.Fatalf("deactivate calls = %v, want [2]", store.deactivateCalls)
	}
	if active := store.activeIDs(); len(active) != 1 || active[0] != 2 {
		t.Fatalf("active events = %v, want [2]", active)
	}
}

func TestUpdateMissingEvent(t *testing.T) {
	svc := NewService(newFakeStore(), &fakeInvalidator{}, nil)
	if _, err := svc.Update(context.Background(), 99, &models.Event{Title: "X"}); !errors.Is(err, ErrNotFound) {
		t.Fatalf("Update missing = %v, want ErrNotFound", err)
	}
}

func TestToggle(t *testing.T) {
	store := newFakeStore(
		&models.Event{ID: 1, Title: "A", IsActive: true},
		&models.Event{ID: 2, Title: "B"},
	)
	inv := &fakeInvalidator{}
	svc := NewService(store, inv, nil)
	ctx := context.Background()

	status, err := svc.Toggle(ctx, 2)
	if err != nil {
		t.Fatalf("Toggle on: %v", err)
	}
	if status != StatusActivated {
		t.Fatalf("status = %q, want %q", status, StatusActivated)
	}
	if active := store.activeIDs(); len(active) != 1 || active[0] != 2 {
		t.Fatalf("active events = %v, want [2]", active)
	}

	status, err = svc.Toggle(ctx, 2)
	if err != nil {
		t.Fatalf("Toggle off: %v", err)
	}
	if status != StatusDeactivated {
		t.Fatalf("status = %q, want %q", status, StatusDeactivated)
	}
	if active := store.activeIDs(); len(active) != 0 {
		t.Fatalf("active events = %v, want none", active)
	}
	// Deactivating must not touch other rows.
	if n := len(store.deactivateCalls); n != 1 {
		t.Fatalf("deactivate calls = %d, want 1 (activation only)", n)
	}
	if inv.calls != 2 {
		t.Fatalf("cache invalidated %d times, want 2", inv.calls)
	}

	if _, err := svc.Toggle(ctx, 99); !errors.Is(err, ErrNotFound) {
		t.Fatalf("Toggle missing = %v, want ErrNotFound", err)
	}
}

func TestDeleteInvalidatesCache(t *testing.T) {
	store := newFakeStore(&models.Event{ID: 1, Title: "A"})
	inv := &fakeInvalidator{}
	svc := NewService(store, inv, nil)

	if err := svc.Delete(context.Background(), 1); err != nil {
		t.Fatalf("Delete: %v", err)
	}
	if inv.calls != 1 {
		t.Fatalf("cache invalidated %d times, want 1", inv.calls)
	}
	if err := svc.Delete(context.Background(), 1); !errors.Is(err, ErrNotFound) {
		t.Fatalf("second Delete = %v, want ErrNotFound", err)
	}
}
