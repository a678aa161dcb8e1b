package events

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/fossuok/qr-event-backend/internal/models"
)

const eventColumns = `id, title, COALESCE(description,''), COALESCE(location,''), start_time, end_time, COALESCE(image_url,''), is_active, created_at`

// Repository handles event persistence.
type Repository struct {
	pool *pgxpool.Pool
}

// NewRepository creates an event repository.
func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

func scanEvent(row pgx.Row) (*models.Event, error) {
	var e models.Event
	err := row.Scan(&e.ID, &e.Title, &e.Description, &e.Location,
		&e.StartTime, &e.EndTime, &e.ImageURL, &e.IsActive, &e.CreatedAt)
	if err != nil {
		return nil, err
	}
	return &e, nil
}

// ActiveEvent returns the active event, or nil if none is active.
// Lowest id wins if more than one row is ever active, so the pick stays
// deterministic even when the invariant has been violated upstream.
func (r *Repository) ActiveEvent(ctx context.Context) (*models.Event, error) {
	const q = `SELECT ` + eventColumns + ` FROM events WHERE is_active ORDER BY id LIMIT 1`
	e, err := scanEvent(r.pool.QueryRow(ctx, q))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	return e, err
}

// GetByID returns an event by id, or nil if it does not exist.
func (r *Repository) GetByID(ctx context.Context, id int64) (*models.Event, error) {
	const q = `SELECT ` + eventColumns + ` FROM events WHERE id = $1`
	e, err := scanEvent(r.pool.QueryRow(ctx, q, id))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	return e, err
}

// List returns all events, newest first.
func (r *Repository) List(ctx context.Context) ([]models.Event, error) {
	rows, err := r.pool.Query(ctx, `SELECT `+eventColumns+` FROM events ORDER BY created_at DESC, id DESC`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var list []models.Event
	for rows.Next() {
		var e models.Event
		if err := rows.Scan(&e.ID, &e.Title, &e.Description, &e.Location,
			&e.StartTime, &e.EndTime, &e.ImageURL, &e.IsActive, &e.CreatedAt); err != nil {
			return nil, err
		}
		list = append(list, e)
	}
	return list, rows.Err()
}

// Create inserts a new event and returns the stored row.
func (r *Repository) Create(ctx context.Context, e *models.Event) (*models.Event, error) {
	const q = `INSERT INTO events (title, description, location, start_time, end_time, image_url, is_active)
		VALUES ($1, NULLIF($2,''), NULLIF($3,''), $4, $5, NULLIF($6,''), $7)
		RETURNING ` + eventColumns
	return scanEvent(r.pool.QueryRow(ctx, q,
		e.Title, e.Description, e.Location, e.StartTime, e.EndTime, e.ImageURL, e.IsActive))
}

// Update overwrites an event's fields and returns the stored row, or nil
// if the event does not exist.
func (r *Repository) Update(ctx context.Context, id int64, e *models.Event) (*models.Event, error) {
	const q = `UPDATE events SET title = $2, description = NULLIF($3,''), location = NULLIF($4,''),
		start_time = $5, end_time = $6, is_active = $7
		WHERE id = $1
		RETURNING ` + eventColumns
	updated, err := scanEvent(r.pool.QueryRow(ctx, q,
		id, e.Title, e.Description, e.Location, e.StartTime, e.EndTime, e.IsActive))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	return updated, err
}

// DeactivateOthers clears is_active on every active row except exceptID.
// Pass 0 to deactivate all active rows.
func (r *Repository) DeactivateOthers(ctx context.Context, exceptID int64) error {
	_, err := r.pool.Exec(ctx, `UPDATE events SET is_active = FALSE WHERE is_active AND id <> $1`, exceptID)
	return err
}

// SetActive sets a single event's is_active flag. Returns the number of
// rows affected (0 when the event does not exist).
func (r *Repository) SetActive(ctx context.Context, id int64, active bool) (int64, error) {
	tag, err := r.pool.Exec(ctx, `UPDATE events SET is_active = $2 WHERE id = $1`, id, active)
	if err != nil {
		return 0, err
	}
	return tag.RowsAffected(), nil
}

// SetImageURL stores the banner image URL for an event.
func (r *Repository) SetImageURL(ctx context.Context, id int64, url string) (int64, error) {
	tag, err := r.pool.Exec(ctx, `UPDATE events SET image_url = $2 WHERE id = $1`, id, url)
	if err != nil {
		return 0, err
	}
	return tag.RowsAffected(), nil
}

// Delete removes an event by id and returns the number of rows affected.
func (r *Repository) Delete(ctx context.Context, id int64) (int64, error) {
	tag, err := r.pool.Exec(ctx, `DELETE FROM events WHERE id = $1`, id)
	if err != nil {
		return 0, err
	}
	return tag.RowsAffected(), nil
}
