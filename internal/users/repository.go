package users

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/fossuok/qr-event-backend/internal/models"
)

const userColumns = `github_id, name, COALESCE(email,''), COALESCE(avatar_url,''), role, qr_code_data, registered_event_id, attended_at, created_at, updated_at`

// Repository handles user persistence.
type Repository struct {
	pool *pgxpool.Pool
}

// NewRepository creates a user repository.
func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

func scanUser(row pgx.Row) (*models.User, error) {
	var u models.User
	err := row.Scan(&u.GithubID, &u.Name, &u.Email, &u.AvatarURL, &u.Role,
		&u.QRCodeData, &u.RegisteredEventID, &u.AttendedAt, &u.CreatedAt, &u.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return &u, nil
}

// GetByGithubID returns a user by provider id, or nil if none exists.
func (r *Repository) GetByGithubID(ctx context.Context, githubID string) (*models.User, error) {
	const q = `SELECT ` + userColumns + ` FROM users WHERE github_id = $1`
	u, err := scanUser(r.pool.QueryRow(ctx, q, githubID))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	return u, err
}

// GetByQRCode returns a user by QR token, or nil if none exists.
func (r *Repository) GetByQRCode(ctx context.Context, token string) (*models.User, error) {
	const q = `SELECT ` + userColumns + ` FROM users WHERE qr_code_data = $1`
	u, err := scanUser(r.pool.QueryRow(ctx, q, token))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	return u, err
}

// Create inserts a new user and returns the stored row.
func (r *Repository) Create(ctx context.Context, u *models.User) (*models.User, error) {
	const q = `INSERT INTO users (github_id, name, email, avatar_url, role, qr_code_data, registered_event_id)
		VALUES ($1, $2, NULLIF($3,''), NULLIF($4,''), $5, $6, $7)
		RETURNING ` + userColumns
	return scanUser(r.pool.QueryRow(ctx, q,
		u.GithubID, u.Name, u.Email, u.AvatarURL, string(u.Role), u.QRCodeData, u.RegisteredEventID))
}

// UpdateProfile refreshes name and avatar for a user.
func (r *Repository) UpdateProfile(ctx context.Context, githubID, name, avatarURL string) error {
	const q = `UPDATE users SET name = $2, avatar_url = NULLIF($3,''), updated_at = now() WHERE github_id = $1`
	_, err := r.pool.Exec(ctx, q, githubID, name, avatarURL)
	return err
}

// SetRegisteredEvent re-stamps the user's registered event.
func (r *Repository) SetRegisteredEvent(ctx context.Context, githubID string, eventID *int64) error {
	const q = `UPDATE users SET registered_event_id = $2, updated_at = now() WHERE github_id = $1`
	_, err := r.pool.Exec(ctx, q, githubID, eventID)
	return err
}

// MarkAttended sets attended_at for the user with the given QR token.
// The IS NULL guard keeps the transition monotonic: a timestamp is set
// once and never overwritten.
func (r *Repository) MarkAttended(ctx context.Context, token string, at time.Time) (int64, error) {
	const q = `UPDATE users SET attended_at = $2, updated_at = now() WHERE qr_code_data = $1 AND attended_at IS NULL`
	tag, err := r.pool.Exec(ctx, q, token, at)
	if err != nil {
		return 0, err
	}
	return tag.RowsAffected(), nil
}

// CountRegistered returns the total number of users.
func (r *Repository) CountRegistered(ctx context.Context) (int, error) {
	var n int
	err := r.pool.QueryRow(ctx, `SELECT COUNT(*) FROM users`).Scan(&n)
	return n, err
}

// CountAttended returns the number of checked-in users.
func (r *Repository) CountAttended(ctx context.Context) (int, error) {
	var n int
	err := r.pool.QueryRow(ctx, `SELECT COUNT(*) FROM users WHERE attended_at IS NOT NULL`).Scan(&n)
	return n, err
}

// ListParticipants returns participant users ordered by name.
func (r *Repository) ListParticipants(ctx context.Context) ([]models.User, error) {
	return r.list(ctx, `SELECT `+userColumns+` FROM users WHERE role = 'participant' ORDER BY name`)
}

// ListAll returns every user, admins first, newest first within role.
func (r *Repository) ListAll(ctx context.Context) ([]models.User, error) {
	return r.list(ctx, `SELECT `+userColumns+` FROM users ORDER BY role, created_at DESC`)
}

func (r *Repository) list(ctx context.Context, q string) ([]models.User, error) {
	rows, err := r.pool.Query(ctx, q)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var list []models.User
	for rows.Next() {
		var u models.User
		if err := rows.Scan(&u.GithubID, &u.Name, &u.Email, &u.AvatarURL, &u.Role,
			&u.QRCodeData, &u.RegisteredEventID, &u.AttendedAt, &u.CreatedAt, &u.UpdatedAt); err != nil {
			return nil, err
		}
		list = append(list, u)
	}
	return list, rows.Err()
}

// SetRole changes a user's role and returns the number of rows affected.
func (r *Repository) SetRole(ctx context.Context, githubID string, role models.Role) (int64, error) {
	tag, err := r.pool.Exec(ctx, `UPDATE users SET role = $2, updated_at = now() WHERE github_id = $1`, githubID, string(role))
	if err != nil {
		return 0, err
	}
	return tag.RowsAffected(), nil
}

// Delete removes a user and returns the number of rows affected.
func (r *Repository) Delete(ctx context.Context, githubID string) (int64, error) {
	tag, err := r.pool.Exec(ctx, `DELETE FROM users WHERE github_id = $1`, githubID)
	if err != nil {
		return 0, err
	}
	return tag.RowsAffected(), nil
}
