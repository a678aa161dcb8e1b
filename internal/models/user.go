package models

import "time"

// Role is a user role.
type Role string

const (
	RoleParticipant Role = "participant"
	RoleAdmin       Role = "admin"
)

// User is a registered participant or admin. GithubID is the external
// provider subject; QRCodeData is the public-facing scan token, unique
// and immutable once assigned.
type User struct {
	GithubID          string     `json:"github_id"`
	Name              string     `json:"name"`
	Email             string     `json:"email,omitempty"`
	AvatarURL         string     `json:"avatar_url,omitempty"`
	Role              Role       `json:"role"`
	QRCodeData        string     `json:"qr_code_data"`
	RegisteredEventID *int64     `json:"registered_event_id,omitempty"`
	AttendedAt        *time.Time `json:"attended_at,omitempty"`
	CreatedAt         time.Time  `json:"created_at"`
	UpdatedAt         time.Time  `json:"updated_at"`
}

// ScanView is the user shape returned to QR verification callers. ID is
// the QR token, not the provider id.
type ScanView struct {
	ID         string     `json:"id"`
	Name       string     `json:"name"`
	Email      string     `json:"email,omitempty"`
	AttendedAt *time.Time `json:"attended_at,omitempty"`
}

// ToScanView returns the verification response shape for the user.
func (u *User) ToScanView() ScanView {
	return ScanView{
		ID:         u.QRCodeData,
		Name:       u.Name,
		Email:      u.Email,
		AttendedAt: u.AttendedAt,
	}
}
