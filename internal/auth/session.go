package auth

import (
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

// CookieName is the session cookie name.
const CookieName = "session"

var ErrInvalidSession = errors.New("invalid session")

// SessionUser is the signed-in identity carried in the session cookie.
type SessionUser struct {
	GithubID  string `json:"github_id"`
	Name      string `json:"name"`
	Email     string `json:"email"`
	AvatarURL string `json:"avatar_url"`
	Role      string `json:"role"`
}

// Claims holds session claims.
type Claims struct {
	SessionUser
	jwt.RegisteredClaims
}

// SessionService signs and validates session tokens carried in an
// httponly cookie.
type SessionService struct {
	secret []byte
	maxAge time.Duration
}

// NewSessionService creates a session service.
func NewSessionService(secret string, maxAgeHours int) *SessionService {
	if maxAgeHours <= 0 {
		maxAgeHours = 24
	}
	return &SessionService{
		secret: []byte(secret),
		maxAge: time.Duration(maxAgeHours) * time.Hour,
	}
}

// MaxAge returns the session lifetime.
func (s *SessionService) MaxAge() time.Duration { return s.maxAge }

// Issue creates a signed session token for the user.
func (s *SessionService) Issue(u SessionUser) (string, error) {
	claims := Claims{
		SessionUser: u,
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(s.maxAge)),
			IssuedAt:  jwt.NewNumericDate(time.Now()),
			ID:        uuid.New().String(),
		},
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(s.secret)
}

// Decode parses and validates a session token, returning the signed-in
// user or ErrInvalidSession.
func (s *SessionService) Decode(tokenString string) (*SessionUser, error) {
	token, err := jwt.ParseWithClaims(tokenString, &Claims{}, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, ErrInvalidSession
		}
		return s.secret, nil
	})
	if err != nil {
		return nil, ErrInvalidSession
	}
	claims, ok := token.Claims.(*Claims)
	if !ok || !token.Valid {
		return nil, ErrInvalidSession
	}
	return &claims.SessionUser, nil
}
