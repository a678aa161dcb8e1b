package users

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/fossuok/qr-event-backend/internal/models"
	"github.com/fossuok/qr-event-backend/internal/qr"
	"github.com/fossuok/qr-event-backend/pkg/async"
	"github.com/fossuok/qr-event-backend/pkg/queue"
)

var (
	// ErrUserNotFound means no user matches the scanned QR token.
	ErrUserNotFound = errors.New("user not found")
	// ErrStore is returned when the record store fails on a path with no
	// sane fallback (user lookup or creation).
	ErrStore = errors.New("user store unavailable")
)

// Store is the record store surface the registration flow needs.
type Store interface {
	GetByGithubID(ctx context.Context, githubID string) (*models.User, error)
	GetByQRCode(ctx context.Context, token string) (*models.User, error)
	Create(ctx context.Context, u *models.User) (*models.User, error)
	UpdateProfile(ctx context.Context, githubID, name, avatarURL string) error
	SetRegisteredEvent(ctx context.Context, githubID string, eventID *int64) error
	MarkAttended(ctx context.Context, token string, at time.Time) (int64, error)
}

// ActiveEventProvider serves the current active event (nil when none).
type ActiveEventProvider interface {
	ActiveEvent(ctx context.Context) *models.Event
}

// Renderer produces the QR image artifact for delivery.
type Renderer interface {
	DataURL(ctx context.Context, data string) (string, error)
}

// MailQueue enqueues QR delivery emails.
type MailQueue interface {
	EnqueueQRCodeEmail(ctx context.Context, payload queue.QRCodeEmailPayload) error
}

// CheckinFeed broadcasts first-time check-ins to connected dashboards.
type CheckinFeed interface {
	BroadcastCheckin(u models.ScanView)
}

// Identity is the external-provider view of a logging-in user.
type Identity struct {
	GithubID  string
	Name      string
	Email     string
	AvatarURL string
}

// RegistrationResult is the outcome of an auto-registration.
type RegistrationResult struct {
	User      *models.User
	QRDataURL string // set only for newly created users
	Created   bool
}

// VerifyResult is the outcome of a QR verification scan.
type VerifyResult struct {
	AlreadyMarked bool
	User          *models.User
}

// Service implements auto-registration on login and QR check-in
// verification.
type Service struct {
	store  Store
	active ActiveEventProvider
	qr     Renderer
	mail   MailQueue   // nil disables email delivery
	feed   CheckinFeed // nil disables the live feed
	logger *zap.Logger
	now    func() time.Time
}

// NewService creates the user service.
func NewService(store Store, active ActiveEventProvider, renderer Renderer, mail MailQueue, feed CheckinFeed, logger *zap.Logger) *Service {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Service{
		store:  store,
		active: active,
		qr:     renderer,
		mail:   mail,
		feed:   feed,
		logger: logger,
		now:    time.Now,
	}
}

// AutoRegister looks up the user for identity and ensures a registration
// against the current active event. The user lookup and the (cached)
// active-event fetch run concurrently; neither depends on the other.
//
// Existing users get their name and avatar refreshed and, when a
// different event has become active since their last login, their
// registered event re-stamped. Those writes are fire-and-forget: the
// returned record is the merged in-memory view and does not wait for
// them.
//
// New users get a fresh unique QR token, the participant role, and a
// rendered QR artifact queued for email delivery.
func (s *Service) AutoRegister(ctx context.Context, id Identity) (*RegistrationResult, error) {
	evCh := make(chan *models.Event, 1)
	go func() { evCh <- s.active.ActiveEvent(ctx) }()

	user, err := s.store.GetByGithubID(ctx, id.GithubID)
	activeEvent := <-evCh
	if err != nil {
		s.logger.Error("user lookup failed", zap.String("github_id", id.GithubID), zap.Error(err))
		return nil, ErrStore
	}

	var activeID *int64
	var activeTitle string
	if activeEvent != nil {
		activeID = &activeEvent.ID
		activeTitle = activeEvent.Title
	}

	if user != nil {
		return s.refreshExisting(user, id, activeID), nil
	}
	return s.createNew(ctx, id, activeID, activeTitle)
}

func (s *Service) refreshExisting(user *models.User, id Identity, activeID *int64) *RegistrationResult {
	merged := *user
	if id.Name != "" {
		merged.Name = id.Name
	}
	if id.AvatarURL != "" {
		merged.AvatarURL = id.AvatarURL
	}
	if merged.Email == "" {
		merged.Email = id.Email
	}
	restamp := activeID != nil && (merged.RegisteredEventID == nil || *merged.RegisteredEventID != *activeID)
	if restamp {
		merged.RegisteredEventID = activeID
	}

	githubID, name, avatar := merged.GithubID, merged.Name, merged.AvatarURL
	async.Go(s.logger, "refresh-user-profile", func(ctx context.Context) error {
		if err := s.store.UpdateProfile(ctx, githubID, name, avatar); err != nil {
			return err
		}
		if restamp {
			return s.store.SetRegisteredEvent(ctx, githubID, activeID)
		}
		return nil
	})

	return &RegistrationResult{User: &merged}
}

func (s *Service) createNew(ctx context.Context, id Identity, activeID *int64, activeTitle string) (*RegistrationResult, error) {
	name := id.Name
	if name == "" {
		name = id.Email
	}
	created, err := s.store.Create(ctx, &models.User{
		GithubID:          id.GithubID,
		Name:              name,
		Email:             id.Email,
		AvatarURL:         id.AvatarURL,
		Role:              models.RoleParticipant,
		QRCodeData:        uuid.NewString(),
		RegisteredEventID: activeID,
	})
	if err != nil {
		s.logger.Error("user creation failed", zap.String("github_id", id.GithubID), zap.Error(err))
		return nil, ErrStore
	}

	payload := qr.Payload{
		ID:    created.QRCodeData,
		Name:  created.Name,
		Email: created.Email,
		Event: activeTitle,
	}
	dataURL, err := s.qr.DataURL(ctx, payload.Encode())
	if err != nil {
		// The registration itself succeeded; the artifact can be
		// re-rendered from the token later.
		s.logger.Warn("qr render failed", zap.String("github_id", created.GithubID), zap.Error(err))
		return &RegistrationResult{User: created, Created: true}, nil
	}

	if s.mail != nil && created.Email != "" {
		mailPayload := queue.QRCodeEmailPayload{
			RecipientEmail: created.Email,
			RecipientName:  created.Name,
			QRDataURL:      dataURL,
		}
		async.Go(s.logger, "enqueue-qr-email", func(ctx context.Context) error {
			return s.mail.EnqueueQRCodeEmail(ctx, mailPayload)
		})
	}

	return &RegistrationResult{User: created, QRDataURL: dataURL, Created: true}, nil
}

// Verify resolves a scanned payload to a user and marks attendance.
// Re-scanning a checked-in user is not an error: the existing record
// comes back with AlreadyMarked set. The first scan stamps attended_at
// through a fire-and-forget write; the returned record reflects the new
// timestamp immediately.
func (s *Service) Verify(ctx context.Context, scanned string) (*VerifyResult, error) {
	token := qr.ExtractToken(scanned)
	if token == "" {
		return nil, ErrUserNotFound
	}

	user, err := s.store.GetByQRCode(ctx, token)
	if err != nil {
		s.logger.Error("verify lookup failed", zap.Error(err))
		return nil, ErrStore
	}
	if user == nil {
		return nil, ErrUserNotFound
	}

	if user.AttendedAt != nil {
		return &VerifyResult{AlreadyMarked: true, User: user}, nil
	}

	at := s.now().UTC()
	user.AttendedAt = &at
	qrToken := user.QRCodeData
	async.Go(s.logger, "mark-attended", func(ctx context.Context) error {
		_, err := s.store.MarkAttended(ctx, qrToken, at)
		return err
	})

	if s.feed != nil {
		s.feed.BroadcastCheckin(user.ToScanView())
	}
	return &VerifyResult{AlreadyMarked: false, User: user}, nil
}
