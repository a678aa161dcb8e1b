package auth

import (
	"context"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/fossuok/qr-event-backend/internal/users"
	"github.com/fossuok/qr-event-backend/pkg/response"
)

// Registrar auto-registers a logging-in identity and returns the user.
type Registrar interface {
	AutoRegister(ctx context.Context, id users.Identity) (*users.RegistrationResult, error)
}

// Handler handles the GitHub OAuth login flow.
type Handler struct {
	github       *GitHubClient
	sessions     *SessionService
	registrar    Registrar
	postLoginURL string
	logger       *zap.Logger
}

// NewHandler creates an auth handler.
func NewHandler(github *GitHubClient, sessions *SessionService, registrar Registrar, postLoginURL string, logger *zap.Logger) *Handler {
	if logger == nil {
		logger = zap.NewNop()
	}
	if postLoginURL == "" {
		postLoginURL = "/"
	}
	return &Handler{
		github:       github,
		sessions:     sessions,
		registrar:    registrar,
		postLoginURL: postLoginURL,
		logger:       logger,
	}
}

// Login handles GET /auth/github and redirects to GitHub.
func (h *Handler) Login(c *gin.Context) {
	c.Redirect(http.StatusFound, h.github.AuthorizeURL())
}

// Callback handles GET /auth/callback: exchanges the OAuth code, fetches
// the GitHub user, auto-registers them, sets the session cookie and
// redirects.
func (h *Handler) Callback(c *gin.Context) {
	code := c.Query("code")
	if code == "" {
		response.BadRequest(c, "auth code not found")
		return
	}

	ctx := c.Request.Context()
	accessToken, err := h.github.ExchangeCode(ctx, code)
	if err != nil {
		h.logger.Warn("code exchange failed", zap.Error(err))
		response.Unauthorized(c, ErrOAuthFailed.Error())
		return
	}
	ghUser, err := h.github.FetchUser(ctx, accessToken)
	if err != nil {
		h.logger.Warn("github user fetch failed", zap.Error(err))
		response.Unauthorized(c, ErrOAuthFailed.Error())
		return
	}

	name := ghUser.Name
	if name == "" {
		name = ghUser.Login
	}
	res, err := h.registrar.AutoRegister(ctx, users.Identity{
		GithubID:  strconv.FormatInt(ghUser.ID, 10),
		Name:      name,
		Email:     ghUser.Email,
		AvatarURL: ghUser.AvatarURL,
	})
	if err != nil {
		h.logger.Error("auto-register failed", zap.Int64("github_id", ghUser.ID), zap.Error(err))
		response.Internal(c, "registration failed")
		return
	}

	token, err := h.sessions.Issue(SessionUser{
		GithubID:  res.User.GithubID,
		Name:      res.User.Name,
		Email:     res.User.Email,
		AvatarURL: res.User.AvatarURL,
		Role:      string(res.User.Role),
	})
	if err != nil {
		h.logger.Error("session issue failed", zap.Error(err))
		response.Internal(c, "failed to create session")
		return
	}

	c.SetSameSite(http.SameSiteLaxMode)
	c.SetCookie(CookieName, token, int(h.sessions.MaxAge().Seconds()), "/", "", false, true)
	c.Redirect(http.StatusFound, h.postLoginURL)
}

// Logout handles GET /auth/logout: clears the session cookie and
// redirects to the homepage.
func (h *Handler) Logout(c *gin.Context) {
	c.SetCookie(CookieName, "", -1, "/", "", false, true)
	c.Redirect(http.StatusFound, "/")
}
