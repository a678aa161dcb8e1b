package users

import (
	"context"
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/fossuok/qr-event-backend/pkg/response"
)

// VerifyRequest is the body for POST /api/verify. Scanners send the raw
// scanned string under "payload"; older clients send the bare token
// under "id".
type VerifyRequest struct {
	Payload string `json:"payload"`
	ID      string `json:"id"`
}

// ManualRegisterRequest is the body for POST /user/events/register.
type ManualRegisterRequest struct {
	Name  string `json:"name" binding:"required"`
	Email string `json:"email" binding:"required,email"`
}

// PNGRenderer renders the raw QR PNG for the download route.
type PNGRenderer interface {
	PNG(ctx context.Context, data string) ([]byte, error)
}

// Handler handles registration and verification HTTP endpoints.
type Handler struct {
	service  *Service
	renderer PNGRenderer
	logger   *zap.Logger
}

// NewHandler creates a users handler.
func NewHandler(service *Service, renderer PNGRenderer, logger *zap.Logger) *Handler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Handler{service: service, renderer: renderer, logger: logger}
}

// Verify handles POST /api/verify.
func (h *Handler) Verify(c *gin.Context) {
	var req VerifyRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "invalid request: "+err.Error())
		return
	}
	scanned := req.Payload
	if scanned == "" {
		scanned = req.ID
	}
	if scanned == "" {
		response.BadRequest(c, "no QR data provided")
		return
	}

	res, err := h.service.Verify(c.Request.Context(), scanned)
	if err != nil {
		if errors.Is(err, ErrUserNotFound) {
			response.NotFound(c, "user not found")
			return
		}
		response.Internal(c, "verification failed")
		return
	}
	response.OK(c, gin.H{
		"valid":          true,
		"already_marked": res.AlreadyMarked,
		"user":           res.User.ToScanView(),
	})
}

// RegisterManual handles POST /user/events/register: walk-in
// registration without an OAuth identity. The user gets a synthetic
// local provider id and flows through the same auto-registration path.
func (h *Handler) RegisterManual(c *gin.Context) {
	var req ManualRegisterRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "invalid request: "+err.Error())
		return
	}

	identity := Identity{
		GithubID: "local:" + uuid.NewString(),
		Name:     req.Name,
		Email:    req.Email,
	}
	res, err := h.service.AutoRegister(c.Request.Context(), identity)
	if err != nil {
		response.Internal(c, "registration failed")
		return
	}
	response.Created(c, gin.H{
		"message":     "user created",
		"id":          res.User.QRCodeData,
		"qr_data_url": res.QRDataURL,
	})
}

// DownloadQR handles GET /user/events/:qr/qr and streams the QR PNG as
// a file download.
func (h *Handler) DownloadQR(c *gin.Context) {
	data := c.Param("qr")
	if data == "" {
		response.BadRequest(c, "qr data required")
		return
	}
	png, err := h.renderer.PNG(c.Request.Context(), data)
	if err != nil {
		h.logger.Error("qr render failed", zap.Error(err))
		response.Internal(c, "failed to render QR code")
		return
	}
	c.Header("Content-Disposition", `attachment; filename=`+data+`.png`)
	c.Data(http.StatusOK, "image/png", png)
}
