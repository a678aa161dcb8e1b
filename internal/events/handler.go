package events

import (
	"context"
	"errors"
	"io"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/fossuok/qr-event-backend/internal/models"
	"github.com/fossuok/qr-event-backend/pkg/response"
	"github.com/fossuok/qr-event-backend/pkg/storage"
)

// BannerStorage stores event banner images.
type BannerStorage interface {
	Upload(ctx context.Context, key, contentType string, body io.Reader, contentLength int64) (string, error)
	DeleteObject(ctx context.Context, key string) error
}

// EventRequest is the body for POST /admin/events and PATCH /admin/events/:id.
type EventRequest struct {
	Title       string     `json:"title" binding:"required"`
	Description string     `json:"description"`
	Location    string     `json:"location"`
	StartTime   *time.Time `json:"start_time"`
	EndTime     *time.Time `json:"end_time"`
	IsActive    bool       `json:"is_active"`
}

// Handler handles admin event HTTP endpoints.
type Handler struct {
	service *Service
	banners BannerStorage
	logger  *zap.Logger
}

// NewHandler creates an events handler. banners may be nil; banner
// uploads then respond 503.
func NewHandler(service *Service, banners BannerStorage, logger *zap.Logger) *Handler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Handler{service: service, banners: banners, logger: logger}
}

func (h *Handler) fail(c *gin.Context, err error) {
	switch {
	case errors.Is(err, ErrTitleRequired):
		response.BadRequest(c, err.Error())
	case errors.Is(err, ErrNotFound):
		response.NotFound(c, err.Error())
	default:
		response.Internal(c, "event operation failed")
	}
}

func eventID(c *gin.Context) (int64, bool) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil || id <= 0 {
		response.BadRequest(c, "invalid event id")
		return 0, false
	}
	return id, true
}

// Create handles POST /admin/events.
func (h *Handler) Create(c *gin.Context) {
	var req EventRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "invalid request: "+err.Error())
		return
	}
	created, err := h.service.Create(c.Request.Context(), &models.Event{
		Title:       req.Title,
		Description: req.Description,
		Location:    req.Location,
		StartTime:   req.StartTime,
		EndTime:     req.EndTime,
		IsActive:    req.IsActive,
	})
	if err != nil {
		h.fail(c, err)
		return
	}
	response.Created(c, gin.H{"status": "created", "event": created})
}

// List handles GET /admin/events.
func (h *Handler) List(c *gin.Context) {
	list, err := h.service.List(c.Request.Context())
	if err != nil {
		h.fail(c, err)
		return
	}
	response.OK(c, list)
}

// GetByID handles GET /admin/events/:id.
func (h *Handler) GetByID(c *gin.Context) {
	id, ok := eventID(c)
	if !ok {
		return
	}
	e, err := h.service.Get(c.Request.Context(), id)
	if err != nil {
		h.fail(c, err)
		return
	}
	response.OK(c, e)
}

// Update handles PATCH /admin/events/:id.
func (h *Handler) Update(c *gin.Context) {
	id, ok := eventID(c)
	if !ok {
		return
	}
	var req EventRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "invalid request: "+err.Error())
		return
	}
	updated, err := h.service.Update(c.Request.Context(), id, &models.Event{
		Title:       req.Title,
		Description: req.Description,
		Location:    req.Location,
		StartTime:   req.StartTime,
		EndTime:     req.EndTime,
		IsActive:    req.IsActive,
	})
	if err != nil {
		h.fail(c, err)
		return
	}
	response.OK(c, gin.H{"status": "updated", "event": updated})
}

// Toggle handles POST /admin/events/:id/toggle.
func (h *Handler) Toggle(c *gin.Context) {
	id, ok := eventID(c)
	if !ok {
		return
	}
	status, err := h.service.Toggle(c.Request.Context(), id)
	if err != nil {
		h.fail(c, err)
		return
	}
	response.OK(c, gin.H{"status": status, "event_id": id})
}

// Delete handles DELETE /admin/events/:id. A stored banner is removed
// from S3 after the row is gone; cleanup failure is logged, not
// surfaced, since the delete itself already happened.
func (h *Handler) Delete(c *gin.Context) {
	id, ok := eventID(c)
	if !ok {
		return
	}
	ctx := c.Request.Context()

	var bannerKey string
	if h.banners != nil {
		if e, err := h.service.Get(ctx, id); err == nil {
			bannerKey = storage.ObjectKeyFromURL(e.ImageURL)
		}
	}

	if err := h.service.Delete(ctx, id); err != nil {
		h.fail(c, err)
		return
	}
	if bannerKey != "" {
		if err := h.banners.DeleteObject(ctx, bannerKey); err != nil {
			h.logger.Warn("banner cleanup failed",
				zap.Int64("event_id", id), zap.String("key", bannerKey), zap.Error(err))
		}
	}
	response.OK(c, gin.H{"status": "event_deleted", "event_id": id})
}

// UploadImage handles POST /admin/events/:id/image. Accepts a multipart
// "image" file, uploads it to S3 and stores the public URL on the
// event. A previously stored banner is deleted once the replacement is
// in place.
func (h *Handler) UploadImage(c *gin.Context) {
	if h.banners == nil {
		response.ServiceUnavailable(c, "image storage not configured")
		return
	}
	id, ok := eventID(c)
	if !ok {
		return
	}
	current, err := h.service.Get(c.Request.Context(), id)
	if err != nil {
		h.fail(c, err)
		return
	}
	fileHeader, err := c.FormFile("image")
	if err != nil {
		response.BadRequest(c, "image file required")
		return
	}
	if fileHeader.Size > storage.MaxBannerFileSize {
		response.BadRequest(c, "image exceeds maximum size")
		return
	}
	contentType := fileHeader.Header.Get("Content-Type")
	if !storage.ValidateBannerFileType(contentType, fileHeader.Filename) {
		response.BadRequest(c, "unsupported image type")
		return
	}
	if contentType == "" {
		contentType = storage.ContentTypeForFilename(fileHeader.Filename)
	}

	file, err := fileHeader.Open()
	if err != nil {
		response.Internal(c, "failed to read upload")
		return
	}
	defer file.Close()

	key := storage.BannerKey(strconv.FormatInt(id, 10), fileHeader.Filename)
	url, err := h.banners.Upload(c.Request.Context(), key, contentType, file, fileHeader.Size)
	if err != nil {
		h.logger.Error("banner upload failed", zap.Int64("event_id", id), zap.Error(err))
		response.Internal(c, "failed to upload image")
		return
	}
	if err := h.service.SetImage(c.Request.Context(), id, url); err != nil {
		h.fail(c, err)
		return
	}
	if oldKey := storage.ObjectKeyFromURL(current.ImageURL); oldKey != "" && oldKey != key {
		if err := h.banners.DeleteObject(c.Request.Context(), oldKey); err != nil {
			h.logger.Warn("stale banner cleanup failed",
				zap.Int64("event_id", id), zap.String("key", oldKey), zap.Error(err))
		}
	}
	response.OK(c, gin.H{"status": "image_uploaded", "image_url": url})
}
