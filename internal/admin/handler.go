// Package admin serves the dashboard and user-management endpoints.
package admin

import (
	"context"
	"math"
	"net/http"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/fossuok/qr-event-backend/internal/models"
	"github.com/fossuok/qr-event-backend/pkg/response"
)

// UserStore is the record store surface the admin endpoints need.
type UserStore interface {
	CountRegistered(ctx context.Context) (int, error)
	CountAttended(ctx context.Context) (int, error)
	ListParticipants(ctx context.Context) ([]models.User, error)
	ListAll(ctx context.Context) ([]models.User, error)
	SetRole(ctx context.Context, githubID string, role models.Role) (int64, error)
	Delete(ctx context.Context, githubID string) (int64, error)
}

// Stats is the dashboard summary.
type Stats struct {
	TotalRegistered int     `json:"total_registered"`
	TotalAttended   int     `json:"total_attended"`
	AttendanceRate  float64 `json:"attendance_rate"`
}

// RoleRequest is the body for PATCH /admin/users/:id/role.
type RoleRequest struct {
	Role string `json:"role" binding:"required,oneof=participant admin"`
}

// Handler handles admin HTTP endpoints.
type Handler struct {
	users  UserStore
	logger *zap.Logger
}

// NewHandler creates an admin handler.
func NewHandler(users UserStore, logger *zap.Logger) *Handler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Handler{users: users, logger: logger}
}

// GetStats handles GET /admin/stats. The two counts are independent and
// fetched concurrently; a store failure degrades to zeroes rather than
// erroring the dashboard.
func (h *Handler) GetStats(c *gin.Context) {
	ctx := c.Request.Context()

	var (
		wg                   sync.WaitGroup
		registered, attended int
	)
	wg.Add(2)
	go func() {
		defer wg.Done()
		n, err := h.users.CountRegistered(ctx)
		if err != nil {
			h.logger.Warn("count registered failed", zap.Error(err))
			return
		}
		registered = n
	}()
	go func() {
		defer wg.Done()
		n, err := h.users.CountAttended(ctx)
		if err != nil {
			h.logger.Warn("count attended failed", zap.Error(err))
			return
		}
		attended = n
	}()
	wg.Wait()

	rate := 0.0
	if registered > 0 {
		rate = math.Round(float64(attended)/float64(registered)*1000) / 10
	}
	response.OK(c, Stats{
		TotalRegistered: registered,
		TotalAttended:   attended,
		AttendanceRate:  rate,
	})
}

// ListParticipants handles GET /admin/participants.
func (h *Handler) ListParticipants(c *gin.Context) {
	list, err := h.users.ListParticipants(c.Request.Context())
	if err != nil {
		h.logger.Error("list participants failed", zap.Error(err))
		response.Internal(c, "failed to list participants")
		return
	}
	response.OK(c, list)
}

// ListUsers handles GET /admin/users.
func (h *Handler) ListUsers(c *gin.Context) {
	list, err := h.users.ListAll(c.Request.Context())
	if err != nil {
		h.logger.Error("list users failed", zap.Error(err))
		response.Internal(c, "failed to list users")
		return
	}
	response.OK(c, list)
}

// ChangeRole handles PATCH /admin/users/:id/role.
func (h *Handler) ChangeRole(c *gin.Context) {
	githubID := c.Param("id")
	var req RoleRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "invalid request: "+err.Error())
		return
	}
	affected, err := h.users.SetRole(c.Request.Context(), githubID, models.Role(req.Role))
	if err != nil {
		h.logger.Error("set role failed", zap.String("github_id", githubID), zap.Error(err))
		response.Internal(c, "failed to change role")
		return
	}
	if affected == 0 {
		response.NotFound(c, "user not found")
		return
	}
	response.OK(c, gin.H{"status": "role_updated", "github_id": githubID, "role": req.Role})
}

// DeleteUser handles DELETE /admin/users/:id.
func (h *Handler) DeleteUser(c *gin.Context) {
	githubID := c.Param("id")
	affected, err := h.users.Delete(c.Request.Context(), githubID)
	if err != nil {
		h.logger.Error("delete user failed", zap.String("github_id", githubID), zap.Error(err))
		response.Internal(c, "failed to delete user")
		return
	}
	if affected == 0 {
		response.NotFound(c, "user not found")
		return
	}
	response.OK(c, gin.H{"status": "user_deleted", "github_id": githubID})
}

// Report handles GET /admin/report.pdf and streams the attendance report.
func (h *Handler) Report(c *gin.Context) {
	list, err := h.users.ListParticipants(c.Request.Context())
	if err != nil {
		h.logger.Error("report: list participants failed", zap.Error(err))
		response.Internal(c, "failed to build report")
		return
	}
	pdf, err := BuildAttendanceReport(list, time.Now().UTC())
	if err != nil {
		h.logger.Error("report: pdf build failed", zap.Error(err))
		response.Internal(c, "failed to build report")
		return
	}
	c.Header("Content-Disposition", `attachment; filename=attendance-report.pdf`)
	c.Data(http.StatusOK, "application/pdf", pdf)
}
