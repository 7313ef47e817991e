package signups

import (
	"strconv"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/volunteer-connect/backend/internal/middleware"
	"github.com/volunteer-connect/backend/internal/models"
	"github.com/volunteer-connect/backend/pkg/response"
)

// UpdateStatusRequest is the body for PATCH /api/organiser/signups/:id/status.
type UpdateStatusRequest struct {
	Status string `json:"status" binding:"required"`
}

// Handler handles signup HTTP endpoints.
type Handler struct {
	svc    *Service
	logger *zap.Logger
}

// NewHandler creates a signup handler.
func NewHandler(svc *Service, logger *zap.Logger) *Handler {
	return &Handler{svc: svc, logger: logger}
}

// Apply handles POST /api/events/:id/apply.
func (h *Handler) Apply(c *gin.Context) {
	eventID, ok := pathID(c, "invalid event id")
	if !ok {
		return
	}
	s, err := h.svc.Apply(c.Request.Context(), middleware.MustActor(c), eventID)
	if err != nil {
		response.Error(c, h.logger, err)
		return
	}
	response.Created(c, s)
}

// ListForEvent handles GET /api/events/:id/signups (event organiser only).
func (h *Handler) ListForEvent(c *gin.Context) {
	eventID, ok := pathID(c, "invalid event id")
	if !ok {
		return
	}
	list, err := h.svc.ListForEvent(c.Request.Context(), middleware.MustActor(c), eventID)
	if err != nil {
		response.Error(c, h.logger, err)
		return
	}
	response.OK(c, list)
}

// ListMine handles GET /api/volunteers/my-events.
func (h *Handler) ListMine(c *gin.Context) {
	list, err := h.svc.ListForVolunteer(c.Request.Context(), middleware.MustActor(c))
	if err != nil {
		response.Error(c, h.logger, err)
		return
	}
	response.OK(c, list)
}

// Cancel handles DELETE /api/volunteers/signups/:id.
func (h *Handler) Cancel(c *gin.Context) {
	signupID, ok := pathID(c, "invalid signup id")
	if !ok {
		return
	}
	if err := h.svc.Cancel(c.Request.Context(), middleware.MustActor(c), signupID); err != nil {
		response.Error(c, h.logger, err)
		return
	}
	response.OK(c, gin.H{"message": "Signup cancelled successfully"})
}

// UpdateStatus handles PATCH /api/organiser/signups/:id/status.
func (h *Handler) UpdateStatus(c *gin.Context) {
	signupID, ok := pathID(c, "invalid signup id")
	if !ok {
		return
	}
	var req UpdateStatusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "invalid request: "+err.Error())
		return
	}
	status, err := models.ParseSignupStatus(req.Status)
	if err != nil {
		response.Error(c, h.logger, ErrInvalidStatus)
		return
	}
	s, err := h.svc.UpdateStatus(c.Request.Context(), middleware.MustActor(c), signupID, status)
	if err != nil {
		response.Error(c, h.logger, err)
		return
	}
	response.OK(c, s)
}

func pathID(c *gin.Context, invalid string) (int64, bool) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil || id <= 0 {
		response.BadRequest(c, invalid)
		return 0, false
	}
	return id, true
}
