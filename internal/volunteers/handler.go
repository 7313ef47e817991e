package volunteers

import (
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/volunteer-connect/backend/internal/middleware"
	"github.com/volunteer-connect/backend/internal/models"
	"github.com/volunteer-connect/backend/pkg/response"
)

// UpdateProfileRequest is the body for PUT /api/volunteers/me.
type UpdateProfileRequest struct {
	Name    *string `json:"name"`
	Phone   *string `json:"phone"`
	City    *string `json:"city"`
	State   *string `json:"state"`
	Country *string `json:"country"`
	Skills  *string `json:"skills"`
}

// Handler handles profile endpoints.
type Handler struct {
	svc    *Service
	logger *zap.Logger
}

// NewHandler creates a profile handler.
func NewHandler(svc *Service, logger *zap.Logger) *Handler {
	return &Handler{svc: svc, logger: logger}
}

// Get handles GET /api/volunteers/me.
func (h *Handler) Get(c *gin.Context) {
	u, err := h.svc.Get(c.Request.Context(), middleware.MustActor(c))
	if err != nil {
		response.Error(c, h.logger, err)
		return
	}
	response.OK(c, u)
}

// Update handles PUT /api/volunteers/me.
func (h *Handler) Update(c *gin.Context) {
	var req UpdateProfileRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "invalid request: "+err.Error())
		return
	}
	u, err := h.svc.Update(c.Request.Context(), middleware.MustActor(c), models.ProfilePatch{
		Name:    req.Name,
		Phone:   req.Phone,
		City:    req.City,
		State:   req.State,
		Country: req.Country,
		Skills:  req.Skills,
	})
	if err != nil {
		response.Error(c, h.logger, err)
		return
	}
	response.OK(c, u)
}
