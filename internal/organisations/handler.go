package organisations

import (
	"strings"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/volunteer-connect/backend/internal/middleware"
	"github.com/volunteer-connect/backend/internal/models"
	"github.com/volunteer-connect/backend/pkg/response"
)

// CreateRequest is the body for POST /api/organiser/profile.
type CreateRequest struct {
	Name        string `json:"name" binding:"required"`
	Description string `json:"description"`
	Website     string `json:"website"`
	LogoURL     string `json:"logoUrl"`
}

// Handler handles organisation profile endpoints.
type Handler struct {
	svc    *Service
	logger *zap.Logger
}

// NewHandler creates an organisation handler.
func NewHandler(svc *Service, logger *zap.Logger) *Handler {
	return &Handler{svc: svc, logger: logger}
}

// Create handles POST /api/organiser/profile.
func (h *Handler) Create(c *gin.Context) {
	var req CreateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "name is required")
		return
	}
	o, err := h.svc.Create(c.Request.Context(), middleware.MustActor(c), models.OrganisationFields{
		Name:        strings.TrimSpace(req.Name),
		Description: req.Description,
		Website:     strings.TrimSpace(req.Website),
		LogoURL:     strings.TrimSpace(req.LogoURL),
	})
	if err != nil {
		response.Error(c, h.logger, err)
		return
	}
	response.Created(c, o)
}

// Get handles GET /api/organiser/profile.
func (h *Handler) Get(c *gin.Context) {
	o, err := h.svc.Get(c.Request.Context(), middleware.MustActor(c))
	if err != nil {
		response.Error(c, h.logger, err)
		return
	}
	response.OK(c, o)
}
