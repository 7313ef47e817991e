package dashboard

import (
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/volunteer-connect/backend/internal/middleware"
	"github.com/volunteer-connect/backend/pkg/response"
)

// Handler handles the organiser dashboard endpoint.
type Handler struct {
	svc    *Service
	logger *zap.Logger
}

// NewHandler creates a dashboard handler.
func NewHandler(svc *Service, logger *zap.Logger) *Handler {
	return &Handler{svc: svc, logger: logger}
}

// Stats handles GET /api/organiser/stats.
func (h *Handler) Stats(c *gin.Context) {
	stats, err := h.svc.Stats(c.Request.Context(), middleware.MustActor(c))
	if err != nil {
		response.Error(c, h.logger, err)
		return
	}
	response.OK(c, stats)
}
