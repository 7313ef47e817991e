package events

import (
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/volunteer-connect/backend/internal/middleware"
	"github.com/volunteer-connect/backend/internal/models"
	"github.com/volunteer-connect/backend/pkg/response"
)

// dateLayouts are the accepted event date formats. The second is what HTML
// datetime-local inputs submit and is read as UTC.
var dateLayouts = []string{time.RFC3339, "2006-01-02T15:04"}

func parseDate(s string) (time.Time, error) {
	var err error
	for _, layout := range dateLayouts {
		var t time.Time
		if t, err = time.Parse(layout, s); err == nil {
			return t.UTC(), nil
		}
	}
	return time.Time{}, err
}

// CreateRequest is the body for POST /api/events.
type CreateRequest struct {
	Title          string   `json:"title" binding:"required"`
	Description    string   `json:"description" binding:"required"`
	Category       string   `json:"category" binding:"required"`
	Date           string   `json:"date" binding:"required"`
	DurationHours  float64  `json:"durationHours"`
	LocationText   string   `json:"locationText" binding:"required"`
	Lat            *float64 `json:"lat"`
	Lng            *float64 `json:"lng"`
	SkillsRequired string   `json:"skillsRequired"`
	MaxVolunteers  int      `json:"maxVolunteers"`
	PosterURL      string   `json:"posterUrl"`
	PosterKey      string   `json:"posterKey"`
}

// UpdateRequest is the body for PUT /api/events/:id. Absent fields are left unchanged.
type UpdateRequest struct {
	Title          *string              `json:"title"`
	Description    *string              `json:"description"`
	Category       *string              `json:"category"`
	Date           *string              `json:"date"`
	DurationHours  *float64             `json:"durationHours"`
	LocationText   *string              `json:"locationText"`
	Lat            models.OptionalFloat `json:"lat"` // null clears
	Lng            models.OptionalFloat `json:"lng"` // null clears
	SkillsRequired *string              `json:"skillsRequired"`
	MaxVolunteers  *int                 `json:"maxVolunteers"`
	PosterURL      *string              `json:"posterUrl"`
	PosterKey      *string              `json:"posterKey"`
}

// Handler handles event HTTP endpoints.
type Handler struct {
	svc    *Service
	logger *zap.Logger
}

// NewHandler creates an event handler.
func NewHandler(svc *Service, logger *zap.Logger) *Handler {
	return &Handler{svc: svc, logger: logger}
}

// Create handles POST /api/events.
func (h *Handler) Create(c *gin.Context) {
	var req CreateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "invalid request: "+err.Error())
		return
	}
	date, err := parseDate(req.Date)
	if err != nil {
		response.BadRequest(c, "invalid date")
		return
	}
	f := models.EventFields{
		Title:          req.Title,
		Description:    req.Description,
		Category:       req.Category,
		Date:           date,
		DurationHours:  req.DurationHours,
		LocationText:   req.LocationText,
		Lat:            req.Lat,
		Lng:            req.Lng,
		SkillsRequired: req.SkillsRequired,
		MaxVolunteers:  req.MaxVolunteers,
		PosterURL:      req.PosterURL,
		PosterKey:      req.PosterKey,
	}
	e, err := h.svc.Create(c.Request.Context(), middleware.MustActor(c), f)
	if err != nil {
		response.Error(c, h.logger, err)
		return
	}
	response.Created(c, e)
}

// List handles GET /api/events?category=&location=&search=.
func (h *Handler) List(c *gin.Context) {
	f := models.EventFilter{
		Category: c.Query("category"),
		Location: c.Query("location"),
		Search:   c.Query("search"),
	}
	list, err := h.svc.List(c.Request.Context(), f)
	if err != nil {
		response.Error(c, h.logger, err)
		return
	}
	response.OK(c, list)
}

// Get handles GET /api/events/:id. Authentication is optional.
func (h *Handler) Get(c *gin.Context) {
	id, ok := eventID(c)
	if !ok {
		return
	}
	var actor *models.Actor
	if a, ok := middleware.ActorFrom(c); ok {
		actor = &a
	}
	d, err := h.svc.Get(c.Request.Context(), id, actor)
	if err != nil {
		response.Error(c, h.logger, err)
		return
	}
	response.OK(c, d)
}

// Update handles PUT /api/events/:id (poster only).
func (h *Handler) Update(c *gin.Context) {
	id, ok := eventID(c)
	if !ok {
		return
	}
	var req UpdateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "invalid request: "+err.Error())
		return
	}
	patch := models.EventPatch{
		Title:          req.Title,
		Description:    req.Description,
		Category:       req.Category,
		DurationHours:  req.DurationHours,
		LocationText:   req.LocationText,
		Lat:            req.Lat,
		Lng:            req.Lng,
		SkillsRequired: req.SkillsRequired,
		MaxVolunteers:  req.MaxVolunteers,
		PosterURL:      req.PosterURL,
		PosterKey:      req.PosterKey,
	}
	if req.Date != nil {
		date, err := parseDate(*req.Date)
		if err != nil {
			response.BadRequest(c, "invalid date")
			return
		}
		patch.Date = &date
	}
	e, err := h.svc.Update(c.Request.Context(), middleware.MustActor(c), id, patch)
	if err != nil {
		response.Error(c, h.logger, err)
		return
	}
	response.OK(c, e)
}

// Delete handles DELETE /api/events/:id (poster only).
func (h *Handler) Delete(c *gin.Context) {
	id, ok := eventID(c)
	if !ok {
		return
	}
	if err := h.svc.Delete(c.Request.Context(), middleware.MustActor(c), id); err != nil {
		response.Error(c, h.logger, err)
		return
	}
	response.OK(c, gin.H{"message": "Event deleted successfully"})
}

// Mine handles GET /api/events/mine.
func (h *Handler) Mine(c *gin.Context) {
	list, err := h.svc.ListMine(c.Request.Context(), middleware.MustActor(c))
	if err != nil {
		response.Error(c, h.logger, err)
		return
	}
	response.OK(c, list)
}

func eventID(c *gin.Context) (int64, bool) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil || id <= 0 {
		response.BadRequest(c, "invalid event id")
		return 0, false
	}
	return id, true
}
