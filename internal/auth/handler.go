package auth

import (
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/volunteer-connect/backend/pkg/response"
)

// RegisterVolunteerRequest is the body for POST /api/auth/register-volunteer.
type RegisterVolunteerRequest struct {
	Name     string `json:"name" binding:"required"`
	Email    string `json:"email" binding:"required"`
	Password string `json:"password" binding:"required"`
}

// RegisterOrganisationRequest is the body for POST /api/auth/register-organisation.
type RegisterOrganisationRequest struct {
	OrganiserName    string `json:"organiserName" binding:"required"`
	Email            string `json:"email" binding:"required"`
	Password         string `json:"password" binding:"required"`
	OrganisationName string `json:"organisationName" binding:"required"`
	Description      string `json:"description"`
	LogoURL          string `json:"logoUrl"`
}

// LoginRequest is the body for POST /api/auth/login.
type LoginRequest struct {
	Email    string `json:"email" binding:"required"`
	Password string `json:"password" binding:"required"`
}

// Handler handles auth HTTP endpoints.
type Handler struct {
	svc    *Service
	logger *zap.Logger
}

// NewHandler creates an auth handler.
func NewHandler(svc *Service, logger *zap.Logger) *Handler {
	return &Handler{svc: svc, logger: logger}
}

// RegisterVolunteer handles POST /api/auth/register-volunteer.
func (h *Handler) RegisterVolunteer(c *gin.Context) {
	var req RegisterVolunteerRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "Missing fields")
		return
	}
	sess, err := h.svc.RegisterVolunteer(c.Request.Context(), VolunteerRegistration{
		Name:     req.Name,
		Email:    req.Email,
		Password: req.Password,
	})
	if err != nil {
		response.Error(c, h.logger, err)
		return
	}
	response.Created(c, sess)
}

// RegisterOrganisation handles POST /api/auth/register-organisation.
func (h *Handler) RegisterOrganisation(c *gin.Context) {
	var req RegisterOrganisationRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "Missing fields")
		return
	}
	sess, err := h.svc.RegisterOrganisation(c.Request.Context(), OrganiserRegistration{
		OrganiserName:    req.OrganiserName,
		Email:            req.Email,
		Password:         req.Password,
		OrganisationName: req.OrganisationName,
		Description:      req.Description,
		LogoURL:          req.LogoURL,
	})
	if err != nil {
		response.Error(c, h.logger, err)
		return
	}
	response.Created(c, sess)
}

// Login handles POST /api/auth/login.
func (h *Handler) Login(c *gin.Context) {
	var req LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "Missing fields")
		return
	}
	sess, err := h.svc.Login(c.Request.Context(), req.Email, req.Password)
	if err != nil {
		response.Error(c, h.logger, err)
		return
	}
	response.OK(c, sess)
}

// Logout handles POST /api/auth/logout. The route must run behind the JWT middleware.
func (h *Handler) Logout(c *gin.Context) {
	claims := c.MustGet(ContextClaims).(*Claims)
	if err := h.svc.Logout(c.Request.Context(), claims); err != nil {
		response.Error(c, h.logger, err)
		return
	}
	response.OK(c, gin.H{"message": "Logged out"})
}
