// Package auth registers and authenticates users and issues bearer tokens.
package auth

import (
	"context"
	"errors"
	"time"

	"go.uber.org/zap"

	"github.com/volunteer-connect/backend/internal/apperr"
	"github.com/volunteer-connect/backend/internal/models"
	"github.com/volunteer-connect/backend/internal/validation"
	"github.com/volunteer-connect/backend/pkg/database"
	"github.com/volunteer-connect/backend/pkg/utils"
)

// ContextClaims is the gin context key holding the validated *Claims.
const ContextClaims = "token_claims"

var (
	ErrEmailTaken         = apperr.Conflict("Email already registered")
	ErrInvalidCredentials = apperr.Unauthenticated("Invalid credentials")
	ErrLogoutUnavailable  = apperr.Internal("logout unavailable", errors.New("no revocation list configured"))
)

// VolunteerRegistration is the input of RegisterVolunteer.
type VolunteerRegistration struct {
	Name     string `validate:"required"`
	Email    string `validate:"required,email"`
	Password string `validate:"required,min=6,max=72"`
}

// OrganiserRegistration is the input of RegisterOrganisation.
type OrganiserRegistration struct {
	OrganiserName    string `validate:"required"`
	Email            string `validate:"required,email"`
	Password         string `validate:"required,min=6,max=72"`
	OrganisationName string `validate:"required"`
	Description      string
	LogoURL          string `validate:"omitempty,url"`
}

// Session is a signed-in user and their token.
type Session struct {
	Token        string               `json:"token"`
	User         models.UserPublic    `json:"user"`
	Organisation *models.Organisation `json:"organisation,omitempty"`
}

// Store is the persistence auth needs.
type Store interface {
	// CreateUser inserts u, returning errDuplicateEmail when the email is taken.
	CreateUser(ctx context.Context, u *models.User) error
	// CreateOrganiser inserts u and o, owned by u, in one transaction.
	CreateOrganiser(ctx context.Context, u *models.User, o *models.Organisation) error
	GetByEmail(ctx context.Context, email string) (*models.User, error)
}

// Revoker records revoked token IDs.
type Revoker interface {
	Revoke(ctx context.Context, jti string, expiresAt time.Time) error
}

// Service implements registration, login and logout.
type Service struct {
	store   Store
	jwt     *JWTService
	revoker Revoker
	logger  *zap.Logger
}

// NewService creates an auth service. revoker may be nil, in which case Logout fails.
func NewService(store Store, jwt *JWTService, revoker Revoker, logger *zap.Logger) *Service {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Service{store: store, jwt: jwt, revoker: revoker, logger: logger}
}

// RegisterVolunteer creates a volunteer account and signs it in.
func (s *Service) RegisterVolunteer(ctx context.Context, r VolunteerRegistration) (*Session, error) {
	r.Email = utils.NormalizeEmail(r.Email)
	if err := validation.Struct(r); err != nil {
		return nil, err
	}
	hash, err := utils.HashPassword(r.Password)
	if err != nil {
		return nil, apperr.Internal("hash password", err)
	}
	u := &models.User{Name: r.Name, Email: r.Email, PasswordHash: hash, Role: models.RoleVolunteer}
	if err := s.store.CreateUser(ctx, u); err != nil {
		if errors.Is(err, errDuplicateEmail) {
			return nil, ErrEmailTaken
		}
		return nil, apperr.Internal("create user", err)
	}
	s.logger.Info("volunteer registered", zap.Int64("user_id", u.ID))
	return s.session(u, nil)
}

// RegisterOrganisation creates an organiser account together with its organisation.
func (s *Service) RegisterOrganisation(ctx context.Context, r OrganiserRegistration) (*Session, error) {
	r.Email = utils.NormalizeEmail(r.Email)
	if err := validation.Struct(r); err != nil {
		return nil, err
	}
	hash, err := utils.HashPassword(r.Password)
	if err != nil {
		return nil, apperr.Internal("hash password", err)
	}
	u := &models.User{Name: r.OrganiserName, Email: r.Email, PasswordHash: hash, Role: models.RoleOrganiser}
	o := &models.Organisation{Name: r.OrganisationName, Description: r.Description, LogoURL: r.LogoURL}
	if err := s.store.CreateOrganiser(ctx, u, o); err != nil {
		if errors.Is(err, errDuplicateEmail) {
			return nil, ErrEmailTaken
		}
		return nil, apperr.Internal("create organiser", err)
	}
	s.logger.Info("organiser registered", zap.Int64("user_id", u.ID), zap.Int64("organisation_id", o.ID))
	return s.session(u, o)
}

// Login checks credentials and issues a token.
func (s *Service) Login(ctx context.Context, email, password string) (*Session, error) {
	u, err := s.store.GetByEmail(ctx, utils.NormalizeEmail(email))
	if err != nil {
		if errors.Is(err, database.ErrNotFound) {
			return nil, ErrInvalidCredentials
		}
		return nil, apperr.Internal("get user", err)
	}
	if !utils.CheckPassword(password, u.PasswordHash) {
		return nil, ErrInvalidCredentials
	}
	return s.session(u, nil)
}

// Logout revokes the token described by claims until it expires.
func (s *Service) Logout(ctx context.Context, claims *Claims) error {
	if s.revoker == nil {
		return ErrLogoutUnavailable
	}
	var exp time.Time
	if claims.ExpiresAt != nil {
		exp = claims.ExpiresAt.Time
	}
	if err := s.revoker.Revoke(ctx, claims.ID, exp); err != nil {
		return apperr.Internal("revoke token", err)
	}
	return nil
}

func (s *Service) session(u *models.User, o *models.Organisation) (*Session, error) {
	token, err := s.jwt.Generate(u)
	if err != nil {
		return nil, apperr.Internal("generate token", err)
	}
	return &Session{Token: token, User: u.ToPublic(), Organisation: o}, nil
}
