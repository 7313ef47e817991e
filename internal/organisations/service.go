// Package organisations manages the organisation profile each organiser owns.
package organisations

import (
	"context"
	"errors"

	"go.uber.org/zap"

	"github.com/volunteer-connect/backend/internal/apperr"
	"github.com/volunteer-connect/backend/internal/models"
	"github.com/volunteer-connect/backend/internal/validation"
	"github.com/volunteer-connect/backend/pkg/database"
)

var (
	ErrOnlyOrganisers = apperr.Forbidden("Only organisers can manage an organisation profile")
	ErrProfileExists  = apperr.Conflict("Organisation profile already exists")
	ErrNotFound       = apperr.NotFound("Organisation not found")
)

// Store is the persistence organisation profiles need.
type Store interface {
	Create(ctx context.Context, o *models.Organisation) error
	GetByOrganiser(ctx context.Context, organiserID int64) (*models.Organisation, error)
}

// Service manages organisation profiles.
type Service struct {
	store  Store
	logger *zap.Logger
}

// NewService creates an organisation service.
func NewService(store Store, logger *zap.Logger) *Service {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Service{store: store, logger: logger}
}

// Create creates the actor's organisation. An organiser has at most one.
func (s *Service) Create(ctx context.Context, actor models.Actor, f models.OrganisationFields) (*models.Organisation, error) {
	if !actor.IsOrganiser() {
		return nil, ErrOnlyOrganisers
	}
	if err := validation.Struct(f); err != nil {
		return nil, err
	}
	o := &models.Organisation{
		Name:        f.Name,
		Description: f.Description,
		Website:     f.Website,
		LogoURL:     f.LogoURL,
		OrganiserID: actor.ID,
	}
	if err := s.store.Create(ctx, o); err != nil {
		if errors.Is(err, ErrDuplicateProfile) {
			return nil, ErrProfileExists
		}
		return nil, apperr.Internal("create organisation", err)
	}
	s.logger.Info("organisation created", zap.Int64("organisation_id", o.ID), zap.Int64("organiser_id", actor.ID))
	return o, nil
}

// Get returns the actor's organisation.
func (s *Service) Get(ctx context.Context, actor models.Actor) (*models.Organisation, error) {
	o, err := s.store.GetByOrganiser(ctx, actor.ID)
	if err != nil {
		if errors.Is(err, database.ErrNotFound) {
			return nil, ErrNotFound
		}
		return nil, apperr.Internal("get organisation", err)
	}
	return o, nil
}
