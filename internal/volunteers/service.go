// Package volunteers serves the signed-in user's own profile.
package volunteers

import (
	"context"
	"errors"
	"strings"

	"github.com/volunteer-connect/backend/internal/apperr"
	"github.com/volunteer-connect/backend/internal/models"
	"github.com/volunteer-connect/backend/pkg/database"
)

var (
	ErrProfileNotFound = apperr.NotFound("Profile not found")
	ErrEmptyName       = apperr.Validation("name cannot be empty")
)

// Store is the persistence profiles need.
type Store interface {
	GetUser(ctx context.Context, id int64) (*models.User, error)
	// UpdateProfile writes the profile fields of u; it never touches total_hours.
	UpdateProfile(ctx context.Context, u *models.User) error
}

// Service reads and edits profiles.
type Service struct {
	store Store
}

// NewService creates a profile service.
func NewService(store Store) *Service {
	return &Service{store: store}
}

// Get returns the actor's profile.
func (s *Service) Get(ctx context.Context, actor models.Actor) (*models.User, error) {
	u, err := s.store.GetUser(ctx, actor.ID)
	if err != nil {
		if errors.Is(err, database.ErrNotFound) {
			return nil, ErrProfileNotFound
		}
		return nil, apperr.Internal("get profile", err)
	}
	return u, nil
}

// Update applies patch to the actor's profile.
func (s *Service) Update(ctx context.Context, actor models.Actor, patch models.ProfilePatch) (*models.User, error) {
	if patch.Name != nil && strings.TrimSpace(*patch.Name) == "" {
		return nil, ErrEmptyName
	}
	u, err := s.Get(ctx, actor)
	if err != nil {
		return nil, err
	}
	patch.Apply(u)
	if err := s.store.UpdateProfile(ctx, u); err != nil {
		if errors.Is(err, database.ErrNotFound) {
			return nil, ErrProfileNotFound
		}
		return nil, apperr.Internal("update profile", err)
	}
	return u, nil
}
