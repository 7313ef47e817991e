// Package events implements the event registry: organisers create, edit and
// delete events; anyone can browse them.
package events

import (
	"context"
	"errors"

	"go.uber.org/zap"

	"github.com/volunteer-connect/backend/internal/apperr"
	"github.com/volunteer-connect/backend/internal/models"
	"github.com/volunteer-connect/backend/internal/validation"
	"github.com/volunteer-connect/backend/pkg/database"
	"github.com/volunteer-connect/backend/pkg/storage"
)

var (
	ErrOnlyOrganisers       = apperr.Forbidden("Only organisers can create events")
	ErrOrganisationRequired = apperr.Validation("You must create an organisation profile first")
	ErrEventNotFound        = apperr.NotFound("Event not found")
	ErrNotAllowedToUpdate   = apperr.Forbidden("Not authorized to update this event")
	ErrNotAllowedToDelete   = apperr.Forbidden("Not authorized to delete this event")
	ErrCapacityBelowSignups = apperr.Conflict("maxVolunteers cannot be lower than the current number of signups")
	ErrForeignPoster        = apperr.Validation("posterKey must reference a poster you uploaded")
)

// Store is the persistence the registry needs.
type Store interface {
	OrganisationByOrganiser(ctx context.Context, organiserID int64) (*models.Organisation, error)
	Create(ctx context.Context, e *models.Event) error
	List(ctx context.Context, f models.EventFilter) ([]models.EventListItem, error)
	Get(ctx context.Context, id int64) (*models.Event, error)
	GetDetail(ctx context.Context, id int64) (*models.EventDetail, error)
	HasSignup(ctx context.Context, eventID, volunteerID int64) (bool, error)
	Update(ctx context.Context, id int64, f models.EventFields) (*models.Event, error)
	Delete(ctx context.Context, id int64) error
	ListByPoster(ctx context.Context, userID int64) ([]models.Event, error)
}

// PosterCleaner schedules removal of an uploaded poster object.
type PosterCleaner interface {
	EnqueuePosterCleanup(ctx context.Context, key string) error
}

// Service applies ownership and validation rules to event operations.
type Service struct {
	store   Store
	posters PosterCleaner
	logger  *zap.Logger
}

// NewService creates an event service. posters may be nil, in which case
// uploaded posters are left in place when their event goes away.
func NewService(store Store, posters PosterCleaner, logger *zap.Logger) *Service {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Service{store: store, posters: posters, logger: logger}
}

// Create posts a new event for the actor's organisation.
func (s *Service) Create(ctx context.Context, actor models.Actor, f models.EventFields) (*models.Event, error) {
	if !actor.IsOrganiser() {
		return nil, ErrOnlyOrganisers
	}
	org, err := s.store.OrganisationByOrganiser(ctx, actor.ID)
	if err != nil {
		if errors.Is(err, database.ErrNotFound) {
			return nil, ErrOrganisationRequired
		}
		return nil, apperr.Internal("load organisation", err)
	}
	if err := validation.Struct(f); err != nil {
		return nil, err
	}
	if f.PosterKey != "" && !storage.PosterKeyOwnedBy(f.PosterKey, actor.ID) {
		return nil, ErrForeignPoster
	}
	e := &models.Event{
		Title:          f.Title,
		Description:    f.Description,
		Category:       f.Category,
		Date:           f.Date,
		DurationHours:  f.DurationHours,
		LocationText:   f.LocationText,
		Lat:            f.Lat,
		Lng:            f.Lng,
		SkillsRequired: f.SkillsRequired,
		MaxVolunteers:  f.MaxVolunteers,
		PosterURL:      f.PosterURL,
		PosterKey:      f.PosterKey,
		OrganisationID: org.ID,
		PostedByID:     actor.ID,
	}
	if err := s.store.Create(ctx, e); err != nil {
		return nil, apperr.Internal("create event", err)
	}
	s.logger.Info("event created", zap.Int64("event_id", e.ID), zap.Int64("organisation_id", org.ID))
	return e, nil
}

// List returns events matching the filter, soonest first.
func (s *Service) List(ctx context.Context, f models.EventFilter) ([]models.EventListItem, error) {
	list, err := s.store.List(ctx, f)
	if err != nil {
		return nil, apperr.Internal("list events", err)
	}
	return list, nil
}

// Get returns the event detail. When actor is not nil, HasApplied reports
// whether the actor holds a signup for the event.
func (s *Service) Get(ctx context.Context, id int64, actor *models.Actor) (*models.EventDetail, error) {
	d, err := s.store.GetDetail(ctx, id)
	if err != nil {
		if errors.Is(err, database.ErrNotFound) {
			return nil, ErrEventNotFound
		}
		return nil, apperr.Internal("get event", err)
	}
	if actor != nil {
		applied, err := s.store.HasSignup(ctx, id, actor.ID)
		if err != nil {
			return nil, apperr.Internal("check signup", err)
		}
		d.HasApplied = applied
	}
	return d, nil
}

// Update applies the fields set in patch. The signup count is not editable and
// capacity cannot drop below it.
func (s *Service) Update(ctx context.Context, actor models.Actor, id int64, patch models.EventPatch) (*models.Event, error) {
	existing, err := s.owned(ctx, actor, id, ErrNotAllowedToUpdate)
	if err != nil {
		return nil, err
	}
	if patch.PosterKey != nil && *patch.PosterKey != "" && !storage.PosterKeyOwnedBy(*patch.PosterKey, actor.ID) {
		return nil, ErrForeignPoster
	}
	f := existing.Fields()
	patch.Apply(&f)
	if err := validation.Struct(f); err != nil {
		return nil, err
	}
	if f.MaxVolunteers < existing.CurrentVolCount {
		return nil, ErrCapacityBelowSignups
	}
	updated, err := s.store.Update(ctx, id, f)
	switch {
	case errors.Is(err, errCapacityBelowSignups):
		return nil, ErrCapacityBelowSignups
	case errors.Is(err, database.ErrNotFound):
		return nil, ErrEventNotFound
	case err != nil:
		return nil, apperr.Internal("update event", err)
	}
	if existing.PosterKey != "" && existing.PosterKey != updated.PosterKey {
		s.cleanupPoster(ctx, existing.ID, existing.PosterKey)
	}
	return updated, nil
}

// Delete removes the event and its signups.
func (s *Service) Delete(ctx context.Context, actor models.Actor, id int64) error {
	existing, err := s.owned(ctx, actor, id, ErrNotAllowedToDelete)
	if err != nil {
		return err
	}
	if err := s.store.Delete(ctx, id); err != nil {
		if errors.Is(err, database.ErrNotFound) {
			return ErrEventNotFound
		}
		return apperr.Internal("delete event", err)
	}
	s.logger.Info("event deleted", zap.Int64("event_id", id), zap.Int("signups_removed", existing.CurrentVolCount))
	if existing.PosterKey != "" {
		s.cleanupPoster(ctx, id, existing.PosterKey)
	}
	return nil
}

// ListMine returns the events the actor posted, latest first.
func (s *Service) ListMine(ctx context.Context, actor models.Actor) ([]models.Event, error) {
	list, err := s.store.ListByPoster(ctx, actor.ID)
	if err != nil {
		return nil, apperr.Internal("list own events", err)
	}
	return list, nil
}

func (s *Service) owned(ctx context.Context, actor models.Actor, id int64, denied error) (*models.Event, error) {
	e, err := s.store.Get(ctx, id)
	if err != nil {
		if errors.Is(err, database.ErrNotFound) {
			return nil, ErrEventNotFound
		}
		return nil, apperr.Internal("get event", err)
	}
	if !e.IsPostedBy(actor.ID) {
		return nil, denied
	}
	return e, nil
}

func (s *Service) cleanupPoster(ctx context.Context, eventID int64, key string) {
	if s.posters == nil {
		return
	}
	if err := s.posters.EnqueuePosterCleanup(ctx, key); err != nil {
		s.logger.Warn("enqueue poster cleanup failed",
			zap.Int64("event_id", eventID), zap.String("poster_key", key), zap.Error(err))
	}
}
