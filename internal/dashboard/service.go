// Package dashboard computes the organiser dashboard rollup.
package dashboard

import (
	"context"
	"errors"
	"time"

	"github.com/volunteer-connect/backend/internal/apperr"
	"github.com/volunteer-connect/backend/internal/models"
	"github.com/volunteer-connect/backend/pkg/database"
)

// RecentLimit is the number of events listed in DashboardStats.RecentEvents.
const RecentLimit = 5

var (
	ErrOnlyOrganisers       = apperr.Forbidden("Only organisers have a dashboard")
	ErrOrganisationNotFound = apperr.NotFound("Organisation not found. Create an organisation profile first")
)

// Store is the persistence the dashboard needs.
type Store interface {
	OrganisationByOrganiser(ctx context.Context, organiserID int64) (*models.Organisation, error)
	// EventSummaries returns every event of the organisation with its signup
	// count, latest date first.
	EventSummaries(ctx context.Context, organisationID int64) ([]models.RecentEvent, error)
}

// Service computes organiser stats.
type Service struct {
	store Store
	now   func() time.Time
}

// NewService creates a dashboard service.
func NewService(store Store) *Service {
	return &Service{store: store, now: time.Now}
}

// Stats returns the rollup for the actor's organisation. Events dated now or
// later are active; totalVolunteers counts signups, not distinct volunteers.
func (s *Service) Stats(ctx context.Context, actor models.Actor) (*models.DashboardStats, error) {
	if !actor.IsOrganiser() {
		return nil, ErrOnlyOrganisers
	}
	org, err := s.store.OrganisationByOrganiser(ctx, actor.ID)
	if err != nil {
		if errors.Is(err, database.ErrNotFound) {
			return nil, ErrOrganisationNotFound
		}
		return nil, apperr.Internal("load organisation", err)
	}
	summaries, err := s.store.EventSummaries(ctx, org.ID)
	if err != nil {
		return nil, apperr.Internal("load event summaries", err)
	}

	now := s.now()
	stats := &models.DashboardStats{
		TotalEvents:  len(summaries),
		RecentEvents: []models.RecentEvent{},
	}
	for i, e := range summaries {
		if !e.Date.Before(now) {
			stats.ActiveEvents++
		}
		stats.TotalVolunteers += e.SignupCount
		if i < RecentLimit {
			stats.RecentEvents = append(stats.RecentEvents, e)
		}
	}
	return stats, nil
}
