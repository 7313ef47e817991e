package dashboard

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/volunteer-connect/backend/internal/events"
	"github.com/volunteer-connect/backend/internal/models"
)

// Repository reads dashboard data.
type Repository struct {
	*events.Repository
	pool *pgxpool.Pool
}

// NewRepository creates a dashboard repository.
func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{Repository: events.NewRepository(pool), pool: pool}
}

var eventSummariesQuery = `SELECT ` + events.Columns("e") + `,
		(SELECT COUNT(*) FROM event_signups s WHERE s.event_id = e.id)
		FROM events e
		WHERE e.organisation_id = $1
		ORDER BY e.date DESC, e.id DESC`

// EventSummaries returns the organisation's events with signup counts, latest date first.
func (r *Repository) EventSummaries(ctx context.Context, organisationID int64) ([]models.RecentEvent, error) {
	rows, err := r.pool.Query(ctx, eventSummariesQuery, organisationID)
	if err != nil {
		return nil, fmt.Errorf("list event summaries: %w", err)
	}
	defer rows.Close()

	list := []models.RecentEvent{}
	for rows.Next() {
		var re models.RecentEvent
		if err := events.Scan(rows, &re.Event, &re.SignupCount); err != nil {
			return nil, fmt.Errorf("scan event summary: %w", err)
		}
		list = append(list, re)
	}
	return list, rows.Err()
}
