package events

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/volunteer-connect/backend/internal/models"
	"github.com/volunteer-connect/backend/pkg/database"
)

// errCapacityBelowSignups is returned by Update when the capacity check rejects
// a maxVolunteers lower than the current signup count.
var errCapacityBelowSignups = errors.New("max_volunteers below current_vol_count")

// Columns returns the event column list, qualified with alias when it is not empty.
// It matches the destination order of Scan.
func Columns(alias string) string {
	p := ""
	if alias != "" {
		p = alias + "."
	}
	cols := []string{
		"id", "title", "description", "category", "date", "duration_hours", "location_text",
		"lat", "lng", "COALESCE(%sskills_required, '')", "max_volunteers", "current_vol_count",
		"COALESCE(%sposter_url, '')", "COALESCE(%sposter_key, '')", "organisation_id", "posted_by_id",
		"created_at", "updated_at",
	}
	for i, c := range cols {
		if strings.Contains(c, "%s") {
			cols[i] = fmt.Sprintf(c, p)
		} else {
			cols[i] = p + c
		}
	}
	return strings.Join(cols, ", ")
}

// Scan reads a row selected with Columns into e, followed by any extra destinations.
func Scan(row pgx.Row, e *models.Event, extra ...interface{}) error {
	dest := []interface{}{
		&e.ID, &e.Title, &e.Description, &e.Category, &e.Date, &e.DurationHours, &e.LocationText,
		&e.Lat, &e.Lng, &e.SkillsRequired, &e.MaxVolunteers, &e.CurrentVolCount,
		&e.PosterURL, &e.PosterKey, &e.OrganisationID, &e.PostedByID, &e.CreatedAt, &e.UpdatedAt,
	}
	return row.Scan(append(dest, extra...)...)
}

// Repository handles event persistence.
type Repository struct {
	pool *pgxpool.Pool
}

// NewRepository creates an event repository.
func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

// OrganisationByOrganiser returns the organisation owned by the organiser.
func (r *Repository) OrganisationByOrganiser(ctx context.Context, organiserID int64) (*models.Organisation, error) {
	const q = `SELECT id, name, COALESCE(description, ''), COALESCE(website, ''), COALESCE(logo_url, ''),
		verified, organiser_id, created_at, updated_at
		FROM organisations WHERE organiser_id = $1`
	var o models.Organisation
	err := r.pool.QueryRow(ctx, q, organiserID).Scan(&o.ID, &o.Name, &o.Description, &o.Website, &o.LogoURL,
		&o.Verified, &o.OrganiserID, &o.CreatedAt, &o.UpdatedAt)
	if err != nil {
		return nil, database.NotFound(err)
	}
	return &o, nil
}

// Create inserts a new event with a zero signup count.
func (r *Repository) Create(ctx context.Context, e *models.Event) error {
	const q = `INSERT INTO events (title, description, category, date, duration_hours, location_text, lat, lng,
		skills_required, max_volunteers, current_vol_count, poster_url, poster_key, organisation_id, posted_by_id)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, NULLIF($9, ''), $10, 0, NULLIF($11, ''), NULLIF($12, ''), $13, $14)
		RETURNING id, current_vol_count, created_at, updated_at`
	err := r.pool.QueryRow(ctx, q, e.Title, e.Description, e.Category, e.Date, e.DurationHours, e.LocationText,
		e.Lat, e.Lng, e.SkillsRequired, e.MaxVolunteers, e.PosterURL, e.PosterKey, e.OrganisationID, e.PostedByID).
		Scan(&e.ID, &e.CurrentVolCount, &e.CreatedAt, &e.UpdatedAt)
	if err != nil {
		return fmt.Errorf("insert event: %w", err)
	}
	return nil
}

// List returns events matching f, date ascending, with organisation name and logo.
func (r *Repository) List(ctx context.Context, f models.EventFilter) ([]models.EventListItem, error) {
	q, args := listQuery(f)
	rows, err := r.pool.Query(ctx, q, args...)
	if err != nil {
		return nil, fmt.Errorf("list events: %w", err)
	}
	defer rows.Close()

	list := []models.EventListItem{}
	for rows.Next() {
		var item models.EventListItem
		if err := Scan(rows, &item.Event, &item.Organisation.Name, &item.Organisation.LogoURL); err != nil {
			return nil, fmt.Errorf("scan event: %w", err)
		}
		list = append(list, item)
	}
	return list, rows.Err()
}

// listQuery builds the filtered event list query. Category matches exactly;
// location and search are case-insensitive substrings, search covering title or description.
func listQuery(f models.EventFilter) (string, []interface{}) {
	var (
		conds []string
		args  []interface{}
	)
	if f.Category != "" {
		args = append(args, f.Category)
		conds = append(conds, fmt.Sprintf("e.category = $%d", len(args)))
	}
	if f.Location != "" {
		args = append(args, containsPattern(f.Location))
		conds = append(conds, fmt.Sprintf("e.location_text ILIKE $%d", len(args)))
	}
	if f.Search != "" {
		args = append(args, containsPattern(f.Search))
		conds = append(conds, fmt.Sprintf("(e.title ILIKE $%d OR e.description ILIKE $%d)", len(args), len(args)))
	}
	q := `SELECT ` + Columns("e") + `, o.name, COALESCE(o.logo_url, '')
		FROM events e JOIN organisations o ON o.id = e.organisation_id`
	if len(conds) > 0 {
		q += " WHERE " + strings.Join(conds, " AND ")
	}
	return q + " ORDER BY e.date ASC, e.id ASC", args
}

// Get returns an event by ID.
func (r *Repository) Get(ctx context.Context, id int64) (*models.Event, error) {
	q := `SELECT ` + Columns("") + ` FROM events WHERE id = $1`
	var e models.Event
	if err := Scan(r.pool.QueryRow(ctx, q, id), &e); err != nil {
		return nil, database.NotFound(err)
	}
	return &e, nil
}

// GetDetail returns an event with its organisation and the identity of its poster.
func (r *Repository) GetDetail(ctx context.Context, id int64) (*models.EventDetail, error) {
	q := `SELECT ` + Columns("e") + `,
		o.id, o.name, COALESCE(o.description, ''), COALESCE(o.website, ''), COALESCE(o.logo_url, ''),
		o.verified, o.organiser_id, o.created_at, o.updated_at,
		u.name, u.email
		FROM events e
		JOIN organisations o ON o.id = e.organisation_id
		JOIN users u ON u.id = e.posted_by_id
		WHERE e.id = $1`
	var d models.EventDetail
	o := &d.Organisation
	err := Scan(r.pool.QueryRow(ctx, q, id), &d.Event,
		&o.ID, &o.Name, &o.Description, &o.Website, &o.LogoURL, &o.Verified, &o.OrganiserID, &o.CreatedAt, &o.UpdatedAt,
		&d.PostedBy.Name, &d.PostedBy.Email)
	if err != nil {
		return nil, database.NotFound(err)
	}
	return &d, nil
}

// HasSignup reports whether the volunteer holds a signup for the event.
func (r *Repository) HasSignup(ctx context.Context, eventID, volunteerID int64) (bool, error) {
	const q = `SELECT EXISTS (SELECT 1 FROM event_signups WHERE event_id = $1 AND volunteer_id = $2)`
	var ok bool
	if err := r.pool.QueryRow(ctx, q, eventID, volunteerID).Scan(&ok); err != nil {
		return false, fmt.Errorf("check signup: %w", err)
	}
	return ok, nil
}

// Update overwrites the editable fields of an event. current_vol_count is never written.
func (r *Repository) Update(ctx context.Context, id int64, f models.EventFields) (*models.Event, error) {
	q := `UPDATE events SET title = $2, description = $3, category = $4, date = $5, duration_hours = $6,
		location_text = $7, lat = $8, lng = $9, skills_required = NULLIF($10, ''), max_volunteers = $11,
		poster_url = NULLIF($12, ''), poster_key = NULLIF($13, ''), updated_at = NOW()
		WHERE id = $1
		RETURNING ` + Columns("")
	var e models.Event
	err := Scan(r.pool.QueryRow(ctx, q, id, f.Title, f.Description, f.Category, f.Date, f.DurationHours,
		f.LocationText, f.Lat, f.Lng, f.SkillsRequired, f.MaxVolunteers, f.PosterURL, f.PosterKey), &e)
	if err != nil {
		if database.IsCheckViolation(err, "events_capacity_check") {
			return nil, errCapacityBelowSignups
		}
		return nil, database.NotFound(err)
	}
	return &e, nil
}

// Delete removes an event; its signups cascade.
func (r *Repository) Delete(ctx context.Context, id int64) error {
	tag, err := r.pool.Exec(ctx, `DELETE FROM events WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete event: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return database.ErrNotFound
	}
	return nil
}

var listByPosterQuery = `SELECT ` + Columns("") + ` FROM events WHERE posted_by_id = $1 ORDER BY date DESC, id DESC`

// ListByPoster returns events posted by the user, date descending.
func (r *Repository) ListByPoster(ctx context.Context, userID int64) ([]models.Event, error) {
	rows, err := r.pool.Query(ctx, listByPosterQuery, userID)
	if err != nil {
		return nil, fmt.Errorf("list events by poster: %w", err)
	}
	defer rows.Close()

	list := []models.Event{}
	for rows.Next() {
		var e models.Event
		if err := Scan(rows, &e); err != nil {
			return nil, fmt.Errorf("scan event: %w", err)
		}
		list = append(list, e)
	}
	return list, rows.Err()
}

// containsPattern builds an ILIKE pattern matching s as a literal substring.
func containsPattern(s string) string {
	r := strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)
	return "%" + r.Replace(s) + "%"
}
