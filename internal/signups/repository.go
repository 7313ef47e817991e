package signups

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/volunteer-connect/backend/internal/events"
	"github.com/volunteer-connect/backend/internal/models"
	"github.com/volunteer-connect/backend/pkg/database"
)

const signupColumns = `s.id, s.event_id, s.volunteer_id, s.status, s.hours_logged, s.created_at, s.updated_at`

func scanSignup(row pgx.Row, s *models.Signup, extra ...interface{}) error {
	dest := []interface{}{&s.ID, &s.EventID, &s.VolunteerID, &s.Status, &s.HoursLogged, &s.CreatedAt, &s.UpdatedAt}
	return row.Scan(append(dest, extra...)...)
}

// Repository handles signup persistence.
type Repository struct {
	pool *pgxpool.Pool
}

// NewRepository creates a signup repository.
func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

// InTx runs fn in a database transaction.
func (r *Repository) InTx(ctx context.Context, fn func(Tx) error) error {
	return database.WithTx(ctx, r.pool, func(tx pgx.Tx) error {
		return fn(&txRepository{tx: tx})
	})
}

// GetEvent returns an event by ID.
func (r *Repository) GetEvent(ctx context.Context, eventID int64) (*models.Event, error) {
	q := `SELECT ` + events.Columns("") + ` FROM events WHERE id = $1`
	var e models.Event
	if err := events.Scan(r.pool.QueryRow(ctx, q, eventID), &e); err != nil {
		return nil, database.NotFound(err)
	}
	return &e, nil
}

// GetSignup returns a signup by ID.
func (r *Repository) GetSignup(ctx context.Context, signupID int64) (*models.Signup, error) {
	q := `SELECT ` + signupColumns + ` FROM event_signups s WHERE s.id = $1`
	var s models.Signup
	if err := scanSignup(r.pool.QueryRow(ctx, q, signupID), &s); err != nil {
		return nil, database.NotFound(err)
	}
	return &s, nil
}

var (
	listByEventQuery = `SELECT ` + signupColumns + `, u.id, u.name, u.email, COALESCE(u.phone, ''), COALESCE(u.skills, '')
		FROM event_signups s JOIN users u ON u.id = s.volunteer_id
		WHERE s.event_id = $1
		ORDER BY s.created_at DESC, s.id DESC`

	listByVolunteerQuery = `SELECT ` + signupColumns + `, ` + events.Columns("e") + `, o.name, COALESCE(o.logo_url, '')
		FROM event_signups s
		JOIN events e ON e.id = s.event_id
		JOIN organisations o ON o.id = e.organisation_id
		WHERE s.volunteer_id = $1
		ORDER BY s.created_at DESC, s.id DESC`
)

// ListByEvent returns the event's signups with volunteer contact details, newest first.
func (r *Repository) ListByEvent(ctx context.Context, eventID int64) ([]models.EventSignup, error) {
	rows, err := r.pool.Query(ctx, listByEventQuery, eventID)
	if err != nil {
		return nil, fmt.Errorf("list signups by event: %w", err)
	}
	defer rows.Close()

	list := []models.EventSignup{}
	for rows.Next() {
		var es models.EventSignup
		v := &es.Volunteer
		if err := scanSignup(rows, &es.Signup, &v.ID, &v.Name, &v.Email, &v.Phone, &v.Skills); err != nil {
			return nil, fmt.Errorf("scan signup: %w", err)
		}
		list = append(list, es)
	}
	return list, rows.Err()
}

// ListByVolunteer returns the volunteer's signups with event and organisation, newest first.
func (r *Repository) ListByVolunteer(ctx context.Context, volunteerID int64) ([]models.VolunteerSignup, error) {
	rows, err := r.pool.Query(ctx, listByVolunteerQuery, volunteerID)
	if err != nil {
		return nil, fmt.Errorf("list signups by volunteer: %w", err)
	}
	defer rows.Close()

	list := []models.VolunteerSignup{}
	for rows.Next() {
		var vs models.VolunteerSignup
		e := &vs.Event.Event
		org := &vs.Event.Organisation
		err := scanSignup(rows, &vs.Signup,
			&e.ID, &e.Title, &e.Description, &e.Category, &e.Date, &e.DurationHours, &e.LocationText,
			&e.Lat, &e.Lng, &e.SkillsRequired, &e.MaxVolunteers, &e.CurrentVolCount,
			&e.PosterURL, &e.PosterKey, &e.OrganisationID, &e.PostedByID, &e.CreatedAt, &e.UpdatedAt,
			&org.Name, &org.LogoURL)
		if err != nil {
			return nil, fmt.Errorf("scan signup: %w", err)
		}
		list = append(list, vs)
	}
	return list, rows.Err()
}

// txRepository implements Tx over a pgx transaction.
type txRepository struct {
	tx pgx.Tx
}

func (t *txRepository) LockEvent(ctx context.Context, eventID int64) (*models.Event, error) {
	q := `SELECT ` + events.Columns("") + ` FROM events WHERE id = $1 FOR UPDATE`
	var e models.Event
	if err := events.Scan(t.tx.QueryRow(ctx, q, eventID), &e); err != nil {
		return nil, database.NotFound(err)
	}
	return &e, nil
}

func (t *txRepository) LockSignup(ctx context.Context, signupID int64) (*models.Signup, error) {
	q := `SELECT ` + signupColumns + ` FROM event_signups s WHERE s.id = $1 FOR UPDATE`
	var s models.Signup
	if err := scanSignup(t.tx.QueryRow(ctx, q, signupID), &s); err != nil {
		return nil, database.NotFound(err)
	}
	return &s, nil
}

func (t *txRepository) SignupExists(ctx context.Context, eventID, volunteerID int64) (bool, error) {
	const q = `SELECT EXISTS (SELECT 1 FROM event_signups WHERE event_id = $1 AND volunteer_id = $2)`
	var ok bool
	if err := t.tx.QueryRow(ctx, q, eventID, volunteerID).Scan(&ok); err != nil {
		return false, fmt.Errorf("check signup: %w", err)
	}
	return ok, nil
}

func (t *txRepository) InsertSignup(ctx context.Context, s *models.Signup) error {
	const q = `INSERT INTO event_signups (event_id, volunteer_id, status) VALUES ($1, $2, $3)
		RETURNING id, hours_logged, created_at, updated_at`
	err := t.tx.QueryRow(ctx, q, s.EventID, s.VolunteerID, s.Status).Scan(&s.ID, &s.HoursLogged, &s.CreatedAt, &s.UpdatedAt)
	if err != nil {
		if database.IsUniqueViolation(err, "event_signups_event_volunteer_key") {
			return ErrAlreadyApplied
		}
		return fmt.Errorf("insert signup: %w", err)
	}
	return nil
}

func (t *txRepository) DeleteSignup(ctx context.Context, signupID int64) error {
	tag, err := t.tx.Exec(ctx, `DELETE FROM event_signups WHERE id = $1`, signupID)
	if err != nil {
		return fmt.Errorf("delete signup: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return database.ErrNotFound
	}
	return nil
}

func (t *txRepository) AdjustVolunteerCount(ctx context.Context, eventID int64, delta int) error {
	const q = `UPDATE events SET current_vol_count = current_vol_count + $2, updated_at = NOW() WHERE id = $1`
	tag, err := t.tx.Exec(ctx, q, eventID, delta)
	if err != nil {
		if database.IsCheckViolation(err, "events_capacity_check") && delta > 0 {
			return ErrEventFull
		}
		return fmt.Errorf("adjust volunteer count: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return database.ErrNotFound
	}
	return nil
}

func (t *txRepository) SetStatus(ctx context.Context, signupID int64, status models.SignupStatus, hoursLogged *float64) (*models.Signup, error) {
	q := `UPDATE event_signups s SET status = $2, hours_logged = COALESCE($3, s.hours_logged), updated_at = NOW()
		WHERE s.id = $1
		RETURNING ` + signupColumns
	var s models.Signup
	if err := scanSignup(t.tx.QueryRow(ctx, q, signupID, status, hoursLogged), &s); err != nil {
		return nil, database.NotFound(err)
	}
	return &s, nil
}

func (t *txRepository) AddVolunteerHours(ctx context.Context, volunteerID int64, hours float64) error {
	const q = `UPDATE users SET total_hours = total_hours + $2, updated_at = NOW() WHERE id = $1`
	tag, err := t.tx.Exec(ctx, q, volunteerID, hours)
	if err != nil {
		return fmt.Errorf("add volunteer hours: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return database.ErrNotFound
	}
	return nil
}
