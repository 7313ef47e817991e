package auth

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/volunteer-connect/backend/internal/models"
	"github.com/volunteer-connect/backend/pkg/database"
)

var errDuplicateEmail = errors.New("email already registered")

// UserColumns is the user column list matching ScanUser.
const UserColumns = `id, name, email, password_hash, role, COALESCE(phone, ''), COALESCE(city, ''),
	COALESCE(state, ''), COALESCE(country, ''), COALESCE(skills, ''), total_hours, created_at, updated_at`

// ScanUser reads a row selected with UserColumns.
func ScanUser(row pgx.Row, u *models.User) error {
	return row.Scan(&u.ID, &u.Name, &u.Email, &u.PasswordHash, &u.Role, &u.Phone, &u.City,
		&u.State, &u.Country, &u.Skills, &u.TotalHours, &u.CreatedAt, &u.UpdatedAt)
}

// Repository handles user persistence.
type Repository struct {
	pool *pgxpool.Pool
}

// NewRepository creates an auth repository.
func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

// CreateUser inserts a user.
func (r *Repository) CreateUser(ctx context.Context, u *models.User) error {
	return insertUser(ctx, r.pool, u)
}

// CreateOrganiser inserts the organiser and their organisation in one transaction.
func (r *Repository) CreateOrganiser(ctx context.Context, u *models.User, o *models.Organisation) error {
	return database.WithTx(ctx, r.pool, func(tx pgx.Tx) error {
		if err := insertUser(ctx, tx, u); err != nil {
			return err
		}
		o.OrganiserID = u.ID
		const q = `INSERT INTO organisations (name, description, logo_url, organiser_id)
			VALUES ($1, NULLIF($2, ''), NULLIF($3, ''), $4)
			RETURNING id, COALESCE(website, ''), verified, created_at, updated_at`
		err := tx.QueryRow(ctx, q, o.Name, o.Description, o.LogoURL, o.OrganiserID).
			Scan(&o.ID, &o.Website, &o.Verified, &o.CreatedAt, &o.UpdatedAt)
		if err != nil {
			return fmt.Errorf("insert organisation: %w", err)
		}
		return nil
	})
}

// GetByEmail returns a user by email.
func (r *Repository) GetByEmail(ctx context.Context, email string) (*models.User, error) {
	var u models.User
	if err := ScanUser(r.pool.QueryRow(ctx, `SELECT `+UserColumns+` FROM users WHERE email = $1`, email), &u); err != nil {
		return nil, database.NotFound(err)
	}
	return &u, nil
}

func insertUser(ctx context.Context, db database.Querier, u *models.User) error {
	const q = `INSERT INTO users (name, email, password_hash, role) VALUES ($1, $2, $3, $4)
		RETURNING id, total_hours, created_at, updated_at`
	err := db.QueryRow(ctx, q, u.Name, u.Email, u.PasswordHash, u.Role).
		Scan(&u.ID, &u.TotalHours, &u.CreatedAt, &u.UpdatedAt)
	if err != nil {
		if database.IsUniqueViolation(err, "users_email_key") {
			return errDuplicateEmail
		}
		return fmt.Errorf("insert user: %w", err)
	}
	return nil
}
