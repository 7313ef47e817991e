package volunteers

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/volunteer-connect/backend/internal/auth"
	"github.com/volunteer-connect/backend/internal/models"
	"github.com/volunteer-connect/backend/pkg/database"
)

// Repository handles profile persistence.
type Repository struct {
	pool *pgxpool.Pool
}

// NewRepository creates a profile repository.
func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

// GetUser returns a user by ID.
func (r *Repository) GetUser(ctx context.Context, id int64) (*models.User, error) {
	var u models.User
	if err := auth.ScanUser(r.pool.QueryRow(ctx, `SELECT `+auth.UserColumns+` FROM users WHERE id = $1`, id), &u); err != nil {
		return nil, database.NotFound(err)
	}
	return &u, nil
}

// UpdateProfile writes the editable profile fields.
func (r *Repository) UpdateProfile(ctx context.Context, u *models.User) error {
	const q = `UPDATE users SET name = $2, phone = NULLIF($3, ''), city = NULLIF($4, ''), state = NULLIF($5, ''),
		country = NULLIF($6, ''), skills = NULLIF($7, ''), updated_at = NOW()
		WHERE id = $1
		RETURNING total_hours, updated_at`
	err := r.pool.QueryRow(ctx, q, u.ID, u.Name, u.Phone, u.City, u.State, u.Country, u.Skills).
		Scan(&u.TotalHours, &u.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return database.ErrNotFound
		}
		return fmt.Errorf("update profile: %w", err)
	}
	return nil
}
