package organisations

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/volunteer-connect/backend/internal/models"
	"github.com/volunteer-connect/backend/pkg/database"
)

// ErrDuplicateProfile is returned by Insert when the organiser already owns an organisation.
var ErrDuplicateProfile = errors.New("organisation already exists for organiser")

// Repository handles organisation persistence.
type Repository struct {
	pool *pgxpool.Pool
}

// NewRepository creates an organisation repository.
func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

// Create inserts an organisation.
func (r *Repository) Create(ctx context.Context, o *models.Organisation) error {
	return Insert(ctx, r.pool, o)
}

// GetByOrganiser returns the organisation owned by the organiser.
func (r *Repository) GetByOrganiser(ctx context.Context, organiserID int64) (*models.Organisation, error) {
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

// Insert adds o using db, which may be a pool or a transaction.
func Insert(ctx context.Context, db database.Querier, o *models.Organisation) error {
	const q = `INSERT INTO organisations (name, description, website, logo_url, organiser_id)
		VALUES ($1, NULLIF($2, ''), NULLIF($3, ''), NULLIF($4, ''), $5)
		RETURNING id, verified, created_at, updated_at`
	err := db.QueryRow(ctx, q, o.Name, o.Description, o.Website, o.LogoURL, o.OrganiserID).
		Scan(&o.ID, &o.Verified, &o.CreatedAt, &o.UpdatedAt)
	if err != nil {
		if database.IsUniqueViolation(err, "organisations_organiser_id_key") {
			return ErrDuplicateProfile
		}
		return fmt.Errorf("insert organisation: %w", err)
	}
	return nil
}
