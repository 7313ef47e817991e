package organisations

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/volunteer-connect/backend/internal/apperr"
	"github.com/volunteer-connect/backend/internal/models"
	"github.com/volunteer-connect/backend/pkg/database"
)

type mockStore struct {
	byOrganiser map[int64]*models.Organisation
	nextID      int64
}

func (m *mockStore) Create(_ context.Context, o *models.Organisation) error {
	if _, ok := m.byOrganiser[o.OrganiserID]; ok {
		return ErrDuplicateProfile
	}
	m.nextID++
	o.ID = m.nextID
	m.byOrganiser[o.OrganiserID] = o
	return nil
}

func (m *mockStore) GetByOrganiser(_ context.Context, organiserID int64) (*models.Organisation, error) {
	if o, ok := m.byOrganiser[organiserID]; ok {
		return o, nil
	}
	return nil, database.ErrNotFound
}

func TestCreateAndGet(t *testing.T) {
	svc := NewService(&mockStore{byOrganiser: map[int64]*models.Organisation{}}, nil)
	organiser := models.Actor{ID: 4, Role: models.RoleOrganiser}

	_, err := svc.Get(context.Background(), organiser)
	assert.ErrorIs(t, err, ErrNotFound)

	o, err := svc.Create(context.Background(), organiser, models.OrganisationFields{
		Name:    "Green Earth",
		Website: "https://greenearth.example.org",
	})
	require.NoError(t, err)
	assert.Equal(t, organiser.ID, o.OrganiserID)
	assert.False(t, o.Verified)

	got, err := svc.Get(context.Background(), organiser)
	require.NoError(t, err)
	assert.Equal(t, "Green Earth", got.Name)

	_, err = svc.Create(context.Background(), organiser, models.OrganisationFields{Name: "Green Earth 2"})
	assert.ErrorIs(t, err, ErrProfileExists)
	assert.Equal(t, apperr.KindConflict, apperr.KindOf(err))
}

func TestCreate_Rules(t *testing.T) {
	svc := NewService(&mockStore{byOrganiser: map[int64]*models.Organisation{}}, nil)

	_, err := svc.Create(context.Background(), models.Actor{ID: 1, Role: models.RoleVolunteer}, models.OrganisationFields{Name: "x"})
	assert.ErrorIs(t, err, ErrOnlyOrganisers)

	_, err = svc.Create(context.Background(), models.Actor{ID: 1, Role: models.RoleOrganiser}, models.OrganisationFields{})
	assert.Equal(t, apperr.KindValidation, apperr.KindOf(err))

	_, err = svc.Create(context.Background(), models.Actor{ID: 1, Role: models.RoleOrganiser},
		models.OrganisationFields{Name: "x", LogoURL: "not a url"})
	assert.Equal(t, apperr.KindValidation, apperr.KindOf(err))
}
