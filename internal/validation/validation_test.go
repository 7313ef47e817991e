package validation

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/volunteer-connect/backend/internal/apperr"
	"github.com/volunteer-connect/backend/internal/models"
)

func validFields() models.EventFields {
	return models.EventFields{
		Title:         "Beach Cleanup Drive",
		Description:   "Marina beach cleanup",
		Category:      "Environment",
		Date:          time.Date(2026, 11, 15, 9, 0, 0, 0, time.UTC),
		DurationHours: 4,
		LocationText:  "Marina Beach, Chennai",
		MaxVolunteers: 100,
	}
}

func TestStruct_Valid(t *testing.T) {
	assert.NoError(t, Struct(validFields()))
}

func TestStruct_MissingRequired(t *testing.T) {
	f := validFields()
	f.Title = ""
	f.Date = time.Time{}

	err := Struct(f)
	require.Error(t, err)
	assert.Equal(t, apperr.KindValidation, apperr.KindOf(err))
	assert.Contains(t, err.Error(), "title is required")
	assert.Contains(t, err.Error(), "date is required")
}

func TestStruct_NonPositiveNumbers(t *testing.T) {
	f := validFields()
	f.DurationHours = 0
	f.MaxVolunteers = -3

	err := Struct(f)
	require.Error(t, err)
	msg := apperr.MessageOf(err)
	assert.Contains(t, msg, "durationHours must be greater than 0")
	assert.Contains(t, msg, "maxVolunteers must be greater than 0")
}

func TestStruct_Coordinates(t *testing.T) {
	f := validFields()
	lat := 123.0
	f.Lat = &lat

	err := Struct(f)
	require.Error(t, err)
	assert.Contains(t, apperr.MessageOf(err), "lat is out of range")
}
