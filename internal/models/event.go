package models

import (
	"encoding/json"
	"time"
)

// Event is a volunteer event posted by an organiser on behalf of their organisation.
type Event struct {
	ID              int64     `json:"id"`
	Title           string    `json:"title"`
	Description     string    `json:"description"`
	Category        string    `json:"category"`
	Date            time.Time `json:"date"`
	DurationHours   float64   `json:"durationHours"`
	LocationText    string    `json:"locationText"`
	Lat             *float64  `json:"lat"`
	Lng             *float64  `json:"lng"`
	SkillsRequired  string    `json:"skillsRequired"`
	MaxVolunteers   int       `json:"maxVolunteers"`
	CurrentVolCount int       `json:"currentVolCount"`
	PosterURL       string    `json:"posterUrl"`
	PosterKey       string    `json:"-"`
	OrganisationID  int64     `json:"organisationId"`
	PostedByID      int64     `json:"postedById"`
	CreatedAt       time.Time `json:"createdAt"`
	UpdatedAt       time.Time `json:"updatedAt"`
}

// IsFull reports whether no capacity is left.
func (e *Event) IsFull() bool { return e.CurrentVolCount >= e.MaxVolunteers }

// IsPostedBy reports whether userID is the organiser who posted the event.
func (e *Event) IsPostedBy(userID int64) bool { return e.PostedByID == userID }

// Fields returns the editable fields of the event.
func (e *Event) Fields() EventFields {
	return EventFields{
		Title:          e.Title,
		Description:    e.Description,
		Category:       e.Category,
		Date:           e.Date,
		DurationHours:  e.DurationHours,
		LocationText:   e.LocationText,
		Lat:            e.Lat,
		Lng:            e.Lng,
		SkillsRequired: e.SkillsRequired,
		MaxVolunteers:  e.MaxVolunteers,
		PosterURL:      e.PosterURL,
		PosterKey:      e.PosterKey,
	}
}

// EventFields are the organiser-supplied attributes of an event.
type EventFields struct {
	Title          string    `validate:"required"`
	Description    string    `validate:"required"`
	Category       string    `validate:"required"`
	Date           time.Time `validate:"required"`
	DurationHours  float64   `validate:"gt=0"`
	LocationText   string    `validate:"required"`
	Lat            *float64  `validate:"omitempty,gte=-90,lte=90"`
	Lng            *float64  `validate:"omitempty,gte=-180,lte=180"`
	SkillsRequired string
	MaxVolunteers  int    `validate:"gt=0"`
	PosterURL      string `validate:"omitempty,url"`
	PosterKey      string
}

// EventPatch holds the fields of a partial update; nil means unchanged.
type EventPatch struct {
	Title          *string
	Description    *string
	Category       *string
	Date           *time.Time
	DurationHours  *float64
	LocationText   *string
	Lat            OptionalFloat
	Lng            OptionalFloat
	SkillsRequired *string
	MaxVolunteers  *int
	PosterURL      *string
	PosterKey      *string
}

// OptionalFloat is a nullable patch field. Set is false when the JSON key is
// absent; a JSON null sets it with a nil Value, which clears the field.
type OptionalFloat struct {
	Set   bool
	Value *float64
}

// SetFloat returns an OptionalFloat holding v.
func SetFloat(v float64) OptionalFloat {
	return OptionalFloat{Set: true, Value: &v}
}

// UnmarshalJSON implements json.Unmarshaler.
func (o *OptionalFloat) UnmarshalJSON(b []byte) error {
	o.Set = true
	if string(b) == "null" {
		o.Value = nil
		return nil
	}
	var v float64
	if err := json.Unmarshal(b, &v); err != nil {
		return err
	}
	o.Value = &v
	return nil
}

// Apply overwrites f with every field set in p.
func (p EventPatch) Apply(f *EventFields) {
	if p.Title != nil {
		f.Title = *p.Title
	}
	if p.Description != nil {
		f.Description = *p.Description
	}
	if p.Category != nil {
		f.Category = *p.Category
	}
	if p.Date != nil {
		f.Date = *p.Date
	}
	if p.DurationHours != nil {
		f.DurationHours = *p.DurationHours
	}
	if p.LocationText != nil {
		f.LocationText = *p.LocationText
	}
	if p.Lat.Set {
		f.Lat = p.Lat.Value
	}
	if p.Lng.Set {
		f.Lng = p.Lng.Value
	}
	if p.SkillsRequired != nil {
		f.SkillsRequired = *p.SkillsRequired
	}
	if p.MaxVolunteers != nil {
		f.MaxVolunteers = *p.MaxVolunteers
	}
	if p.PosterURL != nil {
		f.PosterURL = *p.PosterURL
	}
	if p.PosterKey != nil {
		f.PosterKey = *p.PosterKey
	}
}

// EventListItem is an event annotated with its organisation's display fields.
type EventListItem struct {
	Event
	Organisation OrganisationSummary `json:"organisation"`
}

// PosterIdentity identifies the organiser who posted an event.
type PosterIdentity struct {
	Name  string `json:"name"`
	Email string `json:"email"`
}

// EventDetail is the single-event view.
type EventDetail struct {
	Event
	Organisation Organisation   `json:"organisation"`
	PostedBy     PosterIdentity `json:"postedBy"`
	HasApplied   bool           `json:"hasApplied"`
}

// EventFilter selects events for listing. Empty fields do not filter.
type EventFilter struct {
	Category string
	Location string
	Search   string
}
