package models

import "time"

// Organisation is the profile owned by exactly one organiser.
type Organisation struct {
	ID          int64     `json:"id"`
	Name        string    `json:"name"`
	Description string    `json:"description"`
	Website     string    `json:"website"`
	LogoURL     string    `json:"logoUrl"`
	Verified    bool      `json:"verified"`
	OrganiserID int64     `json:"organiserId"`
	CreatedAt   time.Time `json:"createdAt"`
	UpdatedAt   time.Time `json:"updatedAt"`
}

// OrganisationSummary is the organisation annotation attached to event listings.
type OrganisationSummary struct {
	Name    string `json:"name"`
	LogoURL string `json:"logoUrl"`
}

// OrganisationFields are the organiser-supplied attributes of an organisation.
type OrganisationFields struct {
	Name        string `validate:"required"`
	Description string
	Website     string `validate:"omitempty,url"`
	LogoURL     string `validate:"omitempty,url"`
}
