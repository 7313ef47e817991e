package models

import (
	"fmt"
	"time"
)

// Role is the capability tag of a user. The two roles are mutually exclusive.
type Role string

const (
	RoleVolunteer Role = "VOLUNTEER"
	RoleOrganiser Role = "ORGANISER"
)

// ParseRole converts a role string into a Role.
func ParseRole(s string) (Role, error) {
	switch Role(s) {
	case RoleVolunteer, RoleOrganiser:
		return Role(s), nil
	default:
		return "", fmt.Errorf("unknown role %q", s)
	}
}

// User represents a platform user.
type User struct {
	ID           int64     `json:"id"`
	Name         string    `json:"name"`
	Email        string    `json:"email"`
	PasswordHash string    `json:"-"`
	Role         Role      `json:"role"`
	Phone        string    `json:"phone"`
	City         string    `json:"city"`
	State        string    `json:"state"`
	Country      string    `json:"country"`
	Skills       string    `json:"skills"`
	TotalHours   float64   `json:"totalHours"`
	CreatedAt    time.Time `json:"createdAt"`
	UpdatedAt    time.Time `json:"updatedAt"`
}

// UserPublic is User without profile and credential fields, returned with auth tokens.
type UserPublic struct {
	ID    int64  `json:"id"`
	Name  string `json:"name"`
	Email string `json:"email"`
	Role  Role   `json:"role"`
}

// ToPublic converts User to UserPublic.
func (u *User) ToPublic() UserPublic {
	return UserPublic{
		ID:    u.ID,
		Name:  u.Name,
		Email: u.Email,
		Role:  u.Role,
	}
}

// Actor is the authenticated identity a request acts as.
type Actor struct {
	ID   int64
	Role Role
}

// IsVolunteer reports whether the actor has volunteer capability.
func (a Actor) IsVolunteer() bool { return a.Role == RoleVolunteer }

// IsOrganiser reports whether the actor has organiser capability.
func (a Actor) IsOrganiser() bool { return a.Role == RoleOrganiser }

// ProfilePatch holds the user-editable profile fields; nil means unchanged.
// TotalHours is not editable; it changes only through attendance.
type ProfilePatch struct {
	Name    *string
	Phone   *string
	City    *string
	State   *string
	Country *string
	Skills  *string
}

// Apply overwrites u's profile fields with every field set in p.
func (p ProfilePatch) Apply(u *User) {
	for dst, src := range map[*string]*string{
		&u.Name: p.Name, &u.Phone: p.Phone, &u.City: p.City,
		&u.State: p.State, &u.Country: p.Country, &u.Skills: p.Skills,
	} {
		if src != nil {
			*dst = *src
		}
	}
}
