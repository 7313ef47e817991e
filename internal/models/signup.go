package models

import (
	"fmt"
	"time"
)

// SignupStatus is the state of a signup.
type SignupStatus string

const (
	StatusRegistered SignupStatus = "REGISTERED"
	StatusWaitlist   SignupStatus = "WAITLIST"
	StatusAttended   SignupStatus = "ATTENDED"
	StatusRejected   SignupStatus = "REJECTED"
)

// ParseSignupStatus converts s into a SignupStatus, rejecting unknown values.
func ParseSignupStatus(s string) (SignupStatus, error) {
	switch st := SignupStatus(s); st {
	case StatusRegistered, StatusWaitlist, StatusAttended, StatusRejected:
		return st, nil
	default:
		return "", fmt.Errorf("unknown signup status %q", s)
	}
}

// transitions lists the statuses reachable from each status. Staying in the same
// status is always allowed and is a no-op.
var transitions = map[SignupStatus][]SignupStatus{
	StatusRegistered: {StatusAttended, StatusRejected, StatusWaitlist},
	StatusWaitlist:   {StatusRegistered, StatusRejected},
	StatusRejected:   {StatusRegistered},
	StatusAttended:   nil,
}

// CanTransitionTo reports whether a signup in status s may move to next.
func (s SignupStatus) CanTransitionTo(next SignupStatus) bool {
	if s == next {
		return true
	}
	for _, t := range transitions[s] {
		if t == next {
			return true
		}
	}
	return false
}

// Signup is a volunteer's registration against one event.
type Signup struct {
	ID          int64        `json:"id"`
	EventID     int64        `json:"eventId"`
	VolunteerID int64        `json:"volunteerId"`
	Status      SignupStatus `json:"status"`
	HoursLogged *float64     `json:"hoursLogged"`
	CreatedAt   time.Time    `json:"createdAt"`
	UpdatedAt   time.Time    `json:"updatedAt"`
}

// VolunteerContact is the volunteer detail shown to the event's organiser.
type VolunteerContact struct {
	ID     int64  `json:"id"`
	Name   string `json:"name"`
	Email  string `json:"email"`
	Phone  string `json:"phone"`
	Skills string `json:"skills"`
}

// EventSignup is a signup as listed for the event organiser.
type EventSignup struct {
	Signup
	Volunteer VolunteerContact `json:"volunteer"`
}

// VolunteerSignup is a signup as listed for the volunteer.
type VolunteerSignup struct {
	Signup
	Event EventListItem `json:"event"`
}
