package models

// RecentEvent is an event with the number of signups it holds.
type RecentEvent struct {
	Event
	SignupCount int `json:"signupCount"`
}

// DashboardStats is the organiser dashboard rollup.
type DashboardStats struct {
	TotalEvents     int           `json:"totalEvents"`
	ActiveEvents    int           `json:"activeEvents"`
	TotalVolunteers int           `json:"totalVolunteers"`
	RecentEvents    []RecentEvent `json:"recentEvents"`
}
