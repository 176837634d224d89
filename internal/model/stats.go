package model

// Stats summarises the platform for the admin dashboard.
type Stats struct {
	Users       int            `json:"users"`
	Admins      int            `json:"admins"`
	Labs        int            `json:"labs"`
	Assignments map[string]int `json:"assignments"` // by status
}
