package model

import "time"

// Assignment statuses. A lab session moves pending -> active on launch,
// active -> stopped on stop and back to active on the next launch. Any
// non-expired assignment becomes expired once its duration has elapsed.
const (
	StatusPending = "pending"
	StatusActive  = "active"
	StatusStopped = "stopped"
	StatusExpired = "expired"
)

// Assignment binds a lab to a user for a number of days.
type Assignment struct {
	ID              string     `json:"id"`                // lab_assignments.id
	LabID           string     `json:"lab_id"`            // lab_assignments.lab_id
	UserID          string     `json:"user_id"`           // lab_assignments.user_id
	AssignedAdminID string     `json:"assigned_admin_id"` // lab_assignments.assigned_admin_id
	Duration        int        `json:"duration"`          // lab_assignments.duration, days
	Status          string     `json:"status"`            // lab_assignments.status
	InstanceID      *string    `json:"instance_id"`       // lab_assignments.instance_id (nullable)
	LaunchedAt      *time.Time `json:"launched_at"`       // lab_assignments.launched_at (nullable)
	StoppedAt       *time.Time `json:"stopped_at"`        // lab_assignments.stopped_at (nullable)
	CreatedAt       time.Time  `json:"created_at"`        // lab_assignments.created_at
}

// CanLaunch reports whether a session may be launched from status s.
func CanLaunch(s string) bool { return s == StatusPending || s == StatusStopped }

// CanStop reports whether a session may be stopped from status s.
func CanStop(s string) bool { return s == StatusActive }

// AssignmentWithLab is an assignment joined with the catalogue fields needed
// to launch its session.
type AssignmentWithLab struct {
	Assignment
	Provider *string
	OS       *string
	Instance *string
	Title    string
}
