package model

import "time"

// Lab is a catalogue entry: a provisionable machine template created by an
// admin. Labs are never deleted.
type Lab struct {
	LabID       string    `json:"lab_id"`      // labs.lab_id
	Type        string    `json:"type"`        // labs.type
	Platform    *string   `json:"platform"`    // labs.platform
	Provider    *string   `json:"provider"`    // labs.provider
	OS          *string   `json:"os"`          // labs.os
	CPU         *string   `json:"cpu"`         // labs.cpu
	RAM         *string   `json:"ram"`         // labs.ram
	Storage     *string   `json:"storage"`     // labs.storage
	Instance    *string   `json:"instance"`    // labs.instance
	Title       string    `json:"title"`       // labs.title
	Description *string   `json:"description"` // labs.description
	Duration    *int      `json:"duration"`    // labs.duration, days
	CreatedBy   string    `json:"created_by"`  // labs.created_by
	CreatedAt   time.Time `json:"created_at"`  // labs.created_at
}

// NewLab carries the values of a lab to be inserted.
type NewLab struct {
	Type        *string
	Platform    *string
	Provider    *string
	OS          *string
	CPU         *string
	RAM         *string
	Storage     *string
	Instance    *string
	Title       *string
	Description *string
	Duration    *int
	CreatedBy   *string
}
