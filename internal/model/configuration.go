package model

import (
	"encoding/json"
	"time"
)

// LabConfiguration is an admin's sizing and cost override for a lab.
// Rows are append-only.
type LabConfiguration struct {
	ConfigID      string          `json:"config_id"`      // lab_configurations.config_id
	LabID         string          `json:"lab_id"`         // lab_configurations.lab_id
	AdminID       string          `json:"admin_id"`       // lab_configurations.admin_id
	ConfigDetails json.RawMessage `json:"config_details"` // lab_configurations.config_details (jsonb)
	CreatedAt     time.Time       `json:"created_at"`     // lab_configurations.created_at
}
