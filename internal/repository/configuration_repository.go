package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"

	"github.com/iliyamo/cloudlab/internal/model"
)

// ConfigurationRepo stores admin lab configurations. Every call to Create
// appends a new row.
type ConfigurationRepo struct{ DB *sql.DB }

// NewConfigurationRepo returns a ConfigurationRepo backed by db.
func NewConfigurationRepo(db *sql.DB) *ConfigurationRepo { return &ConfigurationRepo{DB: db} }

// Create inserts a configuration. Empty details are stored as NULL and
// therefore rejected with ErrInvalidReference.
func (r *ConfigurationRepo) Create(ctx context.Context, labID, adminID *string, details json.RawMessage) (model.LabConfiguration, error) {
	var detailsArg any
	if len(details) > 0 && string(details) != "null" {
		detailsArg = string(details)
	}

	var (
		c   model.LabConfiguration
		raw []byte
	)
	err := r.DB.QueryRowContext(ctx,
		`INSERT INTO lab_configurations (lab_id, admin_id, config_details)
		 VALUES ($1, $2, $3)
		 RETURNING config_id, lab_id, admin_id, config_details, created_at`,
		labID, adminID, detailsArg).Scan(&c.ConfigID, &c.LabID, &c.AdminID, &raw, &c.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return model.LabConfiguration{}, ErrInvalidReference
	}
	if err != nil {
		return model.LabConfiguration{}, writeErr(err)
	}
	c.ConfigDetails = json.RawMessage(append([]byte(nil), raw...))
	return c, nil
}
