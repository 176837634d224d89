package repository

import (
	"context"
	"database/sql"
	"errors"

	"github.com/iliyamo/cloudlab/internal/model"
)

const labColumns = "lab_id, type, platform, provider, os, cpu, ram, storage, instance, title, description, duration, created_by, created_at"

// LabRepo provides access to the lab catalogue.
type LabRepo struct{ DB *sql.DB }

// NewLabRepo returns a LabRepo backed by db.
func NewLabRepo(db *sql.DB) *LabRepo { return &LabRepo{DB: db} }

func scanLab(s rowScanner) (model.Lab, error) {
	var l model.Lab
	err := s.Scan(&l.LabID, &l.Type, &l.Platform, &l.Provider, &l.OS, &l.CPU, &l.RAM,
		&l.Storage, &l.Instance, &l.Title, &l.Description, &l.Duration, &l.CreatedBy, &l.CreatedAt)
	return l, err
}

func collectLabs(rows *sql.Rows) ([]model.Lab, error) {
	defer rows.Close()
	out := []model.Lab{}
	for rows.Next() {
		l, err := scanLab(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, l)
	}
	return out, rows.Err()
}

// Create inserts a catalogue entry and returns the stored row. Values the
// schema rejects yield ErrInvalidReference.
func (r *LabRepo) Create(ctx context.Context, in model.NewLab) (model.Lab, error) {
	l, err := scanLab(r.DB.QueryRowContext(ctx,
		`INSERT INTO labs (type, platform, provider, os, cpu, ram, storage, instance, title, description, duration, created_by)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)
		 RETURNING `+labColumns,
		in.Type, in.Platform, in.Provider, in.OS, in.CPU, in.RAM, in.Storage, in.Instance,
		in.Title, in.Description, in.Duration, in.CreatedBy))
	if errors.Is(err, sql.ErrNoRows) {
		return model.Lab{}, ErrInvalidReference
	}
	if err != nil {
		return model.Lab{}, writeErr(err)
	}
	return l, nil
}

// List returns the whole catalogue.
func (r *LabRepo) List(ctx context.Context) ([]model.Lab, error) {
	rows, err := r.DB.QueryContext(ctx, "SELECT "+labColumns+" FROM labs")
	if err != nil {
		return nil, err
	}
	return collectLabs(rows)
}

// ListConfiguredBy returns the labs the admin has saved at least one
// configuration for.
func (r *LabRepo) ListConfiguredBy(ctx context.Context, adminID string) ([]model.Lab, error) {
	rows, err := r.DB.QueryContext(ctx,
		`SELECT DISTINCT l.lab_id, l.type, l.platform, l.provider, l.os, l.cpu, l.ram, l.storage,
		        l.instance, l.title, l.description, l.duration, l.created_by, l.created_at
		   FROM labs l
		   JOIN lab_configurations c ON c.lab_id = l.lab_id
		  WHERE c.admin_id = $1`, adminID)
	if err != nil {
		return nil, err
	}
	return collectLabs(rows)
}
