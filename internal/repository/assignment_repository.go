package repository

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/iliyamo/cloudlab/internal/database"
	"github.com/iliyamo/cloudlab/internal/model"
)

const assignmentColumns = "id, lab_id, user_id, assigned_admin_id, duration, status, instance_id, launched_at, stopped_at, created_at"

// NewAssignment carries assignLab input. Nil fields are sent as NULL and
// rejected by the schema.
type NewAssignment struct {
	LabID    string
	UserID   *string
	AdminID  *string
	Duration *int
}

// AssignmentRepo persists lab assignments and their session state.
type AssignmentRepo struct{ DB *sql.DB }

// NewAssignmentRepo returns an AssignmentRepo backed by db.
func NewAssignmentRepo(db *sql.DB) *AssignmentRepo { return &AssignmentRepo{DB: db} }

func scanAssignment(s rowScanner) (model.Assignment, error) {
	var a model.Assignment
	err := s.Scan(&a.ID, &a.LabID, &a.UserID, &a.AssignedAdminID, &a.Duration, &a.Status,
		&a.InstanceID, &a.LaunchedAt, &a.StoppedAt, &a.CreatedAt)
	return a, err
}

// Assign creates a pending assignment. The (user_id, lab_id) unique
// constraint makes the duplicate check and the insert one statement:
// ErrConflict means the pair already existed and nothing was written.
func (r *AssignmentRepo) Assign(ctx context.Context, in NewAssignment) (model.Assignment, error) {
	a, err := scanAssignment(r.DB.QueryRowContext(ctx,
		`INSERT INTO lab_assignments (lab_id, user_id, assigned_admin_id, duration, status)
		 VALUES ($1, $2, $3, $4, 'pending')
		 ON CONFLICT (user_id, lab_id) DO NOTHING
		 RETURNING `+assignmentColumns,
		in.LabID, in.UserID, in.AdminID, in.Duration))
	if errors.Is(err, sql.ErrNoRows) {
		return model.Assignment{}, ErrConflict
	}
	if err != nil {
		return model.Assignment{}, writeErr(err)
	}
	return a, nil
}

// ListByUser returns every assignment of a user regardless of status.
func (r *AssignmentRepo) ListByUser(ctx context.Context, userID string) ([]model.Assignment, error) {
	rows, err := r.DB.QueryContext(ctx,
		"SELECT "+assignmentColumns+" FROM lab_assignments WHERE user_id = $1 ORDER BY created_at", userID)
	if err != nil {
		if database.PgCode(err) == database.CodeInvalidTextRepr {
			return []model.Assignment{}, nil
		}
		return nil, err
	}
	defer rows.Close()

	out := []model.Assignment{}
	for rows.Next() {
		a, err := scanAssignment(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, a)
	}
	return out, rows.Err()
}

const assignmentWithLabQuery = `
SELECT a.id, a.lab_id, a.user_id, a.assigned_admin_id, a.duration, a.status,
       a.instance_id, a.launched_at, a.stopped_at, a.created_at,
       l.provider, l.os, l.instance, l.title
  FROM lab_assignments a
  JOIN labs l ON l.lab_id = a.lab_id`

func scanAssignmentWithLab(s rowScanner) (model.AssignmentWithLab, error) {
	var a model.AssignmentWithLab
	err := s.Scan(&a.ID, &a.LabID, &a.UserID, &a.AssignedAdminID, &a.Duration, &a.Status,
		&a.InstanceID, &a.LaunchedAt, &a.StoppedAt, &a.CreatedAt,
		&a.Provider, &a.OS, &a.Instance, &a.Title)
	return a, err
}

// Get loads an assignment together with its lab.
func (r *AssignmentRepo) Get(ctx context.Context, id string) (model.AssignmentWithLab, error) {
	a, err := scanAssignmentWithLab(r.DB.QueryRowContext(ctx, assignmentWithLabQuery+" WHERE a.id = $1", id))
	if errors.Is(err, sql.ErrNoRows) || database.PgCode(err) == database.CodeInvalidTextRepr {
		return model.AssignmentWithLab{}, ErrNotFound
	}
	return a, err
}

// Transition moves an assignment from status `from` to `to`. The update only
// applies while the row still has status `from`, so two concurrent session
// changes cannot both succeed. instanceID, when non-nil, replaces the stored
// instance id.
func (r *AssignmentRepo) Transition(ctx context.Context, id, from, to string, instanceID *string) (model.Assignment, error) {
	a, err := scanAssignment(r.DB.QueryRowContext(ctx,
		`UPDATE lab_assignments
		    SET status      = $3,
		        instance_id = COALESCE($4, instance_id),
		        launched_at = CASE WHEN $3 = 'active' THEN now() ELSE launched_at END,
		        stopped_at  = CASE WHEN $3 = 'active' THEN NULL ELSE now() END
		  WHERE id = $1 AND status = $2
		 RETURNING `+assignmentColumns,
		id, from, to, instanceID))
	if errors.Is(err, sql.ErrNoRows) {
		return model.Assignment{}, ErrInvalidTransition
	}
	if err != nil {
		return model.Assignment{}, writeErr(err)
	}
	return a, nil
}

// ListOverdue returns non-expired assignments whose duration ended before now.
func (r *AssignmentRepo) ListOverdue(ctx context.Context, now time.Time) ([]model.AssignmentWithLab, error) {
	rows, err := r.DB.QueryContext(ctx, assignmentWithLabQuery+`
 WHERE a.status <> 'expired'
   AND a.created_at + a.duration * interval '1 day' <= $1
 ORDER BY a.created_at`, now)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []model.AssignmentWithLab
	for rows.Next() {
		a, err := scanAssignmentWithLab(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, a)
	}
	return out, rows.Err()
}
