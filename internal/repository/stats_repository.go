package repository

import (
	"context"
	"database/sql"

	"github.com/iliyamo/cloudlab/internal/model"
)

// StatsRepo computes dashboard counters.
type StatsRepo struct{ DB *sql.DB }

// NewStatsRepo returns a StatsRepo backed by db.
func NewStatsRepo(db *sql.DB) *StatsRepo { return &StatsRepo{DB: db} }

// Snapshot reads all counters inside one read-only repeatable-read
// transaction so they describe the same point in time.
func (r *StatsRepo) Snapshot(ctx context.Context) (model.Stats, error) {
	tx, err := r.DB.BeginTx(ctx, &sql.TxOptions{Isolation: sql.LevelRepeatableRead, ReadOnly: true})
	if err != nil {
		return model.Stats{}, err
	}
	defer tx.Rollback()

	st := model.Stats{Assignments: map[string]int{
		model.StatusPending: 0,
		model.StatusActive:  0,
		model.StatusStopped: 0,
		model.StatusExpired: 0,
	}}
	if err := tx.QueryRowContext(ctx,
		`SELECT count(*) FILTER (WHERE role = 'user'), count(*) FILTER (WHERE role = 'admin') FROM users`,
	).Scan(&st.Users, &st.Admins); err != nil {
		return model.Stats{}, err
	}
	if err := tx.QueryRowContext(ctx, "SELECT count(*) FROM labs").Scan(&st.Labs); err != nil {
		return model.Stats{}, err
	}

	rows, err := tx.QueryContext(ctx, "SELECT status, count(*) FROM lab_assignments GROUP BY status")
	if err != nil {
		return model.Stats{}, err
	}
	defer rows.Close()
	for rows.Next() {
		var (
			status string
			n      int
		)
		if err := rows.Scan(&status, &n); err != nil {
			return model.Stats{}, err
		}
		st.Assignments[status] = n
	}
	if err := rows.Err(); err != nil {
		return model.Stats{}, err
	}
	rows.Close()
	return st, tx.Commit()
}
