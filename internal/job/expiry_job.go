// Package job holds background jobs run on a cron schedule.
package job

import (
	"context"
	"time"

	"github.com/iliyamo/cloudlab/internal/logger"
	"github.com/iliyamo/cloudlab/internal/model"
)

type overdueLister interface {
	ListOverdue(ctx context.Context, now time.Time) ([]model.AssignmentWithLab, error)
}

type expirer interface {
	Expire(ctx context.Context, a model.AssignmentWithLab) error
}

// ExpiryJob marks assignments whose duration has run out as expired and
// stops their instances.
type ExpiryJob struct {
	assignments overdueLister
	sessions    expirer
	now         func() time.Time
}

// NewExpiryJob returns a job that expires overdue assignments.
func NewExpiryJob(assignments overdueLister, sessions expirer) *ExpiryJob {
	return &ExpiryJob{assignments: assignments, sessions: sessions, now: time.Now}
}

// Run expires every overdue assignment. It implements cron.Job.
func (j *ExpiryJob) Run() {
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
	defer cancel()

	overdue, err := j.assignments.ListOverdue(ctx, j.now())
	if err != nil {
		logger.Warningf("expiry: list overdue assignments: %v", err)
		return
	}
	expired := 0
	for _, a := range overdue {
		if err := j.sessions.Expire(ctx, a); err != nil {
			logger.Warningf("expiry: assignment %s: %v", a.ID, err)
			continue
		}
		expired++
	}
	if expired > 0 {
		logger.Infof("expiry: %d of %d overdue assignments expired", expired, len(overdue))
	}
}
