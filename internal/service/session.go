package service

import (
	"context"
	"errors"

	"github.com/iliyamo/cloudlab/internal/cloud"
	"github.com/iliyamo/cloudlab/internal/logger"
	"github.com/iliyamo/cloudlab/internal/model"
	"github.com/iliyamo/cloudlab/internal/queue"
	"github.com/iliyamo/cloudlab/internal/repository"
)

// Caller identifies who asks for a session change.
type Caller struct {
	UserID string
	Admin  bool
}

// SessionService drives the lab session state machine: it talks to the
// cloud first and then records the new status with a conditional update.
type SessionService struct {
	Assignments *repository.AssignmentRepo
	Launchers   cloud.Registry
	Events      EventPublisher
}

// NewSessionService returns a SessionService launching through l.
func NewSessionService(a *repository.AssignmentRepo, l cloud.Registry, ev EventPublisher) *SessionService {
	if ev == nil {
		ev = NopPublisher{}
	}
	return &SessionService{Assignments: a, Launchers: l, Events: ev}
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}

func (s *SessionService) load(ctx context.Context, id string, who Caller) (model.AssignmentWithLab, cloud.Launcher, error) {
	a, err := s.Assignments.Get(ctx, id)
	if err != nil {
		return a, nil, err
	}
	if !who.Admin && a.UserID != who.UserID {
		return a, nil, repository.ErrForbidden
	}
	if a.Status == model.StatusExpired {
		return a, nil, repository.ErrInvalidTransition
	}
	l, err := s.Launchers.For(deref(a.Provider))
	return a, l, err
}

// Launch boots the session of a pending or stopped assignment. The first
// launch creates the instance; later ones start the stored instance.
func (s *SessionService) Launch(ctx context.Context, id string, who Caller) (model.Assignment, error) {
	a, l, err := s.load(ctx, id, who)
	if err != nil {
		return model.Assignment{}, err
	}
	if !model.CanLaunch(a.Status) {
		return model.Assignment{}, repository.ErrInvalidTransition
	}

	created := false
	instanceID := deref(a.InstanceID)
	if instanceID == "" {
		instanceID, err = l.Launch(ctx, cloud.InstanceSpec{
			AssignmentID: a.ID,
			LabTitle:     a.Title,
			OS:           deref(a.OS),
			InstanceType: deref(a.Instance),
		})
		created = true
	} else {
		err = l.Start(ctx, instanceID)
	}
	if err != nil {
		return model.Assignment{}, err
	}

	updated, err := s.Assignments.Transition(ctx, a.ID, a.Status, model.StatusActive, &instanceID)
	if err != nil {
		// another request changed the assignment while the cloud call ran;
		// the new instance is recorded nowhere, so it must not outlive this call
		if created {
			if terr := l.Terminate(context.Background(), instanceID); terr != nil {
				logger.Errorw("session: terminate orphaned instance failed",
					"instance_id", instanceID, "assignment_id", a.ID, "error", terr)
			}
		}
		return model.Assignment{}, err
	}

	ev := queue.NewLabEvent(queue.LabLaunched, updated.ID, updated.LabID, updated.UserID, updated.Status)
	ev.ActorID = who.UserID
	ev.InstanceID = instanceID
	Notify(s.Events, ev)
	return updated, nil
}

// Stop shuts down the instance of an active assignment.
func (s *SessionService) Stop(ctx context.Context, id string, who Caller) (model.Assignment, error) {
	a, l, err := s.load(ctx, id, who)
	if err != nil {
		return model.Assignment{}, err
	}
	if !model.CanStop(a.Status) {
		return model.Assignment{}, repository.ErrInvalidTransition
	}
	if instanceID := deref(a.InstanceID); instanceID != "" {
		if err := l.Stop(ctx, instanceID); err != nil {
			return model.Assignment{}, err
		}
	}
	updated, err := s.Assignments.Transition(ctx, a.ID, model.StatusActive, model.StatusStopped, nil)
	if err != nil {
		return model.Assignment{}, err
	}

	ev := queue.NewLabEvent(queue.LabStopped, updated.ID, updated.LabID, updated.UserID, updated.Status)
	ev.ActorID = who.UserID
	ev.InstanceID = deref(updated.InstanceID)
	Notify(s.Events, ev)
	return updated, nil
}

// Expire ends an overdue assignment. A running instance is stopped first;
// if that fails the assignment keeps its status so the next run retries.
func (s *SessionService) Expire(ctx context.Context, a model.AssignmentWithLab) error {
	if a.Status == model.StatusActive && deref(a.InstanceID) != "" {
		l, err := s.Launchers.For(deref(a.Provider))
		if err != nil && !errors.Is(err, cloud.ErrUnsupported) {
			return err
		}
		if l != nil {
			if err := l.Stop(ctx, *a.InstanceID); err != nil {
				return err
			}
		}
	}
	updated, err := s.Assignments.Transition(ctx, a.ID, a.Status, model.StatusExpired, nil)
	if err != nil {
		return err
	}
	ev := queue.NewLabEvent(queue.LabExpired, updated.ID, updated.LabID, updated.UserID, updated.Status)
	ev.InstanceID = deref(updated.InstanceID)
	Notify(s.Events, ev)
	return nil
}
