// Package queue defines the lab activity events exchanged over RabbitMQ and
// the consumer that records them.
package queue

import (
	"crypto/rand"
	"sync"
	"time"

	"github.com/oklog/ulid/v2"
)

// Event types.
const (
	LabAssigned = "lab.assigned"
	LabLaunched = "lab.launched"
	LabStopped  = "lab.stopped"
	LabExpired  = "lab.expired"
)

// DefaultQueue is the durable queue activity events are routed to.
const DefaultQueue = "lab.activity"

// LabEvent describes one change in a lab assignment's life. It carries
// enough context for consumers to log or notify without querying the
// database.
type LabEvent struct {
	ID           string    `json:"id"`
	Type         string    `json:"type"`
	AssignmentID string    `json:"assignment_id"`
	LabID        string    `json:"lab_id"`
	UserID       string    `json:"user_id"`
	ActorID      string    `json:"actor_id,omitempty"` // admin or user who caused it; empty for the expiry job
	Status       string    `json:"status"`
	InstanceID   string    `json:"instance_id,omitempty"`
	OccurredAt   time.Time `json:"occurred_at"`
}

var (
	entropyMu sync.Mutex
	entropy   = ulid.Monotonic(rand.Reader, 0)
)

// NewEventID returns a lexicographically sortable event id.
func NewEventID(t time.Time) string {
	entropyMu.Lock()
	defer entropyMu.Unlock()
	return ulid.MustNew(ulid.Timestamp(t), entropy).String()
}

// NewLabEvent stamps an event with an id and the current time.
func NewLabEvent(typ, assignmentID, labID, userID, status string) LabEvent {
	now := time.Now().UTC()
	return LabEvent{
		ID:           NewEventID(now),
		Type:         typ,
		AssignmentID: assignmentID,
		LabID:        labID,
		UserID:       userID,
		Status:       status,
		OccurredAt:   now,
	}
}
