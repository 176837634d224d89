// Package cloud starts and stops the virtual machines behind lab sessions.
package cloud

import (
	"context"
	"errors"

	"github.com/iliyamo/cloudlab/internal/model"
)

// ErrUnsupported is returned for providers without a launcher.
var ErrUnsupported = errors.New("provider has no launcher")

// InstanceSpec describes the machine a lab session needs.
type InstanceSpec struct {
	AssignmentID string
	LabTitle     string
	OS           string
	InstanceType string
}

// Launcher manages instances on one cloud.
type Launcher interface {
	// Launch creates and boots a new instance and returns its id.
	Launch(ctx context.Context, spec InstanceSpec) (string, error)
	// Start boots a stopped instance.
	Start(ctx context.Context, instanceID string) error
	// Stop shuts an instance down without deleting it.
	Stop(ctx context.Context, instanceID string) error
	// Terminate deletes an instance and its root volume.
	Terminate(ctx context.Context, instanceID string) error
}

// Registry maps providers to launchers.
type Registry map[model.Provider]Launcher

// For returns the launcher for a lab's provider column.
func (r Registry) For(provider string) (Launcher, error) {
	p, err := model.ParseProvider(provider)
	if err != nil {
		return nil, ErrUnsupported
	}
	l, ok := r[p]
	if !ok || l == nil {
		return nil, ErrUnsupported
	}
	return l, nil
}
