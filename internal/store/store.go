// Package store persists verification runs. The verification pipeline only
// consumes the Store contract; persistence failures are logged and swallowed
// upstream so verification never depends on storage availability.
package store

import (
	"context"
	"errors"

	"github.com/okarpov/claimlens/internal/model"
)

// ErrNotFound is returned when no run matches the lookup
var ErrNotFound = errors.New("run not found")

// Store is the persistence contract for verification runs
type Store interface {
	// Save persists one completed run
	Save(ctx context.Context, run *model.VerificationRun) error

	// FindByID returns the run with the given id, or ErrNotFound
	FindByID(ctx context.Context, runID string) (*model.VerificationRun, error)

	// FindByClaim returns the run owning the given claim, or ErrNotFound
	FindByClaim(ctx context.Context, claimID string) (*model.VerificationRun, error)

	// FindByUser returns all runs created by the given user
	FindByUser(ctx context.Context, userID string) ([]*model.VerificationRun, error)

	// Delete removes a run, or returns ErrNotFound
	Delete(ctx context.Context, runID string) error

	// Close releases underlying resources
	Close() error
}
