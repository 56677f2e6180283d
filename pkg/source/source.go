// Package source loads investigation snapshots from the persistence layer.
// Every implementation returns one consistent, read-only snapshot per call.
package source

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/dd0wney/agrorisk/pkg/entities"
	"github.com/dd0wney/agrorisk/pkg/validation"
)

// ErrInvestigationNotFound is returned when no snapshot exists for an id.
var ErrInvestigationNotFound = errors.New("investigation not found")

// Source fetches snapshots.
type Source interface {
	// Snapshot returns the current snapshot of one investigation.
	Snapshot(ctx context.Context, investigationID string) (*entities.Snapshot, error)
	// Ping checks the backend is reachable.
	Ping(ctx context.Context) error
	// Name labels the backend in logs and metrics.
	Name() string
	Close() error
}

func notFound(id string) error {
	return fmt.Errorf("%w: %s", ErrInvestigationNotFound, id)
}

// checkID rejects ids that are empty or could escape a directory.
func checkID(id string) error {
	switch {
	case strings.TrimSpace(id) == "":
		return &validation.ValidationError{Field: "investigation_id", Reason: "required"}
	case strings.ContainsAny(id, `/\`) || id == "." || id == "..":
		return &validation.ValidationError{Field: "investigation_id", Reason: fmt.Sprintf("invalid id %q", id)}
	}
	return nil
}
