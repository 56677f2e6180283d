package source

import (
	"context"
	"sync"

	"github.com/dd0wney/agrorisk/pkg/entities"
)

// MemorySource keeps snapshots in memory. It backs tests and the CLI.
type MemorySource struct {
	snapshots map[string]*entities.Snapshot
	mu        sync.RWMutex
}

// NewMemorySource creates a source holding the given snapshots.
func NewMemorySource(snapshots ...*entities.Snapshot) *MemorySource {
	m := &MemorySource{snapshots: make(map[string]*entities.Snapshot, len(snapshots))}
	for _, s := range snapshots {
		m.Put(s)
	}
	return m
}

// Put stores a copy of s, replacing any snapshot with the same id.
func (m *MemorySource) Put(s *entities.Snapshot) {
	c := s.Clone()
	m.mu.Lock()
	defer m.mu.Unlock()
	m.snapshots[c.InvestigationID] = c
}

// Snapshot returns a deep copy of the stored snapshot.
func (m *MemorySource) Snapshot(ctx context.Context, id string) (*entities.Snapshot, error) {
	if err := checkID(id); err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	m.mu.RLock()
	defer m.mu.RUnlock()
	s, ok := m.snapshots[id]
	if !ok {
		return nil, notFound(id)
	}
	return s.Clone(), nil
}

func (m *MemorySource) Ping(ctx context.Context) error { return ctx.Err() }

func (m *MemorySource) Name() string { return "memory" }

func (m *MemorySource) Close() error { return nil }
