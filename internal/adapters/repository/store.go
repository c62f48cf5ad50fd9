// Package repository holds the published entity graph.
package repository

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/okian/kpibonus/internal/domain/model"
	"github.com/okian/kpibonus/pkg/metrics"
)

// Store publishes whole graphs and hands out immutable snapshots.
type Store interface {
	// Publish replaces the current graph. The caller must not modify g
	// afterwards.
	Publish(ctx context.Context, g *model.Graph) (*Snapshot, error)
	// Current returns the latest snapshot or ErrNoDataset.
	Current(ctx context.Context) (*Snapshot, error)
}

// Snapshot is one published graph plus lookup indexes. It is never
// modified after publish.
type Snapshot struct {
	Graph       *model.Graph
	Version     uint64
	PublishedAt time.Time

	employeeByID map[string]int
	teamByName   map[string]int
}

// Employee looks an employee up in O(1).
func (s *Snapshot) Employee(id string) (model.Employee, bool) {
	i, ok := s.employeeByID[id]
	if !ok {
		return model.Employee{}, false
	}
	return s.Graph.Employees[i], true
}

// Team looks a team up in O(1).
func (s *Snapshot) Team(name string) (model.Team, bool) {
	i, ok := s.teamByName[name]
	if !ok {
		return model.Team{}, false
	}
	return s.Graph.Teams[i], true
}

// GraphStore is an in-memory Store. Readers load the snapshot pointer
// without locking; publishes serialize on mu.
type GraphStore struct {
	mu       sync.Mutex
	version  uint64
	now      func() time.Time
	snapshot atomic.Pointer[Snapshot]
}

// NewGraphStore creates an empty store.
func NewGraphStore(opts ...Option) *GraphStore {
	s := &GraphStore{now: time.Now}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Publish implements Store.
func (s *GraphStore) Publish(_ context.Context, g *model.Graph) (*Snapshot, error) {
	if g == nil {
		return nil, fmt.Errorf("repository.Publish: %w", ErrNilGraph)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	s.version++
	snap := &Snapshot{
		Graph:        g,
		Version:      s.version,
		PublishedAt:  s.now(),
		employeeByID: make(map[string]int, len(g.Employees)),
		teamByName:   make(map[string]int, len(g.Teams)),
	}
	for i, e := range g.Employees {
		if _, dup := snap.employeeByID[e.ID]; !dup {
			snap.employeeByID[e.ID] = i
		}
	}
	for i, t := range g.Teams {
		if _, dup := snap.teamByName[t.Name]; !dup {
			snap.teamByName[t.Name] = i
		}
	}
	s.snapshot.Store(snap)

	metrics.RecordGraphPublish(snap.Version, snap.PublishedAt.Unix())
	metrics.UpdateGraphSize(len(g.Teams), len(g.Employees))
	return snap, nil
}

// Current implements Store.
func (s *GraphStore) Current(_ context.Context) (*Snapshot, error) {
	snap := s.snapshot.Load()
	if snap == nil {
		metrics.RecordErrorByComponent("repository", "no_dataset")
		return nil, ErrNoDataset
	}
	return snap, nil
}

// Version returns the number of publishes so far.
func (s *GraphStore) Version() uint64 {
	if snap := s.snapshot.Load(); snap != nil {
		return snap.Version
	}
	return 0
}
