// Package service wires the import pipeline, the published graph, notes
// and the screen state together for the HTTP API and the CLI.
package service

import (
	"context"
	"sync"
	"time"

	"github.com/okian/kpibonus/internal/adapters/notes"
	"github.com/okian/kpibonus/internal/adapters/repository"
	"github.com/okian/kpibonus/internal/domain/normalize"
	"github.com/okian/kpibonus/internal/domain/period"
	"github.com/okian/kpibonus/internal/domain/scoring"
	"github.com/okian/kpibonus/internal/domain/session"
	"github.com/okian/kpibonus/pkg/logger"
)

// Service implements the API dependencies for the KPI bonus engine.
type Service struct {
	// mu serializes writers (import, KPI edits, session transitions) and
	// guards session and lastStats. Readers use store snapshots.
	mu sync.RWMutex

	store repository.Store
	notes notes.Store

	// Configuration
	periods       period.Sequence
	defaultStatus string
	notesDSN      string
	now           func() time.Time

	// State
	session   session.State
	lastStats *normalize.Stats
	started   bool

	logger logger.Logger
}

// Option applies a configuration option to the Service.
type Option func(*Service)

// WithLogger sets a custom logger for the service.
func WithLogger(l logger.Logger) Option {
	return func(s *Service) {
		if l != nil {
			s.logger = l
		}
	}
}

// WithPeriods sets the reporting period order, newest first.
func WithPeriods(seq period.Sequence) Option {
	return func(s *Service) {
		if seq.Len() > 0 {
			s.periods = seq
		}
	}
}

// WithDefaultStatus sets the status filter used when a request has none.
func WithDefaultStatus(status string) Option {
	return func(s *Service) {
		if scoring.ValidStatus(status) {
			s.defaultStatus = status
		}
	}
}

// WithNotesDSN makes Start open a SQLite notes store at dsn.
func WithNotesDSN(dsn string) Option {
	return func(s *Service) {
		s.notesDSN = dsn
	}
}

// WithNotesStore sets the notes store directly.
func WithNotesStore(n notes.Store) Option {
	return func(s *Service) {
		if n != nil {
			s.notes = n
		}
	}
}

// WithStore sets the graph store.
func WithStore(st repository.Store) Option {
	return func(s *Service) {
		if st != nil {
			s.store = st
		}
	}
}

// WithClock overrides the time source used to stamp imports.
func WithClock(now func() time.Time) Option {
	return func(s *Service) {
		if now != nil {
			s.now = now
		}
	}
}

// New constructs a new Service with default configuration. Notes live in
// memory unless WithNotesDSN or WithNotesStore is given.
func New(opts ...Option) *Service {
	s := &Service{
		periods:       period.Default(),
		defaultStatus: scoring.StatusAll,
		now:           time.Now,
		session:       session.New(),
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.store == nil {
		s.store = repository.NewGraphStore(repository.WithClock(s.now))
	}
	if s.notes == nil && s.notesDSN == "" {
		s.notes = notes.NewMemory()
	}
	return s
}

// Start opens the notes store. Calling Start twice is a no-op.
func (s *Service) Start(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.started {
		return nil
	}
	if s.logger == nil {
		s.logger = logger.Get()
	}
	if s.notes == nil {
		n, err := notes.Open(s.notesDSN)
		if err != nil {
			s.logger.Error(ctx, "failed to open notes store", logger.String("dsn", s.notesDSN), logger.Error(err))
			return err
		}
		s.notes = n
	}

	s.started = true
	s.logger.Info(ctx, "kpi bonus service started",
		logger.Any("periods", s.periods.Labels()),
		logger.String("defaultStatus", s.defaultStatus),
		logger.Bool("sqliteNotes", s.notesDSN != ""),
	)
	return nil
}

// Stop closes the notes store.
func (s *Service) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.started {
		return
	}
	if s.notes != nil {
		if err := s.notes.Close(); err != nil {
			s.logger.Warn(context.Background(), "failed to close notes store", logger.Error(err))
		}
	}
	s.started = false
	s.logger.Info(context.Background(), "kpi bonus service stopped")
}

// Periods returns the configured period labels, newest first.
func (s *Service) Periods() []string {
	return s.periods.Labels()
}

// GetStats returns service statistics for monitoring.
func (s *Service) GetStats() map[string]any {
	s.mu.RLock()
	defer s.mu.RUnlock()

	stats := map[string]any{
		"started": s.started,
		"screen":  s.session.Screen,
		"periods": s.periods.Len(),
	}
	snap, err := s.store.Current(context.Background())
	if err != nil {
		stats["dataset"] = false
		return stats
	}
	stats["dataset"] = true
	stats["version"] = snap.Version
	stats["importId"] = snap.Graph.ImportID
	stats["importedAt"] = snap.Graph.ImportedAt
	stats["teams"] = len(snap.Graph.Teams)
	stats["employees"] = len(snap.Graph.Employees)
	if s.lastStats != nil {
		stats["lastImport"] = *s.lastStats
	}
	return stats
}

// log returns the configured logger, or the global one before Start.
func (s *Service) log() logger.Logger {
	if s.logger != nil {
		return s.logger
	}
	return logger.Get()
}
