package service

import (
	"context"
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/google/uuid"
	"github.com/okian/kpibonus/internal/adapters/workbook"
	"github.com/okian/kpibonus/internal/domain/normalize"
	"github.com/okian/kpibonus/pkg/logger"
	"github.com/okian/kpibonus/pkg/metrics"
)

// ImportReport describes a successful import.
type ImportReport struct {
	ImportID   string          `json:"import_id"`
	ImportedAt time.Time       `json:"imported_at"`
	Version    uint64          `json:"version"`
	Teams      []string        `json:"teams"`
	Employees  int             `json:"employees"`
	KPIs       int             `json:"kpis"`
	Stats      normalize.Stats `json:"stats"`
}

// Import reads a workbook, normalizes it and publishes the result. A
// failed import leaves the current graph and session untouched.
func (s *Service) Import(ctx context.Context, filename string, r io.Reader) (ImportReport, error) {
	const op = "service.Import"
	started := time.Now()
	log := s.log().Named("import")

	log.Info(ctx, "import started", logger.String("file", filename))

	src, err := workbook.Read(filename, r)
	if err != nil {
		s.rejectImport(ctx, log, filename, err)
		return ImportReport{}, fmt.Errorf("%s: %w", op, err)
	}

	g, stats, err := normalize.Normalize(src, normalize.WithPeriods(s.periods))
	if err != nil {
		s.rejectImport(ctx, log, filename, err)
		return ImportReport{}, fmt.Errorf("%s: %w", op, err)
	}
	g.ImportID = uuid.NewString()
	g.ImportedAt = s.now().UTC()

	s.mu.Lock()
	snap, err := s.store.Publish(ctx, g)
	if err != nil {
		s.mu.Unlock()
		metrics.RecordImport(metrics.OutcomeFailed)
		metrics.RecordErrorByComponent("service", "publish")
		log.Error(ctx, "publish failed", logger.String("file", filename), logger.Error(err))
		return ImportReport{}, fmt.Errorf("%s: %w", op, err)
	}
	s.session = s.session.Import(g.TeamNames(), s.periods.Labels())
	s.lastStats = &stats
	s.mu.Unlock()

	kpis := 0
	for _, list := range g.KPICatalog {
		kpis += len(list)
	}

	metrics.RecordImport(metrics.OutcomeSuccess)
	metrics.RecordImportDuration(float64(time.Since(started).Milliseconds()))
	metrics.RecordRowsDropped(workbook.SheetEmployees, stats.DroppedEmployees)
	metrics.RecordRowsDropped(workbook.SheetHistory, stats.DroppedHistory)
	metrics.RecordRowsDropped(workbook.SheetKPIData, stats.DroppedKPIData)
	metrics.RecordRowsDropped(workbook.SheetKPIs, stats.DroppedKPIs)
	metrics.UpdateUnbalancedTeams(len(stats.UnbalancedTeams))

	if stats.Dropped() > 0 {
		log.Warn(ctx, "rows dropped during import",
			logger.Int("employees", stats.DroppedEmployees),
			logger.Int("history", stats.DroppedHistory),
			logger.Int("kpiData", stats.DroppedKPIData),
			logger.Int("kpis", stats.DroppedKPIs),
		)
	}
	if len(stats.UnbalancedTeams) > 0 {
		log.Warn(ctx, "kpi weights do not sum to 1", logger.Any("teams", stats.UnbalancedTeams))
	}
	log.Info(ctx, "import finished",
		logger.String("importId", g.ImportID),
		logger.Int("teams", len(g.Teams)),
		logger.Int("employees", len(g.Employees)),
		logger.Duration("took", time.Since(started)),
	)

	return ImportReport{
		ImportID:   g.ImportID,
		ImportedAt: g.ImportedAt,
		Version:    snap.Version,
		Teams:      g.TeamNames(),
		Employees:  len(g.Employees),
		KPIs:       kpis,
		Stats:      stats,
	}, nil
}

func (s *Service) rejectImport(ctx context.Context, log logger.Logger, filename string, err error) {
	outcome := metrics.OutcomeRejected
	if !isStructural(err) {
		outcome = metrics.OutcomeFailed
	}
	metrics.RecordImport(outcome)
	metrics.RecordErrorByComponent("import", outcome)
	log.Warn(ctx, "import rejected",
		logger.String("file", filename),
		logger.String("outcome", outcome),
		logger.Error(err),
	)
}

// isStructural reports whether err is one of the known workbook or dataset
// errors rather than an I/O failure.
func isStructural(err error) bool {
	for _, target := range []error{
		workbook.ErrInvalidFileType,
		workbook.ErrUnreadableWorkbook,
		normalize.ErrEmptyDataset,
		normalize.ErrNoRecognizedSheet,
		normalize.ErrNoTeamsResolved,
	} {
		if errors.Is(err, target) {
			return true
		}
	}
	return false
}
