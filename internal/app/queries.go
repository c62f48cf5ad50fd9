package service

import (
	"bytes"
	"context"
	"fmt"

	"github.com/okian/kpibonus/internal/adapters/repository"
	"github.com/okian/kpibonus/internal/domain/aggregate"
	"github.com/okian/kpibonus/internal/domain/amount"
	"github.com/okian/kpibonus/internal/domain/model"
	"github.com/okian/kpibonus/internal/domain/projection"
	"github.com/okian/kpibonus/internal/domain/scoring"
	"github.com/okian/kpibonus/pkg/logger"
	"github.com/okian/kpibonus/pkg/metrics"
)

// TeamInfo is one entry of the team list.
type TeamInfo struct {
	model.Team
	Headcount int                 `json:"headcount"`
	KPIs      int                 `json:"kpis"`
	Weights   scoring.WeightCheck `json:"weights"`
}

// Export is a rendered CSV team report.
type Export struct {
	FileName    string
	ContentType string
	Rows        int
	Data        []byte
}

// KPISet is a team's KPI catalog with its bonus pool.
type KPISet struct {
	Team      string              `json:"team"`
	BonusPool float64             `json:"bonus_pool"`
	KPIs      []model.KPI         `json:"kpis"`
	Weights   scoring.WeightCheck `json:"weights"`
}

// KPIDetail is one KPI on the employee detail view.
type KPIDetail struct {
	model.KPI
	Achievement float64 `json:"achievement"`
	// Fallback is set when the period has no value for this KPI and the
	// overall score is shown instead.
	Fallback bool   `json:"fallback"`
	Note     string `json:"note,omitempty"`
}

// HistoryPoint is one period on the employee trend.
type HistoryPoint struct {
	Period string  `json:"period"`
	Score  float64 `json:"score"`
	Bonus  float64 `json:"bonus"`
}

// EmployeeDetail is the per-employee drill down for one period.
type EmployeeDetail struct {
	ID             string         `json:"id"`
	Name           string         `json:"name"`
	Title          string         `json:"title"`
	Team           string         `json:"team"`
	Manager        model.Manager  `json:"manager"`
	BaseSalary     float64        `json:"base_salary"`
	BonusTargetPct float64        `json:"bonus_target_pct"`
	Period         string         `json:"period"`
	Score          float64        `json:"score"`
	Recomputed     float64        `json:"recomputed_score"`
	Bonus          float64        `json:"bonus"`
	Estimate       float64        `json:"estimate"`
	Status         scoring.Tag    `json:"status"`
	Delta          *float64       `json:"delta,omitempty"`
	KPIs           []KPIDetail    `json:"kpis"`
	History        []HistoryPoint `json:"history"`
}

// Teams lists the teams of the current graph in import order.
func (s *Service) Teams(ctx context.Context) ([]TeamInfo, error) {
	snap, err := s.store.Current(ctx)
	if err != nil {
		return nil, err
	}
	g := snap.Graph
	out := make([]TeamInfo, 0, len(g.Teams))
	for _, t := range g.Teams {
		kpis := g.TeamKPIs(t.Name)
		out = append(out, TeamInfo{
			Team:      t,
			Headcount: len(g.TeamEmployees(t.Name)),
			KPIs:      len(kpis),
			Weights:   scoring.CheckWeights(kpis),
		})
	}
	return out, nil
}

// Summary returns the rollup of team for period p; an empty p means the
// newest period.
func (s *Service) Summary(ctx context.Context, team, p string) (aggregate.Summary, error) {
	snap, err := s.teamSnapshot(ctx, team)
	if err != nil {
		return aggregate.Summary{}, err
	}
	return aggregate.ForGraph(snap.Graph, team, s.resolvePeriod(p)), nil
}

// Overview returns the rollup of every team for period p.
func (s *Service) Overview(ctx context.Context, p string) ([]aggregate.Summary, error) {
	snap, err := s.store.Current(ctx)
	if err != nil {
		return nil, err
	}
	return aggregate.Overview(snap.Graph, s.resolvePeriod(p)), nil
}

// Reports projects the team's employees for period p filtered by status.
func (s *Service) Reports(ctx context.Context, team, p, status string) ([]projection.Row, error) {
	snap, err := s.teamSnapshot(ctx, team)
	if err != nil {
		return nil, err
	}
	status, err = s.resolveStatus(status)
	if err != nil {
		return nil, err
	}
	return projection.Project(snap.Graph.Employees, team, s.resolvePeriod(p), status,
		projection.WithPeriods(s.periods)), nil
}

// Export renders the team report as CSV.
func (s *Service) Export(ctx context.Context, team, p, status string) (Export, error) {
	const op = "service.Export"
	p = s.resolvePeriod(p)

	rows, err := s.Reports(ctx, team, p, status)
	if err != nil {
		return Export{}, err
	}
	var buf bytes.Buffer
	if err := projection.WriteCSV(&buf, rows); err != nil {
		return Export{}, fmt.Errorf("%s: %w", op, err)
	}

	metrics.RecordExport(len(rows))
	s.log().Debug(ctx, "team report exported",
		logger.String("team", team),
		logger.String("period", p),
		logger.Int("rows", len(rows)),
	)
	return Export{
		FileName:    projection.FileName(team, p),
		ContentType: projection.ContentType,
		Rows:        len(rows),
		Data:        buf.Bytes(),
	}, nil
}

// TeamKPIs returns the KPI catalog and bonus pool of team.
func (s *Service) TeamKPIs(ctx context.Context, team string) (KPISet, error) {
	snap, err := s.teamSnapshot(ctx, team)
	if err != nil {
		return KPISet{}, err
	}
	t, _ := snap.Team(team)
	kpis := snap.Graph.TeamKPIs(team)
	return KPISet{
		Team:      team,
		BonusPool: t.BonusPool,
		KPIs:      append([]model.KPI{}, kpis...),
		Weights:   scoring.CheckWeights(kpis),
	}, nil
}

// EmployeeDetail builds the drill down for one employee and period. KPIs
// without a value in the period show the overall score.
func (s *Service) EmployeeDetail(ctx context.Context, id, p string) (EmployeeDetail, error) {
	snap, err := s.store.Current(ctx)
	if err != nil {
		return EmployeeDetail{}, err
	}
	e, ok := snap.Employee(id)
	if !ok {
		return EmployeeDetail{}, fmt.Errorf("%w: %q", ErrUnknownEmployee, id)
	}
	p = s.resolvePeriod(p)
	team, _ := snap.Team(e.Team)
	rec, _ := e.Record(p)

	var noteByKPI map[string]string
	if store := s.notesStore(); store != nil {
		noteByKPI, err = store.List(ctx, e.ID, p)
		if err != nil {
			return EmployeeDetail{}, err
		}
	}

	catalog := snap.Graph.TeamKPIs(e.Team)
	kpis := make([]KPIDetail, 0, len(catalog))
	for _, k := range catalog {
		d := KPIDetail{KPI: k, Note: noteByKPI[k.ID]}
		if v, ok := rec.KPIs[k.ID]; ok {
			d.Achievement = v
		} else {
			d.Achievement = rec.Score
			d.Fallback = true
		}
		kpis = append(kpis, d)
	}

	return EmployeeDetail{
		ID:             e.ID,
		Name:           e.Name,
		Title:          e.Title,
		Team:           e.Team,
		Manager:        team.Manager,
		BaseSalary:     e.BaseSalary,
		BonusTargetPct: e.BonusTargetPct,
		Period:         p,
		Score:          rec.Score,
		Recomputed:     scoring.ComputeScore(snap.Graph, e.ID, p),
		Bonus:          amount.RoundWhole(scoring.DisplayBonus(e, p)),
		Estimate:       amount.RoundWhole(scoring.ComputeBonus(e.BaseSalary, e.BonusTargetPct, rec.Score)),
		Status:         scoring.TagFor(rec.Score),
		Delta:          aggregate.Delta(e, p, s.periods),
		KPIs:           kpis,
		History:        s.history(e),
	}, nil
}

// history lists the employee's records oldest first along the period
// order; records outside the configured periods follow in stored order.
func (s *Service) history(e model.Employee) []HistoryPoint {
	var out []HistoryPoint
	labels := s.periods.Labels()
	for i := len(labels) - 1; i >= 0; i-- {
		if rec, ok := e.Record(labels[i]); ok {
			out = append(out, point(e, rec))
		}
	}
	for _, rec := range e.History {
		if !s.periods.Contains(rec.Period) {
			out = append(out, point(e, rec))
		}
	}
	return out
}

func point(e model.Employee, rec model.PeriodRecord) HistoryPoint {
	return HistoryPoint{
		Period: rec.Period,
		Score:  rec.Score,
		Bonus:  amount.RoundWhole(scoring.DisplayBonus(e, rec.Period)),
	}
}

func (s *Service) teamSnapshot(ctx context.Context, team string) (*repository.Snapshot, error) {
	snap, err := s.store.Current(ctx)
	if err != nil {
		return nil, err
	}
	if _, ok := snap.Team(team); !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownTeam, team)
	}
	return snap, nil
}

func (s *Service) resolvePeriod(p string) string {
	if p == "" {
		return s.periods.Current()
	}
	return p
}

func (s *Service) resolveStatus(status string) (string, error) {
	if status == "" {
		return s.defaultStatus, nil
	}
	if !scoring.ValidStatus(status) {
		return "", fmt.Errorf("%w: %q", ErrInvalidStatus, status)
	}
	return status, nil
}
