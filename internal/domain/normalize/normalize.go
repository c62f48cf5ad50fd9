// Package normalize reconciles the five workbook row sources into a single
// entity graph. Normalize is a pure function: input rows are never
// modified, and the same input always yields the same graph.
package normalize

import (
	"fmt"

	"github.com/okian/kpibonus/internal/domain/amount"
	"github.com/okian/kpibonus/internal/domain/model"
	"github.com/okian/kpibonus/internal/domain/period"
	"github.com/okian/kpibonus/internal/domain/scoring"
)

// Column headers per sheet.
const (
	ColTeam         = "Team"
	ColBonusPool    = "BonusPoolEUR"
	ColManagerName  = "ManagerName"
	ColManagerTitle = "ManagerTitle"

	ColKPIID       = "KPI_ID"
	ColName        = "Name"
	ColDescription = "Description"
	ColWeight      = "Weight"
	ColTarget      = "Target"
	ColUnit        = "Unit"
	ColSource      = "Source"
	ColDirection   = "Direction"

	ColEmployeeID     = "EmployeeID"
	ColTitle          = "Title"
	ColBaseSalary     = "BaseSalary"
	ColBonusTargetPct = "BonusTargetPct"

	ColPeriod             = "Period"
	ColAchievementPercent = "AchievementPercent"
)

// DefaultKPISource labels KPIs whose Source cell is empty.
const DefaultKPISource = "Manual"

// Sources holds the rows of the recognized sheets.
type Sources struct {
	Teams     []model.Row
	KPIs      []model.Row
	Employees []model.Row
	History   []model.Row
	KPIData   []model.Row
}

func (s Sources) seedEmpty() bool {
	return len(s.Teams) == 0 && len(s.KPIs) == 0 && len(s.Employees) == 0
}

// Stats summarizes what an import kept and dropped.
type Stats struct {
	TeamRows         int      `json:"team_rows"`
	KPIRows          int      `json:"kpi_rows"`
	EmployeeRows     int      `json:"employee_rows"`
	HistoryRows      int      `json:"history_rows"`
	KPIDataRows      int      `json:"kpi_data_rows"`
	DroppedEmployees int      `json:"dropped_employees"`
	DroppedHistory   int      `json:"dropped_history"`
	DroppedKPIData   int      `json:"dropped_kpi_data"`
	DroppedKPIs      int      `json:"dropped_kpis"`
	UnbalancedTeams  []string `json:"unbalanced_teams,omitempty"`
}

// Dropped returns the total number of rows that were discarded.
func (s Stats) Dropped() int {
	return s.DroppedEmployees + s.DroppedHistory + s.DroppedKPIData + s.DroppedKPIs
}

// Option configures Normalize.
type Option func(*options)

type options struct {
	periods period.Sequence
}

// WithPeriods sets the period sequence attached to the graph.
func WithPeriods(seq period.Sequence) Option {
	return func(o *options) {
		if seq.Len() > 0 {
			o.periods = seq
		}
	}
}

// Normalize builds the entity graph from the row sources.
func Normalize(src Sources, opts ...Option) (*model.Graph, Stats, error) {
	const op = "normalize"

	o := options{periods: period.Default()}
	for _, opt := range opts {
		opt(&o)
	}

	stats := Stats{
		TeamRows:     len(src.Teams),
		KPIRows:      len(src.KPIs),
		EmployeeRows: len(src.Employees),
		HistoryRows:  len(src.History),
		KPIDataRows:  len(src.KPIData),
	}

	if src.seedEmpty() {
		return nil, stats, fmt.Errorf("%s: %w: %w", op, ErrEmptyDataset, ErrNoRecognizedSheet)
	}

	names := teamUniverse(src)
	if len(names) == 0 {
		return nil, stats, fmt.Errorf("%s: %w: %w", op, ErrNoTeamsResolved, ErrEmptyDataset)
	}

	g := &model.Graph{
		Teams:      buildTeams(names, src.Teams),
		KPICatalog: buildCatalog(src.KPIs, &stats),
		Periods:    o.periods,
	}

	achievements := groupAchievements(src.KPIData, &stats)
	g.Employees = buildEmployees(src.Employees, &stats)
	attachHistory(g, src.History, achievements, &stats)

	for _, name := range names {
		kpis := g.KPICatalog[name]
		if len(kpis) > 0 && !scoring.CheckWeights(kpis).Balanced {
			stats.UnbalancedTeams = append(stats.UnbalancedTeams, name)
		}
	}

	return g, stats, nil
}

// teamUniverse collects trimmed team names from the three seed sources in
// first-seen order.
func teamUniverse(src Sources) []string {
	seen := make(map[string]struct{})
	var names []string
	for _, rows := range [][]model.Row{src.Teams, src.KPIs, src.Employees} {
		for _, r := range rows {
			name := r.Text(ColTeam)
			if name == "" {
				continue
			}
			if _, ok := seen[name]; ok {
				continue
			}
			seen[name] = struct{}{}
			names = append(names, name)
		}
	}
	return names
}

func buildTeams(names []string, rows []model.Row) []model.Team {
	byName := make(map[string]model.Team, len(rows))
	for _, r := range rows {
		name := r.Text(ColTeam)
		if name == "" {
			continue
		}
		byName[name] = model.Team{
			Name:      name,
			BonusPool: r.Number(ColBonusPool),
			Manager: model.Manager{
				Name:  r.Text(ColManagerName),
				Title: r.Text(ColManagerTitle),
			},
		}
	}

	teams := make([]model.Team, len(names))
	for i, name := range names {
		t, ok := byName[name]
		if !ok {
			t = model.Team{Name: name}
		}
		teams[i] = t
	}
	return teams
}

func buildCatalog(rows []model.Row, stats *Stats) map[string][]model.KPI {
	catalog := make(map[string][]model.KPI)
	for _, r := range rows {
		team := r.Text(ColTeam)
		if team == "" {
			stats.DroppedKPIs++
			continue
		}
		name := r.Text(ColName)
		id := r.Text(ColKPIID)
		if id == "" {
			id = FallbackKPIID(team, name)
		}
		source := r.Text(ColSource)
		if source == "" {
			source = DefaultKPISource
		}
		catalog[team] = append(catalog[team], model.KPI{
			ID:          id,
			Team:        team,
			Name:        name,
			Description: r.Text(ColDescription),
			Weight:      r.Number(ColWeight),
			Target:      r.Number(ColTarget),
			Unit:        r.Text(ColUnit),
			Source:      source,
			Direction:   model.ParseDirection(r.Text(ColDirection)),
		})
	}
	return catalog
}

// FallbackKPIID composes the id used when a KPI row has no explicit id.
func FallbackKPIID(team, name string) string {
	return team + "_" + name
}

// groupAchievements maps employee -> period -> KPI id -> fraction.
func groupAchievements(rows []model.Row, stats *Stats) map[string]map[string]map[string]float64 {
	out := make(map[string]map[string]map[string]float64)
	for _, r := range rows {
		emp := r.Text(ColEmployeeID)
		p := r.Text(ColPeriod)
		kpi := r.Text(ColKPIID)
		if emp == "" || p == "" || kpi == "" {
			stats.DroppedKPIData++
			continue
		}
		byPeriod, ok := out[emp]
		if !ok {
			byPeriod = make(map[string]map[string]float64)
			out[emp] = byPeriod
		}
		byKPI, ok := byPeriod[p]
		if !ok {
			byKPI = make(map[string]float64)
			byPeriod[p] = byKPI
		}
		byKPI[kpi] = r.Number(ColAchievementPercent) / 100
	}
	return out
}

func buildEmployees(rows []model.Row, stats *Stats) []model.Employee {
	seen := make(map[string]struct{}, len(rows))
	employees := make([]model.Employee, 0, len(rows))
	for _, r := range rows {
		id := r.Text(ColEmployeeID)
		team := r.Text(ColTeam)
		if id == "" || team == "" {
			stats.DroppedEmployees++
			continue
		}
		if _, dup := seen[id]; dup {
			stats.DroppedEmployees++
			continue
		}
		seen[id] = struct{}{}
		employees = append(employees, model.Employee{
			ID:             id,
			Name:           r.Text(ColName),
			Title:          r.Text(ColTitle),
			Team:           team,
			BaseSalary:     r.Number(ColBaseSalary),
			BonusTargetPct: r.Number(ColBonusTargetPct),
		})
	}
	return employees
}

// attachHistory creates one record per (employee, period) seen in the
// history rows and computes its score and bonus. Score and BonusPaid
// columns of the history sheet are ignored on purpose: KPI-level data is
// the single source of truth.
func attachHistory(g *model.Graph, rows []model.Row, achievements map[string]map[string]map[string]float64, stats *Stats) {
	index := make(map[string]int, len(g.Employees))
	for i, e := range g.Employees {
		index[e.ID] = i
	}

	for _, r := range rows {
		id := r.Text(ColEmployeeID)
		p := r.Text(ColPeriod)
		i, known := index[id]
		if id == "" || p == "" || !known {
			stats.DroppedHistory++
			continue
		}
		e := &g.Employees[i]
		if _, exists := e.Record(p); exists {
			continue
		}
		e.History = append(e.History, scoreRecord(*e, p, achievements[id][p], g.TeamKPIs(e.Team)))
	}
}

func scoreRecord(e model.Employee, p string, kpis map[string]float64, catalog []model.KPI) model.PeriodRecord {
	rec := model.PeriodRecord{Period: p}
	if len(kpis) == 0 {
		return rec
	}
	rec.KPIs = make(map[string]float64, len(kpis))
	for k, v := range kpis {
		rec.KPIs[k] = v
	}
	rec.Score = scoring.WeightedScore(rec.KPIs, catalog)
	bonus := amount.RoundWhole(scoring.ComputeBonus(e.BaseSalary, e.BonusTargetPct, rec.Score))
	rec.BonusPaid = &bonus
	return rec
}
