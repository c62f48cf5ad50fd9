// Package model contains the entity graph built by an import: teams, the
// KPI catalog, employees and their period records.
package model

import (
	"strings"
	"time"

	"github.com/okian/kpibonus/internal/domain/amount"
	"github.com/okian/kpibonus/internal/domain/period"
)

// Row is one workbook row keyed by column header. Values are strings,
// numbers or nil for empty cells.
type Row map[string]any

// Text returns the trimmed text of column key.
func (r Row) Text(key string) string { return amount.Text(r[key]) }

// Number returns column key parsed with the amount heuristic.
func (r Row) Number(key string) float64 { return amount.Parse(r[key]) }

// Direction tells whether larger KPI values are better.
type Direction string

// KPI directions.
const (
	DirectionHigher Direction = "higher"
	DirectionLower  Direction = "lower"
)

// ParseDirection maps free text to a Direction; anything other than
// "lower" means higher-is-better.
func ParseDirection(s string) Direction {
	if strings.EqualFold(strings.TrimSpace(s), string(DirectionLower)) {
		return DirectionLower
	}
	return DirectionHigher
}

// Manager identifies the person responsible for a team.
type Manager struct {
	Name  string `json:"name"`
	Title string `json:"title"`
}

// Team is keyed by its trimmed, case-preserving name.
type Team struct {
	Name      string  `json:"name"`
	BonusPool float64 `json:"bonus_pool"`
	Manager   Manager `json:"manager"`
}

// KPI is a weighted performance indicator scoped to one team.
type KPI struct {
	ID          string    `json:"id"`
	Team        string    `json:"team"`
	Name        string    `json:"name"`
	Description string    `json:"description"`
	Weight      float64   `json:"weight"`
	Target      float64   `json:"target"`
	Unit        string    `json:"unit"`
	Source      string    `json:"source"`
	Direction   Direction `json:"direction"`
}

// PeriodRecord holds one employee's results for one period.
type PeriodRecord struct {
	Period string `json:"period"`
	// KPIs maps KPI id to achievement as a fraction (1.0 = 100%).
	KPIs  map[string]float64 `json:"kpis"`
	Score float64            `json:"score"`
	// BonusPaid is nil when no bonus was recorded for the period.
	BonusPaid *float64 `json:"bonus_paid,omitempty"`
}

// Employee is a roster entry with its period history.
type Employee struct {
	ID             string         `json:"id"`
	Name           string         `json:"name"`
	Title          string         `json:"title"`
	Team           string         `json:"team"`
	BaseSalary     float64        `json:"base_salary"`
	BonusTargetPct float64        `json:"bonus_target_pct"`
	History        []PeriodRecord `json:"history"`
}

// Record returns the record for period p.
func (e Employee) Record(p string) (PeriodRecord, bool) {
	for _, h := range e.History {
		if h.Period == p {
			return h, true
		}
	}
	return PeriodRecord{}, false
}

// ScoreFor returns the stored score for period p, 0 when there is no record.
func (e Employee) ScoreFor(p string) float64 {
	rec, _ := e.Record(p)
	return rec.Score
}

// Graph is the normalized result of one import. A published graph is never
// modified; edits work on a Clone.
type Graph struct {
	ImportID   string           `json:"import_id"`
	ImportedAt time.Time        `json:"imported_at"`
	Teams      []Team           `json:"teams"`
	KPICatalog map[string][]KPI `json:"kpi_catalog"`
	Employees  []Employee       `json:"employees"`
	Periods    period.Sequence  `json:"-"`
}

// TeamNames returns team names in first-seen order.
func (g *Graph) TeamNames() []string {
	out := make([]string, len(g.Teams))
	for i, t := range g.Teams {
		out[i] = t.Name
	}
	return out
}

// Team looks a team up by name.
func (g *Graph) Team(name string) (Team, bool) {
	for _, t := range g.Teams {
		if t.Name == name {
			return t, true
		}
	}
	return Team{}, false
}

// TeamSettings exposes the bonus pool per team.
func (g *Graph) TeamSettings() map[string]float64 {
	out := make(map[string]float64, len(g.Teams))
	for _, t := range g.Teams {
		out[t.Name] = t.BonusPool
	}
	return out
}

// Managers exposes the manager per team.
func (g *Graph) Managers() map[string]Manager {
	out := make(map[string]Manager, len(g.Teams))
	for _, t := range g.Teams {
		out[t.Name] = t.Manager
	}
	return out
}

// TeamKPIs returns the KPI catalog of a team.
func (g *Graph) TeamKPIs(team string) []KPI {
	return g.KPICatalog[team]
}

// Employee looks an employee up by id.
func (g *Graph) Employee(id string) (Employee, bool) {
	for _, e := range g.Employees {
		if e.ID == id {
			return e, true
		}
	}
	return Employee{}, false
}

// TeamEmployees returns the employees of a team in roster order.
func (g *Graph) TeamEmployees(team string) []Employee {
	var out []Employee
	for _, e := range g.Employees {
		if e.Team == team {
			out = append(out, e)
		}
	}
	return out
}

// Clone returns a deep copy.
func (g *Graph) Clone() *Graph {
	if g == nil {
		return nil
	}
	c := &Graph{
		ImportID:   g.ImportID,
		ImportedAt: g.ImportedAt,
		Teams:      append([]Team(nil), g.Teams...),
		Periods:    g.Periods,
	}
	if g.KPICatalog != nil {
		c.KPICatalog = make(map[string][]KPI, len(g.KPICatalog))
	}
	if g.Employees != nil {
		c.Employees = make([]Employee, len(g.Employees))
	}
	for team, kpis := range g.KPICatalog {
		c.KPICatalog[team] = append([]KPI(nil), kpis...)
	}
	for i, e := range g.Employees {
		c.Employees[i] = e.clone()
	}
	return c
}

func (e Employee) clone() Employee {
	c := e
	if e.History == nil {
		return c
	}
	c.History = make([]PeriodRecord, len(e.History))
	for i, h := range e.History {
		c.History[i] = h.clone()
	}
	return c
}

func (r PeriodRecord) clone() PeriodRecord {
	c := r
	if r.KPIs != nil {
		c.KPIs = make(map[string]float64, len(r.KPIs))
		for k, v := range r.KPIs {
			c.KPIs[k] = v
		}
	}
	if r.BonusPaid != nil {
		v := *r.BonusPaid
		c.BonusPaid = &v
	}
	return c
}
