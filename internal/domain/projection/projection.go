// Package projection turns the entity graph into the filtered, sorted rows
// shown in the team report and serializes them as CSV.
package projection

import (
	"sort"

	"github.com/okian/kpibonus/internal/domain/aggregate"
	"github.com/okian/kpibonus/internal/domain/amount"
	"github.com/okian/kpibonus/internal/domain/model"
	"github.com/okian/kpibonus/internal/domain/period"
	"github.com/okian/kpibonus/internal/domain/scoring"
)

// Row is one projected employee.
type Row struct {
	EmployeeID     string      `json:"employee_id"`
	Name           string      `json:"name"`
	Title          string      `json:"title"`
	Team           string      `json:"team"`
	Score          float64     `json:"score"`
	AchievementPct int         `json:"achievement_pct"`
	Bonus          float64     `json:"bonus"`
	Status         scoring.Tag `json:"status"`
	// Delta is the change from the previous period in percentage points.
	Delta *float64 `json:"delta,omitempty"`
}

// Option configures Project.
type Option func(*options)

type options struct {
	periods *period.Sequence
}

// WithPeriods enables delta computation against seq.
func WithPeriods(seq period.Sequence) Option {
	return func(o *options) { o.periods = &seq }
}

// Project filters employees by team and, unless status is "All", by the
// tag of their score for p, then sorts by name. Sorting always runs after
// filtering; input order is never trusted.
func Project(employees []model.Employee, team, p, status string, opts ...Option) []Row {
	var o options
	for _, opt := range opts {
		opt(&o)
	}

	var picked []model.Employee
	for _, e := range employees {
		if e.Team != team {
			continue
		}
		if status != scoring.StatusAll && string(scoring.TagFor(e.ScoreFor(p))) != status {
			continue
		}
		picked = append(picked, e)
	}

	sort.SliceStable(picked, func(i, j int) bool { return picked[i].Name < picked[j].Name })

	rows := make([]Row, 0, len(picked))
	for _, e := range picked {
		score := e.ScoreFor(p)
		r := Row{
			EmployeeID:     e.ID,
			Name:           e.Name,
			Title:          e.Title,
			Team:           e.Team,
			Score:          score,
			AchievementPct: int(amount.RoundWhole(score * 100)),
			Bonus:          amount.RoundWhole(scoring.DisplayBonus(e, p)),
			Status:         scoring.TagFor(score),
		}
		if o.periods != nil {
			r.Delta = aggregate.Delta(e, p, *o.periods)
		}
		rows = append(rows, r)
	}
	return rows
}
