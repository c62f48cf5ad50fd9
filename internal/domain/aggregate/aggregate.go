// Package aggregate derives team-level rollups and period-over-period
// deltas from the entity graph.
package aggregate

import (
	"github.com/okian/kpibonus/internal/domain/amount"
	"github.com/okian/kpibonus/internal/domain/model"
	"github.com/okian/kpibonus/internal/domain/period"
	"github.com/okian/kpibonus/internal/domain/scoring"
)

// Summary is the rollup of one team for one period.
type Summary struct {
	Team       string  `json:"team"`
	Period     string  `json:"period"`
	Headcount  int     `json:"headcount"`
	AvgScore   float64 `json:"avg_score"`
	AvgBonus   float64 `json:"avg_bonus"`
	TotalBonus float64 `json:"total_bonus"`
	BonusPool  float64 `json:"bonus_pool"`
	// PoolUsage is TotalBonus / BonusPool, 0 when the pool is not set.
	PoolUsage float64 `json:"pool_usage"`
}

// TeamSummary averages scores and bonuses over the employees of team.
// Missing records count as a zero score; bonuses follow the recorded-wins
// precedence and are rounded per employee before summing.
func TeamSummary(employees []model.Employee, team, p string) Summary {
	s := Summary{Team: team, Period: p}
	var scoreSum, bonusSum float64
	for _, e := range employees {
		if e.Team != team {
			continue
		}
		s.Headcount++
		scoreSum += e.ScoreFor(p)
		bonusSum += amount.RoundWhole(scoring.DisplayBonus(e, p))
	}
	if s.Headcount == 0 {
		return s
	}
	s.AvgScore = scoreSum / float64(s.Headcount)
	s.AvgBonus = bonusSum / float64(s.Headcount)
	s.TotalBonus = amount.RoundWhole(bonusSum)
	return s
}

// ForGraph is TeamSummary plus the team's bonus pool usage.
func ForGraph(g *model.Graph, team, p string) Summary {
	s := TeamSummary(g.Employees, team, p)
	if t, ok := g.Team(team); ok {
		s.BonusPool = t.BonusPool
		if t.BonusPool != 0 {
			s.PoolUsage = s.TotalBonus / t.BonusPool
		}
	}
	return s
}

// Overview summarizes every team of g for period p in team order.
func Overview(g *model.Graph, p string) []Summary {
	out := make([]Summary, 0, len(g.Teams))
	for _, t := range g.Teams {
		out = append(out, ForGraph(g, t.Name, p))
	}
	return out
}

// Delta returns the score change from the previous period in percentage
// points. It is nil when p has no predecessor in seq or the employee has no
// record for the predecessor.
func Delta(e model.Employee, p string, seq period.Sequence) *float64 {
	prev, ok := seq.Previous(p)
	if !ok {
		return nil
	}
	prevRec, ok := e.Record(prev)
	if !ok {
		return nil
	}
	d := (e.ScoreFor(p) - prevRec.Score) * 100
	return &d
}
