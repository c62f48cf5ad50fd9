// Package scoring computes weighted achievement scores, bonus estimates and
// performance tags for employee period records.
package scoring

import (
	"math"
	"sort"

	"github.com/okian/kpibonus/internal/domain/model"
)

// Scoring constants.
const (
	// BonusCap is the maximum payable multiple of the bonus target.
	BonusCap = 1.5

	GreatThreshold   = 0.9
	AverageThreshold = 0.7

	// weightTolerance decides when a team's weights count as summing to 1.
	weightTolerance = 0.001
)

// Tag classifies a score.
type Tag string

// Performance tags.
const (
	TagGreat          Tag = "Great"
	TagAverage        Tag = "Average"
	TagNeedsAttention Tag = "Needs attention"
)

// StatusAll disables status filtering.
const StatusAll = "All"

// Tags lists every tag from best to worst.
func Tags() []Tag { return []Tag{TagGreat, TagAverage, TagNeedsAttention} }

// TagFor classifies score; thresholds are inclusive.
func TagFor(score float64) Tag {
	switch {
	case score >= GreatThreshold:
		return TagGreat
	case score >= AverageThreshold:
		return TagAverage
	default:
		return TagNeedsAttention
	}
}

// ValidStatus reports whether s is "All" or one of the tag labels.
func ValidStatus(s string) bool {
	if s == StatusAll {
		return true
	}
	for _, t := range Tags() {
		if string(t) == s {
			return true
		}
	}
	return false
}

// WeightedScore returns Σ(achievement·weight)/Σ(weight) over the KPI ids
// present in both achievements and catalog. Ids missing from the catalog
// contribute no weight. A zero total weight yields 0.
func WeightedScore(achievements map[string]float64, catalog []model.KPI) float64 {
	if len(achievements) == 0 || len(catalog) == 0 {
		return 0
	}
	weights := make(map[string]float64, len(catalog))
	for _, k := range catalog {
		if _, seen := weights[k.ID]; !seen {
			weights[k.ID] = k.Weight
		}
	}

	// Sorted ids keep the float summation order stable between runs.
	ids := make([]string, 0, len(achievements))
	for id := range achievements {
		ids = append(ids, id)
	}
	sort.Strings(ids)

	var weighted, total float64
	for _, id := range ids {
		w, ok := weights[id]
		if !ok {
			continue
		}
		weighted += achievements[id] * w
		total += w
	}
	if total == 0 {
		return 0
	}
	return weighted / total
}

// ComputeScore scores an employee's period against the employee's team
// catalog in g. Unknown employees or periods score 0.
func ComputeScore(g *model.Graph, employeeID, period string) float64 {
	if g == nil {
		return 0
	}
	e, ok := g.Employee(employeeID)
	if !ok {
		return 0
	}
	rec, ok := e.Record(period)
	if !ok {
		return 0
	}
	return WeightedScore(rec.KPIs, g.TeamKPIs(e.Team))
}

// ComputeBonus estimates baseSalary·targetPct·min(achievement, BonusCap).
// There is no lower clamp.
func ComputeBonus(baseSalary, targetPct, achievement float64) float64 {
	return baseSalary * targetPct * math.Min(achievement, BonusCap)
}

// DisplayBonus returns the recorded bonus for period when one exists,
// including an explicit 0, and otherwise the estimate from the employee's
// current salary, target and stored score.
func DisplayBonus(e model.Employee, period string) float64 {
	rec, ok := e.Record(period)
	if ok && rec.BonusPaid != nil {
		return *rec.BonusPaid
	}
	return ComputeBonus(e.BaseSalary, e.BonusTargetPct, rec.Score)
}

// WeightCheck reports whether a KPI set's weights sum to 1.
type WeightCheck struct {
	Total    float64 `json:"total"`
	Balanced bool    `json:"balanced"`
}

// SumWeights adds up the weights of kpis.
func SumWeights(kpis []model.KPI) float64 {
	var s float64
	for _, k := range kpis {
		s += k.Weight
	}
	return s
}

// CheckWeights is advisory; callers flag unbalanced sets but never reject them.
func CheckWeights(kpis []model.KPI) WeightCheck {
	total := SumWeights(kpis)
	return WeightCheck{Total: total, Balanced: math.Abs(total-1) < weightTolerance}
}
