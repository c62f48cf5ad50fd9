// Package editor applies KPI catalog edits to an entity graph. Edits never
// touch the input graph; they return a modified clone.
package editor

import (
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/okian/kpibonus/internal/domain/model"
	"github.com/okian/kpibonus/internal/domain/normalize"
	"github.com/okian/kpibonus/internal/domain/scoring"
)

var (
	// ErrUnknownTeam is returned when the edited team is not in the graph.
	ErrUnknownTeam = errors.New("unknown team")
	// ErrInvalidKPI is returned for KPIs without a name or with a negative weight.
	ErrInvalidKPI = errors.New("invalid kpi")
	// ErrDuplicateKPIID is returned when two edited KPIs share an id.
	ErrDuplicateKPIID = errors.New("duplicate kpi id")
	// ErrInvalidBonusPool is returned for a negative bonus pool.
	ErrInvalidBonusPool = errors.New("invalid bonus pool")
)

// NewKPIID generates an id for a KPI created in the editor.
func NewKPIID(team string) string {
	return team + "_kpi_" + uuid.NewString()
}

// ReplaceTeamKPIs swaps the KPI set and bonus pool of team. KPIs without an
// id get a generated one; the team field is forced to team. The weight
// check is advisory and never fails the edit. Stored period records are
// left as imported.
func ReplaceTeamKPIs(g *model.Graph, team string, kpis []model.KPI, bonusPool float64) (*model.Graph, scoring.WeightCheck, error) {
	const op = "editor.ReplaceTeamKPIs"

	if g == nil {
		return nil, scoring.WeightCheck{}, fmt.Errorf("%s: %w: %q", op, ErrUnknownTeam, team)
	}
	if _, ok := g.Team(team); !ok {
		return nil, scoring.WeightCheck{}, fmt.Errorf("%s: %w: %q", op, ErrUnknownTeam, team)
	}
	if bonusPool < 0 {
		return nil, scoring.WeightCheck{}, fmt.Errorf("%s: %w: %v", op, ErrInvalidBonusPool, bonusPool)
	}

	out := make([]model.KPI, 0, len(kpis))
	seen := make(map[string]struct{}, len(kpis))
	for i, k := range kpis {
		k.Name = strings.TrimSpace(k.Name)
		k.ID = strings.TrimSpace(k.ID)
		if k.Name == "" || k.Weight < 0 {
			return nil, scoring.WeightCheck{}, fmt.Errorf("%s: %w at position %d", op, ErrInvalidKPI, i)
		}
		if k.ID == "" {
			k.ID = NewKPIID(team)
		}
		if _, dup := seen[k.ID]; dup {
			return nil, scoring.WeightCheck{}, fmt.Errorf("%s: %w: %q", op, ErrDuplicateKPIID, k.ID)
		}
		seen[k.ID] = struct{}{}
		k.Team = team
		if k.Source == "" {
			k.Source = normalize.DefaultKPISource
		}
		if k.Direction == "" {
			k.Direction = model.DirectionHigher
		}
		out = append(out, k)
	}

	next := g.Clone()
	if next.KPICatalog == nil {
		next.KPICatalog = make(map[string][]model.KPI)
	}
	next.KPICatalog[team] = out
	for i := range next.Teams {
		if next.Teams[i].Name == team {
			next.Teams[i].BonusPool = bonusPool
		}
	}
	return next, scoring.CheckWeights(out), nil
}
