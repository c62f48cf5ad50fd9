// Package session models which screen is active and the selection that
// goes with it. State is a value; every transition returns a new State.
package session

import (
	"errors"
	"fmt"
	"slices"

	"github.com/okian/kpibonus/internal/domain/scoring"
)

// Screen is the active view.
type Screen string

// Screens.
const (
	ScreenStart     Screen = "start"
	ScreenDashboard Screen = "dashboard"
	ScreenEditor    Screen = "editor"
	ScreenDetail    Screen = "detail"
)

var (
	// ErrInvalidTransition is returned when an action is not allowed from
	// the current screen.
	ErrInvalidTransition = errors.New("invalid transition")
	// ErrUnknownSelection is returned when a team, period or status is not
	// one of the known values.
	ErrUnknownSelection = errors.New("unknown selection")
)

// State is the current screen plus the dashboard selection.
type State struct {
	Screen   Screen   `json:"screen"`
	Team     string   `json:"team,omitempty"`
	Period   string   `json:"period,omitempty"`
	Status   string   `json:"status"`
	Employee string   `json:"employee,omitempty"`
	Teams    []string `json:"teams,omitempty"`
	Periods  []string `json:"periods,omitempty"`
}

// New returns the start screen.
func New() State {
	return State{Screen: ScreenStart, Status: scoring.StatusAll}
}

// Import lands on the dashboard after a successful import from any screen.
// The selected team survives when it still exists, otherwise the first
// team is selected. An unknown period falls back to the newest one.
func (s State) Import(teams, periods []string) State {
	next := State{
		Screen:  ScreenDashboard,
		Status:  s.Status,
		Teams:   slices.Clone(teams),
		Periods: slices.Clone(periods),
	}
	if next.Status == "" {
		next.Status = scoring.StatusAll
	}
	if slices.Contains(teams, s.Team) {
		next.Team = s.Team
	} else if len(teams) > 0 {
		next.Team = teams[0]
	}
	if slices.Contains(periods, s.Period) {
		next.Period = s.Period
	} else if len(periods) > 0 {
		next.Period = periods[0]
	}
	return next
}

// SelectTeam changes the dashboard team.
func (s State) SelectTeam(team string) (State, error) {
	if s.Screen != ScreenDashboard {
		return s, s.invalid("select team")
	}
	if !slices.Contains(s.Teams, team) {
		return s, fmt.Errorf("%w: team %q", ErrUnknownSelection, team)
	}
	s.Team = team
	return s, nil
}

// SelectPeriod changes the period on the dashboard or the detail view.
func (s State) SelectPeriod(p string) (State, error) {
	if s.Screen != ScreenDashboard && s.Screen != ScreenDetail {
		return s, s.invalid("select period")
	}
	if !slices.Contains(s.Periods, p) {
		return s, fmt.Errorf("%w: period %q", ErrUnknownSelection, p)
	}
	s.Period = p
	return s, nil
}

// SelectStatus changes the dashboard status filter.
func (s State) SelectStatus(status string) (State, error) {
	if s.Screen != ScreenDashboard {
		return s, s.invalid("select status")
	}
	if !scoring.ValidStatus(status) {
		return s, fmt.Errorf("%w: status %q", ErrUnknownSelection, status)
	}
	s.Status = status
	return s, nil
}

// OpenEditor moves from the dashboard to the KPI editor.
func (s State) OpenEditor() (State, error) {
	return s.move(ScreenDashboard, ScreenEditor, "open editor")
}

// SaveEditor returns to the dashboard after the edit was applied.
func (s State) SaveEditor() (State, error) {
	return s.move(ScreenEditor, ScreenDashboard, "save editor")
}

// CancelEditor returns to the dashboard without applying anything.
func (s State) CancelEditor() (State, error) {
	return s.move(ScreenEditor, ScreenDashboard, "cancel editor")
}

// OpenDetail shows one employee.
func (s State) OpenDetail(employeeID string) (State, error) {
	if employeeID == "" {
		return s, fmt.Errorf("%w: empty employee", ErrUnknownSelection)
	}
	next, err := s.move(ScreenDashboard, ScreenDetail, "open detail")
	if err != nil {
		return s, err
	}
	next.Employee = employeeID
	return next, nil
}

// CloseDetail returns to the dashboard.
func (s State) CloseDetail() (State, error) {
	next, err := s.move(ScreenDetail, ScreenDashboard, "close detail")
	if err != nil {
		return s, err
	}
	next.Employee = ""
	return next, nil
}

func (s State) move(from, to Screen, action string) (State, error) {
	if s.Screen != from {
		return s, s.invalid(action)
	}
	s.Screen = to
	return s, nil
}

func (s State) invalid(action string) error {
	return fmt.Errorf("%w: %s from %s", ErrInvalidTransition, action, s.Screen)
}
