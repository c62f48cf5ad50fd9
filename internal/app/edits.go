package service

import (
	"context"
	"fmt"

	"github.com/okian/kpibonus/internal/adapters/notes"
	"github.com/okian/kpibonus/internal/domain/editor"
	"github.com/okian/kpibonus/internal/domain/model"
	"github.com/okian/kpibonus/internal/domain/session"
	"github.com/okian/kpibonus/pkg/logger"
	"github.com/okian/kpibonus/pkg/metrics"
)

// Session actions accepted by Transition.
const (
	ActionSelectTeam   = "select_team"
	ActionSelectPeriod = "select_period"
	ActionSelectStatus = "select_status"
	ActionOpenEditor   = "open_editor"
	ActionSaveEditor   = "save_editor"
	ActionCancelEditor = "cancel_editor"
	ActionOpenDetail   = "open_detail"
	ActionCloseDetail  = "close_detail"
)

// UpdateKPIs replaces the KPI set and bonus pool of team and publishes
// the edited graph. When the session is on the editor it returns to the
// dashboard.
func (s *Service) UpdateKPIs(ctx context.Context, team string, kpis []model.KPI, bonusPool float64) (KPISet, error) {
	const op = "service.UpdateKPIs"

	s.mu.Lock()
	defer s.mu.Unlock()

	snap, err := s.store.Current(ctx)
	if err != nil {
		metrics.RecordKPIEdit(metrics.OutcomeRejected)
		return KPISet{}, err
	}
	next, check, err := editor.ReplaceTeamKPIs(snap.Graph, team, kpis, bonusPool)
	if err != nil {
		metrics.RecordKPIEdit(metrics.OutcomeRejected)
		return KPISet{}, fmt.Errorf("%s: %w", op, err)
	}
	if _, err := s.store.Publish(ctx, next); err != nil {
		metrics.RecordKPIEdit(metrics.OutcomeFailed)
		return KPISet{}, fmt.Errorf("%s: %w", op, err)
	}
	if s.session.Screen == session.ScreenEditor {
		s.session, _ = s.session.SaveEditor()
	}

	metrics.RecordKPIEdit(metrics.OutcomeSuccess)
	fields := []logger.Field{
		logger.String("team", team),
		logger.Int("kpis", len(next.TeamKPIs(team))),
		logger.Float64("weightTotal", check.Total),
	}
	if check.Balanced {
		s.log().Info(ctx, "kpi catalog updated", fields...)
	} else {
		s.log().Warn(ctx, "kpi catalog updated with unbalanced weights", fields...)
	}

	t, _ := next.Team(team)
	return KPISet{
		Team:      team,
		BonusPool: t.BonusPool,
		KPIs:      next.TeamKPIs(team),
		Weights:   check,
	}, nil
}

// Note returns one KPI note.
func (s *Service) Note(ctx context.Context, key notes.Key) (string, error) {
	store := s.notesStore()
	if store == nil {
		return "", ErrNotStarted
	}
	return store.Get(ctx, key)
}

// SetNote stores one KPI note for an employee of the current graph. An
// empty text removes the note.
func (s *Service) SetNote(ctx context.Context, key notes.Key, text string) error {
	store := s.notesStore()
	if store == nil {
		return ErrNotStarted
	}
	snap, err := s.store.Current(ctx)
	if err != nil {
		return err
	}
	if _, ok := snap.Employee(key.Employee); !ok {
		return fmt.Errorf("%w: %q", ErrUnknownEmployee, key.Employee)
	}
	if err := store.Set(ctx, key, text); err != nil {
		metrics.RecordErrorByComponent("notes", "write")
		return err
	}
	metrics.RecordNoteWrite()
	return nil
}

// Session returns the current screen state.
func (s *Service) Session() session.State {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.session
}

// Transition applies a named session action. arg carries the team,
// period, status or employee id the action needs.
func (s *Service) Transition(ctx context.Context, action, arg string) (session.State, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var (
		next session.State
		err  error
	)
	switch action {
	case ActionSelectTeam:
		next, err = s.session.SelectTeam(arg)
	case ActionSelectPeriod:
		next, err = s.session.SelectPeriod(arg)
	case ActionSelectStatus:
		next, err = s.session.SelectStatus(arg)
	case ActionOpenEditor:
		next, err = s.session.OpenEditor()
	case ActionSaveEditor:
		next, err = s.session.SaveEditor()
	case ActionCancelEditor:
		next, err = s.session.CancelEditor()
	case ActionOpenDetail:
		if snap, cerr := s.store.Current(ctx); cerr == nil {
			if _, ok := snap.Employee(arg); !ok {
				err = fmt.Errorf("%w: %q", ErrUnknownEmployee, arg)
				break
			}
		}
		next, err = s.session.OpenDetail(arg)
	case ActionCloseDetail:
		next, err = s.session.CloseDetail()
	default:
		metrics.RecordSessionTransition("unknown", metrics.OutcomeRejected)
		return s.session, fmt.Errorf("%w: %q", ErrUnknownAction, action)
	}
	if err != nil {
		metrics.RecordSessionTransition(action, metrics.OutcomeRejected)
		s.log().Debug(ctx, "session transition rejected", logger.String("action", action), logger.Error(err))
		return s.session, err
	}

	metrics.RecordSessionTransition(action, metrics.OutcomeSuccess)
	s.session = next
	return next, nil
}

func (s *Service) notesStore() notes.Store {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.notes
}
