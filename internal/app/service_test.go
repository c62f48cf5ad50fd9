package service_test

import (
	"bytes"
	"context"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	service "github.com/okian/kpibonus/internal/app"
	"github.com/okian/kpibonus/internal/adapters/notes"
	"github.com/okian/kpibonus/internal/adapters/repository"
	"github.com/okian/kpibonus/internal/adapters/workbook"
	"github.com/okian/kpibonus/internal/domain/editor"
	"github.com/okian/kpibonus/internal/domain/model"
	"github.com/okian/kpibonus/internal/domain/normalize"
	"github.com/okian/kpibonus/internal/domain/session"
	"github.com/okian/kpibonus/pkg/logger"
	. "github.com/smartystreets/goconvey/convey"
	"github.com/xuri/excelize/v2"
)

func buildWorkbook(t *testing.T, sheets map[string][][]any) []byte {
	t.Helper()
	f := excelize.NewFile()
	defer func() { _ = f.Close() }()
	for name, rows := range sheets {
		if _, err := f.NewSheet(name); err != nil {
			t.Fatal(err)
		}
		for i, row := range rows {
			cell, _ := excelize.CoordinatesToCellName(1, i+1)
			r := row
			if err := f.SetSheetRow(name, cell, &r); err != nil {
				t.Fatal(err)
			}
		}
	}
	buf, err := f.WriteToBuffer()
	if err != nil {
		t.Fatal(err)
	}
	return buf.Bytes()
}

func salesWorkbook(t *testing.T) []byte {
	return buildWorkbook(t, map[string][][]any{
		"Teams": {
			{"Team", "BonusPoolEUR", "ManagerName", "ManagerTitle"},
			{"Sales", "20.000,00", "Ann", "Head of Sales"},
			{"Ops", 5000, "Bob", "COO"},
		},
		"KPIs": {
			{"KPI_ID", "Team", "Name", "Weight"},
			{"k1", "Sales", "Revenue", 0.6},
			{"k2", "Sales", "NPS", 0.4},
			{"", "Ops", "Uptime", 1},
		},
		"Employees": {
			{"EmployeeID", "Name", "Title", "Team", "BaseSalary", "BonusTargetPct"},
			{"E1", "Zoe", "Rep", "Sales", 100000, 0.1},
			{"E2", "Ari", "Rep", "Sales", 50000, 0.1},
			{"E3", "Olu", "Engineer", "Ops", 80000, 0.1},
			{"E1", "Dup", "Rep", "Sales", 1, 1},
		},
		"KPIHistory": {
			{"EmployeeID", "Period"},
			{"E1", "Q3 '25"},
			{"E1", "Q2 '25"},
			{"E2", "Q3 '25"},
			{"E9", "Q3 '25"},
		},
		"KPIData": {
			{"EmployeeID", "Period", "KPI_ID", "AchievementPercent"},
			{"E1", "Q3 '25", "k1", 90},
			{"E1", "Q3 '25", "k2", "50%"},
			{"E1", "Q2 '25", "k1", 64},
			{"E1", "Q2 '25", "k2", 64},
			{"E2", "Q3 '25", "k1", 60},
		},
	})
}

func newService(opts ...service.Option) *service.Service {
	fixed := time.Date(2025, 10, 1, 9, 0, 0, 0, time.UTC)
	opts = append([]service.Option{
		service.WithLogger(logger.Discard()),
		service.WithClock(func() time.Time { return fixed }),
	}, opts...)
	return service.New(opts...)
}

func TestImport(t *testing.T) {
	Convey("Given a started service", t, func() {
		ctx := context.Background()
		svc := newService()
		So(svc.Start(ctx), ShouldBeNil)
		defer svc.Stop()

		Convey("Before any import", func() {
			_, err := svc.Teams(ctx)
			So(errors.Is(err, repository.ErrNoDataset), ShouldBeTrue)
			So(svc.Session().Screen, ShouldEqual, session.ScreenStart)
			So(svc.GetStats()["dataset"], ShouldEqual, false)
		})

		Convey("When importing a valid workbook", func() {
			report, err := svc.Import(ctx, "kpis.xlsx", bytes.NewReader(salesWorkbook(t)))
			So(err, ShouldBeNil)

			Convey("Then the report describes the graph", func() {
				So(report.ImportID, ShouldNotBeEmpty)
				So(report.ImportedAt, ShouldEqual, time.Date(2025, 10, 1, 9, 0, 0, 0, time.UTC))
				So(report.Version, ShouldEqual, 1)
				So(report.Teams, ShouldResemble, []string{"Sales", "Ops"})
				So(report.Employees, ShouldEqual, 3)
				So(report.KPIs, ShouldEqual, 3)
				So(report.Stats.DroppedEmployees, ShouldEqual, 1)
				So(report.Stats.DroppedHistory, ShouldEqual, 1)
			})

			Convey("Then the session lands on the dashboard", func() {
				st := svc.Session()
				So(st.Screen, ShouldEqual, session.ScreenDashboard)
				So(st.Team, ShouldEqual, "Sales")
				So(st.Period, ShouldEqual, "Q3 '25")
			})

			Convey("Then teams carry headcount and weights", func() {
				teams, err := svc.Teams(ctx)
				So(err, ShouldBeNil)
				So(len(teams), ShouldEqual, 2)
				So(teams[0].Name, ShouldEqual, "Sales")
				So(teams[0].BonusPool, ShouldEqual, 20000)
				So(teams[0].Headcount, ShouldEqual, 2)
				So(teams[0].Weights.Balanced, ShouldBeTrue)
				So(teams[1].Manager.Title, ShouldEqual, "COO")
			})

			Convey("Then the team summary uses the computed bonuses", func() {
				sum, err := svc.Summary(ctx, "Sales", "")
				So(err, ShouldBeNil)
				// E1: 0.74 -> 7400, E2: 0.6 -> 3000
				So(sum.Period, ShouldEqual, "Q3 '25")
				So(sum.Headcount, ShouldEqual, 2)
				So(sum.TotalBonus, ShouldEqual, 10400)
				So(sum.PoolUsage, ShouldAlmostEqual, 0.52, 1e-9)

				_, err = svc.Summary(ctx, "HR", "")
				So(errors.Is(err, service.ErrUnknownTeam), ShouldBeTrue)

				all, err := svc.Overview(ctx, "")
				So(err, ShouldBeNil)
				So(len(all), ShouldEqual, 2)
			})

			Convey("Then reports are sorted, tagged and carry deltas", func() {
				rows, err := svc.Reports(ctx, "Sales", "Q3 '25", "")
				So(err, ShouldBeNil)
				So(len(rows), ShouldEqual, 2)
				So(rows[0].Name, ShouldEqual, "Ari")
				So(rows[1].Name, ShouldEqual, "Zoe")
				So(rows[1].AchievementPct, ShouldEqual, 74)
				So(rows[1].Bonus, ShouldEqual, 7400)
				So(*rows[1].Delta, ShouldAlmostEqual, 10, 1e-9)

				avg, err := svc.Reports(ctx, "Sales", "Q3 '25", "Average")
				So(err, ShouldBeNil)
				So(len(avg), ShouldEqual, 1)

				_, err = svc.Reports(ctx, "Sales", "Q3 '25", "Stellar")
				So(errors.Is(err, service.ErrInvalidStatus), ShouldBeTrue)
			})

			Convey("Then the export is a quoted CSV", func() {
				exp, err := svc.Export(ctx, "Sales", "", "All")
				So(err, ShouldBeNil)
				So(exp.FileName, ShouldEqual, "Sales_Q3 '25_team_report.csv")
				So(exp.Rows, ShouldEqual, 2)
				lines := strings.Split(string(exp.Data), "\n")
				So(len(lines), ShouldEqual, 3)
				So(lines[2], ShouldEqual, `"Zoe","Rep","Sales","74","7400","Average"`)

				empty, err := svc.Export(ctx, "Ops", "Q3 '25", "Great")
				So(err, ShouldBeNil)
				So(empty.Rows, ShouldEqual, 0)
				So(strings.Count(string(empty.Data), "\n"), ShouldEqual, 0)
			})

			Convey("Then the employee detail falls back to the overall score", func() {
				d, err := svc.EmployeeDetail(ctx, "E2", "")
				So(err, ShouldBeNil)
				So(d.Score, ShouldAlmostEqual, 0.6, 1e-9)
				So(d.Recomputed, ShouldAlmostEqual, 0.6, 1e-9)
				So(d.Bonus, ShouldEqual, 3000)
				So(d.Manager.Name, ShouldEqual, "Ann")
				So(len(d.KPIs), ShouldEqual, 2)
				So(d.KPIs[0].Achievement, ShouldAlmostEqual, 0.6, 1e-9)
				So(d.KPIs[0].Fallback, ShouldBeFalse)
				So(d.KPIs[1].Achievement, ShouldAlmostEqual, 0.6, 1e-9)
				So(d.KPIs[1].Fallback, ShouldBeTrue)
				So(d.Delta, ShouldBeNil)

				z, err := svc.EmployeeDetail(ctx, "E1", "Q3 '25")
				So(err, ShouldBeNil)
				So(len(z.History), ShouldEqual, 2)
				So(z.History[0].Period, ShouldEqual, "Q2 '25")
				So(z.History[1].Bonus, ShouldEqual, 7400)

				_, err = svc.EmployeeDetail(ctx, "E9", "")
				So(errors.Is(err, service.ErrUnknownEmployee), ShouldBeTrue)
			})

			Convey("Then stats expose the dataset", func() {
				stats := svc.GetStats()
				So(stats["dataset"], ShouldEqual, true)
				So(stats["teams"], ShouldEqual, 2)
				So(stats["employees"], ShouldEqual, 3)
			})

			Convey("And a broken second import keeps the first graph", func() {
				_, err := svc.Import(ctx, "bad.xlsx", strings.NewReader("nope"))
				So(errors.Is(err, workbook.ErrUnreadableWorkbook), ShouldBeTrue)

				_, err = svc.Import(ctx, "data.csv", strings.NewReader("a,b"))
				So(errors.Is(err, workbook.ErrInvalidFileType), ShouldBeTrue)

				empty := buildWorkbook(t, map[string][][]any{"Other": {{"x"}, {"y"}}})
				_, err = svc.Import(ctx, "empty.xlsx", bytes.NewReader(empty))
				So(errors.Is(err, normalize.ErrEmptyDataset), ShouldBeTrue)

				teams, err := svc.Teams(ctx)
				So(err, ShouldBeNil)
				So(len(teams), ShouldEqual, 2)
				So(svc.GetStats()["version"], ShouldEqual, uint64(1))
			})

			Convey("And a re-import keeps the selected team when it survives", func() {
				_, err := svc.Transition(ctx, service.ActionSelectTeam, "Ops")
				So(err, ShouldBeNil)
				_, err = svc.Import(ctx, "again.xlsx", bytes.NewReader(salesWorkbook(t)))
				So(err, ShouldBeNil)
				So(svc.Session().Team, ShouldEqual, "Ops")
			})
		})
	})
}

func TestEdits(t *testing.T) {
	Convey("Given a service with an imported workbook", t, func() {
		ctx := context.Background()
		svc := newService(service.WithNotesStore(notes.NewMemory()))
		So(svc.Start(ctx), ShouldBeNil)
		defer svc.Stop()
		_, err := svc.Import(ctx, "kpis.xlsx", bytes.NewReader(salesWorkbook(t)))
		So(err, ShouldBeNil)

		Convey("When editing the KPI catalog from the editor", func() {
			_, err := svc.Transition(ctx, service.ActionOpenEditor, "")
			So(err, ShouldBeNil)

			set, err := svc.UpdateKPIs(ctx, "Sales", []model.KPI{
				{ID: "k1", Name: "Revenue", Weight: 0.5},
				{Name: "Pipeline", Weight: 0.3},
			}, 25000)
			So(err, ShouldBeNil)

			Convey("Then the new catalog is published", func() {
				So(set.BonusPool, ShouldEqual, 25000)
				So(set.Weights.Balanced, ShouldBeFalse)
				So(strings.HasPrefix(set.KPIs[1].ID, "Sales_kpi_"), ShouldBeTrue)

				got, err := svc.TeamKPIs(ctx, "Sales")
				So(err, ShouldBeNil)
				So(len(got.KPIs), ShouldEqual, 2)
				So(got.BonusPool, ShouldEqual, 25000)
			})

			Convey("Then the session returns to the dashboard", func() {
				So(svc.Session().Screen, ShouldEqual, session.ScreenDashboard)
			})

			Convey("Then the detail view recomputes with the new catalog", func() {
				d, err := svc.EmployeeDetail(ctx, "E1", "Q3 '25")
				So(err, ShouldBeNil)
				So(d.Score, ShouldAlmostEqual, 0.74, 1e-9)
				So(d.Recomputed, ShouldAlmostEqual, 0.9, 1e-9)
			})
		})

		Convey("When the edit is invalid", func() {
			_, err := svc.UpdateKPIs(ctx, "HR", nil, 0)
			So(errors.Is(err, editor.ErrUnknownTeam), ShouldBeTrue)
			_, err = svc.TeamKPIs(ctx, "HR")
			So(errors.Is(err, service.ErrUnknownTeam), ShouldBeTrue)
		})

		Convey("When writing notes", func() {
			key := notes.Key{Employee: "E1", Period: "Q3 '25", KPI: "k2"}
			So(svc.SetNote(ctx, key, "survey delayed"), ShouldBeNil)

			got, err := svc.Note(ctx, key)
			So(err, ShouldBeNil)
			So(got, ShouldEqual, "survey delayed")

			d, _ := svc.EmployeeDetail(ctx, "E1", "Q3 '25")
			So(d.KPIs[1].Note, ShouldEqual, "survey delayed")

			err = svc.SetNote(ctx, notes.Key{Employee: "E9", Period: "Q3 '25", KPI: "k1"}, "x")
			So(errors.Is(err, service.ErrUnknownEmployee), ShouldBeTrue)
		})

		Convey("When driving the session", func() {
			st, err := svc.Transition(ctx, service.ActionOpenDetail, "E2")
			So(err, ShouldBeNil)
			So(st.Employee, ShouldEqual, "E2")

			_, err = svc.Transition(ctx, service.ActionOpenEditor, "")
			So(errors.Is(err, session.ErrInvalidTransition), ShouldBeTrue)

			st, err = svc.Transition(ctx, service.ActionCloseDetail, "")
			So(err, ShouldBeNil)
			So(st.Screen, ShouldEqual, session.ScreenDashboard)

			_, err = svc.Transition(ctx, service.ActionOpenDetail, "E9")
			So(errors.Is(err, service.ErrUnknownEmployee), ShouldBeTrue)

			_, err = svc.Transition(ctx, "dance", "")
			So(errors.Is(err, service.ErrUnknownAction), ShouldBeTrue)

			st, err = svc.Transition(ctx, service.ActionSelectStatus, "Great")
			So(err, ShouldBeNil)
			So(st.Status, ShouldEqual, "Great")
		})
	})
}

func TestConcurrentReads(t *testing.T) {
	Convey("Given readers running during re-imports", t, func() {
		ctx := context.Background()
		svc := newService()
		So(svc.Start(ctx), ShouldBeNil)
		defer svc.Stop()
		data := salesWorkbook(t)
		_, err := svc.Import(ctx, "kpis.xlsx", bytes.NewReader(data))
		So(err, ShouldBeNil)

		var wg sync.WaitGroup
		errs := make(chan error, 32)
		for i := 0; i < 4; i++ {
			wg.Add(2)
			go func() {
				defer wg.Done()
				if _, err := svc.Import(ctx, "kpis.xlsx", bytes.NewReader(data)); err != nil {
					errs <- err
				}
			}()
			go func() {
				defer wg.Done()
				sum, err := svc.Summary(ctx, "Sales", "")
				if err != nil {
					errs <- err
					return
				}
				if sum.TotalBonus != 10400 {
					errs <- errors.New("inconsistent summary")
				}
			}()
		}
		wg.Wait()
		close(errs)

		for err := range errs {
			So(err, ShouldBeNil)
		}
		So(svc.GetStats()["version"], ShouldEqual, uint64(5))
	})
}
