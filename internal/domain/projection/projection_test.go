package projection_test

import (
	"bytes"
	"errors"
	"testing"

	"github.com/okian/kpibonus/internal/domain/model"
	"github.com/okian/kpibonus/internal/domain/period"
	"github.com/okian/kpibonus/internal/domain/projection"
	"github.com/okian/kpibonus/internal/domain/scoring"
	. "github.com/smartystreets/goconvey/convey"
)

func ptr(v float64) *float64 { return &v }

func roster() []model.Employee {
	return []model.Employee{
		{ID: "E3", Name: "Zoe", Title: "Rep", Team: "Sales", BaseSalary: 100000, BonusTargetPct: 0.1,
			History: []model.PeriodRecord{{Period: "Q3 '25", Score: 0.74, BonusPaid: ptr(7400)}, {Period: "Q2 '25", Score: 0.64}}},
		{ID: "E1", Name: "Ann", Title: "Lead", Team: "Sales", BaseSalary: 80000, BonusTargetPct: 0.1,
			History: []model.PeriodRecord{{Period: "Q3 '25", Score: 0.95}}},
		{ID: "E2", Name: "Max", Title: `Rep "Senior"`, Team: "Sales", BaseSalary: 60000, BonusTargetPct: 0.1},
		{ID: "E4", Name: "Bob", Title: "Ops", Team: "Ops"},
	}
}

func TestProject(t *testing.T) {
	Convey("Given a mixed roster", t, func() {
		emps := roster()

		Convey("When projecting all statuses", func() {
			rows := projection.Project(emps, "Sales", "Q3 '25", scoring.StatusAll)

			Convey("Then only the team is kept, sorted by name", func() {
				So(len(rows), ShouldEqual, 3)
				So(rows[0].Name, ShouldEqual, "Ann")
				So(rows[1].Name, ShouldEqual, "Max")
				So(rows[2].Name, ShouldEqual, "Zoe")
			})

			Convey("Then derived columns are filled", func() {
				So(rows[0].AchievementPct, ShouldEqual, 95)
				So(rows[0].Bonus, ShouldEqual, 7600)
				So(rows[0].Status, ShouldEqual, scoring.TagGreat)
				So(rows[1].Score, ShouldEqual, 0)
				So(rows[1].Status, ShouldEqual, scoring.TagNeedsAttention)
				So(rows[2].AchievementPct, ShouldEqual, 74)
				So(rows[2].Bonus, ShouldEqual, 7400)
				So(rows[2].Status, ShouldEqual, scoring.TagAverage)
			})

			Convey("Then deltas stay empty without a period sequence", func() {
				So(rows[2].Delta, ShouldBeNil)
			})
		})

		Convey("When filtering by status", func() {
			rows := projection.Project(emps, "Sales", "Q3 '25", string(scoring.TagAverage))
			So(len(rows), ShouldEqual, 1)
			So(rows[0].EmployeeID, ShouldEqual, "E3")
		})

		Convey("When the status matches nobody", func() {
			rows := projection.Project(emps, "Ops", "Q3 '25", string(scoring.TagGreat))
			So(rows, ShouldBeEmpty)
		})

		Convey("When a period sequence is supplied", func() {
			rows := projection.Project(emps, "Sales", "Q3 '25", scoring.StatusAll, projection.WithPeriods(period.Default()))
			So(rows[2].Delta, ShouldNotBeNil)
			So(*rows[2].Delta, ShouldAlmostEqual, 10, 1e-9)
			So(rows[0].Delta, ShouldBeNil)
		})
	})
}

type failingWriter struct{}

func (failingWriter) Write([]byte) (int, error) { return 0, errors.New("closed") }

func TestWriteCSV(t *testing.T) {
	Convey("Given projected rows", t, func() {
		rows := projection.Project(roster(), "Sales", "Q3 '25", scoring.StatusAll)

		Convey("When writing CSV", func() {
			var buf bytes.Buffer
			So(projection.WriteCSV(&buf, rows), ShouldBeNil)

			Convey("Then every field is quoted and inner quotes doubled", func() {
				want := `"Name","Title","Team","Achievement %","Est. Bonus EUR","Status"` + "\n" +
					`"Ann","Lead","Sales","95","7600","Great"` + "\n" +
					`"Max","Rep ""Senior""","Sales","0","0","Needs attention"` + "\n" +
					`"Zoe","Rep","Sales","74","7400","Average"`
				So(buf.String(), ShouldEqual, want)
			})
		})

		Convey("When there are no rows", func() {
			var buf bytes.Buffer
			So(projection.WriteCSV(&buf, nil), ShouldBeNil)
			So(buf.String(), ShouldEqual, `"Name","Title","Team","Achievement %","Est. Bonus EUR","Status"`)
		})

		Convey("When the writer fails", func() {
			So(projection.WriteCSV(failingWriter{}, rows), ShouldNotBeNil)
		})
	})

	Convey("The export file name combines team and period", t, func() {
		So(projection.FileName("Sales", "Q3 '25"), ShouldEqual, "Sales_Q3 '25_team_report.csv")
	})
}
