package workbook_test

import (
	"bytes"
	"errors"
	"strings"
	"testing"

	"github.com/okian/kpibonus/internal/adapters/workbook"
	"github.com/okian/kpibonus/internal/domain/normalize"
	. "github.com/smartystreets/goconvey/convey"
	"github.com/xuri/excelize/v2"
)

func buildWorkbook(t *testing.T, sheets map[string][][]any) []byte {
	t.Helper()
	f := excelize.NewFile()
	defer func() { _ = f.Close() }()

	for name, rows := range sheets {
		if _, err := f.NewSheet(name); err != nil {
			t.Fatalf("new sheet %s: %v", name, err)
		}
		for i, row := range rows {
			cell, err := excelize.CoordinatesToCellName(1, i+1)
			if err != nil {
				t.Fatal(err)
			}
			r := row
			if err := f.SetSheetRow(name, cell, &r); err != nil {
				t.Fatalf("set row: %v", err)
			}
		}
	}
	buf, err := f.WriteToBuffer()
	if err != nil {
		t.Fatalf("write workbook: %v", err)
	}
	return buf.Bytes()
}

func sample(t *testing.T) []byte {
	return buildWorkbook(t, map[string][][]any{
		"Teams": {
			{" Team ", "BonusPoolEUR", "ManagerName"},
			{"Sales", "€ 43.810,04", "Ann"},
			{nil, nil, nil},
			{"Ops", 20000, "Bob"},
		},
		"KPIs": {
			{"KPI_ID", "Team", "Name", "Weight"},
			{"k1", "Sales", "Revenue", 0.6},
			{"k2", "Sales", "NPS", 0.4},
		},
		"Employees": {
			{"EmployeeID", "Name", "Team", "BaseSalary", "BonusTargetPct"},
			{"001", "Zoe", "Sales", 100000, 0.1},
		},
		"KPIHistory": {
			{"EmployeeID", "Period", "Score"},
			{"001", "Q3 '25", 0.99},
		},
		"KPIData": {
			{"EmployeeID", "Period", "KPI_ID", "AchievementPercent"},
			{"001", "Q3 '25", "k1", 90},
			{"001", "Q3 '25", "k2", 50},
		},
		"Notes": {
			{"Anything"},
			{"ignored"},
		},
	})
}

func TestRead(t *testing.T) {
	Convey("Given an xlsx workbook with all sheets", t, func() {
		data := sample(t)

		Convey("When reading it", func() {
			src, err := workbook.Read("upload.XLSX", bytes.NewReader(data))
			So(err, ShouldBeNil)

			Convey("Then headers are trimmed and blank rows skipped", func() {
				So(len(src.Teams), ShouldEqual, 2)
				So(src.Teams[0]["Team"], ShouldEqual, "Sales")
				So(src.Teams[0]["BonusPoolEUR"], ShouldEqual, "€ 43.810,04")
			})

			Convey("Then numeric cells become numbers and text stays text", func() {
				So(src.Teams[1]["BonusPoolEUR"], ShouldEqual, float64(20000))
				So(src.Employees[0]["EmployeeID"], ShouldEqual, "001")
				So(src.KPIs[0]["Weight"], ShouldEqual, 0.6)
			})

			Convey("Then every recognized sheet is filled", func() {
				So(len(src.KPIs), ShouldEqual, 2)
				So(len(src.Employees), ShouldEqual, 1)
				So(len(src.History), ShouldEqual, 1)
				So(len(src.KPIData), ShouldEqual, 2)
			})

			Convey("Then the rows normalize into the expected graph", func() {
				g, _, err := normalize.Normalize(src)
				So(err, ShouldBeNil)
				team, ok := g.Team("Sales")
				So(ok, ShouldBeTrue)
				So(team.BonusPool, ShouldAlmostEqual, 43810.04, 1e-9)

				e, ok := g.Employee("001")
				So(ok, ShouldBeTrue)
				rec, ok := e.Record("Q3 '25")
				So(ok, ShouldBeTrue)
				So(rec.Score, ShouldAlmostEqual, 0.74, 1e-9)
				So(*rec.BonusPaid, ShouldEqual, 7400)
			})
		})
	})

	Convey("Given a workbook without the expected sheets", t, func() {
		data := buildWorkbook(t, map[string][][]any{"Other": {{"A"}, {"1"}}})
		src, err := workbook.Read("x.xlsx", bytes.NewReader(data))
		So(err, ShouldBeNil)
		So(src.Teams, ShouldBeEmpty)

		_, _, err = normalize.Normalize(src)
		So(errors.Is(err, normalize.ErrNoRecognizedSheet), ShouldBeTrue)
	})

	Convey("Given a sheet named with different case", t, func() {
		data := buildWorkbook(t, map[string][][]any{"teams": {{"Team"}, {"Ops"}}})
		src, err := workbook.Read("x.xlsm", bytes.NewReader(data))
		So(err, ShouldBeNil)
		So(len(src.Teams), ShouldEqual, 1)
	})

	Convey("Given an unsupported extension", t, func() {
		_, err := workbook.Read("report.csv", strings.NewReader("a,b"))
		So(errors.Is(err, workbook.ErrInvalidFileType), ShouldBeTrue)

		So(workbook.CheckExtension("noext"), ShouldNotBeNil)
		So(workbook.CheckExtension("ok.xls"), ShouldBeNil)
	})

	Convey("Given bytes that are not a workbook", t, func() {
		_, err := workbook.Read("broken.xlsx", strings.NewReader("not a zip"))
		So(errors.Is(err, workbook.ErrUnreadableWorkbook), ShouldBeTrue)

		_, err = workbook.Read("broken.xls", strings.NewReader("not ole2"))
		So(errors.Is(err, workbook.ErrUnreadableWorkbook), ShouldBeTrue)
	})
}
