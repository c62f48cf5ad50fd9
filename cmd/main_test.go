package main

import (
	"bytes"
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"testing"

	"github.com/smartystreets/goconvey/convey"
	"github.com/xuri/excelize/v2"
)

func writeWorkbook(t *testing.T, dir string) string {
	t.Helper()
	sheets := []struct {
		name string
		rows [][]any
	}{
		{"Teams", [][]any{
			{"Team", "BonusPoolEUR", "ManagerName", "ManagerTitle"},
			{"Sales", 20000, "Ann", "Head of Sales"},
		}},
		{"KPIs", [][]any{
			{"KPI_ID", "Team", "Name", "Weight"},
			{"k1", "Sales", "Revenue", 1},
		}},
		{"Employees", [][]any{
			{"EmployeeID", "Name", "Title", "Team", "BaseSalary", "BonusTargetPct"},
			{"E1", "Zoe", "Rep", "Sales", 100000, 0.1},
		}},
		{"KPIHistory", [][]any{
			{"EmployeeID", "Period"},
			{"E1", "Q3 '25"},
		}},
		{"KPIData", [][]any{
			{"EmployeeID", "Period", "KPI_ID", "AchievementPercent"},
			{"E1", "Q3 '25", "k1", 95},
		}},
	}
	f := excelize.NewFile()
	defer func() { _ = f.Close() }()
	for _, s := range sheets {
		if _, err := f.NewSheet(s.name); err != nil {
			t.Fatal(err)
		}
		for i, row := range s.rows {
			cell, _ := excelize.CoordinatesToCellName(1, i+1)
			r := row
			if err := f.SetSheetRow(s.name, cell, &r); err != nil {
				t.Fatal(err)
			}
		}
	}
	path := filepath.Join(dir, "kpis.xlsx")
	if err := f.SaveAs(path); err != nil {
		t.Fatal(err)
	}
	return path
}

func execute(args ...string) (string, string, error) {
	var stdout, stderr bytes.Buffer
	root := newRootCmd()
	root.SetArgs(args)
	root.SetOut(&stdout)
	root.SetErr(&stderr)
	err := root.ExecuteContext(context.Background())
	return stdout.String(), stderr.String(), err
}

func TestCommands(t *testing.T) {
	convey.Convey("Given a workbook on disk", t, func() {
		dir := t.TempDir()
		input := writeWorkbook(t, dir)

		convey.Convey("When exporting to stdout", func() {
			out, _, err := execute("export", "--input", input, "--team", "Sales")

			convey.Convey("Then the quoted CSV is printed", func() {
				convey.So(err, convey.ShouldBeNil)
				lines := strings.Split(out, "\n")
				convey.So(len(lines), convey.ShouldEqual, 2)
				convey.So(lines[1], convey.ShouldEqual, `"Zoe","Rep","Sales","95","9500","Great"`)
			})
		})

		convey.Convey("When exporting to a directory", func() {
			outDir := filepath.Join(dir, "reports")
			out, _, err := execute("export", "--input", input, "--team", "Sales", "--status", "Great", "--output", outDir)

			convey.Convey("Then the file carries the report name", func() {
				convey.So(err, convey.ShouldBeNil)
				convey.So(out, convey.ShouldContainSubstring, "wrote 1 rows")
				data, err := os.ReadFile(filepath.Join(outDir, "Sales_Q3 '25_team_report.csv"))
				convey.So(err, convey.ShouldBeNil)
				convey.So(string(data), convey.ShouldStartWith, `"Name","Title","Team"`)
			})
		})

		convey.Convey("When exporting an unknown team", func() {
			_, _, err := execute("export", "--input", input, "--team", "HR")
			convey.So(err, convey.ShouldNotBeNil)
		})

		convey.Convey("When the team flag is missing", func() {
			_, _, err := execute("export", "--input", input)
			convey.So(err, convey.ShouldNotBeNil)
			convey.So(err.Error(), convey.ShouldContainSubstring, "team")
		})

		convey.Convey("When printing the summary", func() {
			out, _, err := execute("summary", "--input", input)

			convey.Convey("Then one summary per team is printed", func() {
				convey.So(err, convey.ShouldBeNil)
				var all []map[string]any
				convey.So(json.Unmarshal([]byte(out), &all), convey.ShouldBeNil)
				convey.So(len(all), convey.ShouldEqual, 1)
				convey.So(all[0]["team"], convey.ShouldEqual, "Sales")
				convey.So(all[0]["total_bonus"], convey.ShouldEqual, 9500)
			})
		})

		convey.Convey("When the workbook does not exist", func() {
			_, _, err := execute("summary", "--input", filepath.Join(dir, "missing.xlsx"))
			convey.So(err, convey.ShouldNotBeNil)
		})
	})
}

func TestProcessSample(t *testing.T) {
	convey.Convey("Given a process sample", t, func() {
		runtime.GC()
		s := sampleProcess()

		convey.So(s.heapBytes, convey.ShouldBeGreaterThan, 0)
		convey.So(s.goroutines, convey.ShouldBeGreaterThan, 0)
		convey.So(s.gcRuns, convey.ShouldBeGreaterThan, 0)
		convey.So(s.avgGCPauseMs, convey.ShouldBeGreaterThanOrEqualTo, 0)
		convey.So(s.publish, convey.ShouldNotPanic)
	})
}
