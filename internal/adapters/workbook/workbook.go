// Package workbook reads the five source sheets of an uploaded spreadsheet
// into header-keyed rows.
package workbook

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/extrame/xls"
	"github.com/okian/kpibonus/internal/domain/model"
	"github.com/okian/kpibonus/internal/domain/normalize"
	"github.com/xuri/excelize/v2"
)

// Sheet names.
const (
	SheetTeams     = "Teams"
	SheetKPIs      = "KPIs"
	SheetEmployees = "Employees"
	SheetHistory   = "KPIHistory"
	SheetKPIData   = "KPIData"
)

var (
	// ErrInvalidFileType is returned for anything but .xlsx, .xlsm and .xls.
	ErrInvalidFileType = errors.New("invalid file type")
	// ErrUnreadableWorkbook is returned when the bytes cannot be parsed.
	ErrUnreadableWorkbook = errors.New("unreadable workbook")
)

// Extensions lists the accepted file extensions.
func Extensions() []string { return []string{".xlsx", ".xlsm", ".xls"} }

// CheckExtension validates filename before any bytes are read.
func CheckExtension(filename string) error {
	ext := strings.ToLower(filepath.Ext(filename))
	for _, ok := range Extensions() {
		if ext == ok {
			return nil
		}
	}
	return fmt.Errorf("%w: %q", ErrInvalidFileType, filepath.Base(filename))
}

// Read parses r as a workbook named filename. Missing sheets yield empty
// sources; sheets with other names are ignored.
func Read(filename string, r io.Reader) (normalize.Sources, error) {
	const op = "workbook.Read"

	if err := CheckExtension(filename); err != nil {
		return normalize.Sources{}, fmt.Errorf("%s: %w", op, err)
	}
	data, err := io.ReadAll(r)
	if err != nil {
		return normalize.Sources{}, fmt.Errorf("%s: %w: %w", op, ErrUnreadableWorkbook, err)
	}

	var sheets map[string][][]any
	if strings.EqualFold(filepath.Ext(filename), ".xls") {
		sheets, err = readXLS(data)
	} else {
		sheets, err = readXLSX(data)
	}
	if err != nil {
		return normalize.Sources{}, fmt.Errorf("%s: %w: %w", op, ErrUnreadableWorkbook, err)
	}

	return normalize.Sources{
		Teams:     toRows(lookup(sheets, SheetTeams)),
		KPIs:      toRows(lookup(sheets, SheetKPIs)),
		Employees: toRows(lookup(sheets, SheetEmployees)),
		History:   toRows(lookup(sheets, SheetHistory)),
		KPIData:   toRows(lookup(sheets, SheetKPIData)),
	}, nil
}

// lookup finds a sheet by exact name, then by trimmed case-insensitive name.
func lookup(sheets map[string][][]any, name string) [][]any {
	if cells, ok := sheets[name]; ok {
		return cells
	}
	for n, cells := range sheets {
		if strings.EqualFold(strings.TrimSpace(n), name) {
			return cells
		}
	}
	return nil
}

func readXLSX(data []byte) (map[string][][]any, error) {
	f, err := excelize.OpenReader(bytes.NewReader(data))
	if err != nil {
		return nil, err
	}
	defer func() { _ = f.Close() }()

	out := make(map[string][][]any)
	for _, name := range f.GetSheetList() {
		rows, err := f.GetRows(name, excelize.Options{RawCellValue: true})
		if err != nil {
			return nil, err
		}
		cells := make([][]any, len(rows))
		for i, row := range rows {
			cells[i] = make([]any, len(row))
			for j, v := range row {
				cells[i][j] = xlsxValue(f, name, j+1, i+1, v)
			}
		}
		out[name] = cells
	}
	return out, nil
}

// xlsxValue keeps text cells as strings and turns numeric cells into
// float64 so the raw value is not re-parsed with the locale heuristic.
func xlsxValue(f *excelize.File, sheet string, col, row int, raw string) any {
	if raw == "" {
		return nil
	}
	n, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		return raw
	}
	ref, err := excelize.CoordinatesToCellName(col, row)
	if err != nil {
		return raw
	}
	typ, err := f.GetCellType(sheet, ref)
	if err != nil {
		return raw
	}
	switch typ {
	case excelize.CellTypeSharedString, excelize.CellTypeInlineString, excelize.CellTypeFormula:
		return raw
	default:
		return n
	}
}

func readXLS(data []byte) (map[string][][]any, error) {
	wb, err := xls.OpenReader(bytes.NewReader(data), "utf-8")
	if err != nil {
		return nil, err
	}
	if wb.NumSheets() == 0 {
		return nil, errors.New("no worksheet found")
	}

	out := make(map[string][][]any)
	for i := 0; i < wb.NumSheets(); i++ {
		sheet := wb.GetSheet(i)
		if sheet == nil {
			continue
		}
		var cells [][]any
		for r := 0; r <= int(sheet.MaxRow); r++ {
			row := sheet.Row(r)
			if row == nil {
				cells = append(cells, nil)
				continue
			}
			vals := make([]any, row.LastCol())
			for c := range vals {
				if v := row.Col(c); v != "" {
					vals[c] = v
				}
			}
			cells = append(cells, vals)
		}
		out[sheet.Name] = cells
	}
	return out, nil
}

// toRows maps every row after the first onto the trimmed header names.
// Columns without a header and rows without any value are skipped.
func toRows(cells [][]any) []model.Row {
	if len(cells) == 0 {
		return nil
	}
	header := make([]string, len(cells[0]))
	for i, h := range cells[0] {
		header[i] = strings.TrimSpace(fmt.Sprint(valueOrEmpty(h)))
	}

	var rows []model.Row
	for _, line := range cells[1:] {
		row := make(model.Row, len(header))
		blank := true
		for i, key := range header {
			if key == "" {
				continue
			}
			var v any
			if i < len(line) {
				v = line[i]
			}
			if s, ok := v.(string); ok && strings.TrimSpace(s) == "" {
				v = nil
			}
			if v != nil {
				blank = false
			}
			row[key] = v
		}
		if !blank {
			rows = append(rows, row)
		}
	}
	return rows
}

func valueOrEmpty(v any) any {
	if v == nil {
		return ""
	}
	return v
}
