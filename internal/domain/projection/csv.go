package projection

import (
	"io"
	"strconv"
	"strings"
)

// Header is the fixed export column order.
var Header = []string{"Name", "Title", "Team", "Achievement %", "Est. Bonus EUR", "Status"}

// ContentType of the export.
const ContentType = "text/csv; charset=utf-8"

// WriteCSV writes rows as comma-separated text. Every field is wrapped in
// double quotes with inner quotes doubled; lines are separated by "\n".
// Zero rows still produce the header line.
func WriteCSV(w io.Writer, rows []Row) error {
	var b strings.Builder
	writeLine(&b, Header)
	for _, r := range rows {
		b.WriteByte('\n')
		writeLine(&b, []string{
			r.Name,
			r.Title,
			r.Team,
			strconv.Itoa(r.AchievementPct),
			strconv.FormatFloat(r.Bonus, 'f', 0, 64),
			string(r.Status),
		})
	}
	_, err := io.WriteString(w, b.String())
	return err
}

// FileName is the suggested download name for a team report.
func FileName(team, p string) string {
	return team + "_" + p + "_team_report.csv"
}

func writeLine(b *strings.Builder, fields []string) {
	for i, f := range fields {
		if i > 0 {
			b.WriteByte(',')
		}
		b.WriteByte('"')
		b.WriteString(strings.ReplaceAll(f, `"`, `""`))
		b.WriteByte('"')
	}
}
