// Package amount turns free-text numeric and currency cells into float64
// values. Workbook exports mix locales ("€ 43.810,04", "1,234.56"), so the
// separator roles are inferred per cell.
package amount

import (
	"math"
	"strconv"
	"strings"

	"github.com/shopspring/decimal"
)

const nbsp = '\u00a0'

// Parse converts a raw cell value to a float64. Numeric values pass through
// unchanged, text goes through ParseString and anything else yields 0.
func Parse(raw any) float64 {
	switch v := raw.(type) {
	case nil:
		return 0
	case float64:
		return finite(v)
	case float32:
		return finite(float64(v))
	case int:
		return float64(v)
	case int32:
		return float64(v)
	case int64:
		return float64(v)
	case uint:
		return float64(v)
	case uint32:
		return float64(v)
	case uint64:
		return float64(v)
	case decimal.Decimal:
		return v.InexactFloat64()
	case string:
		return ParseString(v)
	case []byte:
		return ParseString(string(v))
	default:
		return 0
	}
}

// ParseString never fails: unparseable input yields 0.
//
// Separator rules after stripping everything except digits, '.', ',' and '-':
//   - both '.' and ',' present: the one occurring last is the decimal point
//     and the other is removed as a thousands separator;
//   - a single ',' is a decimal comma, several are thousands separators;
//   - several '.' are thousands separators, a single '.' is the decimal point.
func ParseString(s string) float64 {
	cleaned := clean(s)
	if cleaned == "" {
		return 0
	}

	dots := strings.Count(cleaned, ".")
	commas := strings.Count(cleaned, ",")
	switch {
	case dots > 0 && commas > 0:
		if strings.LastIndex(cleaned, ",") > strings.LastIndex(cleaned, ".") {
			cleaned = strings.ReplaceAll(cleaned, ".", "")
			cleaned = strings.Replace(cleaned, ",", ".", 1)
		} else {
			cleaned = strings.ReplaceAll(cleaned, ",", "")
		}
	case commas == 1:
		cleaned = strings.Replace(cleaned, ",", ".", 1)
	case commas > 1:
		cleaned = strings.ReplaceAll(cleaned, ",", "")
	case dots > 1:
		cleaned = strings.ReplaceAll(cleaned, ".", "")
	}

	d, err := decimal.NewFromString(cleaned)
	if err != nil {
		return 0
	}
	return d.InexactFloat64()
}

// Text renders a raw cell value as trimmed text. Whole floats print without
// a fractional part so numeric ids read back as "101", not "101.0".
func Text(raw any) string {
	switch v := raw.(type) {
	case nil:
		return ""
	case string:
		return strings.TrimSpace(strings.ReplaceAll(v, string(nbsp), " "))
	case float64:
		return strconv.FormatFloat(v, 'f', -1, 64)
	case float32:
		return strconv.FormatFloat(float64(v), 'f', -1, 32)
	case int:
		return strconv.Itoa(v)
	case int64:
		return strconv.FormatInt(v, 10)
	case bool:
		return strconv.FormatBool(v)
	case []byte:
		return strings.TrimSpace(string(v))
	default:
		return ""
	}
}

// Round rounds half away from zero to the given number of decimal places.
func Round(v float64, places int32) float64 {
	return decimal.NewFromFloat(finite(v)).Round(places).InexactFloat64()
}

// RoundWhole rounds to whole currency units.
func RoundWhole(v float64) float64 {
	return Round(v, 0)
}

func clean(s string) string {
	var b strings.Builder
	b.Grow(len(s))
	for _, r := range s {
		switch {
		case r >= '0' && r <= '9', r == '.', r == ',', r == '-':
			b.WriteRune(r)
		}
	}
	return b.String()
}

func finite(v float64) float64 {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return 0
	}
	return v
}
