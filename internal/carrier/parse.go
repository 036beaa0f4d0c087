package carrier

import (
	"strconv"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// ParseCurrency converts a statement money cell to an exact decimal.
// Dollar signs, commas, and whitespace are stripped; accounting-style
// parentheses "(99.00)" and a trailing minus "99.00-" both mean negative.
// Empty, "nan", and unparseable cells return nil rather than an error so a
// single bad cell never aborts a statement.
func ParseCurrency(s string) *decimal.Decimal {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil
	}
	if strings.EqualFold(s, "nan") || strings.EqualFold(s, "n/a") {
		return nil
	}
	neg := false
	if strings.HasPrefix(s, "(") && strings.HasSuffix(s, ")") {
		neg = true
		s = s[1 : len(s)-1]
	}
	if strings.HasSuffix(s, "-") {
		neg = true
		s = strings.TrimSuffix(s, "-")
	}
	s = strings.NewReplacer("$", "", ",", "", " ", "").Replace(s)
	if strings.HasPrefix(s, "-") {
		neg = true
		s = strings.TrimPrefix(s, "-")
	}
	if s == "" {
		return nil
	}
	d, err := decimal.NewFromString(s)
	if err != nil {
		return nil
	}
	if neg {
		d = d.Neg()
	}
	return &d
}

// ParseRate converts a commission rate cell to a decimal fraction.
// "15%" and "15" both become 0.15; "0.15" is already a fraction and is
// passed through. Values above 1 are assumed to be percentages.
func ParseRate(s string) *decimal.Decimal {
	s = strings.TrimSpace(strings.TrimSuffix(strings.TrimSpace(s), "%"))
	d := ParseCurrency(s)
	if d == nil {
		return nil
	}
	if d.Abs().GreaterThan(decimal.NewFromInt(1)) {
		v := d.Div(decimal.NewFromInt(100))
		return &v
	}
	return d
}

// ParseTermMonths extracts a policy term in months from cells like "12",
// "12.0", or "N12" (alpha prefix codes used by some carriers). Returns nil
// when no digits are present.
func ParseTermMonths(s string) *int {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil
	}
	// Strip any leading alpha prefix ("N12" → "12").
	i := 0
	for i < len(s) && (s[i] < '0' || s[i] > '9') {
		i++
	}
	s = s[i:]
	if s == "" {
		return nil
	}
	if f, err := strconv.ParseFloat(s, 64); err == nil {
		n := int(f)
		if n > 0 {
			return &n
		}
	}
	return nil
}

// dateLayouts are tried in order; the first successful parse wins.
var dateLayouts = []string{
	"01/02/2006",
	"2006-01-02",
	"01/02/06",
	"01-02-2006",
	"1/2/2006",
	"1/2/06",
}

// excelEpoch is day zero of the 1900 date system, adjusted for the
// spreadsheet leap-year bug (serial 1 is 1899-12-31 there, not 1900-01-01).
var excelEpoch = time.Date(1899, time.December, 30, 0, 0, 0, 0, time.UTC)

// ParseDate parses a statement date in any of the formats carriers use,
// including raw spreadsheet serial numbers. Returns nil for empty or
// unrecognized values.
func ParseDate(s string) *time.Time {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil
	}
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return &t
		}
	}
	// Excel serial date, e.g. "45292" or "45292.0".
	if f, err := strconv.ParseFloat(s, 64); err == nil && f > 20000 && f < 80000 {
		t := excelEpoch.AddDate(0, 0, int(f))
		return &t
	}
	return nil
}

// trimQuotes removes surrounding double quotes from a CSV field.
func trimQuotes(s string) string {
	return strings.Trim(strings.TrimSpace(s), `"`)
}

// normalizeCol lowercases and strips spaces, dots, underscores, and hyphens
// so header variants like "Policy Number", "policy_number", and "POLICY-NUMBER"
// all match the same key.
func normalizeCol(s string) string {
	s = strings.ToLower(strings.TrimSpace(s))
	return strings.NewReplacer(" ", "", ".", "", "_", "", "-", "", "#", "").Replace(s)
}

// mapColumnsNormalized builds a normalized column name → index map.
func mapColumnsNormalized(header []string) map[string]int {
	m := make(map[string]int, len(header))
	for i, col := range header {
		key := normalizeCol(col)
		if key == "" {
			continue
		}
		if _, ok := m[key]; !ok {
			m[key] = i
		}
	}
	return m
}

// getColN gets a column value by normalized name.
func getColN(record []string, colIdx map[string]int, name string) string {
	idx, ok := colIdx[normalizeCol(name)]
	if !ok || idx >= len(record) {
		return ""
	}
	return strings.TrimSpace(record[idx])
}

// firstNonEmpty returns the first non-empty value from the named columns.
// Used for columns whose names vary between statement vintages.
func firstNonEmpty(record []string, colIdx map[string]int, names ...string) string {
	for _, name := range names {
		if v := trimQuotes(getColN(record, colIdx, name)); v != "" {
			return v
		}
	}
	return ""
}

// stateCode truncates a state cell to its two-letter code.
func stateCode(s string) string {
	s = strings.ToUpper(strings.TrimSpace(s))
	if len(s) > 2 {
		return s[:2]
	}
	return s
}

// rawRow preserves the original row for audit display.
func rawRow(row []string) string {
	return strings.Join(row, " | ")
}

// cellAt returns the trimmed cell at idx, or empty when the row is short.
func cellAt(record []string, idx int) string {
	if idx < 0 || idx >= len(record) {
		return ""
	}
	return strings.TrimSpace(record[idx])
}
