package model

import (
	"fmt"
	"time"

	"github.com/rotisserie/eris"
)

// Period identifies a statement month in "YYYY-MM" form.
type Period string

// ParsePeriod validates and normalizes a "YYYY-MM" period string.
func ParsePeriod(s string) (Period, error) {
	t, err := time.Parse("2006-01", s)
	if err != nil {
		return "", eris.Wrapf(err, "model: invalid period %q (want YYYY-MM)", s)
	}
	return Period(t.Format("2006-01")), nil
}

func (p Period) String() string { return string(p) }

// FirstDay returns midnight UTC on the first day of the period.
func (p Period) FirstDay() time.Time {
	t, err := time.Parse("2006-01", string(p))
	if err != nil {
		return time.Time{}
	}
	return t
}

// Display returns the human-readable form, e.g. "January 2026".
func (p Period) Display() string {
	return p.FirstDay().Format("January 2006")
}

// Contains reports whether t falls inside the period month.
func (p Period) Contains(t time.Time) bool {
	first := p.FirstDay()
	return !t.Before(first) && t.Before(first.AddDate(0, 1, 0))
}

// PeriodOf returns the period containing t.
func PeriodOf(t time.Time) Period {
	return Period(fmt.Sprintf("%04d-%02d", t.Year(), t.Month()))
}
