// Package datetime provides date and time utility functions.
package datetime

import (
	"fmt"
	"strings"
	"time"

	"github.com/iwvelando/loan-simulator/pkg/constants"
)

const (
	// DateLayout is the format expected in config files and is also the output
	// date format.
	DateLayout = constants.DateLayout
)

// MustParseTime parses a date string using the given layout and panics on error.
// This is intended for use in tests where the date string is known to be valid.
func MustParseTime(layout, dateStr string) time.Time {
	t, err := time.Parse(layout, dateStr)
	if err != nil {
		panic(err)
	}
	return t
}

// ParseDate parses a contract start date. Both full dates (2025-01-15) and
// month shorthands (2025-01, meaning the first of the month) are accepted.
func ParseDate(date string) (time.Time, error) {
	trimmed := strings.TrimSpace(date)
	if t, err := time.Parse(DateLayout, trimmed); err == nil {
		return t, nil
	}
	t, err := time.Parse(constants.MonthLayout, trimmed)
	if err != nil {
		return time.Time{}, fmt.Errorf("expected date as %s or %s, got %q", DateLayout, constants.MonthLayout, date)
	}
	return t, nil
}

// AddMonths returns t moved forward by the given number of months. Unlike
// time.AddDate the day is clamped to the end of the target month, so a
// contract signed on January 31st falls due on February 28th (or 29th)
// rather than early March.
func AddMonths(t time.Time, months int) time.Time {
	if t.IsZero() {
		return t
	}
	year, month, day := t.Date()
	firstOfTarget := time.Date(year, month+time.Month(months), 1, t.Hour(), t.Minute(), t.Second(), t.Nanosecond(), t.Location())
	if last := DaysIn(firstOfTarget); day > last {
		day = last
	}
	return firstOfTarget.AddDate(0, 0, day-1)
}

// DaysIn returns the number of days in the month containing t.
func DaysIn(t time.Time) int {
	return time.Date(t.Year(), t.Month()+1, 0, 0, 0, 0, 0, t.Location()).Day()
}

// FormatDate renders a due date, leaving unset dates blank.
func FormatDate(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.Format(DateLayout)
}
