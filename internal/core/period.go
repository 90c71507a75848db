package core

import (
	"errors"
	"fmt"
	"regexp"
	"strconv"
	"time"
)

var ErrInvalidMonthYear = errors.New("invalid month/year")

var monthYearPattern = regexp.MustCompile(`^(0[1-9]|1[0-2])/(\d{2})$`)

// Period is a calendar month as the half-open UTC interval [Start, End).
type Period struct {
	Start time.Time
	End   time.Time
}

// MonthOf returns the period of the month containing t, evaluated in UTC.
func MonthOf(t time.Time) Period {
	t = t.UTC()
	start := time.Date(t.Year(), t.Month(), 1, 0, 0, 0, 0, time.UTC)
	return Period{Start: start, End: start.AddDate(0, 1, 0)}
}

// ParseMonthYear parses "MM/YY" with a two digit year meaning 20YY.
func ParseMonthYear(s string) (Period, error) {
	m := monthYearPattern.FindStringSubmatch(s)
	if m == nil {
		return Period{}, ErrInvalidMonthYear
	}
	month, _ := strconv.Atoi(m[1])
	yy, _ := strconv.Atoi(m[2])
	return MonthOf(time.Date(2000+yy, time.Month(month), 1, 0, 0, 0, 0, time.UTC)), nil
}

// Contains reports whether t falls inside the period.
func (p Period) Contains(t time.Time) bool {
	return !t.Before(p.Start) && t.Before(p.End)
}

// Label renders the period as MM/YY.
func (p Period) Label() string {
	return p.Start.Format("01/06")
}

// String implements fmt.Stringer
func (p Period) String() string {
	return fmt.Sprintf("[%s, %s)", p.Start.Format(time.RFC3339), p.End.Format(time.RFC3339))
}
