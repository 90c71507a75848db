package core

import (
	"testing"
	"time"
)

func TestMonthOf(t *testing.T) {
	p := MonthOf(time.Date(2026, 12, 15, 23, 59, 0, 0, time.UTC))
	if !p.Start.Equal(time.Date(2026, 12, 1, 0, 0, 0, 0, time.UTC)) {
		t.Fatalf("start = %v", p.Start)
	}
	if !p.End.Equal(time.Date(2027, 1, 1, 0, 0, 0, 0, time.UTC)) {
		t.Fatalf("end = %v", p.End)
	}
	if p.Label() != "12/26" {
		t.Fatalf("label = %q", p.Label())
	}

	// Evaluated in UTC even when the reference carries another zone.
	brt := time.FixedZone("BRT", -3*3600)
	if got := MonthOf(time.Date(2026, 1, 31, 22, 0, 0, 0, brt)).Label(); got != "02/26" {
		t.Fatalf("expected 02/26, got %s", got)
	}
}

func TestParseMonthYear(t *testing.T) {
	p, err := ParseMonthYear("01/26")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !p.Start.Equal(time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)) || !p.End.Equal(time.Date(2026, 2, 1, 0, 0, 0, 0, time.UTC)) {
		t.Fatalf("unexpected period %v", p)
	}

	for _, bad := range []string{"13/26", "00/26", "1/26", "01/2026", "01-26", "ab/cd", ""} {
		if _, err := ParseMonthYear(bad); err == nil {
			t.Errorf("ParseMonthYear(%q) expected error", bad)
		}
	}
}

func TestPeriodContains(t *testing.T) {
	p := MonthOf(time.Date(2026, 1, 10, 0, 0, 0, 0, time.UTC))
	if !p.Contains(p.Start) {
		t.Fatalf("start must be included")
	}
	if p.Contains(p.End) {
		t.Fatalf("end must be excluded")
	}
	if !p.Contains(p.End.Add(-time.Nanosecond)) {
		t.Fatalf("last instant must be included")
	}
}
