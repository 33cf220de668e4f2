package schedule

import (
	"testing"
	"time"
)

func mustLoadLoc(t *testing.T) *time.Location {
	loc, err := time.LoadLocation("Europe/Paris")
	if err != nil {
		t.Fatalf("load location: %v", err)
	}
	return loc
}

func TestSlotsWindow(t *testing.T) {
	got := Slots()
	if len(got) != 16 {
		t.Fatalf("expected 16 slots, got %d", len(got))
	}
	if got[0] != "09:00" || got[len(got)-1] != "16:30" {
		t.Fatalf("unexpected boundary slots: %v", got)
	}
	got[0] = "00:00"
	if Slots()[0] != "09:00" {
		t.Fatalf("Slots must return a copy")
	}
}

func TestIsSlot(t *testing.T) {
	cases := map[string]bool{
		"09:00": true,
		"09:30": true,
		"16:30": true,
		"17:00": false,
		"08:30": false,
		"09:15": false,
		"9:00":  false,
	}
	for in, want := range cases {
		if got := IsSlot(in); got != want {
			t.Fatalf("IsSlot(%q) = %v, want %v", in, got, want)
		}
	}
}

func TestIsDatePast(t *testing.T) {
	loc := mustLoadLoc(t)
	now := time.Date(2026, 2, 4, 10, 0, 0, 0, loc)
	past, err := IsDatePast("2026-02-03", loc, now)
	if err != nil {
		t.Fatalf("IsDatePast error: %v", err)
	}
	if !past {
		t.Fatalf("expected date to be past")
	}

	past, err = IsDatePast("2026-02-04", loc, now)
	if err != nil {
		t.Fatalf("IsDatePast error: %v", err)
	}
	if past {
		t.Fatalf("expected today to be not past")
	}

	if _, err := IsDatePast("04/02/2026", loc, now); err != ErrInvalidDate {
		t.Fatalf("expected ErrInvalidDate, got %v", err)
	}
}

func TestIsDatePastUsesLocation(t *testing.T) {
	loc := mustLoadLoc(t)
	// 23:30 UTC on Feb 3 is already Feb 4 in Paris.
	now := time.Date(2026, 2, 3, 23, 30, 0, 0, time.UTC)
	past, err := IsDatePast("2026-02-03", loc, now)
	if err != nil {
		t.Fatalf("IsDatePast error: %v", err)
	}
	if !past {
		t.Fatalf("expected Feb 3 to be past in Paris")
	}
}

func TestClockConversions(t *testing.T) {
	m, err := ParseClockToMinutes("14:30")
	if err != nil || m != 870 {
		t.Fatalf("ParseClockToMinutes = %d, %v", m, err)
	}
	if MinutesToClock(870) != "14:30" {
		t.Fatalf("MinutesToClock mismatch")
	}
	if _, err := ParseClockToMinutes("25:00"); err != ErrInvalidTime {
		t.Fatalf("expected ErrInvalidTime, got %v", err)
	}
}
