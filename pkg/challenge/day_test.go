package challenge

import (
	"testing"
	"time"
)

func TestDayOf_SameDayInstants(t *testing.T) {
	// 2025-06-10 in UTC-3 runs from 03:00 UTC on the 10th to 03:00 UTC on the 11th.
	instants := []time.Time{
		time.Date(2025, 6, 10, 3, 0, 0, 0, time.UTC),
		time.Date(2025, 6, 10, 12, 0, 0, 0, time.UTC),
		time.Date(2025, 6, 11, 2, 59, 59, 0, time.UTC),
	}
	for _, ts := range instants {
		if got := DayOf(ts); got != "2025-06-10" {
			t.Errorf("DayOf(%v) = %s, want 2025-06-10", ts, got)
		}
	}
}

func TestDayOf_BoundaryCrossing(t *testing.T) {
	before := time.Date(2025, 6, 10, 2, 59, 59, 0, time.UTC)
	after := time.Date(2025, 6, 10, 3, 0, 0, 0, time.UTC)
	if DayOf(before) != "2025-06-09" {
		t.Errorf("DayOf(before boundary) = %s, want 2025-06-09", DayOf(before))
	}
	if DayOf(after) != "2025-06-10" {
		t.Errorf("DayOf(after boundary) = %s, want 2025-06-10", DayOf(after))
	}
}

func TestDayOf_IndependentOfInstantZone(t *testing.T) {
	utc := time.Date(2025, 3, 1, 23, 30, 0, 0, time.UTC)
	tokyo := utc.In(time.FixedZone("JST", 9*60*60))
	if DayOf(utc) != DayOf(tokyo) {
		t.Fatalf("same instant mapped to different days: %s vs %s", DayOf(utc), DayOf(tokyo))
	}
}

func TestDayKey_RoundTrip(t *testing.T) {
	days := []DayKey{"2024-01-01", "2024-02-29", "2025-12-31"}
	for _, d := range days {
		ts, err := d.Time()
		if err != nil {
			t.Fatalf("Time(%s) failed: %v", d, err)
		}
		if got := DayOf(ts); got != d {
			t.Errorf("round trip %s -> %v -> %s", d, ts, got)
		}
	}
}

func TestDayKey_NoonAnchorSurvivesReprojection(t *testing.T) {
	// Shift the anchor by up to 11 hours either way and make sure it still
	// lands on the same day when re-projected.
	d := DayKey("2025-06-10")
	ts, err := d.Time()
	if err != nil {
		t.Fatal(err)
	}
	for _, shift := range []time.Duration{-11 * time.Hour, 11 * time.Hour} {
		if got := DayOf(ts.Add(shift)); got != d {
			t.Errorf("anchor shifted %v maps to %s, want %s", shift, got, d)
		}
	}
}

func TestDayKey_Valid(t *testing.T) {
	valid := []DayKey{"2024-01-01", "2025-06-10"}
	invalid := []DayKey{"", "not-a-day", "2024-13-01", "2024-1-1", "2024-01-01T00:00:00"}
	for _, d := range valid {
		if !d.Valid() {
			t.Errorf("%q should be valid", d)
		}
	}
	for _, d := range invalid {
		if d.Valid() {
			t.Errorf("%q should be invalid", d)
		}
	}
}

func TestDayKey_PrevNext(t *testing.T) {
	d := DayKey("2024-03-01")
	if d.Prev() != "2024-02-29" {
		t.Errorf("Prev() = %s, want 2024-02-29", d.Prev())
	}
	if d.Prev().Next() != d {
		t.Errorf("Prev().Next() = %s, want %s", d.Prev().Next(), d)
	}
}

func TestDaysSince_SameDay(t *testing.T) {
	if got := DaysSince("2025-06-10", "2025-06-10"); got != 1 {
		t.Errorf("DaysSince(d, d) = %d, want 1", got)
	}
}

func TestDaysSince_Offsets(t *testing.T) {
	start := DayKey("2025-01-01")
	for n := 0; n <= 60; n++ {
		if got := DaysSince(start, start.AddDays(n)); got != n+1 {
			t.Errorf("DaysSince(start, start+%dd) = %d, want %d", n, got, n+1)
		}
	}
}

func TestDaysSince_ClampsBeforeStart(t *testing.T) {
	if got := DaysSince("2025-06-10", "2025-06-01"); got != 1 {
		t.Errorf("DaysSince before start = %d, want 1", got)
	}
}

func TestDaysSince_Ordering(t *testing.T) {
	// Lexicographic order on keys must match chronological order.
	a, b := DayKey("2025-06-09"), DayKey("2025-06-10")
	if !(a < b) {
		t.Fatal("expected 2025-06-09 < 2025-06-10")
	}
}

func TestNextRollover(t *testing.T) {
	// 22:30 in the reference zone on June 10; the day ends at midnight
	// UTC-3, which is 03:00 UTC on June 11.
	now := time.Date(2025, 6, 11, 1, 30, 0, 0, time.UTC)
	want := time.Date(2025, 6, 11, 3, 0, 0, 0, time.UTC)

	got := NextRollover(now)
	if !got.Equal(want) {
		t.Errorf("NextRollover = %v, want %v", got, want)
	}
	if DayOf(got.Add(-time.Second)) != DayOf(now) {
		t.Error("instant just before rollover should still be the same day")
	}
	if DayOf(got) == DayOf(now) {
		t.Error("rollover instant should start the next day")
	}
}
