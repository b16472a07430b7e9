package challenge

import (
	"fmt"
	"time"
)

// The challenge runs on a fixed UTC-3 clock (no daylight saving), so a day
// boundary is the same instant for every device regardless of its local
// timezone settings.
var refZone = time.FixedZone("UTC-3", -3*60*60)

const dayLayout = "2006-01-02"

// DayKey identifies one calendar day in the reference zone as "YYYY-MM-DD".
// Lexicographic order on DayKeys matches chronological order.
type DayKey string

// DayOf returns the DayKey the instant t falls in.
func DayOf(t time.Time) DayKey {
	return DayKey(t.In(refZone).Format(dayLayout))
}

// Today returns the current DayKey.
func Today() DayKey {
	return DayOf(time.Now())
}

// Time returns the instant anchoring d. The anchor is noon in the reference
// zone, not midnight: a noon anchor survives being re-projected through DayOf
// on a clock up to 12 hours off in either direction, which is where the
// classic off-by-one day bugs come from.
func (d DayKey) Time() (time.Time, error) {
	t, err := time.ParseInLocation(dayLayout, string(d), refZone)
	if err != nil {
		return time.Time{}, fmt.Errorf("bad day key %q: %w", d, err)
	}
	return t.Add(12 * time.Hour), nil
}

// Valid reports whether d has the canonical "YYYY-MM-DD" shape. Keys that
// fail this are treated as corrupt and skipped by range scans.
func (d DayKey) Valid() bool {
	if len(d) != len(dayLayout) {
		return false
	}
	t, err := time.ParseInLocation(dayLayout, string(d), refZone)
	return err == nil && DayKey(t.Format(dayLayout)) == d
}

// AddDays returns the DayKey n calendar days after d (n may be negative).
func (d DayKey) AddDays(n int) DayKey {
	t, err := d.Time()
	if err != nil {
		return d
	}
	return DayOf(t.AddDate(0, 0, n))
}

// Prev returns the day before d.
func (d DayKey) Prev() DayKey {
	return d.AddDays(-1)
}

// Next returns the day after d.
func (d DayKey) Next() DayKey {
	return d.AddDays(1)
}

// NextRollover returns the instant the day containing t ends, i.e. midnight
// in the reference zone. This is when an unfinished day breaks a streak.
func NextRollover(t time.Time) time.Time {
	anchor, err := DayOf(t).Next().Time()
	if err != nil {
		return t
	}
	return anchor.Add(-12 * time.Hour)
}

// DaysSince returns the inclusive day ordinal of eval relative to start: the
// start day itself is day 1. The result is clamped to a floor of 1 so a
// device clock sitting behind the start date still reports day 1 rather than
// a negative ordinal.
func DaysSince(start, eval DayKey) int {
	st, err := start.Time()
	if err != nil {
		return 1
	}
	et, err := eval.Time()
	if err != nil {
		return 1
	}
	days := int(et.Sub(st)/(24*time.Hour)) + 1
	if days < 1 {
		return 1
	}
	return days
}
