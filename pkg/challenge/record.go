package challenge

import (
	"fmt"
	"strconv"
)

// Aux field keys written by the app alongside the habit flags.
const (
	AuxWaterCount = "waterCount"
	AuxNote       = "note"
	AuxBedtime    = "bedtime"
	AuxUpdatedAt  = "updatedAt"
)

// HabitFlags is the strict seven-bool completion record for one day.
// Index i corresponds to habit ID strconv.Itoa(i+1).
type HabitFlags [NumHabits]bool

// Set sets the flag for the given habit ID.
func (f *HabitFlags) Set(id string, done bool) error {
	i, ok := habitIndex(id)
	if !ok {
		return fmt.Errorf("unknown habit id %q", id)
	}
	f[i] = done
	return nil
}

// Get reports the flag for the given habit ID.
func (f HabitFlags) Get(id string) (bool, error) {
	i, ok := habitIndex(id)
	if !ok {
		return false, fmt.Errorf("unknown habit id %q", id)
	}
	return f[i], nil
}

// Count returns the number of completed habits.
func (f HabitFlags) Count() int {
	n := 0
	for _, done := range f {
		if done {
			n++
		}
	}
	return n
}

// AllDone reports whether every habit is complete.
func (f HabitFlags) AllDone() bool {
	return f.Count() == NumHabits
}

// Fraction returns the completed share in [0, 1].
func (f HabitFlags) Fraction() float64 {
	return float64(f.Count()) / NumHabits
}

func habitIndex(id string) (int, bool) {
	n, err := strconv.Atoi(id)
	if err != nil || n < 1 || n > NumHabits {
		return 0, false
	}
	return n - 1, true
}

// IsHabitKey reports whether key is one of the reserved habit IDs "1".."7".
// Aux keys must never match this pattern.
func IsHabitKey(key string) bool {
	_, ok := habitIndex(key)
	return ok
}

// DayRecord is one day's ledger entry: the seven habit flags plus free-form
// auxiliary fields (water count, note, bedtime, ...). The two are kept apart
// in memory and only folded into a single flat document at the serialization
// boundary, so aux keys can never clobber a habit flag or vice versa.
type DayRecord struct {
	Flags HabitFlags
	Aux   map[string]any
}

// NewDayRecord returns an empty record.
func NewDayRecord() DayRecord {
	return DayRecord{Aux: map[string]any{}}
}

// SetAux stores an auxiliary field, rejecting keys that collide with the
// reserved habit IDs.
func (r *DayRecord) SetAux(key string, value any) error {
	if IsHabitKey(key) {
		return fmt.Errorf("aux key %q collides with a habit id", key)
	}
	if r.Aux == nil {
		r.Aux = map[string]any{}
	}
	r.Aux[key] = value
	return nil
}

// Fields flattens the record into the document shape stored remotely:
// habit IDs map to booleans, aux keys keep their values.
func (r DayRecord) Fields() map[string]any {
	out := make(map[string]any, NumHabits+len(r.Aux))
	for k, v := range r.Aux {
		if IsHabitKey(k) {
			continue
		}
		out[k] = v
	}
	for i, done := range r.Flags {
		out[strconv.Itoa(i+1)] = done
	}
	return out
}

// RecordFromFields splits a flat document back into flags and aux. Habit
// values that are not booleans are treated as false.
func RecordFromFields(fields map[string]any) DayRecord {
	r := NewDayRecord()
	for k, v := range fields {
		if i, ok := habitIndex(k); ok {
			done, _ := v.(bool)
			r.Flags[i] = done
			continue
		}
		r.Aux[k] = v
	}
	return r
}

// MergeAux overlays the aux fields of other onto r, leaving r's habit flags
// untouched. Used when the caller holds the authoritative flag slate but
// wants to preserve aux data written by another concern.
func (r *DayRecord) MergeAux(other DayRecord) {
	for k, v := range other.Aux {
		if _, exists := r.Aux[k]; !exists {
			if r.Aux == nil {
				r.Aux = map[string]any{}
			}
			r.Aux[k] = v
		}
	}
}
