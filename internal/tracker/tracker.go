// Package tracker is the per-user core of the challenge: it owns the current
// day's habit slate, evaluates streaks when a day completes, and routes every
// remote write through an offline fallback so nothing is lost to a network
// partition.
package tracker

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/brk3/fifty/internal/logger"
	"github.com/brk3/fifty/internal/queue"
	"github.com/brk3/fifty/internal/storage"
	"github.com/brk3/fifty/pkg/challenge"
)

// DefaultTimeout bounds individual remote store calls. A call that exceeds it
// falls back to the local queue instead of blocking the caller.
const DefaultTimeout = 4 * time.Second

type EventKind string

const (
	EventProgress EventKind = "progress"
	EventStreak   EventKind = "streak"
	EventSync     EventKind = "sync"
)

// Event is pushed to OnChange after a state change so the UI layer can
// refresh without polling.
type Event struct {
	Kind     EventKind         `json:"kind"`
	Day      challenge.DayKey  `json:"day"`
	Progress float64           `json:"progress"`
	Profile  challenge.Profile `json:"profile"`
	Pending  bool              `json:"pending"`
}

// Options configures a Tracker. Zero values pick sensible defaults.
type Options struct {
	Timeout  time.Duration
	Now      func() time.Time
	OnChange func(Event)
}

// Tracker serializes all mutations for one user through its mutex: rapid
// toggles always rebuild the full seven-flag map from the latest slate, never
// from a stale snapshot captured before a race.
type Tracker struct {
	uid   string
	email string
	store storage.Store
	queue *queue.Queue

	timeout  time.Duration
	now      func() time.Time
	onChange func(Event)

	mu           sync.Mutex
	day          challenge.DayKey
	record       challenge.DayRecord
	profile      *challenge.Profile
	profileDirty bool

	// profileProvisional marks a placeholder installed when the remote
	// profile read failed transiently. A placeholder is never written to
	// the store; the read is retried until the real profile loads.
	profileProvisional bool

	loaded bool
}

func New(uid, email string, store storage.Store, q *queue.Queue, opts Options) *Tracker {
	t := &Tracker{
		uid:      uid,
		email:    email,
		store:    store,
		queue:    q,
		timeout:  opts.Timeout,
		now:      opts.Now,
		onChange: opts.OnChange,
		record:   challenge.NewDayRecord(),
	}
	if t.timeout == 0 {
		t.timeout = DefaultTimeout
	}
	if t.now == nil {
		t.now = time.Now
	}
	return t
}

func (t *Tracker) today() challenge.DayKey {
	return challenge.DayOf(t.now())
}

// withOfflineFallback runs op under the remote timeout; on failure it runs
// the fallback and reports synced=false. Every remote write goes through
// here so the offline path is uniform rather than scattered.
func (t *Tracker) withOfflineFallback(ctx context.Context, op func(context.Context) error, fallback func() error) bool {
	cctx, cancel := context.WithTimeout(ctx, t.timeout)
	defer cancel()
	err := op(cctx)
	if err == nil {
		return true
	}
	if !storage.IsTransient(err) {
		logger.Warn("Remote write failed", "user_id", t.uid, "error", err)
	} else {
		logger.Debug("Remote store unreachable, falling back", "user_id", t.uid, "error", err)
	}
	if ferr := fallback(); ferr != nil {
		// Best-effort gap: local durable storage itself failed.
		logger.Error("Offline fallback failed", "user_id", t.uid, "error", ferr)
	}
	return false
}

// Load initializes the tracker for the current session: today's record (from
// the remote store, falling back to the pending queue), the profile (lazily
// created if missing), and the streak-decay check.
func (t *Tracker) Load(ctx context.Context) error {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.loadLocked(ctx)
}

func (t *Tracker) loadLocked(ctx context.Context) error {
	today := t.today()
	t.day = today
	t.record = t.fetchRecord(ctx, today)

	if err := t.ensureProfile(ctx); err != nil {
		return err
	}

	// Session-start decay: a missed full day zeroes the streak without
	// touching the completed-days total.
	if applyDecay(t.profile, today) {
		logger.Info("Streak broken by missed day", "user_id", t.uid,
			"last_completed", t.profile.LastCompletedDate)
		t.writeProfile(ctx)
	}

	t.loaded = true
	return nil
}

// fetchRecord reads the day's record remote-first, then from the pending
// queue, then empty. Absence is not an error; it means no activity that day.
func (t *Tracker) fetchRecord(ctx context.Context, day challenge.DayKey) challenge.DayRecord {
	cctx, cancel := context.WithTimeout(ctx, t.timeout)
	defer cancel()

	fields, err := t.store.GetDay(cctx, t.uid, day)
	if err == nil {
		// A pending local write is newer than whatever the remote holds.
		if pending, found, _ := t.queue.Get(t.uid, day); found {
			return challenge.RecordFromFields(pending)
		}
		return challenge.RecordFromFields(fields)
	}
	if !errors.Is(err, storage.ErrNotFound) {
		logger.Debug("Remote read failed, trying local queue", "user_id", t.uid, "day", day, "error", err)
	}
	if pending, found, qerr := t.queue.Get(t.uid, day); qerr == nil && found {
		return challenge.RecordFromFields(pending)
	}
	return challenge.NewDayRecord()
}

// ensureProfile loads the profile, creating a zeroed one only when the store
// confirms none exists. A transient read failure installs an unsaved
// placeholder instead: lazy creation off an outage would flush a zeroed
// profile over the real one on the next sync.
func (t *Tracker) ensureProfile(ctx context.Context) error {
	if t.profile != nil && !t.profileProvisional {
		return nil
	}
	cctx, cancel := context.WithTimeout(ctx, t.timeout)
	defer cancel()

	p, err := t.store.GetProfile(cctx, t.uid)
	if err == nil {
		t.adoptProfile(ctx, p)
		return nil
	}
	if errors.Is(err, storage.ErrNotFound) {
		logger.Info("Creating profile", "user_id", t.uid)
		t.profile = challenge.NewProfile(t.uid, t.email, t.today())
		t.profileProvisional = false
		t.writeProfile(ctx)
		return nil
	}
	if storage.IsTransient(err) {
		if t.profile == nil {
			logger.Debug("Profile read failed, holding a placeholder", "user_id", t.uid, "error", err)
			t.profile = challenge.NewProfile(t.uid, t.email, t.today())
			t.profileProvisional = true
		}
		return nil
	}
	return fmt.Errorf("load profile: %w", err)
}

// adoptProfile swaps in the freshly read profile. A completion evaluated
// against a placeholder during the outage is replayed against the real
// profile so the streak credit is not lost.
func (t *Tracker) adoptProfile(ctx context.Context, p *challenge.Profile) {
	var completed challenge.DayKey
	if t.profileProvisional && t.profile != nil {
		completed = t.profile.LastCompletedDate
	}
	t.profile = p
	t.profileProvisional = false
	if completed == "" || !applyCompletion(t.profile, completed) {
		return
	}
	dayNum := challenge.DaysSince(t.profile.StartDate, completed)
	if added := t.profile.Unlock(challenge.EligibleBadges(t.profile, dayNum)...); len(added) > 0 {
		logger.Info("Badges unlocked", "user_id", t.uid, "badges", added)
	}
	t.writeProfile(ctx)
}

// writeProfile pushes the profile remote; on failure the profile is marked
// dirty and flushed on the next Sync. A provisional placeholder is never
// pushed, the real profile still lives in the store.
func (t *Tracker) writeProfile(ctx context.Context) bool {
	if t.profileProvisional {
		return false
	}
	p := *t.profile
	synced := t.withOfflineFallback(ctx,
		func(cctx context.Context) error { return t.store.PutProfile(cctx, t.uid, &p) },
		func() error { t.profileDirty = true; return nil },
	)
	if synced {
		t.profileDirty = false
	}
	return synced
}

// saveRecord implements merge-then-replace: re-read the remote record to pick
// up aux fields written by another concern, overlay the authoritative local
// slate, and write the full merged snapshot. The same snapshot is what lands
// in the queue if the write fails, so replay is idempotent.
func (t *Tracker) saveRecord(ctx context.Context) bool {
	rctx, cancel := context.WithTimeout(ctx, t.timeout)
	remote, err := t.store.GetDay(rctx, t.uid, t.day)
	cancel()
	if err == nil {
		t.record.MergeAux(challenge.RecordFromFields(remote))
	}

	day := t.day
	fields := t.record.Fields()
	synced := t.withOfflineFallback(ctx,
		func(cctx context.Context) error { return t.store.SetDay(cctx, t.uid, day, fields) },
		func() error { return t.queue.Enqueue(t.uid, day, fields) },
	)
	if synced {
		// Any queued snapshot for this day is now older than what the
		// remote holds; replaying it would undo this write.
		if err := t.queue.Discard(t.uid, day); err != nil {
			logger.Warn("Failed to drop superseded pending entry", "user_id", t.uid, "day", day, "error", err)
		}
	}
	return synced
}

// ensureToday rolls the slate over at the day boundary: a new day starts
// with an empty record and a fresh decay check.
func (t *Tracker) ensureToday(ctx context.Context) {
	today := t.today()
	if t.loaded && today == t.day {
		return
	}
	if err := t.loadLocked(ctx); err != nil {
		logger.Warn("Day rollover load failed", "user_id", t.uid, "error", err)
	}
}

// ToggleHabit flips one habit flag for today and persists the merged record.
// When the flip completes all seven habits, the streak evaluator runs.
// Returns the updated record and whether the write reached the remote store.
func (t *Tracker) ToggleHabit(ctx context.Context, habitID string) (challenge.DayRecord, bool, error) {
	t.mu.Lock()
	t.ensureToday(ctx)

	done, err := t.record.Flags.Get(habitID)
	if err != nil {
		t.mu.Unlock()
		return challenge.DayRecord{}, false, err
	}
	if err := t.record.Flags.Set(habitID, !done); err != nil {
		t.mu.Unlock()
		return challenge.DayRecord{}, false, err
	}
	return t.finishWrite(ctx)
}

// SetHabit sets one habit flag to an explicit value. Same persistence and
// streak semantics as ToggleHabit.
func (t *Tracker) SetHabit(ctx context.Context, habitID string, done bool) (challenge.DayRecord, bool, error) {
	t.mu.Lock()
	t.ensureToday(ctx)

	if err := t.record.Flags.Set(habitID, done); err != nil {
		t.mu.Unlock()
		return challenge.DayRecord{}, false, err
	}
	return t.finishWrite(ctx)
}

// SetAux stores one auxiliary field (water count, note, bedtime) on today's
// record without touching habit flags.
func (t *Tracker) SetAux(ctx context.Context, key string, value any) (bool, error) {
	return t.SetAuxFields(ctx, map[string]any{key: value})
}

// SetAuxFields stores several auxiliary fields in one merged write. All keys
// are validated before any is applied, so a rejected key leaves the record
// untouched.
func (t *Tracker) SetAuxFields(ctx context.Context, fields map[string]any) (bool, error) {
	t.mu.Lock()
	t.ensureToday(ctx)

	for k := range fields {
		if challenge.IsHabitKey(k) {
			t.mu.Unlock()
			return false, fmt.Errorf("aux key %q collides with a habit id", k)
		}
	}
	for k, v := range fields {
		if err := t.record.SetAux(k, v); err != nil {
			t.mu.Unlock()
			return false, err
		}
	}
	_, synced, err := t.finishWrite(ctx)
	return synced, err
}

// finishWrite persists the slate, runs the streak evaluator if the day is now
// complete, and emits change events. Called with the mutex held; releases it.
func (t *Tracker) finishWrite(ctx context.Context) (challenge.DayRecord, bool, error) {
	synced := t.saveRecord(ctx)

	var events []Event
	if t.record.Flags.AllDone() {
		if changed := t.evaluateCompletion(ctx); changed {
			events = append(events, t.eventLocked(EventStreak))
		}
	}
	events = append(events, t.eventLocked(EventProgress))

	rec := t.record
	t.mu.Unlock()
	t.emit(events...)
	return rec, synced, nil
}

// evaluateCompletion runs the streak state machine for an all-complete day
// and awards any newly earned badges. Idempotent for a day already counted.
func (t *Tracker) evaluateCompletion(ctx context.Context) bool {
	if err := t.ensureProfile(ctx); err != nil {
		logger.Warn("Streak evaluation skipped", "user_id", t.uid, "error", err)
		return false
	}
	if !applyCompletion(t.profile, t.day) {
		return false
	}
	dayNum := challenge.DaysSince(t.profile.StartDate, t.day)
	if added := t.profile.Unlock(challenge.EligibleBadges(t.profile, dayNum)...); len(added) > 0 {
		logger.Info("Badges unlocked", "user_id", t.uid, "badges", added)
	}
	logger.Info("Day complete", "user_id", t.uid, "day", t.day,
		"streak", t.profile.CurrentStreak, "total_days", t.profile.TotalDaysCompleted)
	t.writeProfile(ctx)
	return true
}

// Progress returns today's completed fraction.
func (t *Tracker) Progress(ctx context.Context) float64 {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.ensureToday(ctx)
	return t.record.Flags.Fraction()
}

// Record returns a copy of today's record.
func (t *Tracker) Record(ctx context.Context) challenge.DayRecord {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.ensureToday(ctx)
	rec := t.record
	rec.Aux = make(map[string]any, len(t.record.Aux))
	for k, v := range t.record.Aux {
		rec.Aux[k] = v
	}
	return rec
}

// Profile returns a copy of the profile with decay applied, so no caller
// ever observes a streak the decay check would have zeroed.
func (t *Tracker) Profile(ctx context.Context) (challenge.Profile, error) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.ensureToday(ctx)
	if err := t.ensureProfile(ctx); err != nil {
		return challenge.Profile{}, err
	}
	if applyDecay(t.profile, t.day) {
		t.writeProfile(ctx)
	}
	return *t.profile, nil
}

// DayNumber returns the 1-based challenge day ordinal for today.
func (t *Tracker) DayNumber(ctx context.Context) (int, error) {
	p, err := t.Profile(ctx)
	if err != nil {
		return 0, err
	}
	return challenge.DaysSince(p.StartDate, t.today()), nil
}

// HasPending reports whether local writes are still waiting to reach the
// remote store. Drives the UI's "syncing" indicator.
func (t *Tracker) HasPending() bool {
	pending, err := t.queue.HasPending(t.uid)
	if err != nil {
		logger.Warn("Pending check failed", "user_id", t.uid, "error", err)
		return false
	}
	return pending
}

// Sync drains the pending queue and flushes a dirty profile. Safe to call
// repeatedly; failures leave entries queued for the next attempt. Returns
// the number of day snapshots synced.
func (t *Tracker) Sync(ctx context.Context) (int, error) {
	t.mu.Lock()
	synced, err := t.queue.Drain(ctx, t.store, t.uid)
	if err != nil {
		t.mu.Unlock()
		return synced, err
	}
	if t.profileProvisional {
		if perr := t.ensureProfile(ctx); perr != nil {
			logger.Warn("Profile refresh failed during sync", "user_id", t.uid, "error", perr)
		}
	}
	if t.profileDirty && t.profile != nil {
		t.writeProfile(ctx)
	}
	ev := t.eventLocked(EventSync)
	t.mu.Unlock()

	if synced > 0 {
		logger.Info("Pending writes synced", "user_id", t.uid, "count", synced)
	}
	t.emit(ev)
	return synced, nil
}

// Reset destroys all challenge state for the user and starts over with a
// zeroed profile dated today. The pending queue for the user is dropped too.
func (t *Tracker) Reset(ctx context.Context) error {
	t.mu.Lock()
	defer t.mu.Unlock()

	cctx, cancel := context.WithTimeout(ctx, t.timeout)
	defer cancel()
	if err := t.store.DeleteUser(cctx, t.uid); err != nil && !errors.Is(err, storage.ErrNotFound) {
		return fmt.Errorf("reset: %w", err)
	}
	if err := t.queue.Clear(t.uid); err != nil {
		logger.Warn("Failed to clear pending queue on reset", "user_id", t.uid, "error", err)
	}

	t.profile = challenge.NewProfile(t.uid, t.email, t.today())
	t.profileProvisional = false
	t.record = challenge.NewDayRecord()
	t.day = t.today()
	t.writeProfile(ctx)
	logger.Info("Account reset", "user_id", t.uid, "start_date", t.profile.StartDate)
	return nil
}

func (t *Tracker) eventLocked(kind EventKind) Event {
	ev := Event{
		Kind:     kind,
		Day:      t.day,
		Progress: t.record.Flags.Fraction(),
	}
	if t.profile != nil {
		ev.Profile = *t.profile
	}
	return ev
}

func (t *Tracker) emit(events ...Event) {
	if t.onChange == nil {
		return
	}
	for _, ev := range events {
		ev.Pending = t.HasPending()
		t.onChange(ev)
	}
}
