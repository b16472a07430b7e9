package queue

import (
	"context"
	"errors"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/brk3/fifty/internal/storage"
	"github.com/brk3/fifty/pkg/challenge"
)

// flakyStore records SetDay calls and fails while offline is true.
type flakyStore struct {
	mu      sync.Mutex
	offline bool
	days    map[string]map[string]any
}

func newFlakyStore() *flakyStore {
	return &flakyStore{days: map[string]map[string]any{}}
}

func (f *flakyStore) SetDay(_ context.Context, uid string, day challenge.DayKey, fields map[string]any) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.offline {
		return errors.New("backend unreachable")
	}
	f.days[uid+"/"+string(day)] = fields
	return nil
}

func (f *flakyStore) GetProfile(context.Context, string) (*challenge.Profile, error) {
	return nil, storage.ErrNotFound
}
func (f *flakyStore) PutProfile(context.Context, string, *challenge.Profile) error { return nil }
func (f *flakyStore) GetDay(context.Context, string, challenge.DayKey) (map[string]any, error) {
	return nil, storage.ErrNotFound
}
func (f *flakyStore) ListDays(context.Context, string, challenge.DayKey, challenge.DayKey) (map[challenge.DayKey]map[string]any, error) {
	return nil, nil
}
func (f *flakyStore) ListUsers(context.Context) ([]string, error) { return nil, nil }
func (f *flakyStore) DeleteUser(context.Context, string) error    { return nil }
func (f *flakyStore) Close() error                                { return nil }

var _ storage.Store = (*flakyStore)(nil)

func newTestQueue(t *testing.T) *Queue {
	q, err := Open(filepath.Join(t.TempDir(), "queue.db"))
	if err != nil {
		t.Fatalf("failed to open queue: %v", err)
	}
	t.Cleanup(func() {
		if err := q.Close(); err != nil {
			t.Errorf("failed to close queue: %v", err)
		}
	})
	return q
}

func TestEnqueue_Supersedes(t *testing.T) {
	q := newTestQueue(t)

	if err := q.Enqueue("alice", "2025-06-10", map[string]any{"1": true}); err != nil {
		t.Fatalf("Enqueue failed: %v", err)
	}
	if err := q.Enqueue("alice", "2025-06-10", map[string]any{"1": true, "2": true}); err != nil {
		t.Fatalf("Enqueue failed: %v", err)
	}

	days, err := q.PendingDays("alice")
	if err != nil {
		t.Fatalf("PendingDays failed: %v", err)
	}
	if len(days) != 1 {
		t.Fatalf("expected one pending day, got %v", days)
	}

	fields, found, err := q.Get("alice", "2025-06-10")
	if err != nil || !found {
		t.Fatalf("Get failed: found=%v err=%v", found, err)
	}
	if fields["2"] != true {
		t.Errorf("latest snapshot not retained: %v", fields)
	}
}

func TestDrain_FailureLeavesQueued(t *testing.T) {
	q := newTestQueue(t)
	store := newFlakyStore()
	store.offline = true

	_ = q.Enqueue("alice", "2025-06-10", map[string]any{"1": true})

	synced, err := q.Drain(context.Background(), store, "alice")
	if err != nil {
		t.Fatalf("Drain returned error: %v", err)
	}
	if synced != 0 {
		t.Errorf("synced = %d, want 0", synced)
	}
	pending, err := q.HasPending("alice")
	if err != nil {
		t.Fatal(err)
	}
	if !pending {
		t.Error("entry should remain queued after failed drain")
	}

	store.offline = false
	synced, err = q.Drain(context.Background(), store, "alice")
	if err != nil {
		t.Fatalf("Drain returned error: %v", err)
	}
	if synced != 1 {
		t.Errorf("synced = %d, want 1", synced)
	}
	pending, _ = q.HasPending("alice")
	if pending {
		t.Error("queue should be empty after successful drain")
	}
	if store.days["alice/2025-06-10"] == nil {
		t.Error("snapshot never reached the store")
	}
}

func TestDrain_OnlyCallersEntries(t *testing.T) {
	q := newTestQueue(t)
	store := newFlakyStore()

	_ = q.Enqueue("alice", "2025-06-10", map[string]any{"1": true})
	_ = q.Enqueue("alice", "2025-06-11", map[string]any{"2": true})
	_ = q.Enqueue("bob", "2025-06-10", map[string]any{"3": true})

	synced, err := q.Drain(context.Background(), store, "alice")
	if err != nil {
		t.Fatal(err)
	}
	if synced != 2 {
		t.Errorf("synced = %d, want 2", synced)
	}
	if store.days["bob/2025-06-10"] != nil {
		t.Error("bob's snapshot was written by alice's drain")
	}
	pending, err := q.HasPending("bob")
	if err != nil {
		t.Fatal(err)
	}
	if !pending {
		t.Error("bob's entry should remain queued")
	}

	synced, err = q.Drain(context.Background(), store, "bob")
	if err != nil {
		t.Fatal(err)
	}
	if synced != 1 {
		t.Errorf("synced = %d, want 1", synced)
	}
}

func TestDiscard_DropsPendingDay(t *testing.T) {
	q := newTestQueue(t)

	_ = q.Enqueue("alice", "2025-06-10", map[string]any{"1": true})
	_ = q.Enqueue("alice", "2025-06-11", map[string]any{"2": true})

	if err := q.Discard("alice", "2025-06-10"); err != nil {
		t.Fatalf("Discard failed: %v", err)
	}

	days, err := q.PendingDays("alice")
	if err != nil {
		t.Fatal(err)
	}
	if len(days) != 1 || days[0] != "2025-06-11" {
		t.Errorf("pending days = %v, want only 2025-06-11", days)
	}

	// Discarding an absent day is a no-op.
	if err := q.Discard("alice", "2025-06-10"); err != nil {
		t.Errorf("Discard of missing entry failed: %v", err)
	}
}

func TestDrain_ConcurrentEnqueueNotLost(t *testing.T) {
	q := newTestQueue(t)

	// Make stamps distinct even on coarse clocks.
	stamp := int64(0)
	q.now = func() time.Time { stamp += int64(time.Millisecond); return time.Unix(0, stamp) }

	_ = q.Enqueue("alice", "2025-06-10", map[string]any{"1": true})

	// Store whose SetDay sneaks in a newer enqueue for the same day before
	// the drain gets to remove the entry it just applied.
	store := newFlakyStore()
	raced := &racingStore{flakyStore: store, q: q}

	synced, err := q.Drain(context.Background(), raced, "alice")
	if err != nil {
		t.Fatal(err)
	}
	if synced != 1 {
		t.Fatalf("synced = %d, want 1", synced)
	}

	// The superseding snapshot must still be pending.
	fields, found, err := q.Get("alice", "2025-06-10")
	if err != nil || !found {
		t.Fatalf("superseding snapshot lost: found=%v err=%v", found, err)
	}
	if fields["2"] != true {
		t.Errorf("pending snapshot is stale: %v", fields)
	}
}

type racingStore struct {
	*flakyStore
	q    *Queue
	once sync.Once
}

func (r *racingStore) SetDay(ctx context.Context, uid string, day challenge.DayKey, fields map[string]any) error {
	err := r.flakyStore.SetDay(ctx, uid, day, fields)
	r.once.Do(func() {
		_ = r.q.Enqueue(uid, day, map[string]any{"1": true, "2": true})
	})
	return err
}

func TestGet_Missing(t *testing.T) {
	q := newTestQueue(t)
	_, found, err := q.Get("alice", "2025-06-10")
	if err != nil {
		t.Fatal(err)
	}
	if found {
		t.Error("expected no pending entry")
	}
}
