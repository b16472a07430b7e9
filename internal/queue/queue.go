// Package queue buffers day-record writes locally while the remote store is
// unreachable and replays them once connectivity returns.
package queue

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"go.etcd.io/bbolt"

	"github.com/brk3/fifty/internal/logger"
	"github.com/brk3/fifty/internal/storage"
	"github.com/brk3/fifty/pkg/challenge"
)

const pendingBucket = "pending"

// entry is one durable pending write: the full merged snapshot for a day plus
// the enqueue stamp used to detect supersession during a drain.
type entry struct {
	Fields   map[string]any `json:"fields"`
	QueuedAt int64          `json:"queued_at"`
}

// Queue is a bbolt-backed reconciliation queue. At most one entry is retained
// per (user, day): a newer local write supersedes the pending one.
type Queue struct {
	db  *bbolt.DB
	now func() time.Time
}

func Open(path string) (*Queue, error) {
	db, err := bbolt.Open(path, 0600, nil)
	if err != nil {
		return nil, err
	}
	q := &Queue{db: db, now: time.Now}
	if err := db.Update(func(tx *bbolt.Tx) error {
		_, err := tx.CreateBucketIfNotExists([]byte(pendingBucket))
		return err
	}); err != nil {
		_ = db.Close()
		return nil, err
	}
	return q, nil
}

func (q *Queue) Close() error {
	return q.db.Close()
}

func key(uid string, day challenge.DayKey) []byte {
	return fmt.Appendf(nil, "%s/%s", uid, day)
}

// Enqueue durably persists the full merged snapshot for (uid, day),
// superseding any prior pending entry for the same day.
func (q *Queue) Enqueue(uid string, day challenge.DayKey, fields map[string]any) error {
	e := entry{Fields: fields, QueuedAt: q.now().UnixNano()}
	val, err := json.Marshal(e)
	if err != nil {
		return err
	}
	return q.db.Update(func(tx *bbolt.Tx) error {
		return tx.Bucket([]byte(pendingBucket)).Put(key(uid, day), val)
	})
}

// Get returns the pending snapshot for (uid, day), if any. Used as the local
// read fallback when the remote store is unreachable.
func (q *Queue) Get(uid string, day challenge.DayKey) (map[string]any, bool, error) {
	var e entry
	found := false
	err := q.db.View(func(tx *bbolt.Tx) error {
		val := tx.Bucket([]byte(pendingBucket)).Get(key(uid, day))
		if val == nil {
			return nil
		}
		found = true
		return json.Unmarshal(val, &e)
	})
	if err != nil || !found {
		return nil, false, err
	}
	return e.Fields, true, nil
}

// Drain applies uid's pending entries to the store; other users' entries are
// untouched, so a drain only ever replays writes its caller owns. Entries
// that fail stay queued for the next drain; remote failures are never fatal.
// An entry is only removed if its stamp still matches the one just applied,
// so an Enqueue racing the drain is preserved. Returns the number synced.
func (q *Queue) Drain(ctx context.Context, store storage.Store, uid string) (int, error) {
	type pending struct {
		key []byte
		e   entry
	}
	var todo []pending
	prefix := []byte(uid + "/")
	err := q.db.View(func(tx *bbolt.Tx) error {
		c := tx.Bucket([]byte(pendingBucket)).Cursor()
		for k, v := c.Seek(prefix); k != nil && strings.HasPrefix(string(k), string(prefix)); k, v = c.Next() {
			var e entry
			if err := json.Unmarshal(v, &e); err != nil {
				logger.Warn("Skipping unreadable pending entry", "key", string(k), "error", err)
				continue
			}
			todo = append(todo, pending{key: append([]byte(nil), k...), e: e})
		}
		return nil
	})
	if err != nil {
		return 0, err
	}

	synced := 0
	for _, p := range todo {
		uid, day, ok := splitKey(p.key)
		if !ok || !day.Valid() {
			// Corrupt key, remove rather than retry forever.
			logger.Warn("Removing malformed pending key", "key", string(p.key))
			_ = q.remove(p.key, p.e.QueuedAt)
			continue
		}
		if err := store.SetDay(ctx, uid, day, p.e.Fields); err != nil {
			logger.Debug("Pending write not applied, will retry", "user_id", uid, "day", day, "error", err)
			continue
		}
		if err := q.remove(p.key, p.e.QueuedAt); err != nil {
			return synced, err
		}
		synced++
	}
	return synced, nil
}

// remove deletes the entry only if its stamp is unchanged since the read.
func (q *Queue) remove(k []byte, queuedAt int64) error {
	return q.db.Update(func(tx *bbolt.Tx) error {
		bucket := tx.Bucket([]byte(pendingBucket))
		val := bucket.Get(k)
		if val == nil {
			return nil
		}
		var cur entry
		if err := json.Unmarshal(val, &cur); err == nil && cur.QueuedAt != queuedAt {
			// Superseded mid-drain, keep the newer snapshot.
			return nil
		}
		return bucket.Delete(k)
	})
}

// Discard drops the pending entry for (uid, day), if any. Called after a
// direct remote write for that day succeeds: the queued snapshot predates
// the write that just landed, so replaying it would roll the remote back.
func (q *Queue) Discard(uid string, day challenge.DayKey) error {
	return q.db.Update(func(tx *bbolt.Tx) error {
		return tx.Bucket([]byte(pendingBucket)).Delete(key(uid, day))
	})
}

// HasPending reports whether any entry remains queued for uid.
func (q *Queue) HasPending(uid string) (bool, error) {
	days, err := q.PendingDays(uid)
	return len(days) > 0, err
}

// PendingDays lists the days with a queued snapshot for uid, in order.
func (q *Queue) PendingDays(uid string) ([]challenge.DayKey, error) {
	var out []challenge.DayKey
	prefix := []byte(uid + "/")
	err := q.db.View(func(tx *bbolt.Tx) error {
		c := tx.Bucket([]byte(pendingBucket)).Cursor()
		for k, _ := c.Seek(prefix); k != nil && strings.HasPrefix(string(k), string(prefix)); k, _ = c.Next() {
			_, day, ok := splitKey(k)
			if ok {
				out = append(out, day)
			}
		}
		return nil
	})
	return out, err
}

// Clear drops every pending entry for uid. Used on account reset, where the
// records the entries would recreate are being destroyed anyway.
func (q *Queue) Clear(uid string) error {
	prefix := []byte(uid + "/")
	return q.db.Update(func(tx *bbolt.Tx) error {
		bucket := tx.Bucket([]byte(pendingBucket))
		c := bucket.Cursor()
		for k, _ := c.Seek(prefix); k != nil && strings.HasPrefix(string(k), string(prefix)); k, _ = c.Next() {
			if err := c.Delete(); err != nil {
				return err
			}
		}
		return nil
	})
}

func splitKey(k []byte) (uid string, day challenge.DayKey, ok bool) {
	s := string(k)
	i := strings.LastIndexByte(s, '/')
	if i <= 0 || i == len(s)-1 {
		return "", "", false
	}
	return s[:i], challenge.DayKey(s[i+1:]), true
}
