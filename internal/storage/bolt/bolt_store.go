package bolt

import (
	"context"
	"encoding/json"
	"fmt"

	"go.etcd.io/bbolt"

	"github.com/brk3/fifty/internal/storage"
	"github.com/brk3/fifty/pkg/challenge"
)

const (
	rootBucket    = "users"
	profileKey    = "profile"
	daysBucket    = "days"
	defaultUserID = "default"
)

// Store is a self-hosted document store on bbolt, mirroring the Firestore
// layout: one bucket per user holding a profile document and a days bucket
// keyed by day.
type Store struct {
	db *bbolt.DB
}

func Open(path string) (*Store, error) {
	db, err := bbolt.Open(path, 0600, nil)
	if err != nil {
		return nil, err
	}

	s := &Store{db: db}

	if err := db.Update(func(tx *bbolt.Tx) error {
		_, err := tx.CreateBucketIfNotExists([]byte(rootBucket))
		return err
	}); err != nil {
		_ = db.Close()
		return nil, err
	}

	return s, nil
}

func (s *Store) Close() error {
	return s.db.Close()
}

func userBucket(tx *bbolt.Tx, uid string, create bool) (*bbolt.Bucket, error) {
	if uid == "" {
		uid = defaultUserID
	}
	users := tx.Bucket([]byte(rootBucket))
	if create {
		return users.CreateBucketIfNotExists([]byte(uid))
	}
	return users.Bucket([]byte(uid)), nil
}

func (s *Store) GetProfile(ctx context.Context, uid string) (*challenge.Profile, error) {
	var p *challenge.Profile
	err := s.db.View(func(tx *bbolt.Tx) error {
		bucket, _ := userBucket(tx, uid, false)
		if bucket == nil {
			return storage.ErrNotFound
		}
		val := bucket.Get([]byte(profileKey))
		if val == nil {
			return storage.ErrNotFound
		}
		p = &challenge.Profile{}
		return json.Unmarshal(val, p)
	})
	if err != nil {
		return nil, err
	}
	return p, nil
}

func (s *Store) PutProfile(ctx context.Context, uid string, p *challenge.Profile) error {
	return s.db.Update(func(tx *bbolt.Tx) error {
		bucket, err := userBucket(tx, uid, true)
		if err != nil {
			return err
		}
		val, err := json.Marshal(p)
		if err != nil {
			return err
		}
		return bucket.Put([]byte(profileKey), val)
	})
}

func (s *Store) GetDay(ctx context.Context, uid string, day challenge.DayKey) (map[string]any, error) {
	var fields map[string]any
	err := s.db.View(func(tx *bbolt.Tx) error {
		bucket, _ := userBucket(tx, uid, false)
		if bucket == nil {
			return storage.ErrNotFound
		}
		days := bucket.Bucket([]byte(daysBucket))
		if days == nil {
			return storage.ErrNotFound
		}
		val := days.Get([]byte(day))
		if val == nil {
			return storage.ErrNotFound
		}
		return json.Unmarshal(val, &fields)
	})
	if err != nil {
		return nil, err
	}
	return fields, nil
}

func (s *Store) SetDay(ctx context.Context, uid string, day challenge.DayKey, fields map[string]any) error {
	if !day.Valid() {
		return fmt.Errorf("bad day key %q", day)
	}
	return s.db.Update(func(tx *bbolt.Tx) error {
		bucket, err := userBucket(tx, uid, true)
		if err != nil {
			return err
		}
		days, err := bucket.CreateBucketIfNotExists([]byte(daysBucket))
		if err != nil {
			return err
		}
		val, err := json.Marshal(fields)
		if err != nil {
			return err
		}
		return days.Put([]byte(day), val)
	})
}

func (s *Store) ListDays(ctx context.Context, uid string, from, to challenge.DayKey) (map[challenge.DayKey]map[string]any, error) {
	out := map[challenge.DayKey]map[string]any{}
	err := s.db.View(func(tx *bbolt.Tx) error {
		bucket, _ := userBucket(tx, uid, false)
		if bucket == nil {
			return nil
		}
		days := bucket.Bucket([]byte(daysBucket))
		if days == nil {
			return nil
		}
		c := days.Cursor()
		for k, v := c.Seek([]byte(from)); k != nil && string(k) <= string(to); k, v = c.Next() {
			day := challenge.DayKey(k)
			if !day.Valid() {
				// Corrupt key, skip rather than fail the scan.
				continue
			}
			var fields map[string]any
			if err := json.Unmarshal(v, &fields); err != nil {
				continue
			}
			out[day] = fields
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

func (s *Store) ListUsers(ctx context.Context) ([]string, error) {
	var out []string
	err := s.db.View(func(tx *bbolt.Tx) error {
		users := tx.Bucket([]byte(rootBucket))
		return users.ForEachBucket(func(k []byte) error {
			out = append(out, string(k))
			return nil
		})
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

func (s *Store) DeleteUser(ctx context.Context, uid string) error {
	return s.db.Update(func(tx *bbolt.Tx) error {
		users := tx.Bucket([]byte(rootBucket))
		if users.Bucket([]byte(uid)) == nil {
			return nil
		}
		return users.DeleteBucket([]byte(uid))
	})
}

var _ storage.Store = (*Store)(nil)
