package firestore

import (
	"context"
	"fmt"
	"time"

	"cloud.google.com/go/firestore"
	"google.golang.org/api/iterator"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"github.com/brk3/fifty/internal/storage"
	"github.com/brk3/fifty/pkg/challenge"
)

const (
	usersCollection = "users"
	daysCollection  = "days"
)

// Store persists profiles and day records in Firestore, at users/{uid} and
// users/{uid}/days/{YYYY-MM-DD}.
type Store struct {
	client *firestore.Client
}

func Open(ctx context.Context, projectID string) (*Store, error) {
	client, err := firestore.NewClient(ctx, projectID)
	if err != nil {
		return nil, fmt.Errorf("firestore client: %w", err)
	}
	return &Store{client: client}, nil
}

func (s *Store) Close() error {
	return s.client.Close()
}

func (s *Store) userDoc(uid string) *firestore.DocumentRef {
	return s.client.Collection(usersCollection).Doc(uid)
}

func (s *Store) dayDoc(uid string, day challenge.DayKey) *firestore.DocumentRef {
	return s.userDoc(uid).Collection(daysCollection).Doc(string(day))
}

func (s *Store) GetProfile(ctx context.Context, uid string) (*challenge.Profile, error) {
	snap, err := s.userDoc(uid).Get(ctx)
	if err != nil {
		if status.Code(err) == codes.NotFound {
			return nil, storage.ErrNotFound
		}
		return nil, fmt.Errorf("get profile %s: %w", uid, err)
	}
	var p challenge.Profile
	if err := snap.DataTo(&p); err != nil {
		return nil, fmt.Errorf("decode profile %s: %w", uid, err)
	}
	return &p, nil
}

func (s *Store) PutProfile(ctx context.Context, uid string, p *challenge.Profile) error {
	if _, err := s.userDoc(uid).Set(ctx, p); err != nil {
		return fmt.Errorf("put profile %s: %w", uid, err)
	}
	return nil
}

func (s *Store) GetDay(ctx context.Context, uid string, day challenge.DayKey) (map[string]any, error) {
	snap, err := s.dayDoc(uid, day).Get(ctx)
	if err != nil {
		if status.Code(err) == codes.NotFound {
			return nil, storage.ErrNotFound
		}
		return nil, fmt.Errorf("get day %s/%s: %w", uid, day, err)
	}
	return snap.Data(), nil
}

func (s *Store) SetDay(ctx context.Context, uid string, day challenge.DayKey, fields map[string]any) error {
	doc := make(map[string]any, len(fields)+1)
	for k, v := range fields {
		doc[k] = v
	}
	doc[challenge.AuxUpdatedAt] = time.Now().UTC()
	if _, err := s.dayDoc(uid, day).Set(ctx, doc); err != nil {
		return fmt.Errorf("set day %s/%s: %w", uid, day, err)
	}
	return nil
}

func (s *Store) ListDays(ctx context.Context, uid string, from, to challenge.DayKey) (map[challenge.DayKey]map[string]any, error) {
	iter := s.userDoc(uid).Collection(daysCollection).
		Where(firestore.DocumentID, ">=", s.dayDoc(uid, from)).
		Where(firestore.DocumentID, "<=", s.dayDoc(uid, to)).
		Documents(ctx)
	defer iter.Stop()

	out := map[challenge.DayKey]map[string]any{}
	for {
		snap, err := iter.Next()
		if err == iterator.Done {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("list days %s: %w", uid, err)
		}
		day := challenge.DayKey(snap.Ref.ID)
		if !day.Valid() {
			// Corrupt key, cannot be ordered or parsed safely.
			continue
		}
		out[day] = snap.Data()
	}
	return out, nil
}

func (s *Store) ListUsers(ctx context.Context) ([]string, error) {
	iter := s.client.Collection(usersCollection).Documents(ctx)
	defer iter.Stop()

	var out []string
	for {
		snap, err := iter.Next()
		if err == iterator.Done {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("list users: %w", err)
		}
		out = append(out, snap.Ref.ID)
	}
	return out, nil
}

func (s *Store) DeleteUser(ctx context.Context, uid string) error {
	iter := s.userDoc(uid).Collection(daysCollection).Documents(ctx)
	defer iter.Stop()
	for {
		snap, err := iter.Next()
		if err == iterator.Done {
			break
		}
		if err != nil {
			return fmt.Errorf("delete user days %s: %w", uid, err)
		}
		if _, err := snap.Ref.Delete(ctx); err != nil {
			return fmt.Errorf("delete day %s/%s: %w", uid, snap.Ref.ID, err)
		}
	}
	if _, err := s.userDoc(uid).Delete(ctx); err != nil {
		return fmt.Errorf("delete profile %s: %w", uid, err)
	}
	return nil
}

var _ storage.Store = (*Store)(nil)
