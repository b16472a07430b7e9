package tracker

import (
	"context"
	"sync"

	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"github.com/brk3/fifty/internal/storage"
	"github.com/brk3/fifty/pkg/challenge"
)

// memStore is an in-memory Store with a switchable offline mode.
type memStore struct {
	mu       sync.RWMutex
	offline  bool
	profiles map[string]*challenge.Profile
	days     map[string]map[string]any
	setCalls int
}

func newMemStore() *memStore {
	return &memStore{
		profiles: map[string]*challenge.Profile{},
		days:     map[string]map[string]any{},
	}
}

func (m *memStore) setOffline(offline bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.offline = offline
}

// Mimic what the Firestore client returns during a partition.
var errOffline = status.Error(codes.Unavailable, "backend unreachable")

func (m *memStore) GetProfile(_ context.Context, uid string) (*challenge.Profile, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if m.offline {
		return nil, errOffline
	}
	p, ok := m.profiles[uid]
	if !ok {
		return nil, storage.ErrNotFound
	}
	cp := *p
	return &cp, nil
}

func (m *memStore) PutProfile(_ context.Context, uid string, p *challenge.Profile) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.offline {
		return errOffline
	}
	cp := *p
	m.profiles[uid] = &cp
	return nil
}

func (m *memStore) GetDay(_ context.Context, uid string, day challenge.DayKey) (map[string]any, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if m.offline {
		return nil, errOffline
	}
	fields, ok := m.days[uid+"/"+string(day)]
	if !ok {
		return nil, storage.ErrNotFound
	}
	out := make(map[string]any, len(fields))
	for k, v := range fields {
		out[k] = v
	}
	return out, nil
}

func (m *memStore) SetDay(_ context.Context, uid string, day challenge.DayKey, fields map[string]any) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.setCalls++
	if m.offline {
		return errOffline
	}
	cp := make(map[string]any, len(fields))
	for k, v := range fields {
		cp[k] = v
	}
	m.days[uid+"/"+string(day)] = cp
	return nil
}

func (m *memStore) ListDays(_ context.Context, uid string, from, to challenge.DayKey) (map[challenge.DayKey]map[string]any, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if m.offline {
		return nil, errOffline
	}
	out := map[challenge.DayKey]map[string]any{}
	for k, v := range m.days {
		if len(k) <= len(uid)+1 || k[:len(uid)+1] != uid+"/" {
			continue
		}
		day := challenge.DayKey(k[len(uid)+1:])
		if day >= from && day <= to {
			out[day] = v
		}
	}
	return out, nil
}

func (m *memStore) ListUsers(context.Context) ([]string, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := []string{}
	for uid := range m.profiles {
		out = append(out, uid)
	}
	return out, nil
}

func (m *memStore) DeleteUser(_ context.Context, uid string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.offline {
		return errOffline
	}
	delete(m.profiles, uid)
	for k := range m.days {
		if len(k) > len(uid)+1 && k[:len(uid)+1] == uid+"/" {
			delete(m.days, k)
		}
	}
	return nil
}

func (m *memStore) Close() error { return nil }

var _ storage.Store = (*memStore)(nil)
