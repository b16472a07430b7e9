package nudge

import (
	"context"

	"github.com/brk3/fifty/internal/storage"
	"github.com/brk3/fifty/pkg/challenge"
)

type mockQuerier struct {
	profiles map[string]*challenge.Profile
	err      error
}

func (m *mockQuerier) ListUsers(context.Context) ([]string, error) {
	if m.err != nil {
		return nil, m.err
	}
	out := []string{}
	for uid := range m.profiles {
		out = append(out, uid)
	}
	return out, nil
}

func (m *mockQuerier) GetProfile(_ context.Context, uid string) (*challenge.Profile, error) {
	p, ok := m.profiles[uid]
	if !ok {
		return nil, storage.ErrNotFound
	}
	return p, nil
}
