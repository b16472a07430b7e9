package storage

import (
	"context"
	"errors"
	"net"

	"github.com/brk3/fifty/pkg/challenge"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

// ErrNotFound is returned when a profile or day record does not exist.
// Absence of a day record is distinct from "all habits false".
var ErrNotFound = errors.New("not found")

// Store is the remote document store for profiles and day records.
// SetDay replaces the whole document with the caller's merged snapshot; the
// merge itself happens in the tracker so a consistent full snapshot is always
// available for the offline queue.
type Store interface {
	GetProfile(ctx context.Context, uid string) (*challenge.Profile, error)
	PutProfile(ctx context.Context, uid string, p *challenge.Profile) error
	GetDay(ctx context.Context, uid string, day challenge.DayKey) (map[string]any, error)
	SetDay(ctx context.Context, uid string, day challenge.DayKey, fields map[string]any) error
	ListDays(ctx context.Context, uid string, from, to challenge.DayKey) (map[challenge.DayKey]map[string]any, error)
	ListUsers(ctx context.Context) ([]string, error)
	DeleteUser(ctx context.Context, uid string) error
	Close() error
}

// IsTransient reports whether err looks like a retriable backend failure
// (network partition, timeout, backend overload). Transient write failures
// are routed to the offline queue instead of being surfaced.
func IsTransient(err error) bool {
	if err == nil || errors.Is(err, ErrNotFound) {
		return false
	}
	if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled) {
		return true
	}
	var netErr net.Error
	if errors.As(err, &netErr) {
		return true
	}
	switch status.Code(err) {
	case codes.Unavailable, codes.DeadlineExceeded, codes.ResourceExhausted, codes.Aborted:
		return true
	}
	return false
}
