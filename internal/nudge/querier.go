package nudge

import (
	"context"

	"github.com/brk3/fifty/pkg/challenge"
)

// Querier is the slice of the storage layer the nudge scan needs.
// storage.Store satisfies it.
type Querier interface {
	ListUsers(ctx context.Context) ([]string, error)
	GetProfile(ctx context.Context, uid string) (*challenge.Profile, error)
}

// Notifier delivers the reminder. Implementations live in subpackages so the
// scan logic stays independent of any one email provider.
type Notifier interface {
	SendNudge(email string, streak, hoursLeft int) error
}
