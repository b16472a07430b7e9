package nudge

import (
	"context"
	"fmt"
	"time"

	"github.com/brk3/fifty/internal/logger"
	"github.com/brk3/fifty/pkg/challenge"
)

// ExpiringStreak is a user whose active streak dies at the next day boundary
// unless they finish today's habits first.
type ExpiringStreak struct {
	UID       string
	Email     string
	Streak    int
	HoursLeft int
}

// FindExpiringStreaks returns every user with a live streak and an incomplete
// day, when less than `within` remains before the day rolls over. A streak is
// live only if the last completed day is yesterday; anything older has
// already lapsed and there is nothing left to save.
func FindExpiringStreaks(ctx context.Context, q Querier, now time.Time, within time.Duration) ([]ExpiringStreak, error) {
	left := challenge.NextRollover(now).Sub(now)
	if left > within {
		return nil, nil
	}
	hoursLeft := int(left / time.Hour)

	uids, err := q.ListUsers(ctx)
	if err != nil {
		return nil, fmt.Errorf("list users: %w", err)
	}

	today := challenge.DayOf(now)
	var out []ExpiringStreak
	for _, uid := range uids {
		p, err := q.GetProfile(ctx, uid)
		if err != nil {
			logger.Warn("Skipping user in nudge scan", "user_id", uid, "error", err)
			continue
		}
		if p.CurrentStreak == 0 || p.Email == "" {
			continue
		}
		if p.LastCompletedDate != today.Prev() {
			continue
		}
		out = append(out, ExpiringStreak{
			UID:       uid,
			Email:     p.Email,
			Streak:    p.CurrentStreak,
			HoursLeft: hoursLeft,
		})
	}
	return out, nil
}

// Run scans for expiring streaks and sends one reminder each. Delivery
// failures are logged and skipped; the count of sent reminders is returned.
func Run(ctx context.Context, q Querier, n Notifier, within time.Duration) (int, error) {
	expiring, err := FindExpiringStreaks(ctx, q, time.Now(), within)
	if err != nil {
		return 0, err
	}

	sent := 0
	for _, e := range expiring {
		if err := n.SendNudge(e.Email, e.Streak, e.HoursLeft); err != nil {
			logger.Error("Failed to send nudge", "user_id", e.UID, "error", err)
			continue
		}
		logger.Info("Nudge sent", "user_id", e.UID, "streak", e.Streak, "hours_left", e.HoursLeft)
		sent++
	}
	return sent, nil
}
