package tracker

import "github.com/brk3/fifty/pkg/challenge"

// applyCompletion advances the streak state machine when every habit on
// `today` is complete. Reports whether the profile changed; completing a day
// that is already recorded is a no-op so re-toggles never double-count.
//
// The states, keyed off LastCompletedDate:
//   - absent:    first completion ever, streak starts at 1
//   - today:     already counted, no-op
//   - yesterday: consecutive day, streak extends
//   - older:     gap completion, streak restarts at 1
func applyCompletion(p *challenge.Profile, today challenge.DayKey) bool {
	switch p.LastCompletedDate {
	case today:
		return false
	case today.Prev():
		p.CurrentStreak++
	default:
		p.CurrentStreak = 1
	}
	p.TotalDaysCompleted++
	p.LastCompletedDate = today
	if p.CurrentStreak > p.LongestStreak {
		p.LongestStreak = p.CurrentStreak
	}
	return true
}

// applyDecay zeroes a streak broken by at least one missed full day. Unlike
// a gap completion it does not touch TotalDaysCompleted: nothing was
// completed, the streak just lapsed. Reports whether the profile changed.
func applyDecay(p *challenge.Profile, today challenge.DayKey) bool {
	if p.CurrentStreak == 0 || p.LastCompletedDate == "" {
		return false
	}
	if p.LastCompletedDate == today || p.LastCompletedDate == today.Prev() {
		return false
	}
	p.CurrentStreak = 0
	return true
}
