package challenge

import (
	"slices"
	"testing"
)

func TestEligibleBadges_StreakThresholds(t *testing.T) {
	p := NewProfile("u1", "u1@example.com", "2025-01-01")
	p.CurrentStreak = 7
	p.TotalDaysCompleted = 7

	got := EligibleBadges(p, 7)
	if !slices.Contains(got, "streak_3") || !slices.Contains(got, "streak_7") {
		t.Errorf("expected streak_3 and streak_7 in %v", got)
	}
	if slices.Contains(got, "streak_14") {
		t.Errorf("streak_14 should not be eligible at streak 7: %v", got)
	}
}

func TestEligibleBadges_DayThresholds(t *testing.T) {
	p := NewProfile("u1", "u1@example.com", "2025-01-01")
	p.TotalDaysCompleted = 10

	if got := EligibleBadges(p, Length/2); !slices.Contains(got, "halfway") {
		t.Errorf("expected halfway at day %d: %v", Length/2, got)
	}
	if got := EligibleBadges(p, Length/2-1); slices.Contains(got, "halfway") {
		t.Errorf("halfway too early: %v", got)
	}
}

func TestUnlock_Once(t *testing.T) {
	p := NewProfile("u1", "u1@example.com", "2025-01-01")
	if added := p.Unlock("streak_3"); len(added) != 1 {
		t.Fatalf("first unlock added %v", added)
	}
	if added := p.Unlock("streak_3"); len(added) != 0 {
		t.Fatalf("second unlock added %v", added)
	}
	if len(p.Badges) != 1 {
		t.Errorf("badges = %v, want one entry", p.Badges)
	}
}
