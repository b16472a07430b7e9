package challenge

import "slices"

// Badge is an achievement unlocked by streak or challenge-day milestones.
type Badge struct {
	ID     string `json:"id"`
	Title  string `json:"title"`
	Streak int    `json:"streak,omitempty"` // required current streak
	Day    int    `json:"day,omitempty"`    // required challenge day ordinal
}

var Badges = []Badge{
	{ID: "streak_3", Title: "3-day streak", Streak: 3},
	{ID: "streak_7", Title: "One week", Streak: 7},
	{ID: "streak_14", Title: "Two weeks", Streak: 14},
	{ID: "streak_21", Title: "Three weeks", Streak: 21},
	{ID: "streak_30", Title: "One month", Streak: 30},
	{ID: "streak_40", Title: "40 days strong", Streak: 40},
	{ID: "streak_50", Title: "Perfect challenge", Streak: 50},
	{ID: "halfway", Title: "Halfway there", Day: Length / 2},
	{ID: "finisher", Title: "Challenge complete", Day: Length},
}

// EligibleBadges returns the badge IDs p qualifies for but has not unlocked,
// evaluated at the given challenge day ordinal.
func EligibleBadges(p *Profile, day int) []string {
	var out []string
	for _, b := range Badges {
		if slices.Contains(p.Badges, b.ID) {
			continue
		}
		if b.Streak > 0 && p.CurrentStreak >= b.Streak {
			out = append(out, b.ID)
		} else if b.Day > 0 && day >= b.Day && p.TotalDaysCompleted > 0 {
			out = append(out, b.ID)
		}
	}
	return out
}

// Unlock appends badge IDs to the profile, skipping ones already present.
// Returns the IDs actually added.
func (p *Profile) Unlock(ids ...string) []string {
	var added []string
	for _, id := range ids {
		if slices.Contains(p.Badges, id) {
			continue
		}
		p.Badges = append(p.Badges, id)
		added = append(added, id)
	}
	return added
}
