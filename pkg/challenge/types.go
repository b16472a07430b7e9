// Package challenge holds the shared domain types for the 50-day challenge:
// the fixed habit list, per-day completion records and the user profile.
package challenge

import "strings"

const (
	// NumHabits is the fixed number of daily habits in the challenge.
	NumHabits = 7

	// Length is the challenge duration in calendar days.
	Length = 50
)

// Habit describes one of the seven fixed daily habits. IDs are the strings
// "1".."7" and are reserved keys in day records (see record.go).
type Habit struct {
	ID          string `json:"id"`
	Title       string `json:"title"`
	Description string `json:"description"`
	Icon        string `json:"icon"`
}

// Habits is the fixed habit list, in display order.
var Habits = [NumHabits]Habit{
	{ID: "1", Title: "Wake up before 8am", Description: "Start the day early with energy", Icon: "Sunrise"},
	{ID: "2", Title: "Daily exercise", Description: "One hour of physical activity", Icon: "Dumbbell"},
	{ID: "3", Title: "Drink enough water", Description: "Stay hydrated through the day", Icon: "Droplet"},
	{ID: "4", Title: "Read 10 pages", Description: "Daily reading for personal growth", Icon: "Book"},
	{ID: "5", Title: "Learn a new skill", Description: "One hour learning something new", Icon: "GraduationCap"},
	{ID: "6", Title: "Healthy diet", Description: "No alcohol or junk food", Icon: "Apple"},
	{ID: "7", Title: "Bedtime routine", Description: "Keep a consistent sleep schedule", Icon: "Moon"},
}

// Profile is the per-user aggregate document stored at users/{uid}.
type Profile struct {
	UID                string   `firestore:"uid" json:"uid"`
	Email              string   `firestore:"email" json:"email"`
	DisplayName        string   `firestore:"displayName,omitempty" json:"display_name,omitempty"`
	StartDate          DayKey   `firestore:"startDate" json:"start_date"`
	CurrentStreak      int      `firestore:"currentStreak" json:"current_streak"`
	LongestStreak      int      `firestore:"longestStreak" json:"longest_streak"`
	TotalDaysCompleted int      `firestore:"totalDaysCompleted" json:"total_days_completed"`
	LastCompletedDate  DayKey   `firestore:"lastCompletedDate,omitempty" json:"last_completed_date,omitempty"`
	Badges             []string `firestore:"badges" json:"badges"`
}

// NewProfile returns a zeroed profile starting today.
func NewProfile(uid, email string, start DayKey) *Profile {
	name := email
	if i := strings.IndexByte(email, '@'); i > 0 {
		name = email[:i]
	}
	return &Profile{
		UID:         uid,
		Email:       email,
		DisplayName: name,
		StartDate:   start,
		Badges:      []string{},
	}
}
