package model

import "time"

// Stress-associated mood labels recognized by the stress detector.
var StressMoodLabels = map[string]bool{
	"stressed":    true,
	"overwhelmed": true,
	"anxious":     true,
	"frustrated":  true,
}

// CheckIn is an append-only daily entry. Mood is ordinal 1-5; MoodLabel is an
// optional categorical label ("stressed", "great", ...).
type CheckIn struct {
	ID                  int       `json:"id"`
	GoalID              *int      `json:"goal_id,omitempty"` // nil for general check-ins
	Date                time.Time `json:"date"`
	Mood                int       `json:"mood"`
	MoodLabel           string    `json:"mood_label"`
	Note                string    `json:"note"`
	CompletedMilestones []int     `json:"completed_milestones"` // milestone ids completed in this check-in
	CreatedAt           time.Time `json:"created_at"`
}
