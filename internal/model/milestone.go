package model

import "time"

const (
	DifficultyLight    = "light"
	DifficultyModerate = "moderate"
	DifficultyHeavy    = "heavy"
)

// AdjustedBySmartEngine marks milestones mutated by the adjustment engine.
const AdjustedBySmartEngine = "smart_engine"

type Milestone struct {
	ID              int        `json:"id"`
	GoalID          int        `json:"goal_id"`
	Title           string     `json:"title"`
	Description     string     `json:"description"`
	DueDate         time.Time  `json:"due_date"`
	Completed       bool       `json:"completed"`
	CompletedAt     *time.Time `json:"completed_at,omitempty"` // non-nil iff Completed
	Difficulty      string     `json:"difficulty"`             // light | moderate | heavy
	WeekendFriendly bool       `json:"weekend_friendly"`
	// Provenance, set only by the adjustment engine.
	AdjustedBy       *string   `json:"adjusted_by,omitempty"`
	AdjustmentReason *string   `json:"adjustment_reason,omitempty"`
	CreatedAt        time.Time `json:"created_at"`
	UpdatedAt        time.Time `json:"updated_at"`
}

// MilestoneDraft is a milestone before it has an identity, as produced by the
// schedule generator and shaped by the pacing pipeline.
type MilestoneDraft struct {
	Title           string    `json:"title"`
	Description     string    `json:"description"`
	DueDate         time.Time `json:"due_date"`
	Difficulty      string    `json:"difficulty"`
	WeekendFriendly bool      `json:"weekend_friendly"`
	ProgressLabel   int       `json:"progress_label"` // round(i/count*100), used for templating
}
