package model

import "time"

const (
	CategoryPersonal     = "personal"
	CategoryProfessional = "professional"

	GoalStatusActive    = "active"
	GoalStatusPaused    = "paused"
	GoalStatusCompleted = "completed"
)

type Goal struct {
	ID          int       `json:"id"`
	Title       string    `json:"title"`
	Description string    `json:"description"`
	Category    string    `json:"category"` // personal | professional
	Status      string    `json:"status"`   // active | paused | completed
	Progress    int       `json:"progress"` // 0-100, kept consistent with milestone completion ratio
	TargetDate  time.Time `json:"target_date"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// GoalDraft is the caller-supplied shape for creating a goal.
type GoalDraft struct {
	Title       string    `json:"title"`
	Description string    `json:"description"`
	Category    string    `json:"category"`
	TargetDate  time.Time `json:"target_date"`
}
