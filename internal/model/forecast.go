package model

import "time"

const (
	PaceAccelerating = "accelerating"
	PaceDecelerating = "decelerating"
	PaceSteady       = "steady"

	ScenarioConservative = "conservative"
	ScenarioRealistic    = "realistic"
	ScenarioOptimistic   = "optimistic"
)

type ProgressMetrics struct {
	CurrentProgress     float64 `json:"current_progress"`
	TimeProgress        float64 `json:"time_progress"`
	MilestoneProgress   float64 `json:"milestone_progress"`
	CompletedMilestones int     `json:"completed_milestones"`
	TotalMilestones     int     `json:"total_milestones"`
	DaysElapsed         int     `json:"days_elapsed"`
	DaysRemaining       int     `json:"days_remaining"`
	TotalDays           int     `json:"total_days"`
}

type PaceAnalysis struct {
	RecentPace         float64 `json:"recent_pace"`     // completions per day, last 14 days
	HistoricalPace     float64 `json:"historical_pace"` // completions per day before that
	CheckInConsistency float64 `json:"checkin_consistency"`
	PaceDirection      string  `json:"pace_direction"` // accelerating | decelerating | steady
	PaceVelocity       float64 `json:"pace_velocity"`
	RecentCompletions  int     `json:"recent_completions"`
	ConsistencyScore   float64 `json:"consistency_score"` // 0-1, 1 check-in per day = 1.0
}

type ConfidenceFactors struct {
	TimeAlignment         float64 `json:"time_alignment"`
	PaceConsistency       float64 `json:"pace_consistency"`
	Momentum              float64 `json:"momentum"`
	CheckInFrequency      float64 `json:"checkin_frequency"`
	HistoricalPerformance float64 `json:"historical_performance"`
	OverallConfidence     float64 `json:"overall_confidence"` // clamped to [0.15, 0.95]
}

type ForecastScenario struct {
	Name           string    `json:"name"`
	CompletionDate time.Time `json:"completion_date"`
	DaysToComplete int       `json:"days_to_complete"`
	Probability    float64   `json:"probability"`
	Pace           float64   `json:"pace"`
}

type Recommendation struct {
	Type     string `json:"type"`     // schedule | pace | consistency | confidence | positive
	Priority string `json:"priority"` // high | medium | low | info
	Message  string `json:"message"`
	Action   string `json:"action"`
}

// Forecast is ephemeral; a failed pipeline never returns a partial one.
type Forecast struct {
	ProjectedCompletionDate time.Time                   `json:"projected_completion_date"`
	ConfidenceLevel         float64                     `json:"confidence_level"`
	CompletionProbability   float64                     `json:"completion_probability"`
	OnTrack                 bool                        `json:"on_track"`
	DaysAheadBehind         int                         `json:"days_ahead_behind"` // positive = ahead of target
	Scenarios               map[string]ForecastScenario `json:"scenarios"`
	PrimaryScenario         string                      `json:"primary_scenario"`
	Recommendations         []Recommendation            `json:"recommendations"`
	Trend                   string                      `json:"trend"`
	RiskFactors             []string                    `json:"risk_factors"`
	CurrentProgress         float64                     `json:"current_progress"`
	PaceAnalysis            PaceAnalysis                `json:"pace_analysis"`
	ConfidenceFactors       *ConfidenceFactors          `json:"confidence_factors,omitempty"`
}
