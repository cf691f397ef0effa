package model

const (
	VelocityLow      = "low"
	VelocityModerate = "moderate"
	VelocityHigh     = "high"

	WeekendActivityLow  = "low"
	WeekendActivityHigh = "high"

	DayTypeWeekend = "weekend"
	DayTypeWeekday = "weekday"
)

// MoodSeries keeps the raw parallel mood / had-completion sequences for one
// day type, in chronological check-in order. Consumers compute their own
// statistics over it.
type MoodSeries struct {
	Moods       []int `json:"moods"`
	Completions []int `json:"completions"` // 0/1 flags, parallel to Moods
}

// BehaviorProfile is derived on demand from check-in and milestone history.
// It has no independent lifecycle.
type BehaviorProfile struct {
	CompletionVelocity string                `json:"completion_velocity"` // low | moderate | high
	WeekendActivity    string                `json:"weekend_activity"`    // low | high
	MoodCorrelation    map[string]MoodSeries `json:"mood_correlation"`    // keyed by day type
}

// NeutralBehaviorProfile is the advisory default used when history is empty
// or unavailable. It must never block goal creation.
func NeutralBehaviorProfile() BehaviorProfile {
	return BehaviorProfile{
		CompletionVelocity: VelocityModerate,
		WeekendActivity:    WeekendActivityLow,
		MoodCorrelation:    map[string]MoodSeries{},
	}
}

const (
	RecommendationMajorSimplification = "major_simplification"
	RecommendationModerateAdjustment  = "moderate_adjustment"
	RecommendationMinorTweaks         = "minor_tweaks"
)

// StressAssessment is an ephemeral per-request score in [0,1].
type StressAssessment struct {
	Level          float64  `json:"level"`
	Reasons        []string `json:"reasons"`
	Recommendation string   `json:"recommendation"`
}
