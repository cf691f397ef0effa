package service

import (
	"context"

	"go.uber.org/zap"

	"pacekeeper/internal/model"
	"pacekeeper/pkg/config"
	"pacekeeper/pkg/metrics"
)

const (
	stressMoodWindow    = 7
	stressCheckInWindow = 14
	stressMoodThreshold = 2

	moodStressWeight     = 0.4
	velocityStressWeight = 0.3
	weekendStressWeight  = 0.2

	velocityDeclineRatio   = 0.7
	weekendAvoidanceMin    = 10
	weekendAvoidanceShare  = 0.1
	velocityCompareWindow  = 5
	velocityMinCompletions = 5
)

type stressCheckInSource interface {
	ListRecent(ctx context.Context, goalID *int, limit int) ([]model.CheckIn, error)
}

// StressDetector scores a goal's current stress level from recent moods,
// completion-velocity trend and weekend avoidance. It never returns an error:
// any upstream failure degrades to a zero assessment.
type StressDetector struct {
	checkIns stressCheckInSource
	log      *BehaviorLog
	cfg      config.EngineConfig
	logger   *zap.Logger
}

func NewStressDetector(checkIns stressCheckInSource, log *BehaviorLog, cfg config.EngineConfig, logger *zap.Logger) *StressDetector {
	return &StressDetector{
		checkIns: checkIns,
		log:      log,
		cfg:      cfg,
		logger:   logger,
	}
}

func (d *StressDetector) Analyze(ctx context.Context, goalID int) model.StressAssessment {
	recent, err := d.checkIns.ListRecent(ctx, &goalID, stressCheckInWindow)
	if err != nil {
		d.logger.Warn("Stress detection degraded to zero assessment",
			zap.Int("goal_id", goalID),
			zap.Error(err),
		)
		return model.StressAssessment{Recommendation: model.RecommendationMinorTweaks}
	}

	level := 0.0
	var reasons []string

	if stressedMoodCount(recent) > stressMoodThreshold {
		level += moodStressWeight
		reasons = append(reasons, "frequent stress-related moods in recent check-ins")
	}

	completions := d.log.Completions(goalID)

	if velocityDeclined(completions) {
		level += velocityStressWeight
		reasons = append(reasons, "milestone completion pace is declining")
	}

	if weekendAvoidance(completions) {
		level += weekendStressWeight
		reasons = append(reasons, "milestones are rarely completed on weekends")
	}

	if level > 1.0 {
		level = 1.0
	}

	recommendation := model.RecommendationMinorTweaks
	switch {
	case level > d.cfg.StressMajorThreshold:
		recommendation = model.RecommendationMajorSimplification
	case level > d.cfg.StressModerateThreshold:
		recommendation = model.RecommendationModerateAdjustment
	}

	metrics.IncrementStressAssessment(recommendation)

	return model.StressAssessment{
		Level:          level,
		Reasons:        reasons,
		Recommendation: recommendation,
	}
}

// stressedMoodCount counts stress-associated mood labels among the most
// recent check-ins (newest first).
func stressedMoodCount(recent []model.CheckIn) int {
	window := recent
	if len(window) > stressMoodWindow {
		window = window[:stressMoodWindow]
	}
	count := 0
	for _, c := range window {
		if model.StressMoodLabels[c.MoodLabel] {
			count++
		}
	}
	return count
}

// velocityDeclined compares the per-day completion rate of the most recent
// five completions against the five before them. It triggers when the recent
// rate drops below 70% of the earlier one, and is only evaluated once at
// least five completions exist with an earlier group to compare against.
func velocityDeclined(completions []CompletionRecord) bool {
	if len(completions) <= velocityMinCompletions {
		return false
	}

	recent := completions[len(completions)-velocityCompareWindow:]
	earlierStart := len(completions) - 2*velocityCompareWindow
	if earlierStart < 0 {
		earlierStart = 0
	}
	earlier := completions[earlierStart : len(completions)-velocityCompareWindow]
	if len(earlier) == 0 {
		return false
	}

	recentRate := completionRate(recent)
	earlierRate := completionRate(earlier)
	if earlierRate == 0 {
		return false
	}
	return recentRate < velocityDeclineRatio*earlierRate
}

// completionRate is completions per day over the span the group covers,
// with a one-day floor.
func completionRate(group []CompletionRecord) float64 {
	if len(group) == 0 {
		return 0
	}
	span := group[len(group)-1].CompletedAt.Sub(group[0].CompletedAt).Hours() / 24
	if span < 1 {
		span = 1
	}
	return float64(len(group)) / span
}

// weekendAvoidance triggers when a meaningful history exists and under 10%
// of completions land on a weekend.
func weekendAvoidance(completions []CompletionRecord) bool {
	if len(completions) <= weekendAvoidanceMin {
		return false
	}
	weekend := 0
	for _, c := range completions {
		if isWeekend(c.CompletedAt) {
			weekend++
		}
	}
	return float64(weekend) < weekendAvoidanceShare*float64(len(completions))
}
