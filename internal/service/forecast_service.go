package service

import (
	"context"
	"encoding/json"
	"fmt"
	"math"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"pacekeeper/internal/model"
	"pacekeeper/pkg/config"
	"pacekeeper/pkg/metrics"
)

const (
	recentPacePeriodDays   = 14
	forecastCheckInFetch   = 60
	minForecastPace        = 0.01
	minTimeAlignmentFactor = 0.2

	forecastOutcomeSuccess  = "success"
	forecastOutcomeFailed   = "failed"
	forecastOutcomeCacheHit = "cache_hit"
)

// Confidence factor weights. They sum to 1.
const (
	weightTimeAlignment    = 0.25
	weightPaceConsistency  = 0.20
	weightMomentum         = 0.20
	weightCheckInFrequency = 0.15
	weightHistoricalPerf   = 0.20
)

type forecastGoalSource interface {
	FindByID(ctx context.Context, id int) (*model.Goal, error)
}

type forecastMilestoneSource interface {
	FindByGoalID(ctx context.Context, goalID int) ([]model.Milestone, error)
}

type forecastCheckInSource interface {
	ListRecent(ctx context.Context, goalID *int, limit int) ([]model.CheckIn, error)
}

// ForecastService projects a goal's completion date from milestone pace and
// check-in consistency. The whole pipeline is read-only; any upstream failure
// aborts it, a partial forecast is never returned.
type ForecastService struct {
	goals      forecastGoalSource
	milestones forecastMilestoneSource
	checkIns   forecastCheckInSource
	cache      *redis.Client
	cacheTTL   time.Duration
	logger     *zap.Logger
	now        func() time.Time
}

func NewForecastService(
	goals forecastGoalSource,
	milestones forecastMilestoneSource,
	checkIns forecastCheckInSource,
	cache *redis.Client,
	cfg config.EngineConfig,
	logger *zap.Logger,
) *ForecastService {
	return &ForecastService{
		goals:      goals,
		milestones: milestones,
		checkIns:   checkIns,
		cache:      cache,
		cacheTTL:   time.Duration(cfg.ForecastCacheTTLSeconds) * time.Second,
		logger:     logger,
		now:        time.Now,
	}
}

// ProgressForecast returns the completion forecast for a goal. Confidence
// factors are computed either way; they are stripped from the response unless
// requested. The cached entry always carries them.
func (s *ForecastService) ProgressForecast(ctx context.Context, goalID int, includeConfidenceFactors bool) (*model.Forecast, error) {
	started := time.Now()

	if cached := s.cacheGet(ctx, goalID); cached != nil {
		metrics.RecordForecastDuration(forecastOutcomeCacheHit, time.Since(started))
		if !includeConfidenceFactors {
			cached.ConfidenceFactors = nil
		}
		return cached, nil
	}

	forecast, err := s.compute(ctx, goalID)
	if err != nil {
		metrics.RecordForecastDuration(forecastOutcomeFailed, time.Since(started))
		s.logger.Error("Progress forecast failed",
			zap.Int("goal_id", goalID),
			zap.Error(err),
		)
		return nil, fmt.Errorf("forecast generation failed: %w", err)
	}

	s.cacheSet(ctx, goalID, forecast)
	metrics.RecordForecastDuration(forecastOutcomeSuccess, time.Since(started))

	if !includeConfidenceFactors {
		stripped := *forecast
		stripped.ConfidenceFactors = nil
		return &stripped, nil
	}
	return forecast, nil
}

func (s *ForecastService) compute(ctx context.Context, goalID int) (*model.Forecast, error) {
	goal, err := s.goals.FindByID(ctx, goalID)
	if err != nil {
		return nil, err
	}
	milestones, err := s.milestones.FindByGoalID(ctx, goalID)
	if err != nil {
		return nil, err
	}
	checkIns, err := s.checkIns.ListRecent(ctx, &goalID, forecastCheckInFetch)
	if err != nil {
		return nil, err
	}

	now := s.now()
	progress := calculateProgressMetrics(goal, milestones, now)
	pace := analyzePace(milestones, checkIns, now)
	factors := calculateConfidenceFactors(progress, pace)

	scenarios := calculateForecastScenarios(progress, pace, now)
	primary := selectPrimaryScenario(scenarios, factors, pace)

	forecast := &model.Forecast{
		ProjectedCompletionDate: primary.CompletionDate,
		ConfidenceLevel:         factors.OverallConfidence,
		CompletionProbability:   primary.Probability,
		OnTrack:                 !primary.CompletionDate.After(goal.TargetDate),
		DaysAheadBehind:         int(math.Round(goal.TargetDate.Sub(primary.CompletionDate).Hours() / 24)),
		Scenarios:               scenarios,
		PrimaryScenario:         primary.Name,
		Trend:                   pace.PaceDirection,
		RiskFactors:             identifyRiskFactors(progress, pace, factors),
		CurrentProgress:         progress.CurrentProgress,
		PaceAnalysis:            pace,
		ConfidenceFactors:       &factors,
	}
	forecast.Recommendations = generateRecommendations(goal, pace, factors, primary)
	return forecast, nil
}

func calculateProgressMetrics(goal *model.Goal, milestones []model.Milestone, now time.Time) model.ProgressMetrics {
	totalDuration := goal.TargetDate.Sub(goal.CreatedAt)
	elapsed := now.Sub(goal.CreatedAt)

	timeProgress := 0.0
	if totalDuration > 0 {
		timeProgress = clamp(float64(elapsed)/float64(totalDuration), 0, 1)
	}

	completed := 0
	for _, m := range milestones {
		if m.Completed {
			completed++
		}
	}
	total := len(milestones)

	milestoneProgress := 0.0
	if total > 0 {
		milestoneProgress = float64(completed) / float64(total)
	}

	// Milestone completion is the source of truth when a ladder exists;
	// otherwise fall back to the goal's stored progress percentage.
	currentProgress := float64(goal.Progress) / 100
	if total > 0 {
		currentProgress = milestoneProgress
	}

	return model.ProgressMetrics{
		CurrentProgress:     currentProgress,
		TimeProgress:        timeProgress,
		MilestoneProgress:   milestoneProgress,
		CompletedMilestones: completed,
		TotalMilestones:     total,
		DaysElapsed:         int(math.Floor(elapsed.Hours() / 24)),
		DaysRemaining:       int(math.Ceil(goal.TargetDate.Sub(now).Hours() / 24)),
		TotalDays:           int(math.Ceil(totalDuration.Hours() / 24)),
	}
}

func analyzePace(milestones []model.Milestone, checkIns []model.CheckIn, now time.Time) model.PaceAnalysis {
	recentDate := now.AddDate(0, 0, -recentPacePeriodDays)

	recentCompletions := 0
	olderCompletions := 0
	var earliestCreated time.Time
	for _, m := range milestones {
		if earliestCreated.IsZero() || m.CreatedAt.Before(earliestCreated) {
			earliestCreated = m.CreatedAt
		}
		if !m.Completed || m.CompletedAt == nil {
			continue
		}
		if m.CompletedAt.Before(recentDate) {
			olderCompletions++
		} else {
			recentCompletions++
		}
	}

	recentPace := float64(recentCompletions) / recentPacePeriodDays

	historicalPace := 0.0
	if !earliestCreated.IsZero() {
		historicalSpan := recentDate.Sub(earliestCreated).Hours() / 24
		if historicalSpan < 1 {
			historicalSpan = 1
		}
		historicalPace = float64(olderCompletions) / historicalSpan
	}

	recentCheckIns := 0
	for _, c := range checkIns {
		if !c.Date.Before(recentDate) {
			recentCheckIns++
		}
	}
	checkInConsistency := float64(recentCheckIns) / recentPacePeriodDays

	paceVelocity := recentPace - historicalPace
	paceDirection := model.PaceSteady
	switch {
	case paceVelocity > 0.1:
		paceDirection = model.PaceAccelerating
	case paceVelocity < -0.1:
		paceDirection = model.PaceDecelerating
	}

	return model.PaceAnalysis{
		RecentPace:         recentPace,
		HistoricalPace:     historicalPace,
		CheckInConsistency: checkInConsistency,
		PaceDirection:      paceDirection,
		PaceVelocity:       paceVelocity,
		RecentCompletions:  recentCompletions,
		ConsistencyScore:   math.Min(checkInConsistency*7, 1),
	}
}

func calculateConfidenceFactors(progress model.ProgressMetrics, pace model.PaceAnalysis) model.ConfidenceFactors {
	f := model.ConfidenceFactors{
		TimeAlignment:    math.Max(1-math.Abs(progress.CurrentProgress-progress.TimeProgress), minTimeAlignmentFactor),
		PaceConsistency:  pace.ConsistencyScore,
		Momentum:         math.Min(pace.RecentPace*7, 1),
		CheckInFrequency: math.Min(pace.CheckInConsistency, 1),
	}

	// Without any milestone history the prior is neutral.
	f.HistoricalPerformance = 0.5
	if progress.TotalMilestones > 0 {
		f.HistoricalPerformance = float64(progress.CompletedMilestones) / float64(progress.TotalMilestones)
	}

	overall := f.TimeAlignment*weightTimeAlignment +
		f.PaceConsistency*weightPaceConsistency +
		f.Momentum*weightMomentum +
		f.CheckInFrequency*weightCheckInFrequency +
		f.HistoricalPerformance*weightHistoricalPerf
	f.OverallConfidence = clamp(overall, 0.15, 0.95)
	return f
}

func calculateForecastScenarios(progress model.ProgressMetrics, pace model.PaceAnalysis, now time.Time) map[string]model.ForecastScenario {
	remaining := 1 - progress.CurrentProgress

	conservativePace := math.Max(pace.HistoricalPace*0.8, minForecastPace)
	realisticPace := math.Max((pace.RecentPace+pace.HistoricalPace)/2, minForecastPace)
	optimisticPace := math.Max(pace.RecentPace*1.2, conservativePace)

	build := func(name string, scenarioPace, probability float64) model.ForecastScenario {
		days := int(math.Ceil(remaining / scenarioPace))
		return model.ForecastScenario{
			Name:           name,
			CompletionDate: now.AddDate(0, 0, days),
			DaysToComplete: days,
			Probability:    probability,
			Pace:           scenarioPace,
		}
	}

	return map[string]model.ForecastScenario{
		model.ScenarioConservative: build(model.ScenarioConservative, conservativePace, 0.85),
		model.ScenarioRealistic:    build(model.ScenarioRealistic, realisticPace, 0.65),
		model.ScenarioOptimistic:   build(model.ScenarioOptimistic, optimisticPace, 0.35),
	}
}

func selectPrimaryScenario(scenarios map[string]model.ForecastScenario, factors model.ConfidenceFactors, pace model.PaceAnalysis) model.ForecastScenario {
	if factors.OverallConfidence > 0.7 && pace.PaceDirection == model.PaceAccelerating {
		return scenarios[model.ScenarioOptimistic]
	}
	if factors.OverallConfidence < 0.4 || pace.PaceDirection == model.PaceDecelerating {
		return scenarios[model.ScenarioConservative]
	}
	return scenarios[model.ScenarioRealistic]
}

func generateRecommendations(goal *model.Goal, pace model.PaceAnalysis, factors model.ConfidenceFactors, primary model.ForecastScenario) []model.Recommendation {
	recommendations := []model.Recommendation{}
	onTrack := !primary.CompletionDate.After(goal.TargetDate)

	if !onTrack {
		daysOverdue := int(math.Round(primary.CompletionDate.Sub(goal.TargetDate).Hours() / 24))
		recommendations = append(recommendations, model.Recommendation{
			Type:     "schedule",
			Priority: "high",
			Message:  fmt.Sprintf("You're projected to finish %d days late. Consider increasing your pace or adjusting milestones.", daysOverdue),
			Action:   "Increase check-in frequency and milestone completion rate",
		})
	}

	if pace.PaceDirection == model.PaceDecelerating {
		recommendations = append(recommendations, model.Recommendation{
			Type:     "pace",
			Priority: "medium",
			Message:  "Your completion pace has slowed recently. Consider breaking down remaining milestones into smaller tasks.",
			Action:   "Simplify upcoming milestones",
		})
	}

	if pace.ConsistencyScore < 0.5 {
		recommendations = append(recommendations, model.Recommendation{
			Type:     "consistency",
			Priority: "medium",
			Message:  "More frequent check-ins could improve your tracking accuracy and motivation.",
			Action:   "Aim for daily or every-other-day check-ins",
		})
	}

	if factors.OverallConfidence < 0.5 {
		recommendations = append(recommendations, model.Recommendation{
			Type:     "confidence",
			Priority: "low",
			Message:  "Forecast confidence is low due to irregular patterns. Maintain consistent progress for better predictions.",
			Action:   "Focus on building steady habits",
		})
	}

	if onTrack && pace.PaceDirection == model.PaceAccelerating {
		recommendations = append(recommendations, model.Recommendation{
			Type:     "positive",
			Priority: "info",
			Message:  "Great momentum! You're on track and accelerating. Keep up the excellent work!",
			Action:   "Maintain current pace",
		})
	}

	return recommendations
}

func identifyRiskFactors(progress model.ProgressMetrics, pace model.PaceAnalysis, factors model.ConfidenceFactors) []string {
	risks := []string{}

	if progress.DaysRemaining < 7 && progress.CurrentProgress < 0.8 {
		risks = append(risks, "Limited time remaining with significant work left")
	}
	if pace.ConsistencyScore < 0.3 {
		risks = append(risks, "Inconsistent check-in pattern affecting accuracy")
	}
	if pace.RecentPace < pace.HistoricalPace*0.5 {
		risks = append(risks, "Recent pace significantly below historical average")
	}
	if factors.Momentum < 0.2 {
		risks = append(risks, "Low recent activity level")
	}

	return risks
}

func (s *ForecastService) cacheKey(goalID int) string {
	return fmt.Sprintf("forecast:%d", goalID)
}

// cacheGet is best-effort; redis trouble falls through to recomputation.
func (s *ForecastService) cacheGet(ctx context.Context, goalID int) *model.Forecast {
	if s.cache == nil {
		return nil
	}
	raw, err := s.cache.Get(ctx, s.cacheKey(goalID)).Bytes()
	if err != nil {
		if err != redis.Nil {
			s.logger.Warn("Forecast cache read failed", zap.Int("goal_id", goalID), zap.Error(err))
		}
		return nil
	}
	var f model.Forecast
	if err := json.Unmarshal(raw, &f); err != nil {
		s.logger.Warn("Discarding malformed forecast cache entry", zap.Int("goal_id", goalID), zap.Error(err))
		return nil
	}
	return &f
}

func (s *ForecastService) cacheSet(ctx context.Context, goalID int, f *model.Forecast) {
	if s.cache == nil {
		return
	}
	raw, err := json.Marshal(f)
	if err != nil {
		return
	}
	if err := s.cache.Set(ctx, s.cacheKey(goalID), raw, s.cacheTTL).Err(); err != nil {
		s.logger.Warn("Forecast cache write failed", zap.Int("goal_id", goalID), zap.Error(err))
	}
}

// InvalidateCache drops the cached forecast after a write that changes the
// goal's trajectory (completion, adjustment, new check-in).
func (s *ForecastService) InvalidateCache(ctx context.Context, goalID int) {
	if s.cache == nil {
		return
	}
	if err := s.cache.Del(ctx, s.cacheKey(goalID)).Err(); err != nil {
		s.logger.Warn("Forecast cache invalidation failed", zap.Int("goal_id", goalID), zap.Error(err))
	}
}

func clamp(v, lo, hi float64) float64 {
	return math.Max(lo, math.Min(v, hi))
}
