package service

import (
	"context"
	"math"
	"sort"
	"time"

	"go.uber.org/zap"

	"pacekeeper/internal/model"
)

const moodImpactWindowDays = 7

// MoodProgressPoint is one check-in day with the averaged mood and the
// average goal progress as of that day.
type MoodProgressPoint struct {
	Date     string `json:"date"` // YYYY-MM-DD
	Mood     int    `json:"mood"`
	Progress int    `json:"progress"`
}

// MilestoneMoodImpact is one check-in within a week of a milestone
// completion, positioned relative to the completion day.
type MilestoneMoodImpact struct {
	MilestoneID        int    `json:"milestone_id"`
	MilestoneTitle     string `json:"milestone_title"`
	GoalID             int    `json:"goal_id"`
	CompletedAt        string `json:"completed_at"`
	DaysFromCompletion int    `json:"days_from_completion"`
	Mood               int    `json:"mood"`
	CheckInDate        string `json:"checkin_date"`
}

// DashboardStats aggregates the goal portfolio, with trends computed against
// the previous 30-day period.
type DashboardStats struct {
	TotalGoals      int `json:"total_goals"`
	ActiveGoals     int `json:"active_goals"`
	CompletedGoals  int `json:"completed_goals"`
	AverageProgress int `json:"average_progress"`
	GoalsTrend      int `json:"goals_trend"`     // goals created, last 30d minus prior 30d
	CompletedTrend  int `json:"completed_trend"` // goals completed in the last 30d
}

type insightGoalSource interface {
	ListAll(ctx context.Context) ([]model.Goal, error)
}

type insightMilestoneSource interface {
	ListAll(ctx context.Context) ([]model.Milestone, error)
}

type insightCheckInSource interface {
	ListAll(ctx context.Context) ([]model.CheckIn, error)
}

// InsightService builds the read-only analytics surfaces: mood/progress
// correlation, mood impact around milestone completions and dashboard
// aggregates.
type InsightService struct {
	goals      insightGoalSource
	milestones insightMilestoneSource
	checkIns   insightCheckInSource
	logger     *zap.Logger
	now        func() time.Time
}

func NewInsightService(goals insightGoalSource, milestones insightMilestoneSource, checkIns insightCheckInSource, logger *zap.Logger) *InsightService {
	return &InsightService{
		goals:      goals,
		milestones: milestones,
		checkIns:   checkIns,
		logger:     logger,
		now:        time.Now,
	}
}

// MoodCorrelation produces one point per check-in day in [start, end],
// pairing the day's mood with the average goal progress reconstructed from
// milestone completions up to that day. A nil goalID spans all goals.
func (s *InsightService) MoodCorrelation(ctx context.Context, goalID *int, start, end time.Time) ([]MoodProgressPoint, error) {
	goals, err := s.goals.ListAll(ctx)
	if err != nil {
		return nil, err
	}
	milestones, err := s.milestones.ListAll(ctx)
	if err != nil {
		return nil, err
	}
	checkIns, err := s.checkIns.ListAll(ctx)
	if err != nil {
		return nil, err
	}

	targetGoals := goals
	if goalID != nil {
		targetGoals = nil
		for _, g := range goals {
			if g.ID == *goalID {
				targetGoals = append(targetGoals, g)
			}
		}
	}

	byGoal := map[int][]model.Milestone{}
	for _, m := range milestones {
		byGoal[m.GoalID] = append(byGoal[m.GoalID], m)
	}

	points := map[string]*MoodProgressPoint{}
	for _, c := range checkIns {
		if c.Date.Before(start) || c.Date.After(end) {
			continue
		}

		progress := averageProgressAsOf(targetGoals, byGoal, c.Date)
		key := c.Date.Format("2006-01-02")

		if existing, ok := points[key]; ok {
			// Several check-ins on one day average together.
			existing.Mood = int(math.Round(float64(existing.Mood+c.Mood) / 2))
			existing.Progress = int(math.Round(float64(existing.Progress+progress) / 2))
			continue
		}
		points[key] = &MoodProgressPoint{Date: key, Mood: c.Mood, Progress: progress}
	}

	out := make([]MoodProgressPoint, 0, len(points))
	for _, p := range points {
		out = append(out, *p)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Date < out[j].Date })
	return out, nil
}

// averageProgressAsOf reconstructs each goal's progress from the milestones
// completed by the given date, falling back to the stored progress for goals
// without a ladder.
func averageProgressAsOf(goals []model.Goal, byGoal map[int][]model.Milestone, asOf time.Time) int {
	if len(goals) == 0 {
		return 0
	}

	total := 0
	for _, g := range goals {
		ladder := byGoal[g.ID]
		if len(ladder) == 0 {
			total += g.Progress
			continue
		}
		done := 0
		for _, m := range ladder {
			if m.Completed && m.CompletedAt != nil && !m.CompletedAt.After(asOf) {
				done++
			}
		}
		total += int(math.Round(float64(done) / float64(len(ladder)) * 100))
	}
	return int(math.Round(float64(total) / float64(len(goals))))
}

// MilestoneMoodImpacts pairs each milestone completed in [start, end] with
// the check-ins landing within a week of the completion, ordered by their
// distance from it.
func (s *InsightService) MilestoneMoodImpacts(ctx context.Context, goalID *int, start, end time.Time) ([]MilestoneMoodImpact, error) {
	milestones, err := s.milestones.ListAll(ctx)
	if err != nil {
		return nil, err
	}
	checkIns, err := s.checkIns.ListAll(ctx)
	if err != nil {
		return nil, err
	}

	impacts := []MilestoneMoodImpact{}
	for _, m := range milestones {
		if !m.Completed || m.CompletedAt == nil {
			continue
		}
		if goalID != nil && m.GoalID != *goalID {
			continue
		}
		if m.CompletedAt.Before(start) || m.CompletedAt.After(end) {
			continue
		}

		for _, c := range checkIns {
			diff := c.Date.Sub(*m.CompletedAt).Hours() / 24
			if math.Abs(diff) > moodImpactWindowDays {
				continue
			}
			impacts = append(impacts, MilestoneMoodImpact{
				MilestoneID:        m.ID,
				MilestoneTitle:     m.Title,
				GoalID:             m.GoalID,
				CompletedAt:        m.CompletedAt.Format("2006-01-02"),
				DaysFromCompletion: int(math.Round(diff)),
				Mood:               c.Mood,
				CheckInDate:        c.Date.Format("2006-01-02"),
			})
		}
	}

	sort.SliceStable(impacts, func(i, j int) bool {
		return impacts[i].DaysFromCompletion < impacts[j].DaysFromCompletion
	})
	return impacts, nil
}

// Dashboard aggregates the portfolio. Trends compare the last 30 days with
// the 30 days before that.
func (s *InsightService) Dashboard(ctx context.Context) (DashboardStats, error) {
	goals, err := s.goals.ListAll(ctx)
	if err != nil {
		return DashboardStats{}, err
	}

	now := s.now()
	periodStart := now.AddDate(0, 0, -30)
	priorStart := now.AddDate(0, 0, -60)

	stats := DashboardStats{TotalGoals: len(goals)}
	progressSum := 0
	createdRecent, createdPrior := 0, 0

	for _, g := range goals {
		progressSum += g.Progress
		switch g.Status {
		case model.GoalStatusActive:
			stats.ActiveGoals++
		case model.GoalStatusCompleted:
			stats.CompletedGoals++
			if g.UpdatedAt.After(periodStart) {
				stats.CompletedTrend++
			}
		}
		switch {
		case g.CreatedAt.After(periodStart):
			createdRecent++
		case g.CreatedAt.After(priorStart):
			createdPrior++
		}
	}

	if len(goals) > 0 {
		stats.AverageProgress = int(math.Round(float64(progressSum) / float64(len(goals))))
	}
	stats.GoalsTrend = createdRecent - createdPrior
	return stats, nil
}
