package service

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"pacekeeper/internal/model"
)

type fakeInsightGoals struct {
	goals []model.Goal
}

func (f *fakeInsightGoals) ListAll(_ context.Context) ([]model.Goal, error) {
	return f.goals, nil
}

type fakeInsightMilestones struct {
	milestones []model.Milestone
}

func (f *fakeInsightMilestones) ListAll(_ context.Context) ([]model.Milestone, error) {
	return f.milestones, nil
}

func newTestInsightService(goals []model.Goal, milestones []model.Milestone, checkIns []model.CheckIn, now time.Time) *InsightService {
	s := NewInsightService(
		&fakeInsightGoals{goals: goals},
		&fakeInsightMilestones{milestones: milestones},
		&fakeCheckInLister{checkIns: checkIns},
		zap.NewNop(),
	)
	s.now = func() time.Time { return now }
	return s
}

func insightCompleted(id, goalID int, at time.Time) model.Milestone {
	return model.Milestone{ID: id, GoalID: goalID, Title: "Step", Completed: true, CompletedAt: &at, DueDate: at}
}

func TestMoodCorrelation(t *testing.T) {
	now := day(0)
	start, end := day(-30), day(0)

	goals := []model.Goal{{ID: 1, Status: model.GoalStatusActive}}
	milestones := []model.Milestone{
		insightCompleted(1, 1, day(-10)),
		insightCompleted(2, 1, day(-5)),
		{ID: 3, GoalID: 1, DueDate: day(5)},
		{ID: 4, GoalID: 1, DueDate: day(15)},
	}

	t.Run("progress reconstructed per day", func(t *testing.T) {
		checkIns := []model.CheckIn{
			{Date: day(-3), Mood: 4},
			{Date: day(-7), Mood: 3},
		}
		s := newTestInsightService(goals, milestones, checkIns, now)

		points, err := s.MoodCorrelation(context.Background(), nil, start, end)
		require.NoError(t, err)
		require.Len(t, points, 2)

		// Chronological: day(-7) saw one of four milestones done, day(-3) two.
		assert.Equal(t, day(-7).Format("2006-01-02"), points[0].Date)
		assert.Equal(t, 3, points[0].Mood)
		assert.Equal(t, 25, points[0].Progress)

		assert.Equal(t, day(-3).Format("2006-01-02"), points[1].Date)
		assert.Equal(t, 50, points[1].Progress)
	})

	t.Run("same-day check-ins average", func(t *testing.T) {
		checkIns := []model.CheckIn{
			{Date: day(-3), Mood: 4},
			{Date: day(-3).Add(6 * time.Hour), Mood: 2},
		}
		s := newTestInsightService(goals, milestones, checkIns, now)

		points, err := s.MoodCorrelation(context.Background(), nil, start, end)
		require.NoError(t, err)
		require.Len(t, points, 1)
		assert.Equal(t, 3, points[0].Mood)
	})

	t.Run("check-ins outside the range drop out", func(t *testing.T) {
		checkIns := []model.CheckIn{
			{Date: day(-40), Mood: 5},
			{Date: day(-3), Mood: 4},
		}
		s := newTestInsightService(goals, milestones, checkIns, now)

		points, err := s.MoodCorrelation(context.Background(), nil, start, end)
		require.NoError(t, err)
		assert.Len(t, points, 1)
	})

	t.Run("goal filter and ladderless fallback", func(t *testing.T) {
		twoGoals := []model.Goal{
			{ID: 1, Status: model.GoalStatusActive},
			{ID: 2, Status: model.GoalStatusActive, Progress: 80}, // no ladder
		}
		checkIns := []model.CheckIn{{Date: day(-3), Mood: 4}}
		s := newTestInsightService(twoGoals, milestones, checkIns, now)

		goalID := 2
		points, err := s.MoodCorrelation(context.Background(), &goalID, start, end)
		require.NoError(t, err)
		require.Len(t, points, 1)
		assert.Equal(t, 80, points[0].Progress, "stored progress stands in for a missing ladder")
	})
}

func TestMilestoneMoodImpacts(t *testing.T) {
	now := day(0)
	milestones := []model.Milestone{
		insightCompleted(1, 1, day(-5)),
		insightCompleted(2, 2, day(-5)), // other goal
	}
	checkIns := []model.CheckIn{
		{Date: day(-8), Mood: 2}, // 3 days before completion
		{Date: day(-3), Mood: 5}, // 2 days after
		{Date: day(10), Mood: 4}, // outside the week window
	}

	s := newTestInsightService(nil, milestones, checkIns, now)

	goalID := 1
	impacts, err := s.MilestoneMoodImpacts(context.Background(), &goalID, day(-30), day(0))
	require.NoError(t, err)
	require.Len(t, impacts, 2)

	assert.Equal(t, -3, impacts[0].DaysFromCompletion)
	assert.Equal(t, 2, impacts[0].Mood)
	assert.Equal(t, 2, impacts[1].DaysFromCompletion)
	assert.Equal(t, 5, impacts[1].Mood)
	for _, impact := range impacts {
		assert.Equal(t, 1, impact.GoalID)
	}
}

func TestDashboard(t *testing.T) {
	now := day(0)
	goals := []model.Goal{
		{ID: 1, Status: model.GoalStatusActive, Progress: 40, CreatedAt: day(-10)},
		{ID: 2, Status: model.GoalStatusActive, Progress: 20, CreatedAt: day(-45)},
		{ID: 3, Status: model.GoalStatusCompleted, Progress: 100, CreatedAt: day(-50), UpdatedAt: day(-5)},
		{ID: 4, Status: model.GoalStatusCompleted, Progress: 100, CreatedAt: day(-90), UpdatedAt: day(-40)},
		{ID: 5, Status: model.GoalStatusPaused, Progress: 10, CreatedAt: day(-70)},
	}

	s := newTestInsightService(goals, nil, nil, now)

	stats, err := s.Dashboard(context.Background())
	require.NoError(t, err)

	assert.Equal(t, 5, stats.TotalGoals)
	assert.Equal(t, 2, stats.ActiveGoals)
	assert.Equal(t, 2, stats.CompletedGoals)
	assert.Equal(t, 54, stats.AverageProgress) // round(270/5)
	assert.Equal(t, -1, stats.GoalsTrend)      // 1 created recently vs 2 in the prior period
	assert.Equal(t, 1, stats.CompletedTrend)   // only goal 3 finished in the last 30 days
}

func TestDashboardEmptyPortfolio(t *testing.T) {
	s := newTestInsightService(nil, nil, nil, day(0))

	stats, err := s.Dashboard(context.Background())
	require.NoError(t, err)
	assert.Zero(t, stats.TotalGoals)
	assert.Zero(t, stats.AverageProgress)
}
