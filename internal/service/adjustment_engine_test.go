package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"pacekeeper/internal/model"
	"pacekeeper/pkg/config"
)

type fakeAdjustmentWriter struct {
	applied [][]model.Milestone
	err     error
}

func (f *fakeAdjustmentWriter) ApplyAdjustments(_ context.Context, adjusted []model.Milestone) error {
	if f.err != nil {
		return f.err
	}
	f.applied = append(f.applied, adjusted)
	return nil
}

type fakeStressSource struct {
	assessment model.StressAssessment
}

func (f *fakeStressSource) Analyze(_ context.Context, _ int) model.StressAssessment {
	return f.assessment
}

func newTestEngine(writer *fakeAdjustmentWriter, stress *fakeStressSource, now time.Time) *AdjustmentEngine {
	e := NewAdjustmentEngine(writer, stress, NewBehaviorLog(0), config.DefaultEngineConfig(), zap.NewNop())
	e.now = func() time.Time { return now }
	return e
}

func TestCheckAndApplyReschedulesOverdue(t *testing.T) {
	now := day(0)
	writer := &fakeAdjustmentWriter{}
	engine := newTestEngine(writer, &fakeStressSource{}, now)

	// Two of four incomplete are overdue: ratio 0.5, medium severity.
	current := []model.Milestone{
		{ID: 1, DueDate: day(-5), Difficulty: model.DifficultyModerate},
		{ID: 2, DueDate: day(-2), Difficulty: model.DifficultyModerate},
		{ID: 3, DueDate: day(10), Difficulty: model.DifficultyModerate},
		{ID: 4, DueDate: day(20), Difficulty: model.DifficultyModerate},
	}

	adjustments, err := engine.CheckAndApply(context.Background(), 7, current)
	require.NoError(t, err)
	require.Len(t, adjustments, 2)

	for _, a := range adjustments {
		assert.Equal(t, model.AdjustmentTypeReschedule, a.Type)
		assert.Equal(t, day(4).Format("2006-01-02"), a.After, "medium severity buffers 4 days")
	}

	require.Len(t, writer.applied, 1)
	for _, m := range writer.applied[0] {
		require.NotNil(t, m.AdjustedBy)
		assert.Equal(t, model.AdjustedBySmartEngine, *m.AdjustedBy)
		require.NotNil(t, m.AdjustmentReason)
		assert.Equal(t, day(4), m.DueDate)
	}

	audits := engine.Audits(7)
	require.Len(t, audits, 1)
	assert.Equal(t, 2, audits[0].Count)
}

func TestCheckAndApplyHighSeverityLightensUpcoming(t *testing.T) {
	now := day(0)
	writer := &fakeAdjustmentWriter{}
	engine := newTestEngine(writer, &fakeStressSource{}, now)

	// Three of four incomplete overdue: ratio 0.75, high severity, 7-day buffer.
	current := []model.Milestone{
		{ID: 1, DueDate: day(-9), Difficulty: model.DifficultyHeavy},
		{ID: 2, DueDate: day(-6), Difficulty: model.DifficultyModerate},
		{ID: 3, DueDate: day(-1), Difficulty: model.DifficultyModerate},
		{ID: 4, DueDate: day(3), Difficulty: model.DifficultyHeavy}, // upcoming
	}

	adjustments, err := engine.CheckAndApply(context.Background(), 7, current)
	require.NoError(t, err)

	var reschedules, simplifies int
	for _, a := range adjustments {
		switch a.Type {
		case model.AdjustmentTypeReschedule:
			reschedules++
			assert.Equal(t, day(7).Format("2006-01-02"), a.After)
		case model.AdjustmentTypeSimplify:
			simplifies++
			assert.Equal(t, 4, a.MilestoneID)
		}
	}
	assert.Equal(t, 3, reschedules)
	assert.Equal(t, 1, simplifies)
}

func TestCheckAndApplyStressPass(t *testing.T) {
	now := day(0)
	writer := &fakeAdjustmentWriter{}
	stress := &fakeStressSource{assessment: model.StressAssessment{
		Level:          0.75,
		Recommendation: model.RecommendationMajorSimplification,
	}}
	engine := newTestEngine(writer, stress, now)

	current := []model.Milestone{
		{ID: 1, Title: "Push hard", DueDate: day(1), Difficulty: model.DifficultyHeavy},
		{ID: 2, Title: "Coast", DueDate: day(10), Difficulty: model.DifficultyLight, WeekendFriendly: true},
		{ID: 3, Title: "Wrap up", DueDate: day(30), Difficulty: model.DifficultyModerate},
		{ID: 4, Title: "Done", DueDate: day(-20), Completed: true, Difficulty: model.DifficultyModerate},
	}

	adjustments, err := engine.CheckAndApply(context.Background(), 9, current)
	require.NoError(t, err)

	byMilestone := map[int][]string{}
	for _, a := range adjustments {
		byMilestone[a.MilestoneID] = append(byMilestone[a.MilestoneID], a.Type)
	}

	// Near-term heavy milestone: lightened, extended 3 days, weekend-flagged.
	assert.ElementsMatch(t, []string{
		model.AdjustmentTypeSimplify,
		model.AdjustmentTypeExtend,
		model.AdjustmentTypeWeekendShift,
	}, byMilestone[1])

	// Already light and weekend-friendly: nothing to do.
	assert.Empty(t, byMilestone[2])

	// Far-out moderate milestone: lightened and weekend-flagged, not extended.
	assert.ElementsMatch(t, []string{
		model.AdjustmentTypeSimplify,
		model.AdjustmentTypeWeekendShift,
	}, byMilestone[3])

	// Completed milestones are never candidates.
	assert.Empty(t, byMilestone[4])

	require.Len(t, writer.applied, 1)
	for _, m := range writer.applied[0] {
		if m.ID == 1 {
			assert.Equal(t, day(4), m.DueDate)
			assert.Equal(t, model.DifficultyLight, m.Difficulty)
			assert.True(t, m.WeekendFriendly)
			assert.Contains(t, m.Title, "Push hard")
			assert.NotEqual(t, "Push hard", m.Title, "major tier reframes the title")
			require.NotNil(t, m.AdjustmentReason)
			assert.Contains(t, *m.AdjustmentReason, "; ", "reasons compose")
		}
	}
}

func TestCheckAndApplyExtremeStressExtendsFiveDays(t *testing.T) {
	now := day(0)
	writer := &fakeAdjustmentWriter{}
	stress := &fakeStressSource{assessment: model.StressAssessment{
		Level:          0.9,
		Recommendation: model.RecommendationMajorSimplification,
	}}
	engine := newTestEngine(writer, stress, now)

	current := []model.Milestone{
		{ID: 1, DueDate: day(2), Difficulty: model.DifficultyLight, WeekendFriendly: true},
	}

	adjustments, err := engine.CheckAndApply(context.Background(), 3, current)
	require.NoError(t, err)
	require.Len(t, adjustments, 1)
	assert.Equal(t, model.AdjustmentTypeExtend, adjustments[0].Type)
	assert.Equal(t, day(7).Format("2006-01-02"), adjustments[0].After)
}

func TestCheckAndApplyIsIdempotent(t *testing.T) {
	now := day(0)
	writer := &fakeAdjustmentWriter{}
	stress := &fakeStressSource{assessment: model.StressAssessment{
		Level:          0.75,
		Recommendation: model.RecommendationMajorSimplification,
	}}
	engine := newTestEngine(writer, stress, now)

	current := []model.Milestone{
		{ID: 1, DueDate: day(-2), Difficulty: model.DifficultyHeavy},
		{ID: 2, DueDate: day(10), Difficulty: model.DifficultyModerate},
	}

	first, err := engine.CheckAndApply(context.Background(), 5, current)
	require.NoError(t, err)
	require.NotEmpty(t, first)
	require.Len(t, writer.applied, 1)

	// Fold the applied mutations back into the ladder and run again.
	next := make(map[int]model.Milestone, len(current))
	for _, m := range current {
		next[m.ID] = m
	}
	for _, m := range writer.applied[0] {
		next[m.ID] = m
	}
	var rerun []model.Milestone
	for _, m := range current {
		rerun = append(rerun, next[m.ID])
	}

	second, err := engine.CheckAndApply(context.Background(), 5, rerun)
	require.NoError(t, err)
	assert.Empty(t, second, "an immediate re-run finds nothing left to adjust")
	assert.Len(t, writer.applied, 1, "no second write")
}

func TestCheckAndApplyNoPartialWrites(t *testing.T) {
	now := day(0)
	writer := &fakeAdjustmentWriter{err: errors.New("tx failed")}
	engine := newTestEngine(writer, &fakeStressSource{}, now)

	current := []model.Milestone{
		{ID: 1, DueDate: day(-5), Difficulty: model.DifficultyModerate},
		{ID: 2, DueDate: day(-3), Difficulty: model.DifficultyModerate},
	}

	adjustments, err := engine.CheckAndApply(context.Background(), 5, current)
	require.Error(t, err)
	assert.Nil(t, adjustments, "a failed pass reports zero adjustments")
	assert.Empty(t, engine.Audits(5), "no audit for a failed pass")
}

func TestCheckAndApplyCleanLadderDoesNothing(t *testing.T) {
	writer := &fakeAdjustmentWriter{}
	engine := newTestEngine(writer, &fakeStressSource{}, day(0))

	current := []model.Milestone{
		{ID: 1, DueDate: day(5), Difficulty: model.DifficultyModerate},
		{ID: 2, DueDate: day(15), Difficulty: model.DifficultyModerate},
	}

	adjustments, err := engine.CheckAndApply(context.Background(), 2, current)
	require.NoError(t, err)
	assert.Empty(t, adjustments)
	assert.Empty(t, writer.applied, "nothing persisted when nothing changed")
}
