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
)

type fakeCheckInLister struct {
	checkIns []model.CheckIn
	err      error
}

func (f *fakeCheckInLister) ListAll(_ context.Context) ([]model.CheckIn, error) {
	return f.checkIns, f.err
}

// day returns a fixed timestamp offset from Monday 2025-06-02.
func day(offset int) time.Time {
	return time.Date(2025, 6, 2, 12, 0, 0, 0, time.UTC).AddDate(0, 0, offset)
}

func checkInOn(t time.Time, mood int, completed ...int) model.CheckIn {
	return model.CheckIn{Date: t, Mood: mood, CompletedMilestones: completed}
}

func TestBehaviorAnalyzerNeutralFallbacks(t *testing.T) {
	tests := []struct {
		name   string
		source *fakeCheckInLister
	}{
		{name: "empty history", source: &fakeCheckInLister{}},
		{name: "source error", source: &fakeCheckInLister{err: errors.New("db down")}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			a := NewBehaviorAnalyzer(tt.source, zap.NewNop())
			profile := a.Analyze(context.Background())

			assert.Equal(t, model.VelocityModerate, profile.CompletionVelocity)
			assert.Equal(t, model.WeekendActivityLow, profile.WeekendActivity)
			assert.Empty(t, profile.MoodCorrelation)
		})
	}
}

func TestBehaviorAnalyzerVelocityTiers(t *testing.T) {
	tests := []struct {
		name           string
		completionDays int
		want           string
	}{
		{name: "no completions", completionDays: 0, want: model.VelocityLow},
		{name: "two days", completionDays: 2, want: model.VelocityLow},
		{name: "three days", completionDays: 3, want: model.VelocityModerate},
		{name: "five days", completionDays: 5, want: model.VelocityModerate},
		{name: "six days", completionDays: 6, want: model.VelocityHigh},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var history []model.CheckIn
			// Weekday-only dates so the weekend heuristic stays out of the way.
			for i := 0; i < tt.completionDays; i++ {
				history = append(history, checkInOn(day(i*7), 3, 100+i))
			}
			history = append(history, checkInOn(day(1), 4))

			a := NewBehaviorAnalyzer(&fakeCheckInLister{checkIns: history}, zap.NewNop())
			profile := a.Analyze(context.Background())

			assert.Equal(t, tt.want, profile.CompletionVelocity)
		})
	}
}

func TestBehaviorAnalyzerWeekendActivity(t *testing.T) {
	// Two weekend completion days against four weekday days: 2 > 0.4*4.
	history := []model.CheckIn{
		checkInOn(day(0), 3, 1),  // Mon
		checkInOn(day(1), 3, 2),  // Tue
		checkInOn(day(2), 3, 3),  // Wed
		checkInOn(day(3), 3, 4),  // Thu
		checkInOn(day(5), 4, 5),  // Sat
		checkInOn(day(12), 4, 6), // Sat
	}

	a := NewBehaviorAnalyzer(&fakeCheckInLister{checkIns: history}, zap.NewNop())
	profile := a.Analyze(context.Background())

	assert.Equal(t, model.WeekendActivityHigh, profile.WeekendActivity)
}

func TestBehaviorAnalyzerMoodCorrelationSeries(t *testing.T) {
	// ListAll contract is newest first; the series must come out chronological.
	history := []model.CheckIn{
		checkInOn(day(5), 5, 9), // Sat, newest
		checkInOn(day(1), 2),    // Tue
		checkInOn(day(0), 4, 7), // Mon, oldest
	}

	a := NewBehaviorAnalyzer(&fakeCheckInLister{checkIns: history}, zap.NewNop())
	profile := a.Analyze(context.Background())

	weekday := profile.MoodCorrelation[model.DayTypeWeekday]
	require.Equal(t, []int{4, 2}, weekday.Moods)
	require.Equal(t, []int{1, 0}, weekday.Completions)

	weekend := profile.MoodCorrelation[model.DayTypeWeekend]
	require.Equal(t, []int{5}, weekend.Moods)
	require.Equal(t, []int{1}, weekend.Completions)
}
