package service

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestNudgeService(now time.Time) *NudgeService {
	s := NewNudgeService()
	s.now = func() time.Time { return now }
	return s
}

func TestSelectTone(t *testing.T) {
	tests := []struct {
		name     string
		progress int
		context  string
		want     string
	}{
		{name: "streak milestone wins over progress", progress: 90, context: ContextStreakMilestone, want: ToneStreakMilestone},
		{name: "streak recovery wins over progress", progress: 90, context: ContextStreakRecovery, want: ToneSupportiveComeback},
		{name: "final push at 80", progress: 80, context: ContextFinalPush, want: ToneFinalPush},
		{name: "milestone at 60", progress: 60, context: ContextMilestoneReached, want: ToneMilestone},
		{name: "steady at 40", progress: 40, context: ContextSteadyProgress, want: ToneSteadyProgress},
		{name: "gentle below 40", progress: 39, context: ContextGeneral, want: ToneGentleEncouragement},
		{name: "gentle at zero", progress: 0, context: ContextGeneral, want: ToneGentleEncouragement},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, selectTone(tt.progress, tt.context))
		})
	}
}

func TestProgressNudgeSubstitution(t *testing.T) {
	now := day(0)
	s := newTestNudgeService(now)

	// Template index (82+0)%5 = 2 carries the {remaining} placeholder.
	n := s.ProgressNudge(82, 0)

	assert.Equal(t, "The last 18% is where champions are made! Keep pushing!", n.Message)
	assert.Equal(t, ToneFinalPush, n.Tone)
	assert.Equal(t, ContextFinalPush, n.Context)
	assert.Equal(t, "nudge", n.Type)
	assert.Equal(t, now, n.CreatedAt)
}

func TestProgressNudgeIsDeterministic(t *testing.T) {
	s := newTestNudgeService(day(0))

	first := s.ProgressNudge(45, 3)
	second := s.ProgressNudge(45, 3)

	assert.Equal(t, first, second)
	assert.Equal(t, ToneSteadyProgress, first.Tone)
	assert.NotContains(t, first.Message, "{", "all placeholders resolved")
}

func TestStreakNudges(t *testing.T) {
	s := newTestNudgeService(day(0))

	t.Run("weekly milestone", func(t *testing.T) {
		nudges := s.StreakNudges(7, 7)
		require.Len(t, nudges, 1)
		assert.Equal(t, ContextStreakMilestone, nudges[0].Context)
		assert.Contains(t, nudges[0].Message, "7 day")
	})

	t.Run("milestone plus record chase", func(t *testing.T) {
		// 14 is a weekly multiple and 70% of the 20-day record.
		nudges := s.StreakNudges(14, 20)
		require.Len(t, nudges, 2)
		assert.Equal(t, ContextStreakMilestone, nudges[0].Context)
		assert.Equal(t, ContextStreakRecovery, nudges[1].Context)
		assert.Equal(t, ToneSupportiveComeback, nudges[1].Tone)
	})

	t.Run("halfway to the record earns nothing", func(t *testing.T) {
		assert.Empty(t, s.StreakNudges(5, 10))
	})

	t.Run("zero streak earns nothing", func(t *testing.T) {
		assert.Empty(t, s.StreakNudges(0, 12))
	})
}
