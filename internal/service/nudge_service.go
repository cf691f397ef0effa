package service

import (
	"fmt"
	"strings"
	"time"
)

// Nudge tones, from most to least intense.
const (
	ToneFinalPush           = "encouraging_final_push"
	ToneMilestone           = "motivational_milestone"
	ToneSteadyProgress      = "steady_progress"
	ToneSupportiveComeback  = "supportive_comeback"
	ToneGentleEncouragement = "gentle_encouragement"
	ToneStreakMilestone     = "streak_milestone"
)

// Nudge contexts.
const (
	ContextFinalPush        = "final_push"
	ContextMilestoneReached = "milestone_reached"
	ContextSteadyProgress   = "steady_progress"
	ContextStreakMilestone  = "streak_achievement"
	ContextStreakRecovery   = "streak_recovery"
	ContextGeneral          = "general"
)

// Nudge is a short motivational message emitted as a notification event.
type Nudge struct {
	Message   string    `json:"message"`
	Type      string    `json:"type"`
	Tone      string    `json:"tone"`
	Context   string    `json:"context"`
	CreatedAt time.Time `json:"created_at"`
}

var nudgeTemplates = map[string][]string{
	ToneFinalPush: {
		"You're {progress}% there — your future self will thank you!",
		"Almost at the finish line! {progress}% complete and counting",
		"The last {remaining}% is where champions are made! Keep pushing!",
		"You've conquered {progress}% — the summit is within reach!",
		"{progress}% done means you're closer than you think! Don't stop now!",
	},
	ToneMilestone: {
		"Wow! {progress}% complete — you're building something amazing!",
		"Look at you go! {progress}% and your momentum is unstoppable!",
		"You're {progress}% there and absolutely crushing it! Keep the energy high!",
		"Milestone unlocked: {progress}%! Your dedication is truly inspiring!",
		"{progress}% complete — you're proof that consistency creates miracles!",
	},
	ToneSteadyProgress: {
		"Steady wins the race! You're {progress}% there and doing great!",
		"{progress}% complete — every step forward counts! Keep it up!",
		"You're {progress}% in — small steps, big dreams!",
		"Progress is progress! {progress}% shows your commitment is real!",
		"{progress}% and climbing — your journey is inspiring!",
	},
	ToneSupportiveComeback: {
		"{streak} days strong! Your comeback story is being written!",
		"You're back and {streak} days in — resilience looks good on you!",
		"{streak} day streak shows you're unstoppable! Welcome back, champion!",
		"Day {streak} of your amazing comeback journey! Keep rising!",
		"{streak} days and counting — you're proving that setbacks are setups for comebacks!",
	},
	ToneGentleEncouragement: {
		"Every journey starts with a single step — you're {progress}% on your way!",
		"You're {progress}% in and that's something to be proud of!",
		"{progress}% complete — you're making it happen, one day at a time!",
		"Look at that! {progress}% progress — you're already making a difference!",
		"You're {progress}% closer to your dreams today than yesterday!",
	},
	ToneStreakMilestone: {
		"{streak} days strong! Your consistency is building something beautiful!",
		"Amazing! {streak} days of showing up — you're a force of nature!",
		"{streak} day streak! Your future self is doing a happy dance!",
		"Incredible! {streak} days of dedication — you're rewriting your story!",
		"{streak} days and counting — your commitment is absolutely inspiring!",
	},
}

// NudgeService composes motivational messages from a fixed vocabulary. It is
// pure: no clock beyond the injected one, no randomness, so the same inputs
// always produce the same nudge.
type NudgeService struct {
	now func() time.Time
}

func NewNudgeService() *NudgeService {
	return &NudgeService{now: time.Now}
}

// selectTone maps a progress percentage and context to a message tone.
// Streak-only contexts win over progress tiers.
func selectTone(progress int, context string) string {
	switch context {
	case ContextStreakMilestone:
		return ToneStreakMilestone
	case ContextStreakRecovery:
		return ToneSupportiveComeback
	}
	switch {
	case progress >= 80:
		return ToneFinalPush
	case progress >= 60:
		return ToneMilestone
	case progress >= 40:
		return ToneSteadyProgress
	}
	return ToneGentleEncouragement
}

// ProgressNudge generates a nudge for a goal's current progress percentage.
func (s *NudgeService) ProgressNudge(progress, streak int) Nudge {
	context := ContextGeneral
	switch {
	case progress >= 80:
		context = ContextFinalPush
	case progress >= 60:
		context = ContextMilestoneReached
	case progress >= 40:
		context = ContextSteadyProgress
	}
	return s.compose(progress, streak, context)
}

// StreakNudges returns the nudges a streak state earns: a milestone nudge at
// 7- and 30-day multiples, and a recovery nudge while chasing a longer record
// at 70% or more of it.
func (s *NudgeService) StreakNudges(current, longest int) []Nudge {
	var nudges []Nudge
	if current > 0 && (current%7 == 0 || current%30 == 0) {
		nudges = append(nudges, s.compose(0, current, ContextStreakMilestone))
	}
	if current > 0 && current < longest {
		progressToRecord := current * 100 / longest
		if progressToRecord >= 70 {
			nudges = append(nudges, s.compose(0, current, ContextStreakRecovery))
		}
	}
	return nudges
}

func (s *NudgeService) compose(progress, streak int, context string) Nudge {
	tone := selectTone(progress, context)
	templates := nudgeTemplates[tone]

	// Deterministic template rotation keyed by the inputs.
	template := templates[(progress+streak)%len(templates)]

	message := strings.NewReplacer(
		"{progress}", fmt.Sprintf("%d", progress),
		"{remaining}", fmt.Sprintf("%d", 100-progress),
		"{streak}", fmt.Sprintf("%d", streak),
	).Replace(template)

	return Nudge{
		Message:   message,
		Type:      "nudge",
		Tone:      tone,
		Context:   context,
		CreatedAt: s.now(),
	}
}
