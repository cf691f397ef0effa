package service

import (
	"fmt"
	"math"
	"time"

	"go.uber.org/zap"

	"pacekeeper/internal/model"
	"pacekeeper/pkg/metrics"
)

const (
	minMilestones = 3
	maxMilestones = 8

	// Weekend moves are capped so a preference never pushes a schedule far out.
	weekendShiftWindowDays = 3
)

type stageTemplate struct {
	name        string
	description string
}

// Stage vocabulary by category. Position picks the stage: earliest entries for
// the first milestones, latest for the final stretch.
var stageVocabulary = map[string][]stageTemplate{
	model.CategoryPersonal: {
		{"Getting started", "Build the first habits around %q and settle into a rhythm."},
		{"Building momentum", "Keep showing up for %q and stack small wins."},
		{"Deepening the habit", "Push %q past the comfortable stretch."},
		{"Home stretch", "Close out %q and lock in the result."},
	},
	model.CategoryProfessional: {
		{"Foundation", "Scope the work for %q and clear the prerequisites."},
		{"Core execution", "Deliver the main body of work for %q."},
		{"Refinement", "Review, polish and de-risk %q."},
		{"Delivery", "Finalize %q and ship the outcome."},
	},
}

// Soft-framing prefixes for weekend-friendly rewrites.
var weekendFramings = []string{
	"Easy win: ",
	"Light touch: ",
	"Low-key: ",
}

// ScheduleGenerator produces a milestone ladder for a new goal and runs the
// pacing pipeline over it. The pipeline order is fixed: base ladder, then
// velocity pacing, then weekend optimization, so the weekend pass reads the
// already shifted due dates.
type ScheduleGenerator struct {
	logger *zap.Logger
	now    func() time.Time
}

func NewScheduleGenerator(logger *zap.Logger) *ScheduleGenerator {
	return &ScheduleGenerator{
		logger: logger,
		now:    time.Now,
	}
}

// Generate returns the full adaptively-paced ladder for a goal draft.
func (g *ScheduleGenerator) Generate(draft model.GoalDraft, profile model.BehaviorProfile) []model.MilestoneDraft {
	ladder := g.baseLadder(draft)
	ladder = applyPacing(ladder, profile)
	ladder = optimizeWeekends(ladder, profile)

	metrics.IncrementScheduleGeneration(draft.Category)
	g.logger.Info("Milestone schedule generated",
		zap.String("category", draft.Category),
		zap.String("velocity", profile.CompletionVelocity),
		zap.Int("milestone_count", len(ladder)),
	)
	return ladder
}

// baseLadder sizes the ladder to the goal duration and spaces due dates
// evenly. A target date in the past still yields the minimum ladder with due
// dates collapsing to now.
func (g *ScheduleGenerator) baseLadder(draft model.GoalDraft) []model.MilestoneDraft {
	now := g.now()

	duration := int(draft.TargetDate.Sub(now).Hours() / 24)
	count := duration / 7
	if count < minMilestones {
		count = minMilestones
	}
	if count > maxMilestones {
		count = maxMilestones
	}

	interval := float64(duration) / float64(count+1)
	if interval < 0 {
		interval = 0
	}

	stages := stageVocabulary[draft.Category]
	if stages == nil {
		stages = stageVocabulary[model.CategoryPersonal]
	}

	drafts := make([]model.MilestoneDraft, 0, count)
	for i := 1; i <= count; i++ {
		label := int(math.Round(float64(i) / float64(count) * 100))
		stage := stages[(i-1)*len(stages)/count]

		due := now.Add(time.Duration(float64(i)*interval*24) * time.Hour)

		drafts = append(drafts, model.MilestoneDraft{
			Title:         fmt.Sprintf("%s (%d%%)", stage.name, label),
			Description:   fmt.Sprintf(stage.description, draft.Title),
			DueDate:       due,
			Difficulty:    model.DifficultyModerate,
			ProgressLabel: label,
		})
	}
	return drafts
}

// applyPacing shifts the ladder by completion velocity: high runs a day
// tighter, low runs two days looser with lightened bookends.
func applyPacing(drafts []model.MilestoneDraft, profile model.BehaviorProfile) []model.MilestoneDraft {
	switch profile.CompletionVelocity {
	case model.VelocityHigh:
		for i := range drafts {
			drafts[i].DueDate = drafts[i].DueDate.AddDate(0, 0, -1)
		}
	case model.VelocityLow:
		for i := range drafts {
			drafts[i].DueDate = drafts[i].DueDate.AddDate(0, 0, 2)
		}
		if len(drafts) > 0 {
			drafts[0].Difficulty = model.DifficultyLight
			drafts[len(drafts)-1].Difficulty = model.DifficultyLight
		}
	}
	return drafts
}

// optimizeWeekends adapts weekend placement to the user's weekend activity.
// Weekend-averse users get weekend-due milestones lightened and reframed;
// weekend-active users get nearby weekday milestones pulled onto a weekend.
func optimizeWeekends(drafts []model.MilestoneDraft, profile model.BehaviorProfile) []model.MilestoneDraft {
	for i := range drafts {
		due := drafts[i].DueDate

		if isWeekend(due) && profile.WeekendActivity == model.WeekendActivityLow {
			drafts[i].Difficulty = model.DifficultyLight
			drafts[i].WeekendFriendly = true
			drafts[i].Title = weekendFramings[i%len(weekendFramings)] + drafts[i].Title
			continue
		}

		if !isWeekend(due) && profile.WeekendActivity == model.WeekendActivityHigh {
			shift := daysUntilSaturday(due)
			if shift <= weekendShiftWindowDays {
				drafts[i].DueDate = due.AddDate(0, 0, shift)
				drafts[i].WeekendFriendly = true
			}
		}
	}
	return drafts
}

func daysUntilSaturday(t time.Time) int {
	return (int(time.Saturday) - int(t.Weekday()) + 7) % 7
}
