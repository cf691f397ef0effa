package service

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"time"

	"go.uber.org/zap"

	"pacekeeper/internal/model"
	"pacekeeper/pkg/config"
	"pacekeeper/pkg/metrics"
)

const (
	stressCandidateLimit  = 3
	highSeverityDowngrade = 2
)

type adjustmentWriter interface {
	ApplyAdjustments(ctx context.Context, adjusted []model.Milestone) error
}

type stressSource interface {
	Analyze(ctx context.Context, goalID int) model.StressAssessment
}

// AdjustmentEngine is the only component with write side effects on
// milestones. It sequences the adherence pass and the stress pass within one
// call; callers running it for the same goal concurrently must serialize on
// the goal identity.
type AdjustmentEngine struct {
	milestones adjustmentWriter
	stress     stressSource
	log        *BehaviorLog
	cfg        config.EngineConfig
	logger     *zap.Logger
	now        func() time.Time
}

func NewAdjustmentEngine(milestones adjustmentWriter, stress stressSource, log *BehaviorLog, cfg config.EngineConfig, logger *zap.Logger) *AdjustmentEngine {
	return &AdjustmentEngine{
		milestones: milestones,
		stress:     stress,
		log:        log,
		cfg:        cfg,
		logger:     logger,
		now:        time.Now,
	}
}

// CheckAndApply inspects the goal's current ladder and applies corrective
// adjustments. All mutations are computed first and persisted in a single
// transaction; a failed pass reports zero adjustments and leaves every
// milestone untouched. Each per-field mutation is gated on the current value,
// so an immediate re-run produces an empty adjustment list.
func (e *AdjustmentEngine) CheckAndApply(ctx context.Context, goalID int, current []model.Milestone) ([]model.Adjustment, error) {
	now := e.now()

	working := map[int]*model.Milestone{}
	var order []int
	touch := func(m model.Milestone) *model.Milestone {
		if w, ok := working[m.ID]; ok {
			return w
		}
		cp := m
		working[m.ID] = &cp
		order = append(order, m.ID)
		return &cp
	}

	adjustments := []model.Adjustment{}
	milestoneReasons := map[int][]string{}
	note := func(id int, reason string) {
		milestoneReasons[id] = append(milestoneReasons[id], reason)
	}

	// Pass 1: schedule slippage.
	report := analyzeAdherence(current, now, e.cfg)
	if report.BehindSchedule {
		buffer := bufferDaysFor(report.SeverityLevel)
		for _, m := range report.Overdue {
			w := touch(m)
			newDue := now.AddDate(0, 0, buffer)
			reason := fmt.Sprintf("rescheduled overdue milestone with a %d-day buffer (%s schedule pressure)", buffer, report.SeverityLevel)
			adjustments = append(adjustments, model.Adjustment{
				MilestoneID: w.ID,
				Type:        model.AdjustmentTypeReschedule,
				Reason:      reason,
				Before:      w.DueDate.Format("2006-01-02"),
				After:       newDue.Format("2006-01-02"),
			})
			w.DueDate = newDue
			note(w.ID, reason)
		}

		if report.SeverityLevel == SeverityHigh {
			downgraded := 0
			for _, m := range report.Upcoming {
				if downgraded == highSeverityDowngrade {
					break
				}
				w := touch(m)
				if w.Difficulty == model.DifficultyLight {
					continue
				}
				reason := "simplified upcoming milestone to relieve schedule pressure"
				adjustments = append(adjustments, model.Adjustment{
					MilestoneID: w.ID,
					Type:        model.AdjustmentTypeSimplify,
					Reason:      reason,
					Before:      w.Difficulty,
					After:       model.DifficultyLight,
				})
				w.Difficulty = model.DifficultyLight
				note(w.ID, reason)
				downgraded++
			}
		}
	}

	// Pass 2: stress relief, strictly after the schedule pass so extensions
	// see the already rescheduled due dates.
	assessment := e.stress.Analyze(ctx, goalID)
	if assessment.Level > e.cfg.StressAdjustThreshold {
		extendDays := 3
		if assessment.Level > e.cfg.StressExtremeThreshold {
			extendDays = 5
		}

		for _, m := range nextIncomplete(current, stressCandidateLimit) {
			w := touch(m)

			if w.Difficulty != model.DifficultyLight {
				reason := "lowered difficulty to reduce stress"
				adjustments = append(adjustments, model.Adjustment{
					MilestoneID: w.ID,
					Type:        model.AdjustmentTypeSimplify,
					Reason:      reason,
					Before:      w.Difficulty,
					After:       model.DifficultyLight,
				})
				w.Difficulty = model.DifficultyLight
				note(w.ID, reason)
			}

			// Only near-term milestones are extended; an already extended due
			// date sits beyond the window and is not extended again.
			if w.DueDate.Before(now.AddDate(0, 0, extendDays)) {
				newDue := w.DueDate.AddDate(0, 0, extendDays)
				reason := fmt.Sprintf("extended due date by %d days to ease pressure", extendDays)
				adjustments = append(adjustments, model.Adjustment{
					MilestoneID: w.ID,
					Type:        model.AdjustmentTypeExtend,
					Reason:      reason,
					Before:      w.DueDate.Format("2006-01-02"),
					After:       newDue.Format("2006-01-02"),
				})
				w.DueDate = newDue
				note(w.ID, reason)
			}

			if assessment.Recommendation == model.RecommendationMajorSimplification && !w.WeekendFriendly {
				reason := "reframed as a weekend-friendly task"
				adjustments = append(adjustments, model.Adjustment{
					MilestoneID: w.ID,
					Type:        model.AdjustmentTypeWeekendShift,
					Reason:      reason,
				})
				w.WeekendFriendly = true
				w.Title = reframeTitle(w.Title)
				note(w.ID, reason)
			}
		}
	}

	if len(adjustments) == 0 {
		return adjustments, nil
	}

	// Stamp provenance, composing the reason when several triggers fired on
	// the same milestone.
	var finals []model.Milestone
	var allReasons []string
	for _, id := range order {
		w := working[id]
		if reasons := milestoneReasons[id]; len(reasons) > 0 {
			adjustedBy := model.AdjustedBySmartEngine
			composed := strings.Join(reasons, "; ")
			w.AdjustedBy = &adjustedBy
			w.AdjustmentReason = &composed
			allReasons = append(allReasons, reasons...)
			finals = append(finals, *w)
		}
	}

	if err := e.milestones.ApplyAdjustments(ctx, finals); err != nil {
		e.logger.Error("Adjustment pass failed, no milestones modified",
			zap.Int("goal_id", goalID),
			zap.Error(err),
		)
		return nil, fmt.Errorf("apply adjustments for goal %d: %w", goalID, err)
	}

	for _, a := range adjustments {
		metrics.IncrementAdjustmentApplied(a.Type)
	}

	e.log.RecordAudit(model.AdjustmentAudit{
		GoalID:    goalID,
		Timestamp: now,
		Count:     len(adjustments),
		Reasons:   allReasons,
	})

	e.logger.Info("Smart adjustments applied",
		zap.Int("goal_id", goalID),
		zap.Int("count", len(adjustments)),
		zap.String("severity", report.SeverityLevel),
		zap.Float64("stress_level", assessment.Level),
	)
	return adjustments, nil
}

// Audits exposes the engine's bounded audit history for a goal.
func (e *AdjustmentEngine) Audits(goalID int) []model.AdjustmentAudit {
	return e.log.Audits(goalID)
}

func bufferDaysFor(severity string) int {
	switch severity {
	case SeverityHigh:
		return 7
	case SeverityMedium:
		return 4
	default:
		return 2
	}
}

// nextIncomplete returns up to limit incomplete milestones in due-date order.
func nextIncomplete(milestones []model.Milestone, limit int) []model.Milestone {
	var incomplete []model.Milestone
	for _, m := range milestones {
		if !m.Completed {
			incomplete = append(incomplete, m)
		}
	}
	sort.Slice(incomplete, func(i, j int) bool {
		return incomplete[i].DueDate.Before(incomplete[j].DueDate)
	})
	if len(incomplete) > limit {
		incomplete = incomplete[:limit]
	}
	return incomplete
}

func reframeTitle(title string) string {
	for _, prefix := range weekendFramings {
		if strings.HasPrefix(title, prefix) {
			return title
		}
	}
	return weekendFramings[0] + title
}
