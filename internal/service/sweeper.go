package service

import (
	"context"
	"errors"

	"go.uber.org/zap"

	contracts "pacekeeper/contracts/mq"
	"pacekeeper/internal/model"
)

// ErrGoalBusy means another adjuster currently holds the goal's lock.
var ErrGoalBusy = errors.New("goal is being adjusted by another process")

type sweepGoalSource interface {
	ListActive(ctx context.Context) ([]model.Goal, error)
}

type sweepMilestoneSource interface {
	FindByGoalID(ctx context.Context, goalID int) ([]model.Milestone, error)
}

type goalLocker interface {
	TryAcquire(ctx context.Context, goalID int) bool
	Release(ctx context.Context, goalID int)
}

type adjustmentRunner interface {
	CheckAndApply(ctx context.Context, goalID int, current []model.Milestone) ([]model.Adjustment, error)
}

// Sweeper runs the adjustment engine over every active goal. Each goal is
// guarded by the cross-process lock; a goal that is locked, fails to load or
// fails to adjust is skipped and the sweep moves on.
type Sweeper struct {
	goals      sweepGoalSource
	milestones sweepMilestoneSource
	engine     adjustmentRunner
	lock       goalLocker
	publisher  eventPublisher
	logger     *zap.Logger
}

func NewSweeper(
	goals sweepGoalSource,
	milestones sweepMilestoneSource,
	engine adjustmentRunner,
	lock goalLocker,
	publisher eventPublisher,
	logger *zap.Logger,
) *Sweeper {
	return &Sweeper{
		goals:      goals,
		milestones: milestones,
		engine:     engine,
		lock:       lock,
		publisher:  publisher,
		logger:     logger,
	}
}

// Sweep runs one full adjustment pass and returns the number of adjustments
// applied across all goals.
func (s *Sweeper) Sweep(ctx context.Context) (int, error) {
	s.logger.Info("Starting adjustment sweep...")

	goals, err := s.goals.ListActive(ctx)
	if err != nil {
		s.logger.Error("Failed to list active goals", zap.Error(err))
		return 0, err
	}

	total := 0
	for _, goal := range goals {
		select {
		case <-ctx.Done():
			return total, ctx.Err()
		default:
		}

		adjustments, err := s.AdjustGoal(ctx, goal.ID)
		if err != nil {
			if !errors.Is(err, ErrGoalBusy) {
				s.logger.Error("Adjustment run failed",
					zap.Int("goal_id", goal.ID),
					zap.Error(err),
				)
			}
			continue
		}
		total += len(adjustments)
	}

	s.logger.Info("Adjustment sweep completed",
		zap.Int("goal_count", len(goals)),
		zap.Int("adjustment_count", total),
	)
	return total, nil
}

// AdjustGoal runs one adjustment pass for a single goal under the
// cross-process lock and publishes goal.adjusted when anything changed.
func (s *Sweeper) AdjustGoal(ctx context.Context, goalID int) ([]model.Adjustment, error) {
	if !s.lock.TryAcquire(ctx, goalID) {
		s.logger.Debug("Goal locked by another adjuster, skipping",
			zap.Int("goal_id", goalID),
		)
		return nil, ErrGoalBusy
	}
	defer s.lock.Release(ctx, goalID)

	milestones, err := s.milestones.FindByGoalID(ctx, goalID)
	if err != nil {
		return nil, err
	}

	adjustments, err := s.engine.CheckAndApply(ctx, goalID, milestones)
	if err != nil {
		return nil, err
	}
	if len(adjustments) == 0 {
		return adjustments, nil
	}

	reasons := make([]string, 0, len(adjustments))
	for _, a := range adjustments {
		reasons = append(reasons, a.Reason)
	}
	if s.publisher != nil {
		if err := s.publisher.Publish(contracts.RoutingKeyGoalAdjusted, contracts.GoalAdjustedPayload{
			GoalID:          goalID,
			AdjustmentCount: len(adjustments),
			Reasons:         reasons,
		}); err != nil {
			s.logger.Error("Failed to publish goal.adjusted event",
				zap.Int("goal_id", goalID),
				zap.Error(err),
			)
		}
	}
	return adjustments, nil
}
