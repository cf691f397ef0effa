package mqhandler

import (
	"context"
	"encoding/json"
	"time"

	"go.uber.org/zap"

	contracts "pacekeeper/contracts/mq"
	"pacekeeper/internal/model"
	"pacekeeper/internal/service"
	"pacekeeper/pkg/metrics"
	"pacekeeper/pkg/util"
)

const checkInCreatedQueue = "pacekeeper.nudges"

type goalReader interface {
	FindByID(ctx context.Context, id int) (*model.Goal, error)
}

type streakReader interface {
	Summary(ctx context.Context) (service.StreakSummary, error)
}

type nudgeComposer interface {
	ProgressNudge(progress, streak int) service.Nudge
	StreakNudges(current, longest int) []service.Nudge
}

type eventPublisher interface {
	Publish(routingKey string, payload any) error
}

// CheckInCreatedHandler turns each new check-in into motivational nudges,
// published as notification.created events. Redeliveries are deduplicated so
// a requeued message never nudges twice.
type CheckInCreatedHandler struct {
	goals     goalReader
	streaks   streakReader
	nudges    nudgeComposer
	deduper   *util.Deduper
	publisher eventPublisher
	logger    *zap.Logger
}

func NewCheckInCreatedHandler(
	goals goalReader,
	streaks streakReader,
	nudges nudgeComposer,
	deduper *util.Deduper,
	publisher eventPublisher,
	logger *zap.Logger,
) *CheckInCreatedHandler {
	return &CheckInCreatedHandler{
		goals:     goals,
		streaks:   streaks,
		nudges:    nudges,
		deduper:   deduper,
		publisher: publisher,
		logger:    logger,
	}
}

func (h *CheckInCreatedHandler) Queue() string {
	return checkInCreatedQueue
}

func (h *CheckInCreatedHandler) Handle(ctx context.Context, raw json.RawMessage) error {
	started := time.Now()

	var p contracts.CheckInCreatedPayload
	if err := json.Unmarshal(raw, &p); err != nil {
		h.logger.Error("Failed to unmarshal CheckInCreatedPayload", zap.Error(err))
		return err
	}

	if h.deduper != nil && !h.deduper.AcquireOnce(ctx, "checkin-nudge", p.CheckInID) {
		h.logger.Debug("Duplicate checkin.created delivery, skipping",
			zap.Int("checkin_id", p.CheckInID),
		)
		return nil
	}

	h.logger.Info("Handling checkin.created event",
		zap.Int("checkin_id", p.CheckInID),
		zap.Int("mood", p.Mood),
	)

	streak, err := h.streaks.Summary(ctx)
	if err != nil {
		h.logger.Error("Failed to compute streak for nudge", zap.Error(err))
		return err
	}

	var nudges []service.Nudge
	if p.GoalID != nil {
		goal, err := h.goals.FindByID(ctx, *p.GoalID)
		if err != nil {
			h.logger.Error("Failed to load goal for nudge",
				zap.Int("goal_id", *p.GoalID),
				zap.Error(err),
			)
			return err
		}
		nudges = append(nudges, h.nudges.ProgressNudge(goal.Progress, streak.Current))
	}
	nudges = append(nudges, h.nudges.StreakNudges(streak.Current, streak.Longest)...)

	for _, n := range nudges {
		if err := h.publisher.Publish(contracts.RoutingKeyNotificationCreated, contracts.NotificationCreatedPayload{
			Type:    n.Type,
			Tone:    n.Tone,
			Message: n.Message,
			Context: n.Context,
		}); err != nil {
			h.logger.Error("Failed to publish notification.created event",
				zap.String("tone", n.Tone),
				zap.Error(err),
			)
			return err
		}
	}

	metrics.RecordMQConsumeLatency(contracts.RoutingKeyCheckInCreated, checkInCreatedQueue, time.Since(started))
	h.logger.Info("Nudges published for check-in",
		zap.Int("checkin_id", p.CheckInID),
		zap.Int("nudge_count", len(nudges)),
	)
	return nil
}
