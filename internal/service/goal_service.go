package service

import (
	"context"
	"errors"
	"fmt"
	"math"
	"time"

	"go.uber.org/zap"

	contracts "pacekeeper/contracts/mq"
	"pacekeeper/internal/model"
	"pacekeeper/internal/repository"
)

type goalStore interface {
	Insert(ctx context.Context, g *model.Goal) (int, error)
	FindByID(ctx context.Context, id int) (*model.Goal, error)
	ListAll(ctx context.Context) ([]model.Goal, error)
	UpdateProgress(ctx context.Context, id, progress int) error
	UpdateStatus(ctx context.Context, id int, status string) error
}

type milestoneStore interface {
	InsertBatch(ctx context.Context, goalID int, drafts []model.MilestoneDraft) ([]model.Milestone, error)
	FindByGoalID(ctx context.Context, goalID int) ([]model.Milestone, error)
	SetCompletion(ctx context.Context, id int, completed bool, completedAt *time.Time) (*model.Milestone, bool, error)
}

type checkInStore interface {
	Insert(ctx context.Context, c *model.CheckIn) (int, error)
	ListAll(ctx context.Context) ([]model.CheckIn, error)
}

type behaviorProfiler interface {
	Analyze(ctx context.Context) model.BehaviorProfile
}

type scheduleBuilder interface {
	Generate(draft model.GoalDraft, profile model.BehaviorProfile) []model.MilestoneDraft
}

type eventPublisher interface {
	Publish(routingKey string, payload any) error
}

type forecastInvalidator interface {
	InvalidateCache(ctx context.Context, goalID int)
}

// GoalService is the write-side orchestrator for goals, milestones and
// check-ins. Event publishing is best-effort: a broker outage is logged and
// never fails the request.
type GoalService struct {
	goals      goalStore
	milestones milestoneStore
	checkIns   checkInStore
	analyzer   behaviorProfiler
	generator  scheduleBuilder
	forecasts  forecastInvalidator
	log        *BehaviorLog
	publisher  eventPublisher
	logger     *zap.Logger
	now        func() time.Time
}

func NewGoalService(
	goals goalStore,
	milestones milestoneStore,
	checkIns checkInStore,
	analyzer behaviorProfiler,
	generator scheduleBuilder,
	forecasts forecastInvalidator,
	log *BehaviorLog,
	publisher eventPublisher,
	logger *zap.Logger,
) *GoalService {
	return &GoalService{
		goals:      goals,
		milestones: milestones,
		checkIns:   checkIns,
		analyzer:   analyzer,
		generator:  generator,
		forecasts:  forecasts,
		log:        log,
		publisher:  publisher,
		logger:     logger,
		now:        time.Now,
	}
}

func validateGoalDraft(draft model.GoalDraft) error {
	if draft.Title == "" {
		return ErrTitleRequired
	}
	if draft.Category != model.CategoryPersonal && draft.Category != model.CategoryProfessional {
		return ErrInvalidCategory
	}
	if draft.TargetDate.IsZero() {
		return ErrTargetDateRequired
	}
	return nil
}

// CreateGoal persists the goal, generates its adaptively-paced milestone
// ladder from the user's behavior profile and persists the ladder.
func (s *GoalService) CreateGoal(ctx context.Context, draft model.GoalDraft) (*model.Goal, []model.Milestone, error) {
	if err := validateGoalDraft(draft); err != nil {
		return nil, nil, err
	}

	goal := &model.Goal{
		Title:       draft.Title,
		Description: draft.Description,
		Category:    draft.Category,
		Status:      model.GoalStatusActive,
		TargetDate:  draft.TargetDate,
	}
	if _, err := s.goals.Insert(ctx, goal); err != nil {
		return nil, nil, fmt.Errorf("create goal: %w", err)
	}

	profile := s.analyzer.Analyze(ctx)
	drafts := s.generator.Generate(draft, profile)

	milestones, err := s.milestones.InsertBatch(ctx, goal.ID, drafts)
	if err != nil {
		return nil, nil, fmt.Errorf("persist milestone ladder for goal %d: %w", goal.ID, err)
	}

	s.publish(contracts.RoutingKeyGoalCreated, contracts.GoalCreatedPayload{
		GoalID:         goal.ID,
		Title:          goal.Title,
		Category:       goal.Category,
		TargetDate:     goal.TargetDate.Format("2006-01-02"),
		MilestoneCount: len(milestones),
	})

	return goal, milestones, nil
}

// PreviewSchedule generates a ladder without persisting anything.
func (s *GoalService) PreviewSchedule(ctx context.Context, draft model.GoalDraft) ([]model.MilestoneDraft, error) {
	if err := validateGoalDraft(draft); err != nil {
		return nil, err
	}
	profile := s.analyzer.Analyze(ctx)
	return s.generator.Generate(draft, profile), nil
}

func (s *GoalService) ListGoals(ctx context.Context) ([]model.Goal, error) {
	return s.goals.ListAll(ctx)
}

func (s *GoalService) GetGoal(ctx context.Context, id int) (*model.Goal, error) {
	return s.goals.FindByID(ctx, id)
}

// ListMilestones returns the goal's ladder in due-date order.
func (s *GoalService) ListMilestones(ctx context.Context, goalID int) ([]model.Milestone, error) {
	if _, err := s.goals.FindByID(ctx, goalID); err != nil {
		return nil, err
	}
	return s.milestones.FindByGoalID(ctx, goalID)
}

func (s *GoalService) ListCheckIns(ctx context.Context) ([]model.CheckIn, error) {
	return s.checkIns.ListAll(ctx)
}

// UpdateGoalStatus moves a goal between active, paused and completed.
func (s *GoalService) UpdateGoalStatus(ctx context.Context, id int, status string) error {
	switch status {
	case model.GoalStatusActive, model.GoalStatusPaused, model.GoalStatusCompleted:
	default:
		return ErrInvalidStatus
	}
	return s.goals.UpdateStatus(ctx, id, status)
}

// ToggleMilestone flips a milestone's completion and keeps the stored goal
// progress consistent: progress = round(100 * completed / total), with the
// goal auto-completing at 100 and reverting to active when it drops below.
// Setting an unchanged flag is a no-op: the original completion timestamp
// stays, nothing is recorded or published again.
func (s *GoalService) ToggleMilestone(ctx context.Context, milestoneID int, completed bool) (*model.Milestone, error) {
	m, changed, err := s.milestones.SetCompletion(ctx, milestoneID, completed, nil)
	if err != nil {
		return nil, err
	}
	if !changed {
		return m, nil
	}

	if err := s.recomputeGoalProgress(ctx, m.GoalID); err != nil {
		return nil, err
	}

	if m.Completed {
		s.log.RecordCompletion(m.GoalID, m.ID, *m.CompletedAt)

		goal, err := s.goals.FindByID(ctx, m.GoalID)
		if err != nil {
			return nil, err
		}
		s.publish(contracts.RoutingKeyMilestoneCompleted, contracts.MilestoneCompletedPayload{
			MilestoneID: m.ID,
			GoalID:      m.GoalID,
			Title:       m.Title,
			Progress:    goal.Progress,
		})
	}

	if s.forecasts != nil {
		s.forecasts.InvalidateCache(ctx, m.GoalID)
	}
	return m, nil
}

// CreateCheckIn records a daily check-in and completes any milestones listed
// in it. Unknown milestone ids are skipped, the check-in itself still lands.
func (s *GoalService) CreateCheckIn(ctx context.Context, c *model.CheckIn) (*model.CheckIn, error) {
	if c.Mood < 1 || c.Mood > 5 {
		return nil, ErrInvalidMood
	}
	if c.Date.IsZero() {
		c.Date = s.now()
	}

	if _, err := s.checkIns.Insert(ctx, c); err != nil {
		return nil, fmt.Errorf("create check-in: %w", err)
	}

	for _, milestoneID := range c.CompletedMilestones {
		if _, err := s.ToggleMilestone(ctx, milestoneID, true); err != nil {
			if errors.Is(err, repository.ErrMilestoneNotFound) {
				s.logger.Warn("Check-in referenced unknown milestone",
					zap.Int("checkin_id", c.ID),
					zap.Int("milestone_id", milestoneID),
				)
				continue
			}
			return nil, fmt.Errorf("complete milestone %d from check-in: %w", milestoneID, err)
		}
	}

	s.publish(contracts.RoutingKeyCheckInCreated, contracts.CheckInCreatedPayload{
		CheckInID:           c.ID,
		GoalID:              c.GoalID,
		Mood:                c.Mood,
		CompletedMilestones: c.CompletedMilestones,
	})

	if s.forecasts != nil && c.GoalID != nil {
		s.forecasts.InvalidateCache(ctx, *c.GoalID)
	}
	return c, nil
}

func (s *GoalService) recomputeGoalProgress(ctx context.Context, goalID int) error {
	milestones, err := s.milestones.FindByGoalID(ctx, goalID)
	if err != nil {
		return err
	}
	if len(milestones) == 0 {
		return nil
	}

	done := 0
	for _, m := range milestones {
		if m.Completed {
			done++
		}
	}
	progress := int(math.Round(float64(done) / float64(len(milestones)) * 100))

	if err := s.goals.UpdateProgress(ctx, goalID, progress); err != nil {
		return err
	}

	goal, err := s.goals.FindByID(ctx, goalID)
	if err != nil {
		return err
	}
	switch {
	case progress == 100 && goal.Status != model.GoalStatusCompleted:
		return s.goals.UpdateStatus(ctx, goalID, model.GoalStatusCompleted)
	case progress < 100 && goal.Status == model.GoalStatusCompleted:
		return s.goals.UpdateStatus(ctx, goalID, model.GoalStatusActive)
	}
	return nil
}

func (s *GoalService) publish(routingKey string, payload any) {
	if s.publisher == nil {
		return
	}
	if err := s.publisher.Publish(routingKey, payload); err != nil {
		s.logger.Error("Failed to publish event",
			zap.String("routing_key", routingKey),
			zap.Error(err),
		)
	}
}
