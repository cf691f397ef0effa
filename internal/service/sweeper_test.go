package service

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	contracts "pacekeeper/contracts/mq"
	"pacekeeper/internal/model"
)

type fakeActiveGoals struct {
	goals []model.Goal
	err   error
}

func (f *fakeActiveGoals) ListActive(_ context.Context) ([]model.Goal, error) {
	return f.goals, f.err
}

type fakeLocker struct {
	denied   map[int]bool
	acquired []int
	released []int
}

func (f *fakeLocker) TryAcquire(_ context.Context, goalID int) bool {
	if f.denied[goalID] {
		return false
	}
	f.acquired = append(f.acquired, goalID)
	return true
}

func (f *fakeLocker) Release(_ context.Context, goalID int) {
	f.released = append(f.released, goalID)
}

type fakeRunner struct {
	adjustments map[int][]model.Adjustment
	err         error
	calls       []int
}

func (f *fakeRunner) CheckAndApply(_ context.Context, goalID int, _ []model.Milestone) ([]model.Adjustment, error) {
	f.calls = append(f.calls, goalID)
	if f.err != nil {
		return nil, f.err
	}
	return f.adjustments[goalID], nil
}

func TestAdjustGoalPublishesWhenAdjusted(t *testing.T) {
	now := day(0)
	locker := &fakeLocker{}
	publisher := &fakePublisher{}
	runner := &fakeRunner{adjustments: map[int][]model.Adjustment{
		1: {
			{MilestoneID: 3, Type: model.AdjustmentTypeReschedule, Reason: "overdue"},
			{MilestoneID: 4, Type: model.AdjustmentTypeSimplify, Reason: "stress relief"},
		},
	}}

	s := NewSweeper(
		&fakeActiveGoals{},
		newFakeMilestoneStore(now, model.Milestone{ID: 3, GoalID: 1, DueDate: day(-2)}),
		runner,
		locker,
		publisher,
		zap.NewNop(),
	)

	adjustments, err := s.AdjustGoal(context.Background(), 1)
	require.NoError(t, err)
	assert.Len(t, adjustments, 2)

	assert.Equal(t, []int{1}, locker.acquired)
	assert.Equal(t, []int{1}, locker.released, "lock released after the run")

	events := publisher.byKey(contracts.RoutingKeyGoalAdjusted)
	require.Len(t, events, 1)
	payload := events[0].payload.(contracts.GoalAdjustedPayload)
	assert.Equal(t, 1, payload.GoalID)
	assert.Equal(t, 2, payload.AdjustmentCount)
	assert.Equal(t, []string{"overdue", "stress relief"}, payload.Reasons)
}

func TestAdjustGoalLockedReturnsBusy(t *testing.T) {
	locker := &fakeLocker{denied: map[int]bool{1: true}}
	runner := &fakeRunner{}

	s := NewSweeper(&fakeActiveGoals{}, newFakeMilestoneStore(day(0)), runner, locker, &fakePublisher{}, zap.NewNop())

	_, err := s.AdjustGoal(context.Background(), 1)
	assert.ErrorIs(t, err, ErrGoalBusy)
	assert.Empty(t, runner.calls, "engine never runs without the lock")
	assert.Empty(t, locker.released)
}

func TestAdjustGoalQuietWhenNothingChanged(t *testing.T) {
	publisher := &fakePublisher{}
	s := NewSweeper(&fakeActiveGoals{}, newFakeMilestoneStore(day(0)), &fakeRunner{}, &fakeLocker{}, publisher, zap.NewNop())

	adjustments, err := s.AdjustGoal(context.Background(), 2)
	require.NoError(t, err)
	assert.Empty(t, adjustments)
	assert.Empty(t, publisher.events, "no event for an empty pass")
}

func TestSweepSkipsBusyAndFailedGoals(t *testing.T) {
	now := day(0)
	goals := &fakeActiveGoals{goals: []model.Goal{
		{ID: 1, Status: model.GoalStatusActive},
		{ID: 2, Status: model.GoalStatusActive},
		{ID: 3, Status: model.GoalStatusActive},
	}}
	locker := &fakeLocker{denied: map[int]bool{2: true}}
	runner := &fakeRunner{adjustments: map[int][]model.Adjustment{
		1: {{MilestoneID: 1, Type: model.AdjustmentTypeExtend, Reason: "stress relief"}},
		3: {
			{MilestoneID: 7, Type: model.AdjustmentTypeReschedule, Reason: "overdue"},
			{MilestoneID: 8, Type: model.AdjustmentTypeReschedule, Reason: "overdue"},
		},
	}}

	s := NewSweeper(goals, newFakeMilestoneStore(now), runner, locker, &fakePublisher{}, zap.NewNop())

	total, err := s.Sweep(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 3, total, "busy goal contributes nothing")
	assert.Equal(t, []int{1, 3}, runner.calls)
}

func TestSweepStopsOnCancelledContext(t *testing.T) {
	goals := &fakeActiveGoals{goals: []model.Goal{{ID: 1}, {ID: 2}}}
	runner := &fakeRunner{}
	s := NewSweeper(goals, newFakeMilestoneStore(day(0)), runner, &fakeLocker{}, &fakePublisher{}, zap.NewNop())

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := s.Sweep(ctx)
	assert.ErrorIs(t, err, context.Canceled)
	assert.Empty(t, runner.calls)
}

func TestSweepPropagatesListFailure(t *testing.T) {
	s := NewSweeper(
		&fakeActiveGoals{err: errors.New("db down")},
		newFakeMilestoneStore(day(0)),
		&fakeRunner{},
		&fakeLocker{},
		&fakePublisher{},
		zap.NewNop(),
	)

	_, err := s.Sweep(context.Background())
	assert.Error(t, err)
}
