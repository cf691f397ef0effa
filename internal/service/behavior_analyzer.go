package service

import (
	"context"
	"time"

	"go.uber.org/zap"

	"pacekeeper/internal/model"
)

type behaviorCheckInSource interface {
	ListAll(ctx context.Context) ([]model.CheckIn, error)
}

// BehaviorAnalyzer derives a BehaviorProfile from the full check-in history.
// It is advisory: on empty or unavailable history it returns the neutral
// profile and never an error, so goal creation is never blocked.
type BehaviorAnalyzer struct {
	checkIns behaviorCheckInSource
	logger   *zap.Logger
	now      func() time.Time
}

func NewBehaviorAnalyzer(checkIns behaviorCheckInSource, logger *zap.Logger) *BehaviorAnalyzer {
	return &BehaviorAnalyzer{
		checkIns: checkIns,
		logger:   logger,
		now:      time.Now,
	}
}

func (a *BehaviorAnalyzer) Analyze(ctx context.Context) model.BehaviorProfile {
	history, err := a.checkIns.ListAll(ctx)
	if err != nil {
		a.logger.Warn("Behavior analysis degraded to neutral profile", zap.Error(err))
		return model.NeutralBehaviorProfile()
	}
	if len(history) == 0 {
		return model.NeutralBehaviorProfile()
	}

	// History arrives newest first; the correlation series must be chronological.
	chronological := make([]model.CheckIn, len(history))
	for i, c := range history {
		chronological[len(history)-1-i] = c
	}

	completionDays := map[string]time.Time{}
	correlation := map[string]model.MoodSeries{}

	for _, c := range chronological {
		hadCompletion := len(c.CompletedMilestones) > 0
		if hadCompletion {
			completionDays[c.Date.Format("2006-01-02")] = c.Date
		}

		dayType := model.DayTypeWeekday
		if isWeekend(c.Date) {
			dayType = model.DayTypeWeekend
		}
		series := correlation[dayType]
		series.Moods = append(series.Moods, c.Mood)
		flag := 0
		if hadCompletion {
			flag = 1
		}
		series.Completions = append(series.Completions, flag)
		correlation[dayType] = series
	}

	velocity := model.VelocityLow
	switch {
	case len(completionDays) > 5:
		velocity = model.VelocityHigh
	case len(completionDays) > 2:
		velocity = model.VelocityModerate
	}

	weekendDays, weekdayDays := 0, 0
	for _, day := range completionDays {
		if isWeekend(day) {
			weekendDays++
		} else {
			weekdayDays++
		}
	}
	weekendActivity := model.WeekendActivityLow
	if float64(weekendDays) > 0.4*float64(weekdayDays) && weekendDays > 0 {
		weekendActivity = model.WeekendActivityHigh
	}

	return model.BehaviorProfile{
		CompletionVelocity: velocity,
		WeekendActivity:    weekendActivity,
		MoodCorrelation:    correlation,
	}
}

func isWeekend(t time.Time) bool {
	wd := t.Weekday()
	return wd == time.Saturday || wd == time.Sunday
}
