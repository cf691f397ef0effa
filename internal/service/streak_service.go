package service

import (
	"context"
	"time"

	"go.uber.org/zap"

	"pacekeeper/internal/model"
)

// StreakSummary reports check-in consistency over the full history.
type StreakSummary struct {
	Current     int        `json:"current"`
	Longest     int        `json:"longest"`
	LastCheckIn *time.Time `json:"last_checkin,omitempty"`
}

type streakCheckInSource interface {
	ListAll(ctx context.Context) ([]model.CheckIn, error)
}

// StreakService counts consecutive check-in days. Multiple check-ins on the
// same calendar day count once; the current streak survives a one-day gap
// from today.
type StreakService struct {
	checkIns streakCheckInSource
	logger   *zap.Logger
	now      func() time.Time
}

func NewStreakService(checkIns streakCheckInSource, logger *zap.Logger) *StreakService {
	return &StreakService{
		checkIns: checkIns,
		logger:   logger,
		now:      time.Now,
	}
}

func (s *StreakService) Summary(ctx context.Context) (StreakSummary, error) {
	checkIns, err := s.checkIns.ListAll(ctx)
	if err != nil {
		return StreakSummary{}, err
	}
	if len(checkIns) == 0 {
		return StreakSummary{}, nil
	}

	days := distinctDaysDesc(checkIns)
	last := days[0]

	summary := StreakSummary{
		Longest:     longestRun(days),
		LastCheckIn: &last,
	}

	// The streak is alive while the latest check-in is today or yesterday.
	if calendarDaysBetween(last, dayOf(s.now())) <= 1 {
		summary.Current = runLengthFrom(days, 0)
	}
	return summary, nil
}

// distinctDaysDesc collapses check-ins to their distinct calendar days,
// newest first.
func distinctDaysDesc(checkIns []model.CheckIn) []time.Time {
	seen := map[time.Time]bool{}
	var days []time.Time
	for _, c := range checkIns {
		day := dayOf(c.Date)
		if !seen[day] {
			seen[day] = true
			days = append(days, day)
		}
	}
	// ListAll is newest-first already; re-sort defensively is unnecessary as
	// insertion order preserves it.
	return days
}

// runLengthFrom counts consecutive days starting at index start.
func runLengthFrom(days []time.Time, start int) int {
	run := 1
	for i := start + 1; i < len(days); i++ {
		if calendarDaysBetween(days[i], days[i-1]) != 1 {
			break
		}
		run++
	}
	return run
}

func longestRun(days []time.Time) int {
	longest := 0
	run := 1
	for i := 1; i < len(days); i++ {
		if calendarDaysBetween(days[i], days[i-1]) == 1 {
			run++
		} else {
			if run > longest {
				longest = run
			}
			run = 1
		}
	}
	if run > longest {
		longest = run
	}
	return longest
}

func dayOf(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}

func calendarDaysBetween(earlier, later time.Time) int {
	return int(later.Sub(earlier).Hours() / 24)
}
