package service

import (
	"time"

	"pacekeeper/internal/model"
	"pacekeeper/pkg/config"
)

const (
	SeverityLow    = "low"
	SeverityMedium = "medium"
	SeverityHigh   = "high"

	upcomingWindowDays = 7
)

// AdherenceReport summarizes how far a goal's milestone ladder has slipped.
type AdherenceReport struct {
	Overdue             []model.Milestone
	Upcoming            []model.Milestone
	BehindScheduleRatio float64
	BehindSchedule      bool
	SeverityLevel       string
}

// analyzeAdherence splits the ladder into overdue and upcoming sets and
// grades the slippage. behindScheduleRatio = overdue / max(incomplete, 1).
func analyzeAdherence(milestones []model.Milestone, now time.Time, cfg config.EngineConfig) AdherenceReport {
	var overdue, upcoming []model.Milestone
	incomplete := 0

	horizon := now.AddDate(0, 0, upcomingWindowDays)
	for _, m := range milestones {
		if m.Completed {
			continue
		}
		incomplete++
		switch {
		case m.DueDate.Before(now):
			overdue = append(overdue, m)
		case !m.DueDate.After(horizon):
			upcoming = append(upcoming, m)
		}
	}

	denom := incomplete
	if denom < 1 {
		denom = 1
	}
	ratio := float64(len(overdue)) / float64(denom)

	severity := SeverityLow
	switch {
	case ratio > cfg.SeverityHighRatio:
		severity = SeverityHigh
	case ratio > cfg.BehindScheduleRatio:
		severity = SeverityMedium
	}

	return AdherenceReport{
		Overdue:             overdue,
		Upcoming:            upcoming,
		BehindScheduleRatio: ratio,
		BehindSchedule:      ratio > cfg.BehindScheduleRatio || len(overdue) >= 2,
		SeverityLevel:       severity,
	}
}
