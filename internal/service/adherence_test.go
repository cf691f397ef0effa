package service

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"pacekeeper/internal/model"
	"pacekeeper/pkg/config"
)

func milestoneDue(due time.Time, completed bool) model.Milestone {
	m := model.Milestone{DueDate: due, Completed: completed}
	if completed {
		at := due
		m.CompletedAt = &at
	}
	return m
}

func TestAnalyzeAdherence(t *testing.T) {
	now := day(0)
	cfg := config.DefaultEngineConfig()

	tests := []struct {
		name         string
		milestones   []model.Milestone
		wantRatio    float64
		wantBehind   bool
		wantSeverity string
		wantOverdue  int
		wantUpcoming int
	}{
		{
			name: "half overdue is medium severity",
			milestones: []model.Milestone{
				milestoneDue(day(-10), false),
				milestoneDue(day(-3), false),
				milestoneDue(day(3), false),
				milestoneDue(day(20), false),
				milestoneDue(day(-20), true), // completed, out of the denominator
			},
			wantRatio:    0.5,
			wantBehind:   true,
			wantSeverity: SeverityMedium,
			wantOverdue:  2,
			wantUpcoming: 1,
		},
		{
			name: "mostly overdue is high severity",
			milestones: []model.Milestone{
				milestoneDue(day(-10), false),
				milestoneDue(day(-5), false),
				milestoneDue(day(-1), false),
				milestoneDue(day(10), false),
			},
			wantRatio:    0.75,
			wantBehind:   true,
			wantSeverity: SeverityHigh,
			wantOverdue:  3,
		},
		{
			name: "single overdue below ratio is on track",
			milestones: []model.Milestone{
				milestoneDue(day(-1), false),
				milestoneDue(day(10), false),
				milestoneDue(day(20), false),
				milestoneDue(day(30), false),
				milestoneDue(day(40), false),
				milestoneDue(day(50), false),
			},
			wantRatio:    1.0 / 6.0,
			wantBehind:   false,
			wantSeverity: SeverityLow,
			wantOverdue:  1,
		},
		{
			name: "two overdue triggers regardless of ratio",
			milestones: []model.Milestone{
				milestoneDue(day(-2), false),
				milestoneDue(day(-1), false),
				milestoneDue(day(10), false),
				milestoneDue(day(20), false),
				milestoneDue(day(30), false),
				milestoneDue(day(40), false),
				milestoneDue(day(50), false),
				milestoneDue(day(60), false),
				milestoneDue(day(70), false),
				milestoneDue(day(80), false),
			},
			wantRatio:    0.2,
			wantBehind:   true,
			wantSeverity: SeverityLow,
			wantOverdue:  2,
		},
		{
			name:         "empty ladder",
			milestones:   nil,
			wantRatio:    0,
			wantBehind:   false,
			wantSeverity: SeverityLow,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			report := analyzeAdherence(tt.milestones, now, cfg)

			assert.InDelta(t, tt.wantRatio, report.BehindScheduleRatio, 1e-9)
			assert.Equal(t, tt.wantBehind, report.BehindSchedule)
			assert.Equal(t, tt.wantSeverity, report.SeverityLevel)
			assert.Len(t, report.Overdue, tt.wantOverdue)
			if tt.wantUpcoming > 0 {
				assert.Len(t, report.Upcoming, tt.wantUpcoming)
			}
		})
	}
}
