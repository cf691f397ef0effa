package service

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"pacekeeper/internal/model"
)

func newTestStreakService(checkIns []model.CheckIn, now time.Time) *StreakService {
	s := NewStreakService(&fakeCheckInLister{checkIns: checkIns}, zap.NewNop())
	s.now = func() time.Time { return now }
	return s
}

func TestStreakSummary(t *testing.T) {
	now := day(0)

	tests := []struct {
		name        string
		checkIns    []model.CheckIn // newest first, as ListAll returns them
		wantCurrent int
		wantLongest int
	}{
		{
			name:        "no history",
			checkIns:    nil,
			wantCurrent: 0,
			wantLongest: 0,
		},
		{
			name: "three consecutive days ending today",
			checkIns: []model.CheckIn{
				{Date: day(0), Mood: 4},
				{Date: day(-1), Mood: 3},
				{Date: day(-2), Mood: 4},
			},
			wantCurrent: 3,
			wantLongest: 3,
		},
		{
			name: "yesterday keeps the streak alive",
			checkIns: []model.CheckIn{
				{Date: day(-1), Mood: 4},
				{Date: day(-2), Mood: 4},
			},
			wantCurrent: 2,
			wantLongest: 2,
		},
		{
			name: "two-day gap breaks the current streak",
			checkIns: []model.CheckIn{
				{Date: day(-3), Mood: 4},
				{Date: day(-4), Mood: 4},
				{Date: day(-5), Mood: 4},
			},
			wantCurrent: 0,
			wantLongest: 3,
		},
		{
			name: "several check-ins on one day count once",
			checkIns: []model.CheckIn{
				{Date: day(0).Add(8 * time.Hour), Mood: 5},
				{Date: day(0), Mood: 3},
				{Date: day(-1), Mood: 4},
			},
			wantCurrent: 2,
			wantLongest: 2,
		},
		{
			name: "older run can hold the record",
			checkIns: []model.CheckIn{
				{Date: day(0), Mood: 4},
				{Date: day(-1), Mood: 4},
				{Date: day(-10), Mood: 4},
				{Date: day(-11), Mood: 4},
				{Date: day(-12), Mood: 4},
				{Date: day(-13), Mood: 4},
			},
			wantCurrent: 2,
			wantLongest: 4,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := newTestStreakService(tt.checkIns, now)

			got, err := s.Summary(context.Background())
			require.NoError(t, err)

			assert.Equal(t, tt.wantCurrent, got.Current)
			assert.Equal(t, tt.wantLongest, got.Longest)
			if len(tt.checkIns) == 0 {
				assert.Nil(t, got.LastCheckIn)
			} else {
				require.NotNil(t, got.LastCheckIn)
			}
		})
	}
}
