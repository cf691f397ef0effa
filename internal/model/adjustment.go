package model

import "time"

const (
	AdjustmentTypeReschedule   = "reschedule"
	AdjustmentTypeSimplify     = "simplify"
	AdjustmentTypeExtend       = "extend"
	AdjustmentTypeWeekendShift = "weekend_shift"
)

// Adjustment records one provenance-tagged mutation applied to a milestone,
// surfaced to the caller as a user-facing notice.
type Adjustment struct {
	MilestoneID int    `json:"milestone_id"`
	Type        string `json:"type"`
	Reason      string `json:"reason"`
	Before      string `json:"before,omitempty"`
	After       string `json:"after,omitempty"`
}

// AdjustmentAudit is the compact per-run record kept in the behavior log.
type AdjustmentAudit struct {
	GoalID    int       `json:"goal_id"`
	Timestamp time.Time `json:"timestamp"`
	Count     int       `json:"count"`
	Reasons   []string  `json:"reasons"`
}
