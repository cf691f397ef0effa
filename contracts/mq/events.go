package mq

// Routing keys published on the events exchange.
const (
	RoutingKeyGoalCreated         = "goal.created"
	RoutingKeyGoalAdjusted        = "goal.adjusted"
	RoutingKeyMilestoneCompleted  = "milestone.completed"
	RoutingKeyCheckInCreated      = "checkin.created"
	RoutingKeyNotificationCreated = "notification.created"
)

type GoalCreatedPayload struct {
	GoalID         int    `json:"goal_id"`
	Title          string `json:"title"`
	Category       string `json:"category"`
	TargetDate     string `json:"target_date"` // YYYY-MM-DD
	MilestoneCount int    `json:"milestone_count"`
}

type GoalAdjustedPayload struct {
	GoalID          int      `json:"goal_id"`
	AdjustmentCount int      `json:"adjustment_count"`
	Reasons         []string `json:"reasons"`
}

type MilestoneCompletedPayload struct {
	MilestoneID int    `json:"milestone_id"`
	GoalID      int    `json:"goal_id"`
	Title       string `json:"title"`
	Progress    int    `json:"progress"` // goal progress after the completion
}

type CheckInCreatedPayload struct {
	CheckInID           int   `json:"checkin_id"`
	GoalID              *int  `json:"goal_id,omitempty"`
	Mood                int   `json:"mood"`
	CompletedMilestones []int `json:"completed_milestones"`
}

type NotificationCreatedPayload struct {
	Type    string `json:"type"` // nudge
	Tone    string `json:"tone"`
	Message string `json:"message"`
	Context string `json:"context"`
}
