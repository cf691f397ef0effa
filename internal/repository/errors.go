package repository

import "errors"

var (
	ErrGoalNotFound      = errors.New("goal not found")
	ErrMilestoneNotFound = errors.New("milestone not found")
	ErrCheckInNotFound   = errors.New("check-in not found")
)
