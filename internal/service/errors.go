package service

import "errors"

// Validation errors surfaced to the transport layer as bad requests.
var (
	ErrTitleRequired      = errors.New("title is required")
	ErrInvalidCategory    = errors.New("category must be personal or professional")
	ErrTargetDateRequired = errors.New("target_date is required")
	ErrInvalidMood        = errors.New("mood must be between 1 and 5")
	ErrInvalidStatus      = errors.New("status must be active, paused or completed")
)
