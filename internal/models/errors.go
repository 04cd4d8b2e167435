package models

import "errors"

// Application-wide standard errors
var (
	// Common Resource/DB Errors
	ErrNotFound         = errors.New("resource not found")
	ErrProjectNotFound  = errors.New("project not found")
	ErrScenarioNotFound = errors.New("scenario not found")
	ErrAttemptNotFound  = errors.New("attempt not found")

	// Access
	ErrUnauthorized = errors.New("unauthorized")
	ErrForbidden    = errors.New("forbidden")

	// Generation input errors
	ErrInvalidInput = errors.New("invalid input data")
	ErrNoTopics     = errors.New("at least one topic with subtopics is required")

	// Scenario & attempt errors
	ErrNotScenario      = errors.New("project is not a scenario")
	ErrChoiceNotFound   = errors.New("choice not found on scene")
	ErrAttemptCompleted = errors.New("attempt already completed")

	ErrInternalServer = errors.New("internal server error")
)
