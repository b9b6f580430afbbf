package domain

import "errors"

var (
	// ErrEmptyTitle is returned when a task title is blank after trimming.
	ErrEmptyTitle      = errors.New("title is required")
	ErrInvalidStatus   = errors.New("invalid status")
	ErrInvalidPriority = errors.New("invalid priority")
	ErrInvalidDueDate  = errors.New("invalid due date")
	ErrInvalidFilter   = errors.New("invalid filter")
	ErrInvalidViewMode = errors.New("invalid view mode")
	// ErrInvalidOutputFormat covers both the task and the prompt output format.
	ErrInvalidOutputFormat = errors.New("invalid output format")
	ErrInvalidAIModel      = errors.New("invalid ai model")
	// ErrNoProject indicates a board operation that needs an active project.
	ErrNoProject = errors.New("no active project")
)
