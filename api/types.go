package api

import (
	"context"
	"time"

	"taskboard/board"
	"taskboard/domain"
)

// Authenticator is implemented by types able to extract user IDs from headers.
type Authenticator interface {
	UserIDFromAuthHeader(string) (string, error)
}

// Deduper prevents processing of duplicate creates.
type Deduper interface {
	// Add records the idempotency key and returns true if it was newly added.
	Add(ctx context.Context, userID, key string) (bool, error)
	// Remove deletes a previously added key.
	Remove(ctx context.Context, userID, key string) error
}

// Subscriber streams applied changes of a project.
type Subscriber interface {
	Subscribe(ctx context.Context, projectID string) (<-chan []byte, error)
}

// GET /api/projects/:project/tasks response body
type tasksResponse struct {
	ProjectID string          `json:"projectId"`
	Mode      domain.ViewMode `json:"mode"`
	Filter    domain.Filter   `json:"filter"`
	Tasks     []domain.Task   `json:"tasks"`
}

// GET /api/projects/:project/board response body
type boardResponse struct {
	ProjectID string          `json:"projectId"`
	Mode      domain.ViewMode `json:"mode"`
	Filter    domain.Filter   `json:"filter"`
	Columns   []board.Column  `json:"columns"`
}

// POST /api/projects/:project/tasks request body
type createTaskRequest struct {
	Title        string          `json:"title"`
	Description  string          `json:"description"`
	Status       string          `json:"status"`
	Priority     string          `json:"priority"`
	OwnerID      string          `json:"ownerId"`
	DueDate      string          `json:"dueDate"`
	Tags         []string        `json:"tags"`
	Prompts      []domain.Prompt `json:"prompts"`
	OutputFormat string          `json:"outputFormat"`
}

// PUT /api/projects/:project/tasks/:id request body. Absent fields keep their value;
// an empty dueDate clears it.
type updateTaskRequest struct {
	Title        *string          `json:"title"`
	Description  *string          `json:"description"`
	Status       *string          `json:"status"`
	Priority     *string          `json:"priority"`
	OwnerID      *string          `json:"ownerId"`
	DueDate      *string          `json:"dueDate"`
	Tags         *[]string        `json:"tags"`
	Prompts      *[]domain.Prompt `json:"prompts"`
	OutputFormat *string          `json:"outputFormat"`
}

type statusRequest struct {
	Status string `json:"status"`
}

type moveRequest struct {
	Source      string `json:"source"`
	Destination string `json:"destination"`
	TaskID      string `json:"taskId"`
}

type moveResponse struct {
	Moved bool `json:"moved"`
}

type filterRequest struct {
	Filter string `json:"filter"`
}

type viewRequest struct {
	Mode string `json:"mode"`
}

type healthResponse struct {
	Status   string    `json:"status"`
	Sessions int       `json:"sessions"`
	Time     time.Time `json:"time"`
	Outbox   any       `json:"outbox,omitempty"`
}
