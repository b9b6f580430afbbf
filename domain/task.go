package domain

import (
	"strings"
	"time"
)

// Status is the workflow position of a task. It doubles as the kanban column id.
type Status string

const (
	StatusPending    Status = "pending"
	StatusInProgress Status = "in-progress"
	StatusReview     Status = "review"
	StatusCompleted  Status = "completed"
)

// Statuses lists every status in board column order.
var Statuses = []Status{StatusPending, StatusInProgress, StatusReview, StatusCompleted}

// Valid reports whether s is one of the enumerated statuses.
func (s Status) Valid() bool {
	switch s {
	case StatusPending, StatusInProgress, StatusReview, StatusCompleted:
		return true
	}
	return false
}

// ParseStatus converts raw input into a Status.
func ParseStatus(raw string) (Status, error) {
	s := Status(strings.TrimSpace(raw))
	if !s.Valid() {
		return "", ErrInvalidStatus
	}
	return s, nil
}

// Priority is the relative urgency of a task.
type Priority string

const (
	PriorityLow    Priority = "low"
	PriorityMedium Priority = "medium"
	PriorityHigh   Priority = "high"
)

func (p Priority) Valid() bool {
	switch p {
	case PriorityLow, PriorityMedium, PriorityHigh:
		return true
	}
	return false
}

// ParsePriority converts raw input into a Priority.
func ParsePriority(raw string) (Priority, error) {
	p := Priority(strings.TrimSpace(raw))
	if !p.Valid() {
		return "", ErrInvalidPriority
	}
	return p, nil
}

const (
	DefaultStatus   = StatusPending
	DefaultPriority = PriorityMedium
)

// DueDateLayout is the wire format of due dates.
const DueDateLayout = "2006-01-02"

// ParseDueDate parses a YYYY-MM-DD date. Empty input means no due date.
func ParseDueDate(raw string) (*time.Time, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return nil, nil
	}
	d, err := time.Parse(DueDateLayout, raw)
	if err != nil {
		return nil, ErrInvalidDueDate
	}
	return &d, nil
}

// Task represents a single unit of work on a project board.
type Task struct {
	ID           string       `json:"id"`
	ProjectID    string       `json:"projectId"`
	Title        string       `json:"title"`
	Description  string       `json:"description,omitempty"`
	Status       Status       `json:"status"`
	Priority     Priority     `json:"priority"`
	OwnerID      string       `json:"ownerId"`
	DueDate      *time.Time   `json:"dueDate,omitempty"`
	Tags         []string     `json:"tags,omitempty"`
	Prompts      []Prompt     `json:"prompts,omitempty"`
	OutputFormat OutputFormat `json:"outputFormat"`
	CreatedAt    time.Time    `json:"createdAt"`
	UpdatedAt    time.Time    `json:"updatedAt"`
}

// Clone returns a deep copy so callers never share slices or the due date.
func (t Task) Clone() Task {
	out := t
	if t.DueDate != nil {
		d := *t.DueDate
		out.DueDate = &d
	}
	if t.Tags != nil {
		out.Tags = append([]string(nil), t.Tags...)
	}
	if t.Prompts != nil {
		out.Prompts = append([]Prompt(nil), t.Prompts...)
	}
	return out
}

// TaskPatch carries partial updates for a task. Nil fields are left untouched.
// Identity fields (ID, ProjectID, CreatedAt) are not patchable.
type TaskPatch struct {
	Title       *string
	Description *string
	Status      *Status
	Priority    *Priority
	OwnerID     *string
	// DueDate replaces the due date when ClearDueDate is false; ClearDueDate removes it.
	DueDate      *time.Time
	ClearDueDate bool
	Tags         *[]string
	Prompts      *[]Prompt
	OutputFormat *OutputFormat
	UpdatedAt    *time.Time
}

// Empty reports whether the patch would change nothing.
func (p TaskPatch) Empty() bool {
	return p.Title == nil && p.Description == nil && p.Status == nil && p.Priority == nil &&
		p.OwnerID == nil && p.DueDate == nil && !p.ClearDueDate && p.Tags == nil &&
		p.Prompts == nil && p.OutputFormat == nil && p.UpdatedAt == nil
}

// NormalizeTags trims labels, drops blanks and removes duplicates keeping first occurrence.
func NormalizeTags(tags []string) []string {
	if len(tags) == 0 {
		return nil
	}
	seen := make(map[string]struct{}, len(tags))
	out := make([]string, 0, len(tags))
	for _, tag := range tags {
		tag = strings.TrimSpace(tag)
		if tag == "" {
			continue
		}
		if _, dup := seen[tag]; dup {
			continue
		}
		seen[tag] = struct{}{}
		out = append(out, tag)
	}
	if len(out) == 0 {
		return nil
	}
	return out
}
