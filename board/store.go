package board

import (
	"strings"

	"taskboard/domain"
)

// Store is the authoritative in-memory task collection shared by every project
// view of a board. Tasks are kept newest first. Store is not safe for
// concurrent use; the owner serialises access.
type Store struct {
	tasks []domain.Task
}

// NewStore returns an empty store.
func NewStore() *Store {
	return &Store{}
}

// Add prepends t. A task whose id is already present is rejected and Add
// returns false. No field validation happens here.
func (s *Store) Add(t domain.Task) bool {
	if s.indexOf(t.ID) >= 0 {
		return false
	}
	s.tasks = append(s.tasks, domain.Task{})
	copy(s.tasks[1:], s.tasks)
	s.tasks[0] = t.Clone()
	return true
}

// Update merges the set fields of p into the task with the given id. It
// returns false when no such task exists. UpdatedAt only changes when p
// carries it. Field values that would break a task invariant are skipped.
func (s *Store) Update(id string, p domain.TaskPatch) bool {
	i := s.indexOf(id)
	if i < 0 {
		return false
	}
	applyPatch(&s.tasks[i], p)
	return true
}

// Put stores t as received, replacing the task with the same id or
// prepending it when absent. A replacement older than the stored record is
// ignored. Put reports whether the store changed.
func (s *Store) Put(t domain.Task) bool {
	i := s.indexOf(t.ID)
	if i < 0 {
		return s.Add(t)
	}
	if t.UpdatedAt.Before(s.tasks[i].UpdatedAt) {
		return false
	}
	s.tasks[i] = t.Clone()
	return true
}

// Delete removes the task with the given id and reports whether it existed.
func (s *Store) Delete(id string) bool {
	i := s.indexOf(id)
	if i < 0 {
		return false
	}
	s.tasks = append(s.tasks[:i], s.tasks[i+1:]...)
	return true
}

// Get returns a copy of the task with the given id.
func (s *Store) Get(id string) (domain.Task, bool) {
	i := s.indexOf(id)
	if i < 0 {
		return domain.Task{}, false
	}
	return s.tasks[i].Clone(), true
}

// ListByProject returns copies of the project's tasks in store order.
func (s *Store) ListByProject(projectID string) []domain.Task {
	out := make([]domain.Task, 0, len(s.tasks))
	for _, t := range s.tasks {
		if t.ProjectID == projectID {
			out = append(out, t.Clone())
		}
	}
	return out
}

// Len returns the number of tasks across all projects.
func (s *Store) Len() int { return len(s.tasks) }

// Seed replaces every task of projectID with tasks, keeping their order and
// placing them ahead of other projects. Tasks for other projects and repeated
// ids in tasks are dropped.
func (s *Store) Seed(projectID string, tasks []domain.Task) {
	kept := make([]domain.Task, 0, len(s.tasks)+len(tasks))
	seen := make(map[string]struct{}, len(tasks))
	for _, t := range tasks {
		if t.ProjectID != projectID {
			continue
		}
		if _, dup := seen[t.ID]; dup {
			continue
		}
		seen[t.ID] = struct{}{}
		kept = append(kept, t.Clone())
	}
	for _, t := range s.tasks {
		if t.ProjectID == projectID {
			continue
		}
		if _, dup := seen[t.ID]; dup {
			continue
		}
		kept = append(kept, t)
	}
	s.tasks = kept
}

// Retain drops every task that does not belong to projectID.
func (s *Store) Retain(projectID string) {
	kept := s.tasks[:0]
	for _, t := range s.tasks {
		if t.ProjectID == projectID {
			kept = append(kept, t)
		}
	}
	for i := len(kept); i < len(s.tasks); i++ {
		s.tasks[i] = domain.Task{}
	}
	s.tasks = kept
}

func (s *Store) indexOf(id string) int {
	for i := range s.tasks {
		if s.tasks[i].ID == id {
			return i
		}
	}
	return -1
}

func applyPatch(t *domain.Task, p domain.TaskPatch) {
	if p.Title != nil && strings.TrimSpace(*p.Title) != "" {
		t.Title = *p.Title
	}
	if p.Description != nil {
		t.Description = *p.Description
	}
	if p.Status != nil && p.Status.Valid() {
		t.Status = *p.Status
	}
	if p.Priority != nil && p.Priority.Valid() {
		t.Priority = *p.Priority
	}
	if p.OwnerID != nil {
		t.OwnerID = *p.OwnerID
	}
	switch {
	case p.ClearDueDate:
		t.DueDate = nil
	case p.DueDate != nil:
		d := *p.DueDate
		t.DueDate = &d
	}
	if p.Tags != nil {
		t.Tags = append([]string(nil), (*p.Tags)...)
		if len(t.Tags) == 0 {
			t.Tags = nil
		}
	}
	if p.Prompts != nil {
		t.Prompts = append([]domain.Prompt(nil), (*p.Prompts)...)
		if len(t.Prompts) == 0 {
			t.Prompts = nil
		}
	}
	if p.OutputFormat != nil && p.OutputFormat.Valid() {
		t.OutputFormat = *p.OutputFormat
	}
	if p.UpdatedAt != nil && !p.UpdatedAt.Before(t.CreatedAt) {
		t.UpdatedAt = *p.UpdatedAt
	}
}
