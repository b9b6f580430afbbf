package board

import "taskboard/domain"

// Column is one status bucket of the kanban view.
type Column struct {
	Status domain.Status `json:"status"`
	Tasks  []domain.Task `json:"tasks"`
}

// DropHandler receives the end of a drag gesture. destination is empty when the
// item was released outside every column. It reports whether a mutation happened.
type DropHandler interface {
	OnDragEnd(source, destination, itemID string) bool
}

// Kanban arranges tasks into the fixed status columns and turns drag gestures
// into status changes.
type Kanban struct {
	setStatus func(id string, status domain.Status) bool
}

// NewKanban returns an engine applying status changes through setStatus.
func NewKanban(setStatus func(id string, status domain.Status) bool) *Kanban {
	return &Kanban{setStatus: setStatus}
}

// Columns groups tasks by status, keeping their relative order. Every column
// is present even when empty.
func (k *Kanban) Columns(tasks []domain.Task) []Column {
	cols := make([]Column, len(domain.Statuses))
	pos := make(map[domain.Status]int, len(domain.Statuses))
	for i, s := range domain.Statuses {
		cols[i] = Column{Status: s, Tasks: []domain.Task{}}
		pos[s] = i
	}
	for _, t := range tasks {
		i, ok := pos[t.Status]
		if !ok {
			continue
		}
		cols[i].Tasks = append(cols[i].Tasks, t)
	}
	return cols
}

// OnDragEnd sets the dragged task's status to destination when the drop landed
// on a different, known column.
func (k *Kanban) OnDragEnd(source, destination, itemID string) bool {
	if destination == "" || destination == source {
		return false
	}
	dest := domain.Status(destination)
	if !dest.Valid() || k.setStatus == nil {
		return false
	}
	return k.setStatus(itemID, dest)
}

var _ DropHandler = (*Kanban)(nil)
