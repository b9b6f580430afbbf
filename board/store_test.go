package board

import (
	"testing"
	"time"

	"taskboard/domain"
)

var baseTime = time.Date(2024, 3, 1, 9, 0, 0, 0, time.UTC)

func newTask(id, project string, status domain.Status) domain.Task {
	return domain.Task{
		ID:        id,
		ProjectID: project,
		Title:     "task " + id,
		Status:    status,
		Priority:  domain.PriorityMedium,
		OwnerID:   "owner",
		CreatedAt: baseTime,
		UpdatedAt: baseTime,
	}
}

func ids(tasks []domain.Task) []string {
	out := make([]string, len(tasks))
	for i, t := range tasks {
		out[i] = t.ID
	}
	return out
}

func equalIDs(t *testing.T, got []domain.Task, want ...string) {
	t.Helper()
	g := ids(got)
	if len(g) != len(want) {
		t.Fatalf("expected ids %v, got %v", want, g)
	}
	for i := range want {
		if g[i] != want[i] {
			t.Fatalf("expected ids %v, got %v", want, g)
		}
	}
}

func TestStoreAddPrependsAndRejectsDuplicates(t *testing.T) {
	s := NewStore()
	if !s.Add(newTask("a", "p1", domain.StatusPending)) {
		t.Fatalf("expected first add to succeed")
	}
	if !s.Add(newTask("b", "p1", domain.StatusPending)) {
		t.Fatalf("expected second add to succeed")
	}
	if s.Add(newTask("a", "p1", domain.StatusReview)) {
		t.Fatalf("expected duplicate add to be rejected")
	}
	equalIDs(t, s.ListByProject("p1"), "b", "a")
	got, _ := s.Get("a")
	if got.Status != domain.StatusPending {
		t.Fatalf("duplicate add overwrote task: %+v", got)
	}
}

func TestStoreAddCopiesInput(t *testing.T) {
	s := NewStore()
	task := newTask("a", "p1", domain.StatusPending)
	task.Tags = []string{"x"}
	s.Add(task)
	task.Tags[0] = "mutated"
	got, _ := s.Get("a")
	if got.Tags[0] != "x" {
		t.Fatalf("store shares tag slice with caller")
	}
}

func TestStoreUpdate(t *testing.T) {
	s := NewStore()
	s.Add(newTask("a", "p1", domain.StatusPending))
	later := baseTime.Add(time.Hour)
	review := domain.StatusReview
	title := "renamed"

	if !s.Update("a", domain.TaskPatch{Title: &title, Status: &review, UpdatedAt: &later}) {
		t.Fatalf("expected update to succeed")
	}
	got, _ := s.Get("a")
	if got.Title != "renamed" || got.Status != domain.StatusReview || !got.UpdatedAt.Equal(later) {
		t.Fatalf("unexpected task after update: %+v", got)
	}
	if got.Priority != domain.PriorityMedium || got.OwnerID != "owner" {
		t.Fatalf("update touched unset fields: %+v", got)
	}
	if s.Update("missing", domain.TaskPatch{Title: &title}) {
		t.Fatalf("expected update of missing id to report false")
	}
	if s.Len() != 1 {
		t.Fatalf("update of missing id changed store size")
	}
}

func TestStoreUpdateSkipsInvalidFields(t *testing.T) {
	s := NewStore()
	s.Add(newTask("a", "p1", domain.StatusPending))
	blank := "   "
	bad := domain.Status("done")
	early := baseTime.Add(-time.Hour)

	s.Update("a", domain.TaskPatch{Title: &blank, Status: &bad, UpdatedAt: &early})
	got, _ := s.Get("a")
	if got.Title != "task a" {
		t.Fatalf("blank title applied: %q", got.Title)
	}
	if got.Status != domain.StatusPending {
		t.Fatalf("invalid status applied: %q", got.Status)
	}
	if !got.UpdatedAt.Equal(baseTime) {
		t.Fatalf("updatedAt moved before createdAt: %v", got.UpdatedAt)
	}
}

func TestStoreUpdateDueDate(t *testing.T) {
	s := NewStore()
	s.Add(newTask("a", "p1", domain.StatusPending))
	due := time.Date(2024, 4, 1, 0, 0, 0, 0, time.UTC)

	s.Update("a", domain.TaskPatch{DueDate: &due})
	got, _ := s.Get("a")
	if got.DueDate == nil || !got.DueDate.Equal(due) {
		t.Fatalf("due date not set: %v", got.DueDate)
	}
	s.Update("a", domain.TaskPatch{DueDate: &due, ClearDueDate: true})
	got, _ = s.Get("a")
	if got.DueDate != nil {
		t.Fatalf("expected due date cleared, got %v", got.DueDate)
	}
}

func TestStoreDelete(t *testing.T) {
	s := NewStore()
	s.Add(newTask("a", "p1", domain.StatusPending))
	s.Add(newTask("b", "p1", domain.StatusPending))
	if !s.Delete("a") {
		t.Fatalf("expected delete to report true")
	}
	if s.Delete("a") {
		t.Fatalf("expected second delete to report false")
	}
	equalIDs(t, s.ListByProject("p1"), "b")
}

func TestStoreListByProjectReturnsCopies(t *testing.T) {
	s := NewStore()
	s.Add(newTask("a", "p1", domain.StatusPending))
	s.Add(newTask("b", "p2", domain.StatusPending))
	list := s.ListByProject("p1")
	equalIDs(t, list, "a")
	list[0].Title = "changed"
	got, _ := s.Get("a")
	if got.Title != "task a" {
		t.Fatalf("list result aliases store")
	}
	if len(s.ListByProject("p3")) != 0 {
		t.Fatalf("expected empty list for unknown project")
	}
}

func TestStoreSeed(t *testing.T) {
	s := NewStore()
	s.Add(newTask("old", "p1", domain.StatusPending))
	s.Add(newTask("other", "p2", domain.StatusPending))

	s.Seed("p1", []domain.Task{
		newTask("n1", "p1", domain.StatusPending),
		newTask("n2", "p1", domain.StatusReview),
		newTask("n1", "p1", domain.StatusCompleted),
		newTask("foreign", "p2", domain.StatusPending),
	})

	equalIDs(t, s.ListByProject("p1"), "n1", "n2")
	equalIDs(t, s.ListByProject("p2"), "other")
	if s.Len() != 3 {
		t.Fatalf("expected 3 tasks after seed, got %d", s.Len())
	}
	n1, _ := s.Get("n1")
	if n1.Status != domain.StatusPending {
		t.Fatalf("expected first occurrence kept, got %s", n1.Status)
	}
}

func TestStorePutKeepsNewerRecord(t *testing.T) {
	s := NewStore()
	if !s.Put(newTask("a", "p1", domain.StatusPending)) {
		t.Fatalf("expected put of a new task to add it")
	}

	newer := newTask("a", "p1", domain.StatusReview)
	newer.UpdatedAt = baseTime.Add(time.Minute)
	if !s.Put(newer) {
		t.Fatalf("expected newer record to replace")
	}

	older := newTask("a", "p1", domain.StatusCompleted)
	if s.Put(older) {
		t.Fatalf("expected older record to be ignored")
	}
	got, _ := s.Get("a")
	if got.Status != domain.StatusReview || s.Len() != 1 {
		t.Fatalf("unexpected store state: %+v len=%d", got, s.Len())
	}
}

func TestStoreRetain(t *testing.T) {
	s := NewStore()
	s.Add(newTask("a", "p1", domain.StatusPending))
	s.Add(newTask("b", "p2", domain.StatusPending))
	s.Add(newTask("c", "p1", domain.StatusPending))

	s.Retain("p1")
	equalIDs(t, s.ListByProject("p1"), "c", "a")
	if s.Len() != 2 {
		t.Fatalf("expected 2 tasks after retain, got %d", s.Len())
	}
	if _, ok := s.Get("b"); ok {
		t.Fatalf("task of another project survived retain")
	}
}
