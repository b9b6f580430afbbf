package sqlite

import (
	"context"
	"database/sql"
	"path/filepath"
	"testing"
	"time"

	"taskboard/domain"
)

func openTestDB(t *testing.T) *DB {
	t.Helper()
	db, err := Open(filepath.Join(t.TempDir(), "board.db"))
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	return db
}

var created = time.Date(2024, 2, 3, 4, 5, 6, 0, time.UTC)

func task(id, project string, at time.Time) domain.Task {
	return domain.Task{
		ID:        id,
		ProjectID: project,
		Title:     "task " + id,
		Status:    domain.StatusPending,
		Priority:  domain.PriorityLow,
		OwnerID:   "local",
		CreatedAt: at,
		UpdatedAt: at,
	}
}

func TestSettingsUpsert(t *testing.T) {
	db := openTestDB(t)
	ctx := context.Background()
	if v, err := db.Get(ctx, "tasks-view-mode:p"); err != nil || v != "" {
		t.Fatalf("expected empty value, got %q %v", v, err)
	}
	for _, want := range []string{"kanban", "list"} {
		if err := db.Set(ctx, "tasks-view-mode:p", want); err != nil {
			t.Fatalf("set: %v", err)
		}
		if v, _ := db.Get(ctx, "tasks-view-mode:p"); v != want {
			t.Fatalf("expected %q, got %q", want, v)
		}
	}
}

func TestSaveLoadTasks(t *testing.T) {
	db := openTestDB(t)
	ctx := context.Background()
	due := time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC)
	a := task("a", "p1", created)
	a.Tags = []string{"backend", "api"}
	a.DueDate = &due
	a.OutputFormat = domain.OutputCode
	a.Prompts = []domain.Prompt{{ID: "p1", Prompt: "write the handler", AIModel: "claude-3", OutputFormat: domain.OutputCode}}
	b := task("b", "p1", created.Add(time.Hour))
	other := task("c", "p2", created)

	for _, tk := range []domain.Task{a, b, other} {
		if err := db.SaveTask(ctx, tk); err != nil {
			t.Fatalf("save %s: %v", tk.ID, err)
		}
	}

	tasks, err := db.LoadTasks(ctx, "p1")
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if len(tasks) != 2 || tasks[0].ID != "b" || tasks[1].ID != "a" {
		t.Fatalf("expected [b a], got %+v", tasks)
	}
	got := tasks[1]
	if len(got.Tags) != 2 || got.Tags[0] != "backend" || got.Tags[1] != "api" {
		t.Fatalf("tags not kept in order: %v", got.Tags)
	}
	if got.DueDate == nil || !got.DueDate.Equal(due) {
		t.Fatalf("due date lost: %v", got.DueDate)
	}
	if !got.CreatedAt.Equal(created) {
		t.Fatalf("createdAt mismatch: %v", got.CreatedAt)
	}
	if got.OutputFormat != domain.OutputCode || len(got.Prompts) != 1 || got.Prompts[0] != a.Prompts[0] {
		t.Fatalf("prompts lost: %+v", got)
	}
	if tasks[0].OutputFormat != domain.OutputText || tasks[0].Prompts != nil {
		t.Fatalf("expected default output format, got %+v", tasks[0])
	}
}

func TestLoadTasksFallsBackOnUnknownEnums(t *testing.T) {
	db := openTestDB(t)
	ctx := context.Background()
	if _, err := db.Exec(`
		INSERT INTO tasks (id, project_id, title, status, priority, created_at, updated_at, output_format)
		VALUES ('x', 'p1', 'hand edited', 'done', 'urgent', ?, ?, 'pdf')
	`, created, created); err != nil {
		t.Fatalf("insert: %v", err)
	}
	tasks, err := db.LoadTasks(ctx, "p1")
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if len(tasks) != 1 {
		t.Fatalf("expected one task, got %d", len(tasks))
	}
	got := tasks[0]
	if got.Status != domain.DefaultStatus || got.Priority != domain.DefaultPriority || got.OutputFormat != domain.DefaultOutputFormat {
		t.Fatalf("expected defaults, got %s/%s/%s", got.Status, got.Priority, got.OutputFormat)
	}
}

func TestOpenAddsMissingColumns(t *testing.T) {
	path := filepath.Join(t.TempDir(), "old.db")
	raw, err := sql.Open("sqlite3", path)
	if err != nil {
		t.Fatalf("open raw: %v", err)
	}
	if _, err := raw.Exec(`
		CREATE TABLE tasks (
			id TEXT PRIMARY KEY, project_id TEXT NOT NULL, title TEXT NOT NULL,
			description TEXT NOT NULL DEFAULT '', status TEXT NOT NULL DEFAULT 'pending',
			priority TEXT NOT NULL DEFAULT 'medium', owner_id TEXT NOT NULL DEFAULT '',
			due_date TEXT, created_at DATETIME NOT NULL, updated_at DATETIME NOT NULL
		);
		INSERT INTO tasks (id, project_id, title, created_at, updated_at) VALUES ('old', 'p1', 'legacy', '2024-01-01 00:00:00', '2024-01-01 00:00:00');
	`); err != nil {
		t.Fatalf("create old schema: %v", err)
	}
	raw.Close()

	db, err := Open(path)
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	defer db.Close()
	tasks, err := db.LoadTasks(context.Background(), "p1")
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if len(tasks) != 1 || tasks[0].OutputFormat != domain.OutputText {
		t.Fatalf("unexpected tasks after migration: %+v", tasks)
	}
	if err := db.SaveTask(context.Background(), task("new", "p1", created)); err != nil {
		t.Fatalf("save after migration: %v", err)
	}
}

func TestApplyUpdateAndDelete(t *testing.T) {
	db := openTestDB(t)
	ctx := context.Background()
	a := task("a", "p1", created)
	a.Tags = []string{"x"}
	if err := db.Apply(ctx, domain.Change{Op: domain.TaskCreated, Task: a}); err != nil {
		t.Fatalf("create: %v", err)
	}

	a.Status = domain.StatusReview
	a.Tags = nil
	a.UpdatedAt = created.Add(time.Minute)
	if err := db.Apply(ctx, domain.Change{Op: domain.TaskUpdated, Task: a}); err != nil {
		t.Fatalf("update: %v", err)
	}
	tasks, _ := db.LoadTasks(ctx, "p1")
	if len(tasks) != 1 || tasks[0].Status != domain.StatusReview || tasks[0].Tags != nil {
		t.Fatalf("unexpected task after update: %+v", tasks)
	}

	if err := db.Apply(ctx, domain.Change{Op: domain.TaskDeleted, Task: a}); err != nil {
		t.Fatalf("delete: %v", err)
	}
	tasks, _ = db.LoadTasks(ctx, "p1")
	if len(tasks) != 0 {
		t.Fatalf("expected no tasks after delete, got %d", len(tasks))
	}
	var n int
	if err := db.QueryRow("SELECT COUNT(*) FROM task_tags").Scan(&n); err != nil || n != 0 {
		t.Fatalf("expected tags cascaded, got %d %v", n, err)
	}
}
