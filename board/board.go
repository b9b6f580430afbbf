package board

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	log "github.com/sirupsen/logrus"

	"taskboard/domain"
)

// Loader supplies the initial task list of a project when the board opens it.
type Loader interface {
	LoadTasks(ctx context.Context, projectID string) ([]domain.Task, error)
}

// Sink receives every store mutation made through the board. Emit must not
// block on remote work; the board never waits for or inspects the outcome.
type Sink interface {
	Emit(change domain.Change)
}

// SinkFunc adapts a function to Sink.
type SinkFunc func(domain.Change)

func (f SinkFunc) Emit(c domain.Change) { f(c) }

// Options configures a Board. Zero values fall back to in-memory preferences,
// no loader, a discarding sink, the standard logger, time.Now and uuid ids.
type Options struct {
	UserID      string
	Preferences Preferences
	Loader      Loader
	Sink        Sink
	Logger      *log.Logger
	Now         func() time.Time
	NewID       func() string
}

// Board is the state container tying the store, the view controller, the
// kanban engine and the editor to one active project. It is single-writer:
// callers must not use a Board from several goroutines at once.
type Board struct {
	userID string
	store  *Store
	view   *View
	kanban *Kanban
	editor *Editor
	loader Loader
	sink   Sink
	log    *log.Logger
	now    func() time.Time
}

// New builds a board with its own store.
func New(opts Options) *Board {
	if opts.Preferences == nil {
		opts.Preferences = NewMemoryPreferences()
	}
	if opts.Logger == nil {
		opts.Logger = log.StandardLogger()
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	if opts.NewID == nil {
		opts.NewID = uuid.NewString
	}
	b := &Board{
		userID: opts.UserID,
		store:  NewStore(),
		view:   NewView(opts.Preferences),
		loader: opts.Loader,
		sink:   opts.Sink,
		log:    opts.Logger,
		now:    opts.Now,
	}
	b.kanban = NewKanban(b.changeStatus)
	b.editor = newEditor(b, opts.Now, opts.NewID)
	return b
}

// Open makes projectID the active project: the filter resets to all, the view
// mode is read back from preferences and the store is seeded from the loader.
// A failing preference read falls back to the list view and is only logged. A
// failing load keeps the current store contents and is returned.
func (b *Board) Open(ctx context.Context, projectID string) error {
	b.editor.Cancel()
	if err := b.view.Open(ctx, projectID); err != nil {
		b.log.WithError(err).WithField("project", projectID).Warn("view mode unavailable, using default")
	}
	if b.loader == nil {
		return nil
	}
	tasks, err := b.loader.LoadTasks(ctx, projectID)
	if err != nil {
		return fmt.Errorf("load tasks for %s: %w", projectID, err)
	}
	b.store.Seed(projectID, tasks)
	return nil
}

// ProjectID returns the active project.
func (b *Board) ProjectID() string { return b.view.ProjectID() }

func (b *Board) UserID() string { return b.userID }

// Store exposes the underlying collection.
func (b *Board) Store() *Store { return b.store }

func (b *Board) Editor() *Editor { return b.editor }

// DropHandler returns the kanban engine as a drag target.
func (b *Board) DropHandler() DropHandler { return b.kanban }

func (b *Board) Mode() domain.ViewMode { return b.view.Mode() }

func (b *Board) Filter() domain.Filter { return b.view.Filter() }

func (b *Board) SetFilter(f domain.Filter) error { return b.view.SetFilter(f) }

// SetViewMode applies and persists the display mode of the active project.
func (b *Board) SetViewMode(ctx context.Context, mode domain.ViewMode) error {
	return b.view.SetMode(ctx, mode)
}

// AllTasks returns every task of the active project, ignoring the filter.
func (b *Board) AllTasks() []domain.Task {
	return b.store.ListByProject(b.view.ProjectID())
}

// Tasks returns the active project's tasks passing the current filter.
func (b *Board) Tasks() []domain.Task {
	return b.view.Visible(b.AllTasks())
}

// Columns groups the visible tasks into kanban columns.
func (b *Board) Columns() []Column {
	return b.kanban.Columns(b.Tasks())
}

// Task looks up a task of the active project.
func (b *Board) Task(id string) (domain.Task, bool) {
	t, ok := b.store.Get(id)
	if !ok || t.ProjectID != b.view.ProjectID() {
		return domain.Task{}, false
	}
	return t, true
}

// Move forwards a drag gesture to the kanban engine.
func (b *Board) Move(source, destination, itemID string) bool {
	return b.kanban.OnDragEnd(source, destination, itemID)
}

// SetStatus is the explicit status control. It reports whether the task changed.
func (b *Board) SetStatus(id string, status domain.Status) (bool, error) {
	if !status.Valid() {
		return false, domain.ErrInvalidStatus
	}
	return b.changeStatus(id, status), nil
}

// Delete removes a task of the active project. Unknown ids are a no-op.
func (b *Board) Delete(id string) bool {
	t, ok := b.Task(id)
	if !ok {
		return false
	}
	b.store.Delete(id)
	b.emit(domain.TaskDeleted, t)
	return true
}

// Apply folds a change made by another board into the store without emitting
// it. Records that break a task invariant are ignored.
func (b *Board) Apply(c domain.Change) bool {
	switch c.Op {
	case domain.TaskCreated, domain.TaskUpdated:
		t := c.Task
		if t.ID == "" || t.ProjectID == "" || strings.TrimSpace(t.Title) == "" || !t.Status.Valid() || !t.Priority.Valid() {
			return false
		}
		if !t.OutputFormat.Valid() {
			t.OutputFormat = domain.DefaultOutputFormat
		}
		return b.store.Put(t)
	case domain.TaskDeleted:
		return b.store.Delete(c.Task.ID)
	}
	return false
}

func (b *Board) changeStatus(id string, status domain.Status) bool {
	t, ok := b.Task(id)
	if !ok || t.Status == status {
		return false
	}
	now := b.now().UTC()
	return b.update(id, domain.TaskPatch{Status: &status, UpdatedAt: &now})
}

func (b *Board) add(t domain.Task) bool {
	if !b.store.Add(t) {
		return false
	}
	b.emit(domain.TaskCreated, t)
	return true
}

func (b *Board) update(id string, p domain.TaskPatch) bool {
	if !b.store.Update(id, p) {
		return false
	}
	t, _ := b.store.Get(id)
	b.emit(domain.TaskUpdated, t)
	return true
}

func (b *Board) activeProject() string { return b.view.ProjectID() }

func (b *Board) owner() string { return b.userID }

func (b *Board) emit(op domain.ChangeOp, t domain.Task) {
	if b.sink == nil {
		return
	}
	b.sink.Emit(domain.Change{
		Op:        op,
		Task:      t.Clone(),
		UserID:    b.userID,
		Timestamp: nextTimestamp(),
	})
}
