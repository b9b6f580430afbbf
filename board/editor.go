package board

import (
	"errors"
	"strings"
	"time"

	"taskboard/domain"
)

var (
	// ErrEditorClosed is returned by Submit when no create or edit flow is open.
	ErrEditorClosed  = errors.New("editor is not open")
	ErrDuplicateTask = errors.New("task already exists")
)

// Draft is the editable form state of the editor.
type Draft struct {
	Title        string
	Description  string
	Status       domain.Status
	Priority     domain.Priority
	OwnerID      string
	DueDate      *time.Time
	Tags         []string
	Prompts      []domain.Prompt
	OutputFormat domain.OutputFormat
}

type taskWriter interface {
	add(t domain.Task) bool
	update(id string, p domain.TaskPatch) bool
	activeProject() string
	owner() string
}

// Editor produces validated task records for the create and edit flows.
type Editor struct {
	w     taskWriter
	now   func() time.Time
	newID func() string

	open    bool
	editing *domain.Task
	draft   Draft
}

func newEditor(w taskWriter, now func() time.Time, newID func() string) *Editor {
	e := &Editor{w: w, now: now, newID: newID}
	e.reset()
	return e
}

// OpenCreate starts a create flow with a blank draft.
func (e *Editor) OpenCreate() {
	e.reset()
	e.open = true
}

// OpenEdit starts an edit flow pre-populated from t.
func (e *Editor) OpenEdit(t domain.Task) {
	e.reset()
	cp := t.Clone()
	e.editing = &cp
	e.draft = Draft{
		Title:        cp.Title,
		Description:  cp.Description,
		Status:       cp.Status,
		Priority:     cp.Priority,
		OwnerID:      cp.OwnerID,
		DueDate:      cp.DueDate,
		Tags:         cp.Tags,
		Prompts:      cp.Prompts,
		OutputFormat: cp.OutputFormat,
	}
	if !e.draft.OutputFormat.Valid() {
		e.draft.OutputFormat = domain.DefaultOutputFormat
	}
	e.open = true
}

func (e *Editor) IsOpen() bool { return e.open }

// Editing reports whether the open flow edits an existing task.
func (e *Editor) Editing() bool { return e.open && e.editing != nil }

// Draft returns the form state for the caller to fill in.
func (e *Editor) Draft() *Draft { return &e.draft }

// AddPrompt appends a blank prompt with the default model and format and
// returns its id.
func (e *Editor) AddPrompt() string {
	id := e.newID()
	e.draft.Prompts = append(e.draft.Prompts, domain.Prompt{
		ID:           id,
		AIModel:      domain.DefaultAIModel,
		OutputFormat: domain.DefaultOutputFormat,
	})
	return id
}

// RemovePrompt drops the draft prompt with the given id.
func (e *Editor) RemovePrompt(id string) bool {
	for i, p := range e.draft.Prompts {
		if p.ID == id {
			e.draft.Prompts = append(e.draft.Prompts[:i:i], e.draft.Prompts[i+1:]...)
			return true
		}
	}
	return false
}

// CanSubmit mirrors the submit button: enabled only with a non-blank title.
func (e *Editor) CanSubmit() bool {
	return e.open && strings.TrimSpace(e.draft.Title) != ""
}

// Cancel closes the editor discarding the draft.
func (e *Editor) Cancel() {
	e.reset()
}

// Submit validates the draft and hands the record to the store. On success the
// editor closes and resets. Validation failures leave the editor open and the
// store untouched.
func (e *Editor) Submit() (domain.Task, error) {
	if !e.open {
		return domain.Task{}, ErrEditorClosed
	}
	title := strings.TrimSpace(e.draft.Title)
	if title == "" {
		return domain.Task{}, domain.ErrEmptyTitle
	}
	status := e.draft.Status
	if status == "" {
		status = domain.DefaultStatus
	}
	if !status.Valid() {
		return domain.Task{}, domain.ErrInvalidStatus
	}
	priority := e.draft.Priority
	if priority == "" {
		priority = domain.DefaultPriority
	}
	if !priority.Valid() {
		return domain.Task{}, domain.ErrInvalidPriority
	}
	format := e.draft.OutputFormat
	if format == "" {
		format = domain.DefaultOutputFormat
	}
	if !format.Valid() {
		return domain.Task{}, domain.ErrInvalidOutputFormat
	}
	prompts, err := domain.NormalizePrompts(e.draft.Prompts, e.newID)
	if err != nil {
		return domain.Task{}, err
	}
	owner := strings.TrimSpace(e.draft.OwnerID)
	if owner == "" {
		owner = e.w.owner()
	}
	desc := strings.TrimSpace(e.draft.Description)
	tags := domain.NormalizeTags(e.draft.Tags)
	var due *time.Time
	if e.draft.DueDate != nil {
		d := *e.draft.DueDate
		due = &d
	}
	now := e.now().UTC()

	var rec domain.Task
	if e.editing == nil {
		projectID := e.w.activeProject()
		if projectID == "" {
			return domain.Task{}, domain.ErrNoProject
		}
		rec = domain.Task{
			ID:           e.newID(),
			ProjectID:    projectID,
			Title:        title,
			Description:  desc,
			Status:       status,
			Priority:     priority,
			OwnerID:      owner,
			DueDate:      due,
			Tags:         tags,
			Prompts:      prompts,
			OutputFormat: format,
			CreatedAt:    now,
			UpdatedAt:    now,
		}
		if !e.w.add(rec) {
			return domain.Task{}, ErrDuplicateTask
		}
	} else {
		rec = *e.editing
		if now.Before(rec.CreatedAt) {
			now = rec.CreatedAt
		}
		rec.Title = title
		rec.Description = desc
		rec.Status = status
		rec.Priority = priority
		rec.OwnerID = owner
		rec.DueDate = due
		rec.Tags = tags
		rec.Prompts = prompts
		rec.OutputFormat = format
		rec.UpdatedAt = now
		patch := domain.TaskPatch{
			Title:        &rec.Title,
			Description:  &rec.Description,
			Status:       &rec.Status,
			Priority:     &rec.Priority,
			OwnerID:      &rec.OwnerID,
			DueDate:      rec.DueDate,
			ClearDueDate: rec.DueDate == nil,
			Tags:         &rec.Tags,
			Prompts:      &rec.Prompts,
			OutputFormat: &rec.OutputFormat,
			UpdatedAt:    &rec.UpdatedAt,
		}
		// A task removed while the form was open is absorbed as a no-op.
		e.w.update(rec.ID, patch)
	}

	e.reset()
	return rec.Clone(), nil
}

func (e *Editor) reset() {
	e.open = false
	e.editing = nil
	e.draft = Draft{
		Status:       domain.DefaultStatus,
		Priority:     domain.DefaultPriority,
		OutputFormat: domain.DefaultOutputFormat,
	}
}
