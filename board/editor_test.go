package board

import (
	"context"
	"errors"
	"testing"
	"time"

	"taskboard/domain"
)

func fixedClock(ts time.Time) func() time.Time {
	return func() time.Time { return ts }
}

func sequentialIDs(prefix string) func() string {
	n := 0
	return func() string {
		n++
		return prefix + string(rune('0'+n))
	}
}

func newTestBoard(t *testing.T, sink Sink) *Board {
	t.Helper()
	b := New(Options{
		UserID: "user-1",
		Sink:   sink,
		Now:    fixedClock(baseTime),
		NewID:  sequentialIDs("t"),
	})
	if err := b.Open(context.Background(), "proj-1"); err != nil {
		t.Fatalf("open: %v", err)
	}
	return b
}

func TestEditorCreateAppliesDefaults(t *testing.T) {
	b := newTestBoard(t, nil)
	ed := b.Editor()
	ed.OpenCreate()
	ed.Draft().Title = "  Fix bug  "
	ed.Draft().Tags = []string{"ui", " ui", ""}

	task, err := ed.Submit()
	if err != nil {
		t.Fatalf("submit: %v", err)
	}
	if task.ID != "t1" || task.ProjectID != "proj-1" || task.Title != "Fix bug" {
		t.Fatalf("unexpected identity fields: %+v", task)
	}
	if task.Status != domain.StatusPending || task.Priority != domain.PriorityMedium {
		t.Fatalf("expected defaults pending/medium, got %s/%s", task.Status, task.Priority)
	}
	if task.OwnerID != "user-1" {
		t.Fatalf("expected owner defaulted to user, got %q", task.OwnerID)
	}
	if !task.CreatedAt.Equal(baseTime) || !task.UpdatedAt.Equal(task.CreatedAt) {
		t.Fatalf("unexpected timestamps: %v %v", task.CreatedAt, task.UpdatedAt)
	}
	if len(task.Tags) != 1 || task.Tags[0] != "ui" {
		t.Fatalf("tags not normalised: %v", task.Tags)
	}
	if task.OutputFormat != domain.OutputText || task.Prompts != nil {
		t.Fatalf("expected text output and no prompts, got %q %v", task.OutputFormat, task.Prompts)
	}
	if ed.IsOpen() {
		t.Fatalf("expected editor closed after submit")
	}
	d := ed.Draft()
	if d.Title != "" || d.Tags != nil || d.Status != domain.DefaultStatus || d.Priority != domain.DefaultPriority {
		t.Fatalf("expected draft reset, got %+v", *d)
	}
}

func TestEditorBlankTitleRejected(t *testing.T) {
	b := newTestBoard(t, nil)
	ed := b.Editor()
	ed.OpenCreate()
	ed.Draft().Title = "   "
	if ed.CanSubmit() {
		t.Fatalf("expected submit disabled for blank title")
	}
	if _, err := ed.Submit(); !errors.Is(err, domain.ErrEmptyTitle) {
		t.Fatalf("expected empty title error, got %v", err)
	}
	if b.Store().Len() != 0 {
		t.Fatalf("store changed on invalid submit")
	}
	if !ed.IsOpen() {
		t.Fatalf("expected editor to stay open after validation failure")
	}
}

func TestEditorInvalidEnums(t *testing.T) {
	b := newTestBoard(t, nil)
	ed := b.Editor()
	ed.OpenCreate()
	ed.Draft().Title = "x"
	ed.Draft().Status = "done"
	if _, err := ed.Submit(); !errors.Is(err, domain.ErrInvalidStatus) {
		t.Fatalf("expected invalid status, got %v", err)
	}
	ed.Draft().Status = domain.StatusReview
	ed.Draft().Priority = "urgent"
	if _, err := ed.Submit(); !errors.Is(err, domain.ErrInvalidPriority) {
		t.Fatalf("expected invalid priority, got %v", err)
	}
}

func TestEditorSubmitClosedAndNoProject(t *testing.T) {
	b := New(Options{})
	ed := b.Editor()
	if _, err := ed.Submit(); !errors.Is(err, ErrEditorClosed) {
		t.Fatalf("expected closed editor error, got %v", err)
	}
	ed.OpenCreate()
	ed.Draft().Title = "x"
	if _, err := ed.Submit(); !errors.Is(err, domain.ErrNoProject) {
		t.Fatalf("expected no project error, got %v", err)
	}
}

func TestEditorDuplicateID(t *testing.T) {
	b := New(Options{NewID: func() string { return "same" }})
	_ = b.Open(context.Background(), "proj-1")
	ed := b.Editor()
	for i, want := range []error{nil, ErrDuplicateTask} {
		ed.OpenCreate()
		ed.Draft().Title = "x"
		if _, err := ed.Submit(); !errors.Is(err, want) {
			t.Fatalf("submit %d: expected %v, got %v", i, want, err)
		}
	}
	if b.Store().Len() != 1 {
		t.Fatalf("expected one task, got %d", b.Store().Len())
	}
}

func TestEditorEditKeepsIdentity(t *testing.T) {
	now := baseTime
	b := New(Options{UserID: "user-1", Now: func() time.Time { return now }, NewID: sequentialIDs("t")})
	_ = b.Open(context.Background(), "proj-1")
	ed := b.Editor()
	ed.OpenCreate()
	ed.Draft().Title = "first"
	due := time.Date(2024, 5, 1, 0, 0, 0, 0, time.UTC)
	ed.Draft().DueDate = &due
	created, err := ed.Submit()
	if err != nil {
		t.Fatalf("create: %v", err)
	}

	now = baseTime.Add(2 * time.Hour)
	ed.OpenEdit(created)
	if !ed.Editing() || ed.Draft().Title != "first" {
		t.Fatalf("expected draft pre-populated, got %+v", *ed.Draft())
	}
	ed.Draft().Title = "second"
	ed.Draft().Priority = domain.PriorityHigh
	ed.Draft().DueDate = nil
	edited, err := ed.Submit()
	if err != nil {
		t.Fatalf("edit: %v", err)
	}
	if edited.ID != created.ID || !edited.CreatedAt.Equal(created.CreatedAt) {
		t.Fatalf("identity changed on edit: %+v", edited)
	}
	stored, _ := b.Task(created.ID)
	if stored.Title != "second" || stored.Priority != domain.PriorityHigh || stored.DueDate != nil {
		t.Fatalf("unexpected stored task: %+v", stored)
	}
	if !stored.UpdatedAt.Equal(now) {
		t.Fatalf("expected updatedAt %v, got %v", now, stored.UpdatedAt)
	}
	if b.Store().Len() != 1 {
		t.Fatalf("edit created a new task")
	}
}

func TestEditorCancelDiscardsDraft(t *testing.T) {
	b := newTestBoard(t, nil)
	ed := b.Editor()
	ed.OpenCreate()
	ed.Draft().Title = "x"
	ed.Cancel()
	if ed.IsOpen() || ed.Draft().Title != "" {
		t.Fatalf("expected closed and reset editor")
	}
	if b.Store().Len() != 0 {
		t.Fatalf("cancel wrote to store")
	}
}

func TestEditorPrompts(t *testing.T) {
	b := newTestBoard(t, nil)
	ed := b.Editor()
	ed.OpenCreate()
	ed.Draft().Title = "Generate docs"
	ed.Draft().OutputFormat = domain.OutputMarkdown
	first := ed.AddPrompt()
	second := ed.AddPrompt()
	ed.Draft().Prompts[0].Prompt = "  summarise the module  "
	ed.Draft().Prompts[1].AIModel = "claude-3"
	if !ed.RemovePrompt(second) {
		t.Fatalf("expected prompt %s removed", second)
	}
	if ed.RemovePrompt("missing") {
		t.Fatalf("unknown prompt id reported as removed")
	}

	task, err := ed.Submit()
	if err != nil {
		t.Fatalf("submit: %v", err)
	}
	want := domain.Prompt{ID: first, Prompt: "summarise the module", AIModel: domain.DefaultAIModel, OutputFormat: domain.OutputText}
	if len(task.Prompts) != 1 || task.Prompts[0] != want {
		t.Fatalf("unexpected prompts: %+v", task.Prompts)
	}
	if task.OutputFormat != domain.OutputMarkdown {
		t.Fatalf("expected markdown output, got %q", task.OutputFormat)
	}

	ed.OpenEdit(task)
	if len(ed.Draft().Prompts) != 1 || ed.Draft().OutputFormat != domain.OutputMarkdown {
		t.Fatalf("edit draft not pre-populated: %+v", *ed.Draft())
	}
	ed.Draft().Prompts = nil
	ed.Draft().OutputFormat = domain.OutputJSON
	if _, err := ed.Submit(); err != nil {
		t.Fatalf("edit: %v", err)
	}
	stored, _ := b.Task(task.ID)
	if stored.Prompts != nil || stored.OutputFormat != domain.OutputJSON {
		t.Fatalf("unexpected stored task: %+v", stored)
	}
}

func TestEditorInvalidPromptFields(t *testing.T) {
	tests := []struct {
		name    string
		format  domain.OutputFormat
		prompts []domain.Prompt
		want    error
	}{
		{name: "taskFormat", format: "yaml", want: domain.ErrInvalidOutputFormat},
		{name: "promptFormat", prompts: []domain.Prompt{{Prompt: "x", OutputFormat: "pdf"}}, want: domain.ErrInvalidOutputFormat},
		{name: "model", prompts: []domain.Prompt{{Prompt: "x", AIModel: "gpt-9"}}, want: domain.ErrInvalidAIModel},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			b := newTestBoard(t, nil)
			ed := b.Editor()
			ed.OpenCreate()
			ed.Draft().Title = "x"
			ed.Draft().OutputFormat = tt.format
			ed.Draft().Prompts = tt.prompts
			if _, err := ed.Submit(); !errors.Is(err, tt.want) {
				t.Fatalf("expected %v, got %v", tt.want, err)
			}
			if b.Store().Len() != 0 || !ed.IsOpen() {
				t.Fatalf("invalid submit changed state")
			}
		})
	}
}

func TestEditorResetClearsPrompts(t *testing.T) {
	b := newTestBoard(t, nil)
	ed := b.Editor()
	ed.OpenCreate()
	ed.AddPrompt()
	ed.Draft().OutputFormat = domain.OutputCode
	ed.Cancel()
	d := ed.Draft()
	if d.Prompts != nil || d.OutputFormat != domain.DefaultOutputFormat {
		t.Fatalf("expected prompts and output format reset, got %+v", *d)
	}
	ed.OpenCreate()
	if ed.Draft().Prompts != nil || ed.Draft().OutputFormat != domain.OutputText {
		t.Fatalf("expected fresh draft on create, got %+v", *ed.Draft())
	}
}
