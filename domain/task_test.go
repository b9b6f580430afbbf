package domain

import (
	"errors"
	"reflect"
	"strings"
	"testing"
	"time"

	"github.com/bytedance/sonic"
)

func TestTaskMarshalOmitsEmptyOptionalFields(t *testing.T) {
	task := Task{ID: "t1", ProjectID: "p1", Title: "Title", Status: StatusPending, Priority: PriorityMedium}

	payload, err := sonic.Marshal(task)
	if err != nil {
		t.Fatalf("marshal task: %v", err)
	}

	s := string(payload)
	if !strings.Contains(s, `"status":"pending"`) {
		t.Fatalf("expected status field, got %s", s)
	}
	for _, field := range []string{`"dueDate"`, `"tags"`, `"description"`, `"prompts"`} {
		if strings.Contains(s, field) {
			t.Fatalf("expected %s to be omitted, got %s", field, s)
		}
	}
}

func TestParseStatus(t *testing.T) {
	tests := []struct {
		raw     string
		want    Status
		wantErr bool
	}{
		{raw: "pending", want: StatusPending},
		{raw: " in-progress ", want: StatusInProgress},
		{raw: "review", want: StatusReview},
		{raw: "completed", want: StatusCompleted},
		{raw: "done", wantErr: true},
		{raw: "Pending", wantErr: true},
		{raw: "", wantErr: true},
	}
	for _, tt := range tests {
		t.Run(tt.raw, func(t *testing.T) {
			got, err := ParseStatus(tt.raw)
			if tt.wantErr {
				if !errors.Is(err, ErrInvalidStatus) {
					t.Fatalf("expected ErrInvalidStatus, got %v", err)
				}
				return
			}
			if err != nil || got != tt.want {
				t.Fatalf("ParseStatus(%q) = %q, %v; want %q", tt.raw, got, err, tt.want)
			}
		})
	}
}

func TestParsePriority(t *testing.T) {
	if p, err := ParsePriority("high"); err != nil || p != PriorityHigh {
		t.Fatalf("unexpected result: %q %v", p, err)
	}
	if _, err := ParsePriority("urgent"); !errors.Is(err, ErrInvalidPriority) {
		t.Fatalf("expected ErrInvalidPriority, got %v", err)
	}
}

func TestParseDueDate(t *testing.T) {
	d, err := ParseDueDate("2026-03-01")
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if d == nil || !d.Equal(time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC)) {
		t.Fatalf("unexpected date %v", d)
	}
	if d, err := ParseDueDate("  "); err != nil || d != nil {
		t.Fatalf("expected no date for blank input, got %v %v", d, err)
	}
	if _, err := ParseDueDate("01/03/2026"); !errors.Is(err, ErrInvalidDueDate) {
		t.Fatalf("expected ErrInvalidDueDate, got %v", err)
	}
}

func TestNormalizeTags(t *testing.T) {
	got := NormalizeTags([]string{" go ", "", "api", "go", "  "})
	if !reflect.DeepEqual(got, []string{"go", "api"}) {
		t.Fatalf("unexpected tags: %#v", got)
	}
	if got := NormalizeTags([]string{" ", ""}); got != nil {
		t.Fatalf("expected nil for blank tags, got %#v", got)
	}
}

func TestCloneDoesNotShareState(t *testing.T) {
	due := time.Date(2026, 1, 2, 0, 0, 0, 0, time.UTC)
	orig := Task{ID: "t1", Tags: []string{"a"}, DueDate: &due}

	cp := orig.Clone()
	cp.Tags[0] = "b"
	*cp.DueDate = due.AddDate(0, 0, 1)

	if orig.Tags[0] != "a" {
		t.Fatalf("clone shares tags slice")
	}
	if !orig.DueDate.Equal(due) {
		t.Fatalf("clone shares due date")
	}
}

func TestTaskPatchEmpty(t *testing.T) {
	if !(TaskPatch{}).Empty() {
		t.Fatal("zero patch should be empty")
	}
	s := StatusReview
	if (TaskPatch{Status: &s}).Empty() {
		t.Fatal("patch with status should not be empty")
	}
	if (TaskPatch{ClearDueDate: true}).Empty() {
		t.Fatal("patch clearing due date should not be empty")
	}
}
