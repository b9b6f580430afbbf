package domain

import (
	"errors"
	"testing"
)

func TestParseFilter(t *testing.T) {
	tests := []struct {
		name    string
		raw     string
		want    Filter
		wantErr bool
	}{
		{name: "empty", raw: "", want: FilterAll},
		{name: "all", raw: "all", want: FilterAll},
		{name: "status", raw: "review", want: FilterFor(StatusReview)},
		{name: "unknown", raw: "blocked", wantErr: true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParseFilter(tt.raw)
			if tt.wantErr {
				if !errors.Is(err, ErrInvalidFilter) {
					t.Fatalf("expected ErrInvalidFilter, got %v", err)
				}
				return
			}
			if err != nil || got != tt.want {
				t.Fatalf("ParseFilter(%q) = %q, %v; want %q", tt.raw, got, err, tt.want)
			}
		})
	}
}

func TestFilterMatchesExactStatus(t *testing.T) {
	task := Task{Status: StatusInProgress}
	if !FilterAll.Matches(task) {
		t.Fatal("all should match every task")
	}
	if !FilterFor(StatusInProgress).Matches(task) {
		t.Fatal("expected exact status match")
	}
	if Filter("in-").Matches(task) {
		t.Fatal("partial status must not match")
	}
	if FilterFor(StatusPending).Matches(task) {
		t.Fatal("different status must not match")
	}
}

func TestParseViewMode(t *testing.T) {
	if m, err := ParseViewMode("kanban"); err != nil || m != ViewKanban {
		t.Fatalf("unexpected result: %q %v", m, err)
	}
	if _, err := ParseViewMode("grid"); !errors.Is(err, ErrInvalidViewMode) {
		t.Fatalf("expected ErrInvalidViewMode, got %v", err)
	}
}
