package board

import (
	"context"
	"fmt"

	"taskboard/domain"
)

// View derives the visible task subset and display mode for the active project.
type View struct {
	prefs     Preferences
	projectID string
	mode      domain.ViewMode
	filter    domain.Filter
}

// NewView returns a view persisting modes to prefs. A nil prefs keeps modes in
// memory only.
func NewView(prefs Preferences) *View {
	return &View{prefs: prefs, mode: domain.DefaultViewMode, filter: domain.FilterAll}
}

// Open switches the view to projectID. The filter always resets to all and the
// mode is read from preferences. A read error is returned after falling back to
// the default mode.
func (v *View) Open(ctx context.Context, projectID string) error {
	v.projectID = projectID
	v.filter = domain.FilterAll
	mode, err := readViewMode(ctx, v.prefs, projectID)
	v.mode = mode
	if err != nil {
		return fmt.Errorf("read view mode for %s: %w", projectID, err)
	}
	return nil
}

// ProjectID returns the active project, empty before the first Open.
func (v *View) ProjectID() string { return v.projectID }

func (v *View) Mode() domain.ViewMode { return v.mode }

func (v *View) Filter() domain.Filter { return v.filter }

// SetMode applies mode immediately and persists it for the active project. The
// mode stays applied when persisting fails.
func (v *View) SetMode(ctx context.Context, mode domain.ViewMode) error {
	if !mode.Valid() {
		return domain.ErrInvalidViewMode
	}
	v.mode = mode
	if v.prefs == nil || v.projectID == "" {
		return nil
	}
	if err := v.prefs.Set(ctx, ViewModeKey(v.projectID), string(mode)); err != nil {
		return fmt.Errorf("persist view mode for %s: %w", v.projectID, err)
	}
	return nil
}

func (v *View) SetFilter(f domain.Filter) error {
	if !f.Valid() {
		return domain.ErrInvalidFilter
	}
	v.filter = f
	return nil
}

// Visible returns the tasks passing the current filter, preserving order.
func (v *View) Visible(tasks []domain.Task) []domain.Task {
	out := make([]domain.Task, 0, len(tasks))
	for _, t := range tasks {
		if v.filter.Matches(t) {
			out = append(out, t)
		}
	}
	return out
}
