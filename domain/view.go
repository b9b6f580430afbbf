package domain

import "strings"

// ViewMode is the display form of a project's tasks.
type ViewMode string

const (
	ViewList   ViewMode = "list"
	ViewKanban ViewMode = "kanban"

	DefaultViewMode = ViewList
)

func (m ViewMode) Valid() bool {
	return m == ViewList || m == ViewKanban
}

// ParseViewMode converts raw input into a ViewMode.
func ParseViewMode(raw string) (ViewMode, error) {
	m := ViewMode(strings.TrimSpace(raw))
	if !m.Valid() {
		return "", ErrInvalidViewMode
	}
	return m, nil
}

// Filter restricts the visible tasks to one status, or none with FilterAll.
type Filter string

const FilterAll Filter = "all"

func (f Filter) Valid() bool {
	return f == FilterAll || Status(f).Valid()
}

// Matches reports whether t passes the filter. Matching is exact.
func (f Filter) Matches(t Task) bool {
	if f == FilterAll {
		return true
	}
	return t.Status == Status(f)
}

// ParseFilter converts raw input into a Filter. Empty input means FilterAll.
func ParseFilter(raw string) (Filter, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return FilterAll, nil
	}
	f := Filter(raw)
	if !f.Valid() {
		return "", ErrInvalidFilter
	}
	return f, nil
}

// FilterFor returns the filter selecting a single status.
func FilterFor(s Status) Filter { return Filter(s) }
