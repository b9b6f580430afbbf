package board

import (
	"context"
	"sync"

	"taskboard/domain"
)

// ViewModeKeyPrefix prefixes the per-project view mode preference key.
const ViewModeKeyPrefix = "tasks-view-mode:"

// ViewModeKey returns the preference key holding projectID's view mode.
func ViewModeKey(projectID string) string {
	return ViewModeKeyPrefix + projectID
}

// Preferences is a string key-value store that outlives a session. Get returns
// an empty string and a nil error for absent keys.
type Preferences interface {
	Get(ctx context.Context, key string) (string, error)
	Set(ctx context.Context, key, value string) error
}

// MemoryPreferences keeps preferences in process memory.
type MemoryPreferences struct {
	mu     sync.RWMutex
	values map[string]string
}

func NewMemoryPreferences() *MemoryPreferences {
	return &MemoryPreferences{values: make(map[string]string)}
}

func (m *MemoryPreferences) Get(_ context.Context, key string) (string, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.values[key], nil
}

func (m *MemoryPreferences) Set(_ context.Context, key, value string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.values[key] = value
	return nil
}

// readViewMode loads a stored mode. Absent or unrecognised values yield the default.
func readViewMode(ctx context.Context, prefs Preferences, projectID string) (domain.ViewMode, error) {
	if prefs == nil {
		return domain.DefaultViewMode, nil
	}
	raw, err := prefs.Get(ctx, ViewModeKey(projectID))
	if err != nil {
		return domain.DefaultViewMode, err
	}
	mode := domain.ViewMode(raw)
	if !mode.Valid() {
		return domain.DefaultViewMode, nil
	}
	return mode, nil
}
