// Package settings provides durable, user-scoped temporary settings: small
// flags and strings remembered across sessions.
package settings

import (
	"log/slog"
	"strconv"
	"sync"
)

// Well-known keys.
const (
	KeyCTADismissed        = "search.contexts.ctaDismissed"
	KeySelectedContextSpec = "search.contexts.selectedSpec"
)

// Store is a key/value store for temporary settings.
type Store interface {
	// Get returns the stored value, or ok=false when the key was never set.
	Get(key string) (value string, ok bool, err error)
	// Set writes value under key.
	Set(key, value string) error
}

// Bool reads key as a boolean. Missing, unreadable and unparsable values
// yield def; read errors are logged.
func Bool(s Store, key string, def bool) bool {
	v, ok, err := s.Get(key)
	if err != nil {
		slog.Warn("settings: read failed", "key", key, "err", err)
		return def
	}
	if !ok {
		return def
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		return def
	}
	return b
}

// SetBool writes b under key.
func SetBool(s Store, key string, b bool) error {
	return s.Set(key, strconv.FormatBool(b))
}

// String reads key, returning def when it is missing, empty or unreadable.
func String(s Store, key, def string) string {
	v, ok, err := s.Get(key)
	if err != nil {
		slog.Warn("settings: read failed", "key", key, "err", err)
		return def
	}
	if !ok || v == "" {
		return def
	}
	return v
}

// Memory is an in-process Store.
type Memory struct {
	mu     sync.RWMutex
	values map[string]string
	writes int
}

// NewMemory returns an empty in-memory store.
func NewMemory() *Memory {
	return &Memory{values: make(map[string]string)}
}

// Get implements Store.
func (m *Memory) Get(key string) (string, bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	v, ok := m.values[key]
	return v, ok, nil
}

// Set implements Store.
func (m *Memory) Set(key, value string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.values[key] = value
	m.writes++
	return nil
}

// Writes returns how many Set calls the store has received.
func (m *Memory) Writes() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.writes
}
