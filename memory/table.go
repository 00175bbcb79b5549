// Package memory holds the process-local table of operational facts.
//
// The table is never persisted; recoverable state belongs in the cache
// mapping the snapshot store manages. Entries are inserted or
// overwritten, never deleted.
package memory

import (
	"sync"

	"github.com/mindloop/cortex/logger"
)

// Table maps string keys to arbitrary values. Safe for concurrent use.
type Table struct {
	log     *logger.Logger
	mu      sync.RWMutex
	entries map[string]any
}

// NewTable creates an empty table logging its mutations to log.
func NewTable(log *logger.Logger) *Table {
	return &Table{log: log, entries: make(map[string]any)}
}

// Update inserts or overwrites the entry for key. The change is logged
// for observability.
func (t *Table) Update(key string, value any) {
	t.mu.Lock()
	t.entries[key] = value
	t.mu.Unlock()
	t.log.Infof("[MEMORY] updated: %s -> %v", key, value)
}

// Get returns the value for key and whether it is present.
func (t *Table) Get(key string) (any, bool) {
	t.mu.RLock()
	defer t.mu.RUnlock()
	v, ok := t.entries[key]
	return v, ok
}

// Len returns the number of entries.
func (t *Table) Len() int {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return len(t.entries)
}
