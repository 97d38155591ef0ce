// Package history keeps bounded, thread-safe records of recent generator
// choices so persona and fear selection can avoid repeating themselves.
package history

import (
	"sync"

	"github.com/BTreeMap/PitchIQ/internal/models"
)

// Capacity limits.
const (
	DefaultCategoryCapacity = 50
	DefaultLogCapacity      = 1000
)

// Tracker records values per category and reports the most recent ones.
type Tracker interface {
	// Recent returns up to n of the latest values in category, oldest first.
	Recent(category string, n int) []string
	// Record appends value to category, evicting the oldest when full.
	Record(category, value string)
}

// MemoryTracker is an in-process Tracker with a bounded FIFO per category.
type MemoryTracker struct {
	mu       sync.Mutex
	capacity int
	values   map[string][]string
}

// NewMemoryTracker creates a tracker; capacity <= 0 uses DefaultCategoryCapacity.
func NewMemoryTracker(capacity int) *MemoryTracker {
	if capacity <= 0 {
		capacity = DefaultCategoryCapacity
	}
	return &MemoryTracker{capacity: capacity, values: make(map[string][]string)}
}

// Recent implements Tracker.
func (t *MemoryTracker) Recent(category string, n int) []string {
	if n <= 0 {
		return nil
	}
	t.mu.Lock()
	defer t.mu.Unlock()
	vals := t.values[category]
	if n > len(vals) {
		n = len(vals)
	}
	out := make([]string, n)
	copy(out, vals[len(vals)-n:])
	return out
}

// Record implements Tracker.
func (t *MemoryTracker) Record(category, value string) {
	t.mu.Lock()
	defer t.mu.Unlock()
	vals := append(t.values[category], value)
	if over := len(vals) - t.capacity; over > 0 {
		vals = append([]string(nil), vals[over:]...)
	}
	t.values[category] = vals
}

// Count returns how many times value appears in the retained history of category.
func (t *MemoryTracker) Count(category, value string) int {
	t.mu.Lock()
	defer t.mu.Unlock()
	n := 0
	for _, v := range t.values[category] {
		if v == value {
			n++
		}
	}
	return n
}

// GenerationLog is a bounded log of persona generations used for bias reports.
type GenerationLog struct {
	mu       sync.Mutex
	capacity int
	records  []models.GenerationRecord
}

// NewGenerationLog creates a log; capacity <= 0 uses DefaultLogCapacity.
func NewGenerationLog(capacity int) *GenerationLog {
	if capacity <= 0 {
		capacity = DefaultLogCapacity
	}
	return &GenerationLog{capacity: capacity}
}

// Add appends a record, evicting the oldest when the log is full.
func (l *GenerationLog) Add(rec models.GenerationRecord) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.records = append(l.records, rec)
	if over := len(l.records) - l.capacity; over > 0 {
		l.records = append([]models.GenerationRecord(nil), l.records[over:]...)
	}
}

// Recent returns up to n of the latest records, oldest first.
func (l *GenerationLog) Recent(n int) []models.GenerationRecord {
	l.mu.Lock()
	defer l.mu.Unlock()
	if n <= 0 || n > len(l.records) {
		n = len(l.records)
	}
	out := make([]models.GenerationRecord, n)
	copy(out, l.records[len(l.records)-n:])
	return out
}

// Len returns the number of retained records.
func (l *GenerationLog) Len() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.records)
}
