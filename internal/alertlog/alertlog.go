// Package alertlog keeps a bounded, newest-first in-memory record of
// processed alerts and their delivery outcomes.
package alertlog

import (
	"sync"

	"github.com/good-yellow-bee/alertbridge/internal/models"
)

// DefaultCapacity is the number of records retained when none is given.
const DefaultCapacity = 100

// Log is a capacity-bounded alert log. Insertion order is newest first;
// once capacity is reached the oldest record is evicted.
type Log struct {
	mu       sync.RWMutex
	capacity int
	records  []models.AuditRecord
}

// New creates a Log with the given capacity. Capacity values below 1 fall
// back to DefaultCapacity.
func New(capacity int) *Log {
	if capacity < 1 {
		capacity = DefaultCapacity
	}
	return &Log{
		capacity: capacity,
		records:  make([]models.AuditRecord, 0, capacity),
	}
}

// Append inserts a record at the front of the log, evicting the oldest
// record when the log is full.
func (l *Log) Append(rec models.AuditRecord) {
	l.mu.Lock()
	defer l.mu.Unlock()

	if len(l.records) == l.capacity {
		l.records = l.records[:l.capacity-1]
	}
	l.records = append([]models.AuditRecord{rec}, l.records...)
}

// Alerts returns a snapshot of the stored alerts, newest first.
func (l *Log) Alerts() []models.Alert {
	l.mu.RLock()
	defer l.mu.RUnlock()

	alerts := make([]models.Alert, len(l.records))
	for i, rec := range l.records {
		alerts[i] = rec.Alert
	}
	return alerts
}

// Audit returns a snapshot of the full audit trail, newest first.
func (l *Log) Audit() []models.AuditRecord {
	l.mu.RLock()
	defer l.mu.RUnlock()

	out := make([]models.AuditRecord, len(l.records))
	copy(out, l.records)
	return out
}

// Len returns the number of stored records.
func (l *Log) Len() int {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return len(l.records)
}
