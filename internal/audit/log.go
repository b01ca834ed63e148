// Package audit keeps an append-only trail of state-changing operations.
package audit

import (
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/quillon/acatflow/internal/model"
)

// Filter narrows an Entries listing. Zero values match everything.
type Filter struct {
	Action     string
	EntityType string
	EntityID   string
	Limit      int
}

// Log is an in-memory append-only audit trail. It satisfies
// tracking.AuditSink so stores can report their mutations here.
type Log struct {
	now     func() time.Time
	entries []model.AuditEntry
	mu      sync.RWMutex
}

// NewLog creates an empty audit log.
func NewLog() *Log {
	return &Log{now: time.Now}
}

// Record appends one entry. Entry IDs are generated here; callers never
// supply them. Detail is copied so later mutation by the caller cannot
// rewrite history.
func (l *Log) Record(action, entityType, entityID, actor string, detail map[string]any) {
	entry := model.AuditEntry{
		ID:         uuid.NewString(),
		At:         l.now().UTC(),
		Action:     action,
		EntityType: entityType,
		EntityID:   entityID,
		Actor:      actor,
		Detail:     copyDetail(detail),
	}

	l.mu.Lock()
	l.entries = append(l.entries, entry)
	l.mu.Unlock()
}

// Entries returns matching entries in append order. A non-positive limit
// means no limit; a positive limit keeps the most recent entries.
func (l *Log) Entries(filter Filter) []model.AuditEntry {
	l.mu.RLock()
	defer l.mu.RUnlock()

	out := make([]model.AuditEntry, 0, len(l.entries))
	for _, entry := range l.entries {
		if filter.Action != "" && entry.Action != filter.Action {
			continue
		}
		if filter.EntityType != "" && entry.EntityType != filter.EntityType {
			continue
		}
		if filter.EntityID != "" && entry.EntityID != filter.EntityID {
			continue
		}
		out = append(out, entry)
	}

	if filter.Limit > 0 && len(out) > filter.Limit {
		out = out[len(out)-filter.Limit:]
	}
	return out
}

// Len reports the total number of entries recorded.
func (l *Log) Len() int {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return len(l.entries)
}

func copyDetail(in map[string]any) map[string]any {
	if in == nil {
		return nil
	}
	out := make(map[string]any, len(in))
	for k, v := range in {
		out[k] = v
	}
	return out
}
