package model

import "time"

// AuditEntry records who did what, when. Entries are immutable once created
// and the audit log is append-only.
type AuditEntry struct {
	At         time.Time      `json:"timestamp"`
	Detail     map[string]any `json:"detail,omitempty"`
	ID         string         `json:"id"`
	Action     string         `json:"action"`
	EntityType string         `json:"entity_type"`
	EntityID   string         `json:"entity_id"`
	Actor      string         `json:"actor"`
}
