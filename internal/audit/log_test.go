package audit

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/quillon/acatflow/internal/tracking"
)

func TestRecordAssignsIdentityAndTimestamp(t *testing.T) {
	log := NewLog()
	log.now = func() time.Time {
		return time.Date(2024, 3, 15, 12, 0, 0, 0, time.UTC)
	}

	log.Record("create", "transfer_record", "rec-1", "api", map[string]any{"status": "new"})

	entries := log.Entries(Filter{})
	require.Len(t, entries, 1)
	assert.NotEmpty(t, entries[0].ID)
	assert.Equal(t, time.Date(2024, 3, 15, 12, 0, 0, 0, time.UTC), entries[0].At)
	assert.Equal(t, "create", entries[0].Action)
	assert.Equal(t, "transfer_record", entries[0].EntityType)
	assert.Equal(t, "rec-1", entries[0].EntityID)
	assert.Equal(t, "api", entries[0].Actor)
	assert.Equal(t, "new", entries[0].Detail["status"])
}

func TestRecordCopiesDetail(t *testing.T) {
	log := NewLog()
	detail := map[string]any{"status": "new"}

	log.Record("create", "transfer_record", "rec-1", "api", detail)
	detail["status"] = "mutated"

	entries := log.Entries(Filter{})
	require.Len(t, entries, 1)
	assert.Equal(t, "new", entries[0].Detail["status"])
}

func TestEntriesFiltering(t *testing.T) {
	log := NewLog()
	log.Record("create", "transfer_record", "rec-1", "api", nil)
	log.Record("status_change", "transfer_record", "rec-1", "ops", nil)
	log.Record("create", "transfer_record", "rec-2", "api", nil)

	assert.Len(t, log.Entries(Filter{Action: "create"}), 2)
	assert.Len(t, log.Entries(Filter{EntityID: "rec-1"}), 2)
	assert.Len(t, log.Entries(Filter{Action: "status_change", EntityID: "rec-2"}), 0)
	assert.Len(t, log.Entries(Filter{EntityType: "transfer_record"}), 3)
}

func TestEntriesLimitKeepsMostRecent(t *testing.T) {
	log := NewLog()
	log.Record("create", "transfer_record", "rec-1", "api", nil)
	log.Record("create", "transfer_record", "rec-2", "api", nil)
	log.Record("create", "transfer_record", "rec-3", "api", nil)

	entries := log.Entries(Filter{Limit: 2})
	require.Len(t, entries, 2)
	assert.Equal(t, "rec-2", entries[0].EntityID)
	assert.Equal(t, "rec-3", entries[1].EntityID)
}

func TestEntriesAppendOrder(t *testing.T) {
	log := NewLog()
	log.Record("create", "transfer_record", "rec-1", "api", nil)
	log.Record("status_change", "transfer_record", "rec-1", "ops", nil)

	entries := log.Entries(Filter{})
	require.Len(t, entries, 2)
	assert.Equal(t, "create", entries[0].Action)
	assert.Equal(t, "status_change", entries[1].Action)
	assert.Equal(t, 2, log.Len())
}

func TestLogSatisfiesAuditSink(t *testing.T) {
	var _ tracking.AuditSink = NewLog()
}
