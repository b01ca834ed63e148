package tracking

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/quillon/acatflow/internal/common"
	"github.com/quillon/acatflow/internal/model"
)

// MemoryStore is the in-memory Store implementation backing single-process
// deployments. A single mutex guards the record map; history append, status
// set and updated-at set happen in one critical section.
type MemoryStore struct {
	now     func() time.Time
	records map[string]*model.TrackedRecord
	notifier
	mu sync.RWMutex
}

// NewMemoryStore creates an empty in-memory store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		records: make(map[string]*model.TrackedRecord),
		now:     time.Now,
	}
}

// Create allocates a fresh id and stores the record with status new and an
// empty history. No validation happens here; callers validate beforehand.
func (s *MemoryStore) Create(_ context.Context, transfer model.TransferRecord, actor string) (model.TrackedRecord, error) {
	now := s.now().UTC()
	record := model.TrackedRecord{
		ID:        uuid.NewString(),
		Status:    model.StatusNew,
		Transfer:  transfer.Clone(),
		CreatedAt: now,
		UpdatedAt: now,
	}

	s.mu.Lock()
	s.records[record.ID] = &record
	s.mu.Unlock()

	s.recordAudit("create", "record", record.ID, actor, map[string]any{
		"contra_firm":        transfer.ContraFirm,
		"delivering_account": transfer.DeliveringAccount,
		"receiving_account":  transfer.ReceivingAccount,
		"status":             string(record.Status),
	})

	return record.Clone(), nil
}

// Get returns a snapshot of one record.
func (s *MemoryStore) Get(_ context.Context, id string) (model.TrackedRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	record, ok := s.records[id]
	if !ok {
		return model.TrackedRecord{}, common.ErrNotFound
	}
	return record.Clone(), nil
}

// List returns snapshots of all current records in no particular order.
func (s *MemoryStore) List(_ context.Context) ([]model.TrackedRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]model.TrackedRecord, 0, len(s.records))
	for _, record := range s.records {
		out = append(out, record.Clone())
	}
	return out, nil
}

// UpdateStatus appends a history entry and moves the record to newStatus.
// Transition legality is not checked: any status may follow any status.
func (s *MemoryStore) UpdateStatus(_ context.Context, id string, newStatus model.Status, reason, actor string) (model.TrackedRecord, error) {
	s.mu.Lock()
	record, ok := s.records[id]
	if !ok {
		s.mu.Unlock()
		return model.TrackedRecord{}, common.ErrNotFound
	}

	now := s.now().UTC()
	transition := model.StatusTransition{
		From:   record.Status,
		To:     newStatus,
		Reason: reason,
		Actor:  actor,
		At:     now,
	}
	record.History = append(record.History, transition)
	record.Status = newStatus
	record.UpdatedAt = now
	snapshot := record.Clone()
	s.mu.Unlock()

	s.emitStatusChange(StatusChange{
		RecordID:   id,
		ContraFirm: snapshot.Transfer.ContraFirm,
		From:       transition.From,
		To:         transition.To,
		Reason:     reason,
		Actor:      actor,
		At:         now,
	})
	s.recordAudit("status_change", "record", id, actor, map[string]any{
		"from_status": string(transition.From),
		"to_status":   string(transition.To),
		"reason":      reason,
	})

	return snapshot, nil
}

// Delete removes a record if present. Deleting an unknown id is a no-op.
func (s *MemoryStore) Delete(_ context.Context, id string) error {
	s.mu.Lock()
	delete(s.records, id)
	s.mu.Unlock()
	return nil
}

// Close is a no-op for the in-memory store.
func (s *MemoryStore) Close() error {
	return nil
}
