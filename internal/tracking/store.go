// Package tracking owns the canonical lifecycle state of submitted transfer
// records: creation, status transitions with reasons, and the append-only
// history behind them.
package tracking

import (
	"context"
	"sync"
	"time"

	"github.com/quillon/acatflow/internal/model"
)

// StatusChange is emitted after every successful status transition.
type StatusChange struct {
	At         time.Time
	RecordID   string
	ContraFirm string
	From       model.Status
	To         model.Status
	Reason     string
	Actor      string
}

// Subscriber consumes status-change events. Implementations must not call
// back into the store from the callback.
type Subscriber interface {
	StatusChanged(change StatusChange)
}

// AuditSink receives audit notifications for create and status-change
// operations. A nil sink is allowed and changes nothing about store
// behavior.
type AuditSink interface {
	Record(action, entityType, entityID, actor string, detail map[string]any)
}

// Store is the contract for tracked-record persistence. Get and UpdateStatus
// return common.ErrNotFound for unknown ids; Delete is an idempotent no-op.
type Store interface {
	Create(ctx context.Context, transfer model.TransferRecord, actor string) (model.TrackedRecord, error)
	Get(ctx context.Context, id string) (model.TrackedRecord, error)
	List(ctx context.Context) ([]model.TrackedRecord, error)
	UpdateStatus(ctx context.Context, id string, newStatus model.Status, reason, actor string) (model.TrackedRecord, error)
	Delete(ctx context.Context, id string) error
	Close() error
}

// notifier fans out store side effects to subscribers and the audit sink.
// Callbacks run outside the owning store's mutex.
type notifier struct {
	audit       AuditSink
	subscribers []Subscriber
	mu          sync.RWMutex
}

// Subscribe registers a status-change subscriber.
func (n *notifier) Subscribe(s Subscriber) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.subscribers = append(n.subscribers, s)
}

// SetAuditSink attaches an audit sink. Passing nil detaches it.
func (n *notifier) SetAuditSink(sink AuditSink) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.audit = sink
}

func (n *notifier) emitStatusChange(change StatusChange) {
	n.mu.RLock()
	subs := make([]Subscriber, len(n.subscribers))
	copy(subs, n.subscribers)
	n.mu.RUnlock()

	for _, s := range subs {
		s.StatusChanged(change)
	}
}

func (n *notifier) recordAudit(action, entityType, entityID, actor string, detail map[string]any) {
	n.mu.RLock()
	sink := n.audit
	n.mu.RUnlock()

	if sink != nil {
		sink.Record(action, entityType, entityID, actor, detail)
	}
}
