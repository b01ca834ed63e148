package model

import "time"

// Status is the lifecycle state of a tracked transfer record.
type Status string

// Lifecycle statuses. New is the sole initial state; completed, rejected and
// cancelled are terminal by convention only. The tracking store does not
// enforce transition legality.
const (
	StatusNew               Status = "new"
	StatusSubmitted         Status = "submitted"
	StatusPendingReview     Status = "pending_review"
	StatusPendingClient     Status = "pending_client"
	StatusPendingDelivering Status = "pending_delivering"
	StatusPendingReceiving  Status = "pending_receiving"
	StatusCompleted         Status = "completed"
	StatusRejected          Status = "rejected"
	StatusCancelled         Status = "cancelled"
)

// ValidStatus reports whether s is one of the known lifecycle statuses.
func ValidStatus(s Status) bool {
	switch s {
	case StatusNew, StatusSubmitted, StatusPendingReview, StatusPendingClient,
		StatusPendingDelivering, StatusPendingReceiving, StatusCompleted,
		StatusRejected, StatusCancelled:
		return true
	}
	return false
}

// StatusTransition is one append-only history entry on a tracked record.
type StatusTransition struct {
	At     time.Time `json:"timestamp"`
	From   Status    `json:"from_status"`
	To     Status    `json:"to_status"`
	Reason string    `json:"reason"`
	Actor  string    `json:"actor"`
}

// TrackedRecord is the lifecycle-managed version of a submitted transfer
// request. History grows by exactly one entry per status transition and
// UpdatedAt always matches the newest entry (or CreatedAt when empty).
type TrackedRecord struct {
	CreatedAt time.Time          `json:"created_at"`
	UpdatedAt time.Time          `json:"updated_at"`
	ID        string             `json:"id"`
	Status    Status             `json:"status"`
	Transfer  TransferRecord     `json:"transfer"`
	History   []StatusTransition `json:"status_history"`
}

// Clone returns a deep copy suitable for handing outside the owning store.
func (r *TrackedRecord) Clone() TrackedRecord {
	out := *r
	out.Transfer = r.Transfer.Clone()
	out.History = make([]StatusTransition, len(r.History))
	copy(out.History, r.History)
	return out
}
