package queue

import (
	"encoding/json"
	"time"
)

// Status describes where an operation sits in its lifecycle.
type Status string

const (
	// StatusPending marks an operation waiting for dispatch.
	StatusPending Status = "pending"

	// StatusSyncing marks an operation currently being dispatched.
	StatusSyncing Status = "syncing"

	// StatusSynced marks an operation that completed successfully. Synced
	// operations are removed from storage, so the status only appears on
	// the in-memory copy handed to event listeners.
	StatusSynced Status = "synced"

	// StatusFailed marks an operation that exhausted its attempt budget.
	// Failed operations stay in storage until retried or removed.
	StatusFailed Status = "failed"
)

// Operation is a unit of deferred work.
type Operation struct {
	ID          string          `json:"id"`
	Type        string          `json:"type"`
	Payload     json.RawMessage `json:"payload,omitempty"`
	Status      Status          `json:"status"`
	CreatedAt   time.Time       `json:"createdAt"`
	Attempts    int             `json:"attempts"`
	LastAttempt time.Time       `json:"lastAttempt,omitzero"`
	LastError   string          `json:"lastError,omitempty"`
	Priority    int             `json:"priority,omitempty"`
}

// record is the persisted form of an Operation. Timestamps are stored as
// millisecond epochs so records survive clock representation changes.
type record struct {
	ID          string          `json:"id"`
	Type        string          `json:"type"`
	Payload     json.RawMessage `json:"payload,omitempty"`
	Status      Status          `json:"status"`
	CreatedAt   int64           `json:"createdAt"`
	Attempts    int             `json:"attempts"`
	LastAttempt int64           `json:"lastAttempt,omitempty"`
	LastError   string          `json:"lastError,omitempty"`
	Priority    int             `json:"priority,omitempty"`
}

func (op *Operation) toRecord() record {
	rec := record{
		ID:        op.ID,
		Type:      op.Type,
		Payload:   op.Payload,
		Status:    op.Status,
		CreatedAt: op.CreatedAt.UnixMilli(),
		Attempts:  op.Attempts,
		LastError: op.LastError,
		Priority:  op.Priority,
	}
	if !op.LastAttempt.IsZero() {
		rec.LastAttempt = op.LastAttempt.UnixMilli()
	}
	return rec
}

func (r record) toOperation() *Operation {
	op := &Operation{
		ID:        r.ID,
		Type:      r.Type,
		Payload:   r.Payload,
		Status:    r.Status,
		CreatedAt: time.UnixMilli(r.CreatedAt),
		Attempts:  r.Attempts,
		LastError: r.LastError,
		Priority:  r.Priority,
	}
	if r.LastAttempt != 0 {
		op.LastAttempt = time.UnixMilli(r.LastAttempt)
	}
	return op
}

// clone returns a copy safe to hand to event listeners.
func (op *Operation) clone() *Operation {
	cp := *op
	if op.Payload != nil {
		cp.Payload = make(json.RawMessage, len(op.Payload))
		copy(cp.Payload, op.Payload)
	}
	return &cp
}
