package models

import "time"

// OperationEvent is a single operation-log entry.
type OperationEvent struct {
	EventID     string    `json:"event_id"`
	OccurredAt  time.Time `json:"occurred_at"`
	Type        string    `json:"type"`        // REQUESTED | DISPATCHED | CONVERGED | PARTIAL | ERROR
	Description string    `json:"description"` // human-readable
	Metadata    any       `json:"metadata,omitempty"`
}
