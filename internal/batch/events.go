package batch

import (
	"context"
	"time"
)

// EventKind names a batch lifecycle event.
type EventKind string

const (
	EventProposed  EventKind = "proposed"
	EventCommitted EventKind = "committed"
	EventPartial   EventKind = "partial"
	EventCancelled EventKind = "cancelled"
	EventReverted  EventKind = "reverted"
)

// Event describes one lifecycle transition for downstream consumers.
type Event struct {
	Kind       EventKind `json:"kind"`
	Token      Token     `json:"token,omitempty"`
	TaskCount  int       `json:"task_count"`
	CreatedIDs []string  `json:"created_ids,omitempty"`
	Failures   int       `json:"failures,omitempty"`
	Timestamp  time.Time `json:"timestamp"`
}

// EventSink receives lifecycle events. Implementations must not block the
// caller for long and must swallow their own delivery errors.
type EventSink interface {
	Publish(ctx context.Context, ev Event)
}

type nopSink struct{}

func (nopSink) Publish(context.Context, Event) {}
