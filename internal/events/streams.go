package events

import (
	"fmt"

	"github.com/nats-io/nats.go"

	"github.com/taskdrop/taskdrop/internal/batch"
)

const (
	// StreamTaskBatchEvents is the JetStream stream for batch lifecycle events.
	StreamTaskBatchEvents = "TASK_BATCH_EVENTS"

	// SubjectPrefix is the subject prefix for all batch events.
	SubjectPrefix = "taskbatch."
)

// SubjectFor returns the NATS subject for an event kind.
// Format: taskbatch.<kind> (e.g., taskbatch.committed).
func SubjectFor(kind batch.EventKind) string {
	return SubjectPrefix + string(kind)
}

// EnsureStreams creates the batch events stream if it does not already exist.
func EnsureStreams(js nats.JetStreamContext) error {
	if _, err := js.StreamInfo(StreamTaskBatchEvents); err == nil {
		return nil
	}

	_, err := js.AddStream(&nats.StreamConfig{
		Name:     StreamTaskBatchEvents,
		Subjects: []string{SubjectPrefix + ">"},
		Storage:  nats.FileStorage,
		// Retain last 10000 messages or 64MB, whichever comes first.
		MaxMsgs:  10000,
		MaxBytes: 64 << 20,
	})
	if err != nil {
		return fmt.Errorf("create %s stream: %w", StreamTaskBatchEvents, err)
	}
	return nil
}
