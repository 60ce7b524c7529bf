package tracker

import (
	"context"
)

// IssueTracker is the plugin interface that all tracker integrations must implement.
// Each external system provides an adapter implementing this interface. The batch
// orchestrator uses it to create proposed tickets and to reverse them on undo.
type IssueTracker interface {
	// Name returns the lowercase identifier for this tracker (e.g., "linear").
	Name() string

	// DisplayName returns the human-readable name (e.g., "Linear").
	DisplayName() string

	// ConfigPrefix returns the config key prefix (e.g., "linear").
	ConfigPrefix() string

	// Init initializes the tracker with its configuration.
	// Called once before any other operation.
	Init(ctx context.Context, cfg *Config) error

	// Validate checks that the tracker is properly configured.
	Validate() error

	// Close releases any resources held by the tracker.
	Close() error

	// ListWorkflowStates returns the workflow states configured in the tracker.
	ListWorkflowStates(ctx context.Context) ([]WorkflowState, error)

	// CreateIssue creates a new issue in the external tracker.
	// Returns the created issue with its external ID and URL populated.
	// A response that is not explicitly marked successful is an error.
	CreateIssue(ctx context.Context, draft *IssueDraft) (*TrackerIssue, error)

	// DeleteIssue removes an issue by its tracker-internal ID.
	DeleteIssue(ctx context.Context, id string) error
}
