// Package tracker provides a plugin framework for external issue tracker integrations.
//
// It defines the IssueTracker interface, a name registry for tracker plugins, and the
// workflow-state resolution shared by every tracker that exposes named states.
package tracker

import (
	"github.com/taskdrop/taskdrop/internal/types"
)

// WorkflowState is a tracker-native workflow state.
type WorkflowState struct {
	ID   string `json:"id" yaml:"id"`
	Name string `json:"name" yaml:"name"`
	Type string `json:"type" yaml:"type"` // Tracker state category, e.g. "unstarted", "started"
}

// IssueDraft is the tracker-neutral payload of a create call.
type IssueDraft struct {
	Title       string
	Description string
	Priority    types.Priority // Semantic priority; each tracker maps it to its own scale
	StateID     string         // Resolved tracker state ID; empty leaves the tracker default
}

// TrackerIssue represents an issue created in an external tracker.
type TrackerIssue struct {
	ID         string // External tracker's internal ID (e.g., UUID)
	Identifier string // Human-readable identifier (e.g., "TEAM-123")
	URL        string // Web URL to the issue
	Title      string

	// Raw data for tracker-specific processing
	Raw interface{}
}

// ToCreated converts the tracker record into the shared CreatedIssue type.
func (ti *TrackerIssue) ToCreated() types.CreatedIssue {
	return types.CreatedIssue{
		ID:         ti.ID,
		Identifier: ti.Identifier,
		Title:      ti.Title,
		URL:        ti.URL,
	}
}

// ErrNotInitialized is returned when a tracker operation is attempted before Init.
type ErrNotInitialized struct {
	Tracker string
}

func (e *ErrNotInitialized) Error() string {
	return e.Tracker + " tracker not initialized; call Init first"
}
