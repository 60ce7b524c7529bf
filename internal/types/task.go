// Package types defines the core data types shared across taskdrop packages.
package types

import (
	"fmt"
	"strings"
)

// Priority is the tool-agnostic importance of a proposed task.
type Priority string

// Priority constants
const (
	PriorityUrgent Priority = "urgent"
	PriorityHigh   Priority = "high"
	PriorityMedium Priority = "medium"
	PriorityLow    Priority = "low"
)

// IsValid checks if the priority is one of the known values.
func (p Priority) IsValid() bool {
	switch p {
	case PriorityUrgent, PriorityHigh, PriorityMedium, PriorityLow:
		return true
	}
	return false
}

// ParsePriority normalizes a priority string case-insensitively.
// Unknown or empty values map to PriorityMedium.
func ParsePriority(s string) Priority {
	p := Priority(strings.ToLower(strings.TrimSpace(s)))
	if p.IsValid() {
		return p
	}
	return PriorityMedium
}

// WorkflowState is the tool-agnostic workflow state of a proposed task.
// Trackers resolve it to their own state identifiers before creation.
type WorkflowState string

// WorkflowState constants
const (
	StateTodo       WorkflowState = "Todo"
	StateBacklog    WorkflowState = "Backlog"
	StateInProgress WorkflowState = "In Progress"
	StateDone       WorkflowState = "Done"
)

// AllWorkflowStates lists the semantic states in display order.
var AllWorkflowStates = []WorkflowState{StateTodo, StateBacklog, StateInProgress, StateDone}

// IsValid checks if the state is one of the known values.
func (s WorkflowState) IsValid() bool {
	switch s {
	case StateTodo, StateBacklog, StateInProgress, StateDone:
		return true
	}
	return false
}

// ParseWorkflowState matches a state name case-insensitively, ignoring
// surrounding space and treating "-" and "_" as spaces ("in_progress").
// Unknown or empty values map to StateTodo.
func ParseWorkflowState(s string) WorkflowState {
	norm := strings.ToLower(strings.TrimSpace(s))
	norm = strings.NewReplacer("-", " ", "_", " ").Replace(norm)
	for _, st := range AllWorkflowStates {
		if strings.ToLower(string(st)) == norm {
			return st
		}
	}
	return StateTodo
}

// ProposedTask is a structured work item produced from one line of operator
// input. It is immutable once produced.
type ProposedTask struct {
	Title       string        `json:"title" yaml:"title"`
	Description string        `json:"description" yaml:"description"`
	Priority    Priority      `json:"priority" yaml:"priority"`
	State       WorkflowState `json:"state" yaml:"state"`
}

// Validate checks that the task can be sent to a tracker.
func (t *ProposedTask) Validate() error {
	if strings.TrimSpace(t.Title) == "" {
		return fmt.Errorf("title is required")
	}
	return nil
}

// CreatedIssue is the tracker's record of an issue created from a ProposedTask.
type CreatedIssue struct {
	ID         string `json:"id" yaml:"id"`                                     // Tracker-internal ID (used for deletion)
	Identifier string `json:"identifier,omitempty" yaml:"identifier,omitempty"` // Human-readable key, e.g. "ENG-123"
	Title      string `json:"title" yaml:"title"`
	URL        string `json:"url" yaml:"url"`
}
