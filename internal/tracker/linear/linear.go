// Package linear provides a Linear integration plugin for the tracker framework.
// It wraps the internal/linear client to implement the IssueTracker interface.
package linear

import (
	"context"
	"fmt"

	"github.com/taskdrop/taskdrop/internal/linear"
	"github.com/taskdrop/taskdrop/internal/tracker"
)

func init() {
	tracker.Register("linear", func() tracker.IssueTracker {
		return &LinearTracker{}
	})
}

// LinearTracker implements the tracker.IssueTracker interface for Linear.
type LinearTracker struct {
	client *linear.Client
	config *tracker.Config
}

// NewWithClient returns a tracker bound to an existing client, skipping Init.
func NewWithClient(client *linear.Client) *LinearTracker {
	return &LinearTracker{client: client}
}

// Name returns the tracker identifier.
func (t *LinearTracker) Name() string {
	return "linear"
}

// DisplayName returns the human-readable tracker name.
func (t *LinearTracker) DisplayName() string {
	return "Linear"
}

// ConfigPrefix returns the config key prefix.
func (t *LinearTracker) ConfigPrefix() string {
	return "linear"
}

// Init initializes the tracker with configuration.
func (t *LinearTracker) Init(ctx context.Context, cfg *tracker.Config) error {
	t.config = cfg

	apiKey, err := cfg.GetRequired(tracker.CommonConfig.APIKey)
	if err != nil {
		return err
	}
	teamID, err := cfg.GetRequired(tracker.CommonConfig.TeamID)
	if err != nil {
		return err
	}

	t.client = linear.NewClient(apiKey, teamID)
	if endpoint, _ := cfg.Get(tracker.CommonConfig.APIEndpoint); endpoint != "" {
		t.client = t.client.WithEndpoint(endpoint)
	}
	if projectID, _ := cfg.Get(tracker.CommonConfig.ProjectID); projectID != "" {
		t.client = t.client.WithProjectID(projectID)
	}
	return nil
}

// Validate checks that the tracker is properly configured.
func (t *LinearTracker) Validate() error {
	if t.client == nil {
		return &tracker.ErrNotInitialized{Tracker: "linear"}
	}
	if t.client.TeamID == "" {
		return fmt.Errorf("linear: team ID is empty")
	}
	return nil
}

// Close releases any resources. The HTTP client holds none worth closing.
func (t *LinearTracker) Close() error {
	return nil
}

// ListWorkflowStates returns the team's workflow states in API order.
func (t *LinearTracker) ListWorkflowStates(ctx context.Context) ([]tracker.WorkflowState, error) {
	if err := t.Validate(); err != nil {
		return nil, err
	}
	states, err := t.client.GetTeamStates(ctx)
	if err != nil {
		return nil, err
	}
	out := make([]tracker.WorkflowState, 0, len(states))
	for _, s := range states {
		out = append(out, tracker.WorkflowState{ID: s.ID, Name: s.Name, Type: s.Type})
	}
	return out, nil
}

// CreateIssue creates a Linear issue from the draft.
func (t *LinearTracker) CreateIssue(ctx context.Context, draft *tracker.IssueDraft) (*tracker.TrackerIssue, error) {
	if err := t.Validate(); err != nil {
		return nil, err
	}
	issue, err := t.client.CreateIssue(ctx, draft.Title, draft.Description,
		linear.PriorityToLinear(draft.Priority), draft.StateID)
	if err != nil {
		return nil, err
	}
	return linearToTrackerIssue(issue), nil
}

// DeleteIssue deletes a Linear issue by its internal ID.
func (t *LinearTracker) DeleteIssue(ctx context.Context, id string) error {
	if err := t.Validate(); err != nil {
		return err
	}
	return t.client.DeleteIssue(ctx, id)
}

func linearToTrackerIssue(li *linear.Issue) *tracker.TrackerIssue {
	return &tracker.TrackerIssue{
		ID:         li.ID,
		Identifier: li.Identifier,
		URL:        li.URL,
		Title:      li.Title,
		Raw:        li,
	}
}
