package tracker

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubTracker struct{ name string }

func (s *stubTracker) Name() string                              { return s.name }
func (s *stubTracker) DisplayName() string                       { return s.name }
func (s *stubTracker) ConfigPrefix() string                      { return s.name }
func (s *stubTracker) Init(context.Context, *Config) error       { return nil }
func (s *stubTracker) Validate() error                           { return nil }
func (s *stubTracker) Close() error                              { return nil }
func (s *stubTracker) DeleteIssue(context.Context, string) error { return nil }
func (s *stubTracker) ListWorkflowStates(context.Context) ([]WorkflowState, error) {
	return nil, nil
}
func (s *stubTracker) CreateIssue(context.Context, *IssueDraft) (*TrackerIssue, error) {
	return &TrackerIssue{ID: "1"}, nil
}

func stubFactory(name string) Factory {
	return func() IssueTracker { return &stubTracker{name: name} }
}

func TestRegistry_NewTracker(t *testing.T) {
	r := NewRegistry()
	assert.Empty(t, r.Names())

	_, err := r.NewTracker("linear")
	require.ErrorIs(t, err, ErrUnknownTracker)

	r.Register("zebra", stubFactory("zebra"))
	r.Register(" Mock ", stubFactory("mock"))
	r.Register("alpha", stubFactory("alpha"))
	assert.Equal(t, []string{"alpha", "mock", "zebra"}, r.Names())

	a, err := r.NewTracker("MOCK")
	require.NoError(t, err)
	b, err := r.NewTracker("mock")
	require.NoError(t, err)
	assert.Equal(t, "mock", a.Name())
	assert.NotSame(t, a, b, "each call builds a fresh instance")
}

func TestRegistry_UnknownNameListsRegistered(t *testing.T) {
	r := NewRegistry()
	r.Register("linear", stubFactory("linear"))
	r.Register("jira", stubFactory("jira"))

	_, err := r.NewTracker("asana")
	require.ErrorIs(t, err, ErrUnknownTracker)
	assert.Contains(t, err.Error(), `"asana"`)
	assert.Contains(t, err.Error(), "registered: jira, linear")
}

func TestRegistry_RegisterPanics(t *testing.T) {
	r := NewRegistry()
	r.Register("linear", stubFactory("linear"))

	assert.Panics(t, func() { r.Register("linear", stubFactory("linear")) })
	assert.Panics(t, func() { r.Register("  ", stubFactory("x")) })
	assert.Panics(t, func() { r.Register("nilfactory", nil) })
}
