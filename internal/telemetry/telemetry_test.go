package telemetry

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/taskdrop/taskdrop/internal/tracker"
)

type fakeTracker struct {
	deleteErr error
}

func (f *fakeTracker) Name() string                                { return "fake" }
func (f *fakeTracker) DisplayName() string                         { return "Fake" }
func (f *fakeTracker) ConfigPrefix() string                        { return "fake" }
func (f *fakeTracker) Init(context.Context, *tracker.Config) error { return nil }
func (f *fakeTracker) Validate() error                             { return nil }
func (f *fakeTracker) Close() error                                { return nil }
func (f *fakeTracker) DeleteIssue(context.Context, string) error   { return f.deleteErr }
func (f *fakeTracker) ListWorkflowStates(context.Context) ([]tracker.WorkflowState, error) {
	return []tracker.WorkflowState{{ID: "s1"}}, nil
}
func (f *fakeTracker) CreateIssue(_ context.Context, d *tracker.IssueDraft) (*tracker.TrackerIssue, error) {
	return &tracker.TrackerIssue{ID: "id-" + d.Title, Title: d.Title}, nil
}

func TestInitDisabledInstallsNoop(t *testing.T) {
	require.NoError(t, Init(context.Background(), Options{ServiceName: "taskdrop", Version: "test"}))
	assert.False(t, Enabled())
	assert.NoError(t, Shutdown(context.Background()))
}

func TestWrapTrackerDisabledReturnsInner(t *testing.T) {
	require.NoError(t, Init(context.Background(), Options{}))
	inner := &fakeTracker{}
	assert.Same(t, inner, WrapTracker(inner))
}

func TestInitEnabledWrapsTracker(t *testing.T) {
	ctx := context.Background()
	require.NoError(t, Init(ctx, Options{Enabled: true, Stdout: true, Version: "test"}))
	t.Cleanup(func() { _ = Init(ctx, Options{}) })
	assert.True(t, Enabled())

	wrapped := WrapTracker(&fakeTracker{})
	_, ok := wrapped.(*InstrumentedTracker)
	assert.True(t, ok, "enabled telemetry instruments trackers")

	require.NoError(t, Shutdown(ctx))
	assert.False(t, Enabled())
}

func TestInstrumentedTrackerDelegates(t *testing.T) {
	inner := &fakeTracker{deleteErr: errors.New("nope")}
	wrapped := newInstrumentedTracker(inner)
	ctx := context.Background()

	issue, err := wrapped.CreateIssue(ctx, &tracker.IssueDraft{Title: "a"})
	require.NoError(t, err)
	assert.Equal(t, "id-a", issue.ID)

	states, err := wrapped.ListWorkflowStates(ctx)
	require.NoError(t, err)
	assert.Len(t, states, 1)

	assert.EqualError(t, wrapped.DeleteIssue(ctx, "x"), "nope")
	assert.Equal(t, "Fake", wrapped.DisplayName())
}
