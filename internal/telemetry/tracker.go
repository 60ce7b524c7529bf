package telemetry

import (
	"context"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"

	"github.com/taskdrop/taskdrop/internal/tracker"
)

const trackerScopeName = "github.com/taskdrop/taskdrop/tracker"

// InstrumentedTracker wraps a tracker.IssueTracker with OTel tracing and
// metrics. Every remote call gets a span and is counted in
// taskdrop.tracker.* metrics.
type InstrumentedTracker struct {
	tracker.IssueTracker

	tracer trace.Tracer
	ops    metric.Int64Counter
	dur    metric.Float64Histogram
	errs   metric.Int64Counter
}

// WrapTracker returns t decorated with OTel instrumentation.
// When telemetry is disabled, t is returned as-is.
func WrapTracker(t tracker.IssueTracker) tracker.IssueTracker {
	if !Enabled() {
		return t
	}
	return newInstrumentedTracker(t)
}

func newInstrumentedTracker(t tracker.IssueTracker) *InstrumentedTracker {
	m := Meter(trackerScopeName)
	ops, _ := m.Int64Counter("taskdrop.tracker.operations",
		metric.WithDescription("Total tracker API operations executed"),
	)
	dur, _ := m.Float64Histogram("taskdrop.tracker.operation.duration",
		metric.WithDescription("Tracker API operation duration in milliseconds"),
		metric.WithUnit("ms"),
	)
	errs, _ := m.Int64Counter("taskdrop.tracker.errors",
		metric.WithDescription("Total tracker API operation errors"),
	)
	return &InstrumentedTracker{
		IssueTracker: t,
		tracer:       Tracer(trackerScopeName),
		ops:          ops,
		dur:          dur,
		errs:         errs,
	}
}

func (t *InstrumentedTracker) op(ctx context.Context, name string, attrs ...attribute.KeyValue) (context.Context, trace.Span, time.Time) {
	all := append([]attribute.KeyValue{
		attribute.String("taskdrop.tracker", t.Name()),
		attribute.String("taskdrop.tracker.operation", name),
	}, attrs...)
	ctx, span := t.tracer.Start(ctx, "tracker."+name,
		trace.WithAttributes(all...),
		trace.WithSpanKind(trace.SpanKindClient),
	)
	t.ops.Add(ctx, 1, metric.WithAttributes(all...))
	return ctx, span, time.Now()
}

func (t *InstrumentedTracker) done(ctx context.Context, span trace.Span, start time.Time, err error) {
	ms := float64(time.Since(start).Milliseconds())
	attrs := metric.WithAttributes(attribute.String("taskdrop.tracker", t.Name()))
	t.dur.Record(ctx, ms, attrs)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		t.errs.Add(ctx, 1, attrs)
	}
	span.End()
}

func (t *InstrumentedTracker) ListWorkflowStates(ctx context.Context) ([]tracker.WorkflowState, error) {
	ctx, span, start := t.op(ctx, "ListWorkflowStates")
	v, err := t.IssueTracker.ListWorkflowStates(ctx)
	span.SetAttributes(attribute.Int("taskdrop.state.count", len(v)))
	t.done(ctx, span, start, err)
	return v, err
}

func (t *InstrumentedTracker) CreateIssue(ctx context.Context, draft *tracker.IssueDraft) (*tracker.TrackerIssue, error) {
	ctx, span, start := t.op(ctx, "CreateIssue",
		attribute.String("taskdrop.issue.priority", string(draft.Priority)),
		attribute.Bool("taskdrop.issue.state_resolved", draft.StateID != ""),
	)
	v, err := t.IssueTracker.CreateIssue(ctx, draft)
	if v != nil {
		span.SetAttributes(attribute.String("taskdrop.issue.id", v.ID))
	}
	t.done(ctx, span, start, err)
	return v, err
}

func (t *InstrumentedTracker) DeleteIssue(ctx context.Context, id string) error {
	ctx, span, start := t.op(ctx, "DeleteIssue", attribute.String("taskdrop.issue.id", id))
	err := t.IssueTracker.DeleteIssue(ctx, id)
	t.done(ctx, span, start, err)
	return err
}
