// Package batch implements the approval and undo state machine for batches
// of proposed tasks: a pending-batch store, a single-slot undo ledger, and the
// orchestrator that drives create-all, cancel, and undo against a tracker.
package batch

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/metric"
	"golang.org/x/sync/errgroup"

	"github.com/taskdrop/taskdrop/internal/telemetry"
	"github.com/taskdrop/taskdrop/internal/tracker"
	"github.com/taskdrop/taskdrop/internal/types"
)

const scopeName = "github.com/taskdrop/taskdrop/batch"

// Structurer turns raw task lines into proposed tasks.
type Structurer interface {
	Structure(ctx context.Context, lines []string) ([]types.ProposedTask, error)
}

// Tracker is the subset of tracker.IssueTracker the orchestrator drives.
type Tracker interface {
	DisplayName() string
	CreateIssue(ctx context.Context, draft *tracker.IssueDraft) (*tracker.TrackerIssue, error)
	DeleteIssue(ctx context.Context, id string) error
}

// StateResolver maps a semantic state to a tracker state ID ("" if none).
type StateResolver interface {
	Resolve(ctx context.Context, semantic types.WorkflowState) string
}

// PartialPolicy decides what the undo ledger records when a create-all fails
// part way.
type PartialPolicy int

const (
	// PolicyTrackSucceeded replaces the ledger with the IDs that were created
	// this round, when there are any.
	PolicyTrackSucceeded PartialPolicy = iota
	// PolicyConservative leaves the ledger untouched on any failure.
	PolicyConservative
)

func (p PartialPolicy) String() string {
	if p == PolicyConservative {
		return "conservative"
	}
	return "track_succeeded"
}

// ParsePartialPolicy parses a policy name. Empty selects PolicyTrackSucceeded.
func ParsePartialPolicy(s string) (PartialPolicy, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "track_succeeded", "track-succeeded":
		return PolicyTrackSucceeded, nil
	case "conservative":
		return PolicyConservative, nil
	default:
		return PolicyTrackSucceeded, fmt.Errorf("unknown partial policy %q (want track_succeeded or conservative)", s)
	}
}

// Options configures an Orchestrator. Zero values are usable.
type Options struct {
	Policy PartialPolicy
	Logger *slog.Logger
	Events EventSink
}

// Orchestrator owns the pending-batch store and the undo ledger and drives
// every transition. Its methods never return errors; failures are reported
// as Outcomes.
type Orchestrator struct {
	structurer Structurer
	tracker    Tracker
	states     StateResolver

	store  *Store
	ledger *Ledger

	policy PartialPolicy
	logger *slog.Logger
	events EventSink
}

// New creates an orchestrator with a fresh store and ledger.
func New(structurer Structurer, t Tracker, states StateResolver, opts Options) *Orchestrator {
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}
	if opts.Events == nil {
		opts.Events = nopSink{}
	}
	return &Orchestrator{
		structurer: structurer,
		tracker:    t,
		states:     states,
		store:      NewStore(),
		ledger:     NewLedger(),
		policy:     opts.Policy,
		logger:     opts.Logger,
		events:     opts.Events,
	}
}

// metrics holds lazily-initialized OTel instruments.
var metrics struct {
	transitions metric.Int64Counter
	created     metric.Int64Counter
	deleted     metric.Int64Counter
	failed      metric.Int64Counter
}

var metricsOnce sync.Once

func initMetrics() {
	m := telemetry.Meter(scopeName)
	metrics.transitions, _ = m.Int64Counter("taskdrop.batch.transitions",
		metric.WithDescription("Batch orchestrator transitions by outcome"),
	)
	metrics.created, _ = m.Int64Counter("taskdrop.issues.created",
		metric.WithDescription("Issues created by create-all"),
		metric.WithUnit("{issue}"),
	)
	metrics.deleted, _ = m.Int64Counter("taskdrop.issues.deleted",
		metric.WithDescription("Issues deleted by undo"),
		metric.WithUnit("{issue}"),
	)
	metrics.failed, _ = m.Int64Counter("taskdrop.issues.failed",
		metric.WithDescription("Issue create or delete calls that failed"),
		metric.WithUnit("{issue}"),
	)
}

func (o *Orchestrator) record(ctx context.Context, out Outcome) Outcome {
	metricsOnce.Do(initMetrics)
	metrics.transitions.Add(ctx, 1, metric.WithAttributes(attribute.String("taskdrop.outcome", out.Kind.String())))
	return out
}

// TrackerName is the display name used in operator messages.
func (o *Orchestrator) TrackerName() string {
	return o.tracker.DisplayName()
}

// Pending returns the number of batches awaiting a decision.
func (o *Orchestrator) Pending() int {
	return o.store.Len()
}

// UndoSize returns the number of issue IDs an undo would delete.
func (o *Orchestrator) UndoSize() int {
	return o.ledger.Len()
}

// SplitLines splits raw operator input into trimmed, non-blank lines.
func SplitLines(raw string) []string {
	var lines []string
	for _, line := range strings.Split(raw, "\n") {
		if line = strings.TrimSpace(line); line != "" {
			lines = append(lines, line)
		}
	}
	return lines
}

// Propose structures raw input and stores the result as a pending batch.
func (o *Orchestrator) Propose(ctx context.Context, raw string) Outcome {
	lines := SplitLines(raw)
	if len(lines) == 0 {
		return o.record(ctx, Outcome{Kind: InvalidInput, Message: MsgInvalidInput, Err: ErrNoTasks})
	}

	tasks, err := o.structurer.Structure(ctx, lines)
	if err != nil {
		o.logger.Error("structuring tasks failed", "lines", len(lines), "error", err)
		return o.record(ctx, Outcome{Kind: CollaboratorFailure, Message: MsgProcessFailed, Err: err})
	}
	if len(tasks) == 0 {
		o.logger.Error("structuring returned no tasks", "lines", len(lines))
		return o.record(ctx, Outcome{Kind: CollaboratorFailure, Message: MsgProcessFailed, Err: ErrNoTasks})
	}

	token := o.store.Put(tasks)
	o.logger.Info("batch proposed", "token", token, "tasks", len(tasks))
	o.events.Publish(ctx, Event{Kind: EventProposed, Token: token, TaskCount: len(tasks), Timestamp: time.Now()})
	return o.record(ctx, Outcome{
		Kind:    Proposed,
		State:   LifecycleProposed,
		Token:   token,
		Tasks:   tasks,
		Message: fmt.Sprintf("📋 Preview of %d tasks to create:", len(tasks)),
	})
}

func (o *Orchestrator) stale(ctx context.Context, token Token, action string) Outcome {
	o.logger.Info("stale batch token", "token", token, "action", action)
	return o.record(ctx, Outcome{
		Kind:    StaleReference,
		Token:   token,
		Message: MsgStaleToken,
		Err:     fmt.Errorf("%s %s: %w", action, token, ErrStaleToken),
	})
}

// CreateAll consumes the batch for token and creates every task in the
// tracker concurrently. The fan-out is detached from ctx cancellation and
// always runs to completion.
func (o *Orchestrator) CreateAll(ctx context.Context, token Token) Outcome {
	return o.CreateAllNotify(ctx, token, nil)
}

// CreateAllNotify is CreateAll with a hook that runs once the batch has been
// consumed and before any tracker call. Only the caller that wins the token
// sees the hook fire.
func (o *Orchestrator) CreateAllNotify(ctx context.Context, token Token, onConfirmed func(tasks []types.ProposedTask)) Outcome {
	tasks, ok := o.store.Take(token)
	if !ok {
		return o.stale(ctx, token, "create")
	}
	if onConfirmed != nil {
		onConfirmed(tasks)
	}

	ctx = context.WithoutCancel(ctx)
	ctx, span := telemetry.Tracer(scopeName).Start(ctx, "batch.create_all")
	defer span.End()
	span.SetAttributes(
		attribute.Int64("taskdrop.batch.token", int64(token)),
		attribute.Int("taskdrop.batch.size", len(tasks)),
	)
	o.logger.Info("batch confirmed", "token", token, "tasks", len(tasks))

	results := make([]TaskResult, len(tasks))
	var g errgroup.Group
	for i, task := range tasks {
		g.Go(func() error {
			results[i] = o.createOne(ctx, task)
			return results[i].Err
		})
	}
	firstErr := g.Wait()

	var (
		created []types.CreatedIssue
		ids     []string
	)
	for _, r := range results {
		if r.Issue != nil {
			created = append(created, *r.Issue)
			ids = append(ids, r.Issue.ID)
		}
	}
	failures := len(tasks) - len(created)

	metricsOnce.Do(initMetrics)
	metrics.created.Add(ctx, int64(len(created)))
	metrics.failed.Add(ctx, int64(failures))

	if firstErr == nil {
		o.ledger.Replace(ids)
		o.logger.Info("batch committed", "token", token, "created", len(created))
		o.events.Publish(ctx, Event{Kind: EventCommitted, Token: token, TaskCount: len(tasks), CreatedIDs: ids, Timestamp: time.Now()})
		return o.record(ctx, Outcome{
			Kind:    Committed,
			State:   LifecycleCommitted,
			Token:   token,
			Message: committedMessage(o.TrackerName(), created),
			Created: created,
			Results: results,
			Undo:    &UndoOffer{Count: len(created)},
		})
	}

	span.RecordError(firstErr)
	span.SetStatus(codes.Error, firstErr.Error())

	offer := o.recoverPartial(ids)
	o.logger.Warn("batch partially failed",
		"token", token, "created", len(created), "failed", failures,
		"policy", o.policy.String(), "undo_offer", offerCount(offer), "error", firstErr)
	o.events.Publish(ctx, Event{Kind: EventPartial, Token: token, TaskCount: len(tasks), CreatedIDs: ids, Failures: failures, Timestamp: time.Now()})
	return o.record(ctx, Outcome{
		Kind:    PartialBatchFailure,
		State:   LifecyclePartiallyCommitted,
		Token:   token,
		Message: partialMessage(o.TrackerName(), offer),
		Created: created,
		Results: results,
		Undo:    offer,
		Err:     firstErr,
	})
}

// recoverPartial applies the partial-failure policy to the ledger and sizes
// the undo offer. A nil offer means nothing can be reversed.
func (o *Orchestrator) recoverPartial(succeeded []string) *UndoOffer {
	if o.policy == PolicyTrackSucceeded && len(succeeded) > 0 {
		o.ledger.Replace(succeeded)
		return &UndoOffer{Count: len(succeeded), Partial: true}
	}
	if n := o.ledger.Len(); n > 0 {
		return &UndoOffer{Count: n, Partial: true}
	}
	return nil
}

func offerCount(u *UndoOffer) int {
	if u == nil {
		return 0
	}
	return u.Count
}

func (o *Orchestrator) createOne(ctx context.Context, task types.ProposedTask) TaskResult {
	draft := &tracker.IssueDraft{
		Title:       task.Title,
		Description: task.Description,
		Priority:    task.Priority,
		StateID:     o.states.Resolve(ctx, task.State),
	}
	issue, err := o.tracker.CreateIssue(ctx, draft)
	if err != nil {
		o.logger.Error("creating issue failed", "title", task.Title, "error", err)
		return TaskResult{Task: task, Err: fmt.Errorf("create %q: %w", task.Title, err)}
	}
	created := issue.ToCreated()
	if created.Title == "" {
		created.Title = task.Title
	}
	return TaskResult{Task: task, Issue: &created}
}

// Cancel discards the batch for token. Cancelling twice is not an error.
func (o *Orchestrator) Cancel(ctx context.Context, token Token) Outcome {
	if !o.store.Drop(token) {
		return o.record(ctx, Outcome{
			Kind:    AlreadyCancelled,
			Token:   token,
			Message: MsgAlreadyCancelled,
		})
	}
	o.logger.Info("batch cancelled", "token", token)
	o.events.Publish(ctx, Event{Kind: EventCancelled, Token: token, Timestamp: time.Now()})
	return o.record(ctx, Outcome{
		Kind:    Cancelled,
		State:   LifecycleCancelled,
		Token:   token,
		Message: MsgCancelled,
	})
}

// Undo drains the ledger and deletes every recorded issue concurrently.
// Failed deletions are logged and not restored to the ledger.
func (o *Orchestrator) Undo(ctx context.Context) Outcome {
	ids := o.ledger.Drain()
	if len(ids) == 0 {
		return o.record(ctx, Outcome{Kind: EmptyUndo, Message: MsgNothingToUndo})
	}

	ctx = context.WithoutCancel(ctx)
	ctx, span := telemetry.Tracer(scopeName).Start(ctx, "batch.undo")
	defer span.End()
	span.SetAttributes(attribute.Int("taskdrop.undo.size", len(ids)))

	var (
		deleted atomic.Int64
		g       errgroup.Group
	)
	for _, id := range ids {
		g.Go(func() error {
			if err := o.tracker.DeleteIssue(ctx, id); err != nil {
				o.logger.Error("deleting issue failed", "id", id, "error", err)
				return fmt.Errorf("delete %s: %w", id, err)
			}
			deleted.Add(1)
			return nil
		})
	}
	err := g.Wait()

	n := int(deleted.Load())
	metricsOnce.Do(initMetrics)
	metrics.deleted.Add(ctx, int64(n))
	metrics.failed.Add(ctx, int64(len(ids)-n))
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	}

	o.logger.Info("batch reverted", "deleted", n, "failed", len(ids)-n)
	o.events.Publish(ctx, Event{Kind: EventReverted, TaskCount: len(ids), CreatedIDs: ids, Failures: len(ids) - n, Timestamp: time.Now()})
	return o.record(ctx, Outcome{
		Kind:    Reverted,
		State:   LifecycleReverted,
		Message: revertedMessage(n, len(ids)),
		Deleted: n,
		Failed:  len(ids) - n,
		Err:     err,
	})
}
