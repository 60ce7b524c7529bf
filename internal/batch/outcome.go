package batch

import (
	"errors"
	"fmt"
	"strings"

	"github.com/taskdrop/taskdrop/internal/types"
)

// Sentinel errors carried in Outcome.Err.
var (
	// ErrStaleToken means the batch token was unknown or already consumed.
	ErrStaleToken = errors.New("batch token already handled or expired")

	// ErrNoTasks means the raw input held no usable lines, or structuring
	// produced no tasks.
	ErrNoTasks = errors.New("no tasks")
)

// OutcomeKind classifies the result of an orchestrator transition.
type OutcomeKind int

const (
	Proposed OutcomeKind = iota
	InvalidInput
	StaleReference
	CollaboratorFailure
	Committed
	PartialBatchFailure
	Cancelled
	AlreadyCancelled
	EmptyUndo
	Reverted
)

var outcomeNames = [...]string{
	Proposed:            "proposed",
	InvalidInput:        "invalid_input",
	StaleReference:      "stale_reference",
	CollaboratorFailure: "collaborator_failure",
	Committed:           "committed",
	PartialBatchFailure: "partial_batch_failure",
	Cancelled:           "cancelled",
	AlreadyCancelled:    "already_cancelled",
	EmptyUndo:           "empty_undo",
	Reverted:            "reverted",
}

func (k OutcomeKind) String() string {
	if int(k) >= 0 && int(k) < len(outcomeNames) {
		return outcomeNames[k]
	}
	return fmt.Sprintf("outcome(%d)", int(k))
}

// Informational reports whether the outcome is a no-op notice rather than a
// change of state the whole channel should see.
func (k OutcomeKind) Informational() bool {
	return k == StaleReference || k == EmptyUndo
}

// Lifecycle is the state a batch reaches through a transition.
type Lifecycle string

const (
	LifecycleNone               Lifecycle = ""
	LifecycleProposed           Lifecycle = "proposed"
	LifecycleConfirmed          Lifecycle = "confirmed"
	LifecycleCancelled          Lifecycle = "cancelled"
	LifecycleCommitted          Lifecycle = "committed"
	LifecyclePartiallyCommitted Lifecycle = "partially_committed"
	LifecycleReverted           Lifecycle = "reverted"
)

// Operator-facing messages.
const (
	MsgInvalidInput     = "Please provide a valid list of tasks."
	MsgProcessFailed    = "❌ Failed to process tasks."
	MsgStaleToken       = "❌ Task data for this action has expired or is invalid. Please try creating the tasks again."
	MsgCancelled        = "❌ Task creation cancelled."
	MsgAlreadyCancelled = "Task creation was already cancelled or handled."
	MsgNothingToUndo    = "🤔 Nothing to undo or task IDs were not recorded for the last operation."
)

// UndoOffer sizes the reversal action shown with a create-all result.
type UndoOffer struct {
	Count int
	// Partial is set when the offer follows a failed create-all.
	Partial bool
}

// Label is the button text for the offer.
func (u UndoOffer) Label() string {
	if u.Partial {
		return fmt.Sprintf("Undo %d Created Tasks", u.Count)
	}
	return fmt.Sprintf("Undo All %d Tasks", u.Count)
}

// TaskResult is the per-task result of a create-all fan-out.
type TaskResult struct {
	Task  types.ProposedTask
	Issue *types.CreatedIssue
	Err   error
}

// Outcome is what every orchestrator transition returns. The chat layer
// renders Message verbatim and shows Undo when present.
type Outcome struct {
	Kind    OutcomeKind
	State   Lifecycle
	Token   Token
	Message string

	// Tasks is the proposed batch (Proposed only).
	Tasks []types.ProposedTask
	// Created lists issues created this round, in task order.
	Created []types.CreatedIssue
	// Results holds per-task create results (Committed, PartialBatchFailure).
	Results []TaskResult
	// Deleted and Failed count undo deletions (Reverted only).
	Deleted int
	Failed  int

	Undo *UndoOffer
	Err  error
}

func committedMessage(tracker string, created []types.CreatedIssue) string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "✅ All %d tasks created successfully in %s:", len(created), tracker)
	for _, c := range created {
		sb.WriteString("\n- ")
		sb.WriteString(c.Title)
		if c.Identifier != "" {
			sb.WriteString(" (" + c.Identifier + ")")
		}
		if c.URL != "" {
			sb.WriteString(" " + c.URL)
		}
	}
	return sb.String()
}

func partialMessage(tracker string, offer *UndoOffer) string {
	if offer == nil {
		return fmt.Sprintf("❌ Failed to create tasks in %s.", tracker)
	}
	return fmt.Sprintf("❌ Failed to create all tasks. You can attempt to undo the %d tasks that might have been created.", offer.Count)
}

func revertedMessage(deleted, total int) string {
	if deleted == total {
		return fmt.Sprintf("🗑️ %d task(s) deleted successfully.", deleted)
	}
	return fmt.Sprintf("⚠️ Deleted %d of %d task(s); %d could not be deleted.", deleted, total, total-deleted)
}
