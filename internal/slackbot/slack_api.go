package slackbot

import (
	"context"

	"github.com/slack-go/slack"

	"github.com/taskdrop/taskdrop/internal/batch"
	"github.com/taskdrop/taskdrop/internal/types"
)

// SlackAPI abstracts the subset of slack.Client methods used by the bot.
// This allows tests to substitute a mock implementation without a live Slack connection.
type SlackAPI interface {
	AuthTest() (response *slack.AuthTestResponse, err error)

	// Messaging
	PostMessage(channelID string, options ...slack.MsgOption) (string, string, error)
	PostEphemeral(channelID, userID string, options ...slack.MsgOption) (string, error)
	UpdateMessage(channelID, timestamp string, options ...slack.MsgOption) (string, string, string, error)
}

// BatchService is the approval workflow the bot drives. *batch.Orchestrator
// implements it.
type BatchService interface {
	Propose(ctx context.Context, raw string) batch.Outcome
	CreateAllNotify(ctx context.Context, token batch.Token, onConfirmed func(tasks []types.ProposedTask)) batch.Outcome
	Cancel(ctx context.Context, token batch.Token) batch.Outcome
	Undo(ctx context.Context) batch.Outcome

	TrackerName() string
	Pending() int
	UndoSize() int
}

var _ BatchService = (*batch.Orchestrator)(nil)
