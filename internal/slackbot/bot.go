// Package slackbot implements the Slack surface for task batches: the
// /createtasks slash command and the create, cancel, and undo buttons on the
// messages it posts. It uses the slack-go/slack library with Socket Mode for
// WebSocket-based communication.
package slackbot

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"sync/atomic"

	"github.com/slack-go/slack"
	"github.com/slack-go/slack/slackevents"
	"github.com/slack-go/slack/socketmode"

	"github.com/taskdrop/taskdrop/internal/batch"
	"github.com/taskdrop/taskdrop/internal/types"
)

// DefaultCommand is the slash command that proposes a batch.
const DefaultCommand = "/createtasks"

// Bot is a Slack bot that turns pasted task lists into tracker issues.
type Bot struct {
	client     SlackAPI
	socketMode *socketmode.Client
	batches    BatchService
	command    string
	logger     *slog.Logger
	metrics    *Metrics

	// Bot identity for ignoring our own mentions
	botUserID string
	connected atomic.Bool

	// In-flight command and interaction handlers
	wg sync.WaitGroup
}

// BotConfig holds configuration for the Slack bot.
type BotConfig struct {
	BotToken string // xoxb-... Slack bot token
	AppToken string // xapp-... Slack app-level token (for Socket Mode)
	Command  string // Slash command name (default: "/createtasks")
	Debug    bool
	Logger   *slog.Logger
	Metrics  *Metrics
}

// NewBot creates a new Slack bot driving batches.
func NewBot(cfg BotConfig, batches BatchService) (*Bot, error) {
	if cfg.BotToken == "" {
		return nil, fmt.Errorf("bot token is required")
	}
	if cfg.AppToken == "" {
		return nil, fmt.Errorf("app token is required for Socket Mode")
	}
	if !strings.HasPrefix(cfg.AppToken, "xapp-") {
		return nil, fmt.Errorf("app token must start with xapp-")
	}
	if batches == nil {
		return nil, fmt.Errorf("batch service is required")
	}

	client := slack.New(
		cfg.BotToken,
		slack.OptionDebug(cfg.Debug),
		slack.OptionAppLevelToken(cfg.AppToken),
	)

	socketClient := socketmode.New(
		client,
		socketmode.OptionDebug(cfg.Debug),
	)

	b := newBot(client, batches, cfg)
	b.socketMode = socketClient
	return b, nil
}

func newBot(client SlackAPI, batches BatchService, cfg BotConfig) *Bot {
	if cfg.Command == "" {
		cfg.Command = DefaultCommand
	}
	if cfg.Logger == nil {
		cfg.Logger = slog.Default()
	}
	if cfg.Metrics == nil {
		cfg.Metrics = NewMetrics()
	}
	cfg.Metrics.watch(batches)
	return &Bot{
		client:  client,
		batches: batches,
		command: cfg.Command,
		logger:  cfg.Logger.With("component", "slackbot"),
		metrics: cfg.Metrics,
	}
}

// newBotForTest creates a Bot with injectable mock dependencies for testing.
// No Slack connection or token validation is performed.
func newBotForTest(slackAPI SlackAPI, batches BatchService) *Bot {
	return newBot(slackAPI, batches, BotConfig{Logger: slog.New(slog.DiscardHandler)})
}

// Metrics returns the bot's Prometheus collectors.
func (b *Bot) Metrics() *Metrics {
	return b.metrics
}

// Run starts the bot event loop. Blocks until context is canceled, then
// waits for in-flight handlers to finish.
func (b *Bot) Run(ctx context.Context) error {
	authResp, err := b.client.AuthTest()
	if err != nil {
		b.logger.Warn("failed to get bot user ID", "error", err)
	} else {
		b.botUserID = authResp.UserID
		b.logger.Info("authenticated", "bot_user_id", b.botUserID, "team", authResp.Team)
	}

	loopCtx, stop := context.WithCancel(ctx)
	done := make(chan struct{})
	go func() {
		defer close(done)
		b.dispatch(loopCtx, ctx, b.socketMode.Events)
	}()

	err = b.socketMode.RunContext(ctx)
	stop()
	<-done
	b.wg.Wait()
	return err
}

// dispatch feeds events to handleEvent until loopCtx is done or events is
// closed. Handlers run with handlerCtx. Nothing is added to the handler
// group after dispatch returns, so waiting on it afterwards is safe.
func (b *Bot) dispatch(loopCtx, handlerCtx context.Context, events <-chan socketmode.Event) {
	for {
		select {
		case <-loopCtx.Done():
			return
		case evt, ok := <-events:
			if !ok {
				return
			}
			b.handleEvent(handlerCtx, evt)
		}
	}
}

// IsConnected returns whether the bot is currently connected to Slack.
func (b *Bot) IsConnected() bool {
	return b.connected.Load()
}

// ---------- Event dispatch ----------

func (b *Bot) handleEvent(ctx context.Context, evt socketmode.Event) {
	switch evt.Type {
	case socketmode.EventTypeConnecting:
		b.logger.Info("connecting to Socket Mode")

	case socketmode.EventTypeConnected:
		b.logger.Info("connected to Socket Mode")
		b.connected.Store(true)

	case socketmode.EventTypeConnectionError:
		b.logger.Warn("connection error", "data", evt.Data)
		b.connected.Store(false)

	case socketmode.EventTypeInvalidAuth:
		b.logger.Error("invalid Slack credentials")
		b.connected.Store(false)

	case socketmode.EventTypeEventsAPI:
		eventsAPIEvent, ok := evt.Data.(slackevents.EventsAPIEvent)
		if !ok {
			return
		}
		b.ack(evt)
		b.handleEventsAPI(eventsAPIEvent)

	case socketmode.EventTypeSlashCommand:
		cmd, ok := evt.Data.(slack.SlashCommand)
		if !ok {
			return
		}
		b.ack(evt)
		b.wg.Go(func() { b.handleSlashCommand(ctx, cmd) })

	case socketmode.EventTypeInteractive:
		callback, ok := evt.Data.(slack.InteractionCallback)
		if !ok {
			return
		}
		b.ack(evt)
		b.wg.Go(func() { b.handleInteraction(ctx, callback) })
	}
}

// ack acknowledges a Socket Mode request. Slack retries unacknowledged
// envelopes after three seconds, so handlers run after the ack.
func (b *Bot) ack(evt socketmode.Event) {
	if b.socketMode == nil || evt.Request == nil {
		return
	}
	b.socketMode.Ack(*evt.Request)
}

func (b *Bot) handleEventsAPI(event slackevents.EventsAPIEvent) {
	if event.Type != slackevents.CallbackEvent {
		return
	}

	switch ev := event.InnerEvent.Data.(type) {
	case *slackevents.AppMentionEvent:
		if ev.User == "" || ev.User == b.botUserID {
			return
		}
		threadTS := ev.ThreadTimeStamp
		if threadTS == "" {
			threadTS = ev.TimeStamp
		}
		_, _, err := b.client.PostMessage(ev.Channel,
			slack.MsgOptionText(b.usage(), false),
			slack.MsgOptionTS(threadTS))
		if err != nil {
			b.logger.Error("posting usage reply failed", "channel", ev.Channel, "error", err)
		}
	}
}

func (b *Bot) usage() string {
	return fmt.Sprintf("Use `%s` followed by one task per line. I'll structure them and show a preview before anything is created in %s.",
		b.command, b.batches.TrackerName())
}

// ---------- Slash commands ----------

func (b *Bot) handleSlashCommand(ctx context.Context, cmd slack.SlashCommand) {
	b.metrics.command(cmd.Command)
	if cmd.Command != b.command {
		b.postEphemeral(cmd.ChannelID, cmd.UserID,
			fmt.Sprintf("Unknown command: %s", cmd.Command))
		return
	}
	b.handleCreateTasksCommand(ctx, cmd)
}

func (b *Bot) handleCreateTasksCommand(ctx context.Context, cmd slack.SlashCommand) {
	lines := batch.SplitLines(cmd.Text)
	if len(lines) == 0 {
		b.metrics.outcome(batch.Outcome{Kind: batch.InvalidInput})
		b.postEphemeral(cmd.ChannelID, cmd.UserID, batch.MsgInvalidInput)
		return
	}

	placeholder := fmt.Sprintf("⏳ Structuring %d tasks…", len(lines))
	channelID, ts, err := b.client.PostMessage(cmd.ChannelID, slack.MsgOptionText(placeholder, false))
	if err != nil {
		b.logger.Error("posting placeholder failed", "channel", cmd.ChannelID, "error", err)
		b.postEphemeral(cmd.ChannelID, cmd.UserID, batch.MsgProcessFailed)
		return
	}

	out := b.batches.Propose(ctx, cmd.Text)
	b.metrics.outcome(out)
	b.logger.Info("batch proposal", "user", cmd.UserID, "lines", len(lines), "outcome", out.Kind.String())
	if out.Kind != batch.Proposed {
		b.showResult(channelID, ts, cmd.UserID, out.Message, textBlocks(out.Message))
		return
	}

	if err := b.updateMessage(channelID, ts, out.Message, previewBlocks(out, b.batches.TrackerName())); err != nil {
		// Nobody can click buttons that were never shown.
		b.batches.Cancel(ctx, out.Token)
		b.showResult(channelID, ts, cmd.UserID, batch.MsgProcessFailed, textBlocks(batch.MsgProcessFailed))
	}
}

// ---------- Interactions ----------

func (b *Bot) handleInteraction(ctx context.Context, callback slack.InteractionCallback) {
	if callback.Type != slack.InteractionTypeBlockActions {
		return
	}

	for _, action := range callback.ActionCallback.BlockActions {
		b.metrics.interaction(action.ActionID)
		switch action.ActionID {
		case ActionCreateAll:
			b.handleCreateAll(ctx, callback, action.Value)
		case ActionCancelAll:
			b.handleCancel(ctx, callback, action.Value)
		case ActionUndo:
			b.handleUndo(ctx, callback)
		default:
			b.logger.Debug("ignoring block action", "action_id", action.ActionID)
		}
	}
}

// parseToken reads a button's batch token. A value that does not parse is
// treated like any other stale reference.
func (b *Bot) parseToken(callback slack.InteractionCallback, value string) (batch.Token, bool) {
	token, err := batch.ParseToken(value)
	if err != nil {
		b.logger.Warn("malformed batch token", "value", value, "error", err)
		b.metrics.outcome(batch.Outcome{Kind: batch.StaleReference})
		b.postEphemeral(callback.Channel.ID, callback.User.ID, batch.MsgStaleToken)
		return 0, false
	}
	return token, true
}

func (b *Bot) handleCreateAll(ctx context.Context, callback slack.InteractionCallback, value string) {
	token, ok := b.parseToken(callback, value)
	if !ok {
		return
	}
	channelID, ts := callback.Channel.ID, callback.Message.Timestamp

	out := b.batches.CreateAllNotify(ctx, token, func(tasks []types.ProposedTask) {
		msg := fmt.Sprintf("⏳ Creating %d tasks…", len(tasks))
		_ = b.updateMessage(channelID, ts, msg, textBlocks(msg))
	})
	b.metrics.outcome(out)

	if out.Kind.Informational() {
		b.postEphemeral(channelID, callback.User.ID, out.Message)
		return
	}
	b.logger.Info("create all finished", "user", callback.User.ID, "token", token,
		"outcome", out.Kind.String(), "created", len(out.Created))
	b.showResult(channelID, ts, callback.User.ID, out.Message, resultBlocks(out))
}

func (b *Bot) handleCancel(ctx context.Context, callback slack.InteractionCallback, value string) {
	token, ok := b.parseToken(callback, value)
	if !ok {
		return
	}

	out := b.batches.Cancel(ctx, token)
	b.metrics.outcome(out)

	// The message already shows whatever handled the batch first.
	if out.Kind == batch.AlreadyCancelled {
		b.postEphemeral(callback.Channel.ID, callback.User.ID, out.Message)
		return
	}
	b.showResult(callback.Channel.ID, callback.Message.Timestamp, callback.User.ID, out.Message, textBlocks(out.Message))
}

func (b *Bot) handleUndo(ctx context.Context, callback slack.InteractionCallback) {
	out := b.batches.Undo(ctx)
	b.metrics.outcome(out)

	if out.Kind.Informational() {
		b.postEphemeral(callback.Channel.ID, callback.User.ID, out.Message)
		return
	}
	b.logger.Info("undo finished", "user", callback.User.ID, "deleted", out.Deleted, "failed", out.Failed)
	b.showResult(callback.Channel.ID, callback.Message.Timestamp, callback.User.ID, out.Message, resultBlocks(out))
}

// ---------- Helpers ----------

// updateMessage replaces a message's text and blocks. text is the
// notification fallback; blocks are what the channel sees.
func (b *Bot) updateMessage(channelID, timestamp, text string, blocks []slack.Block) error {
	_, _, _, err := b.client.UpdateMessage(channelID, timestamp,
		slack.MsgOptionText(text, false),
		slack.MsgOptionBlocks(blocks...))
	if err != nil {
		b.logger.Error("updating message failed", "channel", channelID, "ts", timestamp, "error", err)
	}
	return err
}

// showResult puts an outcome in place of the batch message. When Slack
// refuses the update, the outcome goes to the operator as an ephemeral
// instead, first with its blocks and then as plain text.
func (b *Bot) showResult(channelID, timestamp, userID, text string, blocks []slack.Block) {
	if err := b.updateMessage(channelID, timestamp, text, blocks); err == nil {
		return
	}
	_, err := b.client.PostEphemeral(channelID, userID,
		slack.MsgOptionText(text, false),
		slack.MsgOptionBlocks(blocks...))
	if err == nil {
		return
	}
	b.logger.Warn("posting ephemeral blocks failed, retrying as text", "channel", channelID, "user", userID, "error", err)
	b.postEphemeral(channelID, userID, text)
}

func (b *Bot) postEphemeral(channelID, userID, text string) {
	_, err := b.client.PostEphemeral(channelID, userID,
		slack.MsgOptionText(text, false))
	if err != nil {
		b.logger.Error("posting ephemeral failed", "channel", channelID, "user", userID, "error", err)
	}
}
