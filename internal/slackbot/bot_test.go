package slackbot

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/slack-go/slack"
	"github.com/slack-go/slack/slackevents"
	"github.com/slack-go/slack/socketmode"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/taskdrop/taskdrop/internal/batch"
	"github.com/taskdrop/taskdrop/internal/tracker"
	"github.com/taskdrop/taskdrop/internal/types"
)

// ---------- Mock Slack API ----------

// postedMessage captures a PostMessage call for assertion.
type postedMessage struct {
	ChannelID string
	Options   []slack.MsgOption
}

// postedEphemeral captures a PostEphemeral call.
type postedEphemeral struct {
	ChannelID string
	UserID    string
	Options   []slack.MsgOption
}

// updatedMessage captures an UpdateMessage call.
type updatedMessage struct {
	ChannelID string
	Timestamp string
	Options   []slack.MsgOption
}

type mockSlackAPI struct {
	mu sync.Mutex

	// Captured calls
	PostedMessages  []postedMessage
	Ephemerals      []postedEphemeral
	UpdatedMessages []updatedMessage

	// Injected errors
	postErr   error
	updateErr error
	// failUpdatesFrom makes the Nth UpdateMessage call and every later one
	// fail with invalid_blocks. Zero disables it.
	failUpdatesFrom int
	// ephemeralBlocksErr fails ephemerals that carry blocks.
	ephemeralBlocksErr error

	updateCalls int
}

func (m *mockSlackAPI) AuthTest() (*slack.AuthTestResponse, error) {
	return &slack.AuthTestResponse{UserID: "U_BOT", Team: "acme"}, nil
}

func (m *mockSlackAPI) PostMessage(channelID string, options ...slack.MsgOption) (string, string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.postErr != nil {
		return "", "", m.postErr
	}
	m.PostedMessages = append(m.PostedMessages, postedMessage{ChannelID: channelID, Options: options})
	return channelID, fmt.Sprintf("1700000000.%06d", len(m.PostedMessages)), nil
}

func (m *mockSlackAPI) PostEphemeral(channelID, userID string, options ...slack.MsgOption) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.ephemeralBlocksErr != nil {
		_, vals, _ := slack.UnsafeApplyMsgOptions("", channelID, "", options...)
		if vals.Get("blocks") != "" {
			return "", m.ephemeralBlocksErr
		}
	}
	m.Ephemerals = append(m.Ephemerals, postedEphemeral{ChannelID: channelID, UserID: userID, Options: options})
	return "1700000000.999999", nil
}

func (m *mockSlackAPI) UpdateMessage(channelID, timestamp string, options ...slack.MsgOption) (string, string, string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.updateCalls++
	if m.updateErr != nil {
		return "", "", "", m.updateErr
	}
	if m.failUpdatesFrom > 0 && m.updateCalls >= m.failUpdatesFrom {
		return "", "", "", errors.New("invalid_blocks")
	}
	m.UpdatedMessages = append(m.UpdatedMessages, updatedMessage{ChannelID: channelID, Timestamp: timestamp, Options: options})
	return channelID, timestamp, "", nil
}

func (m *mockSlackAPI) ephemeralTexts(t *testing.T) []string {
	t.Helper()
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []string
	for _, e := range m.Ephemerals {
		out = append(out, render(t, e.Options).Text)
	}
	return out
}

func (m *mockSlackAPI) ephemerals(t *testing.T) []renderedMessage {
	t.Helper()
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []renderedMessage
	for _, e := range m.Ephemerals {
		out = append(out, render(t, e.Options))
	}
	return out
}

func (m *mockSlackAPI) updates(t *testing.T) []renderedMessage {
	t.Helper()
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []renderedMessage
	for _, u := range m.UpdatedMessages {
		out = append(out, render(t, u.Options))
	}
	return out
}

// ---------- Rendering helpers ----------

type renderedButton struct {
	ActionID string
	Value    string
	Label    string
	Style    string
}

type renderedMessage struct {
	Text     string
	ThreadTS string
	Blocks   []map[string]interface{}
}

// render applies message options the way the Slack client would and decodes
// the resulting blocks payload.
func render(t *testing.T, options []slack.MsgOption) renderedMessage {
	t.Helper()
	_, vals, err := slack.UnsafeApplyMsgOptions("", "C_TEST", "", options...)
	require.NoError(t, err)
	msg := renderedMessage{Text: vals.Get("text"), ThreadTS: vals.Get("thread_ts")}
	if raw := vals.Get("blocks"); raw != "" {
		require.NoError(t, json.Unmarshal([]byte(raw), &msg.Blocks))
	}
	return msg
}

func (m renderedMessage) sections() []string {
	var out []string
	for _, b := range m.Blocks {
		if b["type"] != "section" {
			continue
		}
		if text, ok := b["text"].(map[string]interface{}); ok {
			out = append(out, text["text"].(string))
		}
	}
	return out
}

func (m renderedMessage) buttons() []renderedButton {
	var out []renderedButton
	for _, b := range m.Blocks {
		if b["type"] != "actions" {
			continue
		}
		elems, _ := b["elements"].([]interface{})
		for _, e := range elems {
			el := e.(map[string]interface{})
			btn := renderedButton{}
			btn.ActionID, _ = el["action_id"].(string)
			btn.Value, _ = el["value"].(string)
			btn.Style, _ = el["style"].(string)
			if text, ok := el["text"].(map[string]interface{}); ok {
				btn.Label, _ = text["text"].(string)
			}
			out = append(out, btn)
		}
	}
	return out
}

func (m renderedMessage) allText() string {
	return strings.Join(m.sections(), "\n")
}

// ---------- Batch fakes ----------

type fakeStructurer struct {
	err error
}

func (f *fakeStructurer) Structure(_ context.Context, lines []string) ([]types.ProposedTask, error) {
	if f.err != nil {
		return nil, f.err
	}
	tasks := make([]types.ProposedTask, len(lines))
	for i, line := range lines {
		tasks[i] = types.ProposedTask{
			Title:       line,
			Description: "**Goal:** " + line,
			Priority:    types.PriorityHigh,
			State:       types.StateTodo,
		}
	}
	return tasks, nil
}

type fakeTracker struct {
	mu         sync.Mutex
	seq        int
	deleted    []string
	failTitles map[string]bool
}

func (f *fakeTracker) DisplayName() string { return "Linear" }

func (f *fakeTracker) CreateIssue(_ context.Context, draft *tracker.IssueDraft) (*tracker.TrackerIssue, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.failTitles[draft.Title] {
		return nil, errors.New("issueCreate: success=false")
	}
	f.seq++
	return &tracker.TrackerIssue{
		ID:         "id-" + draft.Title,
		Identifier: fmt.Sprintf("ENG-%d", f.seq),
		Title:      draft.Title,
		URL:        fmt.Sprintf("https://linear.app/acme/issue/ENG-%d/slug", f.seq),
	}, nil
}

func (f *fakeTracker) DeleteIssue(_ context.Context, id string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.deleted = append(f.deleted, id)
	return nil
}

type fixedResolver struct{}

func (fixedResolver) Resolve(context.Context, types.WorkflowState) string { return "state-todo" }

type testEnv struct {
	bot   *Bot
	api   *mockSlackAPI
	orch  *batch.Orchestrator
	track *fakeTracker
	st    *fakeStructurer
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	api := &mockSlackAPI{}
	st := &fakeStructurer{}
	tr := &fakeTracker{}
	orch := batch.New(st, tr, fixedResolver{}, batch.Options{})
	return &testEnv{
		bot:   newBotForTest(api, orch),
		api:   api,
		orch:  orch,
		track: tr,
		st:    st,
	}
}

func slashCommand(text string) slack.SlashCommand {
	return slack.SlashCommand{
		Command:   DefaultCommand,
		Text:      text,
		ChannelID: "C_TASKS",
		UserID:    "U_OPERATOR",
	}
}

func blockAction(actionID, value string) slack.InteractionCallback {
	var cb slack.InteractionCallback
	cb.Type = slack.InteractionTypeBlockActions
	cb.Channel.ID = "C_TASKS"
	cb.User.ID = "U_OPERATOR"
	cb.Message.Timestamp = "1700000000.000001"
	cb.ActionCallback.BlockActions = []*slack.BlockAction{{ActionID: actionID, Value: value}}
	return cb
}

// propose drives the slash command and returns the token on the preview buttons.
func (e *testEnv) propose(t *testing.T, text string) string {
	t.Helper()
	e.bot.handleSlashCommand(context.Background(), slashCommand(text))
	updates := e.api.updates(t)
	require.NotEmpty(t, updates)
	buttons := updates[len(updates)-1].buttons()
	require.Len(t, buttons, 2)
	return buttons[0].Value
}

// ---------- Tests ----------

func TestNewBot_Validation(t *testing.T) {
	orch := batch.New(&fakeStructurer{}, &fakeTracker{}, fixedResolver{}, batch.Options{})
	tests := []struct {
		name string
		cfg  BotConfig
		want string
	}{
		{"missing bot token", BotConfig{AppToken: "xapp-1"}, "bot token is required"},
		{"missing app token", BotConfig{BotToken: "xoxb-1"}, "app token is required"},
		{"wrong app token", BotConfig{BotToken: "xoxb-1", AppToken: "xoxb-2"}, "must start with xapp-"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := NewBot(tt.cfg, orch)
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.want)
		})
	}

	bot, err := NewBot(BotConfig{BotToken: "xoxb-1", AppToken: "xapp-1"}, orch)
	require.NoError(t, err)
	assert.NotNil(t, bot.socketMode)
	assert.Equal(t, DefaultCommand, bot.command)
}

func TestSlashCommand_EmptyInput(t *testing.T) {
	env := newTestEnv(t)

	env.bot.handleSlashCommand(context.Background(), slashCommand(" \n  \n"))

	assert.Equal(t, []string{batch.MsgInvalidInput}, env.api.ephemeralTexts(t))
	assert.Empty(t, env.api.PostedMessages)
	assert.Equal(t, 0, env.orch.Pending())
}

func TestSlashCommand_UnknownCommand(t *testing.T) {
	env := newTestEnv(t)

	cmd := slashCommand("a")
	cmd.Command = "/decide"
	env.bot.handleSlashCommand(context.Background(), cmd)

	assert.Equal(t, []string{"Unknown command: /decide"}, env.api.ephemeralTexts(t))
}

func TestSlashCommand_PostsPreview(t *testing.T) {
	env := newTestEnv(t)

	env.bot.handleSlashCommand(context.Background(), slashCommand("Write docs\n\n  Fix <login> bug  \n"))

	require.Len(t, env.api.PostedMessages, 1)
	placeholder := render(t, env.api.PostedMessages[0].Options)
	assert.Equal(t, "⏳ Structuring 2 tasks…", placeholder.Text)

	updates := env.api.updates(t)
	require.Len(t, updates, 1)
	preview := updates[0]
	assert.Equal(t, "📋 Preview of 2 tasks to create:", preview.Text)

	text := preview.allText()
	assert.Contains(t, text, "*1. Write docs* (Priority: high, State: Todo)")
	assert.Contains(t, text, "*2. Fix &lt;login&gt; bug* (Priority: high, State: Todo)")

	buttons := preview.buttons()
	require.Len(t, buttons, 2)
	assert.Equal(t, renderedButton{ActionID: ActionCreateAll, Value: "1", Label: "✅ Create All Tasks", Style: "primary"}, buttons[0])
	assert.Equal(t, renderedButton{ActionID: ActionCancelAll, Value: "1", Label: "❌ Cancel", Style: "danger"}, buttons[1])
	assert.Equal(t, 1, env.orch.Pending())
}

func TestSlashCommand_StructuringFailure(t *testing.T) {
	env := newTestEnv(t)
	env.st.err = errors.New("model overloaded")

	env.bot.handleSlashCommand(context.Background(), slashCommand("a\nb"))

	updates := env.api.updates(t)
	require.Len(t, updates, 1)
	assert.Equal(t, batch.MsgProcessFailed, updates[0].Text)
	assert.Empty(t, updates[0].buttons())
	assert.Equal(t, 0, env.orch.Pending())
}

func TestSlashCommand_PreviewUpdateFailureDropsBatch(t *testing.T) {
	env := newTestEnv(t)
	env.api.updateErr = errors.New("invalid_blocks")

	env.bot.handleSlashCommand(context.Background(), slashCommand("a"))

	assert.Equal(t, 0, env.orch.Pending())
	assert.Len(t, env.api.PostedMessages, 1)
	assert.Equal(t, []string{batch.MsgProcessFailed}, env.api.ephemeralTexts(t))
}

func TestSlashCommand_StructuringFailureUpdateRefused(t *testing.T) {
	env := newTestEnv(t)
	env.st.err = errors.New("model overloaded")
	env.api.updateErr = errors.New("message_not_found")

	env.bot.handleSlashCommand(context.Background(), slashCommand("a"))

	assert.Equal(t, []string{batch.MsgProcessFailed}, env.api.ephemeralTexts(t))
}

func TestSlashCommand_PlaceholderFailure(t *testing.T) {
	env := newTestEnv(t)
	env.api.postErr = errors.New("not_in_channel")

	env.bot.handleSlashCommand(context.Background(), slashCommand("a"))

	assert.Equal(t, []string{batch.MsgProcessFailed}, env.api.ephemeralTexts(t))
	assert.Equal(t, 0, env.orch.Pending())
}

func TestCreateAll_Committed(t *testing.T) {
	env := newTestEnv(t)
	token := env.propose(t, "Write docs\nShip it")

	env.bot.handleInteraction(context.Background(), blockAction(ActionCreateAll, token))

	updates := env.api.updates(t)
	require.Len(t, updates, 3) // preview, creating, result
	creating := updates[1]
	assert.Equal(t, "⏳ Creating 2 tasks…", creating.Text)
	assert.Empty(t, creating.buttons())

	result := updates[2]
	assert.True(t, strings.HasPrefix(result.Text, "✅ All 2 tasks created successfully in Linear:"))
	text := result.allText()
	assert.Contains(t, text, "|ENG-")
	assert.Contains(t, text, "<https://linear.app/acme/issue/ENG-")

	buttons := result.buttons()
	require.Len(t, buttons, 1)
	assert.Equal(t, ActionUndo, buttons[0].ActionID)
	assert.Equal(t, "Undo All 2 Tasks", buttons[0].Label)
	assert.Equal(t, "danger", buttons[0].Style)
	assert.Equal(t, 2, env.orch.UndoSize())
}

func TestCreateAll_ResultUpdateRefused(t *testing.T) {
	env := newTestEnv(t)
	token := env.propose(t, "Write docs\nShip it")
	env.api.failUpdatesFrom = 3 // preview and "creating" land, the result does not

	env.bot.handleInteraction(context.Background(), blockAction(ActionCreateAll, token))

	ephemerals := env.api.ephemerals(t)
	require.Len(t, ephemerals, 1)
	assert.True(t, strings.HasPrefix(ephemerals[0].Text, "✅ All 2 tasks created successfully in Linear:"))
	assert.Contains(t, ephemerals[0].allText(), "<https://linear.app/acme/issue/ENG-1|ENG-1 Write docs>")
	buttons := ephemerals[0].buttons()
	require.Len(t, buttons, 1)
	assert.Equal(t, ActionUndo, buttons[0].ActionID)
	assert.Equal(t, 2, env.orch.UndoSize())
}

func TestCreateAll_ResultFallsBackToPlainText(t *testing.T) {
	env := newTestEnv(t)
	token := env.propose(t, "a\nb")
	env.api.failUpdatesFrom = 3
	env.api.ephemeralBlocksErr = errors.New("invalid_blocks")

	env.bot.handleInteraction(context.Background(), blockAction(ActionCreateAll, token))

	ephemerals := env.api.ephemerals(t)
	require.Len(t, ephemerals, 1)
	assert.True(t, strings.HasPrefix(ephemerals[0].Text, "✅ All 2 tasks created successfully in Linear:"))
	assert.Contains(t, ephemerals[0].Text, "ENG-2")
	assert.Empty(t, ephemerals[0].Blocks)
}

func TestCreateAll_SecondClickIsStale(t *testing.T) {
	env := newTestEnv(t)
	token := env.propose(t, "a\nb")

	env.bot.handleInteraction(context.Background(), blockAction(ActionCreateAll, token))
	env.bot.handleInteraction(context.Background(), blockAction(ActionCreateAll, token))

	assert.Equal(t, []string{batch.MsgStaleToken}, env.api.ephemeralTexts(t))
	assert.Len(t, env.api.updates(t), 3, "the stale click must not touch the message")
	assert.Equal(t, 2, env.track.seq)
}

func TestCreateAll_ConcurrentClicks(t *testing.T) {
	env := newTestEnv(t)
	token := env.propose(t, "a\nb\nc")

	var wg sync.WaitGroup
	for range 5 {
		wg.Go(func() {
			env.bot.handleInteraction(context.Background(), blockAction(ActionCreateAll, token))
		})
	}
	wg.Wait()

	assert.Equal(t, 3, env.track.seq, "each task created exactly once")
	assert.Len(t, env.api.ephemeralTexts(t), 4)

	var creating int
	for _, u := range env.api.updates(t) {
		if strings.HasPrefix(u.Text, "⏳ Creating") {
			creating++
		}
	}
	assert.Equal(t, 1, creating)
}

func TestCreateAll_PartialFailure(t *testing.T) {
	env := newTestEnv(t)
	env.track.failTitles = map[string]bool{"Bad task": true}
	token := env.propose(t, "Good task\nBad task")

	env.bot.handleInteraction(context.Background(), blockAction(ActionCreateAll, token))

	updates := env.api.updates(t)
	result := updates[len(updates)-1]
	assert.Contains(t, result.Text, "You can attempt to undo the 1 tasks")
	assert.Contains(t, result.allText(), "✗ Bad task")

	buttons := result.buttons()
	require.Len(t, buttons, 1)
	assert.Equal(t, "Undo 1 Created Tasks", buttons[0].Label)
}

func TestCreateAll_MalformedToken(t *testing.T) {
	env := newTestEnv(t)

	env.bot.handleInteraction(context.Background(), blockAction(ActionCreateAll, "not-a-token"))

	assert.Equal(t, []string{batch.MsgStaleToken}, env.api.ephemeralTexts(t))
	assert.Empty(t, env.api.updates(t))
}

func TestCancel(t *testing.T) {
	env := newTestEnv(t)
	token := env.propose(t, "a")

	env.bot.handleInteraction(context.Background(), blockAction(ActionCancelAll, token))
	updates := env.api.updates(t)
	require.Len(t, updates, 2)
	assert.Equal(t, batch.MsgCancelled, updates[1].Text)
	assert.Empty(t, updates[1].buttons())
	assert.Equal(t, 0, env.orch.Pending())

	env.bot.handleInteraction(context.Background(), blockAction(ActionCancelAll, token))
	assert.Equal(t, []string{batch.MsgAlreadyCancelled}, env.api.ephemeralTexts(t))
	assert.Len(t, env.api.updates(t), 2)
}

func TestCancel_UpdateRefused(t *testing.T) {
	env := newTestEnv(t)
	token := env.propose(t, "a")
	env.api.updateErr = errors.New("message_not_found")

	env.bot.handleInteraction(context.Background(), blockAction(ActionCancelAll, token))

	assert.Equal(t, []string{batch.MsgCancelled}, env.api.ephemeralTexts(t))
	assert.Equal(t, 0, env.orch.Pending())
}

func TestCreateAfterCancel_IsStale(t *testing.T) {
	env := newTestEnv(t)
	token := env.propose(t, "a")

	env.bot.handleInteraction(context.Background(), blockAction(ActionCancelAll, token))
	env.bot.handleInteraction(context.Background(), blockAction(ActionCreateAll, token))

	assert.Equal(t, []string{batch.MsgStaleToken}, env.api.ephemeralTexts(t))
	assert.Equal(t, 0, env.track.seq)
}

func TestUndo_Empty(t *testing.T) {
	env := newTestEnv(t)

	env.bot.handleInteraction(context.Background(), blockAction(ActionUndo, "undo"))

	assert.Equal(t, []string{batch.MsgNothingToUndo}, env.api.ephemeralTexts(t))
	assert.Empty(t, env.api.updates(t))
}

func TestUndo_AfterCreate(t *testing.T) {
	env := newTestEnv(t)
	token := env.propose(t, "a\nb")
	env.bot.handleInteraction(context.Background(), blockAction(ActionCreateAll, token))

	env.bot.handleInteraction(context.Background(), blockAction(ActionUndo, "undo"))

	updates := env.api.updates(t)
	last := updates[len(updates)-1]
	assert.Equal(t, "🗑️ 2 task(s) deleted successfully.", last.Text)
	assert.Empty(t, last.buttons())
	assert.ElementsMatch(t, []string{"id-a", "id-b"}, env.track.deleted)

	env.bot.handleInteraction(context.Background(), blockAction(ActionUndo, "undo"))
	assert.Equal(t, []string{batch.MsgNothingToUndo}, env.api.ephemeralTexts(t))
}

func TestUndo_UpdateRefused(t *testing.T) {
	env := newTestEnv(t)
	token := env.propose(t, "a\nb")
	env.bot.handleInteraction(context.Background(), blockAction(ActionCreateAll, token))
	env.api.updateErr = errors.New("message_not_found")

	env.bot.handleInteraction(context.Background(), blockAction(ActionUndo, "undo"))

	assert.Equal(t, []string{"🗑️ 2 task(s) deleted successfully."}, env.api.ephemeralTexts(t))
	assert.Equal(t, 0, env.orch.UndoSize())
}

func TestHandleEvent_ConnectionState(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	assert.False(t, env.bot.IsConnected())
	env.bot.handleEvent(ctx, socketmode.Event{Type: socketmode.EventTypeConnected})
	assert.True(t, env.bot.IsConnected())
	env.bot.handleEvent(ctx, socketmode.Event{Type: socketmode.EventTypeConnectionError})
	assert.False(t, env.bot.IsConnected())
}

func TestHandleEvent_DispatchesSlashCommand(t *testing.T) {
	env := newTestEnv(t)

	env.bot.handleEvent(context.Background(), socketmode.Event{
		Type: socketmode.EventTypeSlashCommand,
		Data: slashCommand("a\nb"),
	})
	env.bot.wg.Wait()

	assert.Equal(t, 1, env.orch.Pending())
	assert.Len(t, env.api.updates(t), 1)
}

func TestDispatch_StopsOnCancel(t *testing.T) {
	env := newTestEnv(t)
	events := make(chan socketmode.Event)
	loopCtx, stop := context.WithCancel(context.Background())

	done := make(chan struct{})
	go func() {
		defer close(done)
		env.bot.dispatch(loopCtx, context.Background(), events)
	}()

	events <- socketmode.Event{Type: socketmode.EventTypeSlashCommand, Data: slashCommand("a")}
	stop()

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("dispatch kept running after cancel")
	}
	env.bot.wg.Wait()
	assert.Equal(t, 1, env.orch.Pending(), "an event received before cancel is still handled")
}

func TestDispatch_StopsWhenEventsClose(t *testing.T) {
	env := newTestEnv(t)
	events := make(chan socketmode.Event)
	close(events)

	done := make(chan struct{})
	go func() {
		defer close(done)
		env.bot.dispatch(context.Background(), context.Background(), events)
	}()

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("dispatch kept running after the event channel closed")
	}
}

func TestHandleEvent_AppMentionRepliesInThread(t *testing.T) {
	env := newTestEnv(t)
	env.bot.botUserID = "U_BOT"

	mention := func(user string) socketmode.Event {
		return socketmode.Event{
			Type: socketmode.EventTypeEventsAPI,
			Data: slackevents.EventsAPIEvent{
				Type: slackevents.CallbackEvent,
				InnerEvent: slackevents.EventsAPIInnerEvent{
					Type: "app_mention",
					Data: &slackevents.AppMentionEvent{User: user, Channel: "C_TASKS", TimeStamp: "1700000000.000100"},
				},
			},
		}
	}
	env.bot.handleEvent(context.Background(), mention("U_OPERATOR"))
	env.bot.handleEvent(context.Background(), mention("U_BOT"))

	require.Len(t, env.api.PostedMessages, 1)
	reply := render(t, env.api.PostedMessages[0].Options)
	assert.Equal(t, "1700000000.000100", reply.ThreadTS)
	assert.Contains(t, reply.Text, "/createtasks")
	assert.Contains(t, reply.Text, "Linear")
}
