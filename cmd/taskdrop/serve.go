package main

import (
	"context"
	"fmt"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/taskdrop/taskdrop/internal/batch"
	"github.com/taskdrop/taskdrop/internal/config"
	"github.com/taskdrop/taskdrop/internal/events"
	"github.com/taskdrop/taskdrop/internal/slackbot"
)

func newServeCmd(state *cliState) *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the Slack bot",
		Long: `Starts the Slack bot in the foreground. The bot connects via Socket Mode and
handles the /createtasks command and its Create, Cancel and Undo buttons.

Required configuration (taskdrop.yaml or environment):
  slack.bot_token   SLACK_BOT_TOKEN    Slack bot token (xoxb-...)
  slack.app_token   SLACK_APP_TOKEN    Slack app-level token (xapp-...)
  ai.api_key        ANTHROPIC_API_KEY  Anthropic API key
  linear.api_key    LINEAR_API_KEY     Linear API key
  linear.team_id    LINEAR_TEAM_ID     Linear team that receives issues

Optional:
  nats.url          TASKDROP_NATS_URL  Publish batch events to NATS JetStream
  health.port       HEALTH_PORT        Health and metrics HTTP port (default: 8080)`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServe(cmd.Context(), state)
		},
	}
}

func runServe(parent context.Context, state *cliState) error {
	logger := state.log()
	if err := config.Require(config.KeySlackBotToken, config.KeySlackAppToken, config.KeyAIAPIKey); err != nil {
		return err
	}
	policy, err := batch.ParsePartialPolicy(config.GetString(config.KeyBatchPartialPolicy))
	if err != nil {
		return err
	}

	ctx, cancel := signal.NotifyContext(parent, syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	t, err := openTracker(ctx)
	if err != nil {
		return err
	}
	defer func() { _ = t.Close() }()

	structurer, err := newStructurer()
	if err != nil {
		return err
	}

	opts := batch.Options{
		Policy: policy,
		Logger: logger.With("component", "batch"),
	}
	if natsURL := config.GetString(config.KeyNATSURL); natsURL != "" {
		pub, err := events.Connect(natsURL, logger.With("component", "events"))
		if err != nil {
			return err
		}
		defer pub.Close()
		opts.Events = pub
		logger.Info("publishing batch events", "nats", natsURL, "stream", events.StreamTaskBatchEvents)
	}

	orch := batch.New(structurer, t, newStateCache(t, logger), opts)

	bot, err := slackbot.NewBot(slackbot.BotConfig{
		BotToken: config.GetString(config.KeySlackBotToken),
		AppToken: config.GetString(config.KeySlackAppToken),
		Debug:    config.GetBool(config.KeySlackDebug),
		Logger:   logger,
	}, orch)
	if err != nil {
		return fmt.Errorf("create Slack bot: %w", err)
	}

	health := slackbot.NewHealthServer(bot, config.GetInt(config.KeyHealthPort))
	go func() {
		if err := health.Start(ctx); err != nil {
			logger.Error("health server stopped", "error", err)
		}
	}()

	logger.Info("starting taskdrop",
		"tracker", t.DisplayName(),
		"model", structurer.Model(),
		"partial_policy", policy.String(),
		"health_port", config.GetInt(config.KeyHealthPort))
	return bot.Run(ctx)
}
