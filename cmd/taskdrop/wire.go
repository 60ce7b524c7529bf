package main

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/anthropics/anthropic-sdk-go/option"

	"github.com/taskdrop/taskdrop/internal/config"
	"github.com/taskdrop/taskdrop/internal/structure"
	"github.com/taskdrop/taskdrop/internal/telemetry"
	"github.com/taskdrop/taskdrop/internal/tracker"
)

// openTracker builds, initializes and instruments the configured tracker.
func openTracker(ctx context.Context) (tracker.IssueTracker, error) {
	name := config.GetString(config.KeyTracker)
	t, err := tracker.NewTracker(name)
	if err != nil {
		return nil, err
	}
	if err := t.Init(ctx, tracker.NewConfig(ctx, t.ConfigPrefix(), config.Store{})); err != nil {
		return nil, fmt.Errorf("init %s tracker: %w", name, err)
	}
	if err := t.Validate(); err != nil {
		return nil, fmt.Errorf("validate %s tracker: %w", name, err)
	}
	return telemetry.WrapTracker(t), nil
}

// newStructurer builds the structuring client from ai.* config.
func newStructurer() (*structure.Client, error) {
	var opts []option.RequestOption
	if base := config.GetString(config.KeyAIBaseURL); base != "" {
		opts = append(opts, option.WithBaseURL(base))
	}
	return structure.New(structure.Config{
		APIKey:    config.GetString(config.KeyAIAPIKey),
		Model:     config.GetString(config.KeyAIModel),
		MaxTokens: config.GetInt64(config.KeyAIMaxTokens),
	}, opts...)
}

// newStateCache wraps the tracker's workflow states in a shared cache.
func newStateCache(t tracker.IssueTracker, logger *slog.Logger) *tracker.StateCache {
	return tracker.NewStateCache(t, logger.With("component", "states"))
}
