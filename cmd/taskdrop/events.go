package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/nats-io/nats.go"
	"github.com/spf13/cobra"

	"github.com/taskdrop/taskdrop/internal/batch"
	"github.com/taskdrop/taskdrop/internal/config"
	"github.com/taskdrop/taskdrop/internal/events"
	"github.com/taskdrop/taskdrop/internal/ui"
)

func newEventsCmd(state *cliState) *cobra.Command {
	var (
		replay     bool
		count      int
		jsonOutput bool
	)
	cmd := &cobra.Command{
		Use:   "events",
		Short: "Tail batch lifecycle events from NATS JetStream",
		Long: `Subscribes to the TASK_BATCH_EVENTS stream and prints each batch event
(proposed, committed, partial, cancelled, reverted) as it arrives.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := config.Require(config.KeyNATSURL); err != nil {
				return err
			}
			ctx, cancel := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer cancel()

			pub, err := events.Connect(config.GetString(config.KeyNATSURL), state.log().With("component", "events"))
			if err != nil {
				return err
			}
			defer pub.Close()

			evCh := make(chan batch.Event, 64)
			var subOpts []nats.SubOpt
			if replay {
				subOpts = append(subOpts, nats.DeliverAll())
			}
			sub, err := pub.Subscribe(func(ev batch.Event) {
				select {
				case evCh <- ev:
				case <-ctx.Done():
				}
			}, subOpts...)
			if err != nil {
				return fmt.Errorf("subscribe to %s: %w", events.StreamTaskBatchEvents, err)
			}
			defer func() { _ = sub.Unsubscribe() }()

			out := cmd.OutOrStdout()
			for seen := 0; count <= 0 || seen < count; seen++ {
				select {
				case <-ctx.Done():
					return nil
				case ev := <-evCh:
					if err := writeEvent(out, ev, jsonOutput); err != nil {
						return err
					}
				}
			}
			return nil
		},
	}
	cmd.Flags().BoolVar(&replay, "all", false, "Replay every retained event before tailing")
	cmd.Flags().IntVarP(&count, "count", "n", 0, "Exit after this many events (0 = run until interrupted)")
	cmd.Flags().BoolVar(&jsonOutput, "json", false, "Output one JSON object per event")
	return cmd
}

func writeEvent(w io.Writer, ev batch.Event, jsonOutput bool) error {
	if jsonOutput {
		return json.NewEncoder(w).Encode(ev)
	}

	var sb strings.Builder
	sb.WriteString(ui.RenderMuted(ev.Timestamp.Local().Format(time.DateTime)))
	sb.WriteString(" ")
	sb.WriteString(renderEventKind(ev.Kind))
	if ev.Token != 0 {
		fmt.Fprintf(&sb, " token=%s", ev.Token)
	}
	fmt.Fprintf(&sb, " tasks=%d", ev.TaskCount)
	if len(ev.CreatedIDs) > 0 {
		fmt.Fprintf(&sb, " ids=%s", strings.Join(ev.CreatedIDs, ","))
	}
	if ev.Failures > 0 {
		fmt.Fprintf(&sb, " failures=%d", ev.Failures)
	}
	_, err := fmt.Fprintln(w, sb.String())
	return err
}

func renderEventKind(kind batch.EventKind) string {
	label := fmt.Sprintf("%-9s", kind)
	switch kind {
	case batch.EventCommitted:
		return ui.RenderPass(label)
	case batch.EventPartial:
		return ui.RenderFail(label)
	case batch.EventCancelled, batch.EventReverted:
		return ui.RenderWarn(label)
	default:
		return ui.RenderAccent(label)
	}
}
