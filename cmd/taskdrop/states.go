package main

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/taskdrop/taskdrop/internal/tracker"
	"github.com/taskdrop/taskdrop/internal/types"
	"github.com/taskdrop/taskdrop/internal/ui"
)

type stateResolution struct {
	Semantic types.WorkflowState `json:"semantic"`
	StateID  string              `json:"state_id,omitempty"`
	Name     string              `json:"name,omitempty"`
}

func newStatesCmd(state *cliState) *cobra.Command {
	var jsonOutput bool
	cmd := &cobra.Command{
		Use:   "states",
		Short: "List tracker workflow states and how task states map onto them",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			t, err := openTracker(ctx)
			if err != nil {
				return err
			}
			defer func() { _ = t.Close() }()

			states, err := t.ListWorkflowStates(ctx)
			if err != nil {
				return fmt.Errorf("list %s workflow states: %w", t.DisplayName(), err)
			}
			state.log().Debug("fetched workflow states", "tracker", t.Name(), "count", len(states))

			resolved := resolveAll(states)
			out := cmd.OutOrStdout()
			if jsonOutput {
				enc := json.NewEncoder(out)
				enc.SetIndent("", "  ")
				return enc.Encode(map[string]interface{}{
					"tracker":  t.Name(),
					"states":   states,
					"resolved": resolved,
				})
			}

			fmt.Fprintln(out, ui.RenderCategory(t.DisplayName()+" workflow states"))
			for _, s := range states {
				fmt.Fprintf(out, "  %-20s %-12s %s\n", s.Name, s.Type, ui.RenderMuted(s.ID))
			}
			fmt.Fprintln(out)
			fmt.Fprintln(out, ui.RenderCategory("Task state mapping"))
			for _, r := range resolved {
				fmt.Fprintln(out, "  "+ui.RenderStateResolution(r.Semantic, r.Name, r.StateID))
			}
			return nil
		},
	}
	cmd.Flags().BoolVar(&jsonOutput, "json", false, "Output JSON")
	return cmd
}

func resolveAll(states []tracker.WorkflowState) []stateResolution {
	byID := make(map[string]string, len(states))
	for _, s := range states {
		byID[s.ID] = s.Name
	}
	out := make([]stateResolution, 0, len(types.AllWorkflowStates))
	for _, semantic := range types.AllWorkflowStates {
		id := tracker.ResolveState(states, semantic)
		out = append(out, stateResolution{Semantic: semantic, StateID: id, Name: byID[id]})
	}
	return out
}
