package main

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/taskdrop/taskdrop/internal/batch"
	"github.com/taskdrop/taskdrop/internal/types"
	"github.com/taskdrop/taskdrop/internal/ui"
)

type structureOptions struct {
	format     string
	promptOnly bool
	noPager    bool
}

func newStructureCmd(state *cliState) *cobra.Command {
	opts := &structureOptions{}
	cmd := &cobra.Command{
		Use:   "structure [task]...",
		Short: "Structure a task list without creating anything",
		Long: `Runs the structuring step that /createtasks uses and prints the proposed tasks.
Each argument is one task; with no arguments, tasks are read from stdin one per line.
Nothing is created in the tracker.`,
		Example: `  taskdrop structure "Set up CI" "Write onboarding docs"
  pbcopy < todo.txt; pbpaste | taskdrop structure --format yaml`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runStructure(cmd, state, opts, args)
		},
	}
	cmd.Flags().StringVar(&opts.format, "format", "text", "Output format: text, yaml or json")
	cmd.Flags().BoolVar(&opts.promptOnly, "prompt", false, "Print the prompt that would be sent and exit")
	cmd.Flags().BoolVar(&opts.noPager, "no-pager", false, "Disable the pager for text output")
	return cmd
}

func readTaskLines(cmd *cobra.Command, args []string) ([]string, error) {
	raw := strings.Join(args, "\n")
	if len(args) == 0 {
		data, err := io.ReadAll(cmd.InOrStdin())
		if err != nil {
			return nil, fmt.Errorf("read stdin: %w", err)
		}
		raw = string(data)
	}
	lines := batch.SplitLines(raw)
	if len(lines) == 0 {
		return nil, errors.New(batch.MsgInvalidInput)
	}
	return lines, nil
}

func runStructure(cmd *cobra.Command, state *cliState, opts *structureOptions, args []string) error {
	switch opts.format {
	case "text", "yaml", "json":
	default:
		return fmt.Errorf("unknown format %q (want text, yaml or json)", opts.format)
	}

	lines, err := readTaskLines(cmd, args)
	if err != nil {
		return err
	}

	client, err := newStructurer()
	if err != nil {
		return err
	}
	out := cmd.OutOrStdout()

	if opts.promptOnly {
		prompt, err := client.RenderPrompt(lines)
		if err != nil {
			return err
		}
		_, err = fmt.Fprintln(out, prompt)
		return err
	}

	state.log().Debug("structuring tasks", "lines", len(lines), "model", client.Model())
	tasks, err := client.Structure(cmd.Context(), lines)
	if err != nil {
		return fmt.Errorf("structure tasks: %w", err)
	}
	return writeTasks(out, tasks, opts)
}

func writeTasks(w io.Writer, tasks []types.ProposedTask, opts *structureOptions) error {
	switch opts.format {
	case "json":
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(tasks)
	case "yaml":
		enc := yaml.NewEncoder(w)
		enc.SetIndent(2)
		if err := enc.Encode(tasks); err != nil {
			return err
		}
		return enc.Close()
	default:
		return ui.ToPager(w, ui.RenderTaskPreview(tasks)+"\n", ui.PagerOptions{NoPager: opts.noPager})
	}
}
