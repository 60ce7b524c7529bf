package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/taskdrop/taskdrop/internal/config"
	"github.com/taskdrop/taskdrop/internal/ui"
)

func newConfigCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "config",
		Short: "Show the effective configuration",
		Long:  `Prints every configuration key with its effective value. Secrets are masked.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			out := cmd.OutOrStdout()
			file := config.ConfigFileUsed()
			if file == "" {
				file = "(none; environment and defaults only)"
			}
			fmt.Fprintf(out, "%s %s\n\n", ui.RenderMuted("config file:"), file)

			for _, k := range config.Keys {
				value := config.Redacted(k.Key)
				if value == "" {
					value = ui.RenderMuted("(unset)")
				}
				env := k.EnvVar
				if env == "" {
					env = "-"
				}
				fmt.Fprintf(out, "%-22s %-28s %s\n", k.Key, value, ui.RenderMuted(env))
			}
			return nil
		},
	}
}
