package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/arloliu/rollout"
)

func newValidateCmd(flags *globalFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "validate FILE...",
		Short: "Check configuration documents and print their features",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			// Every file is checked; the first failure decides the exit code.
			var firstErr error
			for _, path := range args {
				if err := validateFile(cmd, flags, path); err != nil {
					if firstErr == nil {
						firstErr = err
					}
				}
			}

			return firstErr
		},
	}
}

func validateFile(cmd *cobra.Command, flags *globalFlags, path string) error {
	cfg, err := flags.loadConfig()
	if err != nil {
		return err
	}

	mgr, err := rollout.NewManager(&cfg, rollout.WithLogger(flags.logger(cmd)))
	if err != nil {
		return err
	}

	raw, err := os.ReadFile(path)
	if err != nil {
		return err
	}

	doc, err := mgr.Parse(raw)
	if err != nil {
		return &invalidDocumentError{path: path, err: err}
	}

	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "OK %s: %d features\n", path, len(doc.Features))
	for _, f := range doc.Features {
		state := "off"
		if f.Enabled {
			state = "on"
		}
		fmt.Fprintf(out, "  %-24s %-12s %-3s weights=%v\n", f.Name, f.Kind, state, f.Weights)
	}
	for _, w := range doc.Warnings {
		fmt.Fprintf(out, "  WARN %s\n", w.Error())
	}

	return nil
}
