package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

func newDiffCmd(flags *globalFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "diff OLD NEW",
		Short: "List per-feature changes between two documents",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			mgr, err := flags.newManager(cmd, args[0])
			if err != nil {
				return err
			}

			raw, err := os.ReadFile(args[1])
			if err != nil {
				return err
			}

			result, err := mgr.ApplyUpdate(raw)
			if err != nil {
				return &invalidDocumentError{path: args[1], err: err}
			}

			out := cmd.OutOrStdout()
			if !result.Changed() {
				fmt.Fprintln(out, "no changes")
				return nil
			}

			for _, change := range result.Changes {
				fmt.Fprintf(out, "%s\t%s\n", change.Feature, change.Kind)
			}

			return nil
		},
	}
}
