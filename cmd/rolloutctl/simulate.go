package main

import (
	"fmt"
	"slices"

	"github.com/spf13/cobra"
)

func newSimulateCmd(flags *globalFlags) *cobra.Command {
	var (
		subjects int
		prefix   string
	)

	cmd := &cobra.Command{
		Use:   "simulate FILE FEATURE",
		Short: "Bucket synthetic subjects and print the variation distribution",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			if subjects <= 0 {
				return fmt.Errorf("--subjects must be > 0, got %d", subjects)
			}

			mgr, err := flags.newManager(cmd, args[0])
			if err != nil {
				return err
			}

			feature := args[1]
			if _, err := mgr.Evaluate(feature, prefix+"0"); err != nil {
				return err
			}

			counts := make(map[string]int)
			for i := range subjects {
				name, ok := mgr.VariationName(feature, fmt.Sprintf("%s%d", prefix, i))
				if !ok {
					name = "(none)"
				}
				counts[name]++
			}

			names := make([]string, 0, len(counts))
			for name := range counts {
				names = append(names, name)
			}
			slices.Sort(names)

			out := cmd.OutOrStdout()
			for _, name := range names {
				fmt.Fprintf(out, "%-16s %8d %6.2f%%\n", name, counts[name],
					100*float64(counts[name])/float64(subjects))
			}

			return nil
		},
	}

	cmd.Flags().IntVarP(&subjects, "subjects", "n", 10_000, "number of synthetic subjects")
	cmd.Flags().StringVar(&prefix, "prefix", "subject-", "synthetic subject ID prefix")

	return cmd
}
