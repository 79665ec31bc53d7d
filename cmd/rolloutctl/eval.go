package main

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"
)

func newEvalCmd(flags *globalFlags) *cobra.Command {
	var asJSON bool

	cmd := &cobra.Command{
		Use:   "eval FILE FEATURE SUBJECT...",
		Short: "Show the decision for each subject",
		Args:  cobra.MinimumNArgs(3),
		RunE: func(cmd *cobra.Command, args []string) error {
			mgr, err := flags.newManager(cmd, args[0])
			if err != nil {
				return err
			}

			feature := args[1]
			out := cmd.OutOrStdout()
			enc := json.NewEncoder(out)

			for _, subject := range args[2:] {
				decision, err := mgr.Evaluate(feature, subject)
				if err != nil {
					return err
				}

				if asJSON {
					if err := enc.Encode(decision); err != nil {
						return err
					}

					continue
				}

				variation, label := "-", "-"
				if decision.Variation != nil {
					variation = decision.Variation.Name
					if decision.Variation.Label != "" {
						label = decision.Variation.Label
					}
				}
				fmt.Fprintf(out, "%s\tenabled=%t\tvariation=%s\tlabel=%s\n",
					subject, decision.Enabled, variation, label)
			}

			return nil
		},
	}

	cmd.Flags().BoolVar(&asJSON, "json", false, "print one JSON decision per line")

	return cmd
}
