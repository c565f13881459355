package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"lightbox/internal/api"
)

func newSelectCommand(ctx *commandContext) *cobra.Command {
	var remove bool
	var jsonOutput bool

	cmd := &cobra.Command{
		Use:   "select <job-id> <candidate-id>",
		Short: "Mark a shortlist entry for printing",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			apiClient, err := ctx.apiClient()
			if err != nil {
				return err
			}
			entry, err := apiClient.ToggleSelection(cmd.Context(), args[0], api.SelectionRequest{
				CandidateID: args[1],
				Selected:    !remove,
			})
			if err != nil {
				return err
			}
			if jsonOutput {
				return writeJSON(cmd, entry)
			}
			verb := "selected"
			if remove {
				verb = "deselected"
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Candidate %s (%s) %s\n", entry.CandidateID, entry.Filename, verb)
			return nil
		},
	}

	cmd.Flags().BoolVar(&remove, "remove", false, "Clear the selection instead of setting it")
	cmd.Flags().BoolVar(&jsonOutput, "json", false, "Emit machine-readable JSON")
	return cmd
}
