package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"lightbox/internal/scan"
)

func newShortlistCommand(ctx *commandContext) *cobra.Command {
	var jsonOutput bool

	cmd := &cobra.Command{
		Use:   "shortlist [job-id]",
		Short: "Show a completed scan's print shortlist",
		Long:  "Show a completed scan's print shortlist. Without a job ID the most recent completed scan is used.",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			apiClient, err := ctx.apiClient()
			if err != nil {
				return err
			}

			var snapshot scan.Snapshot
			if len(args) == 1 {
				snapshot, err = apiClient.Scan(cmd.Context(), args[0])
				if err != nil {
					return err
				}
			} else {
				snapshots, err := apiClient.Scans(cmd.Context())
				if err != nil {
					return err
				}
				found := false
				for _, snap := range snapshots {
					if snap.State == scan.StateComplete {
						snapshot = snap
						found = true
						break
					}
				}
				if !found {
					return fmt.Errorf("no completed scans; run lightbox scan first")
				}
			}

			if snapshot.State != scan.StateComplete {
				return fmt.Errorf("scan %s is %s; the shortlist is available once it completes", snapshot.ID, snapshot.State)
			}

			if jsonOutput {
				return writeJSON(cmd, snapshot.Shortlist)
			}

			stdout := cmd.OutOrStdout()
			if len(snapshot.Shortlist) == 0 {
				fmt.Fprintf(stdout, "Scan %s produced an empty shortlist\n", snapshot.ID)
				return nil
			}
			fmt.Fprintf(stdout, "Shortlist for scan %s\n", snapshot.ID)
			fmt.Fprintln(stdout, renderShortlistTable(snapshot.Shortlist))
			return nil
		},
	}

	cmd.Flags().BoolVar(&jsonOutput, "json", false, "Emit machine-readable JSON")
	return cmd
}
