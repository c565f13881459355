package main

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"lightbox/internal/api"
	"lightbox/internal/scan"
)

func newScanCommand(ctx *commandContext) *cobra.Command {
	var startFlag string
	var endFlag string
	var wait bool
	var jsonOutput bool

	cmd := &cobra.Command{
		Use:   "scan <directory>",
		Short: "Submit a directory for curation",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			apiClient, err := ctx.apiClient()
			if err != nil {
				return err
			}

			resp, err := apiClient.SubmitScan(cmd.Context(), api.SubmitScanRequest{
				Directory: args[0],
				Start:     startFlag,
				End:       endFlag,
			})
			if err != nil {
				return err
			}

			stdout := cmd.OutOrStdout()
			if !wait {
				if jsonOutput {
					return writeJSON(cmd, resp)
				}
				fmt.Fprintf(stdout, "Scan %s accepted (%s)\n", resp.JobID, resp.State)
				return nil
			}

			snapshot, err := waitForScan(cmd, apiClient, resp.JobID)
			if err != nil {
				return err
			}
			if jsonOutput {
				return writeJSON(cmd, snapshot)
			}
			printScanSummary(cmd, snapshot)
			if snapshot.State == scan.StateError {
				return fmt.Errorf("scan %s failed: %s", snapshot.ID, snapshot.ErrorMessage)
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&startFlag, "start", "", "Only include photos captured at or after this date (RFC 3339 or YYYY-MM-DD)")
	cmd.Flags().StringVar(&endFlag, "end", "", "Only include photos captured at or before this date (RFC 3339 or YYYY-MM-DD)")
	cmd.Flags().BoolVar(&wait, "wait", false, "Block until the scan completes")
	cmd.Flags().BoolVar(&jsonOutput, "json", false, "Emit machine-readable JSON")
	return cmd
}

func newScansCommand(ctx *commandContext) *cobra.Command {
	var jsonOutput bool

	cmd := &cobra.Command{
		Use:   "scans",
		Short: "List scan jobs, newest first",
		RunE: func(cmd *cobra.Command, args []string) error {
			apiClient, err := ctx.apiClient()
			if err != nil {
				return err
			}
			snapshots, err := apiClient.Scans(cmd.Context())
			if err != nil {
				return err
			}
			if jsonOutput {
				return writeJSON(cmd, snapshots)
			}
			if len(snapshots) == 0 {
				fmt.Fprintln(cmd.OutOrStdout(), "No scan jobs")
				return nil
			}
			rows := make([][]string, 0, len(snapshots))
			for _, snap := range snapshots {
				rows = append(rows, []string{
					snap.ID,
					string(snap.State),
					snap.Directory,
					progressSummary(snap),
					snap.CreatedAt.Local().Format("2006-01-02 15:04"),
				})
			}
			table := renderTable(
				[]string{"ID", "State", "Directory", "Progress", "Created"},
				rows,
				[]columnAlignment{alignLeft, alignLeft, alignLeft, alignLeft, alignLeft},
			)
			fmt.Fprintln(cmd.OutOrStdout(), table)
			return nil
		},
	}

	cmd.Flags().BoolVar(&jsonOutput, "json", false, "Emit machine-readable JSON")
	return cmd
}

// waitForScan polls the daemon until the job reaches a terminal state,
// echoing stage transitions along the way.
func waitForScan(cmd *cobra.Command, apiClient scanFetcher, jobID string) (scan.Snapshot, error) {
	stdout := cmd.OutOrStdout()
	lastStage := ""
	for {
		snapshot, err := apiClient.Scan(cmd.Context(), jobID)
		if err != nil {
			return scan.Snapshot{}, err
		}
		if stage := snapshot.Progress.Stage; stage != "" && stage != lastStage {
			fmt.Fprintf(stdout, "  %s...\n", stage)
			lastStage = stage
		}
		if snapshot.State.Terminal() {
			return snapshot, nil
		}
		select {
		case <-cmd.Context().Done():
			return scan.Snapshot{}, cmd.Context().Err()
		case <-time.After(500 * time.Millisecond):
		}
	}
}

func progressSummary(snap scan.Snapshot) string {
	switch snap.State {
	case scan.StateComplete:
		return fmt.Sprintf("%d kept of %d", snap.Counts.Retained, snap.Counts.Enumerated)
	case scan.StateError:
		return "failed"
	default:
		if snap.Progress.Total > 0 {
			return fmt.Sprintf("%s %d/%d", snap.Progress.Stage, snap.Progress.Processed, snap.Progress.Total)
		}
		return string(snap.State)
	}
}

func printScanSummary(cmd *cobra.Command, snap scan.Snapshot) {
	stdout := cmd.OutOrStdout()
	if snap.State == scan.StateError {
		fmt.Fprintf(stdout, "Scan %s failed\n", snap.ID)
		return
	}
	fmt.Fprintf(stdout, "Scan %s complete: %d enumerated, %d dropped, %d retained, %d shortlisted\n",
		snap.ID, snap.Counts.Enumerated, snap.Counts.Dropped, snap.Counts.Retained, len(snap.Shortlist))
	if len(snap.Shortlist) > 0 {
		fmt.Fprintln(stdout, renderShortlistTable(snap.Shortlist))
	}
}
