package main

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"lightbox/internal/client"
)

func newStatusCommand(ctx *commandContext) *cobra.Command {
	var jsonOutput bool

	cmd := &cobra.Command{
		Use:   "status",
		Short: "Show daemon status",
		RunE: func(cmd *cobra.Command, args []string) error {
			api, err := ctx.apiClient()
			if err != nil {
				return err
			}
			status, err := api.Status(cmd.Context())
			if err != nil {
				if errors.Is(err, client.ErrDaemonUnavailable) {
					fmt.Fprintf(cmd.OutOrStdout(), "Daemon not running at %s\n", ctx.apiBind())
					return err
				}
				return err
			}

			if jsonOutput {
				return writeJSON(cmd, status)
			}

			stdout := cmd.OutOrStdout()
			colorize := shouldColorize(stdout)
			fmt.Fprintln(stdout, renderStatusLine("Daemon", statusOK, fmt.Sprintf("pid %d on %s", status.PID, status.Bind), colorize))
			fmt.Fprintln(stdout, renderStatusLine("Scan jobs", statusInfo, fmt.Sprintf("%d in history", status.Jobs), colorize))
			fmt.Fprintln(stdout, renderStatusLine("Print orders", statusInfo, fmt.Sprintf("%d tracked", status.Orders), colorize))
			cacheDetail := fmt.Sprintf("%d entries", status.CacheEntries)
			if status.CacheOldest != "" {
				cacheDetail += ", oldest " + status.CacheOldest
			}
			fmt.Fprintln(stdout, renderStatusLine("Score cache", statusInfo, cacheDetail, colorize))
			return nil
		},
	}

	cmd.Flags().BoolVar(&jsonOutput, "json", false, "Emit machine-readable JSON")
	return cmd
}
