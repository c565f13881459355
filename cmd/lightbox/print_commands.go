package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"lightbox/internal/printing"
)

func newPrintCommand(ctx *commandContext) *cobra.Command {
	printCmd := &cobra.Command{
		Use:   "print",
		Short: "Submit and track print orders",
	}

	printCmd.AddCommand(newPrintOrderCommand(ctx))
	printCmd.AddCommand(newPrintStatusCommand(ctx))
	printCmd.AddCommand(newPrintListCommand(ctx))

	return printCmd
}

func newPrintOrderCommand(ctx *commandContext) *cobra.Command {
	var recipient printing.Recipient
	var shipping string
	var copies int
	var jsonOutput bool

	cmd := &cobra.Command{
		Use:   "order <job-id> [candidate-id...]",
		Short: "Order prints of shortlisted photos",
		Long: "Order prints of shortlisted photos. Candidate IDs name the shortlist entries " +
			"to print; without any, the entries marked with lightbox select are used.",
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			apiClient, err := ctx.apiClient()
			if err != nil {
				return err
			}

			jobID := args[0]
			candidateIDs := args[1:]
			if len(candidateIDs) == 0 {
				candidateIDs, err = selectedCandidates(cmd, apiClient, jobID)
				if err != nil {
					return err
				}
			}

			order, err := apiClient.SubmitOrder(cmd.Context(), printing.Request{
				ScanID:         jobID,
				CandidateIDs:   candidateIDs,
				Recipient:      recipient,
				ShippingMethod: shipping,
				Copies:         copies,
			})
			if err != nil {
				return err
			}
			if jsonOutput {
				return writeJSON(cmd, order)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Order %s submitted (%s, provider ref %s)\n",
				order.ID, order.State, order.ProviderOrderID)
			return nil
		},
	}

	cmd.Flags().StringVar(&recipient.Name, "name", "", "Recipient name")
	cmd.Flags().StringVar(&recipient.Line1, "line1", "", "Address line 1")
	cmd.Flags().StringVar(&recipient.Line2, "line2", "", "Address line 2")
	cmd.Flags().StringVar(&recipient.City, "city", "", "City or town")
	cmd.Flags().StringVar(&recipient.State, "state", "", "State, county, or region")
	cmd.Flags().StringVar(&recipient.PostalCode, "postal-code", "", "Postal or ZIP code")
	cmd.Flags().StringVar(&recipient.CountryCode, "country", "", "ISO 3166-1 alpha-2 country code")
	cmd.Flags().StringVar(&shipping, "shipping", "", "Shipping method (budget, standard, express, overnight)")
	cmd.Flags().IntVar(&copies, "copies", 1, "Copies of each photo")
	cmd.Flags().BoolVar(&jsonOutput, "json", false, "Emit machine-readable JSON")
	return cmd
}

func newPrintStatusCommand(ctx *commandContext) *cobra.Command {
	var jsonOutput bool

	cmd := &cobra.Command{
		Use:   "status <order-id>",
		Short: "Show a print order's current state",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			apiClient, err := ctx.apiClient()
			if err != nil {
				return err
			}
			order, err := apiClient.Order(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			if jsonOutput {
				return writeJSON(cmd, order)
			}
			stdout := cmd.OutOrStdout()
			colorize := shouldColorize(stdout)
			fmt.Fprintln(stdout, renderStatusLine("Order", statusInfo, order.ID, colorize))
			fmt.Fprintln(stdout, renderStatusLine("State", orderStateKind(order), string(order.State), colorize))
			fmt.Fprintln(stdout, renderStatusLine("Photos", statusInfo,
				fmt.Sprintf("%d (%d copies each)", len(order.CandidateIDs), order.Copies), colorize))
			if order.ProviderOrderID != "" {
				fmt.Fprintln(stdout, renderStatusLine("Provider ref", statusInfo, order.ProviderOrderID, colorize))
			}
			if order.ErrorMessage != "" {
				fmt.Fprintln(stdout, renderStatusLine("Error", statusError, order.ErrorMessage, colorize))
			}
			return nil
		},
	}

	cmd.Flags().BoolVar(&jsonOutput, "json", false, "Emit machine-readable JSON")
	return cmd
}

func newPrintListCommand(ctx *commandContext) *cobra.Command {
	var jsonOutput bool

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List print orders, newest first",
		RunE: func(cmd *cobra.Command, args []string) error {
			apiClient, err := ctx.apiClient()
			if err != nil {
				return err
			}
			orders, err := apiClient.Orders(cmd.Context())
			if err != nil {
				return err
			}
			if jsonOutput {
				return writeJSON(cmd, orders)
			}
			if len(orders) == 0 {
				fmt.Fprintln(cmd.OutOrStdout(), "No print orders")
				return nil
			}
			rows := make([][]string, 0, len(orders))
			for _, order := range orders {
				rows = append(rows, []string{
					order.ID,
					string(order.State),
					order.ScanID,
					fmt.Sprintf("%d", len(order.CandidateIDs)),
					order.ShippingMethod,
					order.CreatedAt.Local().Format("2006-01-02 15:04"),
				})
			}
			table := renderTable(
				[]string{"ID", "State", "Scan", "Photos", "Shipping", "Created"},
				rows,
				[]columnAlignment{alignLeft, alignLeft, alignLeft, alignRight, alignLeft, alignLeft},
			)
			fmt.Fprintln(cmd.OutOrStdout(), table)
			return nil
		},
	}

	cmd.Flags().BoolVar(&jsonOutput, "json", false, "Emit machine-readable JSON")
	return cmd
}

// selectedCandidates resolves the shortlist entries the user marked via
// lightbox select.
func selectedCandidates(cmd *cobra.Command, apiClient scanFetcher, jobID string) ([]string, error) {
	snapshot, err := apiClient.Scan(cmd.Context(), jobID)
	if err != nil {
		return nil, err
	}
	var ids []string
	for _, entry := range snapshot.Shortlist {
		if entry.Selected {
			ids = append(ids, entry.CandidateID)
		}
	}
	if len(ids) == 0 {
		return nil, fmt.Errorf("no candidates selected in scan %s; pass candidate IDs or run lightbox select", jobID)
	}
	return ids, nil
}

func orderStateKind(order printing.Order) statusKind {
	switch strings.ToLower(string(order.State)) {
	case "complete":
		return statusOK
	case "failed":
		return statusError
	default:
		return statusInfo
	}
}
