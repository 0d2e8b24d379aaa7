package main

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/Veraticus/the-stock-must-flow/internal/agent"
	"github.com/Veraticus/the-stock-must-flow/internal/cli"
	"github.com/spf13/cobra"
)

func autoCmd() *cobra.Command {
	var asJSON bool

	cmd := &cobra.Command{
		Use:   "auto [emails]",
		Short: "Notify recipients when any SKU is Low or Critical",
		Long: `Scan the inventory and, if any SKU is Low or Critical, ask the backend to
send a restock alert. Recipients may be given comma separated.`,
		Example: "  stock auto ops@example.com,buyer@example.com",
		RunE: func(cmd *cobra.Command, args []string) error {
			settings, err := loadSettings()
			if err != nil {
				return err
			}

			decision, err := agent.AutoDecide(cmd.Context(), newBackendClient(settings), splitEmails(args))
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			if asJSON {
				enc := json.NewEncoder(out)
				enc.SetIndent("", "  ")
				return enc.Encode(decision)
			}

			_, err = fmt.Fprintln(out, formatDecision(decision))
			return err
		},
	}

	cmd.Flags().BoolVar(&asJSON, "json", false, "print the decision as JSON")
	return cmd
}

func formatDecision(d agent.Decision) string {
	if d.Decision == agent.DecisionNoAction {
		return cli.FormatSuccess(d.Message)
	}

	var b strings.Builder
	b.WriteString(cli.FormatWarning(fmt.Sprintf("%d SKU(s) need restocking", d.Count)))
	b.WriteString("\n")
	b.WriteString(cli.ItemsTable(d.Issues))
	if d.NotifyResult != nil {
		b.WriteString("\n")
		if len(d.NotifyResult.Emails) == 0 {
			b.WriteString(cli.FormatInfo("No recipients given; nothing was sent."))
		} else {
			b.WriteString(cli.FormatInfo("Alert sent to " + strings.Join(d.NotifyResult.Emails, ", ")))
		}
	}
	return b.String()
}
