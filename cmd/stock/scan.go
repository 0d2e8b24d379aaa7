package main

import (
	"encoding/json"
	"fmt"

	"github.com/Veraticus/the-stock-must-flow/internal/cli"
	"github.com/spf13/cobra"
)

func scanCmd() *cobra.Command {
	var asJSON bool

	cmd := &cobra.Command{
		Use:   "scan",
		Short: "List every SKU with days left and stock category",
		RunE: func(cmd *cobra.Command, _ []string) error {
			settings, err := loadSettings()
			if err != nil {
				return err
			}

			items, err := newBackendClient(settings).ListItems(cmd.Context())
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			if asJSON {
				enc := json.NewEncoder(out)
				enc.SetIndent("", "  ")
				return enc.Encode(items)
			}

			if len(items) == 0 {
				_, err := fmt.Fprintln(out, cli.FormatInfo("No SKUs uploaded yet."))
				return err
			}

			_, err = fmt.Fprintln(out, cli.FormatTitle("Inventory scan")+"\n"+cli.ItemsTable(items))
			return err
		},
	}

	cmd.Flags().BoolVar(&asJSON, "json", false, "print the raw items as JSON")
	return cmd
}
