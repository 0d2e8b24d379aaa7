package main

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/Veraticus/the-stock-must-flow/internal/cli"
	"github.com/spf13/cobra"
)

func uploadCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "upload <file>",
		Short: "Upload a CSV or JSON sales file to the backend",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			settings, err := loadSettings()
			if err != nil {
				return err
			}

			f, err := os.Open(args[0])
			if err != nil {
				return fmt.Errorf("failed to open %s: %w", args[0], err)
			}
			defer func() { _ = f.Close() }()

			res, err := newBackendClient(settings).Upload(cmd.Context(), filepath.Base(args[0]), f)
			if err != nil {
				return err
			}

			_, err = fmt.Fprintln(cmd.OutOrStdout(), cli.FormatSuccess(fmt.Sprintf("%s: %d rows", res.Message, res.Rows)))
			return err
		},
	}
}
