package main

import (
	"fmt"
	"log/slog"

	"github.com/Veraticus/the-stock-must-flow/internal/server"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

func serveCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP backend",
		Long: `Run the HTTP backend that ingests sales, serves forecasts, sends restock
alerts and answers inventory questions.

Sample sales are loaded into an empty store unless sample.preload is false.`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()

			settings, err := loadSettings()
			if err != nil {
				return err
			}
			if noSample, _ := cmd.Flags().GetBool("no-sample"); noSample {
				settings.Sample.Preload = false
			}
			logger := slog.Default()

			svc, store, err := initInventory(ctx, settings, logger)
			if err != nil {
				return fmt.Errorf("failed to initialize inventory: %w", err)
			}
			defer func() {
				if err := store.Close(); err != nil {
					logger.Error("Failed to close storage", "error", err)
				}
			}()

			assistant, closeAssistant, err := createAssistant(ctx, settings.LLM, svc.Engine().Thresholds(), svc)
			if err != nil {
				return fmt.Errorf("failed to create language model client: %w", err)
			}
			defer closeAssistant()

			app := server.New(server.Deps{
				Inventory:    svc,
				Assistant:    assistant,
				Logger:       logger,
				AskPerMinute: viper.GetInt("server.ask_per_minute"),
			})

			return server.Run(ctx, app, settings.Server.Addr(), logger)
		},
	}

	cmd.Flags().String("host", "", "listen host (default: 127.0.0.1)")
	cmd.Flags().Int("port", 0, "listen port (default: 5000)")
	cmd.Flags().Bool("no-sample", false, "do not preload sample sales")
	_ = viper.BindPFlag("server.host", cmd.Flags().Lookup("host"))
	_ = viper.BindPFlag("server.port", cmd.Flags().Lookup("port"))

	return cmd
}
