package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strconv"

	"github.com/Veraticus/the-stock-must-flow/internal/agent"
	"github.com/Veraticus/the-stock-must-flow/internal/cli"
	"github.com/Veraticus/the-stock-must-flow/internal/common"
	"github.com/Veraticus/the-stock-must-flow/internal/model"
	"github.com/schollz/progressbar/v3"
	"github.com/spf13/cobra"
)

// previewDays is how many forecast days are printed for a single SKU.
const previewDays = 10

func forecastCmd() *cobra.Command {
	var (
		algorithm string
		window    int
		all       bool
	)

	cmd := &cobra.Command{
		Use:   "forecast <SKU> [horizon] [current_stock]",
		Short: "Forecast sales and days of stock left for a SKU",
		Long: `Forecast daily sales for a SKU and estimate when its stock runs out.

Algorithms: moving_average (default), exponential_smoothing, arima. Any other
name uses the flat historical average. With --all every SKU is forecast.`,
		Example: `  stock forecast SKU001
  stock forecast SKU001 14 250 --algorithm arima
  stock forecast --all --algorithm exponential_smoothing`,
		Args: func(cmd *cobra.Command, args []string) error {
			if all {
				return cobra.NoArgs(cmd, args)
			}
			return cobra.RangeArgs(1, 3)(cmd, args)
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			settings, err := loadSettings()
			if err != nil {
				return err
			}
			client := newBackendClient(settings)
			params := model.AlgorithmParams{Window: window}

			if all {
				return forecastAll(cmd.Context(), client, cmd.OutOrStdout(), cmd.ErrOrStderr(), algorithm, params)
			}

			req, err := parseForecastArgs(args)
			if err != nil {
				return err
			}
			req.Algorithm = algorithm
			req.Params = params

			res, err := client.Forecast(cmd.Context(), req)
			if err != nil {
				if errors.Is(err, common.ErrNotFound) {
					return fmt.Errorf("SKU %s not found", req.SKU)
				}
				return err
			}

			out := cmd.OutOrStdout()
			_, err = fmt.Fprintf(out, "%s\n%s\n%s\n",
				cli.FormatTitle(fmt.Sprintf("%s forecast (%s)", res.SKU, res.Algorithm)),
				cli.ForecastTable(res.Forecast, previewDays),
				cli.ForecastSummary(res))
			return err
		},
	}

	cmd.Flags().StringVar(&algorithm, "algorithm", string(model.DefaultAlgorithm), "forecast algorithm")
	cmd.Flags().IntVar(&window, "window", 0, "moving average window (default 7)")
	cmd.Flags().BoolVar(&all, "all", false, "forecast every SKU")

	return cmd
}

// parseForecastArgs reads <SKU> [horizon] [current_stock].
func parseForecastArgs(args []string) (agent.ForecastRequest, error) {
	req := agent.ForecastRequest{SKU: args[0]}

	if len(args) > 1 {
		horizon, err := strconv.Atoi(args[1])
		if err != nil || horizon <= 0 {
			return req, fmt.Errorf("horizon must be a positive integer, got %q", args[1])
		}
		req.Horizon = &horizon
	}
	if len(args) > 2 {
		stock, err := strconv.ParseFloat(args[2], 64)
		if err != nil || stock < 0 {
			return req, fmt.Errorf("current_stock must be a non-negative number, got %q", args[2])
		}
		req.CurrentStock = &stock
	}
	return req, nil
}

func forecastAll(ctx context.Context, client *agent.Client, out, progress io.Writer, algorithm string, params model.AlgorithmParams) error {
	items, err := client.ListItems(ctx)
	if err != nil {
		return err
	}
	if len(items) == 0 {
		_, err := fmt.Fprintln(out, cli.FormatInfo("No SKUs uploaded yet."))
		return err
	}

	interrupts := cli.NewInterruptHandler(progress, "Forecast").WithHint("SKUs finished so far are listed below.")
	ctx = interrupts.HandleInterrupts(ctx)

	bar := progressbar.NewOptions(len(items),
		progressbar.OptionSetWriter(progress),
		progressbar.OptionEnableColorCodes(true),
		progressbar.OptionShowCount(),
		progressbar.OptionShowElapsedTimeOnFinish(),
		progressbar.OptionSetWidth(40),
		progressbar.OptionSetDescription("[cyan][bold]Forecasting SKUs...[reset]"),
		progressbar.OptionSetTheme(progressbar.Theme{
			Saucer:        "[green]=[reset]",
			SaucerHead:    "[green]>[reset]",
			SaucerPadding: " ",
			BarStart:      "[",
			BarEnd:        "]",
		}),
		progressbar.OptionOnCompletion(func() {
			_, _ = fmt.Fprintln(progress)
		}),
	)

	results := make([]model.ForecastResult, 0, len(items))
	for _, item := range items {
		res, err := client.Forecast(ctx, agent.ForecastRequest{SKU: item.SKU, Algorithm: algorithm, Params: params})
		if err != nil {
			if interrupts.WasInterrupted() {
				break
			}
			return err
		}
		results = append(results, res)
		_ = bar.Add(1)
	}

	for _, res := range results {
		if _, err := fmt.Fprintln(out, cli.ForecastSummary(res)); err != nil {
			return err
		}
	}
	return nil
}
