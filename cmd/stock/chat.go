package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/Veraticus/the-stock-must-flow/internal/cli"
	"github.com/Veraticus/the-stock-must-flow/internal/common"
	"github.com/Veraticus/the-stock-must-flow/internal/service"
	"github.com/spf13/cobra"
)

// askFunc answers one question.
type askFunc func(ctx context.Context, question string) (string, error)

func chatCmd() *cobra.Command {
	var remote bool

	cmd := &cobra.Command{
		Use:   "chat [question...]",
		Short: "Ask the assistant about your inventory",
		Long: `Ask a question about the current inventory. The listing from the backend
is sent to the language model as context.

Without a question an interactive session starts; EOF ends it.
With --remote the backend's /ask endpoint answers instead of a local client.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			settings, err := loadSettings()
			if err != nil {
				return err
			}
			client := newBackendClient(settings)

			var ask askFunc = client.Ask
			if !remote {
				var (
					assistant service.Assistant
					closeFn   func()
				)
				assistant, closeFn, err = createAssistant(ctx, settings.LLM, settings.Thresholds, client)
				if err != nil {
					return err
				}
				defer closeFn()
				ask = assistant.Ask
			}

			if len(args) > 0 {
				return answer(ctx, cmd.OutOrStdout(), ask, strings.Join(args, " "))
			}
			return chatLoop(ctx, cmd.InOrStdin(), cmd.OutOrStdout(), ask)
		},
	}

	cmd.Flags().BoolVar(&remote, "remote", false, "ask through the backend instead of a local client")
	return cmd
}

func answer(ctx context.Context, out io.Writer, ask askFunc, question string) error {
	reply, err := ask(ctx, question)
	if err != nil {
		if errors.Is(err, common.ErrNotConfigured) {
			return fmt.Errorf("language model is not configured: set GEMINI_API_KEY")
		}
		return err
	}
	_, err = fmt.Fprintf(out, "%s %s\n", cli.RobotIcon, reply)
	return err
}

func chatLoop(ctx context.Context, in io.Reader, out io.Writer, ask askFunc) error {
	interrupts := cli.NewInterruptHandler(out, "Chat")
	ctx = interrupts.HandleInterrupts(ctx)
	reader := cli.NewLineReader(in, out)

	if _, err := fmt.Fprintln(out, cli.FormatTitle("Inventory assistant")+"\n"+cli.SubtleStyle.Render("Ctrl+D to quit")); err != nil {
		return err
	}

	for {
		question, err := reader.Prompt(ctx, "Ask")
		if errors.Is(err, io.EOF) || errors.Is(err, cli.ErrInputCancelled) {
			_, _ = fmt.Fprintln(out)
			return nil
		}
		if err != nil {
			return err
		}

		if err := answer(ctx, out, ask, question); err != nil {
			if errors.Is(err, common.ErrValidation) {
				_, _ = fmt.Fprintln(out, cli.FormatError(err.Error()))
				continue
			}
			return err
		}
	}
}
