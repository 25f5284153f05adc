package cli

import (
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/fatih/color"
	"github.com/neoclaw-ai/toolloop/internal/channels"
	"github.com/neoclaw-ai/toolloop/internal/runtime"
	"github.com/spf13/cobra"
)

func newPromptCmd(opts *rootOptions) *cobra.Command {
	var prompt string

	cmd := &cobra.Command{
		Use:   "prompt",
		Short: "Send one message and print the final reply",
		RunE: func(cmd *cobra.Command, _ []string) error {
			trimmed := strings.TrimSpace(prompt)
			if trimmed == "" {
				return fmt.Errorf("prompt is required (-p)")
			}
			if strings.HasPrefix(trimmed, "/") {
				return fmt.Errorf("slash commands are not supported in one-shot -p mode")
			}

			s, err := newSession(opts)
			if err != nil {
				return err
			}
			// Tool activity goes to stderr so stdout carries only the reply.
			s.agent.SetObserver(channels.NewPrinter(cmd.ErrOrStderr(), opts.noColor || color.NoColor))
			writer := &singleShotWriter{out: cmd.OutOrStdout()}
			return s.agent.HandleMessage(cmd.Context(), writer, &runtime.Message{Text: trimmed})
		},
	}

	cmd.Flags().StringVarP(&prompt, "prompt", "p", "", "Prompt message")

	return cmd
}

type singleShotWriter struct {
	out io.Writer
}

// WriteMessage writes one response message for one-shot prompt mode.
func (w *singleShotWriter) WriteMessage(_ context.Context, text string) error {
	_, err := fmt.Fprintln(w.out, text)
	return err
}
