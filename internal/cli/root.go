// Package cli wires Cobra subcommands to application dependencies; it is a thin controller with no business logic.
package cli

import (
	"errors"
	"fmt"
	"log/slog"
	"os"

	"github.com/neoclaw-ai/toolloop/internal/bootstrap"
	"github.com/neoclaw-ai/toolloop/internal/config"
	"github.com/neoclaw-ai/toolloop/internal/logging"
	"github.com/spf13/cobra"
)

// ErrFirstRun is returned after the first-run bootstrap wrote a starter config.
// It is not a failure; main exits 0 on it.
var ErrFirstRun = errors.New("first run setup complete")

type rootOptions struct {
	profile string
	noColor bool
}

// NewRootCmd creates the root command and registers all subcommands.
func NewRootCmd() *cobra.Command {
	var verbose bool
	opts := &rootOptions{}

	root := &cobra.Command{
		Use:   "toolloop",
		Short: "Chat with an LLM that can call tools, against any configured provider",
		// Let main handle fatal error rendering through structured logs.
		SilenceErrors: true,
		SilenceUsage:  true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			if verbose {
				logging.SetLevel(slog.LevelInfo)
			} else {
				logging.SetLevel(slog.LevelWarn)
			}

			// Config inspection and version should not trigger first-run onboarding.
			if skipsBootstrap(cmd) {
				return nil
			}

			cfg, err := config.Load()
			if err != nil {
				return err
			}

			firstRun := false
			if _, err := os.Stat(cfg.ConfigPath()); errors.Is(err, os.ErrNotExist) {
				firstRun = true
			} else if err != nil {
				return fmt.Errorf("stat config file %q: %w", cfg.ConfigPath(), err)
			}

			if err := bootstrap.Initialize(cfg); err != nil {
				return err
			}

			if firstRun {
				if _, err := fmt.Fprintf(
					cmd.ErrOrStderr(),
					"First run setup complete.\nEdit config file: %s\nAdd API keys to: %s\n",
					cfg.ConfigPath(),
					cfg.EnvPath(),
				); err != nil {
					return err
				}
				return ErrFirstRun
			}
			return nil
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			// Default to `toolloop chat` when no subcommand is provided.
			chatCmd, _, err := cmd.Find([]string{"chat"})
			if err != nil {
				return err
			}
			chatCmd.SetContext(cmd.Context())
			return chatCmd.RunE(chatCmd, args)
		},
	}

	root.AddCommand(newChatCmd(opts))
	root.AddCommand(newPromptCmd(opts))
	root.AddCommand(newTestConnectionCmd(opts))
	root.AddCommand(newConfigCmd(opts))
	root.AddCommand(newVersionCmd())
	root.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Enable verbose logging (info level)")
	root.PersistentFlags().StringVar(&opts.profile, "profile", "", "Provider profile to use (providers.<name> in config.toml)")
	root.PersistentFlags().BoolVar(&opts.noColor, "no-color", false, "Disable colored output")

	return root
}

func skipsBootstrap(cmd *cobra.Command) bool {
	for c := cmd; c != nil; c = c.Parent() {
		switch c.Name() {
		case "config", "version":
			return true
		}
	}
	return false
}
