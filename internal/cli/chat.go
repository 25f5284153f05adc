package cli

import (
	"github.com/fatih/color"
	"github.com/neoclaw-ai/toolloop/internal/channels"
	"github.com/neoclaw-ai/toolloop/internal/commands"
	"github.com/spf13/cobra"
)

func newChatCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "chat",
		Short: "Start an interactive chat",
		RunE: func(cmd *cobra.Command, _ []string) error {
			s, err := newSession(opts)
			if err != nil {
				return err
			}

			listener := channels.NewCLI(cmd.InOrStdin(), cmd.OutOrStdout(), s.cfg.HistoryPath())
			s.agent.SetObserver(channels.NewPrinter(listener.Output(), opts.noColor || color.NoColor))
			router := commands.Router{
				Commands: commands.New(s.agent, s.usage, s.cfg.ExportsDir()).WithProfiles(s),
				Next:     s.agent,
			}
			return listener.Listen(cmd.Context(), router)
		},
	}
}
