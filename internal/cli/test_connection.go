package cli

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"
)

func newTestConnectionCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "test-connection",
		Short: "Send a canned message to the active provider profile",
		RunE: func(cmd *cobra.Command, _ []string) error {
			s, err := newSession(opts)
			if err != nil {
				return err
			}
			resp, err := s.agent.TestConnection(cmd.Context())
			if err != nil {
				return fmt.Errorf("connection test failed: %w", err)
			}
			_, err = fmt.Fprintf(
				cmd.OutOrStdout(),
				"Connection OK (%s, %s): %s\n",
				s.profile.RequestFormat,
				s.profile.Model,
				strings.TrimSpace(resp.Content),
			)
			return err
		},
	}
}
