package cli

import (
	"fmt"
	"os"
	"strings"

	"github.com/neoclaw-ai/toolloop/internal/config"
	"github.com/neoclaw-ai/toolloop/internal/store"
	"github.com/spf13/cobra"
)

func newConfigCmd(opts *rootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: "Print merged configuration as TOML",
		RunE: func(cmd *cobra.Command, _ []string) error {
			return config.Write(cmd.OutOrStdout())
		},
	}
	cmd.AddCommand(newConfigExportCmd(opts))
	cmd.AddCommand(newConfigImportCmd(opts))
	cmd.AddCommand(newConfigPresetsCmd())
	return cmd
}

func newConfigExportCmd(opts *rootOptions) *cobra.Command {
	var (
		outPath    string
		includeKey bool
	)
	cmd := &cobra.Command{
		Use:   "export",
		Short: "Write the selected provider profile as JSON",
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := config.Load()
			if err != nil {
				return err
			}
			name := cfg.Profile
			if opts.profile != "" {
				name = opts.profile
			}
			p, err := cfg.ProviderProfile(name)
			if err != nil {
				return err
			}

			if outPath == "" {
				return config.ExportProvider(cmd.OutOrStdout(), p, includeKey)
			}
			var b strings.Builder
			if err := config.ExportProvider(&b, p, includeKey); err != nil {
				return err
			}
			if err := store.WriteFile(outPath, []byte(b.String())); err != nil {
				return fmt.Errorf("write export file: %w", err)
			}
			_, err = fmt.Fprintf(cmd.OutOrStdout(), "Exported profile %q to %s\n", name, outPath)
			return err
		},
	}
	cmd.Flags().StringVarP(&outPath, "output", "o", "", "Write to file instead of stdout")
	cmd.Flags().BoolVar(&includeKey, "include-key", false, "Include the API key in the export")
	return cmd
}

func newConfigImportCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "import <file>",
		Short: "Merge a provider profile JSON file into config.toml",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			f, err := os.Open(args[0])
			if err != nil {
				return fmt.Errorf("open import file: %w", err)
			}
			defer f.Close()

			p, err := config.ImportProvider(f)
			if err != nil {
				return err
			}
			if err := p.WithPreset().Validate(); err != nil {
				return fmt.Errorf("invalid provider profile: %w", err)
			}
			name := opts.profile
			if name == "" {
				name = config.DefaultProfile
			}
			if err := config.SaveProvider(name, p); err != nil {
				return err
			}
			_, err = fmt.Fprintf(cmd.OutOrStdout(), "Imported profile %q\n", name)
			return err
		},
	}
}

func newConfigPresetsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "presets",
		Short: "List provider presets",
		RunE: func(cmd *cobra.Command, _ []string) error {
			for _, name := range config.PresetNames() {
				if _, err := fmt.Fprintln(cmd.OutOrStdout(), name); err != nil {
					return err
				}
			}
			return nil
		},
	}
}
