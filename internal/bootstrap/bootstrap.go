// Package bootstrap seeds the TOOLLOOP_HOME tree on first run.
package bootstrap

import (
	"fmt"
	"os"

	"github.com/neoclaw-ai/toolloop/internal/config"
	"github.com/neoclaw-ai/toolloop/internal/logging"
	"github.com/neoclaw-ai/toolloop/internal/store"
)

const envTemplate = `# Credentials referenced from config.toml as $NAME.
# OPENAI_API_KEY=
# ANTHROPIC_API_KEY=
# GEMINI_API_KEY=
`

// Initialize creates the home and exports directories plus a starter config.toml and .env when missing.
// Existing files are never touched.
func Initialize(cfg *config.Config) error {
	for _, dir := range []string{cfg.HomeDir, cfg.ExportsDir()} {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create directory %q: %w", dir, err)
		}
	}

	configTOML, err := config.DefaultUserConfigTOML()
	if err != nil {
		return err
	}
	files := []struct {
		path    string
		content string
	}{
		{path: cfg.ConfigPath(), content: configTOML},
		{path: cfg.EnvPath(), content: envTemplate},
	}
	for _, file := range files {
		wrote, err := store.WriteFileIfMissing(file.path, []byte(file.content))
		if err != nil {
			return err
		}
		if wrote {
			logging.Logger().Info("created file", "path", file.path)
		}
	}
	return nil
}
