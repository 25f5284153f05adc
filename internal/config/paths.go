package config

import "path/filepath"

const (
	// Layout under TOOLLOOP_HOME.
	ConfigFilePath  = "config.toml"
	EnvFilePath     = ".env"
	HistoryFilePath = "history"
	ExportsDirPath  = "exports"
)

func homeConfigPath(home string) string {
	return filepath.Join(home, ConfigFilePath)
}

func homeEnvPath(home string) string {
	return filepath.Join(home, EnvFilePath)
}

func defaultHomePath(home string) string {
	return filepath.Join(home, ".toolloop")
}

// ConfigPath returns the config.toml path.
func (c *Config) ConfigPath() string {
	return homeConfigPath(c.HomeDir)
}

// EnvPath returns the .env path loaded before config decoding.
func (c *Config) EnvPath() string {
	return homeEnvPath(c.HomeDir)
}

// HistoryPath returns the REPL line-history file.
func (c *Config) HistoryPath() string {
	return filepath.Join(c.HomeDir, HistoryFilePath)
}

// ExportsDir returns the default directory for transcript exports.
func (c *Config) ExportsDir() string {
	return filepath.Join(c.HomeDir, ExportsDirPath)
}
