// Package config loads toolloop runtime configuration from a TOML file, a sibling .env file, and environment variables, exposing typed structs for provider profiles, tool backends, and agent behavior.
package config

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"reflect"
	"time"

	"github.com/go-viper/mapstructure/v2"
	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// DefaultProfile is the provider profile used when none is selected.
const DefaultProfile = "default"

// RequestFormat selects the wire dialect used to talk to a provider.
type RequestFormat string

const (
	// FormatOpenAI is the OpenAI chat-completions dialect.
	FormatOpenAI RequestFormat = "openai"
	// FormatAnthropic is the Anthropic messages dialect.
	FormatAnthropic RequestFormat = "anthropic"
	// FormatGemini is the Gemini generateContent dialect.
	FormatGemini RequestFormat = "gemini"
	// FormatCustom is an OpenAI-shaped passthrough dialect.
	FormatCustom RequestFormat = "custom"
)

// AuthType selects how the API key is attached to requests.
type AuthType string

const (
	AuthNone         AuthType = "none"
	AuthBearer       AuthType = "bearer"
	AuthAPIKeyHeader AuthType = "api-key-header"
	AuthCustomHeader AuthType = "custom-header"
)

// Config is the runtime configuration loaded from defaults, config.toml, .env, and env vars.
type Config struct {
	// HomeDir is runtime-resolved from TOOLLOOP_HOME and not read from config.
	HomeDir string `mapstructure:"-"`
	// Profile is the selected providers.* entry.
	Profile   string                    `mapstructure:"profile"`
	Providers map[string]ProviderConfig `mapstructure:"providers"`
	Agent     AgentConfig               `mapstructure:"agent"`
	Tools     ToolsConfig               `mapstructure:"tools"`
}

// ProviderConfig configures one LLM endpoint.
type ProviderConfig struct {
	// Preset fills empty endpoint/auth/format fields from a named vendor preset.
	Preset         string        `mapstructure:"preset" json:"preset,omitempty"`
	Endpoint       string        `mapstructure:"endpoint" json:"endpoint"`
	Model          string        `mapstructure:"model" json:"model"`
	APIKey         string        `mapstructure:"api_key" json:"api_key,omitempty"`
	AuthType       AuthType      `mapstructure:"auth_type" json:"auth_type"`
	AuthHeaderName string        `mapstructure:"auth_header_name" json:"auth_header_name,omitempty"`
	RequestFormat  RequestFormat `mapstructure:"request_format" json:"request_format"`
	RequestTimeout time.Duration `mapstructure:"request_timeout" json:"request_timeout,omitempty"`
}

// AgentConfig controls the conversation loop.
type AgentConfig struct {
	SystemPrompt string `mapstructure:"system_prompt"`
}

// ToolsConfig configures the capability backends behind the built-in tools.
type ToolsConfig struct {
	Search  SearchConfig  `mapstructure:"search"`
	Pipe    PipeConfig    `mapstructure:"pipe"`
	Code    CodeConfig    `mapstructure:"code"`
	Network NetworkConfig `mapstructure:"network"`
}

// NetworkConfig limits which hosts the tool backends may call. Deny wins; an empty allow list permits all.
type NetworkConfig struct {
	AllowDomains []string `mapstructure:"allow_domains"`
	DenyDomains  []string `mapstructure:"deny_domains"`
}

// SearchConfig selects the google_search backend.
type SearchConfig struct {
	// Provider is "static" (canned results) or "brave".
	Provider string `mapstructure:"provider"`
	APIKey   string `mapstructure:"api_key"`
}

// PipeConfig configures the ai_pipe backend. An empty endpoint echoes prompts back.
type PipeConfig struct {
	Endpoint string `mapstructure:"endpoint"`
	Token    string `mapstructure:"token"`
	Model    string `mapstructure:"model"`
}

// CodeConfig configures the execute_code backend. An empty command disables execution.
type CodeConfig struct {
	Command  string        `mapstructure:"command"`
	Template string        `mapstructure:"template"`
	Timeout  time.Duration `mapstructure:"timeout"`
}

var defaultConfig = Config{
	Profile: DefaultProfile,
	Providers: map[string]ProviderConfig{
		DefaultProfile: {
			Preset:         "openai",
			Model:          "gpt-4o-mini",
			APIKey:         "",
			RequestTimeout: 60 * time.Second,
		},
	},
	Tools: ToolsConfig{
		Search: SearchConfig{Provider: "static"},
		Pipe: PipeConfig{
			Model: "gpt-4o-mini",
		},
		Code: CodeConfig{
			Timeout: 10 * time.Second,
		},
	},
}

// defaultUserConfig is the bootstrap config written for first-time users.
var defaultUserConfig = Config{
	Providers: map[string]ProviderConfig{
		DefaultProfile: {
			Preset: "openai",
			Model:  "gpt-4o-mini",
			APIKey: "$OPENAI_API_KEY",
		},
	},
}

// homeDir returns the toolloop home directory.
// Uses TOOLLOOP_HOME env var if set, otherwise defaults to ~/.toolloop.
func homeDir() (string, error) {
	if dir := os.Getenv("TOOLLOOP_HOME"); dir != "" {
		return dir, nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("resolve home dir: %w", err)
	}
	return defaultHomePath(home), nil
}

// Load merges hardcoded defaults, $TOOLLOOP_HOME/.env, and config.toml in that order.
func Load() (*Config, error) {
	home, err := homeDir()
	if err != nil {
		return nil, err
	}
	if err := loadDotEnv(home); err != nil {
		return nil, err
	}

	v, err := readConfigFile(home)
	if err != nil {
		return nil, err
	}

	var cfg Config
	if err := v.Unmarshal(&cfg, decoderOptions); err != nil {
		return nil, fmt.Errorf("decode config: %w", err)
	}
	cfg.HomeDir = home
	if cfg.Profile == "" {
		cfg.Profile = DefaultProfile
	}
	for name, p := range cfg.Providers {
		cfg.Providers[name] = p.WithPreset()
	}
	return &cfg, nil
}

// Write writes the merged configuration (defaults overlaid by user config) to w in TOML format.
func Write(w io.Writer) error {
	if w == nil {
		return errors.New("writer is required")
	}
	home, err := homeDir()
	if err != nil {
		return err
	}
	v, err := readConfigFile(home)
	if err != nil {
		return err
	}

	// Keep duration fields human-readable in generated TOML.
	for name := range v.GetStringMap("providers") {
		key := "providers." + name + ".request_timeout"
		v.Set(key, v.GetDuration(key).String())
	}
	v.Set("tools.code.timeout", v.GetDuration("tools.code.timeout").String())

	if err := v.WriteConfigTo(w); err != nil {
		return fmt.Errorf("write config: %w", err)
	}
	return nil
}

// DefaultUserConfigTOML renders the minimal bootstrap user config as TOML.
func DefaultUserConfigTOML() (string, error) {
	v := viper.New()
	v.SetConfigType("toml")

	v.Set("profile", DefaultProfile)
	for name, p := range defaultUserConfig.Providers {
		v.Set("providers."+name+".preset", p.Preset)
		v.Set("providers."+name+".model", p.Model)
		v.Set("providers."+name+".api_key", p.APIKey)
	}

	var out bytes.Buffer
	if err := v.WriteConfigTo(&out); err != nil {
		return "", fmt.Errorf("write default user config: %w", err)
	}
	return out.String(), nil
}

func readConfigFile(home string) (*viper.Viper, error) {
	v := viper.New()
	setDefaults(v)
	v.SetConfigFile(homeConfigPath(home))
	v.SetConfigType("toml")

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) && !errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("read config file: %w", err)
		}
	}
	return v, nil
}

func loadDotEnv(home string) error {
	path := homeEnvPath(home)
	if _, err := os.Stat(path); errors.Is(err, os.ErrNotExist) {
		return nil
	} else if err != nil {
		return fmt.Errorf("stat env file %q: %w", path, err)
	}
	// Existing process env wins over .env values.
	if err := godotenv.Load(path); err != nil {
		return fmt.Errorf("load env file %q: %w", path, err)
	}
	return nil
}

func setDefaults(v *viper.Viper) {
	def := defaultConfig.Providers[DefaultProfile]

	v.SetDefault("profile", defaultConfig.Profile)

	v.SetDefault("providers.default.preset", def.Preset)
	v.SetDefault("providers.default.model", def.Model)
	v.SetDefault("providers.default.api_key", def.APIKey)
	v.SetDefault("providers.default.request_timeout", def.RequestTimeout)

	v.SetDefault("agent.system_prompt", defaultConfig.Agent.SystemPrompt)

	v.SetDefault("tools.search.provider", defaultConfig.Tools.Search.Provider)
	v.SetDefault("tools.search.api_key", defaultConfig.Tools.Search.APIKey)
	v.SetDefault("tools.pipe.endpoint", defaultConfig.Tools.Pipe.Endpoint)
	v.SetDefault("tools.pipe.token", defaultConfig.Tools.Pipe.Token)
	v.SetDefault("tools.pipe.model", defaultConfig.Tools.Pipe.Model)
	v.SetDefault("tools.code.command", defaultConfig.Tools.Code.Command)
	v.SetDefault("tools.code.template", defaultConfig.Tools.Code.Template)
	v.SetDefault("tools.code.timeout", defaultConfig.Tools.Code.Timeout)
}

// ActiveProvider returns the selected provider profile.
func (c *Config) ActiveProvider() (ProviderConfig, error) {
	return c.ProviderProfile(c.Profile)
}

// ProviderProfile returns a named provider profile.
func (c *Config) ProviderProfile(name string) (ProviderConfig, error) {
	if name == "" {
		name = DefaultProfile
	}
	p, ok := c.Providers[name]
	if !ok {
		return ProviderConfig{}, fmt.Errorf("provider profile %q is not configured", name)
	}
	return p, nil
}

func decoderOptions(c *mapstructure.DecoderConfig) {
	c.DecodeHook = mapstructure.ComposeDecodeHookFunc(
		expandEnvStringHook(),
		mapstructure.StringToTimeDurationHookFunc(),
		mapstructure.StringToSliceHookFunc(","),
	)
}

func expandEnvStringHook() mapstructure.DecodeHookFuncType {
	return func(from reflect.Type, to reflect.Type, data any) (any, error) {
		if from.Kind() != reflect.String || to.Kind() != reflect.String {
			return data, nil
		}
		value, ok := data.(string)
		if !ok {
			return data, nil
		}
		return os.ExpandEnv(value), nil
	}
}
