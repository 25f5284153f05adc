package config

import (
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/spf13/viper"
)

// ExportProvider writes p to w as a JSON object. The API key is only written when includeKey is set.
func ExportProvider(w io.Writer, p ProviderConfig, includeKey bool) error {
	if w == nil {
		return errors.New("writer is required")
	}
	v := viper.New()
	v.SetConfigType("json")
	setProviderKeys(v, "", p, includeKey)
	if err := v.WriteConfigTo(w); err != nil {
		return fmt.Errorf("write provider config: %w", err)
	}
	return nil
}

// ImportProvider decodes a JSON provider blob. Only the ProviderConfig fields are read;
// unknown keys are ignored.
func ImportProvider(r io.Reader) (ProviderConfig, error) {
	if r == nil {
		return ProviderConfig{}, errors.New("reader is required")
	}
	v := viper.New()
	v.SetConfigType("json")
	if err := v.ReadConfig(r); err != nil {
		return ProviderConfig{}, fmt.Errorf("read provider config: %w", err)
	}
	var p ProviderConfig
	if err := v.Unmarshal(&p, decoderOptions); err != nil {
		return ProviderConfig{}, fmt.Errorf("decode provider config: %w", err)
	}
	return p, nil
}

// SaveProvider stores p as providers.<name> in config.toml, keeping all other settings.
func SaveProvider(name string, p ProviderConfig) error {
	if name == "" {
		name = DefaultProfile
	}
	home, err := homeDir()
	if err != nil {
		return err
	}

	v := viper.New()
	v.SetConfigFile(homeConfigPath(home))
	v.SetConfigType("toml")
	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) && !errors.Is(err, os.ErrNotExist) {
			return fmt.Errorf("read config file: %w", err)
		}
	}

	setProviderKeys(v, "providers."+name+".", p, true)
	if err := os.MkdirAll(home, 0o755); err != nil {
		return fmt.Errorf("create home dir: %w", err)
	}
	if err := v.WriteConfigAs(homeConfigPath(home)); err != nil {
		return fmt.Errorf("write config file: %w", err)
	}
	return nil
}

func setProviderKeys(v *viper.Viper, prefix string, p ProviderConfig, includeKey bool) {
	set := func(key, value string) {
		if value != "" {
			v.Set(prefix+key, value)
		}
	}
	set("preset", p.Preset)
	set("endpoint", p.Endpoint)
	set("model", p.Model)
	if includeKey {
		set("api_key", p.APIKey)
	}
	set("auth_type", string(p.AuthType))
	set("auth_header_name", p.AuthHeaderName)
	set("request_format", string(p.RequestFormat))
	if p.RequestTimeout > 0 {
		v.Set(prefix+"request_timeout", p.RequestTimeout.String())
	}
}
