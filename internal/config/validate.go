package config

import (
	"errors"
	"fmt"
	"slices"
	"strings"
)

// Validatable is implemented by config sections that can self-validate.
type Validatable interface {
	Validate() error
}

// ValidationReport carries non-fatal startup findings.
type ValidationReport struct {
	Warnings []string
}

// Validate checks enum fields of a provider profile. Missing endpoint, model, or
// credentials are reported by the provider at call time.
func (c ProviderConfig) Validate() error {
	if c.Preset != "" && !slices.Contains(PresetNames(), strings.ToLower(c.Preset)) {
		return fmt.Errorf("unknown preset %q", c.Preset)
	}
	switch c.RequestFormat {
	case FormatOpenAI, FormatAnthropic, FormatGemini, FormatCustom:
	case "":
		return errors.New("request_format is required")
	default:
		return fmt.Errorf("unsupported request_format %q", c.RequestFormat)
	}
	switch c.AuthType {
	case AuthNone, AuthBearer, AuthAPIKeyHeader:
	case AuthCustomHeader:
		if strings.TrimSpace(c.AuthHeaderName) == "" {
			return errors.New("auth_header_name is required for custom-header auth")
		}
	case "":
		return errors.New("auth_type is required")
	default:
		return fmt.Errorf("unsupported auth_type %q", c.AuthType)
	}
	if c.RequestTimeout < 0 {
		return errors.New("request_timeout must be >= 0")
	}
	return nil
}

// Validate checks the search backend name.
func (c SearchConfig) Validate() error {
	switch strings.ToLower(strings.TrimSpace(c.Provider)) {
	case "", "static", "brave":
		return nil
	default:
		return fmt.Errorf("unsupported provider %q", c.Provider)
	}
}

// Validate checks the code runner timeout.
func (c CodeConfig) Validate() error {
	if c.Timeout < 0 {
		return errors.New("timeout must be >= 0")
	}
	return nil
}

// Validate validates tool backends.
func (c ToolsConfig) Validate() error {
	if err := c.Search.Validate(); err != nil {
		return fmt.Errorf("search: %w", err)
	}
	if err := c.Code.Validate(); err != nil {
		return fmt.Errorf("code: %w", err)
	}
	return nil
}

// ValidateStartup validates startup configuration and returns warning messages.
func ValidateStartup(cfg *Config) (*ValidationReport, error) {
	var errs []error
	report := &ValidationReport{}

	if len(cfg.Providers) == 0 {
		errs = append(errs, errors.New("at least one providers.* profile is required"))
	}
	if _, ok := cfg.Providers[cfg.Profile]; !ok {
		errs = append(errs, fmt.Errorf("profile %q is not configured", cfg.Profile))
	}
	for name, p := range cfg.Providers {
		if err := p.Validate(); err != nil {
			errs = append(errs, fmt.Errorf("providers.%s: %w", name, err))
		}
	}
	if err := cfg.Tools.Validate(); err != nil {
		errs = append(errs, fmt.Errorf("tools: %w", err))
	}

	if active, ok := cfg.Providers[cfg.Profile]; ok && active.AuthType != AuthNone && active.APIKey == "" {
		report.Warnings = append(report.Warnings, fmt.Sprintf("providers.%s.api_key is empty", cfg.Profile))
	}
	if strings.EqualFold(cfg.Tools.Search.Provider, "brave") && cfg.Tools.Search.APIKey == "" {
		report.Warnings = append(report.Warnings, "tools.search.api_key is empty while tools.search.provider is brave")
	}
	if strings.TrimSpace(cfg.Tools.Code.Command) == "" {
		report.Warnings = append(report.Warnings, "tools.code.command is empty; execute_code is disabled")
	}

	if len(errs) > 0 {
		return report, errors.Join(errs...)
	}
	return report, nil
}
