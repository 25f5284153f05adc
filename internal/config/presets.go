package config

import "strings"

// ModelPlaceholder is substituted with the configured model in endpoint URLs.
const ModelPlaceholder = "{model}"

var presets = map[string]ProviderConfig{
	"openai": {
		Endpoint:      "https://api.openai.com/v1/chat/completions",
		AuthType:      AuthBearer,
		RequestFormat: FormatOpenAI,
	},
	// Azure endpoints are per-deployment, so only the auth and format are preset.
	"azure": {
		AuthType:       AuthAPIKeyHeader,
		AuthHeaderName: "api-key",
		RequestFormat:  FormatOpenAI,
	},
	"anthropic": {
		Endpoint:       "https://api.anthropic.com/v1/messages",
		AuthType:       AuthAPIKeyHeader,
		AuthHeaderName: "x-api-key",
		RequestFormat:  FormatAnthropic,
	},
	"gemini": {
		Endpoint:      "https://generativelanguage.googleapis.com/v1beta/models/" + ModelPlaceholder + ":generateContent",
		AuthType:      AuthNone,
		RequestFormat: FormatGemini,
	},
	"custom": {
		AuthType:      AuthBearer,
		RequestFormat: FormatCustom,
	},
}

// PresetNames returns the known preset names.
func PresetNames() []string {
	return []string{"openai", "azure", "anthropic", "gemini", "custom"}
}

// WithPreset returns c with empty endpoint, auth, and format fields filled from its preset.
// Explicit values always win over the preset.
func (c ProviderConfig) WithPreset() ProviderConfig {
	preset, ok := presets[strings.ToLower(strings.TrimSpace(c.Preset))]
	if !ok {
		return c
	}
	if c.Endpoint == "" {
		c.Endpoint = preset.Endpoint
	}
	if c.AuthType == "" {
		c.AuthType = preset.AuthType
	}
	if c.AuthHeaderName == "" {
		c.AuthHeaderName = preset.AuthHeaderName
	}
	if c.RequestFormat == "" {
		c.RequestFormat = preset.RequestFormat
	}
	return c
}
