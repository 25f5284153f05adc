package provider

import (
	"fmt"
	"net/http"
	"strings"
	"sync/atomic"
	"time"

	"github.com/neoclaw-ai/toolloop/internal/config"
)

// Adapter converts between the normalized representation and one vendor wire dialect.
// Both methods are free of I/O.
type Adapter interface {
	Format() config.RequestFormat
	BuildRequest(transcript []Message, tools []ToolDefinition, cfg config.ProviderConfig) (*HTTPRequest, error)
	ParseResponse(body []byte) (*Response, error)
}

// HTTPRequest is the adapter-built request, ready for the transport.
type HTTPRequest struct {
	URL    string
	Header http.Header
	Body   []byte
}

// AdapterFor returns the adapter for a request format.
func AdapterFor(format config.RequestFormat) (Adapter, error) {
	switch format {
	case config.FormatOpenAI:
		return openAIAdapter{format: config.FormatOpenAI, toolChoice: true, ids: newCallIDSource()}, nil
	case config.FormatCustom:
		return openAIAdapter{format: config.FormatCustom, ids: newCallIDSource()}, nil
	case config.FormatAnthropic:
		return anthropicAdapter{}, nil
	case config.FormatGemini:
		return newGeminiAdapter(), nil
	case "":
		return nil, &ConfigError{Field: "request_format", Reason: "is required"}
	default:
		return nil, &ConfigError{Field: "request_format", Reason: fmt.Sprintf("%q is not supported", format)}
	}
}

// checkConfig fails fast on profiles that cannot produce a request.
func checkConfig(cfg config.ProviderConfig) error {
	if strings.TrimSpace(cfg.Endpoint) == "" {
		return &ConfigError{Field: "endpoint", Reason: "is required"}
	}
	if strings.TrimSpace(cfg.Model) == "" {
		return &ConfigError{Field: "model", Reason: "is required"}
	}
	switch cfg.AuthType {
	case config.AuthNone, "":
		return nil
	case config.AuthBearer, config.AuthAPIKeyHeader:
	case config.AuthCustomHeader:
		if strings.TrimSpace(cfg.AuthHeaderName) == "" {
			return &ConfigError{Field: "auth_header_name", Reason: "is required for custom-header auth"}
		}
	default:
		return &ConfigError{Field: "auth_type", Reason: fmt.Sprintf("%q is not supported", cfg.AuthType)}
	}
	if strings.TrimSpace(cfg.APIKey) == "" {
		return &ConfigError{Field: "api_key", Reason: fmt.Sprintf("is required for %s auth", cfg.AuthType)}
	}
	return nil
}

// authHeaders builds headers for cfg.AuthType; it does not depend on the request format.
func authHeaders(cfg config.ProviderConfig) http.Header {
	h := http.Header{}
	h.Set("Content-Type", "application/json")
	switch cfg.AuthType {
	case config.AuthBearer:
		h.Set("Authorization", "Bearer "+cfg.APIKey)
	case config.AuthAPIKeyHeader:
		name := cfg.AuthHeaderName
		if name == "" {
			name = "api-key"
		}
		h.Set(name, cfg.APIKey)
	case config.AuthCustomHeader:
		h.Set(cfg.AuthHeaderName, cfg.APIKey)
	}
	return h
}

// callIDSource synthesizes tool call ids for replies whose server does not issue them.
type callIDSource struct {
	seq *atomic.Uint64
}

func newCallIDSource() callIDSource {
	return callIDSource{seq: new(atomic.Uint64)}
}

func (s callIDSource) next() string {
	return fmt.Sprintf("call_%d_%d", time.Now().UnixNano(), s.seq.Add(1))
}
