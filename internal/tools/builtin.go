package tools

import (
	"fmt"
	"net/http"
	"strings"

	"github.com/neoclaw-ai/toolloop/internal/config"
)

// Backends holds the capabilities behind the built-in tools.
type Backends struct {
	Searcher Searcher
	Piper    Piper
	Runner   CodeRunner
}

// BackendsFromConfig picks each backend from cfg. httpClient is shared by the network-backed ones and may be nil.
func BackendsFromConfig(cfg config.ToolsConfig, httpClient *http.Client) (Backends, error) {
	var b Backends

	switch strings.ToLower(strings.TrimSpace(cfg.Search.Provider)) {
	case "", "static":
		b.Searcher = StaticSearcher{}
	case "brave":
		b.Searcher = BraveSearcher{Client: httpClient, APIKey: cfg.Search.APIKey}
	default:
		return Backends{}, fmt.Errorf("unsupported tools.search.provider %q", cfg.Search.Provider)
	}

	if strings.TrimSpace(cfg.Pipe.Endpoint) == "" {
		b.Piper = EchoPiper{}
	} else {
		b.Piper = NewOpenAIPiper(cfg.Pipe.Endpoint, cfg.Pipe.Token, cfg.Pipe.Model, httpClient)
	}

	if strings.TrimSpace(cfg.Code.Command) == "" {
		b.Runner = DisabledRunner{}
	} else {
		runner, err := NewProcessRunner(cfg.Code.Command, cfg.Code.Template, cfg.Code.Timeout)
		if err != nil {
			return Backends{}, err
		}
		b.Runner = runner
	}
	return b, nil
}

// NewBuiltinRegistry registers google_search, ai_pipe, and execute_code over b.
func NewBuiltinRegistry(b Backends) (*Registry, error) {
	r := NewRegistry()
	for _, tool := range []Tool{
		SearchTool{Searcher: b.Searcher},
		PipeTool{Piper: b.Piper},
		CodeTool{Runner: b.Runner},
	} {
		if err := r.Register(tool); err != nil {
			return nil, err
		}
	}
	return r, nil
}
