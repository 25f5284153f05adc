package cli

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"sync"
	"testing"

	"github.com/neoclaw-ai/toolloop/internal/config"
	"github.com/neoclaw-ai/toolloop/internal/provider"
)

func createTestHome(t *testing.T) string {
	t.Helper()
	homeDir := filepath.Join(t.TempDir(), ".toolloop")
	t.Setenv("TOOLLOOP_HOME", homeDir)
	return homeDir
}

func writeValidConfig(t *testing.T, homeDir string) {
	t.Helper()
	if err := os.MkdirAll(homeDir, 0o755); err != nil {
		t.Fatalf("mkdir home dir: %v", err)
	}
	configBody := `
profile = "default"

[providers.default]
preset = "openai"
model = "gpt-4o-mini"
api_key = "test-key"

[providers.claude]
preset = "anthropic"
model = "claude-3-5-sonnet-latest"
api_key = "other-key"

[tools.search]
provider = "static"
`
	if err := os.WriteFile(filepath.Join(homeDir, "config.toml"), []byte(configBody), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
}

// useFakeChatter swaps the provider factory for one returning c and records the profile it was built from.
func useFakeChatter(t *testing.T, c *fakeChatter) *config.ProviderConfig {
	t.Helper()
	var built config.ProviderConfig
	orig := chatterFactory
	t.Cleanup(func() { chatterFactory = orig })
	chatterFactory = func(p config.ProviderConfig) (provider.Chatter, error) {
		built = p
		return c, nil
	}
	return &built
}

type fakeChatter struct {
	mu        sync.Mutex
	responses []*provider.Response
	err       error
}

func (c *fakeChatter) Chat(_ context.Context, _ []provider.Message, _ []provider.ToolDefinition) (*provider.Response, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.err != nil {
		return nil, c.err
	}
	if len(c.responses) == 0 {
		return nil, errors.New("no scripted response left")
	}
	resp := c.responses[0]
	c.responses = c.responses[1:]
	return resp, nil
}
