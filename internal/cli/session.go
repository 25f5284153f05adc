package cli

import (
	"errors"
	"net/http"
	"sort"
	"time"

	"github.com/neoclaw-ai/toolloop/internal/agent"
	"github.com/neoclaw-ai/toolloop/internal/approval"
	"github.com/neoclaw-ai/toolloop/internal/config"
	"github.com/neoclaw-ai/toolloop/internal/costs"
	"github.com/neoclaw-ai/toolloop/internal/logging"
	"github.com/neoclaw-ai/toolloop/internal/provider"
	"github.com/neoclaw-ai/toolloop/internal/tools"
)

const toolHTTPTimeout = 30 * time.Second

var chatterFactory = func(p config.ProviderConfig) (provider.Chatter, error) {
	client, err := provider.New(p)
	if err != nil {
		return nil, err
	}
	return client, nil
}

// session is everything one command needs to talk to the configured provider.
type session struct {
	cfg     *config.Config
	agent   *agent.Agent
	usage   *costs.Tracker
	profile config.ProviderConfig
}

func newSession(opts *rootOptions) (*session, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, err
	}
	if opts.profile != "" {
		cfg.Profile = opts.profile
	}
	report, err := config.ValidateStartup(cfg)
	if err != nil {
		return nil, err
	}
	warnStartupConditions(report)

	profile, err := cfg.ActiveProvider()
	if err != nil {
		return nil, err
	}
	chatter, err := chatterFactory(profile)
	if err != nil {
		return nil, err
	}
	usage := costs.New()
	metered := costs.NewMeter(chatter, usage, string(profile.RequestFormat), profile.Model)

	toolClient := &http.Client{
		Timeout: toolHTTPTimeout,
		Transport: approval.RoundTripper{
			Checker: approval.Checker{
				Allow: cfg.Tools.Network.AllowDomains,
				Deny:  cfg.Tools.Network.DenyDomains,
			},
		},
	}
	backends, err := tools.BackendsFromConfig(cfg.Tools, toolClient)
	if err != nil {
		return nil, err
	}
	registry, err := tools.NewBuiltinRegistry(backends)
	if err != nil {
		return nil, err
	}

	logging.Logger().Info(
		"session ready",
		"profile", cfg.Profile,
		"request_format", profile.RequestFormat,
		"model", profile.Model,
	)
	return &session{
		cfg:     cfg,
		agent:   agent.New(metered, registry, cfg.Agent.SystemPrompt),
		usage:   usage,
		profile: profile,
	}, nil
}

// Emit startup warnings derived from non-fatal config conditions.
func warnStartupConditions(report *config.ValidationReport) {
	if report == nil {
		return
	}
	for _, warning := range report.Warnings {
		logging.Logger().Warn(warning)
	}
}

// ActiveProfile names the provider profile the agent is talking to.
func (s *session) ActiveProfile() string {
	return s.cfg.Profile
}

// Profiles lists configured provider profiles in name order.
func (s *session) Profiles() []string {
	names := make([]string, 0, len(s.cfg.Providers))
	for name := range s.cfg.Providers {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// SwitchProfile points the agent at another profile. The transcript carries over.
func (s *session) SwitchProfile(name string) error {
	if s.agent.Busy() {
		return errors.New("a request is running; switch profiles when it finishes")
	}
	profile, err := s.cfg.ProviderProfile(name)
	if err != nil {
		return err
	}
	chatter, err := chatterFactory(profile)
	if err != nil {
		return err
	}
	profile = profile.WithPreset()
	s.agent.SetChatter(costs.NewMeter(chatter, s.usage, string(profile.RequestFormat), profile.Model))
	s.cfg.Profile = name
	s.profile = profile

	logging.Logger().Info(
		"provider profile switched",
		"profile", name,
		"request_format", profile.RequestFormat,
		"model", profile.Model,
	)
	return nil
}
