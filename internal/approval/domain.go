// Package approval decides which hosts the tool backends may reach over HTTP.
package approval

import (
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strings"

	"github.com/neoclaw-ai/toolloop/internal/logging"
)

// Checker validates outbound hosts against deny and allow lists.
// Deny wins. An empty allow list permits every host that is not denied.
type Checker struct {
	Allow []string
	Deny  []string
}

// DeniedError reports a host the policy refused.
type DeniedError struct {
	Host string
}

func (e *DeniedError) Error() string {
	return fmt.Sprintf("domain %q is not allowed for tool requests", e.Host)
}

// Check returns a *DeniedError when host is not permitted.
func (c Checker) Check(host string) error {
	target, err := normalizeDomain(host)
	if err != nil {
		return err
	}

	if matchesAny(c.Deny, target) {
		return &DeniedError{Host: target}
	}
	if len(c.Allow) == 0 || matchesAny(c.Allow, target) {
		return nil
	}
	return &DeniedError{Host: target}
}

// RoundTripper wraps an HTTP transport and enforces domain checks before forwarding requests.
type RoundTripper struct {
	Checker Checker
	Base    http.RoundTripper
}

// RoundTrip checks the request domain via Checker and forwards to Base if allowed.
func (rt RoundTripper) RoundTrip(req *http.Request) (*http.Response, error) {
	if req == nil {
		return nil, errors.New("request is required")
	}
	if req.URL == nil {
		return nil, errors.New("request URL is required")
	}

	if err := rt.Checker.Check(req.URL.Host); err != nil {
		logging.Logger().Warn("tool request blocked", "host", req.URL.Host, "err", err)
		return nil, err
	}

	base := rt.Base
	if base == nil {
		base = http.DefaultTransport
	}
	return base.RoundTrip(req)
}

func matchesAny(rules []string, host string) bool {
	for _, candidate := range rules {
		normalized, err := normalizeDomain(candidate)
		if err != nil {
			continue
		}
		if domainMatches(normalized, host) {
			return true
		}
	}
	return false
}

func normalizeDomain(raw string) (string, error) {
	value := strings.TrimSpace(raw)
	value = strings.TrimPrefix(value, "*.")
	value = strings.TrimPrefix(value, ".")
	if value == "" {
		return "", errors.New("domain is required")
	}

	if !strings.Contains(value, "://") {
		value = "https://" + value
	}

	parsed, err := url.Parse(value)
	if err != nil {
		return "", fmt.Errorf("parse domain %q: %w", raw, err)
	}

	host := strings.TrimSuffix(strings.ToLower(strings.TrimSpace(parsed.Hostname())), ".")
	if host == "" {
		return "", fmt.Errorf("invalid domain %q", raw)
	}
	return host, nil
}

func domainMatches(allowed, host string) bool {
	return host == allowed || strings.HasSuffix(host, "."+allowed)
}
