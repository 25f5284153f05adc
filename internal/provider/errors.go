package provider

import (
	"fmt"

	"github.com/neoclaw-ai/toolloop/internal/config"
)

// ConfigError reports a provider profile that cannot be used. It is raised before any network call.
type ConfigError struct {
	Field  string
	Reason string
}

func (e *ConfigError) Error() string {
	return fmt.Sprintf("provider config: %s %s", e.Field, e.Reason)
}

// TransportError reports a non-2xx HTTP response.
type TransportError struct {
	Status int
	Body   string
}

func (e *TransportError) Error() string {
	return fmt.Sprintf("provider returned HTTP %d: %s", e.Status, e.Body)
}

// ProtocolError reports a response body missing a field the adapter requires.
type ProtocolError struct {
	Format config.RequestFormat
	Field  string
	Err    error
}

func (e *ProtocolError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s response: invalid %s: %v", e.Format, e.Field, e.Err)
	}
	return fmt.Sprintf("%s response: missing %s", e.Format, e.Field)
}

func (e *ProtocolError) Unwrap() error {
	return e.Err
}

func missingField(format config.RequestFormat, field string) error {
	return &ProtocolError{Format: format, Field: field}
}

func invalidField(format config.RequestFormat, field string, err error) error {
	return &ProtocolError{Format: format, Field: field, Err: err}
}
