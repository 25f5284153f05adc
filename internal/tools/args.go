package tools

import (
	"encoding/json"
	"fmt"
	"strings"
)

func stringArg(args map[string]any, key string) (string, error) {
	v, ok := args[key]
	if !ok {
		return "", invalidArgs("missing required argument %q", key)
	}
	s, ok := v.(string)
	if !ok {
		return "", invalidArgs("argument %q must be a string", key)
	}
	s = strings.TrimSpace(s)
	if s == "" {
		return "", invalidArgs("argument %q cannot be empty", key)
	}
	return s, nil
}

// optionalStringArg returns fallback when key is absent or blank.
func optionalStringArg(args map[string]any, key, fallback string) (string, error) {
	v, ok := args[key]
	if !ok || v == nil {
		return fallback, nil
	}
	s, ok := v.(string)
	if !ok {
		return "", invalidArgs("argument %q must be a string", key)
	}
	s = strings.TrimSpace(s)
	if s == "" {
		return fallback, nil
	}
	return s, nil
}

// Stringify renders a tool result for the transcript: strings pass through, anything else is indented JSON.
func Stringify(v any) (string, error) {
	switch value := v.(type) {
	case nil:
		return "", nil
	case string:
		return value, nil
	}
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return "", fmt.Errorf("encode tool result: %w", err)
	}
	return string(data), nil
}
