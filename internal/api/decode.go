package api

import (
	"bytes"
	"encoding/json"
	"fmt"
)

// unwrap decodes raw into out. The server answers either with the bare value or
// with an object holding it under key; both are accepted.
func unwrap(raw json.RawMessage, key string, out any) error {
	trimmed := bytes.TrimSpace(raw)
	if len(trimmed) == 0 {
		return fmt.Errorf("empty response body")
	}
	if trimmed[0] == '{' && key != "" {
		var env map[string]json.RawMessage
		if err := json.Unmarshal(trimmed, &env); err != nil {
			return fmt.Errorf("decode response: %w", err)
		}
		if inner, ok := env[key]; ok {
			trimmed = inner
		}
	}
	if err := json.Unmarshal(trimmed, out); err != nil {
		return fmt.Errorf("decode %s: %w", key, err)
	}
	return nil
}

// unwrapRaw returns the value under key, or raw itself when absent.
func unwrapRaw(raw json.RawMessage, key string) json.RawMessage {
	trimmed := bytes.TrimSpace(raw)
	if len(trimmed) == 0 || trimmed[0] != '{' {
		return trimmed
	}
	var env map[string]json.RawMessage
	if err := json.Unmarshal(trimmed, &env); err != nil {
		return trimmed
	}
	if _, hasID := env["_id"]; hasID {
		return trimmed
	}
	if inner, ok := env[key]; ok {
		return inner
	}
	return trimmed
}
