package stubdaemon

import (
	"encoding/json"
	"strings"
)

const schemaVersion = "1.0"

type ipcError struct {
	Code      string         `json:"code"`
	Message   string         `json:"message"`
	Retryable bool           `json:"retryable"`
	Category  string         `json:"category"`
	Details   map[string]any `json:"details"`
}

type envelope struct {
	SchemaVersion string    `json:"schema_version"`
	OK            bool      `json:"ok"`
	Data          any       `json:"data,omitempty"`
	Error         *ipcError `json:"error,omitempty"`
}

func errorJSON(code, message string, retryable bool) string {
	return mustJSON(envelope{
		SchemaVersion: schemaVersion,
		Error: &ipcError{
			Code:      code,
			Message:   message,
			Retryable: retryable,
			Category:  "runtime",
			Details:   map[string]any{},
		},
	})
}

func successJSON(data map[string]any) string {
	return mustJSON(envelope{SchemaVersion: schemaVersion, OK: true, Data: data})
}

// wrapKey places payload under key inside a success envelope, keeping its
// parsed structure when it is valid JSON.
func wrapKey(key, payload string) string {
	var parsed any
	if err := json.Unmarshal([]byte(strings.TrimSpace(payload)), &parsed); err != nil {
		return successJSON(map[string]any{key: payload})
	}
	return successJSON(map[string]any{key: parsed})
}

func mustJSON(v any) string {
	data, err := json.Marshal(v)
	if err != nil {
		return "{}"
	}
	return string(data)
}
