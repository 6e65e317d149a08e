package tui

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"
)

// streamingView is the decoded GetStreamingTranscript reply.
type streamingView struct {
	Partial string
	Finals  []string
}

type streamingPayload struct {
	Partial string `json:"partial"`
	Finals  []struct {
		Text string `json:"text"`
	} `json:"finals"`
}

// parseStreamingTranscript accepts both the plain reply and the enveloped
// form that nests it under data.streaming_transcript.
func parseStreamingTranscript(raw string) (streamingView, error) {
	body, err := unwrapEnvelope(raw, "streaming_transcript")
	if err != nil {
		return streamingView{}, err
	}
	var payload streamingPayload
	if err := json.Unmarshal(body, &payload); err != nil {
		return streamingView{}, fmt.Errorf("decode streaming transcript: %w", err)
	}
	view := streamingView{Partial: strings.TrimSpace(payload.Partial)}
	for _, final := range payload.Finals {
		if text := strings.TrimSpace(final.Text); text != "" {
			view.Finals = append(view.Finals, text)
		}
	}
	return view, nil
}

// countSessions returns the number of session summaries in a GetSessions reply.
func countSessions(raw string) (int, error) {
	body, err := unwrapEnvelope(raw, "sessions")
	if err != nil {
		return 0, err
	}
	var sessions []json.RawMessage
	if err := json.Unmarshal(body, &sessions); err != nil {
		return 0, fmt.Errorf("decode sessions: %w", err)
	}
	return len(sessions), nil
}

func unwrapEnvelope(raw, key string) (json.RawMessage, error) {
	trimmed := strings.TrimSpace(raw)
	if trimmed == "" {
		return nil, errors.New("empty reply")
	}
	var env struct {
		OK    *bool                      `json:"ok"`
		Data  map[string]json.RawMessage `json:"data"`
		Error *struct {
			Message string `json:"message"`
		} `json:"error"`
	}
	if !strings.HasPrefix(trimmed, "{") || json.Unmarshal([]byte(trimmed), &env) != nil || env.OK == nil {
		return json.RawMessage(trimmed), nil
	}
	if !*env.OK {
		if env.Error != nil && env.Error.Message != "" {
			return nil, errors.New(env.Error.Message)
		}
		return nil, errors.New("daemon reported failure")
	}
	if body, ok := env.Data[key]; ok {
		return body, nil
	}
	return nil, fmt.Errorf("reply has no %s", key)
}
