package stubdaemon

import (
	"strconv"
	"strings"
	"time"
)

type sessionSummary struct {
	ID            uint32  `json:"id"`
	StartedAt     string  `json:"started_at"`
	EndedAt       string  `json:"ended_at"`
	DurationSec   float64 `json:"duration_sec"`
	SegmentsCount int     `json:"segments_count"`
}

type segment struct {
	StartSec float64 `json:"start_sec"`
	EndSec   float64 `json:"end_sec"`
	Speaker  string  `json:"speaker"`
	Text     string  `json:"text"`
}

type analysis struct {
	Model           string   `json:"model"`
	Questions       []string `json:"questions"`
	Answers         []string `json:"answers"`
	Recommendations []string `json:"recommendations"`
	ActionItems     []string `json:"action_items"`
	CostUSD         float64  `json:"cost_usd"`
}

type sessionDetail struct {
	Segments []segment `json:"segments"`
	Analysis *analysis `json:"analysis"`
}

type finalChunk struct {
	Text  string  `json:"text"`
	Start float64 `json:"start"`
	End   float64 `json:"end"`
}

type streamingTranscript struct {
	Partial string       `json:"partial"`
	Finals  []finalChunk `json:"finals"`
}

var settingsFixture = map[string]any{
	"model_size":       "small",
	"default_llm":      "anthropic/claude-haiku-4-5",
	"budget_limit_usd": 75.0,
	"smart_trigger":    false,
	"sample_rate":      16000,
	"streaming_stt":    true,
	"pii_mode":         "ON",
	"privacy_mode":     "ON",
}

var indexedPathsFixture = []string{
	"~/Documents/notes/standup.md",
	"~/Documents/specs/roadmap.pdf",
}

var capabilityFeatures = map[string]bool{
	"listen":               true,
	"analyze":              true,
	"streaming_transcript": true,
	"swap_model":           true,
	"analytics":            true,
	"signals":              true,
}

var chunkPhrases = []string{
	"let's go over the release checklist",
	"the migration finished overnight",
	"we still need numbers for the dashboard",
	"I'll follow up with the vendor today",
}

func seedSessions(now time.Time) ([]sessionSummary, map[uint32]sessionDetail) {
	started := now.Add(-2 * time.Hour).UTC()
	summaries := []sessionSummary{
		{
			ID:            1,
			StartedAt:     started.Format(time.RFC3339),
			EndedAt:       started.Add(12 * time.Minute).Format(time.RFC3339),
			DurationSec:   720,
			SegmentsCount: 2,
		},
	}
	details := map[uint32]sessionDetail{
		1: {
			Segments: []segment{
				{StartSec: 0, EndSec: 4.2, Speaker: "SPEAKER_00", Text: chunkPhrases[0]},
				{StartSec: 4.2, EndSec: 9.8, Speaker: "SPEAKER_01", Text: chunkPhrases[1]},
			},
			Analysis: &analysis{
				Model:           "anthropic/claude-haiku-4-5",
				Questions:       []string{"Is the migration complete?"},
				Answers:         []string{"Yes, it finished overnight."},
				Recommendations: []string{"Publish the dashboard numbers."},
				ActionItems:     []string{"Follow up with the vendor"},
				CostUSD:         0.002,
			},
		},
	}
	return summaries, details
}

// analyticsDays parses periods such as "7d" or "30" into a day count
// clamped to 1..365. Anything else yields 30.
func analyticsDays(period string) int {
	value := strings.ToLower(strings.TrimSpace(period))
	value = strings.TrimSuffix(value, "d")
	if value == "" || strings.TrimLeft(value, "0123456789") != "" {
		return 30
	}
	days, err := strconv.Atoi(value)
	if err != nil {
		return 30
	}
	return min(365, max(1, days))
}
