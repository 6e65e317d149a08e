package notifications

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"voiceforge-desktop/internal/config"
	"voiceforge-desktop/internal/events"
)

const userAgent = "voiceforge-desktop/0.1"

// Service publishes notifications for local events.
type Service interface {
	// Notify pushes evt when its name is enabled. Unsupported or disabled
	// events return nil without sending.
	Notify(ctx context.Context, evt events.Event) error
	TestNotification(ctx context.Context) error
	Enabled() bool
}

// NewService builds an ntfy-backed service, or a noop when no topic is set.
func NewService(cfg *config.Config) Service {
	topic := strings.TrimSpace(cfg.Notifications.NtfyTopic)
	if topic == "" {
		return noopService{}
	}

	timeout := cfg.NotifyTimeout()
	if timeout <= 0 {
		timeout = 10 * time.Second
	}

	enabled := make(map[string]struct{}, len(cfg.Notifications.Events))
	for _, name := range cfg.Notifications.Events {
		enabled[name] = struct{}{}
	}
	return &ntfyService{
		endpoint: topic,
		client:   &http.Client{Timeout: timeout},
		enabled:  enabled,
	}
}

type payload struct {
	title    string
	message  string
	tags     []string
	priority string
}

type ntfyService struct {
	endpoint string
	client   *http.Client
	enabled  map[string]struct{}
}

func (n *ntfyService) Enabled() bool { return true }

func (n *ntfyService) Notify(ctx context.Context, evt events.Event) error {
	if _, ok := n.enabled[evt.Name]; !ok {
		return nil
	}
	data, ok := format(evt)
	if !ok {
		return nil
	}
	return n.send(ctx, data)
}

func format(evt events.Event) (payload, bool) {
	switch p := evt.Payload.(type) {
	case events.AnalysisDone:
		status := strings.TrimSpace(p.Status)
		if status == "ok" {
			return payload{
				title:   "VoiceForge - Analysis Ready",
				message: "🧠 Analysis finished",
				tags:    []string{"voiceforge", "analysis", "completed"},
			}, true
		}
		return payload{
			title:    "VoiceForge - Analysis Failed",
			message:  fmt.Sprintf("❌ Analysis ended with status: %s", status),
			tags:     []string{"voiceforge", "analysis", "error"},
			priority: "high",
		}, true
	case events.ListenState:
		if p.IsListening {
			return payload{
				title:    "VoiceForge - Recording",
				message:  "🎙️ Recording started",
				tags:     []string{"voiceforge", "listen", "started"},
				priority: "low",
			}, true
		}
		return payload{
			title:    "VoiceForge - Recording",
			message:  "⏹️ Recording stopped",
			tags:     []string{"voiceforge", "listen", "stopped"},
			priority: "low",
		}, true
	case events.TranscriptUpdated:
		return payload{
			title:   "VoiceForge - Transcript Saved",
			message: fmt.Sprintf("📝 Session %d saved", p.SessionID),
			tags:    []string{"voiceforge", "transcript", "saved"},
		}, true
	default:
		return payload{}, false
	}
}

func (n *ntfyService) TestNotification(ctx context.Context) error {
	data := payload{
		title:    "VoiceForge - Test",
		message:  "🧪 Notification system test",
		tags:     []string{"voiceforge", "test"},
		priority: "low",
	}
	return n.send(ctx, data)
}

func (n *ntfyService) send(ctx context.Context, data payload) error {
	if n == nil || n.client == nil {
		return nil
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, n.endpoint, strings.NewReader(data.message))
	if err != nil {
		return fmt.Errorf("build ntfy request: %w", err)
	}
	req.Header.Set("User-Agent", userAgent)
	req.Header.Set("Content-Type", "text/plain; charset=utf-8")
	if data.title != "" {
		req.Header.Set("Title", data.title)
	}
	if len(data.tags) > 0 {
		req.Header.Set("Tags", strings.Join(data.tags, ","))
	}
	if data.priority != "" && data.priority != "default" {
		req.Header.Set("Priority", data.priority)
	}

	resp, err := n.client.Do(req)
	if err != nil {
		return fmt.Errorf("send ntfy notification: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 2048))
		return fmt.Errorf("ntfy returned %d: %s", resp.StatusCode, strings.TrimSpace(string(body)))
	}
	_, _ = io.Copy(io.Discard, resp.Body)
	return nil
}

type noopService struct{}

func (noopService) Notify(context.Context, events.Event) error { return nil }
func (noopService) TestNotification(context.Context) error     { return nil }
func (noopService) Enabled() bool                              { return false }
