package stubdaemon_test

import (
	"encoding/json"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/godbus/dbus/v5"

	"voiceforge-desktop/internal/bus"
	"voiceforge-desktop/internal/events"
	"voiceforge-desktop/internal/signals"
	"voiceforge-desktop/internal/stubdaemon"
)

type emission struct {
	path   dbus.ObjectPath
	name   string
	values []any
}

type recorder struct {
	mu    sync.Mutex
	calls []emission
}

func (r *recorder) Emit(path dbus.ObjectPath, name string, values ...any) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.calls = append(r.calls, emission{path: path, name: name, values: values})
	return nil
}

func (r *recorder) snapshot() []emission {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]emission(nil), r.calls...)
}

func (r *recorder) count(name string) int {
	n := 0
	for _, call := range r.snapshot() {
		if call.name == name {
			n++
		}
	}
	return n
}

func newService(t *testing.T, opts ...stubdaemon.Option) (*stubdaemon.Service, *recorder, bus.Endpoint) {
	t.Helper()
	ep, err := bus.NewEndpoint("com.voiceforge.App", "/com/voiceforge/App", "com.voiceforge.App")
	if err != nil {
		t.Fatalf("NewEndpoint: %v", err)
	}
	rec := &recorder{}
	opts = append([]stubdaemon.Option{stubdaemon.WithChunkInterval(0)}, opts...)
	svc := stubdaemon.New(ep, rec, opts...)
	t.Cleanup(func() { _ = svc.Close() })
	return svc, rec, ep
}

func decodeObject(t *testing.T, raw string) map[string]any {
	t.Helper()
	var out map[string]any
	if err := json.Unmarshal([]byte(raw), &out); err != nil {
		t.Fatalf("decode %q: %v", raw, err)
	}
	return out
}

func TestPingAndVersion(t *testing.T) {
	svc, _, _ := newService(t)
	if reply, derr := svc.Ping(); derr != nil || reply != "pong" {
		t.Fatalf("Ping = %q, %v", reply, derr)
	}
	if reply, _ := svc.GetApiVersion(); reply != "1.0" {
		t.Fatalf("GetApiVersion = %q", reply)
	}
}

func TestAnalyzeEmitsDoneThenUpdated(t *testing.T) {
	svc, rec, ep := newService(t)
	reply, derr := svc.Analyze(30, "standup")
	if derr != nil {
		t.Fatalf("Analyze: %v", derr)
	}
	if !strings.Contains(reply, "last 30s") || !strings.Contains(reply, "template standup") {
		t.Fatalf("unexpected reply %q", reply)
	}
	calls := rec.snapshot()
	if len(calls) != 2 {
		t.Fatalf("expected 2 signals, got %d", len(calls))
	}
	if calls[0].name != ep.Method("AnalysisDone") || calls[0].values[0] != "ok" {
		t.Fatalf("unexpected first signal %+v", calls[0])
	}
	if calls[1].name != ep.Method("TranscriptUpdated") || calls[1].values[0] != uint32(0) {
		t.Fatalf("unexpected second signal %+v", calls[1])
	}
	if calls[0].path != ep.Path {
		t.Fatalf("signal path = %q", calls[0].path)
	}
}

func TestAnalyzeRejectsOutOfRangeSeconds(t *testing.T) {
	svc, rec, _ := newService(t)
	for _, seconds := range []uint32{0, stubdaemon.AnalyzeMaxSeconds + 1} {
		reply, derr := svc.Analyze(seconds, "")
		if derr != nil {
			t.Fatalf("Analyze(%d): %v", seconds, derr)
		}
		payload := decodeObject(t, reply)
		if payload["ok"] != false {
			t.Fatalf("expected ok=false, got %v", payload["ok"])
		}
		errObj, _ := payload["error"].(map[string]any)
		if errObj["code"] != "INVALID_SECONDS" {
			t.Fatalf("unexpected error object %v", errObj)
		}
	}
	if len(rec.snapshot()) != 0 {
		t.Fatalf("rejected analyze must not emit signals")
	}
}

func TestListenStartStopAnnounceState(t *testing.T) {
	svc, rec, ep := newService(t)
	if derr := svc.ListenStart(); derr != nil {
		t.Fatalf("ListenStart: %v", derr)
	}
	if listening, _ := svc.IsListening(); !listening {
		t.Fatal("expected listening after ListenStart")
	}
	if derr := svc.ListenStop(); derr != nil {
		t.Fatalf("ListenStop: %v", derr)
	}
	if listening, _ := svc.IsListening(); listening {
		t.Fatal("expected idle after ListenStop")
	}
	calls := rec.snapshot()
	if len(calls) != 2 {
		t.Fatalf("expected 2 signals, got %d", len(calls))
	}
	for i, want := range []bool{true, false} {
		if calls[i].name != ep.Method("ListenStateChanged") || calls[i].values[0] != want {
			t.Fatalf("signal %d = %+v, want is_listening=%v", i, calls[i], want)
		}
	}
}

func TestListenStopAlwaysEmits(t *testing.T) {
	svc, rec, ep := newService(t)
	_ = svc.ListenStop()
	if rec.count(ep.Method("ListenStateChanged")) != 1 {
		t.Fatal("expected ListenStateChanged(false) even when idle")
	}
}

func TestChunksEmittedWhileListening(t *testing.T) {
	svc, rec, ep := newService(t, stubdaemon.WithChunkInterval(5*time.Millisecond))
	name := ep.Method("TranscriptChunk")
	_ = svc.ListenStart()

	deadline := time.Now().Add(2 * time.Second)
	for rec.count(name) < 2 {
		if time.Now().After(deadline) {
			t.Fatalf("expected chunks while listening, got %d", rec.count(name))
		}
		time.Sleep(5 * time.Millisecond)
	}
	_ = svc.ListenStop()
	after := rec.count(name)
	time.Sleep(30 * time.Millisecond)
	if rec.count(name) != after {
		t.Fatal("chunks continued after ListenStop")
	}

	for _, call := range rec.snapshot() {
		if call.name != name {
			continue
		}
		payload, err := signals.TranscriptChunk.Decode(call.values)
		if err != nil {
			t.Fatalf("chunk body does not decode: %v", err)
		}
		if payload.(events.TranscriptChunk).Text == "" {
			t.Fatal("expected chunk text")
		}
	}

	transcript := decodeObject(t, mustString(svc.GetStreamingTranscript()))
	finals, _ := transcript["finals"].([]any)
	if len(finals) == 0 {
		t.Fatalf("expected finals in streaming transcript, got %v", transcript)
	}
}

func TestSessionsNewestFirstAndLimited(t *testing.T) {
	svc, _, _ := newService(t)
	_, _ = svc.Analyze(10, "")
	_, _ = svc.Analyze(20, "")

	var sessions []struct {
		ID uint32 `json:"id"`
	}
	if err := json.Unmarshal([]byte(mustString(svc.GetSessions(2))), &sessions); err != nil {
		t.Fatalf("decode sessions: %v", err)
	}
	if len(sessions) != 2 || sessions[0].ID != 3 || sessions[1].ID != 2 {
		t.Fatalf("unexpected sessions %+v", sessions)
	}
	if reply := mustString(svc.GetSessions(0)); reply != "[]" {
		t.Fatalf("GetSessions(0) = %q", reply)
	}
	detail := decodeObject(t, mustString(svc.GetSessionDetail(1)))
	if _, ok := detail["segments"]; !ok {
		t.Fatalf("expected segments in detail %v", detail)
	}
	if reply := mustString(svc.GetSessionDetail(99)); reply != "{}" {
		t.Fatalf("unknown detail = %q", reply)
	}
}

func TestEnvelopeWrapsReplies(t *testing.T) {
	svc, _, _ := newService(t, stubdaemon.WithEnvelope(true))
	payload := decodeObject(t, mustString(svc.GetSessions(5)))
	if payload["ok"] != true || payload["schema_version"] != "1.0" {
		t.Fatalf("unexpected envelope %v", payload)
	}
	data, _ := payload["data"].(map[string]any)
	if sessions, ok := data["sessions"].([]any); !ok || len(sessions) != 1 {
		t.Fatalf("expected parsed sessions under data, got %v", data)
	}
	caps := decodeObject(t, mustString(svc.GetCapabilities()))
	features, _ := caps["features"].(map[string]any)
	if features["envelope_v1"] != true {
		t.Fatalf("expected envelope_v1 feature, got %v", features)
	}
}

func TestAnalyticsPeriodClamp(t *testing.T) {
	svc, _, _ := newService(t)
	cases := map[string]float64{"7d": 7, "400d": 365, "abc": 30, "0": 1, "": 30, "-5": 30}
	for period, want := range cases {
		got := decodeObject(t, mustString(svc.GetAnalytics(period)))["days"]
		if got != want {
			t.Fatalf("GetAnalytics(%q) days = %v, want %v", period, got, want)
		}
	}
}

func TestSwapModel(t *testing.T) {
	svc, _, _ := newService(t)
	if reply, _ := svc.SwapModel("STT", "tiny"); reply != "ok" {
		t.Fatalf("SwapModel = %q", reply)
	}
	if reply, _ := svc.SwapModel("tts", "x"); !strings.HasPrefix(reply, "error:") {
		t.Fatalf("expected error for unknown model type, got %q", reply)
	}
	if status, _ := svc.Status(); !strings.Contains(status, "stt: tiny") {
		t.Fatalf("status does not reflect swap: %q", status)
	}
}

func mustString(reply string, derr *dbus.Error) string {
	if derr != nil {
		panic(derr)
	}
	return reply
}
