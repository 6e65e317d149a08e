package tui

import "testing"

func TestParseStreamingTranscriptPlain(t *testing.T) {
	view, err := parseStreamingTranscript(`{"partial":" typing ","finals":[{"text":"a"},{"text":"  "},{"text":"b"}]}`)
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if view.Partial != "typing" || len(view.Finals) != 2 || view.Finals[1] != "b" {
		t.Fatalf("unexpected view %+v", view)
	}
}

func TestParseStreamingTranscriptEnvelope(t *testing.T) {
	raw := `{"schema_version":"1.0","ok":true,"data":{"streaming_transcript":{"partial":"","finals":[{"text":"x"}]}}}`
	view, err := parseStreamingTranscript(raw)
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if len(view.Finals) != 1 || view.Finals[0] != "x" {
		t.Fatalf("unexpected view %+v", view)
	}
}

func TestEnvelopeErrorSurfaces(t *testing.T) {
	raw := `{"schema_version":"1.0","ok":false,"error":{"code":"X","message":"daemon busy"}}`
	if _, err := countSessions(raw); err == nil || err.Error() != "daemon busy" {
		t.Fatalf("expected envelope error, got %v", err)
	}
}

func TestCountSessionsRejectsNonArray(t *testing.T) {
	if _, err := countSessions(`{"id":1}`); err == nil {
		t.Fatal("expected decode error for object reply")
	}
	if n, err := countSessions(`[]`); err != nil || n != 0 {
		t.Fatalf("countSessions([]) = %d, %v", n, err)
	}
}
