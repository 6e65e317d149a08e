package bus_test

import (
	"testing"

	"voiceforge-desktop/internal/bus"
)

func TestNewEndpointDefaultsInterfaceToService(t *testing.T) {
	ep, err := bus.NewEndpoint("com.voiceforge.App", "/com/voiceforge/App", "")
	if err != nil {
		t.Fatalf("NewEndpoint returned error: %v", err)
	}
	if ep.Interface != "com.voiceforge.App" {
		t.Fatalf("expected interface to default to service, got %q", ep.Interface)
	}
	if got := ep.Method("Ping"); got != "com.voiceforge.App.Ping" {
		t.Fatalf("unexpected method name %q", got)
	}
}

func TestEndpointValidate(t *testing.T) {
	tests := []struct {
		name    string
		service string
		path    string
		iface   string
		wantErr bool
	}{
		{name: "defaults", service: "com.voiceforge.App", path: "/com/voiceforge/App", iface: "com.voiceforge.App"},
		{name: "hyphenated service", service: "org.example.voice-forge", path: "/org/example", iface: "org.example.Voice"},
		{name: "single element service", service: "voiceforge", path: "/com/voiceforge/App", iface: "com.voiceforge.App", wantErr: true},
		{name: "unique name rejected", service: ":1.42", path: "/com/voiceforge/App", iface: "com.voiceforge.App", wantErr: true},
		{name: "relative path", service: "com.voiceforge.App", path: "com/voiceforge", iface: "com.voiceforge.App", wantErr: true},
		{name: "trailing slash", service: "com.voiceforge.App", path: "/com/voiceforge/", iface: "com.voiceforge.App", wantErr: true},
		{name: "hyphen in interface", service: "com.voiceforge.App", path: "/", iface: "com.voice-forge.App", wantErr: true},
		{name: "digit leading element", service: "com.9forge.App", path: "/", iface: "com.voiceforge.App", wantErr: true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := bus.NewEndpoint(tt.service, tt.path, tt.iface)
			if tt.wantErr && err == nil {
				t.Fatal("expected validation error")
			}
			if !tt.wantErr && err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
		})
	}
}

func TestMatchRule(t *testing.T) {
	ep, err := bus.NewEndpoint("com.voiceforge.App", "/com/voiceforge/App", "com.voiceforge.App")
	if err != nil {
		t.Fatalf("NewEndpoint returned error: %v", err)
	}
	want := "type='signal',sender='com.voiceforge.App',path='/com/voiceforge/App',interface='com.voiceforge.App',member='AnalysisDone'"
	if got := ep.MatchRule("AnalysisDone"); got != want {
		t.Fatalf("unexpected rule:\n got %s\nwant %s", got, want)
	}
}

func TestValidMember(t *testing.T) {
	for member, want := range map[string]bool{
		"TranscriptChunk":    true,
		"Listen_State2":      true,
		"":                   false,
		"com.voiceforge.Foo": false,
		"2Fast":              false,
		"has space":          false,
	} {
		if got := bus.ValidMember(member); got != want {
			t.Fatalf("ValidMember(%q) = %v, want %v", member, got, want)
		}
	}
}
