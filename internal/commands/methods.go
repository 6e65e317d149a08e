package commands

import (
	"context"

	"voiceforge-desktop/internal/services"
)

// Daemon method names.
const (
	MethodPing                   = "Ping"
	MethodGetSettings            = "GetSettings"
	MethodGetSessions            = "GetSessions"
	MethodGetSessionDetail       = "GetSessionDetail"
	MethodGetAnalytics           = "GetAnalytics"
	MethodIsListening            = "IsListening"
	MethodListenStart            = "ListenStart"
	MethodListenStop             = "ListenStop"
	MethodAnalyze                = "Analyze"
	MethodGetStreamingTranscript = "GetStreamingTranscript"
	MethodStatus                 = "Status"
	MethodGetIndexedPaths        = "GetIndexedPaths"
	MethodGetAPIVersion          = "GetApiVersion"
	MethodGetCapabilities        = "GetCapabilities"
	MethodSwapModel              = "SwapModel"
)

// Ping checks liveness; a healthy daemon answers "pong".
func (r *Relay) Ping(ctx context.Context) (string, error) {
	return r.callString(ctx, MethodPing)
}

// GetSettings returns the daemon settings JSON.
func (r *Relay) GetSettings(ctx context.Context) (string, error) {
	return r.callString(ctx, MethodGetSettings)
}

// GetSessions returns up to limit recent sessions as JSON.
func (r *Relay) GetSessions(ctx context.Context, limit uint32) (string, error) {
	return r.callString(ctx, MethodGetSessions, limit)
}

// GetSessionDetail returns one session's detail JSON.
func (r *Relay) GetSessionDetail(ctx context.Context, sessionID uint32) (string, error) {
	return r.callString(ctx, MethodGetSessionDetail, sessionID)
}

// GetAnalytics returns usage analytics for period (for example "7d").
func (r *Relay) GetAnalytics(ctx context.Context, period string) (string, error) {
	return r.callString(ctx, MethodGetAnalytics, period)
}

// IsListening reports whether the daemon is recording.
func (r *Relay) IsListening(ctx context.Context) (bool, error) {
	return r.callBool(ctx, MethodIsListening)
}

// ListenStart asks the daemon to begin recording.
func (r *Relay) ListenStart(ctx context.Context) error {
	return r.callUnit(ctx, MethodListenStart)
}

// ListenStop asks the daemon to stop recording.
func (r *Relay) ListenStop(ctx context.Context) error {
	return r.callUnit(ctx, MethodListenStop)
}

// Analyze analyzes the last seconds of audio. A nil template is sent as "".
func (r *Relay) Analyze(ctx context.Context, seconds uint32, template *string) (string, error) {
	tmpl := ""
	if template != nil {
		tmpl = *template
	}
	return r.callString(ctx, MethodAnalyze, seconds, tmpl)
}

// GetStreamingTranscript returns the in-progress transcript JSON.
func (r *Relay) GetStreamingTranscript(ctx context.Context) (string, error) {
	return r.callString(ctx, MethodGetStreamingTranscript)
}

// Status returns the daemon's status summary.
func (r *Relay) Status(ctx context.Context) (string, error) {
	return r.callString(ctx, MethodStatus)
}

// GetIndexedPaths returns the indexed path list JSON.
func (r *Relay) GetIndexedPaths(ctx context.Context) (string, error) {
	return r.callString(ctx, MethodGetIndexedPaths)
}

// GetAPIVersion returns the daemon contract version.
func (r *Relay) GetAPIVersion(ctx context.Context) (string, error) {
	return r.callString(ctx, MethodGetAPIVersion)
}

// GetCapabilities returns the daemon capability JSON.
func (r *Relay) GetCapabilities(ctx context.Context) (string, error) {
	return r.callString(ctx, MethodGetCapabilities)
}

// SwapModel switches the model used for modelType.
func (r *Relay) SwapModel(ctx context.Context, modelType, modelName string) (string, error) {
	return r.callString(ctx, MethodSwapModel, modelType, modelName)
}

// ExportSession exports a session through the external CLI and returns the
// written file path.
func (r *Relay) ExportSession(ctx context.Context, sessionID uint32, format string) (string, error) {
	if r.exporter == nil {
		return "", services.Wrap(services.ErrExternalTool, "export", "export is not configured", nil)
	}
	return r.exporter.Export(ctx, sessionID, format)
}
