// Package stubdaemon serves the daemon's method and signal surface on the
// session bus with canned payloads.
//
// It exists for development and integration testing of the desktop bridge:
// listening toggles state and emits ListenStateChanged, analysis emits
// AnalysisDone followed by TranscriptUpdated, and a ticker emits
// TranscriptChunk while listening. Nothing is recorded or analyzed.
package stubdaemon
