// Package logging builds the slog loggers used by voiceforge-desktop.
//
// Console output is one line per record with the component and the command
// correlation id shown ahead of the message; JSON output uses ts and
// lower-case levels. WithContext copies the correlation id and method name
// that the command relay stores on a context. Failure gives warnings and
// errors a consistent event_type, error_hint and impact.
package logging
