// Package services defines shared utilities consumed by the bridge relays and
// the external export integration.
//
// Key responsibilities:
//   - Context helpers that stamp correlation identifiers and remote method
//     names for logging and tracing.
//   - Structured error markers plus the uniform Error value every relay
//     operation returns, so callers can classify failures (connection,
//     transport, decode, validation, external tool, timeout) with errors.Is
//     while still surfacing a single human-readable message.
//
// Use these helpers when wiring new operations so failure reporting stays
// uniform across the command relay, the signal relay, and the CLI.
package services
