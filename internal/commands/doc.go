// Package commands implements the command relay: one Go method per daemon
// method, each issuing exactly one request against the fixed endpoint and
// decoding exactly one reply.
//
// Replies are returned verbatim. JSON strings from the daemon are never
// parsed or unwrapped here; envelope interpretation belongs to the daemon and
// to whatever renders the result. Every failure surfaces as a
// *services.Error so the interface gets one human-readable message per
// operation.
//
// Session export is the one operation that is not a bus call. It delegates to
// an Exporter (see package export) that runs the external CLI.
package commands
