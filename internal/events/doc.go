// Package events carries local events from the signal relay to whatever
// interface is observing them.
//
// Emission is best-effort notify: Emit never fails and never blocks on a
// consumer. The Hub keeps a bounded ring of recent events with sequence
// numbers so consumers (CLI watch, terminal monitor) can long-poll with Fetch
// and never miss events that arrive between polls, and it forwards every event
// to registered sinks such as the JSON-lines Journal. When nobody is
// listening, events simply age out of the ring.
package events
