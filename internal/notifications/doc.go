// Package notifications pushes selected local events to ntfy.
//
// The interface host attaches a Sink to the event hub; the sink hands events
// to a background sender so hub publishers never wait on HTTP. Only the event
// names listed in [notifications].events are pushed, and a missing topic turns
// the whole package into a no-op.
package notifications
