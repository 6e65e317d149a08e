// Package bus owns the session message-bus plumbing shared by the command and
// signal relays.
//
// An Endpoint names the single daemon surface (service, object path,
// interface) every call and subscription targets. A Session lazily dials one
// private session-bus connection on first use and shares it across callers;
// the godbus connection is safe for concurrent request/reply and signal
// delivery, so no additional locking is layered on top beyond the lazy dial.
//
// Subscriptions install a sender/path/interface/member match rule and then
// re-filter delivered signals locally, because the transport fans every
// matched signal out to all registered channels.
package bus
