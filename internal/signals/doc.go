// Package signals implements the signal relay: one independent subscription
// loop per enabled daemon signal, each re-emitting decoded messages as local
// events.
//
// Each loop moves through connecting, subscribed and ended. A setup failure
// is logged and ends only that loop. A message whose body does not match the
// loop's shape is dropped and the loop keeps going. Within a loop, events are
// emitted in delivery order; nothing orders events across loops.
//
// The signal set is a registry rather than a fixed list, so additional daemon
// signals can be wired without touching the loop machinery. Loops can
// optionally be restarted after they end.
package signals
