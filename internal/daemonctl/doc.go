// Package daemonctl holds daemon lifecycle helpers for the CLI: liveness
// probes, waiting for the daemon to appear on the session bus, launching it
// through the VoiceForge CLI, and assembling status snapshots.
package daemonctl
