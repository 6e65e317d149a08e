// Package tui implements the terminal monitor: a bubbletea program that
// drives the command relay and renders local events as they arrive.
//
// Every bus call runs inside a tea.Cmd so the render loop never blocks.
// Events are pulled from the in-process hub with long-poll fetches, and the
// streaming transcript is polled while the daemon is listening.
package tui
