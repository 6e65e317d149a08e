package tui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"
)

// View renders the monitor.
func (m Model) View() string {
	if !m.ready {
		return "Loading..."
	}
	var b strings.Builder
	b.WriteString(m.renderHeader())
	b.WriteString("\n")
	b.WriteString(m.renderState())
	b.WriteString("\n\n")
	b.WriteString(m.theme.Section.Render("Transcript"))
	b.WriteString("\n")
	b.WriteString(m.transcript.View())
	b.WriteString("\n")
	if m.analysis != "" {
		b.WriteString(m.theme.Box.Width(max(m.width-4, 10)).Render(truncate(m.analysis, 3*max(m.width-6, 10))))
		b.WriteString("\n")
	}
	b.WriteString(m.theme.Section.Render("Events"))
	b.WriteString("\n")
	if len(m.eventLines) == 0 {
		b.WriteString(m.theme.Muted.Render("waiting for daemon signals"))
		b.WriteString("\n")
	}
	for _, line := range m.eventLines {
		b.WriteString(truncate(line, m.width))
		b.WriteString("\n")
	}
	if m.lastErr != "" {
		b.WriteString(m.theme.Error.Render("error: " + truncate(m.lastErr, max(m.width-7, 10))))
		b.WriteString("\n")
	}
	b.WriteString(m.renderHelp())
	return b.String()
}

func (m Model) renderHeader() string {
	status := m.theme.Offline.Render("● offline")
	if m.daemonUp {
		status = m.theme.Online.Render("● online")
	}
	title := m.theme.Title.Render("VoiceForge monitor")
	parts := []string{title, status}
	if m.opts.Endpoint != "" {
		parts = append(parts, m.theme.Muted.Render(m.opts.Endpoint))
	}
	return strings.Join(parts, "  ")
}

func (m Model) renderState() string {
	listening := m.theme.Muted.Render("idle")
	if m.listening {
		listening = m.theme.Listening.Render("listening")
	}
	line := fmt.Sprintf("%s  sessions: %d", listening, m.sessions)
	if m.lastStatus != "" {
		line += fmt.Sprintf("  last analysis: %s", m.lastStatus)
	}
	if m.busy != "" {
		line += fmt.Sprintf("  %s %s…", m.spinner.View(), m.busy)
	}
	return line
}

func (m Model) renderHelp() string {
	bindings := m.keys.help()
	parts := make([]string, 0, len(bindings))
	for _, binding := range bindings {
		help := binding.Help()
		parts = append(parts, help.Key+" "+help.Desc)
	}
	return m.theme.Muted.Render(strings.Join(parts, " • "))
}

func truncate(s string, width int) string {
	if width <= 0 || lipgloss.Width(s) <= width {
		return s
	}
	runes := []rune(s)
	if len(runes) <= width {
		return s
	}
	return string(runes[:max(width-1, 0)]) + "…"
}
