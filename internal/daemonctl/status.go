package daemonctl

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"voiceforge-desktop/internal/config"
	"voiceforge-desktop/internal/deps"
	"voiceforge-desktop/internal/signals"
)

// DaemonInfo is the subset of the command relay used for status output.
type DaemonInfo interface {
	Pinger
	GetAPIVersion(ctx context.Context) (string, error)
	IsListening(ctx context.Context) (bool, error)
}

// StatusLine is one labelled row of status output.
type StatusLine struct {
	Label    string `json:"label"`
	Severity string `json:"severity"`
	Detail   string `json:"detail"`
}

// DependencySummary aggregates dependency readiness.
type DependencySummary struct {
	Total           int    `json:"total"`
	Available       int    `json:"available"`
	MissingRequired int    `json:"missing_required"`
	MissingOptional int    `json:"missing_optional"`
	Severity        string `json:"severity"`
	Detail          string `json:"detail"`
}

// Snapshot is the combined bridge and daemon status.
type Snapshot struct {
	Endpoint          string               `json:"endpoint"`
	Reachable         bool                 `json:"reachable"`
	Error             string               `json:"error,omitempty"`
	APIVersion        string               `json:"api_version,omitempty"`
	Listening         *bool                `json:"listening,omitempty"`
	Dependencies      []deps.Status        `json:"dependencies"`
	DependencySummary DependencySummary    `json:"dependency_summary"`
	Signals           []signals.LoopStatus `json:"signals,omitempty"`
	Checks            []StatusLine         `json:"checks"`
}

// Requirements lists the external binaries checked for status output.
func Requirements(cfg *config.Config) []deps.Requirement {
	return []deps.Requirement{
		{
			Name:        "VoiceForge CLI",
			Command:     cfg.Export.Binary,
			Description: "Session export and daemon launch",
			Optional:    true,
			VersionArgs: []string{"--version"},
		},
	}
}

// BuildStatusSnapshot probes the daemon and collects local readiness. Daemon
// failures are reported in the snapshot rather than returned.
func BuildStatusSnapshot(ctx context.Context, daemon DaemonInfo, endpoint string, cfg *config.Config, loops []signals.LoopStatus) (*Snapshot, error) {
	if cfg == nil {
		return nil, errors.New("configuration not available")
	}
	snap := &Snapshot{Endpoint: endpoint, Signals: loops}

	if daemon != nil {
		reachable, err := Probe(ctx, daemon)
		snap.Reachable = reachable
		if err != nil {
			snap.Error = err.Error()
		}
		if reachable {
			if version, err := daemon.GetAPIVersion(ctx); err == nil {
				snap.APIVersion = strings.TrimSpace(version)
			}
			if listening, err := daemon.IsListening(ctx); err == nil {
				snap.Listening = &listening
			}
		}
	}

	snap.Dependencies = deps.CheckBinaries(ctx, Requirements(cfg))
	snap.DependencySummary = BuildDependencySummary(snap.Dependencies)
	snap.Checks = BuildChecks(cfg, snap)
	return snap, nil
}

// BuildChecks renders the snapshot as labelled status lines.
func BuildChecks(cfg *config.Config, snap *Snapshot) []StatusLine {
	lines := make([]StatusLine, 0, 6)
	if snap.Reachable {
		lines = append(lines, StatusLine{Label: "Daemon", Severity: "ok", Detail: "Reachable"})
	} else {
		detail := "Not reachable (start it with `voiceforge daemon`)"
		if snap.Error != "" {
			detail = fmt.Sprintf("Not reachable: %s", snap.Error)
		}
		lines = append(lines, StatusLine{Label: "Daemon", Severity: "warn", Detail: detail})
	}

	if snap.APIVersion != "" {
		lines = append(lines, StatusLine{Label: "API Version", Severity: "info", Detail: snap.APIVersion})
	}

	if snap.Listening != nil {
		if *snap.Listening {
			lines = append(lines, StatusLine{Label: "Recording", Severity: "ok", Detail: "Listening"})
		} else {
			lines = append(lines, StatusLine{Label: "Recording", Severity: "info", Detail: "Idle"})
		}
	}

	if len(snap.Signals) > 0 {
		subscribed := 0
		for _, loop := range snap.Signals {
			if loop.State == signals.StateSubscribed {
				subscribed++
			}
		}
		severity := "ok"
		if subscribed < len(snap.Signals) {
			severity = "warn"
		}
		lines = append(lines, StatusLine{
			Label:    "Signals",
			Severity: severity,
			Detail:   fmt.Sprintf("%d/%d subscribed", subscribed, len(snap.Signals)),
		})
	}

	if cfg.Bridge.CallTimeoutSeconds > 0 {
		lines = append(lines, StatusLine{Label: "Call Timeout", Severity: "info", Detail: cfg.CallTimeout().String()})
	} else {
		lines = append(lines, StatusLine{Label: "Call Timeout", Severity: "info", Detail: "Disabled"})
	}

	if strings.TrimSpace(cfg.Events.JournalPath) != "" {
		lines = append(lines, StatusLine{Label: "Event Journal", Severity: "ok", Detail: cfg.Events.JournalPath})
	} else {
		lines = append(lines, StatusLine{Label: "Event Journal", Severity: "info", Detail: "Disabled"})
	}
	return lines
}

// BuildDependencySummary computes aggregate dependency readiness.
func BuildDependencySummary(statuses []deps.Status) DependencySummary {
	if len(statuses) == 0 {
		return DependencySummary{
			Severity: "info",
			Detail:   "No dependency checks configured",
		}
	}

	missingRequired := 0
	missingOptional := 0
	for _, dep := range statuses {
		if dep.Available {
			continue
		}
		if dep.Optional {
			missingOptional++
		} else {
			missingRequired++
		}
	}

	missingCount := missingRequired + missingOptional
	available := len(statuses) - missingCount
	severity := "ok"
	if missingRequired > 0 {
		severity = "error"
	} else if missingOptional > 0 {
		severity = "warn"
	}
	detail := fmt.Sprintf("%d/%d available (missing: %d required, %d optional)", available, len(statuses), missingRequired, missingOptional)
	if missingCount == 0 {
		detail = fmt.Sprintf("%d/%d available", available, len(statuses))
	}

	return DependencySummary{
		Total:           len(statuses),
		Available:       available,
		MissingRequired: missingRequired,
		MissingOptional: missingOptional,
		Severity:        severity,
		Detail:          detail,
	}
}
