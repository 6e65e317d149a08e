package config

import (
	"fmt"
	"os"
	"strings"
)

func (c *Config) normalize() error {
	c.normalizeDaemon()
	c.normalizeExport()
	c.normalizeSignals()
	if err := c.normalizeEvents(); err != nil {
		return err
	}
	c.normalizeMonitor()
	if err := c.normalizePaths(); err != nil {
		return err
	}
	c.normalizeLogging()
	c.normalizeNotifications()
	return nil
}

func (c *Config) normalizeDaemon() {
	if value, ok := os.LookupEnv("VOICEFORGE_DBUS_NAME"); ok && strings.TrimSpace(value) != "" {
		c.Daemon.ServiceName = value
	}
	if value, ok := os.LookupEnv("VOICEFORGE_DBUS_PATH"); ok && strings.TrimSpace(value) != "" {
		c.Daemon.ObjectPath = value
	}
	if value, ok := os.LookupEnv("VOICEFORGE_DBUS_INTERFACE"); ok && strings.TrimSpace(value) != "" {
		c.Daemon.InterfaceName = value
	}
	c.Daemon.ServiceName = strings.TrimSpace(c.Daemon.ServiceName)
	if c.Daemon.ServiceName == "" {
		c.Daemon.ServiceName = defaultServiceName
	}
	c.Daemon.ObjectPath = strings.TrimSpace(c.Daemon.ObjectPath)
	if c.Daemon.ObjectPath == "" {
		c.Daemon.ObjectPath = defaultObjectPath
	}
	c.Daemon.InterfaceName = strings.TrimSpace(c.Daemon.InterfaceName)
	if c.Daemon.InterfaceName == "" {
		// The daemon exports its interface under the same name as the service.
		c.Daemon.InterfaceName = c.Daemon.ServiceName
	}
	if c.Daemon.WaitSeconds <= 0 {
		c.Daemon.WaitSeconds = defaultDaemonWaitSeconds
	}
}

func (c *Config) normalizeExport() {
	if value, ok := os.LookupEnv("VOICEFORGE_BIN"); ok && strings.TrimSpace(value) != "" {
		c.Export.Binary = value
	}
	c.Export.Binary = strings.TrimSpace(c.Export.Binary)
	if c.Export.Binary == "" {
		c.Export.Binary = defaultExportBinary
	}
}

func (c *Config) normalizeSignals() {
	if c.Signals.Enabled == nil {
		c.Signals.Enabled = append([]string(nil), DefaultSignals...)
	}
	members := make([]string, 0, len(c.Signals.Enabled))
	seen := make(map[string]struct{}, len(c.Signals.Enabled))
	for _, member := range c.Signals.Enabled {
		member = strings.TrimSpace(member)
		if member == "" {
			continue
		}
		if _, exists := seen[member]; exists {
			continue
		}
		seen[member] = struct{}{}
		members = append(members, member)
	}
	c.Signals.Enabled = members
	if c.Signals.RestartDelaySeconds <= 0 {
		c.Signals.RestartDelaySeconds = defaultSignalRestartDelay
	}
}

func (c *Config) normalizeEvents() error {
	if c.Events.BufferSize <= 0 {
		c.Events.BufferSize = defaultEventBufferSize
	}
	var err error
	if c.Events.JournalPath, err = expandPath(strings.TrimSpace(c.Events.JournalPath)); err != nil {
		return fmt.Errorf("events.journal_path: %w", err)
	}
	return nil
}

func (c *Config) normalizeMonitor() {
	if c.Monitor.AnalyzeSeconds <= 0 {
		c.Monitor.AnalyzeSeconds = defaultAnalyzeSeconds
	}
	if c.Monitor.StreamingPollMillis <= 0 {
		c.Monitor.StreamingPollMillis = defaultStreamingPollMillis
	}
	if c.Monitor.SessionsLimit <= 0 {
		c.Monitor.SessionsLimit = defaultSessionsLimit
	}
	c.Monitor.AnalyticsPeriod = strings.TrimSpace(c.Monitor.AnalyticsPeriod)
	if c.Monitor.AnalyticsPeriod == "" {
		c.Monitor.AnalyticsPeriod = defaultAnalyticsPeriod
	}
}

func (c *Config) normalizePaths() error {
	var err error
	if c.Paths.LogDir, err = expandPath(strings.TrimSpace(c.Paths.LogDir)); err != nil {
		return fmt.Errorf("paths.log_dir: %w", err)
	}
	if strings.TrimSpace(c.Paths.StateDir) == "" {
		c.Paths.StateDir = defaultStateDir
	}
	if c.Paths.StateDir, err = expandPath(c.Paths.StateDir); err != nil {
		return fmt.Errorf("paths.state_dir: %w", err)
	}
	return nil
}

func (c *Config) normalizeLogging() {
	c.Logging.Format = strings.ToLower(strings.TrimSpace(c.Logging.Format))
	switch c.Logging.Format {
	case "", "console":
		c.Logging.Format = "console"
	case "json":
	default:
		c.Logging.Format = "console"
	}
	c.Logging.Level = strings.ToLower(strings.TrimSpace(c.Logging.Level))
	if c.Logging.Level == "" {
		c.Logging.Level = defaultLogLevel
	}
}

func (c *Config) normalizeNotifications() {
	if value, ok := os.LookupEnv("VOICEFORGE_NTFY_TOPIC"); ok {
		c.Notifications.NtfyTopic = value
	}
	c.Notifications.NtfyTopic = strings.TrimSpace(c.Notifications.NtfyTopic)
	if c.Notifications.RequestTimeoutSeconds <= 0 {
		c.Notifications.RequestTimeoutSeconds = defaultNotifyTimeout
	}
	events := c.Notifications.Events[:0]
	for _, name := range c.Notifications.Events {
		if name = strings.TrimSpace(name); name != "" {
			events = append(events, name)
		}
	}
	c.Notifications.Events = events
}
