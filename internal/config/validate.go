package config

import (
	"errors"
	"fmt"
	"strings"
)

// Validate ensures the configuration is usable.
func (c *Config) Validate() error {
	if err := c.validateDaemon(); err != nil {
		return err
	}
	if err := c.validateTimeouts(); err != nil {
		return err
	}
	if err := c.validateSignals(); err != nil {
		return err
	}
	if err := c.validateMonitor(); err != nil {
		return err
	}
	return c.validateNotifications()
}

func (c *Config) validateDaemon() error {
	if !strings.Contains(c.Daemon.ServiceName, ".") {
		return fmt.Errorf("daemon.service_name %q must contain at least two dot-separated elements", c.Daemon.ServiceName)
	}
	if !strings.HasPrefix(c.Daemon.ObjectPath, "/") {
		return fmt.Errorf("daemon.object_path %q must start with /", c.Daemon.ObjectPath)
	}
	if !strings.Contains(c.Daemon.InterfaceName, ".") {
		return fmt.Errorf("daemon.interface_name %q must contain at least two dot-separated elements", c.Daemon.InterfaceName)
	}
	return nil
}

func (c *Config) validateTimeouts() error {
	if c.Bridge.CallTimeoutSeconds < 0 {
		return errors.New("bridge.call_timeout_seconds must be zero or positive")
	}
	if c.Export.TimeoutSeconds < 0 {
		return errors.New("export.timeout_seconds must be zero or positive")
	}
	return nil
}

func (c *Config) validateSignals() error {
	for _, member := range c.Signals.Enabled {
		if strings.ContainsAny(member, ". /") {
			return fmt.Errorf("signals.enabled: %q must be a bare member name", member)
		}
	}
	return nil
}

func (c *Config) validateMonitor() error {
	if c.Monitor.AnalyzeSeconds > MaxAnalyzeSeconds {
		return fmt.Errorf("monitor.analyze_seconds must be between 1 and %d", MaxAnalyzeSeconds)
	}
	return nil
}

// MaxAnalyzeSeconds is the largest analysis window the daemon accepts.
const MaxAnalyzeSeconds = 3600

func (c *Config) validateNotifications() error {
	topic := c.Notifications.NtfyTopic
	if topic != "" && !strings.HasPrefix(topic, "http://") && !strings.HasPrefix(topic, "https://") {
		return fmt.Errorf("notifications.ntfy_topic %q must be an http(s) URL", topic)
	}
	return nil
}
