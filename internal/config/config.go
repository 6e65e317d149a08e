package config

import (
	_ "embed"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/pelletier/go-toml/v2"
)

//go:embed sample_config.toml
var sampleConfig string

// Daemon identifies the single daemon endpoint on the session bus.
type Daemon struct {
	ServiceName   string `toml:"service_name"`
	ObjectPath    string `toml:"object_path"`
	InterfaceName string `toml:"interface_name"`
	WaitSeconds   int    `toml:"wait_seconds"`
}

// Bridge contains command relay tuning.
type Bridge struct {
	// CallTimeoutSeconds bounds a single remote call. Zero waits indefinitely.
	CallTimeoutSeconds int `toml:"call_timeout_seconds"`
}

// Export configures the external export tool.
type Export struct {
	Binary         string `toml:"binary"`
	TimeoutSeconds int    `toml:"timeout_seconds"`
}

// Signals configures the signal relay subscription set.
type Signals struct {
	Enabled             []string `toml:"enabled"`
	Restart             bool     `toml:"restart"`
	RestartDelaySeconds int      `toml:"restart_delay_seconds"`
}

// Events configures local event buffering and the optional journal.
type Events struct {
	BufferSize  int    `toml:"buffer_size"`
	JournalPath string `toml:"journal_path"`
}

// Notifications configures ntfy pushes for selected local events.
type Notifications struct {
	// NtfyTopic is the full topic URL. Empty disables notifications.
	NtfyTopic             string   `toml:"ntfy_topic"`
	RequestTimeoutSeconds int      `toml:"request_timeout_seconds"`
	Events                []string `toml:"events"`
}

// Monitor contains defaults used by the terminal monitor and CLI.
type Monitor struct {
	AnalyzeSeconds      int    `toml:"analyze_seconds"`
	AnalyzeTemplate     string `toml:"analyze_template"`
	StreamingPollMillis int    `toml:"streaming_poll_millis"`
	SessionsLimit       int    `toml:"sessions_limit"`
	AnalyticsPeriod     string `toml:"analytics_period"`
}

// Paths contains directories used by the interface host.
type Paths struct {
	LogDir   string `toml:"log_dir"`
	StateDir string `toml:"state_dir"`
}

// Logging contains configuration for log output.
type Logging struct {
	Format string `toml:"format"`
	Level  string `toml:"level"`
}

// Config encapsulates all configuration values for voiceforge-desktop.
//
// Configuration sections by subsystem:
//   - Daemon: endpoint identity (service, object path, interface)
//   - Bridge: per-call timeout for the command relay
//   - Export: external export tool binary and timeout
//   - Signals: subscribed signal members and optional loop supervision
//   - Events: in-memory event buffer and JSON-lines journal
//   - Notifications: optional ntfy pushes for analysis and recording events
//   - Monitor: defaults for the terminal monitor and CLI shortcuts
//   - Paths: log and state directories
//   - Logging: log format and level
type Config struct {
	Daemon  Daemon  `toml:"daemon"`
	Bridge  Bridge  `toml:"bridge"`
	Export  Export  `toml:"export"`
	Signals Signals `toml:"signals"`
	Events  Events  `toml:"events"`
	Monitor Monitor `toml:"monitor"`
	Paths   Paths   `toml:"paths"`
	Logging Logging `toml:"logging"`

	Notifications Notifications `toml:"notifications"`
}

// DefaultConfigPath returns the absolute path to the default configuration file location.
func DefaultConfigPath() (string, error) {
	return expandPath("~/.config/voiceforge-desktop/config.toml")
}

// Load locates, parses, and validates a configuration file. The returned config has all
// path fields expanded and normalized.
func Load(path string) (*Config, string, bool, error) {
	cfg := Default()

	resolvedPath, exists, err := resolveConfigPath(path)
	if err != nil {
		return nil, "", false, err
	}

	if exists {
		file, err := os.Open(resolvedPath)
		if err != nil {
			return nil, "", false, fmt.Errorf("open config: %w", err)
		}
		defer file.Close()

		decoder := toml.NewDecoder(file)
		if err := decoder.Decode(&cfg); err != nil {
			return nil, "", false, fmt.Errorf("parse config: %w", err)
		}
	}

	if err := cfg.normalize(); err != nil {
		return nil, "", false, err
	}

	if err := cfg.Validate(); err != nil {
		return nil, "", false, err
	}

	return &cfg, resolvedPath, exists, nil
}

func resolveConfigPath(path string) (string, bool, error) {
	if path != "" {
		expanded, err := expandPath(path)
		if err != nil {
			return "", false, err
		}
		_, err = os.Stat(expanded)
		if err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				return expanded, false, nil
			}
			return "", false, fmt.Errorf("stat config: %w", err)
		}
		return expanded, true, nil
	}

	defaultPath, err := DefaultConfigPath()
	if err != nil {
		return "", false, err
	}

	projectPath, err := filepath.Abs("voiceforge-desktop.toml")
	if err != nil {
		return "", false, err
	}

	if info, err := os.Stat(defaultPath); err == nil && !info.IsDir() {
		return defaultPath, true, nil
	}
	if info, err := os.Stat(projectPath); err == nil && !info.IsDir() {
		return projectPath, true, nil
	}

	return defaultPath, false, nil
}

// EnsureDirectories creates the log and state directories.
func (c *Config) EnsureDirectories() error {
	for _, dir := range []string{c.Paths.LogDir, c.Paths.StateDir} {
		if strings.TrimSpace(dir) == "" {
			continue
		}
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create directory %q: %w", dir, err)
		}
	}
	return nil
}

// CallTimeout returns the per-call timeout; zero disables it.
func (c *Config) CallTimeout() time.Duration {
	return time.Duration(c.Bridge.CallTimeoutSeconds) * time.Second
}

// ExportTimeout returns the export process timeout; zero disables it.
func (c *Config) ExportTimeout() time.Duration {
	return time.Duration(c.Export.TimeoutSeconds) * time.Second
}

// SignalRestartDelay returns the delay before a terminated signal loop is restarted.
func (c *Config) SignalRestartDelay() time.Duration {
	return time.Duration(c.Signals.RestartDelaySeconds) * time.Second
}

// NotifyTimeout returns the ntfy request timeout.
func (c *Config) NotifyTimeout() time.Duration {
	return time.Duration(c.Notifications.RequestTimeoutSeconds) * time.Second
}

// DaemonWait returns how long `wait` style commands poll for the daemon.
func (c *Config) DaemonWait() time.Duration {
	return time.Duration(c.Daemon.WaitSeconds) * time.Second
}

// LockPath returns the single-instance lock used by long-running hosts.
func (c *Config) LockPath() string {
	return filepath.Join(c.Paths.StateDir, "voiceforge-desktop.lock")
}

// LogPath returns the log file path, or empty when file logging is disabled.
func (c *Config) LogPath() string {
	if strings.TrimSpace(c.Paths.LogDir) == "" {
		return ""
	}
	return filepath.Join(c.Paths.LogDir, "voiceforge-desktop.log")
}

func expandPath(pathValue string) (string, error) {
	if pathValue == "" {
		return pathValue, nil
	}
	if strings.HasPrefix(pathValue, "~") {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("resolve home directory: %w", err)
		}
		if pathValue == "~" {
			pathValue = home
		} else if len(pathValue) > 1 && (pathValue[1] == '/' || pathValue[1] == '\\') {
			pathValue = filepath.Join(home, pathValue[2:])
		}
	}
	cleaned := filepath.Clean(pathValue)
	absolute, err := filepath.Abs(cleaned)
	if err != nil {
		return "", fmt.Errorf("resolve absolute path for %q: %w", cleaned, err)
	}
	return absolute, nil
}

// ExpandPath exposes the repository path expansion rules for other packages.
func ExpandPath(pathValue string) (string, error) {
	return expandPath(pathValue)
}

// CreateSample writes a sample configuration file to the specified location.
func CreateSample(path string) error {
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create config directory: %w", err)
		}
	}

	if err := os.WriteFile(path, []byte(sampleConfig), 0o644); err != nil {
		return fmt.Errorf("write sample config: %w", err)
	}
	return nil
}

// Encode renders the configuration as TOML.
func (c *Config) Encode() ([]byte, error) {
	data, err := toml.Marshal(c)
	if err != nil {
		return nil, fmt.Errorf("encode config: %w", err)
	}
	return data, nil
}
