package config

const (
	defaultServiceName         = "com.voiceforge.App"
	defaultObjectPath          = "/com/voiceforge/App"
	defaultInterfaceName       = "com.voiceforge.App"
	defaultExportBinary        = "voiceforge"
	defaultLogDir              = "~/.local/share/voiceforge-desktop/logs"
	defaultStateDir            = "~/.local/state/voiceforge-desktop"
	defaultLogFormat           = "console"
	defaultLogLevel            = "info"
	defaultEventBufferSize     = 512
	defaultSignalRestartDelay  = 5
	defaultDaemonWaitSeconds   = 10
	defaultStreamingPollMillis = 1500
	defaultAnalyzeSeconds      = 30
	defaultSessionsLimit       = 20
	defaultAnalyticsPeriod     = "7d"
	defaultNotifyTimeout       = 10
)

// DefaultSignals lists the daemon signal members subscribed to by default.
var DefaultSignals = []string{
	"ListenStateChanged",
	"AnalysisDone",
	"TranscriptChunk",
	"TranscriptUpdated",
}

// DefaultNotifyEvents lists the local events pushed to ntfy by default.
var DefaultNotifyEvents = []string{"analysis-done"}

// Default returns a Config populated with repository defaults.
func Default() Config {
	return Config{
		Daemon: Daemon{
			ServiceName:   defaultServiceName,
			ObjectPath:    defaultObjectPath,
			InterfaceName: defaultInterfaceName,
			WaitSeconds:   defaultDaemonWaitSeconds,
		},
		Bridge: Bridge{
			CallTimeoutSeconds: 0,
		},
		Export: Export{
			Binary:         defaultExportBinary,
			TimeoutSeconds: 0,
		},
		Signals: Signals{
			Enabled:             append([]string(nil), DefaultSignals...),
			Restart:             false,
			RestartDelaySeconds: defaultSignalRestartDelay,
		},
		Events: Events{
			BufferSize: defaultEventBufferSize,
		},
		Monitor: Monitor{
			AnalyzeSeconds:      defaultAnalyzeSeconds,
			StreamingPollMillis: defaultStreamingPollMillis,
			SessionsLimit:       defaultSessionsLimit,
			AnalyticsPeriod:     defaultAnalyticsPeriod,
		},
		Paths: Paths{
			LogDir:   defaultLogDir,
			StateDir: defaultStateDir,
		},
		Logging: Logging{
			Format: defaultLogFormat,
			Level:  defaultLogLevel,
		},
		Notifications: Notifications{
			RequestTimeoutSeconds: defaultNotifyTimeout,
			Events:                append([]string(nil), DefaultNotifyEvents...),
		},
	}
}
