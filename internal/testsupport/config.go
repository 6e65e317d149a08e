package testsupport

import (
	"os"
	"path/filepath"
	"testing"

	"voiceforge-desktop/internal/config"
)

// ConfigOption allows callers to customize the generated test configuration.
type ConfigOption func(*configBuilder)

type configBuilder struct {
	t       testing.TB
	baseDir string
	cfg     *config.Config
}

// NewConfig produces a config seeded with unique temp directories per test.
// It defaults common fields and applies any provided options.
func NewConfig(t testing.TB, opts ...ConfigOption) *config.Config {
	t.Helper()

	base := t.TempDir()
	cfgVal := config.Default()
	cfgVal.Paths.LogDir = filepath.Join(base, "logs")
	cfgVal.Paths.StateDir = filepath.Join(base, "state")
	cfgVal.Events.JournalPath = ""

	builder := &configBuilder{
		t:       t,
		baseDir: base,
		cfg:     &cfgVal,
	}

	for _, opt := range opts {
		opt(builder)
	}

	return builder.cfg
}

// WithEndpoint overrides the daemon endpoint identity.
func WithEndpoint(service, path, iface string) ConfigOption {
	return func(b *configBuilder) {
		b.cfg.Daemon.ServiceName = service
		b.cfg.Daemon.ObjectPath = path
		b.cfg.Daemon.InterfaceName = iface
	}
}

// WithJournal enables the event journal inside the test directory.
func WithJournal() ConfigOption {
	return func(b *configBuilder) {
		b.cfg.Events.JournalPath = filepath.Join(b.baseDir, "state", "events.jsonl")
	}
}

// WithExportScript writes a shell script standing in for the export CLI and
// points the config at it.
func WithExportScript(body string) ConfigOption {
	return func(b *configBuilder) {
		b.cfg.Export.Binary = WriteScript(b.t, filepath.Join(b.baseDir, "bin"), "voiceforge", body)
	}
}

// WithStubbedBinaries writes stub executables for the provided names and
// prepends them to PATH. If names is empty, the export CLI is stubbed.
func WithStubbedBinaries(names ...string) ConfigOption {
	return func(b *configBuilder) {
		if len(names) == 0 {
			names = []string{"voiceforge"}
		}
		binDir := filepath.Join(b.baseDir, "bin")
		for _, name := range names {
			WriteScript(b.t, binDir, name, "exit 0\n")
		}
		path := os.Getenv("PATH")
		b.t.Setenv("PATH", binDir+string(os.PathListSeparator)+path)
	}
}
