package main

import (
	"fmt"
	"log/slog"
	"strings"
	"sync"

	"github.com/spf13/cobra"

	"voiceforge-desktop/internal/bus"
	"voiceforge-desktop/internal/commands"
	"voiceforge-desktop/internal/config"
	"voiceforge-desktop/internal/export"
	"voiceforge-desktop/internal/logging"
	"voiceforge-desktop/internal/signals"
)

// cliDeps replaces the bus transport in tests. Zero values select the real
// session bus.
type cliDeps struct {
	caller commands.Caller
	source signals.Source
}

type commandContext struct {
	configFlag *string
	jsonFlag   *bool
	deps       cliDeps

	configOnce sync.Once
	config     *config.Config
	configErr  error

	loggerOnce sync.Once
	logger     *slog.Logger

	sessionOnce sync.Once
	session     *bus.Session
	sessionErr  error
}

func newCommandContext(configFlag *string, jsonFlag *bool, deps cliDeps) *commandContext {
	return &commandContext{
		configFlag: configFlag,
		jsonFlag:   jsonFlag,
		deps:       deps,
	}
}

func (c *commandContext) ensureConfig() (*config.Config, error) {
	c.configOnce.Do(func() {
		var path string
		if c.configFlag != nil {
			path = strings.TrimSpace(*c.configFlag)
		}
		cfg, _, _, err := config.Load(path)
		if err != nil {
			c.configErr = err
			return
		}
		if err := cfg.EnsureDirectories(); err != nil {
			c.configErr = err
			return
		}
		c.config = cfg
	})
	return c.config, c.configErr
}

func (c *commandContext) configValue() *config.Config {
	cfg, _ := c.ensureConfig()
	return cfg
}

func (c *commandContext) jsonOutput() bool {
	return c.jsonFlag != nil && *c.jsonFlag
}

// loggerValue writes to the log file only, so command output stays clean.
func (c *commandContext) loggerValue() *slog.Logger {
	c.loggerOnce.Do(func() {
		cfg := c.configValue()
		if cfg == nil {
			c.logger = logging.NewNop()
			return
		}
		logger, err := logging.NewFileOnlyFromConfig(cfg)
		if err != nil {
			c.logger = logging.NewNop()
			return
		}
		c.logger = logger
	})
	return c.logger
}

func (c *commandContext) endpoint() (bus.Endpoint, error) {
	cfg, err := c.ensureConfig()
	if err != nil {
		return bus.Endpoint{}, err
	}
	endpoint, err := bus.NewEndpoint(cfg.Daemon.ServiceName, cfg.Daemon.ObjectPath, cfg.Daemon.InterfaceName)
	if err != nil {
		return bus.Endpoint{}, fmt.Errorf("daemon endpoint: %w", err)
	}
	return endpoint, nil
}

func (c *commandContext) busSession() (*bus.Session, error) {
	c.sessionOnce.Do(func() {
		endpoint, err := c.endpoint()
		if err != nil {
			c.sessionErr = err
			return
		}
		c.session = bus.NewSession(endpoint, bus.WithLogger(c.loggerValue()))
	})
	return c.session, c.sessionErr
}

func (c *commandContext) caller() (commands.Caller, error) {
	if c.deps.caller != nil {
		return c.deps.caller, nil
	}
	return c.busSession()
}

func (c *commandContext) signalSource() (signals.Source, error) {
	if c.deps.source != nil {
		return c.deps.source, nil
	}
	session, err := c.busSession()
	if err != nil {
		return nil, err
	}
	return signals.SessionSource{Session: session}, nil
}

func (c *commandContext) relay() (*commands.Relay, error) {
	cfg, err := c.ensureConfig()
	if err != nil {
		return nil, err
	}
	caller, err := c.caller()
	if err != nil {
		return nil, err
	}
	logger := c.loggerValue()
	exporter, err := export.New(cfg.Export.Binary, cfg.ExportTimeout(), export.WithLogger(logger))
	if err != nil {
		return nil, err
	}
	return commands.New(caller,
		commands.WithTimeout(cfg.CallTimeout()),
		commands.WithLogger(logger),
		commands.WithExporter(exporter),
	)
}

func (c *commandContext) withRelay(fn func(*commands.Relay) error) error {
	relay, err := c.relay()
	if err != nil {
		return err
	}
	return fn(relay)
}

func (c *commandContext) close() {
	if c.session != nil {
		_ = c.session.Close()
	}
}

func shouldSkipConfig(cmd *cobra.Command) bool {
	for c := cmd; c != nil; c = c.Parent() {
		if c.Annotations != nil && c.Annotations["skipConfigLoad"] == "true" {
			return true
		}
	}
	return false
}

func yesNo(value bool) string {
	if value {
		return "yes"
	}
	return "no"
}
