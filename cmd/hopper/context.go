package main

import (
	"log/slog"
	"strings"
	"sync"

	"hopper/internal/config"
	"hopper/internal/logging"
)

// commandContext defers config and logger construction until a command needs
// them, so flag parsing and help output never touch the filesystem.
type commandContext struct {
	configFlag *string

	once   sync.Once
	cfg    *config.Store
	logger *slog.Logger
}

func newCommandContext(configFlag *string) *commandContext {
	return &commandContext{configFlag: configFlag}
}

func (c *commandContext) ensure() {
	c.once.Do(func() {
		bootstrap, _ := logging.New(logging.Options{Level: "warn"})

		var path string
		if c.configFlag != nil {
			path = strings.TrimSpace(*c.configFlag)
		}
		c.cfg = config.Load(path, bootstrap)

		logger, err := logging.New(logging.Options{
			Level:  c.cfg.LogLevel(),
			Format: c.cfg.LogFormat(),
		})
		if err != nil {
			bootstrap.Warn("invalid log format, using console", logging.Error(err))
			logger, _ = logging.New(logging.Options{Level: c.cfg.LogLevel()})
		}
		c.logger = logger
	})
}

func (c *commandContext) configValue() *config.Store {
	c.ensure()
	return c.cfg
}

func (c *commandContext) loggerValue() *slog.Logger {
	c.ensure()
	return c.logger
}
