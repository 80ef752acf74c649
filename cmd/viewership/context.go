package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"strings"
	"sync"

	"github.com/spf13/cobra"

	"viewership/internal/config"
	"viewership/internal/infrastructure"
	"viewership/internal/services"
)

type commandContext struct {
	configFlag  *string
	baseDirFlag *string
	exportsFlag *string
	jsonFlag    *bool

	once    sync.Once
	config  *config.Config
	paths   *config.Paths
	logger  *slog.Logger
	logFile *os.File
	err     error
}

func newCommandContext(configFlag, baseDirFlag, exportsFlag *string, jsonFlag *bool) *commandContext {
	return &commandContext{
		configFlag:  configFlag,
		baseDirFlag: baseDirFlag,
		exportsFlag: exportsFlag,
		jsonFlag:    jsonFlag,
	}
}

// ensure loads configuration once and applies the path flags on top of it
func (c *commandContext) ensure(cmd *cobra.Command) error {
	c.once.Do(func() {
		cfg, err := config.LoadFrom(strings.TrimSpace(*c.configFlag))
		if err != nil {
			c.err = err
			return
		}
		if dir := strings.TrimSpace(*c.baseDirFlag); dir != "" {
			cfg.Paths.BaseDir = dir
		}
		if dir := strings.TrimSpace(*c.exportsFlag); dir != "" {
			cfg.Paths.ExportsDir = dir
		}

		paths, err := cfg.GetPaths()
		if err != nil {
			c.err = err
			return
		}
		if err := paths.EnsureDirectories(); err != nil {
			c.err = err
			return
		}

		logger, file, err := infrastructure.NewLogger(cfg.Logging, paths.LogsDir, cmd.ErrOrStderr())
		if err != nil {
			c.err = err
			return
		}

		c.config = cfg
		c.paths = paths
		c.logger = logger.With(slog.String("command", cmd.Name()))
		c.logFile = file
	})
	return c.err
}

func (c *commandContext) close() {
	if c.logFile != nil {
		c.logFile.Close()
		c.logFile = nil
	}
}

// runContext tags ctx with a fresh trace ID so every record of one command
// run can be correlated
func (c *commandContext) runContext(cmd *cobra.Command) context.Context {
	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}
	return infrastructure.ContextWithTraceID(ctx)
}

// corpusService builds a service without a broadcaster; the CLI has no
// websocket clients to notify
func (c *commandContext) corpusService() (*services.CorpusService, error) {
	svc, err := services.NewCorpusService(c.config, c.paths, nil, nil, c.logger)
	if err != nil {
		return nil, fmt.Errorf("create corpus service: %w", err)
	}
	return svc, nil
}

func (c *commandContext) wantJSON(cmd *cobra.Command) bool {
	if c.jsonFlag != nil && *c.jsonFlag {
		return true
	}
	// piping to a file or another process gets JSON; buffers and terminals get tables
	out := cmd.OutOrStdout()
	_, isFile := out.(*os.File)
	return isFile && !isTerminal(out)
}
