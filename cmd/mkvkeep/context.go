package main

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"path/filepath"
	"strings"
	"sync"

	"github.com/spf13/cobra"

	"mkvkeep/internal/catalog"
	"mkvkeep/internal/config"
	"mkvkeep/internal/logging"
	"mkvkeep/internal/mkvmerge"
	"mkvkeep/internal/state"
)

type commandContext struct {
	configFlag *string
	verbose    *bool

	configOnce sync.Once
	config     *config.Config
	configPath string
	configErr  error
}

func newCommandContext(configFlag *string, verbose *bool) *commandContext {
	return &commandContext{
		configFlag: configFlag,
		verbose:    verbose,
	}
}

func (c *commandContext) ensureConfig() (*config.Config, error) {
	c.configOnce.Do(func() {
		var path string
		if c.configFlag != nil {
			path = strings.TrimSpace(*c.configFlag)
		}
		cfg, resolved, _, err := config.Load(path)
		if err != nil {
			c.configErr = err
			return
		}
		if err := cfg.EnsureDirectories(); err != nil {
			c.configErr = err
			return
		}
		c.config = cfg
		c.configPath = resolved
	})
	return c.config, c.configErr
}

// logger builds the run logger: console output on stderr of cmd plus the
// JSON log file under the configured log directory.
func (c *commandContext) logger(cmd *cobra.Command) (*slog.Logger, error) {
	cfg, err := c.ensureConfig()
	if err != nil {
		return nil, err
	}
	level := cfg.Logging.Level
	if c.verbose != nil && *c.verbose {
		level = "debug"
	}
	return logging.New(logging.Options{
		Level:    level,
		Format:   cfg.Logging.Format,
		Console:  cmd.ErrOrStderr(),
		FilePath: filepath.Join(cfg.Paths.LogDir, logging.LogFileName),
	})
}

func (c *commandContext) mkvmergeClient(logger *slog.Logger) (*mkvmerge.Client, error) {
	cfg, err := c.ensureConfig()
	if err != nil {
		return nil, err
	}
	return mkvmerge.New(cfg.MkvmergeBinary(), cfg.ToolTimeout(), logger), nil
}

func (c *commandContext) catalogReader(logger *slog.Logger) (*catalog.Reader, *mkvmerge.Client, error) {
	client, err := c.mkvmergeClient(logger)
	if err != nil {
		return nil, nil, err
	}
	return catalog.NewReader(client, c.config.Languages), client, nil
}

func (c *commandContext) openStore(logger *slog.Logger, readOnly bool) (*state.Store, error) {
	cfg, err := c.ensureConfig()
	if err != nil {
		return nil, err
	}
	store, err := state.Open(cfg, state.Options{ReadOnly: readOnly, Logger: logger})
	if err != nil {
		if errors.Is(err, state.ErrLocked) {
			return nil, fmt.Errorf("%w; wait for the other run to finish", err)
		}
		return nil, err
	}
	return store, nil
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

func closeQuietly(closer io.Closer) {
	if closer != nil {
		_ = closer.Close()
	}
}
