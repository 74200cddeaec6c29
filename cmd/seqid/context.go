package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"strings"
	"sync"

	"github.com/spf13/cobra"

	"github.com/LdDl/mot-seqid/internal/config"
	"github.com/LdDl/mot-seqid/internal/logging"
	"github.com/LdDl/mot-seqid/internal/reportstore"
)

type commandContext struct {
	configFlag *string

	configOnce sync.Once
	config     *config.Config
	configErr  error
}

func newCommandContext(configFlag *string) *commandContext {
	return &commandContext{
		configFlag: configFlag,
	}
}

func (c *commandContext) configPath() string {
	if c.configFlag == nil {
		return ""
	}
	return strings.TrimSpace(*c.configFlag)
}

func (c *commandContext) ensureConfig() (*config.Config, error) {
	c.configOnce.Do(func() {
		cfg, _, _, err := config.Load(c.configPath())
		if err != nil {
			c.configErr = err
			return
		}
		c.config = cfg
	})
	return c.config, c.configErr
}

func (c *commandContext) logger(output io.Writer) (*slog.Logger, error) {
	cfg, err := c.ensureConfig()
	if err != nil {
		return nil, err
	}
	return logging.NewFromConfig(cfg, output)
}

// withStore opens report database. Explicit path wins over configured one.
func (c *commandContext) withStore(ctx context.Context, path string, fn func(*reportstore.Store) error) error {
	if strings.TrimSpace(path) == "" {
		cfg, err := c.ensureConfig()
		if err != nil {
			return err
		}
		path = cfg.Storage.DatabasePath
	} else {
		expanded, err := config.ExpandPath(path)
		if err != nil {
			return fmt.Errorf("resolve database path: %w", err)
		}
		path = expanded
	}
	store, err := reportstore.Open(ctx, path)
	if err != nil {
		return err
	}
	defer store.Close()
	return fn(store)
}

func shouldSkipConfig(cmd *cobra.Command) bool {
	for c := cmd; c != nil; c = c.Parent() {
		if c.Annotations != nil && c.Annotations["skipConfigLoad"] == "true" {
			return true
		}
	}
	return false
}
