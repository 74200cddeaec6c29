package config

import (
	"fmt"
	"strings"
)

func (c *Config) normalize() error {
	if err := c.normalizeStorage(); err != nil {
		return err
	}
	c.normalizeInput()
	c.normalizeLogging()
	return nil
}

func (c *Config) normalizeStorage() error {
	c.Storage.DatabasePath = strings.TrimSpace(c.Storage.DatabasePath)
	if c.Storage.DatabasePath == "" {
		c.Storage.DatabasePath = defaultDatabasePath
	}
	var err error
	if c.Storage.DatabasePath, err = expandPath(c.Storage.DatabasePath); err != nil {
		return fmt.Errorf("storage.database_path: %w", err)
	}
	return nil
}

func (c *Config) normalizeInput() {
	seen := make(map[string]struct{}, len(c.Input.Classes))
	classes := make([]string, 0, len(c.Input.Classes))
	for _, class := range c.Input.Classes {
		class = strings.ToLower(strings.TrimSpace(class))
		if class == "" {
			continue
		}
		if _, ok := seen[class]; ok {
			continue
		}
		seen[class] = struct{}{}
		classes = append(classes, class)
	}
	c.Input.Classes = classes
}

func (c *Config) normalizeLogging() {
	c.Logging.Format = strings.ToLower(strings.TrimSpace(c.Logging.Format))
	if c.Logging.Format == "" {
		c.Logging.Format = defaultLogFormat
	}
	c.Logging.Level = strings.ToLower(strings.TrimSpace(c.Logging.Level))
	if c.Logging.Level == "" {
		c.Logging.Level = defaultLogLevel
	}
}
