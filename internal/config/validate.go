package config

import (
	"errors"
	"fmt"
	"net"
)

// Validate ensures the configuration is usable.
func (c *Config) Validate() error {
	if err := c.validatePaths(); err != nil {
		return err
	}
	if err := c.validateSearch(); err != nil {
		return err
	}
	if err := c.validateLLM(); err != nil {
		return err
	}
	if err := c.validateContent(); err != nil {
		return err
	}
	if err := c.validateLogging(); err != nil {
		return err
	}
	return nil
}

func (c *Config) validatePaths() error {
	if _, _, err := net.SplitHostPort(c.Paths.APIBind); err != nil {
		return fmt.Errorf("paths.api_bind %q is not host:port: %w", c.Paths.APIBind, err)
	}
	return nil
}

func (c *Config) validateSearch() error {
	if c.Search.APIKey == "" {
		defaultPath, err := DefaultConfigPath()
		if err != nil {
			defaultPath = "~/.config/rotativa/config.toml"
		}
		return fmt.Errorf("search.api_key is required. Edit %s (create with 'rotativa config init')", defaultPath)
	}
	return nil
}

func (c *Config) validateLLM() error {
	if c.LLM.APIKey == "" {
		return errors.New("llm.api_key is required")
	}
	if c.LLM.Model == "" {
		return errors.New("llm.model must be set")
	}
	return nil
}

func (c *Config) validateContent() error {
	if c.Content.Concurrency > 10 {
		return errors.New("content.concurrency must be 10 or lower")
	}
	return nil
}

func (c *Config) validateLogging() error {
	switch c.Logging.Format {
	case "console", "json":
	default:
		return fmt.Errorf("logging.format %q must be console or json", c.Logging.Format)
	}
	switch c.Logging.Level {
	case "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("logging.level %q must be debug, info, warn, or error", c.Logging.Level)
	}
	return nil
}
