package main

import (
	"flag"
	"fmt"
	"os"
	"time"

	"github.com/pelletier/go-toml/v2"
)

// DefaultURL is the document inspected when no URL is configured.
const DefaultURL = "https://api.freeastroapi.com/openapi.json"

// Config holds the settings of one run.
type Config struct {
	URL     string
	Timeout time.Duration
	MCP     bool
	Verbose bool
}

// fileConfig is the layout of the -config TOML file.
type fileConfig struct {
	URL     string `toml:"url"`
	Timeout string `toml:"timeout"`
}

// DefaultConfig returns the settings used when nothing overrides them.
func DefaultConfig() Config {
	return Config{
		URL:     DefaultURL,
		Timeout: DefaultTimeout,
	}
}

// loadConfigFile applies the values present in the TOML file at path.
func (c *Config) loadConfigFile(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read config file: %w", err)
	}

	var fc fileConfig
	if err := toml.Unmarshal(data, &fc); err != nil {
		return fmt.Errorf("parse config file %s: %w", path, err)
	}

	if fc.URL != "" {
		c.URL = fc.URL
	}
	if fc.Timeout != "" {
		timeout, err := time.ParseDuration(fc.Timeout)
		if err != nil {
			return fmt.Errorf("parse config file %s: timeout: %w", path, err)
		}
		c.Timeout = timeout
	}
	return nil
}

// parseConfig resolves defaults, then the -config file, then the flags that
// were set explicitly on the command line.
func parseConfig(fs *flag.FlagSet, args []string) (Config, error) {
	cfg := DefaultConfig()

	var (
		configPath string
		flags      = cfg
	)
	fs.StringVar(&configPath, "config", "", "Path to a TOML config file")
	fs.StringVar(&flags.URL, "url", cfg.URL, "OpenAPI document URL")
	fs.DurationVar(&flags.Timeout, "timeout", cfg.Timeout, "HTTP request timeout")
	fs.BoolVar(&flags.MCP, "mcp", false, "Serve the inspect_openapi tool over MCP stdio instead of printing")
	fs.BoolVar(&flags.Verbose, "verbose", false, "Enable debug logging on stderr")

	if err := fs.Parse(args); err != nil {
		return cfg, err
	}
	if fs.NArg() > 0 {
		return cfg, fmt.Errorf("unexpected arguments: %v", fs.Args())
	}

	if configPath != "" {
		if err := cfg.loadConfigFile(configPath); err != nil {
			return cfg, err
		}
	}

	fs.Visit(func(f *flag.Flag) {
		switch f.Name {
		case "url":
			cfg.URL = flags.URL
		case "timeout":
			cfg.Timeout = flags.Timeout
		}
	})
	cfg.MCP = flags.MCP
	cfg.Verbose = flags.Verbose

	if cfg.Timeout <= 0 {
		return cfg, fmt.Errorf("timeout must be positive, got %s", cfg.Timeout)
	}
	return cfg, nil
}
