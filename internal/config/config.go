// Package config loads the relay CLI configuration from a YAML or JSON file
// with RELAY_* environment overrides.
package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"
)

// DefaultFile is looked up in the working directory when no path is given.
const DefaultFile = "relay.yaml"

// Config holds the settings shared by the CLI commands.
type Config struct {
	Server  ServerConfig `yaml:"server" json:"server"`
	MCP     MCPConfig    `yaml:"mcp" json:"mcp"`
	Log     LogConfig    `yaml:"log" json:"log"`
	Redis   RedisConfig  `yaml:"redis" json:"redis"`
	Batch   string       `yaml:"batch" json:"batch"`
	Debug   bool         `yaml:"debug" json:"debug"`
	Redact  []string     `yaml:"redact" json:"redact"`
	Tools   string       `yaml:"tools" json:"tools"`
	Workdir string       `yaml:"workdir" json:"workdir"`
}

type ServerConfig struct {
	Port    int  `yaml:"port" json:"port"`
	Metrics bool `yaml:"metrics" json:"metrics"`
}

type MCPConfig struct {
	Transport string `yaml:"transport" json:"transport"`
	Port      int    `yaml:"port" json:"port"`
}

type LogConfig struct {
	Level  string `yaml:"level" json:"level"`
	Format string `yaml:"format" json:"format"`
}

// RedisConfig enables the trace sink when URL is set.
type RedisConfig struct {
	URL       string `yaml:"url" json:"url"`
	Prefix    string `yaml:"prefix" json:"prefix"`
	MaxEvents int    `yaml:"max_events" json:"max_events"`
}

// Default returns the configuration used when no file exists.
func Default() Config {
	return Config{
		Server: ServerConfig{Port: 8080, Metrics: true},
		MCP:    MCPConfig{Transport: "stdio", Port: 8080},
		Log:    LogConfig{Level: "info", Format: "text"},
		Redis:  RedisConfig{Prefix: "relay:", MaxEvents: 1000},
		Batch:  "sequential",
	}
}

// Load reads path over the defaults, then applies environment overrides.
// A missing file is not an error. An empty path tries DefaultFile.
func Load(path string) (Config, error) {
	cfg := Default()
	explicit := path != ""
	if !explicit {
		path = DefaultFile
	}

	data, err := os.ReadFile(path)
	switch {
	case err == nil:
		if err := decode(data, filepath.Ext(path), &cfg); err != nil {
			return cfg, fmt.Errorf("config %s: %w", path, err)
		}
	case os.IsNotExist(err) && !explicit:
	case os.IsNotExist(err):
		return cfg, fmt.Errorf("config file not found: %s", path)
	default:
		return cfg, fmt.Errorf("failed to read config: %w", err)
	}

	if err := applyEnv(&cfg, os.LookupEnv); err != nil {
		return cfg, err
	}
	return cfg, nil
}

func decode(data []byte, ext string, cfg *Config) error {
	if strings.EqualFold(ext, ".json") {
		return json.Unmarshal(data, cfg)
	}
	return yaml.Unmarshal(data, cfg)
}

type lookupFunc func(string) (string, bool)

// applyEnv overrides fields from RELAY_* variables.
func applyEnv(cfg *Config, lookup lookupFunc) error {
	str := func(key string, dst *string) {
		if v, ok := lookup(key); ok && v != "" {
			*dst = v
		}
	}
	integer := func(key string, dst *int) error {
		if v, ok := lookup(key); ok && v != "" {
			n, err := strconv.Atoi(v)
			if err != nil {
				return fmt.Errorf("%s: %w", key, err)
			}
			*dst = n
		}
		return nil
	}
	boolean := func(key string, dst *bool) error {
		if v, ok := lookup(key); ok && v != "" {
			b, err := strconv.ParseBool(v)
			if err != nil {
				return fmt.Errorf("%s: %w", key, err)
			}
			*dst = b
		}
		return nil
	}

	if err := integer("RELAY_PORT", &cfg.Server.Port); err != nil {
		return err
	}
	if err := boolean("RELAY_METRICS", &cfg.Server.Metrics); err != nil {
		return err
	}
	str("RELAY_MCP_TRANSPORT", &cfg.MCP.Transport)
	if err := integer("RELAY_MCP_PORT", &cfg.MCP.Port); err != nil {
		return err
	}
	str("RELAY_LOG_LEVEL", &cfg.Log.Level)
	str("RELAY_LOG_FORMAT", &cfg.Log.Format)
	str("RELAY_REDIS_URL", &cfg.Redis.URL)
	str("RELAY_BATCH", &cfg.Batch)
	if err := boolean("RELAY_DEBUG", &cfg.Debug); err != nil {
		return err
	}
	str("RELAY_TOOLS", &cfg.Tools)
	if v, ok := lookup("RELAY_REDACT"); ok && v != "" {
		cfg.Redact = nil
		for _, p := range strings.Split(v, ",") {
			if p = strings.TrimSpace(p); p != "" {
				cfg.Redact = append(cfg.Redact, p)
			}
		}
	}
	return nil
}
