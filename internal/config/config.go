// Package config provides intercom-mcp configuration management.
package config

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	appconfig "github.com/RobinCoderZhao/intercom-mcp/pkg/config"
	"github.com/RobinCoderZhao/intercom-mcp/pkg/intercom"
)

// FileName is the config file looked up in the working directory, then in
// the home directory.
const FileName = ".intercom-mcp.yaml"

// Config is the main configuration for the intercom-mcp server.
type Config struct {
	Intercom intercom.Config `yaml:"intercom"`
	Server   ServerConfig    `yaml:"server"`
	Log      LogConfig       `yaml:"log"`
}

// ServerConfig holds settings for the HTTP transport.
type ServerConfig struct {
	HTTPAddr  string `yaml:"http_addr" env:"INTERCOM_MCP_HTTP_ADDR"`
	JWTSecret string `yaml:"jwt_secret" env:"INTERCOM_MCP_JWT_SECRET"` // empty disables auth
}

// LogConfig holds logging settings.
type LogConfig struct {
	Level string `yaml:"level" env:"INTERCOM_MCP_LOG_LEVEL"` // debug, info, warn, error
}

// DefaultConfig returns a Config with sensible defaults and no token.
func DefaultConfig() Config {
	return Config{
		Intercom: intercom.DefaultConfig(),
		Server: ServerConfig{
			HTTPAddr: ":8080",
		},
		Log: LogConfig{
			Level: "info",
		},
	}
}

// Load loads configuration. An explicit path must exist; otherwise the
// project-level file is checked first, then the home directory. Environment
// variables override file values, and a missing token is an error.
func Load(path string) (Config, error) {
	cfg := DefaultConfig()

	if path != "" {
		if err := appconfig.Load(path, &cfg); err != nil {
			return cfg, err
		}
		return cfg, nil
	}

	// Check project-level config first
	if _, err := os.Stat(FileName); err == nil {
		if err := appconfig.Load(FileName, &cfg); err != nil {
			return cfg, err
		}
		return cfg, nil
	}

	// Then check home directory
	var globalPath string
	if home, err := os.UserHomeDir(); err == nil {
		globalPath = filepath.Join(home, FileName)
	}
	if err := appconfig.LoadOrDefault(globalPath, &cfg); err != nil {
		return cfg, err
	}
	return cfg, nil
}

// SlogLevel maps Log.Level to a slog.Level.
func (c Config) SlogLevel() (slog.Level, error) {
	var level slog.Level
	if c.Log.Level == "" {
		return slog.LevelInfo, nil
	}
	if err := level.UnmarshalText([]byte(strings.ToUpper(c.Log.Level))); err != nil {
		return slog.LevelInfo, fmt.Errorf("invalid log level %q", c.Log.Level)
	}
	return level, nil
}
