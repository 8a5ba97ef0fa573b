// Package config loads MindPlace configuration from file, environment and
// defaults, in that order of precedence.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/spf13/viper"
)

// Config holds all application configuration, for both the server and the
// CLI client.
type Config struct {
	Server   ServerConfig   `mapstructure:"server"`
	Database DatabaseConfig `mapstructure:"database" validate:"required"`
	Client   ClientConfig   `mapstructure:"client"`
	Auth     AuthConfig     `mapstructure:"auth"`
}

// ServerConfig holds HTTP server settings.
type ServerConfig struct {
	Port int `mapstructure:"port" validate:"required,min=1,max=65535"`
}

// DatabaseConfig selects the storage backend. Driver "none" runs the server
// in local-storage mode: every API response tells clients to use their
// local mirror.
type DatabaseConfig struct {
	Driver string `mapstructure:"driver" validate:"required,oneof=sqlite postgres none"`
	Path   string `mapstructure:"path" validate:"required_if=Driver sqlite"`
	URL    string `mapstructure:"url" validate:"required_if=Driver postgres"`
}

// ClientConfig holds settings for the CLI client.
type ClientConfig struct {
	APIBaseURL string `mapstructure:"api_base_url" validate:"required,url"`
	DataDir    string `mapstructure:"data_dir"`
}

// AuthConfig enables authentication on mutating routes when both fields are
// set. PasswordHash is a bcrypt hash; generate one with `mindplace hash`.
type AuthConfig struct {
	Secret       string `mapstructure:"secret"`
	PasswordHash string `mapstructure:"password_hash"`
}

// Enabled reports whether the server should protect its mutating routes.
func (a *AuthConfig) Enabled() bool {
	return a.Secret != "" && a.PasswordHash != ""
}

// DefaultConfig returns a Config with sensible defaults.
func DefaultConfig() *Config {
	return &Config{
		Server: ServerConfig{Port: 8080},
		Database: DatabaseConfig{
			Driver: "sqlite",
			Path:   filepath.Join(getConfigDir(), "mindplace.db"),
		},
		Client: ClientConfig{
			APIBaseURL: "http://localhost:8080",
			DataDir:    getConfigDir(),
		},
	}
}

// Load reads configuration from file and environment. configPath may be
// empty, in which case standard locations are searched; a missing file is
// fine as long as the result validates.
func Load(configPath string) (*Config, error) {
	v := viper.New()

	defaults := DefaultConfig()
	v.SetDefault("server.port", defaults.Server.Port)
	v.SetDefault("database.driver", defaults.Database.Driver)
	v.SetDefault("database.path", defaults.Database.Path)
	v.SetDefault("client.api_base_url", defaults.Client.APIBaseURL)
	v.SetDefault("client.data_dir", defaults.Client.DataDir)

	if configPath != "" {
		v.SetConfigFile(configPath)
	} else {
		v.SetConfigName("mindplace")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
		v.AddConfigPath(getConfigDir())
	}

	v.AutomaticEnv()
	v.SetEnvPrefix("MINDPLACE")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("reading config file: %w", err)
		}
		// No config file is fine; defaults plus environment may be enough.
	}

	cfg := &Config{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("unmarshaling config: %w", err)
	}

	cfg.Database.URL = os.ExpandEnv(cfg.Database.URL)
	cfg.Database.Path = expandPath(cfg.Database.Path)
	cfg.Client.DataDir = expandPath(cfg.Client.DataDir)

	validate := validator.New()
	if err := validate.Struct(cfg); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	return cfg, nil
}

// getConfigDir returns the per-user config directory for the OS.
func getConfigDir() string {
	switch runtime.GOOS {
	case "windows":
		if appData := os.Getenv("APPDATA"); appData != "" {
			return filepath.Join(appData, "mindplace")
		}
		return filepath.Join(os.Getenv("USERPROFILE"), ".config", "mindplace")
	default:
		if xdgConfig := os.Getenv("XDG_CONFIG_HOME"); xdgConfig != "" {
			return filepath.Join(xdgConfig, "mindplace")
		}
		home, _ := os.UserHomeDir()
		return filepath.Join(home, ".config", "mindplace")
	}
}

// expandPath expands ~ and environment variables in a path.
func expandPath(path string) string {
	if strings.HasPrefix(path, "~") {
		home, _ := os.UserHomeDir()
		path = filepath.Join(home, path[1:])
	}
	return os.ExpandEnv(path)
}
