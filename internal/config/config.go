// Package config resolves matchstats settings from flags, environment and defaults.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/viper"
)

// EnvPrefix is prepended to every environment variable, e.g. MATCHSTATS_DB.
const EnvPrefix = "MATCHSTATS"

// Keys shared by viper and the persistent cobra flags.
const (
	KeyDB        = "db"
	KeyModel     = "model"
	KeyLogLevel  = "log-level"
	KeyLogFormat = "log-format"
)

// Config holds the resolved settings.
type Config struct {
	DB        string // sqlite path or postgres:// URL
	Model     string // path to the classifier JSON
	LogLevel  string
	LogFormat string
}

// New returns a viper instance with defaults and environment binding set up.
func New() *viper.Viper {
	v := viper.New()
	dir := filepath.Join(userHome(), ".matchstats")
	v.SetDefault(KeyDB, filepath.Join(dir, "ledger.db"))
	v.SetDefault(KeyModel, filepath.Join(dir, "model.json"))
	v.SetDefault(KeyLogLevel, "info")
	v.SetDefault(KeyLogFormat, "console")

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	v.AutomaticEnv()
	return v
}

// Load reads the settings from v and validates them.
func Load(v *viper.Viper) (*Config, error) {
	cfg := &Config{
		DB:        strings.TrimSpace(v.GetString(KeyDB)),
		Model:     strings.TrimSpace(v.GetString(KeyModel)),
		LogLevel:  strings.ToLower(v.GetString(KeyLogLevel)),
		LogFormat: strings.ToLower(v.GetString(KeyLogFormat)),
	}
	if cfg.DB == "" {
		return nil, fmt.Errorf("config: %s must not be empty", KeyDB)
	}
	switch cfg.LogLevel {
	case "debug", "info", "warn", "error":
	default:
		return nil, fmt.Errorf("config: unknown %s %q", KeyLogLevel, cfg.LogLevel)
	}
	switch cfg.LogFormat {
	case "console", "json":
	default:
		return nil, fmt.Errorf("config: unknown %s %q", KeyLogFormat, cfg.LogFormat)
	}
	cfg.DB = expandHome(cfg.DB)
	cfg.Model = expandHome(cfg.Model)
	return cfg, nil
}

func expandHome(p string) string {
	if p == "~" || strings.HasPrefix(p, "~/") {
		return filepath.Join(userHome(), strings.TrimPrefix(p, "~"))
	}
	return p
}

func userHome() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return "."
	}
	return home
}
