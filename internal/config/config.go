// Package config loads splitcmd's daemon configuration: viper, a YAML
// file under a per-user config directory, an env prefix, and a struct of
// defaults.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/spf13/viper"
)

type Config struct {
	Port               int           `mapstructure:"port"`
	UserIgnorePatterns []string      `mapstructure:"user_ignore_patterns"`
	ResolverCacheSize  int           `mapstructure:"resolver_cache_size"`
	ShellOverride      string        `mapstructure:"shell_override"`
	PtyKillGrace       time.Duration `mapstructure:"pty_kill_grace"`
}

var Default = Config{
	Port:               7777,
	UserIgnorePatterns: nil,
	ResolverCacheSize:  1024,
	ShellOverride:      "",
	PtyKillGrace:       2 * time.Second,
}

func Load() (*Config, error) {
	configDir, err := os.UserConfigDir()
	if err != nil {
		return nil, fmt.Errorf("failed to get config dir: %w", err)
	}

	splitcmdDir := filepath.Join(configDir, "splitcmd")
	if err := os.MkdirAll(splitcmdDir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create config dir: %w", err)
	}

	viper.SetConfigName("config")
	viper.SetConfigType("yaml")
	viper.AddConfigPath(splitcmdDir)

	viper.SetDefault("port", Default.Port)
	viper.SetDefault("user_ignore_patterns", Default.UserIgnorePatterns)
	viper.SetDefault("resolver_cache_size", Default.ResolverCacheSize)
	viper.SetDefault("shell_override", Default.ShellOverride)
	viper.SetDefault("pty_kill_grace", Default.PtyKillGrace)

	viper.SetEnvPrefix("SPLITCMD")
	viper.AutomaticEnv()

	if err := viper.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	}

	var cfg Config
	if err := viper.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	return &cfg, nil
}

// StateFilePath returns the path to the persisted pane-state blob, kept
// under a per-app data directory rather than the config directory since
// it's mutable runtime state, not user-edited configuration.
func StateFilePath() (string, error) {
	dataDir, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("failed to get home dir: %w", err)
	}

	dir := filepath.Join(dataDir, ".splitcmd")
	if err := os.MkdirAll(dir, 0755); err != nil {
		return "", fmt.Errorf("failed to create state dir: %w", err)
	}

	return filepath.Join(dir, "state.json"), nil
}
