package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/BurntSushi/toml"
)

type Config struct {
	Engine  EngineConfig  `toml:"engine"`
	Runtime RuntimeConfig `toml:"runtime"`
	Demo    DemoConfig    `toml:"demo"`
	Raw     map[string]any `toml:"-"`
	Path    string         `toml:"-"`
}

type EngineConfig struct {
	QualityTarget float64 `toml:"quality_target"`
	ModeARatio    float64 `toml:"mode_a_ratio"`
	ModeBRatio    float64 `toml:"mode_b_ratio"`
}

type RuntimeConfig struct {
	Addr                   string  `toml:"addr"`
	DBPath                 string  `toml:"db_path"`
	LogLevel               string  `toml:"log_level"`
	AllocateIntervalMS     int     `toml:"allocate_interval_ms"`
	RebalanceIntervalMS    int     `toml:"rebalance_interval_ms"`
	RedistributeIntervalMS int     `toml:"redistribute_interval_ms"`
	SnapshotIntervalMS     int     `toml:"snapshot_interval_ms"`
	CreditPool             float64 `toml:"credit_pool"`
}

type DemoConfig struct {
	Workers        int `toml:"workers"`
	TaskIntervalMS int `toml:"task_interval_ms"`
	SignalEveryN   int `toml:"signal_every_n"`
}

func Load(path string) (Config, error) {
	resolved := path
	if resolved == "" {
		resolved = defaultConfigPath()
	}
	if strings.HasPrefix(resolved, "~") {
		home, err := os.UserHomeDir()
		if err != nil {
			return Config{}, fmt.Errorf("resolve home directory: %w", err)
		}
		trimmed := strings.TrimPrefix(resolved, "~")
		trimmed = strings.TrimPrefix(trimmed, "\\")
		trimmed = strings.TrimPrefix(trimmed, "/")
		resolved = filepath.Join(home, trimmed)
	}
	resolved = filepath.Clean(resolved)

	var cfg Config
	bytes, err := os.ReadFile(resolved)
	if err != nil {
		if os.IsNotExist(err) && path == "" {
			// No config file is fine; everything has a default.
			return cfg, nil
		}
		return Config{}, fmt.Errorf("read config file %s: %w", resolved, err)
	}

	if _, err := toml.Decode(string(bytes), &cfg); err != nil {
		return Config{}, fmt.Errorf("decode config file: %w", err)
	}
	var raw map[string]any
	if _, err := toml.Decode(string(bytes), &raw); err != nil {
		return Config{}, fmt.Errorf("decode raw config: %w", err)
	}
	cfg.Raw = raw
	cfg.Path = resolved
	return cfg, nil
}

func defaultConfigPath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ".scoby/config.toml"
	}
	return filepath.Join(home, ".scoby", "config.toml")
}
