// Package config provides configuration helpers and TOML parsing.
package config

import (
	"fmt"
	"os"

	"github.com/BurntSushi/toml"
)

// FileConfig represents the TOML configuration file.
type FileConfig struct {
	Game     GameConfig     `toml:"game"`
	Adaptive AdaptiveConfig `toml:"adaptive"`
}

// GameConfig maps session-related settings.
type GameConfig struct {
	Mode               *string `toml:"mode"`
	NLevel             *int    `toml:"n"`
	NumTrials          *int    `toml:"trials"`
	StimulusDurationMs *int    `toml:"duration-ms"`
	Audio              *bool   `toml:"audio"`
}

// AdaptiveConfig maps adaptive-difficulty settings.
type AdaptiveConfig struct {
	Enabled    *bool    `toml:"enabled"`
	RaiseAbove *float64 `toml:"raise-above"`
	LowerBelow *float64 `toml:"lower-below"`
}

// LoadConfig reads a TOML config from the given path. Missing file is not an error.
func LoadConfig(path string) (FileConfig, error) {
	if path == "" {
		return FileConfig{}, fmt.Errorf("config path is empty")
	}
	if _, err := os.Stat(path); err != nil {
		if os.IsNotExist(err) {
			return FileConfig{}, nil
		}
		return FileConfig{}, fmt.Errorf("failed to stat config: %w", err)
	}
	var cfg FileConfig
	if _, err := toml.DecodeFile(path, &cfg); err != nil {
		return FileConfig{}, fmt.Errorf("failed to decode config: %w", err)
	}
	return cfg, nil
}
