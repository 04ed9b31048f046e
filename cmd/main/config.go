package main

import (
	"bytes"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"strings"

	"github.com/natefinch/atomic"
)

// GenerationConfig holds the defaults for the generate command.
type GenerationConfig struct {
	Count       int     `json:"count"`
	MaxLength   int     `json:"max_length"`
	Seed        uint64  `json:"seed"` // 0 picks a random seed per run
	Start       string  `json:"start"`
	EndHalting  bool    `json:"end_halting"`
	Temperature float64 `json:"temperature"`
	TopK        int     `json:"top_k"`
}

// MidiConfig holds settings for MIDI export.
type MidiConfig struct {
	Tempo     float64 `json:"tempo"`
	Velocity  uint8   `json:"velocity"`
	Channel   uint8   `json:"channel"`
	NoteTicks uint32  `json:"note_ticks"`
}

// Config is the top-level configuration struct that aggregates all other configs.
type Config struct {
	LogLevel     string            `json:"log_level"`
	DatabasePath string            `json:"database_path"`
	Generation   *GenerationConfig `json:"generation_config"`
	Midi         *MidiConfig       `json:"midi_config"`
}

// DefaultConfig creates a configuration with default values.
func DefaultConfig() *Config {
	return &Config{
		LogLevel:     "info",
		DatabasePath: "./data/melodia.db",
		Generation: &GenerationConfig{
			Count:       5,
			MaxLength:   20,
			Seed:        0,
			Start:       "^",
			EndHalting:  true,
			Temperature: 1.0,
			TopK:        0,
		},
		Midi: &MidiConfig{
			Tempo:     120,
			Velocity:  100,
			Channel:   0,
			NoteTicks: 48,
		},
	}
}

// LoadConfig reads the configuration from a JSON file at the given path.
// If the file doesn't exist, it creates one with default values.
func LoadConfig(path string) (*Config, error) {
	config := DefaultConfig()

	file, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			var data []byte
			data, err = json.MarshalIndent(config, "", "  ")
			if err != nil {
				return nil, fmt.Errorf("failed to marshal default config: %w", err)
			}
			if err = atomic.WriteFile(path, bytes.NewReader(data)); err != nil {
				// Not fatal, the defaults are still usable.
				fmt.Fprintf(os.Stderr, "warning: failed to write default config file: %v\n", err)
			}
			return config, nil
		}
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	if err = json.Unmarshal(file, &config); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}

	// A file may omit whole sections.
	defaults := DefaultConfig()
	if config.Generation == nil {
		config.Generation = defaults.Generation
	}
	if config.Midi == nil {
		config.Midi = defaults.Midi
	}
	return config, nil
}

// parseLogLevel maps a config log level to a slog level, defaulting to info.
func parseLogLevel(level string) slog.Level {
	switch strings.ToLower(level) {
	case "debug":
		return slog.LevelDebug
	case "info":
		return slog.LevelInfo
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}
