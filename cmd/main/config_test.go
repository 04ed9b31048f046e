package main

import (
	"encoding/json"
	"log/slog"
	"os"
	"path/filepath"
	"reflect"
	"testing"
)

func TestLoadConfigWritesDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.json")

	config, err := LoadConfig(path)
	if err != nil {
		t.Fatalf("LoadConfig() error = %v", err)
	}
	if !reflect.DeepEqual(config, DefaultConfig()) {
		t.Errorf("LoadConfig() = %+v, want defaults", config)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("default config was not written: %v", err)
	}
	var written Config
	if err := json.Unmarshal(data, &written); err != nil {
		t.Fatalf("written config is not valid JSON: %v", err)
	}
	if written.Generation == nil || written.Generation.MaxLength != 20 {
		t.Errorf("unexpected written config: %s", data)
	}
}

func TestLoadConfigPartialFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.json")
	content := `{"log_level": "debug", "generation_config": {"max_length": 8}}`
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}

	config, err := LoadConfig(path)
	if err != nil {
		t.Fatalf("LoadConfig() error = %v", err)
	}
	if config.LogLevel != "debug" {
		t.Errorf("LogLevel = %q, want debug", config.LogLevel)
	}
	if config.Generation.MaxLength != 8 {
		t.Errorf("MaxLength = %d, want 8", config.Generation.MaxLength)
	}
	// Fields missing from the file keep their defaults.
	if config.Generation.Count != 5 || !config.Generation.EndHalting {
		t.Errorf("generation defaults lost: %+v", config.Generation)
	}
	if config.Midi == nil || config.Midi.Tempo != 120 {
		t.Errorf("midi defaults lost: %+v", config.Midi)
	}
}

func TestLoadConfigInvalid(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.json")
	if err := os.WriteFile(path, []byte("{"), 0o644); err != nil {
		t.Fatal(err)
	}
	if _, err := LoadConfig(path); err == nil {
		t.Error("expected an error for invalid JSON")
	}
}

func TestParseLogLevel(t *testing.T) {
	testCases := map[string]slog.Level{
		"debug":   slog.LevelDebug,
		"INFO":    slog.LevelInfo,
		"warn":    slog.LevelWarn,
		"Error":   slog.LevelError,
		"verbose": slog.LevelInfo,
		"":        slog.LevelInfo,
	}
	for in, expected := range testCases {
		if got := parseLogLevel(in); got != expected {
			t.Errorf("parseLogLevel(%q) = %v, want %v", in, got, expected)
		}
	}
}
