package config_test

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/pelletier/go-toml/v2"

	"github.com/LdDl/mot-seqid/internal/config"
	"github.com/LdDl/mot-seqid/seqid"
)

func TestLoadMissingFileUsesDefaults(t *testing.T) {
	tempHome := t.TempDir()
	t.Setenv("HOME", tempHome)
	t.Chdir(t.TempDir())

	cfg, resolved, exists, err := config.Load("")
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}
	if exists {
		t.Fatal("expected config file to be absent in temp HOME")
	}
	if resolved != filepath.Join(tempHome, ".config", "seqid", "config.toml") {
		t.Fatalf("unexpected resolved path: %q", resolved)
	}
	if cfg.EngineConfig() != seqid.DefaultConfig() {
		t.Fatalf("unexpected engine config: %+v", cfg.EngineConfig())
	}
	wantDB := filepath.Join(tempHome, ".local", "share", "seqid", "runs.db")
	if cfg.Storage.DatabasePath != wantDB {
		t.Fatalf("unexpected database path: got %q want %q", cfg.Storage.DatabasePath, wantDB)
	}
	if len(cfg.Input.Classes) != 1 || cfg.Input.Classes[0] != "person" {
		t.Fatalf("unexpected classes: %v", cfg.Input.Classes)
	}
	if cfg.Logging.Format != "console" || cfg.Logging.Level != "info" {
		t.Fatalf("unexpected logging: %+v", cfg.Logging)
	}
}

func TestLoadOverridesAndNormalizes(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "seqid.toml")
	content := `
[engine]
max_lost_frames = 45
predict_lost_positions = true

[quality]
frame_rate = 30.0

[input]
classes = [" Person ", "BALL", "person", ""]

[storage]
database_path = "runs/store.db"

[logging]
format = " JSON "
level = "Debug"
`
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}

	cfg, resolved, exists, err := config.Load(path)
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}
	if !exists || resolved != path {
		t.Fatalf("unexpected resolution: %q exists=%v", resolved, exists)
	}
	engine := cfg.EngineConfig()
	if engine.MaxLostFrames != 45 || !engine.PredictLostPositions {
		t.Fatalf("engine overrides not applied: %+v", engine)
	}
	if engine.MaxMergeDistance != seqid.DefaultConfig().MaxMergeDistance {
		t.Fatalf("expected default max merge distance, got %v", engine.MaxMergeDistance)
	}
	if engine.Thresholds().Long != 90 {
		t.Fatalf("unexpected long threshold: %d", engine.Thresholds().Long)
	}
	if strings.Join(cfg.Input.Classes, ",") != "person,ball" {
		t.Fatalf("unexpected classes: %v", cfg.Input.Classes)
	}
	if !filepath.IsAbs(cfg.Storage.DatabasePath) || filepath.Base(cfg.Storage.DatabasePath) != "store.db" {
		t.Fatalf("expected absolute database path, got %q", cfg.Storage.DatabasePath)
	}
	if cfg.Logging.Format != "json" || cfg.Logging.Level != "debug" {
		t.Fatalf("unexpected logging: %+v", cfg.Logging)
	}
}

func TestLoadRejectsInvalidEngineSettings(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.toml")
	content := "[quality]\nweight_excellence = 30.0\n"
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
	_, _, _, err := config.Load(path)
	if err == nil {
		t.Fatal("expected validation error")
	}
	var cfgErr *seqid.ConfigurationError
	if !errors.As(err, &cfgErr) {
		t.Fatalf("expected ConfigurationError, got %T: %v", err, err)
	}
	if cfgErr.Field != "weights" {
		t.Fatalf("unexpected field: %q", cfgErr.Field)
	}
}

func TestLoadRejectsUnknownKeysAndLogging(t *testing.T) {
	cases := map[string]string{
		"unknown key":    "[engine]\nmax_lost = 10\n",
		"logging format": "[logging]\nformat = \"xml\"\n",
		"logging level":  "[logging]\nlevel = \"trace\"\n",
	}
	for name, content := range cases {
		path := filepath.Join(t.TempDir(), "config.toml")
		if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
			t.Fatalf("%s: write config: %v", name, err)
		}
		if _, _, _, err := config.Load(path); err == nil {
			t.Fatalf("%s: expected error", name)
		}
	}
}

func TestCreateSampleMatchesDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "config.toml")
	if err := config.CreateSample(path); err != nil {
		t.Fatalf("CreateSample returned error: %v", err)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read sample: %v", err)
	}
	var decoded config.Config
	if err := toml.Unmarshal(data, &decoded); err != nil {
		t.Fatalf("sample config is not valid TOML: %v", err)
	}
	want := config.Default()
	if decoded.EngineConfig() != want.EngineConfig() {
		t.Fatalf("sample engine settings differ from defaults: %+v", decoded.EngineConfig())
	}

	cfg, _, exists, err := config.Load(path)
	if err != nil {
		t.Fatalf("Load sample returned error: %v", err)
	}
	if !exists {
		t.Fatal("expected sample to exist")
	}
	if cfg.Logging != want.Logging {
		t.Fatalf("unexpected logging: %+v", cfg.Logging)
	}
}
