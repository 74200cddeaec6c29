package config

import (
	_ "embed"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/pelletier/go-toml/v2"

	"github.com/LdDl/mot-seqid/seqid"
)

//go:embed sample_config.toml
var sampleConfig string

// Engine contains identity, lifecycle and merge settings.
type Engine struct {
	ConfidenceThreshold  float64 `toml:"confidence_threshold"`
	MaxMergeDistance     float64 `toml:"max_merge_distance"`
	MinTrackLength       int     `toml:"min_track_length"`
	MaxLostFrames        int     `toml:"max_lost_frames"`
	MergeWindow          int     `toml:"merge_window"`
	PredictLostPositions bool    `toml:"predict_lost_positions"`
}

// Quality contains track duration thresholds and composite score weights.
type Quality struct {
	FrameRate             float64 `toml:"frame_rate"`
	LongTrackSeconds      float64 `toml:"long_track_seconds"`
	VeryLongTrackSeconds  float64 `toml:"very_long_track_seconds"`
	ExcellentTrackSeconds float64 `toml:"excellent_track_seconds"`
	WeightFragmentation   float64 `toml:"weight_fragmentation"`
	WeightPersistence     float64 `toml:"weight_persistence"`
	WeightEfficiency      float64 `toml:"weight_efficiency"`
	WeightExcellence      float64 `toml:"weight_excellence"`
}

// Input describes detector output files.
type Input struct {
	// Subject classes to keep. Empty list keeps everything
	Classes []string `toml:"classes"`
}

// Storage contains report persistence settings.
type Storage struct {
	DatabasePath string `toml:"database_path"`
}

// Logging contains configuration for log output.
type Logging struct {
	Format string `toml:"format"`
	Level  string `toml:"level"`
}

// Config encapsulates all configuration values of seqid.
//
// Configuration sections:
//   - Engine: raw id mapping, recovery and merge knobs
//   - Quality: duration thresholds and score weights
//   - Input: detector output filtering
//   - Storage: SQLite report store
//   - Logging: log format and level
type Config struct {
	Engine  Engine  `toml:"engine"`
	Quality Quality `toml:"quality"`
	Input   Input   `toml:"input"`
	Storage Storage `toml:"storage"`
	Logging Logging `toml:"logging"`
}

// DefaultConfigPath returns the absolute path to the default configuration file location.
func DefaultConfigPath() (string, error) {
	return expandPath(defaultConfigPath)
}

// Load locates, parses, and validates a configuration file. Missing file is not an error:
// defaults are used and the second return value is false.
func Load(path string) (*Config, string, bool, error) {
	cfg := Default()

	resolvedPath, exists, err := resolveConfigPath(path)
	if err != nil {
		return nil, "", false, err
	}

	if exists {
		file, err := os.Open(resolvedPath)
		if err != nil {
			return nil, "", false, fmt.Errorf("open config: %w", err)
		}
		defer file.Close()

		decoder := toml.NewDecoder(file)
		decoder.DisallowUnknownFields()
		if err := decoder.Decode(&cfg); err != nil {
			return nil, "", false, fmt.Errorf("parse config: %w", err)
		}
	}

	if err := cfg.normalize(); err != nil {
		return nil, "", false, err
	}

	if err := cfg.Validate(); err != nil {
		return nil, "", false, err
	}

	return &cfg, resolvedPath, exists, nil
}

func resolveConfigPath(path string) (string, bool, error) {
	if path != "" {
		expanded, err := expandPath(path)
		if err != nil {
			return "", false, err
		}
		_, err = os.Stat(expanded)
		if err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				return expanded, false, nil
			}
			return "", false, fmt.Errorf("stat config: %w", err)
		}
		return expanded, true, nil
	}

	defaultPath, err := expandPath(defaultConfigPath)
	if err != nil {
		return "", false, err
	}

	projectPath, err := filepath.Abs("seqid.toml")
	if err != nil {
		return "", false, err
	}

	if info, err := os.Stat(projectPath); err == nil && !info.IsDir() {
		return projectPath, true, nil
	}
	if info, err := os.Stat(defaultPath); err == nil && !info.IsDir() {
		return defaultPath, true, nil
	}

	return defaultPath, false, nil
}

// EngineConfig converts file settings into engine configuration.
func (c *Config) EngineConfig() seqid.Config {
	return seqid.Config{
		ConfidenceThreshold:   c.Engine.ConfidenceThreshold,
		MaxMergeDistance:      c.Engine.MaxMergeDistance,
		MinTrackLength:        c.Engine.MinTrackLength,
		MaxLostFrames:         c.Engine.MaxLostFrames,
		MergeWindow:           c.Engine.MergeWindow,
		FrameRate:             c.Quality.FrameRate,
		LongTrackSeconds:      c.Quality.LongTrackSeconds,
		VeryLongTrackSeconds:  c.Quality.VeryLongTrackSeconds,
		ExcellentTrackSeconds: c.Quality.ExcellentTrackSeconds,
		Weights: seqid.ScoreWeights{
			Fragmentation: c.Quality.WeightFragmentation,
			Persistence:   c.Quality.WeightPersistence,
			Efficiency:    c.Quality.WeightEfficiency,
			Excellence:    c.Quality.WeightExcellence,
		},
		PredictLostPositions: c.Engine.PredictLostPositions,
	}
}

func expandPath(pathValue string) (string, error) {
	if pathValue == "" {
		return pathValue, nil
	}
	if strings.HasPrefix(pathValue, "~") {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("resolve home directory: %w", err)
		}
		if pathValue == "~" {
			pathValue = home
		} else if len(pathValue) > 1 && (pathValue[1] == '/' || pathValue[1] == '\\') {
			pathValue = filepath.Join(home, pathValue[2:])
		}
	}
	cleaned := filepath.Clean(pathValue)
	absolute, err := filepath.Abs(cleaned)
	if err != nil {
		return "", fmt.Errorf("resolve absolute path for %q: %w", cleaned, err)
	}
	return absolute, nil
}

// ExpandPath exposes the repository path expansion rules for other packages.
func ExpandPath(pathValue string) (string, error) {
	return expandPath(pathValue)
}

// CreateSample writes a sample configuration file to the specified location.
func CreateSample(path string) error {
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create config directory: %w", err)
		}
	}

	if err := os.WriteFile(path, []byte(sampleConfig), 0o644); err != nil {
		return fmt.Errorf("write sample config: %w", err)
	}
	return nil
}
