package config

import (
	"github.com/LdDl/mot-seqid/seqid"
)

const (
	defaultConfigPath   = "~/.config/seqid/config.toml"
	defaultDatabasePath = "~/.local/share/seqid/runs.db"
	defaultLogFormat    = "console"
	defaultLogLevel     = "info"
)

// Default returns a Config populated with repository defaults.
func Default() Config {
	engine := seqid.DefaultConfig()
	return Config{
		Engine: Engine{
			ConfidenceThreshold:  engine.ConfidenceThreshold,
			MaxMergeDistance:     engine.MaxMergeDistance,
			MinTrackLength:       engine.MinTrackLength,
			MaxLostFrames:        engine.MaxLostFrames,
			MergeWindow:          engine.MergeWindow,
			PredictLostPositions: engine.PredictLostPositions,
		},
		Quality: Quality{
			FrameRate:             engine.FrameRate,
			LongTrackSeconds:      engine.LongTrackSeconds,
			VeryLongTrackSeconds:  engine.VeryLongTrackSeconds,
			ExcellentTrackSeconds: engine.ExcellentTrackSeconds,
			WeightFragmentation:   engine.Weights.Fragmentation,
			WeightPersistence:     engine.Weights.Persistence,
			WeightEfficiency:      engine.Weights.Efficiency,
			WeightExcellence:      engine.Weights.Excellence,
		},
		Input: Input{
			Classes: []string{"person"},
		},
		Storage: Storage{
			DatabasePath: defaultDatabasePath,
		},
		Logging: Logging{
			Format: defaultLogFormat,
			Level:  defaultLogLevel,
		},
	}
}
