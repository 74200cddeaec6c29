package seqid

import (
	"math"
)

// ScoreWeights are the points each quality component contributes to the composite score.
// They must be non-negative and sum to 100.
type ScoreWeights struct {
	Fragmentation float64
	Persistence   float64
	Efficiency    float64
	Excellence    float64
}

// Sum returns total number of points
func (w ScoreWeights) Sum() float64 {
	return w.Fragmentation + w.Persistence + w.Efficiency + w.Excellence
}

// DefaultScoreWeights returns 35/25/25/15 split
func DefaultScoreWeights() ScoreWeights {
	return ScoreWeights{
		Fragmentation: 35,
		Persistence:   25,
		Efficiency:    25,
		Excellence:    15,
	}
}

// Config holds every numeric knob of the engine.
type Config struct {
	// Minimum detector confidence. Usually applied upstream, observations below it are dropped. Default 0.25
	ConfidenceThreshold float64
	// Max distance (pixels or normalized units) for recovery and merging. Default 100
	MaxMergeDistance float64
	// Tracks shorter than this (in observed frames) are neither scored nor merge targets. Default 15
	MinTrackLength int
	// Max number of frames a track may stay lost before it dies. Default 30
	MaxLostFrames int
	// Number of samples (k) compared on each side when merging. Default 10
	MergeWindow int
	// Frame rate used to turn duration thresholds into frames. Default 25
	FrameRate float64
	// Duration thresholds (seconds). Defaults 3, 6, 10
	LongTrackSeconds      float64
	VeryLongTrackSeconds  float64
	ExcellentTrackSeconds float64
	// Composite score weights
	Weights ScoreWeights
	// Measure recovery distance against Kalman-predicted position rather than last observed one. Default false
	PredictLostPositions bool
}

// DefaultConfig returns defaults tuned for broadcast football footage at 25 fps
func DefaultConfig() Config {
	return Config{
		ConfidenceThreshold:   0.25,
		MaxMergeDistance:      100.0,
		MinTrackLength:        15,
		MaxLostFrames:         30,
		MergeWindow:           10,
		FrameRate:             25.0,
		LongTrackSeconds:      3.0,
		VeryLongTrackSeconds:  6.0,
		ExcellentTrackSeconds: 10.0,
		Weights:               DefaultScoreWeights(),
		PredictLostPositions:  false,
	}
}

// DurationThresholds are track duration limits expressed in frames
type DurationThresholds struct {
	Long      int `json:"long"`
	VeryLong  int `json:"very_long"`
	Excellent int `json:"excellent"`
}

// Thresholds converts duration thresholds from seconds to frames
func (cfg Config) Thresholds() DurationThresholds {
	return DurationThresholds{
		Long:      int(math.Round(cfg.LongTrackSeconds * cfg.FrameRate)),
		VeryLong:  int(math.Round(cfg.VeryLongTrackSeconds * cfg.FrameRate)),
		Excellent: int(math.Round(cfg.ExcellentTrackSeconds * cfg.FrameRate)),
	}
}

// Validate checks every field and returns *ConfigurationError for the first bad one
func (cfg Config) Validate() error {
	if !(cfg.ConfidenceThreshold >= 0 && cfg.ConfidenceThreshold <= 1) {
		return &ConfigurationError{Field: "confidence_threshold", Reason: "must be within [0, 1]"}
	}
	if !(cfg.MaxMergeDistance > 0) || math.IsInf(cfg.MaxMergeDistance, 0) {
		return &ConfigurationError{Field: "max_merge_distance", Reason: "must be a positive finite number"}
	}
	if cfg.MinTrackLength <= 0 {
		return &ConfigurationError{Field: "min_track_length", Reason: "must be positive"}
	}
	if cfg.MaxLostFrames <= 0 {
		return &ConfigurationError{Field: "max_lost_frames", Reason: "must be positive"}
	}
	if cfg.MergeWindow <= 0 {
		return &ConfigurationError{Field: "merge_window", Reason: "must be positive"}
	}
	if !(cfg.FrameRate > 0) || math.IsInf(cfg.FrameRate, 0) {
		return &ConfigurationError{Field: "frame_rate", Reason: "must be a positive finite number"}
	}
	if !(cfg.LongTrackSeconds > 0) || !(cfg.VeryLongTrackSeconds > 0) || !(cfg.ExcellentTrackSeconds > 0) {
		return &ConfigurationError{Field: "duration thresholds", Reason: "must be positive"}
	}
	if cfg.LongTrackSeconds > cfg.VeryLongTrackSeconds || cfg.VeryLongTrackSeconds > cfg.ExcellentTrackSeconds {
		return &ConfigurationError{Field: "duration thresholds", Reason: "must satisfy long <= very_long <= excellent"}
	}
	if cfg.Thresholds().Long < 1 {
		return &ConfigurationError{Field: "long_track_seconds", Reason: "is shorter than one frame at the configured frame rate"}
	}
	w := cfg.Weights
	for _, v := range []float64{w.Fragmentation, w.Persistence, w.Efficiency, w.Excellence} {
		if !(v >= 0) || v > 100 {
			return &ConfigurationError{Field: "weights", Reason: "each weight must be within [0, 100]"}
		}
	}
	if math.Abs(w.Sum()-100) > 1e-6 {
		return &ConfigurationError{Field: "weights", Reason: "must sum to 100"}
	}
	return nil
}
