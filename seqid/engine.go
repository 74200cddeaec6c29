package seqid

import (
	"log/slog"

	"github.com/google/uuid"
	"github.com/pkg/errors"
)

// Engine owns all state of a single run: identity mapping, tracks, lifecycle, merging and scoring.
// Frames must be pushed in strictly increasing order. Engine is not safe for concurrent use:
// upstream producers have to serialize their output back into frame order first.
type Engine struct {
	cfg    Config
	logger *slog.Logger
	runID  uuid.UUID

	store     *TrackStore
	mapper    *IdentityMapper
	lifecycle *TrackLifecycleManager
	merger    *TrackMerger
	scorer    *QualityScorer

	started         bool
	firstFrame      int
	lastFrame       int
	framesProcessed int
	accepted        int
	filtered        int
	duplicates      int
	recoveries      int
	warnings        []Warning

	report *Report
}

// Option configures Engine
type Option func(*Engine)

// WithLogger sets structured logger. Default logger discards everything
func WithLogger(logger *slog.Logger) Option {
	return func(engine *Engine) {
		if logger != nil {
			engine.logger = logger
		}
	}
}

// WithRunID sets run identifier put into the report. Default is random UUID
func WithRunID(runID uuid.UUID) Option {
	return func(engine *Engine) {
		engine.runID = runID
	}
}

// Assignment tells rendering layers which sequential id an observation got
type Assignment struct {
	RawID        int64
	SequentialID int
	Kind         ResolutionKind
	Position     Point
	BBox         Rectangle
	Confidence   float64
}

// Progress is a point-in-time view of a running engine
type Progress struct {
	FramesProcessed     int
	LastFrame           int
	ActiveTracks        int
	LostTracks          int
	SequentialIDsMinted int
}

// NewEngine validates configuration and creates engine for one run
func NewEngine(cfg Config, options ...Option) (*Engine, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	engine := &Engine{
		cfg:      cfg,
		logger:   discardLogger(),
		runID:    uuid.New(),
		warnings: make([]Warning, 0),
	}
	for _, option := range options {
		option(engine)
	}
	engine.store = NewTrackStore()
	engine.mapper = NewIdentityMapper(engine.store, cfg.MaxLostFrames, cfg.MaxMergeDistance)
	engine.lifecycle = NewTrackLifecycleManager(engine.store, engine.mapper, cfg.MaxLostFrames, cfg.PredictLostPositions, engine.logger)
	engine.merger = NewTrackMerger(cfg, engine.mapper, engine.logger)
	engine.scorer = NewQualityScorer(cfg)
	return engine, nil
}

// RunID returns identifier of this run
func (engine *Engine) RunID() uuid.UUID {
	return engine.runID
}

// Store gives read access to tracks
func (engine *Engine) Store() *TrackStore {
	return engine.store
}

// Mapper gives read access to raw id mappings
func (engine *Engine) Mapper() *IdentityMapper {
	return engine.mapper
}

// ProcessFrame folds one frame of observations into the tracks.
//
// The whole frame is validated before anything is mutated, so a returned error leaves the engine
// at the last fully applied frame. Duplicate raw ids are not errors: the highest confidence
// observation is kept and a warning is recorded.
func (engine *Engine) ProcessFrame(frameIndex int, observations []Observation) ([]Assignment, error) {
	if engine.report != nil {
		return nil, ErrEngineFinished
	}
	if engine.started && frameIndex <= engine.lastFrame {
		return nil, &OutOfOrderFrameError{Frame: frameIndex, LastFrame: engine.lastFrame}
	}
	for _, obs := range observations {
		if err := obs.validate(frameIndex); err != nil {
			return nil, errors.Wrapf(err, "frame %d rejected", frameIndex)
		}
	}

	confident := make([]Observation, 0, len(observations))
	for _, obs := range observations {
		if obs.Confidence < engine.cfg.ConfidenceThreshold {
			engine.filtered++
			continue
		}
		confident = append(confident, obs)
	}

	kept, duplicates := dedupeObservations(frameIndex, confident)
	for _, dup := range duplicates {
		engine.duplicates++
		engine.warnings = append(engine.warnings, Warning{
			Kind:    WarningDuplicateObservation,
			Frame:   dup.Frame,
			RawID:   dup.RawID,
			Message: dup.Error(),
		})
		engine.logger.Warn("duplicate observation discarded",
			"frame", dup.Frame,
			"raw_id", dup.RawID,
			"kept_confidence", dup.KeptConfidence,
			"discarded_confidence", dup.DiscardedConfidence,
		)
	}

	resolutions := engine.mapper.ResolveFrame(frameIndex, kept)
	for _, resolution := range resolutions {
		if track, ok := engine.store.Get(resolution.SequentialID); ok && track.status == TrackLost {
			engine.recoveries++
		}
	}
	engine.lifecycle.Apply(frameIndex, kept, resolutions)

	if !engine.started {
		engine.started = true
		engine.firstFrame = frameIndex
	}
	engine.lastFrame = frameIndex
	engine.framesProcessed++
	engine.accepted += len(kept)

	assignments := make([]Assignment, len(kept))
	for i, obs := range kept {
		assignments[i] = Assignment{
			RawID:        obs.RawID,
			SequentialID: resolutions[i].SequentialID,
			Kind:         resolutions[i].Kind,
			Position:     obs.Position,
			BBox:         obs.BBox,
			Confidence:   obs.Confidence,
		}
	}
	return assignments, nil
}

// Snapshot returns current progress counters
func (engine *Engine) Snapshot() Progress {
	return Progress{
		FramesProcessed:     engine.framesProcessed,
		LastFrame:           engine.lastFrame,
		ActiveTracks:        len(engine.store.ByStatus(TrackActive)),
		LostTracks:          len(engine.store.ByStatus(TrackLost)),
		SequentialIDsMinted: engine.mapper.MintedCount(),
	}
}

// Finish runs merge pass and quality scoring once. Later calls return the same report.
func (engine *Engine) Finish() (*Report, error) {
	if engine.report != nil {
		return engine.report, nil
	}
	decisions, err := engine.merger.Merge(engine.store)
	if err != nil {
		return nil, errors.Wrap(err, "Can't merge tracks")
	}

	tracks := engine.store.All()
	quality := engine.scorer.Score(tracks, engine.mapper.MintedCount(), engine.mapper.DistinctRawIDs())
	report := &Report{
		RunID:                engine.runID,
		Config:               newReportConfig(engine.cfg),
		FramesProcessed:      engine.framesProcessed,
		FirstFrame:           engine.firstFrame,
		LastFrame:            engine.lastFrame,
		ObservationsAccepted: engine.accepted,
		ObservationsFiltered: engine.filtered,
		DuplicatesDiscarded:  engine.duplicates,
		Recoveries:           engine.recoveries,
		Tracks:               make([]TrackReport, 0, len(tracks)),
		Merges:               decisions,
		Quality:              quality,
		Warnings:             engine.warnings,
	}
	for _, track := range tracks {
		finalTrack, ok := engine.store.FinalOf(track.sequentialID)
		if !ok {
			return nil, errors.Errorf("Can't resolve final track of %d", track.sequentialID)
		}
		report.Tracks = append(report.Tracks, newTrackReport(track, finalTrack, engine.scorer, engine.cfg.FrameRate))
	}
	engine.report = report

	engine.logger.Info("run finished",
		"run_id", engine.runID.String(),
		"frames", engine.framesProcessed,
		"sequential_ids", quality.SequentialIDsMinted,
		"final_tracks", quality.FinalTracks,
		"merged", len(decisions),
		"score", quality.CompositeScore,
		"rating", string(quality.Rating),
	)
	return report, nil
}
