package seqid

import (
	"log/slog"
)

// TrackLifecycleManager advances ACTIVE/LOST/DEAD state machine of every track once per frame.
type TrackLifecycleManager struct {
	store         *TrackStore
	mapper        *IdentityMapper
	maxLostFrames int
	useMotion     bool
	logger        *slog.Logger
}

// NewTrackLifecycleManager creates lifecycle manager working on top of the given store and mapper
func NewTrackLifecycleManager(store *TrackStore, mapper *IdentityMapper, maxLostFrames int, useMotion bool, logger *slog.Logger) *TrackLifecycleManager {
	if logger == nil {
		logger = discardLogger()
	}
	return &TrackLifecycleManager{
		store:         store,
		mapper:        mapper,
		maxLostFrames: maxLostFrames,
		useMotion:     useMotion,
		logger:        logger,
	}
}

// Apply folds one frame's resolved observations into the tracks and advances every unobserved live track.
// resolutions[i] must describe observations[i].
func (manager *TrackLifecycleManager) Apply(frameIndex int, observations []Observation, resolutions []Resolution) {
	observed := make(map[int]struct{}, len(resolutions))
	for i, resolution := range resolutions {
		track, ok := manager.store.Get(resolution.SequentialID)
		if !ok {
			continue
		}
		manager.observe(track, frameIndex, observations[i].Position, resolution)
		observed[track.sequentialID] = struct{}{}
	}

	for _, track := range manager.store.ByStatus(TrackActive, TrackLost) {
		if _, ok := observed[track.sequentialID]; ok {
			continue
		}
		manager.miss(track, frameIndex)
	}
}

// observe handles ACTIVE -> ACTIVE and LOST -> ACTIVE transitions
func (manager *TrackLifecycleManager) observe(track *Track, frameIndex int, position Point, resolution Resolution) {
	if track.status == TrackLost {
		track.recoveries++
		manager.logger.Info("track recovered",
			"frame", frameIndex,
			"sequential_id", track.sequentialID,
			"raw_id", resolution.RawID,
			"lost_since", track.lostSinceFrame,
			"lost_frames", track.consecutiveLostFrames,
			"kind", resolution.Kind.String(),
		)
	} else if resolution.Kind == ResolutionNew {
		manager.logger.Debug("new mapping",
			"frame", frameIndex,
			"raw_id", resolution.RawID,
			"sequential_id", track.sequentialID,
		)
	}
	track.status = TrackActive
	track.lostSinceFrame = 0
	track.consecutiveLostFrames = 0
	track.appendSample(frameIndex, position)

	if !manager.useMotion {
		return
	}
	if track.motion == nil {
		track.motion = newMotionModel(position)
		return
	}
	if err := track.motion.observe(position); err != nil {
		// Singular filter state: restart smoothing from the measured position
		manager.logger.Warn("motion model reset", "sequential_id", track.sequentialID, "frame", frameIndex, "error", err)
		track.motion = newMotionModel(position)
	}
}

// miss handles ACTIVE -> LOST, LOST -> LOST and LOST -> DEAD transitions
func (manager *TrackLifecycleManager) miss(track *Track, frameIndex int) {
	if track.status == TrackActive {
		track.status = TrackLost
		track.lostSinceFrame = frameIndex
	}
	track.consecutiveLostFrames++
	if track.motion != nil {
		track.motion.predict()
	}
	if track.consecutiveLostFrames > manager.maxLostFrames {
		track.status = TrackDead
		manager.mapper.release(track)
		manager.logger.Debug("track dead",
			"frame", frameIndex,
			"sequential_id", track.sequentialID,
			"lost_since", track.lostSinceFrame,
		)
	}
}
