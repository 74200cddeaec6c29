package seqid

import (
	"log/slog"
	"runtime"

	"github.com/pkg/errors"
	"golang.org/x/sync/errgroup"
	"gonum.org/v1/gonum/stat"
)

// MergeDecision records one source track absorbed into a target track
type MergeDecision struct {
	Target int `json:"target"`
	Source int `json:"source"`
	// Frames between target's last and source's first observation. Negative when histories overlap
	Gap          int     `json:"gap"`
	MeanDistance float64 `json:"mean_distance"`
	Samples      int     `json:"samples"`
}

// TrackMerger fuses tracks which represent the same physical subject. It runs once after the stream ends.
type TrackMerger struct {
	mapper           *IdentityMapper
	maxMergeDistance float64
	maxLostFrames    int
	minTrackLength   int
	window           int
	workers          int
	logger           *slog.Logger
}

// NewTrackMerger creates merger. Mapper is optional: when given, live raw id mappings follow merged tracks.
func NewTrackMerger(cfg Config, mapper *IdentityMapper, logger *slog.Logger) *TrackMerger {
	if logger == nil {
		logger = discardLogger()
	}
	return &TrackMerger{
		mapper:           mapper,
		maxMergeDistance: cfg.MaxMergeDistance,
		maxLostFrames:    cfg.MaxLostFrames,
		minTrackLength:   cfg.MinTrackLength,
		window:           cfg.MergeWindow,
		workers:          runtime.GOMAXPROCS(0),
		logger:           logger,
	}
}

// mergeCandidate is an evaluated (target, source) pair
type mergeCandidate struct {
	target        *Track
	source        *Track
	targetVersion int
	sourceVersion int
	gap           int
	distance      float64
	samples       int
}

// Smallest gap first, then smallest distance, then ids
func mergeCandidateLess(a, b *mergeCandidate) bool {
	if a.gap != b.gap {
		return a.gap < b.gap
	}
	if a.distance != b.distance {
		return a.distance < b.distance
	}
	if a.target.sequentialID != b.target.sequentialID {
		return a.target.sequentialID < b.target.sequentialID
	}
	return a.source.sequentialID < b.source.sequentialID
}

// Merge consolidates every non-merged track of the store and returns decisions in application order.
// Running it again over its own result changes nothing.
func (merger *TrackMerger) Merge(store *TrackStore) ([]MergeDecision, error) {
	tracks := store.ByStatus(TrackActive, TrackLost, TrackDead)
	versions := make(map[int]int, len(tracks))

	candidates := make([]*mergeCandidate, 0)
	for i := range tracks {
		for j := i + 1; j < len(tracks); j++ {
			if candidate, ok := merger.pair(tracks[i], tracks[j], versions); ok {
				candidates = append(candidates, candidate)
			}
		}
	}

	// Distances only read histories, so they are evaluated concurrently
	group := errgroup.Group{}
	group.SetLimit(merger.workers)
	for _, candidate := range candidates {
		group.Go(func() error {
			return merger.evaluate(candidate)
		})
	}
	if err := group.Wait(); err != nil {
		return nil, errors.Wrap(err, "Can't evaluate merge candidates")
	}

	priorityQueue := newMinHeap(mergeCandidateLess)
	for _, candidate := range candidates {
		priorityQueue.Push(candidate)
	}

	decisions := make([]MergeDecision, 0)
	for priorityQueue.Len() > 0 {
		candidate := priorityQueue.Pop()
		target, source := candidate.target, candidate.source
		if target.status == TrackMerged || source.status == TrackMerged {
			continue
		}
		if versions[target.sequentialID] != candidate.targetVersion || versions[source.sequentialID] != candidate.sourceVersion {
			// Stale: a fresh entry has been pushed when the version changed
			continue
		}
		if !(candidate.distance < merger.maxMergeDistance) {
			continue
		}

		merger.absorb(target, source)
		versions[target.sequentialID]++
		decision := MergeDecision{
			Target:       target.sequentialID,
			Source:       source.sequentialID,
			Gap:          candidate.gap,
			MeanDistance: candidate.distance,
			Samples:      candidate.samples,
		}
		decisions = append(decisions, decision)
		merger.logger.Info("tracks merged",
			"target", decision.Target,
			"source", decision.Source,
			"gap", decision.Gap,
			"mean_distance", decision.MeanDistance,
		)

		// Target's history changed: re-pair it with every remaining track
		for _, other := range store.ByStatus(TrackActive, TrackLost, TrackDead) {
			if other.sequentialID == target.sequentialID {
				continue
			}
			fresh, ok := merger.pair(target, other, versions)
			if !ok {
				continue
			}
			if err := merger.evaluate(fresh); err != nil {
				return nil, errors.Wrapf(err, "Can't evaluate merge candidate %d <- %d", fresh.target.sequentialID, fresh.source.sequentialID)
			}
			priorityQueue.Push(fresh)
		}
	}
	return decisions, nil
}

// pair orders two tracks into (target, source) and checks structural eligibility.
// Target is the track seen first (ties: smaller id) unless it is shorter than the minimum track length
// while the later one is long enough: then the later track absorbs the short leading fragment.
// Source may be of any length.
func (merger *TrackMerger) pair(a, b *Track, versions map[int]int) (*mergeCandidate, bool) {
	if len(a.history) == 0 || len(b.history) == 0 {
		return nil, false
	}
	leading, trailing := timeOrdered(a, b)
	gap := trailing.GetFirstFrame() - leading.GetLastFrame() - 1
	if gap > merger.maxLostFrames {
		return nil, false
	}
	target, source := leading, trailing
	if len(leading.history) < merger.minTrackLength {
		if len(trailing.history) < merger.minTrackLength {
			return nil, false
		}
		target, source = trailing, leading
	}
	return &mergeCandidate{
		target:        target,
		source:        source,
		targetVersion: versions[target.sequentialID],
		sourceVersion: versions[source.sequentialID],
		gap:           gap,
	}, true
}

// timeOrdered returns the track seen first, ties broken by smaller sequential id
func timeOrdered(a, b *Track) (*Track, *Track) {
	if b.GetFirstFrame() < a.GetFirstFrame() || (b.GetFirstFrame() == a.GetFirstFrame() && b.sequentialID < a.sequentialID) {
		return b, a
	}
	return a, b
}

// evaluate computes mean distance between time-aligned samples of the pair
func (merger *TrackMerger) evaluate(candidate *mergeCandidate) error {
	leading, trailing := timeOrdered(candidate.target, candidate.source)
	dists, err := alignedDistances(leading, trailing, merger.window)
	if err != nil {
		return err
	}
	candidate.distance = stat.Mean(dists, nil)
	candidate.samples = len(dists)
	return nil
}

// alignedDistances pairs samples of two tracks around their junction. Leading track must not start after trailing one.
//
// Disjoint histories: last k samples of leading against first k of trailing, moving outward from the gap.
// Overlapping histories: up to k trailing samples inside the overlap against leading's nearest-frame samples.
func alignedDistances(leading, trailing *Track, k int) ([]float64, error) {
	if len(leading.history) == 0 || len(trailing.history) == 0 {
		return nil, errors.Errorf("track %d or %d has no history", leading.sequentialID, trailing.sequentialID)
	}
	dists := make([]float64, 0, k)
	if trailing.GetFirstFrame() > leading.GetLastFrame() {
		m := minInt(k, minInt(len(leading.history), len(trailing.history)))
		n := len(leading.history)
		for j := 0; j < m; j++ {
			dists = append(dists, euclideanDistance(leading.history[n-1-j].Position, trailing.history[j].Position))
		}
		return dists, nil
	}
	overlapEnd := minInt(leading.GetLastFrame(), trailing.GetLastFrame())
	for _, sample := range trailing.history {
		if sample.Frame > overlapEnd || len(dists) >= k {
			break
		}
		nearest := leading.history[leading.sampleIndexNearest(sample.Frame)]
		dists = append(dists, euclideanDistance(nearest.Position, sample.Position))
	}
	if len(dists) == 0 {
		return nil, errors.Errorf("tracks %d and %d have no aligned samples", leading.sequentialID, trailing.sequentialID)
	}
	return dists, nil
}

// absorb moves source's history and raw ids into target and marks source as merged
func (merger *TrackMerger) absorb(target, source *Track) {
	sourceEndsLater := source.GetLastFrame() > target.GetLastFrame()

	target.history = mergeHistories(target.history, source.history)
	for rawID := range source.rawIDsSeen {
		target.rawIDsSeen[rawID] = struct{}{}
	}
	target.recoveries += source.recoveries
	target.absorbed = append(target.absorbed, source.sequentialID)

	if sourceEndsLater {
		// Target continues as the source did at the end of the stream
		if merger.mapper != nil && target.status.isLive() {
			merger.mapper.release(target)
		}
		target.status = source.status
		target.currentRawID = source.currentRawID
		target.lostSinceFrame = source.lostSinceFrame
		target.consecutiveLostFrames = source.consecutiveLostFrames
		target.motion = source.motion
		if merger.mapper != nil && source.status.isLive() {
			merger.mapper.live[source.currentRawID] = target.sequentialID
		}
	} else if merger.mapper != nil && source.status.isLive() {
		merger.mapper.release(source)
	}

	source.status = TrackMerged
	source.mergedInto = target.sequentialID
	source.lostSinceFrame = 0
	source.motion = nil
}

// mergeHistories merges two frame-ordered histories. On equal frame index the primary sample is kept.
func mergeHistories(primary, secondary []Sample) []Sample {
	merged := make([]Sample, 0, len(primary)+len(secondary))
	i, j := 0, 0
	for i < len(primary) && j < len(secondary) {
		switch {
		case primary[i].Frame < secondary[j].Frame:
			merged = append(merged, primary[i])
			i++
		case primary[i].Frame > secondary[j].Frame:
			merged = append(merged, secondary[j])
			j++
		default:
			merged = append(merged, primary[i])
			i++
			j++
		}
	}
	merged = append(merged, primary[i:]...)
	merged = append(merged, secondary[j:]...)
	return merged
}
