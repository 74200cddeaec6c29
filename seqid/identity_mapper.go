package seqid

import (
	"math"
)

// ResolutionKind tells how a raw id was turned into a sequential id
type ResolutionKind uint8

const (
	// ResolutionExisting - raw id already has live mapping
	ResolutionExisting ResolutionKind = iota + 1
	// ResolutionRecovered - unseen raw id was attributed to a nearby lost track
	ResolutionRecovered
	// ResolutionNew - new sequential id was minted
	ResolutionNew
)

func (kind ResolutionKind) String() string {
	switch kind {
	case ResolutionExisting:
		return "existing"
	case ResolutionRecovered:
		return "recovered"
	case ResolutionNew:
		return "new"
	default:
		return "unknown"
	}
}

// MarshalText implements encoding.TextMarshaler
func (kind ResolutionKind) MarshalText() ([]byte, error) {
	return []byte(kind.String()), nil
}

// Resolution is the outcome of mapping a single raw id
type Resolution struct {
	Kind         ResolutionKind
	RawID        int64
	SequentialID int
	// Distance to the recovered track's reference position. Only meaningful for ResolutionRecovered
	Distance float64
}

// IdentityMapper maps raw detector ids to sequential ids and mints new ones.
type IdentityMapper struct {
	store *TrackStore
	// Current raw id -> sequential id, only for ACTIVE and LOST tracks
	live map[int64]int
	// Every raw id ever resolved
	seen map[int64]struct{}
	// Largest sequential id minted so far
	maxID int

	maxLostFrames    int
	maxMergeDistance float64
}

// NewIdentityMapper creates mapper which registers new tracks in the given store
func NewIdentityMapper(store *TrackStore, maxLostFrames int, maxMergeDistance float64) *IdentityMapper {
	return &IdentityMapper{
		store:            store,
		live:             make(map[int64]int),
		seen:             make(map[int64]struct{}),
		maxID:            0,
		maxLostFrames:    maxLostFrames,
		maxMergeDistance: maxMergeDistance,
	}
}

// recoveryPair is possible attribution of unseen raw id to lost track
type recoveryPair struct {
	obsIdx       int
	rawID        int64
	sequentialID int
	distance     float64
}

func recoveryPairLess(a, b recoveryPair) bool {
	if a.distance != b.distance {
		return a.distance < b.distance
	}
	if a.sequentialID != b.sequentialID {
		return a.sequentialID < b.sequentialID
	}
	return a.rawID < b.rawID
}

// Resolve maps a single observation. It is ResolveFrame for one-element frame.
func (mapper *IdentityMapper) Resolve(obs Observation) Resolution {
	return mapper.ResolveFrame(obs.FrameIndex, []Observation{obs})[0]
}

// ResolveFrame maps every observation of one frame. Observations must have distinct raw ids.
//
// Raw ids with a live mapping resolve to their track first. Remaining raw ids compete for lost
// tracks nearest pair first, so the outcome does not depend on observation order. Whatever is
// left mints new sequential ids in input order.
func (mapper *IdentityMapper) ResolveFrame(frameIndex int, observations []Observation) []Resolution {
	resolutions := make([]Resolution, len(observations))
	resolved := make([]bool, len(observations))
	// Tracks which have been claimed in this frame
	reserved := make(map[int]struct{})

	pending := make([]int, 0)
	for i, obs := range observations {
		mapper.seen[obs.RawID] = struct{}{}
		if seqID, ok := mapper.live[obs.RawID]; ok {
			resolutions[i] = Resolution{Kind: ResolutionExisting, RawID: obs.RawID, SequentialID: seqID}
			resolved[i] = true
			reserved[seqID] = struct{}{}
			continue
		}
		pending = append(pending, i)
	}

	if len(pending) > 0 {
		mapper.recover(frameIndex, observations, pending, resolutions, resolved, reserved)
	}

	for _, i := range pending {
		if resolved[i] {
			continue
		}
		rawID := observations[i].RawID
		mapper.maxID++
		mapper.store.create(mapper.maxID, rawID)
		mapper.live[rawID] = mapper.maxID
		resolutions[i] = Resolution{Kind: ResolutionNew, RawID: rawID, SequentialID: mapper.maxID}
		resolved[i] = true
	}
	return resolutions
}

// recover attributes pending raw ids to lost tracks within time and distance limits
func (mapper *IdentityMapper) recover(frameIndex int, observations []Observation, pending []int, resolutions []Resolution, resolved []bool, reserved map[int]struct{}) {
	candidates := make([]*Track, 0)
	for _, track := range mapper.store.ByStatus(TrackLost) {
		if _, ok := reserved[track.sequentialID]; ok {
			continue
		}
		if frameIndex-track.lostSinceFrame > mapper.maxLostFrames {
			continue
		}
		candidates = append(candidates, track)
	}
	if len(candidates) == 0 {
		return
	}

	priorityQueue := newMinHeap(recoveryPairLess)
	for _, i := range pending {
		obs := observations[i]
		for _, track := range candidates {
			dist := euclideanDistance(obs.Position, track.referencePosition())
			if dist > mapper.maxMergeDistance || math.IsNaN(dist) {
				continue
			}
			priorityQueue.Push(recoveryPair{
				obsIdx:       i,
				rawID:        obs.RawID,
				sequentialID: track.sequentialID,
				distance:     dist,
			})
		}
	}

	// Same as trackers do: nearest pairs first and never update a track twice
	for priorityQueue.Len() > 0 {
		pair := priorityQueue.Pop()
		if resolved[pair.obsIdx] {
			continue
		}
		if _, ok := reserved[pair.sequentialID]; ok {
			continue
		}
		track, _ := mapper.store.Get(pair.sequentialID)
		delete(mapper.live, track.currentRawID)
		track.currentRawID = pair.rawID
		track.rawIDsSeen[pair.rawID] = struct{}{}
		mapper.live[pair.rawID] = pair.sequentialID
		reserved[pair.sequentialID] = struct{}{}
		resolved[pair.obsIdx] = true
		resolutions[pair.obsIdx] = Resolution{
			Kind:         ResolutionRecovered,
			RawID:        pair.rawID,
			SequentialID: pair.sequentialID,
			Distance:     pair.distance,
		}
	}
}

// release drops live mapping of a track which can no longer receive observations
func (mapper *IdentityMapper) release(track *Track) {
	if seqID, ok := mapper.live[track.currentRawID]; ok && seqID == track.sequentialID {
		delete(mapper.live, track.currentRawID)
	}
}

// Lookup returns sequential id currently mapped to the raw id
func (mapper *IdentityMapper) Lookup(rawID int64) (int, bool) {
	seqID, ok := mapper.live[rawID]
	return seqID, ok
}

// MintedCount returns how many sequential ids have been minted
func (mapper *IdentityMapper) MintedCount() int {
	return mapper.maxID
}

// DistinctRawIDs returns how many different raw ids have been resolved
func (mapper *IdentityMapper) DistinctRawIDs() int {
	return len(mapper.seen)
}
