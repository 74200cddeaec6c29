package seqid

import (
	"sort"

	"github.com/pkg/errors"
)

// TrackStatus is lifecycle state of a track
type TrackStatus uint8

const (
	// TrackActive - observed in the most recent frame
	TrackActive TrackStatus = iota + 1
	// TrackLost - not observed recently, still recoverable
	TrackLost
	// TrackDead - lost past the limit, accepts no observations
	TrackDead
	// TrackMerged - absorbed into another track by the merge pass. Terminal
	TrackMerged
)

func (status TrackStatus) String() string {
	switch status {
	case TrackActive:
		return "ACTIVE"
	case TrackLost:
		return "LOST"
	case TrackDead:
		return "DEAD"
	case TrackMerged:
		return "MERGED"
	default:
		return "UNKNOWN"
	}
}

// MarshalText implements encoding.TextMarshaler so status shows up as a word in JSON reports
func (status TrackStatus) MarshalText() ([]byte, error) {
	return []byte(status.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler
func (status *TrackStatus) UnmarshalText(text []byte) error {
	switch string(text) {
	case "ACTIVE":
		*status = TrackActive
	case "LOST":
		*status = TrackLost
	case "DEAD":
		*status = TrackDead
	case "MERGED":
		*status = TrackMerged
	default:
		return errors.Errorf("unknown track status %q", string(text))
	}
	return nil
}

// isLive reports whether track still holds a raw id mapping
func (status TrackStatus) isLive() bool {
	return status == TrackActive || status == TrackLost
}

// Sample is a single position of a track
type Sample struct {
	Frame    int   `json:"frame"`
	Position Point `json:"position"`
}

// Track is accumulated history of one subject under one sequential identifier.
// Fields are mutated only by TrackLifecycleManager and TrackMerger.
type Track struct {
	sequentialID          int
	currentRawID          int64
	rawIDsSeen            map[int64]struct{}
	history               []Sample
	status                TrackStatus
	lostSinceFrame        int
	consecutiveLostFrames int
	recoveries            int
	mergedInto            int
	absorbed              []int
	motion                *motionModel
}

func newTrack(sequentialID int, rawID int64) *Track {
	return &Track{
		sequentialID: sequentialID,
		currentRawID: rawID,
		rawIDsSeen:   map[int64]struct{}{rawID: {}},
		history:      make([]Sample, 0, 64),
		status:       TrackActive,
	}
}

// GetSequentialID returns track's sequential identifier
func (track *Track) GetSequentialID() int {
	return track.sequentialID
}

// GetStatus returns track's lifecycle state
func (track *Track) GetStatus() TrackStatus {
	return track.status
}

// GetCurrentRawID returns raw identifier through which track is (or was last) live
func (track *Track) GetCurrentRawID() int64 {
	return track.currentRawID
}

// GetRawIDs returns every raw id ever mapped to the track in ascending order
func (track *Track) GetRawIDs() []int64 {
	ids := make([]int64, 0, len(track.rawIDsSeen))
	for id := range track.rawIDsSeen {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	return ids
}

// GetHistory returns track's positions. Be careful: this is not copy of history, but reference to it
func (track *Track) GetHistory() []Sample {
	return track.history
}

// GetDuration returns number of frames in which track was observed
func (track *Track) GetDuration() int {
	return len(track.history)
}

// GetFirstFrame returns frame of the first observation (0 when track has no history)
func (track *Track) GetFirstFrame() int {
	if len(track.history) == 0 {
		return 0
	}
	return track.history[0].Frame
}

// GetLastFrame returns frame of the most recent observation (0 when track has no history)
func (track *Track) GetLastFrame() int {
	if len(track.history) == 0 {
		return 0
	}
	return track.history[len(track.history)-1].Frame
}

// GetLastPosition returns the most recent observed position
func (track *Track) GetLastPosition() Point {
	if len(track.history) == 0 {
		return Point{}
	}
	return track.history[len(track.history)-1].Position
}

// GetLostSinceFrame returns frame at which track became lost. Second value is false while track is not lost
func (track *Track) GetLostSinceFrame() (int, bool) {
	if track.status != TrackLost {
		return 0, false
	}
	return track.lostSinceFrame, true
}

// GetConsecutiveLostFrames returns number of frames since last observation
func (track *Track) GetConsecutiveLostFrames() int {
	return track.consecutiveLostFrames
}

// GetRecoveries returns how many times track came back from LOST
func (track *Track) GetRecoveries() int {
	return track.recoveries
}

// GetMergedInto returns id of the track which absorbed this one. Second value is false when track was not merged
func (track *Track) GetMergedInto() (int, bool) {
	return track.mergedInto, track.status == TrackMerged
}

// GetAbsorbed returns ids of tracks merged into this one in merge order
func (track *Track) GetAbsorbed() []int {
	return track.absorbed
}

// referencePosition is the position recovery distance is measured against
func (track *Track) referencePosition() Point {
	if track.motion != nil {
		return track.motion.position()
	}
	return track.GetLastPosition()
}

func (track *Track) appendSample(frame int, position Point) {
	track.history = append(track.history, Sample{Frame: frame, Position: position})
}

// sampleIndexNearest returns index of history sample closest in frame index to the given frame.
// Ties go to the earlier sample.
func (track *Track) sampleIndexNearest(frame int) int {
	idx := sort.Search(len(track.history), func(i int) bool {
		return track.history[i].Frame >= frame
	})
	if idx == len(track.history) {
		return idx - 1
	}
	if idx == 0 {
		return 0
	}
	if track.history[idx].Frame-frame < frame-track.history[idx-1].Frame {
		return idx
	}
	return idx - 1
}
