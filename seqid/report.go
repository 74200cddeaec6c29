package seqid

import (
	"github.com/google/uuid"
)

// WarningKind enumerates recoverable problems met during a run
type WarningKind string

const (
	WarningDuplicateObservation WarningKind = "duplicate_observation"
)

// Warning is a recoverable per-frame problem surfaced in the report
type Warning struct {
	Kind    WarningKind `json:"kind"`
	Frame   int         `json:"frame"`
	RawID   int64       `json:"raw_id"`
	Message string      `json:"message"`
}

// TrackReport is the final state of a single track
type TrackReport struct {
	SequentialID int         `json:"sequential_id"`
	Status       TrackStatus `json:"status"`
	RawIDs       []int64     `json:"raw_ids"`
	FirstFrame   int         `json:"first_frame"`
	LastFrame    int         `json:"last_frame"`
	// Number of observed frames
	Duration        int     `json:"duration"`
	DurationSeconds float64 `json:"duration_seconds"`
	Recoveries      int     `json:"recoveries"`
	// Sequential id of the track which absorbed this one, 0 if none
	MergedInto int `json:"merged_into,omitempty"`
	// Non-merged track at the end of the MergedInto chain; equals SequentialID for final tracks
	FinalTrack int       `json:"final_track"`
	Absorbed   []int     `json:"absorbed,omitempty"`
	Scored     bool      `json:"scored"`
	Band       TrackBand `json:"band"`
	History    []Sample  `json:"history"`
}

// Report is the outcome of a complete run
type Report struct {
	RunID                uuid.UUID       `json:"run_id"`
	Config               ReportConfig    `json:"config"`
	FramesProcessed      int             `json:"frames_processed"`
	FirstFrame           int             `json:"first_frame"`
	LastFrame            int             `json:"last_frame"`
	ObservationsAccepted int             `json:"observations_accepted"`
	ObservationsFiltered int             `json:"observations_filtered"`
	DuplicatesDiscarded  int             `json:"duplicates_discarded"`
	Recoveries           int             `json:"recoveries"`
	Tracks               []TrackReport   `json:"tracks"`
	Merges               []MergeDecision `json:"merges"`
	Quality              QualitySummary  `json:"quality"`
	Warnings             []Warning       `json:"warnings"`
}

// ReportConfig echoes the settings a report was produced with
type ReportConfig struct {
	ConfidenceThreshold  float64      `json:"confidence_threshold"`
	MaxMergeDistance     float64      `json:"max_merge_distance"`
	MinTrackLength       int          `json:"min_track_length"`
	MaxLostFrames        int          `json:"max_lost_frames"`
	MergeWindow          int          `json:"merge_window"`
	FrameRate            float64      `json:"frame_rate"`
	Weights              ScoreWeights `json:"weights"`
	PredictLostPositions bool         `json:"predict_lost_positions"`
}

func newReportConfig(cfg Config) ReportConfig {
	return ReportConfig{
		ConfidenceThreshold:  cfg.ConfidenceThreshold,
		MaxMergeDistance:     cfg.MaxMergeDistance,
		MinTrackLength:       cfg.MinTrackLength,
		MaxLostFrames:        cfg.MaxLostFrames,
		MergeWindow:          cfg.MergeWindow,
		FrameRate:            cfg.FrameRate,
		Weights:              cfg.Weights,
		PredictLostPositions: cfg.PredictLostPositions,
	}
}

// FinalTracks returns reports of tracks which were not merged away, in sequential id order
func (report *Report) FinalTracks() []TrackReport {
	final := make([]TrackReport, 0, len(report.Tracks))
	for _, track := range report.Tracks {
		if track.Status != TrackMerged {
			final = append(final, track)
		}
	}
	return final
}

// Track returns report of the given sequential id
func (report *Report) Track(sequentialID int) (TrackReport, bool) {
	for _, track := range report.Tracks {
		if track.SequentialID == sequentialID {
			return track, true
		}
	}
	return TrackReport{}, false
}

func newTrackReport(track *Track, finalTrack int, scorer *QualityScorer, frameRate float64) TrackReport {
	mergedInto, _ := track.GetMergedInto()
	history := make([]Sample, len(track.history))
	copy(history, track.history)
	var absorbed []int
	if len(track.absorbed) > 0 {
		absorbed = make([]int, len(track.absorbed))
		copy(absorbed, track.absorbed)
	}
	return TrackReport{
		SequentialID:    track.sequentialID,
		Status:          track.status,
		RawIDs:          track.GetRawIDs(),
		FirstFrame:      track.GetFirstFrame(),
		LastFrame:       track.GetLastFrame(),
		Duration:        track.GetDuration(),
		DurationSeconds: float64(track.GetDuration()) / frameRate,
		Recoveries:      track.recoveries,
		MergedInto:      mergedInto,
		FinalTrack:      finalTrack,
		Absorbed:        absorbed,
		Scored:          track.status != TrackMerged && scorer.IsScored(track.GetDuration()),
		Band:            scorer.Band(track.GetDuration()),
		History:         history,
	}
}
