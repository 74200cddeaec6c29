package seqid

import (
	"github.com/pkg/errors"
)

// Observation is a single detector/tracker output for one frame.
type Observation struct {
	RawID      int64
	FrameIndex int
	Position   Point
	Confidence float64
	Class      string
	// Optional source bounding box, kept for rendering layers
	BBox Rectangle
}

// NewObservation creates observation positioned at the given point
func NewObservation(rawID int64, frameIndex int, position Point, confidence float64) Observation {
	return Observation{
		RawID:      rawID,
		FrameIndex: frameIndex,
		Position:   position,
		Confidence: confidence,
	}
}

// NewObservationFromBBox creates observation positioned at bounding box center
func NewObservationFromBBox(rawID int64, frameIndex int, bbox Rectangle, confidence float64, class string) Observation {
	return Observation{
		RawID:      rawID,
		FrameIndex: frameIndex,
		Position:   bbox.Center(),
		Confidence: confidence,
		Class:      class,
		BBox:       bbox,
	}
}

func (obs Observation) validate(frameIndex int) error {
	if obs.FrameIndex != frameIndex {
		return errors.Wrapf(ErrMalformedObservation, "raw id %d claims frame %d inside frame %d", obs.RawID, obs.FrameIndex, frameIndex)
	}
	if !obs.Position.isFinite() {
		return errors.Wrapf(ErrMalformedObservation, "raw id %d has non-finite position", obs.RawID)
	}
	if obs.Confidence != obs.Confidence {
		return errors.Wrapf(ErrMalformedObservation, "raw id %d has NaN confidence", obs.RawID)
	}
	return nil
}

// dedupeObservations keeps one observation per raw id (the highest confidence one, first wins on ties).
// Input order of the survivors is preserved.
func dedupeObservations(frameIndex int, observations []Observation) ([]Observation, []*DuplicateObservationError) {
	keptIdx := make(map[int64]int, len(observations))
	kept := make([]Observation, 0, len(observations))
	var duplicates []*DuplicateObservationError
	for _, obs := range observations {
		idx, ok := keptIdx[obs.RawID]
		if !ok {
			keptIdx[obs.RawID] = len(kept)
			kept = append(kept, obs)
			continue
		}
		dup := &DuplicateObservationError{
			Frame: frameIndex,
			RawID: obs.RawID,
		}
		if obs.Confidence > kept[idx].Confidence {
			dup.KeptConfidence = obs.Confidence
			dup.DiscardedConfidence = kept[idx].Confidence
			kept[idx] = obs
		} else {
			dup.KeptConfidence = kept[idx].Confidence
			dup.DiscardedConfidence = obs.Confidence
		}
		duplicates = append(duplicates, dup)
	}
	return kept, duplicates
}
