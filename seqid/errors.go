package seqid

import (
	"fmt"

	"github.com/pkg/errors"
)

var (
	// ErrMalformedObservation is returned when an observation breaks the input contract (NaN position, wrong frame index)
	ErrMalformedObservation = errors.New("malformed observation")
	// ErrEngineFinished is returned when frames are pushed after Finish
	ErrEngineFinished = errors.New("engine already finished")
)

// OutOfOrderFrameError is returned when a frame index is not strictly greater than the last processed one.
// It is fatal for the run: the engine state stays at the last fully applied frame.
type OutOfOrderFrameError struct {
	Frame     int
	LastFrame int
}

func (e *OutOfOrderFrameError) Error() string {
	return fmt.Sprintf("frame %d is out of order: last processed frame is %d", e.Frame, e.LastFrame)
}

// DuplicateObservationError describes two observations of the same raw id within one frame.
// It never aborts a run: the highest-confidence observation is kept and the event is surfaced as a warning.
type DuplicateObservationError struct {
	Frame               int
	RawID               int64
	KeptConfidence      float64
	DiscardedConfidence float64
}

func (e *DuplicateObservationError) Error() string {
	return fmt.Sprintf("frame %d: duplicate observation of raw id %d (kept confidence %.3f, discarded %.3f)",
		e.Frame, e.RawID, e.KeptConfidence, e.DiscardedConfidence)
}

// ConfigurationError is returned by Config.Validate and NewEngine for unusable settings
type ConfigurationError struct {
	Field  string
	Reason string
}

func (e *ConfigurationError) Error() string {
	return fmt.Sprintf("invalid configuration: %s %s", e.Field, e.Reason)
}
