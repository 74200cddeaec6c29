package obsio

import (
	"encoding/csv"
	"fmt"
	"io"
	"strconv"

	"github.com/LdDl/mot-seqid/seqid"
)

var assignmentHeader = []string{"frame", "raw_id", "sequential_id", "resolution", "x", "y", "confidence"}

// AssignmentWriter writes per-frame sequential id assignments for rendering layers.
type AssignmentWriter struct {
	csv         *csv.Writer
	wroteHeader bool
}

// NewAssignmentWriter creates writer on top of w.
func NewAssignmentWriter(w io.Writer) *AssignmentWriter {
	return &AssignmentWriter{csv: csv.NewWriter(w)}
}

// Write appends one frame of assignments.
func (w *AssignmentWriter) Write(frameIndex int, assignments []seqid.Assignment) error {
	if !w.wroteHeader {
		if err := w.csv.Write(assignmentHeader); err != nil {
			return fmt.Errorf("write assignment header: %w", err)
		}
		w.wroteHeader = true
	}
	for _, assignment := range assignments {
		record := []string{
			strconv.Itoa(frameIndex),
			strconv.FormatInt(assignment.RawID, 10),
			strconv.Itoa(assignment.SequentialID),
			assignment.Kind.String(),
			strconv.FormatFloat(assignment.Position.X, 'f', 2, 64),
			strconv.FormatFloat(assignment.Position.Y, 'f', 2, 64),
			strconv.FormatFloat(assignment.Confidence, 'f', 3, 64),
		}
		if err := w.csv.Write(record); err != nil {
			return fmt.Errorf("write assignment: %w", err)
		}
	}
	return nil
}

// Flush writes buffered records to the underlying writer.
func (w *AssignmentWriter) Flush() error {
	w.csv.Flush()
	if err := w.csv.Error(); err != nil {
		return fmt.Errorf("flush assignments: %w", err)
	}
	return nil
}
