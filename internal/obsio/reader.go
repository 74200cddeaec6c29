// Package obsio reads detector/tracker output from CSV files and writes sequential id assignments back.
//
// Input rows look like
//
//	frame,raw_id,x1,y1,x2,y2,confidence,class
//
// where (x1, y1) and (x2, y2) are bounding box corners. The class column is optional.
// Rows must be grouped by frame in non-decreasing frame order.
package obsio

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/LdDl/mot-seqid/seqid"
)

// ErrFrameRegression is returned when a row refers to a frame earlier than a previous row.
var ErrFrameRegression = errors.New("frame index went backwards")

// Frame is every kept observation of one frame index.
type Frame struct {
	Index        int
	Observations []seqid.Observation
}

// Reader emits frames in order. Frame indices missing from the file between the first and the last row
// are emitted as empty frames, so that every tracked frame advances track lifecycles.
type Reader struct {
	csv     *csv.Reader
	classes map[string]struct{}

	pending   *seqid.Observation
	lastFrame int
	rows      int
	eof       bool
	started   bool
	next      int

	// Rows dropped by the class filter
	Skipped int
}

// NewReader creates reader. Empty classes keeps rows of every class.
func NewReader(r io.Reader, classes []string) *Reader {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1
	reader.TrimLeadingSpace = true
	reader.Comment = '#'
	var filter map[string]struct{}
	if len(classes) > 0 {
		filter = make(map[string]struct{}, len(classes))
		for _, class := range classes {
			filter[strings.ToLower(strings.TrimSpace(class))] = struct{}{}
		}
	}
	return &Reader{
		csv:     reader,
		classes: filter,
	}
}

// Next returns the next frame. It returns io.EOF after the last frame.
func (r *Reader) Next(ctx context.Context) (Frame, error) {
	if err := ctx.Err(); err != nil {
		return Frame{}, err
	}
	if !r.started {
		if err := r.advance(); err != nil {
			return Frame{}, err
		}
		if r.pending == nil {
			return Frame{}, io.EOF
		}
		r.started = true
		r.next = r.pending.FrameIndex
	}
	if r.pending == nil {
		return Frame{}, io.EOF
	}

	frame := Frame{Index: r.next, Observations: make([]seqid.Observation, 0)}
	for r.pending != nil && r.pending.FrameIndex == r.next {
		if r.keep(r.pending.Class) {
			frame.Observations = append(frame.Observations, *r.pending)
		} else {
			r.Skipped++
		}
		if err := r.advance(); err != nil {
			return Frame{}, err
		}
	}
	r.next++
	return frame, nil
}

// Stream calls fn for every frame until the input ends, fn fails or ctx is cancelled.
func (r *Reader) Stream(ctx context.Context, fn func(Frame) error) error {
	for {
		frame, err := r.Next(ctx)
		if errors.Is(err, io.EOF) {
			return nil
		}
		if err != nil {
			return err
		}
		if err := fn(frame); err != nil {
			return err
		}
	}
}

func (r *Reader) keep(class string) bool {
	if r.classes == nil {
		return true
	}
	_, ok := r.classes[strings.ToLower(class)]
	return ok
}

// advance parses the next data row into pending. pending is nil at the end of input.
func (r *Reader) advance() error {
	r.pending = nil
	if r.eof {
		return nil
	}
	for {
		record, err := r.csv.Read()
		if errors.Is(err, io.EOF) {
			r.eof = true
			return nil
		}
		if err != nil {
			return fmt.Errorf("read observations: %w", err)
		}
		line, _ := r.csv.FieldPos(0)
		if r.rows == 0 && isHeader(record) {
			r.rows++
			continue
		}
		r.rows++
		obs, err := parseRecord(record)
		if err != nil {
			return fmt.Errorf("line %d: %w", line, err)
		}
		if r.started && obs.FrameIndex < r.lastFrame {
			return fmt.Errorf("line %d: frame %d after frame %d: %w", line, obs.FrameIndex, r.lastFrame, ErrFrameRegression)
		}
		r.lastFrame = obs.FrameIndex
		r.pending = &obs
		return nil
	}
}

func isHeader(record []string) bool {
	return len(record) > 0 && strings.EqualFold(strings.TrimSpace(record[0]), "frame")
}

func parseRecord(record []string) (seqid.Observation, error) {
	if len(record) < 7 {
		return seqid.Observation{}, fmt.Errorf("expected at least 7 fields, got %d", len(record))
	}
	frame, err := strconv.Atoi(strings.TrimSpace(record[0]))
	if err != nil {
		return seqid.Observation{}, fmt.Errorf("parse frame: %w", err)
	}
	rawID, err := strconv.ParseInt(strings.TrimSpace(record[1]), 10, 64)
	if err != nil {
		return seqid.Observation{}, fmt.Errorf("parse raw_id: %w", err)
	}
	values := make([]float64, 5)
	names := []string{"x1", "y1", "x2", "y2", "confidence"}
	for i := range values {
		values[i], err = strconv.ParseFloat(strings.TrimSpace(record[i+2]), 64)
		if err != nil {
			return seqid.Observation{}, fmt.Errorf("parse %s: %w", names[i], err)
		}
	}
	class := ""
	if len(record) > 7 {
		class = strings.TrimSpace(record[7])
	}
	bbox := seqid.NewRectFromCorners(values[0], values[1], values[2], values[3])
	return seqid.NewObservationFromBBox(rawID, frame, bbox, values[4], class), nil
}
