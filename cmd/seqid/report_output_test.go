package main

import (
	"bytes"
	"testing"

	"github.com/LdDl/mot-seqid/seqid"
)

func TestColorRating(t *testing.T) {
	if got := colorRating(seqid.RatingGood, false); got != "GOOD" {
		t.Fatalf("plain rating: got %q", got)
	}
	if got := colorRating(seqid.RatingPoor, true); got != ansiRed+"POOR"+ansiReset {
		t.Fatalf("colored rating: got %q", got)
	}
	if got := colorRating(seqid.RatingNoData, true); got != "NO_DATA" {
		t.Fatalf("no data rating: got %q", got)
	}
	if shouldColorize(&bytes.Buffer{}) {
		t.Fatal("buffers are never terminals")
	}
}

func TestPrintReportWithoutTracks(t *testing.T) {
	engine, err := seqid.NewEngine(seqid.DefaultConfig())
	if err != nil {
		t.Fatalf("new engine: %v", err)
	}
	report, err := engine.Finish()
	if err != nil {
		t.Fatalf("finish: %v", err)
	}
	var buf bytes.Buffer
	printReport(&buf, report)
	requireContains(t, buf.String(), "Quality: 0.0 (NO_DATA)")
	requireContains(t, buf.String(), "No tracks")
}
