package trailplot

import (
	"bytes"
	"errors"
	"image/color"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/LdDl/mot-seqid/seqid"
)

func runReport(t *testing.T, frames int) *seqid.Report {
	t.Helper()
	engine, err := seqid.NewEngine(seqid.DefaultConfig())
	require.NoError(t, err)
	for frame := 1; frame <= frames; frame++ {
		observations := []seqid.Observation{
			seqid.NewObservation(1, frame, seqid.Point{X: float64(10 + frame), Y: 50}, 0.9),
			seqid.NewObservation(2, frame, seqid.Point{X: 400, Y: float64(300 - frame)}, 0.9),
		}
		_, err := engine.ProcessFrame(frame, observations)
		require.NoError(t, err)
	}
	report, err := engine.Finish()
	require.NoError(t, err)
	return report
}

func TestSaveWritesPNG(t *testing.T) {
	report := runReport(t, 30)
	path := filepath.Join(t.TempDir(), "trails.png")

	require.NoError(t, Save(report, path, DefaultOptions()))

	content, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.True(t, bytes.HasPrefix(content, []byte("\x89PNG")))
}

func TestBuildKeepsTitle(t *testing.T) {
	report := runReport(t, 10)
	opts := DefaultOptions()
	opts.Title = "clip 42"
	p, err := Build(report, opts)
	require.NoError(t, err)
	assert.Equal(t, "clip 42", p.Title.Text)
}

func TestBuildOnlyScored(t *testing.T) {
	// 10 frames is far below the minimum scored length
	report := runReport(t, 10)
	opts := DefaultOptions()
	opts.OnlyScored = true
	_, err := Build(report, opts)
	assert.True(t, errors.Is(err, ErrNothingToPlot))
}

func TestBuildEmptyReport(t *testing.T) {
	engine, err := seqid.NewEngine(seqid.DefaultConfig())
	require.NoError(t, err)
	report, err := engine.Finish()
	require.NoError(t, err)

	err = Save(report, filepath.Join(t.TempDir(), "empty.png"), Options{})
	assert.True(t, errors.Is(err, ErrNothingToPlot))
}

func TestGenerateColors(t *testing.T) {
	assert.Nil(t, generateColors(0))
	colors := generateColors(3)
	require.Len(t, colors, 3)
	assert.Equal(t, color.RGBA{R: 216, G: 38, B: 38, A: 255}, colors[0])
	assert.NotEqual(t, colors[0], colors[1])
	assert.NotEqual(t, colors[1], colors[2])
}
