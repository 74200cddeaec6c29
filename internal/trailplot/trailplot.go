// Package trailplot renders trails of the final tracks of a run to an image.
package trailplot

import (
	"errors"
	"fmt"
	"image/color"
	"math"

	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/vg"

	"github.com/LdDl/mot-seqid/seqid"
)

// ErrNothingToPlot is returned when the report has no track to draw.
var ErrNothingToPlot = errors.New("no tracks to plot")

// Options controls rendering.
type Options struct {
	Title string
	// Draw only tracks which took part in quality scoring
	OnlyScored bool
	Width      vg.Length
	Height     vg.Length
}

// DefaultOptions returns 12x8 inch canvas with every final track.
func DefaultOptions() Options {
	return Options{
		Title:  "Track trails",
		Width:  12 * vg.Inch,
		Height: 8 * vg.Inch,
	}
}

// Build creates plot with one line per final track. Y axis grows downwards as in image coordinates.
func Build(report *seqid.Report, opts Options) (*plot.Plot, error) {
	tracks := make([]seqid.TrackReport, 0, len(report.Tracks))
	for _, track := range report.FinalTracks() {
		if len(track.History) == 0 {
			continue
		}
		if opts.OnlyScored && !track.Scored {
			continue
		}
		tracks = append(tracks, track)
	}
	if len(tracks) == 0 {
		return nil, ErrNothingToPlot
	}

	p := plot.New()
	p.Title.Text = opts.Title
	p.X.Label.Text = "x (px)"
	p.Y.Label.Text = "y (px)"
	p.Y.Scale = plot.InvertedScale{Normalizer: plot.LinearScale{}}

	colors := generateColors(len(tracks))
	for i, track := range tracks {
		pts := make(plotter.XYs, len(track.History))
		for j, sample := range track.History {
			pts[j] = plotter.XY{X: sample.Position.X, Y: sample.Position.Y}
		}
		line, err := plotter.NewLine(pts)
		if err != nil {
			return nil, fmt.Errorf("trail of track %d: %w", track.SequentialID, err)
		}
		line.Color = colors[i]
		line.Width = vg.Points(1.5)
		p.Add(line)
		p.Legend.Add(fmt.Sprintf("#%d (%s)", track.SequentialID, track.Band), line)
	}

	p.Legend.Top = true
	p.Legend.Left = false
	p.Legend.XOffs = -10
	p.Legend.YOffs = -10
	return p, nil
}

// Save renders report trails to path. Image format follows the file extension (png, svg, pdf...).
func Save(report *seqid.Report, path string, opts Options) error {
	if opts.Width <= 0 || opts.Height <= 0 {
		defaults := DefaultOptions()
		opts.Width, opts.Height = defaults.Width, defaults.Height
	}
	p, err := Build(report, opts)
	if err != nil {
		return err
	}
	if err := p.Save(opts.Width, opts.Height, path); err != nil {
		return fmt.Errorf("save trail plot: %w", err)
	}
	return nil
}

// generateColors creates a palette of distinct colors for track trails
func generateColors(n int) []color.Color {
	if n <= 0 {
		return nil
	}
	colors := make([]color.Color, n)
	for i := 0; i < n; i++ {
		hue := float64(i) / float64(n)
		r, g, b := hslToRGB(hue, 0.7, 0.5)
		colors[i] = color.RGBA{R: r, G: g, B: b, A: 255}
	}
	return colors
}

// hslToRGB converts HSL to RGB (0-255 range)
func hslToRGB(h, s, l float64) (r, g, b uint8) {
	c := (1 - math.Abs(2*l-1)) * s
	x := c * (1 - math.Abs(math.Mod(h*6, 2)-1))
	m := l - c/2
	var rf, gf, bf float64
	switch {
	case h < 1.0/6.0:
		rf, gf, bf = c, x, 0
	case h < 2.0/6.0:
		rf, gf, bf = x, c, 0
	case h < 3.0/6.0:
		rf, gf, bf = 0, c, x
	case h < 4.0/6.0:
		rf, gf, bf = 0, x, c
	case h < 5.0/6.0:
		rf, gf, bf = x, 0, c
	default:
		rf, gf, bf = c, 0, x
	}
	return uint8((rf + m) * 255), uint8((gf + m) * 255), uint8((bf + m) * 255)
}
