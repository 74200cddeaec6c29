// Package runmetrics exposes counters of a run in Prometheus format.
// Offline runs have no scrape endpoint, so metrics are written as a node_exporter textfile.
package runmetrics

import (
	"fmt"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/LdDl/mot-seqid/seqid"
)

const namespace = "seqid"

// Metrics holds collectors of a single run registered in a private registry.
type Metrics struct {
	registry *prometheus.Registry

	frameDuration prometheus.Histogram
	frames        prometheus.Gauge
	observations  *prometheus.GaugeVec
	minted        prometheus.Gauge
	distinctRaw   prometheus.Gauge
	finalTracks   prometheus.Gauge
	merges        prometheus.Gauge
	recoveries    prometheus.Gauge
	tracksByBand  *prometheus.GaugeVec
	score         prometheus.Gauge
	rating        *prometheus.GaugeVec
}

// New creates collectors labelled with run id and input source.
func New(runID, source string) *Metrics {
	registry := prometheus.NewRegistry()
	labels := prometheus.Labels{"run_id": runID, "source": source}
	factory := promauto.With(registry)

	return &Metrics{
		registry: registry,
		frameDuration: factory.NewHistogram(prometheus.HistogramOpts{
			Namespace:   namespace,
			Name:        "frame_processing_seconds",
			Help:        "Time spent resolving identities of one frame",
			ConstLabels: labels,
			Buckets:     []float64{0.00001, 0.00005, 0.0001, 0.0005, 0.001, 0.005, 0.01},
		}),
		frames: factory.NewGauge(prometheus.GaugeOpts{
			Namespace:   namespace,
			Name:        "frames_processed",
			Help:        "Frames pushed through the engine",
			ConstLabels: labels,
		}),
		observations: factory.NewGaugeVec(prometheus.GaugeOpts{
			Namespace:   namespace,
			Name:        "observations",
			Help:        "Observations by outcome",
			ConstLabels: labels,
		}, []string{"outcome"}),
		minted: factory.NewGauge(prometheus.GaugeOpts{
			Namespace:   namespace,
			Name:        "sequential_ids_minted",
			Help:        "Sequential ids created before merging",
			ConstLabels: labels,
		}),
		distinctRaw: factory.NewGauge(prometheus.GaugeOpts{
			Namespace:   namespace,
			Name:        "distinct_raw_ids",
			Help:        "Different upstream ids seen",
			ConstLabels: labels,
		}),
		finalTracks: factory.NewGauge(prometheus.GaugeOpts{
			Namespace:   namespace,
			Name:        "final_tracks",
			Help:        "Tracks left after merging",
			ConstLabels: labels,
		}),
		merges: factory.NewGauge(prometheus.GaugeOpts{
			Namespace:   namespace,
			Name:        "merges",
			Help:        "Merge decisions applied",
			ConstLabels: labels,
		}),
		recoveries: factory.NewGauge(prometheus.GaugeOpts{
			Namespace:   namespace,
			Name:        "recoveries",
			Help:        "Lost tracks recovered under a new raw id or their own one",
			ConstLabels: labels,
		}),
		tracksByBand: factory.NewGaugeVec(prometheus.GaugeOpts{
			Namespace:   namespace,
			Name:        "final_tracks_by_band",
			Help:        "Final tracks by duration band",
			ConstLabels: labels,
		}, []string{"band"}),
		score: factory.NewGauge(prometheus.GaugeOpts{
			Namespace:   namespace,
			Name:        "quality_score",
			Help:        "Composite quality score, 0 to 100",
			ConstLabels: labels,
		}),
		rating: factory.NewGaugeVec(prometheus.GaugeOpts{
			Namespace:   namespace,
			Name:        "quality_rating",
			Help:        "1 for the rating of the run",
			ConstLabels: labels,
		}, []string{"rating"}),
	}
}

// ObserveFrame records time spent on one frame.
func (m *Metrics) ObserveFrame(elapsed time.Duration) {
	m.frameDuration.Observe(elapsed.Seconds())
}

// Record copies final counters of the report.
func (m *Metrics) Record(report *seqid.Report) {
	quality := report.Quality
	m.frames.Set(float64(report.FramesProcessed))
	m.observations.WithLabelValues("accepted").Set(float64(report.ObservationsAccepted))
	m.observations.WithLabelValues("filtered").Set(float64(report.ObservationsFiltered))
	m.observations.WithLabelValues("duplicate").Set(float64(report.DuplicatesDiscarded))
	m.minted.Set(float64(quality.SequentialIDsMinted))
	m.distinctRaw.Set(float64(quality.DistinctRawIDs))
	m.finalTracks.Set(float64(quality.FinalTracks))
	m.merges.Set(float64(len(report.Merges)))
	m.recoveries.Set(float64(report.Recoveries))

	for _, band := range []seqid.TrackBand{seqid.BandStandard, seqid.BandGood, seqid.BandVeryGood, seqid.BandExcellent} {
		m.tracksByBand.WithLabelValues(string(band)).Set(0)
	}
	for _, track := range report.FinalTracks() {
		m.tracksByBand.WithLabelValues(string(track.Band)).Inc()
	}

	m.score.Set(quality.CompositeScore)
	m.rating.Reset()
	m.rating.WithLabelValues(string(quality.Rating)).Set(1)
}

// Registry returns the private registry holding run collectors.
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

// WriteTextfile writes metrics atomically to path.
func (m *Metrics) WriteTextfile(path string) error {
	if err := prometheus.WriteToTextfile(path, m.registry); err != nil {
		return fmt.Errorf("write metrics: %w", err)
	}
	return nil
}
