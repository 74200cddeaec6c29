package seqid

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func trackWithDuration(store *TrackStore, sequentialID, duration int, status TrackStatus) *Track {
	track := store.create(sequentialID, int64(sequentialID))
	for frame := 1; frame <= duration; frame++ {
		track.appendSample(frame, Point{})
	}
	track.status = status
	return track
}

func TestQualityBands(t *testing.T) {
	scorer := NewQualityScorer(DefaultConfig())
	assert.Equal(t, DurationThresholds{Long: 75, VeryLong: 150, Excellent: 250}, scorer.thresholds)
	cases := map[int]TrackBand{
		0:   BandStandard,
		75:  BandStandard,
		76:  BandGood,
		150: BandGood,
		151: BandVeryGood,
		250: BandVeryGood,
		251: BandExcellent,
	}
	for duration, correct := range cases {
		assert.Equal(t, correct, scorer.Band(duration), "duration %d", duration)
	}
	assert.False(t, scorer.IsScored(14))
	assert.True(t, scorer.IsScored(15))
}

func TestQualityThresholdsFollowFrameRate(t *testing.T) {
	cfg := DefaultConfig()
	cfg.FrameRate = 29.97
	assert.Equal(t, DurationThresholds{Long: 90, VeryLong: 180, Excellent: 300}, cfg.Thresholds())
}

func TestQualityScore(t *testing.T) {
	store := NewTrackStore()
	trackWithDuration(store, 1, 300, TrackDead)
	trackWithDuration(store, 2, 200, TrackActive)
	trackWithDuration(store, 3, 100, TrackLost)
	trackWithDuration(store, 4, 10, TrackDead)
	trackWithDuration(store, 5, 40, TrackMerged)

	summary := NewQualityScorer(DefaultConfig()).Score(store.All(), 5, 4)
	assert.Equal(t, 4, summary.FinalTracks)
	assert.Equal(t, 3, summary.ScoredTracks)
	assert.Equal(t, 3, summary.LongTracks)
	assert.Equal(t, 2, summary.VeryLongTracks)
	assert.Equal(t, 1, summary.ExcellentTracks)
	assert.InDelta(t, 1.0, summary.IDEfficiency, eps)
	assert.InDelta(t, 1.0, summary.PersistenceRate, eps)
	assert.InDelta(t, 1.0/3.0, summary.ExcellenceRate, eps)
	assert.InDelta(t, 1.25, summary.FragmentationRatio, eps)
	assert.InDelta(t, 100.0, summary.CompositeScore, eps)
	assert.Equal(t, RatingExcellent, summary.Rating)
}

func TestQualityRateDenominators(t *testing.T) {
	store := NewTrackStore()
	trackWithDuration(store, 1, 300, TrackDead)
	trackWithDuration(store, 2, 20, TrackDead)
	for id := 3; id <= 6; id++ {
		trackWithDuration(store, id, 5, TrackDead)
	}
	trackWithDuration(store, 7, 40, TrackMerged)

	summary := NewQualityScorer(DefaultConfig()).Score(store.All(), 7, 3)
	assert.Equal(t, 6, summary.FinalTracks)
	assert.Equal(t, 2, summary.ScoredTracks)
	// Short fragments count against efficiency and fragmentation but not against the rates
	assert.InDelta(t, 0.5, summary.PersistenceRate, eps)
	assert.InDelta(t, 0.5, summary.ExcellenceRate, eps)
	assert.InDelta(t, 2.0, summary.IDEfficiency, eps)
	assert.InDelta(t, 7.0/6.0, summary.FragmentationRatio, eps)
}

func TestQualityScoreNoData(t *testing.T) {
	store := NewTrackStore()
	trackWithDuration(store, 1, 40, TrackMerged)
	summary := NewQualityScorer(DefaultConfig()).Score(store.All(), 1, 1)
	assert.Equal(t, QualitySummary{
		SequentialIDsMinted: 1,
		DistinctRawIDs:      1,
		Rating:              RatingNoData,
		Thresholds:          DurationThresholds{Long: 75, VeryLong: 150, Excellent: 250},
	}, summary)
}

func TestQualityCompositePartialCredits(t *testing.T) {
	scorer := NewQualityScorer(DefaultConfig())
	cases := []struct {
		name    string
		summary QualitySummary
		score   float64
	}{
		{name: "all full", summary: QualitySummary{FragmentationRatio: 1.0, PersistenceRate: 0.7, IDEfficiency: 0.9, ExcellenceRate: 0.3}, score: 100},
		{name: "all partial", summary: QualitySummary{FragmentationRatio: 1.8, PersistenceRate: 0.6, IDEfficiency: 0.85, ExcellenceRate: 0.1}, score: 60},
		{name: "partial boundaries", summary: QualitySummary{FragmentationRatio: 2.0, PersistenceRate: 0.5, IDEfficiency: 0.8, ExcellenceRate: 0.29}, score: 60},
		{name: "nothing", summary: QualitySummary{FragmentationRatio: 2.5, PersistenceRate: 0.4, IDEfficiency: 0.5, ExcellenceRate: 0}, score: 0},
	}
	for _, tc := range cases {
		assert.InDelta(t, tc.score, scorer.composite(tc.summary), eps, tc.name)
	}

	cfg := DefaultConfig()
	cfg.Weights = ScoreWeights{Fragmentation: 40, Persistence: 20, Efficiency: 20, Excellence: 20}
	weighted := NewQualityScorer(cfg)
	summary := QualitySummary{FragmentationRatio: 1.8, PersistenceRate: 0.9, IDEfficiency: 0.95, ExcellenceRate: 0.5}
	assert.InDelta(t, 40*25.0/35.0+60, weighted.composite(summary), eps)
}

func TestQualityRating(t *testing.T) {
	cases := map[float64]Rating{
		100:   RatingExcellent,
		85:    RatingExcellent,
		84.99: RatingGood,
		70:    RatingGood,
		69.9:  RatingFair,
		50:    RatingFair,
		49.9:  RatingPoor,
		0:     RatingPoor,
	}
	for score, correct := range cases {
		assert.Equal(t, correct, ratingFor(score), "score %v", score)
	}
}
