package seqid

// Rating is quality band of the composite score
type Rating string

const (
	RatingExcellent Rating = "EXCELLENT"
	RatingGood      Rating = "GOOD"
	RatingFair      Rating = "FAIR"
	RatingPoor      Rating = "POOR"
	// RatingNoData is reported when there are no tracks at all
	RatingNoData Rating = "NO_DATA"
)

// TrackBand classifies a single track by its duration
type TrackBand string

const (
	BandExcellent TrackBand = "EXCELLENT"
	BandVeryGood  TrackBand = "VERY_GOOD"
	BandGood      TrackBand = "GOOD"
	BandStandard  TrackBand = "STANDARD"
)

// Partial credit given when a component misses its top band but reaches the lower one
const (
	fragmentationPartialCredit = 25.0 / 35.0
	persistencePartialCredit   = 15.0 / 25.0
	efficiencyPartialCredit    = 20.0 / 25.0
)

// QualitySummary is the outcome of scoring the final track set
type QualitySummary struct {
	// Non-merged tracks after consolidation
	FinalTracks int `json:"final_tracks"`
	// Final tracks long enough to be scored
	ScoredTracks        int                `json:"scored_tracks"`
	SequentialIDsMinted int                `json:"sequential_ids_minted"`
	DistinctRawIDs      int                `json:"distinct_raw_ids"`
	LongTracks          int                `json:"long_tracks"`
	VeryLongTracks      int                `json:"very_long_tracks"`
	ExcellentTracks     int                `json:"excellent_tracks"`
	// FinalTracks / DistinctRawIDs
	IDEfficiency float64 `json:"id_efficiency"`
	// LongTracks / ScoredTracks. Final tracks below the minimum length are left out
	PersistenceRate float64 `json:"persistence_rate"`
	// ExcellentTracks / ScoredTracks
	ExcellenceRate float64 `json:"excellence_rate"`
	// SequentialIDsMinted / FinalTracks
	FragmentationRatio float64            `json:"fragmentation_ratio"`
	CompositeScore     float64            `json:"composite_score"`
	Rating             Rating             `json:"rating"`
	Thresholds         DurationThresholds `json:"thresholds"`
}

// QualityScorer computes summary statistics of the final track set. It never fails.
type QualityScorer struct {
	minTrackLength int
	thresholds     DurationThresholds
	weights        ScoreWeights
}

// NewQualityScorer creates scorer from configuration
func NewQualityScorer(cfg Config) *QualityScorer {
	return &QualityScorer{
		minTrackLength: cfg.MinTrackLength,
		thresholds:     cfg.Thresholds(),
		weights:        cfg.Weights,
	}
}

// Band classifies track duration (in frames)
func (scorer *QualityScorer) Band(duration int) TrackBand {
	switch {
	case duration > scorer.thresholds.Excellent:
		return BandExcellent
	case duration > scorer.thresholds.VeryLong:
		return BandVeryGood
	case duration > scorer.thresholds.Long:
		return BandGood
	default:
		return BandStandard
	}
}

// IsScored reports whether track of the given duration takes part in scoring
func (scorer *QualityScorer) IsScored(duration int) bool {
	return duration >= scorer.minTrackLength
}

// Score evaluates tracks (merged ones are skipped). minted is number of sequential ids created before merging,
// distinctRawIDs is number of different upstream ids seen.
func (scorer *QualityScorer) Score(tracks []*Track, minted, distinctRawIDs int) QualitySummary {
	summary := QualitySummary{
		SequentialIDsMinted: minted,
		DistinctRawIDs:      distinctRawIDs,
		Thresholds:          scorer.thresholds,
	}
	for _, track := range tracks {
		if track.status == TrackMerged {
			continue
		}
		summary.FinalTracks++
		duration := track.GetDuration()
		if !scorer.IsScored(duration) {
			continue
		}
		summary.ScoredTracks++
		if duration > scorer.thresholds.Long {
			summary.LongTracks++
		}
		if duration > scorer.thresholds.VeryLong {
			summary.VeryLongTracks++
		}
		if duration > scorer.thresholds.Excellent {
			summary.ExcellentTracks++
		}
	}
	if summary.FinalTracks == 0 {
		summary.Rating = RatingNoData
		return summary
	}

	summary.IDEfficiency = safeRatio(summary.FinalTracks, distinctRawIDs)
	summary.PersistenceRate = safeRatio(summary.LongTracks, summary.ScoredTracks)
	summary.ExcellenceRate = safeRatio(summary.ExcellentTracks, summary.ScoredTracks)
	summary.FragmentationRatio = safeRatio(minted, summary.FinalTracks)
	summary.CompositeScore = scorer.composite(summary)
	summary.Rating = ratingFor(summary.CompositeScore)
	return summary
}

// composite sums weighted component credits. With default weights:
// fragmentation <= 1.5 gives 35 (<= 2.0 gives 25), persistence >= 0.7 gives 25 (>= 0.5 gives 15),
// efficiency >= 0.9 gives 25 (>= 0.8 gives 20), excellence >= 0.3 gives 15.
func (scorer *QualityScorer) composite(summary QualitySummary) float64 {
	score := 0.0
	switch {
	case summary.FragmentationRatio <= 1.5:
		score += scorer.weights.Fragmentation
	case summary.FragmentationRatio <= 2.0:
		score += scorer.weights.Fragmentation * fragmentationPartialCredit
	}
	switch {
	case summary.PersistenceRate >= 0.7:
		score += scorer.weights.Persistence
	case summary.PersistenceRate >= 0.5:
		score += scorer.weights.Persistence * persistencePartialCredit
	}
	switch {
	case summary.IDEfficiency >= 0.9:
		score += scorer.weights.Efficiency
	case summary.IDEfficiency >= 0.8:
		score += scorer.weights.Efficiency * efficiencyPartialCredit
	}
	if summary.ExcellenceRate >= 0.3 {
		score += scorer.weights.Excellence
	}
	return score
}

func ratingFor(score float64) Rating {
	switch {
	case score >= 85:
		return RatingExcellent
	case score >= 70:
		return RatingGood
	case score >= 50:
		return RatingFair
	default:
		return RatingPoor
	}
}
