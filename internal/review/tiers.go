package review

import (
	"github.com/annsrecipes/digitizer/internal/results"
)

// Tier buckets a successful page by its aggregate confidence score.
// Used only for summary reporting.
type Tier string

const (
	TierHigh   Tier = "high"
	TierMedium Tier = "medium"
	TierLow    Tier = "low"
)

// Bounds defines the tier partition: >= High is high, >= Low is medium,
// everything below is low. The partition is total and non-overlapping.
type Bounds struct {
	High float64
	Low  float64
}

// DefaultBounds returns the 85/70 partition
func DefaultBounds() Bounds {
	return Bounds{High: 85, Low: 70}
}

// Classify places a confidence score into exactly one tier
func (b Bounds) Classify(confidence float64) Tier {
	switch {
	case confidence >= b.High:
		return TierHigh
	case confidence >= b.Low:
		return TierMedium
	default:
		return TierLow
	}
}

// Stats are the aggregate figures shown in the review document header and
// statistics section
type Stats struct {
	TotalPages     int
	Successful     int
	Failed         int
	MeanConfidence float64
	High           int
	Medium         int
	Low            int
}

// ComputeStats derives the review statistics from a results document.
// Only successful pages enter the tier buckets.
func ComputeStats(doc *results.Document, bounds Bounds) Stats {
	stats := Stats{
		TotalPages:     doc.TotalPages,
		Successful:     doc.SuccessfulPages,
		Failed:         doc.FailedPages,
		MeanConfidence: doc.MeanConfidence(),
	}

	for _, p := range doc.Successful() {
		switch bounds.Classify(p.Confidence) {
		case TierHigh:
			stats.High++
		case TierMedium:
			stats.Medium++
		case TierLow:
			stats.Low++
		}
	}

	return stats
}
