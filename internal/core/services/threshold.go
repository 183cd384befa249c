package services

import (
	"math"

	"github.com/custodia-labs/ragctx-cli/internal/core/domain"
)

// Pass 1 constants.
const (
	// minSamplesForStats is the minimum number of boundary scores needed
	// to estimate variance meaningfully. Below this the calculator falls
	// back to a fixed absolute threshold.
	minSamplesForStats = 3

	// fallbackSimilarityThreshold is the absolute cutoff used when the
	// score sequence is too short for statistics. Similarity below it
	// signals a boundary.
	fallbackSimilarityThreshold = 0.5
)

// candidateBoundaries performs Pass 1 of boundary detection: given the
// ordered similarity scores between adjacent units, it returns the gap
// indices flagged as candidate semantic boundaries.
//
// With enough samples the cutoff is mean - multiplier*stddev; a gap whose
// similarity falls strictly below the cutoff is a candidate. Scores exactly
// at the cutoff are non-boundaries, favouring larger chunks.
func candidateBoundaries(scores []domain.BoundaryScore, multiplier float64) []int {
	if len(scores) < 2 {
		return nil
	}

	cutoff := fallbackSimilarityThreshold
	if len(scores) >= minSamplesForStats {
		mean, stddev := scoreStats(scores)
		cutoff = mean - multiplier*stddev
	}

	var gaps []int
	for _, s := range scores {
		if s.Similarity < cutoff {
			gaps = append(gaps, s.Gap)
		}
	}
	return gaps
}

// scoreStats returns the mean and population standard deviation of the
// similarity scores.
func scoreStats(scores []domain.BoundaryScore) (mean, stddev float64) {
	n := float64(len(scores))
	for _, s := range scores {
		mean += s.Similarity
	}
	mean /= n

	var variance float64
	for _, s := range scores {
		d := s.Similarity - mean
		variance += d * d
	}
	variance /= n

	return mean, math.Sqrt(variance)
}
