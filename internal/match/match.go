// Package match scores how strongly two reports look like the same physical
// issue, blending image-fingerprint similarity with geographic proximity.
// All functions are pure.
package match

import "math"

// Weights control the similarity/proximity blend of the match score.
type Weights struct {
	Similarity float64
	Distance   float64
}

// DefaultWeights favors visual similarity over proximity.
func DefaultWeights() Weights {
	return Weights{Similarity: 0.6, Distance: 0.4}
}

// Similarity returns the percentage of positions at which the two
// fingerprints agree, in [0, 100]. Fingerprints are opaque bit-strings
// compared character by character.
//
// Empty inputs or a length mismatch yield 0: incomparable fingerprints are
// "definitely not a match" rather than an error, which keeps the scoring
// pipeline total over all inputs.
func Similarity(a, b string) float64 {
	if a == "" || b == "" || len(a) != len(b) {
		return 0
	}

	equal := 0
	for i := 0; i < len(a); i++ {
		if a[i] == b[i] {
			equal++
		}
	}
	return float64(equal) / float64(len(a)) * 100
}

// DistanceScore maps a distance in meters to [0, 100]: 100 at 0 m, decaying
// linearly to 0 at threshold and floored at 0 beyond it.
func DistanceScore(distanceMeters, threshold float64) float64 {
	if threshold <= 0 {
		return 0
	}
	return math.Max(0, 100-(distanceMeters/threshold)*100)
}

// Score blends fingerprint similarity and distance score into a single
// 0-100 match score, higher meaning a stronger match.
func Score(similarityPercent, distanceScore float64, w Weights) float64 {
	return similarityPercent*w.Similarity + distanceScore*w.Distance
}

// RoundMeters rounds a distance to the nearest whole meter.
func RoundMeters(d float64) float64 {
	return math.Round(d)
}

// RoundTenth rounds a percentage to the nearest 0.1. Used for both the
// displayed similarity and the match score; the auto-merge decision compares
// the already-rounded score, so rounding here can change boundary outcomes
// and must happen before the threshold check.
func RoundTenth(v float64) float64 {
	return math.Round(v*10) / 10
}
