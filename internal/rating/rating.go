// Package rating defines the pluggable skill-rating algorithm and ships a
// Glicko-2 implementation.
//
// The contract every Rater honors: a period of wins moves the rating up, a
// period of losses moves it down, and the result stays on the same scale so
// progression.TierForRating keeps working.
package rating

import "math"

// Estimate is the rating triple the algorithm reads and writes.
type Estimate struct {
	Rating     float64
	RD         float64
	Volatility float64
}

// Outcome is one result inside a rating period. Score is in [0,1]: 1 win, 0 loss.
type Outcome struct {
	OpponentRating float64
	OpponentRD     float64
	Score          float64
}

// Rater computes the estimate after one rating period.
type Rater interface {
	Rate(current Estimate, outcomes []Outcome) Estimate
}

// ClampRD bounds the rating deviation to [minRD, maxRD].
func ClampRD(e Estimate, minRD, maxRD float64) Estimate {
	e.RD = math.Max(minRD, math.Min(maxRD, e.RD))
	return e
}
