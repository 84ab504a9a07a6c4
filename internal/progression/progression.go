// Package progression holds the static progression tables: tier ordering, XP
// thresholds, rating bands and the XP award formula. Everything here is pure.
//
// TierForXP is the only place that maps XP to a tier. Callers never cache a tier
// next to the XP it came from.
package progression

import (
	"math"
	"sort"
	"time"

	"github.com/spellbee/spellbee-server/internal/domain"
)

// Tier is one of the seven ordered skill bands, numbered 1..7.
type Tier int

// Tiers in ascending order.
const (
	TierBeginner Tier = iota + 1
	TierNovice
	TierApprentice
	TierSkilled
	TierExpert
	TierMaster
	TierChampion
)

const (
	// MinTier is the lowest tier.
	MinTier = TierBeginner
	// MaxTier is the highest tier.
	MaxTier = TierChampion
	// PlacementStartTier is where the adaptive placement quiz begins.
	PlacementStartTier = TierApprentice
)

// XP award constants.
const (
	// XPPerCorrectEndless is awarded for each verified correct word in endless mode.
	XPPerCorrectEndless = 5
	// BlitzScoreMultiplier converts a verified blitz score into XP.
	BlitzScoreMultiplier = 2
)

// Rating constants. Ratings use the Glicko scale.
const (
	InitialRating     = 1000.0
	InitialRD         = 350.0
	MinRD             = 30.0
	PlacedRD          = 200.0
	InitialVolatility = 0.06

	// PlacementBaseRating and PlacementRatingSpan map placement accuracy 0..1
	// linearly onto 800..2000, the centers of tier 1 and tier 7.
	PlacementBaseRating = 800.0
	PlacementRatingSpan = 1200.0

	// PlacementSlack widens the accepted placement rating range above the top band's floor.
	PlacementSlack = 200.0
	// PlacementTolerance widens the declared tier's band when cross-checking a placement.
	PlacementTolerance = 50.0

	// standardBandWidth is the width of every closed band; the open top band borrows it for its midpoint.
	standardBandWidth = 200.0
)

// Game rule constants.
const (
	// MaxHearts is the number of wrong answers an endless game tolerates.
	MaxHearts = 3
	// BlitzWindow is the scoring window of a blitz game.
	BlitzWindow = 60 * time.Second
	// MaxRoundsPerGame bounds a submitted round list.
	MaxRoundsPerGame = 500
	// MaxRoundTime bounds the time reported for a single round.
	MaxRoundTime = 10 * time.Minute
	// PlacementRounds is the fixed length of the placement quiz.
	PlacementRounds = 10
)

// Band is a half-open rating interval [Low, High). The top band has no upper bound.
type Band struct {
	Low  float64
	High float64
}

// Contains reports whether rating falls inside the band.
func (b Band) Contains(rating float64) bool {
	return rating >= b.Low && rating < b.High
}

// Expand returns the band widened by margin on both sides.
func (b Band) Expand(margin float64) Band {
	return Band{Low: b.Low - margin, High: b.High + margin}
}

// Midpoint returns the band center. The open top band uses a standard-width center.
func (b Band) Midpoint() float64 {
	if math.IsInf(b.High, 1) {
		return b.Low + standardBandWidth/2
	}
	return (b.Low + b.High) / 2
}

type tierInfo struct {
	name      string
	threshold int
	band      Band
}

// table is indexed by Tier-1. Thresholds must stay strictly increasing and
// bands contiguous; progression_test.go enforces both.
var table = [...]tierInfo{
	{name: "Beginner", threshold: 0, band: Band{Low: 700, High: 900}},
	{name: "Novice", threshold: 100, band: Band{Low: 900, High: 1100}},
	{name: "Apprentice", threshold: 300, band: Band{Low: 1100, High: 1300}},
	{name: "Skilled", threshold: 700, band: Band{Low: 1300, High: 1500}},
	{name: "Expert", threshold: 1500, band: Band{Low: 1500, High: 1700}},
	{name: "Master", threshold: 3000, band: Band{Low: 1700, High: 1900}},
	{name: "Champion", threshold: 6000, band: Band{Low: 1900, High: math.Inf(1)}},
}

// Tiers returns every tier in ascending order.
func Tiers() []Tier {
	out := make([]Tier, 0, len(table))
	for t := MinTier; t <= MaxTier; t++ {
		out = append(out, t)
	}
	return out
}

// Valid reports whether t is within [MinTier, MaxTier].
func (t Tier) Valid() bool {
	return t >= MinTier && t <= MaxTier
}

// Name returns the display label, or "" for an invalid tier.
func (t Tier) Name() string {
	if !t.Valid() {
		return ""
	}
	return table[t-1].name
}

// Threshold returns the minimum cumulative XP for the tier.
func (t Tier) Threshold() int {
	return table[Clamp(int(t))-1].threshold
}

// Band returns the rating band for the tier.
func (t Tier) Band() Band {
	return table[Clamp(int(t))-1].band
}

// Clamp forces an arbitrary integer into the valid tier range.
func Clamp(v int) Tier {
	switch {
	case v < int(MinTier):
		return MinTier
	case v > int(MaxTier):
		return MaxTier
	default:
		return Tier(v)
	}
}

// TierForXP returns the highest tier whose threshold is <= xp. Negative XP maps to MinTier.
func TierForXP(xp int) Tier {
	// First index whose threshold exceeds xp; the tier is the one before it.
	idx := sort.Search(len(table), func(i int) bool { return table[i].threshold > xp })
	if idx == 0 {
		return MinTier
	}
	return Tier(idx)
}

// NextThreshold returns the XP threshold of the tier after the one xp belongs to.
// ok is false at the top tier.
func NextThreshold(xp int) (threshold int, ok bool) {
	t := TierForXP(xp)
	if t == MaxTier {
		return 0, false
	}
	return (t + 1).Threshold(), true
}

// TierForRating returns the tier whose band contains rating.
// Ratings below the lowest band map to MinTier.
func TierForRating(rating float64) Tier {
	for t := MaxTier; t > MinTier; t-- {
		if rating >= t.Band().Low {
			return t
		}
	}
	return MinTier
}

// PlacementRatingRange is the structural range a placement rating must fall in.
// Unlike tier bands, both ends are inclusive.
func PlacementRatingRange() Band {
	return Band{Low: MinTier.Band().Low, High: MaxTier.Band().Low + PlacementSlack}
}

// XPForGame computes the authoritative XP award for one finished game.
// Endless games pay per verified correct word; blitz games scale the verified
// score. Negative inputs award nothing.
func XPForGame(track domain.Track, correctCount, modeScore int) int {
	switch track.Mode() {
	case domain.ModeEndless:
		return max(correctCount, 0) * XPPerCorrectEndless
	case domain.ModeBlitz:
		return max(modeScore, 0) * BlitzScoreMultiplier
	default:
		return 0
	}
}
