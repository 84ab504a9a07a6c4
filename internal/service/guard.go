package service

import (
	"context"
	"log/slog"
	"math"

	"github.com/spellbee/spellbee-server/internal/domain"
	domainerrors "github.com/spellbee/spellbee-server/internal/errors"
	"github.com/spellbee/spellbee-server/internal/metrics"
	"github.com/spellbee/spellbee-server/internal/progression"
)

// PlacementDecision is the guard's verdict on a submitted placement record.
type PlacementDecision string

// Decisions. Rejections are returned as errors, never as a decision.
const (
	PlacementAbsent    PlacementDecision = metrics.PlacementAbsent
	PlacementAccepted  PlacementDecision = metrics.PlacementAccepted
	PlacementDiscarded PlacementDecision = metrics.PlacementDiscarded
)

// Seed is the starting state for a new player.
type Seed struct {
	Rating     float64
	RD         float64
	Volatility float64
	StartXP    int
	Decision   PlacementDecision
}

// DefaultSeed is the starting state without placement credit.
func DefaultSeed(decision PlacementDecision) Seed {
	return Seed{
		Rating:     progression.InitialRating,
		RD:         progression.InitialRD,
		Volatility: progression.InitialVolatility,
		StartXP:    0,
		Decision:   decision,
	}
}

// ProfileGuard checks a client-supplied placement record before it seeds a player.
//
// Malformed records fail with a validation error. A well-formed record whose
// rating falls outside the placement range or does not fit its declared tier is
// dropped without an error and the player starts from defaults, so probing the
// boundary only ever yields "no placement credit".
type ProfileGuard struct {
	logger  *slog.Logger
	metrics *metrics.Metrics
}

// NewProfileGuard creates a guard.
func NewProfileGuard(logger *slog.Logger, m *metrics.Metrics) *ProfileGuard {
	return &ProfileGuard{logger: logger, metrics: m}
}

// Evaluate validates rec and returns the seed to apply. A nil rec yields defaults.
// Only rejections are counted here; the other decisions are counted once the
// player row is actually created.
func (g *ProfileGuard) Evaluate(ctx context.Context, accountID string, rec *domain.PlacementRecord) (Seed, error) {
	if rec == nil {
		return DefaultSeed(PlacementAbsent), nil
	}

	if err := checkPlacementShape(rec); err != nil {
		g.metrics.Placement(metrics.PlacementRejected)
		g.logger.InfoContext(ctx, "placement rejected",
			"account_id", accountID,
			"derived_tier", rec.DerivedTier,
			"rating", rec.Rating,
			"rd", rec.RD,
		)
		return Seed{}, err
	}

	tier := progression.Tier(rec.DerivedTier)
	if !placementConsistent(tier, rec.Rating) {
		g.logger.WarnContext(ctx, "placement discarded: rating inconsistent with declared tier",
			"account_id", accountID,
			"derived_tier", rec.DerivedTier,
			"rating", rec.Rating,
			"band_low", tier.Band().Low,
		)
		return DefaultSeed(PlacementDiscarded), nil
	}

	return Seed{
		Rating:     rec.Rating,
		RD:         rec.RD,
		Volatility: progression.InitialVolatility,
		StartXP:    tier.Threshold(),
		Decision:   PlacementAccepted,
	}, nil
}

// checkPlacementShape rejects records that no honest placement run can produce:
// a tier outside 1..7, a non-numeric rating or an RD outside [MinRD, InitialRD].
func checkPlacementShape(rec *domain.PlacementRecord) error {
	if !progression.Tier(rec.DerivedTier).Valid() {
		return placementError("derivedTier", "must be between 1 and 7")
	}
	if !finite(rec.Rating) {
		return placementError("rating", "must be a number")
	}
	if !finite(rec.RD) || rec.RD < progression.MinRD || rec.RD > progression.InitialRD {
		return placementError("rd", "out of range")
	}
	return nil
}

// placementConsistent reports whether rating lies in the placement range
// (both ends inclusive) and inside the tier's band widened by the tolerance.
func placementConsistent(tier progression.Tier, rating float64) bool {
	bounds := progression.PlacementRatingRange()
	if rating < bounds.Low || rating > bounds.High {
		return false
	}
	return tier.Band().Expand(progression.PlacementTolerance).Contains(rating)
}

func placementError(field, msg string) error {
	return domainerrors.ValidationWithDetails("invalid placement", map[string]string{"placement." + field: msg})
}

func finite(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}
