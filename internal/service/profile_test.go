package service

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/spellbee/spellbee-server/internal/domain"
	domainerrors "github.com/spellbee/spellbee-server/internal/errors"
	"github.com/spellbee/spellbee-server/internal/progression"
	"github.com/spellbee/spellbee-server/internal/store"
)

func intPtr(v int) *int { return &v }

func TestProfileService_CompleteProfile_AcceptedPlacement(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	env.newAccount(t, "acct-1")

	player, err := env.profiles.CompleteProfile(ctx, "acct-1", CompleteProfileRequest{
		Username:  "  Spelly ",
		BirthYear: intPtr(2012),
		AvatarID:  intPtr(3),
		Placement: &domain.PlacementRecord{DerivedTier: 4, Rating: 1400, RD: 200, Accuracy: 0.5, Rounds: 10},
	})
	require.NoError(t, err)
	assert.Equal(t, "acct-1", player.ID)
	assert.Equal(t, "Spelly", player.Username)
	assert.Equal(t, domain.AvatarID(3), player.AvatarID)

	skill, err := env.store.GetSkillEstimate(ctx, "acct-1")
	require.NoError(t, err)
	assert.Equal(t, 1400.0, skill.Rating)
	assert.Equal(t, 200.0, skill.RD)
	assert.Equal(t, progression.InitialVolatility, skill.Volatility)

	rows, err := env.store.ListProgress(ctx, "acct-1")
	require.NoError(t, err)
	require.Len(t, rows, len(domain.Tracks))
	for _, r := range rows {
		assert.Equal(t, progression.TierSkilled.Threshold(), r.XP, "track %s", r.Track)
	}
}

func TestProfileService_CompleteProfile_DiscardedPlacementUsesDefaults(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	env.newAccount(t, "acct-1")

	_, err := env.profiles.CompleteProfile(ctx, "acct-1", CompleteProfileRequest{
		Username:  "cheater",
		Placement: &domain.PlacementRecord{DerivedTier: 4, Rating: 50, RD: 200},
	})
	require.NoError(t, err)

	skill, err := env.store.GetSkillEstimate(ctx, "acct-1")
	require.NoError(t, err)
	assert.Equal(t, progression.InitialRating, skill.Rating)
	assert.Equal(t, progression.InitialRD, skill.RD)

	p, err := env.store.GetProgress(ctx, "acct-1", domain.TrackEndlessVoice)
	require.NoError(t, err)
	assert.Equal(t, 0, p.XP)
}

func TestProfileService_CompleteProfile_RejectedPlacementCreatesNothing(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	env.newAccount(t, "acct-1")

	_, err := env.profiles.CompleteProfile(ctx, "acct-1", CompleteProfileRequest{
		Username:  "tamperer",
		Placement: &domain.PlacementRecord{DerivedTier: 9, Rating: 1400, RD: 200},
	})
	require.Error(t, err)
	assert.ErrorIs(t, err, domainerrors.ErrValidation)

	_, err = env.profiles.GetProfile(ctx, "acct-1")
	assert.ErrorIs(t, err, domainerrors.ErrValidation, "profile still missing")
}

func TestProfileService_CompleteProfile_Idempotent(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	env.newAccount(t, "acct-1")

	req := CompleteProfileRequest{
		Username:  "repeat",
		Placement: &domain.PlacementRecord{DerivedTier: 5, Rating: 1600, RD: 200},
	}
	first, err := env.profiles.CompleteProfile(ctx, "acct-1", req)
	require.NoError(t, err)

	second, err := env.profiles.CompleteProfile(ctx, "acct-1", req)
	require.NoError(t, err)
	assert.Equal(t, first.ID, second.ID)

	p, err := env.store.GetProgress(ctx, "acct-1", domain.TrackBlitzKeyboard)
	require.NoError(t, err)
	assert.Equal(t, progression.TierExpert.Threshold(), p.XP, "retry must not seed twice")
}

func TestProfileService_CompleteProfile_UsernameTaken(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	env.newAccount(t, "acct-1")
	env.newAccount(t, "acct-2")

	_, err := env.profiles.CompleteProfile(ctx, "acct-1", CompleteProfileRequest{Username: "Speller"})
	require.NoError(t, err)

	_, err = env.profiles.CompleteProfile(ctx, "acct-2", CompleteProfileRequest{Username: "speller"})
	require.Error(t, err)
	assert.ErrorIs(t, err, domainerrors.ErrConflict)

	// The name is checked before the placement record is looked at.
	_, err = env.profiles.CompleteProfile(ctx, "acct-2", CompleteProfileRequest{
		Username:  "SPELLER",
		Placement: &domain.PlacementRecord{DerivedTier: 9, Rating: 1000, RD: 200},
	})
	assert.ErrorIs(t, err, domainerrors.ErrConflict)

	_, err = env.store.GetPlayer(ctx, "acct-2")
	assert.ErrorIs(t, err, store.ErrNotFound)

	// Re-submitting your own name is not a conflict.
	again, err := env.profiles.CompleteProfile(ctx, "acct-1", CompleteProfileRequest{Username: "speller"})
	require.NoError(t, err)
	assert.Equal(t, "Speller", again.Username)
}

func TestProfileService_CompleteProfile_Validation(t *testing.T) {
	tests := []struct {
		name string
		req  CompleteProfileRequest
	}{
		{"empty username", CompleteProfileRequest{Username: ""}},
		{"short username", CompleteProfileRequest{Username: "ab"}},
		{"username with spaces", CompleteProfileRequest{Username: "a b c"}},
		{"future birth year", CompleteProfileRequest{Username: "valid", BirthYear: intPtr(3000)}},
		{"ancient birth year", CompleteProfileRequest{Username: "valid", BirthYear: intPtr(1850)}},
		{"unknown avatar", CompleteProfileRequest{Username: "valid", AvatarID: intPtr(99)}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			env := newTestEnv(t)
			env.newAccount(t, "acct-1")

			_, err := env.profiles.CompleteProfile(context.Background(), "acct-1", tt.req)
			require.Error(t, err)
			assert.ErrorIs(t, err, domainerrors.ErrValidation)
		})
	}
}

func TestProfileService_CompleteProfile_UnknownAccount(t *testing.T) {
	env := newTestEnv(t)

	_, err := env.profiles.CompleteProfile(context.Background(), "acct-ghost", CompleteProfileRequest{Username: "ghost"})
	assert.ErrorIs(t, err, domainerrors.ErrUnauthorized)
}

func TestProfileService_GetProfile(t *testing.T) {
	env := newTestEnv(t)
	env.newPlayer(t, "acct-1", "viewer", 320)

	view, err := env.profiles.GetProfile(context.Background(), "acct-1")
	require.NoError(t, err)

	assert.Equal(t, "viewer", view.Player.Username)
	assert.Equal(t, int(progression.TierNovice), view.Skill.Tier)
	require.Len(t, view.Progress, len(domain.Tracks))
	for _, p := range view.Progress {
		assert.Equal(t, int(progression.TierApprentice), p.Tier)
		assert.Equal(t, "Apprentice", p.TierName)
		require.NotNil(t, p.XPForNextTier)
		assert.Equal(t, 700, *p.XPForNextTier)
	}
}

func TestProfileService_GetProfile_NeedsProfile(t *testing.T) {
	env := newTestEnv(t)
	env.newAccount(t, "acct-1")

	_, err := env.profiles.GetProfile(context.Background(), "acct-1")
	require.Error(t, err)

	var de *domainerrors.Error
	require.ErrorAs(t, err, &de)
	assert.Equal(t, domainerrors.CodeValidation, de.Code)
	assert.Equal(t, map[string]any{"needsProfile": true}, de.Details)
}
