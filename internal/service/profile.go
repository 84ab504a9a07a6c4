package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/spellbee/spellbee-server/internal/domain"
	domainerrors "github.com/spellbee/spellbee-server/internal/errors"
	"github.com/spellbee/spellbee-server/internal/metrics"
	"github.com/spellbee/spellbee-server/internal/normalize"
	"github.com/spellbee/spellbee-server/internal/progression"
	"github.com/spellbee/spellbee-server/internal/store"
)

// MinBirthYear is the earliest accepted birth year.
const MinBirthYear = 1900

// ProfileService completes and reads player profiles.
type ProfileService struct {
	store   store.Store
	guard   *ProfileGuard
	metrics *metrics.Metrics
	logger  *slog.Logger
	now     func() time.Time
}

// NewProfileService creates a new profile service.
func NewProfileService(store store.Store, guard *ProfileGuard, m *metrics.Metrics, logger *slog.Logger) *ProfileService {
	return &ProfileService{
		store:   store,
		guard:   guard,
		metrics: m,
		logger:  logger,
		now:     time.Now,
	}
}

// CompleteProfileRequest is the one-time profile submission.
type CompleteProfileRequest struct {
	Username  string                  `json:"username" validate:"required,username"`
	BirthYear *int                    `json:"birthYear,omitempty"`
	AvatarID  *int                    `json:"avatarId,omitempty" validate:"omitempty,avatar"`
	Placement *domain.PlacementRecord `json:"placement,omitempty"`
}

// CompleteProfile creates the player for an account and seeds its skill and
// progress from the placement record. Repeating the call for an account that
// already has a player returns that player unchanged.
func (s *ProfileService) CompleteProfile(ctx context.Context, accountID string, req CompleteProfileRequest) (_ *domain.Player, err error) {
	ctx, span := tracer.Start(ctx, "ProfileService.CompleteProfile")
	defer func() { endSpan(span, err) }()

	if err := validate.Validate(req); err != nil {
		return nil, err
	}
	now := s.now().UTC()
	if req.BirthYear != nil && (*req.BirthYear < MinBirthYear || *req.BirthYear > now.Year()) {
		return nil, domainerrors.ValidationWithDetails("validation failed",
			map[string]string{"birthYear": fmt.Sprintf("must be between %d and %d", MinBirthYear, now.Year())})
	}

	if _, err := s.store.GetAccount(ctx, accountID); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, domainerrors.Unauthorized("unknown account")
		}
		return nil, fmt.Errorf("get account: %w", err)
	}

	key := normalize.UsernameKey(req.Username)
	taken, err := s.store.UsernameTaken(ctx, key, accountID)
	if err != nil {
		return nil, fmt.Errorf("check username: %w", err)
	}
	if taken {
		return nil, domainerrors.Conflict("username taken")
	}

	seed, err := s.guard.Evaluate(ctx, accountID, req.Placement)
	if err != nil {
		return nil, err
	}

	avatar := domain.DefaultAvatar
	if req.AvatarID != nil {
		avatar = domain.AvatarID(*req.AvatarID)
	}

	player := &domain.Player{
		ID:        accountID,
		Username:  normalize.Username(req.Username),
		AvatarID:  avatar,
		BirthYear: req.BirthYear,
		Status:    domain.PlayerStatusActive,
		CreatedAt: now,
		UpdatedAt: now,
	}

	created, isNew, err := s.store.CreatePlayer(ctx, store.CreatePlayerParams{
		Player:      player,
		UsernameKey: key,
		Skill: domain.SkillEstimate{
			PlayerID:   accountID,
			Rating:     seed.Rating,
			RD:         seed.RD,
			Volatility: seed.Volatility,
		},
		StartXP: seed.StartXP,
	})
	if errors.Is(err, store.ErrAlreadyExists) {
		// Lost a race for the name after the check above.
		return nil, domainerrors.Conflict("username taken")
	}
	if err != nil {
		return nil, fmt.Errorf("create player: %w", err)
	}

	if !isNew {
		s.logger.Info("profile already completed", "player_id", accountID)
		return created, nil
	}

	s.metrics.Placement(string(seed.Decision))
	s.logger.Info("profile completed",
		"player_id", accountID,
		"placement", seed.Decision,
		"start_tier", int(progression.TierForXP(seed.StartXP)),
	)
	return created, nil
}

// TrackProgress is the visible progression on one track.
type TrackProgress struct {
	Track         domain.Track `json:"track"`
	Tier          int          `json:"tier"`
	TierName      string       `json:"tierName"`
	XP            int          `json:"xp"`
	XPForNextTier *int         `json:"xpForNextTier,omitempty"`
	GamesPlayed   int          `json:"gamesPlayed"`
	Accuracy      float64      `json:"accuracy"`
	BestStreak    int          `json:"bestStreak"`
}

func newTrackProgress(p domain.TierProgress) TrackProgress {
	tier := progression.TierForXP(p.XP)
	tp := TrackProgress{
		Track:       p.Track,
		Tier:        int(tier),
		TierName:    tier.Name(),
		XP:          p.XP,
		GamesPlayed: p.GamesPlayed,
		Accuracy:    p.Stats().Accuracy(),
		BestStreak:  p.BestStreak,
	}
	if next, ok := progression.NextThreshold(p.XP); ok {
		tp.XPForNextTier = &next
	}
	return tp
}

// ProfileView is the owner's view of their profile.
type ProfileView struct {
	Player   *domain.Player  `json:"player"`
	Skill    SkillView       `json:"skill"`
	Progress []TrackProgress `json:"progress"`
}

// SkillView is the public projection of the skill estimate.
type SkillView struct {
	Rating     float64 `json:"rating"`
	RD         float64 `json:"rd"`
	Tier       int     `json:"tier"`
	TierName   string  `json:"tierName"`
	GamesRated int     `json:"gamesRated"`
}

// GetProfile returns the player, its skill estimate and per-track progress.
func (s *ProfileService) GetProfile(ctx context.Context, accountID string) (_ *ProfileView, err error) {
	ctx, span := tracer.Start(ctx, "ProfileService.GetProfile")
	defer func() { endSpan(span, err) }()

	player, err := requirePlayer(ctx, s.store, accountID)
	if err != nil {
		return nil, err
	}

	skill, err := s.store.GetSkillEstimate(ctx, accountID)
	if err != nil {
		return nil, fmt.Errorf("get skill estimate: %w", err)
	}

	rows, err := s.store.ListProgress(ctx, accountID)
	if err != nil {
		return nil, fmt.Errorf("list progress: %w", err)
	}

	progress := make([]TrackProgress, 0, len(rows))
	for _, r := range rows {
		progress = append(progress, newTrackProgress(r))
	}

	tier := progression.TierForRating(skill.Rating)
	return &ProfileView{
		Player: player,
		Skill: SkillView{
			Rating:     skill.Rating,
			RD:         skill.RD,
			Tier:       int(tier),
			TierName:   tier.Name(),
			GamesRated: skill.GamesRated,
		},
		Progress: progress,
	}, nil
}
