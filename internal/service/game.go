package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/spellbee/spellbee-server/internal/domain"
	domainerrors "github.com/spellbee/spellbee-server/internal/errors"
	"github.com/spellbee/spellbee-server/internal/id"
	"github.com/spellbee/spellbee-server/internal/metrics"
	"github.com/spellbee/spellbee-server/internal/normalize"
	"github.com/spellbee/spellbee-server/internal/progression"
	"github.com/spellbee/spellbee-server/internal/rating"
	"github.com/spellbee/spellbee-server/internal/store"
)

// WordOpponentRD is the deviation assigned to the virtual opponent each word stands for.
const WordOpponentRD = 80.0

// WordRepeatWindow is how many rounds must pass before a word may be asked
// again in the same game. Clients can exclude that many recent ids when they
// draw the next word.
const WordRepeatWindow = MaxExcludedWords

// ProgressPublisher receives a player's XP change once a finalized game is committed.
type ProgressPublisher interface {
	PublishProgress(u domain.ProgressUpdate)
}

// GameService creates games and finalizes their results.
type GameService struct {
	store     store.Store
	rater     rating.Rater
	publisher ProgressPublisher
	metrics   *metrics.Metrics
	logger    *slog.Logger
	now       func() time.Time
}

// NewGameService creates a new game service. A nil rater disables skill updates.
func NewGameService(store store.Store, rater rating.Rater, m *metrics.Metrics, logger *slog.Logger) *GameService {
	return &GameService{
		store:   store,
		rater:   rater,
		metrics: m,
		logger:  logger,
		now:     time.Now,
	}
}

// CreateGameRequest starts a game on the track named by mode and input method.
type CreateGameRequest struct {
	Mode        domain.GameMode    `json:"mode" validate:"required,mode"`
	InputMethod domain.InputMethod `json:"inputMethod" validate:"required,input_method"`
}

// CreatedGame identifies a new game and the caller's participant row.
type CreatedGame struct {
	GameID       string       `json:"gameId"`
	GamePlayerID string       `json:"gamePlayerId"`
	Track        domain.Track `json:"track"`
}

// CreateGame opens an in_progress game owned by the account's player.
func (s *GameService) CreateGame(ctx context.Context, accountID string, req CreateGameRequest) (_ *CreatedGame, err error) {
	ctx, span := tracer.Start(ctx, "GameService.CreateGame")
	defer func() { endSpan(span, err) }()

	if err := validate.Validate(req); err != nil {
		return nil, err
	}
	player, err := requirePlayer(ctx, s.store, accountID)
	if err != nil {
		return nil, err
	}

	track := domain.TrackFor(req.Mode, req.InputMethod)
	game := &domain.Game{
		ID:        id.MustGenerate(id.PrefixGame),
		Track:     track,
		Status:    domain.GameStatusInProgress,
		CreatedBy: player.ID,
		CreatedAt: s.now().UTC(),
	}
	participant := &domain.GamePlayer{
		ID:       id.MustGenerate(id.PrefixGamePlayer),
		GameID:   game.ID,
		PlayerID: player.ID,
	}

	if err := s.store.CreateGame(ctx, game, participant); err != nil {
		return nil, fmt.Errorf("create game: %w", err)
	}

	s.logger.Debug("game created", "game_id", game.ID, "player_id", player.ID, "track", track)
	return &CreatedGame{GameID: game.ID, GamePlayerID: participant.ID, Track: track}, nil
}

// SubmittedRound is one round as reported by the client. Any client-side
// correctness flag is ignored; the answer is graded here.
type SubmittedRound struct {
	WordID string `json:"wordId" validate:"required"`
	Answer string `json:"answer" validate:"max=64"`
	TimeMs int64  `json:"timeMs" validate:"gte=0,lte=600000"` // progression.MaxRoundTime
}

// FinalizeRequest is the client's report of a finished game.
type FinalizeRequest struct {
	Rounds          []SubmittedRound `json:"rounds" validate:"max=500,dive"`
	HeartsRemaining int              `json:"heartsRemaining" validate:"gte=0,lte=3"`
	ClientScore     *int             `json:"clientScore,omitempty"`
	ClientXP        *int             `json:"clientXp,omitempty"`
}

// FinalizeResult is the authoritative outcome of a finalized game.
type FinalizeResult struct {
	XPEarned     int `json:"xpEarned"`
	CorrectCount int `json:"correctCount"`
	Score        int `json:"score"`
	BestStreak   int `json:"bestStreak"`
}

// FinalizeGame grades the submitted rounds, awards XP from the verified result
// and commits everything in one store transaction. Client-reported score and
// XP are only compared for anomaly logging.
func (s *GameService) FinalizeGame(ctx context.Context, accountID, gameID string, req FinalizeRequest) (_ *FinalizeResult, err error) {
	ctx, span := tracer.Start(ctx, "GameService.FinalizeGame")
	defer func() { endSpan(span, err) }()

	if err := validate.Validate(req); err != nil {
		return nil, err
	}
	player, err := requirePlayer(ctx, s.store, accountID)
	if err != nil {
		return nil, err
	}

	game, err := s.store.GetGame(ctx, gameID)
	if errors.Is(err, store.ErrNotFound) {
		return nil, domainerrors.NotFound("game not found")
	}
	if err != nil {
		return nil, fmt.Errorf("get game: %w", err)
	}
	if game.CreatedBy != player.ID {
		return nil, domainerrors.Forbidden("forbidden")
	}
	if game.Status != domain.GameStatusInProgress {
		return nil, domainerrors.Conflict("game already finalized")
	}

	words, err := s.lookupWords(ctx, req.Rounds)
	if err != nil {
		return nil, err
	}

	now := s.now().UTC()
	result, err := gradeGame(game.Track, req.Rounds, words)
	if err != nil {
		return nil, err
	}
	result.GameID = game.ID
	result.PlayerID = player.ID
	result.FinishedAt = now

	s.compareClientReport(ctx, game, req, result)

	params := store.FinalizeParams{
		GameID:     game.ID,
		PlayerID:   player.ID,
		Result:     *result,
		FinishedAt: now,
	}
	if s.rater != nil && len(result.Rounds) > 0 {
		outcomes := roundOutcomes(result.Rounds, words)
		params.Rate = func(current domain.SkillEstimate) domain.SkillEstimate {
			next := rating.ClampRD(s.rater.Rate(rating.Estimate{
				Rating:     current.Rating,
				RD:         current.RD,
				Volatility: current.Volatility,
			}, outcomes), progression.MinRD, progression.InitialRD)
			current.Rating, current.RD, current.Volatility = next.Rating, next.RD, next.Volatility
			return current
		}
	}

	if err := s.store.FinalizeGame(ctx, params); err != nil {
		switch {
		case errors.Is(err, store.ErrNotFound):
			return nil, domainerrors.NotFound("game not found")
		case errors.Is(err, store.ErrForbidden):
			return nil, domainerrors.Forbidden("forbidden")
		case errors.Is(err, store.ErrGameFinished):
			return nil, domainerrors.Conflict("game already finalized")
		default:
			return nil, fmt.Errorf("finalize game: %w", err)
		}
	}

	s.metrics.GameFinalized(game.Track, result.XPEarned)
	s.logger.Info("game finalized",
		"game_id", game.ID,
		"player_id", player.ID,
		"track", game.Track,
		"rounds", len(result.Rounds),
		"correct", result.CorrectCount,
		"xp", result.XPEarned,
	)

	if s.publisher != nil {
		s.publishProgress(ctx, player, game.Track, result.XPEarned, now)
	}

	return &FinalizeResult{
		XPEarned:     result.XPEarned,
		CorrectCount: result.CorrectCount,
		Score:        result.Score,
		BestStreak:   result.BestStreak,
	}, nil
}

// GameHistory is a game with the owner's recorded result and rounds.
type GameHistory struct {
	Game   *domain.Game       `json:"game"`
	Result *domain.GamePlayer `json:"result"`
	Rounds []domain.Round     `json:"rounds"`
}

// GetGame returns a game owned by the account's player together with its
// verified rounds. Games still in progress have no rounds yet.
func (s *GameService) GetGame(ctx context.Context, accountID, gameID string) (_ *GameHistory, err error) {
	ctx, span := tracer.Start(ctx, "GameService.GetGame")
	defer func() { endSpan(span, err) }()

	player, err := requirePlayer(ctx, s.store, accountID)
	if err != nil {
		return nil, err
	}

	game, err := s.store.GetGame(ctx, gameID)
	if errors.Is(err, store.ErrNotFound) {
		return nil, domainerrors.NotFound("game not found")
	}
	if err != nil {
		return nil, fmt.Errorf("get game: %w", err)
	}
	if game.CreatedBy != player.ID {
		return nil, domainerrors.Forbidden("forbidden")
	}

	gp, err := s.store.GetGamePlayer(ctx, game.ID, player.ID)
	if errors.Is(err, store.ErrNotFound) {
		return nil, domainerrors.NotFound("game not found")
	}
	if err != nil {
		return nil, fmt.Errorf("get game player: %w", err)
	}

	rounds, err := s.store.ListRounds(ctx, gp.ID)
	if err != nil {
		return nil, fmt.Errorf("list rounds: %w", err)
	}
	if rounds == nil {
		rounds = []domain.Round{}
	}
	return &GameHistory{Game: game, Result: gp, Rounds: rounds}, nil
}

// SetProgressPublisher sets the receiver of post-finalize progress updates.
func (s *GameService) SetProgressPublisher(p ProgressPublisher) {
	s.publisher = p
}

// publishProgress reads the committed XP back and hands the change to the
// publisher. Failures only cost the live update, never the finalize.
func (s *GameService) publishProgress(ctx context.Context, player *domain.Player, track domain.Track, earned int, at time.Time) {
	p, err := s.store.GetProgress(ctx, player.ID, track)
	if err != nil {
		s.logger.Warn("progress update not published", "player_id", player.ID, "track", track, "error", err)
		return
	}
	s.publisher.PublishProgress(domain.ProgressUpdate{
		Track:        track,
		PlayerID:     player.ID,
		Username:     player.Username,
		XP:           p.XP,
		XPEarned:     earned,
		Tier:         int(progression.TierForXP(p.XP)),
		PreviousTier: int(progression.TierForXP(p.XP - earned)),
		At:           at,
	})
}

// lookupWords resolves every referenced word. An unknown id fails validation.
func (s *GameService) lookupWords(ctx context.Context, rounds []SubmittedRound) (map[string]*domain.Word, error) {
	if len(rounds) == 0 {
		return map[string]*domain.Word{}, nil
	}
	ids := make([]string, 0, len(rounds))
	for _, r := range rounds {
		ids = append(ids, r.WordID)
	}
	words, err := s.store.GetWordsByIDs(ctx, ids)
	if err != nil {
		return nil, fmt.Errorf("get words: %w", err)
	}
	for i, r := range rounds {
		if _, ok := words[r.WordID]; !ok {
			return nil, domainerrors.ValidationWithDetails("validation failed",
				map[string]string{fmt.Sprintf("rounds[%d].wordId", i): "unknown word"})
		}
	}
	return words, nil
}

// gradeGame verifies every round and derives the mode score and XP.
//
// Endless: score is the verified correct count and the game ends on the
// MaxHearts-th wrong answer, so no round may follow it. Blitz: score counts
// correct rounds whose cumulative elapsed time still fits inside BlitzWindow.
// In both modes a word may not come back within WordRepeatWindow rounds.
func gradeGame(track domain.Track, submitted []SubmittedRound, words map[string]*domain.Word) (*domain.GameResult, error) {
	res := &domain.GameResult{
		Track:  track,
		Rounds: make([]domain.Round, 0, len(submitted)),
	}

	var (
		streak   int
		wrong    int
		elapsed  time.Duration
		inTime   int
		lastSeen = make(map[string]int, len(submitted))
	)
	for i, r := range submitted {
		if track.Mode() == domain.ModeEndless && wrong >= progression.MaxHearts {
			return nil, roundError(i, fmt.Sprintf("endless games end after %d wrong answers", progression.MaxHearts))
		}
		if prev, ok := lastSeen[r.WordID]; ok && i-prev < WordRepeatWindow {
			return nil, roundError(i, fmt.Sprintf("word repeated within %d rounds", WordRepeatWindow))
		}
		lastSeen[r.WordID] = i

		correct := normalize.Matches(r.Answer, words[r.WordID].Text)
		elapsed += time.Duration(r.TimeMs) * time.Millisecond

		res.Rounds = append(res.Rounds, domain.Round{
			Index:   i,
			WordID:  r.WordID,
			Answer:  r.Answer,
			Correct: correct,
			TimeMs:  r.TimeMs,
		})

		if !correct {
			wrong++
			streak = 0
			continue
		}
		res.CorrectCount++
		streak++
		res.BestStreak = max(res.BestStreak, streak)
		if elapsed <= progression.BlitzWindow {
			inTime++
		}
	}

	switch track.Mode() {
	case domain.ModeEndless:
		res.Score = res.CorrectCount
		res.HeartsRemaining = progression.MaxHearts - wrong
	case domain.ModeBlitz:
		res.Score = inTime
		res.HeartsRemaining = progression.MaxHearts
	}

	res.XPEarned = progression.XPForGame(track, res.CorrectCount, res.Score)
	return res, nil
}

func roundError(i int, msg string) error {
	return domainerrors.ValidationWithDetails("validation failed",
		map[string]string{fmt.Sprintf("rounds[%d]", i): msg})
}

// roundOutcomes turns graded rounds into rating outcomes against a virtual
// opponent rated at the centre of the word's tier band.
func roundOutcomes(rounds []domain.Round, words map[string]*domain.Word) []rating.Outcome {
	out := make([]rating.Outcome, 0, len(rounds))
	for _, r := range rounds {
		score := 0.0
		if r.Correct {
			score = 1
		}
		out = append(out, rating.Outcome{
			OpponentRating: progression.Tier(words[r.WordID].Tier).Band().Midpoint(),
			OpponentRD:     WordOpponentRD,
			Score:          score,
		})
	}
	return out
}

func (s *GameService) compareClientReport(ctx context.Context, game *domain.Game, req FinalizeRequest, res *domain.GameResult) {
	if req.ClientXP != nil && *req.ClientXP != res.XPEarned {
		s.metrics.RewardDiscrepancy("xp")
		s.logger.WarnContext(ctx, "client xp overridden",
			"game_id", game.ID, "player_id", res.PlayerID, "client_xp", *req.ClientXP, "server_xp", res.XPEarned)
	}
	if req.ClientScore != nil && *req.ClientScore != res.Score {
		s.metrics.RewardDiscrepancy("score")
		s.logger.WarnContext(ctx, "client score overridden",
			"game_id", game.ID, "player_id", res.PlayerID, "client_score", *req.ClientScore, "server_score", res.Score)
	}
	if game.Track.Mode() == domain.ModeEndless && req.HeartsRemaining != res.HeartsRemaining {
		s.logger.InfoContext(ctx, "hearts mismatch",
			"game_id", game.ID, "client_hearts", req.HeartsRemaining, "server_hearts", res.HeartsRemaining)
	}
}
