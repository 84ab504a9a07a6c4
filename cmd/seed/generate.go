package main

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"
	"unicode"

	"github.com/brianvoe/gofakeit/v7"

	"github.com/spellbee/spellbee-server/internal/domain"
	domainerrors "github.com/spellbee/spellbee-server/internal/errors"
	"github.com/spellbee/spellbee-server/internal/placement"
	"github.com/spellbee/spellbee-server/internal/progression"
	"github.com/spellbee/spellbee-server/internal/service"
	"github.com/spellbee/spellbee-server/internal/validation"
)

// maxSimRounds bounds a simulated game for strong players.
const maxSimRounds = 60

// tierForLength maps word length onto tiers: 3 letters is tier 1, 9+ is tier 7.
func tierForLength(n int) int {
	return int(progression.Clamp(n - 2))
}

// generateWords draws dictionary words until every tier has perTier of them
// or the faker stops producing new ones.
func generateWords(f *gofakeit.Faker, perTier int) []service.WordInput {
	counts := make(map[int]int)
	seen := make(map[string]bool)
	var out []service.WordInput

	for attempts := 0; attempts < perTier*int(progression.MaxTier)*50; attempts++ {
		text := strings.ToLower(f.Word())
		if len(text) < 3 || seen[text] || !lettersOnly(text) {
			continue
		}
		tier := tierForLength(len(text))
		if counts[tier] >= perTier {
			continue
		}
		seen[text] = true
		counts[tier]++
		out = append(out, service.WordInput{Text: text, Tier: tier})
	}
	return out
}

func lettersOnly(s string) bool {
	for _, r := range s {
		if !unicode.IsLetter(r) {
			return false
		}
	}
	return true
}

// simStats summarizes a simulation run.
type simStats struct {
	players int
	games   int
	xp      int
}

type simulator struct {
	env *seedEnv
	f   *gofakeit.Faker
}

func newSimulator(env *seedEnv) *simulator {
	return &simulator{env: env, f: env.faker}
}

// run creates count players. Each one takes the placement quiz with a hidden
// skill level, completes a profile and finishes games games.
func (s *simulator) run(ctx context.Context, count, games int) (simStats, error) {
	var stats simStats
	for range count {
		skill := s.f.Float64Range(0.2, 0.97)

		accountID, tier, err := s.createPlayer(ctx, skill)
		if errors.Is(err, domainerrors.ErrConflict) {
			// Faker usernames collide occasionally; skip the player.
			continue
		}
		if err != nil {
			return stats, err
		}
		stats.players++

		for range games {
			xp, err := s.playGame(ctx, accountID, tier, skill)
			if err != nil {
				return stats, err
			}
			stats.games++
			stats.xp += xp
		}
	}
	return stats, nil
}

func (s *simulator) createPlayer(ctx context.Context, skill float64) (string, progression.Tier, error) {
	session, err := s.env.auth.StartSession(ctx)
	if err != nil {
		return "", 0, fmt.Errorf("start session: %w", err)
	}

	runner := placement.NewRunner(s.env.words, s.env.logger.Logger, placement.WithFeedbackDelay(0))
	summary, err := runner.Run(ctx, placement.AnswererFunc(func(_ context.Context, w domain.Word) (string, error) {
		return s.answer(w, skill), nil
	}))
	if err != nil {
		return "", 0, fmt.Errorf("placement: %w", err)
	}

	req := service.CompleteProfileRequest{Username: s.username()}
	if !summary.Failed {
		req.Placement = &summary.Record
	}
	avatar := s.f.Number(1, 8)
	req.AvatarID = &avatar

	player, err := s.env.profiles.CompleteProfile(ctx, session.AccountID, req)
	if err != nil {
		return "", 0, err
	}
	s.env.logger.Debug("seeded player", "player_id", player.ID, "username", player.Username, "skill", skill)

	tier := progression.TierBeginner
	if req.Placement != nil {
		tier = progression.Clamp(req.Placement.DerivedTier)
	}
	return session.AccountID, tier, nil
}

// playGame plays one game on a random track and finalizes it.
func (s *simulator) playGame(ctx context.Context, accountID string, tier progression.Tier, skill float64) (int, error) {
	mode := domain.ModeEndless
	if s.f.Bool() {
		mode = domain.ModeBlitz
	}
	input := domain.InputKeyboard
	if s.f.Bool() {
		input = domain.InputVoice
	}

	created, err := s.env.games.CreateGame(ctx, accountID, service.CreateGameRequest{Mode: mode, InputMethod: input})
	if err != nil {
		return 0, fmt.Errorf("create game: %w", err)
	}

	var (
		rounds  []service.SubmittedRound
		used    []string
		wrong   int
		elapsed time.Duration
	)
	// Stop before the exclude list overflows so no word repeats within a game.
	for len(rounds) < maxSimRounds && len(used) < service.MaxExcludedWords {
		if mode == domain.ModeEndless && wrong >= progression.MaxHearts {
			break
		}
		if mode == domain.ModeBlitz && elapsed >= progression.BlitzWindow {
			break
		}

		w, err := s.env.words.NextWord(ctx, tier, used)
		if errors.Is(err, domainerrors.ErrNotFound) {
			break
		}
		if err != nil {
			return 0, fmt.Errorf("next word: %w", err)
		}
		used = append(used, w.ID)

		spent := time.Duration(s.f.Number(1500, 8000)) * time.Millisecond
		elapsed += spent

		answer := s.answer(*w, skill)
		if answer != w.Text {
			wrong++
		}
		rounds = append(rounds, service.SubmittedRound{WordID: w.ID, Answer: answer, TimeMs: spent.Milliseconds()})
	}

	req := service.FinalizeRequest{Rounds: rounds}
	if mode == domain.ModeEndless {
		req.HeartsRemaining = max(progression.MaxHearts-wrong, 0)
	}

	res, err := s.env.games.FinalizeGame(ctx, accountID, created.GameID, req)
	if err != nil {
		return 0, fmt.Errorf("finalize game: %w", err)
	}
	return res.XPEarned, nil
}

// answer spells the word right with probability skill, otherwise garbles it.
func (s *simulator) answer(w domain.Word, skill float64) string {
	if s.f.Float64() < skill {
		return w.Text
	}
	return w.Text + s.f.Letter()
}

// username derives a valid display name from a faker username.
func (s *simulator) username() string {
	base := strings.Map(func(r rune) rune {
		if unicode.IsLetter(r) || unicode.IsDigit(r) || r == '_' {
			return r
		}
		return -1
	}, s.f.Username())
	if len(base) > 16 {
		base = base[:16]
	}
	name := base + s.f.Numerify("###")
	if !validation.ValidUsername(name) {
		return "bee_" + s.f.Numerify("######")
	}
	return name
}
