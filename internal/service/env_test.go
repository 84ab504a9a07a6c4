package service

import (
	"context"
	"log/slog"
	"path/filepath"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/require"

	"github.com/spellbee/spellbee-server/internal/auth"
	"github.com/spellbee/spellbee-server/internal/domain"
	"github.com/spellbee/spellbee-server/internal/logger"
	"github.com/spellbee/spellbee-server/internal/metrics"
	"github.com/spellbee/spellbee-server/internal/rating"
	"github.com/spellbee/spellbee-server/internal/store"
	"github.com/spellbee/spellbee-server/internal/store/sqlite"
)

// testEnv wires every service against a temp-dir SQLite store.
type testEnv struct {
	store       *sqlite.Store
	metrics     *metrics.Metrics
	logger      *slog.Logger
	tokens      *auth.TokenService
	auth        *AuthService
	profiles    *ProfileService
	games       *GameService
	leaderboard *LeaderboardService
	words       *WordService
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()

	log := logger.Discard().Logger
	st, err := sqlite.Open(filepath.Join(t.TempDir(), "test.db"), log)
	require.NoError(t, err)
	t.Cleanup(func() { _ = st.Close() })

	key, err := auth.LoadOrGenerateKey(t.TempDir())
	require.NoError(t, err)
	tokens, err := auth.NewTokenService(key, time.Hour)
	require.NoError(t, err)

	m := metrics.New(prometheus.NewRegistry())

	return &testEnv{
		store:       st,
		metrics:     m,
		logger:      log,
		tokens:      tokens,
		auth:        NewAuthService(st, tokens, log),
		profiles:    NewProfileService(st, NewProfileGuard(log, m), m, log),
		games:       NewGameService(st, rating.NewGlicko2(rating.DefaultTau), m, log),
		leaderboard: NewLeaderboardService(st, m, log),
		words:       NewWordService(st, log),
	}
}

// newAccount creates a bare account without a player profile.
func (e *testEnv) newAccount(t *testing.T, accountID string) {
	t.Helper()
	now := time.Now().UTC()
	require.NoError(t, e.store.CreateAccount(context.Background(),
		&domain.Account{ID: accountID, CreatedAt: now, LastSeenAt: now}))
}

// newPlayer creates an account and an active player with every track at startXP.
func (e *testEnv) newPlayer(t *testing.T, accountID, username string, startXP int) *domain.Player {
	t.Helper()
	e.newAccount(t, accountID)

	now := time.Now().UTC()
	p, created, err := e.store.CreatePlayer(context.Background(), store.CreatePlayerParams{
		Player: &domain.Player{
			ID:        accountID,
			Username:  username,
			AvatarID:  domain.DefaultAvatar,
			Status:    domain.PlayerStatusActive,
			CreatedAt: now,
			UpdatedAt: now,
		},
		UsernameKey: username,
		Skill: domain.SkillEstimate{
			Rating:     1000,
			RD:         350,
			Volatility: 0.06,
		},
		StartXP: startXP,
	})
	require.NoError(t, err)
	require.True(t, created)
	return p
}

// seedWordBank stores ten words per tier. Word "w3-b" spells "wordbd".
func (e *testEnv) seedWordBank(t *testing.T) {
	t.Helper()
	var words []domain.Word
	for tier := 1; tier <= 7; tier++ {
		for n := range 10 {
			letter := string(rune('a' + n))
			words = append(words, domain.Word{
				ID:   "w" + string(rune('0'+tier)) + "-" + letter,
				Text: "word" + letter + string(rune('a'+tier)),
				Tier: tier,
			})
		}
	}
	_, err := e.store.UpsertWords(context.Background(), words)
	require.NoError(t, err)
}
