// Package store defines the persistence interface for the SpellBee server.
package store

import (
	"context"
	"time"

	"github.com/spellbee/spellbee-server/internal/domain"
)

// Store defines the interface for all persistence operations.
type Store interface {
	// Lifecycle
	Close() error
	Ping(ctx context.Context) error

	// Accounts
	CreateAccount(ctx context.Context, account *domain.Account) error
	GetAccount(ctx context.Context, id string) (*domain.Account, error)
	TouchAccount(ctx context.Context, id string, at time.Time) error

	// Players
	CreatePlayer(ctx context.Context, params CreatePlayerParams) (*domain.Player, bool, error)
	GetPlayer(ctx context.Context, id string) (*domain.Player, error)
	UsernameTaken(ctx context.Context, usernameKey, exceptPlayerID string) (bool, error)
	GetSkillEstimate(ctx context.Context, playerID string) (*domain.SkillEstimate, error)

	// Words
	UpsertWords(ctx context.Context, words []domain.Word) (int, error)
	GetWordsByIDs(ctx context.Context, ids []string) (map[string]*domain.Word, error)
	RandomWord(ctx context.Context, tier int, exclude []string) (*domain.Word, error)
	CountWordsByTier(ctx context.Context) (map[int]int, error)

	// Games
	CreateGame(ctx context.Context, game *domain.Game, participant *domain.GamePlayer) error
	GetGame(ctx context.Context, id string) (*domain.Game, error)
	GetGamePlayer(ctx context.Context, gameID, playerID string) (*domain.GamePlayer, error)
	ListRounds(ctx context.Context, gamePlayerID string) ([]domain.Round, error)
	FinalizeGame(ctx context.Context, params FinalizeParams) error

	// Progress
	GetProgress(ctx context.Context, playerID string, track domain.Track) (*domain.TierProgress, error)
	ListProgress(ctx context.Context, playerID string) ([]domain.TierProgress, error)

	// Leaderboard
	LeaderboardPage(ctx context.Context, query LeaderboardQuery) ([]LeaderboardEntry, int, error)
	LeaderboardPosition(ctx context.Context, track domain.Track, playerID string) (int, *LeaderboardEntry, error)
	CountTrackPlayers(ctx context.Context, track domain.Track) (int, error)
	LeaderboardStats(ctx context.Context, track domain.Track, playerIDs []string) (map[string]domain.PlayerStats, error)
}
