package store

import (
	"time"

	"github.com/spellbee/spellbee-server/internal/domain"
)

// CreatePlayerParams creates a player together with its initial skill and progress.
type CreatePlayerParams struct {
	Player *domain.Player
	// UsernameKey is the case-folded username used for uniqueness and search.
	UsernameKey string
	// Skill is the initial skill estimate.
	Skill domain.SkillEstimate
	// StartXP seeds the XP of every track.
	StartXP int
}

// FinalizeParams carries one verified game result into the finalize transaction.
type FinalizeParams struct {
	GameID   string
	PlayerID string
	Result   domain.GameResult

	// Rate, when set, receives the current estimate inside the transaction and
	// returns the estimate to store. It must not block.
	Rate func(current domain.SkillEstimate) domain.SkillEstimate

	FinishedAt time.Time
}

// LeaderboardQuery selects one page of a track's leaderboard.
type LeaderboardQuery struct {
	Track domain.Track
	// SearchKey is a case-folded substring of the username; empty matches all.
	SearchKey string
	PageParams
}

// LeaderboardEntry is one ranked player. Stats are loaded separately through
// LeaderboardStats for the rows actually shown.
type LeaderboardEntry struct {
	PlayerID string
	Username string
	AvatarID int
	XP       int
}
