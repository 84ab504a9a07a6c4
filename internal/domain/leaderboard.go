package domain

import "time"

// LeaderboardRow is a read-model projection. It is computed on demand and never stored.
type LeaderboardRow struct {
	Rank       int      `json:"rank"`
	PlayerID   string   `json:"id"`
	Username   string   `json:"username"`
	AvatarID   AvatarID `json:"avatarId"`
	Tier       int      `json:"tier"`
	TierName   string   `json:"tierName"`
	XP         int      `json:"xp"`
	Accuracy   float64  `json:"accuracy"`
	BestStreak int      `json:"bestStreak"`
}

// LeaderboardPage is one page of a track's leaderboard.
type LeaderboardPage struct {
	Track               Track            `json:"track"`
	Players             []LeaderboardRow `json:"players"`
	TotalPlayers        int              `json:"totalPlayers"`
	Page                int              `json:"page"`
	PageSize            int              `json:"pageSize"`
	TotalPages          int              `json:"totalPages"`
	CurrentUserPosition *int             `json:"currentUserPosition,omitempty"`
	CurrentUser         *LeaderboardRow  `json:"currentUser,omitempty"`
}

// PlayerStats are the per-track aggregates joined onto leaderboard rows.
type PlayerStats struct {
	PlayerID     string
	CorrectCount int
	TotalRounds  int
	BestStreak   int
}

// Accuracy returns correct/total, or 0 when no rounds were played.
func (s PlayerStats) Accuracy() float64 {
	if s.TotalRounds == 0 {
		return 0
	}
	return float64(s.CorrectCount) / float64(s.TotalRounds)
}

// ProgressUpdate describes a player's XP change on a track after a finalized game.
type ProgressUpdate struct {
	Track        Track     `json:"track"`
	PlayerID     string    `json:"playerId"`
	Username     string    `json:"username"`
	XP           int       `json:"xp"`
	XPEarned     int       `json:"xpEarned"`
	Tier         int       `json:"tier"`
	PreviousTier int       `json:"previousTier"`
	At           time.Time `json:"at"`
}

// TierUp reports whether the update crossed into a higher tier.
func (u ProgressUpdate) TierUp() bool {
	return u.Tier > u.PreviousTier
}
