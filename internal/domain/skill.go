package domain

import "time"

// SkillEstimate is the hidden rating triple used for difficulty matching.
// One estimate exists per player, shared by every track.
type SkillEstimate struct {
	PlayerID   string    `json:"playerId"`
	Rating     float64   `json:"rating"`
	RD         float64   `json:"rd"`
	Volatility float64   `json:"volatility"`
	GamesRated int       `json:"gamesRated"`
	UpdatedAt  time.Time `json:"updatedAt"`
}

// TierProgress is the visible XP ledger for one player on one track.
// The tier is not stored; derive it with progression.TierForXP.
type TierProgress struct {
	PlayerID     string    `json:"playerId"`
	Track        Track     `json:"track"`
	XP           int       `json:"xp"`
	GamesPlayed  int       `json:"gamesPlayed"`
	CorrectCount int       `json:"correctCount"`
	TotalRounds  int       `json:"totalRounds"`
	BestStreak   int       `json:"bestStreak"`
	UpdatedAt    time.Time `json:"updatedAt"`
}

// Stats returns the aggregate counters as PlayerStats.
func (p TierProgress) Stats() PlayerStats {
	return PlayerStats{
		PlayerID:     p.PlayerID,
		CorrectCount: p.CorrectCount,
		TotalRounds:  p.TotalRounds,
		BestStreak:   p.BestStreak,
	}
}

// PlacementRecord is the one-time output of the placement quiz, produced before
// an account exists and consumed once when the profile is completed.
type PlacementRecord struct {
	DerivedTier int       `json:"derivedTier"`
	Rating      float64   `json:"rating"`
	RD          float64   `json:"rd"`
	Accuracy    float64   `json:"accuracy"`
	Rounds      int       `json:"rounds"`
	CreatedAt   time.Time `json:"createdAt"`
}
