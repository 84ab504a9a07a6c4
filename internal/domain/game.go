package domain

import "time"

// GameStatus tracks a game's lifecycle. Games move from in_progress to finished exactly once.
type GameStatus string

const (
	// GameStatusInProgress is set on creation.
	GameStatusInProgress GameStatus = "in_progress"
	// GameStatusFinished is set by finalization and never changes again.
	GameStatusFinished GameStatus = "finished"
)

// Game is a single play session on a track.
type Game struct {
	ID         string     `json:"id"`
	Track      Track      `json:"track"`
	Status     GameStatus `json:"status"`
	CreatedBy  string     `json:"createdBy"`
	CreatedAt  time.Time  `json:"createdAt"`
	FinishedAt *time.Time `json:"finishedAt,omitempty"`
}

// GamePlayer is a participant row. It owns the finalized result summary.
type GamePlayer struct {
	ID              string     `json:"id"`
	GameID          string     `json:"gameId"`
	PlayerID        string     `json:"playerId"`
	CorrectCount    int        `json:"correctCount"`
	TotalRounds     int        `json:"totalRounds"`
	BestStreak      int        `json:"bestStreak"`
	Score           int        `json:"score"`
	HeartsRemaining int        `json:"heartsRemaining"`
	XPEarned        int        `json:"xpEarned"`
	FinishedAt      *time.Time `json:"finishedAt,omitempty"`
}

// Round is one verified answer in a finished game. Rounds are append-only.
type Round struct {
	Index   int    `json:"index"`
	WordID  string `json:"wordId"`
	Answer  string `json:"answer"`
	Correct bool   `json:"correct"` // Verified server-side, never taken from the client.
	TimeMs  int64  `json:"timeMs"`
}

// GameResult is the verified outcome written when a game is finalized.
type GameResult struct {
	GameID          string
	PlayerID        string
	Track           Track
	Rounds          []Round
	CorrectCount    int
	BestStreak      int
	Score           int
	HeartsRemaining int
	XPEarned        int
	FinishedAt      time.Time
}
