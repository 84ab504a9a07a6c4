package api

import (
	"github.com/spellbee/spellbee-server/internal/service"
)

// Services groups all business logic services used by the API server.
type Services struct {
	Auth        *service.AuthService
	Profile     *service.ProfileService
	Game        *service.GameService
	Leaderboard *service.LeaderboardService
	Word        *service.WordService
}
