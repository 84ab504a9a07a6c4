package providers

import (
	"github.com/samber/do/v2"

	"github.com/spellbee/spellbee-server/internal/auth"
	"github.com/spellbee/spellbee-server/internal/config"
	"github.com/spellbee/spellbee-server/internal/logger"
	"github.com/spellbee/spellbee-server/internal/metrics"
	"github.com/spellbee/spellbee-server/internal/rating"
	"github.com/spellbee/spellbee-server/internal/service"
)

// ProvideProfileGuard provides the placement guard used at profile completion.
func ProvideProfileGuard(i do.Injector) (*service.ProfileGuard, error) {
	log := do.MustInvoke[*logger.Logger](i)
	m := do.MustInvoke[*metrics.Metrics](i)
	return service.NewProfileGuard(log.Component("guard"), m), nil
}

// ProvideAuthService provides the session service.
func ProvideAuthService(i do.Injector) (*service.AuthService, error) {
	storeHandle := do.MustInvoke[*StoreHandle](i)
	tokens := do.MustInvoke[*auth.TokenService](i)
	log := do.MustInvoke[*logger.Logger](i)
	return service.NewAuthService(storeHandle.Store, tokens, log.Component("auth")), nil
}

// ProvideProfileService provides the profile service.
func ProvideProfileService(i do.Injector) (*service.ProfileService, error) {
	storeHandle := do.MustInvoke[*StoreHandle](i)
	guard := do.MustInvoke[*service.ProfileGuard](i)
	m := do.MustInvoke[*metrics.Metrics](i)
	log := do.MustInvoke[*logger.Logger](i)
	return service.NewProfileService(storeHandle.Store, guard, m, log.Component("profile")), nil
}

// ProvideGameService provides the game service. Rating updates can be switched
// off per deployment, in which case finalized games only award XP.
func ProvideGameService(i do.Injector) (*service.GameService, error) {
	cfg := do.MustInvoke[*config.Config](i)
	storeHandle := do.MustInvoke[*StoreHandle](i)
	m := do.MustInvoke[*metrics.Metrics](i)
	log := do.MustInvoke[*logger.Logger](i)

	var rater rating.Rater
	if cfg.Game.RatingUpdates {
		rater = rating.NewGlicko2(rating.DefaultTau)
	} else {
		log.Info("Skill rating updates disabled by configuration")
	}

	games := service.NewGameService(storeHandle.Store, rater, m, log.Component("game"))
	games.SetProgressPublisher(do.MustInvoke[*SSEManagerHandle](i).Manager)
	return games, nil
}

// ProvideLeaderboardService provides the leaderboard service.
func ProvideLeaderboardService(i do.Injector) (*service.LeaderboardService, error) {
	storeHandle := do.MustInvoke[*StoreHandle](i)
	m := do.MustInvoke[*metrics.Metrics](i)
	log := do.MustInvoke[*logger.Logger](i)
	return service.NewLeaderboardService(storeHandle.Store, m, log.Component("leaderboard")), nil
}

// ProvideWordService provides the word bank service.
func ProvideWordService(i do.Injector) (*service.WordService, error) {
	storeHandle := do.MustInvoke[*StoreHandle](i)
	log := do.MustInvoke[*logger.Logger](i)
	return service.NewWordService(storeHandle.Store, log.Component("words")), nil
}
