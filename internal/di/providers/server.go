package providers

import (
	"context"
	"errors"
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/samber/do/v2"

	"github.com/spellbee/spellbee-server/internal/api"
	"github.com/spellbee/spellbee-server/internal/config"
	"github.com/spellbee/spellbee-server/internal/logger"
	"github.com/spellbee/spellbee-server/internal/service"
	"github.com/spellbee/spellbee-server/internal/sse"
)

// apiVersion is reported in the OpenAPI document.
const apiVersion = "1.0.0"

// HTTPServerHandle wraps http.Server with Shutdownable.
type HTTPServerHandle struct {
	*http.Server
}

// Shutdown implements do.Shutdownable.
func (h *HTTPServerHandle) Shutdown() error {
	ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	return h.Server.Shutdown(ctx)
}

// ProvideHTTPServer builds the API handler and starts listening in the background.
func ProvideHTTPServer(i do.Injector) (*HTTPServerHandle, error) {
	cfg := do.MustInvoke[*config.Config](i)
	storeHandle := do.MustInvoke[*StoreHandle](i)
	limiterHandle := do.MustInvoke[*RateLimiterHandle](i)
	registry := do.MustInvoke[*prometheus.Registry](i)
	sseHandle := do.MustInvoke[*SSEManagerHandle](i)
	log := do.MustInvoke[*logger.Logger](i)

	services := &api.Services{
		Auth:        do.MustInvoke[*service.AuthService](i),
		Profile:     do.MustInvoke[*service.ProfileService](i),
		Game:        do.MustInvoke[*service.GameService](i),
		Leaderboard: do.MustInvoke[*service.LeaderboardService](i),
		Word:        do.MustInvoke[*service.WordService](i),
	}

	handler := api.NewServer(
		storeHandle.Store,
		services,
		limiterHandle.KeyedRateLimiter,
		registry,
		sse.NewHandler(sseHandle.Manager, log.Component("sse")),
		api.ServerConfig{
			Name:           cfg.Server.Name,
			Version:        apiVersion,
			AllowedOrigins: cfg.Server.AllowedOrigins,
		},
		log.Component("http"),
	)

	srv := &http.Server{
		Addr:         ":" + cfg.Server.Port,
		Handler:      handler,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
	}

	go func() {
		log.Info("HTTP server starting", "addr", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error("HTTP server error", "error", err)
		}
	}()

	return &HTTPServerHandle{Server: srv}, nil
}
