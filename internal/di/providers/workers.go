package providers

import (
	"context"
	"time"

	"github.com/samber/do/v2"

	"github.com/spellbee/spellbee-server/internal/config"
	"github.com/spellbee/spellbee-server/internal/logger"
	"github.com/spellbee/spellbee-server/internal/metrics"
	"github.com/spellbee/spellbee-server/internal/ratelimit"
	"github.com/spellbee/spellbee-server/internal/service"
	"github.com/spellbee/spellbee-server/internal/sse"
	"github.com/spellbee/spellbee-server/internal/wordlist"
)

// limiterIdleTTL is how long a client's bucket survives without requests.
const limiterIdleTTL = 10 * time.Minute

// RateLimiterHandle wraps the per-client limiter and its cleanup goroutine.
type RateLimiterHandle struct {
	*ratelimit.KeyedRateLimiter
}

// Shutdown implements do.Shutdownable.
func (h *RateLimiterHandle) Shutdown() error {
	h.Stop()
	return nil
}

// ProvideRateLimiter provides the per-client request limiter.
func ProvideRateLimiter(i do.Injector) (*RateLimiterHandle, error) {
	cfg := do.MustInvoke[*config.Config](i)
	log := do.MustInvoke[*logger.Logger](i)

	limiter := ratelimit.New(ratelimit.PerMinute(cfg.RateLimit.RequestsPerMinute), cfg.RateLimit.Burst, limiterIdleTTL)

	log.Info("Rate limiter started",
		"requests_per_minute", cfg.RateLimit.RequestsPerMinute,
		"burst", cfg.RateLimit.Burst,
	)

	return &RateLimiterHandle{KeyedRateLimiter: limiter}, nil
}

// SSEManagerHandle wraps the live leaderboard feed with its loop context.
type SSEManagerHandle struct {
	*sse.Manager
	cancel context.CancelFunc
}

// Shutdown implements do.Shutdownable.
func (h *SSEManagerHandle) Shutdown() error {
	h.cancel()
	ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	return h.Manager.Shutdown(ctx)
}

// ProvideSSEManager provides the server-sent events manager behind the live
// leaderboard feed.
func ProvideSSEManager(i do.Injector) (*SSEManagerHandle, error) {
	log := do.MustInvoke[*logger.Logger](i)

	manager := sse.NewManager(log.Component("sse"))

	ctx, cancel := context.WithCancel(context.Background())
	go manager.Start(ctx)

	log.Info("SSE manager started")

	return &SSEManagerHandle{
		Manager: manager,
		cancel:  cancel,
	}, nil
}

// WordListWatcherHandle owns the words directory watcher. Watcher is nil when
// no words directory is configured.
type WordListWatcherHandle struct {
	*wordlist.Watcher
	cancel context.CancelFunc
	done   chan struct{}
}

// Shutdown implements do.Shutdownable.
func (h *WordListWatcherHandle) Shutdown() error {
	if h.Watcher == nil {
		return nil
	}
	h.cancel()
	<-h.done
	return h.Close()
}

// ProvideWordListWatcher imports the configured words directory once and keeps
// watching it for changes.
func ProvideWordListWatcher(i do.Injector) (*WordListWatcherHandle, error) {
	cfg := do.MustInvoke[*config.Config](i)
	log := do.MustInvoke[*logger.Logger](i)

	if cfg.Game.WordsDir == "" {
		return &WordListWatcherHandle{}, nil
	}

	words := do.MustInvoke[*service.WordService](i)
	m := do.MustInvoke[*metrics.Metrics](i)

	watcher, err := wordlist.NewWatcher(cfg.Game.WordsDir, words, m, log.Component("wordlist"), wordlist.DefaultSettleDelay)
	if err != nil {
		return nil, err
	}

	n, err := watcher.LoadAll(context.Background())
	if err != nil {
		_ = watcher.Close()
		return nil, err
	}

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		defer close(done)
		if err := watcher.Run(ctx); err != nil {
			log.Error("Word list watcher stopped", "error", err)
		}
	}()

	log.Info("Word list watcher started", "dir", cfg.Game.WordsDir, "words", n)

	return &WordListWatcherHandle{
		Watcher: watcher,
		cancel:  cancel,
		done:    done,
	}, nil
}
