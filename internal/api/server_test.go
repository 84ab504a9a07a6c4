package api

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/danielgtaylor/huma/v2/humatest"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/spellbee/spellbee-server/internal/auth"
	"github.com/spellbee/spellbee-server/internal/domain"
	"github.com/spellbee/spellbee-server/internal/logger"
	"github.com/spellbee/spellbee-server/internal/metrics"
	"github.com/spellbee/spellbee-server/internal/ratelimit"
	"github.com/spellbee/spellbee-server/internal/rating"
	"github.com/spellbee/spellbee-server/internal/service"
	"github.com/spellbee/spellbee-server/internal/sse"
	"github.com/spellbee/spellbee-server/internal/store/sqlite"
)

// testEnvelope decodes the success envelope around T.
type testEnvelope[T any] struct {
	Version int    `json:"v"`
	Success bool   `json:"success"`
	Data    T      `json:"data"`
	Error   string `json:"error"`
	Code    string `json:"code"`
	Details any    `json:"details"`
}

type testServer struct {
	*Server
	api    humatest.TestAPI
	store  *sqlite.Store
	events *sse.Manager
}

func setupTestServer(t *testing.T) *testServer {
	return setupTestServerWithLimiter(t, nil)
}

func setupTestServerWithLimiter(t *testing.T, limiter *ratelimit.KeyedRateLimiter) *testServer {
	t.Helper()

	log := logger.Discard().Logger
	st, err := sqlite.Open(filepath.Join(t.TempDir(), "test.db"), log)
	require.NoError(t, err)
	t.Cleanup(func() { _ = st.Close() })

	key, err := auth.LoadOrGenerateKey(t.TempDir())
	require.NoError(t, err)
	tokens, err := auth.NewTokenService(key, time.Hour)
	require.NoError(t, err)

	reg := metrics.NewRegistry()
	m := metrics.New(reg)

	events := sse.NewManager(log)
	ctx, cancel := context.WithCancel(context.Background())
	go events.Start(ctx)
	t.Cleanup(cancel)

	games := service.NewGameService(st, rating.NewGlicko2(rating.DefaultTau), m, log)
	games.SetProgressPublisher(events)

	services := &Services{
		Auth:        service.NewAuthService(st, tokens, log),
		Profile:     service.NewProfileService(st, service.NewProfileGuard(log, m), m, log),
		Game:        games,
		Leaderboard: service.NewLeaderboardService(st, m, log),
		Word:        service.NewWordService(st, log),
	}

	s := NewServer(st, services, limiter, reg, sse.NewHandler(events, log), ServerConfig{Name: "SpellBee API Test", Version: "1.0.0"}, log)

	return &testServer{
		Server: s,
		api:    humatest.Wrap(t, s.API()),
		store:  st,
		events: events,
	}
}

func decode[T any](t *testing.T, resp *httptest.ResponseRecorder) testEnvelope[T] {
	t.Helper()
	var env testEnvelope[T]
	require.NoError(t, json.Unmarshal(resp.Body.Bytes(), &env), "body: %s", resp.Body.String())
	return env
}

func bearer(token string) string {
	return "Authorization: Bearer " + token
}

// startSession creates an account and returns its token and id.
func (ts *testServer) startSession(t *testing.T) (token, accountID string) {
	t.Helper()
	resp := ts.api.Post("/api/v1/auth/session", struct{}{})
	require.Equal(t, http.StatusCreated, resp.Code, resp.Body.String())

	env := decode[SessionResponse](t, resp)
	return env.Data.AccessToken, env.Data.AccountID
}

// signUp starts a session and completes a profile without placement.
func (ts *testServer) signUp(t *testing.T, username string) (token, accountID string) {
	t.Helper()
	token, accountID = ts.startSession(t)
	resp := ts.api.Post("/api/v1/profile", bearer(token), map[string]any{"username": username})
	require.Equal(t, http.StatusOK, resp.Code, resp.Body.String())
	return token, accountID
}

func (ts *testServer) seedWords(t *testing.T) {
	t.Helper()
	var words []domain.Word
	for tier := 1; tier <= 7; tier++ {
		for _, text := range []string{"apple", "banana", "cherry"} {
			words = append(words, domain.Word{
				ID:   fmt.Sprintf("word-%s%d", text, tier),
				Text: fmt.Sprintf("%s%s", text, strings.Repeat("s", tier-1)),
				Tier: tier,
			})
		}
	}
	_, err := ts.store.UpsertWords(context.Background(), words)
	require.NoError(t, err)
}

func TestHealthCheck(t *testing.T) {
	ts := setupTestServer(t)

	resp := ts.api.Get("/health")
	require.Equal(t, http.StatusOK, resp.Code)

	env := decode[HealthResponse](t, resp)
	assert.Equal(t, EnvelopeVersion, env.Version)
	assert.True(t, env.Success)
	assert.Equal(t, "healthy", env.Data.Status)
	assert.Equal(t, "healthy", env.Data.Components["database"].Status)
}

func TestMetricsEndpoint(t *testing.T) {
	ts := setupTestServer(t)

	req := httptest.NewRequest(http.MethodGet, "/metrics", nil)
	rec := httptest.NewRecorder()
	ts.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "go_goroutines")
}

func TestRateLimit(t *testing.T) {
	limiter := ratelimit.New(0.001, 2, time.Minute)
	t.Cleanup(limiter.Stop)
	ts := setupTestServerWithLimiter(t, limiter)

	for range 2 {
		resp := ts.api.Get("/health")
		require.Equal(t, http.StatusOK, resp.Code)
	}

	resp := ts.api.Get("/health")
	require.Equal(t, http.StatusTooManyRequests, resp.Code)

	env := decode[any](t, resp)
	assert.False(t, env.Success)
	assert.Equal(t, "RATE_LIMITED", env.Code)
	assert.Equal(t, "60", resp.Header().Get("Retry-After"))
}

func TestUnauthenticated(t *testing.T) {
	ts := setupTestServer(t)

	tests := []struct {
		method string
		path   string
	}{
		{http.MethodGet, "/api/v1/profile"},
		{http.MethodPost, "/api/v1/games"},
		{http.MethodGet, "/api/v1/progress?track=endless_voice"},
	}
	for _, tt := range tests {
		t.Run(tt.method+" "+tt.path, func(t *testing.T) {
			var resp *httptest.ResponseRecorder
			if tt.method == http.MethodGet {
				resp = ts.api.Get(tt.path, bearer("v4.local.forged"))
			} else {
				resp = ts.api.Post(tt.path, bearer("v4.local.forged"), map[string]any{"mode": "endless", "inputMethod": "voice"})
			}
			require.Equal(t, http.StatusUnauthorized, resp.Code, resp.Body.String())

			env := decode[any](t, resp)
			assert.False(t, env.Success)
			assert.Equal(t, "UNAUTHORIZED", env.Code)
		})
	}
}
