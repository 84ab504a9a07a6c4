package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strconv"
	"time"

	"golang.org/x/sync/singleflight"

	"github.com/spellbee/spellbee-server/internal/domain"
	domainerrors "github.com/spellbee/spellbee-server/internal/errors"
	"github.com/spellbee/spellbee-server/internal/metrics"
	"github.com/spellbee/spellbee-server/internal/normalize"
	"github.com/spellbee/spellbee-server/internal/progression"
	"github.com/spellbee/spellbee-server/internal/store"
)

// leaderboardQueryTimeout bounds a shared page read so one slow caller cannot
// hold every waiter hostage.
const leaderboardQueryTimeout = 5 * time.Second

// LeaderboardService ranks players on a track.
//
// Pages are computed on demand from tier progress, with accuracy and best
// streak aggregated from finished games for the shown rows only. They are
// best-effort: a game finalized between the count and the page read can shift
// rows by one.
type LeaderboardService struct {
	store   store.Store
	metrics *metrics.Metrics
	logger  *slog.Logger
	group   singleflight.Group
}

// NewLeaderboardService creates a new leaderboard service.
func NewLeaderboardService(store store.Store, m *metrics.Metrics, logger *slog.Logger) *LeaderboardService {
	return &LeaderboardService{
		store:   store,
		metrics: m,
		logger:  logger,
	}
}

// LeaderboardRequest selects a page. PlayerID is optional and enables the
// requester's position.
type LeaderboardRequest struct {
	Track    domain.Track `json:"track" validate:"required,track"`
	Page     int          `json:"page" validate:"gte=0"`
	PageSize int          `json:"pageSize" validate:"gte=0,lte=100"`
	Search   string       `json:"search" validate:"max=40"`
	PlayerID string       `json:"-"`
}

type sharedPage struct {
	entries []store.LeaderboardEntry
	total   int
	stats   map[string]domain.PlayerStats
}

// GetLeaderboard returns one page of the track leaderboard. Pages past the end
// are empty, never an error.
func (s *LeaderboardService) GetLeaderboard(ctx context.Context, req LeaderboardRequest) (_ *domain.LeaderboardPage, err error) {
	ctx, span := tracer.Start(ctx, "LeaderboardService.GetLeaderboard")
	defer func() { endSpan(span, err) }()

	started := time.Now()
	defer func() { s.metrics.LeaderboardServed(time.Since(started)) }()

	if err := validate.Validate(req); err != nil {
		return nil, err
	}
	if req.Page == 0 {
		req.Page = 1
	}
	if req.PageSize == 0 {
		req.PageSize = store.DefaultPageSize
	}

	query := store.LeaderboardQuery{
		Track:      req.Track,
		SearchKey:  normalize.SearchTerm(req.Search),
		PageParams: store.PageParams{Page: req.Page, PageSize: req.PageSize},
	}

	page, err := s.loadPage(ctx, query)
	if err != nil {
		return nil, err
	}

	offset := query.Offset()
	out := &domain.LeaderboardPage{
		Track:        req.Track,
		Players:      make([]domain.LeaderboardRow, 0, len(page.entries)),
		TotalPlayers: page.total,
		Page:         req.Page,
		PageSize:     req.PageSize,
		TotalPages:   store.TotalPages(page.total, req.PageSize),
	}

	onPage := false
	for i, e := range page.entries {
		out.Players = append(out.Players, leaderboardRow(offset+i+1, e, page.stats[e.PlayerID]))
		if e.PlayerID == req.PlayerID {
			onPage = true
		}
	}

	if req.PlayerID == "" {
		return out, nil
	}

	pos, entry, err := s.store.LeaderboardPosition(ctx, req.Track, req.PlayerID)
	if errors.Is(err, store.ErrNotFound) {
		// Requesters without progress on the track just get no position.
		return out, nil
	}
	if err != nil {
		return nil, fmt.Errorf("leaderboard position: %w", err)
	}
	out.CurrentUserPosition = &pos
	if !onPage {
		stats, err := s.store.LeaderboardStats(ctx, req.Track, []string{req.PlayerID})
		if err != nil {
			return nil, fmt.Errorf("leaderboard stats: %w", err)
		}
		row := leaderboardRow(pos, *entry, stats[req.PlayerID])
		out.CurrentUser = &row
	}
	return out, nil
}

// loadPage coalesces identical concurrent page reads.
func (s *LeaderboardService) loadPage(ctx context.Context, query store.LeaderboardQuery) (*sharedPage, error) {
	key := string(query.Track) + "|" + strconv.Itoa(query.Page) + "|" + strconv.Itoa(query.PageSize) + "|" + query.SearchKey

	ch := s.group.DoChan(key, func() (any, error) {
		qctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), leaderboardQueryTimeout)
		defer cancel()

		entries, total, err := s.store.LeaderboardPage(qctx, query)
		if err != nil {
			return nil, err
		}

		ids := make([]string, len(entries))
		for i, e := range entries {
			ids[i] = e.PlayerID
		}
		stats, err := s.store.LeaderboardStats(qctx, query.Track, ids)
		if err != nil {
			return nil, fmt.Errorf("stats: %w", err)
		}
		return &sharedPage{entries: entries, total: total, stats: stats}, nil
	})

	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	case res := <-ch:
		if res.Err != nil {
			return nil, fmt.Errorf("leaderboard page: %w", res.Err)
		}
		if res.Shared {
			s.logger.Debug("leaderboard page shared", "track", query.Track, "page", query.Page)
		}
		return res.Val.(*sharedPage), nil
	}
}

// leaderboardRow projects an entry and its game-history stats. A zero stats
// value (no finished games) yields accuracy 0 and streak 0.
func leaderboardRow(rank int, e store.LeaderboardEntry, stats domain.PlayerStats) domain.LeaderboardRow {
	tier := progression.TierForXP(e.XP)
	return domain.LeaderboardRow{
		Rank:     rank,
		PlayerID: e.PlayerID,
		Username: e.Username,
		AvatarID: domain.AvatarID(e.AvatarID),
		Tier:     int(tier),
		TierName: tier.Name(),
		XP:       e.XP,
		Accuracy:   stats.Accuracy(),
		BestStreak: stats.BestStreak,
	}
}

// ProgressSummary is the player's standing on one track.
type ProgressSummary struct {
	Track         domain.Track `json:"track"`
	Tier          int          `json:"tier"`
	TierName      string       `json:"tierName"`
	XP            int          `json:"xp"`
	XPForNextTier *int         `json:"xpForNextTier,omitempty"`
	Position      int          `json:"position"`
	TotalPlayers  int          `json:"totalPlayers"`
}

// GetProgress returns the player's tier, XP and leaderboard position on a track.
func (s *LeaderboardService) GetProgress(ctx context.Context, accountID string, track domain.Track) (_ *ProgressSummary, err error) {
	ctx, span := tracer.Start(ctx, "LeaderboardService.GetProgress")
	defer func() { endSpan(span, err) }()

	if !track.Valid() {
		return nil, domainerrors.ValidationWithDetails("validation failed", map[string]string{"track": "must be a valid track"})
	}
	player, err := requirePlayer(ctx, s.store, accountID)
	if err != nil {
		return nil, err
	}

	progress, err := s.store.GetProgress(ctx, player.ID, track)
	if errors.Is(err, store.ErrNotFound) {
		return nil, domainerrors.NotFound("no progress on this track")
	}
	if err != nil {
		return nil, fmt.Errorf("get progress: %w", err)
	}

	pos, _, err := s.store.LeaderboardPosition(ctx, track, player.ID)
	if err != nil {
		return nil, fmt.Errorf("leaderboard position: %w", err)
	}
	total, err := s.store.CountTrackPlayers(ctx, track)
	if err != nil {
		return nil, fmt.Errorf("count players: %w", err)
	}

	tier := progression.TierForXP(progress.XP)
	summary := &ProgressSummary{
		Track:        track,
		Tier:         int(tier),
		TierName:     tier.Name(),
		XP:           progress.XP,
		Position:     pos,
		TotalPlayers: total,
	}
	if next, ok := progression.NextThreshold(progress.XP); ok {
		summary.XPForNextTier = &next
	}
	return summary, nil
}
