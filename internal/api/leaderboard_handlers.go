package api

import (
	"context"
	"net/http"

	"github.com/danielgtaylor/huma/v2"

	"github.com/spellbee/spellbee-server/internal/domain"
	"github.com/spellbee/spellbee-server/internal/service"
)

func (s *Server) registerLeaderboardRoutes() {
	huma.Register(s.api, huma.Operation{
		OperationID: "getLeaderboard",
		Method:      http.MethodGet,
		Path:        "/api/v1/leaderboard",
		Summary:     "Get leaderboard",
		Description: "Returns one page of a track leaderboard ordered by XP. With a bearer token the caller's position is included.",
		Tags:        []string{"Leaderboard"},
	}, s.handleGetLeaderboard)

	huma.Register(s.api, huma.Operation{
		OperationID: "getProgress",
		Method:      http.MethodGet,
		Path:        "/api/v1/progress",
		Summary:     "Get progress",
		Description: "Returns the caller's tier, XP and leaderboard position on a track",
		Tags:        []string{"Leaderboard"},
		Security:    []map[string][]string{{"bearer": {}}},
	}, s.handleGetProgress)
}

// === DTOs ===

// GetLeaderboardInput contains leaderboard query parameters.
type GetLeaderboardInput struct {
	Track    string `query:"track" doc:"Track, e.g. endless_voice"`
	Page     int    `query:"page" doc:"1-based page number (default 1)"`
	PageSize int    `query:"pageSize" doc:"Rows per page, 1..100 (default 20)"`
	Search   string `query:"search" doc:"Case-insensitive username substring"`
}

// LeaderboardOutput wraps a leaderboard page for Huma.
type LeaderboardOutput struct {
	Body *domain.LeaderboardPage
}

// GetProgressInput contains progress query parameters.
type GetProgressInput struct {
	Track string `query:"track" doc:"Track, e.g. endless_voice"`
}

// ProgressOutput wraps a progress summary for Huma.
type ProgressOutput struct {
	Body *service.ProgressSummary
}

// === Handlers ===

func (s *Server) handleGetLeaderboard(ctx context.Context, input *GetLeaderboardInput) (*LeaderboardOutput, error) {
	page, err := s.services.Leaderboard.GetLeaderboard(ctx, service.LeaderboardRequest{
		Track:    domain.Track(input.Track),
		Page:     input.Page,
		PageSize: input.PageSize,
		Search:   input.Search,
		PlayerID: optionalAccountID(ctx),
	})
	if err != nil {
		return nil, err
	}
	return &LeaderboardOutput{Body: page}, nil
}

func (s *Server) handleGetProgress(ctx context.Context, input *GetProgressInput) (*ProgressOutput, error) {
	accountID, err := GetAccountID(ctx)
	if err != nil {
		return nil, err
	}

	summary, err := s.services.Leaderboard.GetProgress(ctx, accountID, domain.Track(input.Track))
	if err != nil {
		return nil, err
	}
	return &ProgressOutput{Body: summary}, nil
}
