package api

import (
	"context"
	"net/http"

	"github.com/danielgtaylor/huma/v2"

	"github.com/spellbee/spellbee-server/internal/domain"
	"github.com/spellbee/spellbee-server/internal/service"
)

func (s *Server) registerGameRoutes() {
	huma.Register(s.api, huma.Operation{
		OperationID:   "createGame",
		Method:        http.MethodPost,
		Path:          "/api/v1/games",
		Summary:       "Create game",
		Description:   "Opens a game on the track named by mode and input method",
		Tags:          []string{"Games"},
		Security:      []map[string][]string{{"bearer": {}}},
		DefaultStatus: http.StatusCreated,
	}, s.handleCreateGame)

	huma.Register(s.api, huma.Operation{
		OperationID: "finalizeGame",
		Method:      http.MethodPost,
		Path:        "/api/v1/games/{gameId}/finalize",
		Summary:     "Finalize game",
		Description: "Grades the submitted rounds, awards XP and closes the game. Client-reported XP and score are advisory only.",
		Tags:        []string{"Games"},
		Security:    []map[string][]string{{"bearer": {}}},
	}, s.handleFinalizeGame)

	huma.Register(s.api, huma.Operation{
		OperationID: "getGame",
		Method:      http.MethodGet,
		Path:        "/api/v1/games/{gameId}",
		Summary:     "Get game",
		Description: "Returns one of the caller's games with its verified result and rounds",
		Tags:        []string{"Games"},
		Security:    []map[string][]string{{"bearer": {}}},
	}, s.handleGetGame)
}

// === DTOs ===

// CreateGameBody is the request body for creating a game.
type CreateGameBody struct {
	Mode        string `json:"mode" enum:"endless,blitz" doc:"Game mode"`
	InputMethod string `json:"inputMethod" enum:"voice,keyboard" doc:"Input method"`
}

// CreateGameInput wraps the create game request for Huma.
type CreateGameInput struct {
	Body CreateGameBody
}

// CreateGameOutput wraps the created game for Huma.
type CreateGameOutput struct {
	Body *service.CreatedGame
}

// RoundBody is one submitted round.
type RoundBody struct {
	WordID  string `json:"wordId" doc:"Word that was asked"`
	Answer  string `json:"answer,omitempty" doc:"What the player spelled; empty for a timeout"`
	TimeMs  int64  `json:"timeMs" doc:"Milliseconds spent on the round"`
	Correct *bool  `json:"correct,omitempty" doc:"Ignored; answers are graded by the server"`
}

// FinalizeGameBody is the request body for finalizing a game.
type FinalizeGameBody struct {
	Rounds          []RoundBody `json:"rounds" doc:"Rounds in play order"`
	HeartsRemaining int         `json:"heartsRemaining,omitempty" doc:"Hearts left at the end (endless)"`
	ClientScore     *int        `json:"clientScore,omitempty" doc:"Client-computed score, advisory"`
	ClientXP        *int        `json:"clientXp,omitempty" doc:"Client-computed XP, advisory"`
}

// FinalizeGameInput wraps the finalize request for Huma.
type FinalizeGameInput struct {
	GameID string `path:"gameId" doc:"Game ID"`
	Body   FinalizeGameBody
}

// FinalizeGameResponse reports the authoritative XP.
type FinalizeGameResponse struct {
	Success      bool `json:"success"`
	XPEarned     int  `json:"xpEarned" doc:"XP awarded by the server"`
	CorrectCount int  `json:"correctCount" doc:"Verified correct rounds"`
	Score        int  `json:"score" doc:"Verified mode score"`
}

// FinalizeGameOutput wraps the finalize response for Huma.
type FinalizeGameOutput struct {
	Body FinalizeGameResponse
}

// GetGameInput selects a game by id.
type GetGameInput struct {
	GameID string `path:"gameId" doc:"Game ID"`
}

// GetGameOutput wraps a game history for Huma.
type GetGameOutput struct {
	Body *service.GameHistory
}

// === Handlers ===

func (s *Server) handleCreateGame(ctx context.Context, input *CreateGameInput) (*CreateGameOutput, error) {
	accountID, err := GetAccountID(ctx)
	if err != nil {
		return nil, err
	}

	game, err := s.services.Game.CreateGame(ctx, accountID, service.CreateGameRequest{
		Mode:        domain.GameMode(input.Body.Mode),
		InputMethod: domain.InputMethod(input.Body.InputMethod),
	})
	if err != nil {
		return nil, err
	}
	return &CreateGameOutput{Body: game}, nil
}

func (s *Server) handleFinalizeGame(ctx context.Context, input *FinalizeGameInput) (*FinalizeGameOutput, error) {
	accountID, err := GetAccountID(ctx)
	if err != nil {
		return nil, err
	}

	rounds := make([]service.SubmittedRound, 0, len(input.Body.Rounds))
	for _, r := range input.Body.Rounds {
		rounds = append(rounds, service.SubmittedRound{
			WordID: r.WordID,
			Answer: r.Answer,
			TimeMs: r.TimeMs,
		})
	}

	res, err := s.services.Game.FinalizeGame(ctx, accountID, input.GameID, service.FinalizeRequest{
		Rounds:          rounds,
		HeartsRemaining: input.Body.HeartsRemaining,
		ClientScore:     input.Body.ClientScore,
		ClientXP:        input.Body.ClientXP,
	})
	if err != nil {
		return nil, err
	}

	return &FinalizeGameOutput{Body: FinalizeGameResponse{
		Success:      true,
		XPEarned:     res.XPEarned,
		CorrectCount: res.CorrectCount,
		Score:        res.Score,
	}}, nil
}

func (s *Server) handleGetGame(ctx context.Context, input *GetGameInput) (*GetGameOutput, error) {
	accountID, err := GetAccountID(ctx)
	if err != nil {
		return nil, err
	}

	history, err := s.services.Game.GetGame(ctx, accountID, input.GameID)
	if err != nil {
		return nil, err
	}
	return &GetGameOutput{Body: history}, nil
}
