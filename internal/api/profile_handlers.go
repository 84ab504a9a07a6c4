package api

import (
	"context"
	"net/http"

	"github.com/danielgtaylor/huma/v2"

	"github.com/spellbee/spellbee-server/internal/domain"
	"github.com/spellbee/spellbee-server/internal/service"
)

func (s *Server) registerProfileRoutes() {
	huma.Register(s.api, huma.Operation{
		OperationID: "completeProfile",
		Method:      http.MethodPost,
		Path:        "/api/v1/profile",
		Summary:     "Complete profile",
		Description: "Creates the player for the authenticated account, seeded from an optional placement result. Repeating the call returns the existing player.",
		Tags:        []string{"Profile"},
		Security:    []map[string][]string{{"bearer": {}}},
	}, s.handleCompleteProfile)

	huma.Register(s.api, huma.Operation{
		OperationID: "getProfile",
		Method:      http.MethodGet,
		Path:        "/api/v1/profile",
		Summary:     "Get profile",
		Description: "Returns the player, its skill estimate and per-track progress",
		Tags:        []string{"Profile"},
		Security:    []map[string][]string{{"bearer": {}}},
	}, s.handleGetProfile)
}

// === DTOs ===

// PlacementBody is the placement result carried by the profile request.
type PlacementBody struct {
	DerivedTier int     `json:"derivedTier" doc:"Tier derived from placement accuracy"`
	Rating      float64 `json:"rating" doc:"Estimated rating"`
	RD          float64 `json:"rd" doc:"Estimated rating deviation"`
	Accuracy    float64 `json:"accuracy,omitempty" doc:"Correct answers divided by rounds played"`
	Rounds      int     `json:"rounds,omitempty" doc:"Rounds played"`
}

// CompleteProfileBody is the request body for completing a profile.
type CompleteProfileBody struct {
	Username  string         `json:"username" doc:"Display name, 3 to 20 letters, digits, '_', '.' or '-'"`
	BirthYear *int           `json:"birthYear,omitempty" doc:"Birth year"`
	AvatarID  *int           `json:"avatarId,omitempty" doc:"Built-in avatar 1..8"`
	Placement *PlacementBody `json:"placement,omitempty" doc:"Placement quiz result"`
}

// CompleteProfileInput wraps the profile request for Huma.
type CompleteProfileInput struct {
	Body CompleteProfileBody
}

// ProfileUser is the public part of a player.
type ProfileUser struct {
	ID       string `json:"id" doc:"Player ID"`
	Username string `json:"username" doc:"Display name"`
	AvatarID int    `json:"avatarId" doc:"Avatar"`
}

// CompleteProfileResponse is returned once the player exists.
type CompleteProfileResponse struct {
	Success bool        `json:"success"`
	User    ProfileUser `json:"user"`
}

// CompleteProfileOutput wraps the profile response for Huma.
type CompleteProfileOutput struct {
	Body CompleteProfileResponse
}

// ProfileOutput wraps the profile view for Huma.
type ProfileOutput struct {
	Body *service.ProfileView
}

// === Handlers ===

func (s *Server) handleCompleteProfile(ctx context.Context, input *CompleteProfileInput) (*CompleteProfileOutput, error) {
	accountID, err := GetAccountID(ctx)
	if err != nil {
		return nil, err
	}

	req := service.CompleteProfileRequest{
		Username:  input.Body.Username,
		BirthYear: input.Body.BirthYear,
		AvatarID:  input.Body.AvatarID,
	}
	if p := input.Body.Placement; p != nil {
		req.Placement = &domain.PlacementRecord{
			DerivedTier: p.DerivedTier,
			Rating:      p.Rating,
			RD:          p.RD,
			Accuracy:    p.Accuracy,
			Rounds:      p.Rounds,
		}
	}

	player, err := s.services.Profile.CompleteProfile(ctx, accountID, req)
	if err != nil {
		return nil, err
	}

	return &CompleteProfileOutput{Body: CompleteProfileResponse{
		Success: true,
		User: ProfileUser{
			ID:       player.ID,
			Username: player.Username,
			AvatarID: int(player.AvatarID),
		},
	}}, nil
}

func (s *Server) handleGetProfile(ctx context.Context, _ *struct{}) (*ProfileOutput, error) {
	accountID, err := GetAccountID(ctx)
	if err != nil {
		return nil, err
	}

	view, err := s.services.Profile.GetProfile(ctx, accountID)
	if err != nil {
		return nil, err
	}
	return &ProfileOutput{Body: view}, nil
}
