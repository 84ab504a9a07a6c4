package api

import (
	"context"
	"net/http"
	"time"

	"github.com/danielgtaylor/huma/v2"
)

func (s *Server) registerAuthRoutes() {
	huma.Register(s.api, huma.Operation{
		OperationID:   "startSession",
		Method:        http.MethodPost,
		Path:          "/api/v1/auth/session",
		Summary:       "Start session",
		Description:   "Creates an account and returns an access token for it. The account has no player profile until POST /api/v1/profile succeeds.",
		Tags:          []string{"Authentication"},
		DefaultStatus: http.StatusCreated,
	}, s.handleStartSession)
}

// === DTOs ===

// SessionResponse contains the issued token.
type SessionResponse struct {
	AccountID    string    `json:"accountId" doc:"Account ID, also the future player ID"`
	AccessToken  string    `json:"accessToken" doc:"PASETO access token"`
	ExpiresAt    time.Time `json:"expiresAt" doc:"Token expiry"`
	NeedsProfile bool      `json:"needsProfile" doc:"True until the profile is completed"`
}

// SessionOutput wraps the session response for Huma.
type SessionOutput struct {
	Body SessionResponse
}

// === Handlers ===

func (s *Server) handleStartSession(ctx context.Context, _ *struct{}) (*SessionOutput, error) {
	session, err := s.services.Auth.StartSession(ctx)
	if err != nil {
		return nil, err
	}

	return &SessionOutput{Body: SessionResponse{
		AccountID:    session.AccountID,
		AccessToken:  session.AccessToken,
		ExpiresAt:    session.ExpiresAt,
		NeedsProfile: session.NeedsProfile,
	}}, nil
}
