package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/spellbee/spellbee-server/internal/auth"
	"github.com/spellbee/spellbee-server/internal/domain"
	domainerrors "github.com/spellbee/spellbee-server/internal/errors"
	"github.com/spellbee/spellbee-server/internal/id"
	"github.com/spellbee/spellbee-server/internal/store"
)

// AuthService issues sessions for new accounts and resolves access tokens.
// Sign-in itself happens with an external identity provider; this service only
// mints the server's own tokens.
type AuthService struct {
	store        store.Store
	tokenService *auth.TokenService
	logger       *slog.Logger
	now          func() time.Time
}

// NewAuthService creates a new authentication service.
func NewAuthService(store store.Store, tokenService *auth.TokenService, logger *slog.Logger) *AuthService {
	return &AuthService{
		store:        store,
		tokenService: tokenService,
		logger:       logger,
		now:          time.Now,
	}
}

// Session is a freshly issued access token.
type Session struct {
	AccountID   string    `json:"accountId"`
	AccessToken string    `json:"accessToken"`
	ExpiresAt   time.Time `json:"expiresAt"`
	// NeedsProfile is true until the account completes its player profile.
	NeedsProfile bool `json:"needsProfile"`
}

// StartSession creates a new account and returns a token for it.
func (s *AuthService) StartSession(ctx context.Context) (_ *Session, err error) {
	ctx, span := tracer.Start(ctx, "AuthService.StartSession")
	defer func() { endSpan(span, err) }()

	now := s.now().UTC()
	accountID, err := id.Generate(id.PrefixAccount)
	if err != nil {
		return nil, fmt.Errorf("generate account id: %w", err)
	}

	if err := s.store.CreateAccount(ctx, &domain.Account{ID: accountID, CreatedAt: now, LastSeenAt: now}); err != nil {
		return nil, fmt.Errorf("create account: %w", err)
	}

	token, expires, err := s.tokenService.GenerateAccessToken(accountID)
	if err != nil {
		return nil, fmt.Errorf("generate access token: %w", err)
	}

	s.logger.Info("session started", "account_id", accountID)
	return &Session{AccountID: accountID, AccessToken: token, ExpiresAt: expires, NeedsProfile: true}, nil
}

// Authenticate verifies an access token and returns the account ID it belongs to.
func (s *AuthService) Authenticate(ctx context.Context, token string) (string, error) {
	claims, err := s.tokenService.VerifyAccessToken(token)
	if err != nil {
		s.logger.Debug("token rejected", "error", err)
		return "", domainerrors.Unauthorized("invalid or expired token")
	}

	if _, err := s.store.GetAccount(ctx, claims.AccountID); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return "", domainerrors.Unauthorized("invalid or expired token")
		}
		return "", fmt.Errorf("get account: %w", err)
	}

	return claims.AccountID, nil
}
