package api

import (
	"context"
	"log/slog"
	"net/http"
	"strings"

	domainerrors "github.com/spellbee/spellbee-server/internal/errors"
	"github.com/spellbee/spellbee-server/internal/http/response"
	"github.com/spellbee/spellbee-server/internal/service"
)

// ctxKey is the type for context keys to avoid collisions.
type ctxKey string

// accountIDKey is the context key for the authenticated account ID.
const accountIDKey ctxKey = "accountID"

// GetAccountID returns the authenticated account ID from context.
// Returns an unauthorized error if the request carried no valid token.
func GetAccountID(ctx context.Context) (string, error) {
	accountID, ok := ctx.Value(accountIDKey).(string)
	if !ok || accountID == "" {
		return "", domainerrors.Unauthorized("authentication required")
	}
	return accountID, nil
}

// optionalAccountID returns the account ID or "" for anonymous requests.
func optionalAccountID(ctx context.Context) string {
	accountID, _ := ctx.Value(accountIDKey).(string)
	return accountID
}

func setAccountID(ctx context.Context, accountID string) context.Context {
	return context.WithValue(ctx, accountIDKey, accountID)
}

// authMiddleware validates Bearer tokens and stores the account ID in context.
// Requests without a token continue anonymously; handlers that need an account
// call GetAccountID. A token that fails verification is rejected outright.
func authMiddleware(auth *service.AuthService, logger *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			token, ok := strings.CutPrefix(r.Header.Get("Authorization"), "Bearer ")
			if !ok || token == "" {
				next.ServeHTTP(w, r)
				return
			}

			accountID, err := auth.Authenticate(r.Context(), token)
			if err != nil {
				response.HandleError(w, err, logger)
				return
			}

			next.ServeHTTP(w, r.WithContext(setAccountID(r.Context(), accountID)))
		})
	}
}
