package service

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	domainerrors "github.com/spellbee/spellbee-server/internal/errors"
	"github.com/spellbee/spellbee-server/internal/id"
)

func TestAuthService_StartSession(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	session, err := env.auth.StartSession(ctx)
	require.NoError(t, err)

	assert.True(t, id.HasPrefix(session.AccountID, id.PrefixAccount))
	assert.NotEmpty(t, session.AccessToken)
	assert.True(t, session.NeedsProfile)

	account, err := env.store.GetAccount(ctx, session.AccountID)
	require.NoError(t, err)
	assert.Equal(t, session.AccountID, account.ID)

	accountID, err := env.auth.Authenticate(ctx, session.AccessToken)
	require.NoError(t, err)
	assert.Equal(t, session.AccountID, accountID)
}

func TestAuthService_Authenticate_Rejects(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	t.Run("garbage token", func(t *testing.T) {
		_, err := env.auth.Authenticate(ctx, "v4.local.nonsense")
		assert.ErrorIs(t, err, domainerrors.ErrUnauthorized)
	})

	t.Run("token for unknown account", func(t *testing.T) {
		token, _, err := env.tokens.GenerateAccessToken("acct-deleted")
		require.NoError(t, err)

		_, err = env.auth.Authenticate(ctx, token)
		assert.ErrorIs(t, err, domainerrors.ErrUnauthorized)
	})
}
