package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/spellbee/spellbee-server/internal/domain"
	domainerrors "github.com/spellbee/spellbee-server/internal/errors"
	"github.com/spellbee/spellbee-server/internal/store"
)

// requirePlayer loads the player behind an account, or fails with the
// needs-profile validation error when the profile was never completed.
func requirePlayer(ctx context.Context, st store.Store, accountID string) (*domain.Player, error) {
	p, err := st.GetPlayer(ctx, accountID)
	if errors.Is(err, store.ErrNotFound) {
		return nil, domainerrors.NeedsProfile()
	}
	if err != nil {
		return nil, fmt.Errorf("get player: %w", err)
	}
	if p.Status != domain.PlayerStatusActive {
		return nil, domainerrors.Forbidden("account suspended")
	}
	return p, nil
}
