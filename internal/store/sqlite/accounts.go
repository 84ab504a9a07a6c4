package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/spellbee/spellbee-server/internal/domain"
	"github.com/spellbee/spellbee-server/internal/store"
)

// CreateAccount inserts a new account.
// Returns store.ErrAlreadyExists if the ID is taken.
func (s *Store) CreateAccount(ctx context.Context, account *domain.Account) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO accounts (id, created_at, last_seen_at)
		VALUES (?, ?, ?)`,
		account.ID, formatTime(account.CreatedAt), formatTime(account.LastSeenAt),
	)
	if isUniqueViolation(err, "") {
		return store.ErrAlreadyExists
	}
	return err
}

// GetAccount retrieves an account by ID.
func (s *Store) GetAccount(ctx context.Context, id string) (*domain.Account, error) {
	var (
		a                 domain.Account
		createdAt, seenAt string
	)
	err := s.db.QueryRowContext(ctx, `
		SELECT id, created_at, last_seen_at FROM accounts WHERE id = ?`, id,
	).Scan(&a.ID, &createdAt, &seenAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, store.ErrNotFound
	}
	if err != nil {
		return nil, err
	}

	if a.CreatedAt, err = parseTime(createdAt); err != nil {
		return nil, err
	}
	if a.LastSeenAt, err = parseTime(seenAt); err != nil {
		return nil, err
	}
	return &a, nil
}

// TouchAccount records account activity.
func (s *Store) TouchAccount(ctx context.Context, id string, at time.Time) error {
	res, err := s.db.ExecContext(ctx, `
		UPDATE accounts SET last_seen_at = ? WHERE id = ?`,
		formatTime(at), id,
	)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return store.ErrNotFound
	}
	return nil
}
