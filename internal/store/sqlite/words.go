package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/spellbee/spellbee-server/internal/domain"
	"github.com/spellbee/spellbee-server/internal/store"
)

// UpsertWords inserts or replaces words by ID and returns how many were written.
func (s *Store) UpsertWords(ctx context.Context, words []domain.Word) (int, error) {
	if len(words) == 0 {
		return 0, nil
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback()

	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO words (id, text, tier) VALUES (?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET text = excluded.text, tier = excluded.tier`)
	if err != nil {
		return 0, fmt.Errorf("prepare: %w", err)
	}
	defer stmt.Close()

	for _, w := range words {
		if _, err := stmt.ExecContext(ctx, w.ID, w.Text, w.Tier); err != nil {
			return 0, fmt.Errorf("upsert word %s: %w", w.ID, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("commit: %w", err)
	}
	return len(words), nil
}

// GetWordsByIDs returns the words that exist, keyed by ID. Unknown IDs are absent.
func (s *Store) GetWordsByIDs(ctx context.Context, ids []string) (map[string]*domain.Word, error) {
	out := make(map[string]*domain.Word, len(ids))
	if len(ids) == 0 {
		return out, nil
	}

	args := make([]any, len(ids))
	for i, id := range ids {
		args[i] = id
	}

	rows, err := s.db.QueryContext(ctx,
		`SELECT id, text, tier FROM words WHERE id IN (`+placeholders(len(ids))+`)`, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	for rows.Next() {
		var w domain.Word
		if err := rows.Scan(&w.ID, &w.Text, &w.Tier); err != nil {
			return nil, err
		}
		out[w.ID] = &w
	}
	return out, rows.Err()
}

// RandomWord picks a random word at tier that is not in exclude.
// Returns store.ErrNotFound when the tier has no remaining words.
func (s *Store) RandomWord(ctx context.Context, tier int, exclude []string) (*domain.Word, error) {
	query := `SELECT id, text, tier FROM words WHERE tier = ?`
	args := []any{tier}
	if len(exclude) > 0 {
		query += ` AND id NOT IN (` + placeholders(len(exclude)) + `)`
		for _, id := range exclude {
			args = append(args, id)
		}
	}
	query += ` ORDER BY RANDOM() LIMIT 1`

	var w domain.Word
	err := s.db.QueryRowContext(ctx, query, args...).Scan(&w.ID, &w.Text, &w.Tier)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, store.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &w, nil
}

// CountWordsByTier returns the number of words per tier.
func (s *Store) CountWordsByTier(ctx context.Context) (map[int]int, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT tier, COUNT(*) FROM words GROUP BY tier`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make(map[int]int)
	for rows.Next() {
		var tier, n int
		if err := rows.Scan(&tier, &n); err != nil {
			return nil, err
		}
		out[tier] = n
	}
	return out, rows.Err()
}
