package sqlite

import (
	"context"
	"database/sql"
	"errors"

	"github.com/spellbee/spellbee-server/internal/domain"
	"github.com/spellbee/spellbee-server/internal/store"
)

const progressColumns = `player_id, track, xp, games_played, correct_count, total_rounds, best_streak, updated_at`

func scanProgress(scanner interface{ Scan(dest ...any) error }) (*domain.TierProgress, error) {
	var (
		p         domain.TierProgress
		track     string
		updatedAt string
	)
	if err := scanner.Scan(&p.PlayerID, &track, &p.XP, &p.GamesPlayed, &p.CorrectCount,
		&p.TotalRounds, &p.BestStreak, &updatedAt); err != nil {
		return nil, err
	}
	p.Track = domain.Track(track)

	var err error
	if p.UpdatedAt, err = parseTime(updatedAt); err != nil {
		return nil, err
	}
	return &p, nil
}

// GetProgress retrieves a player's progress on one track.
func (s *Store) GetProgress(ctx context.Context, playerID string, track domain.Track) (*domain.TierProgress, error) {
	p, err := scanProgress(s.db.QueryRowContext(ctx, `
		SELECT `+progressColumns+` FROM tier_progress WHERE player_id = ? AND track = ?`,
		playerID, string(track)))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, store.ErrNotFound
	}
	return p, err
}

// ListProgress returns every progress row of a player.
func (s *Store) ListProgress(ctx context.Context, playerID string) ([]domain.TierProgress, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT `+progressColumns+` FROM tier_progress WHERE player_id = ? ORDER BY track`, playerID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []domain.TierProgress
	for rows.Next() {
		p, err := scanProgress(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *p)
	}
	return out, rows.Err()
}
