package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/spellbee/spellbee-server/internal/domain"
	"github.com/spellbee/spellbee-server/internal/store"
)

// Suspended players never appear on a leaderboard or count toward positions.
const leaderboardFrom = `
	FROM tier_progress tp
	JOIN players p ON p.id = tp.player_id
	WHERE tp.track = ? AND p.status = 'active'`

const leaderboardColumns = `p.id, p.username, p.avatar_id, tp.xp`

func scanLeaderboardEntry(scanner interface{ Scan(dest ...any) error }) (*store.LeaderboardEntry, error) {
	var e store.LeaderboardEntry
	if err := scanner.Scan(&e.PlayerID, &e.Username, &e.AvatarID, &e.XP); err != nil {
		return nil, err
	}
	return &e, nil
}

// LeaderboardPage returns one page ordered by XP descending then player ID, and
// the number of players matching the query. The count and the page are two
// reads and may disagree under concurrent writes.
func (s *Store) LeaderboardPage(ctx context.Context, query store.LeaderboardQuery) ([]store.LeaderboardEntry, int, error) {
	where := leaderboardFrom
	args := []any{string(query.Track)}
	if query.SearchKey != "" {
		where += ` AND p.username_key LIKE ? ESCAPE '\'`
		args = append(args, "%"+escapeLike(query.SearchKey)+"%")
	}

	var total int
	if err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) `+where, args...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("count leaderboard: %w", err)
	}
	if total == 0 || query.Offset() >= total {
		return []store.LeaderboardEntry{}, total, nil
	}

	rows, err := s.db.QueryContext(ctx,
		`SELECT `+leaderboardColumns+where+` ORDER BY tp.xp DESC, p.id ASC LIMIT ? OFFSET ?`,
		append(args, query.PageSize, query.Offset())...)
	if err != nil {
		return nil, 0, fmt.Errorf("query leaderboard: %w", err)
	}
	defer rows.Close()

	entries := make([]store.LeaderboardEntry, 0, query.PageSize)
	for rows.Next() {
		e, err := scanLeaderboardEntry(rows)
		if err != nil {
			return nil, 0, err
		}
		entries = append(entries, *e)
	}
	return entries, total, rows.Err()
}

// LeaderboardPosition returns 1 + the number of active players on the track with
// strictly more XP, together with the player's own entry. Tied players share a
// position. Returns store.ErrNotFound when the player has no row on the track.
func (s *Store) LeaderboardPosition(ctx context.Context, track domain.Track, playerID string) (int, *store.LeaderboardEntry, error) {
	entry, err := scanLeaderboardEntry(s.db.QueryRowContext(ctx,
		`SELECT `+leaderboardColumns+leaderboardFrom+` AND p.id = ?`,
		string(track), playerID))
	if errors.Is(err, sql.ErrNoRows) {
		return 0, nil, store.ErrNotFound
	}
	if err != nil {
		return 0, nil, fmt.Errorf("load entry: %w", err)
	}

	var ahead int
	if err := s.db.QueryRowContext(ctx,
		`SELECT COUNT(*)`+leaderboardFrom+` AND tp.xp > ?`,
		string(track), entry.XP,
	).Scan(&ahead); err != nil {
		return 0, nil, fmt.Errorf("count ahead: %w", err)
	}
	return ahead + 1, entry, nil
}

// CountTrackPlayers returns the number of active players on a track.
func (s *Store) CountTrackPlayers(ctx context.Context, track domain.Track) (int, error) {
	var n int
	err := s.db.QueryRowContext(ctx, `SELECT COUNT(*)`+leaderboardFrom, string(track)).Scan(&n)
	return n, err
}

// LeaderboardStats aggregates accuracy inputs and best streak from the finished
// games of the given players on a track. Players without a finished game are
// absent from the result.
func (s *Store) LeaderboardStats(ctx context.Context, track domain.Track, playerIDs []string) (map[string]domain.PlayerStats, error) {
	out := make(map[string]domain.PlayerStats, len(playerIDs))
	if len(playerIDs) == 0 {
		return out, nil
	}

	args := make([]any, 0, len(playerIDs)+2)
	args = append(args, string(track), string(domain.GameStatusFinished))
	for _, id := range playerIDs {
		args = append(args, id)
	}

	rows, err := s.db.QueryContext(ctx, `
		SELECT gp.player_id, SUM(gp.correct_count), SUM(gp.total_rounds), MAX(gp.best_streak)
		FROM game_players gp
		JOIN games g ON g.id = gp.game_id
		WHERE g.track = ? AND g.status = ? AND gp.player_id IN (`+placeholders(len(playerIDs))+`)
		GROUP BY gp.player_id`, args...)
	if err != nil {
		return nil, fmt.Errorf("query leaderboard stats: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var st domain.PlayerStats
		if err := rows.Scan(&st.PlayerID, &st.CorrectCount, &st.TotalRounds, &st.BestStreak); err != nil {
			return nil, err
		}
		out[st.PlayerID] = st
	}
	return out, rows.Err()
}
