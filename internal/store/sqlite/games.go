package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/spellbee/spellbee-server/internal/domain"
	"github.com/spellbee/spellbee-server/internal/store"
)

// CreateGame inserts a game and its single participant row.
func (s *Store) CreateGame(ctx context.Context, game *domain.Game, participant *domain.GamePlayer) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, `
		INSERT INTO games (id, track, status, created_by, created_at)
		VALUES (?, ?, ?, ?, ?)`,
		game.ID, string(game.Track), string(game.Status), game.CreatedBy, formatTime(game.CreatedAt),
	); err != nil {
		if isUniqueViolation(err, "") {
			return store.ErrAlreadyExists
		}
		return fmt.Errorf("insert game: %w", err)
	}

	if _, err := tx.ExecContext(ctx, `
		INSERT INTO game_players (id, game_id, player_id) VALUES (?, ?, ?)`,
		participant.ID, participant.GameID, participant.PlayerID,
	); err != nil {
		if isUniqueViolation(err, "") {
			return store.ErrAlreadyExists
		}
		return fmt.Errorf("insert game player: %w", err)
	}

	return tx.Commit()
}

// GetGame retrieves a game by ID.
func (s *Store) GetGame(ctx context.Context, id string) (*domain.Game, error) {
	var (
		g             domain.Game
		track, status string
		createdAt     string
		finishedAt    sql.NullString
	)
	err := s.db.QueryRowContext(ctx, `
		SELECT id, track, status, created_by, created_at, finished_at
		FROM games WHERE id = ?`, id,
	).Scan(&g.ID, &track, &status, &g.CreatedBy, &createdAt, &finishedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, store.ErrNotFound
	}
	if err != nil {
		return nil, err
	}

	g.Track = domain.Track(track)
	g.Status = domain.GameStatus(status)
	if g.CreatedAt, err = parseTime(createdAt); err != nil {
		return nil, err
	}
	if g.FinishedAt, err = parseNullableTime(finishedAt); err != nil {
		return nil, err
	}
	return &g, nil
}

// GetGamePlayer retrieves the participant row of playerID in gameID.
func (s *Store) GetGamePlayer(ctx context.Context, gameID, playerID string) (*domain.GamePlayer, error) {
	var (
		gp         domain.GamePlayer
		finishedAt sql.NullString
	)
	err := s.db.QueryRowContext(ctx, `
		SELECT id, game_id, player_id, correct_count, total_rounds, best_streak,
			score, hearts_remaining, xp_earned, finished_at
		FROM game_players WHERE game_id = ? AND player_id = ?`, gameID, playerID,
	).Scan(&gp.ID, &gp.GameID, &gp.PlayerID, &gp.CorrectCount, &gp.TotalRounds, &gp.BestStreak,
		&gp.Score, &gp.HeartsRemaining, &gp.XPEarned, &finishedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, store.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	if gp.FinishedAt, err = parseNullableTime(finishedAt); err != nil {
		return nil, err
	}
	return &gp, nil
}

// ListRounds returns a participant's round history in play order.
func (s *Store) ListRounds(ctx context.Context, gamePlayerID string) ([]domain.Round, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT round_index, word_id, answer, correct, time_ms
		FROM game_rounds WHERE game_player_id = ? ORDER BY round_index`, gamePlayerID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []domain.Round
	for rows.Next() {
		var (
			r       domain.Round
			correct int
		)
		if err := rows.Scan(&r.Index, &r.WordID, &r.Answer, &correct, &r.TimeMs); err != nil {
			return nil, err
		}
		r.Correct = correct != 0
		out = append(out, r)
	}
	return out, rows.Err()
}

// FinalizeGame commits a verified result atomically: the status flip, the round
// history, the participant summary, the additive XP increment and the optional
// skill update either all land or none do.
//
// The status flip runs first so the transaction holds the write lock before
// anything else is read; a concurrent finalize of the same game then sees the
// game as finished. Errors: store.ErrNotFound for an unknown game,
// store.ErrForbidden when the player did not create it, store.ErrGameFinished
// when it is no longer in progress.
func (s *Store) FinalizeGame(ctx context.Context, params store.FinalizeParams) error {
	res := params.Result
	finishedAt := formatTime(params.FinishedAt)

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback()

	var track string
	err = tx.QueryRowContext(ctx, `
		UPDATE games SET status = ?, finished_at = ?
		WHERE id = ? AND created_by = ? AND status = ?
		RETURNING track`,
		string(domain.GameStatusFinished), finishedAt,
		params.GameID, params.PlayerID, string(domain.GameStatusInProgress),
	).Scan(&track)
	if errors.Is(err, sql.ErrNoRows) {
		return classifyUnfinalizable(ctx, tx, params.GameID, params.PlayerID)
	}
	if err != nil {
		return fmt.Errorf("mark game finished: %w", err)
	}

	var gamePlayerID string
	err = tx.QueryRowContext(ctx, `
		SELECT id FROM game_players WHERE game_id = ? AND player_id = ?`,
		params.GameID, params.PlayerID,
	).Scan(&gamePlayerID)
	if errors.Is(err, sql.ErrNoRows) {
		return store.ErrForbidden
	}
	if err != nil {
		return fmt.Errorf("get game player: %w", err)
	}

	if err := insertRounds(ctx, tx, gamePlayerID, res.Rounds); err != nil {
		return err
	}

	if _, err := tx.ExecContext(ctx, `
		UPDATE game_players SET correct_count = ?, total_rounds = ?, best_streak = ?,
			score = ?, hearts_remaining = ?, xp_earned = ?, finished_at = ?
		WHERE id = ?`,
		res.CorrectCount, len(res.Rounds), res.BestStreak,
		res.Score, res.HeartsRemaining, res.XPEarned, finishedAt, gamePlayerID,
	); err != nil {
		return fmt.Errorf("update game player: %w", err)
	}

	if _, err := tx.ExecContext(ctx, `
		INSERT INTO tier_progress (player_id, track, xp, games_played, correct_count, total_rounds, best_streak, updated_at)
		VALUES (?, ?, MAX(0, ?), 1, ?, ?, ?, ?)
		ON CONFLICT(player_id, track) DO UPDATE SET
			xp = xp + excluded.xp,
			games_played = games_played + 1,
			correct_count = correct_count + excluded.correct_count,
			total_rounds = total_rounds + excluded.total_rounds,
			best_streak = MAX(best_streak, excluded.best_streak),
			updated_at = excluded.updated_at`,
		params.PlayerID, track, res.XPEarned,
		res.CorrectCount, len(res.Rounds), res.BestStreak, finishedAt,
	); err != nil {
		return fmt.Errorf("increment progress: %w", err)
	}

	if params.Rate != nil {
		if err := rateInTx(ctx, tx, params); err != nil {
			return err
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit: %w", err)
	}
	return nil
}

// classifyUnfinalizable explains why the finalize update matched no row.
func classifyUnfinalizable(ctx context.Context, tx *sql.Tx, gameID, playerID string) error {
	var status, createdBy string
	err := tx.QueryRowContext(ctx, `
		SELECT status, created_by FROM games WHERE id = ?`, gameID,
	).Scan(&status, &createdBy)
	switch {
	case errors.Is(err, sql.ErrNoRows):
		return store.ErrNotFound
	case err != nil:
		return fmt.Errorf("load game: %w", err)
	case createdBy != playerID:
		return store.ErrForbidden
	default:
		return store.ErrGameFinished
	}
}

func insertRounds(ctx context.Context, tx *sql.Tx, gamePlayerID string, rounds []domain.Round) error {
	if len(rounds) == 0 {
		return nil
	}
	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO game_rounds (game_player_id, round_index, word_id, answer, correct, time_ms)
		VALUES (?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return fmt.Errorf("prepare rounds: %w", err)
	}
	defer stmt.Close()

	for _, r := range rounds {
		if _, err := stmt.ExecContext(ctx, gamePlayerID, r.Index, r.WordID, r.Answer, boolToInt(r.Correct), r.TimeMs); err != nil {
			return fmt.Errorf("insert round %d: %w", r.Index, err)
		}
	}
	return nil
}

func rateInTx(ctx context.Context, tx *sql.Tx, params store.FinalizeParams) error {
	current, err := getSkillEstimate(ctx, tx, params.PlayerID)
	if err != nil {
		return fmt.Errorf("load skill estimate: %w", err)
	}

	next := params.Rate(*current)

	if _, err := tx.ExecContext(ctx, `
		UPDATE skill_estimates SET rating = ?, rd = ?, volatility = ?,
			games_rated = games_rated + 1, updated_at = ?
		WHERE player_id = ?`,
		next.Rating, next.RD, next.Volatility, formatTime(params.FinishedAt), params.PlayerID,
	); err != nil {
		return fmt.Errorf("update skill estimate: %w", err)
	}
	return nil
}
