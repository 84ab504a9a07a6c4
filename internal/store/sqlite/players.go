package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/spellbee/spellbee-server/internal/domain"
	"github.com/spellbee/spellbee-server/internal/store"
)

// playerColumns must match the scan order in scanPlayer.
const playerColumns = `id, username, avatar_id, birth_year, status, created_at, updated_at`

// queryRower is satisfied by *sql.DB and *sql.Tx.
type queryRower interface {
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

func scanPlayer(scanner interface{ Scan(dest ...any) error }) (*domain.Player, error) {
	var (
		p                    domain.Player
		birthYear            sql.NullInt64
		status               string
		createdAt, updatedAt string
	)
	if err := scanner.Scan(&p.ID, &p.Username, &p.AvatarID, &birthYear, &status, &createdAt, &updatedAt); err != nil {
		return nil, err
	}

	if birthYear.Valid {
		y := int(birthYear.Int64)
		p.BirthYear = &y
	}
	p.Status = domain.PlayerStatus(status)

	var err error
	if p.CreatedAt, err = parseTime(createdAt); err != nil {
		return nil, err
	}
	if p.UpdatedAt, err = parseTime(updatedAt); err != nil {
		return nil, err
	}
	return &p, nil
}

func getPlayer(ctx context.Context, q queryRower, id string) (*domain.Player, error) {
	p, err := scanPlayer(q.QueryRowContext(ctx, `SELECT `+playerColumns+` FROM players WHERE id = ?`, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, store.ErrNotFound
	}
	return p, err
}

// CreatePlayer inserts a player and seeds its skill estimate and per-track
// progress in one transaction. The player ID is the account ID, so a retry for
// the same account finds the existing row and returns it with created=false
// without seeding again.
// Returns store.ErrAlreadyExists if the username belongs to another player.
func (s *Store) CreatePlayer(ctx context.Context, params store.CreatePlayerParams) (*domain.Player, bool, error) {
	p := params.Player

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, false, fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback()

	existing, err := getPlayer(ctx, tx, p.ID)
	if err == nil {
		return existing, false, nil
	}
	if !errors.Is(err, store.ErrNotFound) {
		return nil, false, fmt.Errorf("check existing player: %w", err)
	}

	_, err = tx.ExecContext(ctx, `
		INSERT INTO players (id, username, username_key, avatar_id, birth_year, status, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		p.ID, p.Username, params.UsernameKey, int(p.AvatarID), nullIntPtr(p.BirthYear),
		string(p.Status), formatTime(p.CreatedAt), formatTime(p.UpdatedAt),
	)
	switch {
	case isUniqueViolation(err, "players.id"):
		// A concurrent retry won the insert; report its row.
		tx.Rollback()
		existing, getErr := getPlayer(ctx, s.db, p.ID)
		if getErr != nil {
			return nil, false, getErr
		}
		return existing, false, nil
	case isUniqueViolation(err, "players.username_key"):
		return nil, false, store.ErrAlreadyExists.WithMessage("username taken")
	case err != nil:
		return nil, false, fmt.Errorf("insert player: %w", err)
	}

	sk := params.Skill
	if _, err := tx.ExecContext(ctx, `
		INSERT INTO skill_estimates (player_id, rating, rd, volatility, games_rated, updated_at)
		VALUES (?, ?, ?, ?, 0, ?)`,
		p.ID, sk.Rating, sk.RD, sk.Volatility, formatTime(p.CreatedAt),
	); err != nil {
		return nil, false, fmt.Errorf("seed skill estimate: %w", err)
	}

	for _, track := range domain.Tracks {
		if _, err := tx.ExecContext(ctx, `
			INSERT INTO tier_progress (player_id, track, xp, updated_at)
			VALUES (?, ?, ?, ?)`,
			p.ID, string(track), params.StartXP, formatTime(p.CreatedAt),
		); err != nil {
			return nil, false, fmt.Errorf("seed progress %s: %w", track, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return nil, false, fmt.Errorf("commit: %w", err)
	}

	s.logger.Debug("player created", "player_id", p.ID, "start_xp", params.StartXP)
	return p, true, nil
}

// GetPlayer retrieves a player by ID.
func (s *Store) GetPlayer(ctx context.Context, id string) (*domain.Player, error) {
	return getPlayer(ctx, s.db, id)
}

// UsernameTaken reports whether usernameKey belongs to a player other than exceptPlayerID.
func (s *Store) UsernameTaken(ctx context.Context, usernameKey, exceptPlayerID string) (bool, error) {
	var n int
	err := s.db.QueryRowContext(ctx, `
		SELECT COUNT(*) FROM players WHERE username_key = ? AND id != ?`,
		usernameKey, exceptPlayerID,
	).Scan(&n)
	return n > 0, err
}

// GetSkillEstimate retrieves a player's skill estimate.
func (s *Store) GetSkillEstimate(ctx context.Context, playerID string) (*domain.SkillEstimate, error) {
	return getSkillEstimate(ctx, s.db, playerID)
}

func getSkillEstimate(ctx context.Context, q queryRower, playerID string) (*domain.SkillEstimate, error) {
	var (
		sk        domain.SkillEstimate
		updatedAt string
	)
	err := q.QueryRowContext(ctx, `
		SELECT player_id, rating, rd, volatility, games_rated, updated_at
		FROM skill_estimates WHERE player_id = ?`, playerID,
	).Scan(&sk.PlayerID, &sk.Rating, &sk.RD, &sk.Volatility, &sk.GamesRated, &updatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, store.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	if sk.UpdatedAt, err = parseTime(updatedAt); err != nil {
		return nil, err
	}
	return &sk, nil
}
