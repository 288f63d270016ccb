// Package repository provides data access layer implementations.
package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"telegram-arcade-bot/internal/model"
)

// Common errors for repository operations.
var (
	ErrPlayerNotFound = errors.New("player not found")
)

// PlayerRepository handles player profile persistence.
type PlayerRepository struct {
	pool *pgxpool.Pool
}

// NewPlayerRepository creates a new PlayerRepository instance.
func NewPlayerRepository(pool *pgxpool.Pool) *PlayerRepository {
	return &PlayerRepository{pool: pool}
}

// Create creates a new player profile at level 1 with zero experience.
func (r *PlayerRepository) Create(ctx context.Context, telegramID int64, username string) (*model.Player, error) {
	const query = `
		INSERT INTO players (telegram_id, username, xp, level, created_at, updated_at)
		VALUES ($1, $2, 0, 1, NOW(), NOW())
		RETURNING telegram_id, username, xp, level, created_at, updated_at
	`

	var player model.Player
	err := r.pool.QueryRow(ctx, query, telegramID, username).Scan(
		&player.TelegramID,
		&player.Username,
		&player.XP,
		&player.Level,
		&player.CreatedAt,
		&player.UpdatedAt,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create player: %w", err)
	}

	return &player, nil
}

// GetByID retrieves a player by their Telegram ID.
// Returns ErrPlayerNotFound if the player does not exist.
func (r *PlayerRepository) GetByID(ctx context.Context, telegramID int64) (*model.Player, error) {
	const query = `
		SELECT telegram_id, username, xp, level, created_at, updated_at
		FROM players
		WHERE telegram_id = $1
	`

	var player model.Player
	err := r.pool.QueryRow(ctx, query, telegramID).Scan(
		&player.TelegramID,
		&player.Username,
		&player.XP,
		&player.Level,
		&player.CreatedAt,
		&player.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrPlayerNotFound
		}
		return nil, fmt.Errorf("failed to get player: %w", err)
	}

	return &player, nil
}

// GetOrCreate retrieves a player by Telegram ID, creating one if it doesn't exist.
// This is useful for ensuring a profile exists before recording scores.
func (r *PlayerRepository) GetOrCreate(ctx context.Context, telegramID int64, username string) (*model.Player, bool, error) {
	// Try to get existing player first
	player, err := r.GetByID(ctx, telegramID)
	if err == nil {
		return player, false, nil
	}
	if !errors.Is(err, ErrPlayerNotFound) {
		return nil, false, err
	}

	// Player doesn't exist, create new one
	player, err = r.Create(ctx, telegramID, username)
	if err != nil {
		// Handle race condition: another request might have created the player
		player, err = r.GetByID(ctx, telegramID)
		if err != nil {
			return nil, false, err
		}
		return player, false, nil
	}

	return player, true, nil
}

// AddXP adds experience to a player and sets their profile level.
// Returns the updated player.
func (r *PlayerRepository) AddXP(ctx context.Context, telegramID int64, xp int64, level int) (*model.Player, error) {
	const query = `
		UPDATE players
		SET xp = xp + $2, level = GREATEST(level, $3), updated_at = NOW()
		WHERE telegram_id = $1
		RETURNING telegram_id, username, xp, level, created_at, updated_at
	`

	var player model.Player
	err := r.pool.QueryRow(ctx, query, telegramID, xp, level).Scan(
		&player.TelegramID,
		&player.Username,
		&player.XP,
		&player.Level,
		&player.CreatedAt,
		&player.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrPlayerNotFound
		}
		return nil, fmt.Errorf("failed to add xp: %w", err)
	}

	return &player, nil
}

// UpdateUsername updates a player's username.
// This is useful when a user changes their Telegram username.
func (r *PlayerRepository) UpdateUsername(ctx context.Context, telegramID int64, username string) error {
	const query = `
		UPDATE players
		SET username = $2, updated_at = NOW()
		WHERE telegram_id = $1
	`

	result, err := r.pool.Exec(ctx, query, telegramID, username)
	if err != nil {
		return fmt.Errorf("failed to update username: %w", err)
	}

	if result.RowsAffected() == 0 {
		return ErrPlayerNotFound
	}

	return nil
}

// GetTopPlayers retrieves the top N players by total experience.
func (r *PlayerRepository) GetTopPlayers(ctx context.Context, limit int) ([]*model.Player, error) {
	const query = `
		SELECT telegram_id, username, xp, level, created_at, updated_at
		FROM players
		ORDER BY xp DESC
		LIMIT $1
	`

	rows, err := r.pool.Query(ctx, query, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to get top players: %w", err)
	}
	defer rows.Close()

	var players []*model.Player
	for rows.Next() {
		var player model.Player
		err := rows.Scan(
			&player.TelegramID,
			&player.Username,
			&player.XP,
			&player.Level,
			&player.CreatedAt,
			&player.UpdatedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan player: %w", err)
		}
		players = append(players, &player)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating players: %w", err)
	}

	return players, nil
}

// Exists checks if a player with the given Telegram ID exists.
func (r *PlayerRepository) Exists(ctx context.Context, telegramID int64) (bool, error) {
	const query = `SELECT EXISTS(SELECT 1 FROM players WHERE telegram_id = $1)`

	var exists bool
	err := r.pool.QueryRow(ctx, query, telegramID).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("failed to check player existence: %w", err)
	}

	return exists, nil
}
