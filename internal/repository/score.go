package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"

	"telegram-arcade-bot/internal/model"
)

// ScoreRepository handles score record persistence.
type ScoreRepository struct {
	pool *pgxpool.Pool
}

// NewScoreRepository creates a new ScoreRepository instance.
func NewScoreRepository(pool *pgxpool.Pool) *ScoreRepository {
	return &ScoreRepository{pool: pool}
}

// Create inserts a finished session's score record.
func (r *ScoreRepository) Create(ctx context.Context, rec *model.ScoreRecord) (*model.ScoreRecord, error) {
	const query = `
		INSERT INTO score_records (player_id, game_kind, score, accuracy, attempts, duration_ms, max_streak, won, reason, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, NOW())
		RETURNING id, created_at
	`

	out := *rec
	err := r.pool.QueryRow(ctx, query,
		rec.PlayerID, rec.GameKind, rec.Score, rec.Accuracy, rec.Attempts,
		rec.Duration.Milliseconds(), rec.MaxStreak, rec.Won, rec.Reason,
	).Scan(&out.ID, &out.CreatedAt)
	if err != nil {
		return nil, fmt.Errorf("failed to create score record: %w", err)
	}

	return &out, nil
}

// GetByPlayer retrieves a player's score records, newest first.
func (r *ScoreRepository) GetByPlayer(ctx context.Context, playerID int64, limit int) ([]*model.ScoreRecord, error) {
	const query = `
		SELECT id, player_id, game_kind, score, accuracy, attempts, duration_ms, max_streak, won, reason, created_at
		FROM score_records
		WHERE player_id = $1
		ORDER BY created_at DESC
		LIMIT $2
	`

	rows, err := r.pool.Query(ctx, query, playerID, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to get score records: %w", err)
	}
	defer rows.Close()

	return scanRecords(rows)
}

// GetByPlayerAndKind retrieves a player's score records for one game, newest first.
func (r *ScoreRepository) GetByPlayerAndKind(ctx context.Context, playerID int64, kind string, limit int) ([]*model.ScoreRecord, error) {
	const query = `
		SELECT id, player_id, game_kind, score, accuracy, attempts, duration_ms, max_streak, won, reason, created_at
		FROM score_records
		WHERE player_id = $1 AND game_kind = $2
		ORDER BY created_at DESC
		LIMIT $3
	`

	rows, err := r.pool.Query(ctx, query, playerID, kind, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to get score records: %w", err)
	}
	defer rows.Close()

	return scanRecords(rows)
}

// GetLeaderboard retrieves the top players for one game kind by best score.
func (r *ScoreRepository) GetLeaderboard(ctx context.Context, kind string, limit int) ([]*model.LeaderboardRow, error) {
	const query = `
		SELECT s.player_id, p.username,
		       MAX(s.score) AS best_score,
		       COUNT(*) AS plays,
		       COUNT(*) FILTER (WHERE s.won) AS wins
		FROM score_records s
		JOIN players p ON s.player_id = p.telegram_id
		WHERE s.game_kind = $1
		GROUP BY s.player_id, p.username
		ORDER BY best_score DESC
		LIMIT $2
	`

	rows, err := r.pool.Query(ctx, query, kind, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to get leaderboard: %w", err)
	}
	defer rows.Close()

	var board []*model.LeaderboardRow
	for rows.Next() {
		var row model.LeaderboardRow
		err := rows.Scan(
			&row.PlayerID,
			&row.Username,
			&row.BestScore,
			&row.Plays,
			&row.Wins,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan leaderboard row: %w", err)
		}
		board = append(board, &row)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating leaderboard: %w", err)
	}

	return board, nil
}

// GetPlayerBest retrieves a player's best score for one game kind.
// Returns 0 when the player has no records for that game.
func (r *ScoreRepository) GetPlayerBest(ctx context.Context, playerID int64, kind string) (int64, error) {
	const query = `
		SELECT COALESCE(MAX(score), 0)
		FROM score_records
		WHERE player_id = $1 AND game_kind = $2
	`

	var best int64
	err := r.pool.QueryRow(ctx, query, playerID, kind).Scan(&best)
	if err != nil {
		return 0, fmt.Errorf("failed to get player best: %w", err)
	}

	return best, nil
}

// CountSince counts a player's records created at or after the cutoff.
func (r *ScoreRepository) CountSince(ctx context.Context, playerID int64, cutoff time.Time) (int64, error) {
	const query = `
		SELECT COUNT(*)
		FROM score_records
		WHERE player_id = $1 AND created_at >= $2
	`

	var count int64
	err := r.pool.QueryRow(ctx, query, playerID, cutoff).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("failed to count score records: %w", err)
	}

	return count, nil
}

type recordRows interface {
	Next() bool
	Scan(dest ...any) error
	Err() error
}

func scanRecords(rows recordRows) ([]*model.ScoreRecord, error) {
	var records []*model.ScoreRecord
	for rows.Next() {
		var (
			rec        model.ScoreRecord
			durationMS int64
		)
		err := rows.Scan(
			&rec.ID,
			&rec.PlayerID,
			&rec.GameKind,
			&rec.Score,
			&rec.Accuracy,
			&rec.Attempts,
			&durationMS,
			&rec.MaxStreak,
			&rec.Won,
			&rec.Reason,
			&rec.CreatedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan score record: %w", err)
		}
		rec.Duration = time.Duration(durationMS) * time.Millisecond
		records = append(records, &rec)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating score records: %w", err)
	}

	return records, nil
}
