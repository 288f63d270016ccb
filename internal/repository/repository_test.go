// Package repository provides data access layer implementations.
// Tests use testcontainers-go to spin up a PostgreSQL container.
package repository

import (
	"context"
	"os/exec"
	"testing"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/testcontainers/testcontainers-go/wait"

	"telegram-arcade-bot/internal/model"
)

// checkDockerAvailable checks if Docker is available and running
func checkDockerAvailable() bool {
	cmd := exec.Command("docker", "info")
	err := cmd.Run()
	return err == nil
}

// setupTestDB creates a PostgreSQL container and returns a connection pool
// Skips the test if Docker is not available
func setupTestDB(t *testing.T) (*pgxpool.Pool, func()) {
	if !checkDockerAvailable() {
		t.Skip("Docker is not available, skipping integration test")
	}

	ctx := context.Background()

	// Create PostgreSQL container
	pgContainer, err := postgres.Run(ctx,
		"postgres:15-alpine",
		postgres.WithDatabase("testdb"),
		postgres.WithUsername("testuser"),
		postgres.WithPassword("testpass"),
		testcontainers.WithWaitStrategy(
			wait.ForLog("database system is ready to accept connections").
				WithOccurrence(2).
				WithStartupTimeout(60*time.Second),
		),
	)
	require.NoError(t, err)

	// Get connection string
	connStr, err := pgContainer.ConnectionString(ctx, "sslmode=disable")
	require.NoError(t, err)

	// Create connection pool
	pool, err := pgxpool.New(ctx, connStr)
	require.NoError(t, err)

	// Run migrations
	err = runMigrations(ctx, pool)
	require.NoError(t, err)

	// Return cleanup function
	cleanup := func() {
		pool.Close()
		_ = pgContainer.Terminate(ctx)
	}

	return pool, cleanup
}

// runMigrations applies the database schema
func runMigrations(ctx context.Context, pool *pgxpool.Pool) error {
	// Create players table
	_, err := pool.Exec(ctx, `
		CREATE TABLE IF NOT EXISTS players (
			telegram_id BIGINT PRIMARY KEY,
			username VARCHAR(255) NOT NULL,
			xp BIGINT NOT NULL DEFAULT 0,
			level INT NOT NULL DEFAULT 1,
			created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
			updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
		)
	`)
	if err != nil {
		return err
	}

	// Create score_records table
	_, err = pool.Exec(ctx, `
		CREATE TABLE IF NOT EXISTS score_records (
			id BIGSERIAL PRIMARY KEY,
			player_id BIGINT NOT NULL REFERENCES players(telegram_id) ON DELETE CASCADE,
			game_kind VARCHAR(50) NOT NULL,
			score BIGINT NOT NULL,
			accuracy DOUBLE PRECISION NOT NULL DEFAULT 0,
			attempts INT NOT NULL DEFAULT 0,
			duration_ms BIGINT NOT NULL DEFAULT 0,
			max_streak INT NOT NULL DEFAULT 0,
			won BOOLEAN NOT NULL DEFAULT FALSE,
			reason VARCHAR(20) NOT NULL,
			created_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
		)
	`)
	return err
}

// ============================================================================
// PlayerRepository Tests
// ============================================================================

func TestPlayerRepository_Create(t *testing.T) {
	pool, cleanup := setupTestDB(t)
	defer cleanup()

	repo := NewPlayerRepository(pool)
	ctx := context.Background()

	// Test creating a new player
	player, err := repo.Create(ctx, 12345, "testuser")
	require.NoError(t, err)
	assert.Equal(t, int64(12345), player.TelegramID)
	assert.Equal(t, "testuser", player.Username)
	assert.Equal(t, int64(0), player.XP)
	assert.Equal(t, 1, player.Level)
	assert.False(t, player.CreatedAt.IsZero())
}

func TestPlayerRepository_GetByID(t *testing.T) {
	pool, cleanup := setupTestDB(t)
	defer cleanup()

	repo := NewPlayerRepository(pool)
	ctx := context.Background()

	// Create a player first
	_, err := repo.Create(ctx, 12345, "testuser")
	require.NoError(t, err)

	// Test getting the player
	player, err := repo.GetByID(ctx, 12345)
	require.NoError(t, err)
	assert.Equal(t, int64(12345), player.TelegramID)
	assert.Equal(t, "testuser", player.Username)

	// Test getting non-existent player
	_, err = repo.GetByID(ctx, 99999)
	assert.ErrorIs(t, err, ErrPlayerNotFound)
}

func TestPlayerRepository_GetOrCreate(t *testing.T) {
	pool, cleanup := setupTestDB(t)
	defer cleanup()

	repo := NewPlayerRepository(pool)
	ctx := context.Background()

	// Test creating new player
	player, created, err := repo.GetOrCreate(ctx, 12345, "testuser")
	require.NoError(t, err)
	assert.True(t, created)
	assert.Equal(t, int64(12345), player.TelegramID)

	// Test getting existing player
	player, created, err = repo.GetOrCreate(ctx, 12345, "testuser")
	require.NoError(t, err)
	assert.False(t, created)
	assert.Equal(t, int64(12345), player.TelegramID)
}

func TestPlayerRepository_AddXP(t *testing.T) {
	pool, cleanup := setupTestDB(t)
	defer cleanup()

	repo := NewPlayerRepository(pool)
	ctx := context.Background()

	// Create a player
	_, err := repo.Create(ctx, 12345, "testuser")
	require.NoError(t, err)

	// Credit experience and a level
	player, err := repo.AddXP(ctx, 12345, 600, 2)
	require.NoError(t, err)
	assert.Equal(t, int64(600), player.XP)
	assert.Equal(t, 2, player.Level)

	// Experience accumulates, level never drops
	player, err = repo.AddXP(ctx, 12345, 100, 1)
	require.NoError(t, err)
	assert.Equal(t, int64(700), player.XP)
	assert.Equal(t, 2, player.Level)

	// Crediting a non-existent player fails
	_, err = repo.AddXP(ctx, 99999, 100, 1)
	assert.ErrorIs(t, err, ErrPlayerNotFound)
}

func TestPlayerRepository_GetTopPlayers(t *testing.T) {
	pool, cleanup := setupTestDB(t)
	defer cleanup()

	repo := NewPlayerRepository(pool)
	ctx := context.Background()

	// Create players with different experience totals
	_, _ = repo.Create(ctx, 1, "player1")
	_, _ = repo.Create(ctx, 2, "player2")
	_, _ = repo.Create(ctx, 3, "player3")

	_, _ = repo.AddXP(ctx, 1, 3000, 7)
	_, _ = repo.AddXP(ctx, 2, 1000, 3)
	_, _ = repo.AddXP(ctx, 3, 5000, 11)

	// Get top players
	players, err := repo.GetTopPlayers(ctx, 10)
	require.NoError(t, err)
	require.Len(t, players, 3)

	// Verify ordering (descending by experience)
	assert.Equal(t, int64(3), players[0].TelegramID) // 5000
	assert.Equal(t, int64(1), players[1].TelegramID) // 3000
	assert.Equal(t, int64(2), players[2].TelegramID) // 1000
}

func TestPlayerRepository_UpdateUsername(t *testing.T) {
	pool, cleanup := setupTestDB(t)
	defer cleanup()

	repo := NewPlayerRepository(pool)
	ctx := context.Background()

	// Create a player
	_, err := repo.Create(ctx, 12345, "oldname")
	require.NoError(t, err)

	// Update username
	err = repo.UpdateUsername(ctx, 12345, "newname")
	require.NoError(t, err)

	// Verify update
	player, err := repo.GetByID(ctx, 12345)
	require.NoError(t, err)
	assert.Equal(t, "newname", player.Username)

	// Test updating non-existent player
	err = repo.UpdateUsername(ctx, 99999, "name")
	assert.ErrorIs(t, err, ErrPlayerNotFound)
}

func TestPlayerRepository_Exists(t *testing.T) {
	pool, cleanup := setupTestDB(t)
	defer cleanup()

	repo := NewPlayerRepository(pool)
	ctx := context.Background()

	// Test non-existent player
	exists, err := repo.Exists(ctx, 12345)
	require.NoError(t, err)
	assert.False(t, exists)

	// Create player
	_, err = repo.Create(ctx, 12345, "testuser")
	require.NoError(t, err)

	// Test existing player
	exists, err = repo.Exists(ctx, 12345)
	require.NoError(t, err)
	assert.True(t, exists)
}

// ============================================================================
// ScoreRepository Tests
// ============================================================================

func record(playerID int64, kind string, score int64, won bool) *model.ScoreRecord {
	return &model.ScoreRecord{
		PlayerID: playerID,
		GameKind: kind,
		Score:    score,
		Accuracy: 0.5,
		Attempts: 4,
		Duration: 90 * time.Second,
		Won:      won,
		Reason:   model.ReasonCompleted,
	}
}

func TestScoreRepository_Create(t *testing.T) {
	pool, cleanup := setupTestDB(t)
	defer cleanup()

	playerRepo := NewPlayerRepository(pool)
	scoreRepo := NewScoreRepository(pool)
	ctx := context.Background()

	// Create a player first (foreign key constraint)
	_, err := playerRepo.Create(ctx, 12345, "testuser")
	require.NoError(t, err)

	// Create a score record
	rec, err := scoreRepo.Create(ctx, record(12345, "mathquiz", 450, true))
	require.NoError(t, err)
	assert.NotZero(t, rec.ID)
	assert.Equal(t, int64(12345), rec.PlayerID)
	assert.Equal(t, int64(450), rec.Score)
	assert.False(t, rec.CreatedAt.IsZero())
}

func TestScoreRepository_GetByPlayer(t *testing.T) {
	pool, cleanup := setupTestDB(t)
	defer cleanup()

	playerRepo := NewPlayerRepository(pool)
	scoreRepo := NewScoreRepository(pool)
	ctx := context.Background()

	_, err := playerRepo.Create(ctx, 12345, "testuser")
	require.NoError(t, err)

	// Create multiple records
	_, _ = scoreRepo.Create(ctx, record(12345, "mathquiz", 100, true))
	_, _ = scoreRepo.Create(ctx, record(12345, "wordguess", 200, true))
	_, _ = scoreRepo.Create(ctx, record(12345, "slots", -50, false))

	records, err := scoreRepo.GetByPlayer(ctx, 12345, 10)
	require.NoError(t, err)
	assert.Len(t, records, 3)

	// Round-trip of the duration column
	assert.Equal(t, 90*time.Second, records[0].Duration)
}

func TestScoreRepository_GetByPlayerAndKind(t *testing.T) {
	pool, cleanup := setupTestDB(t)
	defer cleanup()

	playerRepo := NewPlayerRepository(pool)
	scoreRepo := NewScoreRepository(pool)
	ctx := context.Background()

	_, err := playerRepo.Create(ctx, 12345, "testuser")
	require.NoError(t, err)

	_, _ = scoreRepo.Create(ctx, record(12345, "mathquiz", 100, true))
	_, _ = scoreRepo.Create(ctx, record(12345, "wordguess", 200, true))
	_, _ = scoreRepo.Create(ctx, record(12345, "mathquiz", 300, true))

	records, err := scoreRepo.GetByPlayerAndKind(ctx, 12345, "mathquiz", 10)
	require.NoError(t, err)
	assert.Len(t, records, 2)
	for _, rec := range records {
		assert.Equal(t, "mathquiz", rec.GameKind)
	}
}

func TestScoreRepository_GetLeaderboard(t *testing.T) {
	pool, cleanup := setupTestDB(t)
	defer cleanup()

	playerRepo := NewPlayerRepository(pool)
	scoreRepo := NewScoreRepository(pool)
	ctx := context.Background()

	_, _ = playerRepo.Create(ctx, 1, "alice")
	_, _ = playerRepo.Create(ctx, 2, "bob")
	_, _ = playerRepo.Create(ctx, 3, "carol")

	_, _ = scoreRepo.Create(ctx, record(1, "wordguess", 150, true))
	_, _ = scoreRepo.Create(ctx, record(1, "wordguess", 400, true))
	_, _ = scoreRepo.Create(ctx, record(2, "wordguess", 250, true))
	_, _ = scoreRepo.Create(ctx, record(2, "wordguess", 50, false))
	_, _ = scoreRepo.Create(ctx, record(3, "mathquiz", 999, true)) // different game

	board, err := scoreRepo.GetLeaderboard(ctx, "wordguess", 10)
	require.NoError(t, err)
	require.Len(t, board, 2)

	// Ordered by best score descending
	assert.Equal(t, "alice", board[0].Username)
	assert.Equal(t, int64(400), board[0].BestScore)
	assert.Equal(t, int64(2), board[0].Plays)
	assert.Equal(t, int64(2), board[0].Wins)

	assert.Equal(t, "bob", board[1].Username)
	assert.Equal(t, int64(250), board[1].BestScore)
	assert.Equal(t, int64(1), board[1].Wins)
}

func TestScoreRepository_GetPlayerBest(t *testing.T) {
	pool, cleanup := setupTestDB(t)
	defer cleanup()

	playerRepo := NewPlayerRepository(pool)
	scoreRepo := NewScoreRepository(pool)
	ctx := context.Background()

	_, err := playerRepo.Create(ctx, 12345, "testuser")
	require.NoError(t, err)

	// No records yet
	best, err := scoreRepo.GetPlayerBest(ctx, 12345, "mathquiz")
	require.NoError(t, err)
	assert.Equal(t, int64(0), best)

	_, _ = scoreRepo.Create(ctx, record(12345, "mathquiz", 100, true))
	_, _ = scoreRepo.Create(ctx, record(12345, "mathquiz", 500, true))
	_, _ = scoreRepo.Create(ctx, record(12345, "mathquiz", 300, true))

	best, err = scoreRepo.GetPlayerBest(ctx, 12345, "mathquiz")
	require.NoError(t, err)
	assert.Equal(t, int64(500), best)
}

func TestScoreRepository_CountSince(t *testing.T) {
	pool, cleanup := setupTestDB(t)
	defer cleanup()

	playerRepo := NewPlayerRepository(pool)
	scoreRepo := NewScoreRepository(pool)
	ctx := context.Background()

	_, err := playerRepo.Create(ctx, 12345, "testuser")
	require.NoError(t, err)

	_, _ = scoreRepo.Create(ctx, record(12345, "mathquiz", 100, true))
	_, _ = scoreRepo.Create(ctx, record(12345, "slots", 50, true))

	count, err := scoreRepo.CountSince(ctx, 12345, time.Now().Add(-time.Hour))
	require.NoError(t, err)
	assert.Equal(t, int64(2), count)

	count, err = scoreRepo.CountSince(ctx, 12345, time.Now().Add(time.Hour))
	require.NoError(t, err)
	assert.Equal(t, int64(0), count)
}
