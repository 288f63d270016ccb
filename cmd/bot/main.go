// Package main is the entry point for the Telegram arcade bot.
package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"telegram-arcade-bot/internal/bot"
	"telegram-arcade-bot/internal/config"
	"telegram-arcade-bot/internal/game"
	"telegram-arcade-bot/internal/game/battle"
	"telegram-arcade-bot/internal/game/mathquiz"
	"telegram-arcade-bot/internal/game/pictureguess"
	"telegram-arcade-bot/internal/game/slots"
	"telegram-arcade-bot/internal/game/wordguess"
	"telegram-arcade-bot/internal/pkg/db"
	"telegram-arcade-bot/internal/pkg/lock"
	"telegram-arcade-bot/internal/repository"
	"telegram-arcade-bot/internal/rng"
	"telegram-arcade-bot/internal/service"
	"telegram-arcade-bot/internal/session"
)

func main() {
	// Configure zerolog
	zerolog.TimeFieldFormat = zerolog.TimeFormatUnix
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.RFC3339})

	// Load configuration
	cfg, err := config.Load("config")
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to load configuration")
	}

	log.Info().Msg("Configuration loaded successfully")

	// Create context for graceful shutdown
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Initialize database connection pool
	dbPool, err := db.NewPool(ctx, &cfg.Database)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to connect to database")
	}
	defer dbPool.Close()

	// Run database migrations
	if err := runMigrations(ctx, dbPool); err != nil {
		log.Fatal().Err(err).Msg("Failed to run database migrations")
	}

	// Initialize repositories
	playerRepo := repository.NewPlayerRepository(dbPool.Pool)
	scoreRepo := repository.NewScoreRepository(dbPool.Pool)

	// Initialize services
	profileService := service.NewProfileService(playerRepo, scoreRepo)

	// Shared randomness for all engines
	src := rng.NewTimeSeeded()

	// Initialize engine registry and register games
	engines := game.NewRegistry()

	register := func(e game.Engine) {
		if err := engines.Register(e); err != nil {
			log.Fatal().Err(err).Str("kind", string(e.Kind())).Msg("Failed to register game")
		}
	}
	register(mathquiz.New(src))
	register(wordguess.New(src, &wordguess.Config{
		MaxAttempts: cfg.Games.WordGuess.MaxAttempts,
		MaxHints:    cfg.Games.WordGuess.MaxHints,
	}))
	register(pictureguess.New(src))
	register(slots.New(src, &slots.Config{
		InitialBalance: cfg.Games.Slots.InitialBalance,
		JackpotAmount:  cfg.Games.Slots.JackpotAmount,
	}))
	register(battle.New(src, &battle.Config{
		GoldLossPercent: cfg.Games.Battle.GoldLossPercent,
	}))

	log.Info().
		Int("game_count", engines.Count()).
		Msg("Games registered")

	// Session registry and the manager orchestrating the engines
	sessions := session.NewRegistry()
	locks := lock.NewKeyedLock()
	manager := game.NewManager(engines, sessions, locks, cfg.Sessions.Exclusive)

	// Create bot dependencies
	deps := &bot.Dependencies{
		Config:         cfg,
		Manager:        manager,
		ProfileService: profileService,
	}

	// Initialize bot
	telegramBot, err := bot.New(deps)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to create bot")
	}

	// Background sweep for sessions whose deadline passed without a command
	sweeper := session.NewSweeper(cfg.Sessions.SweepInterval, telegramBot.SweepSessions)
	sweeper.Start()

	// Setup graceful shutdown
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	// Start bot in a goroutine
	go func() {
		log.Info().Msg("Bot is starting...")
		telegramBot.Start()
	}()

	// Wait for shutdown signal
	sig := <-sigChan
	log.Info().Str("signal", sig.String()).Msg("Received shutdown signal")

	// Graceful shutdown
	sweeper.Stop()
	telegramBot.Stop()
	log.Info().Msg("Bot stopped gracefully")
}

// runMigrations executes database migrations.
func runMigrations(ctx context.Context, pool *db.Pool) error {
	log.Info().Msg("Running database migrations...")

	// Migration 1: Create players table
	_, err := pool.Exec(ctx, `
		CREATE TABLE IF NOT EXISTS players (
			telegram_id BIGINT PRIMARY KEY,
			username VARCHAR(255) NOT NULL,
			xp BIGINT NOT NULL DEFAULT 0,
			level INT NOT NULL DEFAULT 1,
			created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
			updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
		);
		CREATE INDEX IF NOT EXISTS idx_players_xp ON players(xp DESC);
	`)
	if err != nil {
		return err
	}
	log.Info().Msg("Migration 1: players table created")

	// Migration 2: Create score_records table
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
		);
		CREATE INDEX IF NOT EXISTS idx_score_records_player_time ON score_records(player_id, created_at DESC);
		CREATE INDEX IF NOT EXISTS idx_score_records_kind_score ON score_records(game_kind, score DESC);
	`)
	if err != nil {
		return err
	}
	log.Info().Msg("Migration 2: score_records table created")

	log.Info().Msg("All migrations completed successfully")
	return nil
}
