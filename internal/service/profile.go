// Package service provides business logic implementations.
package service

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog/log"

	"telegram-arcade-bot/internal/model"
	"telegram-arcade-bot/internal/repository"
	"telegram-arcade-bot/internal/session"
)

const (
	// XPPerScorePoint converts game score into profile experience.
	XPPerScorePoint = 10 // 1 XP per 10 score points

	// WinBonusXP is granted on top for a won session.
	WinBonusXP = 10

	// XPPerProfileLevel is the flat experience cost of each profile level.
	XPPerProfileLevel = 500
)

// ProfileService handles persistent player profiles and score history.
type ProfileService struct {
	players *repository.PlayerRepository
	scores  *repository.ScoreRepository
}

// NewProfileService creates a new ProfileService instance.
func NewProfileService(players *repository.PlayerRepository, scores *repository.ScoreRepository) *ProfileService {
	return &ProfileService{players: players, scores: scores}
}

// EnsurePlayer ensures a player profile exists, creating one if necessary.
// Returns the player and whether it was newly created.
func (s *ProfileService) EnsurePlayer(ctx context.Context, telegramID int64, username string) (*model.Player, bool, error) {
	player, created, err := s.players.GetOrCreate(ctx, telegramID, username)
	if err != nil {
		return nil, false, fmt.Errorf("failed to ensure player: %w", err)
	}

	// Update username if it changed
	if !created && player.Username != username && username != "" {
		if err := s.players.UpdateUsername(ctx, telegramID, username); err != nil {
			log.Warn().Err(err).Int64("player", telegramID).Msg("Failed to update username")
		}
		player.Username = username
	}

	return player, created, nil
}

// RecordScore persists a finished session's outcome and credits the player's
// profile with the experience it earned. Negative scores (a losing slots run)
// are recorded but never deduct experience.
func (s *ProfileService) RecordScore(ctx context.Context, telegramID int64, rec *session.ScoreRecord) (*model.Player, error) {
	row := &model.ScoreRecord{
		PlayerID:  telegramID,
		GameKind:  string(rec.Kind),
		Score:     rec.Score,
		Accuracy:  rec.Accuracy,
		Attempts:  rec.Attempts,
		Duration:  rec.Duration,
		MaxStreak: rec.MaxStreak,
		Won:       rec.Won,
		Reason:    string(rec.Reason),
	}
	if _, err := s.scores.Create(ctx, row); err != nil {
		return nil, fmt.Errorf("failed to record score: %w", err)
	}

	xp := earnedXP(rec)

	player, err := s.players.GetByID(ctx, telegramID)
	if err != nil {
		return nil, err
	}

	level := ProfileLevel(player.XP + xp)
	player, err = s.players.AddXP(ctx, telegramID, xp, level)
	if err != nil {
		return nil, fmt.Errorf("failed to credit xp: %w", err)
	}

	log.Info().
		Int64("player", telegramID).
		Str("game", string(rec.Kind)).
		Int64("score", rec.Score).
		Int64("xp_gained", xp).
		Int("level", player.Level).
		Msg("Score recorded")

	return player, nil
}

// earnedXP converts a session outcome into experience. Negative scores floor
// at zero before the win bonus applies.
func earnedXP(rec *session.ScoreRecord) int64 {
	xp := rec.Score / XPPerScorePoint
	if xp < 0 {
		xp = 0
	}
	if rec.Won {
		xp += WinBonusXP
	}
	return xp
}

// ProfileLevel computes the profile level for a total experience amount.
func ProfileLevel(xp int64) int {
	return int(xp/XPPerProfileLevel) + 1
}

// Stats aggregates a player's profile and recent history.
type Stats struct {
	Player *model.Player
	Recent []*model.ScoreRecord
	Best   map[string]int64
}

// GetStats retrieves a player's profile, recent records and per-game bests.
func (s *ProfileService) GetStats(ctx context.Context, telegramID int64, recentLimit int) (*Stats, error) {
	player, err := s.players.GetByID(ctx, telegramID)
	if err != nil {
		return nil, err
	}

	recent, err := s.scores.GetByPlayer(ctx, telegramID, recentLimit)
	if err != nil {
		return nil, err
	}

	best := make(map[string]int64)
	for _, kind := range session.AllKinds() {
		b, err := s.scores.GetPlayerBest(ctx, telegramID, string(kind))
		if err != nil {
			return nil, err
		}
		if b != 0 {
			best[string(kind)] = b
		}
	}

	return &Stats{Player: player, Recent: recent, Best: best}, nil
}

// GetLeaderboard retrieves the top players for one game kind.
func (s *ProfileService) GetLeaderboard(ctx context.Context, kind session.Kind, limit int) ([]*model.LeaderboardRow, error) {
	return s.scores.GetLeaderboard(ctx, string(kind), limit)
}

// GetTopPlayers retrieves the top players by total experience.
func (s *ProfileService) GetTopPlayers(ctx context.Context, limit int) ([]*model.Player, error) {
	return s.players.GetTopPlayers(ctx, limit)
}

// PlayedToday counts a player's finished sessions since local midnight.
func (s *ProfileService) PlayedToday(ctx context.Context, telegramID int64, now time.Time) (int64, error) {
	midnight := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, now.Location())
	return s.scores.CountSince(ctx, telegramID, midnight)
}
