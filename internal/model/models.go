// Package model defines the data models for the arcade bot.
package model

import "time"

// Player represents a Telegram user's persistent profile across all games.
type Player struct {
	TelegramID int64     `db:"telegram_id"`
	Username   string    `db:"username"`
	XP         int64     `db:"xp"`
	Level      int       `db:"level"`
	CreatedAt  time.Time `db:"created_at"`
	UpdatedAt  time.Time `db:"updated_at"`
}

// ScoreRecord is one finished game session's outcome.
type ScoreRecord struct {
	ID        int64         `db:"id"`
	PlayerID  int64         `db:"player_id"`
	GameKind  string        `db:"game_kind"`
	Score     int64         `db:"score"`
	Accuracy  float64       `db:"accuracy"`
	Attempts  int           `db:"attempts"`
	Duration  time.Duration `db:"duration"`
	MaxStreak int           `db:"max_streak"`
	Won       bool          `db:"won"`
	Reason    string        `db:"reason"`
	CreatedAt time.Time     `db:"created_at"`
}

// LeaderboardRow is a player's aggregate standing for one game kind.
type LeaderboardRow struct {
	PlayerID  int64  `db:"player_id"`
	Username  string `db:"username"`
	BestScore int64  `db:"best_score"`
	Plays     int64  `db:"plays"`
	Wins      int64  `db:"wins"`
}

// End reasons stored on score records.
const (
	ReasonCompleted = "completed"
	ReasonStopped   = "stopped"
	ReasonExpired   = "expired"
)
