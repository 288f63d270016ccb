package handler

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/rs/zerolog/log"
	tele "gopkg.in/telebot.v3"

	"telegram-arcade-bot/internal/repository"
	"telegram-arcade-bot/internal/service"
	"telegram-arcade-bot/internal/session"
)

const (
	// RecentRecords shown on /stats.
	RecentRecords = 5
	// LeaderboardSize shown on /top and /leaderboard.
	LeaderboardSize = 10
)

// ProfileHandler handles profile and leaderboard commands.
type ProfileHandler struct {
	profiles *service.ProfileService
}

// NewProfileHandler creates a new ProfileHandler.
func NewProfileHandler(profiles *service.ProfileService) *ProfileHandler {
	return &ProfileHandler{profiles: profiles}
}

// HandleStart handles the /start command: create the profile and greet.
func (h *ProfileHandler) HandleStart(c tele.Context) error {
	sender := c.Sender()
	if sender == nil {
		return nil
	}

	username := sender.Username
	if username == "" {
		username = sender.FirstName
	}

	player, created, err := h.profiles.EnsurePlayer(context.Background(), sender.ID, username)
	if err != nil {
		log.Error().Err(err).Int64("player", sender.ID).Msg("Failed to ensure player")
		return c.Reply("❌ Something went wrong, try again later")
	}

	if created {
		return c.Reply(fmt.Sprintf("🎉 Welcome to the arcade, %s!\nSee /games for what you can play.", username))
	}
	return c.Reply(fmt.Sprintf("👋 Welcome back, %s! Level %d, %d XP.\nSee /games for what you can play.",
		player.Username, player.Level, player.XP))
}

// HandleStats handles the /stats command: profile, per-game bests, recent games.
func (h *ProfileHandler) HandleStats(c tele.Context) error {
	sender := c.Sender()
	if sender == nil {
		return nil
	}

	stats, err := h.profiles.GetStats(context.Background(), sender.ID, RecentRecords)
	if err != nil {
		if errors.Is(err, repository.ErrPlayerNotFound) {
			return c.Reply("🎮 You haven't played yet. Send /start to begin!")
		}
		log.Error().Err(err).Int64("player", sender.ID).Msg("Failed to get stats")
		return c.Reply("❌ Something went wrong, try again later")
	}

	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("📊 %s — level %d, %d XP\n", stats.Player.Username, stats.Player.Level, stats.Player.XP))

	if today, err := h.profiles.PlayedToday(context.Background(), sender.ID, time.Now()); err == nil && today > 0 {
		sb.WriteString(fmt.Sprintf("📅 Games finished today: %d\n", today))
	}

	if len(stats.Best) > 0 {
		sb.WriteString("\n🏅 Best scores:\n")
		for _, kind := range session.AllKinds() {
			if best, ok := stats.Best[string(kind)]; ok {
				sb.WriteString(fmt.Sprintf("  %s: %d\n", commandFor(kind), best))
			}
		}
	}

	if len(stats.Recent) > 0 {
		sb.WriteString("\n🕹 Recent games:\n")
		for _, rec := range stats.Recent {
			outcome := "❌"
			if rec.Won {
				outcome = "✅"
			}
			sb.WriteString(fmt.Sprintf("  %s %s — %d (%s)\n", outcome, rec.GameKind, rec.Score, rec.Reason))
		}
	}

	return c.Reply(sb.String())
}

// HandleTop handles the /top command: players ranked by total experience.
func (h *ProfileHandler) HandleTop(c tele.Context) error {
	players, err := h.profiles.GetTopPlayers(context.Background(), LeaderboardSize)
	if err != nil {
		log.Error().Err(err).Msg("Failed to get top players")
		return c.Reply("❌ Something went wrong, try again later")
	}

	if len(players) == 0 {
		return c.Reply("🏆 Nobody has played yet.")
	}

	var sb strings.Builder
	sb.WriteString("🏆 Top players:\n")
	for i, p := range players {
		sb.WriteString(fmt.Sprintf("%d. %s — level %d, %d XP\n", i+1, p.Username, p.Level, p.XP))
	}
	return c.Reply(sb.String())
}

// HandleLeaderboard handles the /leaderboard <game> command.
func (h *ProfileHandler) HandleLeaderboard(c tele.Context) error {
	args := c.Args()
	if len(args) < 1 {
		return c.Reply("❌ Usage: /leaderboard <game>\nFor example: /leaderboard quiz")
	}

	kind, ok := kindAliases[strings.ToLower(args[0])]
	if !ok {
		return c.Reply(fmt.Sprintf("❌ Unknown game %q. See /games", args[0]))
	}

	board, err := h.profiles.GetLeaderboard(context.Background(), kind, LeaderboardSize)
	if err != nil {
		log.Error().Err(err).Str("kind", string(kind)).Msg("Failed to get leaderboard")
		return c.Reply("❌ Something went wrong, try again later")
	}

	if len(board) == 0 {
		return c.Reply(fmt.Sprintf("🏆 Nobody has played %s yet.", commandFor(kind)))
	}

	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("🏆 %s leaderboard:\n", commandFor(kind)))
	for i, row := range board {
		sb.WriteString(fmt.Sprintf("%d. %s — best %d (%d wins / %d plays)\n",
			i+1, row.Username, row.BestScore, row.Wins, row.Plays))
	}
	return c.Reply(sb.String())
}
