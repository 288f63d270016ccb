// Package bot provides the Telegram bot initialization and handler registration.
package bot

import (
	"fmt"
	"time"

	"github.com/rs/zerolog/log"
	tele "gopkg.in/telebot.v3"

	"telegram-arcade-bot/internal/config"
	"telegram-arcade-bot/internal/game"
	"telegram-arcade-bot/internal/handler"
	"telegram-arcade-bot/internal/service"
	"telegram-arcade-bot/internal/session"
)

// Bot wraps the telebot instance with application dependencies.
type Bot struct {
	bot     *tele.Bot
	cfg     *config.Config
	manager *game.Manager

	// Handlers
	gameHandler    *handler.GameHandler
	profileHandler *handler.ProfileHandler
}

// Dependencies holds all the dependencies needed by the bot handlers.
type Dependencies struct {
	Config         *config.Config
	Manager        *game.Manager
	ProfileService *service.ProfileService
}

// New creates a new Bot instance with the given dependencies.
func New(deps *Dependencies) (*Bot, error) {
	if deps.Config.Bot.Token == "" {
		return nil, fmt.Errorf("bot token is required")
	}

	pref := tele.Settings{
		Token:  deps.Config.Bot.Token,
		Poller: &tele.LongPoller{Timeout: 10 * time.Second},
	}

	teleBot, err := tele.NewBot(pref)
	if err != nil {
		return nil, fmt.Errorf("failed to create bot: %w", err)
	}

	b := &Bot{
		bot:     teleBot,
		cfg:     deps.Config,
		manager: deps.Manager,
	}

	// Initialize handlers
	b.gameHandler = handler.NewGameHandler(deps.Config, deps.Manager, deps.ProfileService)
	b.gameHandler.SetBot(teleBot)
	b.profileHandler = handler.NewProfileHandler(deps.ProfileService)

	// Sessions that end outside a player command (a lazy expiry during
	// /start) are pushed back through the game handler.
	deps.Manager.SetExpiryNotifier(b.gameHandler.NotifyEnded)

	// Register middleware
	b.registerMiddleware()

	// Register handlers
	b.registerHandlers()

	return b, nil
}

// SweepSessions removes expired sessions and delivers their summaries to the
// players. The session sweeper calls this on every tick.
func (b *Bot) SweepSessions(now time.Time) int {
	return b.manager.SweepExpired(now, b.gameHandler.NotifyEnded)
}

// registerMiddleware registers all middleware.
func (b *Bot) registerMiddleware() {
	// Whitelist middleware - check if chat is allowed
	b.bot.Use(WhitelistMiddleware(b.cfg))

	// Logging middleware
	b.bot.Use(LoggingMiddleware())

	// Panic recovery
	b.bot.Use(RecoveryMiddleware())
}

// registerHandlers registers all command and text handlers.
func (b *Bot) registerHandlers() {
	// Profile handlers
	b.bot.Handle("/start", b.profileHandler.HandleStart)
	b.bot.Handle("/stats", b.profileHandler.HandleStats)
	b.bot.Handle("/top", b.profileHandler.HandleTop)
	b.bot.Handle("/leaderboard", b.profileHandler.HandleLeaderboard)

	// Game start commands
	b.bot.Handle("/games", b.gameHandler.HandleGames)
	b.bot.Handle("/quiz", b.gameHandler.HandleStart(session.KindMathQuiz))
	b.bot.Handle("/word", b.gameHandler.HandleStart(session.KindWordGuess))
	b.bot.Handle("/pic", b.gameHandler.HandleStart(session.KindPictureGuess))
	b.bot.Handle("/slots", b.gameHandler.HandleStart(session.KindSlots))
	b.bot.Handle("/rpg", b.gameHandler.HandleStart(session.KindBattle))

	// In-session commands
	b.bot.Handle("/hint", b.gameHandler.HandleHint)
	b.bot.Handle("/stop", b.gameHandler.HandleStop)
	b.bot.Handle("/status", b.gameHandler.HandleStatus)

	// Free text is the answer/action for the running game
	b.bot.Handle(tele.OnText, b.gameHandler.HandleText)
}

// Start starts the bot polling.
func (b *Bot) Start() {
	log.Info().Msg("Starting bot...")
	b.bot.Start()
}

// Stop stops the bot gracefully.
func (b *Bot) Stop() {
	log.Info().Msg("Stopping bot...")
	b.bot.Stop()
}

// GetBot returns the underlying telebot instance.
func (b *Bot) GetBot() *tele.Bot {
	return b.bot
}
