// Package handler provides Telegram bot command handlers.
package handler

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/rs/zerolog/log"
	tele "gopkg.in/telebot.v3"

	"telegram-arcade-bot/internal/config"
	"telegram-arcade-bot/internal/game"
	"telegram-arcade-bot/internal/service"
	"telegram-arcade-bot/internal/session"
)

// kindAliases maps command words to session kinds.
var kindAliases = map[string]session.Kind{
	"quiz":    session.KindMathQuiz,
	"math":    session.KindMathQuiz,
	"word":    session.KindWordGuess,
	"pic":     session.KindPictureGuess,
	"picture": session.KindPictureGuess,
	"slots":   session.KindSlots,
	"slot":    session.KindSlots,
	"rpg":     session.KindBattle,
	"battle":  session.KindBattle,
}

// GameHandler routes game commands and free text into the game manager.
type GameHandler struct {
	cfg      *config.Config
	manager  *game.Manager
	profiles *service.ProfileService
	bot      *tele.Bot
}

// NewGameHandler creates a new GameHandler.
func NewGameHandler(cfg *config.Config, manager *game.Manager, profiles *service.ProfileService) *GameHandler {
	return &GameHandler{cfg: cfg, manager: manager, profiles: profiles}
}

// SetBot attaches the bot instance used for out-of-band expiry notifications.
func (h *GameHandler) SetBot(bot *tele.Bot) {
	h.bot = bot
}

// HandleGames handles the /games command: list the available games.
func (h *GameHandler) HandleGames(c tele.Context) error {
	var sb strings.Builder
	sb.WriteString("🕹 Available games:\n")
	for _, engine := range h.manager.Engines().List() {
		sb.WriteString(fmt.Sprintf("/%s — %s: %s\n", commandFor(engine.Kind()), engine.Name(), engine.Description()))
	}
	sb.WriteString("\n/hint — use a hint, /stop — give up, /status — current game state")
	return c.Reply(sb.String())
}

// HandleStart returns a handler starting a session of the given kind.
// The command's trailing text is passed through to the engine: a difficulty,
// a bet amount, a character class.
func (h *GameHandler) HandleStart(kind session.Kind) tele.HandlerFunc {
	return func(c tele.Context) error {
		sender := c.Sender()
		if sender == nil {
			return nil
		}

		if err := h.ensurePlayer(c, sender); err != nil {
			return c.Reply("❌ Something went wrong, try again later")
		}

		owner := ownerID(sender)
		res, err := h.manager.Start(context.Background(), owner, kind, strings.Join(c.Args(), " "))
		if err != nil {
			switch {
			case errors.Is(err, game.ErrAlreadyActive):
				if res == nil {
					return c.Reply(fmt.Sprintf("⚠️ %s", userMessage(err)))
				}
				// res carries the current prompt of the running session
				return h.send(c, res, fmt.Sprintf("⚠️ You already have a game running.\n\n%s", res.Text))
			case errors.Is(err, game.ErrInvalidDifficulty), errors.Is(err, game.ErrInvalidInput):
				return c.Reply(fmt.Sprintf("❌ %s", userMessage(err)))
			default:
				log.Error().Err(err).Str("owner", owner).Str("kind", string(kind)).Msg("Failed to start game")
				return c.Reply("❌ Could not start the game, try again later")
			}
		}

		return h.send(c, res, res.Text)
	}
}

// HandleText handles free text: it is the answer/action for the player's
// running game. With several games running the text must be prefixed with the
// game's command word ("word TIGER").
func (h *GameHandler) HandleText(c tele.Context) error {
	sender := c.Sender()
	if sender == nil {
		return nil
	}

	text := strings.TrimSpace(c.Text())
	if text == "" || strings.HasPrefix(text, "/") {
		return nil
	}

	owner := ownerID(sender)
	active := h.manager.Active(owner)
	if len(active) == 0 {
		return nil // not playing, stay quiet in group chats
	}

	kind, payload, ok := resolveTarget(active, text)
	if !ok {
		names := make([]string, len(active))
		for i, k := range active {
			names[i] = commandFor(k)
		}
		return c.Reply(fmt.Sprintf("🎮 You have several games running (%s). Prefix your answer with the game, e.g. \"%s %s\"",
			strings.Join(names, ", "), names[0], text))
	}

	res, err := h.manager.Submit(context.Background(), owner, kind, payload)
	return h.deliver(c, owner, res, err)
}

// HandleHint handles the /hint command.
func (h *GameHandler) HandleHint(c tele.Context) error {
	return h.sessionCommand(c, game.VerbHint)
}

// HandleStop handles the /stop command.
func (h *GameHandler) HandleStop(c tele.Context) error {
	return h.sessionCommand(c, game.VerbStop)
}

// HandleStatus handles the /status command.
func (h *GameHandler) HandleStatus(c tele.Context) error {
	return h.sessionCommand(c, game.VerbStatus)
}

// sessionCommand runs a verb against the player's running game, using the
// optional argument to pick between several.
func (h *GameHandler) sessionCommand(c tele.Context, verb game.Verb) error {
	sender := c.Sender()
	if sender == nil {
		return nil
	}

	owner := ownerID(sender)
	active := h.manager.Active(owner)
	if len(active) == 0 {
		return c.Reply("🎮 You have no game running. See /games")
	}

	var kind session.Kind
	if args := c.Args(); len(args) > 0 {
		k, ok := kindAliases[strings.ToLower(args[0])]
		if !ok {
			return c.Reply(fmt.Sprintf("❌ Unknown game %q", args[0]))
		}
		kind = k
	} else if len(active) == 1 {
		kind = active[0]
	} else {
		names := make([]string, len(active))
		for i, k := range active {
			names[i] = commandFor(k)
		}
		return c.Reply(fmt.Sprintf("🎮 Which game? Add it to the command, e.g. \"/%s %s\"", verb, names[0]))
	}

	res, err := h.manager.Dispatch(context.Background(), game.Command{Owner: owner, Kind: kind, Verb: verb})
	return h.deliver(c, owner, res, err)
}

// deliver renders a manager result, credits terminal scores, and maps engine
// errors onto user-facing replies.
func (h *GameHandler) deliver(c tele.Context, owner string, res *game.Result, err error) error {
	if err != nil {
		switch {
		case errors.Is(err, game.ErrSessionExpired):
			// res is the timeout summary
			h.creditScore(owner, res)
			return h.send(c, res, fmt.Sprintf("⏰ Time ran out!\n\n%s", res.Text))
		case errors.Is(err, game.ErrNoActiveSession):
			return c.Reply("🎮 You have no game running. See /games")
		case errors.Is(err, game.ErrHintUnsupported):
			return c.Reply("❌ This game has no hints")
		case errors.Is(err, game.ErrInvalidInput), errors.Is(err, game.ErrInsufficientResource):
			return c.Reply(fmt.Sprintf("❌ %s", userMessage(err)))
		default:
			log.Error().Err(err).Str("owner", owner).Msg("Game command failed")
			return c.Reply("❌ Something went wrong, try again later")
		}
	}

	h.creditScore(owner, res)
	return h.send(c, res, res.Text)
}

// creditScore persists a terminal result's score into the player's profile.
func (h *GameHandler) creditScore(owner string, res *game.Result) {
	if res == nil || res.Score == nil {
		return
	}
	id, err := strconv.ParseInt(owner, 10, 64)
	if err != nil {
		log.Error().Str("owner", owner).Msg("Unparseable owner id on score credit")
		return
	}
	if _, err := h.profiles.RecordScore(context.Background(), id, res.Score); err != nil {
		log.Error().Err(err).Str("owner", owner).Msg("Failed to record score")
	}
}

// NotifyEnded delivers a terminal summary produced outside a player command:
// a sweeper removal or a lazily-detected expiry during /start. The score is
// credited and the summary is pushed to the player's chat.
func (h *GameHandler) NotifyEnded(res *game.Result, s session.Session) {
	h.creditScore(s.Owner(), res)

	if h.bot == nil || res == nil {
		return
	}
	id, err := strconv.ParseInt(s.Owner(), 10, 64)
	if err != nil {
		return
	}
	if _, err := h.bot.Send(&tele.Chat{ID: id}, fmt.Sprintf("⏰ Your %s game timed out.\n\n%s", commandFor(s.Kind()), res.Text)); err != nil {
		log.Debug().Err(err).Str("owner", s.Owner()).Msg("Failed to deliver expiry notice")
	}
}

// send replies with text, attaching the result's image when present.
func (h *GameHandler) send(c tele.Context, res *game.Result, text string) error {
	if res != nil && res.Attachment != "" {
		photo := &tele.Photo{File: tele.FromURL(res.Attachment), Caption: text}
		return c.Reply(photo)
	}
	return c.Reply(text)
}

func (h *GameHandler) ensurePlayer(c tele.Context, sender *tele.User) error {
	username := sender.Username
	if username == "" {
		username = sender.FirstName
	}
	_, _, err := h.profiles.EnsurePlayer(context.Background(), sender.ID, username)
	return err
}

// ownerID is the session owner key for a Telegram user.
func ownerID(sender *tele.User) string {
	return strconv.FormatInt(sender.ID, 10)
}

// resolveTarget picks the session kind a free-text message addresses.
// A single running game takes everything; otherwise the first word must name
// the game.
func resolveTarget(active []session.Kind, text string) (session.Kind, string, bool) {
	word, rest, _ := strings.Cut(text, " ")
	if kind, ok := kindAliases[strings.ToLower(word)]; ok {
		for _, k := range active {
			if k == kind {
				return kind, strings.TrimSpace(rest), true
			}
		}
	}

	if len(active) == 1 {
		return active[0], text, true
	}
	return "", "", false
}

// commandFor returns the canonical command word for a kind.
func commandFor(kind session.Kind) string {
	switch kind {
	case session.KindMathQuiz:
		return "quiz"
	case session.KindWordGuess:
		return "word"
	case session.KindPictureGuess:
		return "pic"
	case session.KindSlots:
		return "slots"
	case session.KindBattle:
		return "rpg"
	default:
		return string(kind)
	}
}

// userMessage strips the sentinel prefix from a wrapped engine error, leaving
// the human-readable detail.
func userMessage(err error) string {
	msg := err.Error()
	if i := strings.Index(msg, ": "); i >= 0 {
		return msg[i+2:]
	}
	return msg
}
