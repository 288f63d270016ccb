// Package battle implements the turn-based RPG game: explore an area, fight
// the monster you find, level up, and push into harder areas.
//
// The session state machine is Idle → Exploring → InBattle; victory and
// defeat resolve inside the action that caused them and return to Idle.
package battle

import (
	"context"
	"fmt"
	"math"
	"strings"
	"time"

	"telegram-arcade-bot/internal/game"
	"telegram-arcade-bot/internal/rng"
	"telegram-arcade-bot/internal/session"
)

const (
	// DefaultGoldLossPercent of carried gold is lost on defeat.
	DefaultGoldLossPercent = 25

	// PotionHealPercent of max health restored per healing potion.
	PotionHealPercent = 50

	// StartingPotions in a fresh inventory.
	StartingPotions = 2

	// StartingGold in a fresh inventory.
	StartingGold = 50

	// BaseXPToLevel is the experience needed from level 1 to 2; each later
	// level costs LevelGrowthFactor times the previous one.
	BaseXPToLevel = 100

	// LevelGrowthFactor multiplies the experience requirement per level.
	LevelGrowthFactor = 1.5

	// Per-level stat growth.
	HealthPerLevel = 10
	AttackPerLevel = 3
	DefensePerLevel = 2
	SpeedPerLevel   = 1

	// TimeLimit is the idle deadline, refreshed on every accepted action.
	TimeLimit = 10 * time.Minute
)

// State is the battle session's state machine position.
type State string

const (
	StateIdle     State = "idle"
	StateInBattle State = "in_battle"
)

// Class is a playable character class.
type Class string

const (
	ClassWarrior Class = "warrior"
	ClassMage    Class = "mage"
	ClassRogue   Class = "rogue"
)

// Classes returns the valid class names.
func Classes() []Class {
	return []Class{ClassWarrior, ClassMage, ClassRogue}
}

// classStats fixes a class's starting attributes.
type classStats struct {
	Health  int
	Attack  int
	Defense int
	Speed   int
}

var classTable = map[Class]classStats{
	ClassWarrior: {Health: 100, Attack: 15, Defense: 10, Speed: 5},
	ClassMage:    {Health: 70, Attack: 20, Defense: 5, Speed: 7},
	ClassRogue:   {Health: 80, Attack: 17, Defense: 7, Speed: 10},
}

// Skill is a combat move: either a damage multiplier or a self-heal.
type Skill struct {
	Name       string
	Multiplier float64 // damage = max(1, floor(attack*Multiplier) - defense)
	Heal       int     // restores health instead of dealing damage
	Level      int     // granted when the player reaches this level
}

var classSkills = map[Class][]Skill{
	ClassWarrior: {
		{Name: "power strike", Multiplier: 1.5, Level: 1},
		{Name: "war cry", Heal: 20, Level: 3},
		{Name: "berserk", Multiplier: 2.5, Level: 5},
	},
	ClassMage: {
		{Name: "fireball", Multiplier: 1.8, Level: 1},
		{Name: "mend", Heal: 30, Level: 3},
		{Name: "meteor", Multiplier: 3.0, Level: 5},
	},
	ClassRogue: {
		{Name: "backstab", Multiplier: 2.0, Level: 1},
		{Name: "shadow step", Heal: 15, Level: 3},
		{Name: "assassinate", Multiplier: 3.0, Level: 5},
	},
}

// MonsterTemplate describes one spawnable monster.
type MonsterTemplate struct {
	Name    string
	Health  int
	Attack  int
	Defense int
	XP      int
	Gold    int
}

// Area groups monster templates behind a level gate.
type Area struct {
	Name     string
	MinLevel int
	Monsters []MonsterTemplate
}

// areas is the ordered world map; explore draws from the highest area the
// player's level has unlocked.
var areas = []Area{
	{
		Name:     "Meadow",
		MinLevel: 1,
		Monsters: []MonsterTemplate{
			{Name: "slime", Health: 30, Attack: 5, Defense: 2, XP: 10, Gold: 5},
			{Name: "rat", Health: 25, Attack: 6, Defense: 1, XP: 8, Gold: 4},
			{Name: "goblin", Health: 40, Attack: 8, Defense: 3, XP: 15, Gold: 10},
		},
	},
	{
		Name:     "Dark Forest",
		MinLevel: 3,
		Monsters: []MonsterTemplate{
			{Name: "wolf", Health: 60, Attack: 12, Defense: 4, XP: 25, Gold: 15},
			{Name: "bandit", Health: 70, Attack: 14, Defense: 6, XP: 35, Gold: 30},
			{Name: "giant spider", Health: 55, Attack: 16, Defense: 3, XP: 30, Gold: 20},
		},
	},
	{
		Name:     "Forgotten Caves",
		MinLevel: 5,
		Monsters: []MonsterTemplate{
			{Name: "skeleton", Health: 90, Attack: 18, Defense: 8, XP: 50, Gold: 40},
			{Name: "orc", Health: 110, Attack: 22, Defense: 10, XP: 70, Gold: 55},
		},
	},
	{
		Name:     "Dragon Peak",
		MinLevel: 8,
		Monsters: []MonsterTemplate{
			{Name: "wyvern", Health: 150, Attack: 28, Defense: 12, XP: 120, Gold: 100},
			{Name: "dragon", Health: 250, Attack: 35, Defense: 15, XP: 300, Gold: 250},
		},
	},
}

// Monster is a live opponent in a battle.
type Monster struct {
	MonsterTemplate
	CurrentHealth int
}

// Session is the live state of one adventure.
type Session struct {
	session.Base
	Class Class
	State State

	Level     int
	XP        int
	XPToNext  int
	Health    int
	MaxHealth int
	Attack    int
	Defense   int
	Speed     int

	Gold    int
	Potions int
	Skills  []Skill

	Monster *Monster

	TotalXP       int
	MonstersSlain int
	Battles       int
	Deaths        int
}

// Config tunes the battle economy.
type Config struct {
	GoldLossPercent int
}

// Engine implements game.Engine for the RPG.
type Engine struct {
	src rng.Source
	cfg Config
	now func() time.Time
}

// New creates a battle engine. Zero Config fields fall back to defaults.
func New(src rng.Source, cfg *Config) *Engine {
	c := Config{GoldLossPercent: DefaultGoldLossPercent}
	if cfg != nil && cfg.GoldLossPercent > 0 {
		c.GoldLossPercent = cfg.GoldLossPercent
	}
	return &Engine{src: src, cfg: c, now: time.Now}
}

// Kind returns the session kind this engine owns.
func (e *Engine) Kind() session.Kind {
	return session.KindBattle
}

// Name returns the game's display name.
func (e *Engine) Name() string {
	return "Battle RPG"
}

// Description returns a one-line description for the games list.
func (e *Engine) Description() string {
	return "Pick a class, explore, fight monsters, level up and conquer Dragon Peak."
}

// Start initializes a character of the requested class in the first area.
func (e *Engine) Start(ctx context.Context, owner string, arg string) (session.Session, *game.Result, error) {
	class := Class(strings.ToLower(strings.TrimSpace(arg)))
	if class == "" {
		class = ClassWarrior
	}
	stats, ok := classTable[class]
	if !ok {
		return nil, nil, fmt.Errorf("%w: %q (valid: warrior, mage, rogue)", game.ErrInvalidDifficulty, arg)
	}

	now := e.now()
	s := &Session{
		Base:      session.NewBase(owner, session.KindBattle, now, TimeLimit),
		Class:     class,
		State:     StateIdle,
		Level:     1,
		XPToNext:  BaseXPToLevel,
		Health:    stats.Health,
		MaxHealth: stats.Health,
		Attack:    stats.Attack,
		Defense:   stats.Defense,
		Speed:     stats.Speed,
		Gold:      StartingGold,
		Potions:   StartingPotions,
		Skills:    skillsForLevel(class, 1),
	}

	res := &game.Result{
		Text: fmt.Sprintf("⚔️ A %s sets out into the %s!\n%s\nSend \"explore\" to find a monster.",
			class, areas[0].Name, statLine(s)),
	}
	return s, res, nil
}

// Submit routes the battle verbs: explore, attack, skill <name>, heal, flee.
func (e *Engine) Submit(ctx context.Context, raw session.Session, input string) (*game.Result, error) {
	s, ok := raw.(*Session)
	if !ok {
		return nil, fmt.Errorf("%w: battle got %T", game.ErrCorruptSession, raw)
	}

	fields := strings.Fields(strings.ToLower(strings.TrimSpace(input)))
	if len(fields) == 0 {
		return nil, fmt.Errorf("%w: empty command", game.ErrInvalidInput)
	}

	switch fields[0] {
	case "explore":
		return e.explore(s)
	case "attack":
		return e.attack(s)
	case "skill":
		if len(fields) < 2 {
			return nil, fmt.Errorf("%w: skill needs a name (yours: %s)", game.ErrInvalidInput, skillNames(s.Skills))
		}
		return e.useSkill(s, strings.Join(fields[1:], " "))
	case "heal":
		return e.heal(s)
	case "flee":
		return e.flee(s)
	default:
		return nil, fmt.Errorf("%w: %q (try explore, attack, skill <name>, heal, flee)", game.ErrInvalidInput, fields[0])
	}
}

// explore draws a monster from the highest unlocked area. Only valid when
// idle.
func (e *Engine) explore(s *Session) (*game.Result, error) {
	if s.State != StateIdle {
		return nil, fmt.Errorf("%w: you are already fighting a %s", game.ErrInvalidInput, s.Monster.Name)
	}

	area := currentArea(s.Level)
	tpl := area.Monsters[e.src.Intn(len(area.Monsters))]
	s.Monster = &Monster{MonsterTemplate: tpl, CurrentHealth: tpl.Health}
	s.State = StateInBattle
	s.Battles++
	s.ResetDeadline(e.now(), TimeLimit)

	return &game.Result{
		Text: fmt.Sprintf("🌲 Exploring the %s...\n👹 A wild %s appears! (HP %d, ATK %d, DEF %d)\nAttack, use a skill, heal, or flee!",
			area.Name, tpl.Name, tpl.Health, tpl.Attack, tpl.Defense),
	}, nil
}

// attack performs a basic attack. Only valid in battle.
func (e *Engine) attack(s *Session) (*game.Result, error) {
	if s.State != StateInBattle {
		return nil, fmt.Errorf("%w: nothing to attack, explore first", game.ErrInvalidInput)
	}
	dmg := damage(s.Attack, s.Monster.Defense)
	return e.resolveTurn(s, fmt.Sprintf("🗡 You hit the %s for %d", s.Monster.Name, dmg), dmg), nil
}

// useSkill performs a named skill: a damage multiplier or a self-heal. Only
// valid in battle.
func (e *Engine) useSkill(s *Session, name string) (*game.Result, error) {
	if s.State != StateInBattle {
		return nil, fmt.Errorf("%w: no target, explore first", game.ErrInvalidInput)
	}

	var skill *Skill
	for i := range s.Skills {
		if s.Skills[i].Name == name {
			skill = &s.Skills[i]
			break
		}
	}
	if skill == nil {
		return nil, fmt.Errorf("%w: you don't know %q (yours: %s)", game.ErrInvalidInput, name, skillNames(s.Skills))
	}

	if skill.Heal > 0 {
		healed := s.restore(skill.Heal)
		return e.resolveTurn(s, fmt.Sprintf("✨ %s restores %d health (%d/%d)", skill.Name, healed, s.Health, s.MaxHealth), 0), nil
	}

	dmg := damage(int(math.Floor(float64(s.Attack)*skill.Multiplier)), s.Monster.Defense)
	return e.resolveTurn(s, fmt.Sprintf("💥 %s hits the %s for %d", skill.Name, s.Monster.Name, dmg), dmg), nil
}

// heal consumes a potion; valid in any non-terminal state. Using it in
// battle does not give the monster a turn.
func (e *Engine) heal(s *Session) (*game.Result, error) {
	if s.Potions <= 0 {
		return nil, fmt.Errorf("%w: no healing potions left", game.ErrInsufficientResource)
	}
	if s.Health >= s.MaxHealth {
		return nil, fmt.Errorf("%w: already at full health", game.ErrInvalidInput)
	}

	s.Potions--
	healed := s.restore(s.MaxHealth * PotionHealPercent / 100)
	s.ResetDeadline(e.now(), TimeLimit)

	return &game.Result{
		Text: fmt.Sprintf("🧪 You drink a potion and recover %d health (%d/%d). %d potions left.",
			healed, s.Health, s.MaxHealth, s.Potions),
	}, nil
}

// flee abandons the battle with no rewards or penalties. Only valid in
// battle.
func (e *Engine) flee(s *Session) (*game.Result, error) {
	if s.State != StateInBattle {
		return nil, fmt.Errorf("%w: nothing to flee from", game.ErrInvalidInput)
	}

	name := s.Monster.Name
	s.Monster = nil
	s.State = StateIdle
	s.ResetDeadline(e.now(), TimeLimit)

	return &game.Result{
		Text: fmt.Sprintf("🏃 You flee from the %s. Back to safety.", name),
	}, nil
}

// resolveTurn applies the player's damage, then the monster's retaliation if
// it survives, then victory or defeat resolution.
func (e *Engine) resolveTurn(s *Session, action string, dmg int) *game.Result {
	s.ResetDeadline(e.now(), TimeLimit)

	s.Monster.CurrentHealth -= dmg
	if s.Monster.CurrentHealth <= 0 {
		s.Monster.CurrentHealth = 0
		return e.victory(s, action)
	}

	retaliation := damage(s.Monster.Attack, s.Defense)
	s.Health -= retaliation
	if s.Health <= 0 {
		s.Health = 0
		return e.defeat(s, action, retaliation)
	}

	return &game.Result{
		Text: fmt.Sprintf("%s.\n👹 The %s hits back for %d.\n❤️ You: %d/%d | 👹 %s: %d/%d",
			action, s.Monster.Name, retaliation,
			s.Health, s.MaxHealth, s.Monster.Name, s.Monster.CurrentHealth, s.Monster.Health),
	}
}

// victory grants experience and gold, applies leveling, and returns to idle.
func (e *Engine) victory(s *Session, action string) *game.Result {
	m := s.Monster
	s.Monster = nil
	s.State = StateIdle
	s.MonstersSlain++
	s.Gold += m.Gold
	s.XP += m.XP
	s.TotalXP += m.XP

	text := fmt.Sprintf("%s.\n🏆 The %s is defeated! +%d XP, +%d gold.", action, m.Name, m.XP, m.Gold)

	for s.XP >= s.XPToNext {
		s.XP -= s.XPToNext
		s.Level++
		s.XPToNext = int(float64(s.XPToNext) * LevelGrowthFactor)

		s.MaxHealth += HealthPerLevel
		s.Attack += AttackPerLevel
		s.Defense += DefensePerLevel
		s.Speed += SpeedPerLevel
		s.Health = s.MaxHealth // level-up fully restores

		text += fmt.Sprintf("\n🎉 Level up! You are now level %d (%s).", s.Level, statLine(s))

		for _, skill := range classSkills[s.Class] {
			if skill.Level == s.Level {
				s.Skills = append(s.Skills, skill)
				text += fmt.Sprintf("\n✨ New skill learned: %s!", skill.Name)
			}
		}

		area := currentArea(s.Level)
		if area.MinLevel == s.Level {
			text += fmt.Sprintf("\n🗺 You may now explore the %s!", area.Name)
		}
	}

	return &game.Result{Text: text}
}

// defeat costs a fraction of gold and revives the player at 1 health.
func (e *Engine) defeat(s *Session, action string, retaliation int) *game.Result {
	m := s.Monster
	s.Monster = nil
	s.State = StateIdle
	s.Deaths++

	lost := s.Gold * e.cfg.GoldLossPercent / 100
	s.Gold -= lost
	s.Health = 1

	return &game.Result{
		Text: fmt.Sprintf("%s.\n👹 The %s hits back for %d... and you fall!\n💀 You lose %d gold and crawl back with 1 health.",
			action, m.Name, retaliation, lost),
	}
}

// Hint is not part of the RPG.
func (e *Engine) Hint(ctx context.Context, raw session.Session) (*game.Result, error) {
	return nil, game.ErrHintUnsupported
}

// Stop retires the character and returns the adventure summary.
func (e *Engine) Stop(ctx context.Context, raw session.Session) (*game.Result, error) {
	s, ok := raw.(*Session)
	if !ok {
		return nil, fmt.Errorf("%w: battle got %T", game.ErrCorruptSession, raw)
	}
	return e.summarize(s, session.EndStopped), nil
}

// Status renders the character sheet and, in battle, the opponent.
func (e *Engine) Status(raw session.Session) *game.Result {
	s, ok := raw.(*Session)
	if !ok {
		return &game.Result{Text: "Adventure state unavailable."}
	}

	text := fmt.Sprintf("⚔️ Level %d %s in the %s\n%s\n💰 Gold: %d | 🧪 Potions: %d | 📈 XP: %d/%d\n🎯 Skills: %s",
		s.Level, s.Class, currentArea(s.Level).Name, statLine(s),
		s.Gold, s.Potions, s.XP, s.XPToNext, skillNames(s.Skills))
	if s.State == StateInBattle && s.Monster != nil {
		text += fmt.Sprintf("\n👹 Fighting a %s (%d/%d HP)", s.Monster.Name, s.Monster.CurrentHealth, s.Monster.Health)
	}
	return &game.Result{Text: text}
}

// Expire produces the timeout summary.
func (e *Engine) Expire(raw session.Session) *game.Result {
	s, ok := raw.(*Session)
	if !ok {
		return &game.Result{Text: "Adventure over.", Done: true}
	}
	return e.summarize(s, session.EndExpired)
}

func (e *Engine) summarize(s *Session, reason session.EndReason) *game.Result {
	header := "🏁 Adventure over!"
	if reason == session.EndExpired {
		header = "⏰ Your adventure faded into legend."
	}

	accuracy := 0.0
	if s.Battles > 0 {
		accuracy = float64(s.MonstersSlain) / float64(s.Battles)
	}

	return &game.Result{
		Text: fmt.Sprintf("%s\n⚔️ Level %d %s | 👹 Slain: %d | 💀 Deaths: %d | 💰 Gold: %d | 📈 Total XP: %d",
			header, s.Level, s.Class, s.MonstersSlain, s.Deaths, s.Gold, s.TotalXP),
		Done: true,
		Score: &session.ScoreRecord{
			Owner:    s.Owner(),
			Kind:     session.KindBattle,
			Score:    int64(s.TotalXP),
			Accuracy: accuracy,
			Attempts: s.Battles,
			Duration: e.now().Sub(s.CreatedAt()),
			Level:    s.Level,
			Won:      s.MonstersSlain > 0,
			Reason:   reason,
		},
	}
}

// restore restores up to amount health, clamped at max, returning the amount
// actually healed.
func (s *Session) restore(amount int) int {
	healed := amount
	if s.Health+healed > s.MaxHealth {
		healed = s.MaxHealth - s.Health
	}
	s.Health += healed
	return healed
}

// damage is the core combat formula: never below 1.
func damage(attack, defense int) int {
	d := attack - defense
	if d < 1 {
		return 1
	}
	return d
}

// currentArea returns the highest area unlocked at level.
func currentArea(level int) Area {
	current := areas[0]
	for _, a := range areas {
		if level >= a.MinLevel {
			current = a
		}
	}
	return current
}

func statLine(s *Session) string {
	return fmt.Sprintf("❤️ %d/%d | 🗡 ATK %d | 🛡 DEF %d | 💨 SPD %d",
		s.Health, s.MaxHealth, s.Attack, s.Defense, s.Speed)
}

func skillNames(skills []Skill) string {
	names := make([]string, len(skills))
	for i, sk := range skills {
		names[i] = sk.Name
	}
	return strings.Join(names, ", ")
}

// skillsForLevel returns the class skills unlocked at or below level.
func skillsForLevel(class Class, level int) []Skill {
	var skills []Skill
	for _, sk := range classSkills[class] {
		if sk.Level <= level {
			skills = append(skills, sk)
		}
	}
	return skills
}
