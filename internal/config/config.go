// Package config provides configuration management using viper.
// It supports loading from YAML files and environment variable overrides.
package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config holds all application configuration.
type Config struct {
	Bot       BotConfig       `mapstructure:"bot"`
	Database  DatabaseConfig  `mapstructure:"database"`
	Whitelist WhitelistConfig `mapstructure:"whitelist"`
	Sessions  SessionsConfig  `mapstructure:"sessions"`
	Games     GamesConfig     `mapstructure:"games"`
}

// BotConfig holds Telegram bot configuration.
type BotConfig struct {
	Token string `mapstructure:"token"`
}

// DatabaseConfig holds PostgreSQL connection configuration.
type DatabaseConfig struct {
	Host            string        `mapstructure:"host"`
	Port            int           `mapstructure:"port"`
	User            string        `mapstructure:"user"`
	Password        string        `mapstructure:"password"`
	Name            string        `mapstructure:"name"`
	PoolSize        int           `mapstructure:"pool_size"`
	ConnectTimeout  time.Duration `mapstructure:"connect_timeout"`
	MaxConnLifetime time.Duration `mapstructure:"max_conn_lifetime"`
	MaxConnIdleTime time.Duration `mapstructure:"max_conn_idle_time"`
}

// WhitelistConfig holds chat whitelist configuration.
type WhitelistConfig struct {
	Chats []int64 `mapstructure:"chats"`
}

// SessionsConfig holds game session lifecycle configuration.
type SessionsConfig struct {
	SweepInterval time.Duration `mapstructure:"sweep_interval"`
	Exclusive     bool          `mapstructure:"exclusive"`
}

// GamesConfig holds game-specific configuration.
type GamesConfig struct {
	WordGuess WordGuessConfig `mapstructure:"wordguess"`
	Slots     SlotsConfig     `mapstructure:"slots"`
	Battle    BattleConfig    `mapstructure:"battle"`
}

// WordGuessConfig holds word guessing game configuration.
type WordGuessConfig struct {
	MaxAttempts int `mapstructure:"max_attempts"`
	MaxHints    int `mapstructure:"max_hints"`
}

// SlotsConfig holds slot machine configuration.
type SlotsConfig struct {
	InitialBalance int64 `mapstructure:"initial_balance"`
	JackpotAmount  int64 `mapstructure:"jackpot_amount"`
}

// BattleConfig holds battle RPG configuration.
type BattleConfig struct {
	GoldLossPercent int `mapstructure:"gold_loss_percent"`
}

// DSN returns the PostgreSQL connection string.
func (d *DatabaseConfig) DSN() string {
	return fmt.Sprintf(
		"postgres://%s:%s@%s:%d/%s?sslmode=disable",
		d.User, d.Password, d.Host, d.Port, d.Name,
	)
}

// Load reads configuration from file and environment variables.
// It looks for config.yaml in the config directory.
func Load(configPath string) (*Config, error) {
	v := viper.New()

	// Set defaults
	setDefaults(v)

	// Configure viper
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(configPath)
	v.AddConfigPath(".")
	v.AddConfigPath("./config")

	// Enable environment variable override
	// Environment variables use underscore separator and uppercase
	// e.g., BOT_TOKEN, DATABASE_HOST, DATABASE_PORT
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// Read config file (optional - env vars can provide all config)
	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
		// Config file not found is OK - we can use env vars
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	return &cfg, nil
}

// setDefaults sets default configuration values.
func setDefaults(v *viper.Viper) {
	// Database defaults
	v.SetDefault("database.host", "localhost")
	v.SetDefault("database.port", 5432)
	v.SetDefault("database.user", "arcadebot")
	v.SetDefault("database.name", "arcadebot")
	v.SetDefault("database.pool_size", 20)
	v.SetDefault("database.connect_timeout", "10s")
	v.SetDefault("database.max_conn_lifetime", "1h")
	v.SetDefault("database.max_conn_idle_time", "30m")

	// Session defaults
	v.SetDefault("sessions.sweep_interval", "30s")
	v.SetDefault("sessions.exclusive", false)

	// Game defaults
	v.SetDefault("games.wordguess.max_attempts", 6)
	v.SetDefault("games.wordguess.max_hints", 2)
	v.SetDefault("games.slots.initial_balance", 1000)
	v.SetDefault("games.slots.jackpot_amount", 10000)
	v.SetDefault("games.battle.gold_loss_percent", 25)
}

// IsChatAllowed checks if a chat ID is in the whitelist.
func (c *Config) IsChatAllowed(chatID int64) bool {
	// Empty whitelist means all chats are allowed
	if len(c.Whitelist.Chats) == 0 {
		return true
	}
	for _, id := range c.Whitelist.Chats {
		if id == chatID {
			return true
		}
	}
	return false
}
