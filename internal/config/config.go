// internal/config/config.go
package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/jason-s-yu/uno/internal/game"
	"github.com/joho/godotenv"
	"github.com/sirupsen/logrus"
)

// Config is the process configuration, read from the environment (and optionally a .env file).
type Config struct {
	Port     string
	LogLevel logrus.Level

	RedisAddr string
	RedisDB   int
	QueueName string

	// DatabaseURL is empty when no Postgres settings are present.
	DatabaseURL string

	Rules game.HouseRules

	HistorianBatchSize int
	HistorianFlush     time.Duration
	GameInactivity     time.Duration
}

// Load reads the given .env files, if any exist, then the environment.
// Variables already set in the environment win over the files.
func Load(files ...string) (*Config, error) {
	for _, f := range files {
		if _, err := os.Stat(f); err != nil {
			continue
		}
		if err := godotenv.Load(f); err != nil {
			return nil, fmt.Errorf("loading %s: %w", f, err)
		}
	}
	return FromEnv()
}

// FromEnv builds a Config from the current environment.
func FromEnv() (*Config, error) {
	level, err := logrus.ParseLevel(getEnv("LOG_LEVEL", "info"))
	if err != nil {
		return nil, fmt.Errorf("LOG_LEVEL: %w", err)
	}

	rules := game.DefaultHouseRules()
	rules.AdvancedRules = getEnvBool("UNO_ADVANCED_RULES", false)
	rules.RequireReady = getEnvBool("UNO_REQUIRE_READY", false)
	rules.TurnTimerSec = getEnvInt("UNO_TURN_TIMER_SEC", 0)
	rules.MinPlayers = getEnvInt("UNO_MIN_PLAYERS", rules.MinPlayers)
	if rules.TurnTimerSec < 0 {
		return nil, fmt.Errorf("UNO_TURN_TIMER_SEC must be non-negative, got %d", rules.TurnTimerSec)
	}
	if rules.MinPlayers < 2 {
		return nil, fmt.Errorf("UNO_MIN_PLAYERS must be at least 2, got %d", rules.MinPlayers)
	}

	return &Config{
		Port:               getEnv("PORT", "8080"),
		LogLevel:           level,
		RedisAddr:          getEnv("REDIS_ADDR", ""),
		RedisDB:            getEnvInt("REDIS_DB", 0),
		QueueName:          getEnv("HISTORIAN_QUEUE_NAME", "uno_actions"),
		DatabaseURL:        databaseURL(),
		Rules:              rules,
		HistorianBatchSize: getEnvInt("HISTORIAN_BATCH_SIZE", 20),
		HistorianFlush:     time.Duration(getEnvInt("HISTORIAN_FLUSH_MS", 500)) * time.Millisecond,
		GameInactivity:     time.Duration(getEnvInt("GAME_INACTIVITY_TIMEOUT_SEC", 600)) * time.Second,
	}, nil
}

// databaseURL prefers DATABASE_URL, falling back to the individual POSTGRES_* / PG_* variables.
func databaseURL() string {
	if url := os.Getenv("DATABASE_URL"); url != "" {
		return url
	}
	host := os.Getenv("PG_HOST")
	if host == "" {
		return ""
	}
	return fmt.Sprintf(
		"postgres://%s:%s@%s:%s/%s",
		os.Getenv("POSTGRES_USER"),
		os.Getenv("POSTGRES_PASSWORD"),
		host,
		getEnv("PG_PORT", "5432"),
		os.Getenv("PG_DATABASE"),
	)
}

// NewLogger returns a logrus logger at the configured level.
func (c *Config) NewLogger() *logrus.Logger {
	logger := logrus.New()
	logger.SetLevel(c.LogLevel)
	logger.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})
	return logger
}

// getEnv is a helper to read an environment variable or return a default value.
func getEnv(key, def string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return def
}

// getEnvInt is a helper to parse an environment variable as integer, else a default value.
func getEnvInt(key string, def int) int {
	s := os.Getenv(key)
	if s == "" {
		return def
	}
	v, err := strconv.Atoi(s)
	if err != nil {
		return def
	}
	return v
}

func getEnvBool(key string, def bool) bool {
	s := strings.TrimSpace(os.Getenv(key))
	if s == "" {
		return def
	}
	v, err := strconv.ParseBool(s)
	if err != nil {
		return def
	}
	return v
}
