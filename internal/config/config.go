package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/kelseyhightower/envconfig"
)

type Config struct {
	Port                     string   `envconfig:"PORT"`
	DatabaseURL              string   `envconfig:"DATABASE_URL"`
	RedisURL                 string   `envconfig:"REDIS_URL"`
	LogLevel                 string   `envconfig:"LOG_LEVEL"`
	JWTSecret                string   `envconfig:"JWT_SECRET"`
	PasswordHasher           string   `envconfig:"PASSWORD_HASHER"`
	BcryptCost               int      `envconfig:"BCRYPT_COST"`
	TokenTTLMinutes          int      `envconfig:"ACCESS_TOKEN_EXPIRE_MINUTES"`
	CookieSecure             bool     `envconfig:"COOKIE_SECURE"`
	AllowedOrigins           []string `envconfig:"ALLOWED_ORIGINS"`
	AnswerDurationSeconds    int      `envconfig:"ANSWER_SECONDS"`
	VoteDurationSeconds      int      `envconfig:"VOTE_SECONDS"`
	DefaultMaxPlayers        int      `envconfig:"DEFAULT_MAX_PLAYERS"`
	DefaultRounds            int      `envconfig:"DEFAULT_ROUNDS"`
	RoomCodeLength           int      `envconfig:"ROOM_CODE_LENGTH"`
	RoomGraceSeconds         int      `envconfig:"ROOM_GRACE_SECONDS"`
	SweepIntervalSeconds     int      `envconfig:"SWEEP_SECONDS"`
	AutoAdvance              bool     `envconfig:"AUTO_ADVANCE"`
	QuestionSource           string   `envconfig:"QUESTION_SOURCE"`
	QuestionCategory         string   `envconfig:"QUESTION_CATEGORY"`
	QuestionTimeoutSeconds   int      `envconfig:"QUESTION_TIMEOUT_SECONDS"`
	OpenAIAPIKey             string   `envconfig:"OPENAI_API_KEY"`
	OpenAIModel              string   `envconfig:"OPENAI_MODEL"`
	DBMaxOpenConns           int      `envconfig:"DB_MAX_OPEN_CONNS"`
	DBMaxIdleConns           int      `envconfig:"DB_MAX_IDLE_CONNS"`
	DBConnMaxLifetimeSeconds int      `envconfig:"DB_CONN_MAX_LIFETIME_SECONDS"`
	DBConnMaxIdleTimeSeconds int      `envconfig:"DB_CONN_MAX_IDLE_SECONDS"`
	PersistBuffer            int      `envconfig:"PERSIST_BUFFER"`
	RateLimitPerSecond       float64  `envconfig:"RATE_LIMIT_PER_SECOND"`
	RateLimitBurst           int      `envconfig:"RATE_LIMIT_BURST"`
}

const (
	QuestionSourceStatic  = "static"
	QuestionSourceLibrary = "library"
	QuestionSourceOpenAI  = "openai"
)

func Default() Config {
	return Config{
		Port:                     "8080",
		LogLevel:                 "info",
		JWTSecret:                "dev-secret-change-me",
		PasswordHasher:           "bcrypt",
		BcryptCost:               10,
		TokenTTLMinutes:          10080,
		AllowedOrigins:           []string{"http://localhost:3000", "http://localhost:8080"},
		AnswerDurationSeconds:    60,
		VoteDurationSeconds:      45,
		DefaultMaxPlayers:        8,
		DefaultRounds:            5,
		RoomCodeLength:           6,
		RoomGraceSeconds:         600,
		SweepIntervalSeconds:     60,
		QuestionSource:           QuestionSourceStatic,
		QuestionTimeoutSeconds:   10,
		OpenAIModel:              "gpt-4o-mini",
		DBMaxOpenConns:           10,
		DBMaxIdleConns:           10,
		DBConnMaxLifetimeSeconds: 300,
		DBConnMaxIdleTimeSeconds: 60,
		PersistBuffer:            256,
		RateLimitPerSecond:       1,
		RateLimitBurst:           5,
	}
}

// Load overlays environment variables onto Default. Unset variables keep
// their default value.
func Load() (Config, error) {
	cfg := Default()
	if err := envconfig.Process("", &cfg); err != nil {
		return cfg, fmt.Errorf("load config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return cfg, err
	}
	return cfg, nil
}

func (c Config) Validate() error {
	if c.RoomCodeLength < 6 || c.RoomCodeLength > 10 {
		return fmt.Errorf("ROOM_CODE_LENGTH must be between 6 and 10, got %d", c.RoomCodeLength)
	}
	if c.AnswerDurationSeconds <= 0 || c.VoteDurationSeconds <= 0 {
		return fmt.Errorf("ANSWER_SECONDS and VOTE_SECONDS must be positive")
	}
	if c.DefaultMaxPlayers < 2 || c.DefaultMaxPlayers > 20 {
		return fmt.Errorf("DEFAULT_MAX_PLAYERS must be between 2 and 20, got %d", c.DefaultMaxPlayers)
	}
	if c.DefaultRounds < 1 || c.DefaultRounds > 10 {
		return fmt.Errorf("DEFAULT_ROUNDS must be between 1 and 10, got %d", c.DefaultRounds)
	}
	switch strings.ToLower(c.QuestionSource) {
	case QuestionSourceStatic, QuestionSourceLibrary, QuestionSourceOpenAI:
	default:
		return fmt.Errorf("QUESTION_SOURCE %q is not supported", c.QuestionSource)
	}
	switch strings.ToLower(c.PasswordHasher) {
	case "bcrypt", "argon2id":
	default:
		return fmt.Errorf("PASSWORD_HASHER %q is not supported", c.PasswordHasher)
	}
	for _, origin := range c.AllowedOrigins {
		if !strings.HasPrefix(origin, "http://") && !strings.HasPrefix(origin, "https://") {
			return fmt.Errorf("ALLOWED_ORIGINS entry %q must start with http:// or https://", origin)
		}
	}
	if strings.TrimSpace(c.JWTSecret) == "" {
		return fmt.Errorf("JWT_SECRET is required")
	}
	return nil
}

func (c Config) AnswerDuration() time.Duration {
	return time.Duration(c.AnswerDurationSeconds) * time.Second
}

func (c Config) VoteDuration() time.Duration {
	return time.Duration(c.VoteDurationSeconds) * time.Second
}

func (c Config) TokenTTL() time.Duration {
	return time.Duration(c.TokenTTLMinutes) * time.Minute
}

func (c Config) RoomGrace() time.Duration {
	return time.Duration(c.RoomGraceSeconds) * time.Second
}

func (c Config) SweepInterval() time.Duration {
	return time.Duration(c.SweepIntervalSeconds) * time.Second
}

func (c Config) QuestionTimeout() time.Duration {
	return time.Duration(c.QuestionTimeoutSeconds) * time.Second
}
