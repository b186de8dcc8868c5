package main

import (
	"context"
	"flag"

	"github.com/rs/zerolog/log"

	"voting-game/internal/config"
	"voting-game/internal/db"
)

func main() {
	filePath := flag.String("file", "prompts.csv", "path to a category,text csv")
	flag.Parse()

	if err := config.LoadDotEnv(".env.local", ".env"); err != nil {
		log.Warn().Err(err).Msg("failed to load .env")
	}
	cfg, err := config.Load()
	if err != nil {
		log.Fatal().Err(err).Msg("invalid configuration")
	}
	if cfg.DatabaseURL == "" {
		log.Fatal().Msg("DATABASE_URL is not set")
	}
	if err := db.Migrate(cfg.DatabaseURL); err != nil {
		log.Fatal().Err(err).Msg("database migration failed")
	}
	conn, err := db.Open(cfg)
	if err != nil {
		log.Fatal().Err(err).Msg("database connection failed")
	}

	inserted, err := db.LoadPromptLibrary(context.Background(), conn, *filePath)
	if err != nil {
		log.Fatal().Err(err).Str("file", *filePath).Msg("failed to load prompts")
	}
	log.Info().Int("inserted", inserted).Str("file", *filePath).Msg("loaded prompts")
}
