package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"golang.org/x/sync/errgroup"
	"gorm.io/gorm"

	"voting-game/internal/auth"
	"voting-game/internal/config"
	"voting-game/internal/db"
	"voting-game/internal/game"
	"voting-game/internal/prompts"
	"voting-game/internal/server"
)

func main() {
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.RFC3339})
	if err := config.LoadDotEnv(".env.local", ".env"); err != nil {
		log.Warn().Err(err).Msg("failed to load .env")
	}
	cfg, err := config.Load()
	if err != nil {
		log.Fatal().Err(err).Msg("invalid configuration")
	}
	if level, err := zerolog.ParseLevel(cfg.LogLevel); err == nil {
		zerolog.SetGlobalLevel(level)
	}

	if err := run(cfg); err != nil {
		log.Fatal().Err(err).Msg("server stopped")
	}
}

func run(cfg config.Config) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	var conn *gorm.DB
	users := auth.UserStore(auth.NewMemoryStore())
	if cfg.DatabaseURL != "" {
		if err := db.Migrate(cfg.DatabaseURL); err != nil {
			return err
		}
		opened, err := db.Open(cfg)
		if err != nil {
			return err
		}
		conn = opened
		users = db.NewUserStore(conn)
	} else {
		log.Warn().Msg("DATABASE_URL not set, users and game history stay in memory")
	}

	var rdb *redis.Client
	if cfg.RedisURL != "" {
		opts, err := redis.ParseURL(cfg.RedisURL)
		if err != nil {
			return err
		}
		rdb = redis.NewClient(opts)
		defer func() { _ = rdb.Close() }()
	}

	metrics := server.NewMetrics()
	hub := server.NewHub(metrics)
	publisher := game.Publishers{hub}
	var recorder game.Recorder
	var writer *db.Writer
	if conn != nil {
		writer = db.NewWriter(conn, cfg.PersistBuffer, metrics.PersistDropped)
		publisher = append(publisher, writer)
		recorder = writer
	}

	registry := game.NewRegistry(game.Options{
		Publisher:       publisher,
		Recorder:        recorder,
		Questions:       prompts.FromConfig(cfg, conn, rdb),
		Category:        cfg.QuestionCategory,
		AnswerDuration:  cfg.AnswerDuration(),
		VoteDuration:    cfg.VoteDuration(),
		QuestionTimeout: cfg.QuestionTimeout(),
		CodeLength:      cfg.RoomCodeLength,
		AutoAdvance:     cfg.AutoAdvance,
	})
	hasher := auth.NewHasher(cfg.PasswordHasher, cfg.BcryptCost)
	svc := auth.NewService(users, hasher, auth.NewJWTManager(cfg.JWTSecret, cfg.TokenTTL()))
	srv := server.New(server.Deps{
		Config:   cfg,
		Registry: registry,
		Auth:     svc,
		Hub:      hub,
		Metrics:  metrics,
	})

	httpServer := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           srv.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	group, ctx := errgroup.WithContext(ctx)
	group.Go(func() error {
		log.Info().Str("addr", httpServer.Addr).Str("questions", cfg.QuestionSource).Msg("voting-game server listening")
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	group.Go(func() error {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return httpServer.Shutdown(shutdownCtx)
	})
	group.Go(func() error {
		return srv.RunSweeper(ctx)
	})
	if writer != nil {
		group.Go(func() error {
			return writer.Run(ctx)
		})
	}
	return group.Wait()
}
