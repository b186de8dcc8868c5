package server

import (
	"context"
	"net"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"golang.org/x/crypto/bcrypt"

	"voting-game/internal/auth"
	"voting-game/internal/config"
	"voting-game/internal/game"
)

func newTestServer(t *testing.T, handler http.Handler) *httptest.Server {
	t.Helper()
	listener, err := net.Listen("tcp4", "127.0.0.1:0")
	if err != nil {
		t.Skipf("skipping test; listen unavailable: %v", err)
	}
	ts := &httptest.Server{
		Listener: listener,
		Config:   &http.Server{Handler: handler},
	}
	ts.Start()
	return ts
}

var testPrompts = []string{"Worst pizza topping?", "Best excuse for being late?", "Name a useless invention."}

func testConfig() config.Config {
	cfg := config.Default()
	cfg.RateLimitPerSecond = 0
	return cfg
}

type testApp struct {
	srv      *Server
	ts       *httptest.Server
	registry *game.Registry
	hub      *Hub
}

func newTestApp(t *testing.T, cfg config.Config) *testApp {
	t.Helper()
	metrics := NewMetrics()
	hub := NewHub(metrics)
	registry := game.NewRegistry(game.Options{
		Publisher: hub,
		Questions: game.QuestionSourceFunc(func(ctx context.Context, count int, category string) ([]string, error) {
			return testPrompts, nil
		}),
		AnswerDuration: cfg.AnswerDuration(),
		VoteDuration:   cfg.VoteDuration(),
		CodeLength:     cfg.RoomCodeLength,
	})
	svc := auth.NewService(auth.NewMemoryStore(), auth.NewBcryptHasher(bcrypt.MinCost), auth.NewJWTManager(cfg.JWTSecret, time.Hour))
	srv := New(Deps{Config: cfg, Registry: registry, Auth: svc, Hub: hub, Metrics: metrics})
	ts := newTestServer(t, srv.Handler())
	t.Cleanup(ts.Close)
	return &testApp{srv: srv, ts: ts, registry: registry, hub: hub}
}
