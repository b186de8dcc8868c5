package db

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/testcontainers/testcontainers-go/wait"
	"gorm.io/gorm"

	"voting-game/internal/auth"
	"voting-game/internal/config"
	"voting-game/internal/game"
)

// startPostgres runs a throwaway Postgres with migrations applied. It skips
// under -short or when no container runtime is available.
func startPostgres(t *testing.T) *gorm.DB {
	t.Helper()
	if testing.Short() {
		t.Skip("postgres integration test skipped in short mode")
	}
	ctx := context.Background()
	container, err := postgres.Run(ctx,
		"postgres:16-alpine",
		postgres.WithDatabase("voting"),
		postgres.WithUsername("voting"),
		postgres.WithPassword("voting"),
		testcontainers.WithWaitStrategy(wait.ForLog("database system is ready to accept connections").
			WithOccurrence(2).WithStartupTimeout(30*time.Second)),
	)
	if err != nil {
		t.Skipf("postgres container unavailable: %v", err)
	}
	t.Cleanup(func() { _ = container.Terminate(context.Background()) })

	dsn, err := container.ConnectionString(ctx, "sslmode=disable")
	require.NoError(t, err)
	require.NoError(t, Migrate(dsn))

	cfg := config.Default()
	cfg.DatabaseURL = dsn
	conn, err := Open(cfg)
	require.NoError(t, err)
	return conn
}

func TestPostgres(t *testing.T) {
	conn := startPostgres(t)
	ctx := context.Background()

	t.Run("UserStore", func(t *testing.T) {
		store := NewUserStore(conn)
		user := auth.User{ID: "u-1", Email: "ada@example.com", Username: "ada", PasswordHash: "hash", CreatedAt: time.Now().UTC()}

		created, err := store.CreateUser(ctx, user)
		require.NoError(t, err)
		assert.Equal(t, "u-1", created.ID)

		_, err = store.CreateUser(ctx, auth.User{ID: "u-2", Email: "ada@example.com", Username: "other", PasswordHash: "hash", CreatedAt: time.Now().UTC()})
		assert.ErrorIs(t, err, auth.ErrEmailTaken)

		found, err := store.UserByEmail(ctx, "ada@example.com")
		require.NoError(t, err)
		assert.Equal(t, "ada", found.Username)

		_, err = store.UserByID(ctx, "missing")
		assert.ErrorIs(t, err, auth.ErrUserNotFound)
	})

	t.Run("AuthServiceOverPostgres", func(t *testing.T) {
		svc := auth.NewService(NewUserStore(conn), auth.NewBcryptHasher(4), auth.NewJWTManager("secret", time.Hour))
		user, err := svc.Register(ctx, "grace@example.com", "grace", "hunter22")
		require.NoError(t, err)
		token, err := svc.IssueToken(user)
		require.NoError(t, err)
		resolved, err := svc.Resolve(ctx, token)
		require.NoError(t, err)
		assert.Equal(t, user.ID, resolved.ID)
	})

	t.Run("WriterMirrorsAGame", func(t *testing.T) {
		writer := NewWriter(conn, 64, nil)
		runCtx, cancel := context.WithCancel(ctx)
		done := make(chan error, 1)
		go func() { done <- writer.Run(runCtx) }()

		host := game.Identity{ID: "host", DisplayName: "Hana"}
		guest := game.Identity{ID: "guest", DisplayName: "Gus"}
		registry := game.NewRegistry(game.Options{
			Recorder:  writer,
			Publisher: writer,
			Questions: game.QuestionSourceFunc(func(context.Context, int, string) ([]string, error) {
				return []string{"Best snack?"}, nil
			}),
		})
		session, err := registry.Create(host, 4, 1)
		require.NoError(t, err)
		_, err = session.Join(guest)
		require.NoError(t, err)
		round, err := session.StartGame(ctx, host.ID)
		require.NoError(t, err)
		answer, err := session.SubmitAnswer(round.ID, host.ID, "crisps")
		require.NoError(t, err)
		_, err = session.SubmitAnswer(round.ID, guest.ID, "grapes")
		require.NoError(t, err)
		_, err = session.StartVoting(host.ID, round.ID)
		require.NoError(t, err)
		_, err = session.SubmitVote(round.ID, guest.ID, answer.ID)
		require.NoError(t, err)
		_, err = session.EndRound(host.ID, round.ID)
		require.NoError(t, err)

		cancel()
		require.NoError(t, <-done)

		var room Room
		require.NoError(t, conn.First(&room, "code = ?", session.Code()).Error)
		assert.Equal(t, string(game.StatusFinished), room.Status)
		var prompts []string
		require.NoError(t, json.Unmarshal(room.Prompts, &prompts))
		assert.Equal(t, []string{"Best snack?"}, prompts)

		var participants int64
		require.NoError(t, conn.Model(&Participant{}).Where("room_code = ?", session.Code()).Count(&participants).Error)
		assert.EqualValues(t, 2, participants)

		var stored Round
		require.NoError(t, conn.First(&stored, "id = ?", round.ID).Error)
		assert.Equal(t, string(game.PhaseCompleted), stored.Status)

		totals, err := roomScores(ctx, conn, session.Code())
		require.NoError(t, err)
		assert.Equal(t, []scoreTotal{{UserID: host.ID, Points: 1}}, totals)

		events, err := roomEvents(ctx, conn, session.Code())
		require.NoError(t, err)
		require.NotEmpty(t, events)
		assert.Equal(t, game.EventGameEnded, events[len(events)-1].Type)
	})

	t.Run("ReplayedVoteIsNotCreditedTwice", func(t *testing.T) {
		rec := game.VoteRecord{
			Code:        "REPLAY",
			Vote:        game.Vote{ID: "v-1", RoundID: "r-1", VoterID: "x", AnswerID: "a-1", CreatedAt: time.Now().UTC()},
			AuthorID:    "y",
			RoundNumber: 1,
		}
		now := time.Now().UTC()
		require.NoError(t, insertVote(conn.WithContext(ctx), rec, now))
		require.NoError(t, insertVote(conn.WithContext(ctx), rec, now))

		totals, err := roomScores(ctx, conn, "REPLAY")
		require.NoError(t, err)
		assert.Equal(t, []scoreTotal{{UserID: "y", Points: 1}}, totals)
	})

	t.Run("LoadPromptLibrary", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "prompts.csv")
		require.NoError(t, os.WriteFile(path, []byte("category,text\nwork,Why is the coffee gone?\nwork,Why is the coffee gone?\n"), 0o644))

		inserted, err := LoadPromptLibrary(ctx, conn, path)
		require.NoError(t, err)
		assert.Equal(t, 1, inserted)

		inserted, err = LoadPromptLibrary(ctx, conn, path)
		require.NoError(t, err)
		assert.Equal(t, 0, inserted)
	})
}

type scoreTotal struct {
	UserID string
	Points int
}

func roomScores(ctx context.Context, conn *gorm.DB, roomCode string) ([]scoreTotal, error) {
	var totals []scoreTotal
	err := conn.WithContext(ctx).Model(&Score{}).
		Select("user_id, SUM(points) AS points").
		Where("room_code = ?", roomCode).
		Group("user_id").
		Order("points DESC, user_id").
		Scan(&totals).Error
	return totals, err
}

func roomEvents(ctx context.Context, conn *gorm.DB, roomCode string) ([]Event, error) {
	var events []Event
	err := conn.WithContext(ctx).Where("room_code = ?", roomCode).Order("id").Find(&events).Error
	return events, err
}
