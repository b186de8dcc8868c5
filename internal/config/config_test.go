package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadUsesDefaults(t *testing.T) {
	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, 60*time.Second, cfg.AnswerDuration())
	assert.Equal(t, 45*time.Second, cfg.VoteDuration())
	assert.Equal(t, 7*24*time.Hour, cfg.TokenTTL())
	assert.Equal(t, 6, cfg.RoomCodeLength)
}

func TestLoadOverridesFromEnv(t *testing.T) {
	t.Setenv("ANSWER_SECONDS", "30")
	t.Setenv("ALLOWED_ORIGINS", "https://a.example,https://b.example")
	t.Setenv("AUTO_ADVANCE", "true")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, 30, cfg.AnswerDurationSeconds)
	assert.Equal(t, []string{"https://a.example", "https://b.example"}, cfg.AllowedOrigins)
	assert.True(t, cfg.AutoAdvance)
	assert.Equal(t, 45, cfg.VoteDurationSeconds)
}

func TestLoadRejectsInvalidValues(t *testing.T) {
	cases := map[string]string{
		"ROOM_CODE_LENGTH": "4",
		"QUESTION_SOURCE":  "carrier-pigeon",
		"DEFAULT_ROUNDS":   "11",
		"VOTE_SECONDS":     "not-a-number",
		"ALLOWED_ORIGINS":  "localhost:3000",
		"PASSWORD_HASHER":  "md5",
	}
	for key, value := range cases {
		t.Run(key, func(t *testing.T) {
			t.Setenv(key, value)
			_, err := Load()
			require.Error(t, err)
		})
	}
}

func TestLoadDotEnvMissingFile(t *testing.T) {
	require.NoError(t, LoadDotEnv(filepath.Join(t.TempDir(), ".env")))
}

func TestLoadDotEnvKeepsExisting(t *testing.T) {
	path := filepath.Join(t.TempDir(), ".env")
	require.NoError(t, os.WriteFile(path, []byte("VOTE_SECONDS=12\nDEFAULT_ROUNDS=3\n"), 0o600))
	t.Setenv("VOTE_SECONDS", "20")
	t.Setenv("DEFAULT_ROUNDS", "")
	require.NoError(t, os.Unsetenv("DEFAULT_ROUNDS"))

	require.NoError(t, LoadDotEnv(path))
	t.Cleanup(func() { _ = os.Unsetenv("DEFAULT_ROUNDS") })

	assert.Equal(t, "20", os.Getenv("VOTE_SECONDS"))
	assert.Equal(t, "3", os.Getenv("DEFAULT_ROUNDS"))
}

func TestLoadDotEnvEarlierFileWins(t *testing.T) {
	dir := t.TempDir()
	local := filepath.Join(dir, ".env.local")
	shared := filepath.Join(dir, ".env")
	require.NoError(t, os.WriteFile(local, []byte("OPENAI_MODEL=local-model\n"), 0o600))
	require.NoError(t, os.WriteFile(shared, []byte("OPENAI_MODEL=shared-model\nQUESTION_CATEGORY=work\n"), 0o600))
	t.Setenv("OPENAI_MODEL", "")
	require.NoError(t, os.Unsetenv("OPENAI_MODEL"))
	t.Setenv("QUESTION_CATEGORY", "")
	require.NoError(t, os.Unsetenv("QUESTION_CATEGORY"))

	require.NoError(t, LoadDotEnv(local, filepath.Join(dir, "missing.env"), shared))

	assert.Equal(t, "local-model", os.Getenv("OPENAI_MODEL"))
	assert.Equal(t, "work", os.Getenv("QUESTION_CATEGORY"))
}
