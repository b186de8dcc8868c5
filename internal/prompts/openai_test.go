package prompts

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParsePromptList(t *testing.T) {
	raw := `1. What is a ghost's favourite snack?
2) "Name a terrible superhero."
- What is a ghost's favourite snack?

* Describe a cloud's day job.`

	assert.Equal(t, []string{
		"What is a ghost's favourite snack?",
		"Name a terrible superhero.",
		"Describe a cloud's day job.",
	}, parsePromptList(raw))
}

func newOpenAIServer(t *testing.T, status int, content string) *httptest.Server {
	t.Helper()
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/chat/completions", r.URL.Path)
		assert.Equal(t, "Bearer test-key", r.Header.Get("Authorization"))

		var req openAIChatRequest
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.Equal(t, "test-model", req.Model)

		w.WriteHeader(status)
		_ = json.NewEncoder(w).Encode(map[string]any{
			"choices": []map[string]any{{"message": map[string]string{"content": content}}},
		})
	}))
}

func TestOpenAIDraw(t *testing.T) {
	server := newOpenAIServer(t, http.StatusOK, "1. First\n2. Second\n3. Third")
	defer server.Close()

	source := NewOpenAI("test-key", "test-model")
	source.BaseURL = server.URL
	source.Client = server.Client()

	drawn, err := source.Draw(context.Background(), 2, "food")
	require.NoError(t, err)
	assert.Equal(t, []string{"First", "Second"}, drawn)
}

func TestOpenAIErrors(t *testing.T) {
	_, err := NewOpenAI("", "model").Draw(context.Background(), 1, "")
	assert.Error(t, err)

	server := newOpenAIServer(t, http.StatusTooManyRequests, "")
	defer server.Close()
	source := NewOpenAI("test-key", "test-model")
	source.BaseURL = server.URL
	_, err = source.Draw(context.Background(), 1, "")
	assert.ErrorContains(t, err, "429")

	empty := newOpenAIServer(t, http.StatusOK, "   \n\n")
	defer empty.Close()
	source.BaseURL = empty.URL
	_, err = source.Draw(context.Background(), 1, "")
	assert.ErrorContains(t, err, "expected format")
}
