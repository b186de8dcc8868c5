package prompts

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
)

const (
	defaultOpenAIBaseURL = "https://api.openai.com/v1"
	maxGeneratedPrompts  = 20
)

const openAISystemPrompt = `You write prompts for a party game. Players answer each prompt with a
short, funny reply and then vote on the best answer. Return a numbered list, one prompt per line,
with no commentary.`

type openAIChatRequest struct {
	Model       string              `json:"model"`
	Messages    []openAIChatMessage `json:"messages"`
	Temperature float64             `json:"temperature,omitempty"`
	MaxTokens   int                 `json:"max_tokens,omitempty"`
}

type openAIChatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type openAIChatResponse struct {
	Choices []struct {
		Message struct {
			Content string `json:"content"`
		} `json:"message"`
	} `json:"choices"`
	Error *struct {
		Message string `json:"message"`
	} `json:"error,omitempty"`
}

// OpenAI generates prompts with the chat completions API.
type OpenAI struct {
	APIKey  string
	Model   string
	BaseURL string
	Client  *http.Client
}

func NewOpenAI(apiKey, model string) *OpenAI {
	return &OpenAI{
		APIKey:  apiKey,
		Model:   model,
		BaseURL: defaultOpenAIBaseURL,
		Client:  &http.Client{Timeout: 30 * time.Second},
	}
}

func (o *OpenAI) Draw(ctx context.Context, count int, category string) ([]string, error) {
	if strings.TrimSpace(o.APIKey) == "" {
		return nil, errors.New("openai api key is not configured")
	}
	if count <= 0 {
		return nil, nil
	}
	if count > maxGeneratedPrompts {
		count = maxGeneratedPrompts
	}
	topic := strings.TrimSpace(category)
	if topic == "" {
		topic = "everyday life"
	}
	reqBody := openAIChatRequest{
		Model: o.Model,
		Messages: []openAIChatMessage{
			{Role: "system", Content: openAISystemPrompt},
			{Role: "user", Content: fmt.Sprintf("Write %d prompts about %s.", count, topic)},
		},
		Temperature: 0.9,
		MaxTokens:   700,
	}
	payload, err := json.Marshal(reqBody)
	if err != nil {
		return nil, fmt.Errorf("build openai request: %w", err)
	}

	baseURL := strings.TrimRight(o.BaseURL, "/")
	if baseURL == "" {
		baseURL = defaultOpenAIBaseURL
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, baseURL+"/chat/completions", bytes.NewReader(payload))
	if err != nil {
		return nil, fmt.Errorf("build openai request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+strings.TrimSpace(o.APIKey))
	req.Header.Set("Content-Type", "application/json")

	client := o.Client
	if client == nil {
		client = http.DefaultClient
	}
	resp, err := client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("reach openai: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read openai response: %w", err)
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, fmt.Errorf("openai request failed (%d)", resp.StatusCode)
	}

	var parsed openAIChatResponse
	if err := json.Unmarshal(body, &parsed); err != nil {
		return nil, fmt.Errorf("parse openai response: %w", err)
	}
	if parsed.Error != nil && parsed.Error.Message != "" {
		return nil, fmt.Errorf("openai error: %s", parsed.Error.Message)
	}
	if len(parsed.Choices) == 0 {
		return nil, errors.New("openai returned no choices")
	}
	prompts := parsePromptList(parsed.Choices[0].Message.Content)
	if len(prompts) == 0 {
		return nil, errors.New("openai did not return prompts in the expected format")
	}
	if len(prompts) > count {
		prompts = prompts[:count]
	}
	return prompts, nil
}

// parsePromptList reads one prompt per line, dropping list markers and
// numbering. Duplicates are removed case-insensitively.
func parsePromptList(raw string) []string {
	lines := strings.Split(raw, "\n")
	out := make([]string, 0, len(lines))
	for _, line := range lines {
		line = strings.TrimSpace(line)
		line = strings.TrimLeft(line, "-*•")
		line = strings.TrimSpace(line)
		line = strings.TrimLeft(line, "0123456789.)")
		line = strings.Trim(strings.TrimSpace(line), `"`)
		if line == "" {
			continue
		}
		out = append(out, line)
	}
	return dedupe(out, maxGeneratedPrompts)
}
