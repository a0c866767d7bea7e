package ingest

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
)

const (
	defaultSummarizerBaseURL = "https://api.openai.com"
	defaultSummarizerModel   = "gpt-3.5-turbo"

	// Near-deterministic output keeps summaries stable on re-sync.
	summarizerTemperature = 0.05
)

const summarizerSystemPrompt = `I am %s. Refer to all instances of %s as "you". Summarize the given emails in 2 short sentences or fewer.

Example summary 1: You sent a message to person B asking them for an internship. You were inspired by their talk at the YC event and gave them your contact information.
Example summary 2: John Doe responded to you saying that they were impressed with your resume and would like to set up a meeting with you.`

// Summarizer produces a short summary of an email for a given user.
type Summarizer interface {
	Summarize(ctx context.Context, user, message string) (string, error)
}

// OpenAISummarizer calls a chat-completions API to summarize emails.
type OpenAISummarizer struct {
	BaseURL string
	APIKey  string
	Model   string
	client  *http.Client
}

// NewOpenAISummarizer creates a summarizer. Empty baseURL and model fall
// back to the OpenAI API and gpt-3.5-turbo.
func NewOpenAISummarizer(baseURL, apiKey, model string) *OpenAISummarizer {
	if baseURL == "" {
		baseURL = defaultSummarizerBaseURL
	}
	if model == "" {
		model = defaultSummarizerModel
	}
	return &OpenAISummarizer{
		BaseURL: baseURL,
		APIKey:  apiKey,
		Model:   model,
		client:  http.DefaultClient,
	}
}

// ChatMessage represents a single message in a chat conversation.
type ChatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// ChatRequest represents the request payload for chat completions.
type ChatRequest struct {
	Model       string        `json:"model"`
	Messages    []ChatMessage `json:"messages"`
	Temperature float64       `json:"temperature"`
}

// ChatResponse represents the response from the chat completions API.
type ChatResponse struct {
	Choices []struct {
		Message struct {
			Role    string `json:"role"`
			Content string `json:"content"`
		} `json:"message"`
	} `json:"choices"`
}

// Summarize asks the model for a summary of at most two short sentences,
// with the given user referred to in the second person.
func (s *OpenAISummarizer) Summarize(ctx context.Context, user, message string) (string, error) {
	url := fmt.Sprintf("%s/v1/chat/completions", s.BaseURL)

	payload := ChatRequest{
		Model: s.Model,
		Messages: []ChatMessage{
			{
				Role:    "system",
				Content: fmt.Sprintf(summarizerSystemPrompt, user, user),
			},
			{
				Role:    "user",
				Content: message,
			},
		},
		Temperature: summarizerTemperature,
	}

	body, err := json.Marshal(payload)
	if err != nil {
		return "", fmt.Errorf("failed to marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, "POST", url, bytes.NewBuffer(body))
	if err != nil {
		return "", fmt.Errorf("failed to create request: %w", err)
	}

	req.Header.Set("Authorization", fmt.Sprintf("Bearer %s", s.APIKey))
	req.Header.Set("Content-Type", "application/json")

	resp, err := s.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("failed to send request: %w", err)
	}
	defer func() {
		_ = resp.Body.Close()
	}()

	if resp.StatusCode != http.StatusOK {
		raw, _ := io.ReadAll(resp.Body)
		return "", fmt.Errorf("bad status %d: %s", resp.StatusCode, string(raw))
	}

	var chatResp ChatResponse
	if err := json.NewDecoder(resp.Body).Decode(&chatResp); err != nil {
		return "", fmt.Errorf("failed to decode response: %w", err)
	}

	if len(chatResp.Choices) == 0 {
		return "", fmt.Errorf("no choices returned")
	}

	return chatResp.Choices[0].Message.Content, nil
}
