package ingest

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSummarize(t *testing.T) {
	var captured ChatRequest
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v1/chat/completions", r.URL.Path)
		assert.Equal(t, "Bearer test-key", r.Header.Get("Authorization"))
		require.NoError(t, json.NewDecoder(r.Body).Decode(&captured))

		resp := map[string]interface{}{
			"choices": []map[string]interface{}{
				{"message": map[string]string{"role": "assistant", "content": "You asked Bob to dinner."}},
			},
		}
		_ = json.NewEncoder(w).Encode(resp)
	}))
	defer server.Close()

	s := NewOpenAISummarizer(server.URL, "test-key", "")
	summary, err := s.Summarize(context.Background(), "Mehul", "Date: ...\nhello bob")
	require.NoError(t, err)
	assert.Equal(t, "You asked Bob to dinner.", summary)

	assert.Equal(t, defaultSummarizerModel, captured.Model)
	assert.Equal(t, summarizerTemperature, captured.Temperature)
	require.Len(t, captured.Messages, 2)
	assert.Equal(t, "system", captured.Messages[0].Role)
	assert.Contains(t, captured.Messages[0].Content, "I am Mehul")
	assert.Contains(t, captured.Messages[0].Content, `Refer to all instances of Mehul as "you"`)
	assert.Equal(t, "Date: ...\nhello bob", captured.Messages[1].Content)
}

func TestSummarizeBadStatus(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "rate limited", http.StatusTooManyRequests)
	}))
	defer server.Close()

	s := NewOpenAISummarizer(server.URL, "test-key", "gpt-4")
	_, err := s.Summarize(context.Background(), "Mehul", "hello")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "429")
}

func TestSummarizeNoChoices(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"choices":[]}`))
	}))
	defer server.Close()

	s := NewOpenAISummarizer(server.URL, "test-key", "")
	_, err := s.Summarize(context.Background(), "Mehul", "hello")
	assert.Error(t, err)
}

func TestNewOpenAISummarizerDefaults(t *testing.T) {
	s := NewOpenAISummarizer("", "key", "")
	assert.Equal(t, defaultSummarizerBaseURL, s.BaseURL)
	assert.Equal(t, defaultSummarizerModel, s.Model)
}
