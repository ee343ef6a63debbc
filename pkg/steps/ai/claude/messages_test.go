package claude

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-go-golems/canvas-chat/pkg/steps"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestClient_SendMessage(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v1/messages", r.URL.Path)
		assert.Equal(t, "POST", r.Method)
		assert.Equal(t, "sk-ant", r.Header.Get("x-api-key"))
		assert.Equal(t, "2023-06-01", r.Header.Get("anthropic-version"))

		var raw map[string]interface{}
		require.NoError(t, json.NewDecoder(r.Body).Decode(&raw))
		assert.Equal(t, "claude-3-5-sonnet-latest", raw["model"])
		assert.Equal(t, float64(MaxTokens), raw["max_tokens"])
		assert.Equal(t, "be nice", raw["system"])
		_, hasTemperature := raw["temperature"]
		assert.False(t, hasTemperature)

		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"id":"msg_1","type":"message","role":"assistant",
			"content":[{"type":"text","text":"hi there"}],
			"usage":{"input_tokens":12,"output_tokens":3}}`))
	}))
	defer server.Close()

	client := NewClient(server.URL+"/v1/", "sk-ant")
	resp, err := client.SendMessage(context.Background(), &MessageRequest{
		Model:     "claude-3-5-sonnet-latest",
		Messages:  []Message{{Role: RoleUser, Content: "hello"}},
		MaxTokens: MaxTokens,
		System:    "be nice",
	})
	require.NoError(t, err)

	text, ok := resp.Text()
	require.True(t, ok)
	assert.Equal(t, "hi there", text)
	require.NotNil(t, resp.Usage.InputTokens)
	assert.Equal(t, 12, *resp.Usage.InputTokens)
	require.NotNil(t, resp.Usage.OutputTokens)
	assert.Equal(t, 3, *resp.Usage.OutputTokens)
}

func TestClient_SendMessageErrors(t *testing.T) {
	tests := []struct {
		name        string
		status      int
		contentType string
		body        string
		target      error
	}{
		{name: "rate limited", status: 429, contentType: "application/json", body: `{"error":{"message":"slow down"}}`, target: steps.ErrProvider},
		{name: "empty content", status: 200, contentType: "application/json", body: `{"content":[]}`, target: steps.ErrProvider},
		{name: "html reply", status: 200, contentType: "text/html", body: `<html></html>`, target: steps.ErrMalformedResponse},
		{name: "bad json", status: 200, contentType: "application/json", body: `{"content":`, target: steps.ErrMalformedResponse},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.Header().Set("Content-Type", tt.contentType)
				w.WriteHeader(tt.status)
				_, _ = w.Write([]byte(tt.body))
			}))
			defer server.Close()

			_, err := NewClient(server.URL, "k").SendMessage(context.Background(), &MessageRequest{Model: "m", MaxTokens: MaxTokens})
			require.Error(t, err)
			assert.True(t, errors.Is(err, tt.target), "got %v", err)
		})
	}
}

func TestClient_SendMessageProviderErrorKeepsBody(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
		_, _ = w.Write([]byte(`{"error":{"message":"invalid x-api-key"}}`))
	}))
	defer server.Close()

	_, err := NewClient(server.URL, "k").SendMessage(context.Background(), &MessageRequest{Model: "m"})
	var perr *steps.ProviderError
	require.True(t, errors.As(err, &perr))
	assert.Equal(t, http.StatusUnauthorized, perr.StatusCode)
	assert.Contains(t, perr.Body, "invalid x-api-key")
	assert.Contains(t, err.Error(), "401")
}

func TestClient_SendMessageTransportError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	url := server.URL
	server.Close()

	_, err := NewClient(url, "k").SendMessage(context.Background(), &MessageRequest{Model: "m"})
	require.Error(t, err)
	assert.True(t, errors.Is(err, steps.ErrTransport))
}
