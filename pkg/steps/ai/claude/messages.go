package claude

import (
	"context"
	"net/http"
	"strings"

	"github.com/go-go-golems/canvas-chat/pkg/steps"
	"github.com/go-go-golems/canvas-chat/pkg/steps/ai/settings"
)

// MessageRequest represents the Messages API request payload.
type MessageRequest struct {
	Model       string    `json:"model"`
	Messages    []Message `json:"messages"`
	MaxTokens   int       `json:"max_tokens"`
	System      string    `json:"system,omitempty"`
	Temperature *float64  `json:"temperature,omitempty"`
	TopP        *float64  `json:"top_p,omitempty"`
}

// ApplySettings copies the filtered generation parameters the Messages API accepts.
func (r *MessageRequest) ApplySettings(f settings.FilteredSettings) {
	r.Temperature = f.Temperature
	r.TopP = f.TopP
}

// Message represents a single message in the conversation.
type Message struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// MessageResponse represents the Messages API response payload.
type MessageResponse struct {
	ID         string    `json:"id"`
	Type       string    `json:"type"`
	Role       string    `json:"role"`
	Content    []Content `json:"content"`
	Model      string    `json:"model"`
	StopReason string    `json:"stop_reason,omitempty"`
	Usage      Usage     `json:"usage"`
}

// Content represents a single block of content.
type Content struct {
	Type string  `json:"type"`
	Text *string `json:"text,omitempty"`
}

// Usage reports token counts. Missing counters decode as nil.
type Usage struct {
	InputTokens  *int `json:"input_tokens,omitempty"`
	OutputTokens *int `json:"output_tokens,omitempty"`
}

// Text returns the text of the first content block, the reply as the canvas
// displays it.
func (r *MessageResponse) Text() (string, bool) {
	if r == nil || len(r.Content) == 0 || r.Content[0].Text == nil {
		return "", false
	}
	return *r.Content[0].Text, true
}

// Client represents the Claude Messages API client.
type Client struct {
	httpClient *http.Client
	BaseURL    string
	APIKey     string
	APIVersion string
}

type ClientOption func(*Client)

func WithHTTPClient(c *http.Client) ClientOption {
	return func(client *Client) {
		client.httpClient = c
	}
}

func WithAPIVersion(version string) ClientOption {
	return func(client *Client) {
		client.APIVersion = version
	}
}

// NewClient initializes and returns a new API client. baseURL is the API
// root, including the version segment, e.g. https://api.anthropic.com/v1.
func NewClient(baseURL string, apiKey string, options ...ClientOption) *Client {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	ret := &Client{
		httpClient: &http.Client{},
		BaseURL:    strings.TrimRight(baseURL, "/"),
		APIKey:     apiKey,
		APIVersion: DefaultAPIVersion,
	}
	for _, option := range options {
		option(ret)
	}
	return ret
}

func (c *Client) headers() map[string]string {
	return map[string]string{
		"x-api-key":         c.APIKey,
		"anthropic-version": c.APIVersion,
	}
}

// SendMessage sends a message request and returns the response. A 2xx reply
// without a text block is reported as a *steps.ProviderError.
func (c *Client) SendMessage(ctx context.Context, req *MessageRequest) (*MessageResponse, error) {
	var resp MessageResponse
	status, err := steps.PostJSON(ctx, c.httpClient, steps.JSONRequest{
		Op:      "anthropic messages",
		URL:     c.BaseURL + "/messages",
		Headers: c.headers(),
		Body:    req,
	}, &resp)
	if err != nil {
		return nil, err
	}
	if _, ok := resp.Text(); !ok {
		return nil, &steps.ProviderError{StatusCode: status, Message: steps.InvalidResponseFormat}
	}
	return &resp, nil
}
