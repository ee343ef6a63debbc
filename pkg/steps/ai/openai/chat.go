package openai

import (
	"context"
	"net/http"
	"strings"

	"github.com/go-go-golems/canvas-chat/pkg/steps"
	"github.com/go-go-golems/canvas-chat/pkg/steps/ai/settings"
	go_openai "github.com/sashabaranov/go-openai"
)

// ChatCompletionRequest is the body sent to {endpoint}/chat/completions.
// Generation parameters are inlined and only present when non-default.
type ChatCompletionRequest struct {
	Model    string                            `json:"model"`
	Messages []go_openai.ChatCompletionMessage `json:"messages"`
	settings.FilteredSettings
}

// Client talks to any OpenAI-compatible chat completions endpoint.
type Client struct {
	httpClient *http.Client
	BaseURL    string
	APIKey     string
}

type ClientOption func(*Client)

func WithHTTPClient(c *http.Client) ClientOption {
	return func(client *Client) {
		client.httpClient = c
	}
}

func NewClient(baseURL string, apiKey string, options ...ClientOption) *Client {
	ret := &Client{
		httpClient: &http.Client{},
		BaseURL:    strings.TrimRight(baseURL, "/"),
		APIKey:     apiKey,
	}
	for _, option := range options {
		option(ret)
	}
	return ret
}

func (c *Client) headers() map[string]string {
	if c.APIKey == "" {
		return nil
	}
	return map[string]string{"Authorization": "Bearer " + c.APIKey}
}

// CreateChatCompletion sends one completion request. A 2xx reply without a
// first choice carrying content is reported as a *steps.ProviderError.
func (c *Client) CreateChatCompletion(ctx context.Context, req *ChatCompletionRequest) (*go_openai.ChatCompletionResponse, error) {
	var resp go_openai.ChatCompletionResponse
	status, err := steps.PostJSON(ctx, c.httpClient, steps.JSONRequest{
		Op:      "chat completion",
		URL:     c.BaseURL + "/chat/completions",
		Headers: c.headers(),
		Body:    req,
	}, &resp)
	if err != nil {
		return nil, err
	}
	if _, ok := ReplyContent(&resp); !ok {
		return nil, &steps.ProviderError{StatusCode: status, Message: steps.InvalidResponseFormat}
	}
	return &resp, nil
}

// ReplyContent returns choices[0].message.content.
func ReplyContent(resp *go_openai.ChatCompletionResponse) (string, bool) {
	if resp == nil || len(resp.Choices) == 0 {
		return "", false
	}
	content := resp.Choices[0].Message.Content
	if content == "" {
		return "", false
	}
	return content, true
}
