package dispatch

import (
	"context"
	"net/http"

	"github.com/go-go-golems/canvas-chat/pkg/conversation"
	"github.com/go-go-golems/canvas-chat/pkg/models"
	"github.com/go-go-golems/canvas-chat/pkg/steps/ai/claude"
	"github.com/go-go-golems/canvas-chat/pkg/steps/ai/openai"
	"github.com/go-go-golems/canvas-chat/pkg/steps/ai/settings"
)

// payload is everything a family strategy needs to issue one request.
type payload struct {
	modelID      string
	baseURL      string
	apiKey       string
	systemPrompt string
	history      []*conversation.Message
	newMessage   *conversation.Message
	settings     *settings.GenerationSettings
}

type reply struct {
	content string
	usage   *conversation.APIResponseMetrics
}

// strategy shapes, sends and normalizes one request for a provider family.
type strategy interface {
	send(ctx context.Context, client *http.Client, p payload) (*reply, error)
}

func strategyFor(f models.Family) strategy {
	switch f {
	case models.FamilyAnthropicShaped:
		return anthropicStrategy{}
	default:
		return openAIStrategy{}
	}
}

type openAIStrategy struct{}

func (openAIStrategy) send(ctx context.Context, client *http.Client, p payload) (*reply, error) {
	req := openai.MakeCompletionRequest(p.modelID, p.systemPrompt, p.history, p.newMessage, p.settings)
	resp, err := openai.NewClient(p.baseURL, p.apiKey, openai.WithHTTPClient(client)).CreateChatCompletion(ctx, req)
	if err != nil {
		return nil, err
	}
	content, _ := openai.ReplyContent(resp)
	return &reply{content: content, usage: openai.ResponseMetrics(resp)}, nil
}

type anthropicStrategy struct{}

func (anthropicStrategy) send(ctx context.Context, client *http.Client, p payload) (*reply, error) {
	req := claude.MakeMessageRequest(p.modelID, p.systemPrompt, p.history, p.newMessage, p.settings)
	resp, err := claude.NewClient(p.baseURL, p.apiKey, claude.WithHTTPClient(client)).SendMessage(ctx, req)
	if err != nil {
		return nil, err
	}
	content, _ := resp.Text()
	return &reply{content: content, usage: claude.ResponseMetrics(resp)}, nil
}
