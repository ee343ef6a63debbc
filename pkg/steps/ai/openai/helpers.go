package openai

import (
	"github.com/go-go-golems/canvas-chat/pkg/conversation"
	"github.com/go-go-golems/canvas-chat/pkg/helpers"
	"github.com/go-go-golems/canvas-chat/pkg/models"
	"github.com/go-go-golems/canvas-chat/pkg/steps/ai/settings"
	"github.com/rs/zerolog/log"
	go_openai "github.com/sashabaranov/go-openai"
)

// MakeCompletionRequest builds the chat completions body.
//
// The system prompt is sent as a leading system message unless it is empty or
// the model is a reasoning model. history is sent as-is, followed by the new
// user message, which becomes multi-part when it carries an image. Messages
// with empty content are dropped.
func MakeCompletionRequest(
	modelID string,
	systemPrompt string,
	history []*conversation.Message,
	newMessage *conversation.Message,
	s *settings.GenerationSettings,
) *ChatCompletionRequest {
	msgs := make([]go_openai.ChatCompletionMessage, 0, len(history)+2)

	if systemPrompt != "" && !models.IsReasoningModel(modelID) {
		msgs = append(msgs, go_openai.ChatCompletionMessage{
			Role:    go_openai.ChatMessageRoleSystem,
			Content: systemPrompt,
		})
	} else if systemPrompt != "" {
		log.Debug().Str("model", modelID).Msg("omitting system prompt for reasoning model")
	}

	for _, m := range history {
		if m == nil || m.Content == "" {
			continue
		}
		msgs = append(msgs, go_openai.ChatCompletionMessage{
			Role:    string(m.Role),
			Content: m.Content,
		})
	}

	if newMessage != nil {
		if msg, ok := userMessage(newMessage); ok {
			msgs = append(msgs, msg)
		}
	}

	return &ChatCompletionRequest{
		Model:            modelID,
		Messages:         msgs,
		FilteredSettings: s.NonDefault(),
	}
}

func userMessage(m *conversation.Message) (go_openai.ChatCompletionMessage, bool) {
	if m.ImageURL == "" {
		return go_openai.ChatCompletionMessage{
			Role:    go_openai.ChatMessageRoleUser,
			Content: m.Content,
		}, m.Content != ""
	}
	// a multi-part payload is never empty, the image alone is content
	return go_openai.ChatCompletionMessage{
		Role: go_openai.ChatMessageRoleUser,
		MultiContent: []go_openai.ChatMessagePart{
			{Type: go_openai.ChatMessagePartTypeText, Text: m.Content},
			{Type: go_openai.ChatMessagePartTypeImageURL, ImageURL: &go_openai.ChatMessageImageURL{URL: m.ImageURL}},
		},
	}, true
}

// ResponseMetrics normalizes the usage block. Zero counters are unknown.
func ResponseMetrics(resp *go_openai.ChatCompletionResponse) *conversation.APIResponseMetrics {
	if resp == nil {
		return &conversation.APIResponseMetrics{}
	}
	ret := &conversation.APIResponseMetrics{
		CompletionTokens: helpers.IntPointerIfPositive(resp.Usage.CompletionTokens),
		PromptTokens:     helpers.IntPointerIfPositive(resp.Usage.PromptTokens),
		TotalTokens:      helpers.IntPointerIfPositive(resp.Usage.TotalTokens),
		Model:            resp.Model,
	}
	ret.FillTotal()
	return ret
}
