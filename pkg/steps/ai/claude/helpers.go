package claude

import (
	"github.com/go-go-golems/canvas-chat/pkg/conversation"
	"github.com/go-go-golems/canvas-chat/pkg/steps/ai/settings"
)

// MakeMessageRequest builds a Messages API request. System messages in the
// history are dropped since the system prompt travels in its own field;
// every other non-user role is sent as assistant. Images are not forwarded.
func MakeMessageRequest(
	modelID string,
	systemPrompt string,
	history []*conversation.Message,
	newMessage *conversation.Message,
	s *settings.GenerationSettings,
) *MessageRequest {
	all := make([]*conversation.Message, 0, len(history)+1)
	all = append(all, history...)
	if newMessage != nil {
		all = append(all, newMessage)
	}

	msgs := make([]Message, 0, len(all))
	for _, m := range all {
		if m == nil || m.Role == conversation.RoleSystem || m.Content == "" {
			continue
		}
		role := RoleAssistant
		if m.Role == conversation.RoleUser {
			role = RoleUser
		}
		msgs = append(msgs, Message{Role: role, Content: m.Content})
	}

	ret := &MessageRequest{
		Model:     modelID,
		Messages:  msgs,
		MaxTokens: MaxTokens,
		System:    systemPrompt,
	}
	ret.ApplySettings(s.AnthropicNonDefault())
	return ret
}

// ResponseMetrics maps output/input tokens onto completion/prompt tokens.
func ResponseMetrics(resp *MessageResponse) *conversation.APIResponseMetrics {
	if resp == nil {
		return &conversation.APIResponseMetrics{}
	}
	ret := &conversation.APIResponseMetrics{
		CompletionTokens: resp.Usage.OutputTokens,
		PromptTokens:     resp.Usage.InputTokens,
		Model:            resp.Model,
	}
	ret.FillTotal()
	return ret
}
