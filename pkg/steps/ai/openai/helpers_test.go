package openai

import (
	"encoding/json"
	"testing"

	"github.com/go-go-golems/canvas-chat/pkg/conversation"
	"github.com/go-go-golems/canvas-chat/pkg/steps/ai/settings"
	go_openai "github.com/sashabaranov/go-openai"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMakeCompletionRequestSystemPrompt(t *testing.T) {
	user := conversation.NewChatMessage(conversation.RoleUser, "hi")

	tests := []struct {
		name       string
		model      string
		system     string
		wantSystem bool
	}{
		{name: "regular model", model: "gpt-4o", system: "sys", wantSystem: true},
		{name: "empty prompt", model: "gpt-4o", system: "", wantSystem: false},
		{name: "o1", model: "o1", system: "sys", wantSystem: false},
		{name: "o1-mini", model: "o1-mini", system: "sys", wantSystem: false},
		{name: "router o1", model: "openai/o1-mini", system: "sys", wantSystem: false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := MakeCompletionRequest(tt.model, tt.system, nil, user, nil)
			if tt.wantSystem {
				require.Len(t, req.Messages, 2)
				assert.Equal(t, go_openai.ChatMessageRoleSystem, req.Messages[0].Role)
				assert.Equal(t, tt.system, req.Messages[0].Content)
			} else {
				require.Len(t, req.Messages, 1)
				assert.Equal(t, go_openai.ChatMessageRoleUser, req.Messages[0].Role)
			}
		})
	}
}

func TestMakeCompletionRequestFiltersEmptyContent(t *testing.T) {
	history := []*conversation.Message{
		conversation.NewChatMessage(conversation.RoleUser, "q1"),
		conversation.NewChatMessage(conversation.RoleAssistant, ""),
		conversation.NewChatMessage(conversation.RoleAssistant, "a1"),
	}
	req := MakeCompletionRequest("gpt-4o", "sys", history, conversation.NewChatMessage(conversation.RoleUser, "q2"), nil)

	contents := []string{}
	for _, m := range req.Messages {
		contents = append(contents, m.Content)
	}
	assert.Equal(t, []string{"sys", "q1", "a1", "q2"}, contents)
}

func TestMakeCompletionRequestImage(t *testing.T) {
	user := conversation.NewChatMessage(conversation.RoleUser, "what is this", conversation.WithImageURL("data:image/png;base64,AAAA"))
	req := MakeCompletionRequest("gpt-4o", "", nil, user, nil)

	require.Len(t, req.Messages, 1)
	m := req.Messages[0]
	assert.Empty(t, m.Content)
	require.Len(t, m.MultiContent, 2)
	assert.Equal(t, go_openai.ChatMessagePartTypeText, m.MultiContent[0].Type)
	assert.Equal(t, "what is this", m.MultiContent[0].Text)
	assert.Equal(t, go_openai.ChatMessagePartTypeImageURL, m.MultiContent[1].Type)
	assert.Equal(t, "data:image/png;base64,AAAA", m.MultiContent[1].ImageURL.URL)

	b, err := json.Marshal(req)
	require.NoError(t, err)

	var raw struct {
		Messages []struct {
			Content []map[string]interface{} `json:"content"`
		} `json:"messages"`
	}
	require.NoError(t, json.Unmarshal(b, &raw))
	require.Len(t, raw.Messages[0].Content, 2)
	assert.Equal(t, "image_url", raw.Messages[0].Content[1]["type"])
}

func TestMakeCompletionRequestSettingsInline(t *testing.T) {
	s := settings.DefaultGenerationSettings()
	s.PresencePenalty = 0.4
	s.Streaming = true

	req := MakeCompletionRequest("gpt-4o", "", nil, conversation.NewChatMessage(conversation.RoleUser, "x"), s)
	b, err := json.Marshal(req)
	require.NoError(t, err)

	var raw map[string]interface{}
	require.NoError(t, json.Unmarshal(b, &raw))
	assert.Equal(t, 0.4, raw["presence_penalty"])
	assert.NotContains(t, raw, "temperature")
	assert.NotContains(t, raw, "stream")
	assert.NotContains(t, raw, "streaming")
}
