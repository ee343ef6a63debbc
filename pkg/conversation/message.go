package conversation

import (
	"fmt"
	"strings"
)

type Role string

const (
	RoleSystem    Role = "system"
	RoleAssistant Role = "assistant"
	RoleUser      Role = "user"
)

// MessageMetrics is the per-reply measurement block attached to assistant messages.
// TotalTime is in seconds.
type MessageMetrics struct {
	TotalTime       float64  `json:"totalTime" yaml:"totalTime"`
	TotalTokens     *int     `json:"totalTokens,omitempty" yaml:"totalTokens,omitempty"`
	TokensPerSecond *float64 `json:"tokensPerSecond,omitempty" yaml:"tokensPerSecond,omitempty"`
}

// String renders the metrics the way the node footer shows them,
// e.g. "812 tokens · 43.1 tok/s · 18.84s".
func (m *MessageMetrics) String() string {
	if m == nil {
		return ""
	}
	parts := []string{}
	if m.TotalTokens != nil && *m.TotalTokens > 0 {
		parts = append(parts, fmt.Sprintf("%d tokens", *m.TotalTokens))
	}
	if m.TokensPerSecond != nil && *m.TokensPerSecond > 0 {
		parts = append(parts, fmt.Sprintf("%.1f tok/s", *m.TokensPerSecond))
	}
	if m.TotalTime > 0 {
		parts = append(parts, fmt.Sprintf("%.2fs", m.TotalTime))
	}
	return strings.Join(parts, " · ")
}

// Message is a single entry of a node's history. Messages are never mutated
// once they have been appended to a node.
type Message struct {
	Role     Role            `json:"role" yaml:"role" jsonschema:"enum=user,enum=assistant,enum=system"`
	Content  string          `json:"content" yaml:"content"`
	ImageURL string          `json:"image_url,omitempty" yaml:"image_url,omitempty"`
	Metrics  *MessageMetrics `json:"metrics,omitempty" yaml:"metrics,omitempty"`
}

type MessageOption func(*Message)

func WithImageURL(url string) MessageOption {
	return func(m *Message) {
		m.ImageURL = url
	}
}

func WithMetrics(metrics *MessageMetrics) MessageOption {
	return func(m *Message) {
		m.Metrics = metrics
	}
}

func NewChatMessage(role Role, text string, options ...MessageOption) *Message {
	ret := &Message{
		Role:    role,
		Content: text,
	}
	for _, option := range options {
		option(ret)
	}
	return ret
}

func (m *Message) Clone() *Message {
	if m == nil {
		return nil
	}
	ret := *m
	if m.Metrics != nil {
		metrics := *m.Metrics
		if m.Metrics.TotalTokens != nil {
			v := *m.Metrics.TotalTokens
			metrics.TotalTokens = &v
		}
		if m.Metrics.TokensPerSecond != nil {
			v := *m.Metrics.TokensPerSecond
			metrics.TokensPerSecond = &v
		}
		ret.Metrics = &metrics
	}
	return &ret
}

type Conversation []*Message

// Concat returns a fresh slice holding all messages of the given conversations in order.
func Concat(conversations ...Conversation) Conversation {
	n := 0
	for _, c := range conversations {
		n += len(c)
	}
	ret := make(Conversation, 0, n)
	for _, c := range conversations {
		ret = append(ret, c...)
	}
	return ret
}

// GetSinglePrompt concatenates all the messages together, prefixed with their role.
func (messages Conversation) GetSinglePrompt() string {
	if len(messages) == 0 {
		return ""
	}
	if len(messages) == 1 {
		return messages[0].Content
	}

	prompt := ""
	for _, message := range messages {
		prompt += fmt.Sprintf("[%s]: %s\n", message.Role, message.Content)
	}
	return prompt
}
