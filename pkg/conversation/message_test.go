package conversation

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"
)

func intPtr(i int) *int { return &i }

func TestNodeTitle(t *testing.T) {
	tests := []struct {
		name     string
		node     *Node
		expected string
	}{
		{name: "no messages", node: &Node{ID: "a"}, expected: "Chat Node"},
		{name: "short message", node: node("a", "hello"), expected: "hello"},
		{name: "long message", node: node("a", "this message is clearly longer than twenty"), expected: "this message is clea..."},
		{name: "multi line", node: node("a", "first\nsecond"), expected: "first..."},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, tt.node.Title())
		})
	}
}

func TestMessageMetricsString(t *testing.T) {
	tps := 43.14
	m := &MessageMetrics{TotalTime: 18.844, TotalTokens: intPtr(812), TokensPerSecond: &tps}
	assert.Equal(t, "812 tokens · 43.1 tok/s · 18.84s", m.String())

	onlyTime := &MessageMetrics{TotalTime: 1.5}
	assert.Equal(t, "1.50s", onlyTime.String())
}

func TestAPIResponseMetrics_FillTotal(t *testing.T) {
	m := &APIResponseMetrics{CompletionTokens: intPtr(10), PromptTokens: intPtr(5)}
	m.FillTotal()
	require.NotNil(t, m.TotalTokens)
	assert.Equal(t, 15, *m.TotalTokens)

	supplied := &APIResponseMetrics{CompletionTokens: intPtr(10), PromptTokens: intPtr(5), TotalTokens: intPtr(99)}
	supplied.FillTotal()
	assert.Equal(t, 99, *supplied.TotalTokens)

	unknown := &APIResponseMetrics{}
	unknown.FillTotal()
	assert.Nil(t, unknown.TotalTokens)
}

func TestAPIResponseMetrics_MessageMetrics(t *testing.T) {
	m := &APIResponseMetrics{CompletionTokens: intPtr(100)}
	mm := m.MessageMetrics(4)
	assert.Equal(t, 4.0, mm.TotalTime)
	require.NotNil(t, mm.TokensPerSecond)
	assert.InDelta(t, 25.0, *mm.TokensPerSecond, 1e-9)
	assert.Equal(t, 100, *mm.TotalTokens)

	unknown := (&APIResponseMetrics{}).MessageMetrics(2)
	assert.Nil(t, unknown.TokensPerSecond)
	assert.Nil(t, unknown.TotalTokens)
	assert.Equal(t, 2.0, unknown.TotalTime)
}

func TestMessageClone(t *testing.T) {
	orig := NewChatMessage(RoleAssistant, "hi", WithMetrics(&MessageMetrics{TotalTime: 1, TotalTokens: intPtr(3)}))
	c := orig.Clone()
	*c.Metrics.TotalTokens = 7
	c.Content = "changed"
	assert.Equal(t, 3, *orig.Metrics.TotalTokens)
	assert.Equal(t, "hi", orig.Content)
}

func TestConcat(t *testing.T) {
	a := Conversation{NewChatMessage(RoleUser, "a")}
	b := Conversation{NewChatMessage(RoleAssistant, "b")}
	out := Concat(a, b)
	assert.Equal(t, []string{"a", "b"}, contents(out))
	out[0] = nil
	assert.NotNil(t, a[0])
}

func TestNodeDataKeepsAbsentAndEmptyHistoryApart(t *testing.T) {
	nodes := []*Node{
		{ID: "absent", Data: NodeData{Model: "gpt-4o"}},
		{ID: "empty", Data: NodeData{Messages: []*Message{}}},
	}

	b, err := json.Marshal(nodes)
	require.NoError(t, err)
	var fromJSON []*Node
	require.NoError(t, json.Unmarshal(b, &fromJSON))
	assert.Nil(t, fromJSON[0].Data.Messages)
	assert.NotNil(t, fromJSON[1].Data.Messages)
	assert.Empty(t, fromJSON[1].Data.Messages)

	y, err := yaml.Marshal(nodes)
	require.NoError(t, err)
	var fromYAML []*Node
	require.NoError(t, yaml.Unmarshal(y, &fromYAML))
	assert.Nil(t, fromYAML[0].Data.Messages)
	assert.Equal(t, "gpt-4o", fromYAML[0].Data.Model)
	assert.NotNil(t, fromYAML[1].Data.Messages)
}
