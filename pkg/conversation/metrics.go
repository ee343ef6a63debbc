package conversation

// APIResponseMetrics holds the usage counters reported by a provider for a
// single call, reconciled into one naming scheme. Nil counters were not
// reported.
type APIResponseMetrics struct {
	CompletionTokens *int   `json:"completion_tokens,omitempty" yaml:"completion_tokens,omitempty"`
	PromptTokens     *int   `json:"prompt_tokens,omitempty" yaml:"prompt_tokens,omitempty"`
	TotalTokens      *int   `json:"total_tokens,omitempty" yaml:"total_tokens,omitempty"`
	Model            string `json:"model,omitempty" yaml:"model,omitempty"`
}

// FillTotal sets TotalTokens to the sum of the known counters when the
// provider did not supply it.
func (m *APIResponseMetrics) FillTotal() {
	if m == nil || m.TotalTokens != nil {
		return
	}
	if m.CompletionTokens == nil && m.PromptTokens == nil {
		return
	}
	total := 0
	if m.CompletionTokens != nil {
		total += *m.CompletionTokens
	}
	if m.PromptTokens != nil {
		total += *m.PromptTokens
	}
	m.TotalTokens = &total
}

// MessageMetrics derives the display metrics for a reply that took
// elapsedSeconds. TokensPerSecond is only set when completion tokens are
// known.
func (m *APIResponseMetrics) MessageMetrics(elapsedSeconds float64) *MessageMetrics {
	ret := &MessageMetrics{TotalTime: elapsedSeconds}
	if m == nil || m.CompletionTokens == nil || *m.CompletionTokens <= 0 {
		return ret
	}
	completion := *m.CompletionTokens
	ret.TotalTokens = &completion
	if elapsedSeconds > 0 {
		tps := float64(completion) / elapsedSeconds
		ret.TokensPerSecond = &tps
	}
	return ret
}
