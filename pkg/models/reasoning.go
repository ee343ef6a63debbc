package models

import "strings"

var reasoningPrefixes = []string{"o1", "o3", "o4"}

// IsReasoningModel reports whether id names a reasoning-only model that
// rejects system messages. Router-style ids such as "openai/o1-mini" are
// matched on their last path segment.
func IsReasoningModel(id string) bool {
	m := strings.ToLower(strings.TrimSpace(id))
	if i := strings.LastIndex(m, "/"); i >= 0 {
		m = m[i+1:]
	}
	for _, prefix := range reasoningPrefixes {
		if m == prefix || strings.HasPrefix(m, prefix+"-") {
			return true
		}
	}
	return false
}
