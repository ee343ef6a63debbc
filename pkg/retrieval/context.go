package retrieval

import (
	"fmt"
	"strings"
)

const contextHeading = "Relevant context for your response:"

// FormatSource names a chunk's origin: the URL for websites, the filename
// for anything else.
func FormatSource(m ChunkMetadata) string {
	if m.Type == SourceWebsite {
		return m.Source
	}
	return m.Filename
}

// BuildContextBlock renders chunks as "[From <source>]: <content>" lines
// separated by blank lines.
func BuildContextBlock(chunks []RankedChunk) string {
	lines := make([]string, 0, len(chunks))
	for _, c := range chunks {
		lines = append(lines, fmt.Sprintf("[From %s]: %s", FormatSource(c.Metadata), c.Content))
	}
	return strings.Join(lines, "\n\n")
}

// AugmentSystemPrompt appends the context block under a heading. An empty
// block leaves the prompt unchanged.
func AugmentSystemPrompt(systemPrompt string, block string) string {
	if block == "" {
		return systemPrompt
	}
	return systemPrompt + "\n\n" + contextHeading + "\n" + block
}
