package retrieval

import (
	"context"
	"encoding/json"
	"strings"

	"github.com/pkg/errors"
)

type SourceType string

const (
	SourceWebsite  SourceType = "website"
	SourceDocument SourceType = "document"
)

// ChunkMetadata describes where a chunk came from. Some search backends
// return it as a JSON-encoded string; both forms are accepted.
type ChunkMetadata struct {
	Type     SourceType `json:"type" yaml:"type"`
	Source   string     `json:"source,omitempty" yaml:"source,omitempty"`
	Filename string     `json:"filename,omitempty" yaml:"filename,omitempty"`
}

func (m *ChunkMetadata) UnmarshalJSON(b []byte) error {
	type alias ChunkMetadata
	trimmed := strings.TrimSpace(string(b))
	if strings.HasPrefix(trimmed, `"`) {
		var s string
		if err := json.Unmarshal(b, &s); err != nil {
			return err
		}
		if err := json.Unmarshal([]byte(s), (*alias)(m)); err != nil {
			return errors.Wrap(err, "could not decode string-encoded chunk metadata")
		}
		return nil
	}
	return json.Unmarshal(b, (*alias)(m))
}

// RankedChunk is one search hit, in rank order.
type RankedChunk struct {
	Content  string        `json:"content" yaml:"content"`
	Metadata ChunkMetadata `json:"metadata" yaml:"metadata"`
}

// Retriever searches the indexed documents and websites selected on a node.
type Retriever interface {
	Search(ctx context.Context, query string, documentIDs []string, websiteIDs []string) ([]RankedChunk, error)
}

// Scope is the per-node selection a search is restricted to.
type Scope struct {
	DocumentIDs []string
	WebsiteIDs  []string
}
