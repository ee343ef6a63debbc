package retrieval

import (
	"context"
	"os"
	"sort"
	"strings"
	"unicode"

	"github.com/pkg/errors"
	"gopkg.in/yaml.v3"
)

// IndexedChunk is a chunk as stored in a chunks file, tagged with the
// document or website it belongs to.
type IndexedChunk struct {
	DocumentID string        `yaml:"document_id,omitempty"`
	WebsiteID  string        `yaml:"website_id,omitempty"`
	Content    string        `yaml:"content"`
	Metadata   ChunkMetadata `yaml:"metadata"`
}

type chunksFile struct {
	Chunks []IndexedChunk `yaml:"chunks"`
}

// StaticRetriever serves pre-chunked content loaded from a YAML file. It
// ranks by query term overlap and stands in for a real search backend.
type StaticRetriever struct {
	chunks    []IndexedChunk
	maxChunks int
}

type StaticRetrieverOption func(*StaticRetriever)

func WithMaxChunks(n int) StaticRetrieverOption {
	return func(r *StaticRetriever) {
		r.maxChunks = n
	}
}

func NewStaticRetriever(chunks []IndexedChunk, options ...StaticRetrieverOption) *StaticRetriever {
	ret := &StaticRetriever{chunks: chunks, maxChunks: 5}
	for _, option := range options {
		option(ret)
	}
	return ret
}

func LoadStaticRetriever(path string, options ...StaticRetrieverOption) (*StaticRetriever, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Wrapf(err, "could not read chunks file %s", path)
	}
	var f chunksFile
	if err := yaml.Unmarshal(b, &f); err != nil {
		return nil, errors.Wrapf(err, "could not parse chunks file %s", path)
	}
	return NewStaticRetriever(f.Chunks, options...), nil
}

var _ Retriever = (*StaticRetriever)(nil)

// Search returns the chunks of the selected documents and websites that
// share at least one term with the query, best match first. Nothing is
// returned when nothing is selected.
func (r *StaticRetriever) Search(ctx context.Context, query string, documentIDs []string, websiteIDs []string) ([]RankedChunk, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	docs := toSet(documentIDs)
	sites := toSet(websiteIDs)
	terms := tokenize(query)

	type scored struct {
		chunk RankedChunk
		score int
	}
	var hits []scored
	for _, c := range r.chunks {
		if !(c.DocumentID != "" && docs[c.DocumentID]) && !(c.WebsiteID != "" && sites[c.WebsiteID]) {
			continue
		}
		score := 0
		for t := range tokenize(c.Content) {
			if terms[t] {
				score++
			}
		}
		if score == 0 {
			continue
		}
		hits = append(hits, scored{chunk: RankedChunk{Content: c.Content, Metadata: c.Metadata}, score: score})
	}

	sort.SliceStable(hits, func(i, j int) bool {
		return hits[i].score > hits[j].score
	})

	ret := make([]RankedChunk, 0, len(hits))
	for _, h := range hits {
		if r.maxChunks > 0 && len(ret) >= r.maxChunks {
			break
		}
		ret = append(ret, h.chunk)
	}
	return ret, nil
}

func toSet(ids []string) map[string]bool {
	ret := make(map[string]bool, len(ids))
	for _, id := range ids {
		ret[id] = true
	}
	return ret
}

func tokenize(s string) map[string]bool {
	ret := map[string]bool{}
	for _, f := range strings.FieldsFunc(strings.ToLower(s), func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsNumber(r)
	}) {
		if len(f) > 2 {
			ret[f] = true
		}
	}
	return ret
}
