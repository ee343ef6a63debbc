package board

import (
	"context"
	"os"
	"path/filepath"
	"sync"

	"github.com/go-go-golems/canvas-chat/pkg/conversation"
	"github.com/pkg/errors"
	"gopkg.in/yaml.v3"
)

// YAMLFileStore persists boards as a single YAML document on disk.
type YAMLFileStore struct {
	mu     sync.RWMutex
	path   string
	store  *MemoryStore
	closed bool
}

var _ Store = (*YAMLFileStore)(nil)

func NewYAMLFileStore(path string) (*YAMLFileStore, error) {
	if path == "" {
		return nil, errors.New("yaml board store path is required")
	}
	s := &YAMLFileStore{
		path:  path,
		store: NewMemoryStore(),
	}
	if err := s.loadFromDisk(); err != nil {
		return nil, err
	}
	return s, nil
}

// DecodeYAMLDocument parses and validates a board document.
func DecodeYAMLDocument(b []byte) (*Document, error) {
	doc := &Document{}
	if err := yaml.Unmarshal(b, doc); err != nil {
		return nil, errors.Wrap(err, "decode board document")
	}
	for _, board := range doc.Boards {
		if err := board.Validate(); err != nil {
			return nil, err
		}
	}
	return doc, nil
}

func EncodeYAMLDocument(doc *Document) ([]byte, error) {
	return yaml.Marshal(doc)
}

func (s *YAMLFileStore) ListBoards(ctx context.Context) ([]*Board, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if err := s.ensureOpen(); err != nil {
		return nil, err
	}
	return s.store.ListBoards(ctx)
}

func (s *YAMLFileStore) Snapshot(ctx context.Context, boardID string) (*Board, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if err := s.ensureOpen(); err != nil {
		return nil, err
	}
	return s.store.Snapshot(ctx, boardID)
}

func (s *YAMLFileStore) CurrentBoard(ctx context.Context) (string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if err := s.ensureOpen(); err != nil {
		return "", err
	}
	return s.store.CurrentBoard(ctx)
}

func (s *YAMLFileStore) UpsertBoard(ctx context.Context, b *Board) error {
	return s.write(func() error { return s.store.UpsertBoard(ctx, b) })
}

func (s *YAMLFileStore) DeleteBoard(ctx context.Context, boardID string) error {
	return s.write(func() error { return s.store.DeleteBoard(ctx, boardID) })
}

func (s *YAMLFileStore) SetCurrentBoard(ctx context.Context, boardID string) error {
	return s.write(func() error { return s.store.SetCurrentBoard(ctx, boardID) })
}

func (s *YAMLFileStore) AddNode(ctx context.Context, boardID string, node *conversation.Node, edges ...*conversation.Edge) error {
	return s.write(func() error { return s.store.AddNode(ctx, boardID, node, edges...) })
}

func (s *YAMLFileStore) AppendMessages(ctx context.Context, boardID string, nodeID conversation.NodeID, expectedVersion uint64, msgs ...*conversation.Message) (uint64, error) {
	var version uint64
	err := s.write(func() error {
		var err error
		version, err = s.store.AppendMessages(ctx, boardID, nodeID, expectedVersion, msgs...)
		return err
	})
	return version, err
}

func (s *YAMLFileStore) SetNodeModel(ctx context.Context, boardID string, nodeID conversation.NodeID, model string) error {
	return s.write(func() error { return s.store.SetNodeModel(ctx, boardID, nodeID, model) })
}

func (s *YAMLFileStore) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.closed = true
	return s.store.Close()
}

// write applies f and persists the result. Nothing is written when f fails.
func (s *YAMLFileStore) write(f func() error) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.ensureOpen(); err != nil {
		return err
	}
	if err := f(); err != nil {
		return err
	}
	return s.persistLocked()
}

func (s *YAMLFileStore) loadFromDisk() error {
	b, err := os.ReadFile(s.path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return err
	}
	doc, err := DecodeYAMLDocument(b)
	if err != nil {
		return errors.Wrapf(err, "load %s", s.path)
	}
	s.store.load(doc)
	return nil
}

func (s *YAMLFileStore) persistLocked() error {
	b, err := EncodeYAMLDocument(s.store.document())
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(s.path), 0o755); err != nil {
		return err
	}
	tmpPath := s.path + ".tmp"
	if err := os.WriteFile(tmpPath, b, 0o644); err != nil {
		return err
	}
	return os.Rename(tmpPath, s.path)
}

func (s *YAMLFileStore) ensureOpen() error {
	if s.closed {
		return ErrStoreClosed
	}
	return nil
}
