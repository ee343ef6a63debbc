package board

import (
	"context"
	"sync"

	"github.com/go-go-golems/canvas-chat/pkg/conversation"
	"github.com/huandu/go-clone"
	"github.com/pkg/errors"
	"github.com/rs/zerolog/log"
)

// MemoryStore is a thread-safe Store. Boards keep insertion order.
type MemoryStore struct {
	mu      sync.RWMutex
	boards  map[string]*Board
	order   []string
	current string
	closed  bool
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		boards: map[string]*Board{},
	}
}

var _ Store = (*MemoryStore)(nil)

func (s *MemoryStore) ListBoards(_ context.Context) ([]*Board, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if err := s.ensureOpen(); err != nil {
		return nil, err
	}
	out := make([]*Board, 0, len(s.order))
	for _, id := range s.order {
		out = append(out, s.boards[id].Clone())
	}
	return out, nil
}

func (s *MemoryStore) Snapshot(_ context.Context, boardID string) (*Board, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if err := s.ensureOpen(); err != nil {
		return nil, err
	}
	b, ok := s.boards[boardID]
	if !ok {
		return nil, &BoardNotFoundError{BoardID: boardID}
	}
	return b.Clone(), nil
}

// CurrentBoard returns the selected board, or the first board when none is
// selected.
func (s *MemoryStore) CurrentBoard(_ context.Context) (string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if err := s.ensureOpen(); err != nil {
		return "", err
	}
	if s.current != "" {
		return s.current, nil
	}
	if len(s.order) > 0 {
		return s.order[0], nil
	}
	return "", &BoardNotFoundError{}
}

func (s *MemoryStore) UpsertBoard(_ context.Context, b *Board) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.ensureOpen(); err != nil {
		return err
	}
	if err := b.Validate(); err != nil {
		return err
	}
	if _, ok := s.boards[b.ID]; !ok {
		s.order = append(s.order, b.ID)
	}
	s.boards[b.ID] = b.Clone()
	return nil
}

func (s *MemoryStore) DeleteBoard(_ context.Context, boardID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.ensureOpen(); err != nil {
		return err
	}
	if _, ok := s.boards[boardID]; !ok {
		return &BoardNotFoundError{BoardID: boardID}
	}
	delete(s.boards, boardID)
	for i, id := range s.order {
		if id == boardID {
			s.order = append(s.order[:i], s.order[i+1:]...)
			break
		}
	}
	if s.current == boardID {
		s.current = ""
	}
	return nil
}

func (s *MemoryStore) SetCurrentBoard(_ context.Context, boardID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.ensureOpen(); err != nil {
		return err
	}
	if _, ok := s.boards[boardID]; !ok {
		return &BoardNotFoundError{BoardID: boardID}
	}
	s.current = boardID
	return nil
}

func (s *MemoryStore) AddNode(_ context.Context, boardID string, node *conversation.Node, edges ...*conversation.Edge) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.ensureOpen(); err != nil {
		return err
	}
	b, ok := s.boards[boardID]
	if !ok {
		return &BoardNotFoundError{BoardID: boardID}
	}
	if node == nil || node.ID == "" {
		return &ValidationError{Field: "id", Reason: "node id is empty"}
	}
	if _, exists := b.Node(node.ID); exists {
		return errors.Wrapf(ErrNodeExists, "board %q node %q", boardID, node.ID)
	}
	for _, e := range edges {
		if e == nil || e.Source == "" || e.Target == "" {
			return &ValidationError{Field: "edges", Reason: "edge needs a source and a target"}
		}
	}
	n := clone.Clone(node).(*conversation.Node)
	n.Version = 0
	if n.Data.Messages == nil {
		n.Data.Messages = []*conversation.Message{}
	}
	b.Nodes = append(b.Nodes, n)
	for _, e := range edges {
		c := *e
		b.Edges = append(b.Edges, &c)
	}
	return nil
}

func (s *MemoryStore) AppendMessages(_ context.Context, boardID string, nodeID conversation.NodeID, expectedVersion uint64, msgs ...*conversation.Message) (uint64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.ensureOpen(); err != nil {
		return 0, err
	}
	n, err := s.nodeLocked(boardID, nodeID)
	if err != nil {
		return 0, err
	}
	if n.Version != expectedVersion {
		log.Debug().
			Str("board", boardID).
			Str("node", nodeID.String()).
			Uint64("expected", expectedVersion).
			Uint64("actual", n.Version).
			Msg("discarding stale append")
		return n.Version, &VersionConflictError{BoardID: boardID, NodeID: nodeID.String(), Expected: expectedVersion, Actual: n.Version}
	}
	history := make([]*conversation.Message, 0, len(n.Data.Messages)+len(msgs))
	history = append(history, n.Data.Messages...)
	for _, m := range msgs {
		history = append(history, m.Clone())
	}
	n.Data.Messages = history
	n.Version++
	return n.Version, nil
}

func (s *MemoryStore) SetNodeModel(_ context.Context, boardID string, nodeID conversation.NodeID, model string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.ensureOpen(); err != nil {
		return err
	}
	n, err := s.nodeLocked(boardID, nodeID)
	if err != nil {
		return err
	}
	n.Data.Model = model
	return nil
}

func (s *MemoryStore) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.closed = true
	return nil
}

func (s *MemoryStore) nodeLocked(boardID string, nodeID conversation.NodeID) (*conversation.Node, error) {
	b, ok := s.boards[boardID]
	if !ok {
		return nil, &BoardNotFoundError{BoardID: boardID}
	}
	n, ok := b.Node(nodeID)
	if !ok {
		return nil, &NodeNotFoundError{BoardID: boardID, NodeID: nodeID.String()}
	}
	return n, nil
}

// load replaces the content of the store. Used by the persistent stores.
func (s *MemoryStore) load(doc *Document) {
	s.boards = map[string]*Board{}
	s.order = nil
	s.current = ""
	if doc == nil {
		return
	}
	for _, b := range doc.Boards {
		if b == nil {
			continue
		}
		if _, ok := s.boards[b.ID]; !ok {
			s.order = append(s.order, b.ID)
		}
		s.boards[b.ID] = b.Clone()
	}
	if _, ok := s.boards[doc.CurrentBoard]; ok {
		s.current = doc.CurrentBoard
	}
}

// document returns a copy of the store content.
func (s *MemoryStore) document() *Document {
	doc := &Document{CurrentBoard: s.current, Boards: make([]*Board, 0, len(s.order))}
	for _, id := range s.order {
		doc.Boards = append(doc.Boards, s.boards[id].Clone())
	}
	return doc
}

func (s *MemoryStore) ensureOpen() error {
	if s.closed {
		return ErrStoreClosed
	}
	return nil
}
