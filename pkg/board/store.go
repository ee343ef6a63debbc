package board

import (
	"context"

	"github.com/go-go-golems/canvas-chat/pkg/conversation"
)

// StoreReader provides read operations over boards. Returned boards are
// snapshots: mutating them does not affect the store.
type StoreReader interface {
	ListBoards(ctx context.Context) ([]*Board, error)
	Snapshot(ctx context.Context, boardID string) (*Board, error)
	CurrentBoard(ctx context.Context) (string, error)
}

// StoreWriter provides write operations over boards.
type StoreWriter interface {
	UpsertBoard(ctx context.Context, b *Board) error
	DeleteBoard(ctx context.Context, boardID string) error
	SetCurrentBoard(ctx context.Context, boardID string) error
	// AddNode adds a node with an empty history, plus edges touching it.
	AddNode(ctx context.Context, boardID string, node *conversation.Node, edges ...*conversation.Edge) error
	// AppendMessages appends msgs to a node's history iff the node is still
	// at expectedVersion, and returns the new version. Otherwise nothing is
	// appended and a *VersionConflictError is returned.
	AppendMessages(ctx context.Context, boardID string, nodeID conversation.NodeID, expectedVersion uint64, msgs ...*conversation.Message) (uint64, error)
	SetNodeModel(ctx context.Context, boardID string, nodeID conversation.NodeID, model string) error
	Close() error
}

type Store interface {
	StoreReader
	StoreWriter
}
