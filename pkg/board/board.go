package board

import (
	"fmt"

	"github.com/go-go-golems/canvas-chat/pkg/conversation"
	"github.com/huandu/go-clone"
)

// Board is one canvas: a set of chat nodes and the edges between them.
type Board struct {
	ID    string               `json:"id" yaml:"id" jsonschema:"required,minLength=1"`
	Name  string               `json:"name,omitempty" yaml:"name,omitempty"`
	Nodes []*conversation.Node `json:"nodes" yaml:"nodes"`
	Edges []*conversation.Edge `json:"edges" yaml:"edges"`
}

// Document is the on-disk form of a set of boards.
type Document struct {
	CurrentBoard string   `json:"current_board,omitempty" yaml:"current_board,omitempty"`
	Boards       []*Board `json:"boards" yaml:"boards"`
}

func (b *Board) Clone() *Board {
	if b == nil {
		return nil
	}
	return clone.Clone(b).(*Board)
}

// Graph returns a read-only view for context resolution.
func (b *Board) Graph() *conversation.Graph {
	if b == nil {
		return conversation.NewGraph(nil, nil)
	}
	return conversation.NewGraph(b.Nodes, b.Edges)
}

func (b *Board) Node(id conversation.NodeID) (*conversation.Node, bool) {
	if b == nil {
		return nil, false
	}
	for _, n := range b.Nodes {
		if n != nil && n.ID == id {
			return n, true
		}
	}
	return nil, false
}

// Validate checks ids. Dangling edges are allowed, context resolution
// tolerates them.
func (b *Board) Validate() error {
	if b == nil {
		return &ValidationError{Reason: "board is nil"}
	}
	if b.ID == "" {
		return &ValidationError{Field: "id", Reason: "board id is empty"}
	}
	seen := map[conversation.NodeID]bool{}
	for i, n := range b.Nodes {
		if n == nil {
			return &ValidationError{Field: fmt.Sprintf("nodes[%d]", i), Reason: "node is nil"}
		}
		if n.ID == "" {
			return &ValidationError{Field: fmt.Sprintf("nodes[%d].id", i), Reason: "node id is empty"}
		}
		if seen[n.ID] {
			return &ValidationError{Field: fmt.Sprintf("nodes[%d].id", i), Reason: fmt.Sprintf("duplicate node id %q", n.ID)}
		}
		seen[n.ID] = true
	}
	for i, e := range b.Edges {
		if e == nil || e.Source == "" || e.Target == "" {
			return &ValidationError{Field: fmt.Sprintf("edges[%d]", i), Reason: "edge needs a source and a target"}
		}
	}
	return nil
}
