package conversation

import (
	"encoding/json"
	"strings"
	"unicode/utf8"
)

type NodeID string

func (id NodeID) String() string {
	return string(id)
}

// NodeData is the chat payload of a canvas node.
//
// A nil Messages slice means the node has no history field at all, which is
// different from an empty history: the context resolver stops at nodes
// without a history field.
type NodeData struct {
	Messages          []*Message `json:"messages,omitempty" yaml:"messages,omitempty"`
	Model             string     `json:"model,omitempty" yaml:"model,omitempty"`
	SelectedDocuments []string   `json:"selectedDocuments,omitempty" yaml:"selectedDocuments,omitempty"`
	SelectedWebsites  []string   `json:"selectedWebsites,omitempty" yaml:"selectedWebsites,omitempty"`
}

// nodeDataWire keeps a nil history absent and an empty history as [].
type nodeDataWire struct {
	Messages          *[]*Message `json:"messages,omitempty" yaml:"messages,omitempty"`
	Model             string      `json:"model,omitempty" yaml:"model,omitempty"`
	SelectedDocuments []string    `json:"selectedDocuments,omitempty" yaml:"selectedDocuments,omitempty"`
	SelectedWebsites  []string    `json:"selectedWebsites,omitempty" yaml:"selectedWebsites,omitempty"`
}

func (d NodeData) wire() nodeDataWire {
	ret := nodeDataWire{
		Model:             d.Model,
		SelectedDocuments: d.SelectedDocuments,
		SelectedWebsites:  d.SelectedWebsites,
	}
	if d.Messages != nil {
		msgs := d.Messages
		ret.Messages = &msgs
	}
	return ret
}

func (d NodeData) MarshalJSON() ([]byte, error) {
	return json.Marshal(d.wire())
}

func (d NodeData) MarshalYAML() (interface{}, error) {
	return d.wire(), nil
}

// Node is a chat unit on the canvas. Version is bumped by the board store on
// every history append and is used to reject stale dispatch results.
type Node struct {
	ID      NodeID   `json:"id" yaml:"id" jsonschema:"required"`
	Type    string   `json:"type,omitempty" yaml:"type,omitempty"`
	Data    NodeData `json:"data" yaml:"data"`
	Version uint64   `json:"version,omitempty" yaml:"version,omitempty"`
}

const nodeTitleLength = 20

// Title returns the first line of the first message, cut to 20 runes.
func (n *Node) Title() string {
	if n == nil || len(n.Data.Messages) == 0 || n.Data.Messages[0] == nil {
		return "Chat Node"
	}
	first := n.Data.Messages[0].Content
	line := strings.SplitN(first, "\n", 2)[0]
	if utf8.RuneCountInString(line) > nodeTitleLength {
		line = string([]rune(line)[:nodeTitleLength])
	}
	if len(line) < len(first) {
		return line + "..."
	}
	return line
}

// Edge says that Source feeds its history into Target.
type Edge struct {
	ID     string `json:"id,omitempty" yaml:"id,omitempty"`
	Source NodeID `json:"source" yaml:"source" jsonschema:"required"`
	Target NodeID `json:"target" yaml:"target" jsonschema:"required"`
}

// Graph is a read-only snapshot of a board's nodes and edges. Edge order is
// significant: it is the only source of ordering for context resolution.
type Graph struct {
	Nodes []*Node
	Edges []*Edge

	index map[NodeID]*Node
}

func NewGraph(nodes []*Node, edges []*Edge) *Graph {
	g := &Graph{
		Nodes: nodes,
		Edges: edges,
		index: make(map[NodeID]*Node, len(nodes)),
	}
	for _, n := range nodes {
		if n == nil {
			continue
		}
		// first node wins on duplicate ids
		if _, ok := g.index[n.ID]; !ok {
			g.index[n.ID] = n
		}
	}
	return g
}

func (g *Graph) Node(id NodeID) (*Node, bool) {
	if g == nil {
		return nil, false
	}
	n, ok := g.index[id]
	return n, ok
}

// IncomingEdges returns the edges targeting id, in edge order.
func (g *Graph) IncomingEdges(id NodeID) []*Edge {
	if g == nil {
		return nil
	}
	var ret []*Edge
	for _, e := range g.Edges {
		if e != nil && e.Target == id {
			ret = append(ret, e)
		}
	}
	return ret
}
