package conversation

import (
	"github.com/rs/zerolog/log"
)

// ResolveObserver is notified about the places where context resolution
// fails open. Graphs are edited while chats are running, so dangling edges
// are expected and never abort a resolution.
type ResolveObserver interface {
	OnVisit(id NodeID, messages int)
	OnMissingNode(id NodeID)
	OnNodeWithoutMessages(id NodeID)
	OnRevisit(id NodeID)
}

// ResolveStats is a ResolveObserver that counts what happened during a resolution.
type ResolveStats struct {
	Visited              int `json:"visited" yaml:"visited"`
	Messages             int `json:"messages" yaml:"messages"`
	MissingNodes         int `json:"missing_nodes" yaml:"missing_nodes"`
	NodesWithoutMessages int `json:"nodes_without_messages" yaml:"nodes_without_messages"`
	Revisits             int `json:"revisits" yaml:"revisits"`
}

func (s *ResolveStats) OnVisit(_ NodeID, messages int) {
	s.Visited++
	s.Messages += messages
}

func (s *ResolveStats) OnMissingNode(NodeID) { s.MissingNodes++ }

func (s *ResolveStats) OnNodeWithoutMessages(NodeID) { s.NodesWithoutMessages++ }

func (s *ResolveStats) OnRevisit(NodeID) { s.Revisits++ }

var _ ResolveObserver = (*ResolveStats)(nil)

type ResolveOption func(*resolver)

func WithObserver(o ResolveObserver) ResolveOption {
	return func(r *resolver) {
		if o != nil {
			r.observers = append(r.observers, o)
		}
	}
}

type resolver struct {
	graph     *Graph
	visited   map[NodeID]bool
	out       []*Message
	observers []ResolveObserver
}

// ResolveContext collects the history of every node upstream of target.
//
// The walk is a depth-first traversal backwards along the edges, starting
// with the edges into target in edge order. Each node is expanded at most
// once: its own messages are appended in stored order, then its incoming
// edges are followed. The returned slice is in visitation order and is meant
// to be placed directly before target's own history.
//
// The visited set starts empty, so a cycle leading back to target emits
// target's own history once. Missing nodes and nodes without a messages field
// contribute nothing and are reported to the observers.
func ResolveContext(target NodeID, g *Graph, options ...ResolveOption) []*Message {
	r := &resolver{
		graph:   g,
		visited: map[NodeID]bool{},
		out:     []*Message{},
	}
	for _, option := range options {
		option(r)
	}

	for _, e := range g.IncomingEdges(target) {
		if e.Source == "" {
			continue
		}
		r.visit(e.Source)
	}

	log.Debug().
		Str("node", target.String()).
		Int("messages", len(r.out)).
		Msg("Resolved upstream context")

	return r.out
}

func (r *resolver) visit(id NodeID) {
	if r.visited[id] {
		for _, o := range r.observers {
			o.OnRevisit(id)
		}
		return
	}
	r.visited[id] = true

	node, ok := r.graph.Node(id)
	if !ok {
		log.Debug().Str("node", id.String()).Msg("Context source node not found, skipping")
		for _, o := range r.observers {
			o.OnMissingNode(id)
		}
		return
	}
	if node.Data.Messages == nil {
		log.Debug().Str("node", id.String()).Msg("Context source node has no messages, skipping")
		for _, o := range r.observers {
			o.OnNodeWithoutMessages(id)
		}
		return
	}

	for _, m := range node.Data.Messages {
		if m != nil {
			r.out = append(r.out, m)
		}
	}
	for _, o := range r.observers {
		o.OnVisit(id, len(node.Data.Messages))
	}

	for _, e := range r.graph.IncomingEdges(id) {
		if e.Source == "" {
			continue
		}
		r.visit(e.Source)
	}
}
