package graph

import (
	"errors"
	"fmt"
	"iter"
	"slices"
)

// NodeID is the dense numeric id a ContentGraph assigns to each node.
type NodeID int

var (
	// ErrDuplicateKey is returned when a content key is added twice.
	ErrDuplicateKey = errors.New("duplicate content key")

	// ErrUnknownNode is returned for edges naming a node the graph lacks.
	ErrUnknownNode = errors.New("unknown node")
)

// Edge is a typed, directed arc between two nodes.
type Edge struct {
	From NodeID
	To   NodeID
	Type EdgeType
}

type adjacent struct {
	id  NodeID
	typ EdgeType
}

// ContentGraph is a directed multigraph whose nodes are addressable both by
// content key and by a dense NodeID. It is built once and then only read;
// concurrent readers are safe, concurrent writers are not.
type ContentGraph struct {
	nodes []Node
	ids   map[string]NodeID

	edges    []Edge
	edgeSet  map[Edge]struct{}
	incoming map[NodeID][]adjacent
	outgoing map[NodeID][]adjacent
}

// NewContentGraph creates an empty graph.
func NewContentGraph() *ContentGraph {
	return &ContentGraph{
		ids:      make(map[string]NodeID),
		edgeSet:  make(map[Edge]struct{}),
		incoming: make(map[NodeID][]adjacent),
		outgoing: make(map[NodeID][]adjacent),
	}
}

// AddNode adds a node and returns its id. Ids are assigned in insertion
// order starting at 0.
func (g *ContentGraph) AddNode(n Node) (NodeID, error) {
	key := n.ContentKey()
	if key == "" {
		return 0, fmt.Errorf("adding %s node: empty content key", n.Type())
	}
	if _, ok := g.ids[key]; ok {
		return 0, fmt.Errorf("adding %s node %q: %w", n.Type(), key, ErrDuplicateKey)
	}

	id := NodeID(len(g.nodes))
	g.nodes = append(g.nodes, n)
	g.ids[key] = id
	return id, nil
}

// AddEdge adds a typed edge. Adding an existing (from, to, type) edge is a
// no-op.
func (g *ContentGraph) AddEdge(from, to NodeID, typ EdgeType) error {
	if !g.valid(from) {
		return fmt.Errorf("edge source %d: %w", from, ErrUnknownNode)
	}
	if !g.valid(to) {
		return fmt.Errorf("edge target %d: %w", to, ErrUnknownNode)
	}

	e := Edge{From: from, To: to, Type: typ}
	if _, ok := g.edgeSet[e]; ok {
		return nil
	}
	g.edgeSet[e] = struct{}{}
	g.edges = append(g.edges, e)
	g.outgoing[from] = append(g.outgoing[from], adjacent{id: to, typ: typ})
	g.incoming[to] = append(g.incoming[to], adjacent{id: from, typ: typ})
	return nil
}

func (g *ContentGraph) valid(id NodeID) bool {
	return id >= 0 && int(id) < len(g.nodes)
}

// Len returns the number of nodes.
func (g *ContentGraph) Len() int {
	return len(g.nodes)
}

// GetNode returns the node with the given id.
func (g *ContentGraph) GetNode(id NodeID) (Node, bool) {
	if !g.valid(id) {
		return nil, false
	}
	return g.nodes[id], true
}

// GetNodeByContentKey returns the node with the given content key.
func (g *ContentGraph) GetNodeByContentKey(key string) (Node, bool) {
	id, ok := g.ids[key]
	if !ok {
		return nil, false
	}
	return g.nodes[id], true
}

// GetNodeIDByContentKey returns the id of the node with the given content key.
func (g *ContentGraph) GetNodeIDByContentKey(key string) (NodeID, bool) {
	id, ok := g.ids[key]
	return id, ok
}

// GetNodeIDsConnectedTo returns the sources of edges pointing at id, in edge
// insertion order. Only EdgeDefault edges are followed unless types are
// given. A source joined by several matching edge types is listed once.
func (g *ContentGraph) GetNodeIDsConnectedTo(id NodeID, types ...EdgeType) []NodeID {
	return collect(g.incoming[id], types)
}

// GetNodeIDsConnectedFrom returns the targets of edges leaving id, with the
// same edge type rules as GetNodeIDsConnectedTo.
func (g *ContentGraph) GetNodeIDsConnectedFrom(id NodeID, types ...EdgeType) []NodeID {
	return collect(g.outgoing[id], types)
}

func collect(adj []adjacent, types []EdgeType) []NodeID {
	if len(types) == 0 {
		types = []EdgeType{EdgeDefault}
	}

	var ids []NodeID
	for _, a := range adj {
		if !slices.Contains(types, a.typ) || slices.Contains(ids, a.id) {
			continue
		}
		ids = append(ids, a.id)
	}
	return ids
}

// HasEdge reports whether an edge of the given type joins from and to.
func (g *ContentGraph) HasEdge(from, to NodeID, typ EdgeType) bool {
	_, ok := g.edgeSet[Edge{From: from, To: to, Type: typ}]
	return ok
}

// All iterates over the nodes in insertion order. Insertion order is the
// only order the graph guarantees; it is not sorted.
func (g *ContentGraph) All() iter.Seq2[NodeID, Node] {
	return func(yield func(NodeID, Node) bool) {
		for i, n := range g.nodes {
			if !yield(NodeID(i), n) {
				return
			}
		}
	}
}

// Edges iterates over the edges in insertion order.
func (g *ContentGraph) Edges() iter.Seq[Edge] {
	return slices.Values(g.edges)
}

// EdgeCount returns the number of edges.
func (g *ContentGraph) EdgeCount() int {
	return len(g.edges)
}

// TraverseAncestors walks incoming edges of the given type depth-first from
// start, calling visit once per reachable node (start included). Returning
// false from visit stops the walk from going above that node.
func (g *ContentGraph) TraverseAncestors(start NodeID, typ EdgeType, visit func(NodeID) bool) {
	g.traverse(start, visit, func(id NodeID) []NodeID {
		return g.GetNodeIDsConnectedTo(id, typ)
	})
}

// TraverseDescendants walks outgoing edges of the given types depth-first
// from start, calling visit once per reachable node (start included).
// Returning false from visit skips that node's children.
func (g *ContentGraph) TraverseDescendants(start NodeID, types []EdgeType, visit func(NodeID) bool) {
	g.traverse(start, visit, func(id NodeID) []NodeID {
		return g.GetNodeIDsConnectedFrom(id, types...)
	})
}

func (g *ContentGraph) traverse(start NodeID, visit func(NodeID) bool, next func(NodeID) []NodeID) {
	if !g.valid(start) {
		return
	}

	seen := make(map[NodeID]bool)
	stack := []NodeID{start}
	for len(stack) > 0 {
		id := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		if seen[id] {
			continue
		}
		seen[id] = true

		if !visit(id) {
			continue
		}

		children := next(id)
		for i := len(children) - 1; i >= 0; i-- {
			if !seen[children[i]] {
				stack = append(stack, children[i])
			}
		}
	}
}
