package graph

import (
	"encoding/json"
	"errors"
	"fmt"

	"github.com/imbrian/parcel/internal/cas"
)

// ErrUnknownNodeType is returned when decoding a record with a type tag
// outside the known variants.
var ErrUnknownNodeType = errors.New("unknown node type")

// NodeRecord is the persisted form of a node. Records are stored in NodeID
// order, so a record's position is its id.
type NodeRecord struct {
	Key     string          `json:"key"`
	Type    NodeType        `json:"type"`
	Payload json.RawMessage `json:"payload,omitempty"`
}

// EdgeRecord is the persisted form of an edge.
type EdgeRecord struct {
	From NodeID   `json:"from"`
	To   NodeID   `json:"to"`
	Type EdgeType `json:"type"`
}

type dependencyPayload struct {
	Dependency
	Excluded bool `json:"excluded,omitempty"`
}

type entrySpecifierPayload struct {
	Specifier string `json:"specifier"`
}

// EncodeNode converts a node to its record. Payloads are canonical JSON.
func EncodeNode(n Node) (NodeRecord, error) {
	var payload any
	switch n := n.(type) {
	case *RootNode:
		payload = nil
	case *AssetNode:
		payload = n.Value
	case *DependencyNode:
		payload = dependencyPayload{Dependency: n.Value, Excluded: n.Excluded}
	case *AssetGroupNode:
		payload = n.Value
	case *BundleNode:
		payload = n.Value
	case *BundleGroupNode:
		payload = n.Value
	case *EntrySpecifierNode:
		payload = entrySpecifierPayload{Specifier: n.Specifier}
	case *EntryFileNode:
		payload = n.Value
	default:
		return NodeRecord{}, fmt.Errorf("encoding %T: %w", n, ErrUnknownNodeType)
	}

	rec := NodeRecord{Key: n.ContentKey(), Type: n.Type()}
	if payload != nil {
		data, err := cas.CanonicalJSON(payload)
		if err != nil {
			return NodeRecord{}, fmt.Errorf("encoding %s payload: %w", n.Type(), err)
		}
		rec.Payload = data
	}
	return rec, nil
}

// DecodeNode converts a record back to a node.
func DecodeNode(rec NodeRecord) (Node, error) {
	var n Node
	var err error

	switch rec.Type {
	case TypeRoot:
		n = &RootNode{Key: rec.Key}
	case TypeAsset:
		node := &AssetNode{}
		err = unmarshalPayload(rec, &node.Value)
		n = node
	case TypeDependency:
		var p dependencyPayload
		err = unmarshalPayload(rec, &p)
		n = &DependencyNode{Value: p.Dependency, Excluded: p.Excluded}
	case TypeAssetGroup:
		node := &AssetGroupNode{Key: rec.Key}
		err = unmarshalPayload(rec, &node.Value)
		n = node
	case TypeBundle:
		node := &BundleNode{}
		err = unmarshalPayload(rec, &node.Value)
		n = node
	case TypeBundleGroup:
		node := &BundleGroupNode{Key: rec.Key}
		err = unmarshalPayload(rec, &node.Value)
		n = node
	case TypeEntrySpecifier:
		var p entrySpecifierPayload
		err = unmarshalPayload(rec, &p)
		n = &EntrySpecifierNode{Key: rec.Key, Specifier: p.Specifier}
	case TypeEntryFile:
		node := &EntryFileNode{Key: rec.Key}
		err = unmarshalPayload(rec, &node.Value)
		n = node
	default:
		return nil, fmt.Errorf("decoding %q: %w", rec.Type, ErrUnknownNodeType)
	}
	if err != nil {
		return nil, err
	}

	if n.ContentKey() != rec.Key {
		return nil, fmt.Errorf("decoding %s node: key %q does not match payload id %q", rec.Type, rec.Key, n.ContentKey())
	}
	return n, nil
}

func unmarshalPayload(rec NodeRecord, v any) error {
	if len(rec.Payload) == 0 {
		return fmt.Errorf("decoding %s node %q: missing payload", rec.Type, rec.Key)
	}
	if err := json.Unmarshal(rec.Payload, v); err != nil {
		return fmt.Errorf("decoding %s node %q: %w", rec.Type, rec.Key, err)
	}
	return nil
}

// Records returns the graph's nodes and edges in insertion order.
func (g *ContentGraph) Records() ([]NodeRecord, []EdgeRecord, error) {
	nodes := make([]NodeRecord, 0, len(g.nodes))
	for _, n := range g.nodes {
		rec, err := EncodeNode(n)
		if err != nil {
			return nil, nil, err
		}
		nodes = append(nodes, rec)
	}

	edges := make([]EdgeRecord, 0, len(g.edges))
	for _, e := range g.edges {
		edges = append(edges, EdgeRecord{From: e.From, To: e.To, Type: e.Type})
	}
	return nodes, edges, nil
}

// FromRecords rebuilds a graph from records produced by Records.
func FromRecords(nodes []NodeRecord, edges []EdgeRecord) (*ContentGraph, error) {
	g := NewContentGraph()
	for i, rec := range nodes {
		n, err := DecodeNode(rec)
		if err != nil {
			return nil, fmt.Errorf("node %d: %w", i, err)
		}
		if _, err := g.AddNode(n); err != nil {
			return nil, fmt.Errorf("node %d: %w", i, err)
		}
	}

	for _, e := range edges {
		if err := g.AddEdge(e.From, e.To, e.Type); err != nil {
			return nil, err
		}
	}
	return g, nil
}
