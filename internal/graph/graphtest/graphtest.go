// Package graphtest builds small asset and bundle graphs for tests.
package graphtest

import (
	"path"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/imbrian/parcel/internal/cas"
	"github.com/imbrian/parcel/internal/graph"
)

// ID derives a canonical 16-character id from a name, the way the bundler
// derives asset ids from paths.
func ID(name string) string {
	return cas.ShortID([]byte(name))
}

// Builder adds nodes and edges to a graph, failing the test on error.
type Builder struct {
	t testing.TB
	g *graph.ContentGraph
}

// New creates a builder over an empty graph.
func New(t testing.TB) *Builder {
	t.Helper()
	return &Builder{t: t, g: graph.NewContentGraph()}
}

// Graph returns the graph built so far.
func (b *Builder) Graph() *graph.ContentGraph {
	return b.g
}

// Add adds a node.
func (b *Builder) Add(n graph.Node) graph.NodeID {
	b.t.Helper()
	id, err := b.g.AddNode(n)
	require.NoError(b.t, err)
	return id
}

// Edge adds an edge of each given type, EdgeDefault when none is given.
func (b *Builder) Edge(from, to graph.NodeID, types ...graph.EdgeType) {
	b.t.Helper()
	if len(types) == 0 {
		types = []graph.EdgeType{graph.EdgeDefault}
	}
	for _, typ := range types {
		require.NoError(b.t, b.g.AddEdge(from, to, typ))
	}
}

// Root adds a root node.
func (b *Builder) Root() graph.NodeID {
	b.t.Helper()
	return b.Add(&graph.RootNode{Key: "@@root"})
}

// Asset adds an asset whose id is derived from its path. buildID becomes
// meta.id; pass "" to leave meta empty.
func (b *Builder) Asset(filePath, buildID string, symbols ...graph.Symbol) graph.NodeID {
	b.t.Helper()
	return b.Add(NewAsset(filePath, buildID, symbols...))
}

// Dependency adds a dependency node with a derived id.
func (b *Builder) Dependency(name, sourcePath, specifier string, priority graph.Priority) graph.NodeID {
	b.t.Helper()
	return b.Add(&graph.DependencyNode{Value: graph.Dependency{
		ID:         ID("dep:" + name),
		Specifier:  specifier,
		SourcePath: sourcePath,
		Priority:   priority,
	}})
}

// AssetGroup adds an asset group node.
func (b *Builder) AssetGroup(filePath string) graph.NodeID {
	b.t.Helper()
	return b.Add(&graph.AssetGroupNode{Key: "group:" + filePath, Value: graph.AssetGroup{FilePath: filePath}})
}

// Bundle adds a bundle node with a derived id.
func (b *Builder) Bundle(name, mainEntryID string, entryAssetIDs ...string) graph.NodeID {
	b.t.Helper()
	return b.Add(&graph.BundleNode{Value: graph.Bundle{
		ID:            ID("bundle:" + name),
		Type:          "js",
		Name:          name + ".js",
		MainEntryID:   mainEntryID,
		EntryAssetIDs: entryAssetIDs,
	}})
}

// BundleGroup adds a bundle group node.
func (b *Builder) BundleGroup(name, entryAssetID string) graph.NodeID {
	b.t.Helper()
	return b.Add(&graph.BundleGroupNode{
		Key:   "bundle_group:" + name,
		Value: graph.BundleGroup{Target: "default", EntryAsset: entryAssetID},
	})
}

// NewAsset creates an asset node whose id is derived from its path.
func NewAsset(filePath, buildID string, symbols ...graph.Symbol) *graph.AssetNode {
	a := graph.Asset{
		ID:       ID(filePath),
		FilePath: filePath,
		Type:     strings.TrimPrefix(path.Ext(filePath), "."),
		IsSource: !strings.Contains(filePath, "node_modules"),
		Symbols:  symbols,
	}
	if buildID != "" {
		a.Meta = map[string]any{"id": buildID}
	}
	return &graph.AssetNode{Value: a}
}
