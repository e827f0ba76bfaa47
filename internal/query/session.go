// Package query answers questions about a loaded build: which node a
// locator names, how an asset is reached from the entries, where a mangled
// symbol comes from, why an asset is in a bundle and what the graphs are
// made of.
package query

import (
	"fmt"

	"github.com/imbrian/parcel/internal/bundlegraph"
	"github.com/imbrian/parcel/internal/graph"
	"github.com/imbrian/parcel/internal/modulematch"
	"github.com/imbrian/parcel/internal/projectpath"
)

// DefaultVendorMarker is the path fragment marking vendored assets.
const DefaultVendorMarker = "node_modules"

// Options tune a Session.
type Options struct {
	// VendorMarker splits bundle graph assets into vendored and source.
	VendorMarker string
	// Modules, when non-empty, adds per-module asset counts to Stats.
	Modules *modulematch.Matcher
	// Paths makes absolute symbol locations project-relative.
	Paths *projectpath.Resolver
}

// Session holds the two loaded graphs. Queries only read, so a Session may
// be shared by concurrent readers; the command line runs one query at a
// time.
type Session struct {
	assets  *graph.AssetGraph
	bundles *bundlegraph.BundleGraph
	opts    Options
}

// NewSession creates a session over a loaded snapshot.
func NewSession(snap *graph.Snapshot, opts Options) *Session {
	if opts.VendorMarker == "" {
		opts.VendorMarker = DefaultVendorMarker
	}

	assets := snap.AssetGraph
	if assets == nil {
		assets = graph.NewContentGraph()
	}
	if snap.BundleGraph == nil {
		snap = &graph.Snapshot{
			AssetGraph:  assets,
			BundleGraph: graph.NewContentGraph(),
			PublicIDs:   snap.PublicIDs,
			BundleInfo:  snap.BundleInfo,
		}
	}

	return &Session{
		assets:  graph.NewAssetGraph(assets),
		bundles: bundlegraph.New(snap),
		opts:    opts,
	}
}

// AssetGraph returns the asset graph.
func (s *Session) AssetGraph() *graph.AssetGraph {
	return s.assets
}

// BundleGraph returns the bundle graph.
func (s *Session) BundleGraph() *bundlegraph.BundleGraph {
	return s.bundles
}

// GraphName selects one of the two graphs.
type GraphName string

// Graph names.
const (
	AssetGraph  GraphName = "asset graph"
	BundleGraph GraphName = "bundle graph"
)

// Graph returns the content graph with the given name.
func (s *Session) Graph(name GraphName) *graph.ContentGraph {
	if name == AssetGraph {
		return s.assets.ContentGraph
	}
	return s.bundles.Graph()
}

// node looks key up in g and checks its variant.
func node[T graph.Node](g *graph.ContentGraph, key string, want graph.NodeType) (T, error) {
	var zero T
	n, ok := g.GetNodeByContentKey(key)
	if !ok {
		return zero, fmt.Errorf("%s %s: %w", want, key, ErrNotFound)
	}
	t, ok := n.(T)
	if !ok {
		return zero, &VariantError{Key: key, Expected: want, Actual: n.Type()}
	}
	return t, nil
}
