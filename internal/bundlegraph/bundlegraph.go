// Package bundlegraph exposes bundle-level queries over the bundle graph:
// which bundles hold an asset, which bundles reference each other, what a
// dependency resolved to, and what a bundle contains.
package bundlegraph

import (
	"errors"
	"fmt"

	"github.com/imbrian/parcel/internal/graph"
)

var (
	// ErrNotAsset is returned when an id does not name an asset node.
	ErrNotAsset = errors.New("not an asset")

	// ErrNoPublicID is returned for assets without a public id. Assets the
	// optimizer removed from the output have none.
	ErrNoPublicID = errors.New("asset has no public id")
)

// BundleGraph wraps the bundle ContentGraph together with its side tables.
type BundleGraph struct {
	graph      *graph.ContentGraph
	publicIDs  []graph.PublicID
	byAssetID  map[string]string
	bundleInfo map[string]graph.BundleInfo
}

// New creates a bundle graph from a loaded snapshot.
func New(snap *graph.Snapshot) *BundleGraph {
	byAssetID := make(map[string]string, len(snap.PublicIDs))
	for _, p := range snap.PublicIDs {
		byAssetID[p.AssetID] = p.PublicID
	}

	info := snap.BundleInfo
	if info == nil {
		info = make(map[string]graph.BundleInfo)
	}

	return &BundleGraph{
		graph:      snap.BundleGraph,
		publicIDs:  snap.PublicIDs,
		byAssetID:  byAssetID,
		bundleInfo: info,
	}
}

// Graph returns the underlying content graph.
func (bg *BundleGraph) Graph() *graph.ContentGraph {
	return bg.graph
}

// Bundles returns every bundle in graph order.
func (bg *BundleGraph) Bundles() []*graph.Bundle {
	var bundles []*graph.Bundle
	for _, n := range bg.graph.All() {
		if b, ok := n.(*graph.BundleNode); ok {
			bundles = append(bundles, &b.Value)
		}
	}
	return bundles
}

// Bundle returns the bundle with the given id.
func (bg *BundleGraph) Bundle(id string) (*graph.Bundle, bool) {
	n, ok := bg.graph.GetNodeByContentKey(id)
	if !ok {
		return nil, false
	}
	b, ok := n.(*graph.BundleNode)
	if !ok {
		return nil, false
	}
	return &b.Value, true
}

// BundleFilePath returns the output path the bundle was written to.
func (bg *BundleGraph) BundleFilePath(id string) (string, bool) {
	info, ok := bg.bundleInfo[id]
	if !ok {
		return "", false
	}
	return info.FilePath, true
}

// AssetByID returns the asset with the given canonical id.
func (bg *BundleGraph) AssetByID(id string) (*graph.Asset, error) {
	n, ok := bg.graph.GetNodeByContentKey(id)
	if !ok {
		return nil, fmt.Errorf("asset %s: %w", id, ErrNotAsset)
	}
	a, ok := n.(*graph.AssetNode)
	if !ok {
		return nil, fmt.Errorf("%s is a %s: %w", id, n.Type(), ErrNotAsset)
	}
	return &a.Value, nil
}

// AssetPublicID returns the public id of an asset.
func (bg *BundleGraph) AssetPublicID(asset *graph.Asset) (string, error) {
	publicID, ok := bg.byAssetID[asset.ID]
	if !ok {
		return "", fmt.Errorf("asset %s: %w", asset.ID, ErrNoPublicID)
	}
	return publicID, nil
}

// AssetIDForPublicID scans the public id table for an exact match.
func (bg *BundleGraph) AssetIDForPublicID(publicID string) (string, bool) {
	for _, p := range bg.publicIDs {
		if p.PublicID == publicID {
			return p.AssetID, true
		}
	}
	return "", false
}

// BundlesWithAsset returns the bundles that contain the asset.
func (bg *BundleGraph) BundlesWithAsset(asset *graph.Asset) []*graph.Bundle {
	return bg.containers(asset.ID)
}

// BundlesWithDependency returns the bundles that contain the dependency.
func (bg *BundleGraph) BundlesWithDependency(dep *graph.Dependency) []*graph.Bundle {
	return bg.containers(dep.ID)
}

func (bg *BundleGraph) containers(key string) []*graph.Bundle {
	id, ok := bg.graph.GetNodeIDByContentKey(key)
	if !ok {
		return nil
	}

	var bundles []*graph.Bundle
	for _, parent := range bg.graph.GetNodeIDsConnectedTo(id, graph.EdgeContains) {
		if b := bg.bundleAt(parent); b != nil {
			bundles = append(bundles, b)
		}
	}
	return bundles
}

func (bg *BundleGraph) bundleAt(id graph.NodeID) *graph.Bundle {
	n, _ := bg.graph.GetNode(id)
	if b, ok := n.(*graph.BundleNode); ok {
		return &b.Value
	}
	return nil
}

// ReferencingBundles returns the bundles that load the given bundle,
// directly or through other bundles, along references edges.
func (bg *BundleGraph) ReferencingBundles(bundle *graph.Bundle) []*graph.Bundle {
	start, ok := bg.graph.GetNodeIDByContentKey(bundle.ID)
	if !ok {
		return nil
	}

	var bundles []*graph.Bundle
	bg.graph.TraverseAncestors(start, graph.EdgeReferences, func(id graph.NodeID) bool {
		if b := bg.bundleAt(id); b != nil && b.ID != bundle.ID {
			bundles = append(bundles, b)
		}
		return true
	})
	return bundles
}

// IncomingDependencies returns the dependencies pointing at the asset, either
// through a plain edge or a references edge.
func (bg *BundleGraph) IncomingDependencies(asset *graph.Asset) []*graph.Dependency {
	id, ok := bg.graph.GetNodeIDByContentKey(asset.ID)
	if !ok {
		return nil
	}

	var deps []*graph.Dependency
	for _, parent := range bg.graph.GetNodeIDsConnectedTo(id, graph.EdgeDefault, graph.EdgeReferences) {
		n, _ := bg.graph.GetNode(parent)
		if d, ok := n.(*graph.DependencyNode); ok {
			deps = append(deps, &d.Value)
		}
	}
	return deps
}

// ResolvedAsset returns the asset the dependency resolved to. When it
// resolved to several and inBundle is given, the one inBundle contains
// wins. It returns nil for dependencies that resolved to nothing (excluded
// or external).
func (bg *BundleGraph) ResolvedAsset(dep *graph.Dependency, inBundle *graph.Bundle) *graph.Asset {
	id, ok := bg.graph.GetNodeIDByContentKey(dep.ID)
	if !ok {
		return nil
	}

	type resolved struct {
		id    graph.NodeID
		asset *graph.Asset
	}
	var assets []resolved
	for _, child := range bg.graph.GetNodeIDsConnectedFrom(id) {
		n, _ := bg.graph.GetNode(child)
		switch n := n.(type) {
		case *graph.AssetNode:
			assets = append(assets, resolved{child, &n.Value})
		case *graph.RootNode, *graph.DependencyNode, *graph.AssetGroupNode,
			*graph.BundleNode, *graph.BundleGroupNode,
			*graph.EntrySpecifierNode, *graph.EntryFileNode:
		}
	}
	if len(assets) == 0 {
		return nil
	}

	if inBundle != nil && len(assets) > 1 {
		if bundleID, ok := bg.graph.GetNodeIDByContentKey(inBundle.ID); ok {
			for _, a := range assets {
				if bg.graph.HasEdge(bundleID, a.id, graph.EdgeContains) {
					return a.asset
				}
			}
		}
	}
	return assets[0].asset
}

// AssetWithDependency returns the asset that declared the dependency, or nil
// for entry dependencies.
func (bg *BundleGraph) AssetWithDependency(dep *graph.Dependency) *graph.Asset {
	id, ok := bg.graph.GetNodeIDByContentKey(dep.ID)
	if !ok {
		return nil
	}

	for _, parent := range bg.graph.GetNodeIDsConnectedTo(id) {
		n, _ := bg.graph.GetNode(parent)
		if a, ok := n.(*graph.AssetNode); ok {
			return &a.Value
		}
	}
	return nil
}
