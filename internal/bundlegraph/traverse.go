package bundlegraph

import "github.com/imbrian/parcel/internal/graph"

// TraverseBundle walks the bundle's contents depth-first along default edges,
// starting from the bundle node. Assets and dependencies the bundle contains
// are passed to visit; the walk does not descend below anything the bundle
// does not contain, so referenced bundles and their contents are left out.
func (bg *BundleGraph) TraverseBundle(bundle *graph.Bundle, visit func(graph.Node)) {
	start, ok := bg.graph.GetNodeIDByContentKey(bundle.ID)
	if !ok {
		return
	}

	bg.graph.TraverseDescendants(start, nil, func(id graph.NodeID) bool {
		if id == start {
			return true
		}
		if !bg.graph.HasEdge(start, id, graph.EdgeContains) {
			return false
		}

		n, _ := bg.graph.GetNode(id)
		switch n.(type) {
		case *graph.AssetNode, *graph.DependencyNode:
			visit(n)
			return true
		default:
			return false
		}
	})
}

// TraverseAssets is TraverseBundle restricted to assets.
func (bg *BundleGraph) TraverseAssets(bundle *graph.Bundle, visit func(*graph.Asset)) {
	bg.TraverseBundle(bundle, func(n graph.Node) {
		if a, ok := n.(*graph.AssetNode); ok {
			visit(&a.Value)
		}
	})
}
