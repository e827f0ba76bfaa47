package graph

// AssetGraph is the asset-dependency graph: root, entries, dependencies,
// asset groups and assets joined by EdgeDefault edges.
type AssetGraph struct {
	*ContentGraph
}

// NewAssetGraph wraps g as an asset graph.
func NewAssetGraph(g *ContentGraph) *AssetGraph {
	return &AssetGraph{ContentGraph: g}
}

// Assets returns every asset in insertion order.
func (g *AssetGraph) Assets() []*Asset {
	var assets []*Asset
	for _, n := range g.All() {
		if a, ok := n.(*AssetNode); ok {
			assets = append(assets, &a.Value)
		}
	}
	return assets
}

// GetIncomingDependencies returns the dependencies that resolved to the
// asset. They usually reach it through an asset group, but inline
// dependencies can point at the asset directly.
func (g *AssetGraph) GetIncomingDependencies(asset *Asset) []*Dependency {
	id, ok := g.GetNodeIDByContentKey(asset.ID)
	if !ok {
		return nil
	}

	var deps []*Dependency
	for _, parentID := range g.GetNodeIDsConnectedTo(id) {
		parent, _ := g.GetNode(parentID)
		if dep, ok := parent.(*DependencyNode); ok {
			deps = append(deps, &dep.Value)
			continue
		}
		for _, grandparentID := range g.GetNodeIDsConnectedTo(parentID) {
			grandparent, _ := g.GetNode(grandparentID)
			if dep, ok := grandparent.(*DependencyNode); ok {
				deps = append(deps, &dep.Value)
			}
		}
	}
	return deps
}
