package query

import (
	"fmt"
	"strings"

	"github.com/bmatcuk/doublestar/v4"

	"github.com/imbrian/parcel/internal/graph"
	"github.com/imbrian/parcel/internal/projectpath"
)

// AssetDetails is an asset as found by GetAsset.
type AssetDetails struct {
	Asset *graph.Asset
	// PublicID is empty when the asset is not in the bundle graph.
	PublicID string
	// InBundleGraph reports which graph the asset came from.
	InBundleGraph bool
}

// GetAsset resolves a locator and returns the asset from the bundle graph,
// or from the asset graph when the bundle graph no longer has it.
func (s *Session) GetAsset(locator string) (*AssetDetails, error) {
	id, err := s.ResolveAsset(locator)
	if err != nil {
		return nil, err
	}

	if a, err := s.bundles.AssetByID(id); err == nil {
		publicID, _ := s.bundles.AssetPublicID(a)
		return &AssetDetails{Asset: a, PublicID: publicID, InBundleGraph: true}, nil
	}

	n, err := node[*graph.AssetNode](s.assets.ContentGraph, id, graph.TypeAsset)
	if err != nil {
		return nil, err
	}
	return &AssetDetails{Asset: &n.Value}, nil
}

// FindAsset returns the first asset whose path matches pattern, rendered by
// DescribeAsset.
func (s *Session) FindAsset(pattern string) (string, error) {
	a, err := s.findAsset(pattern)
	if err != nil {
		return "", err
	}
	return s.DescribeAsset(a), nil
}

// ListAssets returns the normalized paths of asset graph assets matching a
// doublestar glob, in graph order.
func (s *Session) ListAssets(glob string) ([]string, error) {
	if !doublestar.ValidatePattern(glob) {
		return nil, fmt.Errorf("glob %q: %w", glob, ErrMalformedInput)
	}

	var paths []string
	for _, a := range s.assets.Assets() {
		p := projectpath.Normalize(a.FilePath)
		if ok, _ := doublestar.Match(glob, p); ok {
			paths = append(paths, p)
		}
	}
	return paths, nil
}

// DescribeNode describes the node with the given content key.
func (s *Session) DescribeNode(name GraphName, key string) (string, error) {
	n, ok := s.Graph(name).GetNodeByContentKey(key)
	if !ok {
		return "", fmt.Errorf("node %s in %s: %w", key, name, ErrNotFound)
	}
	return graph.Describe(n), nil
}

// bundleAsset resolves a locator to an asset of the bundle graph.
func (s *Session) bundleAsset(locator string) (*graph.Asset, error) {
	id, err := s.ResolveAsset(locator)
	if err != nil {
		return nil, err
	}
	n, err := node[*graph.AssetNode](s.bundles.Graph(), id, graph.TypeAsset)
	if err != nil {
		return nil, err
	}
	return &n.Value, nil
}

// bundle resolves a locator to a bundle.
func (s *Session) bundle(locator string) (*graph.Bundle, error) {
	id, err := s.ResolveBundle(locator)
	if err != nil {
		return nil, err
	}
	b, ok := s.bundles.Bundle(id)
	if !ok {
		return nil, fmt.Errorf("bundle %s: %w", id, ErrNotFound)
	}
	return b, nil
}

func (s *Session) dependency(key string) (*graph.Dependency, error) {
	n, err := node[*graph.DependencyNode](s.bundles.Graph(), key, graph.TypeDependency)
	if err != nil {
		return nil, err
	}
	return &n.Value, nil
}

// BundlesWithAsset returns the bundles containing the located asset.
func (s *Session) BundlesWithAsset(locator string) ([]*graph.Bundle, error) {
	a, err := s.bundleAsset(locator)
	if err != nil {
		return nil, err
	}
	return s.bundles.BundlesWithAsset(a), nil
}

// BundlesWithDependency returns the bundles containing the dependency.
func (s *Session) BundlesWithDependency(key string) ([]*graph.Bundle, error) {
	d, err := s.dependency(key)
	if err != nil {
		return nil, err
	}
	return s.bundles.BundlesWithDependency(d), nil
}

// IncomingDependencies returns the dependencies resolving to the located
// asset in the named graph.
func (s *Session) IncomingDependencies(name GraphName, locator string) ([]*graph.Dependency, error) {
	if name == AssetGraph {
		id, err := s.ResolveAsset(locator)
		if err != nil {
			return nil, err
		}
		n, err := node[*graph.AssetNode](s.assets.ContentGraph, id, graph.TypeAsset)
		if err != nil {
			return nil, err
		}
		return s.assets.GetIncomingDependencies(&n.Value), nil
	}

	a, err := s.bundleAsset(locator)
	if err != nil {
		return nil, err
	}
	return s.bundles.IncomingDependencies(a), nil
}

// ResolvedAsset returns the asset a dependency resolved to.
func (s *Session) ResolvedAsset(key string) (*graph.Asset, error) {
	d, err := s.dependency(key)
	if err != nil {
		return nil, err
	}
	a := s.bundles.ResolvedAsset(d, nil)
	if a == nil {
		return nil, fmt.Errorf("dependency %s resolved to no asset: %w", key, ErrNotFound)
	}
	return a, nil
}

// AssetWithDependency returns the asset that declares a dependency.
func (s *Session) AssetWithDependency(key string) (*graph.Asset, error) {
	d, err := s.dependency(key)
	if err != nil {
		return nil, err
	}
	a := s.bundles.AssetWithDependency(d)
	if a == nil {
		return nil, fmt.Errorf("dependency %s has no parent asset: %w", key, ErrNotFound)
	}
	return a, nil
}

// TraverseBundle returns the assets and dependencies of the located bundle
// in traversal order.
func (s *Session) TraverseBundle(locator string) ([]graph.Node, error) {
	b, err := s.bundle(locator)
	if err != nil {
		return nil, err
	}
	var nodes []graph.Node
	s.bundles.TraverseBundle(b, func(n graph.Node) {
		nodes = append(nodes, n)
	})
	return nodes, nil
}

// TraverseAssets returns the assets of the located bundle in traversal
// order.
func (s *Session) TraverseAssets(locator string) ([]*graph.Asset, error) {
	b, err := s.bundle(locator)
	if err != nil {
		return nil, err
	}
	var assets []*graph.Asset
	s.bundles.TraverseAssets(b, func(a *graph.Asset) {
		assets = append(assets, a)
	})
	return assets, nil
}

// ReferencingBundles returns the bundles referencing the located bundle.
func (s *Session) ReferencingBundles(locator string) ([]*graph.Bundle, error) {
	b, err := s.bundle(locator)
	if err != nil {
		return nil, err
	}
	return s.bundles.ReferencingBundles(b), nil
}

// FormatBundle renders a bundle as "<id> <path> (main: <id>)", leaving out
// the main entry when there is none.
func (s *Session) FormatBundle(b *graph.Bundle) string {
	path, _ := s.bundles.BundleFilePath(b.ID)
	line := b.ID + " " + projectpath.Normalize(path)
	if b.MainEntryID != "" {
		line += " (main: " + b.MainEntryID + ")"
	}
	return strings.TrimRight(line, " ")
}

// FormatBundleNode renders a node visited by TraverseBundle: assets as
// "<id> <path>", dependencies as "<id> <source> -> <specifier>" followed by
// their symbols and exclusion.
func FormatBundleNode(n graph.Node) string {
	switch n := n.(type) {
	case *graph.AssetNode:
		return n.Value.ID + " " + projectpath.Normalize(n.Value.FilePath)
	case *graph.DependencyNode:
		line := fmt.Sprintf("%s %s -> %s", n.Value.ID, n.Value.SourcePath, n.Value.Specifier)
		if len(n.Value.Symbols) > 0 {
			names := make([]string, len(n.Value.Symbols))
			for i, sym := range n.Value.Symbols {
				names[i] = sym.Exported
			}
			line += " (" + strings.Join(names, ",") + ")"
		}
		if n.Excluded {
			line += " - excluded"
		}
		return line
	default:
		return graph.Describe(n)
	}
}
