package query

import (
	"fmt"
	"io"
	"strings"

	"github.com/imbrian/parcel/internal/graph"
	"github.com/imbrian/parcel/internal/projectpath"
)

// AssetGraphCounts tallies asset graph nodes by type.
type AssetGraphCounts struct {
	Asset      int
	Dependency int
	AssetGroup int
}

// BundleGraphCounts tallies bundle graph nodes by type, with assets split
// into vendored and source.
type BundleGraphCounts struct {
	Dependency    int
	Bundle        int
	Asset         int
	AssetVendored int
	AssetSource   int
}

// Stats describes the composition of both graphs.
type Stats struct {
	AssetGraph  AssetGraphCounts
	BundleGraph BundleGraphCounts

	// Modules counts bundle graph assets per configured module, in rule
	// order. It is empty when no rules are configured.
	Modules []ModuleCount
}

// ModuleCount is the number of bundle graph assets a module rule matches.
type ModuleCount struct {
	Name  string
	Count int
}

// ComputeStats counts node types in one pass over each graph.
func (s *Session) ComputeStats() Stats {
	var st Stats

	for _, n := range s.assets.All() {
		switch n.(type) {
		case *graph.AssetNode:
			st.AssetGraph.Asset++
		case *graph.DependencyNode:
			st.AssetGraph.Dependency++
		case *graph.AssetGroupNode:
			st.AssetGraph.AssetGroup++
		case *graph.RootNode, *graph.BundleNode, *graph.BundleGroupNode,
			*graph.EntrySpecifierNode, *graph.EntryFileNode:
		}
	}

	var paths []string
	for _, n := range s.bundles.Graph().All() {
		switch n := n.(type) {
		case *graph.DependencyNode:
			st.BundleGraph.Dependency++
		case *graph.BundleNode:
			st.BundleGraph.Bundle++
		case *graph.AssetNode:
			st.BundleGraph.Asset++
			p := projectpath.Normalize(n.Value.FilePath)
			if strings.Contains(p, s.opts.VendorMarker) {
				st.BundleGraph.AssetVendored++
			} else {
				st.BundleGraph.AssetSource++
			}
			paths = append(paths, p)
		case *graph.RootNode, *graph.AssetGroupNode, *graph.BundleGroupNode,
			*graph.EntrySpecifierNode, *graph.EntryFileNode:
		}
	}

	if !s.opts.Modules.Empty() {
		counts := s.opts.Modules.Count(paths)
		for _, mod := range s.opts.Modules.Modules() {
			st.Modules = append(st.Modules, ModuleCount{Name: mod.Name, Count: counts[mod.Name]})
		}
	}
	return st
}

// Print writes the counts in a fixed order.
func (st Stats) Print(w io.Writer) error {
	var b strings.Builder

	b.WriteString("# Asset Graph Node Counts\n")
	fmt.Fprintf(&b, "asset %d\n", st.AssetGraph.Asset)
	fmt.Fprintf(&b, "dependency %d\n", st.AssetGraph.Dependency)
	fmt.Fprintf(&b, "asset_group %d\n", st.AssetGraph.AssetGroup)
	b.WriteString("\n")

	b.WriteString("# Bundle Graph Node Counts\n")
	fmt.Fprintf(&b, "dependency %d\n", st.BundleGraph.Dependency)
	fmt.Fprintf(&b, "bundle %d\n", st.BundleGraph.Bundle)
	fmt.Fprintf(&b, "asset %d\n", st.BundleGraph.Asset)
	fmt.Fprintf(&b, "asset_vendored %d\n", st.BundleGraph.AssetVendored)
	fmt.Fprintf(&b, "asset_source %d\n", st.BundleGraph.AssetSource)

	if len(st.Modules) > 0 {
		b.WriteString("\n# Bundle Graph Modules\n")
		for _, m := range st.Modules {
			fmt.Fprintf(&b, "%s %d\n", m.Name, m.Count)
		}
	}

	_, err := io.WriteString(w, b.String())
	return err
}
