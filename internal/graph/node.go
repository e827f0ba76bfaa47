package graph

import (
	"fmt"
	"strings"
)

// Node is a graph node. The set of variants is closed: only the types in
// this file implement it, and every consumer switches over all of them.
//
//sumtype:decl
type Node interface {
	// ContentKey is the node's key, unique within its graph.
	ContentKey() string
	// Type is the variant tag.
	Type() NodeType

	sealed()
}

// RootNode is the single root of a graph.
type RootNode struct {
	Key string
}

// AssetNode wraps an asset.
type AssetNode struct {
	Value Asset
}

// DependencyNode wraps a dependency. Excluded marks dependencies the
// bundler dropped (for example through symbol propagation).
type DependencyNode struct {
	Value    Dependency
	Excluded bool
}

// AssetGroupNode wraps an asset group, the node between a dependency and
// the assets its resolution produced.
type AssetGroupNode struct {
	Key   string
	Value AssetGroup
}

// BundleNode wraps a bundle.
type BundleNode struct {
	Value Bundle
}

// BundleGroupNode wraps a bundle group.
type BundleGroupNode struct {
	Key   string
	Value BundleGroup
}

// EntrySpecifierNode is an entry as given on the command line.
type EntrySpecifierNode struct {
	Key       string
	Specifier string
}

// EntryFileNode is an entry after resolution to a file.
type EntryFileNode struct {
	Key   string
	Value Entry
}

func (n *RootNode) ContentKey() string           { return n.Key }
func (n *AssetNode) ContentKey() string          { return n.Value.ID }
func (n *DependencyNode) ContentKey() string     { return n.Value.ID }
func (n *AssetGroupNode) ContentKey() string     { return n.Key }
func (n *BundleNode) ContentKey() string         { return n.Value.ID }
func (n *BundleGroupNode) ContentKey() string    { return n.Key }
func (n *EntrySpecifierNode) ContentKey() string { return n.Key }
func (n *EntryFileNode) ContentKey() string      { return n.Key }

func (*RootNode) Type() NodeType           { return TypeRoot }
func (*AssetNode) Type() NodeType          { return TypeAsset }
func (*DependencyNode) Type() NodeType     { return TypeDependency }
func (*AssetGroupNode) Type() NodeType     { return TypeAssetGroup }
func (*BundleNode) Type() NodeType         { return TypeBundle }
func (*BundleGroupNode) Type() NodeType    { return TypeBundleGroup }
func (*EntrySpecifierNode) Type() NodeType { return TypeEntrySpecifier }
func (*EntryFileNode) Type() NodeType      { return TypeEntryFile }

func (*RootNode) sealed()           {}
func (*AssetNode) sealed()          {}
func (*DependencyNode) sealed()     {}
func (*AssetGroupNode) sealed()     {}
func (*BundleNode) sealed()         {}
func (*BundleGroupNode) sealed()    {}
func (*EntrySpecifierNode) sealed() {}
func (*EntryFileNode) sealed()      {}

// Describe renders a node as a single human-readable line.
func Describe(n Node) string {
	switch n := n.(type) {
	case *RootNode:
		return fmt.Sprintf("root %s", n.Key)
	case *AssetNode:
		return fmt.Sprintf("asset %s %s (%s)", n.Value.ID, n.Value.FilePath, n.Value.Type)
	case *DependencyNode:
		return describeDependency(n)
	case *AssetGroupNode:
		return fmt.Sprintf("asset_group %s %s", n.Key, n.Value.FilePath)
	case *BundleNode:
		s := fmt.Sprintf("bundle %s (%s)", n.Value.ID, n.Value.Type)
		if n.Value.MainEntryID != "" {
			s += " main: " + n.Value.MainEntryID
		}
		return s
	case *BundleGroupNode:
		return fmt.Sprintf("bundle_group %s target=%s entry=%s", n.Key, n.Value.Target, n.Value.EntryAsset)
	case *EntrySpecifierNode:
		return fmt.Sprintf("entry_specifier %s", n.Specifier)
	case *EntryFileNode:
		return fmt.Sprintf("entry_file %s", n.Value.FilePath)
	default:
		return fmt.Sprintf("unknown node %T", n)
	}
}

func describeDependency(n *DependencyNode) string {
	var b strings.Builder
	fmt.Fprintf(&b, "dependency %s %s -> %s [%s]", n.Value.ID, n.Value.SourcePath, n.Value.Specifier, n.Value.Priority)
	if len(n.Value.Symbols) > 0 {
		names := make([]string, len(n.Value.Symbols))
		for i, sym := range n.Value.Symbols {
			names[i] = sym.Exported
		}
		fmt.Fprintf(&b, " (%s)", strings.Join(names, ","))
	}
	if n.Excluded {
		b.WriteString(" - excluded")
	}
	return b.String()
}
