// Package graph provides the read-only build graph model: the node sum type,
// typed edges and the content-addressed graph container both the asset graph
// and the bundle graph are loaded into.
package graph

import "slices"

// NodeType is the tag of a node variant.
type NodeType string

const (
	TypeRoot           NodeType = "root"
	TypeAsset          NodeType = "asset"
	TypeDependency     NodeType = "dependency"
	TypeAssetGroup     NodeType = "asset_group"
	TypeBundle         NodeType = "bundle"
	TypeBundleGroup    NodeType = "bundle_group"
	TypeEntrySpecifier NodeType = "entry_specifier"
	TypeEntryFile      NodeType = "entry_file"
)

// EdgeType represents the type of relationship between nodes.
type EdgeType string

const (
	EdgeDefault       EdgeType = "default"
	EdgeContains      EdgeType = "contains"       // Bundle -> Asset/Dependency it packages
	EdgeBundle        EdgeType = "bundle"         // BundleGroup -> Bundle
	EdgeReferences    EdgeType = "references"     // Bundle -> Bundle it loads, Dependency -> Bundle
	EdgeInternalAsync EdgeType = "internal_async" // Bundle -> Dependency resolved inside the bundle
	EdgeConditional   EdgeType = "conditional"    // Bundle -> conditional Bundle
)

// AllEdgeTypes lists every edge type, for traversals that ignore edge types.
var AllEdgeTypes = []EdgeType{
	EdgeDefault,
	EdgeContains,
	EdgeBundle,
	EdgeReferences,
	EdgeInternalAsync,
	EdgeConditional,
}

// Priority is the loading priority of a dependency.
type Priority string

const (
	PrioritySync        Priority = "sync"
	PriorityParallel    Priority = "parallel"
	PriorityLazy        Priority = "lazy"
	PriorityConditional Priority = "conditional"
)

// SourceLocation points into a source file.
type SourceLocation struct {
	FilePath string   `json:"filePath"`
	Start    Position `json:"start"`
	End      Position `json:"end"`
}

// Position is a 1-based line/column pair.
type Position struct {
	Line   int `json:"line"`
	Column int `json:"column"`
}

// Symbol is one entry of an asset's or dependency's symbol table.
type Symbol struct {
	Exported string          `json:"exported"`
	Local    string          `json:"local"`
	Loc      *SourceLocation `json:"loc,omitempty"`
}

// Asset is the payload of an asset node.
type Asset struct {
	ID       string         `json:"id"`
	FilePath string         `json:"filePath"`
	Type     string         `json:"type"`
	IsSource bool           `json:"isSource"`
	Meta     map[string]any `json:"meta,omitempty"`
	Symbols  []Symbol       `json:"symbols,omitempty"`
}

// BuildID returns the identifier the transformer assigned to the asset at
// build time (meta.id). It can differ from ID once later stages rehash.
func (a *Asset) BuildID() string {
	if id, ok := a.Meta["id"].(string); ok {
		return id
	}
	return ""
}

// Dependency is the payload of a dependency node.
type Dependency struct {
	ID            string   `json:"id"`
	Specifier     string   `json:"specifier"`
	SourcePath    string   `json:"sourcePath,omitempty"`
	SourceAssetID string   `json:"sourceAssetId,omitempty"`
	Priority      Priority `json:"priority"`
	IsEntry       bool     `json:"isEntry,omitempty"`
	IsOptional    bool     `json:"isOptional,omitempty"`
	Symbols       []Symbol `json:"symbols,omitempty"`
}

// IsLazy reports whether the dependency is loaded asynchronously.
func (d *Dependency) IsLazy() bool {
	return d.Priority == PriorityLazy
}

// AssetGroup is the payload of an asset group node.
type AssetGroup struct {
	FilePath string `json:"filePath"`
	Code     string `json:"code,omitempty"`
	Query    string `json:"query,omitempty"`
}

// Bundle is the payload of a bundle node.
type Bundle struct {
	ID              string   `json:"id"`
	PublicID        string   `json:"publicId,omitempty"`
	Type            string   `json:"type"`
	Name            string   `json:"name,omitempty"`
	MainEntryID     string   `json:"mainEntryId,omitempty"`
	EntryAssetIDs   []string `json:"entryAssetIds,omitempty"`
	IsSplittable    bool     `json:"isSplittable,omitempty"`
	NeedsStableName bool     `json:"needsStableName,omitempty"`
}

// HasEntryAsset reports whether assetID is one of the bundle's entry assets.
func (b *Bundle) HasEntryAsset(assetID string) bool {
	return slices.Contains(b.EntryAssetIDs, assetID)
}

// BundleGroup is the payload of a bundle group node.
type BundleGroup struct {
	Target     string `json:"target"`
	EntryAsset string `json:"entryAssetId"`
}

// Entry is the payload of an entry file node.
type Entry struct {
	FilePath    string `json:"filePath"`
	PackagePath string `json:"packagePath,omitempty"`
}

// BundleInfo describes the file a bundle was written to.
type BundleInfo struct {
	FilePath string `json:"filePath"`
	Hash     string `json:"hash,omitempty"`
	Size     int64  `json:"size,omitempty"`
}
