package query

import (
	"fmt"
	"io"
	"strings"

	"github.com/imbrian/parcel/internal/graph"
)

// InclusionReport explains why an asset is part of a bundle. Each field is
// computed on its own; several reasons can hold at once.
type InclusionReport struct {
	Bundle *graph.Bundle
	Asset  *graph.Asset

	// IsMainEntry reports whether the asset is the bundle's main entry.
	IsMainEntry bool
	// IsEntry reports whether the asset is one of the bundle's entries.
	IsEntry bool
	// ContainedDependencies are the incoming dependencies of the asset that
	// the bundle itself contains.
	ContainedDependencies []*graph.DependencyNode
	// SharedDependencies are the incoming dependencies of the asset that a
	// bundle referencing this one contains: the asset is here because
	// those bundles share this bundle.
	SharedDependencies []*graph.DependencyNode
}

// ExplainInclusion reports why the asset named by assetLocator is in the
// bundle named by bundleLocator. It fails with ErrPrecondition when the
// bundle does not contain the asset.
func (s *Session) ExplainInclusion(bundleLocator, assetLocator string) (*InclusionReport, error) {
	g := s.bundles.Graph()

	bundle, err := s.bundle(bundleLocator)
	if err != nil {
		return nil, err
	}
	bundleID := bundle.ID

	assetID, err := s.ResolveAsset(assetLocator)
	if err != nil {
		return nil, err
	}
	asset, err := node[*graph.AssetNode](g, assetID, graph.TypeAsset)
	if err != nil {
		return nil, err
	}

	bundleNode, _ := g.GetNodeIDByContentKey(bundleID)
	assetNode, _ := g.GetNodeIDByContentKey(assetID)
	if !g.HasEdge(bundleNode, assetNode, graph.EdgeContains) {
		return nil, fmt.Errorf("asset %s is not part of bundle %s: %w", assetID, bundleID, ErrPrecondition)
	}

	r := &InclusionReport{
		Bundle:      bundle,
		Asset:       &asset.Value,
		IsMainEntry: bundle.MainEntryID == assetID,
		IsEntry:     bundle.HasEntryAsset(assetID),
	}

	var referencing []graph.NodeID
	for _, b := range s.bundles.ReferencingBundles(bundle) {
		if id, ok := g.GetNodeIDByContentKey(b.ID); ok {
			referencing = append(referencing, id)
		}
	}

	for _, incoming := range g.GetNodeIDsConnectedTo(assetNode) {
		n, _ := g.GetNode(incoming)
		dep, ok := n.(*graph.DependencyNode)
		if !ok {
			continue
		}
		if g.HasEdge(bundleNode, incoming, graph.EdgeContains) {
			r.ContainedDependencies = append(r.ContainedDependencies, dep)
		}
		for _, ref := range referencing {
			if g.HasEdge(ref, incoming, graph.EdgeContains) {
				r.SharedDependencies = append(r.SharedDependencies, dep)
				break
			}
		}
	}
	return r, nil
}

// Print writes the report as four headed sections.
func (r *InclusionReport) Print(w io.Writer) error {
	var b strings.Builder
	fmt.Fprintf(&b, "# Asset is main entry of bundle: %t\n", r.IsMainEntry)
	fmt.Fprintf(&b, "# Asset is an entry of bundle: %t\n", r.IsEntry)
	b.WriteString("# Incoming dependencies contained in the bundle:\n")
	for _, d := range r.ContainedDependencies {
		b.WriteString(graph.Describe(d) + "\n")
	}
	b.WriteString("# Incoming dependencies contained in referencing bundles (using this bundle as a shared bundle):\n")
	for _, d := range r.SharedDependencies {
		b.WriteString(graph.Describe(d) + "\n")
	}

	_, err := io.WriteString(w, b.String())
	return err
}
