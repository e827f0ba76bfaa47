package query

import (
	"fmt"
	"io"
	"strings"

	"github.com/imbrian/parcel/internal/graph"
	"github.com/imbrian/parcel/internal/projectpath"
)

// Annotations used by the path tree.
const (
	LazyMarker    = "<"
	RevisitSuffix = "(revisiting)"
)

// PathTree is the reverse reachability tree built by FindEntries. The root
// stands for the start node and is never printed; every other node is an
// asset on the way from the start node up to the entries.
type PathTree struct {
	Node     graph.NodeID
	Label    string
	Suffix   string
	Children []*PathTree
}

func (p *PathTree) add(id graph.NodeID, label, suffix string) *PathTree {
	child := &PathTree{Node: id, Label: label, Suffix: suffix}
	p.Children = append(p.Children, child)
	return child
}

// walkFrame is one pending step of the reverse walk: the node to visit, the
// tree node new lines go under and whether a lazy dependency was crossed
// since the last asset.
type walkFrame struct {
	id     graph.NodeID
	parent *PathTree
	lazy   bool
}

// FindEntries resolves locator to an asset in g and builds the tree of
// paths from it back to the entries.
func (s *Session) FindEntries(g *graph.ContentGraph, locator string) (*PathTree, error) {
	assetID, err := s.ResolveAsset(locator)
	if err != nil {
		return nil, err
	}

	start, ok := g.GetNodeIDByContentKey(assetID)
	if !ok {
		return nil, fmt.Errorf("asset %s: %w", assetID, ErrNotFound)
	}
	return ReversePaths(g, start), nil
}

// ReversePaths walks predecessors of start depth-first. Each asset reached
// becomes a tree node under the last asset on its branch. A node reached a
// second time is not expanded again; if it is an asset it is added as a
// leaf marked RevisitSuffix. An asset reached through a lazy dependency is
// labeled LazyMarker.
func ReversePaths(g *graph.ContentGraph, start graph.NodeID) *PathTree {
	root := &PathTree{Node: start}
	seen := make(map[graph.NodeID]bool)

	stack := []walkFrame{{id: start, parent: root}}
	for len(stack) > 0 {
		f := stack[len(stack)-1]
		stack = stack[:len(stack)-1]

		revisiting := seen[f.id]
		parent, lazy := f.parent, f.lazy

		n, ok := g.GetNode(f.id)
		if ok && f.id != start {
			switch n := n.(type) {
			case *graph.AssetNode:
				label, suffix := "", ""
				if lazy {
					label = LazyMarker
				}
				if revisiting {
					suffix = RevisitSuffix
				}
				parent = parent.add(f.id, label, suffix)
				lazy = false
			case *graph.DependencyNode:
				if n.Value.IsLazy() {
					lazy = true
				}
			case *graph.RootNode, *graph.AssetGroupNode, *graph.BundleNode, *graph.BundleGroupNode,
				*graph.EntrySpecifierNode, *graph.EntryFileNode:
			}
		}

		if revisiting {
			continue
		}
		seen[f.id] = true

		// Pushed in reverse so predecessors are visited in edge order.
		preds := g.GetNodeIDsConnectedTo(f.id)
		for i := len(preds) - 1; i >= 0; i-- {
			stack = append(stack, walkFrame{id: preds[i], parent: parent, lazy: lazy})
		}
	}
	return root
}

// Lines renders the tree, one line per node below the root, two spaces of
// indentation per level.
func (p *PathTree) Lines(render func(graph.NodeID) string) []string {
	var lines []string
	var walk func(t *PathTree, indent string)
	walk = func(t *PathTree, indent string) {
		for _, c := range t.Children {
			line := indent
			if c.Label != "" {
				line += c.Label + " "
			}
			line += render(c.Node)
			if c.Suffix != "" {
				line += " " + c.Suffix
			}
			lines = append(lines, strings.TrimRight(line, " "))
			walk(c, indent+"  ")
		}
	}
	walk(p, "")
	return lines
}

// Print writes Lines to w.
func (p *PathTree) Print(w io.Writer, render func(graph.NodeID) string) error {
	for _, line := range p.Lines(render) {
		if _, err := fmt.Fprintln(w, line); err != nil {
			return err
		}
	}
	return nil
}

// AssetPath renders asset nodes of g by their normalized path, the renderer
// used for path trees.
func AssetPath(g *graph.ContentGraph) func(graph.NodeID) string {
	return func(id graph.NodeID) string {
		n, _ := g.GetNode(id)
		if a, ok := n.(*graph.AssetNode); ok {
			return projectpath.Normalize(a.Value.FilePath)
		}
		return fmt.Sprint(id)
	}
}
