package query

import (
	"bytes"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/imbrian/parcel/internal/graph"
)

func depKeys(deps []*graph.DependencyNode) []string {
	var keys []string
	for _, d := range deps {
		keys = append(keys, d.Value.ID)
	}
	return keys
}

func TestExplainInclusion(t *testing.T) {
	f, s := sampleSession(t)

	tests := []struct {
		name         string
		bundle       string
		asset        string
		isMainEntry  bool
		isEntry      bool
		contained    []string
		sharedByRefs []string
	}{
		{
			name:        "main entry",
			bundle:      "dist/index",
			asset:       "src/index.js",
			isMainEntry: true,
			isEntry:     true,
		},
		{
			name:      "contained dependency",
			bundle:    "dist/index",
			asset:     "src/app",
			contained: []string{f.Deps["index->app"]},
		},
		{
			name:         "shared bundle",
			bundle:       "shared",
			asset:        "react",
			sharedByRefs: []string{f.Deps["app->react"], f.Deps["page->react"]},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r, err := s.ExplainInclusion(tt.bundle, tt.asset)
			require.NoError(t, err)
			assert.Equal(t, tt.isMainEntry, r.IsMainEntry)
			assert.Equal(t, tt.isEntry, r.IsEntry)
			assert.Equal(t, tt.contained, depKeys(r.ContainedDependencies))
			assert.Equal(t, tt.sharedByRefs, depKeys(r.SharedDependencies))
		})
	}
}

func TestExplainInclusion_Errors(t *testing.T) {
	f, s := sampleSession(t)

	_, err := s.ExplainInclusion("dist/page", "src/index.js")
	assert.ErrorIs(t, err, ErrPrecondition)

	_, err = s.ExplainInclusion("nothing", "src/index.js")
	assert.ErrorIs(t, err, ErrNotFound)

	_, err = s.ExplainInclusion("dist/index", "nothing")
	assert.ErrorIs(t, err, ErrNotFound)

	_, err = s.ExplainInclusion("dist/index", "unused")
	assert.ErrorIs(t, err, ErrNotFound, "the asset was pruned from the bundle graph")

	_, err = s.ExplainInclusion("dist/index", f.Bundles["page"])
	var variant *VariantError
	require.True(t, errors.As(err, &variant))
	assert.Equal(t, graph.TypeAsset, variant.Expected)
	assert.Equal(t, graph.TypeBundle, variant.Actual)
	assert.ErrorIs(t, err, ErrPrecondition)

	// Bundle locators only ever match bundles.
	_, err = s.ExplainInclusion(f.Assets["index"], "src/index.js")
	assert.ErrorIs(t, err, ErrNotFound)
}

// Every bundle/asset pair fails with ErrPrecondition exactly when there is
// no contains edge between them.
func TestExplainInclusion_PreconditionIffNoContainsEdge(t *testing.T) {
	_, s := sampleSession(t)
	g := s.Graph(BundleGraph)

	for _, b := range s.BundleGraph().Bundles() {
		bundleNode, _ := g.GetNodeIDByContentKey(b.ID)
		for id, n := range g.All() {
			a, ok := n.(*graph.AssetNode)
			if !ok {
				continue
			}

			_, err := s.ExplainInclusion(b.ID, a.Value.ID)
			if g.HasEdge(bundleNode, id, graph.EdgeContains) {
				assert.NoError(t, err, "%s in %s", a.Value.FilePath, b.Name)
			} else {
				assert.ErrorIs(t, err, ErrPrecondition, "%s in %s", a.Value.FilePath, b.Name)
			}
		}
	}
}

func TestInclusionReport_Print(t *testing.T) {
	f, s := sampleSession(t)

	r, err := s.ExplainInclusion("shared", "react")
	require.NoError(t, err)

	var buf bytes.Buffer
	require.NoError(t, r.Print(&buf))
	assert.Equal(t, "# Asset is main entry of bundle: false\n"+
		"# Asset is an entry of bundle: false\n"+
		"# Incoming dependencies contained in the bundle:\n"+
		"# Incoming dependencies contained in referencing bundles (using this bundle as a shared bundle):\n"+
		"dependency "+f.Deps["app->react"]+" src/app.js -> react [sync]\n"+
		"dependency "+f.Deps["page->react"]+" src/page.js -> react [sync]\n", buf.String())
}
