package query

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/imbrian/parcel/internal/graph"
	"github.com/imbrian/parcel/internal/graph/graphtest"
	"github.com/imbrian/parcel/internal/modulematch"
)

func TestComputeStats(t *testing.T) {
	_, s := sampleSession(t)

	st := s.ComputeStats()
	assert.Equal(t, AssetGraphCounts{Asset: 5, Dependency: 5, AssetGroup: 3}, st.AssetGraph)
	assert.Equal(t, BundleGraphCounts{
		Dependency:    5,
		Bundle:        3,
		Asset:         4,
		AssetVendored: 1,
		AssetSource:   3,
	}, st.BundleGraph)
	assert.Empty(t, st.Modules)
}

func TestComputeStats_AssetGraphTallies(t *testing.T) {
	b := graphtest.New(t)
	b.Root()
	b.Asset("a.js", "")
	b.Asset("b.js", "")
	b.Asset("c.js", "")
	b.Dependency("a->b", "a.js", "./b", graph.PrioritySync)
	b.Dependency("a->c", "a.js", "./c", graph.PriorityLazy)
	b.AssetGroup("b.js")
	// Variants the asset graph tally leaves out.
	b.BundleGroup("a", graphtest.ID("a.js"))

	s := NewSession(&graph.Snapshot{AssetGraph: b.Graph()}, Options{})
	assert.Equal(t, AssetGraphCounts{Asset: 3, Dependency: 2, AssetGroup: 1}, s.ComputeStats().AssetGraph)
}

func TestComputeStats_Options(t *testing.T) {
	f := graphtest.Sample(t)
	s := NewSession(f.Snapshot, Options{
		VendorMarker: "src/",
		Modules: modulematch.NewMatcher([]modulematch.ModuleRule{
			{Name: "source", Paths: []string{"src/**"}},
			{Name: "vendor", Paths: []string{"node_modules/**"}},
			{Name: "tests", Paths: []string{"test/**"}},
		}),
	})

	st := s.ComputeStats()
	assert.Equal(t, 3, st.BundleGraph.AssetVendored)
	assert.Equal(t, 1, st.BundleGraph.AssetSource)
	assert.Equal(t, []ModuleCount{{"source", 3}, {"vendor", 1}, {"tests", 0}}, st.Modules)
}

func TestStats_Print(t *testing.T) {
	st := Stats{
		AssetGraph:  AssetGraphCounts{Asset: 3, Dependency: 2, AssetGroup: 1},
		BundleGraph: BundleGraphCounts{Dependency: 2, Bundle: 1, Asset: 3, AssetVendored: 1, AssetSource: 2},
	}

	var buf bytes.Buffer
	require.NoError(t, st.Print(&buf))
	assert.Equal(t, `# Asset Graph Node Counts
asset 3
dependency 2
asset_group 1

# Bundle Graph Node Counts
dependency 2
bundle 1
asset 3
asset_vendored 1
asset_source 2
`, buf.String())

	st.Modules = []ModuleCount{{Name: "app", Count: 2}}
	buf.Reset()
	require.NoError(t, st.Print(&buf))
	assert.Contains(t, buf.String(), "\n# Bundle Graph Modules\napp 2\n")
}
