package query

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/imbrian/parcel/internal/graph"
	"github.com/imbrian/parcel/internal/graph/graphtest"
	"github.com/imbrian/parcel/internal/projectpath"
)

func TestParseMangledName(t *testing.T) {
	tests := []struct {
		in      string
		want    MangledName
		wantErr bool
	}{
		{in: "$abc$export$foo", want: MangledName{AssetID: "abc", Binding: "export", Rest: "foo"}},
		{in: "$abc$import$", want: MangledName{AssetID: "abc", Binding: "import"}},
		{in: "$abc$var$a$b", want: MangledName{AssetID: "abc", Binding: "var", Rest: "a$b"}},
		{in: "abc", wantErr: true},
		{in: "$abc$export", wantErr: true},
		{in: "$$export$foo", wantErr: true},
		{in: "", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ParseMangledName(tt.in)
			if tt.wantErr {
				assert.ErrorIs(t, err, ErrMalformedInput)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestResolveSymbol(t *testing.T) {
	_, s := sampleSession(t)

	tests := []struct {
		name    string
		mangled string
		want    []string
	}{
		{
			name:    "located in an asset with a public id",
			mangled: "$indexBuild$export$render",
			want:    []string{"a1 src/index.js", "c3 node_modules/react/index.js"},
		},
		{
			name:    "location matches no asset",
			mangled: "$indexBuild$export$helper",
			want:    []string{"a1 src/index.js", "imported as `helper` from `src/missing.js`"},
		},
		{
			name:    "located in a pruned asset",
			mangled: "$indexBuild$export$util",
			want:    []string{"a1 src/index.js", "imported as `util` from `src/unused.js`"},
		},
		{
			name:    "no location",
			mangled: "$indexBuild$export$default",
			want:    []string{"a1 src/index.js", "imported as `default`"},
		},
		{
			name:    "other binding",
			mangled: "$appBuild$import$App",
			want:    []string{"b2 src/app.js", "possibly defined as `App`"},
		},
		{
			name:    "rehashed asset found by local name",
			mangled: "$pageBuildOld$export$Page",
			want:    []string{"d4 src/page.js", "imported as `Page`"},
		},
		{
			name:    "asset without public id",
			mangled: "$unusedBuild$var$",
			want:    []string{"src/unused.js"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r, err := s.ResolveSymbol(tt.mangled)
			require.NoError(t, err)
			assert.Equal(t, tt.want, r.Lines)
		})
	}
}

func TestResolveSymbol_RoundTrip(t *testing.T) {
	b := graphtest.New(t)
	b.Asset("src/other.js", "Y")
	b.Asset("src/x.js", "X")
	s := NewSession(&graph.Snapshot{AssetGraph: b.Graph()}, Options{})

	r, err := s.ResolveSymbol("$X$export$sym")
	require.NoError(t, err)
	assert.Equal(t, graphtest.ID("src/x.js"), r.Asset.ID)
	assert.Equal(t, "src/x.js", r.String())
}

func TestResolveSymbol_AbsoluteLocation(t *testing.T) {
	f := graphtest.Sample(t)
	_, err := f.Snapshot.AssetGraph.AddNode(graphtest.NewAsset("src/abs.js", "absBuild", graph.Symbol{
		Exported: "render",
		Local:    "$absBuild$export$render",
		Loc:      &graph.SourceLocation{FilePath: "/work/app/" + graphtest.ReactPath},
	}))
	require.NoError(t, err)

	s := NewSession(f.Snapshot, Options{Paths: projectpath.NewResolver("/work/app")})
	r, err := s.ResolveSymbol("$absBuild$export$render")
	require.NoError(t, err)
	assert.Equal(t, "src/abs.js\nc3 node_modules/react/index.js", r.String())
}

func TestResolveSymbol_Errors(t *testing.T) {
	_, s := sampleSession(t)

	_, err := s.ResolveSymbol("not mangled")
	assert.ErrorIs(t, err, ErrMalformedInput)

	_, err = s.ResolveSymbol("$nope$export$x")
	assert.ErrorIs(t, err, ErrNotFound)
}
