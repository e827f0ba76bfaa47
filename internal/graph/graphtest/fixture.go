package graphtest

import (
	"testing"

	"github.com/imbrian/parcel/internal/graph"
)

// Fixture is a small application build:
//
//	src/index.js  entry, imports src/app.js, lazily imports src/page.js
//	src/app.js    imports react
//	src/page.js   imports react
//	node_modules/react/index.js
//	src/unused.js only in the asset graph (pruned from the output)
//
// The bundle graph has dist/index.js (index, app), dist/page.js (page) and
// dist/shared.js (react), the last referenced by the other two.
type Fixture struct {
	Snapshot *graph.Snapshot

	// Short names ("index", "app", "page", "react", "unused") to asset ids.
	Assets map[string]string
	// Short names ("entry", "index->app", "index->page", "app->react",
	// "page->react") to dependency ids.
	Deps map[string]string
	// Short names ("index", "page", "shared") to bundle ids.
	Bundles map[string]string
}

// Asset paths used by the fixture.
const (
	IndexPath  = "src/index.js"
	AppPath    = "src/app.js"
	PagePath   = "src/page.js"
	ReactPath  = "node_modules/react/index.js"
	UnusedPath = "src/unused.js"
)

// Sample builds the fixture.
func Sample(t testing.TB) *Fixture {
	t.Helper()

	f := &Fixture{
		Assets: map[string]string{
			"index":  ID(IndexPath),
			"app":    ID(AppPath),
			"page":   ID(PagePath),
			"react":  ID(ReactPath),
			"unused": ID(UnusedPath),
		},
		Deps: map[string]string{
			"entry":       ID("dep:entry"),
			"index->app":  ID("dep:index->app"),
			"index->page": ID("dep:index->page"),
			"app->react":  ID("dep:app->react"),
			"page->react": ID("dep:page->react"),
		},
		Bundles: map[string]string{
			"index":  ID("bundle:index"),
			"page":   ID("bundle:page"),
			"shared": ID("bundle:shared"),
		},
	}

	f.Snapshot = &graph.Snapshot{
		AssetGraph:  sampleAssetGraph(t),
		BundleGraph: sampleBundleGraph(t, f),
		PublicIDs: []graph.PublicID{
			{AssetID: f.Assets["index"], PublicID: "a1"},
			{AssetID: f.Assets["app"], PublicID: "b2"},
			{AssetID: f.Assets["page"], PublicID: "d4"},
			{AssetID: f.Assets["react"], PublicID: "c3"},
		},
		BundleInfo: map[string]graph.BundleInfo{
			f.Bundles["index"]:  {FilePath: "dist/index.js", Hash: "1a2b", Size: 2048},
			f.Bundles["page"]:   {FilePath: "dist/page.js", Hash: "3c4d", Size: 512},
			f.Bundles["shared"]: {FilePath: "dist/shared.js", Hash: "5e6f", Size: 4096},
		},
	}
	return f
}

func indexSymbols() []graph.Symbol {
	return []graph.Symbol{
		{Exported: "render", Local: "$indexBuild$export$render", Loc: &graph.SourceLocation{FilePath: ReactPath}},
		{Exported: "helper", Local: "$indexBuild$export$helper", Loc: &graph.SourceLocation{FilePath: "src/missing.js"}},
		{Exported: "util", Local: "$indexBuild$export$util", Loc: &graph.SourceLocation{FilePath: UnusedPath}},
		{Exported: "default", Local: "$indexBuild$export$default"},
	}
}

func sampleAssetGraph(t testing.TB) *graph.ContentGraph {
	b := New(t)

	root := b.Root()
	entry := b.Dependency("entry", "", IndexPath, graph.PrioritySync)
	indexGroup := b.AssetGroup(IndexPath)
	index := b.Asset(IndexPath, "indexBuild", indexSymbols()...)
	toApp := b.Dependency("index->app", IndexPath, "./app", graph.PrioritySync)
	app := b.Asset(AppPath, "appBuild", graph.Symbol{Exported: "App", Local: "$appBuild$export$App"})
	toPage := b.Dependency("index->page", IndexPath, "./page", graph.PriorityLazy)
	pageGroup := b.AssetGroup(PagePath)
	// Rehashed after transformation: meta.id no longer matches its symbols.
	page := b.Asset(PagePath, "pageBuildNew", graph.Symbol{Exported: "Page", Local: "$pageBuildOld$export$Page"})
	appToReact := b.Dependency("app->react", AppPath, "react", graph.PrioritySync)
	pageToReact := b.Dependency("page->react", PagePath, "react", graph.PrioritySync)
	reactGroup := b.AssetGroup(ReactPath)
	react := b.Asset(ReactPath, "reactBuild")
	b.Asset(UnusedPath, "unusedBuild")

	b.Edge(root, entry)
	b.Edge(entry, indexGroup)
	b.Edge(indexGroup, index)
	b.Edge(index, toApp)
	b.Edge(toApp, app) // inline dependency, no asset group
	b.Edge(index, toPage)
	b.Edge(toPage, pageGroup)
	b.Edge(pageGroup, page)
	b.Edge(app, appToReact)
	b.Edge(page, pageToReact)
	b.Edge(appToReact, reactGroup)
	b.Edge(pageToReact, reactGroup)
	b.Edge(reactGroup, react)

	return b.Graph()
}

func sampleBundleGraph(t testing.TB, f *Fixture) *graph.ContentGraph {
	b := New(t)

	root := b.Root()
	entry := b.Dependency("entry", "", IndexPath, graph.PrioritySync)
	index := b.Asset(IndexPath, "indexBuild", indexSymbols()...)
	toApp := b.Dependency("index->app", IndexPath, "./app", graph.PrioritySync)
	app := b.Asset(AppPath, "appBuild", graph.Symbol{Exported: "App", Local: "$appBuild$export$App"})
	toPage := b.Dependency("index->page", IndexPath, "./page", graph.PriorityLazy)
	page := b.Asset(PagePath, "pageBuildNew", graph.Symbol{Exported: "Page", Local: "$pageBuildOld$export$Page"})
	appToReact := b.Dependency("app->react", AppPath, "react", graph.PrioritySync)
	pageToReact := b.Dependency("page->react", PagePath, "react", graph.PrioritySync)
	react := b.Asset(ReactPath, "reactBuild")

	indexGroup := b.BundleGroup("index", f.Assets["index"])
	indexBundle := b.Bundle("index", f.Assets["index"], f.Assets["index"])
	pageGroup := b.BundleGroup("page", f.Assets["page"])
	pageBundle := b.Bundle("page", f.Assets["page"], f.Assets["page"])
	sharedBundle := b.Bundle("shared", "")

	// Asset structure.
	b.Edge(root, entry)
	b.Edge(entry, index)
	b.Edge(index, toApp)
	b.Edge(toApp, app)
	b.Edge(index, toPage)
	b.Edge(toPage, page)
	b.Edge(app, appToReact)
	b.Edge(page, pageToReact)
	b.Edge(appToReact, react)
	b.Edge(pageToReact, react)

	// Bundle structure.
	b.Edge(root, indexGroup)
	b.Edge(entry, indexGroup)
	b.Edge(indexGroup, indexBundle, graph.EdgeBundle)
	b.Edge(toPage, pageGroup)
	b.Edge(pageGroup, pageBundle, graph.EdgeBundle)
	b.Edge(indexBundle, index)
	b.Edge(pageBundle, page)
	b.Edge(sharedBundle, react)
	b.Edge(indexBundle, sharedBundle, graph.EdgeReferences)
	b.Edge(pageBundle, sharedBundle, graph.EdgeReferences)
	b.Edge(indexBundle, pageGroup, graph.EdgeReferences)

	// Bundle contents.
	for _, n := range []graph.NodeID{index, toApp, app, toPage, appToReact} {
		b.Edge(indexBundle, n, graph.EdgeContains)
	}
	for _, n := range []graph.NodeID{page, pageToReact} {
		b.Edge(pageBundle, n, graph.EdgeContains)
	}
	b.Edge(sharedBundle, react, graph.EdgeContains)

	return b.Graph()
}
