package main

import (
	"bytes"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/imbrian/parcel/internal/config"
	"github.com/imbrian/parcel/internal/graph/graphtest"
	"github.com/imbrian/parcel/internal/logging"
	"github.com/imbrian/parcel/internal/query"
)

func sampleApp(t *testing.T) (*graphtest.Fixture, *app) {
	t.Helper()
	f := graphtest.Sample(t)
	return f, newApp(config.Default(), logging.Discard(), f.Snapshot, "/work/app")
}

func runCommand(t *testing.T, a *app, name string, args ...string) (string, error) {
	t.Helper()
	c, ok := lookupCommand(name)
	require.True(t, ok, "command %s", name)

	var buf bytes.Buffer
	err := c.run(a, &buf, args)
	return buf.String(), err
}

// TestRootCommand tests that the root command is properly configured
func TestRootCommand(t *testing.T) {
	if rootCmd.Use != "parcel-query [command]" {
		t.Errorf("expected Use 'parcel-query [command]', got %q", rootCmd.Use)
	}
	if rootCmd.Short == "" {
		t.Error("Short description should not be empty")
	}
	if rootCmd.RunE == nil {
		t.Error("root RunE should start the shell")
	}
	for _, flag := range []string{"cache", "config", "log-level", "log-format"} {
		assert.NotNil(t, rootCmd.PersistentFlags().Lookup(flag), flag)
	}
}

// TestPackCommand tests the pack command configuration
func TestPackCommand(t *testing.T) {
	if packCmd.Use != "pack" {
		t.Errorf("expected Use 'pack', got %q", packCmd.Use)
	}
	assert.NotNil(t, packCmd.Flags().Lookup("out"))
	assert.Equal(t, groupCache, packCmd.GroupID)
}

func TestCommands_Registry(t *testing.T) {
	seen := make(map[string]bool)
	for _, c := range commands {
		assert.Equal(t, strings.ToLower(c.name), c.name, "name should be kebab-case")
		assert.NotContains(t, c.alias, "-", "alias should be camelCase")
		assert.NotEmpty(t, c.short, c.name)
		assert.NotNil(t, c.run, c.name)

		assert.False(t, seen[c.name], "duplicate %s", c.name)
		seen[c.name] = true
		if c.alias != c.name {
			assert.False(t, seen[c.alias], "duplicate %s", c.alias)
			seen[c.alias] = true
		}
	}

	for _, name := range []string{
		"get-asset",
		"get-node-asset-graph",
		"get-node-bundle-graph",
		"find-entries",
		"find-entries-asset-graph",
		"find-entries-bundle-graph",
		"get-bundles-with-asset",
		"get-bundles-with-dependency",
		"get-incoming-dependencies",
		"get-incoming-dependencies-asset-graph",
		"get-incoming-dependencies-bundle-graph",
		"get-resolved-asset",
		"get-asset-with-dependency",
		"traverse-assets",
		"traverse-bundle",
		"get-bundle",
		"get-bundles",
		"get-referencing-bundles",
		"find-bundle-reason",
		"stats",
		"find-asset",
		"find-asset-with-symbol",
		"list-assets",
	} {
		assert.True(t, seen[name], "missing command %s", name)
	}
}

func TestCommands_RegisteredWithCobra(t *testing.T) {
	for _, c := range commands {
		cmd, _, err := rootCmd.Find([]string{c.name})
		require.NoError(t, err, c.name)
		assert.Equal(t, c.name, cmd.Name())
		assert.Equal(t, groupQuery, cmd.GroupID)

		cmd, _, err = rootCmd.Find([]string{c.alias})
		require.NoError(t, err, c.alias)
		assert.Equal(t, c.name, cmd.Name())
	}
}

func TestLookupCommand(t *testing.T) {
	c, ok := lookupCommand("findEntries")
	require.True(t, ok)
	assert.Equal(t, "find-entries", c.name)

	c, ok = lookupCommand("find-bundle-reason")
	require.True(t, ok)
	assert.Equal(t, "find-bundle-reason <bundle> <asset>", c.usage())

	_, ok = lookupCommand("findentries")
	assert.False(t, ok)
}

func TestCommand_ParseArgs(t *testing.T) {
	tests := []struct {
		command string
		rest    string
		want    []string
		wantErr bool
	}{
		{command: "find-asset", rest: "src/(app|page)", want: []string{"src/(app|page)"}},
		{command: "find-asset", rest: "  a b  ", want: []string{"a b"}},
		{command: "find-asset", rest: "", wantErr: true},
		{command: "find-bundle-reason", rest: "dist/index  src/app", want: []string{"dist/index", "src/app"}},
		{command: "find-bundle-reason", rest: "dist/index", wantErr: true},
		{command: "find-bundle-reason", rest: "a b c", wantErr: true},
		{command: "get-bundles", rest: "", want: []string{}},
		{command: "get-bundles", rest: "extra", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.command+" "+tt.rest, func(t *testing.T) {
			c, ok := lookupCommand(tt.command)
			require.True(t, ok)

			got, err := c.parseArgs(tt.rest)
			if tt.wantErr {
				assert.ErrorIs(t, err, query.ErrMalformedInput)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, len(tt.want), len(got))
			if len(tt.want) > 0 {
				assert.Equal(t, tt.want, got)
			}
		})
	}
}

func TestCommands_Output(t *testing.T) {
	f, a := sampleApp(t)

	indexBundle := f.Bundles["index"] + " dist/index.js (main: " + f.Assets["index"] + ")\n"
	pageBundle := f.Bundles["page"] + " dist/page.js (main: " + f.Assets["page"] + ")\n"
	sharedBundle := f.Bundles["shared"] + " dist/shared.js\n"

	tests := []struct {
		command string
		args    []string
		want    string
	}{
		{
			command: "get-bundles",
			want:    indexBundle + pageBundle + sharedBundle,
		},
		{
			command: "getBundle",
			args:    []string{"shared"},
			want:    sharedBundle,
		},
		{
			command: "find-entries-asset-graph",
			args:    []string{"react"},
			want:    "src/app.js\n  src/index.js\nsrc/page.js\n  < src/index.js (revisiting)\n",
		},
		{
			command: "find-entries",
			args:    []string{"src/page"},
			want:    "< src/index.js\n",
		},
		{
			command: "find-entries-asset-graph",
			args:    []string{"unused"},
			want:    "",
		},
		{
			command: "list-assets",
			args:    []string{"src/**"},
			want:    "src/index.js\nsrc/app.js\nsrc/page.js\nsrc/unused.js\n",
		},
		{
			command: "find-asset",
			args:    []string{"react"},
			want:    "c3 node_modules/react/index.js\n",
		},
		{
			command: "traverse-assets",
			args:    []string{"dist/index"},
			want:    f.Assets["index"] + " a1 src/index.js\n" + f.Assets["app"] + " b2 src/app.js\n",
		},
		{
			command: "traverse-bundle",
			args:    []string{"dist/page"},
			want: f.Assets["page"] + " src/page.js\n" +
				f.Deps["page->react"] + " src/page.js -> react\n",
		},
		{
			command: "get-bundles-with-asset",
			args:    []string{"src/app"},
			want:    indexBundle,
		},
		{
			command: "get-bundles-with-dependency",
			args:    []string{f.Deps["page->react"]},
			want:    pageBundle,
		},
		{
			command: "get-referencing-bundles",
			args:    []string{"shared"},
			want:    indexBundle + pageBundle,
		},
		{
			command: "get-incoming-dependencies-asset-graph",
			args:    []string{"src/page"},
			want:    f.Deps["index->page"] + " src/index.js -> ./page\n",
		},
		{
			command: "get-resolved-asset",
			args:    []string{f.Deps["app->react"]},
			want:    f.Assets["react"] + " c3 node_modules/react/index.js\n",
		},
		{
			command: "get-asset-with-dependency",
			args:    []string{f.Deps["app->react"]},
			want:    f.Assets["app"] + " b2 src/app.js\n",
		},
		{
			command: "get-node-bundle-graph",
			args:    []string{f.Bundles["shared"]},
			want:    "bundle " + f.Bundles["shared"] + " (js)\n",
		},
		{
			command: "find-asset-with-symbol",
			args:    []string{"$indexBuild$export$render"},
			want:    "a1 src/index.js\nc3 node_modules/react/index.js\n",
		},
		{
			command: "find-bundle-reason",
			args:    []string{"shared", "react"},
			want: "# Asset is main entry of bundle: false\n" +
				"# Asset is an entry of bundle: false\n" +
				"# Incoming dependencies contained in the bundle:\n" +
				"# Incoming dependencies contained in referencing bundles (using this bundle as a shared bundle):\n" +
				"dependency " + f.Deps["app->react"] + " src/app.js -> react [sync]\n" +
				"dependency " + f.Deps["page->react"] + " src/page.js -> react [sync]\n",
		},
		{
			command: "stats",
			want: `# Asset Graph Node Counts
asset 5
dependency 5
asset_group 3

# Bundle Graph Node Counts
dependency 5
bundle 3
asset 4
asset_vendored 1
asset_source 3
`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.command+" "+strings.Join(tt.args, " "), func(t *testing.T) {
			got, err := runCommand(t, a, tt.command, tt.args...)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestGetAsset_Output(t *testing.T) {
	f, a := sampleApp(t)

	out, err := runCommand(t, a, "get-asset", "b2")
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(out, "Public id: b2\n{"), out)
	assert.Contains(t, out, `"id": "`+f.Assets["app"]+`"`)
	assert.Contains(t, out, `"filePath": "src/app.js"`)

	out, err = runCommand(t, a, "get-asset", "unused")
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(out, "Not in the bundle graph"), out)
	assert.Contains(t, out, `"filePath": "src/unused.js"`)
}

func TestCommands_Errors(t *testing.T) {
	f, a := sampleApp(t)

	tests := []struct {
		command string
		args    []string
		want    error
	}{
		{"find-asset", []string{"nothing-matches"}, query.ErrNotFound},
		{"find-asset", []string{"("}, query.ErrMalformedInput},
		{"find-entries", []string{"unused"}, query.ErrNotFound},
		{"get-resolved-asset", []string{f.Assets["app"]}, query.ErrPrecondition},
		{"find-bundle-reason", []string{"dist/page", "src/app"}, query.ErrPrecondition},
		{"find-asset-with-symbol", []string{"render"}, query.ErrMalformedInput},
		{"list-assets", []string{"src/["}, query.ErrMalformedInput},
		{"get-node-asset-graph", []string{"missing"}, query.ErrNotFound},
	}

	for _, tt := range tests {
		t.Run(tt.command+" "+strings.Join(tt.args, " "), func(t *testing.T) {
			_, err := runCommand(t, a, tt.command, tt.args...)
			assert.ErrorIs(t, err, tt.want)
		})
	}
}
