package main

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"

	"github.com/imbrian/parcel/internal/graph"
	"github.com/imbrian/parcel/internal/query"
)

// command is one query, runnable as a subcommand or from the shell.
type command struct {
	// name is the kebab-case name; alias is the camelCase name the shell
	// also accepts.
	name  string
	alias string
	args  []string
	short string
	run   func(a *app, w io.Writer, args []string) error
}

var commands = []command{
	{
		name: "get-asset", alias: "getAsset", args: []string{"asset"},
		short: "Show an asset and its public id",
		run:   runGetAsset,
	},
	{
		name: "get-node-asset-graph", alias: "getNodeAssetGraph", args: []string{"key"},
		short: "Describe an asset graph node by content key",
		run:   describeNode(query.AssetGraph),
	},
	{
		name: "get-node-bundle-graph", alias: "getNodeBundleGraph", args: []string{"key"},
		short: "Describe a bundle graph node by content key",
		run:   describeNode(query.BundleGraph),
	},
	{
		name: "find-entries", alias: "findEntries", args: []string{"asset"},
		short: "Show every path from the entries to an asset in the bundle graph",
		run:   findEntries(query.BundleGraph),
	},
	{
		name: "find-entries-asset-graph", alias: "findEntriesAssetGraph", args: []string{"asset"},
		short: "Show every path from the entries to an asset in the asset graph",
		run:   findEntries(query.AssetGraph),
	},
	{
		name: "find-entries-bundle-graph", alias: "findEntriesBundleGraph", args: []string{"asset"},
		short: "Show every path from the entries to an asset in the bundle graph",
		run:   findEntries(query.BundleGraph),
	},
	{
		name: "get-bundles-with-asset", alias: "getBundlesWithAsset", args: []string{"asset"},
		short: "List the bundles containing an asset",
		run: func(a *app, w io.Writer, args []string) error {
			return printBundles(a, w)(a.session.BundlesWithAsset(args[0]))
		},
	},
	{
		name: "get-bundles-with-dependency", alias: "getBundlesWithDependency", args: []string{"dependency"},
		short: "List the bundles containing a dependency",
		run: func(a *app, w io.Writer, args []string) error {
			return printBundles(a, w)(a.session.BundlesWithDependency(args[0]))
		},
	},
	{
		name: "get-incoming-dependencies", alias: "getIncomingDependencies", args: []string{"asset"},
		short: "List the bundle graph dependencies resolving to an asset",
		run:   incomingDependencies(query.BundleGraph),
	},
	{
		name: "get-incoming-dependencies-asset-graph", alias: "getIncomingDependenciesAssetGraph", args: []string{"asset"},
		short: "List the asset graph dependencies resolving to an asset",
		run:   incomingDependencies(query.AssetGraph),
	},
	{
		name: "get-incoming-dependencies-bundle-graph", alias: "getIncomingDependenciesBundleGraph", args: []string{"asset"},
		short: "List the bundle graph dependencies resolving to an asset",
		run:   incomingDependencies(query.BundleGraph),
	},
	{
		name: "get-resolved-asset", alias: "getResolvedAsset", args: []string{"dependency"},
		short: "Show the asset a dependency resolved to",
		run: func(a *app, w io.Writer, args []string) error {
			return printAsset(a, w)(a.session.ResolvedAsset(args[0]))
		},
	},
	{
		name: "get-asset-with-dependency", alias: "getAssetWithDependency", args: []string{"dependency"},
		short: "Show the asset declaring a dependency",
		run: func(a *app, w io.Writer, args []string) error {
			return printAsset(a, w)(a.session.AssetWithDependency(args[0]))
		},
	},
	{
		name: "traverse-assets", alias: "traverseAssets", args: []string{"bundle"},
		short: "List the assets of a bundle in traversal order",
		run:   runTraverseAssets,
	},
	{
		name: "traverse-bundle", alias: "traverseBundle", args: []string{"bundle"},
		short: "List the assets and dependencies of a bundle in traversal order",
		run:   runTraverseBundle,
	},
	{
		name: "get-bundle", alias: "getBundle", args: []string{"bundle"},
		short: "List the bundles whose path matches a pattern",
		run: func(a *app, w io.Writer, args []string) error {
			return printBundles(a, w)(a.session.MatchBundles(args[0]))
		},
	},
	{
		name: "get-bundles", alias: "getBundles",
		short: "List every bundle",
		run: func(a *app, w io.Writer, args []string) error {
			return printBundles(a, w)(a.session.BundleGraph().Bundles(), nil)
		},
	},
	{
		name: "get-referencing-bundles", alias: "getReferencingBundles", args: []string{"bundle"},
		short: "List the bundles referencing a bundle",
		run: func(a *app, w io.Writer, args []string) error {
			return printBundles(a, w)(a.session.ReferencingBundles(args[0]))
		},
	},
	{
		name: "find-bundle-reason", alias: "findBundleReason", args: []string{"bundle", "asset"},
		short: "Explain why an asset is in a bundle",
		run: func(a *app, w io.Writer, args []string) error {
			report, err := a.session.ExplainInclusion(args[0], args[1])
			if err != nil {
				return err
			}
			return report.Print(w)
		},
	},
	{
		name: "stats", alias: "stats",
		short: "Count the nodes of both graphs",
		run: func(a *app, w io.Writer, args []string) error {
			return a.session.ComputeStats().Print(w)
		},
	},
	{
		name: "find-asset", alias: "findAsset", args: []string{"pattern"},
		short: "Show the first asset whose path matches a pattern",
		run: func(a *app, w io.Writer, args []string) error {
			line, err := a.session.FindAsset(args[0])
			if err != nil {
				return err
			}
			fmt.Fprintln(w, line)
			return nil
		},
	},
	{
		name: "find-asset-with-symbol", alias: "findAssetWithSymbol", args: []string{"symbol"},
		short: "Show where a mangled symbol is defined",
		run: func(a *app, w io.Writer, args []string) error {
			report, err := a.session.ResolveSymbol(args[0])
			if err != nil {
				return err
			}
			fmt.Fprintln(w, report)
			return nil
		},
	},
	{
		name: "list-assets", alias: "listAssets", args: []string{"glob"},
		short: "List the asset paths matching a glob",
		run: func(a *app, w io.Writer, args []string) error {
			paths, err := a.session.ListAssets(args[0])
			if err != nil {
				return err
			}
			for _, p := range paths {
				fmt.Fprintln(w, p)
			}
			return nil
		},
	},
}

// lookupCommand finds a command by name or alias.
func lookupCommand(name string) (*command, bool) {
	for i := range commands {
		if commands[i].name == name || commands[i].alias == name {
			return &commands[i], true
		}
	}
	return nil, false
}

// usage renders the command with its arguments, e.g. "find-asset <pattern>".
func (c *command) usage() string {
	var b strings.Builder
	b.WriteString(c.name)
	for _, arg := range c.args {
		fmt.Fprintf(&b, " <%s>", arg)
	}
	return b.String()
}

// parseArgs splits the rest of a shell line into the command's arguments.
// A single-argument command takes the whole rest, spaces included, so
// regular expressions need no quoting.
func (c *command) parseArgs(rest string) ([]string, error) {
	rest = strings.TrimSpace(rest)

	args := strings.Fields(rest)
	if len(c.args) == 1 && rest != "" {
		args = []string{rest}
	}

	if len(args) != len(c.args) {
		return nil, fmt.Errorf("usage: %s: %w", c.usage(), query.ErrMalformedInput)
	}
	return args, nil
}

func (c *command) cobraCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   c.usage(),
		Short: c.short,
		Args:  cobra.ExactArgs(len(c.args)),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := loadApp(cmd)
			if err != nil {
				return err
			}
			return c.run(a, cmd.OutOrStdout(), args)
		},
	}
	if c.alias != c.name {
		cmd.Aliases = []string{c.alias}
	}
	return cmd
}

func runGetAsset(a *app, w io.Writer, args []string) error {
	d, err := a.session.GetAsset(args[0])
	if err != nil {
		return err
	}

	if d.InBundleGraph {
		fmt.Fprintf(w, "Public id: %s\n", d.PublicID)
	} else {
		fmt.Fprintln(w, "Not in the bundle graph; showing the asset graph copy")
	}

	data, err := json.MarshalIndent(d.Asset, "", "  ")
	if err != nil {
		return fmt.Errorf("marshaling asset: %w", err)
	}
	fmt.Fprintln(w, string(data))
	return nil
}

func describeNode(name query.GraphName) func(*app, io.Writer, []string) error {
	return func(a *app, w io.Writer, args []string) error {
		line, err := a.session.DescribeNode(name, args[0])
		if err != nil {
			return err
		}
		fmt.Fprintln(w, line)
		return nil
	}
}

func findEntries(name query.GraphName) func(*app, io.Writer, []string) error {
	return func(a *app, w io.Writer, args []string) error {
		g := a.session.Graph(name)
		tree, err := a.session.FindEntries(g, args[0])
		if err != nil {
			return err
		}
		return tree.Print(w, query.AssetPath(g))
	}
}

func incomingDependencies(name query.GraphName) func(*app, io.Writer, []string) error {
	return func(a *app, w io.Writer, args []string) error {
		deps, err := a.session.IncomingDependencies(name, args[0])
		if err != nil {
			return err
		}
		for _, d := range deps {
			fmt.Fprintln(w, query.FormatBundleNode(&graph.DependencyNode{Value: *d}))
		}
		return nil
	}
}

func runTraverseAssets(a *app, w io.Writer, args []string) error {
	assets, err := a.session.TraverseAssets(args[0])
	if err != nil {
		return err
	}
	for _, asset := range assets {
		fmt.Fprintln(w, formatAsset(a, asset))
	}
	return nil
}

func runTraverseBundle(a *app, w io.Writer, args []string) error {
	nodes, err := a.session.TraverseBundle(args[0])
	if err != nil {
		return err
	}
	for _, n := range nodes {
		fmt.Fprintln(w, query.FormatBundleNode(n))
	}
	return nil
}

// printBundles returns a printer taking a bundle query's results directly,
// so callers can write printBundles(a, w)(a.session.Query(x)).
func printBundles(a *app, w io.Writer) func([]*graph.Bundle, error) error {
	return func(bundles []*graph.Bundle, err error) error {
		if err != nil {
			return err
		}
		for _, b := range bundles {
			fmt.Fprintln(w, a.session.FormatBundle(b))
		}
		return nil
	}
}

func printAsset(a *app, w io.Writer) func(*graph.Asset, error) error {
	return func(asset *graph.Asset, err error) error {
		if err != nil {
			return err
		}
		fmt.Fprintln(w, formatAsset(a, asset))
		return nil
	}
}

// formatAsset renders an asset as "<id> <publicId> <path>".
func formatAsset(a *app, asset *graph.Asset) string {
	return asset.ID + " " + a.session.DescribeAsset(asset)
}
