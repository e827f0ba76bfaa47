package main

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/imbrian/parcel/internal/cache"
	"github.com/imbrian/parcel/internal/config"
	"github.com/imbrian/parcel/internal/graph"
	"github.com/imbrian/parcel/internal/logging"
	"github.com/imbrian/parcel/internal/projectpath"
	"github.com/imbrian/parcel/internal/query"
)

// Version is the current parcel-query version
var Version = "0.3.0"

var rootCmd = &cobra.Command{
	Use:   "parcel-query [command]",
	Short: "parcel-query - inspect a Parcel build graph cache",
	Long: `parcel-query loads the asset graph and bundle graph left in a Parcel build
cache and answers questions about them: how an asset is reached from the
entries, why it is in a bundle, where a mangled symbol comes from and what the
graphs are made of.

Run a single command, or start the interactive shell by giving none.`,
	Version:       Version,
	Args:          cobra.NoArgs,
	SilenceUsage:  true,
	SilenceErrors: true,
	RunE:          runShell,
}

var packCmd = &cobra.Command{
	Use:   "pack",
	Short: "Write the loaded graphs to a single pack file",
	Long: `Reads the graphs from the cache directory and writes them as one
zstd-compressed pack file with a BLAKE3 digest per section. A cache directory
holding the pack as graphs.pack is loaded like a SQLite cache.`,
	Args: cobra.NoArgs,
	RunE: runPack,
}

// Command groups for organized help output
const (
	groupQuery = "query"
	groupCache = "cache"
)

var (
	cacheDir   string
	configPath string
	logLevel   string
	logFormat  string
	packOut    string
)

// app is what every command runs against: the settings, the logger and the
// query session over the loaded graphs.
type app struct {
	cfg     config.Config
	log     *slog.Logger
	snap    *graph.Snapshot
	session *query.Session
}

func newApp(cfg config.Config, log *slog.Logger, snap *graph.Snapshot, root string) *app {
	return &app{
		cfg:  cfg,
		log:  log,
		snap: snap,
		session: query.NewSession(snap, query.Options{
			VendorMarker: cfg.VendorMarker,
			Modules:      cfg.Matcher(),
			Paths:        projectpath.NewResolver(root),
		}),
	}
}

// loadApp reads the configuration, applies flag overrides and loads the
// graphs from the cache directory.
func loadApp(cmd *cobra.Command) (*app, error) {
	cfg, err := config.Load(configPath, cmd.Flags().Changed("config"))
	if err != nil {
		return nil, err
	}
	if cacheDir != "" {
		cfg.CacheDir = cacheDir
	}
	if logLevel != "" {
		cfg.Log.Level = logLevel
	}
	if logFormat != "" {
		cfg.Log.Format = logFormat
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	log := logging.New(cfg.Log.Level, cfg.Log.Format, cmd.ErrOrStderr())

	root := cfg.ProjectRoot
	if root == "" {
		root, err = projectpath.DetectRoot(".")
		if err != nil {
			return nil, err
		}
	}

	snap, err := cache.Load(cmd.Context(), cfg.CacheDir, log)
	if err != nil {
		return nil, err
	}
	log.Debug("graphs loaded",
		"cache", cfg.CacheDir,
		"root", root,
		"asset_graph_nodes", snap.AssetGraph.Len(),
		"asset_graph_edges", snap.AssetGraph.EdgeCount(),
		"bundle_graph_nodes", snap.BundleGraph.Len(),
		"bundle_graph_edges", snap.BundleGraph.EdgeCount(),
	)

	return newApp(cfg, log, snap, root), nil
}

func runPack(cmd *cobra.Command, args []string) error {
	a, err := loadApp(cmd)
	if err != nil {
		return err
	}
	if err := cache.WritePack(packOut, a.snap); err != nil {
		return err
	}
	a.log.Info("pack written", "path", packOut)
	fmt.Fprintf(cmd.OutOrStdout(), "Wrote %s\n", packOut)
	return nil
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cacheDir, "cache", "", "Build cache directory (overrides cache_dir)")
	rootCmd.PersistentFlags().StringVar(&configPath, "config", config.DefaultFile, "Configuration file")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "", "Log level: debug, info, warn, error")
	rootCmd.PersistentFlags().StringVar(&logFormat, "log-format", "", "Log format: text, json")

	packCmd.Flags().StringVar(&packOut, "out", "", "Pack file to write")
	packCmd.MarkFlagRequired("out")

	rootCmd.AddGroup(
		&cobra.Group{ID: groupQuery, Title: "Queries:"},
		&cobra.Group{ID: groupCache, Title: "Cache:"},
	)

	for i := range commands {
		c := commands[i].cobraCommand()
		c.GroupID = groupQuery
		rootCmd.AddCommand(c)
	}

	packCmd.GroupID = groupCache
	rootCmd.AddCommand(packCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
