// Package cache locates and loads the persisted graphs in a build cache
// directory.
package cache

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/imbrian/parcel/internal/graph"
	"github.com/imbrian/parcel/internal/pack"
	"github.com/imbrian/parcel/internal/store"
)

// File names inside the cache directory.
const (
	SQLiteFile = "graphs.sqlite"
	PackFile   = "graphs.pack"
)

// ErrNoGraphs is returned when the cache directory holds neither format.
var ErrNoGraphs = errors.New("no graphs found in cache")

// Load reads the snapshot from dir. The SQLite database wins when both
// formats are present.
func Load(ctx context.Context, dir string, log *slog.Logger) (*graph.Snapshot, error) {
	info, err := os.Stat(dir)
	if err != nil {
		return nil, fmt.Errorf("cache directory: %w", err)
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("cache directory %s: not a directory", dir)
	}

	dbPath := filepath.Join(dir, SQLiteFile)
	packPath := filepath.Join(dir, PackFile)
	if exists(dbPath) {
		if exists(packPath) {
			log.Debug("ignoring pack, sqlite cache present", "path", packPath)
		}
		log.Debug("loading graphs", "format", "sqlite", "path", dbPath)
		return loadSQLite(ctx, dbPath)
	}

	if exists(packPath) {
		log.Debug("loading graphs", "format", "pack", "path", packPath)
		return loadPack(packPath)
	}

	return nil, fmt.Errorf("%s: %w", dir, ErrNoGraphs)
}

func exists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}

func loadSQLite(ctx context.Context, path string) (*graph.Snapshot, error) {
	db, err := store.Open(path)
	if err != nil {
		return nil, err
	}
	defer db.Close()

	snap, err := db.Load(ctx)
	if err != nil {
		return nil, fmt.Errorf("loading %s: %w", path, err)
	}
	return snap, nil
}

func loadPack(path string) (*graph.Snapshot, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("opening pack: %w", err)
	}
	defer f.Close()

	snap, err := pack.Read(f)
	if err != nil {
		return nil, fmt.Errorf("loading %s: %w", path, err)
	}
	return snap, nil
}

// WriteSQLite stores snap as the SQLite cache file in dir.
func WriteSQLite(ctx context.Context, dir string, snap *graph.Snapshot) error {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("creating cache directory: %w", err)
	}

	db, err := store.Open(filepath.Join(dir, SQLiteFile))
	if err != nil {
		return err
	}
	defer db.Close()

	if err := db.ApplySchema(ctx); err != nil {
		return err
	}
	return db.Save(ctx, snap)
}

// WritePack encodes snap as a pack file at path.
func WritePack(path string, snap *graph.Snapshot) error {
	data, err := pack.Build(snap)
	if err != nil {
		return err
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("writing pack: %w", err)
	}
	return nil
}
