package cache

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/imbrian/parcel/internal/graph"
	"github.com/imbrian/parcel/internal/graph/graphtest"
	"github.com/imbrian/parcel/internal/logging"
)

func TestLoad_Pack(t *testing.T) {
	dir := t.TempDir()
	f := graphtest.Sample(t)
	require.NoError(t, WritePack(filepath.Join(dir, PackFile), f.Snapshot))

	snap, err := Load(context.Background(), dir, logging.Discard())
	require.NoError(t, err)
	assert.Equal(t, f.Snapshot.AssetGraph.Len(), snap.AssetGraph.Len())
	assert.Equal(t, f.Snapshot.PublicIDs, snap.PublicIDs)
}

func TestLoad_SQLite(t *testing.T) {
	dir := t.TempDir()
	f := graphtest.Sample(t)
	require.NoError(t, WriteSQLite(context.Background(), dir, f.Snapshot))

	snap, err := Load(context.Background(), dir, logging.Discard())
	require.NoError(t, err)
	assert.Equal(t, f.Snapshot.BundleGraph.Len(), snap.BundleGraph.Len())
	assert.Equal(t, f.Snapshot.BundleInfo, snap.BundleInfo)
}

func TestLoad_SQLiteWins(t *testing.T) {
	ctx := context.Background()
	dir := t.TempDir()

	require.NoError(t, WritePack(filepath.Join(dir, PackFile), graphtest.Sample(t).Snapshot))

	b := graphtest.New(t)
	b.Root()
	small := &graph.Snapshot{AssetGraph: b.Graph(), BundleGraph: graph.NewContentGraph()}
	require.NoError(t, WriteSQLite(ctx, dir, small))

	snap, err := Load(ctx, dir, logging.Discard())
	require.NoError(t, err)
	assert.Equal(t, 1, snap.AssetGraph.Len())
}

func TestLoad_Errors(t *testing.T) {
	ctx := context.Background()

	_, err := Load(ctx, filepath.Join(t.TempDir(), "missing"), logging.Discard())
	assert.ErrorIs(t, err, os.ErrNotExist)

	_, err = Load(ctx, t.TempDir(), logging.Discard())
	assert.ErrorIs(t, err, ErrNoGraphs)

	file := filepath.Join(t.TempDir(), "file")
	require.NoError(t, os.WriteFile(file, nil, 0644))
	_, err = Load(ctx, file, logging.Discard())
	assert.Error(t, err)
}
