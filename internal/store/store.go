// Package store persists graph snapshots in a SQLite database.
package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"hash"

	_ "modernc.org/sqlite"

	"github.com/imbrian/parcel/internal/cas"
	"github.com/imbrian/parcel/internal/graph"
)

// Graph names used in the graph column.
const (
	AssetGraph  = "asset_graph"
	BundleGraph = "bundle_graph"
)

// ErrFingerprintMismatch is returned by Load when the stored rows no longer
// hash to the fingerprint recorded by Save.
var ErrFingerprintMismatch = errors.New("snapshot fingerprint mismatch")

const schema = `
CREATE TABLE IF NOT EXISTS nodes (
  graph TEXT NOT NULL,
  seq INTEGER NOT NULL,
  content_key TEXT NOT NULL,
  type TEXT NOT NULL,
  payload TEXT,
  PRIMARY KEY (graph, seq)
);
CREATE UNIQUE INDEX IF NOT EXISTS nodes_key ON nodes(graph, content_key);

CREATE TABLE IF NOT EXISTS edges (
  graph TEXT NOT NULL,
  src INTEGER NOT NULL,
  dst INTEGER NOT NULL,
  type TEXT NOT NULL,
  seq INTEGER NOT NULL,
  PRIMARY KEY (graph, src, dst, type)
);
CREATE INDEX IF NOT EXISTS edges_seq ON edges(graph, seq);

CREATE TABLE IF NOT EXISTS public_ids (
  seq INTEGER PRIMARY KEY,
  asset_id TEXT NOT NULL,
  public_id TEXT NOT NULL
);

CREATE TABLE IF NOT EXISTS bundle_info (
  bundle_id TEXT PRIMARY KEY,
  file_path TEXT NOT NULL,
  hash TEXT NOT NULL,
  size INTEGER NOT NULL
);

CREATE TABLE IF NOT EXISTS meta (
  key TEXT PRIMARY KEY,
  value TEXT NOT NULL
);
`

// DB wraps the SQLite database connection.
type DB struct {
	conn *sql.DB
}

// Open opens or creates the database at the given path.
func Open(dbPath string) (*DB, error) {
	conn, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}

	// Fail early if connection is bad
	if err := conn.Ping(); err != nil {
		conn.Close()
		return nil, fmt.Errorf("ping db: %w", err)
	}

	if _, err := conn.Exec("PRAGMA journal_mode=WAL"); err != nil {
		conn.Close()
		return nil, fmt.Errorf("enabling WAL mode: %w", err)
	}

	// Wait up to 5s on lock instead of failing immediately
	conn.Exec("PRAGMA busy_timeout=5000")

	return &DB{conn: conn}, nil
}

// Close closes the database connection.
func (db *DB) Close() error {
	return db.conn.Close()
}

// ApplySchema creates the tables if they do not exist.
func (db *DB) ApplySchema(ctx context.Context) error {
	if _, err := db.conn.ExecContext(ctx, schema); err != nil {
		return fmt.Errorf("applying schema: %w", err)
	}
	return nil
}

// Save replaces the stored snapshot with snap in a single transaction.
func (db *DB) Save(ctx context.Context, snap *graph.Snapshot) error {
	tx, err := db.conn.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback()

	for _, table := range []string{"nodes", "edges", "public_ids", "bundle_info", "meta"} {
		if _, err := tx.ExecContext(ctx, "DELETE FROM "+table); err != nil {
			return fmt.Errorf("clearing %s: %w", table, err)
		}
	}

	fp := newFingerprint()
	for _, g := range []struct {
		name string
		g    *graph.ContentGraph
	}{{AssetGraph, snap.AssetGraph}, {BundleGraph, snap.BundleGraph}} {
		if err := insertGraph(ctx, tx, g.name, g.g, fp); err != nil {
			return err
		}
	}

	for i, p := range snap.PublicIDs {
		_, err := tx.ExecContext(ctx, `
			INSERT INTO public_ids (seq, asset_id, public_id) VALUES (?, ?, ?)
		`, i, p.AssetID, p.PublicID)
		if err != nil {
			return fmt.Errorf("inserting public id: %w", err)
		}
		fp.add("public_id", p.AssetID, p.PublicID)
	}

	for id, info := range snap.BundleInfo {
		_, err := tx.ExecContext(ctx, `
			INSERT INTO bundle_info (bundle_id, file_path, hash, size) VALUES (?, ?, ?, ?)
		`, id, info.FilePath, info.Hash, info.Size)
		if err != nil {
			return fmt.Errorf("inserting bundle info: %w", err)
		}
	}

	_, err = tx.ExecContext(ctx, `
		INSERT INTO meta (key, value) VALUES ('fingerprint', ?)
	`, fp.sum())
	if err != nil {
		return fmt.Errorf("inserting fingerprint: %w", err)
	}

	return tx.Commit()
}

func insertGraph(ctx context.Context, tx *sql.Tx, name string, g *graph.ContentGraph, fp *fingerprint) error {
	if g == nil {
		return nil
	}

	nodes, edges, err := g.Records()
	if err != nil {
		return fmt.Errorf("encoding %s: %w", name, err)
	}

	for seq, n := range nodes {
		var payload any
		if len(n.Payload) > 0 {
			payload = string(n.Payload)
		}
		_, err := tx.ExecContext(ctx, `
			INSERT INTO nodes (graph, seq, content_key, type, payload) VALUES (?, ?, ?, ?, ?)
		`, name, seq, n.Key, string(n.Type), payload)
		if err != nil {
			return fmt.Errorf("inserting %s node %q: %w", name, n.Key, err)
		}
		fp.add(name, n.Key, string(n.Type), string(n.Payload))
	}

	for seq, e := range edges {
		_, err := tx.ExecContext(ctx, `
			INSERT OR IGNORE INTO edges (graph, src, dst, type, seq) VALUES (?, ?, ?, ?, ?)
		`, name, e.From, e.To, string(e.Type), seq)
		if err != nil {
			return fmt.Errorf("inserting %s edge: %w", name, err)
		}
		fp.add(name, fmt.Sprint(e.From), fmt.Sprint(e.To), string(e.Type))
	}
	return nil
}

// Load reads the stored snapshot back and checks it against the
// fingerprint Save recorded.
func (db *DB) Load(ctx context.Context) (*graph.Snapshot, error) {
	fp := newFingerprint()
	snap := &graph.Snapshot{BundleInfo: make(map[string]graph.BundleInfo)}

	var err error
	if snap.AssetGraph, err = db.loadGraph(ctx, AssetGraph, fp); err != nil {
		return nil, err
	}
	if snap.BundleGraph, err = db.loadGraph(ctx, BundleGraph, fp); err != nil {
		return nil, err
	}

	rows, err := db.conn.QueryContext(ctx, `SELECT asset_id, public_id FROM public_ids ORDER BY seq`)
	if err != nil {
		return nil, fmt.Errorf("querying public ids: %w", err)
	}
	defer rows.Close()
	for rows.Next() {
		var p graph.PublicID
		if err := rows.Scan(&p.AssetID, &p.PublicID); err != nil {
			return nil, fmt.Errorf("scanning public id: %w", err)
		}
		snap.PublicIDs = append(snap.PublicIDs, p)
		fp.add("public_id", p.AssetID, p.PublicID)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	infoRows, err := db.conn.QueryContext(ctx, `SELECT bundle_id, file_path, hash, size FROM bundle_info`)
	if err != nil {
		return nil, fmt.Errorf("querying bundle info: %w", err)
	}
	defer infoRows.Close()
	for infoRows.Next() {
		var id string
		var info graph.BundleInfo
		if err := infoRows.Scan(&id, &info.FilePath, &info.Hash, &info.Size); err != nil {
			return nil, fmt.Errorf("scanning bundle info: %w", err)
		}
		snap.BundleInfo[id] = info
	}
	if err := infoRows.Err(); err != nil {
		return nil, err
	}

	var stored string
	err = db.conn.QueryRowContext(ctx, `SELECT value FROM meta WHERE key = 'fingerprint'`).Scan(&stored)
	if err != nil && !errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("querying fingerprint: %w", err)
	}
	// Databases written by other tools carry no fingerprint.
	if err == nil && stored != fp.sum() {
		return nil, ErrFingerprintMismatch
	}

	return snap, nil
}

func (db *DB) loadGraph(ctx context.Context, name string, fp *fingerprint) (*graph.ContentGraph, error) {
	rows, err := db.conn.QueryContext(ctx, `
		SELECT content_key, type, payload FROM nodes WHERE graph = ? ORDER BY seq
	`, name)
	if err != nil {
		return nil, fmt.Errorf("querying %s nodes: %w", name, err)
	}
	defer rows.Close()

	var nodes []graph.NodeRecord
	for rows.Next() {
		var rec graph.NodeRecord
		var typ string
		var payload sql.NullString
		if err := rows.Scan(&rec.Key, &typ, &payload); err != nil {
			return nil, fmt.Errorf("scanning %s node: %w", name, err)
		}
		rec.Type = graph.NodeType(typ)
		if payload.Valid {
			rec.Payload = json.RawMessage(payload.String)
		}
		nodes = append(nodes, rec)
		fp.add(name, rec.Key, typ, payload.String)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	edgeRows, err := db.conn.QueryContext(ctx, `
		SELECT src, dst, type FROM edges WHERE graph = ? ORDER BY seq
	`, name)
	if err != nil {
		return nil, fmt.Errorf("querying %s edges: %w", name, err)
	}
	defer edgeRows.Close()

	var edges []graph.EdgeRecord
	for edgeRows.Next() {
		var e graph.EdgeRecord
		var typ string
		if err := edgeRows.Scan(&e.From, &e.To, &typ); err != nil {
			return nil, fmt.Errorf("scanning %s edge: %w", name, err)
		}
		e.Type = graph.EdgeType(typ)
		edges = append(edges, e)
		fp.add(name, fmt.Sprint(e.From), fmt.Sprint(e.To), typ)
	}
	if err := edgeRows.Err(); err != nil {
		return nil, err
	}

	g, err := graph.FromRecords(nodes, edges)
	if err != nil {
		return nil, fmt.Errorf("loading %s: %w", name, err)
	}
	return g, nil
}

// fingerprint hashes rows in the order they are written and read back.
type fingerprint struct {
	h hash.Hash
}

func newFingerprint() *fingerprint {
	return &fingerprint{h: cas.NewBlake3Hasher()}
}

func (f *fingerprint) add(fields ...string) {
	for _, s := range fields {
		f.h.Write([]byte(s))
		f.h.Write([]byte{0})
	}
	f.h.Write([]byte{'\n'})
}

func (f *fingerprint) sum() string {
	return fmt.Sprintf("%x", f.h.Sum(nil))
}
