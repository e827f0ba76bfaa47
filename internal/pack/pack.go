// Package pack encodes a graph snapshot as a single zstd-compressed file.
package pack

import (
	"bytes"
	"encoding/binary"
	"encoding/json"
	"errors"
	"fmt"
	"io"

	"github.com/klauspost/compress/zstd"

	"github.com/imbrian/parcel/internal/cas"
	"github.com/imbrian/parcel/internal/graph"
)

// Pack format:
// [4 bytes: header length (big-endian)]
// [header JSON: Header]
// [section data...]
//
// The header lists each section's name, offset (relative to data start),
// length and BLAKE3 digest. The whole stream is zstd-compressed.

const (
	HeaderLengthSize = 4
	MaxHeaderSize    = 1024 * 1024 // 1MB max header
)

// Section names.
const (
	SectionAssetGraph  = "asset_graph"
	SectionBundleGraph = "bundle_graph"
	SectionPublicIDs   = "public_ids"
	SectionBundleInfo  = "bundle_info"
)

var (
	// ErrDigestMismatch is returned when a section does not hash to the
	// digest its header entry records.
	ErrDigestMismatch = errors.New("section digest mismatch")

	// ErrMissingSection is returned when a required section is absent.
	ErrMissingSection = errors.New("missing section")

	// ErrSectionBounds is returned when a header entry points outside the
	// data area.
	ErrSectionBounds = errors.New("section extends beyond data")
)

// Header describes the sections of a pack.
type Header struct {
	Version  int            `json:"version"`
	Sections []SectionEntry `json:"sections"`
}

// SectionEntry locates one section in the data area.
type SectionEntry struct {
	Name   string `json:"name"`
	Offset int64  `json:"offset"`
	Length int64  `json:"length"`
	Digest []byte `json:"digest"`
}

type graphSection struct {
	Nodes []graph.NodeRecord `json:"nodes"`
	Edges []graph.EdgeRecord `json:"edges"`
}

// Build encodes snap as a compressed pack.
func Build(snap *graph.Snapshot) ([]byte, error) {
	type section struct {
		name    string
		content any
	}

	var sections []section
	for _, g := range []struct {
		name string
		g    *graph.ContentGraph
	}{{SectionAssetGraph, snap.AssetGraph}, {SectionBundleGraph, snap.BundleGraph}} {
		if g.g == nil {
			g.g = graph.NewContentGraph()
		}
		nodes, edges, err := g.g.Records()
		if err != nil {
			return nil, fmt.Errorf("encoding %s: %w", g.name, err)
		}
		sections = append(sections, section{g.name, graphSection{Nodes: nodes, Edges: edges}})
	}

	publicIDs := snap.PublicIDs
	if publicIDs == nil {
		publicIDs = []graph.PublicID{}
	}
	bundleInfo := snap.BundleInfo
	if bundleInfo == nil {
		bundleInfo = map[string]graph.BundleInfo{}
	}
	sections = append(sections,
		section{SectionPublicIDs, publicIDs},
		section{SectionBundleInfo, bundleInfo},
	)

	header := Header{Version: 1}
	var data bytes.Buffer
	for _, s := range sections {
		content, err := cas.CanonicalJSON(s.content)
		if err != nil {
			return nil, fmt.Errorf("marshaling %s: %w", s.name, err)
		}
		header.Sections = append(header.Sections, SectionEntry{
			Name:   s.name,
			Offset: int64(data.Len()),
			Length: int64(len(content)),
			Digest: cas.Blake3Hash(content),
		})
		data.Write(content)
	}

	headerJSON, err := json.Marshal(header)
	if err != nil {
		return nil, fmt.Errorf("marshaling header: %w", err)
	}

	var raw bytes.Buffer
	headerLen := make([]byte, HeaderLengthSize)
	binary.BigEndian.PutUint32(headerLen, uint32(len(headerJSON)))
	raw.Write(headerLen)
	raw.Write(headerJSON)
	raw.Write(data.Bytes())

	var compressed bytes.Buffer
	encoder, err := zstd.NewWriter(&compressed)
	if err != nil {
		return nil, fmt.Errorf("creating zstd encoder: %w", err)
	}
	if _, err := encoder.Write(raw.Bytes()); err != nil {
		encoder.Close()
		return nil, fmt.Errorf("compressing: %w", err)
	}
	if err := encoder.Close(); err != nil {
		return nil, fmt.Errorf("closing encoder: %w", err)
	}

	return compressed.Bytes(), nil
}

// Read decodes a pack, verifying every section digest.
func Read(r io.Reader) (*graph.Snapshot, error) {
	decoder, err := zstd.NewReader(r)
	if err != nil {
		return nil, fmt.Errorf("creating zstd decoder: %w", err)
	}
	defer decoder.Close()

	decompressed, err := io.ReadAll(decoder)
	if err != nil {
		return nil, fmt.Errorf("decompressing: %w", err)
	}

	sections, err := parse(decompressed)
	if err != nil {
		return nil, err
	}

	snap := &graph.Snapshot{}
	for _, name := range []string{SectionAssetGraph, SectionBundleGraph} {
		var gs graphSection
		if err := decodeSection(sections, name, &gs); err != nil {
			return nil, err
		}
		g, err := graph.FromRecords(gs.Nodes, gs.Edges)
		if err != nil {
			return nil, fmt.Errorf("loading %s: %w", name, err)
		}
		if name == SectionAssetGraph {
			snap.AssetGraph = g
		} else {
			snap.BundleGraph = g
		}
	}

	if err := decodeSection(sections, SectionPublicIDs, &snap.PublicIDs); err != nil {
		return nil, err
	}
	if err := decodeSection(sections, SectionBundleInfo, &snap.BundleInfo); err != nil {
		return nil, err
	}
	return snap, nil
}

// parse splits a decompressed pack into verified sections by name.
func parse(decompressed []byte) (map[string][]byte, error) {
	if len(decompressed) < HeaderLengthSize {
		return nil, fmt.Errorf("pack too small: %d bytes", len(decompressed))
	}

	headerLen := binary.BigEndian.Uint32(decompressed[:HeaderLengthSize])
	if headerLen > MaxHeaderSize {
		return nil, fmt.Errorf("header too large: %d bytes", headerLen)
	}
	if int(HeaderLengthSize+headerLen) > len(decompressed) {
		return nil, fmt.Errorf("header length exceeds pack size")
	}

	var header Header
	if err := json.Unmarshal(decompressed[HeaderLengthSize:HeaderLengthSize+headerLen], &header); err != nil {
		return nil, fmt.Errorf("parsing header: %w", err)
	}

	data := decompressed[HeaderLengthSize+headerLen:]
	sections := make(map[string][]byte, len(header.Sections))
	for _, s := range header.Sections {
		// The header is not digested; compare without adding so a crafted
		// offset cannot overflow.
		size := int64(len(data))
		if s.Offset < 0 || s.Length < 0 || s.Offset > size || s.Length > size-s.Offset {
			return nil, fmt.Errorf("section %s: %w", s.Name, ErrSectionBounds)
		}
		content := data[s.Offset : s.Offset+s.Length]
		if !cas.Verify(content, s.Digest) {
			return nil, fmt.Errorf("section %s: %w", s.Name, ErrDigestMismatch)
		}
		sections[s.Name] = content
	}
	return sections, nil
}

func decodeSection(sections map[string][]byte, name string, v any) error {
	content, ok := sections[name]
	if !ok {
		return fmt.Errorf("%s: %w", name, ErrMissingSection)
	}
	if err := json.Unmarshal(content, v); err != nil {
		return fmt.Errorf("parsing %s: %w", name, err)
	}
	return nil
}
