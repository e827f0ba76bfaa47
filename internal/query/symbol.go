package query

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/imbrian/parcel/internal/graph"
	"github.com/imbrian/parcel/internal/projectpath"
)

var mangledName = regexp.MustCompile(`^\$([^$]+)\$([^$]+)\$(.*)$`)

// ExportBinding is the binding segment of exported symbols.
const ExportBinding = "export"

// MangledName is a parsed $<assetId>$<binding>$<rest> symbol name.
type MangledName struct {
	AssetID string
	Binding string
	Rest    string
}

// ParseMangledName splits a mangled symbol name into its segments.
func ParseMangledName(s string) (MangledName, error) {
	m := mangledName.FindStringSubmatch(s)
	if m == nil {
		return MangledName{}, fmt.Errorf("symbol %s could not be parsed: %w", s, ErrMalformedInput)
	}
	return MangledName{AssetID: m[1], Binding: m[2], Rest: m[3]}, nil
}

// SymbolReport explains where a mangled symbol comes from.
type SymbolReport struct {
	// Asset is the asset the symbol was traced to.
	Asset *graph.Asset
	// Lines holds the headline followed by one line per finding.
	Lines []string
}

func (r *SymbolReport) String() string {
	return strings.Join(r.Lines, "\n")
}

// ResolveSymbol traces a mangled symbol name back to the asset that
// declares it. The asset is looked up by the build id in the name; if the
// asset has been rehashed since, the first asset with a symbol whose local
// name is the full mangled name is used instead. That fallback is best
// effort and does not check that the match is unique.
func (s *Session) ResolveSymbol(mangled string) (*SymbolReport, error) {
	name, err := ParseMangledName(mangled)
	if err != nil {
		return nil, err
	}

	asset := s.assetByBuildID(name.AssetID)
	if asset == nil {
		asset = s.assetWithLocal(mangled)
	}
	if asset == nil {
		return nil, fmt.Errorf("an asset for %s: %w", name.AssetID, ErrNotFound)
	}

	r := &SymbolReport{Asset: asset, Lines: []string{s.DescribeAsset(asset)}}

	switch {
	case name.Binding == ExportBinding:
		for _, sym := range asset.Symbols {
			if sym.Local != mangled {
				continue
			}
			r.Lines = append(r.Lines, s.describeImport(sym))
		}
	case name.Rest != "":
		r.Lines = append(r.Lines, fmt.Sprintf("possibly defined as `%s`", name.Rest))
	}
	return r, nil
}

func (s *Session) assetByBuildID(buildID string) *graph.Asset {
	for _, n := range s.assets.All() {
		if a, ok := n.(*graph.AssetNode); ok && a.Value.BuildID() == buildID {
			return &a.Value
		}
	}
	return nil
}

func (s *Session) assetWithLocal(local string) *graph.Asset {
	for _, n := range s.assets.All() {
		a, ok := n.(*graph.AssetNode)
		if !ok {
			continue
		}
		for _, sym := range a.Value.Symbols {
			if sym.Local == local {
				return &a.Value
			}
		}
	}
	return nil
}

func (s *Session) describeImport(sym graph.Symbol) string {
	if sym.Loc == nil {
		return fmt.Sprintf("imported as `%s`", sym.Exported)
	}

	locPath := s.opts.Paths.Relative(sym.Loc.FilePath)
	locAsset := s.assetByPath(locPath)
	if locAsset == nil {
		return fmt.Sprintf("imported as `%s` from `%s`", sym.Exported, locPath)
	}

	if publicID, ok := s.publicID(locAsset); ok {
		return publicID + " " + projectpath.Normalize(locAsset.FilePath)
	}
	return fmt.Sprintf("imported as `%s` from `%s`", sym.Exported, projectpath.Normalize(locAsset.FilePath))
}

func (s *Session) assetByPath(p string) *graph.Asset {
	for _, n := range s.assets.All() {
		if a, ok := n.(*graph.AssetNode); ok && projectpath.Normalize(a.Value.FilePath) == p {
			return &a.Value
		}
	}
	return nil
}

// publicID returns the public id of an asset still present in the bundle
// graph.
func (s *Session) publicID(asset *graph.Asset) (string, bool) {
	a, err := s.bundles.AssetByID(asset.ID)
	if err != nil {
		return "", false
	}
	publicID, err := s.bundles.AssetPublicID(a)
	if err != nil {
		return "", false
	}
	return publicID, true
}

// DescribeAsset renders an asset as "<publicId> <path>", or just its path
// when the bundle graph no longer has it.
func (s *Session) DescribeAsset(asset *graph.Asset) string {
	path := projectpath.Normalize(asset.FilePath)
	if publicID, ok := s.publicID(asset); ok {
		return publicID + " " + path
	}
	return path
}
