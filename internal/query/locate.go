package query

import (
	"fmt"
	"regexp"

	"github.com/imbrian/parcel/internal/cas"
	"github.com/imbrian/parcel/internal/graph"
	"github.com/imbrian/parcel/internal/projectpath"
)

// ResolveAsset turns a locator into a canonical asset id. The rules are
// tried in order and the first that applies wins:
//
//  1. a 16-character string is taken as a canonical id as is;
//  2. an exact public id match;
//  3. a regular expression matched against normalized asset paths in asset
//     graph insertion order.
//
// The regular expression search returns the first match, not the best one.
func (s *Session) ResolveAsset(locator string) (string, error) {
	if len(locator) == cas.ShortIDLength {
		return locator, nil
	}

	if id, ok := s.bundles.AssetIDForPublicID(locator); ok {
		return id, nil
	}

	if locator == "" {
		return "", fmt.Errorf("asset %q: %w", locator, ErrNotFound)
	}

	a, err := s.findAsset(locator)
	if err != nil {
		return "", err
	}
	return a.ID, nil
}

// findAsset returns the first asset graph asset whose path matches pattern.
func (s *Session) findAsset(pattern string) (*graph.Asset, error) {
	re, err := compile(pattern)
	if err != nil {
		return nil, err
	}

	for _, n := range s.assets.All() {
		if a, ok := n.(*graph.AssetNode); ok && re.MatchString(projectpath.Normalize(a.Value.FilePath)) {
			return &a.Value, nil
		}
	}
	return nil, fmt.Errorf("asset %q: %w", pattern, ErrNotFound)
}

// ResolveBundle returns the id of the first bundle whose output path
// matches the locator as a regular expression, or whose id equals it.
func (s *Session) ResolveBundle(locator string) (string, error) {
	bundles, err := s.MatchBundles(locator)
	if err != nil {
		return "", err
	}
	if len(bundles) == 0 {
		return "", fmt.Errorf("bundle %q: %w", locator, ErrNotFound)
	}
	return bundles[0].ID, nil
}

// MatchBundles returns every bundle ResolveBundle would accept, in graph
// order.
func (s *Session) MatchBundles(locator string) ([]*graph.Bundle, error) {
	re, err := compile(locator)
	if err != nil {
		return nil, err
	}

	var matched []*graph.Bundle
	for _, b := range s.bundles.Bundles() {
		path, _ := s.bundles.BundleFilePath(b.ID)
		if re.MatchString(projectpath.Normalize(path)) || b.ID == locator {
			matched = append(matched, b)
		}
	}
	return matched, nil
}

func compile(pattern string) (*regexp.Regexp, error) {
	re, err := regexp.Compile(pattern)
	if err != nil {
		return nil, fmt.Errorf("pattern %q: %v: %w", pattern, err, ErrMalformedInput)
	}
	return re, nil
}
