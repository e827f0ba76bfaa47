// Package modulematch groups project paths into named modules via doublestar
// glob rules.
package modulematch

import (
	"fmt"
	"slices"

	"github.com/bmatcuk/doublestar/v4"
)

// ModuleRule names a module and the globs selecting its paths.
type ModuleRule struct {
	Name  string   `yaml:"name"`
	Paths []string `yaml:"paths"`
}

// Matcher assigns paths to modules. A nil Matcher has no rules.
type Matcher struct {
	modules []ModuleRule
}

// NewMatcher creates a matcher from a list of module rules. Rules keep their
// order; a path may belong to several modules.
func NewMatcher(modules []ModuleRule) *Matcher {
	return &Matcher{modules: modules}
}

// Validate reports the first rule with a missing name or a malformed
// pattern.
func (m *Matcher) Validate() error {
	for i, mod := range m.modules {
		if mod.Name == "" {
			return fmt.Errorf("module rule %d: missing name", i)
		}
		for _, pattern := range mod.Paths {
			if !doublestar.ValidatePattern(pattern) {
				return fmt.Errorf("module %s: invalid pattern %q", mod.Name, pattern)
			}
		}
	}
	return nil
}

// Empty reports whether the matcher has no rules.
func (m *Matcher) Empty() bool {
	return m == nil || len(m.modules) == 0
}

// Modules returns the rules in order.
func (m *Matcher) Modules() []ModuleRule {
	if m == nil {
		return nil
	}
	return m.modules
}

// MatchPath returns the names of the modules with a pattern matching path,
// in rule order.
func (m *Matcher) MatchPath(path string) []string {
	var names []string
	for _, mod := range m.Modules() {
		if slices.ContainsFunc(mod.Paths, func(pattern string) bool {
			ok, _ := doublestar.Match(pattern, path)
			return ok
		}) {
			names = append(names, mod.Name)
		}
	}
	return names
}

// Count returns the number of paths each module matches. Every module is
// present, with zero when nothing matched.
func (m *Matcher) Count(paths []string) map[string]int {
	counts := make(map[string]int, len(m.Modules()))
	for _, mod := range m.Modules() {
		counts[mod.Name] = 0
	}
	for _, path := range paths {
		for _, mod := range m.MatchPath(path) {
			counts[mod]++
		}
	}
	return counts
}
