// Package projectpath normalizes the project-relative file paths recorded
// in the build graphs.
package projectpath

import (
	"errors"
	"fmt"
	"path"
	"path/filepath"
	"strings"

	"github.com/go-git/go-git/v5"
)

// Normalize returns p as a slash-separated project path with any leading
// "./" removed. Graph paths are compared and printed in this form.
func Normalize(p string) string {
	p = filepath.ToSlash(p)
	for strings.HasPrefix(p, "./") {
		p = p[2:]
	}
	return p
}

// DetectRoot returns the root of the git worktree enclosing start. It
// returns start itself (absolute) when start is not inside a repository.
func DetectRoot(start string) (string, error) {
	abs, err := filepath.Abs(start)
	if err != nil {
		return "", fmt.Errorf("resolving %s: %w", start, err)
	}

	repo, err := git.PlainOpenWithOptions(abs, &git.PlainOpenOptions{DetectDotGit: true})
	if errors.Is(err, git.ErrRepositoryNotExists) {
		return abs, nil
	}
	if err != nil {
		return "", fmt.Errorf("opening repository: %w", err)
	}

	wt, err := repo.Worktree()
	if errors.Is(err, git.ErrIsBareRepository) {
		return abs, nil
	}
	if err != nil {
		return "", fmt.Errorf("opening worktree: %w", err)
	}
	return wt.Filesystem.Root(), nil
}

// Resolver maps paths that may be absolute onto project paths.
type Resolver struct {
	root string
}

// NewResolver creates a resolver for the project rooted at root.
func NewResolver(root string) *Resolver {
	return &Resolver{root: filepath.Clean(root)}
}

// Root returns the project root.
func (r *Resolver) Root() string {
	return r.root
}

// Relative returns p as a normalized project path. Absolute paths under the
// project root are made relative to it; everything else is only normalized.
func (r *Resolver) Relative(p string) string {
	if r == nil || r.root == "" || !filepath.IsAbs(p) {
		return Normalize(p)
	}

	rel, err := filepath.Rel(r.root, p)
	if err != nil || rel == ".." || strings.HasPrefix(filepath.ToSlash(rel), "../") {
		return Normalize(p)
	}
	return Normalize(path.Clean(filepath.ToSlash(rel)))
}
