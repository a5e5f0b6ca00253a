package walker

import (
	"path"
	"strings"

	"github.com/bmatcuk/doublestar/v4"
)

// GlobOverride restricts enumeration to files matching one glob.
// Everything is excluded, then files whose root-relative path or base name match
// the glob are re-included. Directories are pruned only when the glob starts with a
// static directory prefix that cannot lead to a match.
type GlobOverride struct {
	pattern string
	base    string // static prefix, "." when there is none
}

// NewGlobOverride returns nil for an empty pattern.
// A leading "./" refers to the root and is dropped.
func NewGlobOverride(pattern string) *GlobOverride {
	for strings.HasPrefix(pattern, "./") {
		pattern = strings.TrimLeft(pattern[2:], "/")
	}
	if pattern == "" {
		return nil
	}
	base, _ := doublestar.SplitPattern(pattern)
	if base == "/" || strings.HasPrefix(pattern, "**") {
		base = "."
	}
	return &GlobOverride{pattern: pattern, base: base}
}

// Pattern returns the glob as supplied
func (g *GlobOverride) Pattern() string {
	return g.pattern
}

// MatchFile reports whether a file is re-included. relPath is slash separated.
func (g *GlobOverride) MatchFile(relPath string) bool {
	if g == nil {
		return true
	}
	if matched, err := doublestar.Match(g.pattern, relPath); err == nil && matched {
		return true
	}
	if matched, err := doublestar.Match(g.pattern, path.Base(relPath)); err == nil && matched {
		return true
	}
	return false
}

// EnterDir reports whether a directory can contain matching files
func (g *GlobOverride) EnterDir(relDir string) bool {
	if g == nil || g.base == "." {
		return true
	}
	return relDir == g.base ||
		strings.HasPrefix(g.base, relDir+"/") ||
		strings.HasPrefix(relDir, g.base+"/")
}

// TypeFilter keeps files whose extension belongs to any selected type.
// It is evaluated after enumeration and is independent of GlobOverride.
type TypeFilter struct {
	extensions map[string]bool
}

// NewTypeFilter builds a filter from extensions without the dot.
// An empty list returns nil, meaning no type filter.
func NewTypeFilter(extensions []string) *TypeFilter {
	if len(extensions) == 0 {
		return nil
	}
	f := &TypeFilter{extensions: make(map[string]bool, len(extensions))}
	for _, ext := range extensions {
		f.extensions[strings.TrimPrefix(ext, ".")] = true
	}
	return f
}

// Match reports whether the file name has a selected extension
func (f *TypeFilter) Match(name string) bool {
	if f == nil {
		return true
	}
	name = path.Base(name)
	ext := path.Ext(name)
	if ext == "" || ext == name { // ".bashrc" has no extension
		return false
	}
	return f.extensions[ext[1:]]
}

// excludeSet holds configured exclusion globs matched against root-relative paths
type excludeSet []string

func (e excludeSet) match(relPath string) bool {
	for _, pattern := range e {
		if matched, err := doublestar.Match(pattern, relPath); err == nil && matched {
			return true
		}
	}
	return false
}
