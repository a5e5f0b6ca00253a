// Package walker enumerates candidate files under a search root.
//
// Three independent predicates must all hold for a file to be yielded:
// ignore-rule traversal (hidden entries, ignore files, configured exclusions),
// the optional glob override, and the optional type filter. The glob override is
// applied while walking so it can prune directories; the type filter is applied to
// each enumerated file afterwards.
package walker

import (
	"io/fs"
	"iter"
	"os"
	"path/filepath"
	"strings"

	"github.com/standardbeagle/lgrep/internal/config"
	"github.com/standardbeagle/lgrep/internal/debug"
	"github.com/standardbeagle/lgrep/internal/errors"
)

// Options controls enumeration. The zero value searches everything that is not
// hidden, with ignore files disabled.
type Options struct {
	Hidden           bool          // include dot-prefixed entries
	RespectGitignore bool          // honor .gitignore, .ignore, .git/info/exclude and the global excludes file
	Exclude          []string      // doublestar globs relative to the root
	Glob             *GlobOverride // nil = no glob override
	Types            *TypeFilter   // nil = no type filter
}

// Entry is one candidate file
type Entry struct {
	Path    string // root joined with RelPath, for display
	RelPath string // slash separated, relative to the root
}

// Walker enumerates one root. It holds no state between calls to Entries.
type Walker struct {
	root   string
	absDir string // absolute directory walked; empty when the root is a file
	isFile bool
	opts   Options
	base   config.IgnoreRules // rules from above the root
}

// New validates the root and loads the ignore rules that apply above it.
// A missing root yields *errors.NotFoundError.
func New(root string, opts Options) (*Walker, error) {
	info, err := os.Stat(root)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, errors.NewNotFoundError(root)
		}
		return nil, errors.NewTraversalError(root, err)
	}

	w := &Walker{
		root: filepath.Clean(root),
		opts: opts,
	}

	if !info.IsDir() {
		if !info.Mode().IsRegular() {
			return nil, errors.NewTraversalError(root, fs.ErrInvalid)
		}
		w.isFile = true
		return w, nil
	}

	w.absDir, err = filepath.Abs(root)
	if err != nil {
		return nil, errors.NewTraversalError(root, err)
	}

	if opts.RespectGitignore {
		w.base, err = loadAncestorRules(w.absDir)
		if err != nil {
			return nil, errors.NewTraversalError(root, err)
		}
	}

	return w, nil
}

// Entries returns a lazy sequence of candidate files in lexical order per directory.
// A directory that cannot be read yields a *errors.TraversalError; callers stop there.
func (w *Walker) Entries() iter.Seq2[Entry, error] {
	return func(yield func(Entry, error) bool) {
		if w.isFile {
			rel := filepath.Base(w.root)
			if w.opts.Glob.MatchFile(rel) && w.opts.Types.Match(rel) {
				yield(Entry{Path: w.root, RelPath: rel}, nil)
			}
			return
		}
		w.walkDir(w.absDir, "", w.base, yield)
	}
}

// walkDir visits one directory. It returns false once the consumer stops or an error was yielded.
func (w *Walker) walkDir(absDir, relDir string, rules config.IgnoreRules, yield func(Entry, error) bool) bool {
	entries, err := os.ReadDir(absDir)
	if err != nil {
		yield(Entry{}, errors.NewTraversalError(w.displayPath(relDir), err))
		return false
	}

	if w.opts.RespectGitignore {
		parsers, err := config.LoadDirIgnores(absDir)
		if err != nil {
			yield(Entry{}, errors.NewTraversalError(w.displayPath(relDir), err))
			return false
		}
		for _, p := range parsers {
			rules = rules.Push(p)
		}
	}

	for _, de := range entries {
		name := de.Name()
		rel := name
		if relDir != "" {
			rel = relDir + "/" + name
		}
		abs := filepath.Join(absDir, name)

		if !w.keep(de, name, rel, abs, rules) {
			continue
		}

		if de.IsDir() {
			if !w.opts.Glob.EnterDir(rel) {
				debug.LogWalk("pruned %s: cannot match glob %q", rel, w.opts.Glob.Pattern())
				continue
			}
			if !w.walkDir(abs, rel, rules, yield) {
				return false
			}
			continue
		}

		// Symlinks are never followed; devices, sockets and pipes are never searched
		if !de.Type().IsRegular() {
			continue
		}

		if !w.opts.Glob.MatchFile(rel) {
			continue
		}
		if !w.opts.Types.Match(name) {
			continue
		}

		if !yield(Entry{Path: w.displayPath(rel), RelPath: rel}, nil) {
			return false
		}
	}
	return true
}

// keep applies the ignore-rule predicate to one directory entry
func (w *Walker) keep(de fs.DirEntry, name, rel, abs string, rules config.IgnoreRules) bool {
	isDir := de.IsDir()

	if isDir && name == ".git" {
		return false
	}
	if !w.opts.Hidden && strings.HasPrefix(name, ".") {
		return false
	}
	if excludeSet(w.opts.Exclude).match(rel) {
		debug.LogWalk("excluded %s by config", rel)
		return false
	}
	if rules.Len() > 0 && rules.ShouldIgnore(abs, isDir) {
		debug.LogWalk("ignored %s", rel)
		return false
	}
	return true
}

func (w *Walker) displayPath(rel string) string {
	if rel == "" {
		return w.root
	}
	return filepath.Join(w.root, filepath.FromSlash(rel))
}

// loadAncestorRules collects the rules that apply to absDir from above it: the global
// excludes file, .git/info/exclude, and ignore files in every directory from the
// repository root down to absDir's parent. Outside a repository nothing applies.
func loadAncestorRules(absDir string) (config.IgnoreRules, error) {
	var rules config.IgnoreRules

	repoRoot := findRepoRoot(absDir)
	if repoRoot == "" {
		return rules, nil
	}

	if global := config.GlobalGitignorePath(); global != "" {
		gp := config.NewGitignoreParser(repoRoot)
		if err := gp.LoadGitignore(global); err != nil {
			debug.LogWalk("skipping global excludes %s: %v", global, err)
		} else {
			rules = rules.Push(gp)
		}
	}

	exclude := config.NewGitignoreParser(repoRoot)
	if err := exclude.LoadGitignore(filepath.Join(repoRoot, ".git", "info", "exclude")); err == nil {
		rules = rules.Push(exclude)
	}

	for _, dir := range dirsBetween(repoRoot, absDir) {
		parsers, err := config.LoadDirIgnores(dir)
		if err != nil {
			return rules, err
		}
		for _, p := range parsers {
			rules = rules.Push(p)
		}
	}

	return rules, nil
}

// findRepoRoot returns the closest ancestor of dir (inclusive) holding a .git entry
func findRepoRoot(dir string) string {
	for {
		if _, err := os.Lstat(filepath.Join(dir, ".git")); err == nil {
			return dir
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			return ""
		}
		dir = parent
	}
}

// dirsBetween returns from, then every directory below it on the way to to, excluding to
func dirsBetween(from, to string) []string {
	rel, err := filepath.Rel(from, to)
	if err != nil || rel == "." || strings.HasPrefix(rel, "..") {
		return nil
	}

	dirs := []string{from}
	current := from
	parts := strings.Split(filepath.ToSlash(rel), "/")
	for _, part := range parts[:len(parts)-1] {
		current = filepath.Join(current, part)
		dirs = append(dirs, current)
	}
	return dirs
}
