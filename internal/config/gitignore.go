package config

import (
	"bufio"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/bmatcuk/doublestar/v4"
)

// Ignore file names honored in every directory, lowest precedence first
var IgnoreFileNames = []string{".gitignore", ".ignore"}

// GitignoreParser holds the patterns of one ignore file.
// Patterns are matched against paths relative to the directory the file applies to.
type GitignoreParser struct {
	base     string // absolute, slash separated
	patterns []GitignorePattern
}

type GitignorePattern struct {
	Pattern   string
	Negate    bool
	Directory bool // trailing slash: only directories match
	Anchored  bool // contains a slash: matched against the whole relative path
}

// NewGitignoreParser creates an empty parser whose patterns are relative to base
func NewGitignoreParser(base string) *GitignoreParser {
	if abs, err := filepath.Abs(base); err == nil {
		base = abs
	}
	return &GitignoreParser{
		base:     filepath.ToSlash(base),
		patterns: make([]GitignorePattern, 0),
	}
}

// LoadGitignore reads patterns from path. A missing file is not an error.
func (gp *GitignoreParser) LoadGitignore(path string) error {
	file, err := os.Open(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return err
	}
	defer file.Close()

	return gp.scanAndParsePatterns(file)
}

// scanAndParsePatterns parses each line of r as a pattern
func (gp *GitignoreParser) scanAndParsePatterns(r io.Reader) error {
	scanner := bufio.NewScanner(r)
	for scanner.Scan() {
		gp.AddPattern(scanner.Text())
	}
	return scanner.Err()
}

// AddPattern adds a single pattern line; blank lines and comments are ignored
func (gp *GitignoreParser) AddPattern(line string) {
	line = strings.TrimRight(line, " \t\r")
	if line == "" || strings.HasPrefix(line, "#") {
		return
	}
	gp.patterns = append(gp.patterns, parsePattern(line))
}

// Len returns the number of patterns
func (gp *GitignoreParser) Len() int {
	return len(gp.patterns)
}

// parsePattern extracts pattern modifiers (!, trailing /, leading or inner /)
func parsePattern(line string) GitignorePattern {
	pattern := GitignorePattern{}

	if strings.HasPrefix(line, "!") {
		pattern.Negate = true
		line = line[1:]
	} else if strings.HasPrefix(line, `\!`) || strings.HasPrefix(line, `\#`) {
		line = line[1:]
	}

	if strings.HasSuffix(line, "/") {
		pattern.Directory = true
		line = strings.TrimRight(line, "/")
	}

	if strings.Contains(line, "/") {
		pattern.Anchored = true
		line = strings.TrimPrefix(line, "/")
	}

	pattern.Pattern = line
	return pattern
}

// Match reports whether the last pattern matching absPath ignores it.
// matched is false when no pattern applies, so the caller can defer to a parent file.
func (gp *GitignoreParser) Match(absPath string, isDir bool) (ignored bool, matched bool) {
	rel, ok := gp.relative(absPath)
	if !ok {
		return false, false
	}

	for i := len(gp.patterns) - 1; i >= 0; i-- {
		if gp.matchesPattern(gp.patterns[i], rel, isDir) {
			return !gp.patterns[i].Negate, true
		}
	}
	return false, false
}

// ShouldIgnore checks absPath against this file alone
func (gp *GitignoreParser) ShouldIgnore(absPath string, isDir bool) bool {
	ignored, _ := gp.Match(absPath, isDir)
	return ignored
}

func (gp *GitignoreParser) relative(absPath string) (string, bool) {
	p := filepath.ToSlash(absPath)
	if gp.base == "/" {
		return strings.TrimPrefix(p, "/"), p != "/"
	}
	if !strings.HasPrefix(p, gp.base+"/") {
		return "", false
	}
	return p[len(gp.base)+1:], true
}

func (gp *GitignoreParser) matchesPattern(pattern GitignorePattern, rel string, isDir bool) bool {
	if pattern.Directory && !isDir {
		return false
	}

	if pattern.Anchored {
		matched, _ := doublestar.Match(pattern.Pattern, rel)
		return matched
	}

	name := rel
	if i := strings.LastIndexByte(rel, '/'); i >= 0 {
		name = rel[i+1:]
	}
	matched, _ := doublestar.Match(pattern.Pattern, name)
	return matched
}

// IgnoreRules is an ordered stack of ignore files, lowest precedence first.
// Push returns a new stack so a directory's rules never leak into its siblings.
type IgnoreRules struct {
	files []*GitignoreParser
}

// Push returns rules extended with gp. Empty parsers are dropped.
func (r IgnoreRules) Push(gp *GitignoreParser) IgnoreRules {
	if gp == nil || gp.Len() == 0 {
		return r
	}
	files := make([]*GitignoreParser, len(r.files), len(r.files)+1)
	copy(files, r.files)
	return IgnoreRules{files: append(files, gp)}
}

// Len returns the number of ignore files on the stack
func (r IgnoreRules) Len() int {
	return len(r.files)
}

// ShouldIgnore asks the most specific file first; the first file with a matching
// pattern decides
func (r IgnoreRules) ShouldIgnore(absPath string, isDir bool) bool {
	for i := len(r.files) - 1; i >= 0; i-- {
		if ignored, matched := r.files[i].Match(absPath, isDir); matched {
			return ignored
		}
	}
	return false
}

// LoadDirIgnores loads the ignore files found directly in dir
func LoadDirIgnores(dir string) ([]*GitignoreParser, error) {
	var out []*GitignoreParser
	for _, name := range IgnoreFileNames {
		gp := NewGitignoreParser(dir)
		if err := gp.LoadGitignore(filepath.Join(dir, name)); err != nil {
			return nil, err
		}
		if gp.Len() > 0 {
			out = append(out, gp)
		}
	}
	return out, nil
}

// GlobalGitignorePath returns the user's global excludes file: core.excludesFile from
// ~/.gitconfig, else $XDG_CONFIG_HOME/git/ignore, else ~/.config/git/ignore.
// The empty string means none could be determined.
func GlobalGitignorePath() string {
	home, _ := os.UserHomeDir()

	if home != "" {
		if p := excludesFileFromGitconfig(filepath.Join(home, ".gitconfig")); p != "" {
			if strings.HasPrefix(p, "~/") {
				p = filepath.Join(home, p[2:])
			}
			return p
		}
	}

	if xdg := os.Getenv("XDG_CONFIG_HOME"); xdg != "" {
		return filepath.Join(xdg, "git", "ignore")
	}
	if home != "" {
		return filepath.Join(home, ".config", "git", "ignore")
	}
	return ""
}

// excludesFileFromGitconfig reads the excludesfile key of the [core] section
func excludesFileFromGitconfig(path string) string {
	file, err := os.Open(path)
	if err != nil {
		return ""
	}
	defer file.Close()

	inCore := false
	scanner := bufio.NewScanner(file)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || line[0] == '#' || line[0] == ';' {
			continue
		}
		if strings.HasPrefix(line, "[") {
			section := strings.ToLower(strings.Trim(line, "[] \t"))
			inCore = section == "core"
			continue
		}
		if !inCore {
			continue
		}
		key, value, ok := strings.Cut(line, "=")
		if !ok || !strings.EqualFold(strings.TrimSpace(key), "excludesfile") {
			continue
		}
		return strings.Trim(strings.TrimSpace(value), `"`)
	}
	return ""
}
