package query

import (
	"fmt"
	"sort"
	"strings"

	"github.com/hbollon/go-edlib"

	"github.com/standardbeagle/lgrep/internal/errors"
)

// builtinTypes maps canonical type tags to the file extensions they cover
var builtinTypes = map[string][]string{
	"rust":       {"rs"},
	"python":     {"py", "pyw", "pyi"},
	"javascript": {"js", "jsx"},
	"typescript": {"ts", "tsx"},
	"java":       {"java"},
	"c":          {"c", "h"},
	"cpp":        {"cpp", "cxx", "cc", "hpp", "hxx"},
	"go":         {"go"},
	"ruby":       {"rb"},
	"php":        {"php"},
	"markdown":   {"md", "markdown"},
	"text":       {"txt"},
	"json":       {"json"},
	"xml":        {"xml"},
	"yaml":       {"yaml", "yml"},
	"toml":       {"toml"},
}

// builtinAliases maps short and colloquial names to canonical tags
var builtinAliases = map[string]string{
	"rs":  "rust",
	"py":  "python",
	"js":  "javascript",
	"ts":  "typescript",
	"c++": "cpp",
	"rb":  "ruby",
	"md":  "markdown",
	"txt": "text",
	"yml": "yaml",
}

// maxSuggestionDistance bounds the edit distance of a "did you mean" hint
const maxSuggestionDistance = 2

// TypeTable resolves type names to canonical tags and tags to extensions
type TypeTable struct {
	extensions map[string][]string
	aliases    map[string]string
	names      []string // every accepted name, sorted
}

var defaultTable = NewTypeTable(nil)

// DefaultTypeTable returns the built-in table
func DefaultTypeTable() *TypeTable {
	return defaultTable
}

// NewTypeTable returns the built-in table extended with user definitions.
// A user definition with a built-in name replaces that type's extensions.
func NewTypeTable(extra map[string][]string) *TypeTable {
	t := &TypeTable{
		extensions: make(map[string][]string, len(builtinTypes)+len(extra)),
		aliases:    make(map[string]string, len(builtinAliases)),
	}
	for tag, exts := range builtinTypes {
		t.extensions[tag] = exts
	}
	for alias, tag := range builtinAliases {
		t.aliases[alias] = tag
	}
	for name, exts := range extra {
		name = strings.ToLower(name)
		delete(t.aliases, name)
		t.extensions[name] = exts
	}

	for tag := range t.extensions {
		t.names = append(t.names, tag)
	}
	for alias := range t.aliases {
		t.names = append(t.names, alias)
	}
	sort.Strings(t.names)
	return t
}

// Resolve maps one type name to its canonical tag
func (t *TypeTable) Resolve(name string) (string, error) {
	normalized := strings.ToLower(strings.TrimSpace(name))

	if _, ok := t.extensions[normalized]; ok {
		return normalized, nil
	}
	if tag, ok := t.aliases[normalized]; ok {
		return tag, nil
	}

	reason := "unknown file type"
	if suggestion := t.Suggest(normalized); suggestion != "" {
		reason = fmt.Sprintf("unknown file type (did you mean '%s'?)", suggestion)
	}
	return "", errors.NewValidationError("type", name, reason)
}

// ResolveAll resolves a list of names, each of which may itself be comma separated.
// Tags are deduplicated in first-seen order; an empty input means no type filter.
func (t *TypeTable) ResolveAll(names []string) ([]string, error) {
	var resolved []string
	seen := make(map[string]bool)

	for _, item := range names {
		for _, name := range strings.Split(item, ",") {
			if strings.TrimSpace(name) == "" {
				continue
			}
			tag, err := t.Resolve(name)
			if err != nil {
				return nil, err
			}
			if !seen[tag] {
				seen[tag] = true
				resolved = append(resolved, tag)
			}
		}
	}

	return resolved, nil
}

// Suggest returns the closest accepted name within a small edit distance, or ""
func (t *TypeTable) Suggest(input string) string {
	bestMatch := ""
	bestDistance := maxSuggestionDistance + 1

	for _, name := range t.names {
		distance := edlib.LevenshteinDistance(input, name)
		if distance < bestDistance {
			bestDistance = distance
			bestMatch = name
		}
	}

	return bestMatch
}

// Extensions returns the union of extensions covered by the given canonical tags
func (t *TypeTable) Extensions(tags []string) []string {
	var out []string
	seen := make(map[string]bool)
	for _, tag := range tags {
		for _, ext := range t.extensions[tag] {
			if !seen[ext] {
				seen[ext] = true
				out = append(out, ext)
			}
		}
	}
	return out
}

// TypeInfo describes one canonical type for listings
type TypeInfo struct {
	Name       string   `json:"name"`
	Aliases    []string `json:"aliases,omitempty"`
	Extensions []string `json:"extensions"`
}

// List returns every canonical type sorted by name
func (t *TypeTable) List() []TypeInfo {
	aliasesByTag := make(map[string][]string)
	for alias, tag := range t.aliases {
		aliasesByTag[tag] = append(aliasesByTag[tag], alias)
	}

	out := make([]TypeInfo, 0, len(t.extensions))
	for tag, exts := range t.extensions {
		aliases := aliasesByTag[tag]
		sort.Strings(aliases)
		out = append(out, TypeInfo{Name: tag, Aliases: aliases, Extensions: exts})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out
}
