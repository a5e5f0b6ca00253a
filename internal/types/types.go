package types

import (
	"fmt"
	"time"
)

// Common system-wide constants
const (
	// File size limits
	DefaultMaxFileSize = 10 * 1024 * 1024 // 10MB per file
	// Rationale: generated or vendored blobs above this size are almost never
	// what a text search is after, and reading them dominates call latency.

	// Binary detection window
	BinaryPreCheckBytes = 8 * 1024 // Bytes inspected for a NUL byte before a file is treated as text

	// DefaultPath is used when the caller supplies no root path
	DefaultPath = "."

	// NoHeadLimit marks a SearchQuery without a result cap
	NoHeadLimit = -1

	// ContextSeparator separates non-adjacent display ranges and files in content output
	ContextSeparator = "--"
)

// OutputMode selects the shape of a search result
type OutputMode uint8

const (
	OutputFilesWithMatches OutputMode = iota // default
	OutputContent
	OutputCount
)

// String returns the wire name of the output mode
func (m OutputMode) String() string {
	switch m {
	case OutputContent:
		return "content"
	case OutputFilesWithMatches:
		return "files_with_matches"
	case OutputCount:
		return "count"
	default:
		return fmt.Sprintf("OutputMode(%d)", uint8(m))
	}
}

// ParseOutputMode maps a wire name to an OutputMode.
// The empty string maps to the default (files with matches).
func ParseOutputMode(s string) (OutputMode, bool) {
	switch s {
	case "":
		return OutputFilesWithMatches, true
	case "content":
		return OutputContent, true
	case "files_with_matches":
		return OutputFilesWithMatches, true
	case "count":
		return OutputCount, true
	default:
		return 0, false
	}
}

// SearchQuery is the validated, canonical form of one search call.
// It is built once by the query normalizer and never mutated afterwards.
type SearchQuery struct {
	Pattern string
	Root    string
	Glob    string   // empty = no glob override
	Types   []string // canonical type tags; empty = no type filter

	Mode   OutputMode
	Before int
	After  int

	LineNumbers     bool
	CaseInsensitive bool
	Multiline       bool
	Hidden          bool // include dot-prefixed entries

	HeadLimit int           // NoHeadLimit = uncapped; 0 is a cap that admits nothing
	Timeout   time.Duration // 0 = no deadline
}

// HasLimit reports whether a result cap is set
func (q SearchQuery) HasLimit() bool {
	return q.HeadLimit >= 0
}

// MatchRecord is one matching line plus its clamped context windows.
// Before is ordered oldest first, After nearest first.
type MatchRecord struct {
	Path       string
	LineNumber int // 1-based
	Line       string
	Before     []string
	After      []string
}

// CountRecord is the number of matching lines in one file (always > 0)
type CountRecord struct {
	Path  string `json:"path"`
	Count int    `json:"count"`
}

// DisplayLine is one retained line inside a DisplayRange
type DisplayLine struct {
	Number  int
	Text    string
	IsMatch bool
}

// DisplayRange is a merged, contiguous span of match and context lines in one file
type DisplayRange struct {
	Start int // inclusive
	End   int // inclusive
	Lines []DisplayLine
}

// Result holds exactly one populated shape, selected by Mode
type Result struct {
	Mode   OutputMode    `json:"-"`
	Lines  []string      `json:"lines,omitempty"`
	Files  []string      `json:"files,omitempty"`
	Counts []CountRecord `json:"counts,omitempty"`

	FilesScanned int `json:"files_scanned"`
}

// CountMap returns the count shape as a path → count mapping
func (r *Result) CountMap() map[string]int {
	m := make(map[string]int, len(r.Counts))
	for _, c := range r.Counts {
		m[c.Path] = c.Count
	}
	return m
}

// Len returns the number of emitted result units for the active mode
func (r *Result) Len() int {
	switch r.Mode {
	case OutputContent:
		return len(r.Lines)
	case OutputCount:
		return len(r.Counts)
	default:
		return len(r.Files)
	}
}

// Empty reports whether the call produced no results
func (r *Result) Empty() bool {
	return r.Len() == 0
}
