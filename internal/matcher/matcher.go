// Package matcher compiles search patterns and finds matching lines in file content.
//
// Patterns use RE2 syntax. A Matcher is immutable after Compile; callers own the
// buffers they scan.
package matcher

import (
	"bytes"
	"regexp"

	"github.com/standardbeagle/lgrep/internal/errors"
)

// LineFunc receives each matching line with its 1-based number.
// Returning false stops the scan.
type LineFunc func(lineNo int, line []byte) bool

type Matcher struct {
	pattern   string
	re        *regexp.Regexp
	literal   []byte // set when the pattern has no metacharacters and no flags
	multiline bool
}

// Compile builds a matcher. Case-insensitive adds (?i); multiline adds (?ms), so the
// pattern is run over the whole file, ^ and $ match at line boundaries and . matches
// line terminators. A malformed pattern yields *errors.PatternError.
func Compile(pattern string, caseInsensitive, multiline bool) (*Matcher, error) {
	flags := ""
	if caseInsensitive {
		flags += "i"
	}
	if multiline {
		flags += "ms"
	}

	expr := pattern
	if flags != "" {
		expr = "(?" + flags + ")" + pattern
	}

	re, err := regexp.Compile(expr)
	if err != nil {
		return nil, errors.NewPatternError(pattern, err)
	}

	m := &Matcher{
		pattern:   pattern,
		re:        re,
		multiline: multiline,
	}
	if flags == "" && regexp.QuoteMeta(pattern) == pattern {
		m.literal = []byte(pattern)
	}
	return m, nil
}

// String returns the pattern as supplied
func (m *Matcher) String() string {
	return m.pattern
}

// Test reports whether line contains a match
func (m *Matcher) Test(line []byte) bool {
	if m.literal != nil {
		return bytes.Contains(line, m.literal)
	}
	return m.re.Match(line)
}

// ScanBytes calls fn for every matching line of data in ascending order.
// In multiline mode every line touched by a match is reported once.
func (m *Matcher) ScanBytes(data []byte, fn LineFunc) {
	if m.multiline {
		m.scanMultiline(data, fn)
		return
	}

	// Whole-buffer prefilter: a literal absent from the file cannot be on any line
	if m.literal != nil && !bytes.Contains(data, m.literal) {
		return
	}

	ls := NewLineScanner(data)
	for ls.Scan() {
		if m.Test(ls.Bytes()) && !fn(ls.LineNumber(), ls.Bytes()) {
			return
		}
	}
}

func (m *Matcher) scanMultiline(data []byte, fn LineFunc) {
	if len(data) == 0 {
		return
	}

	matches := m.re.FindAllIndex(data, -1)
	if len(matches) == 0 {
		return
	}

	offsets := lineOffsets(data)
	lastReported := 0
	for _, loc := range matches {
		first := lineAtOffset(offsets, loc[0])
		endByte := loc[1] - 1
		if endByte < loc[0] {
			endByte = loc[0]
		}
		last := lineAtOffset(offsets, endByte)

		if first <= lastReported {
			first = lastReported + 1
		}
		for n := first; n <= last; n++ {
			if !fn(n, lineBytes(data, offsets, n)) {
				return
			}
			lastReported = n
		}
	}
}

// lineBytes returns line n (1-based) without its terminator
func lineBytes(data []byte, offsets []int, n int) []byte {
	start := offsets[n-1]
	end := len(data)
	if n < len(offsets) {
		end = offsets[n] - 1 // drop '\n'
	} else if end > start && data[end-1] == '\n' {
		end--
	}
	if end > start && data[end-1] == '\r' {
		end--
	}
	return data[start:end]
}
