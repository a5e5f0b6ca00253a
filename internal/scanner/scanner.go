// Package scanner runs a compiled matcher over one file at a time.
//
// All three entry points read the whole file into a buffer owned by the Scanner,
// decode it to UTF-8 and hand it to the matcher. Any failure to open, read or decode
// a file is returned as *errors.FileError; callers skip that file and continue.
package scanner

import (
	"bytes"
	"fmt"
	"os"

	"github.com/standardbeagle/lgrep/internal/debug"
	"github.com/standardbeagle/lgrep/internal/errors"
	"github.com/standardbeagle/lgrep/internal/matcher"
	"github.com/standardbeagle/lgrep/internal/types"
)

// Scanner is private to one search call; it must not be shared between goroutines
type Scanner struct {
	m           *matcher.Matcher
	maxFileSize int64 // 0 = unlimited
	buf         bytes.Buffer
}

// New creates a scanner for m. Files larger than maxFileSize bytes are skipped
// with a FileError; zero disables the limit.
func New(m *matcher.Matcher, maxFileSize int64) *Scanner {
	return &Scanner{m: m, maxFileSize: maxFileSize}
}

// Content returns one record per matching line of the file at path, in line order.
// Each record carries up to before preceding and after following lines, clamped to
// the file. Overlapping windows of neighboring matches are not deduplicated here.
func (s *Scanner) Content(path string, before, after int) ([]types.MatchRecord, error) {
	data, err := s.load(path)
	if err != nil {
		return nil, err
	}

	var matched []int
	s.m.ScanBytes(data, func(lineNo int, _ []byte) bool {
		matched = append(matched, lineNo)
		return true
	})
	if len(matched) == 0 {
		return nil, nil
	}

	lines := matcher.SplitLines(data)
	records := make([]types.MatchRecord, 0, len(matched))
	for _, lineNo := range matched {
		idx := lineNo - 1
		records = append(records, types.MatchRecord{
			Path:       path,
			LineNumber: lineNo,
			Line:       lines[idx],
			Before:     window(lines, idx-before, idx),
			After:      window(lines, idx+1, idx+1+after),
		})
	}

	debug.LogScan("%s: %d matching lines", path, len(records))
	return records, nil
}

// HasMatch reports whether any line of the file matches, stopping at the first hit
func (s *Scanner) HasMatch(path string) (bool, error) {
	data, err := s.load(path)
	if err != nil {
		return false, err
	}

	found := false
	s.m.ScanBytes(data, func(int, []byte) bool {
		found = true
		return false
	})
	return found, nil
}

// Count returns the number of matching lines in the file
func (s *Scanner) Count(path string) (int, error) {
	data, err := s.load(path)
	if err != nil {
		return 0, err
	}

	count := 0
	s.m.ScanBytes(data, func(int, []byte) bool {
		count++
		return true
	})
	return count, nil
}

// load reads path into the reusable buffer and returns its decoded text.
// The result is only valid until the next call.
func (s *Scanner) load(path string) ([]byte, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, errors.NewFileError("open", path, err)
	}
	defer file.Close()

	if s.maxFileSize > 0 {
		info, err := file.Stat()
		if err != nil {
			return nil, errors.NewFileError("stat", path, err)
		}
		if info.Size() > s.maxFileSize {
			return nil, errors.NewFileError("read", path,
				fmt.Errorf("file size %d exceeds limit %d", info.Size(), s.maxFileSize))
		}
	}

	s.buf.Reset()
	if _, err := s.buf.ReadFrom(file); err != nil {
		return nil, errors.NewFileError("read", path, err)
	}

	data, err := decodeText(s.buf.Bytes())
	if err != nil {
		return nil, errors.NewFileError("decode", path, err)
	}
	return data, nil
}

// window copies lines[lo:hi] after clamping both bounds to the slice
func window(lines []string, lo, hi int) []string {
	if lo < 0 {
		lo = 0
	}
	if hi > len(lines) {
		hi = len(lines)
	}
	if lo >= hi {
		return nil
	}
	out := make([]string, hi-lo)
	copy(out, lines[lo:hi])
	return out
}
