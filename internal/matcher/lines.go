package matcher

import (
	"bytes"
)

// LineScanner iterates over the lines of an in-memory buffer without allocating.
// Trailing "\n" and "\r\n" terminators are stripped.
//
//	ls := NewLineScanner(content)
//	for ls.Scan() {
//	    line := ls.Bytes()     // valid until the next Scan
//	    n := ls.LineNumber()   // 1-based
//	}
type LineScanner struct {
	data    []byte
	start   int // start of current line
	end     int // end of current line, exclusive, before the terminator
	pos     int // start of the next line
	lineNum int
}

// NewLineScanner creates a scanner over data
func NewLineScanner(data []byte) *LineScanner {
	return &LineScanner{data: data}
}

// Scan advances to the next line. Returns false when done.
// An empty buffer has no lines; a trailing terminator does not start a new line.
func (ls *LineScanner) Scan() bool {
	if ls.pos >= len(ls.data) {
		return false
	}

	ls.start = ls.pos
	ls.lineNum++

	idx := bytes.IndexByte(ls.data[ls.pos:], '\n')
	if idx < 0 {
		ls.end = len(ls.data)
		ls.pos = len(ls.data)
	} else {
		ls.end = ls.pos + idx
		ls.pos = ls.pos + idx + 1
	}

	if ls.end > ls.start && ls.data[ls.end-1] == '\r' {
		ls.end--
	}

	return true
}

// Bytes returns the current line (zero-copy)
func (ls *LineScanner) Bytes() []byte {
	return ls.data[ls.start:ls.end]
}

// LineNumber returns the current line number (1-based)
func (ls *LineScanner) LineNumber() int {
	return ls.lineNum
}

// Offset returns the byte offset of the current line start
func (ls *LineScanner) Offset() int {
	return ls.start
}

// SplitLines returns every line of data as a string, terminators stripped
func SplitLines(data []byte) []string {
	if len(data) == 0 {
		return nil
	}

	lines := make([]string, 0, bytes.Count(data, []byte{'\n'})+1)
	ls := NewLineScanner(data)
	for ls.Scan() {
		lines = append(lines, string(ls.Bytes()))
	}
	return lines
}

// lineOffsets returns the byte offset of the start of each line
func lineOffsets(data []byte) []int {
	if len(data) == 0 {
		return nil
	}

	offsets := make([]int, 0, bytes.Count(data, []byte{'\n'})+1)
	ls := NewLineScanner(data)
	for ls.Scan() {
		offsets = append(offsets, ls.Offset())
	}
	return offsets
}

// lineAtOffset returns the 1-based line containing byteOffset.
// Binary search for the largest line start <= byteOffset.
func lineAtOffset(offsets []int, byteOffset int) int {
	if len(offsets) == 0 {
		return 0
	}

	l, r := 0, len(offsets)-1
	for l < r {
		m := (l + r + 1) / 2
		if offsets[m] <= byteOffset {
			l = m
		} else {
			r = m - 1
		}
	}

	return l + 1
}
