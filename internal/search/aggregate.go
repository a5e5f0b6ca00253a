package search

import (
	"maps"
	"slices"
	"sort"
	"strconv"

	"github.com/standardbeagle/lgrep/internal/errors"
	"github.com/standardbeagle/lgrep/internal/types"
)

// mergeGap is the number of untouched lines two display intervals may have between
// them and still be shown as one range without a separator
const mergeGap = 1

// aggregate renders content-mode records as display lines.
// Files appear in the order their first record arrived; within a file, ranges are
// merged and emitted in line order with "--" between files and between ranges.
// A non-negative limit caps the number of emitted lines, separators included.
func aggregate(records []types.MatchRecord, lineNumbers bool, limit int) ([]string, error) {
	order, byFile := groupByFile(records)

	out := make([]string, 0)
	full := func() bool { return limit >= 0 && len(out) >= limit }

emit:
	for i, path := range order {
		ranges, err := buildRanges(byFile[path])
		if err != nil {
			return nil, err
		}

		if i > 0 {
			if full() {
				break
			}
			out = append(out, types.ContextSeparator)
		}

		for j, rg := range ranges {
			if j > 0 {
				if full() {
					break emit
				}
				out = append(out, types.ContextSeparator)
			}
			for _, line := range rg.Lines {
				if full() {
					break emit
				}
				out = append(out, formatLine(path, line, lineNumbers))
			}
		}
	}

	return out, nil
}

func groupByFile(records []types.MatchRecord) ([]string, map[string][]types.MatchRecord) {
	var order []string
	byFile := make(map[string][]types.MatchRecord)
	for _, r := range records {
		if _, seen := byFile[r.Path]; !seen {
			order = append(order, r.Path)
		}
		byFile[r.Path] = append(byFile[r.Path], r)
	}
	return order, byFile
}

// rangeBuilder accumulates one display range
type rangeBuilder struct {
	start, end int
	lines      map[int]types.DisplayLine
}

func newRangeBuilder(start, end int) *rangeBuilder {
	return &rangeBuilder{start: start, end: end, lines: make(map[int]types.DisplayLine)}
}

// addContext inserts lines numbered from first on, keeping lines already present
func (b *rangeBuilder) addContext(first int, texts []string) {
	for i, text := range texts {
		n := first + i
		if _, ok := b.lines[n]; !ok {
			b.lines[n] = types.DisplayLine{Number: n, Text: text}
		}
	}
}

// addMatch marks line n as a match. Match status is sticky: the first match text wins.
func (b *rangeBuilder) addMatch(n int, text string) {
	if existing, ok := b.lines[n]; ok && existing.IsMatch {
		return
	}
	b.lines[n] = types.DisplayLine{Number: n, Text: text, IsMatch: true}
}

func (b *rangeBuilder) build() types.DisplayRange {
	rg := types.DisplayRange{Start: b.start, End: b.end}
	for _, n := range slices.Sorted(maps.Keys(b.lines)) {
		rg.Lines = append(rg.Lines, b.lines[n])
	}
	return rg
}

// buildRanges merges the records of one file into display ranges.
// An interval start below line 1 means a scanner produced more before-context than
// the file has; that is reported instead of clamped.
func buildRanges(records []types.MatchRecord) ([]types.DisplayRange, error) {
	sorted := slices.Clone(records)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].LineNumber < sorted[j].LineNumber
	})

	var ranges []types.DisplayRange
	var cur *rangeBuilder

	for _, r := range sorted {
		start := r.LineNumber - len(r.Before)
		if start < 1 {
			return nil, errors.InternalError("%s:%d carries %d lines of before-context",
				r.Path, r.LineNumber, len(r.Before))
		}
		end := r.LineNumber
		if len(r.After) > 0 {
			end = r.LineNumber + len(r.After)
		}

		if cur == nil || start > cur.end+mergeGap+1 {
			if cur != nil {
				ranges = append(ranges, cur.build())
			}
			cur = newRangeBuilder(start, end)
		} else {
			cur.start = min(cur.start, start)
			cur.end = max(cur.end, end)
		}

		cur.addContext(start, r.Before)
		cur.addMatch(r.LineNumber, r.Line)
		cur.addContext(r.LineNumber+1, r.After)
	}

	if cur != nil {
		ranges = append(ranges, cur.build())
	}
	return ranges, nil
}

// formatLine renders path:N:text for matches, path-N:text for context, or path:text
// when line numbers are off
func formatLine(path string, line types.DisplayLine, lineNumbers bool) string {
	if !lineNumbers {
		return path + ":" + line.Text
	}
	sep := "-"
	if line.IsMatch {
		sep = ":"
	}
	return path + sep + strconv.Itoa(line.Number) + ":" + line.Text
}
