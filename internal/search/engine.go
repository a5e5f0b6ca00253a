// Package search runs one grep-style search call: compile the pattern, walk the
// root, scan each candidate file and assemble the result for the requested mode.
//
// A call is strictly sequential and owns all of its state. The Engine itself only
// holds immutable configuration, so any number of calls may run concurrently.
package search

import (
	"context"
	stderrors "errors"
	"slices"
	"time"

	"github.com/standardbeagle/lgrep/internal/config"
	"github.com/standardbeagle/lgrep/internal/debug"
	"github.com/standardbeagle/lgrep/internal/errors"
	"github.com/standardbeagle/lgrep/internal/matcher"
	"github.com/standardbeagle/lgrep/internal/query"
	"github.com/standardbeagle/lgrep/internal/scanner"
	"github.com/standardbeagle/lgrep/internal/types"
	"github.com/standardbeagle/lgrep/internal/walker"
)

type Engine struct {
	cfg        *config.Config
	normalizer *query.Normalizer
	now        func() time.Time
}

// NewEngine creates an engine. A nil config means config.Default().
// The config must not be modified afterwards.
func NewEngine(cfg *config.Config) *Engine {
	if cfg == nil {
		cfg = config.Default()
	}
	defaults := query.Defaults{
		HeadLimit:   cfg.Search.HeadLimit,
		Timeout:     cfg.Search.TimeoutSec,
		LineNumbers: cfg.Search.LineNumbers,
		Hidden:      cfg.Search.Hidden,
	}
	return &Engine{
		cfg:        cfg,
		normalizer: query.NewNormalizer(query.NewTypeTable(cfg.Types), defaults),
		now:        time.Now,
	}
}

// Normalizer returns the normalizer SearchOptions uses, with config defaults applied
func (e *Engine) Normalizer() *query.Normalizer {
	return e.normalizer
}

// SearchOptions normalizes raw options and runs the search
func (e *Engine) SearchOptions(ctx context.Context, raw query.RawOptions) (*types.Result, error) {
	q, err := e.normalizer.Normalize(raw)
	if err != nil {
		return nil, err
	}
	return e.Search(ctx, q)
}

// Search runs one call. Errors are fatal and discard partial results:
// validation and pattern errors before any I/O, *errors.NotFoundError for a missing
// root, *errors.TraversalError when a directory cannot be read, and
// *errors.TimeoutError or *errors.CanceledError at a file boundary.
// Files that cannot be read or decoded are skipped.
func (e *Engine) Search(ctx context.Context, q types.SearchQuery) (*types.Result, error) {
	m, err := matcher.Compile(q.Pattern, q.CaseInsensitive, q.Multiline)
	if err != nil {
		return nil, err
	}

	w, err := walker.New(q.Root, walker.Options{
		Hidden:           q.Hidden,
		RespectGitignore: e.cfg.Search.RespectGitignore,
		Exclude:          e.cfg.Exclude,
		Glob:             walker.NewGlobOverride(q.Glob),
		Types:            walker.NewTypeFilter(e.normalizer.Types().Extensions(q.Types)),
	})
	if err != nil {
		return nil, err
	}

	c := &call{
		query:   q,
		walker:  w,
		scanner: scanner.New(m, e.cfg.Search.MaxFileSize),
		guard:   newGuard(ctx, q.Timeout, e.now),
	}

	debug.LogSearch("pattern=%q root=%s mode=%s glob=%q types=%v", q.Pattern, q.Root, q.Mode, q.Glob, q.Types)

	result, err := c.run()
	if err != nil {
		debug.LogSearch("aborted after %d files: %v", c.scanned, err)
		return nil, err
	}
	debug.LogSearch("done: %d results, %d files scanned", result.Len(), result.FilesScanned)
	return result, nil
}

// call is the private state of one search
type call struct {
	query   types.SearchQuery
	walker  *walker.Walker
	scanner *scanner.Scanner
	guard   *guard
	scanned int
}

func (c *call) run() (*types.Result, error) {
	// A deadline that has already passed fails before the first entry
	if err := c.guard.check(0); err != nil {
		return nil, err
	}

	result := &types.Result{Mode: c.query.Mode}
	if c.query.HasLimit() && c.query.HeadLimit == 0 {
		// A zero cap admits nothing; no file is read
		result.Lines = []string{}
		result.Files = []string{}
		result.Counts = []types.CountRecord{}
		return result, nil
	}

	var err error
	switch c.query.Mode {
	case types.OutputContent:
		result.Lines, err = c.content()
	case types.OutputCount:
		result.Counts, err = c.count()
	default:
		result.Files, err = c.files()
	}
	if err != nil {
		return nil, err
	}
	result.FilesScanned = c.scanned
	return result, nil
}

// each drives the traversal loop shared by every mode. visit returns false to stop.
func (c *call) each(visit func(walker.Entry) (bool, error)) error {
	for entry, walkErr := range c.walker.Entries() {
		if err := c.guard.check(c.scanned); err != nil {
			return err
		}
		if walkErr != nil {
			return walkErr
		}

		more, err := visit(entry)
		c.scanned++
		if err != nil {
			if !skippable(err) {
				return err
			}
			debug.LogSearch("skipping %s: %v", entry.Path, err)
			continue
		}
		if !more {
			return nil
		}
	}
	return nil
}

func (c *call) content() ([]string, error) {
	var records []types.MatchRecord
	err := c.each(func(entry walker.Entry) (bool, error) {
		found, err := c.scanner.Content(entry.Path, c.query.Before, c.query.After)
		if err != nil {
			return true, err
		}
		records = append(records, found...)
		return true, nil
	})
	if err != nil {
		return nil, err
	}
	return aggregate(records, c.query.LineNumbers, c.query.HeadLimit)
}

func (c *call) files() ([]string, error) {
	seen := make(map[string]bool)
	files := make([]string, 0)
	err := c.each(func(entry walker.Entry) (bool, error) {
		found, err := c.scanner.HasMatch(entry.Path)
		if err != nil {
			return true, err
		}
		if found && !seen[entry.Path] {
			seen[entry.Path] = true
			files = append(files, entry.Path)
		}
		return !c.capped(len(files)), nil
	})
	if err != nil {
		return nil, err
	}
	slices.Sort(files)
	return files, nil
}

func (c *call) count() ([]types.CountRecord, error) {
	counts := make([]types.CountRecord, 0)
	err := c.each(func(entry walker.Entry) (bool, error) {
		n, err := c.scanner.Count(entry.Path)
		if err != nil {
			return true, err
		}
		if n > 0 {
			counts = append(counts, types.CountRecord{Path: entry.Path, Count: n})
		}
		return !c.capped(len(counts)), nil
	})
	if err != nil {
		return nil, err
	}
	return counts, nil
}

func (c *call) capped(n int) bool {
	return c.query.HasLimit() && n >= c.query.HeadLimit
}

// skippable reports whether err only affects the file being scanned
func skippable(err error) bool {
	var fileErr *errors.FileError
	return stderrors.As(err, &fileErr)
}
