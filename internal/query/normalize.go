// Package query turns raw, loosely typed search options into a validated types.SearchQuery.
package query

import (
	"math"
	"strconv"
	"strings"
	"time"

	"github.com/bmatcuk/doublestar/v4"

	"github.com/standardbeagle/lgrep/internal/errors"
	"github.com/standardbeagle/lgrep/internal/types"
)

// RawOptions carries search options as supplied by a caller.
// Nil pointers and empty strings mean "not supplied".
type RawOptions struct {
	Pattern    string
	Path       string
	Glob       string
	OutputMode string

	Before  *int // -B
	After   *int // -A
	Context *int // -C, overrides Before and After

	LineNumbers     *bool // -n
	CaseInsensitive *bool // -i
	Multiline       *bool
	Hidden          *bool

	Types     []string // a single name or several; aliases allowed
	HeadLimit *int
	Timeout   *float64 // seconds, fractional allowed
}

// Defaults fills options the caller left unset, typically from the config file
type Defaults struct {
	HeadLimit   int // 0 = uncapped; an explicit RawOptions.HeadLimit of 0 is a real cap
	Timeout     float64
	LineNumbers bool
	Hidden      bool
}

// Normalizer validates RawOptions against a type table and defaults.
// It holds no per-call state and is safe for concurrent use.
type Normalizer struct {
	types    *TypeTable
	defaults Defaults
}

// NewNormalizer creates a normalizer. A nil table means the built-in table.
func NewNormalizer(table *TypeTable, defaults Defaults) *Normalizer {
	if table == nil {
		table = DefaultTypeTable()
	}
	return &Normalizer{types: table, defaults: defaults}
}

// Types returns the table used to resolve type names
func (n *Normalizer) Types() *TypeTable {
	return n.types
}

// Defaults returns the values applied to unset options
func (n *Normalizer) Defaults() Defaults {
	return n.defaults
}

// Normalize validates raw options with the built-in type table and no defaults
func Normalize(raw RawOptions) (types.SearchQuery, error) {
	return NewNormalizer(nil, Defaults{}).Normalize(raw)
}

// Normalize validates raw and returns the canonical query.
// Every failure is a *errors.ValidationError raised before any I/O.
func (n *Normalizer) Normalize(raw RawOptions) (types.SearchQuery, error) {
	var q types.SearchQuery

	if raw.Pattern == "" {
		return q, errors.NewValidationError("pattern", "", "must not be empty")
	}
	q.Pattern = raw.Pattern

	q.Root = strings.TrimSpace(raw.Path)
	if q.Root == "" {
		q.Root = types.DefaultPath
	}

	mode, ok := types.ParseOutputMode(strings.TrimSpace(raw.OutputMode))
	if !ok {
		return q, errors.NewValidationError("output_mode", raw.OutputMode,
			"must be one of content, files_with_matches, count")
	}
	q.Mode = mode

	if raw.Glob != "" {
		if !doublestar.ValidatePattern(raw.Glob) {
			return q, errors.NewValidationError("glob", raw.Glob, "malformed glob pattern")
		}
		q.Glob = raw.Glob
	}

	before, err := nonNegative("before_context", raw.Before, 0)
	if err != nil {
		return q, err
	}
	after, err := nonNegative("after_context", raw.After, 0)
	if err != nil {
		return q, err
	}
	if raw.Context != nil {
		c, err := nonNegative("context", raw.Context, 0)
		if err != nil {
			return q, err
		}
		before, after = c, c
	}
	q.Before, q.After = before, after

	q.LineNumbers = boolOr(raw.LineNumbers, n.defaults.LineNumbers)
	q.CaseInsensitive = boolOr(raw.CaseInsensitive, false)
	q.Multiline = boolOr(raw.Multiline, false)
	q.Hidden = boolOr(raw.Hidden, n.defaults.Hidden)

	q.Types, err = n.types.ResolveAll(raw.Types)
	if err != nil {
		return q, err
	}

	headDefault := types.NoHeadLimit
	if n.defaults.HeadLimit > 0 {
		headDefault = n.defaults.HeadLimit
	}
	q.HeadLimit, err = nonNegative("head_limit", raw.HeadLimit, headDefault)
	if err != nil {
		return q, err
	}

	seconds := n.defaults.Timeout
	if raw.Timeout != nil {
		seconds = *raw.Timeout
	}
	q.Timeout, err = timeoutDuration(seconds)
	if err != nil {
		return q, err
	}

	return q, nil
}

func nonNegative(field string, v *int, fallback int) (int, error) {
	if v == nil {
		return fallback, nil
	}
	if *v < 0 {
		return 0, errors.NewValidationError(field, strconv.Itoa(*v), "must not be negative")
	}
	return *v, nil
}

func boolOr(v *bool, fallback bool) bool {
	if v == nil {
		return fallback
	}
	return *v
}

// timeoutDuration converts fractional seconds; 0 means no deadline
func timeoutDuration(seconds float64) (time.Duration, error) {
	value := strconv.FormatFloat(seconds, 'f', -1, 64)
	switch {
	case math.IsNaN(seconds) || math.IsInf(seconds, 0):
		return 0, errors.NewValidationError("timeout", value, "must be a finite number of seconds")
	case seconds < 0:
		return 0, errors.NewValidationError("timeout", value, "must not be negative")
	case seconds > math.MaxInt64/float64(time.Second):
		return 0, errors.NewValidationError("timeout", value, "is too large")
	}
	d := time.Duration(seconds * float64(time.Second))
	if seconds > 0 && d == 0 {
		d = 1 // sub-nanosecond timeouts still set a deadline
	}
	return d, nil
}
