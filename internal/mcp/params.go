package mcp

import (
	"encoding/json"
	"fmt"
	"sort"
	"strings"

	"github.com/standardbeagle/lgrep/internal/query"
)

// GrepParams are the arguments of the grep tool. The flag-style keys mirror the
// ripgrep options clients already know.
type GrepParams struct {
	Pattern    string `json:"pattern"`
	Path       string `json:"path,omitempty"`
	Glob       string `json:"glob,omitempty"`
	OutputMode string `json:"output_mode,omitempty"`

	Before          *int  `json:"-B,omitempty"`
	After           *int  `json:"-A,omitempty"`
	Context         *int  `json:"-C,omitempty"`
	LineNumbers     *bool `json:"-n,omitempty"`
	CaseInsensitive *bool `json:"-i,omitempty"`

	Type      TypeList `json:"type,omitempty"`
	HeadLimit *int     `json:"head_limit,omitempty"`
	Multiline *bool    `json:"multiline,omitempty"`
	Hidden    *bool    `json:"hidden,omitempty"`
	Timeout   *float64 `json:"timeout,omitempty"`

	// Warnings about ignored or renamed parameters; never decoded from input
	Warnings []string `json:"-"`
}

// TypeList accepts either a single type name or an array of names
type TypeList []string

func (t *TypeList) UnmarshalJSON(data []byte) error {
	var single string
	if err := json.Unmarshal(data, &single); err == nil {
		if single == "" {
			*t = nil
		} else {
			*t = TypeList{single}
		}
		return nil
	}

	var many []string
	if err := json.Unmarshal(data, &many); err != nil {
		return fmt.Errorf("type must be a string or an array of strings")
	}
	*t = many
	return nil
}

var grepKnownFields = map[string]struct{}{
	"pattern": {}, "path": {}, "glob": {}, "output_mode": {},
	"-B": {}, "-A": {}, "-C": {}, "-n": {}, "-i": {},
	"type": {}, "head_limit": {}, "multiline": {}, "hidden": {}, "timeout": {},
}

// grepAliases maps spelled-out parameter names onto the canonical keys
var grepAliases = map[string]string{
	"query":             "pattern",
	"before_context":    "-B",
	"after_context":     "-A",
	"context":           "-C",
	"line_numbers":      "-n",
	"show_line_numbers": "-n",
	"case_insensitive":  "-i",
	"ignore_case":       "-i",
	"type_filter":       "type",
	"types":             "type",
	"max_results":       "head_limit",
}

// UnmarshalJSON renames aliases and records unknown keys as warnings instead of failing
func (p *GrepParams) UnmarshalJSON(data []byte) error {
	type plain GrepParams

	raw, unknown, err := collectUnknownFields(data, grepKnownFields)
	if err != nil {
		return err
	}

	normalized := make(map[string]json.RawMessage, len(raw))
	var warnings []string
	for key, value := range raw {
		if _, ok := grepKnownFields[key]; ok {
			normalized[key] = value
		}
	}
	for _, key := range unknown {
		canonical, ok := grepAliases[key]
		if !ok {
			warnings = append(warnings, fmt.Sprintf("unknown parameter '%s' ignored", key))
			continue
		}
		if _, set := normalized[canonical]; set {
			warnings = append(warnings, fmt.Sprintf("parameter '%s' ignored: '%s' is also set", key, canonical))
			continue
		}
		normalized[canonical] = raw[key]
		warnings = append(warnings, fmt.Sprintf("parameter '%s' is an alias, use '%s' instead", key, canonical))
	}

	encoded, err := json.Marshal(normalized)
	if err != nil {
		return err
	}
	if err := json.Unmarshal(encoded, (*plain)(p)); err != nil {
		return err
	}
	p.Warnings = warnings
	return nil
}

// collectUnknownFields parses a JSON object and returns the keys outside known, sorted
func collectUnknownFields(data []byte, known map[string]struct{}) (map[string]json.RawMessage, []string, error) {
	var raw map[string]json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, nil, err
	}

	var unknown []string
	for key := range raw {
		if _, ok := known[key]; !ok {
			unknown = append(unknown, key)
		}
	}
	sort.Strings(unknown)
	return raw, unknown, nil
}

// RawOptions converts the tool arguments into normalizer input
func (p GrepParams) RawOptions() query.RawOptions {
	return query.RawOptions{
		Pattern:         p.Pattern,
		Path:            strings.TrimSpace(p.Path),
		Glob:            p.Glob,
		OutputMode:      p.OutputMode,
		Before:          p.Before,
		After:           p.After,
		Context:         p.Context,
		LineNumbers:     p.LineNumbers,
		CaseInsensitive: p.CaseInsensitive,
		Multiline:       p.Multiline,
		Hidden:          p.Hidden,
		Types:           []string(p.Type),
		HeadLimit:       p.HeadLimit,
		Timeout:         p.Timeout,
	}
}
