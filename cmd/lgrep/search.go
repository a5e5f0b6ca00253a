package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"os/signal"
	"runtime"
	"strconv"
	"syscall"

	"golang.org/x/sync/errgroup"

	"github.com/standardbeagle/lgrep/internal/config"
	"github.com/standardbeagle/lgrep/internal/errors"
	"github.com/standardbeagle/lgrep/internal/matcher"
	"github.com/standardbeagle/lgrep/internal/query"
	"github.com/standardbeagle/lgrep/internal/search"
	"github.com/standardbeagle/lgrep/internal/types"

	"github.com/urfave/cli/v2"
)

// invocation is one parsed search command line
type invocation struct {
	raw    query.RawOptions // Path is filled in per root
	paths  []string
	asJSON bool
	engine *search.Engine
}

// rootResult is the outcome of searching one PATH argument
type rootResult struct {
	root   string
	result *types.Result
	err    error
}

func searchCommand(c *cli.Context) error {
	inv, err := parseInvocation(c)
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(c.Context, os.Interrupt, syscall.SIGTERM)
	defer stop()

	results := inv.searchAll(ctx)
	return exitFor(printResults(c.App.Writer, c.App.ErrWriter, results, inv.asJSON))
}

func exitFor(status int) error {
	if status == exitMatch {
		return nil
	}
	return cli.Exit("", status)
}

// parseInvocation reads the pattern, paths and flags, loads the config and validates
// the options once so a bad pattern is reported a single time for all paths
func parseInvocation(c *cli.Context) (*invocation, error) {
	args := c.Args().Slice()

	var pattern string
	if c.IsSet("regexp") {
		pattern = c.String("regexp")
	} else {
		if len(args) == 0 {
			return nil, cli.Exit("usage: "+usageText, exitError)
		}
		pattern, args = args[0], args[1:]
	}

	paths := args
	if len(paths) == 0 {
		paths = []string{types.DefaultPath}
	}

	mode, err := outputMode(c)
	if err != nil {
		return nil, err
	}

	raw := query.RawOptions{
		Pattern:    pattern,
		Glob:       c.String("glob"),
		OutputMode: mode,
		Types:      c.StringSlice("type"),
	}
	if c.IsSet("before-context") {
		raw.Before = intFlag(c, "before-context")
	}
	if c.IsSet("after-context") {
		raw.After = intFlag(c, "after-context")
	}
	if c.IsSet("context") {
		raw.Context = intFlag(c, "context")
	}
	if c.IsSet("line-number") {
		raw.LineNumbers = boolFlag(c, "line-number")
	}
	if c.IsSet("ignore-case") {
		raw.CaseInsensitive = boolFlag(c, "ignore-case")
	}
	if c.IsSet("multiline") {
		raw.Multiline = boolFlag(c, "multiline")
	}
	if c.IsSet("hidden") {
		raw.Hidden = boolFlag(c, "hidden")
	}
	if c.IsSet("head-limit") {
		raw.HeadLimit = intFlag(c, "head-limit")
	}
	if c.IsSet("timeout") {
		timeout := c.Float64("timeout")
		raw.Timeout = &timeout
	}

	cfg, err := loadConfig(c, paths[0])
	if err != nil {
		return nil, cli.Exit(err.Error(), exitError)
	}
	engine := search.NewEngine(cfg)

	first := raw
	first.Path = paths[0]
	q, err := engine.Normalizer().Normalize(first)
	if err != nil {
		return nil, cli.Exit(err.Error(), exitError)
	}
	if _, err := matcher.Compile(q.Pattern, q.CaseInsensitive, q.Multiline); err != nil {
		return nil, cli.Exit(err.Error(), exitError)
	}

	return &invocation{
		raw:    raw,
		paths:  paths,
		asJSON: c.Bool("json"),
		engine: engine,
	}, nil
}

// outputMode maps -l, -c and --output-mode to a mode name.
// The command line defaults to content, like grep.
func outputMode(c *cli.Context) (string, error) {
	mode := c.String("output-mode")
	if c.Bool("files-with-matches") && c.Bool("count") {
		return "", cli.Exit("-l and -c cannot be combined", exitError)
	}
	switch {
	case c.Bool("files-with-matches"):
		mode = types.OutputFilesWithMatches.String()
	case c.Bool("count"):
		mode = types.OutputCount.String()
	case mode == "":
		mode = types.OutputContent.String()
	}
	return mode, nil
}

func intFlag(c *cli.Context, name string) *int {
	v := c.Int(name)
	return &v
}

func boolFlag(c *cli.Context, name string) *bool {
	v := c.Bool(name)
	return &v
}

// loadConfig honors --config, else layers ~/.lgrep.kdl under root/.lgrep.kdl
func loadConfig(c *cli.Context, root string) (*config.Config, error) {
	if path := c.String("config"); path != "" {
		cfg, err := config.LoadFile(path)
		if err != nil {
			return nil, fmt.Errorf("failed to load config from %s: %w", path, err)
		}
		return cfg, nil
	}
	return config.Load(root)
}

// searchAll searches every path concurrently. Results keep argument order and a
// failing path never cancels the others.
func (inv *invocation) searchAll(ctx context.Context) []rootResult {
	results := make([]rootResult, len(inv.paths))

	var g errgroup.Group
	g.SetLimit(runtime.GOMAXPROCS(0))
	for i, root := range inv.paths {
		g.Go(func() error {
			raw := inv.raw
			raw.Path = root
			result, err := inv.engine.SearchOptions(ctx, raw)
			results[i] = rootResult{root: root, result: result, err: err}
			return nil
		})
	}
	_ = g.Wait()

	return results
}

// printResults writes results in argument order and returns the exit status
func printResults(stdout, stderr io.Writer, results []rootResult, asJSON bool) int {
	if asJSON {
		return printJSON(stdout, results)
	}

	status := exitNoMatch
	wroteContent := false
	for _, r := range results {
		if r.err != nil {
			fmt.Fprintf(stderr, "lgrep: %v\n", r.err)
			status = exitError
			continue
		}
		if r.result.Empty() {
			continue
		}
		if status != exitError {
			status = exitMatch
		}

		switch r.result.Mode {
		case types.OutputContent:
			if wroteContent {
				fmt.Fprintln(stdout, types.ContextSeparator)
			}
			wroteContent = true
			for _, line := range r.result.Lines {
				fmt.Fprintln(stdout, line)
			}
		case types.OutputCount:
			for _, rec := range r.result.Counts {
				fmt.Fprintln(stdout, rec.Path+":"+strconv.Itoa(rec.Count))
			}
		default:
			for _, file := range r.result.Files {
				fmt.Fprintln(stdout, file)
			}
		}
	}
	return status
}

// jsonRecord is the --json shape of one path's outcome
type jsonRecord struct {
	Root string `json:"root"`
	Mode string `json:"mode,omitempty"`
	*types.Result
	Error     string           `json:"error,omitempty"`
	ErrorType errors.ErrorType `json:"error_type,omitempty"`
}

func printJSON(stdout io.Writer, results []rootResult) int {
	enc := json.NewEncoder(stdout)
	status := exitNoMatch
	for _, r := range results {
		rec := jsonRecord{Root: r.root}
		switch {
		case r.err != nil:
			rec.Error = r.err.Error()
			rec.ErrorType = errors.Kind(r.err)
			status = exitError
		default:
			rec.Mode = r.result.Mode.String()
			rec.Result = r.result
			if !r.result.Empty() && status != exitError {
				status = exitMatch
			}
		}
		if err := enc.Encode(rec); err != nil {
			return exitError
		}
	}
	return status
}
