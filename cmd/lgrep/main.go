package main

import (
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/standardbeagle/lgrep/internal/debug"
	"github.com/standardbeagle/lgrep/internal/version"

	"github.com/urfave/cli/v2"
)

// Exit statuses follow grep: 0 when something matched, 1 when nothing did, 2 on error
const (
	exitMatch   = 0
	exitNoMatch = 1
	exitError   = 2
)

const usageText = "lgrep [flags] PATTERN [PATH...]"

func main() {
	os.Exit(run(os.Args, os.Stdout, os.Stderr))
}

// run executes one command line and returns the process exit status
func run(args []string, stdout, stderr io.Writer) int {
	app := newApp(stdout, stderr)
	return exitStatus(app.Run(args), stderr)
}

func exitStatus(err error, stderr io.Writer) int {
	if err == nil {
		return exitMatch
	}
	var exitErr cli.ExitCoder
	if errors.As(err, &exitErr) {
		if msg := exitErr.Error(); msg != "" {
			fmt.Fprintf(stderr, "lgrep: %s\n", msg)
		}
		return exitErr.ExitCode()
	}
	fmt.Fprintf(stderr, "lgrep: %v\n", err)
	return exitError
}

func newApp(stdout, stderr io.Writer) *cli.App {
	return &cli.App{
		Name:                   "lgrep",
		Usage:                  "Search file contents with ripgrep-style filtering",
		UsageText:              usageText,
		Version:                version.Version,
		UseShortOptionHandling: true,
		Writer:                 stdout,
		ErrWriter:              stderr,
		// Exit statuses are mapped by run so the app never calls os.Exit itself
		ExitErrHandler: func(*cli.Context, error) {},
		Flags: append(searchFlags(),
			&cli.StringFlag{
				Name:  "config",
				Usage: "Load exactly this .lgrep.kdl instead of ~/.lgrep.kdl and <PATH>/.lgrep.kdl",
			},
			&cli.BoolFlag{
				Name:  "debug-log",
				Usage: "Write debug output to a log file under the temp directory",
			},
		),
		Before: func(c *cli.Context) error {
			if !c.Bool("debug-log") {
				return nil
			}
			path, err := debug.InitDebugLogFile()
			if err != nil {
				return cli.Exit(err.Error(), exitError)
			}
			debug.EnableDebug = "true"
			fmt.Fprintf(c.App.ErrWriter, "lgrep: debug log at %s\n", path)
			return nil
		},
		After: func(c *cli.Context) error {
			return debug.CloseDebugLog()
		},
		Action: searchCommand,
		Commands: []*cli.Command{
			{
				Name:      "watch",
				Usage:     "Rerun a search whenever files under the paths change",
				UsageText: "lgrep watch [flags] PATTERN [PATH...]",
				Flags: append(searchFlags(),
					&cli.DurationFlag{
						Name:  "debounce",
						Value: defaultDebounce,
						Usage: "Quiet period after the last change before rerunning",
					},
				),
				Action: watchCommand,
			},
			{
				Name:   "types",
				Usage:  "List file type names accepted by --type",
				Flags:  []cli.Flag{jsonFlag()},
				Action: typesCommand,
			},
			{
				Name:   "mcp",
				Usage:  "Serve the grep tool over the Model Context Protocol on stdio",
				Action: mcpCommand,
			},
		},
	}
}

func jsonFlag() cli.Flag {
	return &cli.BoolFlag{
		Name:  "json",
		Usage: "Print one JSON object per line instead of text",
	}
}

// searchFlags returns fresh flag definitions shared by the root search and watch
func searchFlags() []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{
			Name:    "regexp",
			Aliases: []string{"e"},
			Usage:   "Pattern to search for; every positional argument is then a path",
		},
		&cli.StringFlag{
			Name:    "glob",
			Aliases: []string{"g"},
			Usage:   "Only search files whose path or name matches this glob",
		},
		&cli.StringSliceFlag{
			Name:    "type",
			Aliases: []string{"t"},
			Usage:   "Only search files of this type (repeatable, see 'lgrep types')",
		},
		&cli.BoolFlag{
			Name:    "files-with-matches",
			Aliases: []string{"l"},
			Usage:   "Print only the paths of files with a match",
		},
		&cli.BoolFlag{
			Name:    "count",
			Aliases: []string{"c"},
			Usage:   "Print path:count for each file with a match",
		},
		&cli.StringFlag{
			Name:  "output-mode",
			Usage: "content, files_with_matches or count",
		},
		&cli.IntFlag{
			Name:    "after-context",
			Aliases: []string{"A"},
			Usage:   "Lines of context after each match",
		},
		&cli.IntFlag{
			Name:    "before-context",
			Aliases: []string{"B"},
			Usage:   "Lines of context before each match",
		},
		&cli.IntFlag{
			Name:    "context",
			Aliases: []string{"C"},
			Usage:   "Lines of context before and after each match; overrides -A and -B",
		},
		&cli.BoolFlag{
			Name:    "line-number",
			Aliases: []string{"n"},
			Usage:   "Prefix content lines with their line number",
		},
		&cli.BoolFlag{
			Name:    "ignore-case",
			Aliases: []string{"i"},
			Usage:   "Match case-insensitively",
		},
		&cli.BoolFlag{
			Name:    "multiline",
			Aliases: []string{"U"},
			Usage:   "Let patterns span lines; '.' also matches newlines",
		},
		&cli.BoolFlag{
			Name:  "hidden",
			Usage: "Search dot-prefixed files and directories",
		},
		&cli.IntFlag{
			Name:  "head-limit",
			Usage: "Stop after this many output lines, files or counts (0 prints nothing)",
		},
		&cli.Float64Flag{
			Name:  "timeout",
			Usage: "Give up after this many seconds (fractions allowed)",
		},
		jsonFlag(),
	}
}
