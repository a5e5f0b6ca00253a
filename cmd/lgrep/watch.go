package main

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/cespare/xxhash/v2"

	"github.com/standardbeagle/lgrep/internal/debug"
	"github.com/standardbeagle/lgrep/internal/watch"

	"github.com/urfave/cli/v2"
)

const defaultDebounce = watch.DefaultDebounce

func watchCommand(c *cli.Context) error {
	inv, err := parseInvocation(c)
	if err != nil {
		return err
	}

	hidden := inv.engine.Normalizer().Defaults().Hidden
	if inv.raw.Hidden != nil {
		hidden = *inv.raw.Hidden
	}

	w, err := watch.New(inv.paths, watch.Options{
		Debounce: c.Duration("debounce"),
		Hidden:   hidden,
	})
	if err != nil {
		return cli.Exit(fmt.Sprintf("failed to watch: %v", err), exitError)
	}
	defer w.Close()

	ctx, stop := signal.NotifyContext(c.Context, os.Interrupt, syscall.SIGTERM)
	defer stop()

	session := &watchSession{inv: inv, stdout: c.App.Writer, stderr: c.App.ErrWriter}
	session.refresh(ctx)
	fmt.Fprintf(session.stderr, "lgrep: watching %d path(s), press Ctrl+C to stop\n", len(inv.paths))

	return w.Run(ctx, func(changed []string) {
		debug.LogWatch("%d changed path(s), rerunning", len(changed))
		session.refresh(ctx)
	})
}

// watchSession reprints search output only when it differs from the last run
type watchSession struct {
	inv    *invocation
	stdout io.Writer
	stderr io.Writer

	printed  bool
	lastHash uint64
}

// refresh reruns the search and reports whether anything was printed
func (s *watchSession) refresh(ctx context.Context) bool {
	if ctx.Err() != nil {
		return false
	}

	var out, errOut bytes.Buffer
	status := printResults(&out, &errOut, s.inv.searchAll(ctx), s.inv.asJSON)
	if status == exitNoMatch && !s.inv.asJSON {
		out.WriteString(noMatchesText + "\n")
	}

	h := xxhash.New()
	h.Write(out.Bytes())
	h.Write(errOut.Bytes())
	sum := h.Sum64()
	if s.printed && sum == s.lastHash {
		debug.LogWatch("output unchanged (%016x)", sum)
		return false
	}
	s.printed = true
	s.lastHash = sum

	if !s.inv.asJSON {
		fmt.Fprintf(s.stdout, "==> %s\n", time.Now().Format(time.TimeOnly))
	}
	s.stdout.Write(out.Bytes())
	s.stderr.Write(errOut.Bytes())
	return true
}

const noMatchesText = "No matches found"
