package search

import (
	"context"
	"time"

	"github.com/standardbeagle/lgrep/internal/errors"
)

// guard enforces the call deadline between traversal entries.
// A file that is already being scanned is never interrupted.
type guard struct {
	ctx      context.Context
	limit    time.Duration
	start    time.Time
	deadline time.Time // zero = no deadline
	now      func() time.Time
}

func newGuard(ctx context.Context, limit time.Duration, now func() time.Time) *guard {
	if now == nil {
		now = time.Now
	}
	g := &guard{ctx: ctx, limit: limit, start: now(), now: now}
	if limit > 0 {
		g.deadline = g.start.Add(limit)
	}
	return g
}

// check returns *errors.CanceledError once the context is done and
// *errors.TimeoutError once the deadline has passed
func (g *guard) check(filesScanned int) error {
	if err := g.ctx.Err(); err != nil {
		return errors.NewCanceledError(err)
	}
	if g.deadline.IsZero() {
		return nil
	}
	if now := g.now(); now.After(g.deadline) {
		return errors.NewTimeoutError(g.limit, now.Sub(g.start), filesScanned)
	}
	return nil
}
