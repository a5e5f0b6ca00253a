package search

import (
	"context"
	stderrors "errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/standardbeagle/lgrep/internal/errors"
)

// fakeClock advances by step on every reading
type fakeClock struct {
	t    time.Time
	step time.Duration
}

func (c *fakeClock) now() time.Time {
	current := c.t
	c.t = c.t.Add(c.step)
	return current
}

func TestGuard_NoTimeoutNeverExpires(t *testing.T) {
	clock := &fakeClock{t: time.Unix(0, 0), step: time.Hour}
	g := newGuard(context.Background(), 0, clock.now)
	for i := 0; i < 10; i++ {
		assert.NoError(t, g.check(i))
	}
}

func TestGuard_ExpiresAfterDeadline(t *testing.T) {
	clock := &fakeClock{t: time.Unix(0, 0)}
	g := newGuard(context.Background(), 2*time.Second, clock.now)

	clock.t = clock.t.Add(time.Second)
	assert.NoError(t, g.check(1))

	clock.t = clock.t.Add(time.Second)
	assert.NoError(t, g.check(2), "exactly at the deadline is not past it")

	clock.t = clock.t.Add(time.Millisecond)
	err := g.check(3)
	require.Error(t, err)

	var timeoutErr *errors.TimeoutError
	require.True(t, stderrors.As(err, &timeoutErr))
	assert.Equal(t, 2*time.Second, timeoutErr.Limit)
	assert.Equal(t, 2*time.Second+time.Millisecond, timeoutErr.Elapsed)
	assert.Equal(t, 3, timeoutErr.FilesScanned)
	assert.True(t, stderrors.Is(err, errors.ErrTimeout))
}

func TestGuard_CanceledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	g := newGuard(ctx, 0, nil)
	assert.NoError(t, g.check(0))

	cancel()
	err := g.check(0)
	require.Error(t, err)
	assert.True(t, stderrors.Is(err, errors.ErrCanceled))
	assert.True(t, stderrors.Is(err, context.Canceled))
	assert.False(t, stderrors.Is(err, errors.ErrTimeout))
}
