package store

import (
	"context"
	"sync"
	"time"

	"github.com/sethvargo/go-retry"
	"golang.org/x/sync/singleflight"

	"github.com/dmitrijs2005/fitkeeper/internal/common"
)

// DialFunc opens a backend handle.
type DialFunc[T any] func(ctx context.Context) (T, error)

// Lazy memoises a backend handle for the life of the process. The first
// Get dials; concurrent callers arriving while that attempt is in flight
// wait for the same attempt. A failed attempt is not cached.
//
// Each attempt retries the dial up to a fixed number of times with a
// constant delay between tries.
type Lazy[T any] struct {
	dial     DialFunc[T]
	attempts int
	delay    time.Duration

	group singleflight.Group

	mu    sync.RWMutex
	value T
	ready bool
}

// NewLazy returns a Lazy that dials at most attempts times per connection
// attempt (at least once), sleeping delay between failures.
func NewLazy[T any](dial DialFunc[T], attempts int, delay time.Duration) *Lazy[T] {
	if attempts < 1 {
		attempts = 1
	}
	return &Lazy[T]{dial: dial, attempts: attempts, delay: delay}
}

// Ready returns an already-established handle without dialing.
func Ready[T any](value T) *Lazy[T] {
	return &Lazy[T]{value: value, ready: true, attempts: 1}
}

// Get returns the handle, establishing it first if needed. Waiting honours
// ctx; the dial itself is detached from the caller's cancellation so one
// impatient request cannot abort the attempt other requests share.
func (l *Lazy[T]) Get(ctx context.Context) (T, error) {
	if v, ok := l.Peek(); ok {
		return v, nil
	}

	ch := l.group.DoChan("connect", func() (any, error) {
		if v, ok := l.Peek(); ok {
			return v, nil
		}
		v, err := l.connect(context.WithoutCancel(ctx))
		if err != nil {
			return nil, err
		}
		l.mu.Lock()
		l.value, l.ready = v, true
		l.mu.Unlock()
		return v, nil
	})

	var zero T
	select {
	case <-ctx.Done():
		return zero, ctx.Err()
	case res := <-ch:
		if res.Err != nil {
			return zero, common.Wrap(common.KindInternal, res.Err, "store unavailable")
		}
		return res.Val.(T), nil
	}
}

func (l *Lazy[T]) connect(ctx context.Context) (T, error) {
	var conn T
	delay := l.delay
	if delay <= 0 {
		delay = time.Millisecond
	}
	backoff := retry.WithMaxRetries(uint64(l.attempts-1), retry.NewConstant(delay))
	err := retry.Do(ctx, backoff, func(ctx context.Context) error {
		c, err := l.dial(ctx)
		if err != nil {
			return retry.RetryableError(err)
		}
		conn = c
		return nil
	})
	return conn, err
}

// Peek returns the handle if it has been established.
func (l *Lazy[T]) Peek() (T, bool) {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.value, l.ready
}

// Close runs closeFn on the handle if one was established.
func (l *Lazy[T]) Close(closeFn func(T) error) error {
	v, ok := l.Peek()
	if !ok {
		return nil
	}
	return closeFn(v)
}
