package store

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dmitrijs2005/fitkeeper/internal/common"
)

func TestLazy_ConcurrentCallersShareOneDial(t *testing.T) {
	var dials atomic.Int32
	release := make(chan struct{})

	l := NewLazy(func(ctx context.Context) (string, error) {
		dials.Add(1)
		<-release
		return "conn", nil
	}, 1, 0)

	const callers = 16
	var wg sync.WaitGroup
	results := make([]string, callers)
	errs := make([]error, callers)
	for i := 0; i < callers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			results[i], errs[i] = l.Get(context.Background())
		}(i)
	}

	// let every caller reach the in-flight attempt before it completes
	time.Sleep(50 * time.Millisecond)
	close(release)
	wg.Wait()

	assert.Equal(t, int32(1), dials.Load())
	for i := 0; i < callers; i++ {
		require.NoError(t, errs[i])
		assert.Equal(t, "conn", results[i])
	}

	v, err := l.Get(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "conn", v)
	assert.Equal(t, int32(1), dials.Load())
}

func TestLazy_FailureIsNotCached(t *testing.T) {
	var dials atomic.Int32
	fail := true

	l := NewLazy(func(ctx context.Context) (int, error) {
		dials.Add(1)
		if fail {
			return 0, errors.New("connection refused")
		}
		return 42, nil
	}, 1, 0)

	_, err := l.Get(context.Background())
	require.Error(t, err)
	assert.Equal(t, common.KindInternal, common.KindOf(err))
	_, ok := l.Peek()
	assert.False(t, ok)

	fail = false
	v, err := l.Get(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 42, v)
	assert.Equal(t, int32(2), dials.Load())
}

func TestLazy_RetriesBoundedAttempts(t *testing.T) {
	tests := []struct {
		name      string
		attempts  int
		failures  int32
		wantErr   bool
		wantDials int32
	}{
		{"succeeds on last attempt", 3, 2, false, 3},
		{"gives up after attempts", 3, 5, true, 3},
		{"single attempt", 0, 1, true, 1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var dials atomic.Int32
			l := NewLazy(func(ctx context.Context) (bool, error) {
				if dials.Add(1) <= tt.failures {
					return false, errors.New("unreachable")
				}
				return true, nil
			}, tt.attempts, time.Millisecond)

			_, err := l.Get(context.Background())
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
			assert.Equal(t, tt.wantDials, dials.Load())
		})
	}
}

func TestLazy_WaitHonoursContext(t *testing.T) {
	release := make(chan struct{})
	defer close(release)

	l := NewLazy(func(ctx context.Context) (int, error) {
		<-release
		return 1, nil
	}, 1, 0)

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()

	_, err := l.Get(ctx)
	assert.ErrorIs(t, err, context.DeadlineExceeded)
}

func TestLazy_ReadyAndClose(t *testing.T) {
	l := Ready("db")
	v, err := l.Get(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "db", v)

	closed := ""
	require.NoError(t, l.Close(func(s string) error {
		closed = s
		return nil
	}))
	assert.Equal(t, "db", closed)

	empty := NewLazy(func(ctx context.Context) (string, error) { return "", nil }, 1, 0)
	called := false
	require.NoError(t, empty.Close(func(string) error {
		called = true
		return nil
	}))
	assert.False(t, called)
}
