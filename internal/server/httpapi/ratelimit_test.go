package httpapi

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/dmitrijs2005/fitkeeper/internal/logging"
)

func limitedHandler(rl *RateLimiter) http.Handler {
	return rl.Middleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	}))
}

func fromAddr(addr string) *http.Request {
	r := httptest.NewRequest(http.MethodPost, "/api/auth/login", nil)
	r.RemoteAddr = addr
	return r
}

func TestRateLimiter_PerClient(t *testing.T) {
	rl := NewRateLimiter(1, 2, logging.Nop())
	now := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	rl.now = func() time.Time { return now }
	h := limitedHandler(rl)

	codes := func(addr string, n int) []int {
		var out []int
		for i := 0; i < n; i++ {
			rec := httptest.NewRecorder()
			h.ServeHTTP(rec, fromAddr(addr))
			out = append(out, rec.Code)
		}
		return out
	}

	assert.Equal(t, []int{204, 204, 429}, codes("10.0.0.1:5000", 3))
	// same host, other port
	assert.Equal(t, []int{429}, codes("10.0.0.1:6000", 1))
	assert.Equal(t, []int{204, 204}, codes("10.0.0.2:5000", 2))

	now = now.Add(time.Second)
	assert.Equal(t, []int{204, 429}, codes("10.0.0.1:5000", 2))
}

func TestRateLimiter_TooManyRequestsEnvelope(t *testing.T) {
	rl := NewRateLimiter(0.5, 1, logging.Nop())
	h := limitedHandler(rl)

	h.ServeHTTP(httptest.NewRecorder(), fromAddr("10.0.0.1:1"))
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, fromAddr("10.0.0.1:1"))

	assert.Equal(t, http.StatusTooManyRequests, rec.Code)
	assert.Equal(t, "2", rec.Header().Get("Retry-After"))
	assert.JSONEq(t, `{"success":false,"message":"too many requests, try again later","code":"TOO_MANY_REQUESTS"}`, rec.Body.String())
}

func TestRateLimiter_Disabled(t *testing.T) {
	h := limitedHandler(NewRateLimiter(0, 0, logging.Nop()))
	for i := 0; i < 50; i++ {
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, fromAddr("10.0.0.1:1"))
		assert.Equal(t, http.StatusNoContent, rec.Code)
	}
}

func TestRateLimiter_Prune(t *testing.T) {
	rl := NewRateLimiter(1, 1, logging.Nop())
	now := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	rl.now = func() time.Time { return now }

	rl.allow("a")
	now = now.Add(5 * time.Minute)
	rl.allow("b")
	now = now.Add(6 * time.Minute)

	assert.Equal(t, 1, rl.Prune(10*time.Minute))
	assert.Len(t, rl.limiters, 1)
	assert.Contains(t, rl.limiters, "b")
}

func TestRateLimiter_RunPrunerStops(t *testing.T) {
	rl := NewRateLimiter(1, 1, logging.Nop())
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		rl.RunPruner(ctx, time.Millisecond, time.Hour)
		close(done)
	}()
	cancel()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("pruner did not stop")
	}
}
