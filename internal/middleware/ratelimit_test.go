package middleware

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strconv"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/gen"
	"github.com/leanovate/gopter/prop"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func newLimitedHandler(t *testing.T, mr *miniredis.Miniredis, limit int) http.Handler {
	t.Helper()
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { client.Close() })
	return RateLimitMiddleware(client, RateLimitConfig{
		RequestsPerWindow: limit,
		Window:            time.Minute,
		KeyPrefix:         "ratelimit",
	}, zap.NewNop())(okHandler())
}

func hit(ctx context.Context, h http.Handler, remoteAddr string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodGet, "/api/inventory", nil).WithContext(ctx)
	req.RemoteAddr = remoteAddr
	w := httptest.NewRecorder()
	h.ServeHTTP(w, req)
	return w
}

// Feature: inventory-platform, Property 11: Requests past the window limit get 429 until the window resets
func TestProperty_RateLimitingBlocksExcessiveRequests(t *testing.T) {
	properties := gopter.NewProperties(nil)

	properties.Property("exactly limit requests pass per window", prop.ForAll(
		func(limit int, extra int) bool {
			mr := miniredis.RunT(t)
			h := newLimitedHandler(t, mr, limit)

			for i := 0; i < limit; i++ {
				w := hit(context.Background(), h, "10.0.0.1:5000")
				if w.Code != http.StatusOK {
					t.Logf("FAIL: request %d of %d got %d", i+1, limit, w.Code)
					return false
				}
				if w.Header().Get("X-RateLimit-Remaining") != strconv.Itoa(limit-i-1) {
					t.Logf("FAIL: remaining header %q at request %d", w.Header().Get("X-RateLimit-Remaining"), i+1)
					return false
				}
			}
			for i := 0; i < extra; i++ {
				w := hit(context.Background(), h, "10.0.0.1:5000")
				if w.Code != http.StatusTooManyRequests || w.Header().Get("Retry-After") == "" {
					t.Logf("FAIL: excess request got %d", w.Code)
					return false
				}
			}

			mr.FastForward(time.Minute + time.Second)
			return hit(context.Background(), h, "10.0.0.1:5000").Code == http.StatusOK
		},
		gen.IntRange(1, 20),
		gen.IntRange(1, 10),
	))

	properties.TestingRun(t, gopter.ConsoleReporter(false))
}

func TestRateLimitKeysByUserWhenAuthenticated(t *testing.T) {
	mr := miniredis.RunT(t)
	h := newLimitedHandler(t, mr, 1)

	alice := context.WithValue(context.Background(), UserIDKey, "alice")
	bob := context.WithValue(context.Background(), UserIDKey, "bob")

	assert.Equal(t, http.StatusOK, hit(alice, h, "10.0.0.1:1").Code)
	// Same user from another address shares the budget.
	assert.Equal(t, http.StatusTooManyRequests, hit(alice, h, "10.0.0.2:1").Code)
	assert.Equal(t, http.StatusOK, hit(bob, h, "10.0.0.1:1").Code)
	assert.True(t, mr.Exists("ratelimit:user:alice"))
}

func TestRateLimitFailsOpenWhenRedisIsDown(t *testing.T) {
	mr := miniredis.RunT(t)
	h := newLimitedHandler(t, mr, 1)
	mr.Close()

	w := hit(context.Background(), h, "10.0.0.1:1")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Empty(t, w.Header().Get("X-RateLimit-Limit"))
}
