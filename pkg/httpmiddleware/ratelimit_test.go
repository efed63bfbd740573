package httpmiddleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func okHandler() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
	})
}

func hit(h http.Handler, remoteAddr string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodGet, "/api/products", nil)
	req.RemoteAddr = remoteAddr
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func TestRateLimit_AllowsBurstThenRejects(t *testing.T) {
	h := RateLimit(RateLimitConfig{Max: 3, Window: time.Hour})(okHandler())

	for i := range 3 {
		rec := hit(h, "10.0.0.1:1234")
		assert.Equal(t, http.StatusOK, rec.Code, "request %d", i)
	}

	rec := hit(h, "10.0.0.1:1234")
	assert.Equal(t, http.StatusTooManyRequests, rec.Code)
	assert.Equal(t, "3", rec.Header().Get("X-RateLimit-Limit"))
	assert.Equal(t, "0", rec.Header().Get("X-RateLimit-Remaining"))
	assert.NotEmpty(t, rec.Header().Get("Retry-After"))
	assert.JSONEq(t, `{"code":429,"message":"rate limit exceeded"}`, rec.Body.String())
}

func TestRateLimit_KeysAreIndependent(t *testing.T) {
	h := RateLimit(RateLimitConfig{Max: 1, Window: time.Hour})(okHandler())

	assert.Equal(t, http.StatusOK, hit(h, "10.0.0.1:1234").Code)
	assert.Equal(t, http.StatusTooManyRequests, hit(h, "10.0.0.1:9999").Code,
		"same IP, different port shares the bucket")
	assert.Equal(t, http.StatusOK, hit(h, "10.0.0.2:1234").Code)
}

func TestRateLimit_RefillsOverTime(t *testing.T) {
	l := newLimiter(RateLimitConfig{Max: 2, Window: time.Second})
	now := time.Now()

	ok, _, _ := l.take("k", now)
	require.True(t, ok)
	ok, _, _ = l.take("k", now)
	require.True(t, ok)
	ok, _, retryIn := l.take("k", now)
	require.False(t, ok)
	assert.Greater(t, retryIn, time.Duration(0))

	// Half the window refills one token.
	ok, left, _ := l.take("k", now.Add(500*time.Millisecond))
	assert.True(t, ok)
	assert.Equal(t, 0, left)
}

func TestRateLimit_BurstCapped(t *testing.T) {
	l := newLimiter(RateLimitConfig{Max: 2, Window: time.Second})
	now := time.Now()

	_, _, _ = l.take("k", now)

	// A long idle period must not accumulate more than Max tokens.
	ok, left, _ := l.take("k", now.Add(time.Minute))
	assert.True(t, ok)
	assert.Equal(t, 1, left)
}

func TestRateLimit_Sweep(t *testing.T) {
	l := newLimiter(RateLimitConfig{Max: 1, Window: time.Second})
	now := time.Now()
	_, _, _ = l.take("stale", now)
	_, _, _ = l.take("fresh", now.Add(2 * time.Second))

	l.sweep(now.Add(2 * time.Second))

	l.mu.Lock()
	defer l.mu.Unlock()
	assert.NotContains(t, l.buckets, "stale")
	assert.Contains(t, l.buckets, "fresh")
}

func TestRateLimit_ProxyHeaders(t *testing.T) {
	tests := []struct {
		name   string
		header http.Header
		remote string
		want   string
	}{
		{
			name:   "x-forwarded-for first hop",
			header: http.Header{"X-Forwarded-For": []string{"203.0.113.7, 10.0.0.1"}},
			remote: "10.0.0.1:80",
			want:   "203.0.113.7",
		},
		{
			name:   "x-real-ip",
			header: http.Header{"X-Real-Ip": []string{"203.0.113.8"}},
			remote: "10.0.0.1:80",
			want:   "203.0.113.8",
		},
		{
			name:   "remote addr fallback",
			remote: "203.0.113.9:4567",
			want:   "203.0.113.9",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/", nil)
			req.RemoteAddr = tt.remote
			for k, v := range tt.header {
				req.Header[k] = v
			}
			assert.Equal(t, tt.want, clientIP(req))
		})
	}
}
