package health

import (
	"context"
	"encoding/json"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/go-faster/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCheck_Thresholds(t *testing.T) {
	c := newCheck("db", time.Second, nil)

	// Healthy by default.
	ok, _ := c.status()
	assert.True(t, ok)

	// One or two failures keep the check healthy.
	boom := errors.New("boom")
	c.observe(boom)
	c.observe(boom)
	ok, _ = c.status()
	assert.True(t, ok)

	// The third consecutive failure trips it.
	c.observe(boom)
	ok, err := c.status()
	assert.False(t, ok)
	assert.ErrorIs(t, err, boom)

	// A single success restores it.
	c.observe(nil)
	ok, err = c.status()
	assert.True(t, ok)
	assert.NoError(t, err)
}

func TestCheck_SuccessResetsFailureStreak(t *testing.T) {
	c := newCheck("db", time.Second, nil)
	boom := errors.New("boom")

	c.observe(boom)
	c.observe(boom)
	c.observe(nil)
	c.observe(boom)
	c.observe(boom)

	ok, _ := c.status()
	assert.True(t, ok, "interleaved success must reset the streak")
}

func TestIsReady(t *testing.T) {
	h := New()
	assert.False(t, h.IsReady(), "not ready before SetReady")

	h.SetReady(true)
	assert.True(t, h.IsReady())

	h.AddReadinessCheck("dep", time.Second, func(context.Context) error { return nil })
	assert.True(t, h.IsReady())

	// Trip the readiness check.
	boom := errors.New("down")
	for range failuresToTrip {
		h.ready[0].observe(boom)
	}
	assert.False(t, h.IsReady())

	h.SetReady(false)
	assert.False(t, h.IsReady())
}

func TestEndpoints(t *testing.T) {
	h := New()
	h.SetReady(true)
	h.AddLivenessCheck("goroutines", time.Second, GoroutineCountCheck(1))
	for range failuresToTrip {
		h.live[0].runOnce(context.Background())
	}

	t.Run("livez failing", func(t *testing.T) {
		rec := httptest.NewRecorder()
		h.LiveEndpoint(rec, httptest.NewRequest("GET", "/livez", nil))
		assert.Equal(t, 503, rec.Code)

		var resp probeResponse
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
		assert.Equal(t, "fail", resp.Status)
		assert.Contains(t, resp.Failures, "goroutines")
	})

	t.Run("readyz passing", func(t *testing.T) {
		rec := httptest.NewRecorder()
		h.ReadyEndpoint(rec, httptest.NewRequest("GET", "/readyz", nil))
		assert.Equal(t, 200, rec.Code)

		var resp probeResponse
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
		assert.Equal(t, "pass", resp.Status)
		assert.Empty(t, resp.Failures)
	})

	t.Run("readyz gated during shutdown", func(t *testing.T) {
		h.SetReady(false)
		defer h.SetReady(true)

		rec := httptest.NewRecorder()
		h.ReadyEndpoint(rec, httptest.NewRequest("GET", "/readyz", nil))
		assert.Equal(t, 503, rec.Code)
	})
}

func TestStartStop(t *testing.T) {
	h := New()
	var runs atomic.Int32
	h.AddReadinessCheck("counter", time.Second, func(context.Context) error {
		runs.Add(1)
		return nil
	})

	h.Start(context.Background(), 10*time.Millisecond)
	assert.Eventually(t, func() bool { return runs.Load() >= 2 },
		time.Second, 5*time.Millisecond)

	h.Stop()
	h.Stop() // idempotent
	after := runs.Load()
	time.Sleep(50 * time.Millisecond)
	assert.LessOrEqual(t, runs.Load(), after+1, "checks must stop after Stop")
}

func TestGoroutineCountCheck(t *testing.T) {
	assert.NoError(t, GoroutineCountCheck(1 << 20)(context.Background()))
	assert.Error(t, GoroutineCountCheck(0)(context.Background()))
}

func TestHeapAllocCheck(t *testing.T) {
	assert.NoError(t, HeapAllocCheck(1<<40)(context.Background()))
	assert.Error(t, HeapAllocCheck(1)(context.Background()))
}
