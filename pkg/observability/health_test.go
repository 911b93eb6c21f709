package observability

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHealthChecker_Liveness(t *testing.T) {
	h := NewHealthChecker("1.2.3")

	rec := httptest.NewRecorder()
	h.Liveness(rec, httptest.NewRequest(http.MethodGet, "/healthz", nil))

	assert.Equal(t, http.StatusOK, rec.Code)

	var status HealthStatus
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&status))
	assert.Equal(t, StatusHealthy, status.Status)
	assert.Equal(t, "1.2.3", status.Version)
}

func TestHealthChecker_Readiness(t *testing.T) {
	t.Run("healthy without checks", func(t *testing.T) {
		h := NewHealthChecker("dev")
		rec := httptest.NewRecorder()
		h.Readiness(rec, httptest.NewRequest(http.MethodGet, "/readyz", nil))
		assert.Equal(t, http.StatusOK, rec.Code)
	})

	t.Run("failing check", func(t *testing.T) {
		h := NewHealthChecker("dev")
		h.AddCheck("rules", func(ctx context.Context) error { return nil })
		h.AddCheck("tokenizer", func(ctx context.Context) error { return errors.New("unavailable") })

		rec := httptest.NewRecorder()
		h.Readiness(rec, httptest.NewRequest(http.MethodGet, "/readyz", nil))
		assert.Equal(t, http.StatusServiceUnavailable, rec.Code)

		var status HealthStatus
		require.NoError(t, json.NewDecoder(rec.Body).Decode(&status))
		assert.Equal(t, StatusUnhealthy, status.Status)
		assert.Equal(t, StatusHealthy, status.Dependencies["rules"].Status)
		assert.Equal(t, "unavailable", status.Dependencies["tokenizer"].Message)
	})
}

func TestShutdownManager(t *testing.T) {
	t.Run("runs registered funcs on context cancel", func(t *testing.T) {
		sm := NewShutdownManager(NewNopLogger(), nil, time.Second)

		called := make(chan struct{}, 2)
		sm.RegisterShutdownFunc(func(ctx context.Context) error { called <- struct{}{}; return nil })
		sm.RegisterShutdownFunc(func(ctx context.Context) error { called <- struct{}{}; return nil })

		ctx, cancel := context.WithCancel(context.Background())
		cancel()

		require.NoError(t, sm.WaitForShutdown(ctx))
		assert.Len(t, called, 2)
	})

	t.Run("reports failing funcs", func(t *testing.T) {
		sm := NewShutdownManager(NewNopLogger(), nil, time.Second)
		sm.RegisterShutdownFunc(func(ctx context.Context) error { return errors.New("flush failed") })

		err := sm.Shutdown()
		require.Error(t, err)
		assert.Contains(t, err.Error(), "1 errors")
	})

	t.Run("default timeout", func(t *testing.T) {
		sm := NewShutdownManager(NewNopLogger(), nil, 0)
		assert.Equal(t, 30*time.Second, sm.shutdownTimeout)
	})
}

func TestMustRecover(t *testing.T) {
	assert.NoError(t, MustRecover(nil))
	assert.EqualError(t, MustRecover("bad"), "panic: bad")

	var perr *PanicError
	require.ErrorAs(t, MustRecover(42), &perr)
	assert.Equal(t, 42, perr.Value)
	assert.NotEmpty(t, perr.Stack)

	assert.NotPanics(t, func() {
		defer RecoverPanic(NewNopLogger(), "test")
		panic("boom")
	})
}
