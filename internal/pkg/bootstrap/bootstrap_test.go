package bootstrap

import (
	"context"
	"net"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/jcmexdev/food-ordering-sagas/internal/pkg/config"
)

func TestHealthRouter(t *testing.T) {
	rec := httptest.NewRecorder()
	HealthRouter().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/healthz", nil))

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"status":"ok"}`, rec.Body.String())
}

func TestConfigMapping(t *testing.T) {
	cfg := config.Outbox{
		PollInterval:   time.Second,
		BatchSize:      20,
		MaxAttempts:    3,
		InitialBackoff: 10 * time.Millisecond,
		MaxBackoff:     time.Second,
	}

	d := DispatcherConfig(cfg)
	assert.Equal(t, 20, d.BatchSize)
	assert.Equal(t, 3, d.MaxAttempts)
	assert.Equal(t, time.Second, d.PollInterval)

	c := ConsumerConfig(cfg)
	assert.Equal(t, 10*time.Millisecond, c.InitialBackoff)
	assert.Equal(t, time.Second, c.MaxBackoff)
}

func TestInstallGlobalLogger(t *testing.T) {
	before := zap.L()
	logger := zap.NewExample()

	restore := installGlobalLogger(logger)
	assert.Same(t, logger, zap.L())

	require.NoError(t, restore(context.Background()))
	assert.Same(t, before, zap.L())
}

func TestServe_StopsOnCancel(t *testing.T) {
	lis, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	addr := lis.Addr().String()
	require.NoError(t, lis.Close())

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- Serve(ctx, addr, HealthRouter(), zap.NewNop()) }()

	require.Eventually(t, func() bool {
		resp, err := http.Get("http://" + addr + "/healthz")
		if err != nil {
			return false
		}
		_ = resp.Body.Close()
		return resp.StatusCode == http.StatusOK
	}, 2*time.Second, 20*time.Millisecond)

	cancel()
	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(2 * time.Second):
		t.Fatal("server did not stop")
	}
}
