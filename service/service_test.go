package service

import (
	"context"
	"io"
	"net"
	"net/http"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"

	"github.com/unitlab/unit/metrics"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

// reserveAddr grabs an ephemeral port and releases it for the server to use.
func reserveAddr(t *testing.T) string {
	t.Helper()
	l, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	addr := l.Addr().String()
	require.NoError(t, l.Close())
	return addr
}

// get polls until the server accepts connections.
func get(t *testing.T, url string) *http.Response {
	t.Helper()
	var lastErr error
	for i := 0; i < 100; i++ {
		resp, err := http.Get(url)
		if err == nil {
			return resp
		}
		lastErr = err
		time.Sleep(10 * time.Millisecond)
	}
	t.Fatalf("server never came up: %v", lastErr)
	return nil
}

func TestHealthzEndpoint(t *testing.T) {
	defer http.DefaultClient.CloseIdleConnections()

	svc := New(Config{HealthzAddr: reserveAddr(t)})
	svc.Start(context.Background())
	defer svc.Shutdown()

	resp := get(t, "http://"+svc.cfg.HealthzAddr+"/healthz")
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "OK", string(body))
}

func TestMetricsEndpoint(t *testing.T) {
	defer http.DefaultClient.CloseIdleConnections()

	metrics.RecordCheck("expect", true)

	svc := New(Config{MetricsAddr: reserveAddr(t)})
	svc.Start(context.Background())
	defer svc.Shutdown()

	resp := get(t, "http://"+svc.cfg.MetricsAddr+"/metrics")
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Contains(t, string(body), "unit_checks_total")
}

func TestDisabledServersDoNotListen(t *testing.T) {
	svc := New(Config{})
	svc.Start(context.Background())
	require.NotPanics(t, func() { svc.Shutdown() })
}

func TestShutdownBeforeStartIsSafe(t *testing.T) {
	svc := New(DefaultConfig())
	require.NotPanics(t, func() { svc.Shutdown() })
}

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()
	assert.Equal(t, "0.0.0.0:8080", cfg.HealthzAddr)
	assert.Equal(t, "0.0.0.0:7300", cfg.MetricsAddr)
}
