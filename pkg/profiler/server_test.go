package profiler

import (
	"context"
	"net/http"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func startServer(t *testing.T) *Server {
	t.Helper()

	server := New(0)
	require.NoError(t, server.Start(context.Background()))
	t.Cleanup(func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = server.Shutdown(ctx)
	})
	return server
}

func TestServer_AddrBeforeStart(t *testing.T) {
	assert.Empty(t, New(0).Addr())
}

func TestServer_BindsLoopback(t *testing.T) {
	server := startServer(t)
	assert.True(t, strings.HasPrefix(server.Addr(), "127.0.0.1:"), "addr = %s", server.Addr())
}

func TestServer_PprofEndpoints(t *testing.T) {
	server := startServer(t)
	baseURL := "http://" + server.Addr()

	tests := []struct {
		name     string
		endpoint string
	}{
		{name: "index", endpoint: "/debug/pprof/"},
		{name: "cmdline", endpoint: "/debug/pprof/cmdline"},
		{name: "symbol", endpoint: "/debug/pprof/symbol"},
		{name: "heap", endpoint: "/debug/pprof/heap"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resp, err := http.Get(baseURL + tt.endpoint)
			require.NoError(t, err)
			defer func() { _ = resp.Body.Close() }()

			assert.Equal(t, http.StatusOK, resp.StatusCode)
		})
	}
}

func TestServer_StopsWhenContextCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	server := New(0)
	require.NoError(t, server.Start(ctx))

	cancel()

	select {
	case <-server.Done():
	case <-time.After(5 * time.Second):
		t.Fatal("profiler kept serving after cancel")
	}

	_, err := http.Get("http://" + server.Addr() + "/debug/pprof/")
	require.Error(t, err)
}
