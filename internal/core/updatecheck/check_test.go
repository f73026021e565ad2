package updatecheck

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// releaseServer serves tag and counts requests.
func releaseServer(t *testing.T, tag string) (*httptest.Server, *atomic.Int32) {
	t.Helper()
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		_ = json.NewEncoder(w).Encode(map[string]string{"tag_name": tag})
	}))
	t.Cleanup(srv.Close)
	return srv, &calls
}

func TestCheck_SkippedVersions(t *testing.T) {
	srv, calls := releaseServer(t, "v9.0.0")
	checker := New("", WithURL(srv.URL))

	for _, v := range []string{"", "dev", "not-semver"} {
		t.Run(v, func(t *testing.T) {
			result, err := checker.Check(context.Background(), v)
			require.NoError(t, err)
			assert.Nil(t, result)
		})
	}
	assert.Equal(t, int32(0), calls.Load())
}

func TestCheck_Compare(t *testing.T) {
	tests := []struct {
		name    string
		current string
		latest  string
		want    *Result
	}{
		{"update available", "v1.0.0", "v2.0.0", &Result{Current: "v1.0.0", Latest: "v2.0.0"}},
		{"current is latest", "v1.3.0", "v1.3.0", nil},
		{"current is newer", "v1.4.0", "v1.3.0", nil},
		{"missing prefix", "1.0.0", "1.1.0", &Result{Current: "v1.0.0", Latest: "v1.1.0"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv, _ := releaseServer(t, tt.latest)
			result, err := New("", WithURL(srv.URL)).Check(context.Background(), tt.current)
			require.NoError(t, err)
			assert.Equal(t, tt.want, result)
		})
	}
}

func TestCheck_UsesFreshCache(t *testing.T) {
	srv, calls := releaseServer(t, "v2.0.0")
	cachePath := filepath.Join(t.TempDir(), "release.json")
	checker := New(cachePath, WithURL(srv.URL))

	for range 3 {
		result, err := checker.Check(context.Background(), "v1.0.0")
		require.NoError(t, err)
		require.NotNil(t, result)
	}
	assert.Equal(t, int32(1), calls.Load())
}

func TestCheck_ExpiredCacheRefetches(t *testing.T) {
	srv, calls := releaseServer(t, "v2.0.0")
	cachePath := filepath.Join(t.TempDir(), "release.json")

	stale, err := json.Marshal(ReleaseInfo{TagName: "v1.0.0", FetchedAt: time.Now().Add(-2 * cacheTTL)})
	require.NoError(t, err)
	require.NoError(t, os.WriteFile(cachePath, stale, 0o644))

	result, err := New(cachePath, WithURL(srv.URL)).Check(context.Background(), "v1.0.0")
	require.NoError(t, err)
	require.NotNil(t, result)
	assert.Equal(t, "v2.0.0", result.Latest)
	assert.Equal(t, int32(1), calls.Load())
}

func TestCheck_FetchError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusForbidden)
	}))
	t.Cleanup(srv.Close)

	_, err := New("", WithURL(srv.URL)).Check(context.Background(), "v1.0.0")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "status 403")
}
