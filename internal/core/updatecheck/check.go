// Package updatecheck compares the running version against the latest
// published release. The latest tag is cached on disk for a day.
package updatecheck

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"time"

	"github.com/natefinch/atomic"
	"github.com/rs/zerolog/log"
	"golang.org/x/mod/semver"
)

const (
	cacheTTL      = 24 * time.Hour
	releaseAPIURL = "https://api.github.com/repos/colonyops/repodoc/releases/latest"
)

// ReleaseInfo holds cached release data returned by GitHub.
type ReleaseInfo struct {
	TagName     string    `json:"tag_name"`
	PublishedAt string    `json:"published_at"`
	FetchedAt   time.Time `json:"fetched_at"`
}

// Result is returned when a newer version is available.
type Result struct {
	Current string
	Latest  string
}

// Checker looks up the latest release.
type Checker struct {
	url       string
	cachePath string
	client    *http.Client
	now       func() time.Time
}

// Option configures a Checker.
type Option func(*Checker)

// WithURL overrides the release endpoint.
func WithURL(url string) Option {
	return func(c *Checker) { c.url = url }
}

// New creates a Checker caching the latest release in cachePath. An empty
// cachePath disables caching.
func New(cachePath string, opts ...Option) *Checker {
	c := &Checker{
		url:       releaseAPIURL,
		cachePath: cachePath,
		client:    &http.Client{Timeout: 5 * time.Second},
		now:       time.Now,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Check compares currentVersion to the latest release and returns a non-nil
// Result only when an update is available. Lookup failures are returned so
// callers can report them; development builds are never checked.
func (c *Checker) Check(ctx context.Context, currentVersion string) (*Result, error) {
	if currentVersion == "" || currentVersion == "dev" {
		return nil, nil
	}

	normalizedCurrent, ok := normalizeVersion(currentVersion)
	if !ok {
		log.Debug().Str("version", currentVersion).Msg("update check: invalid current version")
		return nil, nil
	}

	release, err := c.latestRelease(ctx)
	if err != nil {
		return nil, err
	}

	normalizedLatest, ok := normalizeVersion(release.TagName)
	if !ok {
		return nil, fmt.Errorf("invalid release tag %q", release.TagName)
	}

	if semver.Compare(normalizedCurrent, normalizedLatest) >= 0 {
		return nil, nil
	}

	return &Result{Current: normalizedCurrent, Latest: normalizedLatest}, nil
}

func (c *Checker) latestRelease(ctx context.Context) (ReleaseInfo, error) {
	if cached, ok := c.readCache(); ok {
		return cached, nil
	}

	info, err := c.fetchRelease(ctx)
	if err != nil {
		return ReleaseInfo{}, err
	}

	if err := c.writeCache(info); err != nil {
		log.Debug().Err(err).Msg("update check: failed to cache release")
	}

	return info, nil
}

func (c *Checker) readCache() (ReleaseInfo, bool) {
	if c.cachePath == "" {
		return ReleaseInfo{}, false
	}

	data, err := os.ReadFile(c.cachePath)
	if err != nil {
		if !errors.Is(err, os.ErrNotExist) {
			log.Debug().Err(err).Msg("update check: read cache")
		}
		return ReleaseInfo{}, false
	}

	var info ReleaseInfo
	if err := json.Unmarshal(data, &info); err != nil || info.TagName == "" {
		return ReleaseInfo{}, false
	}
	if c.now().Sub(info.FetchedAt) > cacheTTL {
		return ReleaseInfo{}, false
	}
	return info, true
}

func (c *Checker) writeCache(info ReleaseInfo) error {
	if c.cachePath == "" {
		return nil
	}
	data, err := json.Marshal(info)
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(c.cachePath), 0o755); err != nil {
		return err
	}
	return atomic.WriteFile(c.cachePath, bytes.NewReader(data))
}

func (c *Checker) fetchRelease(ctx context.Context) (ReleaseInfo, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.url, nil)
	if err != nil {
		return ReleaseInfo{}, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Accept", "application/vnd.github+json")
	req.Header.Set("User-Agent", "repodoc-update-checker")

	resp, err := c.client.Do(req)
	if err != nil {
		return ReleaseInfo{}, fmt.Errorf("request latest release: %w", err)
	}
	defer func() {
		if err := resp.Body.Close(); err != nil {
			log.Debug().Err(err).Msg("update check: close latest release response body")
		}
	}()

	if resp.StatusCode != http.StatusOK {
		return ReleaseInfo{}, fmt.Errorf("request latest release: status %d", resp.StatusCode)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return ReleaseInfo{}, fmt.Errorf("read latest release body: %w", err)
	}

	var info ReleaseInfo
	if err := json.Unmarshal(body, &info); err != nil {
		return ReleaseInfo{}, fmt.Errorf("decode latest release: %w", err)
	}
	if info.TagName == "" {
		return ReleaseInfo{}, fmt.Errorf("decode latest release: missing tag_name")
	}
	info.FetchedAt = c.now()

	return info, nil
}

func normalizeVersion(version string) (string, bool) {
	if semver.IsValid(version) {
		return version, true
	}

	withPrefix := "v" + version
	if semver.IsValid(withPrefix) {
		return withPrefix, true
	}

	return "", false
}
