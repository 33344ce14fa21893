package main

import (
	"bytes"
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"sync/atomic"
	"testing"

	"github.com/alejandrodnm/pairscout/internal/domain"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const fixturePath = "../../testdata/fixtures/dexscreener_pairs.json"

func providerStub(t *testing.T) (*httptest.Server, *atomic.Int32) {
	t.Helper()
	body, err := os.ReadFile(fixturePath)
	require.NoError(t, err)

	var hits atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		hits.Add(1)
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write(body)
	}))
	t.Cleanup(srv.Close)
	return srv, &hits
}

func writeConfig(t *testing.T, baseURL, dsn string) string {
	t.Helper()
	yml := fmt.Sprintf(`
api:
  base_url: %s
  min_interval_ms: 1
discovery:
  strategies:
    - name: keywords
      kind: search
      values: [fresh]
profiles:
  - name: everything
poller:
  profile: everything
storage:
  dsn: %s
log:
  level: error
`, baseURL, dsn)
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(yml), 0o600))
	return path
}

func run(t *testing.T, args ...string) (string, error) {
	t.Helper()
	var out bytes.Buffer
	root := newRootCmd()
	root.SetOut(&out)
	root.SetErr(&out)
	root.SetArgs(args)
	err := root.Execute()
	return out.String(), err
}

func TestScanCommand_PrintsRankedPairs(t *testing.T) {
	srv, hits := providerStub(t)
	cfgPath := writeConfig(t, srv.URL, ":memory:")

	out, err := run(t, "--config", cfgPath, "--no-history", "--table", "scan", "--profile", "everything")

	require.NoError(t, err)
	assert.Equal(t, int32(1), hits.Load())
	assert.Contains(t, out, "everything: 2 pairs")
	assert.Contains(t, out, "ACAT/SOL")
	assert.Contains(t, out, "BETA/USDC")
}

func TestScanCommand_WritesHistory(t *testing.T) {
	srv, _ := providerStub(t)
	dsn := filepath.Join(t.TempDir(), "history.db")
	cfgPath := writeConfig(t, srv.URL, dsn)

	_, err := run(t, "--config", cfgPath, "scan", "--profile", "everything")
	require.NoError(t, err)

	out, err := run(t, "--config", cfgPath, "--table", "history", "--since", "87600h")
	require.NoError(t, err)
	assert.Contains(t, out, "HISTORY")
	assert.Contains(t, out, "1 passes stored")
	assert.Contains(t, out, "ACAT/SOL")
}

func TestScanCommand_UnknownProfile(t *testing.T) {
	srv, _ := providerStub(t)
	cfgPath := writeConfig(t, srv.URL, ":memory:")

	_, err := run(t, "--config", cfgPath, "--no-history", "scan", "--profile", "nope")
	assert.Error(t, err)
}

func TestWatchCommand_OnceAnnouncesAndSummarises(t *testing.T) {
	srv, hits := providerStub(t)
	cfgPath := writeConfig(t, srv.URL, ":memory:")

	out, err := run(t, "--config", cfgPath, "--no-history", "watch", "--once", "--fresh-window", "1h")

	require.NoError(t, err)
	assert.Equal(t, int32(1), hits.Load())
	assert.Equal(t, 2, strings.Count(out, "] NEW "))
	assert.Contains(t, out, "ACAT/SOL")
	assert.Contains(t, out, "FRESH (last 1h0m0s, 2 pairs)")
}

func TestAnalyzeCommand_ReportsMostLiquidPair(t *testing.T) {
	srv, hits := providerStub(t)
	cfgPath := writeConfig(t, srv.URL, ":memory:")

	out, err := run(t, "--config", cfgPath, "analyze", "MintAAA")

	require.NoError(t, err)
	assert.Equal(t, int32(1), hits.Load())
	assert.Contains(t, out, "ANALYSIS MintAAA")
	assert.Contains(t, out, "ACAT/SOL")
	assert.Contains(t, out, "(2 pairs found)")
	assert.Contains(t, out, domain.NotVerifiedWarning)
}

func TestAnalyzeCommand_RequiresAddress(t *testing.T) {
	srv, hits := providerStub(t)
	cfgPath := writeConfig(t, srv.URL, ":memory:")

	_, err := run(t, "--config", cfgPath, "analyze")

	assert.Error(t, err)
	assert.Zero(t, hits.Load())
}

func TestProfilesCommand(t *testing.T) {
	srv, hits := providerStub(t)
	cfgPath := writeConfig(t, srv.URL, ":memory:")

	out, err := run(t, "--config", cfgPath, "profiles")

	require.NoError(t, err)
	assert.Zero(t, hits.Load())
	for _, name := range []string{"alpha", "discovery", "everything", "gem", "ultra_fresh"} {
		assert.Contains(t, out, name)
	}
}

func TestRoot_MissingConfig(t *testing.T) {
	_, err := run(t, "--config", filepath.Join(t.TempDir(), "nope.yaml"), "profiles")
	assert.Error(t, err)
}
