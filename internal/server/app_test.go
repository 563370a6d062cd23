package server

import (
	"context"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"github.com/JakeFAU/mcatedge-landing/internal/config"
)

func testConfig(t *testing.T) config.Config {
	t.Helper()
	cfg, err := config.Load("")
	require.NoError(t, err)
	cfg.Analytics.PrometheusSink = false
	return cfg
}

func TestBuildServesLandingPage(t *testing.T) {
	t.Parallel()

	app, err := Build(context.Background(), testConfig(t), zaptest.NewLogger(t))
	require.NoError(t, err)
	t.Cleanup(func() { app.Close(context.Background()) })

	rec := httptest.NewRecorder()
	app.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	require.Contains(t, rec.Body.String(), `id="waitlistForm"`)

	rec = httptest.NewRecorder()
	app.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/thank-you", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	require.Contains(t, rec.Body.String(), "thankyou:init")
}

func TestBuildWithDirectoryFragments(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	doc := "<html><head><title>Local</title></head><body><p>from disk</p></body></html>"
	require.NoError(t, os.WriteFile(filepath.Join(dir, "thank-you.html"), []byte(doc), 0o600))

	cfg := testConfig(t)
	cfg.Fragments.Source = "dir"
	cfg.Fragments.Dir = dir
	app, err := Build(context.Background(), cfg, nil)
	require.NoError(t, err)
	t.Cleanup(func() { app.Close(context.Background()) })

	req := httptest.NewRequest(http.MethodGet, "/thank-you", nil)
	req.Header.Set("HX-Request", "true")
	rec := httptest.NewRecorder()
	app.Handler().ServeHTTP(rec, req)
	require.Equal(t, "<p>from disk</p>", rec.Body.String())
}

func TestBuildWithRedisSessions(t *testing.T) {
	t.Parallel()

	mr := miniredis.RunT(t)
	cfg := testConfig(t)
	cfg.Session.Backend = "redis"
	cfg.Session.RedisAddr = mr.Addr()
	app, err := Build(context.Background(), cfg, nil)
	require.NoError(t, err)
	t.Cleanup(func() { app.Close(context.Background()) })

	rec := httptest.NewRecorder()
	app.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/readyz", nil))
	require.Equal(t, http.StatusOK, rec.Code)

	mr.Close()
	rec = httptest.NewRecorder()
	app.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/readyz", nil))
	require.Equal(t, http.StatusServiceUnavailable, rec.Code)
}

func TestBuildRejectsInvalidHTTPSource(t *testing.T) {
	t.Parallel()

	cfg := testConfig(t)
	cfg.Fragments.Source = "http"
	cfg.Fragments.BaseURL = "://bad"
	_, err := Build(context.Background(), cfg, nil)
	require.Error(t, err)
}

func TestNewBoardUsesConfiguredDelays(t *testing.T) {
	t.Parallel()

	require.NotNil(t, NewBoard(testConfig(t)))
	require.NotNil(t, NewSubmitter(testConfig(t), nil))
}
