package cmd

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/JakeFAU/mcatedge-landing/internal/config"
)

func withTestEnv(t *testing.T, apiURL string) {
	t.Helper()
	cfg, err := config.Load("")
	require.NoError(t, err)
	cfg.API.BaseURL = apiURL

	prev := loadEnv
	loadEnv = func(string) (*cliEnv, error) {
		return &cliEnv{cfg: cfg, logger: zap.NewNop()}, nil
	}
	t.Cleanup(func() { loadEnv = prev })
}

func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()
	var out bytes.Buffer
	root := newRootCmd()
	root.SetOut(&out)
	root.SetErr(&out)
	root.SetArgs(args)
	err := root.ExecuteContext(context.Background())
	return out.String(), err
}

func TestSubscribeConfirmed(t *testing.T) {
	var got map[string]any
	api := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewDecoder(r.Body).Decode(&got)
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"status": true, "message": "Welcome"}`))
	}))
	defer api.Close()
	withTestEnv(t, api.URL)

	out, err := execute(t, "subscribe", "--name", "Ada", "--email", "ada@example.com", "--token", "tok")
	require.NoError(t, err)
	require.Contains(t, out, "[loading] Submitting...")
	require.Contains(t, out, "[success] Welcome")
	require.Contains(t, out, "redirect in 2s: /thank-you.html?status=true")
	require.Equal(t, "tok", got["captcha"])
	require.Equal(t, "Ada", got["name"])
}

func TestSubscribeValidationFailure(t *testing.T) {
	withTestEnv(t, "http://127.0.0.1:1")

	out, err := execute(t, "subscribe", "--name", "Ada", "--email", "nope", "--token", "tok")
	require.Error(t, err)
	require.Contains(t, err.Error(), "validation_failed")
	require.Contains(t, out, "Please enter a valid email address.")
}

func TestSubscribeRequiresTokenSource(t *testing.T) {
	withTestEnv(t, "http://127.0.0.1:1")

	_, err := execute(t, "subscribe", "--name", "Ada", "--email", "ada@example.com")
	require.ErrorContains(t, err, "--token or --headless")
}

func TestSubscribeUnknownForm(t *testing.T) {
	withTestEnv(t, "http://127.0.0.1:1")

	_, err := execute(t, "subscribe", "--form", "nope", "--token", "tok")
	require.ErrorContains(t, err, `unknown form "nope"`)
}

func TestRootRequiresLoadedEnv(t *testing.T) {
	_, err := resolveEnv(context.Background())
	require.Error(t, err)
}
