package fragment

import (
	"context"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
	"testing/fstest"
	"time"

	"cloud.google.com/go/storage"
	"github.com/stretchr/testify/require"
	"google.golang.org/api/option"
)

const thankYouHTML = `<!DOCTYPE html>
<html><head><title>Thank You | MCAT Edge</title></head>
<body><main id="thank-you"><h1>You're on the list</h1></main></body></html>`

func TestParseExtractsBody(t *testing.T) {
	t.Parallel()

	doc, err := Parse([]byte(thankYouHTML))
	require.NoError(t, err)
	require.Equal(t, "Thank You | MCAT Edge", doc.Title)
	require.Equal(t, `<main id="thank-you"><h1>You&#39;re on the list</h1></main>`, doc.Body)
}

func TestExtractBodyWithoutBodyTag(t *testing.T) {
	t.Parallel()

	body, err := ExtractBody([]byte(`<p>bare</p>`))
	require.NoError(t, err)
	require.Equal(t, "<p>bare</p>", body)

	body, err = ExtractBody(nil)
	require.NoError(t, err)
	require.Empty(t, body)
}

func TestFSSource(t *testing.T) {
	t.Parallel()

	src := NewFSSource(fstest.MapFS{"thank-you.html": {Data: []byte(thankYouHTML)}})
	data, err := src.Fetch(context.Background(), "thank-you.html")
	require.NoError(t, err)
	require.Equal(t, thankYouHTML, string(data))

	_, err = src.Fetch(context.Background(), "missing.html")
	require.ErrorIs(t, err, ErrNotFound)

	for _, name := range []string{"", "/etc/passwd", "../secret.html", "a/../../b"} {
		_, err = src.Fetch(context.Background(), name)
		require.Error(t, err, name)
	}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err = src.Fetch(ctx, "thank-you.html")
	require.ErrorIs(t, err, context.Canceled)
}

func TestHTTPSource(t *testing.T) {
	t.Parallel()

	var gotUA string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotUA = r.UserAgent()
		switch r.URL.Path {
		case "/pages/thank-you.html":
			w.Header().Set("Content-Type", "text/html")
			_, _ = w.Write([]byte(thankYouHTML))
		case "/pages/broken.html":
			w.WriteHeader(http.StatusInternalServerError)
		default:
			http.NotFound(w, r)
		}
	}))
	defer srv.Close()

	src, err := NewHTTPSource(HTTPConfig{BaseURL: srv.URL + "/pages", UserAgent: "landing-test", Timeout: time.Second})
	require.NoError(t, err)

	for range 2 {
		data, err := src.Fetch(context.Background(), "thank-you.html")
		require.NoError(t, err)
		require.Equal(t, thankYouHTML, string(data))
	}
	require.Equal(t, "landing-test", gotUA)

	_, err = src.Fetch(context.Background(), "missing.html")
	require.ErrorIs(t, err, ErrNotFound)

	_, err = src.Fetch(context.Background(), "broken.html")
	require.Error(t, err)
	require.NotErrorIs(t, err, ErrNotFound)
}

func TestNewHTTPSourceValidation(t *testing.T) {
	t.Parallel()

	_, err := NewHTTPSource(HTTPConfig{BaseURL: "not a url"})
	require.Error(t, err)
	_, err = NewHTTPSource(HTTPConfig{})
	require.Error(t, err)
}

func TestGCSSource(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		p, _ := url.PathUnescape(r.URL.EscapedPath())
		if strings.HasSuffix(p, "site/fragments/thank-you.html") {
			w.Header().Set("Content-Type", "text/html")
			_, _ = w.Write([]byte(thankYouHTML))
			return
		}
		http.NotFound(w, r)
	}))
	defer srv.Close()

	ctx := context.Background()
	client, err := storage.NewClient(ctx,
		option.WithEndpoint(srv.URL+"/storage/v1/"),
		option.WithoutAuthentication(),
		option.WithHTTPClient(srv.Client()),
	)
	require.NoError(t, err)
	defer client.Close()

	src, err := NewGCSSource(client, "mcatedge-site", "site/fragments")
	require.NoError(t, err)

	data, err := src.Fetch(ctx, "thank-you.html")
	require.NoError(t, err)
	require.Equal(t, thankYouHTML, string(data))

	_, err = src.Fetch(ctx, "missing.html")
	require.ErrorIs(t, err, ErrNotFound)

	_, err = src.Fetch(ctx, "../index.html")
	require.Error(t, err)
}

func TestNewGCSSourceValidation(t *testing.T) {
	t.Parallel()

	_, err := NewGCSSource(nil, "bucket", "")
	require.Error(t, err)
	client, err := storage.NewClient(context.Background(), option.WithoutAuthentication())
	require.NoError(t, err)
	defer client.Close()
	_, err = NewGCSSource(client, "", "")
	require.Error(t, err)
}
