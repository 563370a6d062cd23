package fragment

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/gocolly/colly/v2"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
)

// HTTPConfig controls the origin fetcher.
type HTTPConfig struct {
	BaseURL   string
	UserAgent string
	Timeout   time.Duration
}

// HTTPSource fetches fragments from an HTTP origin with a colly collector.
type HTTPSource struct {
	base      *url.URL
	cfg       HTTPConfig
	collector *colly.Collector
}

// NewHTTPSource builds an HTTPSource rooted at cfg.BaseURL.
func NewHTTPSource(cfg HTTPConfig) (*HTTPSource, error) {
	base, err := url.Parse(strings.TrimRight(cfg.BaseURL, "/") + "/")
	if err != nil || base.Scheme == "" || base.Host == "" {
		return nil, fmt.Errorf("invalid fragment base url %q", cfg.BaseURL)
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 10 * time.Second
	}
	c := colly.NewCollector(colly.Async(false), colly.AllowURLRevisit())
	c.IgnoreRobotsTxt = true
	c.WithTransport(otelhttp.NewTransport(newHTTPTransport()))
	c.SetRequestTimeout(cfg.Timeout)
	return &HTTPSource{base: base, cfg: cfg, collector: c}, nil
}

// Fetch implements Source. Non-2xx responses are errors; 404 maps to ErrNotFound.
func (s *HTTPSource) Fetch(ctx context.Context, name string) ([]byte, error) {
	if err := validName(name); err != nil {
		return nil, err
	}
	target := s.base.ResolveReference(&url.URL{Path: name}).String()

	// Clones share the backend client, so per-fetch state lives in callbacks only.
	collector := s.collector.Clone()
	if s.cfg.UserAgent != "" {
		collector.UserAgent = s.cfg.UserAgent
	}

	var (
		body     []byte
		status   int
		fetchErr error
	)
	collector.OnRequest(func(r *colly.Request) {
		r.Headers.Set("Accept", "text/html")
	})
	collector.OnResponse(func(r *colly.Response) {
		status = r.StatusCode
		body = append([]byte(nil), r.Body...)
	})
	collector.OnError(func(r *colly.Response, err error) {
		if r != nil {
			status = r.StatusCode
		}
		fetchErr = err
	})

	done := make(chan error, 1)
	go func() {
		done <- collector.Visit(target)
	}()

	select {
	case <-ctx.Done():
		return nil, fmt.Errorf("fetch %s canceled: %w", name, ctx.Err())
	case err := <-done:
		if err == nil {
			err = fetchErr
		}
		switch {
		case status == http.StatusNotFound:
			return nil, fmt.Errorf("%w: %s", ErrNotFound, target)
		case err != nil:
			return nil, fmt.Errorf("fetch %s: %w", target, err)
		case status < 200 || status >= 300:
			return nil, fmt.Errorf("fetch %s: %w", target, errors.New(http.StatusText(status)))
		}
		return body, nil
	}
}

func newHTTPTransport() *http.Transport {
	return &http.Transport{
		Proxy: http.ProxyFromEnvironment,
		DialContext: (&net.Dialer{
			Timeout:   5 * time.Second,
			KeepAlive: 30 * time.Second,
		}).DialContext,
		TLSHandshakeTimeout:   5 * time.Second,
		ExpectContinueTimeout: time.Second,
		MaxIdleConns:          20,
		IdleConnTimeout:       90 * time.Second,
	}
}
