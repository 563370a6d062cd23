// Package newsletter implements the waitlist submission client for the remote newsletter API.
package newsletter

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
	"go.uber.org/zap"

	"github.com/JakeFAU/mcatedge-landing/internal/waitlist"
)

const (
	// DefaultBaseURL is the production API root.
	DefaultBaseURL = "https://api.mcatedge.com/api/v1"
	// DefaultPath is the subscription endpoint below the API root.
	DefaultPath = "/newsletter-subscribe"

	defaultTimeout = 15 * time.Second
	maxBodyBytes   = 1 << 20
)

// Config controls the client.
type Config struct {
	BaseURL   string
	Path      string
	Timeout   time.Duration
	UserAgent string
}

// Endpoint returns the absolute submission URL.
func (c Config) Endpoint() string {
	base := c.BaseURL
	if base == "" {
		base = DefaultBaseURL
	}
	path := c.Path
	if path == "" {
		path = DefaultPath
	}
	return strings.TrimRight(base, "/") + "/" + strings.TrimLeft(path, "/")
}

// Client posts signups to the newsletter API. It implements waitlist.Submitter.
type Client struct {
	endpoint  string
	userAgent string
	http      *http.Client
	logger    *zap.Logger
}

// New constructs a Client. A nil httpClient gets an otelhttp-instrumented default.
func New(cfg Config, httpClient *http.Client, logger *zap.Logger) *Client {
	if cfg.Timeout <= 0 {
		cfg.Timeout = defaultTimeout
	}
	if httpClient == nil {
		httpClient = &http.Client{
			Transport: otelhttp.NewTransport(http.DefaultTransport),
			Timeout:   cfg.Timeout,
		}
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Client{
		endpoint:  cfg.Endpoint(),
		userAgent: cfg.UserAgent,
		http:      httpClient,
		logger:    logger.Named("newsletter"),
	}
}

type subscribeBody struct {
	Name       string  `json:"name"`
	Email      string  `json:"email"`
	Bot        string  `json:"bot"`
	BotCapture *string `json:"bot_capture"`
	Captcha    string  `json:"captcha"`
}

// Submit sends exactly one POST and returns the decoded JSON object regardless of status code.
func (c *Client) Submit(ctx context.Context, req waitlist.SubmissionRequest) (waitlist.RawResponse, error) {
	payload, err := json.Marshal(subscribeBody{
		Name:    req.Name,
		Email:   req.Email,
		Bot:     "bot",
		Captcha: req.BotToken,
	})
	if err != nil {
		return nil, fmt.Errorf("%w: encode body: %w", waitlist.ErrNetworkFailure, err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint, bytes.NewReader(payload))
	if err != nil {
		return nil, fmt.Errorf("%w: build request: %w", waitlist.ErrNetworkFailure, err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("Accept", "application/json")
	if c.userAgent != "" {
		httpReq.Header.Set("User-Agent", c.userAgent)
	}

	start := time.Now()
	resp, err := c.http.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("%w: post %s: %w", waitlist.ErrNetworkFailure, c.endpoint, err)
	}
	defer func() {
		if cerr := resp.Body.Close(); cerr != nil {
			c.logger.Debug("close response body", zap.Error(cerr))
		}
	}()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
	if err != nil {
		return nil, fmt.Errorf("%w: read body: %w", waitlist.ErrNetworkFailure, err)
	}
	c.logger.Debug("newsletter api responded",
		zap.Int("status", resp.StatusCode),
		zap.Duration("duration", time.Since(start)),
	)

	raw, err := decodeObject(body)
	if err != nil {
		return nil, fmt.Errorf("%w: status %d: %w", waitlist.ErrNetworkFailure, resp.StatusCode, err)
	}
	return raw, nil
}

var errNotObject = errors.New("response is not a JSON object")

func decodeObject(body []byte) (waitlist.RawResponse, error) {
	var raw waitlist.RawResponse
	if err := json.Unmarshal(body, &raw); err != nil {
		var typeErr *json.UnmarshalTypeError
		if errors.As(err, &typeErr) {
			return nil, errNotObject
		}
		return nil, fmt.Errorf("decode body: %w", err)
	}
	if raw == nil {
		return nil, errNotObject
	}
	return raw, nil
}
