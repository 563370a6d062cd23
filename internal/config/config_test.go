package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func TestLoadDefaults(t *testing.T) {
	t.Parallel()

	cfg, err := Load("")
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cfg.Recaptcha.SiteKey != "6LcYr60rAAAAAHqHNM9-Aldd44dXPcjZl8JVphsC" {
		t.Fatalf("unexpected site key %q", cfg.Recaptcha.SiteKey)
	}
	if cfg.API.BaseURL != "https://api.mcatedge.com/api/v1" || cfg.API.NewsletterPath != "/newsletter-subscribe" {
		t.Fatalf("unexpected api defaults: %+v", cfg.API)
	}
	if cfg.Recaptcha.Action != "submit" {
		t.Fatalf("expected submit action, got %q", cfg.Recaptcha.Action)
	}
	if got := cfg.RedirectDelay(); got != 2*time.Second {
		t.Fatalf("expected 2s redirect delay, got %v", got)
	}
	if cfg.Waitlist.SuccessClearSeconds != 8 || cfg.Waitlist.LoadingClearSeconds != 10 {
		t.Fatalf("unexpected clear defaults: %+v", cfg.Waitlist)
	}
	if cfg.Fragments.Source != "embed" || cfg.Session.Backend != "local" {
		t.Fatalf("unexpected backend defaults: %+v %+v", cfg.Fragments, cfg.Session)
	}
}

func TestLoadWithFileOverrides(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	configYAML := `
server:
  port: 9090
logging:
  development: true
  level: debug
api:
  base_url: https://staging-api.mcatedge.com/api/v1
http:
  timeout_seconds: 45
waitlist:
  redirect_delay_ms: 500
fragments:
  source: gcs
  bucket: mcatedge-site
  prefix: fragments
session:
  backend: redis
  redis_addr: redis:6379
  latch_ttl_seconds: 60
ratelimit:
  rps: 2
  burst: 4
analytics:
  pubsub_project_id: mcatedge
  pubsub_topic: landing-analytics
`
	if err := os.WriteFile(path, []byte(configYAML), 0o600); err != nil {
		t.Fatalf("failed to write config: %v", err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	if cfg.Server.Port != 9090 {
		t.Fatalf("expected port 9090, got %d", cfg.Server.Port)
	}
	if !cfg.Logging.Development || cfg.Logging.Level != "debug" {
		t.Fatalf("expected logging overrides: %+v", cfg.Logging)
	}
	if cfg.API.BaseURL != "https://staging-api.mcatedge.com/api/v1" {
		t.Fatalf("expected api override, got %q", cfg.API.BaseURL)
	}
	if cfg.API.NewsletterPath != "/newsletter-subscribe" {
		t.Fatalf("expected default path to survive, got %q", cfg.API.NewsletterPath)
	}
	if got := cfg.HTTPTimeout(); got != 45*time.Second {
		t.Fatalf("expected 45s timeout, got %v", got)
	}
	if got := cfg.RedirectDelay(); got != 500*time.Millisecond {
		t.Fatalf("expected 500ms redirect delay, got %v", got)
	}
	if cfg.Fragments.Source != "gcs" || cfg.Fragments.Bucket != "mcatedge-site" {
		t.Fatalf("expected gcs fragments: %+v", cfg.Fragments)
	}
	if cfg.Session.Backend != "redis" || cfg.Session.LatchTTLSeconds != 60 {
		t.Fatalf("expected redis session: %+v", cfg.Session)
	}
	if cfg.RateLimit.RPS != 2 || cfg.RateLimit.Burst != 4 {
		t.Fatalf("expected rate limit overrides: %+v", cfg.RateLimit)
	}
}

func TestLoadEnvOverrides(t *testing.T) {
	t.Setenv("LANDING_SERVER_PORT", "7070")
	t.Setenv("LANDING_RECAPTCHA_SITE_KEY", "env-site-key")

	cfg, err := Load("")
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cfg.Server.Port != 7070 {
		t.Fatalf("expected env port, got %d", cfg.Server.Port)
	}
	if cfg.Recaptcha.SiteKey != "env-site-key" {
		t.Fatalf("expected env site key, got %q", cfg.Recaptcha.SiteKey)
	}
}

func TestLoadMissingFile(t *testing.T) {
	t.Parallel()

	if _, err := Load(filepath.Join(t.TempDir(), "missing.yaml")); err == nil {
		t.Fatal("expected error for missing config file")
	}
}

func TestConfigValidateErrors(t *testing.T) {
	t.Parallel()

	base, err := Load("")
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	tests := []struct {
		name   string
		mutate func(*Config)
		want   string
	}{
		{name: "invalid port", mutate: func(c *Config) { c.Server.Port = 0 }, want: "server.port"},
		{name: "missing site key", mutate: func(c *Config) { c.Recaptcha.SiteKey = "" }, want: "recaptcha.site_key"},
		{name: "relative api url", mutate: func(c *Config) { c.API.BaseURL = "/api/v1" }, want: "api.base_url"},
		{name: "invalid timeout", mutate: func(c *Config) { c.HTTP.TimeoutSeconds = 0 }, want: "http.timeout_seconds"},
		{name: "relative redirect", mutate: func(c *Config) { c.Waitlist.RedirectPath = "thank-you.html" }, want: "waitlist.redirect_path"},
		{name: "unknown fragment source", mutate: func(c *Config) { c.Fragments.Source = "s3" }, want: "fragments.source"},
		{name: "dir without path", mutate: func(c *Config) { c.Fragments.Source = "dir" }, want: "fragments.dir"},
		{name: "http without base", mutate: func(c *Config) { c.Fragments.Source = "http" }, want: "fragments.base_url"},
		{name: "gcs without bucket", mutate: func(c *Config) { c.Fragments.Source = "gcs" }, want: "fragments.bucket"},
		{name: "unknown session backend", mutate: func(c *Config) { c.Session.Backend = "memcached" }, want: "session.backend"},
		{
			name:   "redis without addr",
			mutate: func(c *Config) { c.Session.Backend = "redis"; c.Session.RedisAddr = "" },
			want:   "session.redis_addr",
		},
		{name: "rate without burst", mutate: func(c *Config) { c.RateLimit.Burst = 0 }, want: "ratelimit.burst"},
		{name: "topic without project", mutate: func(c *Config) { c.Analytics.PubSubTopic = "t" }, want: "analytics.pubsub_project_id"},
		{name: "negative headless parallel", mutate: func(c *Config) { c.Headless.MaxParallel = -1 }, want: "headless.max_parallel"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			cfg := base
			tt.mutate(&cfg)
			err := cfg.Validate()
			if err == nil || !strings.Contains(err.Error(), tt.want) {
				t.Fatalf("expected error containing %q, got %v", tt.want, err)
			}
		})
	}
}
