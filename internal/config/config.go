// Package config loads and validates landing service configuration via Viper.
package config

import (
	"errors"
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config captures all service configuration knobs loaded via Viper.
type Config struct {
	Server    ServerConfig    `mapstructure:"server"`
	Logging   LoggingConfig   `mapstructure:"logging"`
	Site      SiteConfig      `mapstructure:"site"`
	Recaptcha RecaptchaConfig `mapstructure:"recaptcha"`
	API       APIConfig       `mapstructure:"api"`
	HTTP      HTTPConfig      `mapstructure:"http"`
	Waitlist  WaitlistConfig  `mapstructure:"waitlist"`
	Fragments FragmentsConfig `mapstructure:"fragments"`
	Session   SessionConfig   `mapstructure:"session"`
	RateLimit RateLimitConfig `mapstructure:"ratelimit"`
	Analytics AnalyticsConfig `mapstructure:"analytics"`
	Headless  HeadlessConfig  `mapstructure:"headless"`
	Telemetry TelemetryConfig `mapstructure:"telemetry"`
}

// ServerConfig controls HTTP server behavior.
type ServerConfig struct {
	Port                   int `mapstructure:"port"`
	ReadTimeoutSeconds     int `mapstructure:"read_timeout_seconds"`
	WriteTimeoutSeconds    int `mapstructure:"write_timeout_seconds"`
	ShutdownTimeoutSeconds int `mapstructure:"shutdown_timeout_seconds"`
}

// LoggingConfig toggles zap development features.
type LoggingConfig struct {
	Development bool   `mapstructure:"development"`
	Level       string `mapstructure:"level"`
}

// SiteConfig describes the public landing site.
type SiteConfig struct {
	PublicURL    string `mapstructure:"public_url"`
	CookieSecure bool   `mapstructure:"cookie_secure"`
}

// RecaptchaConfig holds the bot-check widget parameters.
type RecaptchaConfig struct {
	SiteKey string `mapstructure:"site_key"`
	Action  string `mapstructure:"action"`
}

// APIConfig locates the remote newsletter API.
type APIConfig struct {
	BaseURL        string `mapstructure:"base_url"`
	NewsletterPath string `mapstructure:"newsletter_path"`
}

// HTTPConfig configures the outbound HTTP client.
type HTTPConfig struct {
	TimeoutSeconds int    `mapstructure:"timeout_seconds"`
	UserAgent      string `mapstructure:"user_agent"`
}

// WaitlistConfig tunes the signup flow.
type WaitlistConfig struct {
	RedirectPath        string `mapstructure:"redirect_path"`
	RedirectDelayMs     int    `mapstructure:"redirect_delay_ms"`
	SuccessClearSeconds int    `mapstructure:"success_clear_seconds"`
	LoadingClearSeconds int    `mapstructure:"loading_clear_seconds"`
}

// FragmentsConfig selects where routed fragments come from: "embed", "dir", "http" or "gcs".
type FragmentsConfig struct {
	Source  string `mapstructure:"source"`
	Dir     string `mapstructure:"dir"`
	BaseURL string `mapstructure:"base_url"`
	Bucket  string `mapstructure:"bucket"`
	Prefix  string `mapstructure:"prefix"`
}

// SessionConfig selects the form session latch backend: "local" or "redis".
type SessionConfig struct {
	Backend         string `mapstructure:"backend"`
	RedisAddr       string `mapstructure:"redis_addr"`
	RedisPassword   string `mapstructure:"redis_password"`
	RedisDB         int    `mapstructure:"redis_db"`
	KeyPrefix       string `mapstructure:"key_prefix"`
	LatchTTLSeconds int    `mapstructure:"latch_ttl_seconds"`
}

// RateLimitConfig bounds waitlist POSTs per client.
type RateLimitConfig struct {
	RPS            float64 `mapstructure:"rps"`
	Burst          int     `mapstructure:"burst"`
	IdleTTLSeconds int     `mapstructure:"idle_ttl_seconds"`
}

// AnalyticsConfig controls the event hub and its sinks.
type AnalyticsConfig struct {
	Enabled         bool   `mapstructure:"enabled"`
	BufferSize      int    `mapstructure:"buffer_size"`
	MaxBatchEvents  int    `mapstructure:"max_batch_events"`
	MaxBatchWaitMs  int    `mapstructure:"max_batch_wait_ms"`
	LogSink         bool   `mapstructure:"log_sink"`
	PrometheusSink  bool   `mapstructure:"prometheus_sink"`
	PubSubProjectID string `mapstructure:"pubsub_project_id"`
	PubSubTopic     string `mapstructure:"pubsub_topic"`
}

// HeadlessConfig configures the headless bot-check provider used by the CLI.
type HeadlessConfig struct {
	MaxParallel   int    `mapstructure:"max_parallel"`
	NavTimeoutSec int    `mapstructure:"nav_timeout_seconds"`
	UserAgent     string `mapstructure:"user_agent"`
}

// TelemetryConfig controls tracing.
type TelemetryConfig struct {
	ServiceName string `mapstructure:"service_name"`
	Version     string `mapstructure:"version"`
	ProjectID   string `mapstructure:"project_id"`
}

// Load builds a Config from defaults, an optional file and LANDING_* environment variables.
func Load(path string) (Config, error) {
	v := viper.New()
	v.SetEnvPrefix("LANDING")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	setDefaults(v)

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return Config{}, fmt.Errorf("read config: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return Config{}, fmt.Errorf("unmarshal config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}

	return cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("server.port", 8080)
	v.SetDefault("server.read_timeout_seconds", 10)
	v.SetDefault("server.write_timeout_seconds", 30)
	v.SetDefault("server.shutdown_timeout_seconds", 15)
	v.SetDefault("logging.development", false)
	v.SetDefault("logging.level", "")
	v.SetDefault("site.public_url", "http://localhost:8080")
	v.SetDefault("site.cookie_secure", false)
	v.SetDefault("recaptcha.site_key", "6LcYr60rAAAAAHqHNM9-Aldd44dXPcjZl8JVphsC")
	v.SetDefault("recaptcha.action", "submit")
	v.SetDefault("api.base_url", "https://api.mcatedge.com/api/v1")
	v.SetDefault("api.newsletter_path", "/newsletter-subscribe")
	v.SetDefault("http.timeout_seconds", 15)
	v.SetDefault("http.user_agent", "mcatedge-landing/1.0")
	v.SetDefault("waitlist.redirect_path", "/thank-you.html")
	v.SetDefault("waitlist.redirect_delay_ms", 2000)
	v.SetDefault("waitlist.success_clear_seconds", 8)
	v.SetDefault("waitlist.loading_clear_seconds", 10)
	v.SetDefault("fragments.source", "embed")
	v.SetDefault("fragments.dir", "")
	v.SetDefault("fragments.base_url", "")
	v.SetDefault("fragments.bucket", "")
	v.SetDefault("fragments.prefix", "")
	v.SetDefault("session.backend", "local")
	v.SetDefault("session.redis_addr", "localhost:6379")
	v.SetDefault("session.redis_password", "")
	v.SetDefault("session.redis_db", 0)
	v.SetDefault("session.key_prefix", "landing:")
	v.SetDefault("session.latch_ttl_seconds", 30)
	v.SetDefault("ratelimit.rps", 0.5)
	v.SetDefault("ratelimit.burst", 5)
	v.SetDefault("ratelimit.idle_ttl_seconds", 600)
	v.SetDefault("analytics.enabled", true)
	v.SetDefault("analytics.buffer_size", 1024)
	v.SetDefault("analytics.max_batch_events", 100)
	v.SetDefault("analytics.max_batch_wait_ms", 1000)
	v.SetDefault("analytics.log_sink", true)
	v.SetDefault("analytics.prometheus_sink", true)
	v.SetDefault("analytics.pubsub_project_id", "")
	v.SetDefault("analytics.pubsub_topic", "")
	v.SetDefault("headless.max_parallel", 1)
	v.SetDefault("headless.nav_timeout_seconds", 30)
	v.SetDefault("headless.user_agent", "")
	v.SetDefault("telemetry.service_name", "mcatedge-landing")
	v.SetDefault("telemetry.version", "dev")
	v.SetDefault("telemetry.project_id", "")
}

// Validate enforces required values and reasonable limits.
func (c Config) Validate() error {
	var errs []error
	if c.Server.Port <= 0 {
		errs = append(errs, errors.New("server.port must be > 0"))
	}
	if c.Recaptcha.SiteKey == "" {
		errs = append(errs, errors.New("recaptcha.site_key must be set"))
	}
	if u, err := url.Parse(c.API.BaseURL); err != nil || u.Scheme == "" || u.Host == "" {
		errs = append(errs, fmt.Errorf("api.base_url %q must be an absolute URL", c.API.BaseURL))
	}
	if c.HTTP.TimeoutSeconds <= 0 {
		errs = append(errs, errors.New("http.timeout_seconds must be > 0"))
	}
	if !strings.HasPrefix(c.Waitlist.RedirectPath, "/") {
		errs = append(errs, errors.New("waitlist.redirect_path must start with /"))
	}
	switch c.Fragments.Source {
	case "embed":
	case "dir":
		if c.Fragments.Dir == "" {
			errs = append(errs, errors.New("fragments.dir must be set for the dir source"))
		}
	case "http":
		if c.Fragments.BaseURL == "" {
			errs = append(errs, errors.New("fragments.base_url must be set for the http source"))
		}
	case "gcs":
		if c.Fragments.Bucket == "" {
			errs = append(errs, errors.New("fragments.bucket must be set for the gcs source"))
		}
	default:
		errs = append(errs, fmt.Errorf("fragments.source %q is not one of embed, dir, http, gcs", c.Fragments.Source))
	}
	switch c.Session.Backend {
	case "local":
	case "redis":
		if c.Session.RedisAddr == "" {
			errs = append(errs, errors.New("session.redis_addr must be set for the redis backend"))
		}
	default:
		errs = append(errs, fmt.Errorf("session.backend %q is not one of local, redis", c.Session.Backend))
	}
	if c.RateLimit.RPS > 0 && c.RateLimit.Burst <= 0 {
		errs = append(errs, errors.New("ratelimit.burst must be > 0 when ratelimit.rps is set"))
	}
	if (c.Analytics.PubSubProjectID == "") != (c.Analytics.PubSubTopic == "") {
		errs = append(errs, errors.New("analytics.pubsub_project_id and analytics.pubsub_topic must be set together"))
	}
	if c.Headless.MaxParallel < 0 {
		errs = append(errs, errors.New("headless.max_parallel must be >= 0"))
	}
	return errors.Join(errs...)
}

// HTTPTimeout returns the outbound request timeout.
func (c Config) HTTPTimeout() time.Duration {
	return time.Duration(c.HTTP.TimeoutSeconds) * time.Second
}

// RedirectDelay returns the delay before the confirmation redirect.
func (c Config) RedirectDelay() time.Duration {
	return time.Duration(c.Waitlist.RedirectDelayMs) * time.Millisecond
}

// ShutdownTimeout returns the graceful shutdown budget.
func (c Config) ShutdownTimeout() time.Duration {
	return time.Duration(c.Server.ShutdownTimeoutSeconds) * time.Second
}
