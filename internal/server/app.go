// Package server assembles the landing service from configuration and runs it.
package server

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"cloud.google.com/go/pubsub"
	"cloud.google.com/go/storage"
	"github.com/prometheus/client_golang/prometheus"
	backend "github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/JakeFAU/mcatedge-landing/internal/analytics"
	analyticssinks "github.com/JakeFAU/mcatedge-landing/internal/analytics/sinks"
	"github.com/JakeFAU/mcatedge-landing/internal/api"
	"github.com/JakeFAU/mcatedge-landing/internal/botcheck"
	"github.com/JakeFAU/mcatedge-landing/internal/config"
	"github.com/JakeFAU/mcatedge-landing/internal/fragment"
	"github.com/JakeFAU/mcatedge-landing/internal/message"
	"github.com/JakeFAU/mcatedge-landing/internal/metrics"
	"github.com/JakeFAU/mcatedge-landing/internal/newsletter"
	"github.com/JakeFAU/mcatedge-landing/internal/ratelimit"
	"github.com/JakeFAU/mcatedge-landing/internal/router"
	"github.com/JakeFAU/mcatedge-landing/internal/session"
	"github.com/JakeFAU/mcatedge-landing/internal/site"
	"github.com/JakeFAU/mcatedge-landing/internal/telemetry"
	"github.com/JakeFAU/mcatedge-landing/internal/waitlist"
)

const thankYouPath = "/thank-you"

// App contains the application's dependencies.
type App struct {
	cfg            config.Config
	logger         *zap.Logger
	apiServer      *api.Server
	hub            *analytics.Hub
	pubsubClient   *pubsub.Client
	storage        *storage.Client
	redis          backend.UniversalClient
	tracerShutdown func(context.Context) error
}

// Build creates the application's dependencies. Metrics registration uses the
// default Prometheus registerer, so Build is meant to run once per process.
func Build(ctx context.Context, cfg config.Config, logger *zap.Logger) (*App, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	app := &App{cfg: cfg, logger: logger}
	app.logger.Info("building application dependencies",
		zap.Int("server_port", cfg.Server.Port),
		zap.String("fragments_source", cfg.Fragments.Source),
		zap.String("session_backend", cfg.Session.Backend),
	)

	tp, err := telemetry.InitTracerProvider(ctx, telemetry.Config{
		ServiceName: cfg.Telemetry.ServiceName,
		Version:     cfg.Telemetry.Version,
		ProjectID:   cfg.Telemetry.ProjectID,
	})
	if err != nil {
		return nil, fmt.Errorf("tracer init failed: %w", err)
	}
	app.tracerShutdown = tp.Shutdown
	metrics.Init()

	src, err := setupFragments(ctx, app)
	if err != nil {
		app.cleanup(ctx)
		return nil, err
	}
	pages, err := router.New(router.DefaultRoutes(), src, logger)
	if err != nil {
		app.cleanup(ctx)
		return nil, fmt.Errorf("router init failed: %w", err)
	}
	pages.Register(thankYouPath, "thank-you-init", router.ThankYouInit)

	sessions := setupSessions(app)

	tracker, err := setupAnalytics(ctx, app)
	if err != nil {
		app.cleanup(ctx)
		return nil, err
	}

	forms := waitlist.DefaultForms()
	var limiter *ratelimit.Limiter
	if cfg.RateLimit.RPS > 0 {
		limiter = ratelimit.New(ratelimit.Config{
			RPS:     cfg.RateLimit.RPS,
			Burst:   cfg.RateLimit.Burst,
			IdleTTL: time.Duration(cfg.RateLimit.IdleTTLSeconds) * time.Second,
		})
		app.logger.Info("rate limiter enabled",
			zap.Float64("rps", cfg.RateLimit.RPS),
			zap.Int("burst", cfg.RateLimit.Burst),
		)
	} else {
		app.logger.Info("rate limiter disabled")
	}

	app.apiServer, err = api.NewServer(api.Deps{
		Forms:     forms,
		BotCheck:  botcheck.NewFormField(botcheck.NewFieldMap(forms)),
		Client:    NewSubmitter(cfg, logger),
		Tracker:   tracker,
		Board:     NewBoard(cfg),
		Sessions:  sessions,
		Router:    pages,
		Fragments: src,
		Limiter:   limiter,
		Ready:     app.ready,
		Logger:    logger,
	}, api.Options{
		SiteKey:       cfg.Recaptcha.SiteKey,
		Action:        cfg.Recaptcha.Action,
		RedirectPath:  cfg.Waitlist.RedirectPath,
		RedirectDelay: cfg.RedirectDelay(),
		CookieSecure:  cfg.Site.CookieSecure,
	})
	if err != nil {
		app.cleanup(ctx)
		return nil, fmt.Errorf("api server init failed: %w", err)
	}
	return app, nil
}

// NewSubmitter builds the newsletter client described by cfg.
func NewSubmitter(cfg config.Config, logger *zap.Logger) *newsletter.Client {
	return newsletter.New(newsletter.Config{
		BaseURL:   cfg.API.BaseURL,
		Path:      cfg.API.NewsletterPath,
		Timeout:   cfg.HTTPTimeout(),
		UserAgent: cfg.HTTP.UserAgent,
	}, nil, logger)
}

// NewBoard builds the message board with the configured clear delays.
func NewBoard(cfg config.Config) *message.Board {
	return message.NewBoard(message.Config{
		SuccessClear: time.Duration(cfg.Waitlist.SuccessClearSeconds) * time.Second,
		LoadingClear: time.Duration(cfg.Waitlist.LoadingClearSeconds) * time.Second,
	})
}

// Handler exposes the HTTP handler, mainly for tests.
func (a *App) Handler() http.Handler {
	return a.apiServer.Handler()
}

// Run serves HTTP until ctx is canceled or a termination signal arrives, then
// shuts down gracefully.
func (a *App) Run(ctx context.Context) error {
	ctx, stop := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", a.cfg.Server.Port),
		Handler:           a.apiServer.Handler(),
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       time.Duration(a.cfg.Server.ReadTimeoutSeconds) * time.Second,
		WriteTimeout:      time.Duration(a.cfg.Server.WriteTimeoutSeconds) * time.Second,
	}

	serveErr := make(chan error, 1)
	go func() {
		a.logger.Info("http server started", zap.Int("port", a.cfg.Server.Port))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			a.logger.Error("http server error", zap.Error(err))
			serveErr <- err
			stop()
		}
	}()

	<-ctx.Done()
	a.logger.Info("shutdown initiated")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), a.cfg.ShutdownTimeout())
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		a.logger.Error("server shutdown error", zap.Error(err))
	}
	a.Close(shutdownCtx)

	select {
	case err := <-serveErr:
		return fmt.Errorf("serve http: %w", err)
	default:
		return nil
	}
}

// Close releases every dependency. It is safe to call on a partially built App.
func (a *App) Close(ctx context.Context) {
	a.cleanup(ctx)
	a.logger.Info("shutdown complete")
}

func (a *App) cleanup(ctx context.Context) {
	if a.hub != nil {
		if err := a.hub.Close(ctx); err != nil {
			a.logger.Warn("analytics hub close failed", zap.Error(err))
		}
		a.hub = nil
	}
	if a.pubsubClient != nil {
		if err := a.pubsubClient.Close(); err != nil {
			a.logger.Warn("pubsub client close failed", zap.Error(err))
		}
		a.pubsubClient = nil
	}
	if a.storage != nil {
		if err := a.storage.Close(); err != nil {
			a.logger.Warn("gcs client close failed", zap.Error(err))
		}
		a.storage = nil
	}
	if a.redis != nil {
		if err := a.redis.Close(); err != nil {
			a.logger.Warn("redis client close failed", zap.Error(err))
		}
		a.redis = nil
	}
	if a.tracerShutdown != nil {
		if err := a.tracerShutdown(ctx); err != nil {
			a.logger.Warn("tracer shutdown failed", zap.Error(err))
		}
		a.tracerShutdown = nil
	}
}

func (a *App) ready(ctx context.Context) error {
	if a.redis == nil {
		return nil
	}
	if err := a.redis.Ping(ctx).Err(); err != nil {
		return fmt.Errorf("redis ping: %w", err)
	}
	return nil
}

func setupFragments(ctx context.Context, app *App) (fragment.Source, error) {
	cfg := app.cfg.Fragments
	switch cfg.Source {
	case "dir":
		app.logger.Info("using directory fragment source", zap.String("dir", cfg.Dir))
		return fragment.NewFSSource(os.DirFS(cfg.Dir)), nil
	case "http":
		app.logger.Info("using http fragment source", zap.String("base_url", cfg.BaseURL))
		src, err := fragment.NewHTTPSource(fragment.HTTPConfig{
			BaseURL:   cfg.BaseURL,
			UserAgent: app.cfg.HTTP.UserAgent,
			Timeout:   app.cfg.HTTPTimeout(),
		})
		if err != nil {
			return nil, fmt.Errorf("http fragment source init failed: %w", err)
		}
		return src, nil
	case "gcs":
		app.logger.Info("using GCS fragment source", zap.String("bucket", cfg.Bucket), zap.String("prefix", cfg.Prefix))
		client, err := storage.NewClient(ctx)
		if err != nil {
			return nil, fmt.Errorf("gcs client init failed: %w", err)
		}
		app.storage = client
		src, err := fragment.NewGCSSource(client, cfg.Bucket, cfg.Prefix)
		if err != nil {
			return nil, fmt.Errorf("gcs fragment source init failed: %w", err)
		}
		return src, nil
	default:
		app.logger.Info("using embedded fragment source")
		return fragment.NewFSSource(site.Fragments()), nil
	}
}

func setupSessions(app *App) *session.Registry {
	cfg := app.cfg.Session
	if cfg.Backend != "redis" {
		app.logger.Info("using in-process form session latches")
		return session.NewRegistry(session.LocalLatches())
	}
	app.redis = backend.NewUniversalClient(&backend.UniversalOptions{
		Addrs:    []string{cfg.RedisAddr},
		Password: cfg.RedisPassword,
		DB:       cfg.RedisDB,
	})
	app.logger.Info("using redis form session latches",
		zap.String("addr", cfg.RedisAddr),
		zap.Int("db", cfg.RedisDB),
		zap.String("key_prefix", cfg.KeyPrefix),
	)
	ttl := time.Duration(cfg.LatchTTLSeconds) * time.Second
	return session.NewRegistry(session.RedisLatches(app.redis, cfg.KeyPrefix, ttl))
}

func setupAnalytics(ctx context.Context, app *App) (waitlist.Tracker, error) {
	cfg := app.cfg.Analytics
	if !cfg.Enabled {
		app.logger.Info("analytics disabled")
		return nil, nil
	}
	var sinkList []analytics.Sink
	if cfg.LogSink {
		sinkList = append(sinkList, analyticssinks.NewLogSink(app.logger.Named("analytics_log")))
		app.logger.Debug("added analytics log sink")
	}
	if cfg.PrometheusSink {
		promSink, err := analyticssinks.NewPrometheusSink(prometheus.DefaultRegisterer)
		if err != nil {
			return nil, fmt.Errorf("analytics prometheus sink init failed: %w", err)
		}
		sinkList = append(sinkList, promSink)
		app.logger.Debug("added analytics prometheus sink")
	}
	if cfg.PubSubProjectID != "" && cfg.PubSubTopic != "" {
		client, err := pubsub.NewClient(ctx, cfg.PubSubProjectID)
		if err != nil {
			return nil, fmt.Errorf("pubsub client init failed: %w", err)
		}
		app.pubsubClient = client
		sinkList = append(sinkList, analyticssinks.NewPubSubSink(client.Topic(cfg.PubSubTopic)))
		app.logger.Info("analytics pubsub sink initialized",
			zap.String("project", cfg.PubSubProjectID),
			zap.String("topic", cfg.PubSubTopic),
		)
	}
	if len(sinkList) == 0 {
		app.logger.Warn("analytics enabled but no sinks configured")
		return nil, nil
	}
	hubCfg := analytics.Config{
		BufferSize:     cfg.BufferSize,
		MaxBatchEvents: cfg.MaxBatchEvents,
		MaxBatchWait:   time.Duration(cfg.MaxBatchWaitMs) * time.Millisecond,
		OnDrop:         metrics.IncAnalyticsDropped,
		Logger:         app.logger.Named("analytics_hub"),
	}
	app.hub = analytics.NewHub(hubCfg, sinkList...)
	app.logger.Info("analytics hub initialized",
		zap.Int("buffer_size", hubCfg.BufferSize),
		zap.Int("max_batch_events", hubCfg.MaxBatchEvents),
		zap.Duration("max_batch_wait", hubCfg.MaxBatchWait),
		zap.Int("sinks", len(sinkList)),
	)
	return app.hub, nil
}
