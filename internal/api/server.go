package api

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"

	"github.com/JakeFAU/mcatedge-landing/internal/clock/system"
	"github.com/JakeFAU/mcatedge-landing/internal/fragment"
	"github.com/JakeFAU/mcatedge-landing/internal/id/uuid"
	"github.com/JakeFAU/mcatedge-landing/internal/message"
	"github.com/JakeFAU/mcatedge-landing/internal/metrics"
	"github.com/JakeFAU/mcatedge-landing/internal/ratelimit"
	"github.com/JakeFAU/mcatedge-landing/internal/router"
	"github.com/JakeFAU/mcatedge-landing/internal/session"
	"github.com/JakeFAU/mcatedge-landing/internal/waitlist"
)

const defaultRequestTimeout = 60 * time.Second

// Clock supplies the current time for message refresh scheduling.
type Clock interface {
	Now() time.Time
}

// Deps are the collaborators served by the Server. Board, Sessions, Router and
// Fragments are required; Limiter, Tracker and Ready are optional.
type Deps struct {
	Forms     []waitlist.Form
	BotCheck  waitlist.BotCheckProvider
	Client    waitlist.Submitter
	Tracker   waitlist.Tracker
	Board     *message.Board
	Sessions  *session.Registry
	Router    *router.Router
	Fragments fragment.Source
	Limiter   *ratelimit.Limiter
	Clock     Clock
	// Ready reports downstream readiness for /readyz.
	Ready  func(ctx context.Context) error
	Logger *zap.Logger
}

// Options controls rendering and request handling.
type Options struct {
	SiteKey        string
	Action         string
	RedirectPath   string
	RedirectDelay  time.Duration
	CookieSecure   bool
	RequestTimeout time.Duration
}

// Server wires HTTP handlers to the waitlist pipeline and page router.
type Server struct {
	handler chi.Router
	deps    Deps
	forms   map[string]waitlist.Form
	opts    Options
	ids     uuid.Generator
	logger  *zap.Logger
}

// NewServer constructs a Server with middleware and routes.
func NewServer(deps Deps, opts Options) (*Server, error) {
	switch {
	case deps.Board == nil:
		return nil, errors.New("message board is required")
	case deps.Sessions == nil:
		return nil, errors.New("session registry is required")
	case deps.Router == nil:
		return nil, errors.New("page router is required")
	case deps.Fragments == nil:
		return nil, errors.New("fragment source is required")
	case len(deps.Forms) == 0:
		return nil, errors.New("at least one form is required")
	}
	if deps.Clock == nil {
		deps.Clock = system.New()
	}
	logger := deps.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	if opts.RequestTimeout <= 0 {
		opts.RequestTimeout = defaultRequestTimeout
	}
	forms := make(map[string]waitlist.Form, len(deps.Forms))
	for _, f := range deps.Forms {
		if _, dup := forms[f.ID]; dup {
			return nil, fmt.Errorf("form %q registered twice", f.ID)
		}
		forms[f.ID] = f
	}

	s := &Server{
		deps:   deps,
		forms:  forms,
		opts:   opts,
		ids:    uuid.New(),
		logger: logger.Named("api"),
	}

	r := chi.NewRouter()
	r.Use(s.requestIDMiddleware)
	r.Use(s.loggingMiddleware)
	r.Use(s.recoverMiddleware)
	r.Use(metrics.Middleware)
	r.Use(middleware.Timeout(opts.RequestTimeout))

	r.Get("/healthz", s.healthz)
	r.Get("/readyz", s.readyz)
	r.Method(http.MethodGet, "/metrics", metrics.Handler())

	r.Route("/waitlist/{formID}", func(r chi.Router) {
		submit := http.Handler(http.HandlerFunc(s.submitWaitlist))
		if deps.Limiter != nil {
			submit = ratelimit.Middleware(deps.Limiter, nil, http.HandlerFunc(s.rateLimited))(submit)
		}
		r.Method(http.MethodPost, "/", submit)
		r.Get("/message", s.currentMessage)
	})

	r.Get("/", s.page)
	r.Get("/{resource}.html", s.resource)
	r.Get("/*", s.page)

	s.handler = r
	return s, nil
}

// Handler returns the router for use with http.Server.
func (s *Server) Handler() http.Handler {
	return s.handler
}

func (s *Server) healthz(w http.ResponseWriter, _ *http.Request) {
	s.writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) readyz(w http.ResponseWriter, r *http.Request) {
	if s.deps.Ready != nil {
		if err := s.deps.Ready(r.Context()); err != nil {
			s.logger.Warn("readiness check failed", zap.Error(err))
			s.writeJSON(w, http.StatusServiceUnavailable, map[string]string{"status": "unavailable"})
			return
		}
	}
	s.writeJSON(w, http.StatusOK, map[string]string{"status": "ready"})
}

type requestIDKey struct{}

// RequestID returns the request id stored on ctx by the server middleware.
func RequestID(ctx context.Context) string {
	id, _ := ctx.Value(requestIDKey{}).(string)
	return id
}

func (s *Server) requestIDMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		reqID := r.Header.Get("X-Request-ID")
		if !uuid.Valid(reqID) {
			reqID = s.ids.NewID()
		}
		ctx := context.WithValue(r.Context(), requestIDKey{}, reqID)
		w.Header().Set("X-Request-ID", reqID)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

func (s *Server) loggingMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		next.ServeHTTP(ww, r)
		status := ww.Status()
		if status == 0 {
			status = http.StatusOK
		}
		s.logger.Info("request completed",
			zap.String("request_id", RequestID(r.Context())),
			zap.String("method", r.Method),
			zap.String("path", r.URL.Path),
			zap.Int("status", status),
			zap.Int64("duration_ms", time.Since(start).Milliseconds()),
		)
	})
}

func (s *Server) recoverMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		defer func() {
			if rec := recover(); rec != nil {
				if rec == http.ErrAbortHandler {
					panic(rec)
				}
				s.logger.Error("panic recovered",
					zap.String("request_id", RequestID(r.Context())),
					zap.Any("panic", rec),
				)
				http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
			}
		}()
		next.ServeHTTP(w, r)
	})
}

func (s *Server) writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		s.logger.Error("write JSON failed", zap.Error(err))
	}
}
