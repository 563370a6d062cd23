package api

import (
	"net/http"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/JakeFAU/mcatedge-landing/internal/botcheck"
	"github.com/JakeFAU/mcatedge-landing/internal/id/uuid"
	"github.com/JakeFAU/mcatedge-landing/internal/message"
	"github.com/JakeFAU/mcatedge-landing/internal/metrics"
	"github.com/JakeFAU/mcatedge-landing/internal/ratelimit"
	"github.com/JakeFAU/mcatedge-landing/internal/site"
	"github.com/JakeFAU/mcatedge-landing/internal/waitlist"
)

const (
	visitorCookie = "mcatedge_visitor"
	visitorMaxAge = 365 * 24 * time.Hour
	stateHeader   = "X-Waitlist-State"
	maxFormBytes  = 16 << 10

	// MsgRateLimited is shown when a client exceeds its signup budget.
	MsgRateLimited = "Too many signup attempts. Please wait a moment and try again."
)

// boardView scopes message targets to one visitor so forms on different
// browsers never share a message.
type boardView struct {
	board   *message.Board
	visitor string
}

func (v boardView) Show(target, text string, kind waitlist.MessageKind) {
	v.board.Show(boardKey(v.visitor, target), text, kind)
}

func boardKey(visitor, target string) string {
	return visitor + "/" + target
}

// redirectCapture records the navigation scheduled by the controller so it can
// be rendered as a client-side redirect marker.
type redirectCapture struct {
	mu       sync.Mutex
	location string
	delay    time.Duration
}

func (c *redirectCapture) ScheduleRedirect(location string, delay time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.location = location
	c.delay = delay
}

func (c *redirectCapture) scheduled() (string, time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.location, c.delay
}

func (s *Server) formFromRequest(r *http.Request) (waitlist.Form, bool) {
	form, ok := s.forms[chi.URLParam(r, "formID")]
	return form, ok
}

func (s *Server) submitWaitlist(w http.ResponseWriter, r *http.Request) {
	form, ok := s.formFromRequest(r)
	if !ok {
		http.NotFound(w, r)
		return
	}
	r.Body = http.MaxBytesReader(w, r.Body, maxFormBytes)
	if err := r.ParseForm(); err != nil {
		http.Error(w, "invalid form", http.StatusBadRequest)
		return
	}

	visitor := s.visitorKey(r)
	sess, release := s.deps.Sessions.Acquire(visitor, form.ID)
	defer release()

	nav := &redirectCapture{}
	ctrl := waitlist.NewController(form, sess, waitlist.Deps{
		BotCheck:  s.deps.BotCheck,
		Client:    s.deps.Client,
		View:      boardView{board: s.deps.Board, visitor: visitor},
		Navigator: nav,
		Tracker:   s.deps.Tracker,
		Logger:    s.logger.With(zap.String("request_id", RequestID(r.Context()))),
	}, waitlist.Config{
		RedirectPath:  s.opts.RedirectPath,
		RedirectDelay: s.opts.RedirectDelay,
	})

	ctx := botcheck.WithFormValues(r.Context(), r.PostForm)
	res := ctrl.Submit(ctx, waitlist.Input{
		Name:  r.PostForm.Get("name"),
		Email: r.PostForm.Get("email"),
	})
	metrics.ObserveSubmission(form.ID, string(res.State))
	if res.State == waitlist.StateBotCheckFailed {
		metrics.ObserveBotCheckFailure(form.ID)
	}

	view := s.messageFor(visitor, form)
	if location, delay := nav.scheduled(); location != "" {
		view.Redirect = location
		view.RedirectMs = delay.Milliseconds()
	}
	w.Header().Set(stateHeader, string(res.State))
	s.renderComponent(w, r, http.StatusOK, "message", site.Message(view))
}

func (s *Server) currentMessage(w http.ResponseWriter, r *http.Request) {
	form, ok := s.formFromRequest(r)
	if !ok {
		http.NotFound(w, r)
		return
	}
	s.renderComponent(w, r, http.StatusOK, "message", site.Message(s.messageFor(s.visitorKey(r), form)))
}

func (s *Server) rateLimited(w http.ResponseWriter, r *http.Request) {
	form, ok := s.formFromRequest(r)
	if !ok {
		http.NotFound(w, r)
		return
	}
	metrics.ObserveRateLimited(chi.RouteContext(r.Context()).RoutePattern())
	s.logger.Info("waitlist submission rate limited",
		zap.String("request_id", RequestID(r.Context())),
		zap.String("form_id", form.ID),
	)
	s.renderComponent(w, r, http.StatusTooManyRequests, "message", site.Message(site.MessageView{
		Target: form.MessageID,
		Text:   MsgRateLimited,
		Kind:   string(waitlist.KindError),
	}))
}

// messageFor renders the board state of form for visitor. A message with a
// pending clear asks the browser to refetch when the clear is due.
func (s *Server) messageFor(visitor string, form waitlist.Form) site.MessageView {
	view := site.MessageView{Target: form.MessageID}
	if visitor == "" {
		return view
	}
	msg, ok := s.deps.Board.Get(boardKey(visitor, form.MessageID))
	if !ok {
		return view
	}
	view.Text = msg.Text
	view.Kind = string(msg.Kind)
	if !msg.ClearAt.IsZero() {
		view.RefreshURL = "/waitlist/" + form.ID + "/message"
		view.RefreshMs = max(msg.ClearAt.Sub(s.deps.Clock.Now()).Milliseconds(), 1)
	}
	return view
}

func (s *Server) visitorFromRequest(r *http.Request) string {
	c, err := r.Cookie(visitorCookie)
	if err != nil || !uuid.Valid(c.Value) {
		return ""
	}
	return c.Value
}

// visitorKey identifies the submitter of a waitlist request. Requests without
// a visitor cookie share one key per client address, so concurrent cookie-less
// submits still contend for a single form session.
func (s *Server) visitorKey(r *http.Request) string {
	if id := s.visitorFromRequest(r); id != "" {
		return id
	}
	return "client:" + ratelimit.ClientKey(r)
}

// visitor returns the request's visitor id, issuing a cookie for new visitors.
func (s *Server) visitor(w http.ResponseWriter, r *http.Request) string {
	if id := s.visitorFromRequest(r); id != "" {
		return id
	}
	id := s.ids.NewID()
	http.SetCookie(w, &http.Cookie{
		Name:     visitorCookie,
		Value:    id,
		Path:     "/",
		MaxAge:   int(visitorMaxAge.Seconds()),
		HttpOnly: true,
		Secure:   s.opts.CookieSecure,
		SameSite: http.SameSiteLaxMode,
	})
	return id
}
