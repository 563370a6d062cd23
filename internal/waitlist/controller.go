package waitlist

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"strconv"
	"strings"
	"time"

	"go.uber.org/zap"
)

// State is the terminal state reached by one Submit call.
type State string

// Terminal states. Every state returns the session to idle.
const (
	StateRejected         State = "rejected"
	StateValidationFailed State = "validation_failed"
	StateBotCheckFailed   State = "botcheck_failed"
	StateNetworkFailed    State = "network_failed"
	StateFailed           State = "failed"
	StateSucceeded        State = "succeeded"
	StateRedirecting      State = "redirecting"
)

const defaultRedirectDelay = 2 * time.Second

// Config controls controller behavior.
//   - Target: message target passed to the view (defaults to the form's MessageID).
//   - RedirectPath: confirmation page path (default /thank-you.html).
//   - RedirectDelay: delay before the confirmation redirect (default 2s).
type Config struct {
	Target        string
	RedirectPath  string
	RedirectDelay time.Duration
}

// Deps are the collaborators of a Controller. BotCheck and Client are required;
// a missing one fails the corresponding step.
type Deps struct {
	BotCheck  BotCheckProvider
	Client    Submitter
	View      MessageView
	Navigator Navigator
	Tracker   Tracker
	Logger    *zap.Logger
}

// Input is the raw form input.
type Input struct {
	Name  string
	Email string
}

// Result describes how one Submit call ended.
type Result struct {
	State    State
	Message  string
	Kind     MessageKind
	Outcome  *SubmissionOutcome
	Redirect string
	Err      error
}

// Controller runs the signup pipeline for one form instance.
type Controller struct {
	form    Form
	session *FormSession
	deps    Deps
	cfg     Config
	logger  *zap.Logger
}

// NewController constructs a Controller for form guarded by session.
func NewController(form Form, session *FormSession, deps Deps, cfg Config) *Controller {
	if session == nil {
		session = NewFormSession(form.ID, nil)
	}
	if cfg.Target == "" {
		cfg.Target = form.MessageID
	}
	if cfg.RedirectPath == "" {
		cfg.RedirectPath = defaultRedirectURL
	}
	if cfg.RedirectDelay <= 0 {
		cfg.RedirectDelay = defaultRedirectDelay
	}
	logger := deps.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Controller{
		form:    form,
		session: session,
		deps:    deps,
		cfg:     cfg,
		logger:  logger.With(zap.String("form_id", form.ID)),
	}
}

// Submit runs validation, bot check, submission and interpretation. A call made while
// another submission holds the session returns StateRejected without side effects.
func (c *Controller) Submit(ctx context.Context, in Input) Result {
	acquired, err := c.session.begin(ctx)
	if err != nil {
		c.logger.Error("acquire form session failed", zap.Error(err))
		return Result{State: StateRejected, Err: fmt.Errorf("acquire form session: %w", err)}
	}
	if !acquired {
		c.logger.Debug("form already submitting, ignoring duplicate submission")
		return Result{State: StateRejected}
	}
	defer c.release(ctx)
	return c.run(ctx, in)
}

func (c *Controller) release(ctx context.Context) {
	if err := c.session.end(context.WithoutCancel(ctx)); err != nil {
		c.logger.Warn("release form session failed", zap.Error(err))
	}
}

func (c *Controller) run(ctx context.Context, in Input) Result {
	name := strings.TrimSpace(in.Name)
	email := strings.TrimSpace(in.Email)

	switch {
	case name == "":
		return c.fail(StateValidationFailed, MsgNameRequired, fmt.Errorf("%w: name is empty", ErrValidation))
	case email == "":
		return c.fail(StateValidationFailed, MsgEmailRequired, fmt.Errorf("%w: email is empty", ErrValidation))
	case !IsValidEmail(email):
		return c.fail(StateValidationFailed, MsgEmailInvalid, fmt.Errorf("%w: email is malformed", ErrValidation))
	}

	c.show(MsgSubmitting, KindLoading)

	token, err := c.acquireToken(ctx)
	if err != nil {
		c.logger.Warn("bot check failed", zap.Error(err))
		return c.fail(StateBotCheckFailed, MsgBotCheckFailed, err)
	}
	c.session.setBotToken(token)
	c.logger.Debug("bot check token acquired", zap.Int("token_len", len(token)))

	raw, err := c.submit(ctx, SubmissionRequest{Name: name, Email: email, BotToken: token})
	if err != nil {
		c.logger.Error("waitlist submission failed", zap.Error(err))
		return c.fail(StateNetworkFailed, MsgNetworkError, err)
	}

	outcome := Interpret(raw)
	if !outcome.Success {
		res := c.fail(StateFailed, outcome.Message, nil)
		res.Outcome = &outcome
		return res
	}

	msg := outcome.Message
	c.show(msg, KindSuccess)
	c.track(ctx, name, email)

	res := Result{State: StateSucceeded, Message: msg, Kind: KindSuccess, Outcome: &outcome}
	if outcome.Confirmed() {
		res.State = StateRedirecting
		res.Redirect = RedirectLocation(c.cfg.RedirectPath, outcome, name)
		if c.deps.Navigator != nil {
			c.deps.Navigator.ScheduleRedirect(res.Redirect, c.cfg.RedirectDelay)
		}
	}
	c.logger.Info("waitlist signup accepted",
		zap.String("state", string(res.State)),
		zap.Bool("confirmed", outcome.Confirmed()),
	)
	return res
}

func (c *Controller) acquireToken(ctx context.Context) (string, error) {
	if c.deps.BotCheck == nil {
		return "", fmt.Errorf("%w: no provider configured", ErrBotCheckFailed)
	}
	token, err := c.deps.BotCheck.AcquireToken(ctx, c.form.ID)
	switch {
	case err != nil && errors.Is(err, ErrBotCheckFailed):
		return "", err
	case err != nil:
		return "", fmt.Errorf("%w: %w", ErrBotCheckFailed, err)
	case token == "":
		return "", fmt.Errorf("%w: empty token", ErrBotCheckFailed)
	}
	return token, nil
}

func (c *Controller) submit(ctx context.Context, req SubmissionRequest) (RawResponse, error) {
	if c.deps.Client == nil {
		return nil, fmt.Errorf("%w: no client configured", ErrNetworkFailure)
	}
	raw, err := c.deps.Client.Submit(ctx, req)
	if err != nil {
		if errors.Is(err, ErrNetworkFailure) {
			return nil, err
		}
		return nil, fmt.Errorf("%w: %w", ErrNetworkFailure, err)
	}
	return raw, nil
}

func (c *Controller) fail(state State, msg string, err error) Result {
	c.show(msg, KindError)
	return Result{State: state, Message: msg, Kind: KindError, Err: err}
}

func (c *Controller) show(text string, kind MessageKind) {
	if c.deps.View == nil {
		return
	}
	c.deps.View.Show(c.cfg.Target, text, kind)
}

func (c *Controller) track(ctx context.Context, name, email string) {
	if c.deps.Tracker == nil {
		return
	}
	c.deps.Tracker.Track(ctx, SignupEventName, map[string]string{
		"name":  name,
		"email": email,
		"form":  c.form.ID,
	})
}

// RedirectLocation builds the confirmation URL. message and name are component-encoded
// before the query itself is encoded, so the confirmation page decodes them twice.
func RedirectLocation(path string, outcome SubmissionOutcome, name string) string {
	msg := outcome.Message
	if msg == "" {
		msg = MsgSubscribed
	}
	var sb strings.Builder
	sb.WriteString(path)
	sb.WriteString("?status=")
	sb.WriteString(url.QueryEscape(strconv.FormatBool(outcome.Success)))
	sb.WriteString("&message=")
	sb.WriteString(url.QueryEscape(encodeComponent(msg)))
	sb.WriteString("&name=")
	sb.WriteString(url.QueryEscape(encodeComponent(name)))
	return sb.String()
}

func encodeComponent(s string) string {
	return strings.ReplaceAll(url.QueryEscape(s), "+", "%20")
}
