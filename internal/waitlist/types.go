// Package waitlist implements the waitlist signup pipeline: validation, bot-check token
// acquisition, newsletter submission, response interpretation and user feedback.
package waitlist

import (
	"context"
	"sync"
	"sync/atomic"
)

// MessageKind selects the style of a status message.
type MessageKind string

// Supported message kinds.
const (
	KindSuccess MessageKind = "success"
	KindError   MessageKind = "error"
	KindLoading MessageKind = "loading"
)

// User-facing messages shown by the controller.
const (
	MsgNameRequired    = "Please enter your full name."
	MsgEmailRequired   = "Please enter your email address."
	MsgEmailInvalid    = "Please enter a valid email address."
	MsgSubmitting      = "Submitting..."
	MsgBotCheckFailed  = "reCAPTCHA verification failed. Please try again."
	MsgNetworkError    = "Network error. Please check your connection and try again."
	MsgOperationDone   = "Operation completed"
	MsgSubscribed      = "Successfully subscribed to newsletter"
	SignupEventName    = "waitlist_signup"
	defaultRedirectURL = "/thank-you.html"
)

// Form binds a form id to the element that displays its messages and the hidden field
// that carries its bot-check token.
type Form struct {
	ID         string
	MessageID  string
	TokenField string
}

// DefaultForms returns the two signup forms on the landing page.
func DefaultForms() []Form {
	return []Form{
		{ID: "waitlistForm", MessageID: "formMessage", TokenField: "g-recaptcha-response"},
		{ID: "footerWaitlistForm", MessageID: "footerFormMessage", TokenField: "footerGRecaptchaResponse"},
	}
}

// RawResponse is the decoded JSON object returned by the newsletter API.
type RawResponse map[string]any

// SubmissionRequest is created per form submit and consumed once.
type SubmissionRequest struct {
	Name     string
	Email    string
	BotToken string
}

// SubmissionOutcome is the normalized result of interpreting a RawResponse.
// APIStatus is nil when the API did not report a boolean status.
type SubmissionOutcome struct {
	Success   bool
	APIStatus *bool
	Message   string
}

// Confirmed reports whether the API explicitly confirmed the signup.
func (o SubmissionOutcome) Confirmed() bool {
	return o.APIStatus != nil && *o.APIStatus
}

// FormSession tracks in-flight state for one form instance and the bot-check
// token last written to its hidden field.
type FormSession struct {
	FormID string
	latch  Latch

	mu    sync.Mutex
	token string
}

// NewFormSession builds a session guarded by latch. A nil latch uses an in-process flag.
func NewFormSession(formID string, latch Latch) *FormSession {
	if latch == nil {
		latch = &LocalLatch{}
	}
	return &FormSession{FormID: formID, latch: latch}
}

// Submitting reports whether a submission is currently in flight.
func (s *FormSession) Submitting(ctx context.Context) bool {
	held, err := s.latch.Held(ctx)
	return err == nil && held
}

// BotToken returns the token acquired by the session's latest submission.
func (s *FormSession) BotToken() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.token
}

func (s *FormSession) setBotToken(token string) {
	s.mu.Lock()
	s.token = token
	s.mu.Unlock()
}

// Latch returns the latch guarding the session.
func (s *FormSession) Latch() Latch {
	return s.latch
}

func (s *FormSession) begin(ctx context.Context) (bool, error) {
	return s.latch.TryAcquire(ctx)
}

func (s *FormSession) end(ctx context.Context) error {
	return s.latch.Release(ctx)
}

// LocalLatch is a process-local Latch.
type LocalLatch struct {
	held atomic.Bool
}

// TryAcquire sets the flag if it is clear.
func (l *LocalLatch) TryAcquire(context.Context) (bool, error) {
	return l.held.CompareAndSwap(false, true), nil
}

// Release clears the flag.
func (l *LocalLatch) Release(context.Context) error {
	l.held.Store(false)
	return nil
}

// Held reports the flag.
func (l *LocalLatch) Held(context.Context) (bool, error) {
	return l.held.Load(), nil
}
