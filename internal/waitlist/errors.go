package waitlist

import "errors"

var (
	// ErrValidation marks empty or malformed form input.
	ErrValidation = errors.New("waitlist validation failed")
	// ErrBotCheckFailed marks a missing or unobtainable bot-check token.
	ErrBotCheckFailed = errors.New("bot check failed")
	// ErrNetworkFailure marks transport errors and unreadable API responses.
	ErrNetworkFailure = errors.New("newsletter network failure")
)
