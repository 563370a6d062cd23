package waitlist

import (
	"context"
	"time"
)

// BotCheckProvider acquires a one-time verification token for a named form.
type BotCheckProvider interface {
	AcquireToken(ctx context.Context, formID string) (string, error)
}

// Submitter posts a signup to the newsletter API and returns its raw JSON body.
type Submitter interface {
	Submit(ctx context.Context, req SubmissionRequest) (RawResponse, error)
}

// MessageView renders transient status text on a message target.
type MessageView interface {
	Show(target, text string, kind MessageKind)
}

// Navigator schedules a client navigation after a delay.
type Navigator interface {
	ScheduleRedirect(location string, delay time.Duration)
}

// Tracker records analytics events. Implementations must not block.
type Tracker interface {
	Track(ctx context.Context, name string, data map[string]string)
}

// Latch guards a FormSession against concurrent submissions.
type Latch interface {
	TryAcquire(ctx context.Context) (bool, error)
	Release(ctx context.Context) error
	Held(ctx context.Context) (bool, error)
}
