package sinks

import (
	"context"

	"go.uber.org/zap"

	"github.com/JakeFAU/mcatedge-landing/internal/analytics"
	"github.com/JakeFAU/mcatedge-landing/internal/hash/sha256"
)

// LogSink writes one structured log line per event. Email addresses are
// replaced by their digest and names are omitted.
type LogSink struct {
	logger *zap.Logger
}

// NewLogSink wires a Zap logger to the sink interface.
func NewLogSink(logger *zap.Logger) *LogSink {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &LogSink{logger: logger}
}

// Consume logs each event in the batch.
func (s *LogSink) Consume(_ context.Context, batch []analytics.Event) error {
	for _, evt := range batch {
		s.logger.Info("analytics event",
			zap.String("event_id", evt.ID.String()),
			zap.Time("event_ts", evt.TS),
			zap.String("event", evt.Name),
			zap.String("form_id", evt.FormID),
			zap.String("email_sha256", sha256.Email(evt.Data["email"])),
		)
	}
	return nil
}

// Close implements analytics.Sink.
func (s *LogSink) Close(context.Context) error {
	return nil
}
