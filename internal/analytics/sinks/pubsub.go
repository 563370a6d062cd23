package sinks

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"cloud.google.com/go/pubsub"
	"go.opentelemetry.io/otel"

	"github.com/JakeFAU/mcatedge-landing/internal/analytics"
	"github.com/JakeFAU/mcatedge-landing/internal/hash/sha256"
)

// PubSubSink publishes each event as a JSON message. Email addresses are
// digested before they leave the process.
type PubSubSink struct {
	topic *pubsub.Topic
}

// NewPubSubSink wraps a topic handle. The sink stops the topic on Close.
func NewPubSubSink(topic *pubsub.Topic) *PubSubSink {
	return &PubSubSink{topic: topic}
}

type eventMessage struct {
	ID          string    `json:"id"`
	TS          time.Time `json:"ts"`
	Event       string    `json:"event"`
	FormID      string    `json:"form_id,omitempty"`
	EmailSHA256 string    `json:"email_sha256,omitempty"`
}

// Consume publishes the batch and waits for every result.
func (s *PubSubSink) Consume(ctx context.Context, batch []analytics.Event) error {
	if s.topic == nil {
		return errors.New("pubsub topic is not configured")
	}
	results := make([]*pubsub.PublishResult, 0, len(batch))
	for _, evt := range batch {
		data, err := json.Marshal(eventMessage{
			ID:          evt.ID.String(),
			TS:          evt.TS,
			Event:       evt.Name,
			FormID:      evt.FormID,
			EmailSHA256: sha256.Email(evt.Data["email"]),
		})
		if err != nil {
			return fmt.Errorf("marshal event %s: %w", evt.ID, err)
		}
		msg := &pubsub.Message{
			Data:       data,
			Attributes: map[string]string{"event": evt.Name},
		}
		otel.GetTextMapPropagator().Inject(ctx, pubsubCarrier(msg.Attributes))
		results = append(results, s.topic.Publish(ctx, msg))
	}
	var errs []error
	for _, res := range results {
		if _, err := res.Get(ctx); err != nil {
			errs = append(errs, err)
		}
	}
	if err := errors.Join(errs...); err != nil {
		return fmt.Errorf("publish analytics batch: %w", err)
	}
	return nil
}

// Close flushes pending publishes and stops the topic's goroutines.
func (s *PubSubSink) Close(context.Context) error {
	if s.topic != nil {
		s.topic.Stop()
	}
	return nil
}

// pubsubCarrier implements propagation.TextMapCarrier for message attributes.
type pubsubCarrier map[string]string

func (c pubsubCarrier) Get(key string) string { return c[key] }

func (c pubsubCarrier) Set(key, value string) { c[key] = value }

func (c pubsubCarrier) Keys() []string {
	keys := make([]string, 0, len(c))
	for k := range c {
		keys = append(keys, k)
	}
	return keys
}
