package sinks

import (
	"context"
	"fmt"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/JakeFAU/mcatedge-landing/internal/analytics"
)

// PrometheusSink counts delivered events by name and form.
type PrometheusSink struct {
	events *prometheus.CounterVec
	batch  prometheus.Histogram
}

// NewPrometheusSink registers the collectors against reg (default registerer when nil).
func NewPrometheusSink(reg prometheus.Registerer) (*PrometheusSink, error) {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	s := &PrometheusSink{
		events: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "landing_analytics_delivered_total",
			Help: "Analytics events delivered to sinks, by event and form.",
		}, []string{"event", "form"}),
		batch: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "landing_analytics_batch_size",
			Help:    "Number of events per flushed batch.",
			Buckets: []float64{1, 2, 5, 10, 25, 50, 100},
		}),
	}
	for _, collector := range []prometheus.Collector{s.events, s.batch} {
		if err := reg.Register(collector); err != nil {
			return nil, fmt.Errorf("register analytics collector: %w", err)
		}
	}
	return s, nil
}

// Consume updates the collectors.
func (s *PrometheusSink) Consume(_ context.Context, batch []analytics.Event) error {
	s.batch.Observe(float64(len(batch)))
	for _, evt := range batch {
		form := evt.FormID
		if form == "" {
			form = "none"
		}
		s.events.WithLabelValues(evt.Name, form).Inc()
	}
	return nil
}

// Close implements analytics.Sink.
func (s *PrometheusSink) Close(context.Context) error {
	return nil
}
