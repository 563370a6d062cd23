// Package sinks provides analytics.Sink implementations: structured logs,
// Prometheus counters and Google Cloud Pub/Sub.
package sinks
