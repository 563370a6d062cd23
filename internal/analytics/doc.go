// Package analytics buffers client analytics events and fans them out to sinks.
//
// The Hub never blocks request handlers: Track and Emit enqueue into a bounded
// channel and a background goroutine flushes batches by size or age. Events
// that do not fit are dropped and counted.
package analytics
