// Package telemetry wires the OpenTelemetry SDK for the generation run.
// Phases and auxiliary writers execute inside spans; a span processor
// collects their durations for the timing lines printed after each phase.
package telemetry

import (
	"context"
	"sync"
	"time"

	"go.opentelemetry.io/otel"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/trace"
)

const tracerName = "mason"

// Timings is a SpanProcessor that records the duration of every ended
// span, keyed by span name.
type Timings struct {
	mu        sync.Mutex
	durations map[string]time.Duration
}

// NewTimings creates an empty timing collector.
func NewTimings() *Timings {
	return &Timings{durations: make(map[string]time.Duration)}
}

// OnStart implements sdktrace.SpanProcessor.
func (*Timings) OnStart(context.Context, sdktrace.ReadWriteSpan) {}

// OnEnd implements sdktrace.SpanProcessor.
func (t *Timings) OnEnd(s sdktrace.ReadOnlySpan) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.durations[s.Name()] = s.EndTime().Sub(s.StartTime())
}

// Shutdown implements sdktrace.SpanProcessor.
func (*Timings) Shutdown(context.Context) error { return nil }

// ForceFlush implements sdktrace.SpanProcessor.
func (*Timings) ForceFlush(context.Context) error { return nil }

// Duration returns the recorded duration for a span name.
func (t *Timings) Duration(name string) (time.Duration, bool) {
	t.mu.Lock()
	defer t.mu.Unlock()
	d, ok := t.durations[name]
	return d, ok
}

// Setup installs a tracer provider reporting to the collector as the
// global OTel provider and returns the tracer the app uses for phases.
func Setup(t *Timings) trace.Tracer {
	tp := sdktrace.NewTracerProvider(
		sdktrace.WithSpanProcessor(t),
	)
	otel.SetTracerProvider(tp)
	return tp.Tracer(tracerName)
}
