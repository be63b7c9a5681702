package otelx

import (
	"context"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/propagation"
)

// Carried is the W3C trace context of a span, flattened so it can be stored
// in a row and replayed later by a different process.
type Carried struct {
	Parent string
	State  string
}

// Empty reports whether no trace context was captured.
func (c Carried) Empty() bool { return c.Parent == "" && c.State == "" }

// Capture reads the active span context of ctx through the global propagator.
func Capture(ctx context.Context) Carried {
	carrier := propagation.MapCarrier{}
	otel.GetTextMapPropagator().Inject(ctx, carrier)
	return Carried{Parent: carrier.Get("traceparent"), State: carrier.Get("tracestate")}
}

// Resume attaches c to ctx as the remote parent. An empty c leaves ctx as is.
func (c Carried) Resume(ctx context.Context) context.Context {
	if c.Empty() {
		return ctx
	}
	carrier := propagation.MapCarrier{"traceparent": c.Parent}
	if c.State != "" {
		carrier["tracestate"] = c.State
	}
	return otel.GetTextMapPropagator().Extract(ctx, carrier)
}
