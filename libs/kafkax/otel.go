package kafkax

import (
	"context"

	"github.com/segmentio/kafka-go"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/propagation"
)

// headers adapts a Kafka header slice to the propagation carrier API.
// Set replaces an existing key so re-publishing does not stack traceparents.
type headers []kafka.Header

var _ propagation.TextMapCarrier = (*headers)(nil)

func (h *headers) Get(key string) string { return HeaderValue(*h, key) }

func (h *headers) Set(key, value string) {
	for i, kh := range *h {
		if kh.Key == key {
			(*h)[i].Value = []byte(value)
			return
		}
	}
	*h = append(*h, kafka.Header{Key: key, Value: []byte(value)})
}

func (h *headers) Keys() []string {
	keys := make([]string, len(*h))
	for i, kh := range *h {
		keys[i] = kh.Key
	}
	return keys
}

// InjectTraceHeaders adds the span context of ctx to hs using the global
// propagator and returns the extended slice.
func InjectTraceHeaders(ctx context.Context, hs []kafka.Header) []kafka.Header {
	carrier := headers(hs)
	otel.GetTextMapPropagator().Inject(ctx, &carrier)
	return carrier
}

// ExtractTraceContext makes the producer's span the remote parent of ctx.
func ExtractTraceContext(ctx context.Context, msg kafka.Message) context.Context {
	carrier := headers(msg.Headers)
	return otel.GetTextMapPropagator().Extract(ctx, &carrier)
}
