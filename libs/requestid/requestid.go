// Package requestid carries one correlation id per unit of work across
// HTTP requests, gRPC calls and consumed events.
package requestid

import (
	"context"
	"crypto/rand"
	"encoding/hex"
)

const (
	// Header is the HTTP header the id travels in.
	Header = "X-Request-Id"
	// MetadataKey is the gRPC metadata key; gRPC lowercases keys.
	MetadataKey = "x-request-id"

	maxLen = 128
)

type ctxKey struct{}

func New() string {
	var b [16]byte
	_, _ = rand.Read(b[:])
	return hex.EncodeToString(b[:])
}

// With stores id in ctx. Empty ids leave ctx unchanged.
func With(ctx context.Context, id string) context.Context {
	if id == "" {
		return ctx
	}
	return context.WithValue(ctx, ctxKey{}, id)
}

func From(ctx context.Context) string {
	v, _ := ctx.Value(ctxKey{}).(string)
	return v
}

// Accept returns the caller supplied id when it is safe to echo and log,
// otherwise a fresh one.
func Accept(supplied string) string {
	if supplied == "" || len(supplied) > maxLen {
		return New()
	}
	for i := 0; i < len(supplied); i++ {
		c := supplied[i]
		if c < 0x21 || c > 0x7e {
			return New()
		}
	}
	return supplied
}
