package httpx

import (
	"context"
	"net/http"

	"github.com/md-rashed-zaman/barberbook/libs/requestid"
)

const RequestIDHeader = requestid.Header

// RequestIDFromContext returns the id set by WithRequestID.
func RequestIDFromContext(ctx context.Context) string {
	return requestid.From(ctx)
}

// WithRequestID accepts a well formed X-Request-Id from the client or mints
// one, echoes it on the response and stores it in the request context.
func WithRequestID(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id := requestid.Accept(r.Header.Get(RequestIDHeader))
		w.Header().Set(RequestIDHeader, id)
		next.ServeHTTP(w, r.WithContext(requestid.With(r.Context(), id)))
	})
}
