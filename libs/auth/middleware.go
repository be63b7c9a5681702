package auth

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"
)

// Identity is the verified caller attached to the request context.
type Identity struct {
	UserID string
	Role   string
	Email  string
}

type ctxKey int

const ctxKeyIdentity ctxKey = iota

func WithIdentity(ctx context.Context, id Identity) context.Context {
	return context.WithValue(ctx, ctxKeyIdentity, id)
}

func IdentityFromContext(ctx context.Context) (Identity, bool) {
	id, ok := ctx.Value(ctxKeyIdentity).(Identity)
	return id, ok && id.UserID != ""
}

// Verifier checks a raw bearer token.
type Verifier interface {
	Verify(token string) (*Claims, error)
}

// RequireAuth rejects requests without a bearer token (401) or with one that
// fails verification (400), and otherwise stores the caller Identity.
func RequireAuth(v Verifier) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			header := strings.TrimSpace(r.Header.Get("Authorization"))
			token := strings.TrimSpace(strings.TrimPrefix(header, "Bearer "))
			if header == "" || token == "" || token == header {
				writeMessage(w, http.StatusUnauthorized, "Access denied. No token provided.")
				return
			}
			claims, err := v.Verify(token)
			if err != nil {
				writeMessage(w, http.StatusBadRequest, "Invalid token.")
				return
			}
			ctx := WithIdentity(r.Context(), Identity{
				UserID: claims.Subject(),
				Role:   claims.UserRole,
				Email:  claims.Email,
			})
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

func writeMessage(w http.ResponseWriter, status int, msg string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(map[string]string{"message": msg})
}
