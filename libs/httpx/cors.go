package httpx

import (
	"net/http"
	"slices"
	"strconv"
	"strings"
	"time"
)

// CORSPolicy lists what cross-origin callers may do. An empty
// AllowedOrigins disables CORS handling entirely; "*" admits any origin.
type CORSPolicy struct {
	AllowedOrigins   []string
	AllowedMethods   []string
	AllowedHeaders   []string
	AllowCredentials bool
	MaxAge           time.Duration
}

type corsHeaders struct {
	methods string
	headers string
	maxAge  string
}

func (p CORSPolicy) compile() corsHeaders {
	var c corsHeaders
	c.methods = strings.Join(trimAll(p.AllowedMethods), ", ")
	c.headers = strings.Join(trimAll(p.AllowedHeaders), ", ")
	if secs := int(p.MaxAge / time.Second); secs > 0 {
		c.maxAge = strconv.Itoa(secs)
	}
	return c
}

// allow returns the Access-Control-Allow-Origin value for origin. With
// credentials the origin is echoed because browsers reject "*".
func (p CORSPolicy) allow(origin string) (string, bool) {
	if slices.Contains(p.AllowedOrigins, "*") {
		if p.AllowCredentials {
			return origin, true
		}
		return "*", true
	}
	for _, o := range p.AllowedOrigins {
		if strings.EqualFold(o, origin) {
			return origin, true
		}
	}
	return "", false
}

func WithCORS(policy CORSPolicy) Middleware {
	policy.AllowedOrigins = trimAll(policy.AllowedOrigins)
	if len(policy.AllowedOrigins) == 0 {
		return passthrough
	}
	compiled := policy.compile()

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			h := w.Header()
			h.Add("Vary", "Origin")

			origin := r.Header.Get("Origin")
			allowed, ok := policy.allow(origin)
			if origin == "" || !ok {
				next.ServeHTTP(w, r)
				return
			}
			h.Set("Access-Control-Allow-Origin", allowed)
			if policy.AllowCredentials {
				h.Set("Access-Control-Allow-Credentials", "true")
			}

			preflight := r.Method == http.MethodOptions && r.Header.Get("Access-Control-Request-Method") != ""
			if !preflight {
				next.ServeHTTP(w, r)
				return
			}
			h.Add("Vary", "Access-Control-Request-Method")
			h.Add("Vary", "Access-Control-Request-Headers")
			setIf(h, "Access-Control-Allow-Methods", compiled.methods)
			setIf(h, "Access-Control-Allow-Headers", compiled.headers)
			setIf(h, "Access-Control-Max-Age", compiled.maxAge)
			w.WriteHeader(http.StatusNoContent)
		})
	}
}

func setIf(h http.Header, key, value string) {
	if value != "" {
		h.Set(key, value)
	}
}

func trimAll(values []string) []string {
	out := make([]string, 0, len(values))
	for _, v := range values {
		if v = strings.TrimSpace(v); v != "" {
			out = append(out, v)
		}
	}
	return out
}
