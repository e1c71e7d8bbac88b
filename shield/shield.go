// Package shield holds the HTTP middleware stack in front of the annotator
// API: response headers, body limits and request ids.
//
//	r := chi.NewRouter()
//	for _, mw := range shield.DefaultStack(logger) {
//	    r.Use(mw)
//	}
package shield

import (
	"log/slog"
	"net/http"

	"github.com/hazyhaar/annotator/idgen"
	"github.com/hazyhaar/annotator/kit"
)

// DefaultMaxBody bounds request bodies. Annotation comments are short.
const DefaultMaxBody = 64 * 1024

// DefaultStack returns Headers, MaxBody(DefaultMaxBody), HeadToGet and
// RequestID in that order.
func DefaultStack(logger *slog.Logger) []func(http.Handler) http.Handler {
	return []func(http.Handler) http.Handler{
		Headers,
		MaxBody(DefaultMaxBody),
		HeadToGet,
		RequestID(logger),
	}
}

// Headers sets the response headers of a JSON API that must not be framed
// or cached.
func Headers(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		h := w.Header()
		h.Set("X-Content-Type-Options", "nosniff")
		h.Set("X-Frame-Options", "DENY")
		h.Set("Referrer-Policy", "no-referrer")
		h.Set("Cache-Control", "no-store")
		next.ServeHTTP(w, r)
	})
}

// MaxBody limits every request body to maxBytes.
func MaxBody(maxBytes int64) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if r.Body != nil {
				r.Body = http.MaxBytesReader(w, r.Body, maxBytes)
			}
			next.ServeHTTP(w, r)
		})
	}
}

// HeadToGet lets GET routes answer HEAD requests.
func HeadToGet(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method == http.MethodHead {
			r.Method = http.MethodGet
		}
		next.ServeHTTP(w, r)
	})
}

// RequestID tags the request context with a fresh id (kit.RequestIDKey),
// echoes it in X-Request-ID and logs the request. A client-supplied
// X-Request-ID is kept.
func RequestID(logger *slog.Logger) func(http.Handler) http.Handler {
	if logger == nil {
		logger = slog.Default()
	}
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			id := r.Header.Get("X-Request-ID")
			if id == "" || len(id) > 64 {
				id = idgen.New()
			}
			ctx := kit.WithRequestID(kit.WithTransport(r.Context(), "http"), id)
			w.Header().Set("X-Request-ID", id)
			logger.Debug("shield: request", "request_id", id, "method", r.Method, "path", r.URL.Path, "remote_addr", r.RemoteAddr)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}
