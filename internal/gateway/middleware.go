package gateway

import (
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/minhdn/towerdesk/internal/auth"
	"github.com/minhdn/towerdesk/internal/logging"
	"github.com/minhdn/towerdesk/internal/tenant"
)

// withMiddleware wraps a handler with the standard middleware chain.
func withMiddleware(handler http.Handler, verifier *auth.Verifier, log *logging.Logger, corsOrigins []string) http.Handler {
	h := handler
	h = bindingMiddleware(h, verifier, log)
	h = requestIDMiddleware(h)
	h = corsMiddleware(h, corsOrigins)
	h = loggingMiddleware(h, log)
	return h
}

// publicPaths never carry a building binding; credentials on them are
// not even inspected.
var publicPaths = map[string]bool{
	"/":       true,
	"/health": true,
}

// bindingMiddleware turns a bearer credential into a building binding on
// the request context. Every failure mode (no header, malformed token,
// bad signature, claims without a building) degrades to an anonymous
// request; the client never sees a credential error from this layer.
func bindingMiddleware(next http.Handler, verifier *auth.Verifier, log *logging.Logger) http.Handler {
	blog := log.Sub("binding")
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if publicPaths[r.URL.Path] {
			next.ServeHTTP(w, r)
			return
		}

		raw := bearerToken(r)
		if raw == "" {
			next.ServeHTTP(w, r)
			return
		}

		claims, err := verifier.Verify(raw)
		if err != nil {
			blog.Warn().Err(err).Str("path", r.URL.Path).Msg("credential rejected, continuing anonymously")
			next.ServeHTTP(w, r)
			return
		}

		building := verifier.BuildingID(claims)
		if building == "" {
			blog.Warn().Str("path", r.URL.Path).Msg("verified credential carries no building claim")
			next.ServeHTTP(w, r)
			return
		}

		ctx := tenant.Bind(r.Context(), building)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// bearerToken extracts the token from an Authorization: Bearer header.
func bearerToken(r *http.Request) string {
	header := r.Header.Get("Authorization")
	if header == "" {
		return ""
	}
	scheme, token, ok := strings.Cut(header, " ")
	if !ok || !strings.EqualFold(scheme, "Bearer") {
		return ""
	}
	return strings.TrimSpace(token)
}

// loggingMiddleware logs each HTTP request.
func loggingMiddleware(next http.Handler, log *logging.Logger) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		sw := &statusWriter{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(sw, r)
		log.Debug().
			Str("method", r.Method).
			Str("path", r.URL.Path).
			Int("status", sw.status).
			Dur("duration", time.Since(start)).
			Str("remote", r.RemoteAddr).
			Msg("http request")
	})
}

// requestIDMiddleware adds a unique request ID to each request/response.
func requestIDMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		reqID := r.Header.Get("X-Request-ID")
		if reqID == "" {
			reqID = uuid.New().String()
		}
		w.Header().Set("X-Request-ID", reqID)
		next.ServeHTTP(w, r)
	})
}

// corsMiddleware handles CORS headers.
func corsMiddleware(next http.Handler, allowedOrigins []string) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		origin := r.Header.Get("Origin")
		if origin != "" && isOriginAllowed(origin, allowedOrigins) {
			w.Header().Set("Access-Control-Allow-Origin", origin)
			w.Header().Set("Access-Control-Allow-Methods", "GET, POST, DELETE, OPTIONS")
			w.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization, X-Request-ID")
			w.Header().Set("Access-Control-Max-Age", "86400")
		}

		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusNoContent)
			return
		}

		next.ServeHTTP(w, r)
	})
}

func isOriginAllowed(origin string, allowed []string) bool {
	if len(allowed) == 0 {
		return false // deny cross-origin by default when no origins are configured
	}
	for _, a := range allowed {
		if a == "*" || a == origin {
			return true
		}
	}
	return false
}

// statusWriter wraps ResponseWriter to capture the status code.
type statusWriter struct {
	http.ResponseWriter
	status int
}

func (w *statusWriter) WriteHeader(code int) {
	w.status = code
	w.ResponseWriter.WriteHeader(code)
}
