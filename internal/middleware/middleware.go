package middleware

import (
	"crypto/subtle"
	"encoding/json"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/nahidhasan98/orgsync/internal/errors"
	"github.com/nahidhasan98/orgsync/internal/logger"
	"github.com/nahidhasan98/orgsync/internal/models"
)

// ProtectedPrefix marks the routes that require an API key
const ProtectedPrefix = "/sync/"

// Middleware represents the middleware dependencies
type Middleware struct {
	log         *logger.Logger
	rateLimiter *RateLimiter
	apiKeys     [][]byte
}

// RateLimiter is a fixed-window limiter keyed by client IP
type RateLimiter struct {
	clients map[string]*clientBucket
	mutex   sync.Mutex

	requestsPerMinute int
	windowSize        time.Duration
	now               func() time.Time
}

type clientBucket struct {
	tokens     int
	lastRefill time.Time
}

// New creates a new middleware instance
func New(log *logger.Logger) *Middleware {
	return &Middleware{
		log:         log,
		rateLimiter: NewRateLimiter(60),
	}
}

// NewRateLimiter allows requestsPerMinute requests per client and minute
func NewRateLimiter(requestsPerMinute int) *RateLimiter {
	return &RateLimiter{
		clients:           make(map[string]*clientBucket),
		requestsPerMinute: requestsPerMinute,
		windowSize:        time.Minute,
		now:               time.Now,
	}
}

// SetAPIKeys sets the valid API keys for authentication
func (m *Middleware) SetAPIKeys(keys []string) {
	m.apiKeys = m.apiKeys[:0]
	for _, key := range keys {
		m.apiKeys = append(m.apiKeys, []byte(key))
	}
}

// Chain wraps h with the full middleware stack, outermost last
func (m *Middleware) Chain(h http.Handler) http.Handler {
	h = m.Recovery(h)
	h = m.Logging(h)
	h = m.Security(h)
	h = m.CORS(h)
	h = m.RateLimit(h)
	h = m.APIKeyAuth(h)
	return h
}

// Logging logs HTTP requests with detailed information
func (m *Middleware) Logging(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		rw := &responseWriter{ResponseWriter: w, statusCode: http.StatusOK}

		next.ServeHTTP(rw, r)

		m.log.With("method", r.Method).
			With("path", r.URL.Path).
			With("status", rw.statusCode).
			With("duration", time.Since(start).String()).
			With("remote_addr", r.RemoteAddr).
			With("user_agent", r.UserAgent()).
			Info("HTTP request completed")
	})
}

// CORS adds CORS headers for cross-origin requests
func (m *Middleware) CORS(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type, X-API-Key")
		w.Header().Set("Access-Control-Max-Age", "86400")

		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusOK)
			return
		}

		next.ServeHTTP(w, r)
	})
}

// Recovery handles panics and returns a 500 error
func (m *Middleware) Recovery(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		defer func() {
			if err := recover(); err != nil {
				m.log.Errorf("Panic in HTTP handler: %v", err)
				m.writeError(w, errors.InternalError(nil))
			}
		}()

		next.ServeHTTP(w, r)
	})
}

// RateLimit applies rate limiting based on client IP address.
// Webhook deliveries are not limited.
func (m *Middleware) RateLimit(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if strings.HasPrefix(r.URL.Path, "/webhook/") {
			next.ServeHTTP(w, r)
			return
		}

		clientIP := getClientIP(r)
		if !m.rateLimiter.Allow(clientIP) {
			m.log.Warnf("Rate limit exceeded for client: %s", clientIP)
			w.Header().Set("Retry-After", "60")
			m.writeError(w, errors.New(errors.ErrCodeTooManyRequests, "Rate limit exceeded. Please try again later."))
			return
		}

		next.ServeHTTP(w, r)
	})
}

// Allow reports whether clientIP may make another request in the current window
func (rl *RateLimiter) Allow(clientIP string) bool {
	rl.mutex.Lock()
	defer rl.mutex.Unlock()

	now := rl.now()
	bucket, exists := rl.clients[clientIP]
	if !exists || now.Sub(bucket.lastRefill) >= rl.windowSize {
		bucket = &clientBucket{tokens: rl.requestsPerMinute, lastRefill: now}
		rl.clients[clientIP] = bucket
	}

	if bucket.tokens > 0 {
		bucket.tokens--
		return true
	}

	return false
}

// getClientIP extracts the client IP address from the request
func getClientIP(r *http.Request) string {
	if xff := r.Header.Get("X-Forwarded-For"); xff != "" {
		if idx := strings.Index(xff, ","); idx != -1 {
			return strings.TrimSpace(xff[:idx])
		}
		return strings.TrimSpace(xff)
	}

	if xri := r.Header.Get("X-Real-IP"); xri != "" {
		return xri
	}

	return r.RemoteAddr
}

// APIKeyAuth guards the manual sync routes. With no keys configured those
// routes are closed; every other route passes through.
func (m *Middleware) APIKeyAuth(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !strings.HasPrefix(r.URL.Path, ProtectedPrefix) {
			next.ServeHTTP(w, r)
			return
		}

		if len(m.apiKeys) == 0 {
			m.writeError(w, errors.Unauthorized("Manual sync is disabled: no API keys configured"))
			return
		}

		apiKey := r.Header.Get("X-API-Key")
		if apiKey == "" {
			apiKey = r.URL.Query().Get("api_key")
		}

		if apiKey == "" {
			m.log.Warnf("Missing API key from %s", getClientIP(r))
			m.writeError(w, errors.Unauthorized("Missing API key"))
			return
		}

		if !m.isValidAPIKey(apiKey) {
			m.log.Warnf("Invalid API key from %s", getClientIP(r))
			m.writeError(w, errors.Unauthorized("Invalid API key"))
			return
		}

		next.ServeHTTP(w, r)
	})
}

// isValidAPIKey validates API key using constant-time comparison
func (m *Middleware) isValidAPIKey(provided string) bool {
	for _, valid := range m.apiKeys {
		if subtle.ConstantTimeCompare([]byte(provided), valid) == 1 {
			return true
		}
	}
	return false
}

// Security adds basic security headers
func (m *Middleware) Security(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("X-Content-Type-Options", "nosniff")
		w.Header().Set("X-Frame-Options", "DENY")
		w.Header().Set("X-XSS-Protection", "1; mode=block")

		if r.URL.Path != "/health" {
			w.Header().Set("Cache-Control", "no-cache, no-store, must-revalidate")
			w.Header().Set("Pragma", "no-cache")
			w.Header().Set("Expires", "0")
		}

		next.ServeHTTP(w, r)
	})
}

func (m *Middleware) writeError(w http.ResponseWriter, appErr *errors.AppError) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(appErr.StatusCode)
	_ = json.NewEncoder(w).Encode(&models.ErrorResponse{
		Error: appErr.Message,
		Code:  string(appErr.Code),
	})
}

// responseWriter is a wrapper for http.ResponseWriter to capture status code
type responseWriter struct {
	http.ResponseWriter
	statusCode int
}

func (rw *responseWriter) WriteHeader(statusCode int) {
	rw.statusCode = statusCode
	rw.ResponseWriter.WriteHeader(statusCode)
}
