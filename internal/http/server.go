// Package http serves the dashboard JSON API.
package http

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"net/http"
	"strings"
	"sync"
	"time"

	"pcfdash/internal/auth"
	"pcfdash/internal/cache"
	"pcfdash/internal/dashboard"
	"pcfdash/internal/log"
	"pcfdash/internal/storage"
)

const (
	defaultFetchTimeout  = 30 * time.Second
	responseCacheTTL     = 30 * time.Second
	responseCacheEntries = 100
)

// SnapshotStore persists refresh results. Optional; nil disables
// history.
type SnapshotStore interface {
	SaveRefresh(ctx context.Context, res *dashboard.RefreshResult) ([]storage.Snapshot, error)
	RecentSnapshots(ctx context.Context, clusterKey string, limit int) ([]storage.Snapshot, error)
}

// EventPublisher announces completed refreshes. Optional; nil disables
// publishing.
type EventPublisher interface {
	PublishRefreshCompleted(ctx context.Context, res *dashboard.RefreshResult) error
}

type Server struct {
	http.Server
	dash         *dashboard.Service
	auth         *auth.Service
	snapshots    SnapshotStore
	events       EventPublisher
	logger       *log.Logger
	fetchTimeout time.Duration

	rateLimiter  *rateLimiter
	respCache    *cache.LRUCache[[]byte]
	cacheManager *cache.Manager
	shutdownOnce sync.Once
}

// Option configures a Server.
type Option func(*Server)

// WithSnapshotStore enables snapshot history persistence.
func WithSnapshotStore(store SnapshotStore) Option {
	return func(s *Server) { s.snapshots = store }
}

// WithEventPublisher enables refresh event publishing.
func WithEventPublisher(pub EventPublisher) Option {
	return func(s *Server) { s.events = pub }
}

// WithFetchTimeout bounds how long a triggered refresh may run.
func WithFetchTimeout(d time.Duration) Option {
	return func(s *Server) { s.fetchTimeout = d }
}

// NewServer configures routes and middleware, returning a
// ready-to-run http.Server.
func NewServer(addr string, dash *dashboard.Service, authSvc *auth.Service, logger *log.Logger, opts ...Option) *Server {
	mux := http.NewServeMux()

	s := &Server{
		Server: http.Server{
			Addr:    addr,
			Handler: mux,
		},
		dash:         dash,
		auth:         authSvc,
		logger:       logger.WithComponent(log.ComponentHTTP),
		fetchTimeout: defaultFetchTimeout,
		rateLimiter:  newRateLimiter(),
		respCache:    cache.NewLRUCache[[]byte](responseCacheEntries, responseCacheTTL),
		cacheManager: cache.NewManager(),
	}
	for _, opt := range opts {
		opt(s)
	}

	s.cacheManager.Register(s.respCache)
	s.cacheManager.StartCleanup(10 * time.Minute)

	mux.HandleFunc("GET /healthz", handleHealth)
	mux.HandleFunc("GET /readyz", s.handleReady)

	mux.HandleFunc("POST /api/login", s.withSecurityHeaders(s.handleLogin))
	mux.HandleFunc("POST /api/logout", s.withSecurityHeaders(s.authenticated(s.handleLogout)))
	mux.HandleFunc("POST /api/refresh", s.withSecurityHeaders(s.authenticated(s.handleRefresh)))
	mux.HandleFunc("GET /api/stats", s.withSecurityHeaders(s.authenticated(s.handleStats)))
	mux.HandleFunc("GET /api/clusters", s.withSecurityHeaders(s.authenticated(s.handleClusters)))
	mux.HandleFunc("GET /api/clusters/{key}", s.withSecurityHeaders(s.authenticated(s.handleClusterDetail)))
	mux.HandleFunc("GET /api/clusters/{key}/history", s.withSecurityHeaders(s.authenticated(s.handleClusterHistory)))
	mux.HandleFunc("GET /api/transactions", s.withSecurityHeaders(s.authenticated(s.handleTransactions)))

	return s
}

// Shutdown gracefully shuts down the server and cleanup routines.
func (s *Server) Shutdown(ctx context.Context) error {
	var shutdownErr error
	s.shutdownOnce.Do(func() {
		s.cacheManager.Stop()
		s.rateLimiter.stop()
		shutdownErr = s.Server.Shutdown(ctx)
	})
	return shutdownErr
}

// withSecurityHeaders adds security headers, rate limiting, and request
// logging to responses.
func (s *Server) withSecurityHeaders(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()

		// Extract client IP (considering proxies)
		clientIP := r.Header.Get("X-Forwarded-For")
		if clientIP == "" {
			clientIP = r.Header.Get("X-Real-IP")
		}
		if clientIP == "" {
			clientIP = r.RemoteAddr
		}

		requestID := generateRequestID()
		ctx := context.WithValue(r.Context(), log.LoggerContextKey,
			s.logger.With(log.FieldRequestID, requestID))
		r = r.WithContext(ctx)

		// Rate limit mutating requests.
		if r.Method == http.MethodPost && !s.rateLimiter.allow(clientIP) {
			s.logger.WarnContext(ctx, "Rate limit exceeded",
				log.FieldClientIP, clientIP,
				log.FieldMethod, r.Method,
				log.FieldPath, r.URL.Path)
			w.Header().Set("Retry-After", "60")
			writeJSONError(w, http.StatusTooManyRequests, "rate limit exceeded, try again later")
			return
		}

		w.Header().Set("X-Content-Type-Options", "nosniff")
		w.Header().Set("X-Frame-Options", "DENY")
		w.Header().Set("Content-Security-Policy", "default-src 'none'")
		w.Header().Set("Referrer-Policy", "strict-origin-when-cross-origin")

		rw := &responseWriter{ResponseWriter: w, statusCode: http.StatusOK}
		next(rw, r)

		s.logger.InfoContext(ctx, "Request completed",
			log.FieldRequestID, requestID,
			log.FieldMethod, r.Method,
			log.FieldPath, r.URL.Path,
			log.FieldStatusCode, rw.statusCode,
			log.FieldDuration, time.Since(start).Milliseconds(),
			log.FieldClientIP, clientIP)
	}
}

// authenticated resolves the bearer token and passes the session on.
func (s *Server) authenticated(next func(http.ResponseWriter, *http.Request, auth.Session)) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		token := strings.TrimPrefix(r.Header.Get("Authorization"), "Bearer ")
		if token == "" || token == r.Header.Get("Authorization") {
			writeJSONError(w, http.StatusUnauthorized, "missing bearer token")
			return
		}
		sess, ok := s.auth.Validate(token)
		if !ok {
			writeJSONError(w, http.StatusUnauthorized, "invalid or expired session")
			return
		}
		next(w, r, sess)
	}
}

// responseWriter wraps http.ResponseWriter to capture the status code.
type responseWriter struct {
	http.ResponseWriter
	statusCode int
}

func (rw *responseWriter) WriteHeader(code int) {
	rw.statusCode = code
	rw.ResponseWriter.WriteHeader(code)
}

// generateRequestID creates a unique request ID for tracing.
func generateRequestID() string {
	bytes := make([]byte, 8)
	if _, err := rand.Read(bytes); err != nil {
		return fmt.Sprintf("req_%d", time.Now().UnixNano())
	}
	return "req_" + hex.EncodeToString(bytes)
}

func handleHealth(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ok"))
}

// handleReady reports ready once a refresh has produced a view, even an
// empty one.
func (s *Server) handleReady(w http.ResponseWriter, r *http.Request) {
	if _, ok := s.dash.Latest(); !ok {
		w.WriteHeader(http.StatusServiceUnavailable)
		_, _ = w.Write([]byte("waiting for first refresh"))
		return
	}
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ready"))
}
