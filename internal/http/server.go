// Package http provides the JSON API server and handler implementations.
package http

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"sync"
	"time"

	"fintrack/internal/auth"
	"fintrack/internal/core"
	"fintrack/internal/services"
)

type contextKey string

const (
	requestIDKey contextKey = "request_id"
	claimsKey    contextKey = "claims"
)

// scopeFromContext returns the record visibility granted to the request.
// Handlers behind withAuth can rely on the claims being present.
func scopeFromContext(ctx context.Context) core.Scope {
	claims, _ := ctx.Value(claimsKey).(*auth.Claims)
	if claims == nil {
		return core.Scope{}
	}
	return claims.Scope()
}

func claimsFromContext(ctx context.Context) *auth.Claims {
	claims, _ := ctx.Value(claimsKey).(*auth.Claims)
	return claims
}

// Simple in-memory rate limiter
type rateLimiter struct {
	mu           sync.Mutex
	clients      map[string]*clientInfo
	maxPerMinute int
	stopCleanup  chan struct{}
	shutdownOnce sync.Once
}

type clientInfo struct {
	lastRequest time.Time
	requests    int
}

func newRateLimiter(maxPerMinute int) *rateLimiter {
	rl := &rateLimiter{
		clients:      make(map[string]*clientInfo),
		maxPerMinute: maxPerMinute,
		stopCleanup:  make(chan struct{}),
	}
	go rl.startCleanup()
	return rl
}

// startCleanup runs periodic cleanup to remove stale client entries
func (rl *rateLimiter) startCleanup() {
	ticker := time.NewTicker(5 * time.Minute)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			rl.cleanupStaleEntries()
		case <-rl.stopCleanup:
			return
		}
	}
}

// cleanupStaleEntries removes client entries older than 10 minutes
func (rl *rateLimiter) cleanupStaleEntries() {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	cutoff := time.Now().Add(-10 * time.Minute)
	for ip, client := range rl.clients {
		if client.lastRequest.Before(cutoff) {
			delete(rl.clients, ip)
		}
	}
}

// stop gracefully shuts down the rate limiter cleanup goroutine
func (rl *rateLimiter) stop() {
	rl.shutdownOnce.Do(func() {
		if rl.stopCleanup != nil {
			close(rl.stopCleanup)
		}
	})
}

func (rl *rateLimiter) allow(clientIP string) bool {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	now := time.Now()
	client, exists := rl.clients[clientIP]

	if !exists {
		rl.clients[clientIP] = &clientInfo{
			lastRequest: now,
			requests:    1,
		}
		return true
	}

	// Reset counter if more than 1 minute has passed
	if now.Sub(client.lastRequest) > time.Minute {
		client.requests = 1
		client.lastRequest = now
		return true
	}

	client.requests++
	client.lastRequest = now

	return client.requests <= rl.maxPerMinute
}

type Server struct {
	http.Server
	expenses    *services.ExpenseService
	lends       *services.LendService
	auths       *services.AuthService
	jwt         *auth.JWTManager
	rateLimiter *rateLimiter
	metrics     *serverMetrics

	shutdownOnce sync.Once
}

// Options carries the server's tunables beyond its service dependencies.
type Options struct {
	Addr               string
	RateLimitPerMinute int
}

// NewServer configures routes and middleware, returning a ready-to-run
// http.Server.
func NewServer(opts Options, expenses *services.ExpenseService, lends *services.LendService, auths *services.AuthService, jwtManager *auth.JWTManager) *Server {
	mux := http.NewServeMux()

	if opts.RateLimitPerMinute <= 0 {
		opts.RateLimitPerMinute = 120
	}

	s := &Server{
		Server: http.Server{
			Addr:    opts.Addr,
			Handler: mux,
		},
		expenses:    expenses,
		lends:       lends,
		auths:       auths,
		jwt:         jwtManager,
		rateLimiter: newRateLimiter(opts.RateLimitPerMinute),
		metrics:     newServerMetrics(),
	}

	mux.HandleFunc("/healthz", handleHealth)
	mux.HandleFunc("/readyz", handleReady)
	mux.Handle("/metrics", s.metrics.handler())

	// Auth endpoints, no token required
	mux.HandleFunc("POST /api/auth/register", s.withObservability(s.handleRegister))
	mux.HandleFunc("POST /api/auth/login", s.withObservability(s.handleLogin))
	mux.HandleFunc("POST /api/auth/otp/request", s.withObservability(s.handleOTPRequest))
	mux.HandleFunc("POST /api/auth/otp/verify", s.withObservability(s.handleOTPVerify))
	mux.HandleFunc("POST /api/auth/password/reset", s.withObservability(s.handlePasswordReset))

	// Expense endpoints
	mux.HandleFunc("POST /api/expenses", s.protected(s.handleCreateExpense))
	mux.HandleFunc("GET /api/expenses", s.protected(s.handleListExpenses))
	mux.HandleFunc("GET /api/expenses/{id}", s.protected(s.handleGetExpense))
	mux.HandleFunc("PATCH /api/expenses/{id}", s.protected(s.handleUpdateExpense))
	mux.HandleFunc("DELETE /api/expenses/{id}", s.protected(s.handleDeleteExpense))
	mux.HandleFunc("GET /api/expenses/summary/{granularity}", s.protected(s.handleExpenseSummary))
	mux.HandleFunc("GET /api/expenses/chart/{granularity}", s.protected(s.handleExpenseChart))
	mux.HandleFunc("GET /api/categories", s.protected(s.handleCategories))

	// Dashboard
	mux.HandleFunc("GET /api/dashboard", s.protected(s.handleDashboard))

	// Lend/return endpoints
	mux.HandleFunc("POST /api/lend", s.protected(s.handleCreateLend))
	mux.HandleFunc("GET /api/lend", s.protected(s.handleListLend))
	mux.HandleFunc("GET /api/lend/overview", s.protected(s.handleLendOverview))
	mux.HandleFunc("GET /api/lend/given-received", s.protected(s.handleGivenReceived))
	mux.HandleFunc("GET /api/lend/borrowed-returned", s.protected(s.handleBorrowedReturned))
	mux.HandleFunc("GET /api/lend/totals", s.protected(s.handleLendTotals))
	mux.HandleFunc("GET /api/lend/person/{name}", s.protected(s.handleLendPerson))
	mux.HandleFunc("GET /api/lend/summary/{granularity}", s.protected(s.handleLendSummary))

	// Export
	mux.HandleFunc("GET /api/export/expenses", s.protected(s.handleExportExpenses))
	mux.HandleFunc("GET /api/export/lend", s.protected(s.handleExportLend))

	return s
}

func (s *Server) protected(next http.HandlerFunc) http.HandlerFunc {
	return s.withObservability(s.withAuth(next))
}

// withObservability adds security headers, rate limiting, request logging,
// and metrics.
func (s *Server) withObservability(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		clientIP := extractClientIP(r)

		requestID := generateRequestID()
		ctx := context.WithValue(r.Context(), requestIDKey, requestID)
		r = r.WithContext(ctx)

		slog.InfoContext(ctx, "Request started",
			"request_id", requestID,
			"method", r.Method,
			"url", r.URL.Path,
			"client_ip", clientIP,
			"user_agent", r.Header.Get("User-Agent"))

		if !s.rateLimiter.allow(clientIP) {
			slog.WarnContext(ctx, "Rate limit exceeded", "client_ip", clientIP, "method", r.Method, "url", r.URL.Path)
			s.metrics.rateLimitHits.Inc()
			w.Header().Set("Retry-After", "60")
			writeJSON(w, http.StatusTooManyRequests, errorResponse{Error: "rate limit exceeded, try again later"})
			return
		}

		w.Header().Set("X-Content-Type-Options", "nosniff")
		w.Header().Set("X-Frame-Options", "DENY")
		w.Header().Set("Content-Security-Policy", "default-src 'none'")
		w.Header().Set("Referrer-Policy", "strict-origin-when-cross-origin")

		rw := &responseWriter{ResponseWriter: w, statusCode: http.StatusOK}
		next(rw, r)

		duration := time.Since(start)
		s.metrics.observe(r.Method, r.URL.Path, rw.statusCode, duration)
		slog.InfoContext(ctx, "Request completed",
			"request_id", requestID,
			"method", r.Method,
			"url", r.URL.Path,
			"status", rw.statusCode,
			"duration_ms", duration.Milliseconds(),
			"client_ip", clientIP)
	}
}

// withAuth validates the bearer token and stores its claims in the request
// context.
func (s *Server) withAuth(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		header := r.Header.Get("Authorization")
		if header == "" {
			writeError(w, r, auth.ErrMissingToken)
			return
		}
		parts := strings.SplitN(header, " ", 2)
		if len(parts) != 2 || parts[0] != "Bearer" {
			writeError(w, r, auth.ErrInvalidToken)
			return
		}

		claims, err := s.jwt.Validate(parts[1])
		if err != nil {
			writeError(w, r, err)
			return
		}

		ctx := context.WithValue(r.Context(), claimsKey, claims)
		next(w, r.WithContext(ctx))
	}
}

// responseWriter wraps http.ResponseWriter to capture the status code
type responseWriter struct {
	http.ResponseWriter
	statusCode int
}

func (rw *responseWriter) WriteHeader(code int) {
	rw.statusCode = code
	rw.ResponseWriter.WriteHeader(code)
}

// generateRequestID creates a unique request ID for tracing
func generateRequestID() string {
	bytes := make([]byte, 8)
	if _, err := rand.Read(bytes); err != nil {
		// Fallback to timestamp if random fails
		return fmt.Sprintf("req_%d", time.Now().UnixNano())
	}
	return "req_" + hex.EncodeToString(bytes)
}

// Shutdown gracefully shuts down the server and cleanup routines
func (s *Server) Shutdown(ctx context.Context) error {
	var shutdownErr error

	s.shutdownOnce.Do(func() {
		if s.rateLimiter != nil {
			s.rateLimiter.stop()
		}
		shutdownErr = s.Server.Shutdown(ctx)
	})

	return shutdownErr
}

func handleHealth(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ok"))
}

func handleReady(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ready"))
}
