// Package http implements the REST API for CyberGuard Academy Hub.
package http

import (
	"context"
	"encoding/json"
	"fmt"
	"net"
	"net/http"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/cyberguard-hub/cyberguard-academy-hub/internal/application/command"
	"github.com/cyberguard-hub/cyberguard-academy-hub/internal/application/query"
	"github.com/cyberguard-hub/cyberguard-academy-hub/internal/application/saga"
	"github.com/cyberguard-hub/cyberguard-academy-hub/internal/interface/http/handlers"
	"github.com/cyberguard-hub/cyberguard-academy-hub/pkg/logger"
	"github.com/cyberguard-hub/cyberguard-academy-hub/pkg/ratelimit"
)

// ══════════════════════════════════════════════════════════════════════════════
// SERVER CONFIGURATION
// ══════════════════════════════════════════════════════════════════════════════

// Config contains HTTP server configuration.
type Config struct {
	// Host is the address to bind to.
	Host string

	// Port is the port to listen on.
	Port int

	// ReadTimeout is the maximum duration for reading the entire request.
	ReadTimeout time.Duration

	// WriteTimeout is the maximum duration before timing out writes.
	WriteTimeout time.Duration

	// IdleTimeout is the maximum time to wait for the next request.
	IdleTimeout time.Duration

	// MaxHeaderBytes limits the size of request headers.
	MaxHeaderBytes int

	// MaxBodyBytes limits the size of request bodies.
	MaxBodyBytes int64

	// EnableCORS enables CORS headers.
	EnableCORS bool

	// AllowedOrigins is the list of allowed CORS origins ("*" for all).
	AllowedOrigins []string

	// RateLimitPerMinute is the per-client request budget. 0 disables
	// rate limiting.
	RateLimitPerMinute int

	// AuthRateLimitPerMinute is the tighter budget for the registration
	// and login endpoints.
	AuthRateLimitPerMinute int

	// APIKeyHeader is the header checked for admin API keys.
	APIKeyHeader string

	// APIKeys is the list of valid admin API keys. When empty, the
	// admin endpoints (risk adjustment, progress reset) are open.
	APIKeys []string
}

// DefaultConfig returns a config with sensible defaults.
func DefaultConfig() Config {
	return Config{
		Host:                   "0.0.0.0",
		Port:                   8080,
		ReadTimeout:            15 * time.Second,
		WriteTimeout:           15 * time.Second,
		IdleTimeout:            60 * time.Second,
		MaxHeaderBytes:         1 << 20, // 1MB
		MaxBodyBytes:           1 << 20, // 1MB
		EnableCORS:             true,
		AllowedOrigins:         []string{"*"},
		RateLimitPerMinute:     300,
		AuthRateLimitPerMinute: 20,
		APIKeyHeader:           "X-API-Key",
	}
}

// Address returns the listen address in host:port form.
func (c Config) Address() string {
	return fmt.Sprintf("%s:%d", c.Host, c.Port)
}

// ══════════════════════════════════════════════════════════════════════════════
// DEPENDENCIES
// ══════════════════════════════════════════════════════════════════════════════

// Dependencies contains everything the server needs to serve requests.
type Dependencies struct {
	// Onboarding handles registration and login.
	Onboarding *saga.OnboardingSaga

	// Command handlers.
	CompleteMission   *command.CompleteMissionHandler
	CompleteGame      *command.CompleteGameHandler
	RecordHelp        *command.RecordHelpHandler
	AdjustRisk        *command.AdjustRiskHandler
	ResetProgress     *command.ResetProgressHandler
	MarkNotifications *command.MarkNotificationsHandler

	// Query handlers.
	GetProgress      *query.GetProgressHandler
	GetContent       *query.GetAccessibleContentHandler
	GetAchievements  *query.GetAchievementsHandler
	GetLeaderboard   *query.GetLeaderboardHandler
	GetNotifications *query.GetNotificationsHandler

	// Logger for request logging.
	Logger *logger.Logger

	// HealthChecker for health endpoints.
	HealthChecker handlers.HealthChecker
}

// ══════════════════════════════════════════════════════════════════════════════
// SERVER
// ══════════════════════════════════════════════════════════════════════════════

// Server is the HTTP API server.
type Server struct {
	config Config
	deps   Dependencies

	httpServer *http.Server
	router     *http.ServeMux
	logger     *logger.Logger

	limiter     *ratelimit.KeyedLimiter
	authLimiter *ratelimit.KeyedLimiter
	apiKeyAuth  *handlers.APIKeyAuth

	mu        sync.RWMutex
	running   bool
	startedAt time.Time
}

// NewServer creates a new HTTP server.
func NewServer(config Config, deps Dependencies) *Server {
	log := deps.Logger
	if log == nil {
		log = logger.Default()
	}
	log = log.With(logger.Component("http_server"))

	s := &Server{
		config: config,
		deps:   deps,
		router: http.NewServeMux(),
		logger: log,
	}

	if config.RateLimitPerMinute > 0 {
		s.limiter = ratelimit.NewKeyedLimiter(ratelimit.Config{
			RequestsPerSecond: float64(config.RateLimitPerMinute) / 60.0,
			BurstSize:         config.RateLimitPerMinute / 6,
		}, 10*time.Minute)
	}
	if config.AuthRateLimitPerMinute > 0 {
		s.authLimiter = ratelimit.NewKeyedLimiter(ratelimit.Config{
			RequestsPerSecond: float64(config.AuthRateLimitPerMinute) / 60.0,
			BurstSize:         5,
		}, 10*time.Minute)
	}
	if len(config.APIKeys) > 0 {
		s.apiKeyAuth = handlers.NewAPIKeyAuth(config.APIKeyHeader, config.APIKeys)
	}

	s.setupRoutes()

	s.httpServer = &http.Server{
		Addr:           config.Address(),
		Handler:        s.buildHandler(),
		ReadTimeout:    config.ReadTimeout,
		WriteTimeout:   config.WriteTimeout,
		IdleTimeout:    config.IdleTimeout,
		MaxHeaderBytes: config.MaxHeaderBytes,
	}

	return s
}

// setupRoutes registers all API routes.
func (s *Server) setupRoutes() {
	// Health and status
	s.router.HandleFunc("GET /", s.handleRoot)
	s.router.HandleFunc("GET /health", s.handleHealth)
	s.router.HandleFunc("GET /healthz", s.handleHealth)
	s.router.HandleFunc("GET /ready", s.handleReady)
	s.router.HandleFunc("GET /live", s.handleLive)

	// Authentication
	s.router.HandleFunc("POST /api/v1/auth/register", s.withAuthLimit(s.handleRegister))
	s.router.HandleFunc("POST /api/v1/auth/login", s.withAuthLimit(s.handleLogin))

	// Account progression
	s.router.HandleFunc("GET /api/v1/accounts/{id}/progress", s.handleGetProgress)
	s.router.HandleFunc("GET /api/v1/accounts/{id}/content", s.handleGetContent)
	s.router.HandleFunc("GET /api/v1/accounts/{id}/achievements", s.handleGetAchievements)

	// Activity
	s.router.HandleFunc("POST /api/v1/accounts/{id}/missions/{missionId}/complete", s.handleCompleteMission)
	s.router.HandleFunc("POST /api/v1/accounts/{id}/games/{gameId}/complete", s.handleCompleteGame)
	s.router.HandleFunc("POST /api/v1/accounts/{id}/help", s.handleRecordHelp)

	// Notifications
	s.router.HandleFunc("GET /api/v1/accounts/{id}/notifications", s.handleGetNotifications)
	s.router.HandleFunc("POST /api/v1/accounts/{id}/notifications/read", s.handleMarkNotifications)

	// Leaderboard
	s.router.HandleFunc("GET /api/v1/leaderboard", s.handleGetLeaderboard)

	// Admin
	s.router.HandleFunc("POST /api/v1/accounts/{id}/risk", s.withAPIKey(s.handleAdjustRisk))
	s.router.HandleFunc("POST /api/v1/accounts/{id}/reset", s.withAPIKey(s.handleResetProgress))
}

// buildHandler wraps the router with the middleware chain.
func (s *Server) buildHandler() http.Handler {
	var handler http.Handler = s.router

	// Innermost first: the outermost middleware runs first.
	handler = s.rateLimitMiddleware(handler)
	if s.config.EnableCORS {
		handler = s.corsMiddleware(handler)
	}
	handler = handlers.SecurityHeadersMiddleware(handler)
	if s.config.MaxBodyBytes > 0 {
		handler = handlers.RequestSizeLimitMiddleware(s.config.MaxBodyBytes)(handler)
	}
	handler = s.recoveryMiddleware(handler)
	handler = s.loggingMiddleware(handler)
	handler = s.requestIDMiddleware(handler)

	return handler
}

// ══════════════════════════════════════════════════════════════════════════════
// LIFECYCLE
// ══════════════════════════════════════════════════════════════════════════════

// Start starts the server and blocks until it stops.
func (s *Server) Start() error {
	s.mu.Lock()
	if s.running {
		s.mu.Unlock()
		return fmt.Errorf("server is already running")
	}
	s.running = true
	s.startedAt = time.Now()
	s.mu.Unlock()

	s.logger.Info("http server starting", logger.String("address", s.config.Address()))

	err := s.httpServer.ListenAndServe()
	if err != nil && err != http.ErrServerClosed {
		return fmt.Errorf("http server failed: %w", err)
	}
	return nil
}

// StartAsync starts the server in a goroutine and returns immediately.
// Errors are reported on the returned channel.
func (s *Server) StartAsync() <-chan error {
	errCh := make(chan error, 1)
	go func() {
		if err := s.Start(); err != nil {
			errCh <- err
		}
		close(errCh)
	}()
	return errCh
}

// Shutdown gracefully stops the server.
func (s *Server) Shutdown(ctx context.Context) error {
	s.mu.Lock()
	if !s.running {
		s.mu.Unlock()
		return nil
	}
	s.running = false
	s.mu.Unlock()

	s.logger.Info("http server shutting down")
	return s.httpServer.Shutdown(ctx)
}

// IsRunning returns whether the server is currently running.
func (s *Server) IsRunning() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.running
}

// Uptime returns how long the server has been running.
func (s *Server) Uptime() time.Duration {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if !s.running {
		return 0
	}
	return time.Since(s.startedAt)
}

// ══════════════════════════════════════════════════════════════════════════════
// MIDDLEWARE
// ══════════════════════════════════════════════════════════════════════════════

type contextKey string

const contextKeyRequestID contextKey = "request_id"

// requestIDMiddleware assigns each request a unique ID.
func (s *Server) requestIDMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		requestID := r.Header.Get("X-Request-ID")
		if requestID == "" {
			requestID = uuid.NewString()
		}

		ctx := context.WithValue(r.Context(), contextKeyRequestID, requestID)
		w.Header().Set("X-Request-ID", requestID)

		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// loggingMiddleware logs each request with latency and status.
func (s *Server) loggingMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		rw := &responseWriter{ResponseWriter: w, status: http.StatusOK}

		next.ServeHTTP(rw, r)

		s.logger.Info("http request",
			logger.String("method", r.Method),
			logger.String("path", r.URL.Path),
			logger.Int("status", rw.status),
			logger.Latency(time.Since(start)),
			logger.String("ip", getClientIP(r)),
			logger.String("request_id", getRequestID(r)),
		)
	})
}

// recoveryMiddleware converts panics into 500 responses.
func (s *Server) recoveryMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		defer func() {
			if rec := recover(); rec != nil {
				s.logger.Error("panic in http handler",
					logger.Any("panic", rec),
					logger.String("path", r.URL.Path),
				)
				writeJSONError(w, http.StatusInternalServerError, "internal_error", "Internal server error")
			}
		}()
		next.ServeHTTP(w, r)
	})
}

// corsMiddleware adds CORS headers.
func (s *Server) corsMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		origin := r.Header.Get("Origin")
		if origin != "" && s.originAllowed(origin) {
			w.Header().Set("Access-Control-Allow-Origin", origin)
			w.Header().Set("Access-Control-Allow-Methods", "GET, POST, PUT, DELETE, OPTIONS")
			w.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization, X-API-Key, X-Request-ID")
			w.Header().Set("Access-Control-Max-Age", "3600")
		}

		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusNoContent)
			return
		}

		next.ServeHTTP(w, r)
	})
}

func (s *Server) originAllowed(origin string) bool {
	for _, allowed := range s.config.AllowedOrigins {
		if allowed == "*" || allowed == origin {
			return true
		}
	}
	return false
}

// rateLimitMiddleware throttles requests per client IP.
func (s *Server) rateLimitMiddleware(next http.Handler) http.Handler {
	if s.limiter == nil {
		return next
	}

	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !s.limiter.Allow(getClientIP(r)) {
			w.Header().Set("Retry-After", "60")
			writeJSONError(w, http.StatusTooManyRequests, "rate_limited", "Too many requests")
			return
		}
		next.ServeHTTP(w, r)
	})
}

// withAuthLimit applies the tighter auth-endpoint rate limit.
func (s *Server) withAuthLimit(handler http.HandlerFunc) http.HandlerFunc {
	if s.authLimiter == nil {
		return handler
	}

	return func(w http.ResponseWriter, r *http.Request) {
		if !s.authLimiter.Allow(getClientIP(r)) {
			w.Header().Set("Retry-After", "60")
			writeJSONError(w, http.StatusTooManyRequests, "rate_limited", "Too many authentication attempts")
			return
		}
		handler(w, r)
	}
}

// withAPIKey protects admin endpoints with API key authentication.
func (s *Server) withAPIKey(handler http.HandlerFunc) http.HandlerFunc {
	if s.apiKeyAuth == nil {
		return handler
	}
	return s.apiKeyAuth.Middleware(handler).ServeHTTP
}

// ══════════════════════════════════════════════════════════════════════════════
// RESPONSE HELPERS
// ══════════════════════════════════════════════════════════════════════════════

// JSONResponse is the standard response envelope.
type JSONResponse struct {
	Success   bool          `json:"success"`
	Data      interface{}   `json:"data,omitempty"`
	Error     *APIError     `json:"error,omitempty"`
	Meta      *ResponseMeta `json:"meta,omitempty"`
	RequestID string        `json:"request_id,omitempty"`
}

// APIError describes an error in a response.
type APIError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
	Details string `json:"details,omitempty"`
}

// ResponseMeta contains pagination metadata.
type ResponseMeta struct {
	TotalCount int  `json:"total_count,omitempty"`
	Limit      int  `json:"limit,omitempty"`
	Offset     int  `json:"offset,omitempty"`
	HasMore    bool `json:"has_more,omitempty"`
}

// writeJSON writes a success response.
func writeJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)

	resp := JSONResponse{
		Success: status < 400,
		Data:    data,
	}
	_ = json.NewEncoder(w).Encode(resp)
}

// writeJSONWithMeta writes a success response with pagination metadata.
func writeJSONWithMeta(w http.ResponseWriter, r *http.Request, status int, data interface{}, meta *ResponseMeta) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)

	resp := JSONResponse{
		Success:   status < 400,
		Data:      data,
		Meta:      meta,
		RequestID: getRequestID(r),
	}
	_ = json.NewEncoder(w).Encode(resp)
}

// writeJSONError writes an error response.
func writeJSONError(w http.ResponseWriter, status int, code, message string) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)

	resp := JSONResponse{
		Success: false,
		Error: &APIError{
			Code:    code,
			Message: message,
		},
	}
	_ = json.NewEncoder(w).Encode(resp)
}

// writeJSONErrorWithDetails writes an error response with extra detail.
func writeJSONErrorWithDetails(w http.ResponseWriter, status int, code, message, details string) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)

	resp := JSONResponse{
		Success: false,
		Error: &APIError{
			Code:    code,
			Message: message,
			Details: details,
		},
	}
	_ = json.NewEncoder(w).Encode(resp)
}

// ══════════════════════════════════════════════════════════════════════════════
// REQUEST HELPERS
// ══════════════════════════════════════════════════════════════════════════════

// responseWriter captures the status code for logging.
type responseWriter struct {
	http.ResponseWriter
	status int
}

func (rw *responseWriter) WriteHeader(status int) {
	rw.status = status
	rw.ResponseWriter.WriteHeader(status)
}

// getClientIP extracts the client IP, honoring proxy headers.
func getClientIP(r *http.Request) string {
	if xff := r.Header.Get("X-Forwarded-For"); xff != "" {
		parts := strings.Split(xff, ",")
		return strings.TrimSpace(parts[0])
	}
	if realIP := r.Header.Get("X-Real-IP"); realIP != "" {
		return realIP
	}

	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}

// getRequestID returns the request ID from context.
func getRequestID(r *http.Request) string {
	if id, ok := r.Context().Value(contextKeyRequestID).(string); ok {
		return id
	}
	return ""
}

// getQueryParam returns a query parameter or a default.
func getQueryParam(r *http.Request, name, defaultValue string) string {
	if v := r.URL.Query().Get(name); v != "" {
		return v
	}
	return defaultValue
}

// getQueryParamInt returns an integer query parameter or a default.
func getQueryParamInt(r *http.Request, name string, defaultValue int) int {
	v := r.URL.Query().Get(name)
	if v == "" {
		return defaultValue
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return defaultValue
	}
	return n
}

// getQueryParamBool returns a boolean query parameter.
func getQueryParamBool(r *http.Request, name string) bool {
	v := strings.ToLower(r.URL.Query().Get(name))
	return v == "true" || v == "1" || v == "yes"
}

// decodeJSONBody decodes a JSON request body into dst.
func decodeJSONBody(r *http.Request, dst interface{}) error {
	defer r.Body.Close()

	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(dst); err != nil {
		return fmt.Errorf("invalid request body: %w", err)
	}
	return nil
}
