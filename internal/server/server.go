// Package server sets up the HTTP server with all routes
package server

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"sync/atomic"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/nexshop/identity/internal/challenge"
	"github.com/nexshop/identity/internal/config"
	"github.com/nexshop/identity/internal/health"
	"github.com/nexshop/identity/internal/logging"
	"github.com/nexshop/identity/internal/mailer"
	"github.com/nexshop/identity/internal/metrics"
	"github.com/nexshop/identity/internal/policy"
	"github.com/nexshop/identity/internal/ratelimit"
	"github.com/nexshop/identity/internal/reputation"
	"github.com/nexshop/identity/internal/security"
	"github.com/nexshop/identity/internal/traces"
	"github.com/nexshop/identity/internal/validation"
)

// -----------------------------------------------------------------------------
// Server
// -----------------------------------------------------------------------------

// Server wraps the HTTP server and dependencies
type Server struct {
	cfg          *config.Config
	policies     *policy.Store
	challenges   *challenge.Service
	sweeper      *challenge.Sweeper
	repClient    *reputation.Client
	mailSender   mailer.Sender
	rateLimiter  *ratelimit.Limiter
	healthReg    *health.Registry
	router       *gin.Engine
	httpSrv      *http.Server
	logger       *slog.Logger
	cancelRunCtx context.CancelFunc // cancels background goroutines started in Run
	stopTracing  func(context.Context) error

	// Health state
	ready   atomic.Bool
	healthy atomic.Bool
}

// Option configures the server
type Option func(*Server)

// WithLogger sets a custom logger
func WithLogger(logger *slog.Logger) Option {
	return func(s *Server) {
		s.logger = logger
	}
}

// WithMailSender sets a custom mail sender (for testing)
func WithMailSender(sender mailer.Sender) Option {
	return func(s *Server) {
		s.mailSender = sender
	}
}

// WithReputationClient sets a custom reputation client (for testing)
func WithReputationClient(client *reputation.Client) Option {
	return func(s *Server) {
		s.repClient = client
	}
}

// New creates a new server instance
func New(cfg *config.Config, opts ...Option) (*Server, error) {
	s := &Server{
		cfg:    cfg,
		logger: logging.New(cfg.LogLevel, "json"),
	}

	// Apply options first (may set sender/logger/reputation client)
	for _, opt := range opts {
		opt(s)
	}

	// Runtime policy, seeded from the environment
	s.policies = policy.NewStore(cfg.Policy())

	// Mail transport for email challenges
	if s.mailSender == nil {
		if smtp := cfg.SMTP(); smtp.Configured() {
			s.mailSender = mailer.NewSMTPSender(smtp)
			s.logger.Info("smtp delivery enabled", "host", smtp.Host, "from", smtp.From)
		} else {
			s.mailSender = mailer.NewLogSender(s.logger)
			s.logger.Info("smtp not configured, email challenges are log-only")
		}
	}

	// Challenge store, orchestrator, and sweeper
	store := challenge.NewStore(cfg.ChallengeTTL)
	s.challenges = challenge.NewService(store, s.mailSender, challenge.ServiceConfig{
		OTPIssuer:          cfg.OTPIssuer,
		BiometricThreshold: cfg.BiometricSimilarity,
	}, s.logger)
	s.sweeper = challenge.NewSweeper(store, cfg.SweepInterval, s.logger)

	// IP reputation lookup (fail-open; disabled until an API key is set)
	if s.repClient == nil {
		s.repClient = reputation.NewClient(s.logger)
	}

	// Health checks
	s.healthReg = health.NewRegistry()
	s.healthReg.Register("challenge_store", func(_ context.Context) health.Status {
		return health.Status{
			Name:    "challenge_store",
			Healthy: true,
			Detail:  fmt.Sprintf("%d active", store.Len()),
		}
	})
	s.healthReg.Register("sweeper", func(_ context.Context) health.Status {
		detail := "stopped"
		if s.sweeper.Running() {
			detail = "running"
		}
		return health.Status{Name: "sweeper", Healthy: true, Detail: detail}
	})
	s.healthReg.Register("mailer", func(_ context.Context) health.Status {
		detail := "log-only"
		if cfg.SMTP().Configured() {
			detail = "smtp"
		}
		return health.Status{Name: "mailer", Healthy: true, Detail: detail}
	})

	// Configure gin
	if cfg.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
	}

	s.router = gin.New()
	s.setupMiddleware()
	s.setupRoutes()

	s.healthy.Store(true)

	return s, nil
}

// -----------------------------------------------------------------------------
// Middleware
// -----------------------------------------------------------------------------

func (s *Server) setupMiddleware() {
	// Recovery with logging
	s.router.Use(gin.CustomRecovery(func(c *gin.Context, recovered interface{}) {
		logging.L(c.Request.Context()).Error("panic recovered",
			"error", recovered,
			"path", c.Request.URL.Path,
		)
		c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{
			"error":   "internal_error",
			"message": "An unexpected error occurred",
		})
	}))

	// Security headers
	s.router.Use(security.HeadersMiddleware())

	// CORS
	s.router.Use(security.CORSMiddleware(s.cfg.AllowedOrigins))

	// Request size limit (1MB)
	s.router.Use(validation.RequestSizeMiddleware(validation.MaxRequestSize))

	// Rate limiting per client IP
	rlCfg := ratelimit.DefaultConfig()
	if s.cfg.RateLimitRPM > 0 {
		rlCfg.RequestsPerMinute = s.cfg.RateLimitRPM
		// Scale burst with the sustained rate.
		if burst := s.cfg.RateLimitRPM / 6; burst > rlCfg.BurstSize {
			rlCfg.BurstSize = burst
		}
	}
	s.rateLimiter = ratelimit.New(rlCfg)
	s.router.Use(s.rateLimiter.Middleware())

	// Prometheus metrics
	s.router.Use(metrics.Middleware())

	// Request ID
	s.router.Use(s.requestIDMiddleware())

	// Logging
	s.router.Use(s.loggingMiddleware())
}

func (s *Server) requestIDMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		// Check for existing request ID (from load balancer, etc.)
		requestID := c.GetHeader("X-Request-ID")
		if requestID == "" {
			requestID = uuid.NewString()
		}

		// Add to context
		ctx := logging.WithRequestID(c.Request.Context(), requestID)
		ctx = logging.WithLogger(ctx, s.logger)
		c.Request = c.Request.WithContext(ctx)

		// Set response header
		c.Header("X-Request-ID", requestID)

		c.Next()
	}
}

func (s *Server) loggingMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		path := c.Request.URL.Path

		c.Next()

		latency := time.Since(start)
		status := c.Writer.Status()

		logger := logging.L(c.Request.Context())

		// Log level based on status code
		switch {
		case status >= 500:
			logger.Error("request completed",
				"method", c.Request.Method,
				"path", path,
				"status", status,
				"latency_ms", latency.Milliseconds(),
				"client_ip", clientIP(c.Request),
			)
		case status >= 400:
			logger.Warn("request completed",
				"method", c.Request.Method,
				"path", path,
				"status", status,
				"latency_ms", latency.Milliseconds(),
			)
		default:
			logger.Info("request completed",
				"method", c.Request.Method,
				"path", path,
				"status", status,
				"latency_ms", latency.Milliseconds(),
			)
		}
	}
}

// -----------------------------------------------------------------------------
// Routes
// -----------------------------------------------------------------------------

func (s *Server) setupRoutes() {
	// Health & metrics endpoints
	s.router.GET("/health", s.healthHandler)
	s.router.GET("/health/live", s.livenessHandler)
	s.router.GET("/health/ready", s.readinessHandler)
	s.router.GET("/metrics", metrics.Handler())

	// Identity API
	id := s.router.Group("/identity")
	id.POST("/verify", s.verifyHandler)
	id.POST("/challenge/initiate", s.challengeInitiateHandler)
	id.POST("/challenge/verify", s.challengeVerifyHandler)
	id.GET("/config", s.configGetHandler)
	id.PUT("/config", s.configUpdateHandler)
}

// -----------------------------------------------------------------------------
// Health handlers
// -----------------------------------------------------------------------------

// HealthResponse for health check endpoints
type HealthResponse struct {
	Status    string          `json:"status"`
	Version   string          `json:"version"`
	Checks    []health.Status `json:"checks,omitempty"`
	Timestamp string          `json:"timestamp"`
}

func (s *Server) healthHandler(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), 5*time.Second)
	defer cancel()

	healthy, statuses := s.healthReg.CheckAll(ctx)

	status := "healthy"
	httpStatus := http.StatusOK
	if !healthy {
		status = "degraded"
		httpStatus = http.StatusServiceUnavailable
	}

	c.JSON(httpStatus, HealthResponse{
		Status:    status,
		Version:   "0.1.0",
		Checks:    statuses,
		Timestamp: time.Now().UTC().Format(time.RFC3339),
	})
}

func (s *Server) livenessHandler(c *gin.Context) {
	if !s.healthy.Load() {
		c.JSON(http.StatusServiceUnavailable, gin.H{"status": "unhealthy"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "alive"})
}

func (s *Server) readinessHandler(c *gin.Context) {
	if !s.ready.Load() {
		c.JSON(http.StatusServiceUnavailable, gin.H{"status": "not_ready"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "ready"})
}

// -----------------------------------------------------------------------------
// Lifecycle
// -----------------------------------------------------------------------------

// Run starts the HTTP server with graceful shutdown
func (s *Server) Run(ctx context.Context) error {
	// Create a cancellable context for background goroutines so Shutdown() can stop them.
	runCtx, cancel := context.WithCancel(ctx)
	s.cancelRunCtx = cancel

	// Tracing (no-op when no endpoint configured)
	stopTracing, err := traces.Init(runCtx, s.cfg.OTLPEndpoint, s.logger)
	if err != nil {
		s.logger.Warn("failed to initialize tracing", "error", err)
	} else {
		s.stopTracing = stopTracing
	}

	s.httpSrv = &http.Server{
		Addr:              ":" + s.cfg.Port,
		Handler:           s.router,
		ReadTimeout:       10 * time.Second,
		ReadHeaderTimeout: 5 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	// Channel to catch server errors
	errChan := make(chan error, 1)

	// Start server in goroutine
	go func() {
		s.logger.Info("starting server",
			"port", s.cfg.Port,
			"env", s.cfg.Env,
		)
		if err := s.httpSrv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errChan <- err
		}
	}()

	// Start expired-challenge sweeper
	go s.sweeper.Start(runCtx)

	// Start runtime metrics collector
	go metrics.StartRuntimeCollector(runCtx, 15*time.Second)

	// Mark as ready after brief delay for startup
	go func() {
		time.Sleep(100 * time.Millisecond)
		s.ready.Store(true)
		s.logger.Info("server ready")
	}()

	// Wait for shutdown signal or error
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	select {
	case err := <-errChan:
		return fmt.Errorf("server error: %w", err)
	case sig := <-sigChan:
		s.logger.Info("shutdown signal received", "signal", sig.String())
	case <-ctx.Done():
		s.logger.Info("context cancelled")
	}

	return s.Shutdown()
}

// Shutdown gracefully stops the server
func (s *Server) Shutdown() error {
	s.ready.Store(false)
	s.logger.Info("starting graceful shutdown")

	// Cancel the context for all background goroutines (sweeper, collectors)
	if s.cancelRunCtx != nil {
		s.cancelRunCtx()
	}

	// Give load balancers time to stop sending traffic
	time.Sleep(5 * time.Second)

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := s.httpSrv.Shutdown(ctx); err != nil {
		s.logger.Error("shutdown error", "error", err)
		return err
	}

	// Stop sweeper
	s.sweeper.Stop()
	s.logger.Info("sweeper stopped")

	// Stop challenge attempt limiter
	s.challenges.Stop()
	s.logger.Info("challenge service stopped")

	// Stop rate limiter cleanup goroutine
	if s.rateLimiter != nil {
		s.rateLimiter.Stop()
		s.logger.Info("rate limiter stopped")
	}

	// Flush traces
	if s.stopTracing != nil {
		if err := s.stopTracing(ctx); err != nil {
			s.logger.Error("trace shutdown error", "error", err)
		}
	}

	s.logger.Info("server stopped")
	return nil
}

// Router returns the gin router for testing
func (s *Server) Router() *gin.Engine {
	return s.router
}
