package server

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"
	"golang.org/x/time/rate"

	"github.com/creativetrack/core/internal/adapters/history"
	httpHandlers "github.com/creativetrack/core/internal/adapters/http"
	"github.com/creativetrack/core/internal/adapters/repository"
	"github.com/creativetrack/core/internal/adapters/upload"
	"github.com/creativetrack/core/internal/application/services"
	"github.com/creativetrack/core/internal/infrastructure/config"
	"github.com/creativetrack/core/internal/infrastructure/database"
	"github.com/creativetrack/core/internal/infrastructure/logger"
	"github.com/creativetrack/core/internal/ports"
)

// Server represents the HTTP server
type Server struct {
	echo     *echo.Echo
	config   *config.Config
	logger   *logger.Logger
	db       *database.DB
	userRepo ports.UserRepository
}

// CustomValidator wraps the validator
type CustomValidator struct {
	validator *validator.Validate
}

// Validate validates structs
func (cv *CustomValidator) Validate(i interface{}) error {
	return cv.validator.Struct(i)
}

// New creates a new server instance. db may be nil when the memory
// storage driver is selected.
func New(cfg *config.Config, db *database.DB, appLogger *logger.Logger) (*Server, error) {
	e := echo.New()

	// Set custom validator
	e.Validator = &CustomValidator{validator: validator.New()}

	// Configure Echo
	e.HideBanner = true
	e.HidePort = true

	// Custom error handler
	e.HTTPErrorHandler = customErrorHandler(appLogger)

	// Initialize repositories per storage driver
	var (
		userRepo     ports.UserRepository
		campaignRepo ports.CampaignRepository
		taskRepo     ports.TaskRepository
	)
	if cfg.Storage.Driver == config.StorageDriverPostgres {
		if db == nil {
			return nil, fmt.Errorf("postgres storage driver requires a database connection")
		}
		userRepo = repository.NewUserRepository(db.DB)
		campaignRepo = repository.NewCampaignRepository(db.DB)
		taskRepo = repository.NewTaskRepository(db.DB)
	} else {
		store := repository.NewMemoryStore()
		userRepo = store.Users()
		campaignRepo = store.Campaigns()
		taskRepo = store.Tasks()
	}

	// Optional redis-backed timeline cache
	var cache ports.CacheRepository
	if cfg.Redis.Enabled {
		client := redis.NewClient(&redis.Options{
			Addr:     cfg.Redis.GetAddr(),
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
		cache = repository.NewRedisCacheRepository(client)
	}

	// Upload transport
	var transport ports.UploadTransport = unconfiguredTransport{}
	if cfg.Uploads.Enabled {
		minioClient, err := minio.New(cfg.Uploads.Endpoint, &minio.Options{
			Creds:  credentials.NewStaticV4(cfg.Uploads.AccessKey, cfg.Uploads.SecretKey, ""),
			Secure: cfg.Uploads.UseSSL,
		})
		if err != nil {
			return nil, fmt.Errorf("failed to create upload storage client: %w", err)
		}
		transport = upload.NewMinioTransport(minioClient, cfg.Uploads.Bucket, cfg.Uploads.PublicBaseURL)
	}

	// Remote history collaborator
	historyClient := history.NewClient(cfg.History.BaseURL, cfg.History.Secret, cfg.History.Timeout)

	// Initialize services
	authService := services.NewAuthService(userRepo, cfg.JWT, appLogger)
	userService := services.NewUserService(userRepo, appLogger)
	campaignService := services.NewCampaignService(campaignRepo, taskRepo, appLogger)
	taskService := services.NewTaskService(taskRepo, campaignRepo, userRepo, appLogger)
	slotService := services.NewSlotService(taskRepo, userRepo, appLogger)
	historyService := services.NewHistoryService(historyClient, cache, cfg.History.CacheTTL, appLogger)
	progressService := services.NewProgressService(taskRepo, userRepo, appLogger)
	uploadService := services.NewUploadService(transport, taskService, taskRepo, userRepo, campaignRepo, appLogger)

	// Initialize handlers
	authHandler := httpHandlers.NewAuthHandler(authService, appLogger)
	userHandler := httpHandlers.NewUserHandler(userService, appLogger)
	campaignHandler := httpHandlers.NewCampaignHandler(campaignService, appLogger)
	taskHandler := httpHandlers.NewTaskHandler(taskService, historyService, uploadService, appLogger)
	reviewHandler := httpHandlers.NewReviewHandler(slotService, progressService, appLogger)

	server := &Server{
		echo:     e,
		config:   cfg,
		logger:   appLogger,
		db:       db,
		userRepo: userRepo,
	}

	// Setup middleware
	server.setupMiddleware()

	// Setup routes
	server.setupRoutes(authHandler, userHandler, campaignHandler, taskHandler, reviewHandler, authService)

	// Setup metrics
	if cfg.Metrics.Enabled {
		server.setupMetrics()
	}

	return server, nil
}

// setupMiddleware configures middleware
func (s *Server) setupMiddleware() {
	// Recovery middleware
	s.echo.Use(middleware.Recover())

	// Logger middleware
	s.echo.Use(middleware.RequestLoggerWithConfig(middleware.RequestLoggerConfig{
		LogURI:       true,
		LogStatus:    true,
		LogMethod:    true,
		LogLatency:   true,
		LogError:     true,
		LogRemoteIP:  true,
		LogUserAgent: true,
		LogValuesFunc: func(c echo.Context, values middleware.RequestLoggerValues) error {
			fields := []interface{}{
				"method", values.Method,
				"uri", values.URI,
				"status", values.Status,
				"latency_ms", float64(values.Latency.Nanoseconds()) / 1000000,
				"remote_ip", values.RemoteIP,
				"user_agent", values.UserAgent,
			}

			if values.Error != nil {
				fields = append(fields, "error", values.Error.Error())
				s.logger.Errorw("HTTP request failed", fields...)
			} else {
				s.logger.Infow("HTTP request", fields...)
			}

			return nil
		},
	}))

	// CORS middleware
	s.echo.Use(middleware.CORSWithConfig(middleware.CORSConfig{
		AllowOrigins: strings.Split(s.config.Security.CORSAllowedOrigins, ","),
		AllowHeaders: []string{echo.HeaderOrigin, echo.HeaderContentType, echo.HeaderAccept, echo.HeaderAuthorization},
		AllowMethods: []string{echo.GET, echo.HEAD, echo.PUT, echo.PATCH, echo.POST, echo.DELETE},
	}))

	// Rate limiting middleware
	s.echo.Use(middleware.RateLimiterWithConfig(middleware.RateLimiterConfig{
		Store: middleware.NewRateLimiterMemoryStoreWithConfig(
			middleware.RateLimiterMemoryStoreConfig{Rate: rate.Limit(s.config.Security.RateLimitRequests), Burst: s.config.Security.RateLimitRequests, ExpiresIn: s.config.Security.RateLimitWindow},
		),
		IdentifierExtractor: func(ctx echo.Context) (string, error) {
			return ctx.RealIP(), nil
		},
		ErrorHandler: func(c echo.Context, err error) error {
			return c.JSON(http.StatusForbidden, map[string]string{"message": "rate limit exceeded"})
		},
		DenyHandler: func(c echo.Context, identifier string, err error) error {
			return c.JSON(http.StatusTooManyRequests, map[string]string{"message": "rate limit exceeded"})
		},
	}))

	// Security headers
	s.echo.Use(middleware.SecureWithConfig(middleware.SecureConfig{
		XSSProtection:         "1; mode=block",
		ContentTypeNosniff:    "nosniff",
		XFrameOptions:         "DENY",
		HSTSMaxAge:            31536000,
		ContentSecurityPolicy: "default-src 'self'",
	}))

	// Request ID middleware
	s.echo.Use(middleware.RequestID())

	// Timeout middleware
	s.echo.Use(middleware.TimeoutWithConfig(middleware.TimeoutConfig{
		Timeout: 30 * time.Second,
	}))
}

// setupRoutes configures all routes
func (s *Server) setupRoutes(authHandler *httpHandlers.AuthHandler, userHandler *httpHandlers.UserHandler, campaignHandler *httpHandlers.CampaignHandler, taskHandler *httpHandlers.TaskHandler, reviewHandler *httpHandlers.ReviewHandler, authService *services.AuthService) {
	// Health check routes
	s.echo.GET("/health", s.healthCheck)
	s.echo.GET("/health/detailed", s.detailedHealthCheck)
	s.echo.GET("/ready", s.readinessCheck)

	// API v1 routes
	v1 := s.echo.Group("/api/v1")

	// Auth routes (public)
	authGroup := v1.Group("/auth")
	authGroup.POST("/register", authHandler.Register)
	authGroup.POST("/login", authHandler.Login)

	// User routes (authenticated)
	userGroup := v1.Group("/users", s.authMiddleware(authService))
	userGroup.GET("/me", userHandler.GetCurrentUser)
	userGroup.GET("", userHandler.ListUsers, s.requireAdmin())
	userGroup.POST("", userHandler.CreateUser, s.requireAdmin())
	userGroup.GET("/:id", userHandler.GetUser, s.requireAdmin())
	userGroup.PUT("/:id", userHandler.UpdateUser, s.requireAdmin())
	userGroup.DELETE("/:id", userHandler.DeleteUser, s.requireAdmin())

	// Campaign routes (authenticated)
	campaignGroup := v1.Group("/campaigns", s.authMiddleware(authService))
	campaignGroup.GET("", campaignHandler.ListCampaigns)
	campaignGroup.POST("", campaignHandler.CreateCampaign, s.requireAdmin())
	campaignGroup.GET("/:id", campaignHandler.GetCampaign)
	campaignGroup.PUT("/:id", campaignHandler.UpdateCampaign, s.requireAdmin())
	campaignGroup.DELETE("/:id", campaignHandler.DeleteCampaign, s.requireAdmin())
	campaignGroup.GET("/:id/tasks", campaignHandler.GetCampaignTasks)

	// Task routes (authenticated). Role checks that depend on the task's
	// assignee live in the service layer; only the admin-only surface is
	// gated here.
	taskGroup := v1.Group("/tasks", s.authMiddleware(authService))
	taskGroup.GET("", taskHandler.ListTasks)
	taskGroup.POST("", taskHandler.CreateTask, s.requireAdmin())
	taskGroup.GET("/:id", taskHandler.GetTask)
	taskGroup.PUT("/:id", taskHandler.UpdateTask)
	taskGroup.DELETE("/:id", taskHandler.DeleteTask, s.requireAdmin())
	taskGroup.PUT("/:id/status", taskHandler.UpdateTaskStatus)
	taskGroup.POST("/:id/submit", taskHandler.SubmitTask)
	taskGroup.POST("/:id/comments", taskHandler.AddComment)
	taskGroup.POST("/:id/checklist/:itemID/toggle", taskHandler.ToggleChecklistItem)
	taskGroup.GET("/:id/slots", reviewHandler.GetTaskSlots)
	taskGroup.POST("/:id/slots/:index/approve", taskHandler.ApproveSlot, s.requireAdmin())
	taskGroup.POST("/:id/slots/:index/revision", taskHandler.RequestSlotRevision, s.requireAdmin())
	taskGroup.GET("/:id/slots/:index/history", taskHandler.GetSlotHistory)
	taskGroup.POST("/:id/slots/:index/upload", taskHandler.UploadSlotFile)
	taskGroup.DELETE("/:id/slots/:index/upload", taskHandler.CancelSlotUpload)

	// Upload progress (authenticated)
	v1.GET("/uploads/progress", taskHandler.ListUploadProgress, s.authMiddleware(authService))

	// Review queue and reports (authenticated)
	v1.GET("/reviews/queue", reviewHandler.GetReviewQueue, s.authMiddleware(authService))
	v1.GET("/reports/progress", reviewHandler.GetProgressReport, s.authMiddleware(authService))
}

// setupMetrics configures Prometheus metrics
func (s *Server) setupMetrics() {
	registry := prometheus.NewRegistry()

	requestsTotal := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "http_requests_total",
			Help: "Total number of HTTP requests",
		},
		[]string{"method", "path", "status"},
	)

	requestDuration := prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "http_request_duration_seconds",
			Help:    "HTTP request duration in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "path"},
	)

	registry.MustRegister(requestsTotal, requestDuration)

	// Custom metrics middleware
	s.echo.Use(func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			start := time.Now()

			err := next(c)

			duration := time.Since(start)
			status := c.Response().Status

			requestsTotal.WithLabelValues(
				c.Request().Method,
				c.Path(),
				fmt.Sprintf("%d", status),
			).Inc()

			requestDuration.WithLabelValues(
				c.Request().Method,
				c.Path(),
			).Observe(duration.Seconds())

			return err
		}
	})

	// Metrics endpoint
	metricsHandler := promhttp.HandlerFor(registry, promhttp.HandlerOpts{})
	s.echo.GET("/metrics", echo.WrapHandler(metricsHandler))
}

// Health check handlers
func (s *Server) healthCheck(c echo.Context) error {
	return c.JSON(http.StatusOK, map[string]string{
		"status": "ok",
		"time":   time.Now().UTC().Format(time.RFC3339),
	})
}

func (s *Server) detailedHealthCheck(c echo.Context) error {
	status := "ok"
	checks := make(map[string]interface{})

	if s.db != nil {
		if err := s.db.HealthCheck(); err != nil {
			status = "error"
			checks["database"] = map[string]interface{}{
				"status": "error",
				"error":  err.Error(),
			}
		} else {
			checks["database"] = map[string]interface{}{
				"status": "ok",
				"stats":  s.db.GetConnectionInfo(),
			}
		}
	} else {
		checks["storage"] = map[string]interface{}{
			"status": "ok",
			"driver": s.config.Storage.Driver,
		}
	}

	response := map[string]interface{}{
		"status": status,
		"time":   time.Now().UTC().Format(time.RFC3339),
		"checks": checks,
		"version": map[string]string{
			"app": s.config.App.Version,
		},
	}

	if status == "ok" {
		return c.JSON(http.StatusOK, response)
	}
	return c.JSON(http.StatusServiceUnavailable, response)
}

func (s *Server) readinessCheck(c echo.Context) error {
	if s.db != nil {
		if err := s.db.Ping(); err != nil {
			return c.JSON(http.StatusServiceUnavailable, map[string]string{
				"status": "not_ready",
				"reason": "database_not_ready",
			})
		}
	}

	return c.JSON(http.StatusOK, map[string]string{
		"status": "ready",
		"time":   time.Now().UTC().Format(time.RFC3339),
	})
}

// Start starts the HTTP server
func (s *Server) Start(address string) error {
	s.logger.Info("Starting server", "address", address)
	return s.echo.Start(address)
}

// Shutdown gracefully shuts down the server
func (s *Server) Shutdown(ctx context.Context) error {
	s.logger.Info("Shutting down server")
	return s.echo.Shutdown(ctx)
}

// unconfiguredTransport rejects uploads when no storage backend is set
type unconfiguredTransport struct{}

func (unconfiguredTransport) Upload(ctx context.Context, req ports.UploadRequest, progress func(int)) (string, error) {
	return "", fmt.Errorf("upload storage is not configured")
}

// customErrorHandler handles HTTP errors
func customErrorHandler(logger *logger.Logger) echo.HTTPErrorHandler {
	return func(err error, c echo.Context) {
		var (
			code = http.StatusInternalServerError
			msg  interface{}
		)

		if he, ok := err.(*echo.HTTPError); ok {
			code = he.Code
			msg = he.Message
			if he.Internal != nil {
				err = fmt.Errorf("%v, %v", err, he.Internal)
			}
		} else if ve, ok := err.(validator.ValidationErrors); ok {
			code = http.StatusBadRequest
			msg = map[string]string{"message": "validation failed", "details": ve.Error()}
		} else {
			msg = map[string]string{"message": http.StatusText(code)}
		}

		if code == http.StatusInternalServerError {
			logger.Error("Internal server error", "error", err, "path", c.Request().URL.Path)
		}

		// Send response
		if !c.Response().Committed {
			if c.Request().Method == echo.HEAD {
				err = c.NoContent(code)
			} else {
				err = c.JSON(code, msg)
			}
			if err != nil {
				logger.Error("Error sending response", "error", err)
			}
		}
	}
}
