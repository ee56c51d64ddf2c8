// internal/interfaces/http/server.go
package http

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/MuhammadAwais984/storefront/internal/config"
	"github.com/MuhammadAwais984/storefront/internal/domain/cart"
	"github.com/MuhammadAwais984/storefront/internal/domain/order"
	"github.com/MuhammadAwais984/storefront/internal/domain/product"
	"github.com/MuhammadAwais984/storefront/internal/domain/upload"
	"github.com/MuhammadAwais984/storefront/internal/domain/user"
	"github.com/MuhammadAwais984/storefront/internal/interfaces/http/handlers"
	"github.com/MuhammadAwais984/storefront/internal/interfaces/http/middleware"
	"github.com/MuhammadAwais984/storefront/internal/interfaces/http/realtime"
	"github.com/MuhammadAwais984/storefront/internal/interfaces/http/routes"
	"github.com/MuhammadAwais984/storefront/internal/pkg/auth"
	"github.com/MuhammadAwais984/storefront/internal/pkg/email"
	"github.com/MuhammadAwais984/storefront/internal/pkg/pdf"
	"github.com/MuhammadAwais984/storefront/internal/pkg/validation"
	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"
	"gorm.io/gorm"
)

// Server represents the HTTP server
type Server struct {
	config      *config.Config
	gin         *gin.Engine
	httpServer  *http.Server
	db          *gorm.DB
	redisClient *redis.Client
	log         logrus.FieldLogger
	startedAt   time.Time

	hub         *realtime.Hub
	mailer      *email.OrderMailer
	authLimiter *middleware.IPRateLimiter
}

// NewServer wires services, handlers and routes
func NewServer(cfg *config.Config, db *gorm.DB, redisClient *redis.Client, log logrus.FieldLogger) (*Server, error) {
	if cfg.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
	}

	if err := registerValidators(); err != nil {
		return nil, err
	}

	storage, err := upload.NewStorage(cfg)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize media storage: %w", err)
	}
	emailService, err := email.NewEmailService(cfg, log)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize email service: %w", err)
	}

	jwtManager := auth.NewJWTManager(cfg)
	media := upload.NewService(storage, cfg, log)
	userService := user.NewService(db, cfg, log)
	cartService := cart.NewService(db, redisClient, cfg, log)
	orderService := order.NewService(db, log)

	s := &Server{
		config:      cfg,
		db:          db,
		redisClient: redisClient,
		log:         log,
		startedAt:   time.Now(),
		hub:         realtime.NewHub(cfg.Security.CORSAllowedOrigins, log),
		mailer:      email.NewOrderMailer(emailService, log),
		authLimiter: middleware.NewIPRateLimiter(cfg.Security.AuthRateLimitPerMinute, cfg.Security.AuthRateLimitBurst),
	}
	orderService.Subscribe(s.hub)
	orderService.Subscribe(s.mailer)

	s.gin = gin.New()
	if err := s.gin.SetTrustedProxies(cfg.Security.TrustedProxies); err != nil {
		return nil, fmt.Errorf("invalid trusted proxies: %w", err)
	}
	s.setupMiddleware()

	s.gin.GET("/health", s.healthCheck)
	s.gin.GET("/ready", s.readinessCheck)
	if local, ok := storage.(*upload.LocalStorage); ok {
		s.gin.Static("/uploads", local.Root())
	}

	routes.SetupRoutes(s.gin.Group("/api/v1"), &routes.Handlers{
		JWT:         jwtManager,
		AuthLimiter: s.authLimiter,
		Auth:        handlers.NewAuthHandler(userService, cartService, cfg, log),
		Profile:     handlers.NewUserProfileHandler(userService),
		Address:     handlers.NewUserAddressHandler(user.NewAddressService(db)),
		UserAdmin:   handlers.NewUserAdminHandler(user.NewAdminService(db, log)),
		Category:    handlers.NewCategoryHandler(product.NewCategoryService(db, log)),
		Product:     handlers.NewProductHandler(product.NewService(db, media, log)),
		Cart:        handlers.NewCartHandler(cartService, cfg),
		Order:       handlers.NewOrderHandler(orderService, log),
		OrderStream: handlers.NewOrderStreamHandler(s.hub, jwtManager),
		Invoice:     handlers.NewInvoiceHandler(orderService, pdf.NewService(cfg)),
	})

	return s, nil
}

func registerValidators() error {
	v, err := validation.Engine()
	if err != nil {
		return err
	}
	if err := validation.RegisterDefaults(v); err != nil {
		return fmt.Errorf("failed to register validators: %w", err)
	}
	if err := validation.RegisterOneOf(v, "order_status", order.StatusStrings()...); err != nil {
		return fmt.Errorf("failed to register validators: %w", err)
	}
	return nil
}

// Handler exposes the router, mainly for tests
func (s *Server) Handler() http.Handler {
	return s.gin
}

// Start serves HTTP until Stop is called. The auth limiter's eviction loop
// runs until ctx is done.
func (s *Server) Start(ctx context.Context) error {
	go s.authLimiter.Run(ctx)

	s.httpServer = &http.Server{
		Addr:         ":" + s.config.Server.Port,
		Handler:      s.gin,
		ReadTimeout:  s.config.Server.ReadTimeout,
		WriteTimeout: s.config.Server.WriteTimeout,
		IdleTimeout:  s.config.Server.IdleTimeout,
	}

	s.log.WithFields(logrus.Fields{
		"port":     s.config.Server.Port,
		"base_url": fmt.Sprintf("http://localhost:%s/api/v1", s.config.Server.Port),
	}).Info("HTTP server starting")

	if err := s.httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("failed to start HTTP server: %w", err)
	}
	return nil
}

// Stop drains in-flight requests, disconnects websocket clients and waits
// for queued emails
func (s *Server) Stop(ctx context.Context) error {
	s.log.Info("Shutting down HTTP server")

	var err error
	if s.httpServer != nil {
		if shutdownErr := s.httpServer.Shutdown(ctx); shutdownErr != nil {
			err = fmt.Errorf("failed to shutdown HTTP server: %w", shutdownErr)
		}
	}
	s.hub.Close()
	s.mailer.Wait()

	if err == nil {
		s.log.Info("HTTP server stopped gracefully")
	}
	return err
}

func (s *Server) setupMiddleware() {
	s.gin.Use(middleware.Recovery(s.log))
	s.gin.Use(middleware.RequestID())
	s.gin.Use(middleware.Logger(s.log))
	s.gin.Use(middleware.CORS(s.config))
	s.gin.Use(middleware.SecurityHeaders())
	s.gin.Use(middleware.RateLimit(s.config.Security.RateLimitPerMinute, s.redisClient, s.log))
	s.gin.Use(middleware.RequestSizeLimit(s.config.Server.MaxBodyBytes))
	s.gin.Use(middleware.Timeout(s.config.Server.RequestTimeout))
}

// healthCheck pings the database and Redis
func (s *Server) healthCheck(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), 3*time.Second)
	defer cancel()

	sqlDB, err := s.db.DB()
	if err == nil {
		err = sqlDB.PingContext(ctx)
	}
	if err != nil {
		s.log.WithError(err).Warn("database health check failed")
		c.JSON(http.StatusServiceUnavailable, gin.H{
			"status": "unhealthy",
			"error":  "database ping failed",
		})
		return
	}

	if err := s.redisClient.Ping(ctx).Err(); err != nil {
		s.log.WithError(err).Warn("redis health check failed")
		c.JSON(http.StatusServiceUnavailable, gin.H{
			"status": "unhealthy",
			"error":  "redis ping failed",
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"status":      "healthy",
		"timestamp":   time.Now().UTC(),
		"version":     s.config.App.Version,
		"environment": s.config.App.Environment,
	})
}

func (s *Server) readinessCheck(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":    "ready",
		"timestamp": time.Now().UTC(),
		"uptime":    time.Since(s.startedAt).Round(time.Second).String(),
		"clients":   s.hub.ClientCount(),
	})
}
