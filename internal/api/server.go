// Package api wires the HTTP surface: routing, middleware, the JSON
// handlers and static dashboard serving.
package api

import (
	"context"
	"fmt"
	"net/http"
	"path/filepath"
	"strings"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	"github.com/ViniDeiro/newalavancagem/internal/auth"
	"github.com/ViniDeiro/newalavancagem/internal/database"
	"github.com/ViniDeiro/newalavancagem/internal/leverage"
)

// ServerConfig holds the HTTP server settings.
type ServerConfig struct {
	Host            string
	Port            int
	AllowedOrigins  []string
	StaticDir       string
	ReadTimeout     time.Duration
	WriteTimeout    time.Duration
	ProductionMode  bool
	ShutdownTimeout time.Duration
}

// Server is the HTTP API server.
type Server struct {
	router     *gin.Engine
	httpServer *http.Server
	config     ServerConfig

	store       database.Store
	authService *auth.Service
	levService  *leverage.Service
	logger      zerolog.Logger
}

// NewServer builds the router with all routes registered.
func NewServer(
	cfg ServerConfig,
	store database.Store,
	authService *auth.Service,
	levService *leverage.Service,
	logger zerolog.Logger,
) *Server {
	if cfg.ProductionMode {
		gin.SetMode(gin.ReleaseMode)
	}

	router := gin.New()
	router.Use(gin.Recovery())

	corsConfig := cors.DefaultConfig()
	if len(cfg.AllowedOrigins) > 0 {
		corsConfig.AllowOrigins = cfg.AllowedOrigins
	} else {
		corsConfig.AllowAllOrigins = true
	}
	corsConfig.AllowMethods = []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"}
	corsConfig.AllowHeaders = []string{"Origin", "Content-Type", "Authorization"}
	router.Use(cors.New(corsConfig))

	s := &Server{
		router:      router,
		config:      cfg,
		store:       store,
		authService: authService,
		levService:  levService,
		logger:      logger.With().Str("component", "api").Logger(),
	}

	s.registerRoutes()
	return s
}

func (s *Server) registerRoutes() {
	s.router.GET("/health", s.handleHealth)

	authHandlers := auth.NewHandlers(s.authService)

	api := s.router.Group("/api")
	{
		api.POST("/register", authHandlers.Register)
		api.POST("/login", authHandlers.Login)
	}

	protected := s.router.Group("/api")
	protected.Use(auth.Middleware(s.authService.GetJWTManager()))
	{
		protected.GET("/verify", authHandlers.Verify)
		protected.GET("/user", s.handleGetUser)

		protected.GET("/leverages", s.handleListLeverages)
		protected.POST("/leverages", s.handleCreateLeverage)
		protected.PUT("/leverages/:id", s.handleUpdateLeverageDay)
		protected.PUT("/leverages/:id/reset", s.handleResetLeverage)
		protected.PATCH("/leverages/:id/complete", s.handleCompleteLeverage)
		protected.DELETE("/leverages/:id", s.handleDeleteLeverage)
	}

	if s.config.StaticDir != "" {
		s.router.StaticFile("/", filepath.Join(s.config.StaticDir, "index.html"))
		s.router.Static("/static", s.config.StaticDir)

		// Unknown API paths get a JSON 404; anything else falls back to
		// the dashboard.
		s.router.NoRoute(func(c *gin.Context) {
			if strings.HasPrefix(c.Request.URL.Path, "/api") {
				c.JSON(http.StatusNotFound, gin.H{"error": "endpoint not found"})
				return
			}
			c.File(filepath.Join(s.config.StaticDir, "index.html"))
		})
	}
}

// Router exposes the gin engine for tests.
func (s *Server) Router() http.Handler {
	return s.router
}

// Start runs the HTTP server until it is shut down.
func (s *Server) Start() error {
	addr := fmt.Sprintf("%s:%d", s.config.Host, s.config.Port)

	s.httpServer = &http.Server{
		Addr:         addr,
		Handler:      s.router,
		ReadTimeout:  s.config.ReadTimeout,
		WriteTimeout: s.config.WriteTimeout,
		IdleTimeout:  60 * time.Second,
	}

	s.logger.Info().Str("addr", addr).Msg("starting HTTP server")

	if err := s.httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return fmt.Errorf("failed to start server: %w", err)
	}
	return nil
}

// Shutdown gracefully stops the server.
func (s *Server) Shutdown(ctx context.Context) error {
	s.logger.Info().Msg("shutting down HTTP server")
	if s.httpServer != nil {
		return s.httpServer.Shutdown(ctx)
	}
	return nil
}

func (s *Server) handleHealth(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), 2*time.Second)
	defer cancel()

	if err := s.store.HealthCheck(ctx); err != nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"status": "unhealthy", "database": "unhealthy"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "healthy", "database": "healthy"})
}
