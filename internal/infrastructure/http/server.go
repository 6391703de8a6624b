package http

import (
	"context"
	"fmt"
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	handlers "github.com/wekeepgrowing/billsync/internal/adapter/handler/http"
	"github.com/wekeepgrowing/billsync/internal/config"
	"github.com/wekeepgrowing/billsync/internal/infrastructure/streaming"
	"github.com/wekeepgrowing/billsync/internal/middleware/auth"
	appLogger "github.com/wekeepgrowing/billsync/pkg/logger"
	"go.uber.org/zap"
)

type Server struct {
	config *config.Config
	logger *zap.Logger
	echo   *echo.Echo
	sync   handlers.SyncRunner
	relay  *streaming.RedisRelay
}

// NewServer creates the HTTP server. relay may be nil.
func NewServer(cfg *config.Config, logger *zap.Logger, sync handlers.SyncRunner, relay *streaming.RedisRelay) *Server {
	e := echo.New()
	e.HideBanner = true
	e.Validator = handlers.NewRequestValidator()
	appLogger.WithEchoLogger(e, logger)

	// Middleware
	e.Use(middleware.RequestID())
	e.Use(appLogger.NewEchoRequestLogger(logger))
	e.Use(middleware.Recover())
	allowOrigins := []string{"*"}
	if cfg.Service.ClientURL != "" {
		allowOrigins = []string{cfg.Service.ClientURL}
	}
	e.Use(middleware.CORSWithConfig(middleware.CORSConfig{
		AllowOrigins: allowOrigins,
		AllowMethods: []string{echo.GET, echo.POST},
	}))

	s := &Server{
		config: cfg,
		logger: logger,
		echo:   e,
		sync:   sync,
		relay:  relay,
	}
	s.setupRoutes()
	return s
}

func (s *Server) Start() error {
	addr := fmt.Sprintf("%s:%d", s.config.Server.HTTP.Host, s.config.Server.HTTP.Port)
	s.logger.Info("Starting HTTP server", zap.String("address", addr))

	if err := s.echo.Start(addr); err != nil && err != http.ErrServerClosed {
		return err
	}
	return nil
}

func (s *Server) Shutdown(ctx context.Context) error {
	return s.echo.Shutdown(ctx)
}

// Handler exposes the router, mainly for tests.
func (s *Server) Handler() http.Handler {
	return s.echo
}

func (s *Server) setupRoutes() {
	// Health check
	s.echo.GET("/health", func(c echo.Context) error {
		return c.JSON(http.StatusOK, map[string]string{
			"status":  "healthy",
			"service": s.config.Service.Name,
		})
	})

	syncHandler := handlers.NewSyncHandler(s.sync, s.relay, s.logger)

	jwtConfig := auth.JWTConfig{
		Secret:    s.config.JWT.Secret,
		Logger:    s.logger,
		SkipPaths: []string{"/health"},
	}

	// Protected routes (require JWT authentication)
	v1 := s.echo.Group("/api/v1", auth.JWTMiddleware(jwtConfig))

	sync := v1.Group("/sync")
	sync.POST("/discover", syncHandler.Discover)
	sync.POST("/cancel", syncHandler.Cancel)
	sync.POST("/commit", syncHandler.Commit)
	sync.GET("/:sync_id/events", syncHandler.Watch)
}
