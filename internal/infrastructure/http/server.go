package http

import (
	"context"
	"fmt"
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"go.uber.org/zap"

	handlers "github.com/dashride/referral-service/internal/adapter/handler/http"
	"github.com/dashride/referral-service/internal/config"
	"github.com/dashride/referral-service/internal/infrastructure/database"
	"github.com/dashride/referral-service/internal/middleware/auth"
	"github.com/dashride/referral-service/internal/usecase"
)

type Server struct {
	config  *config.Config
	logger  *zap.Logger
	echo    *echo.Echo
	repos   *database.Repositories
	limiter usecase.VisitRateLimiter
}

func NewServer(cfg *config.Config, logger *zap.Logger, repos *database.Repositories, limiter usecase.VisitRateLimiter) *Server {
	e := echo.New()
	e.HideBanner = true
	e.Validator = handlers.NewRequestValidator()

	// Middleware
	e.Use(middleware.Logger())
	e.Use(middleware.Recover())
	e.Use(middleware.CORSWithConfig(middleware.CORSConfig{
		AllowOrigins:     []string{cfg.Service.ClientURL},
		AllowMethods:     []string{echo.GET, echo.POST, echo.PUT, echo.DELETE},
		AllowCredentials: true,
	}))

	return &Server{
		config:  cfg,
		logger:  logger,
		echo:    e,
		repos:   repos,
		limiter: limiter,
	}
}

func (s *Server) Start() error {
	// Setup routes
	s.setupRoutes()

	addr := fmt.Sprintf("%s:%d", s.config.Server.HTTP.Host, s.config.Server.HTTP.Port)
	s.logger.Info("Starting HTTP server", zap.String("address", addr))

	return s.echo.Start(addr)
}

func (s *Server) Shutdown(ctx context.Context) error {
	return s.echo.Shutdown(ctx)
}

func (s *Server) setupRoutes() {
	// Health check
	s.echo.GET("/health", func(c echo.Context) error {
		return c.JSON(http.StatusOK, map[string]string{
			"status":  "healthy",
			"service": "referral",
		})
	})

	// Initialize usecases
	visitUsecase := usecase.NewVisitUsecase(s.repos.Rider, s.repos.Attribution, s.repos.Visit, s.limiter, s.config.Referral, s.logger)
	confirmationUsecase := usecase.NewConfirmationUsecase(s.repos.Rider, s.repos.Attribution, s.logger)
	changeUsecase := usecase.NewChangeRequestUsecase(s.repos.Rider, s.repos.Attribution, s.repos.ChangeRequest, s.config.Referral, s.logger)
	resolverUsecase := usecase.NewResolverUsecase(s.repos.Rider, s.repos.Attribution, s.logger)

	// Initialize handlers
	visitHandler := handlers.NewVisitHandler(visitUsecase, s.logger)
	referralHandler := handlers.NewReferralHandler(confirmationUsecase, resolverUsecase, s.logger)
	changeHandler := handlers.NewChangeRequestHandler(changeUsecase, s.logger)
	adminHandler := handlers.NewAdminHandler(changeUsecase, s.repos.Visit, s.logger)
	riderHandler := handlers.NewRiderHandler(s.repos.Rider, s.logger)

	jwtConfig := auth.JWTConfig{
		Secret: s.config.JWT.Secret,
		Logger: s.logger,
	}

	// API v1 routes
	v1 := s.echo.Group("/api/v1")

	// Public routes
	v1.GET("/riders/:code", riderHandler.GetByCode)

	// Visit accepts both anonymous and authenticated callers
	v1.GET("/referral/visit/:code", visitHandler.HandleVisit, auth.OptionalJWTMiddleware(jwtConfig))

	// Protected routes (require JWT authentication)
	protected := v1.Group("", auth.JWTMiddleware(jwtConfig))
	protected.POST("/referral/confirm", referralHandler.ConfirmPending)
	protected.GET("/referral/attribution", referralHandler.GetAttribution)
	protected.POST("/referral/change-requests", changeHandler.Create)
	protected.GET("/referral/change-requests/latest", changeHandler.GetLatest)

	// Admin routes
	admin := v1.Group("/admin", auth.JWTMiddleware(jwtConfig))
	admin.GET("/change-requests", adminHandler.ListChangeRequests)
	admin.POST("/change-requests/:id/adjudicate", adminHandler.Adjudicate)
	admin.GET("/visits", adminHandler.ListVisits)
	admin.POST("/riders", riderHandler.Create)

	// Internal routes, consumed by the order service at order creation.
	// Same JWT gate as everything else; the handler additionally demands a
	// service or admin role so customer tokens cannot enumerate attributions.
	internal := v1.Group("/internal", auth.JWTMiddleware(jwtConfig))
	internal.GET("/resolve-rider", referralHandler.ResolveRiderForOrder)
}
