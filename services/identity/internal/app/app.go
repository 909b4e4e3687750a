package internal

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"engage-predict/pkg/config"
	"engage-predict/pkg/database"
	"engage-predict/pkg/event"
	"engage-predict/pkg/jwt"
	"engage-predict/pkg/logger"
	"engage-predict/pkg/metrics"
	"engage-predict/pkg/middleware"
	authHTTP "engage-predict/services/identity/internal/controller/http"
	"engage-predict/services/identity/internal/repo/persistent"
	"engage-predict/services/identity/internal/usecase"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
	"gorm.io/gorm"

	_ "engage-predict/services/identity/docs" // Swagger docs
)

type App struct {
	cfg        *config.Config
	log        *logger.Logger
	db         *gorm.DB
	jwtService *jwt.Service
	publisher  event.Publisher
	metrics    *metrics.Metrics
	userRepo   persistent.UserRepository
	httpServer *http.Server
}

func NewApp(cfg *config.Config) (*App, error) {
	log := logger.NewLevel(cfg.LogLevel)

	a := &App{
		cfg:        cfg,
		log:        log,
		jwtService: jwt.NewService(cfg.JWTSecret, cfg.JWTIssuer),
		metrics:    metrics.NewMetrics(),
	}

	// The pgx driver only covers predictions; users always go through gorm.
	if cfg.StorageDriver == "memory" {
		log.Warn("Using in-memory user store; accounts are lost on restart")
		a.userRepo = persistent.NewMemoryUserRepository()
	} else {
		db, err := database.NewPostgresDB(cfg)
		if err != nil {
			log.Error("Failed to connect to database: %v", err)
			return nil, err
		}
		a.db = db
		a.userRepo = persistent.NewUserRepository(db)
	}

	a.publisher = event.NewPublisher(cfg, log)

	return a, nil
}

// Router builds the HTTP routes. Exposed for tests.
func (a *App) Router() *gin.Engine {
	// Initialize use cases
	authUseCase := usecase.NewAuthUseCase(
		a.userRepo,
		a.jwtService,
		a.publisher,
		a.log,
	)

	// Initialize HTTP handlers
	authHandler := authHTTP.NewAuthHandler(authUseCase)

	// Setup router
	r := gin.Default()
	r.Use(middleware.RequestID())
	r.Use(middleware.MetricsMiddleware(a.metrics))

	// CORS middleware
	r.Use(cors.New(cors.Config{
		AllowOrigins:     a.cfg.CORSAllowedOrigins,
		AllowMethods:     []string{"GET", "POST", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Authorization"},
		ExposeHeaders:    []string{"Content-Length"},
		AllowCredentials: true,
	}))

	// Health check
	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	// Swagger documentation
	r.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))

	api := r.Group("/api/v1")
	{
		api.POST("/register", authHandler.Register)
		api.POST("/login", authHandler.Login)

		// Protected routes
		protected := api.Group("")
		protected.Use(middleware.AuthMiddleware(a.jwtService))
		{
			protected.GET("/me", authHandler.Me)
		}
	}

	return r
}

func (a *App) Run() error {
	// Create HTTP server
	a.httpServer = &http.Server{
		Addr:              ":" + a.cfg.IdentityServerPort,
		Handler:           a.Router(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	// Start server in a goroutine
	go func() {
		a.log.Info("Identity service starting on port %s", a.cfg.IdentityServerPort)
		if err := a.httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			a.log.Error("Failed to start server: %v", err)
			panic(err)
		}
	}()

	return nil
}

func (a *App) Wait() {
	// Wait for interrupt signal to gracefully shutdown the server
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	a.log.Info("Shutting down identity service...")
}

func (a *App) Shutdown() error {
	// The context is used to inform the server it has 5 seconds to finish
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	var shutdownErr error
	if a.httpServer != nil {
		if err := a.httpServer.Shutdown(ctx); err != nil {
			a.log.Error("Server forced to shutdown: %v", err)
			shutdownErr = err
		}
	}

	if a.publisher != nil {
		if err := a.publisher.Close(); err != nil {
			a.log.Error("Error closing event publisher: %v", err)
		}
	}

	// Close database connection
	if a.db != nil {
		if sqlDB, err := a.db.DB(); err == nil {
			if err := sqlDB.Close(); err != nil {
				a.log.Error("Error closing database: %v", err)
			}
		}
	}

	a.log.Info("Identity service exited")
	return shutdownErr
}
