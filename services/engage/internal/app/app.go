package internal

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"engage-predict/pkg/cache"
	"engage-predict/pkg/config"
	"engage-predict/pkg/database"
	"engage-predict/pkg/event"
	"engage-predict/pkg/identity"
	"engage-predict/pkg/jwks"
	"engage-predict/pkg/jwt"
	"engage-predict/pkg/logger"
	"engage-predict/pkg/metrics"
	"engage-predict/pkg/middleware"
	"engage-predict/pkg/s3"
	"engage-predict/pkg/schema"
	"engage-predict/pkg/telemetry"
	engageHTTP "engage-predict/services/engage/internal/controller/http"
	"engage-predict/services/engage/internal/engine"
	"engage-predict/services/engage/internal/repo/persistent"
	"engage-predict/services/engage/internal/scoring"
	"engage-predict/services/engage/internal/usecase"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"gorm.io/gorm"

	_ "engage-predict/services/engage/docs" // Swagger docs
)

type App struct {
	cfg            *config.Config
	log            *logger.Logger
	db             *gorm.DB
	pool           *pgxpool.Pool
	redisClient    *redis.Client
	s3Client       *s3.Client
	verifier       identity.Verifier
	publisher      event.Publisher
	metrics        *metrics.Metrics
	tracerProvider *sdktrace.TracerProvider
	predictionRepo persistent.PredictionRepository
	httpServer     *http.Server
}

func NewApp(cfg *config.Config) (*App, error) {
	log := logger.NewLevel(cfg.LogLevel)
	m := metrics.NewMetrics()

	a := &App{
		cfg:     cfg,
		log:     log,
		metrics: m,
	}

	if cfg.TracingEnabled {
		tp, err := telemetry.InitTracer("engage-predict")
		if err != nil {
			log.Error("Failed to initialize tracing: %v (continuing without traces)", err)
		} else {
			a.tracerProvider = tp
		}
	}

	repo, err := a.openStore()
	if err != nil {
		log.Error("Failed to open %s store: %v", cfg.StorageDriver, err)
		return nil, err
	}
	a.predictionRepo = persistent.Instrument(repo, m)

	redisClient, err := cache.NewRedisClient(cfg)
	if err != nil {
		log.Error("Failed to connect to redis: %v (history cache and shared rate limits disabled)", err)
		redisClient = nil
	}
	a.redisClient = redisClient

	s3Client, err := s3.NewClient(cfg)
	if err != nil {
		log.Error("Failed to create S3 client: %v (uploaded media will not be stored)", err)
		s3Client = nil
	}
	a.s3Client = s3Client

	if cfg.IdentityJWKSURL != "" {
		a.verifier = jwks.NewClient(cfg.IdentityJWKSURL, cfg.IdentityIssuer, cfg.IdentityAudience)
		log.Info("Verifying tokens against %s", cfg.IdentityJWKSURL)
	} else {
		a.verifier = jwt.NewService(cfg.JWTSecret, cfg.JWTIssuer)
	}

	a.publisher = event.NewPublisher(cfg, log)

	return a, nil
}

func (a *App) openStore() (persistent.PredictionRepository, error) {
	switch a.cfg.StorageDriver {
	case "memory":
		a.log.Warn("Using in-memory prediction store; history is lost on restart")
		return persistent.NewMemoryPredictionRepository(), nil
	case "pgx":
		pool, err := database.NewPgxPool(context.Background(), a.cfg)
		if err != nil {
			return nil, err
		}
		a.pool = pool
		return persistent.NewPgxPredictionRepository(pool), nil
	default:
		db, err := database.NewPostgresDB(a.cfg)
		if err != nil {
			return nil, err
		}
		a.db = db
		return persistent.NewPredictionRepository(db), nil
	}
}

func (a *App) scorers() (scoring.Scorer, *scoring.Local, *schema.Validator) {
	validator := schema.MustNewValidator()
	local := scoring.NewLocal(engine.New(nil))

	if a.cfg.MLServiceURL == "" {
		a.log.Info("ML_SERVICE_URL not set, predictions use the built-in engine")
		return local, local, validator
	}

	remote := scoring.NewRemote(a.cfg.MLServiceURL, a.cfg.MLServiceAPIKey, validator)
	return scoring.NewFallback(remote, local, a.log, a.metrics), local, validator
}

func (a *App) rateLimiter() middleware.Limiter {
	if a.redisClient != nil {
		return middleware.NewRedisLimiter(a.redisClient, a.cfg.RateLimitPerMinute, time.Minute)
	}
	return middleware.NewMemoryLimiter(a.cfg.RateLimitPerMinute, time.Minute)
}

// Router builds the HTTP routes. Exposed for tests.
func (a *App) Router() *gin.Engine {
	scorer, local, validator := a.scorers()

	var mediaStore usecase.MediaStore
	if a.s3Client != nil {
		mediaStore = a.s3Client
	}

	// Initialize use cases
	predictionUseCase := usecase.NewPredictionUseCase(
		a.predictionRepo,
		scorer,
		local,
		mediaStore,
		a.redisClient,
		a.publisher,
		a.metrics,
		a.log,
	)

	// Initialize HTTP handlers
	predictionHandler := engageHTTP.NewPredictionHandler(predictionUseCase, a.verifier, validator, a.log)

	// Setup router
	r := gin.Default()
	r.Use(middleware.RequestID())
	r.Use(middleware.MetricsMiddleware(a.metrics))

	// CORS middleware
	r.Use(cors.New(cors.Config{
		AllowOrigins:     a.cfg.CORSAllowedOrigins,
		AllowMethods:     []string{"GET", "POST", "DELETE", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Authorization", "Accept", middleware.RequestIDHeader},
		ExposeHeaders:    []string{"Content-Length", middleware.RequestIDHeader},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}))

	// Health check
	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	// Swagger documentation
	r.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))

	api := r.Group("/api/v1")
	{
		api.POST("/auth/verify", predictionHandler.Verify)

		// Protected routes
		protected := api.Group("")
		protected.Use(middleware.AuthMiddleware(a.verifier))
		protected.Use(middleware.RateLimitMiddleware(a.rateLimiter(), a.log))
		{
			protected.GET("/auth/me", predictionHandler.Me)
			protected.POST("/predict", predictionHandler.Predict)
			protected.POST("/analyze", predictionHandler.Analyze)
			protected.POST("/analyze-media", predictionHandler.AnalyzeMedia)
			protected.GET("/history", predictionHandler.History)
			protected.DELETE("/history/:id", predictionHandler.DeletePrediction)
		}
	}

	return r
}

func (a *App) Run() error {
	// Create HTTP server
	a.httpServer = &http.Server{
		Addr:              ":" + a.cfg.ServerPort,
		Handler:           a.Router(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	// Start server in a goroutine
	go func() {
		a.log.Info("Engage service starting on port %s", a.cfg.ServerPort)
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
	a.log.Info("Shutting down engage service...")
}

func (a *App) Shutdown() error {
	// The context is used to inform the server it has 5 seconds to finish
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	// Stop accepting requests before closing the stores
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

	if a.db != nil {
		if sqlDB, err := a.db.DB(); err == nil {
			if err := sqlDB.Close(); err != nil {
				a.log.Error("Error closing database: %v", err)
			}
		}
	}

	if a.pool != nil {
		a.pool.Close()
	}

	if a.redisClient != nil {
		if err := a.redisClient.Close(); err != nil {
			a.log.Error("Error closing Redis: %v", err)
		}
	}

	if err := telemetry.Shutdown(ctx, a.tracerProvider); err != nil {
		a.log.Error("Error flushing traces: %v", err)
	}

	a.log.Info("Engage service exited")
	return shutdownErr
}
