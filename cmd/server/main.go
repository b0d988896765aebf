package main

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/troikatech/voicehub/internal/api/handlers"
	"github.com/troikatech/voicehub/internal/jobs"
	"github.com/troikatech/voicehub/pkg/env"
	"github.com/troikatech/voicehub/pkg/logger"
	"github.com/troikatech/voicehub/pkg/middleware"
	"github.com/troikatech/voicehub/pkg/mongo"
	"github.com/troikatech/voicehub/pkg/otel"
	"github.com/troikatech/voicehub/pkg/providers"
	"github.com/troikatech/voicehub/pkg/ws"
)

// Server combines the provider API surface, webhook receiver, and the
// background call sync job in one process
type Server struct {
	cfg         *env.Config
	redisClient *redis.Client
	mongoClient *mongo.Client
	hub         *ws.Hub
	handler     *handlers.Handler
}

func main() {
	cfg, err := env.Load(".env")
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	if err := logger.Init(cfg.LogLevel, cfg.AppEnv); err != nil {
		log.Fatalf("Failed to initialize logger: %v", err)
	}
	defer logger.Sync()

	// Initialize OpenTelemetry if enabled
	if cfg.OTELEnabled {
		shutdown, err := otel.InitTracing("voicehub", "1.0.0", cfg.OTELEndpoint)
		if err != nil {
			logger.Log.Warn("Failed to initialize OpenTelemetry", zap.Error(err))
		} else {
			defer shutdown()
			logger.Log.Info("OpenTelemetry tracing enabled", zap.String("endpoint", cfg.OTELEndpoint))
		}
	}

	logger.Log.Info("Starting Voicehub server",
		zap.String("env", cfg.AppEnv),
		zap.String("port", cfg.AppPort),
	)

	// Vendor API timeout applies to every provider client in the process
	if cfg.ProviderTimeoutMs > 0 {
		providers.DefaultTimeout = time.Duration(cfg.ProviderTimeoutMs) * time.Millisecond
	}

	// Initialize Redis
	opt, err := redis.ParseURL(cfg.RedisURL)
	if err != nil {
		logger.Log.Fatal("Failed to parse Redis URL", zap.Error(err))
	}
	redisClient := redis.NewClient(opt)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := redisClient.Ping(ctx).Err(); err != nil {
		logger.Log.Fatal("Failed to connect to Redis", zap.Error(err))
	}

	// Initialize MongoDB
	mongoClient, err := mongo.NewClient(cfg.MongoURI, cfg.DBName)
	if err != nil {
		logger.Log.Fatal("Failed to connect to MongoDB", zap.Error(err))
	}
	defer func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := mongoClient.Disconnect(ctx); err != nil {
			logger.Log.Warn("Failed to disconnect MongoDB", zap.Error(err))
		}
	}()

	hub := ws.NewHub(logger.Log)
	defer hub.Close()

	apiHandler := handlers.NewHandler(cfg, redisClient, mongoClient, hub)

	server := &Server{
		cfg:         cfg,
		redisClient: redisClient,
		mongoClient: mongoClient,
		hub:         hub,
		handler:     apiHandler,
	}

	router := server.setupRouter()

	// Start the background call sync job
	jobCtx, jobCancel := context.WithCancel(context.Background())
	defer jobCancel()

	creds := providers.AgencyCredentials{
		RetellAPIKey:     cfg.RetellAPIKey,
		VapiAPIKey:       cfg.VapiAPIKey,
		ElevenLabsAPIKey: cfg.ElevenLabsAPIKey,
	}
	agencyProviders := providers.GetAgencyProviders(creds)
	logger.Log.Info("Voice providers connected", zap.Int("count", len(agencyProviders)))
	for _, ap := range agencyProviders {
		logger.Log.Info("Provider client initialized",
			zap.String("provider", string(ap.Provider)),
			logger.MaskSecret("api_key", creds.KeyFor(ap.Provider)),
		)
	}

	if cfg.SyncEnabled && len(agencyProviders) > 0 {
		syncJob := jobs.NewCallSyncJob(
			agencyProviders,
			jobs.NewMongoCallStore(mongoClient),
			time.Duration(cfg.SyncIntervalMin)*time.Minute,
			cfg.SyncCallLimit,
		)
		go syncJob.Run(jobCtx)
	} else {
		logger.Log.Info("Call sync job disabled")
	}

	// Start HTTP server
	srv := &http.Server{
		Addr:         ":" + cfg.AppPort,
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		logger.Log.Info("Voicehub server listening", zap.String("addr", srv.Addr))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Log.Fatal("Server failed to start", zap.Error(err))
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Log.Info("Shutting down server...")

	jobCancel()

	ctx, cancel = context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		logger.Log.Fatal("Server forced to shutdown", zap.Error(err))
	}

	logger.Log.Info("Server exited")
}

func (s *Server) setupRouter() *gin.Engine {
	if s.cfg.AppEnv == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(middleware.TraceMiddleware())

	// Add OpenTelemetry middleware if enabled
	if s.cfg.OTELEnabled {
		router.Use(otel.GinMiddleware())
	}

	router.Use(gin.LoggerWithFormatter(func(param gin.LogFormatterParams) string {
		return fmt.Sprintf("[%s] %s %s %d %s\n",
			param.TimeStamp.Format(time.RFC3339),
			param.Method,
			param.Path,
			param.StatusCode,
			param.Latency,
		)
	}))

	// CORS
	corsConfig := cors.DefaultConfig()
	if s.cfg.CORSAllowedOrigins == "*" {
		corsConfig.AllowAllOrigins = true
	} else {
		corsConfig.AllowOrigins = []string{s.cfg.CORSAllowedOrigins}
	}
	corsConfig.AllowCredentials = true
	corsConfig.AllowHeaders = []string{"Origin", "Content-Type", "Authorization", "Idempotency-Key"}
	router.Use(cors.New(corsConfig))

	rateLimiter := middleware.NewRateLimiter(s.redisClient, s.cfg.APIRateLimitRPM)

	// Health check & metrics
	router.GET("/health", s.handler.HealthCheck)
	router.GET("/metrics", s.handler.GetMetrics)

	// API endpoints
	api := router.Group("/api")
	api.Use(middleware.IdempotencyMiddleware(s.redisClient))
	api.Use(rateLimiter.Middleware())
	{
		prov := api.Group("/providers/:provider")
		{
			agents := prov.Group("/agents")
			{
				agents.GET("", s.handler.ListAgents)
				agents.POST("", s.handler.CreateAgent)
				agents.GET("/:agent_id", s.handler.GetAgent)
				agents.PATCH("/:agent_id", s.handler.UpdateAgent)
				agents.DELETE("/:agent_id", s.handler.DeleteAgent)
				agents.POST("/:agent_id/webhook-config", s.handler.EnsureWebhookConfig)
			}

			calls := prov.Group("/calls")
			{
				calls.GET("", s.handler.ListProviderCalls)
				calls.GET("/:call_id", s.handler.GetProviderCall)
			}
		}

		// Local call store, fed by webhooks and the sync job
		api.GET("/calls", s.handler.ListStoredCalls)
		api.GET("/calls/:provider/:external_id", s.handler.GetStoredCall)
	}

	// Webhook endpoint (public, HMAC verified)
	router.POST("/webhooks/:provider", s.handler.ProviderWebhook)

	// Live call events for dashboard clients
	router.GET("/ws/transcripts", s.handler.TranscriptsWebSocket)

	return router
}
