package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/hibiken/asynq"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"

	"edu-chatbot-backend/internal/ai"
	"edu-chatbot-backend/internal/config"
	"edu-chatbot-backend/internal/database"
	"edu-chatbot-backend/internal/logger"
	"edu-chatbot-backend/internal/queue"
	"edu-chatbot-backend/internal/telemetry"
	"edu-chatbot-backend/routes"
	"edu-chatbot-backend/services"
)

func main() {
	// Load configuration
	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatal("Failed to load config:", err)
	}

	// Initialize structured logging
	logger.InitLogger(cfg)

	// Initialize tracing and metrics
	shutdownTracer, err := telemetry.InitTracer("edu-chatbot-api", cfg.OTLPEndpoint)
	if err != nil {
		logger.Warn("Tracing disabled", "error", err)
	} else {
		defer shutdownTracer()
	}
	metrics, err := telemetry.InitMetrics()
	if err != nil {
		logger.Warn("Metrics disabled", "error", err)
	}

	// Connect to MongoDB
	mongoClient, err := config.ConnectMongoDB(cfg)
	if err != nil {
		log.Fatal("Failed to connect to MongoDB:", err)
	}
	defer func() {
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		mongoClient.Disconnect(ctx)
	}()
	db := mongoClient.Database(cfg.DBName)

	docStore := database.NewDocumentStore(db)
	chunkStore := database.NewChunkStore(db)
	messageStore := database.NewMessageStore(db)

	// Embedding and generation providers. Gemini is mandatory; OpenAI
	// and DeepSeek join the router only when their keys are configured.
	ctx := context.Background()
	embedder, err := ai.NewGeminiEmbedder(ctx, cfg)
	if err != nil {
		log.Fatal("Failed to initialize embedder:", err)
	}
	defer embedder.Close()

	gemini, err := ai.NewGeminiProvider(ctx, cfg)
	if err != nil {
		log.Fatal("Failed to initialize Gemini provider:", err)
	}
	defer gemini.Close()

	providers := []ai.Provider{gemini}
	if openaiProvider, err := ai.NewOpenAIProvider(cfg); err != nil {
		logger.Warn("OpenAI provider disabled", "error", err)
	} else {
		providers = append(providers, openaiProvider)
	}
	if deepseek, err := ai.NewDeepSeekProvider(cfg); err != nil {
		logger.Warn("DeepSeek provider disabled", "error", err)
	} else {
		providers = append(providers, deepseek)
	}

	retrieval := services.NewRetrievalEngine(docStore, chunkStore, embedder, cfg.RetrievalTopK)
	router := services.NewRouter(cfg.ProviderTimeout, metrics, providers...)
	chat := services.NewChatService(retrieval, router, messageStore, cfg.ChatHistoryLimit, metrics)

	// Asynq client for enqueueing ingestion jobs
	queueClient := asynq.NewClient(asynq.RedisClientOpt{
		Addr:     cfg.RedisURL,
		Password: cfg.RedisPassword,
		DB:       cfg.RedisDB,
	})
	defer queueClient.Close()

	// Redis client for the ingestion lease; document deletion contends
	// on the same lease the worker holds
	rdb, err := config.NewRedisClient(cfg)
	if err != nil {
		log.Fatal("Failed to connect to Redis:", err)
	}
	defer rdb.Close()
	lease := queue.NewRedisLease(rdb, 0)

	// Initialize Gin router
	if cfg.GinMode == "release" {
		gin.SetMode(gin.ReleaseMode)
	}

	engine := gin.New()
	engine.Use(gin.Logger())
	engine.Use(gin.Recovery())
	engine.Use(otelgin.Middleware("edu-chatbot-api"))

	// CORS configuration
	corsConfig := cors.DefaultConfig()
	corsConfig.AllowOrigins = cfg.CORSOrigins
	corsConfig.AllowMethods = []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"}
	corsConfig.AllowHeaders = []string{"Origin", "Content-Type", "Accept", "Authorization", "X-Requested-With"}
	corsConfig.AllowCredentials = true
	engine.Use(cors.New(corsConfig))

	// Health check endpoint
	engine.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "healthy", "timestamp": time.Now()})
	})

	chatHandler := routes.NewChatHandler(chat)
	adminHandler := routes.NewAdminHandler(docStore, chunkStore, queue.NewIngestQueue(queueClient), lease)
	categoriesHandler := routes.NewCategoriesHandler(docStore)

	api := engine.Group("/api")
	{
		api.POST("/chat", chatHandler.HandleChat)
		api.POST("/clear_session", chatHandler.HandleClearSession)
		api.GET("/categories", categoriesHandler.HandleCategories)

		admin := api.Group("/admin")
		{
			admin.POST("/documents", adminHandler.HandleCreate)
			admin.GET("/documents", adminHandler.HandleList)
			admin.GET("/documents/:id", adminHandler.HandleGet)
			admin.PUT("/documents/:id", adminHandler.HandleUpdate)
			admin.DELETE("/documents/:id", adminHandler.HandleDelete)
		}
	}

	// Create HTTP server
	srv := &http.Server{
		Addr:    ":" + cfg.Port,
		Handler: engine,
	}

	// Start server in a goroutine
	go func() {
		logger.Info("Server starting", "port", cfg.Port)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("Failed to start server: %v", err)
		}
	}()

	// Wait for interrupt signal to gracefully shutdown the server
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	logger.Info("Shutting down server...")

	// Graceful shutdown with timeout
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Fatal("Server forced to shutdown:", err)
	}

	logger.Info("Server exited")
}
