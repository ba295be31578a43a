package main

import (
	"context"
	"log"

	"github.com/hibiken/asynq"

	"edu-chatbot-backend/internal/ai"
	"edu-chatbot-backend/internal/config"
	"edu-chatbot-backend/internal/database"
	"edu-chatbot-backend/internal/logger"
	"edu-chatbot-backend/internal/queue"
	"edu-chatbot-backend/internal/telemetry"
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
	shutdownTracer, err := telemetry.InitTracer("edu-chatbot-worker", cfg.OTLPEndpoint)
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
	defer mongoClient.Disconnect(context.Background())
	db := mongoClient.Database(cfg.DBName)

	// Redis client for ingestion leases
	rdb, err := config.NewRedisClient(cfg)
	if err != nil {
		log.Fatal("Failed to connect to Redis:", err)
	}
	defer rdb.Close()

	// Gemini embedder for document vectors
	embedder, err := ai.NewGeminiEmbedder(context.Background(), cfg)
	if err != nil {
		log.Fatal("Failed to initialize embedder:", err)
	}
	defer embedder.Close()

	pipeline := services.NewIngestionPipeline(
		database.NewDocumentStore(db),
		database.NewChunkStore(db),
		services.NewPDFExtractor(cfg.FetchTimeout),
		embedder,
		services.NewChunker(cfg.MaxChunkSize, cfg.ChunkOverlap),
		queue.NewRedisLease(rdb, 0),
		metrics,
	)
	processor := queue.NewTaskProcessor(pipeline)

	// Redis options for Asynq
	redisOpt := asynq.RedisClientOpt{
		Addr:     cfg.RedisURL,
		Password: cfg.RedisPassword,
		DB:       cfg.RedisDB,
	}

	// Create Asynq server
	server := asynq.NewServer(
		redisOpt,
		asynq.Config{
			Concurrency: cfg.WorkerConcurrency,
			Queues: map[string]int{
				"critical": 6,
				"default":  3,
				"low":      1,
			},
			StrictPriority: true,
			ErrorHandler:   asynq.ErrorHandlerFunc(processor.HandleError),
		},
	)

	// Create mux and register handlers
	mux := asynq.NewServeMux()
	mux.HandleFunc(queue.TaskIngestDocument, processor.HandleIngest)

	logger.Info("Starting ingestion worker",
		"concurrency", cfg.WorkerConcurrency,
		"redis", redisOpt.Addr,
	)

	// Start the server
	if err := server.Run(mux); err != nil {
		log.Fatal("Failed to start worker:", err)
	}
}
