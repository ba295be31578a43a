package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	MongoURI    string
	DBName      string
	Port        string
	GinMode     string
	CORSOrigins []string

	// Redis (asynq backing store + ingestion leases)
	RedisURL      string
	RedisPassword string
	RedisDB       int

	// Embeddings: one pinned provider per deployment. Ingestion and
	// query embedding must share the same model or similarity scores
	// are silently meaningless.
	GeminiAPIKey    string
	EmbeddingsModel string
	VectorDim       int

	// Generation providers
	GeminiModel     string
	OpenAIAPIKey    string
	OpenAIModel     string
	DeepSeekAPIKey  string
	DeepSeekModel   string
	DeepSeekBaseURL string

	// Pipeline tuning
	MaxChunkSize      int
	ChunkOverlap      int
	ChatHistoryLimit  int
	RetrievalTopK     int
	ProviderTimeout   time.Duration
	FetchTimeout      time.Duration
	WorkerConcurrency int

	// Telemetry
	OTLPEndpoint string
}

func LoadConfig() (*Config, error) {
	// Load .env file if exists
	if _, err := os.Stat(".env"); err == nil {
		if err := godotenv.Load(); err != nil {
			return nil, fmt.Errorf("error loading .env file: %v", err)
		}
	}

	cfg := &Config{
		MongoURI:    getEnv("MONGO_URI", "mongodb://localhost:27017/edu_chatbot"),
		DBName:      getEnv("DB_NAME", "edu_chatbot"),
		Port:        getEnv("PORT", "8080"),
		GinMode:     getEnv("GIN_MODE", "debug"),
		CORSOrigins: strings.Split(getEnv("CORS_ORIGINS", "http://localhost:3000,http://localhost:8080"), ","),

		RedisURL:      getEnv("REDIS_URL", "localhost:6379"),
		RedisPassword: getEnv("REDIS_PASSWORD", ""),
		RedisDB:       getEnvInt("REDIS_DB", 0),

		GeminiAPIKey:    getEnv("GEMINI_API_KEY", ""),
		EmbeddingsModel: getEnv("EMBEDDING_MODEL_NAME", "text-embedding-004"),
		VectorDim:       getEnvInt("VECTOR_DIM", 768),

		GeminiModel:     getEnv("GEMINI_MODEL_NAME", "gemini-2.5-flash"),
		OpenAIAPIKey:    getEnv("OPENAI_API_KEY", ""),
		OpenAIModel:     getEnv("OPENAI_MODEL_NAME", "gpt-4o-mini"),
		DeepSeekAPIKey:  getEnv("DEEPSEEK_API_KEY", ""),
		DeepSeekModel:   getEnv("DEEPSEEK_MODEL_NAME", "deepseek-chat"),
		DeepSeekBaseURL: getEnv("DEEPSEEK_BASE_URL", "https://api.deepseek.com/v1"),

		MaxChunkSize:      getEnvInt("TEXT_CHUNK_SIZE", 1000),
		ChunkOverlap:      getEnvInt("TEXT_CHUNK_OVERLAP", 200),
		ChatHistoryLimit:  getEnvInt("CHAT_HISTORY_LIMIT", 10),
		RetrievalTopK:     getEnvInt("RETRIEVAL_TOP_K", 5),
		ProviderTimeout:   time.Duration(getEnvInt("PROVIDER_TIMEOUT_SECONDS", 60)) * time.Second,
		FetchTimeout:      time.Duration(getEnvInt("FETCH_TIMEOUT_SECONDS", 30)) * time.Second,
		WorkerConcurrency: getEnvInt("WORKER_CONCURRENCY", 10),

		OTLPEndpoint: getEnv("OTLP_ENDPOINT", "localhost:4317"),
	}

	if cfg.GeminiAPIKey == "" {
		return nil, fmt.Errorf("GEMINI_API_KEY is required - set it in .env file")
	}
	if cfg.ChunkOverlap >= cfg.MaxChunkSize {
		return nil, fmt.Errorf("TEXT_CHUNK_OVERLAP (%d) must be smaller than TEXT_CHUNK_SIZE (%d)",
			cfg.ChunkOverlap, cfg.MaxChunkSize)
	}

	return cfg, nil
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intValue, err := strconv.Atoi(value); err == nil {
			return intValue
		}
	}
	return defaultValue
}
