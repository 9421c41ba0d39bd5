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
	MongoURI       string
	DBName         string
	CollectionName string
	Port           string
	GinMode        string
	CORSOrigins    []string

	// Upload limits
	MaxFileSize         int64 // hard rejection limit
	SyncProcessingLimit int64 // larger files go through the worker queue
	FileStorageDir      string
	FileRetention       time.Duration

	// Chunking
	ChunkSize    int
	ChunkOverlap int

	// Retrieval / generation
	TopK            int
	GeminiAPIKey    string
	GenerationModel string
	EmbeddingModel  string
	Temperature     float64
	EmbedTimeout    time.Duration
	GenerateTimeout time.Duration
	GeminiRPM       int

	// Redis (rate limiting + task queue)
	RedisURL      string
	RedisPassword string
	RedisDB       int

	// Rate limiting
	RateLimitReqs   int
	RateLimitWindow int

	// Telemetry
	OTLPEndpoint     string
	TelemetryEnabled bool

	// Telegram bot front end
	TelegramBotToken string
	BackendURL       string
}

func LoadConfig() (*Config, error) {
	// Load .env file if it exists
	if _, err := os.Stat(".env"); err == nil {
		if err := godotenv.Load(); err != nil {
			return nil, fmt.Errorf("error loading .env file: %v", err)
		}
	}

	cfg := &Config{
		MongoURI:       getEnv("MONGO_URI", "mongodb://localhost:27017/rag_assistant"),
		DBName:         getEnv("DB_NAME", "rag_assistant"),
		CollectionName: getEnv("COLLECTION_NAME", "documents"),
		Port:           getEnv("PORT", "8080"),
		GinMode:        getEnv("GIN_MODE", "debug"),
		CORSOrigins:    strings.Split(getEnv("CORS_ORIGINS", "http://localhost:3000,http://localhost:8080"), ","),

		MaxFileSize:         getEnvInt64("MAX_FILE_SIZE", 31457280), // 30MB
		SyncProcessingLimit: getEnvInt64("SYNC_PROCESSING_LIMIT", 8388608),
		FileStorageDir:      getEnv("FILE_STORAGE_DIR", "./storage/uploads"),
		FileRetention:       getEnvDuration("FILE_RETENTION", 24*time.Hour),

		ChunkSize:    getEnvInt("MAX_CHUNK_SIZE", 1000),
		ChunkOverlap: getEnvInt("CHUNK_OVERLAP", 200),

		TopK:            getEnvInt("TOP_K", 3),
		GeminiAPIKey:    getEnv("GEMINI_API_KEY", ""),
		GenerationModel: getEnv("GENERATION_MODEL", "gemini-2.0-flash"),
		EmbeddingModel:  getEnv("EMBEDDING_MODEL", "text-embedding-004"),
		Temperature:     getEnvFloat64("TEMPERATURE", 0),
		EmbedTimeout:    getEnvDuration("EMBED_TIMEOUT", 30*time.Second),
		GenerateTimeout: getEnvDuration("GENERATE_TIMEOUT", 60*time.Second),
		GeminiRPM:       getEnvInt("GEMINI_RPM", 10),

		RedisURL:      getEnv("REDIS_URL", "localhost:6379"),
		RedisPassword: getEnv("REDIS_PASSWORD", ""),
		RedisDB:       getEnvInt("REDIS_DB", 0),

		RateLimitReqs:   getEnvInt("RATE_LIMIT_REQUESTS", 100),
		RateLimitWindow: getEnvInt("RATE_LIMIT_WINDOW", 60),

		OTLPEndpoint:     getEnv("OTLP_ENDPOINT", "localhost:4317"),
		TelemetryEnabled: getEnvBool("TELEMETRY_ENABLED", false),

		TelegramBotToken: getEnv("TELEGRAM_BOT_TOKEN", ""),
		BackendURL:       getEnv("BACKEND_URL", "http://localhost:8080"),
	}

	// Validate required fields
	if cfg.GeminiAPIKey == "" {
		return nil, fmt.Errorf("GEMINI_API_KEY is required - set it in .env file")
	}

	if cfg.ChunkSize <= 0 || cfg.ChunkOverlap < 0 {
		return nil, fmt.Errorf("MAX_CHUNK_SIZE must be positive and CHUNK_OVERLAP non-negative")
	}

	if cfg.ChunkOverlap >= cfg.ChunkSize {
		return nil, fmt.Errorf("CHUNK_OVERLAP (%d) must be smaller than MAX_CHUNK_SIZE (%d)", cfg.ChunkOverlap, cfg.ChunkSize)
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

func getEnvInt64(key string, defaultValue int64) int64 {
	if value := os.Getenv(key); value != "" {
		if intValue, err := strconv.ParseInt(value, 10, 64); err == nil {
			return intValue
		}
	}
	return defaultValue
}

func getEnvBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if boolValue, err := strconv.ParseBool(value); err == nil {
			return boolValue
		}
	}
	return defaultValue
}

func getEnvFloat64(key string, defaultValue float64) float64 {
	if value := os.Getenv(key); value != "" {
		if floatValue, err := strconv.ParseFloat(value, 64); err == nil {
			return floatValue
		}
	}
	return defaultValue
}

func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if d, err := time.ParseDuration(value); err == nil {
			return d
		}
	}
	return defaultValue
}
