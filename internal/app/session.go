package app

import (
	"context"
	"fmt"

	"github.com/hibiken/asynq"
	"github.com/redis/go-redis/v9"
	"go.mongodb.org/mongo-driver/mongo"

	"rag-assistant-platform/internal/ai"
	"rag-assistant-platform/internal/config"
	"rag-assistant-platform/internal/logger"
	"rag-assistant-platform/services"
)

// Session holds every shared dependency for one running instance of the
// service. All state lives here; nothing is package-global, so tests can
// build as many independent sessions as they want.
type Session struct {
	Cfg         *config.Config
	Mongo       *mongo.Client
	Redis       *redis.Client
	AsynqClient *asynq.Client

	Embedder  *ai.GeminiEmbedder
	Generator *ai.GeminiGenerator

	Index  *services.VectorIndexManager
	Ingest *services.IngestService
	Chain  *services.RAGChain
}

// NewSession connects to the backing stores and wires the full
// ingestion and retrieval pipeline.
func NewSession(ctx context.Context, cfg *config.Config) (*Session, error) {
	mongoClient, err := config.ConnectMongoDB(cfg)
	if err != nil {
		return nil, fmt.Errorf("mongodb: %w", err)
	}

	redisClient, err := config.NewRedisClient(cfg)
	if err != nil {
		return nil, fmt.Errorf("redis: %w", err)
	}

	asynqClient := asynq.NewClient(asynq.RedisClientOpt{
		Addr:     cfg.RedisURL,
		Password: cfg.RedisPassword,
		DB:       cfg.RedisDB,
	})

	embedder, err := ai.NewGeminiEmbedder(ctx, cfg.GeminiAPIKey, cfg.EmbeddingModel, cfg.EmbedTimeout)
	if err != nil {
		return nil, fmt.Errorf("embedder: %w", err)
	}

	generator, err := ai.NewGeminiGenerator(ctx, cfg.GeminiAPIKey, ai.GeminiOptions{
		Model:       cfg.GenerationModel,
		Temperature: float32(cfg.Temperature),
		Timeout:     cfg.GenerateTimeout,
		RPM:         cfg.GeminiRPM,
	})
	if err != nil {
		return nil, fmt.Errorf("generator: %w", err)
	}

	index := services.NewVectorIndexManager(mongoClient.Database(cfg.DBName), embedder)

	normalizer := services.NewDocumentNormalizer()

	chunker, err := services.NewChunker(cfg.ChunkSize, cfg.ChunkOverlap)
	if err != nil {
		return nil, fmt.Errorf("chunker: %w", err)
	}

	ingest := services.NewIngestService(cfg, normalizer, chunker, index)
	chain := services.NewRAGChain(index, generator, cfg.CollectionName, cfg.TopK)

	logger.Info("session initialized",
		"db", cfg.DBName,
		"collection", cfg.CollectionName,
		"generation_model", cfg.GenerationModel,
		"embedding_model", cfg.EmbeddingModel)

	return &Session{
		Cfg:         cfg,
		Mongo:       mongoClient,
		Redis:       redisClient,
		AsynqClient: asynqClient,
		Embedder:    embedder,
		Generator:   generator,
		Index:       index,
		Ingest:      ingest,
		Chain:       chain,
	}, nil
}

// Close releases every connection the session owns. Safe to call once
// during shutdown.
func (s *Session) Close(ctx context.Context) {
	if s.AsynqClient != nil {
		if err := s.AsynqClient.Close(); err != nil {
			logger.Warn("asynq client close", "error", err)
		}
	}
	if s.Generator != nil {
		if err := s.Generator.Close(); err != nil {
			logger.Warn("generator close", "error", err)
		}
	}
	if s.Embedder != nil {
		if err := s.Embedder.Close(); err != nil {
			logger.Warn("embedder close", "error", err)
		}
	}
	if s.Redis != nil {
		if err := s.Redis.Close(); err != nil {
			logger.Warn("redis close", "error", err)
		}
	}
	if s.Mongo != nil {
		if err := s.Mongo.Disconnect(ctx); err != nil {
			logger.Warn("mongodb disconnect", "error", err)
		}
	}
}
