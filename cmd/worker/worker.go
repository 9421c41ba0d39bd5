package main

import (
	"context"
	"log"

	"github.com/hibiken/asynq"

	"rag-assistant-platform/internal/app"
	"rag-assistant-platform/internal/config"
	"rag-assistant-platform/internal/logger"
	"rag-assistant-platform/internal/queue"
)

func main() {
	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatal("Failed to load config:", err)
	}

	logger.InitLogger(cfg)

	ctx := context.Background()
	session, err := app.NewSession(ctx, cfg)
	if err != nil {
		log.Fatal("Failed to initialize session:", err)
	}
	defer session.Close(ctx)

	redisOpt := asynq.RedisClientOpt{
		Addr:     cfg.RedisURL,
		Password: cfg.RedisPassword,
		DB:       cfg.RedisDB,
	}

	server := asynq.NewServer(
		redisOpt,
		asynq.Config{
			Concurrency: 10,
			Queues: map[string]int{
				"critical": 6,
				"default":  3,
				"low":      1,
			},
			StrictPriority: true,
			ErrorHandler: asynq.ErrorHandlerFunc(func(ctx context.Context, task *asynq.Task, err error) {
				logger.Error("task failed", "type", task.Type(), "error", err)
			}),
		},
	)

	processor := queue.NewIngestProcessor(session.Ingest)

	mux := asynq.NewServeMux()
	mux.HandleFunc(queue.TaskIngestDocument, processor.HandleIngest)

	logger.Info("worker starting", "redis", cfg.RedisURL, "concurrency", 10)

	if err := server.Run(mux); err != nil {
		log.Fatal("Failed to start worker:", err)
	}
}
