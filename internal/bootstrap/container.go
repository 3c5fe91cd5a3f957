package bootstrap

import (
	"log"
	"time"

	"ai-debate-be/internal/config"
	"ai-debate-be/internal/controller"
	"ai-debate-be/internal/pkg/logger"
	"ai-debate-be/internal/service"
	"ai-debate-be/pkg/embedding"
	"ai-debate-be/pkg/events"
	"ai-debate-be/pkg/llm/factory"
	"ai-debate-be/pkg/rag"
	"ai-debate-be/pkg/rag/adaptive"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/ThreeDotsLabs/watermill/pubsub/gochannel"
)

type Container struct {
	// Controllers
	DebateDocController controller.IDebateDocController

	// Background Services (Exposed for main.go to run)
	ConsumerService service.IConsumerService

	// Exposed for graceful shutdown
	Registry    *rag.Registry
	StopSweeper func()
	Logger      logger.ILogger
}

func NewContainer(cfg *config.Config) *Container {
	// 1. Core Facades
	sysLogger := logger.NewZapLogger(cfg.App.LogFilePath, cfg.App.Environment == "production")

	// 2. Event Bus
	watermillLogger := watermill.NewStdLogger(false, false)
	pubSub := gochannel.NewGoChannel(
		gochannel.Config{},
		watermillLogger,
	)
	publisher := events.NewPublisher(pubSub)

	// 3. Providers
	var embeddingProvider embedding.Provider
	if cfg.Ai.EmbeddingProvider == "gemini" {
		embeddingProvider = embedding.NewGeminiProvider(cfg.Keys.GoogleGemini)
		log.Printf("[INFO] Using Embedding Provider: GEMINI")
	} else {
		embeddingProvider = embedding.NewOllamaProvider(
			cfg.Ai.OllamaBaseURL,
			cfg.Ai.OllamaModel,
		)
		log.Printf("[INFO] Using Embedding Provider: OLLAMA (%s)", cfg.Ai.OllamaModel)
	}

	llmProvider, err := factory.NewLLMProvider(
		cfg.Ai.LLMProvider,
		cfg.Ai.LLMModel,
		cfg.Ai.OllamaBaseURL,
		cfg.Keys.GoogleGemini,
	)
	if err != nil {
		log.Fatalf("[FATAL] Failed to initialize LLM Provider: %v", err)
	}
	log.Printf("[INFO] Using LLM Provider: %s (%s)", cfg.Ai.LLMProvider, cfg.Ai.LLMModel)

	// 4. Session Registry + Sweeper
	registry := rag.NewRegistry(embeddingProvider, rag.Config{
		ChunkSize:    cfg.Rag.ChunkSize,
		ChunkOverlap: cfg.Rag.ChunkOverlap,
		EmbeddingDim: cfg.Rag.EmbeddingDim,
	}, sysLogger)

	registry.OnEvict(func(sessionId string) {
		evt := events.BaseEvent{
			Type: events.TypeSessionEvicted,
			Data: map[string]interface{}{
				"session_id": sessionId,
			},
			OccurredAt: time.Now(),
		}
		if err := publisher.Publish(evt); err != nil {
			sysLogger.Error("BOOTSTRAP", "Failed to publish eviction event", map[string]interface{}{
				"session_id": sessionId,
				"error":      err.Error(),
			})
		}
	})

	stopSweeper := registry.StartSweeper(
		time.Duration(cfg.Rag.SessionTTLSecs)*time.Second,
		time.Duration(cfg.Rag.SweepIntervalSecs)*time.Second,
	)

	// 5. Adaptive Engine
	adaptiveEngine := adaptive.NewEngine(
		llmProvider,
		time.Duration(cfg.Rag.DecisionCacheTTLMins)*time.Minute,
		sysLogger,
	)

	// 6. Services
	retrievalService := service.NewRetrievalService(
		registry,
		adaptiveEngine,
		publisher,
		sysLogger,
		cfg.Rag.DefaultTopK,
	)
	consumerService := service.NewConsumerService(pubSub, sysLogger)

	// 7. Controllers
	return &Container{
		DebateDocController: controller.NewDebateDocController(retrievalService),

		ConsumerService: consumerService,

		Registry:    registry,
		StopSweeper: stopSweeper,
		Logger:      sysLogger,
	}
}
