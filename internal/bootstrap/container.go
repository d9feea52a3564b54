package bootstrap

import (
	"context"
	"log"
	"time"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/ThreeDotsLabs/watermill/pubsub/gochannel"
	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"

	"github.com/QRui6/urban-inspection-rag/internal/config"
	"github.com/QRui6/urban-inspection-rag/internal/controller"
	"github.com/QRui6/urban-inspection-rag/internal/pkg/logger"
	"github.com/QRui6/urban-inspection-rag/internal/pkg/mailer"
	"github.com/QRui6/urban-inspection-rag/internal/repository/bolt"
	"github.com/QRui6/urban-inspection-rag/internal/repository/contract"
	"github.com/QRui6/urban-inspection-rag/internal/repository/implementation"
	"github.com/QRui6/urban-inspection-rag/internal/repository/memory"
	"github.com/QRui6/urban-inspection-rag/internal/service"
	"github.com/QRui6/urban-inspection-rag/internal/websocket"
	"github.com/QRui6/urban-inspection-rag/pkg/embedding"
	"github.com/QRui6/urban-inspection-rag/pkg/embedding/jina"
	"github.com/QRui6/urban-inspection-rag/pkg/jobs"
	"github.com/QRui6/urban-inspection-rag/pkg/llm/factory"
	"github.com/QRui6/urban-inspection-rag/pkg/rag/fusion"
	"github.com/QRui6/urban-inspection-rag/pkg/rag/rerank"
	"github.com/QRui6/urban-inspection-rag/pkg/rag/retrieval"
	"github.com/QRui6/urban-inspection-rag/pkg/scorer"
	"github.com/QRui6/urban-inspection-rag/pkg/vision"

	pktNats "github.com/QRui6/urban-inspection-rag/pkg/nats"
)

type Container struct {
	// Controllers
	InspectionController controller.IInspectionController

	// Background services (exposed for main.go to run)
	IndexerService service.IIndexerService

	// JobWorker consumes the task queues; set only in queued mode.
	JobWorker *jobs.Worker

	PublisherService service.IPublisherService
	WebSocketHub     *websocket.Hub
	Logger           logger.ILogger
}

func NewContainer(db *gorm.DB, cfg *config.Config) *Container {
	// 1. Core facades
	sysLogger := logger.NewZapLogger(cfg.App.LogFilePath, cfg.App.Environment == "production")
	pipelineLogger := log.Default()

	// 2. Event bus
	watermillLogger := watermill.NewStdLogger(false, false)
	pubSub := gochannel.NewGoChannel(
		gochannel.Config{},
		watermillLogger,
	)

	// 3. Vector index
	var chunkRepo contract.ManualChunkRepository
	if cfg.Database.VectorBackend == "bolt" {
		var err error
		chunkRepo, err = bolt.NewManualChunkRepository(cfg.Database.BoltPath)
		if err != nil {
			log.Fatalf("[FATAL] Failed to open bolt index: %v", err)
		}
		log.Printf("[INFO] Using vector backend: BOLT (%s)", cfg.Database.BoltPath)
	} else {
		chunkRepo = implementation.NewManualChunkRepository(db)
		log.Printf("[INFO] Using vector backend: PGVECTOR")
	}

	// 4. AI providers
	var embeddingProvider embedding.Provider
	switch cfg.Ai.EmbeddingProvider {
	case "ollama":
		embeddingProvider = embedding.NewOllamaProvider(
			cfg.Ai.OllamaBaseURL,
			cfg.Ai.OllamaEmbeddingModel,
		)
		log.Printf("[INFO] Using embedding provider: OLLAMA (%s)", cfg.Ai.OllamaEmbeddingModel)
	case "jina":
		embeddingProvider = jina.NewJinaProvider(cfg.Ai.JinaAPIKey)
		log.Printf("[INFO] Using embedding provider: JINA AI")
	default:
		embeddingProvider = embedding.NewArkProvider(
			cfg.Ai.ArkBaseURL,
			cfg.Ai.ArkAPIKey,
			cfg.Ai.EmbeddingModel,
		)
		log.Printf("[INFO] Using embedding provider: ARK (%s)", cfg.Ai.EmbeddingModel)
	}

	llmProvider, err := factory.NewLLMProvider(
		cfg.Ai.LLMProvider,
		cfg.Ai.LLMModel,
		cfg.Ai.LLMBaseURL,
		cfg.Ai.LLMAPIKey,
	)
	if err != nil {
		log.Fatalf("[FATAL] Failed to initialize LLM provider: %v", err)
	}
	log.Printf("[INFO] Using LLM provider: %s (%s)", cfg.Ai.LLMProvider, cfg.Ai.LLMModel)

	var fallbacks []vision.Model
	if cfg.Ai.VisionFallbackModel != "" {
		fallbacks = append(fallbacks, vision.Model{
			Name:     cfg.Ai.VisionFallbackModel,
			Provider: vision.NewOpenAIProvider(cfg.Ai.VisionAPIKey, cfg.Ai.VisionBaseURL, cfg.Ai.VisionFallbackModel),
		})
	}
	visionAnalyzer := vision.NewAnalyzer(
		vision.Model{
			Name:     cfg.Ai.VisionModel,
			Provider: vision.NewOpenAIProvider(cfg.Ai.VisionAPIKey, cfg.Ai.VisionBaseURL, cfg.Ai.VisionModel),
		},
		fallbacks,
		pipelineLogger,
	)

	relevanceScorer := scorer.NewHTTPScorer(cfg.Ai.RerankerBaseURL, cfg.Ai.RerankerAPIKey)

	// 5. Retrieval pipeline
	retriever := retrieval.NewRetriever(
		service.NewChunkIndex(chunkRepo),
		retrieval.Config{
			TopK:              cfg.Retrieval.TopK,
			MinIndicatorRatio: cfg.Retrieval.MinIndicatorRatio,
		},
		pipelineLogger,
	)
	reranker := rerank.NewReranker(
		relevanceScorer,
		rerank.Config{TopK: cfg.Retrieval.RerankTopK},
		pipelineLogger,
	)
	fusionCfg := fusion.Config{
		TextWeight:  cfg.Retrieval.TextWeight,
		ImageWeight: cfg.Retrieval.ImageWeight,
		TopK:        cfg.Retrieval.TopK,
	}

	sessionRepo := memory.NewSessionRepository(time.Duration(cfg.Retrieval.SessionTTLMinutes) * time.Minute)

	// 6. Infrastructure
	natsPub, err := pktNats.NewPublisher(cfg.App.NatsURL)
	if err != nil {
		log.Printf("[WARN] Failed to connect to NATS publisher: %v", err)
		natsPub = nil
	}
	natsSub, err := pktNats.NewSubscriber(cfg.App.NatsURL)
	if err != nil {
		log.Printf("[WARN] Failed to connect to NATS subscriber: %v", err)
		natsSub = nil
	}

	opt, err := redis.ParseURL(cfg.App.RedisURL)
	if err != nil {
		log.Printf("[WARN] Failed to parse Redis URL: %v. Using direct Addr", err)
		opt = &redis.Options{
			Addr: cfg.App.RedisURL,
		}
	}
	rdb := redis.NewClient(opt)
	redisUp := true
	if _, err := rdb.Ping(context.Background()).Result(); err != nil {
		log.Printf("[WARN] Failed to connect to Redis: %v", err)
		redisUp = false
	}

	var wsRedis *redis.Client
	if redisUp {
		wsRedis = rdb
	}
	wsLogger := logger.NewIsolatedLogger("logs/jobstream.log")
	wsHub := websocket.NewHub(wsRedis, wsLogger)
	go wsHub.Run()

	// 7. Services
	inspectionService := service.NewInspectionService(
		visionAnalyzer,
		embeddingProvider,
		embeddingProvider,
		llmProvider,
		sessionRepo,
		retriever,
		reranker,
		fusionCfg,
		cfg.Prompts,
		sysLogger,
	)

	publisherService := service.NewPublisherService(cfg.Jobs.IngestTopic, pubSub)
	indexerService := service.NewIndexerService(
		pubSub,
		cfg.Jobs.IngestTopic,
		chunkRepo,
		embeddingProvider,
		embeddingProvider,
	)

	if natsSub != nil {
		auditService := service.NewAuditService(natsSub, sysLogger)
		go func() {
			if err := auditService.Start(); err != nil {
				log.Printf("[WARN] Audit trail unavailable: %v", err)
			}
		}()
	}

	// 8. Job runner
	handlers := service.InspectionJobHandlers(inspectionService)

	transition := service.NewJobTransitionNotifier(natsPub, wsHub, sysLogger)
	if cfg.SMTP.ReportRecipient != "" && cfg.SMTP.Host != "" {
		emailService := mailer.NewEmailService(
			cfg.SMTP.Host,
			cfg.SMTP.Port,
			cfg.SMTP.Email,
			cfg.SMTP.Password,
			cfg.SMTP.SenderName,
		)
		transition = service.ComposeTransitions(
			transition,
			service.NewJobMailNotifier(emailService, cfg.SMTP.ReportRecipient, sysLogger),
		)
	}

	var runner jobs.Runner
	var worker *jobs.Worker
	if cfg.Jobs.Mode == "queued" {
		var jobStore jobs.StateStore
		if redisUp {
			jobStore = jobs.NewRedisStore(rdb)
		} else {
			log.Printf("[WARN] Queued mode without Redis, job state is process local")
			jobStore = jobs.NewMemoryStore()
		}
		runner = jobs.NewQueuedRunner(pubSub, jobStore, transition, pipelineLogger)
		worker = jobs.NewWorker(pubSub, jobStore, handlers, cfg.Jobs.WorkerPoolSize, transition, pipelineLogger)
		log.Printf("[INFO] Job mode: QUEUED (pool size %d)", cfg.Jobs.WorkerPoolSize)
	} else {
		runner = jobs.NewDirectRunner(jobs.NewMemoryStore(), handlers, transition, pipelineLogger)
		log.Printf("[INFO] Job mode: DIRECT")
	}

	return &Container{
		InspectionController: controller.NewInspectionController(runner, publisherService, wsHub, sysLogger),
		IndexerService:       indexerService,
		JobWorker:            worker,
		PublisherService:     publisherService,
		WebSocketHub:         wsHub,
		Logger:               sysLogger,
	}
}
