package bootstrap

import (
	"log"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/ThreeDotsLabs/watermill/pubsub/gochannel"
	"gorm.io/gorm"

	"pdf-insight-be/internal/config"
	"pdf-insight-be/internal/controller"
	pgindex "pdf-insight-be/internal/index"
	"pdf-insight-be/internal/pkg/logger"
	"pdf-insight-be/internal/repository/implementation"
	"pdf-insight-be/internal/repository/memory"
	"pdf-insight-be/internal/repository/unitofwork"
	"pdf-insight-be/internal/service"
	"pdf-insight-be/pkg/chunker"
	"pdf-insight-be/pkg/embedding"
	embeddingJina "pdf-insight-be/pkg/embedding/jina"
	"pdf-insight-be/pkg/index"
	"pdf-insight-be/pkg/llm/factory"
	"pdf-insight-be/pkg/rag/assembler"
	"pdf-insight-be/pkg/rag/chart"
	"pdf-insight-be/pkg/rag/response"
	"pdf-insight-be/pkg/rag/retriever"
	"pdf-insight-be/pkg/rerank"
	rerankJina "pdf-insight-be/pkg/rerank/jina"
)

type Container struct {
	// Controllers
	DocumentController controller.IDocumentController
	QueryController    controller.IQueryController

	// Background Services (Exposed for main.go to run)
	ConsumerService  IConsumer
	IngestionService service.IIngestionService

	Logger logger.ILogger
}

// IConsumer is re-exported so main.go doesn't import internal/service.
type IConsumer = service.IConsumerService

func NewContainer(db *gorm.DB, cfg *config.Config) *Container {
	// 1. Core Facades
	uowFactory := unitofwork.NewRepositoryFactory(db)
	sysLogger := logger.NewZapLogger(cfg.App.LogFilePath, cfg.App.Environment == "production")

	// 2. Event Bus
	watermillLogger := watermill.NewStdLogger(false, false)
	pubSub := gochannel.NewGoChannel(
		gochannel.Config{},
		watermillLogger,
	)

	// 3. AI Capabilities
	var embeddingProvider embedding.Provider
	if cfg.Ai.EmbeddingProvider == "jina" {
		embeddingProvider = embeddingJina.NewJinaProvider(cfg.Ai.JinaAPIKey)
		log.Printf("[INFO] Using Embedding Provider: JINA AI")
	} else {
		embeddingProvider = embedding.NewOllamaProvider(
			cfg.Ai.OllamaBaseURL,
			cfg.Ai.OllamaModel,
			cfg.Ai.EmbeddingDimensions,
		)
		log.Printf("[INFO] Using Embedding Provider: OLLAMA (%s)", cfg.Ai.OllamaModel)
	}

	llmProvider, err := factory.NewLLMProvider(
		cfg.Ai.LLMProvider,
		cfg.Ai.LLMModel,
		cfg.Ai.OllamaBaseURL,
	)
	if err != nil {
		log.Fatalf("[FATAL] Failed to initialize LLM Provider: %v", err)
	}
	log.Printf("[INFO] Using LLM Provider: %s (%s)", cfg.Ai.LLMProvider, cfg.Ai.LLMModel)

	// The dedicated cross-encoder wins when a key is configured; otherwise
	// the local model scores relevance itself.
	var relevanceScorer rerank.RelevanceScorer
	if cfg.Ai.JinaAPIKey != "" {
		relevanceScorer = rerankJina.NewJinaReranker(cfg.Ai.JinaAPIKey)
		log.Printf("[INFO] Using Reranker: JINA AI")
	} else {
		relevanceScorer = rerank.NewLLMScorer(llmProvider)
		log.Printf("[INFO] Using Reranker: LLM (%s)", cfg.Ai.LLMModel)
	}

	// 4. Indexes
	chunkRepo := implementation.NewChunkRepository(db)
	var vectorIndex index.VectorIndex
	if cfg.Rag.VectorBackend == "pgvector" {
		vectorIndex = pgindex.NewPgVectorIndex(chunkRepo, embeddingProvider.Dimensions())
		log.Printf("[INFO] Using Vector Index: PGVECTOR")
	} else {
		vectorIndex = index.NewMemoryVectorIndex(embeddingProvider.Dimensions())
		log.Printf("[INFO] Using Vector Index: MEMORY")
	}
	sparseIndex := index.NewMemorySparseIndex()

	// 5. Retrieval Pipeline
	chunkSource := service.NewRepositoryChunkSource(uowFactory)
	hybridRetriever := retriever.NewHybridRetriever(
		embedding.NewCachedProvider(embeddingProvider),
		vectorIndex,
		sparseIndex,
		chunkSource,
		relevanceScorer,
		retriever.Options{Kappa: float64(cfg.Rag.RRFKappa)},
	)
	contextAssembler := assembler.NewAssembler(chunkSource, cfg.Rag.ContextBudget)
	synthesizer := response.NewSynthesizer(llmProvider, response.Config{
		Weights: response.ConfidenceWeights{
			CitedFraction: cfg.Rag.WeightCitedFrac,
			CitedScore:    cfg.Rag.WeightCitedScore,
			RankAgreement: cfg.Rag.WeightRankAgree,
		},
		ConfidenceFloor: cfg.Rag.ConfidenceFloor,
		MaxTokens:       1024,
		Temperature:     0.2,
	})
	chartPlanner := chart.NewPlanner(chart.NewLLMClassifier(llmProvider))

	// 6. Session Storage
	sessionRepo := memory.NewSessionRepository()

	// 7. Services
	publisherService := service.NewPublisherService(cfg.Ingest.TopicName, pubSub)
	ingestionService := service.NewIngestionService(
		uowFactory,
		publisherService,
		vectorIndex,
		sparseIndex,
		chunker.Config{
			TargetSize: cfg.Ingest.ChunkSize,
			Overlap:    cfg.Ingest.ChunkOverlap,
		},
	)
	consumerService := service.NewConsumerService(
		pubSub,
		cfg.Ingest.TopicName,
		uowFactory,
		embeddingProvider,
		vectorIndex,
		cfg.Ingest.WorkerCount,
		cfg.Ingest.EmbedBatchSize,
	)
	queryService := service.NewQueryService(
		hybridRetriever,
		contextAssembler,
		synthesizer,
		chartPlanner,
		sessionRepo,
		sysLogger,
		cfg.Rag.TopK,
	)

	// 8. Controllers
	return &Container{
		DocumentController: controller.NewDocumentController(ingestionService),
		QueryController:    controller.NewQueryController(queryService),
		ConsumerService:    consumerService,
		IngestionService:   ingestionService,
		Logger:             sysLogger,
	}
}
