package app

import (
	"github.com/ternarybob/arbor"
	"github.com/ternarybob/percontor/internal/common"
	"github.com/ternarybob/percontor/internal/handlers"
	"github.com/ternarybob/percontor/internal/interfaces"
	"github.com/ternarybob/percontor/internal/services/chunker"
	"github.com/ternarybob/percontor/internal/services/generator"
	"github.com/ternarybob/percontor/internal/services/llm"
	"github.com/ternarybob/percontor/internal/services/pipeline"
	"github.com/ternarybob/percontor/internal/services/reranker"
	"github.com/ternarybob/percontor/internal/services/vectorstore"
)

// App holds all application components and dependencies
type App struct {
	Config *common.Config
	Logger arbor.ILogger

	// Pipeline services
	Chunker         interfaces.Chunker
	VectorStore     interfaces.VectorStore
	Reranker        interfaces.Reranker
	AnswerGenerator interfaces.AnswerGenerator
	QueryPipeline   interfaces.QueryPipeline

	// Provider clients
	ProviderFactory *llm.ProviderFactory

	// HTTP handlers
	APIHandler      *handlers.APIHandler
	DocumentHandler *handlers.DocumentHandler
	QueryHandler    *handlers.QueryHandler
}

// New wires the full dependency graph from configuration. Construction is
// explicit and eager: a misconfigured provider fails startup instead of the
// first request.
func New(config *common.Config, logger arbor.ILogger) (*App, error) {
	a := &App{
		Config: config,
		Logger: logger,
	}

	pineconeClient, err := vectorstore.NewPineconeClient(&config.Pinecone, logger)
	if err != nil {
		return nil, err
	}

	store, err := vectorstore.NewService(pineconeClient, &config.Pinecone, logger)
	if err != nil {
		return nil, err
	}

	cohereClient, err := reranker.NewCohereClient(&config.Cohere, logger)
	if err != nil {
		return nil, err
	}

	a.ProviderFactory = llm.NewProviderFactory(&config.Gemini, &config.Claude, &config.LLM, logger)

	answerGenerator, err := generator.NewService(a.ProviderFactory, config, logger)
	if err != nil {
		return nil, err
	}

	a.Chunker = chunker.NewService(&config.Chunking, logger)
	a.VectorStore = store
	a.Reranker = reranker.NewService(cohereClient, logger)
	a.AnswerGenerator = answerGenerator
	a.QueryPipeline = pipeline.NewService(a.VectorStore, a.Reranker, a.AnswerGenerator, &config.Retrieval, logger)

	a.APIHandler = handlers.NewAPIHandler()
	a.DocumentHandler = handlers.NewDocumentHandler(a.Chunker, a.VectorStore, logger)
	a.QueryHandler = handlers.NewQueryHandler(a.QueryPipeline, logger)

	logger.Info().
		Str("index", config.Pinecone.IndexName).
		Str("embedding_model", config.Pinecone.EmbeddingModel).
		Str("rerank_model", config.Cohere.Model).
		Str("default_provider", config.LLM.DefaultProvider).
		Msg("Application wired")

	return a, nil
}

// Close releases provider clients
func (a *App) Close() error {
	if a.ProviderFactory != nil {
		return a.ProviderFactory.Close()
	}
	return nil
}
