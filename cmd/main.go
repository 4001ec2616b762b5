package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"marketscope/internal/adapters/ai"
	"marketscope/internal/adapters/config"
	"marketscope/internal/adapters/embeddings"
	"marketscope/internal/adapters/errors/noop"
	"marketscope/internal/adapters/errors/sentry"
	"marketscope/internal/adapters/postgres"
	redisadapter "marketscope/internal/adapters/redis"
	"marketscope/internal/adapters/search"
	"marketscope/internal/agents"
	"marketscope/internal/api"
	"marketscope/internal/api/health"
	"marketscope/internal/domain/research"
	repository "marketscope/internal/repository/postgres"
	"marketscope/internal/services/assistant"
	knowledgesvc "marketscope/internal/services/knowledge"
	reportsvc "marketscope/internal/services/report"
	"marketscope/pkg/errors"
	"marketscope/pkg/logger"
)

const version = "1.0.0"

func main() {
	cfg, err := config.Load()
	if err != nil {
		panic("failed to load config: " + err.Error())
	}

	if err := logger.Init(cfg.App.LogLevel, cfg.App.Env); err != nil {
		panic("failed to init logger: " + err.Error())
	}
	defer logger.Sync()

	log := logger.Get()
	log.Infof("Starting %s in %s mode", cfg.App.Name, cfg.App.Env)

	errorTracker := initErrorTracker(cfg, log)
	logger.SetErrorTracker(errorTracker)

	// Databases
	pgClient, err := postgres.NewClient(cfg.Postgres)
	if err != nil {
		log.Fatalf("Failed to connect to PostgreSQL: %v", err)
	}
	defer pgClient.Close()

	var redisClient *redisadapter.Client
	var feed research.Feed = redisadapter.NewNoopFeed()
	if cfg.Redis.Enabled() {
		redisClient, err = redisadapter.NewClient(cfg.Redis)
		if err != nil {
			log.Fatalf("Failed to connect to Redis: %v", err)
		}
		defer redisClient.Close()
		feed = redisadapter.NewStatusFeed(redisClient)
		log.Info("Status change feed enabled (Redis)")
	} else {
		log.Info("Redis not configured, status change feed disabled")
	}

	// Repositories
	queryRepo := repository.NewQueryRepository(pgClient.DB())
	sentimentRepo := repository.NewSentimentRepository(pgClient.DB())
	competitorRepo := repository.NewCompetitorRepository(pgClient.DB())
	trendRepo := repository.NewTrendRepository(pgClient.DB())
	reportRepo := repository.NewReportRepository(pgClient.DB())
	chunkRepo := repository.NewChunkRepository(pgClient.DB())

	// External signal clients and generative providers
	registry := ai.NewRegistry(cfg.AI)
	webSearch := search.NewGoogleClient(cfg.Search.GoogleAPIKey, cfg.Search.GoogleEngineID)
	tweetSearch := search.NewTwitterClient(cfg.Twitter, cfg.AI.RequestTimeout)

	var embedder embeddings.Provider
	if cfg.AI.OpenAIKey != "" {
		embedder, err = embeddings.NewOpenAIProvider(cfg.AI.OpenAIKey, cfg.AI.EmbeddingModel, cfg.AI.RequestTimeout)
		if err != nil {
			log.Fatalf("Failed to create embedding provider: %v", err)
		}
	} else {
		log.Warn("No embedding key configured, knowledge processing disabled")
	}

	// Producer agents and aggregation
	producers := []agents.Producer{
		agents.NewSentimentAgent(sentimentRepo, registry.Producer(), tweetSearch),
		agents.NewCompetitorAgent(competitorRepo, registry.Producer(), webSearch),
		agents.NewTrendAgent(trendRepo, registry.Producer(), webSearch),
	}
	aggregator := agents.NewInsightAggregator(sentimentRepo, competitorRepo, trendRepo, reportRepo, registry.Insight())

	// Services
	knowledgeService := knowledgesvc.NewService(chunkRepo, sentimentRepo, competitorRepo, trendRepo, embedder, cfg.Agents)
	renderer := reportsvc.NewRenderer(queryRepo, sentimentRepo, competitorRepo, trendRepo, reportRepo)
	assistantService := assistant.NewService(sentimentRepo, competitorRepo, trendRepo, reportRepo, chunkRepo, registry.Assistant())

	var knowledgeStage agents.KnowledgeProcessor
	if embedder != nil {
		knowledgeStage = knowledgeService
	}
	orchestrator := agents.NewOrchestrator(
		queryRepo, feed, producers, aggregator, knowledgeStage, renderer, cfg.Agents,
	)

	// HTTP API
	handlers := api.NewHandlers(
		queryRepo, reportRepo, sentimentRepo, competitorRepo, trendRepo,
		orchestrator, producers, aggregator,
		knowledgeService, renderer, assistantService,
	)
	feedHandler := api.NewFeedHandler(feed)

	healthHandler := newHealthHandler(log, pgClient, redisClient)

	server := api.NewServer(api.ServerConfig{
		Port:        cfg.Server.Port,
		ServiceName: cfg.App.Name,
		Version:     version,
	}, handlers, feedHandler, healthHandler, log)

	log.Info("System initialized successfully")

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	go func() {
		if err := server.Start(); err != nil {
			log.Fatalf("HTTP server error: %v", err)
		}
	}()

	waitForShutdown(ctx, cancel, server, errorTracker, log)
}

func newHealthHandler(log *logger.Logger, pg *postgres.Client, redisClient *redisadapter.Client) *health.Handler {
	if redisClient != nil {
		return health.New(log, pg.DB(), redisClient.Client(), "marketscope", version)
	}
	return health.New(log, pg.DB(), nil, "marketscope", version)
}

// initErrorTracker initializes error tracking (Sentry or no-op)
func initErrorTracker(cfg *config.Config, log *logger.Logger) errors.Tracker {
	if !cfg.ErrorTracking.Enabled || cfg.ErrorTracking.SentryDSN == "" {
		log.Info("Error tracking disabled")
		return noop.New()
	}

	tracker, err := sentry.New(cfg.ErrorTracking.SentryDSN, cfg.ErrorTracking.Environment)
	if err != nil {
		log.Warnf("Failed to initialize Sentry: %v", err)
		return noop.New()
	}

	log.Info("Error tracking initialized (Sentry)")
	return tracker
}

// waitForShutdown waits for shutdown signal and performs graceful shutdown
func waitForShutdown(ctx context.Context, cancel context.CancelFunc, server *api.Server, errorTracker errors.Tracker, log *logger.Logger) {
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	<-quit
	log.Info("Shutting down...")

	cancel()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer shutdownCancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Warnf("HTTP shutdown error: %v", err)
	}

	if errorTracker != nil {
		if err := errorTracker.Flush(ctx); err != nil {
			log.Warnf("Failed to flush error tracker: %v", err)
		}
	}

	log.Info("Shutdown complete")
}
