package main

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/modelcontextprotocol/go-sdk/mcp"

	chandlerconfig "chandler/internal/config"
	"chandler/internal/library"
	"chandler/internal/librarytool"
	"chandler/pkg/config"
	"chandler/pkg/database"
	"chandler/pkg/llm"
	"chandler/pkg/logging"
	"chandler/pkg/middleware"
	"chandler/pkg/monitoring"
	"chandler/pkg/server"
	"chandler/pkg/version"
)

func main() {
	logger := logging.NewLoggerWithService("almanac")
	config.LoadEnv(logger)

	logger.Info("Starting Almanac (semantic search tool server)")

	cfg := chandlerconfig.LoadAlmanac()

	dbConfig := database.DefaultConfig()
	dbConfig.URL = cfg.DatabaseURL
	db := database.MustConnect(dbConfig, logger)
	defer func() { _ = db.Close() }()
	if err := database.Migrate(context.Background(), db, logger); err != nil {
		logger.WithError(err).Fatal("Database migration failed")
	}

	healthChecker := monitoring.NewHealthChecker("almanac", version.Version)
	metricsCollector := monitoring.NewMetricsCollector("almanac", version.Version, version.GitCommit)
	healthChecker.AddCheck("database", monitoring.DatabaseHealthCheck(db))

	embedder, err := llm.NewEmbeddingClient(cfg.Embedding)
	if err != nil {
		logger.WithError(err).Fatal("Failed to initialize embedding client")
	}
	if err := library.VerifyEmbeddingDimensions(context.Background(), embedder); err != nil {
		logger.WithError(err).Fatal("Embedding model does not match the vector schema")
	}

	// Reranking is optional; without it search results pass through ungraded.
	var reranker llm.RerankClient
	if cfg.Rerank.Provider != "" {
		reranker, err = llm.NewRerankClient(cfg.Rerank)
		if err != nil {
			logger.WithError(err).Warn("Failed to initialize rerank client - relevance grading disabled")
			reranker = nil
		}
	}

	toolServer := librarytool.NewServer(librarytool.Config{
		Store:       library.NewStore(db),
		Embedder:    embedder,
		Grader:      library.NewGrader(reranker, logger),
		Logger:      logger,
		SearchLimit: cfg.SearchLimit,
	})
	mcpHandler := mcp.NewStreamableHTTPHandler(
		func(*http.Request) *mcp.Server { return toolServer },
		&mcp.StreamableHTTPOptions{Stateless: true},
	)

	router := server.SetupServiceRouter(logger, "almanac", healthChecker, metricsCollector)
	mcpGroup := router.Group("/mcp")
	if cfg.ServiceToken != "" {
		mcpGroup.Use(middleware.ServiceAuthMiddleware(cfg.ServiceToken))
	} else {
		logger.Warn("SERVICE_TOKEN not set - tool server is unauthenticated")
	}
	mcpGroup.Any("", gin.WrapH(mcpHandler))
	mcpGroup.Any("/*path", gin.WrapH(mcpHandler))

	serverConfig := server.DefaultConfig("almanac", cfg.Port)
	if err := server.Start(serverConfig, router, logger); err != nil {
		logger.WithError(err).Fatal("Server startup failed")
	}
}
