package main

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/modelcontextprotocol/go-sdk/mcp"

	"chandler/internal/catalogtool"
	chandlerconfig "chandler/internal/config"
	"chandler/pkg/config"
	"chandler/pkg/database"
	"chandler/pkg/logging"
	"chandler/pkg/middleware"
	"chandler/pkg/monitoring"
	"chandler/pkg/server"
	"chandler/pkg/version"
)

func main() {
	logger := logging.NewLoggerWithService("manifest")
	config.LoadEnv(logger)

	logger.Info("Starting Manifest (structured catalog query tool server)")

	cfg := chandlerconfig.LoadManifest()

	dbConfig := database.DefaultConfig()
	dbConfig.URL = cfg.DatabaseURL
	db := database.MustConnect(dbConfig, logger)
	defer func() { _ = db.Close() }()
	if err := database.Migrate(context.Background(), db, logger); err != nil {
		logger.WithError(err).Fatal("Database migration failed")
	}

	healthChecker := monitoring.NewHealthChecker("manifest", version.Version)
	metricsCollector := monitoring.NewMetricsCollector("manifest", version.Version, version.GitCommit)
	healthChecker.AddCheck("database", monitoring.DatabaseHealthCheck(db))

	toolServer := catalogtool.NewServer(catalogtool.Config{
		DB:       db,
		Logger:   logger,
		RowLimit: cfg.RowLimit,
	})
	mcpHandler := mcp.NewStreamableHTTPHandler(
		func(*http.Request) *mcp.Server { return toolServer },
		&mcp.StreamableHTTPOptions{Stateless: true},
	)

	router := server.SetupServiceRouter(logger, "manifest", healthChecker, metricsCollector)
	mcpGroup := router.Group("/mcp")
	if cfg.ServiceToken != "" {
		mcpGroup.Use(middleware.ServiceAuthMiddleware(cfg.ServiceToken))
	} else {
		logger.Warn("SERVICE_TOKEN not set - tool server is unauthenticated")
	}
	mcpGroup.Any("", gin.WrapH(mcpHandler))
	mcpGroup.Any("/*path", gin.WrapH(mcpHandler))

	serverConfig := server.DefaultConfig("manifest", cfg.Port)
	if err := server.Start(serverConfig, router, logger); err != nil {
		logger.WithError(err).Fatal("Server startup failed")
	}
}
