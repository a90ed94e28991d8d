package main

import (
	"context"
	"time"

	"chandler/internal/chat"
	chandlerconfig "chandler/internal/config"
	"chandler/internal/gateway"
	"chandler/internal/mcpclient"
	"chandler/internal/metering"
	"chandler/pkg/config"
	"chandler/pkg/database"
	"chandler/pkg/llm"
	"chandler/pkg/logging"
	"chandler/pkg/monitoring"
	"chandler/pkg/server"
	"chandler/pkg/version"
)

func main() {
	logger := logging.NewLoggerWithService("chandler")
	config.LoadEnv(logger)

	logger.Info("Starting Chandler (appliance parts assistant)")

	cfg := chandlerconfig.LoadChandler()

	// Setup monitoring
	healthChecker := monitoring.NewHealthChecker("chandler", version.Version)
	metricsCollector := monitoring.NewMetricsCollector("chandler", version.Version, version.GitCommit)
	healthChecker.AddCheck("config", monitoring.ConfigurationHealthCheck(map[string]string{
		"MANIFEST_URL": cfg.ManifestURL,
		"ALMANAC_URL":  cfg.AlmanacURL,
	}))

	// The database is optional: without it conversations live in memory only
	// and usage metering is disabled.
	var db database.PostgresConn
	if cfg.DatabaseURL != "" {
		dbConfig := database.DefaultConfig()
		dbConfig.URL = cfg.DatabaseURL
		db = database.MustConnect(dbConfig, logger)
		defer func() { _ = db.Close() }()
		if err := database.Migrate(context.Background(), db, logger); err != nil {
			logger.WithError(err).Fatal("Database migration failed")
		}
		healthChecker.AddCheck("database", monitoring.DatabaseHealthCheck(db))
	} else {
		logger.Warn("DATABASE_URL not set - conversation persistence and usage metering disabled")
	}

	structuredClient, err := llm.NewStructuredClient(cfg.LLM)
	if err != nil {
		logger.WithError(err).Fatal("Failed to initialize structured LLM client")
	}
	provider, err := llm.NewProvider(cfg.LLM)
	if err != nil {
		logger.WithError(err).Fatal("Failed to initialize LLM provider")
	}

	connectCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	manifestClient, err := mcpclient.New(connectCtx, mcpclient.Config{
		Endpoint:     cfg.ManifestURL,
		ServiceToken: cfg.ServiceToken,
		Logger:       logger,
	})
	if err != nil {
		logger.WithError(err).Fatal("Failed to connect to manifest tool server")
	}
	defer func() { _ = manifestClient.Close() }()
	logger.WithField("endpoint", cfg.ManifestURL).Info("Connected to manifest")

	almanacClient, err := mcpclient.New(connectCtx, mcpclient.Config{
		Endpoint:     cfg.AlmanacURL,
		ServiceToken: cfg.ServiceToken,
		Logger:       logger,
	})
	if err != nil {
		logger.WithError(err).Fatal("Failed to connect to almanac tool server")
	}
	defer func() { _ = almanacClient.Close() }()
	logger.WithField("endpoint", cfg.AlmanacURL).Info("Connected to almanac")

	toolGateway := gateway.New(gateway.Config{
		StructuredSession: manifestClient,
		SearchSession:     almanacClient,
		Logger:            logger,
	})

	var usageTracker *metering.UsageTracker
	if db != nil {
		usageTracker = metering.NewUsageTracker(metering.UsageTrackerConfig{
			DB:            db,
			Logger:        logger,
			Model:         cfg.LLM.Model,
			FlushInterval: cfg.FlushInterval,
		})
		usageTracker.Start()
		defer usageTracker.Stop()
	}

	registry := chat.NewRegistry(chat.Deps{
		Structured: structuredClient,
		Provider:   provider,
		Gateway:    toolGateway,
		Logger:     logger,
	})
	var store *chat.Store
	if db != nil {
		store = chat.NewStore(db)
	}
	handler := chat.NewHandler(registry, store, logger)

	router := server.SetupServiceRouter(logger, "chandler", healthChecker, metricsCollector)
	apiGroup := router.Group("/api")
	apiGroup.Use(metering.Middleware(usageTracker))
	chat.RegisterRoutes(apiGroup, handler)

	if err := server.Start(serverConfig(cfg.Port), router, logger); err != nil {
		logger.WithError(err).Fatal("Server startup failed")
	}
}

// serverConfig raises the write deadline above the chat turn deadline. The
// SSE response is written only after the pipeline finishes, so the default
// would cut off any turn slower than it before the first byte.
func serverConfig(port string) server.Config {
	cfg := server.DefaultConfig("chandler", port)
	cfg.WriteTimeout = chat.TurnTimeout + 30*time.Second
	return cfg
}
