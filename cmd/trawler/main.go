package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	chandlerconfig "chandler/internal/config"
	"chandler/internal/harvest"
	"chandler/internal/library"
	"chandler/pkg/config"
	"chandler/pkg/database"
	"chandler/pkg/llm"
	"chandler/pkg/logging"
)

func usage() {
	fmt.Fprintln(os.Stderr, "usage: trawler <parts|repairs|blogs|all>")
	os.Exit(2)
}

func main() {
	if len(os.Args) != 2 {
		usage()
	}
	target := os.Args[1]
	switch target {
	case "parts", "repairs", "blogs", "all":
	default:
		usage()
	}

	logger := logging.NewLoggerWithService("trawler")
	config.LoadEnv(logger)

	cfg := chandlerconfig.LoadTrawler()

	dbConfig := database.DefaultConfig()
	dbConfig.URL = cfg.DatabaseURL
	db := database.MustConnect(dbConfig, logger)
	defer func() { _ = db.Close() }()
	if err := database.Migrate(context.Background(), db, logger); err != nil {
		logger.WithError(err).Fatal("Database migration failed")
	}

	embedder, err := llm.NewEmbeddingClient(cfg.Embedding)
	if err != nil {
		logger.WithError(err).Fatal("Failed to initialize embedding client")
	}
	if err := library.VerifyEmbeddingDimensions(context.Background(), embedder); err != nil {
		logger.WithError(err).Fatal("Embedding model does not match the vector schema")
	}

	renderer, err := harvest.NewRodRenderer(harvest.RendererConfig{
		MaxTabs:       cfg.MaxTabs,
		RenderTimeout: cfg.RenderTimeout,
		BrowserURL:    cfg.BrowserURL,
	})
	if err != nil {
		logger.WithError(err).Fatal("Failed to start headless browser")
	}
	defer renderer.Close()

	harvester := harvest.New(harvest.Config{
		Renderer:    renderer,
		Store:       library.NewStore(db),
		Embedder:    embedder,
		Logger:      logger,
		BaseURL:     cfg.BaseURL,
		Brands:      cfg.Brands,
		Concurrency: cfg.Concurrency,
	})

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	run := func(name string, fn func(context.Context) error) {
		logger.WithField("target", name).Info("Harvest starting")
		if err := fn(ctx); err != nil {
			logger.WithError(err).WithField("target", name).Fatal("Harvest failed")
		}
		logger.WithField("target", name).Info("Harvest complete")
	}

	switch target {
	case "parts":
		run("parts", harvester.HarvestParts)
	case "repairs":
		run("repairs", harvester.HarvestRepairs)
	case "blogs":
		run("blogs", harvester.HarvestBlogs)
	case "all":
		run("parts", harvester.HarvestParts)
		run("repairs", harvester.HarvestRepairs)
		run("blogs", harvester.HarvestBlogs)
	}
}
