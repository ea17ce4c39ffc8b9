package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"log"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/cartloom/catalog-scraper/internal/catalog/events"
	"github.com/cartloom/catalog-scraper/internal/classifier"
	"github.com/cartloom/catalog-scraper/internal/config"
	"github.com/cartloom/catalog-scraper/internal/database"
	"github.com/cartloom/catalog-scraper/internal/extractor"
	"github.com/cartloom/catalog-scraper/internal/imagegen"
	"github.com/cartloom/catalog-scraper/internal/llm"
	"github.com/cartloom/catalog-scraper/internal/merger"
	"github.com/cartloom/catalog-scraper/internal/models"
	"github.com/cartloom/catalog-scraper/internal/pipeline"
	"github.com/cartloom/catalog-scraper/internal/source"
	"github.com/cartloom/catalog-scraper/pkg/logger"
)

func main() {
	var (
		dumpFile   = flag.String("dump", "", "Path to a crawl dump file (JSON pages)")
		startURL   = flag.String("crawl", "", "Start URL to crawl for pages")
		output     = flag.String("output", "stdout", "Output: stdout, or a file path")
		store      = flag.Bool("store", false, "Store the merged catalog in Postgres and publish events")
		illustrate = flag.Bool("illustrate", false, "Generate marketing imagery for merged products")
	)
	flag.Parse()

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	if err := cfg.Validate(); err != nil {
		log.Fatalf("Invalid configuration: %v", err)
	}

	logger := logger.New(cfg.Logging.Level, cfg.Logging.Format)
	logger.Info("Starting catalog builder")

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
	go func() {
		<-sigChan
		logger.Info("Shutdown signal received")
		cancel()
	}()

	pages, err := loadPages(ctx, cfg, logger, *dumpFile, *startURL)
	if err != nil {
		logger.Error("Failed to load pages", "error", err)
		os.Exit(1)
	}

	if len(pages) == 0 {
		fmt.Println("No pages to process. Use -dump or -crawl to supply pages.")
		flag.Usage()
		os.Exit(1)
	}

	completer := llm.NewClient(llm.ClientConfig{
		APIKey:  cfg.LLM.APIKey,
		BaseURL: cfg.LLM.BaseURL,
		Model:   cfg.LLM.Model,
		Timeout: cfg.LLM.Timeout,
	})

	p := pipeline.New(
		classifier.New(completer, logger),
		extractor.New(completer, logger),
		merger.New(logger),
		logger,
	)

	if *illustrate {
		p = p.WithImageGenerator(imagegen.NewClient(imagegen.ClientConfig{
			APIKey:  cfg.ImageGen.APIKey,
			BaseURL: cfg.ImageGen.BaseURL,
			Model:   cfg.ImageGen.Model,
			Timeout: cfg.ImageGen.Timeout,
		}, logger))
	}

	catalog := p.Build(ctx, pages)

	if *illustrate {
		p.Illustrate(ctx, catalog)
	}

	if *store {
		if err := storeCatalog(ctx, cfg, logger, catalog); err != nil {
			logger.Error("Failed to store catalog", "error", err)
			os.Exit(1)
		}
	}

	if err := outputCatalog(catalog, *output); err != nil {
		logger.Error("Failed to output catalog", "error", err)
		os.Exit(1)
	}

	logger.Info("Catalog build finished", "pages", len(pages), "products", len(catalog))
}

func loadPages(ctx context.Context, cfg *config.Config, logger *slog.Logger, dumpFile, startURL string) ([]source.Page, error) {
	if dumpFile != "" {
		return source.ReadDump(dumpFile)
	}
	if startURL == "" {
		return nil, nil
	}

	crawler := source.NewCrawler(source.CrawlerConfig{
		RateLimitMin: cfg.Crawler.RateLimitMin,
		RateLimitMax: cfg.Crawler.RateLimitMax,
		MaxDepth:     cfg.Crawler.MaxDepth,
		MaxPages:     cfg.Crawler.MaxPages,
		UserAgent:    cfg.Crawler.UserAgent,
		FetchTimeout: cfg.Crawler.FetchTimeout,
	}, logger)

	return crawler.Crawl(ctx, startURL)
}

func storeCatalog(ctx context.Context, cfg *config.Config, logger *slog.Logger, catalog []*models.Product) error {
	db, err := database.New(ctx, database.Config{
		Host:     cfg.Database.Host,
		Port:     cfg.Database.Port,
		User:     cfg.Database.User,
		Password: cfg.Database.Password,
		Database: cfg.Database.DBName,
		MaxConns: cfg.Database.MaxConns,
	})
	if err != nil {
		return fmt.Errorf("failed to connect to database: %w", err)
	}
	defer db.Close()

	if err := db.Migrate(ctx); err != nil {
		return err
	}

	publisher := events.NewPublisher(db, logger)
	handles := publisher.StoreCatalog(ctx, catalog)
	logger.Info("Catalog stored", "products", len(catalog), "stored", len(handles))
	return nil
}

func outputCatalog(catalog []*models.Product, output string) error {
	data, err := json.MarshalIndent(catalog, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal catalog: %w", err)
	}

	if output == "" || output == "stdout" {
		fmt.Println(string(data))
		return nil
	}

	if err := os.WriteFile(output, data, 0o644); err != nil {
		return fmt.Errorf("failed to write catalog: %w", err)
	}
	return nil
}
