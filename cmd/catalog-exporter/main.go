// catalog-exporter consumes PRODUCT_CATALOGED events from the catalog
// stream and writes each stored product as a Shopify-shaped JSON file,
// ready for import tooling to pick up.
package main

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/cartloom/catalog-scraper/internal/config"
	"github.com/cartloom/catalog-scraper/internal/database"
	"github.com/cartloom/catalog-scraper/pkg/logger"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load config: %v\n", err)
		os.Exit(1)
	}

	logger := logger.New(cfg.Logging.Level, cfg.Logging.Format)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	rdb := redis.NewClient(&redis.Options{
		Addr:     cfg.Redis.Addr,
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
	})
	defer rdb.Close()

	if err := rdb.Ping(ctx).Err(); err != nil {
		logger.Error("failed to connect to Redis", "error", err)
		os.Exit(1)
	}

	db, err := database.New(ctx, database.Config{
		Host:     cfg.Database.Host,
		Port:     cfg.Database.Port,
		User:     cfg.Database.User,
		Password: cfg.Database.Password,
		Database: cfg.Database.DBName,
		MaxConns: cfg.Database.MaxConns,
	})
	if err != nil {
		logger.Error("failed to connect to database", "error", err)
		os.Exit(1)
	}
	defer db.Close()

	exportDir := os.Getenv("EXPORT_DIR")
	if exportDir == "" {
		exportDir = "export"
	}
	if err := os.MkdirAll(exportDir, 0o755); err != nil {
		logger.Error("failed to create export directory", "error", err)
		os.Exit(1)
	}

	exporter := &Exporter{
		redis:     rdb,
		catalog:   database.NewCatalogRepository(db),
		exportDir: exportDir,
		logger:    logger.With("component", "exporter"),
	}

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-sigChan
		logger.Info("shutting down...")
		cancel()
	}()

	if err := exporter.Run(ctx); err != nil && err != context.Canceled {
		logger.Error("exporter stopped with error", "error", err)
		os.Exit(1)
	}
}

type Exporter struct {
	redis     *redis.Client
	catalog   *database.CatalogRepository
	exportDir string
	logger    *slog.Logger
}

const (
	consumerGroup = "catalog-exporter-group"
	consumerName  = "exporter-1"
)

// Run consumes the catalog stream until the context is cancelled.
func (e *Exporter) Run(ctx context.Context) error {
	streamKey := database.DefaultTargetStream
	if override := os.Getenv("REDIS_STREAM"); override != "" {
		streamKey = override
	}

	// Create consumer group (ignore error if already exists)
	e.redis.XGroupCreate(ctx, streamKey, consumerGroup, "0").Err()

	e.logger.Info("starting exporter", "stream", streamKey, "group", consumerGroup)

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
			streams, err := e.redis.XReadGroup(ctx, &redis.XReadGroupArgs{
				Group:    consumerGroup,
				Consumer: consumerName,
				Streams:  []string{streamKey, ">"},
				Count:    10,
				Block:    5 * time.Second,
			}).Result()

			if err != nil {
				if err == redis.Nil {
					continue // No new messages
				}
				if ctx.Err() != nil {
					return ctx.Err()
				}
				e.logger.Error("failed to read from stream", "error", err)
				time.Sleep(1 * time.Second)
				continue
			}

			for _, stream := range streams {
				for _, message := range stream.Messages {
					if err := e.processMessage(ctx, message); err != nil {
						e.logger.Error("failed to process message", "id", message.ID, "error", err)
						continue
					}

					if err := e.redis.XAck(ctx, streamKey, consumerGroup, message.ID).Err(); err != nil {
						e.logger.Error("failed to acknowledge message", "id", message.ID, "error", err)
					}
				}
			}
		}
	}
}

func (e *Exporter) processMessage(ctx context.Context, msg redis.XMessage) error {
	eventType, ok := msg.Values["event_type"].(string)
	if !ok || eventType != "PRODUCT_CATALOGED" {
		return nil // Skip non-matching events
	}

	handle, ok := msg.Values["aggregate_id"].(string)
	if !ok || handle == "" {
		return fmt.Errorf("missing handle in event")
	}

	row, err := e.catalog.Get(ctx, handle)
	if err != nil {
		return fmt.Errorf("failed to load product %q: %w", handle, err)
	}

	path := filepath.Join(e.exportDir, handle+".json")

	pretty, err := prettyJSON(row.Data)
	if err != nil {
		return fmt.Errorf("failed to format product %q: %w", handle, err)
	}

	if err := os.WriteFile(path, pretty, 0o644); err != nil {
		return fmt.Errorf("failed to write export: %w", err)
	}

	e.logger.Info("product exported",
		"message_id", msg.ID,
		"handle", handle,
		"title", row.Title,
		"path", path,
	)

	return nil
}

func prettyJSON(data json.RawMessage) ([]byte, error) {
	var v interface{}
	if err := json.Unmarshal(data, &v); err != nil {
		return nil, err
	}
	return json.MarshalIndent(v, "", "  ")
}
