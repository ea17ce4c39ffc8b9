// Package events announces catalog writes to downstream consumers via the
// transactional outbox.
package events

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/cartloom/catalog-scraper/internal/database"
	"github.com/cartloom/catalog-scraper/internal/models"
)

// EventType represents the type of event
type EventType string

const (
	// EventTypeProductCataloged is published when a merged product is stored
	EventTypeProductCataloged EventType = "PRODUCT_CATALOGED"
)

// ProductCatalogedPayload is the payload carried on the catalog stream for
// each stored product.
type ProductCatalogedPayload struct {
	EventID      string    `json:"event_id"`
	EventType    string    `json:"event_type"`
	Timestamp    time.Time `json:"timestamp"`
	Handle       string    `json:"handle"`
	Title        string    `json:"title"`
	Vendor       string    `json:"vendor,omitempty"`
	ProductType  string    `json:"product_type,omitempty"`
	SourceURL    string    `json:"source_url"`
	VariantCount int       `json:"variant_count"`
	ImageCount   int       `json:"image_count"`
	Source       string    `json:"source"`
}

// Publisher stores merged products and publishes PRODUCT_CATALOGED events
// using the transactional outbox pattern.
type Publisher struct {
	db      *database.DB
	catalog *database.CatalogRepository
	outbox  *database.OutboxRepository
	logger  *slog.Logger
}

// NewPublisher creates a new event publisher with database connection
func NewPublisher(db *database.DB, logger *slog.Logger) *Publisher {
	return &Publisher{
		db:      db,
		catalog: database.NewCatalogRepository(db),
		outbox:  database.NewOutboxRepository(db),
		logger:  logger.With("component", "event_publisher"),
	}
}

// StoreAndPublish upserts the product and inserts its PRODUCT_CATALOGED
// event in a single transaction, so the row and its announcement cannot
// diverge. Returns the stored handle.
func (p *Publisher) StoreAndPublish(ctx context.Context, product *models.Product) (string, error) {
	var handle string

	err := p.db.Transaction(ctx, func(tx pgx.Tx) error {
		var err error
		handle, err = p.catalog.UpsertWithTx(ctx, tx, product)
		if err != nil {
			return err
		}

		payload := &ProductCatalogedPayload{
			EventID:      uuid.New().String(),
			EventType:    string(EventTypeProductCataloged),
			Timestamp:    time.Now(),
			Handle:       handle,
			Title:        product.Title,
			Vendor:       product.Vendor,
			ProductType:  product.ProductType,
			SourceURL:    product.SourceURL,
			VariantCount: len(product.Variants),
			ImageCount:   len(product.Images),
			Source:       "catalog-scraper",
		}

		data, err := json.Marshal(payload)
		if err != nil {
			return fmt.Errorf("failed to marshal event: %w", err)
		}

		outboxEvent := &database.OutboxEvent{
			AggregateType: "catalog_product",
			AggregateID:   handle,
			EventType:     string(EventTypeProductCataloged),
			Payload:       data,
			TargetStream:  database.DefaultTargetStream,
		}

		if err := p.outbox.InsertWithTx(ctx, tx, outboxEvent); err != nil {
			return fmt.Errorf("failed to insert outbox event: %w", err)
		}

		return nil
	})

	if err != nil {
		return "", fmt.Errorf("failed to store product: %w", err)
	}

	p.logger.Info("product cataloged",
		"handle", handle,
		"title", product.Title,
		"variants", len(product.Variants),
	)

	return handle, nil
}

// StoreCatalog stores every product of a merged catalog. Failures are
// per-product; the rest of the catalog is still stored.
func (p *Publisher) StoreCatalog(ctx context.Context, products []*models.Product) []string {
	var handles []string
	for _, product := range products {
		handle, err := p.StoreAndPublish(ctx, product)
		if err != nil {
			p.logger.Error("failed to store product", "title", product.Title, "error", err)
			continue
		}
		handles = append(handles, handle)
	}
	return handles
}
