package database

import (
	"context"
	"encoding/json"
	"fmt"
	"regexp"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/cartloom/catalog-scraper/internal/models"
)

// CatalogRow is a stored catalog product. The full Shopify-shaped record
// lives in Data; the scalar columns exist for lookups and listings.
type CatalogRow struct {
	Handle       string          `db:"handle"`
	Title        string          `db:"title"`
	SourceURL    string          `db:"source_url"`
	VariantCount int             `db:"variant_count"`
	Data         json.RawMessage `db:"data"`
	CreatedAt    time.Time       `db:"created_at"`
	UpdatedAt    time.Time       `db:"updated_at"`
}

// CatalogRepository persists merged catalog products.
type CatalogRepository struct {
	db *DB
}

func NewCatalogRepository(db *DB) *CatalogRepository {
	return &CatalogRepository{db: db}
}

var nonHandleChars = regexp.MustCompile(`[^a-z0-9]+`)

// Handle derives a URL-safe identifier from a product title, e.g.
// "Steel Post (2ft)" -> "steel-post-2ft".
func Handle(title string) string {
	h := nonHandleChars.ReplaceAllString(strings.ToLower(title), "-")
	return strings.Trim(h, "-")
}

// UpsertWithTx inserts or replaces a catalog product inside a transaction,
// so the row and its outbox event commit together.
func (r *CatalogRepository) UpsertWithTx(ctx context.Context, tx pgx.Tx, product *models.Product) (string, error) {
	handle := Handle(product.Title)
	if handle == "" {
		return "", fmt.Errorf("product title %q yields an empty handle", product.Title)
	}

	data, err := json.Marshal(product)
	if err != nil {
		return "", fmt.Errorf("failed to marshal product: %w", err)
	}

	query := `
		INSERT INTO catalog_product (handle, title, source_url, variant_count, data)
		VALUES ($1, $2, $3, $4, $5)
		ON CONFLICT (handle) DO UPDATE SET
			title = EXCLUDED.title,
			source_url = EXCLUDED.source_url,
			variant_count = EXCLUDED.variant_count,
			data = EXCLUDED.data,
			updated_at = CURRENT_TIMESTAMP`

	_, err = tx.Exec(ctx, query, handle, product.Title, product.SourceURL, len(product.Variants), data)
	if err != nil {
		return "", fmt.Errorf("failed to upsert catalog product: %w", err)
	}

	return handle, nil
}

// Get returns one stored product by handle.
func (r *CatalogRepository) Get(ctx context.Context, handle string) (*CatalogRow, error) {
	query := `
		SELECT handle, title, source_url, variant_count, data, created_at, updated_at
		FROM catalog_product
		WHERE handle = $1`

	row := &CatalogRow{}
	err := r.db.pool.QueryRow(ctx, query, handle).Scan(
		&row.Handle, &row.Title, &row.SourceURL, &row.VariantCount,
		&row.Data, &row.CreatedAt, &row.UpdatedAt,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to get catalog product: %w", err)
	}

	return row, nil
}

// List returns stored products newest first.
func (r *CatalogRepository) List(ctx context.Context, limit int) ([]*CatalogRow, error) {
	query := `
		SELECT handle, title, source_url, variant_count, data, created_at, updated_at
		FROM catalog_product
		ORDER BY updated_at DESC
		LIMIT $1`

	rows, err := r.db.pool.Query(ctx, query, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list catalog products: %w", err)
	}
	defer rows.Close()

	var result []*CatalogRow
	for rows.Next() {
		row := &CatalogRow{}
		err := rows.Scan(
			&row.Handle, &row.Title, &row.SourceURL, &row.VariantCount,
			&row.Data, &row.CreatedAt, &row.UpdatedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan catalog product: %w", err)
		}
		result = append(result, row)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating rows: %w", err)
	}

	return result, nil
}
