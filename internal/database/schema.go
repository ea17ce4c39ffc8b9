package database

import (
	"context"
	"fmt"
)

// Migrate creates the catalog and outbox tables if they do not exist.
func (db *DB) Migrate(ctx context.Context) error {
	_, err := db.pool.Exec(ctx, `
		CREATE TABLE IF NOT EXISTS catalog_product (
			handle        TEXT         PRIMARY KEY,
			title         TEXT         NOT NULL,
			source_url    TEXT         NOT NULL DEFAULT '',
			variant_count INT          NOT NULL DEFAULT 0,
			data          JSONB        NOT NULL,
			created_at    TIMESTAMPTZ  NOT NULL DEFAULT NOW(),
			updated_at    TIMESTAMPTZ  NOT NULL DEFAULT NOW()
		);

		CREATE INDEX IF NOT EXISTS idx_catalog_product_updated_at ON catalog_product(updated_at);

		CREATE TABLE IF NOT EXISTS outbox_event (
			id             UUID         PRIMARY KEY,
			aggregate_type TEXT         NOT NULL,
			aggregate_id   TEXT         NOT NULL,
			event_type     TEXT         NOT NULL,
			payload        JSONB        NOT NULL,
			target_stream  TEXT         NOT NULL,
			status         TEXT         NOT NULL DEFAULT 'pending',
			retry_count    INT          NOT NULL DEFAULT 0,
			error_message  TEXT,
			created_at     TIMESTAMPTZ  NOT NULL DEFAULT NOW(),
			processed_at   TIMESTAMPTZ,
			next_retry_at  TIMESTAMPTZ
		);

		CREATE INDEX IF NOT EXISTS idx_outbox_event_status_retry ON outbox_event(status, next_retry_at);
	`)
	if err != nil {
		return fmt.Errorf("failed to migrate schema: %w", err)
	}
	return nil
}
