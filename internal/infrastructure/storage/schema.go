package storage

import (
	"context"
	"fmt"
)

var schema = []string{
	`CREATE TABLE IF NOT EXISTS categories (
		id BIGSERIAL PRIMARY KEY,
		name VARCHAR(100) NOT NULL UNIQUE,
		slug VARCHAR(100) NOT NULL UNIQUE,
		created_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
	)`,
	`CREATE TABLE IF NOT EXISTS articles (
		id BIGSERIAL PRIMARY KEY,
		url TEXT NOT NULL UNIQUE,
		title VARCHAR(500) NOT NULL,
		description TEXT NOT NULL DEFAULT '',
		content TEXT NOT NULL DEFAULT '',
		author VARCHAR(200) NOT NULL DEFAULT '',
		source_name VARCHAR(200) NOT NULL DEFAULT '',
		published_at TIMESTAMPTZ NOT NULL,
		summary TEXT NOT NULL DEFAULT '',
		bias_label VARCHAR(10) NOT NULL DEFAULT 'UNKNOWN',
		classified_at TIMESTAMPTZ,
		created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
		updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
	)`,
	`CREATE INDEX IF NOT EXISTS articles_published_at_idx ON articles (published_at DESC)`,
	`CREATE INDEX IF NOT EXISTS articles_bias_label_idx ON articles (bias_label)`,
	`CREATE TABLE IF NOT EXISTS article_categories (
		article_id BIGINT NOT NULL REFERENCES articles (id) ON DELETE CASCADE,
		category_id BIGINT NOT NULL REFERENCES categories (id) ON DELETE CASCADE,
		PRIMARY KEY (article_id, category_id)
	)`,
}

// Migrate creates the tables if they do not exist yet.
func Migrate(ctx context.Context, db DB) error {
	for i, stmt := range schema {
		if _, err := db.Exec(ctx, stmt); err != nil {
			return fmt.Errorf("migrate step %d: %w", i+1, err)
		}
	}
	return nil
}
