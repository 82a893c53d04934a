// Pizza Hunt - Offline-First Pizza Sharing
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/pizzahunt

package database

import (
	"context"
	"fmt"
	"time"
)

// schemaContext returns a context with a generous timeout for DDL.
func schemaContext() (context.Context, context.CancelFunc) {
	return context.WithTimeout(context.Background(), 60*time.Second)
}

// Sequences give every row a monotonically increasing position so that
// comments and replies come back in the order they were added and pizzas can
// be listed newest first. IDs are random UUIDs and carry no order.
var schemaStatements = []string{
	`CREATE SEQUENCE IF NOT EXISTS pizza_seq START 1;`,
	`CREATE SEQUENCE IF NOT EXISTS comment_seq START 1;`,
	`CREATE SEQUENCE IF NOT EXISTS reply_seq START 1;`,

	`CREATE TABLE IF NOT EXISTS pizzas (
		id TEXT PRIMARY KEY,
		seq BIGINT NOT NULL DEFAULT nextval('pizza_seq'),
		pizza_name TEXT NOT NULL,
		created_by TEXT NOT NULL,
		size TEXT NOT NULL DEFAULT 'Large',
		toppings TEXT NOT NULL DEFAULT '[]',
		idempotency_key TEXT,
		created_at TIMESTAMP NOT NULL
	);`,

	`CREATE TABLE IF NOT EXISTS comments (
		id TEXT PRIMARY KEY,
		seq BIGINT NOT NULL DEFAULT nextval('comment_seq'),
		pizza_id TEXT NOT NULL,
		written_by TEXT NOT NULL,
		comment_body TEXT NOT NULL,
		created_at TIMESTAMP NOT NULL
	);`,

	`CREATE TABLE IF NOT EXISTS replies (
		id TEXT PRIMARY KEY,
		seq BIGINT NOT NULL DEFAULT nextval('reply_seq'),
		comment_id TEXT NOT NULL,
		reply_body TEXT NOT NULL,
		written_by TEXT NOT NULL,
		created_at TIMESTAMP NOT NULL
	);`,
}

// createTables creates all tables and sequences if they don't exist
func (db *DB) createTables() error {
	ctx, cancel := schemaContext()
	defer cancel()

	for _, stmt := range schemaStatements {
		if _, err := db.conn.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("failed to create schema: %w", err)
		}
	}
	return nil
}

var indexStatements = []string{
	`CREATE INDEX IF NOT EXISTS idx_pizzas_idempotency_key ON pizzas(idempotency_key);`,
	`CREATE INDEX IF NOT EXISTS idx_comments_pizza_id ON comments(pizza_id);`,
	`CREATE INDEX IF NOT EXISTS idx_replies_comment_id ON replies(comment_id);`,
}

// createIndexes creates lookup indexes. Index creation is skipped when
// DatabaseConfig.SkipIndexes is set.
func (db *DB) createIndexes() error {
	ctx, cancel := schemaContext()
	defer cancel()

	for _, stmt := range indexStatements {
		if _, err := db.conn.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("failed to create index: %w", err)
		}
	}
	return nil
}
