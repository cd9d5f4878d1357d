// Package dbtest opens throwaway sqlite databases carrying the ordering schema.
package dbtest

import (
	"testing"

	"github.com/google/uuid"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

var schema = []string{
	`CREATE TABLE categories (
		id TEXT PRIMARY KEY,
		name TEXT NOT NULL UNIQUE,
		position INTEGER NOT NULL DEFAULT 0,
		is_active INTEGER NOT NULL DEFAULT 1,
		created_at DATETIME,
		updated_at DATETIME
	)`,
	`CREATE TABLE menu_items (
		id TEXT PRIMARY KEY,
		category_id TEXT NOT NULL,
		name TEXT NOT NULL,
		description TEXT,
		base_price TEXT NOT NULL,
		is_available INTEGER NOT NULL DEFAULT 1,
		position INTEGER NOT NULL DEFAULT 0,
		created_at DATETIME,
		updated_at DATETIME
	)`,
	`CREATE TABLE customization_groups (
		id TEXT PRIMARY KEY,
		name TEXT NOT NULL UNIQUE,
		kind TEXT NOT NULL,
		is_required INTEGER NOT NULL DEFAULT 0,
		min_selections INTEGER NOT NULL DEFAULT 0,
		max_selections INTEGER,
		is_active INTEGER NOT NULL DEFAULT 1,
		created_at DATETIME,
		updated_at DATETIME
	)`,
	`CREATE TABLE customization_options (
		id TEXT PRIMARY KEY,
		group_id TEXT NOT NULL,
		name TEXT NOT NULL,
		price_modifier TEXT NOT NULL DEFAULT '0',
		max_quantity INTEGER NOT NULL DEFAULT 1,
		is_default INTEGER NOT NULL DEFAULT 0,
		is_active INTEGER NOT NULL DEFAULT 1,
		position INTEGER NOT NULL DEFAULT 0,
		created_at DATETIME,
		updated_at DATETIME,
		UNIQUE (group_id, name)
	)`,
	`CREATE TABLE menu_item_groups (
		menu_item_id TEXT NOT NULL,
		group_id TEXT NOT NULL,
		position INTEGER NOT NULL DEFAULT 0,
		PRIMARY KEY (menu_item_id, group_id)
	)`,
	`CREATE TABLE combined_selection_rules (
		id TEXT PRIMARY KEY,
		menu_item_id TEXT NOT NULL,
		name TEXT NOT NULL,
		group_ids TEXT NOT NULL,
		target_count INTEGER NOT NULL,
		is_active INTEGER NOT NULL DEFAULT 1,
		created_at DATETIME,
		UNIQUE (menu_item_id, name)
	)`,
	`CREATE TABLE pizza_sizes (
		id TEXT PRIMARY KEY,
		name TEXT NOT NULL UNIQUE,
		diameter_in INTEGER NOT NULL,
		base_price TEXT NOT NULL,
		max_toppings INTEGER NOT NULL DEFAULT 0,
		position INTEGER NOT NULL DEFAULT 0,
		is_active INTEGER NOT NULL DEFAULT 1,
		created_at DATETIME
	)`,
	`CREATE TABLE pizza_toppings (
		id TEXT PRIMARY KEY,
		name TEXT NOT NULL UNIQUE,
		position INTEGER NOT NULL DEFAULT 0,
		is_active INTEGER NOT NULL DEFAULT 1,
		created_at DATETIME
	)`,
	`CREATE TABLE pizza_topping_prices (
		topping_id TEXT NOT NULL,
		size_id TEXT NOT NULL,
		price TEXT NOT NULL,
		PRIMARY KEY (topping_id, size_id)
	)`,
	`CREATE TABLE store_settings (
		id TEXT PRIMARY KEY,
		tax_rate TEXT NOT NULL,
		delivery_fee TEXT NOT NULL,
		pickup_fee TEXT NOT NULL DEFAULT '0',
		currency TEXT NOT NULL DEFAULT 'USD',
		updated_at DATETIME
	)`,
	`CREATE TABLE orders (
		id TEXT PRIMARY KEY,
		session_id TEXT,
		order_type TEXT NOT NULL,
		status TEXT NOT NULL DEFAULT 'received',
		customer_name TEXT NOT NULL,
		customer_phone TEXT NOT NULL,
		delivery_address TEXT,
		notes TEXT,
		currency TEXT NOT NULL DEFAULT 'USD',
		subtotal TEXT NOT NULL,
		tax_rate TEXT NOT NULL,
		tax TEXT NOT NULL,
		delivery_fee TEXT NOT NULL,
		tip TEXT NOT NULL DEFAULT '0',
		total TEXT NOT NULL,
		client_total TEXT,
		price_adjusted INTEGER NOT NULL DEFAULT 0,
		created_at DATETIME,
		updated_at DATETIME
	)`,
	`CREATE TABLE order_line_items (
		id TEXT PRIMARY KEY,
		order_id TEXT NOT NULL,
		position INTEGER NOT NULL,
		kind TEXT NOT NULL,
		menu_item_id TEXT,
		pizza_size_id TEXT,
		name TEXT NOT NULL,
		unit_price TEXT NOT NULL,
		quantity INTEGER NOT NULL,
		total_price TEXT NOT NULL,
		client_unit_price TEXT,
		selections TEXT NOT NULL,
		special_instructions TEXT,
		created_at DATETIME
	)`,
	`CREATE TABLE order_line_item_options (
		id TEXT PRIMARY KEY,
		line_item_id TEXT NOT NULL,
		group_name TEXT NOT NULL,
		option_id TEXT NOT NULL,
		option_name TEXT NOT NULL,
		quantity INTEGER NOT NULL,
		price_modifier TEXT NOT NULL,
		placement TEXT
	)`,
	`CREATE TABLE outbox_events (
		id TEXT PRIMARY KEY,
		event_type TEXT NOT NULL,
		aggregate_type TEXT NOT NULL,
		aggregate_id TEXT NOT NULL,
		payload TEXT NOT NULL,
		created_at DATETIME,
		published_at DATETIME,
		attempt_count INTEGER NOT NULL DEFAULT 0,
		last_error TEXT
	)`,
	`CREATE TABLE outbox_dlq (
		id TEXT PRIMARY KEY,
		event_id TEXT NOT NULL,
		event_type TEXT NOT NULL,
		aggregate_type TEXT NOT NULL,
		aggregate_id TEXT NOT NULL,
		payload_json TEXT NOT NULL,
		error_reason TEXT NOT NULL,
		error_message TEXT,
		attempt_count INTEGER NOT NULL DEFAULT 0,
		failed_at DATETIME NOT NULL
	)`,
	`CREATE TABLE maintenance_runs (
		name TEXT PRIMARY KEY,
		applied_at DATETIME NOT NULL,
		duration_ms INTEGER NOT NULL,
		affected INTEGER NOT NULL DEFAULT 0
	)`,
}

// Open returns an isolated in-memory sqlite database with every ordering
// table created. Each call gets its own database so parallel tests never share rows.
func Open(t testing.TB) *gorm.DB {
	t.Helper()

	dsn := "file:" + uuid.NewString() + "?mode=memory&cache=shared"
	conn, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	for _, stmt := range schema {
		if err := conn.Exec(stmt).Error; err != nil {
			t.Fatalf("create schema: %v", err)
		}
	}
	t.Cleanup(func() {
		if sqlDB, err := conn.DB(); err == nil {
			_ = sqlDB.Close()
		}
	})
	return conn
}
