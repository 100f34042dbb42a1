package store

import (
	"context"
	"fmt"
)

// partitionTables is the DDL for one building partition. Statements use
// the {schema} placeholder like every other operation, so creating a
// partition goes through the same tenant-scoped path as reading it.
var partitionTables = []string{
	`CREATE TABLE IF NOT EXISTS {schema}.service_type_categories (
		category_id INTEGER PRIMARY KEY,
		name TEXT NOT NULL,
		description TEXT
	)`,
	`CREATE TABLE IF NOT EXISTS {schema}.service_types (
		service_type_id INTEGER PRIMARY KEY,
		code TEXT NOT NULL UNIQUE,
		name TEXT NOT NULL,
		unit TEXT,
		is_mandatory INTEGER NOT NULL DEFAULT 0,
		is_recurring INTEGER NOT NULL DEFAULT 0,
		is_active INTEGER NOT NULL DEFAULT 1,
		is_delete INTEGER NOT NULL DEFAULT 0,
		category_id INTEGER REFERENCES service_type_categories(category_id)
	)`,
	`CREATE TABLE IF NOT EXISTS {schema}.service_prices (
		price_id INTEGER PRIMARY KEY,
		service_type_id INTEGER NOT NULL REFERENCES service_types(service_type_id),
		unit_price REAL NOT NULL,
		effective_date TEXT NOT NULL,
		end_date TEXT,
		status TEXT NOT NULL DEFAULT 'APPROVED'
	)`,
	`CREATE TABLE IF NOT EXISTS {schema}.amenities (
		amenity_id INTEGER PRIMARY KEY,
		code TEXT NOT NULL UNIQUE,
		name TEXT NOT NULL,
		category_name TEXT,
		location TEXT,
		has_monthly_package INTEGER NOT NULL DEFAULT 0,
		fee_type TEXT,
		status TEXT NOT NULL DEFAULT 'ACTIVE',
		requires_face_verification INTEGER NOT NULL DEFAULT 0,
		asset_id INTEGER,
		is_delete INTEGER NOT NULL DEFAULT 0
	)`,
	`CREATE TABLE IF NOT EXISTS {schema}.amenity_packages (
		package_id INTEGER PRIMARY KEY,
		amenity_id INTEGER NOT NULL REFERENCES amenities(amenity_id),
		name TEXT NOT NULL,
		month_count INTEGER NOT NULL,
		price REAL NOT NULL,
		description TEXT,
		status TEXT NOT NULL DEFAULT 'ACTIVE',
		duration_days INTEGER,
		period_unit TEXT
	)`,
	`CREATE TABLE IF NOT EXISTS {schema}.floors (
		floor_id INTEGER PRIMARY KEY,
		floor_number INTEGER NOT NULL,
		name TEXT
	)`,
	`CREATE TABLE IF NOT EXISTS {schema}.apartments (
		apartment_id INTEGER PRIMARY KEY,
		floor_id INTEGER NOT NULL REFERENCES floors(floor_id),
		number TEXT NOT NULL,
		area_m2 REAL,
		bedrooms INTEGER,
		status TEXT NOT NULL DEFAULT 'AVAILABLE',
		type TEXT,
		image TEXT,
		created_at TEXT NOT NULL DEFAULT (datetime('now')),
		updated_at TEXT NOT NULL DEFAULT (datetime('now'))
	)`,
}

// EnsureSchema creates the bound building's tables if they do not exist.
func (s *Store) EnsureSchema(ctx context.Context) error {
	for _, ddl := range partitionTables {
		if _, err := s.Exec(ctx, ddl); err != nil {
			return fmt.Errorf("creating partition tables: %w", err)
		}
	}
	return nil
}
