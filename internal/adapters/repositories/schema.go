package repositories

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"route-planner-service/internal/domain"
	"strings"
	"time"
)

var sqliteSchema = []string{
	`
	CREATE TABLE IF NOT EXISTS orders (
		id INTEGER PRIMARY KEY,
		customer_id TEXT NOT NULL DEFAULT '',
		phone TEXT NOT NULL DEFAULT '',
		address TEXT NOT NULL DEFAULT '',
		lat REAL,
		lng REAL,
		price_total REAL NOT NULL DEFAULT 0,
		service_type TEXT NOT NULL DEFAULT '',
		delivery_date TEXT NOT NULL
	);
	`,
	`
	CREATE TABLE IF NOT EXISTS routes (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		created_at TIMESTAMP NOT NULL,
		created_by TEXT NOT NULL DEFAULT '',
		driver_name TEXT NOT NULL DEFAULT '',
		is_started BOOLEAN NOT NULL DEFAULT FALSE
	);
	`,
	`
	CREATE TABLE IF NOT EXISTS route_stops (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		route_id INTEGER NOT NULL REFERENCES routes(id) ON DELETE CASCADE,
		order_id INTEGER NOT NULL REFERENCES orders(id),
		stop_index INTEGER NOT NULL CHECK (stop_index >= 1),
		is_completed BOOLEAN NOT NULL DEFAULT FALSE,
		UNIQUE (order_id),
		UNIQUE (route_id, stop_index)
	);
	`,
	`
	CREATE TABLE IF NOT EXISTS position_reports (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		route_id INTEGER NOT NULL REFERENCES routes(id) ON DELETE CASCADE,
		lat REAL NOT NULL,
		lng REAL NOT NULL,
		recorded_at TIMESTAMP NOT NULL
	);
	`,
	`
	CREATE TABLE IF NOT EXISTS polyline_cache (
		cache_key TEXT PRIMARY KEY,
		polyline TEXT NOT NULL,
		created_at TIMESTAMP NOT NULL
	);
	`,
}

var postgresSchema = []string{
	`
	CREATE TABLE IF NOT EXISTS orders (
		id BIGINT PRIMARY KEY,
		customer_id TEXT NOT NULL DEFAULT '',
		phone TEXT NOT NULL DEFAULT '',
		address TEXT NOT NULL DEFAULT '',
		lat DOUBLE PRECISION,
		lng DOUBLE PRECISION,
		price_total DOUBLE PRECISION NOT NULL DEFAULT 0,
		service_type TEXT NOT NULL DEFAULT '',
		delivery_date TEXT NOT NULL
	);
	`,
	`
	CREATE TABLE IF NOT EXISTS routes (
		id BIGSERIAL PRIMARY KEY,
		created_at TIMESTAMPTZ NOT NULL,
		created_by TEXT NOT NULL DEFAULT '',
		driver_name TEXT NOT NULL DEFAULT '',
		is_started BOOLEAN NOT NULL DEFAULT FALSE
	);
	`,
	`
	CREATE TABLE IF NOT EXISTS route_stops (
		id BIGSERIAL PRIMARY KEY,
		route_id BIGINT NOT NULL REFERENCES routes(id) ON DELETE CASCADE,
		order_id BIGINT NOT NULL REFERENCES orders(id),
		stop_index INTEGER NOT NULL CHECK (stop_index >= 1),
		is_completed BOOLEAN NOT NULL DEFAULT FALSE,
		UNIQUE (order_id),
		UNIQUE (route_id, stop_index)
	);
	`,
	`
	CREATE TABLE IF NOT EXISTS position_reports (
		id BIGSERIAL PRIMARY KEY,
		route_id BIGINT NOT NULL REFERENCES routes(id) ON DELETE CASCADE,
		lat DOUBLE PRECISION NOT NULL,
		lng DOUBLE PRECISION NOT NULL,
		recorded_at TIMESTAMPTZ NOT NULL
	);
	`,
	`
	CREATE TABLE IF NOT EXISTS polyline_cache (
		cache_key TEXT PRIMARY KEY,
		polyline TEXT NOT NULL,
		created_at TIMESTAMPTZ NOT NULL
	);
	`,
}

var sharedIndexes = []string{
	`CREATE INDEX IF NOT EXISTS idx_orders_eligible ON orders(delivery_date, service_type);`,
	`CREATE INDEX IF NOT EXISTS idx_position_reports_route_time ON position_reports(route_id, recorded_at);`,
}

// Initialize the database schema for the given dialect.
func InitSchema(ctx context.Context, db *sql.DB, dialect Dialect) error {
	if db == nil {
		return errors.New("init schema: DB is nil")
	}

	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("init schema: begin tx: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	statements := sqliteSchema
	if dialect == Postgres {
		statements = postgresSchema
	}
	statements = append(append([]string{}, statements...), sharedIndexes...)

	for i, stmt := range statements {
		if _, err := tx.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("init schema: exec statement #%d: %w", i+1, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("init schema: commit tx: %w", err)
	}

	return nil
}

// OrderSeed is the JSON shape of a seeded order.
type OrderSeed struct {
	ID           int64    `json:"id"`
	CustomerID   string   `json:"customer_id"`
	Phone        string   `json:"phone"`
	Address      string   `json:"address"`
	Lat          *float64 `json:"lat"`
	Lng          *float64 `json:"lng"`
	PriceTotal   float64  `json:"price_total"`
	ServiceType  string   `json:"service_type"`
	DeliveryDate string   `json:"delivery_date"`
}

// Populate the orders table from a JSON file.
func SeedFromJSON(ctx context.Context, db *sql.DB, dialect Dialect, jsonPath string) error {
	bytes, err := os.ReadFile(jsonPath)
	if err != nil {
		return fmt.Errorf("seed orders: read %q: %w", jsonPath, err)
	}

	var data []OrderSeed
	if err := json.Unmarshal(bytes, &data); err != nil {
		return fmt.Errorf("seed orders: parse json: %w", err)
	}

	return UpsertOrders(ctx, db, dialect, data)
}

// UpsertOrders validates and writes orders in one transaction.
func UpsertOrders(ctx context.Context, db *sql.DB, dialect Dialect, orders []OrderSeed) error {
	if db == nil {
		return errors.New("seed orders: DB is nil")
	}

	for i, o := range orders {
		if o.ID <= 0 {
			return fmt.Errorf("seed orders: invalid id at index %d: %d", i+1, o.ID)
		}
		if _, err := time.Parse(domain.DateLayout, strings.TrimSpace(o.DeliveryDate)); err != nil {
			return fmt.Errorf("seed orders: order %d: delivery_date %q: %w", o.ID, o.DeliveryDate, err)
		}
		if (o.Lat == nil) != (o.Lng == nil) {
			return fmt.Errorf("seed orders: order %d: lat and lng must be set together", o.ID)
		}
		if o.Lat != nil {
			c := domain.Coordinates{Lat: *o.Lat, Lng: *o.Lng}
			if err := c.Validate(); err != nil {
				return fmt.Errorf("seed orders: order %d: %w", o.ID, err)
			}
		}
	}

	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("seed orders: begin tx: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	query := dialect.Rebind(`
	INSERT INTO orders (
		id,
		customer_id,
		phone,
		address,
		lat,
		lng,
		price_total,
		service_type,
		delivery_date
	)
	VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
	ON CONFLICT (id) DO UPDATE
	SET customer_id = excluded.customer_id,
		phone = excluded.phone,
		address = excluded.address,
		lat = excluded.lat,
		lng = excluded.lng,
		price_total = excluded.price_total,
		service_type = excluded.service_type,
		delivery_date = excluded.delivery_date;
	`)
	stmt, err := tx.PrepareContext(ctx, query)
	if err != nil {
		return fmt.Errorf("seed orders: prepare insert: %w", err)
	}
	defer stmt.Close()

	for _, o := range orders {
		var lat, lng sql.NullFloat64
		if o.Lat != nil {
			lat = sql.NullFloat64{Float64: *o.Lat, Valid: true}
			lng = sql.NullFloat64{Float64: *o.Lng, Valid: true}
		}
		if _, err := stmt.ExecContext(ctx,
			o.ID,
			strings.TrimSpace(o.CustomerID),
			strings.TrimSpace(o.Phone),
			strings.TrimSpace(o.Address),
			lat,
			lng,
			o.PriceTotal,
			strings.TrimSpace(o.ServiceType),
			strings.TrimSpace(o.DeliveryDate),
		); err != nil {
			return fmt.Errorf("seed orders: insert id=%d: %w", o.ID, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("seed orders: commit tx: %w", err)
	}

	return nil
}
