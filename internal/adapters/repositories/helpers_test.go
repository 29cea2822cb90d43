package repositories

import (
	"context"
	"database/sql"
	"testing"

	"route-planner-service/internal/platform/db"

	"github.com/stretchr/testify/require"
)

func ptr(v float64) *float64 { return &v }

func openTestDB(t *testing.T) *sql.DB {
	t.Helper()

	conn, err := db.Open(db.DriverSQLite, ":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { conn.Close() })

	require.NoError(t, InitSchema(context.Background(), conn, SQLite))
	return conn
}

func seedOrders(t *testing.T, conn *sql.DB) {
	t.Helper()

	orders := []OrderSeed{
		{ID: 1, CustomerID: "c-1", Address: "Str. Gheorghe Doja 1", Lat: ptr(46.54), Lng: ptr(24.56), PriceTotal: 10, ServiceType: "PickupDelivery", DeliveryDate: "2024-05-01"},
		{ID: 2, CustomerID: "c-2", Address: "Str. Bolyai 2", Lat: ptr(46.55), Lng: ptr(24.57), PriceTotal: 20, ServiceType: "PickupDelivery", DeliveryDate: "2024-05-01"},
		{ID: 3, CustomerID: "c-3", Address: "Str. Rozelor 3", Lat: ptr(46.53), Lng: ptr(24.55), PriceTotal: 30, ServiceType: "PickupDelivery", DeliveryDate: "2024-05-01"},
		{ID: 4, CustomerID: "c-4", Address: "no geocode", PriceTotal: 5, ServiceType: "PickupDelivery", DeliveryDate: "2024-05-01"},
		{ID: 5, CustomerID: "c-5", Address: "Str. Libertatii 5", Lat: ptr(46.52), Lng: ptr(24.54), PriceTotal: 50, ServiceType: "Laundry", DeliveryDate: "2024-05-01"},
		{ID: 6, CustomerID: "c-6", Address: "Str. Victor Babes 6", Lat: ptr(46.51), Lng: ptr(24.53), PriceTotal: 60, ServiceType: "PickupDelivery", DeliveryDate: "2024-05-02"},
	}
	require.NoError(t, UpsertOrders(context.Background(), conn, SQLite, orders))
}
